// Package catalog implements the Collection and Catalog components: a
// named set of points sharing a fixed dimensionality and default metric,
// and the process-wide mapping from collection name to Collection.
package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/RoaringBitmap/roaring"

	"vecdb-go/internal/index"
	"vecdb-go/internal/metric"
)

// Filter is one exact-match payload predicate: the top-level JSON field
// Key must be present and its canonical string form must equal Equals.
type Filter struct {
	Key    string
	Equals string
}

// Hit is one scored result returned from Collection.Search.
type Hit struct {
	ID      string
	Score   float32
	Payload string
}

// Collection binds a FlatIndex to a fixed dimensionality and default
// metric. Dim and Metric are immutable after creation.
type Collection struct {
	Name   string
	Dim    int
	Metric metric.Metric
	index  *index.FlatIndex
}

// NewCollection creates a Collection with an empty backing FlatIndex whose
// dim and metric match the collection's.
func NewCollection(name string, dim int, m metric.Metric) *Collection {
	return &Collection{
		Name:   name,
		Dim:    dim,
		Metric: m,
		index:  index.New(dim, m),
	}
}

// ValidateDim reports whether vector's length matches the collection's
// dimensionality.
func (c *Collection) ValidateDim(vector []float32) bool {
	return len(vector) == c.Dim
}

// Len returns the number of points currently stored.
func (c *Collection) Len() int {
	return c.index.Len()
}

// UpsertBatch delegates to the backing FlatIndex and returns the number of
// rows added. Input lengths must match; this is the caller's
// responsibility.
func (c *Collection) UpsertBatch(ids []string, vectors [][]float32, payloads []string) (int, error) {
	if len(vectors) == 0 {
		return 0, nil
	}
	if err := c.index.AddBatch(ids, vectors, payloads); err != nil {
		return 0, err
	}
	return len(vectors), nil
}

// Search runs a filtered top-K scan: if filters is non-empty, each
// candidate row's payload is parsed as a JSON object and must match every
// filter (logical AND); payloads that fail to parse as a JSON object are
// excluded. The retained rows are then scored under metricOverride (or the
// collection's default metric) and the top k returned, sorted by
// descending score.
func (c *Collection) Search(query []float32, k int, metricOverride *metric.Metric, filters []Filter) ([]Hit, error) {
	if len(query) == 0 {
		return []Hit{}, nil
	}
	if !c.ValidateDim(query) {
		return nil, fmt.Errorf("dimension mismatch: query length %d, expected %d", len(query), c.Dim)
	}

	m := c.Metric
	if metricOverride != nil {
		m = *metricOverride
	}

	var include func(row int) bool
	if len(filters) > 0 {
		bitmap := c.matchingRows(filters)
		include = func(row int) bool { return bitmap.Contains(uint32(row)) }
	}

	scored := c.index.SearchTopK(query, k, m, include)
	hits := make([]Hit, len(scored))
	for i, s := range scored {
		hits[i] = Hit{
			ID:      c.index.ID(s.Row),
			Score:   s.Score,
			Payload: c.index.Payload(s.Row),
		}
	}
	return hits, nil
}

// matchingRows builds, in parallel, a bitmap of row indices whose payload
// satisfies every filter.
func (c *Collection) matchingRows(filters []Filter) *roaring.Bitmap {
	n := c.index.Len()
	result := roaring.New()
	if n == 0 {
		return result
	}

	type shard struct {
		bitmap *roaring.Bitmap
	}

	workers := shardCount(n)
	shards := make([]shard, workers)
	step := (n + workers - 1) / workers

	done := make(chan int, workers)
	for w := 0; w < workers; w++ {
		start := w * step
		end := start + step
		if end > n {
			end = n
		}
		shards[w] = shard{bitmap: roaring.New()}
		if start >= end {
			done <- w
			continue
		}
		go func(w, start, end int) {
			for row := start; row < end; row++ {
				if payloadMatches(c.index.Payload(row), filters) {
					shards[w].bitmap.Add(uint32(row))
				}
			}
			done <- w
		}(w, start, end)
	}
	for i := 0; i < workers; i++ {
		<-done
	}

	for _, s := range shards {
		result.Or(s.bitmap)
	}
	return result
}

func shardCount(n int) int {
	const maxShards = 8
	if n < maxShards {
		return n
	}
	return maxShards
}

// payloadMatches parses payload as JSON and checks it against every
// filter. A payload that is not a JSON object, or lacks a filtered key, or
// whose value is null/array/object, never matches.
func payloadMatches(payload string, filters []Filter) bool {
	var obj map[string]any
	if err := json.Unmarshal([]byte(payload), &obj); err != nil {
		return false
	}

	for _, f := range filters {
		value, ok := obj[f.Key]
		if !ok || !valueEquals(value, f.Equals) {
			return false
		}
	}
	return true
}

func valueEquals(value any, expected string) bool {
	switch v := value.(type) {
	case string:
		return v == expected
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64) == expected
	case bool:
		return strconv.FormatBool(v) == expected
	default:
		return false
	}
}
