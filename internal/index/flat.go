// Package index implements the flat (brute-force) vector index: a dense
// columnar store of vectors/ids/payloads for one collection, with a
// parallel top-K scorer.
package index

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"vecdb-go/internal/metric"
)

// Scored is one candidate produced by a scan: the row index it came from
// and its score under the effective metric.
type Scored struct {
	Row   int
	Score float32
}

// FlatIndex is a dense columnar store for one collection. vectors is
// row-major: row i spans offsets [i*Dim, (i+1)*Dim).
type FlatIndex struct {
	Dim      int
	Metric   metric.Metric
	vectors  []float32
	ids      []string
	payloads []string
}

// New allocates an empty FlatIndex. dim must be >= 1; callers enforce this.
func New(dim int, m metric.Metric) *FlatIndex {
	return &FlatIndex{Dim: dim, Metric: m}
}

// Len returns the number of rows currently stored.
func (fi *FlatIndex) Len() int {
	return len(fi.ids)
}

// ID returns the stored id for row i.
func (fi *FlatIndex) ID(i int) string {
	return fi.ids[i]
}

// Payload returns the stored payload for row i.
func (fi *FlatIndex) Payload(i int) string {
	return fi.payloads[i]
}

// Vector returns the slice backing row i. It aliases the index's storage
// and must not be retained past the next mutation.
func (fi *FlatIndex) Vector(i int) []float32 {
	return fi.vectors[i*fi.Dim : (i+1)*fi.Dim]
}

// AddBatch appends ids, vectors and payloads wholesale. ids, vecs and
// payloads must have the same length, and every vector must have length
// Dim; violating either fails with a dimension-mismatch error. There is no
// deduplication: the same external id appearing twice inserts two rows.
func (fi *FlatIndex) AddBatch(ids []string, vecs [][]float32, payloads []string) error {
	if len(ids) != len(vecs) || len(ids) != len(payloads) {
		return fmt.Errorf("dimension mismatch: ids=%d vectors=%d payloads=%d", len(ids), len(vecs), len(payloads))
	}
	for i, v := range vecs {
		if len(v) != fi.Dim {
			return fmt.Errorf("dimension mismatch: vector %d has length %d, expected %d", i, len(v), fi.Dim)
		}
	}

	fi.ids = append(fi.ids, ids...)
	fi.payloads = append(fi.payloads, payloads...)
	for _, v := range vecs {
		fi.vectors = append(fi.vectors, v...)
	}
	return nil
}

// SearchTopK runs the scan kernel over every row (or, when include is
// non-nil, over only the rows for which include(row) is true) and returns
// the top K by descending score. Ties break by ascending row index.
// len(query) must equal Dim; callers enforce this.
func (fi *FlatIndex) SearchTopK(query []float32, k int, m metric.Metric, include func(row int) bool) []Scored {
	if fi.Len() == 0 || k <= 0 {
		return []Scored{}
	}

	scored := fi.scanAll(query, m, include)
	if len(scored) == 0 {
		return []Scored{}
	}

	if k > len(scored) {
		k = len(scored)
	}
	partialSortTopK(scored, k)
	return scored[:k]
}

// scanAll scores every eligible row in parallel, sharding the row range
// across GOMAXPROCS workers via errgroup — parallelism is advisory, result
// ordering never depends on it.
func (fi *FlatIndex) scanAll(query []float32, m metric.Metric, include func(row int) bool) []Scored {
	n := fi.Len()
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}

	shardResults := make([][]Scored, workers)
	g, _ := errgroup.WithContext(context.Background())
	shard := (n + workers - 1) / workers

	for w := 0; w < workers; w++ {
		w := w
		start := w * shard
		end := start + shard
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}
		g.Go(func() error {
			local := make([]Scored, 0, end-start)
			for row := start; row < end; row++ {
				if include != nil && !include(row) {
					continue
				}
				local = append(local, Scored{Row: row, Score: metric.Score(m, query, fi.Vector(row))})
			}
			shardResults[w] = local
			return nil
		})
	}
	_ = g.Wait()

	total := 0
	for _, s := range shardResults {
		total += len(s)
	}
	out := make([]Scored, 0, total)
	for _, s := range shardResults {
		out = append(out, s...)
	}
	return out
}

// partialSortTopK partitions scored so the k best elements (by less below)
// are in scored[:k], then sorts that prefix. NaN scores compare equal to
// each other and below every finite score, so they never crowd out real
// hits; ties break by ascending row index, making the ordering a strict
// weak ordering safe for sort.Slice.
func partialSortTopK(scored []Scored, k int) {
	quickselect(scored, k-1, less)
	prefix := scored[:k]
	sort.Slice(prefix, func(i, j int) bool { return less(prefix[i], prefix[j]) })
}

// less reports whether a ranks strictly better (should sort earlier) than
// b: higher score wins, NaN is worse than any finite value and equal to
// other NaNs, and ties break by ascending row index.
func less(a, b Scored) bool {
	aNaN := math.IsNaN(float64(a.Score))
	bNaN := math.IsNaN(float64(b.Score))
	switch {
	case aNaN && bNaN:
		return a.Row < b.Row
	case aNaN:
		return false
	case bNaN:
		return true
	case a.Score != b.Score:
		return a.Score > b.Score
	default:
		return a.Row < b.Row
	}
}

// quickselect partitions s in place so the nth-smallest element under less
// ends up at s[n], with everything before it comparing less-or-equal and
// everything after comparing greater-or-equal. Go's stdlib has no
// nth_element / select_nth_unstable, so this is hand-rolled with Lomuto
// partitioning.
func quickselect(s []Scored, n int, less func(a, b Scored) bool) {
	lo, hi := 0, len(s)-1
	for lo < hi {
		p := partition(s, lo, hi, less)
		switch {
		case n < p:
			hi = p - 1
		case n > p:
			lo = p + 1
		default:
			return
		}
	}
}

func partition(s []Scored, lo, hi int, less func(a, b Scored) bool) int {
	pivot := s[(lo+hi)/2]
	s[(lo+hi)/2], s[hi] = s[hi], s[(lo+hi)/2]
	store := lo
	for i := lo; i < hi; i++ {
		if less(s[i], pivot) {
			s[i], s[store] = s[store], s[i]
			store++
		}
	}
	s[store], s[hi] = s[hi], s[store]
	return store
}
