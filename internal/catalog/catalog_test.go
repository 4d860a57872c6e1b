package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vecdb-go/internal/apierr"
	"vecdb-go/internal/metric"
)

func TestCreateCollectionDuplicate(t *testing.T) {
	cat := New()
	assert.True(t, cat.CreateCollection("demo", 4, metric.Cosine))
	assert.False(t, cat.CreateCollection("demo", 8, metric.L2))

	h, ok := cat.Get("demo")
	require.True(t, ok)
	var dim int
	h.WithRef(func(c *Collection) { dim = c.Dim })
	assert.Equal(t, 4, dim, "existing collection must be untouched by the rejected duplicate create")
}

func TestGetMissingCollection(t *testing.T) {
	cat := New()
	_, ok := cat.Get("nope")
	assert.False(t, ok)
}

func TestCatalogLenAndTotalPoints(t *testing.T) {
	cat := New()
	cat.CreateCollection("a", 2, metric.L2)
	cat.CreateCollection("b", 2, metric.L2)
	assert.Equal(t, 2, cat.Len())

	h, _ := cat.Get("a")
	_, err := h.UpsertPoints([]Point{
		{ID: "p1", Vector: []float32{1, 2}, Payload: "{}"},
		{ID: "p2", Vector: []float32{3, 4}, Payload: "{}"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, cat.TotalPoints())
}

func TestUpsertPointsDimensionMismatch(t *testing.T) {
	cat := New()
	cat.CreateCollection("demo", 2, metric.L2)
	h, ok := cat.Get("demo")
	require.True(t, ok)

	_, err := h.UpsertPoints([]Point{{ID: "x", Vector: []float32{1, 1, 1}, Payload: "{}"}})
	require.Error(t, err)
	assert.Equal(t, apierr.InvalidArgument, apierr.CodeOf(err))

	var n int
	h.WithRef(func(c *Collection) { n = c.Len() })
	assert.Equal(t, 0, n, "a rejected upsert must not add any rows")
}

func TestCreateUpsertQuery(t *testing.T) {
	cat := New()
	require.True(t, cat.CreateCollection("demo", 4, metric.Cosine))
	h, ok := cat.Get("demo")
	require.True(t, ok)

	n, err := h.UpsertPoints([]Point{
		{ID: "", Vector: []float32{1, 0, 0, 0}, Payload: `{"k":0}`},
		{ID: "manual", Vector: []float32{0, 1, 0, 0}, Payload: `{"k":1}`},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	hits, err := h.Search([]float32{0.9, 0.1, 0, 0}, 2, nil, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, `{"k":0}`, hits[0].Payload, "closer vector should rank first")
}

func TestFilteredQuery(t *testing.T) {
	cat := New()
	cat.CreateCollection("demo", 4, metric.Cosine)
	h, _ := cat.Get("demo")
	h.UpsertPoints([]Point{
		{ID: "", Vector: []float32{1, 0, 0, 0}, Payload: `{"k":0}`},
		{ID: "manual", Vector: []float32{0, 1, 0, 0}, Payload: `{"k":1}`},
	})

	hits, err := h.Search([]float32{0.9, 0.1, 0, 0}, 2, nil, []Filter{{Key: "k", Equals: "1"}})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, `{"k":1}`, hits[0].Payload)
}

func TestSearchDimensionMismatch(t *testing.T) {
	cat := New()
	cat.CreateCollection("demo", 3, metric.L2)
	h, _ := cat.Get("demo")

	_, err := h.Search([]float32{1, 2, 3, 4}, 1, nil, nil)
	require.Error(t, err)
	assert.Equal(t, apierr.InvalidArgument, apierr.CodeOf(err))
}

func TestSearchEmptyQueryVectorReturnsEmptyHits(t *testing.T) {
	cat := New()
	cat.CreateCollection("demo", 3, metric.L2)
	h, _ := cat.Get("demo")

	hits, err := h.Search(nil, 1, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchTopKZeroIsEmptyHitsNotError(t *testing.T) {
	cat := New()
	cat.CreateCollection("demo", 2, metric.L2)
	h, _ := cat.Get("demo")
	h.UpsertPoints([]Point{{ID: "a", Vector: []float32{1, 1}, Payload: "{}"}})

	hits, err := h.Search([]float32{1, 1}, 0, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestMetricOverrideOrderingOnly(t *testing.T) {
	cat := New()
	cat.CreateCollection("demo", 2, metric.L2)
	h, _ := cat.Get("demo")
	h.UpsertPoints([]Point{
		{ID: "near", Vector: []float32{1, 1}, Payload: "{}"},
		{ID: "far", Vector: []float32{10, 10}, Payload: "{}"},
	})

	override := metric.IP
	hits, err := h.Search([]float32{1, 1}, 2, &override, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "far", hits[0].ID, "IP override should rank the larger-magnitude vector first")
}

func TestDuplicateIDsBothRowsRemain(t *testing.T) {
	cat := New()
	cat.CreateCollection("demo", 2, metric.L2)
	h, _ := cat.Get("demo")
	h.UpsertPoints([]Point{
		{ID: "dup", Vector: []float32{1, 1}, Payload: `{"v":1}`},
		{ID: "dup", Vector: []float32{1, 1}, Payload: `{"v":2}`},
	})

	var n int
	h.WithRef(func(c *Collection) { n = c.Len() })
	assert.Equal(t, 2, n)
}
