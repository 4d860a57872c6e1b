package catalog

import (
	"sync"

	"vecdb-go/internal/apierr"
	"vecdb-go/internal/metric"
)

// Catalog is the thread-safe mapping from collection name to Collection.
// It is exclusively owned by the process's DbState; the Catalog grants
// scoped read-only or exclusive access to each Collection via
// CollectionHandle.
type Catalog struct {
	mu          sync.RWMutex
	collections map[string]*Collection
}

// New returns an empty Catalog.
func New() *Catalog {
	return &Catalog{collections: make(map[string]*Collection)}
}

// CreateCollection atomically inserts a new Collection if name is absent.
// It returns false, leaving the existing collection untouched, if name
// already exists.
func (cat *Catalog) CreateCollection(name string, dim int, m metric.Metric) bool {
	cat.mu.Lock()
	defer cat.mu.Unlock()

	if _, exists := cat.collections[name]; exists {
		return false
	}
	cat.collections[name] = NewCollection(name, dim, m)
	return true
}

// Get returns a handle to the named collection, or false if it does not
// currently exist.
func (cat *Catalog) Get(name string) (*CollectionHandle, bool) {
	cat.mu.RLock()
	_, exists := cat.collections[name]
	cat.mu.RUnlock()

	if !exists {
		return nil, false
	}
	return &CollectionHandle{name: name, cat: cat}, true
}

// Len returns the number of collections.
func (cat *Catalog) Len() int {
	cat.mu.RLock()
	defer cat.mu.RUnlock()
	return len(cat.collections)
}

// TotalPoints returns the sum of FlatIndex.Len() across all collections.
func (cat *Catalog) TotalPoints() int {
	cat.mu.RLock()
	defer cat.mu.RUnlock()
	total := 0
	for _, c := range cat.collections {
		total += c.Len()
	}
	return total
}

// CollectionHandle is a weak-by-name reference to a Collection: it holds
// the collection name and a shared reference to the Catalog, so it remains
// valid as long as the Catalog exists and the collection has not been
// removed (v1 never removes).
type CollectionHandle struct {
	name string
	cat  *Catalog
}

// Name returns the handle's collection name.
func (h *CollectionHandle) Name() string {
	return h.name
}

// WithRef acquires shared read access to the named Collection for the
// duration of f. It returns false if the collection no longer exists.
func (h *CollectionHandle) WithRef(f func(c *Collection)) bool {
	h.cat.mu.RLock()
	defer h.cat.mu.RUnlock()

	c, exists := h.cat.collections[h.name]
	if !exists {
		return false
	}
	f(c)
	return true
}

// WithMut acquires exclusive write access to the named Collection for the
// duration of f. It returns false if the collection no longer exists.
func (h *CollectionHandle) WithMut(f func(c *Collection)) bool {
	h.cat.mu.Lock()
	defer h.cat.mu.Unlock()

	c, exists := h.cat.collections[h.name]
	if !exists {
		return false
	}
	f(c)
	return true
}

// Point is one (id, vector, payload) triple passed to UpsertPoints.
type Point struct {
	ID      string
	Vector  []float32
	Payload string
}

// UpsertPoints validates dimensions under a read guard, then performs the
// append under a write guard. Returns NotFound if the collection no
// longer exists, InvalidArgument on dimension mismatch.
func (h *CollectionHandle) UpsertPoints(points []Point) (int, error) {
	if len(points) == 0 {
		var count int
		ok := h.WithRef(func(*Collection) { count = 0 })
		if !ok {
			return 0, apierr.Newf(apierr.NotFound, "collection %q not found", h.name)
		}
		return count, nil
	}

	dimsOK := true
	ok := h.WithRef(func(c *Collection) {
		for _, p := range points {
			if !c.ValidateDim(p.Vector) {
				dimsOK = false
				break
			}
		}
	})
	if !ok {
		return 0, apierr.Newf(apierr.NotFound, "collection %q not found", h.name)
	}
	if !dimsOK {
		return 0, apierr.New(apierr.InvalidArgument, "vector dimension mismatch")
	}

	var count int
	var upsertErr error
	h.WithMut(func(c *Collection) {
		ids := make([]string, len(points))
		vectors := make([][]float32, len(points))
		payloads := make([]string, len(points))
		for i, p := range points {
			ids[i] = p.ID
			vectors[i] = p.Vector
			payloads[i] = p.Payload
		}
		count, upsertErr = c.UpsertBatch(ids, vectors, payloads)
	})
	if upsertErr != nil {
		return 0, apierr.Wrap(apierr.InvalidArgument, "upsert failed", upsertErr)
	}
	return count, nil
}

// Search is a pure read: it looks up the collection and runs a filtered
// top-K scan against it. Returns NotFound if the collection no longer
// exists, InvalidArgument on dimension mismatch.
func (h *CollectionHandle) Search(query []float32, k int, metricOverride *metric.Metric, filters []Filter) ([]Hit, error) {
	var hits []Hit
	var searchErr error
	ok := h.WithRef(func(c *Collection) {
		hits, searchErr = c.Search(query, k, metricOverride, filters)
	})
	if !ok {
		return nil, apierr.Newf(apierr.NotFound, "collection %q not found", h.name)
	}
	if searchErr != nil {
		return nil, apierr.Wrap(apierr.InvalidArgument, "search failed", searchErr)
	}
	return hits, nil
}
