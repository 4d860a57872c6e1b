// Package dbstate composes the Catalog and the write-ahead log into the
// single process-wide handle the transport layer drives: Catalog
// mutations are applied in memory first, then logged, and on startup the
// log is replayed to reconstruct the catalog before serving traffic.
package dbstate

import (
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"vecdb-go/internal/apierr"
	"vecdb-go/internal/catalog"
	"vecdb-go/internal/metric"
	"vecdb-go/internal/wal"
)

// DbStateConfig controls whether and where the write-ahead log is opened.
type DbStateConfig struct {
	EnableWal bool
	WalPath   string
}

// DefaultDbStateConfig reads VECTARAFT_ENABLE_WAL and VECTARAFT_WAL_PATH,
// defaulting to WAL enabled at data/wal.log when unset.
func DefaultDbStateConfig() DbStateConfig {
	return OverrideFromEnv(DbStateConfig{EnableWal: true, WalPath: "data/wal.log"})
}

// OverrideFromEnv layers VECTARAFT_ENABLE_WAL and VECTARAFT_WAL_PATH on top
// of cfg, leaving fields untouched when the corresponding variable is unset
// or unparseable. Disabling the WAL via VECTARAFT_ENABLE_WAL also clears
// WalPath, matching the --no-wal CLI flag's behavior.
func OverrideFromEnv(cfg DbStateConfig) DbStateConfig {
	if v, ok := os.LookupEnv("VECTARAFT_ENABLE_WAL"); ok {
		if b, ok := parseBool(v); ok {
			cfg.EnableWal = b
			if !b {
				cfg.WalPath = ""
			}
		}
	}

	if v, ok := os.LookupEnv("VECTARAFT_WAL_PATH"); ok && cfg.EnableWal {
		cfg.WalPath = v
	}
	return cfg
}

func parseBool(input string) (bool, bool) {
	switch strings.ToLower(input) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	default:
		return false, false
	}
}

// DbState owns the Catalog and, when enabled, the Wal. A failure to open
// the WAL is not fatal: the database starts without durability rather
// than refusing to serve traffic.
type DbState struct {
	Catalog *catalog.Catalog
	wal     *wal.Wal
}

// New opens a DbState from config, replaying any existing WAL before
// returning.
func New(cfg DbStateConfig) *DbState {
	state := &DbState{Catalog: catalog.New()}

	if cfg.EnableWal && cfg.WalPath != "" {
		w, err := wal.Open(cfg.WalPath)
		if err != nil {
			slog.Warn("failed to open WAL; continuing without durability", "path", cfg.WalPath, "error", err)
		} else {
			state.wal = w
		}
	}

	state.replayWal()
	return state
}

// replayWal reconstructs the catalog from the log. CreateCollection
// records for a name that already exists are ignored; Upsert records for
// a collection that no longer exists are dropped. A corrupt or
// unreadable log stops replay but leaves whatever prefix was already
// applied in place.
func (s *DbState) replayWal() {
	if s.wal == nil {
		return
	}

	records, err := s.wal.Replay()
	if err != nil {
		slog.Warn("failed to fully replay WAL; starting from the valid prefix", "error", err)
	}

	for _, rec := range records {
		switch rec.Type {
		case wal.TypeCreateCollection:
			s.Catalog.CreateCollection(rec.Name, rec.Dim, metric.Parse(rec.Metric))
		case wal.TypeUpsert:
			if h, ok := s.Catalog.Get(rec.Collection); ok {
				h.UpsertPoints([]catalog.Point{{ID: rec.ID, Vector: rec.Vector, Payload: rec.PayloadJSON}})
			}
		}
	}
}

func (s *DbState) appendWal(rec wal.Record) {
	if s.wal == nil {
		return
	}
	if err := s.wal.Append(rec); err != nil {
		slog.Error("failed to append WAL record", "error", err)
	}
}

// Ping is a no-op liveness check.
func (s *DbState) Ping() string {
	return "pong"
}

// CreateCollection applies the mutation to the catalog, then logs it.
// Returns InvalidArgument for an empty name or non-positive dim, and
// AlreadyExists if the name is taken.
func (s *DbState) CreateCollection(name string, dim int, m metric.Metric) error {
	if name == "" || dim <= 0 {
		return apierr.New(apierr.InvalidArgument, "name must be non-empty and dim must be positive")
	}
	if !s.Catalog.CreateCollection(name, dim, m) {
		return apierr.Newf(apierr.AlreadyExists, "collection %q already exists", name)
	}
	s.appendWal(wal.Record{Type: wal.TypeCreateCollection, Name: name, Dim: dim, Metric: m.String()})
	return nil
}

// Upsert mints an id for any point whose ID is empty, applies the batch
// to the collection, then logs each point individually so replay can
// reconstruct them row by row.
func (s *DbState) Upsert(collection string, points []catalog.Point) (int, error) {
	h, ok := s.Catalog.Get(collection)
	if !ok {
		return 0, apierr.Newf(apierr.NotFound, "collection %q not found", collection)
	}

	for i, p := range points {
		if p.ID == "" {
			points[i].ID = uuid.NewString()
		}
	}

	n, err := h.UpsertPoints(points)
	if err != nil {
		return 0, err
	}

	for _, p := range points {
		s.appendWal(wal.Record{
			Type:        wal.TypeUpsert,
			Collection:  collection,
			ID:          p.ID,
			Vector:      p.Vector,
			PayloadJSON: p.Payload,
		})
	}
	return n, nil
}

// QueryRequest bundles the parameters of a top-K query. MetricOverride,
// when non-nil, overrides the collection's default metric for scoring
// only. WithPayloads false blanks every hit's Payload field before return.
type QueryRequest struct {
	Collection     string
	Query          []float32
	K              int
	MetricOverride *metric.Metric
	Filters        []catalog.Filter
	WithPayloads   bool
}

// Query is a pure read: no WAL append is ever made for it.
func (s *DbState) Query(req QueryRequest) ([]catalog.Hit, error) {
	h, ok := s.Catalog.Get(req.Collection)
	if !ok {
		return nil, apierr.Newf(apierr.NotFound, "collection %q not found", req.Collection)
	}

	hits, err := h.Search(req.Query, req.K, req.MetricOverride, req.Filters)
	if err != nil {
		return nil, err
	}

	if !req.WithPayloads {
		for i := range hits {
			hits[i].Payload = ""
		}
	}
	return hits, nil
}
