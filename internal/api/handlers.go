package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"vecdb-go/internal/apierr"
	"vecdb-go/internal/catalog"
	"vecdb-go/internal/dbstate"
	"vecdb-go/internal/metric"
)

var state *dbstate.DbState

// Initialize binds the handlers to a DbState. Must be called once before
// the routes are registered.
func Initialize(s *dbstate.DbState) {
	state = s
}

// statusFor maps the core error taxonomy onto HTTP status codes.
func statusFor(code apierr.Code) int {
	switch code {
	case apierr.InvalidArgument:
		return http.StatusBadRequest
	case apierr.NotFound:
		return http.StatusNotFound
	case apierr.AlreadyExists:
		return http.StatusConflict
	case apierr.IoError, apierr.CorruptWal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	code := apierr.CodeOf(err)
	slog.Error("request failed", "code", code, "error", err)
	c.JSON(statusFor(code), ErrorResponse{Error: err.Error()})
}

// HandlePing answers a bare liveness check.
func HandlePing(c *gin.Context) {
	c.JSON(http.StatusOK, PingResponse{Message: state.Ping()})
}

// HandleCreateCollection creates a new named collection.
func HandleCreateCollection(c *gin.Context) {
	var req CreateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if req.Name == "" || req.Dim <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "name must be non-empty and dim must be positive"})
		return
	}

	if err := state.CreateCollection(req.Name, req.Dim, metric.Parse(req.Metric)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, CreateCollectionResponse{Name: req.Name})
}

// HandleUpsert writes a batch of points into the collection named by the
// :name URL parameter.
func HandleUpsert(c *gin.Context) {
	name := c.Param("name")

	var req UpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	rows := req.Vectors.Rows32()
	ids := req.Ids
	if len(ids) == 0 {
		ids = make([]string, len(rows))
	}
	if len(ids) != len(rows) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "ids and vectors must have the same length"})
		return
	}
	if len(req.Payloads) != 0 && len(req.Payloads) != len(rows) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "payloads and vectors must have the same length"})
		return
	}

	points := make([]catalog.Point, len(rows))
	for i, vec := range rows {
		payload := "{}"
		if len(req.Payloads) != 0 {
			raw, err := json.Marshal(req.Payloads[i])
			if err != nil {
				c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid payload: " + err.Error()})
				return
			}
			payload = string(raw)
		}
		points[i] = catalog.Point{ID: ids[i], Vector: vec, Payload: payload}
	}

	n, err := state.Upsert(name, points)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, UpsertResponse{Upserted: n})
}

// HandleQuery runs a top-K similarity search against the collection
// named by the :name URL parameter.
func HandleQuery(c *gin.Context) {
	name := c.Param("name")

	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	var override *metric.Metric
	if req.MetricOverride != "" {
		m := metric.Parse(req.MetricOverride)
		override = &m
	}

	hits, err := state.Query(dbstate.QueryRequest{
		Collection:     name,
		Query:          req.Query,
		K:              req.K,
		MetricOverride: override,
		Filters:        toCatalogFilters(req.Filters),
		WithPayloads:   req.WithPayloads,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]Hit, len(hits))
	for i, h := range hits {
		hit := Hit{ID: h.ID, Score: h.Score}
		if req.WithPayloads && h.Payload != "" {
			var payload map[string]any
			if err := json.Unmarshal([]byte(h.Payload), &payload); err == nil {
				hit.Payload = payload
			}
		}
		out[i] = hit
	}

	c.JSON(http.StatusOK, QueryResponse{Hits: out})
}
