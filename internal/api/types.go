package api

import (
	"vecdb-go/internal/catalog"
	"vecdb-go/internal/mat"
)

// CreateCollectionRequest is the body of the create-collection route.
type CreateCollectionRequest struct {
	Name   string `json:"name"`
	Dim    int    `json:"dim"`
	Metric string `json:"metric,omitempty"`
}

// CreateCollectionResponse confirms creation.
type CreateCollectionResponse struct {
	Name string `json:"name"`
}

// UpsertRequest batches points for the collection named in the URL.
type UpsertRequest struct {
	Ids      []string         `json:"ids,omitempty"`
	Vectors  mat.Matrix32     `json:"vectors"`
	Payloads []map[string]any `json:"payloads,omitempty"`
}

// UpsertResponse reports how many rows were written.
type UpsertResponse struct {
	Upserted int `json:"upserted"`
}

// FilterRequest is one equality predicate on a top-level payload field.
type FilterRequest struct {
	Key    string `json:"key"`
	Equals string `json:"equals"`
}

// QueryRequest is the body of the query route.
type QueryRequest struct {
	Query          []float32       `json:"query"`
	K              int             `json:"k"`
	MetricOverride string          `json:"metric_override,omitempty"`
	Filters        []FilterRequest `json:"filters,omitempty"`
	WithPayloads   bool            `json:"with_payloads,omitempty"`
}

// Hit is one scored result.
type Hit struct {
	ID      string         `json:"id"`
	Score   float32        `json:"score"`
	Payload map[string]any `json:"payload,omitempty"`
}

// QueryResponse wraps the ranked hit list.
type QueryResponse struct {
	Hits []Hit `json:"hits"`
}

// PingResponse is returned by the liveness route.
type PingResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the uniform error body across every route.
type ErrorResponse struct {
	Error string `json:"error"`
}

func toCatalogFilters(in []FilterRequest) []catalog.Filter {
	if len(in) == 0 {
		return nil
	}
	out := make([]catalog.Filter, len(in))
	for i, f := range in {
		out[i] = catalog.Filter{Key: f.Key, Equals: f.Equals}
	}
	return out
}
