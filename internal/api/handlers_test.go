package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vecdb-go/internal/dbstate"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	Initialize(dbstate.New(dbstate.DbStateConfig{EnableWal: false}))

	router := gin.New()
	router.GET("/ping", HandlePing)
	router.POST("/collections", HandleCreateCollection)
	router.POST("/collections/:name/points", HandleUpsert)
	router.POST("/collections/:name/query", HandleQuery)
	return router
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandlePing(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(router, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp PingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "pong", resp.Message)
}

func TestHandleCreateCollectionThenDuplicate(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(router, http.MethodPost, "/collections", CreateCollectionRequest{Name: "demo", Dim: 4, Metric: "cosine"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(router, http.MethodPost, "/collections", CreateCollectionRequest{Name: "demo", Dim: 4, Metric: "cosine"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandleCreateCollectionRejectsBadInput(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(router, http.MethodPost, "/collections", CreateCollectionRequest{Name: "", Dim: 4})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleUpsertAndQueryRoundTrip(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(router, http.MethodPost, "/collections", CreateCollectionRequest{Name: "demo", Dim: 2, Metric: "l2"})
	require.Equal(t, http.StatusOK, rec.Code)

	upsertBody := map[string]any{
		"ids":      []string{"a", "b"},
		"vectors":  [][]float32{{1, 1}, {9, 9}},
		"payloads": []map[string]any{{"k": 1}, {"k": 2}},
	}
	rec = doJSON(router, http.MethodPost, "/collections/demo/points", upsertBody)
	require.Equal(t, http.StatusOK, rec.Code)

	var upsertResp UpsertResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &upsertResp))
	assert.Equal(t, 2, upsertResp.Upserted)

	rec = doJSON(router, http.MethodPost, "/collections/demo/query", QueryRequest{
		Query: []float32{1, 1}, K: 1, WithPayloads: true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var queryResp QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &queryResp))
	require.Len(t, queryResp.Hits, 1)
	assert.Equal(t, "a", queryResp.Hits[0].ID)
	assert.Equal(t, float64(1), queryResp.Hits[0].Payload["k"])
}

func TestHandleQueryUnknownCollectionIsNotFound(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(router, http.MethodPost, "/collections/ghost/query", QueryRequest{Query: []float32{1, 2}, K: 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleUpsertMismatchedIdsIsBadRequest(t *testing.T) {
	router := newTestRouter(t)
	doJSON(router, http.MethodPost, "/collections", CreateCollectionRequest{Name: "demo", Dim: 2})

	rec := doJSON(router, http.MethodPost, "/collections/demo/points", map[string]any{
		"ids":     []string{"only-one"},
		"vectors": [][]float32{{1, 1}, {2, 2}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
