package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"wayfinder/application/ports"
	"wayfinder/domain/core/valueobjects"
	pkgerrors "wayfinder/pkg/errors"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", srv.Client(), DefaultBreakerConfig(), zaptest.NewLogger(t))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestListNodesSendsQuery(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/nodes", r.URL.Path)
		assert.Equal(t, "m1", r.URL.Query().Get("map_id"))
		assert.Equal(t, "2", r.URL.Query().Get("floor"))
		writeJSON(w, http.StatusOK, []map[string]interface{}{
			{"id": "n1", "map_id": "m1", "x": 10, "y": 20, "floor": 2, "is_landmark": true},
		})
	}))

	nodes, err := c.ListNodes(context.Background(), "m1", 2)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, valueobjects.NodeID("n1"), nodes[0].ID())
	assert.Equal(t, valueobjects.Point{X: 10, Y: 20}, nodes[0].Position())
	assert.True(t, nodes[0].IsLandmark())
}

func TestListNodesAllFloorsOmitsFloor(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("floor"))
		writeJSON(w, http.StatusOK, []interface{}{})
	}))

	nodes, err := c.ListNodes(context.Background(), "m1", 0)
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestListMapsUnwrapsItems(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"items": []map[string]interface{}{{"id": "m1", "name": "Campus", "width": 800, "height": 600}},
		})
	}))

	maps, err := c.ListMaps(context.Background())
	require.NoError(t, err)
	require.Len(t, maps, 1)
	assert.Equal(t, "Campus", maps[0].Name())
}

func TestCreateEdgePostsBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req ports.CreateEdgeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, valueobjects.NodeID("a"), req.StartNodeID)
		assert.Len(t, req.Polyline, 2)

		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"id": "e1", "map_id": "m1", "start_node_id": "a", "end_node_id": "b",
			"polyline": [][]float64{{0, 0}, {3, 4}}, "weight": 5, "bidirectional": true,
		})
	}))

	edge, err := c.CreateEdge(context.Background(), ports.CreateEdgeRequest{
		MapID: "m1", StartNodeID: "a", EndNodeID: "b",
		Polyline: valueobjects.Polyline{{X: 0, Y: 0}, {X: 3, Y: 4}},
	})
	require.NoError(t, err)
	assert.Equal(t, 5.0, edge.Weight())
}

func TestErrorSurfacesStatusAndMessage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/aliases/a1":
			writeJSON(w, http.StatusNotFound, map[string]interface{}{"status": 404, "message": "alias not found"})
		default:
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{"detail": "Node không tồn tại."})
		}
	}))

	err := c.DeleteAlias(context.Background(), "a1")
	appErr := pkgerrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusNotFound, appErr.HTTPStatus)
	assert.Equal(t, "alias not found", appErr.Message)

	_, err = c.CreateAlias(context.Background(), ports.CreateAliasRequest{NodeID: "x", Name: "y"})
	appErr = pkgerrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
	assert.Equal(t, "Node không tồn tại.", appErr.Message)
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"message": "boom"})
	}))
	defer srv.Close()

	cfg := DefaultBreakerConfig()
	cfg.MinRequests = 3
	cfg.Timeout = time.Minute
	c := NewClient(srv.URL, srv.Client(), cfg, zaptest.NewLogger(t))

	for i := 0; i < 3; i++ {
		_, err := c.ListMaps(context.Background())
		require.Error(t, err)
	}
	_, err := c.ListMaps(context.Background())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeUnavailable))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls), "open breaker does not call the server")
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{"message": "bad"})
	}))

	for i := 0; i < 10; i++ {
		_, err := c.SearchAliases(context.Background(), "x", 3)
		require.Error(t, err)
	}
	assert.Equal(t, int32(10), atomic.LoadInt32(&calls))
}
