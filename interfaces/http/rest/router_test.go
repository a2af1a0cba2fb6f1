package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"wayfinder/application/commands"
	"wayfinder/application/commands/bus"
	"wayfinder/application/ports"
	"wayfinder/application/queries"
	querybus "wayfinder/application/queries/bus"
	"wayfinder/application/services"
	"wayfinder/domain/core/valueobjects"
	"wayfinder/infrastructure/client/httpapi"
	"wayfinder/infrastructure/persistence/memory"
	pkgerrors "wayfinder/pkg/errors"
	"wayfinder/pkg/observability"
)

type harness struct {
	server  *httptest.Server
	store   *memory.Store
	metrics *observability.Collector
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	logger := zaptest.NewLogger(t)
	store := memory.NewStore()
	metrics := observability.NewCollector("wayfinder")
	svc := services.NewGraphService(store, nil, nil, metrics, logger)

	cmdBus := bus.NewCommandBus(bus.LoggingMiddleware(logger))
	require.NoError(t, commands.Register(cmdBus, svc))
	qBus := querybus.NewQueryBus(logger)
	require.NoError(t, queries.Register(qBus, svc))

	router := NewRouter(cmdBus, qBus, metrics, observability.NewTracer("wayfinder", false), opts, logger)
	srv := httptest.NewServer(router.Setup())
	t.Cleanup(srv.Close)
	return &harness{server: srv, store: store, metrics: metrics}
}

func (h *harness) client(t *testing.T) *httpapi.Client {
	return httpapi.NewClient(h.server.URL, h.server.Client(), httpapi.DefaultBreakerConfig(), zaptest.NewLogger(t))
}

func (h *harness) do(t *testing.T, method, path, body string) (int, map[string]interface{}, string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, h.server.URL+path, reader)
	require.NoError(t, err)
	resp, err := h.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out, string(raw)
}

func TestClientAgainstRouter(t *testing.T) {
	h := newHarness(t, Options{})
	c := h.client(t)
	ctx := context.Background()

	status, created, _ := h.do(t, http.MethodPost, "/maps", `{"name":"Campus","width":800,"height":600}`)
	require.Equal(t, http.StatusCreated, status)
	mapID := valueobjects.MapID(created["id"].(string))

	maps, err := c.ListMaps(ctx)
	require.NoError(t, err)
	require.Len(t, maps, 1)
	assert.Equal(t, "Campus", maps[0].Name())

	a, err := c.CreateNode(ctx, ports.CreateNodeRequest{MapID: mapID, X: 100, Y: 100, Floor: 2})
	require.NoError(t, err)
	b, err := c.CreateNode(ctx, ports.CreateNodeRequest{MapID: mapID, X: 200, Y: 100, Floor: 2})
	require.NoError(t, err)
	_, err = c.CreateNode(ctx, ports.CreateNodeRequest{MapID: mapID, X: 5, Y: 5})
	require.NoError(t, err)

	nodes, err := c.ListNodes(ctx, mapID, 2)
	require.NoError(t, err)
	assert.Len(t, nodes, 2)
	nodes, err = c.ListNodes(ctx, mapID, 0)
	require.NoError(t, err)
	assert.Len(t, nodes, 3)

	edge, err := c.CreateEdge(ctx, ports.CreateEdgeRequest{
		MapID: mapID, StartNodeID: a.ID(), EndNodeID: b.ID(),
		Polyline: valueobjects.Polyline{{X: 100, Y: 100}, {X: 150, Y: 100}, {X: 200, Y: 100}},
	})
	require.NoError(t, err)
	assert.Equal(t, valueobjects.Floor(2), edge.Floor())
	assert.InDelta(t, 100.0, edge.Weight(), 1e-9)

	edges, err := c.ListEdges(ctx, mapID, 2)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Len(t, edges[0].Polyline(), 3)

	alias, err := c.CreateAlias(ctx, ports.CreateAliasRequest{NodeID: a.ID(), Name: "  Thư viện  "})
	require.NoError(t, err)
	assert.Equal(t, "Thư viện", alias.Name())

	hits, err := c.SearchAliases(ctx, "thu vien", 5)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, a.ID(), hits[0].NodeID)

	require.NoError(t, c.DeleteAlias(ctx, alias.ID()))
	err = c.DeleteAlias(ctx, alias.ID())
	assert.Equal(t, http.StatusNotFound, pkgerrors.GetAppError(err).HTTPStatus)

	_, err = c.Route(ctx, ports.RouteRequest{MapID: mapID, StartID: ptr(a.ID()), EndID: ptr(b.ID())})
	appErr := pkgerrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusServiceUnavailable, appErr.HTTPStatus)
}

func TestMissingReferences(t *testing.T) {
	h := newHarness(t, Options{})
	c := h.client(t)
	ctx := context.Background()

	m, err := c.CreateNode(ctx, ports.CreateNodeRequest{MapID: "missing", X: 1, Y: 1})
	assert.Nil(t, m)
	assert.Equal(t, http.StatusNotFound, pkgerrors.GetAppError(err).HTTPStatus)

	status, _, _ := h.do(t, http.MethodPost, "/maps", `{"name":"M","width":10,"height":10}`)
	require.Equal(t, http.StatusCreated, status)
	maps, err := c.ListMaps(ctx)
	require.NoError(t, err)

	_, err = c.CreateEdge(ctx, ports.CreateEdgeRequest{MapID: maps[0].ID(), StartNodeID: "ghost", EndNodeID: "other"})
	appErr := pkgerrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
	assert.Contains(t, appErr.Message, "does not exist")
}

func TestEdgeUpdateAndDelete(t *testing.T) {
	h := newHarness(t, Options{})
	c := h.client(t)
	ctx := context.Background()

	_, created, _ := h.do(t, http.MethodPost, "/maps", `{"name":"M","width":100,"height":100}`)
	mapID := valueobjects.MapID(created["id"].(string))
	a, err := c.CreateNode(ctx, ports.CreateNodeRequest{MapID: mapID, X: 0, Y: 0})
	require.NoError(t, err)
	b, err := c.CreateNode(ctx, ports.CreateNodeRequest{MapID: mapID, X: 30, Y: 40})
	require.NoError(t, err)
	edge, err := c.CreateEdge(ctx, ports.CreateEdgeRequest{MapID: mapID, StartNodeID: a.ID(), EndNodeID: b.ID()})
	require.NoError(t, err)
	assert.InDelta(t, 50.0, edge.Weight(), 1e-9)

	status, body, _ := h.do(t, http.MethodPatch, "/edges/"+edge.ID().String(), `{"bidirectional":true}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["bidirectional"])

	status, body, _ = h.do(t, http.MethodPatch, "/edges/"+edge.ID().String(), `{}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "nothing to update", body["message"])

	status, body, _ = h.do(t, http.MethodDelete, "/nodes/"+a.ID().String(), "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["ok"])

	edges, err := c.ListEdges(ctx, mapID, 0)
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestClearMap(t *testing.T) {
	h := newHarness(t, Options{})
	c := h.client(t)
	ctx := context.Background()

	_, created, _ := h.do(t, http.MethodPost, "/maps", `{"name":"M","width":100,"height":100}`)
	mapID := created["id"].(string)
	n, err := c.CreateNode(ctx, ports.CreateNodeRequest{MapID: valueobjects.MapID(mapID), X: 1, Y: 1})
	require.NoError(t, err)
	_, err = c.CreateAlias(ctx, ports.CreateAliasRequest{NodeID: n.ID(), Name: "Gate"})
	require.NoError(t, err)

	status, _, raw := h.do(t, http.MethodPost, "/admin/clear-map", `{"map_id":"`+mapID+`","delete_map":true}`)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"ok":true,"deleted":{"aliases":1,"edges":0,"nodes":1,"map":true}}`, raw)

	status, body, _ := h.do(t, http.MethodGet, "/maps/"+mapID, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["type"])
}

func TestRequestErrors(t *testing.T) {
	h := newHarness(t, Options{})

	status, body, _ := h.do(t, http.MethodPost, "/maps", `{not json`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["message"], "Invalid request body")

	status, body, _ = h.do(t, http.MethodPost, "/maps", `{"name":"","width":0,"height":5}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", body["type"])
	details := body["details"].(map[string]interface{})
	assert.Contains(t, details, "name")
	assert.Contains(t, details, "width")

	status, _, _ = h.do(t, http.MethodGet, "/nodes?map_id=m&floor=abc", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _, _ = h.do(t, http.MethodGet, "/nodes", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body, _ = h.do(t, http.MethodGet, "/nowhere", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, true, body["error"])
}

func TestEmptyListsAreArrays(t *testing.T) {
	h := newHarness(t, Options{})

	_, _, raw := h.do(t, http.MethodGet, "/aliases/search?q=", "")
	assert.JSONEq(t, `[]`, raw)

	_, _, raw = h.do(t, http.MethodGet, "/edges?map_id=m1", "")
	assert.JSONEq(t, `[]`, raw)

	_, _, raw = h.do(t, http.MethodGet, "/maps", "")
	assert.JSONEq(t, `{"items":[]}`, raw)
}

func TestProbesAndMetrics(t *testing.T) {
	ready := errors.New("table missing")
	h := newHarness(t, Options{Ready: func(context.Context) error { return ready }})

	status, body, _ := h.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])

	status, body, _ = h.do(t, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "unavailable", body["status"])

	ready = nil
	status, _, _ = h.do(t, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, status)

	h.do(t, http.MethodGet, "/maps", "")
	_, _, raw := h.do(t, http.MethodGet, "/metrics", "")
	assert.Contains(t, raw, `wayfinder_http_requests_total{method="GET",route="/maps/",status="200"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	h := newHarness(t, Options{AllowedOrigins: []string{"http://localhost:5173"}})

	req, err := http.NewRequest(http.MethodOptions, h.server.URL+"/edges/e1", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	resp, err := h.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), http.MethodPatch)
}

func TestRateLimit(t *testing.T) {
	h := newHarness(t, Options{RateLimitPerMinute: 2})

	for i := 0; i < 2; i++ {
		status, _, _ := h.do(t, http.MethodGet, "/maps", "")
		require.Equal(t, http.StatusOK, status)
	}
	status, body, _ := h.do(t, http.MethodGet, "/maps", "")
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "rate limit exceeded", body["message"])

	status, _, _ = h.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
}

func ptr[T any](v T) *T { return &v }
