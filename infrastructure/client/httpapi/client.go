// Package httpapi is a REST client for the graph backend. It implements
// ports.Backend so an editing session can run against a remote server.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"wayfinder/application/ports"
	"wayfinder/domain/core/entities"
	"wayfinder/domain/core/valueobjects"
	pkgerrors "wayfinder/pkg/errors"
)

// BreakerConfig controls when the client stops calling a failing backend
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig trips after five requests with 80% failures and
// probes again after thirty seconds.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      1,
		Interval:         30 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// Client calls the graph REST API
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

var _ ports.Backend = (*Client)(nil)

// NewClient creates a client for baseURL. httpClient may be nil.
func NewClient(baseURL string, httpClient *http.Client, cfg BreakerConfig, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "graph-backend",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// Client errors are the caller's fault, not the backend's.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var appErr *pkgerrors.AppError
			return errors.As(err, &appErr) && appErr.HTTPStatus > 0 && appErr.HTTPStatus < 500
		},
	})
	return c
}

type mapList struct {
	Items []*entities.Map `json:"items"`
}

func (c *Client) ListMaps(ctx context.Context) ([]*entities.Map, error) {
	var out mapList
	if err := c.do(ctx, http.MethodGet, "/maps", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) GetMap(ctx context.Context, id valueobjects.MapID) (*entities.Map, error) {
	var out entities.Map
	if err := c.do(ctx, http.MethodGet, "/maps/"+url.PathEscape(id.String()), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListNodes(ctx context.Context, mapID valueobjects.MapID, floor valueobjects.Floor) ([]*entities.Node, error) {
	var out []*entities.Node
	if err := c.do(ctx, http.MethodGet, "/nodes", graphQuery(mapID, floor), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListEdges(ctx context.Context, mapID valueobjects.MapID, floor valueobjects.Floor) ([]*entities.Edge, error) {
	var out []*entities.Edge
	if err := c.do(ctx, http.MethodGet, "/edges", graphQuery(mapID, floor), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListAliases(ctx context.Context, nodeID valueobjects.NodeID) ([]*entities.Alias, error) {
	var out []*entities.Alias
	q := url.Values{"node_id": {nodeID.String()}}
	if err := c.do(ctx, http.MethodGet, "/aliases", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateNode(ctx context.Context, req ports.CreateNodeRequest) (*entities.Node, error) {
	var out entities.Node
	if err := c.do(ctx, http.MethodPost, "/nodes", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateEdge(ctx context.Context, req ports.CreateEdgeRequest) (*entities.Edge, error) {
	var out entities.Edge
	if err := c.do(ctx, http.MethodPost, "/edges", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateAlias(ctx context.Context, req ports.CreateAliasRequest) (*entities.Alias, error) {
	var out entities.Alias
	if err := c.do(ctx, http.MethodPost, "/aliases", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteAlias(ctx context.Context, id valueobjects.AliasID) error {
	return c.do(ctx, http.MethodDelete, "/aliases/"+url.PathEscape(id.String()), nil, nil, nil)
}

func (c *Client) SearchAliases(ctx context.Context, query string, limit int) ([]ports.AliasMatch, error) {
	q := url.Values{"q": {query}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []ports.AliasMatch
	if err := c.do(ctx, http.MethodGet, "/aliases/search", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Route(ctx context.Context, req ports.RouteRequest) (*ports.RouteResult, error) {
	var out ports.RouteResult
	if err := c.do(ctx, http.MethodPost, "/route", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func graphQuery(mapID valueobjects.MapID, floor valueobjects.Floor) url.Values {
	q := url.Values{"map_id": {mapID.String()}}
	if floor.IsSet() {
		q.Set("floor", strconv.Itoa(floor.Int()))
	}
	return q
}

// errorBody accepts both this server's error shape and a bare {detail}
type errorBody struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
	Code    string `json:"code"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.roundTrip(ctx, method, path, query, body, out)
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return pkgerrors.NewUnavailableError("backend").WithCause(err)
	default:
		return err
	}
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.NewInternalError("failed to encode request").WithCause(err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return pkgerrors.NewInternalError("failed to build request").WithCause(err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("Backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return pkgerrors.NewUnavailableError("backend").WithCause(err)
	}
	defer resp.Body.Close()

	c.logger.Debug("Backend request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.NewInternalError("failed to decode response").WithCause(err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body errorBody
	message := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &body) == nil {
		switch {
		case body.Message != "":
			message = body.Message
		case body.Detail != "":
			message = body.Detail
		}
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	appErr := pkgerrors.NewExternalError(resp.StatusCode, message)
	if body.Code != "" {
		appErr = appErr.WithCode(body.Code)
	}
	return appErr.WithDetails(map[string]interface{}{
		"method": resp.Request.Method,
		"path":   resp.Request.URL.Path,
	})
}
