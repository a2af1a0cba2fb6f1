package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"wayfinder/application/queries"
	querybus "wayfinder/application/queries/bus"
	pkgerrors "wayfinder/pkg/errors"
)

// RouteHandler forwards routing requests
type RouteHandler struct {
	base
}

// NewRouteHandler creates a new route handler
func NewRouteHandler(queryBus *querybus.QueryBus, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *RouteHandler {
	return &RouteHandler{base: newBase(nil, queryBus, errs, logger)}
}

// Route handles POST /route
func (h *RouteHandler) Route(w http.ResponseWriter, r *http.Request) {
	var q queries.Route
	if !h.decode(w, r, &q.RouteRequest) {
		return
	}
	h.ask(w, r, q)
}
