package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"wayfinder/application/commands"
	"wayfinder/application/commands/bus"
	"wayfinder/application/queries"
	querybus "wayfinder/application/queries/bus"
	"wayfinder/domain/core/valueobjects"
	pkgerrors "wayfinder/pkg/errors"
)

// EdgeHandler handles edge-related HTTP requests
type EdgeHandler struct {
	base
}

// NewEdgeHandler creates a new edge handler
func NewEdgeHandler(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *EdgeHandler {
	return &EdgeHandler{base: newBase(commandBus, queryBus, errs, logger)}
}

// ListEdges handles GET /edges?map_id=&floor=
func (h *EdgeHandler) ListEdges(w http.ResponseWriter, r *http.Request) {
	floor, err := floorParam(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.ask(w, r, queries.ListEdges{
		MapID: valueobjects.MapID(r.URL.Query().Get("map_id")),
		Floor: floor,
	})
}

// CreateEdge handles POST /edges
func (h *EdgeHandler) CreateEdge(w http.ResponseWriter, r *http.Request) {
	var cmd commands.CreateEdge
	if !h.decode(w, r, &cmd.CreateEdgeRequest) {
		return
	}
	h.send(w, r, http.StatusCreated, cmd)
}

// UpdateEdge handles PATCH /edges/{edgeID}
func (h *EdgeHandler) UpdateEdge(w http.ResponseWriter, r *http.Request) {
	cmd := commands.UpdateEdge{EdgeID: valueobjects.EdgeID(chi.URLParam(r, "edgeID"))}
	if !h.decode(w, r, &cmd.UpdateEdgeRequest) {
		return
	}
	h.send(w, r, http.StatusOK, cmd)
}

// DeleteEdge handles DELETE /edges/{edgeID}
func (h *EdgeHandler) DeleteEdge(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, http.StatusOK, commands.DeleteEdge{EdgeID: valueobjects.EdgeID(chi.URLParam(r, "edgeID"))})
}
