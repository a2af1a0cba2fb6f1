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

// NodeHandler handles node-related HTTP requests
type NodeHandler struct {
	base
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *NodeHandler {
	return &NodeHandler{base: newBase(commandBus, queryBus, errs, logger)}
}

// ListNodes handles GET /nodes?map_id=&floor=
func (h *NodeHandler) ListNodes(w http.ResponseWriter, r *http.Request) {
	floor, err := floorParam(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.ask(w, r, queries.ListNodes{
		MapID: valueobjects.MapID(r.URL.Query().Get("map_id")),
		Floor: floor,
	})
}

// GetNode handles GET /nodes/{nodeID}
func (h *NodeHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, queries.GetNode{NodeID: valueobjects.NodeID(chi.URLParam(r, "nodeID"))})
}

// CreateNode handles POST /nodes
func (h *NodeHandler) CreateNode(w http.ResponseWriter, r *http.Request) {
	var cmd commands.CreateNode
	if !h.decode(w, r, &cmd.CreateNodeRequest) {
		return
	}
	h.send(w, r, http.StatusCreated, cmd)
}

// DeleteNode handles DELETE /nodes/{nodeID}
func (h *NodeHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, http.StatusOK, commands.DeleteNode{NodeID: valueobjects.NodeID(chi.URLParam(r, "nodeID"))})
}
