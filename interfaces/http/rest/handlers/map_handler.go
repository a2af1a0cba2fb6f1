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

// MapHandler handles map-related HTTP requests
type MapHandler struct {
	base
}

// NewMapHandler creates a new map handler
func NewMapHandler(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *MapHandler {
	return &MapHandler{base: newBase(commandBus, queryBus, errs, logger)}
}

// ListMaps handles GET /maps
func (h *MapHandler) ListMaps(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, queries.ListMaps{})
}

// GetMap handles GET /maps/{mapID}
func (h *MapHandler) GetMap(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, queries.GetMap{MapID: valueobjects.MapID(chi.URLParam(r, "mapID"))})
}

// CreateMap handles POST /maps
func (h *MapHandler) CreateMap(w http.ResponseWriter, r *http.Request) {
	var cmd commands.CreateMap
	if !h.decode(w, r, &cmd.CreateMapRequest) {
		return
	}
	h.send(w, r, http.StatusCreated, cmd)
}

// ClearMap handles POST /admin/clear-map
func (h *MapHandler) ClearMap(w http.ResponseWriter, r *http.Request) {
	var cmd commands.ClearMap
	if !h.decode(w, r, &cmd.ClearMapRequest) {
		return
	}
	h.logger.Info("Clearing map",
		zap.String("mapID", cmd.MapID.String()),
		zap.Bool("deleteMap", cmd.DeleteMap),
	)
	h.send(w, r, http.StatusOK, cmd)
}
