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

// AliasHandler handles alias and search HTTP requests
type AliasHandler struct {
	base
}

// NewAliasHandler creates a new alias handler
func NewAliasHandler(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *AliasHandler {
	return &AliasHandler{base: newBase(commandBus, queryBus, errs, logger)}
}

// ListAliases handles GET /aliases?node_id=
func (h *AliasHandler) ListAliases(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, queries.ListAliases{NodeID: valueobjects.NodeID(r.URL.Query().Get("node_id"))})
}

// CreateAlias handles POST /aliases
func (h *AliasHandler) CreateAlias(w http.ResponseWriter, r *http.Request) {
	var cmd commands.CreateAlias
	if !h.decode(w, r, &cmd.CreateAliasRequest) {
		return
	}
	h.send(w, r, http.StatusCreated, cmd)
}

// DeleteAlias handles DELETE /aliases/{aliasID}
func (h *AliasHandler) DeleteAlias(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, http.StatusOK, commands.DeleteAlias{AliasID: valueobjects.AliasID(chi.URLParam(r, "aliasID"))})
}

// Search handles GET /aliases/search?q=&limit=
func (h *AliasHandler) Search(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit")
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.ask(w, r, queries.SearchAliases{Query: r.URL.Query().Get("q"), Limit: limit})
}
