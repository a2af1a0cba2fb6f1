// Package handlers adapts HTTP requests to graph commands and queries.
package handlers

import (
	"encoding/json"
	"net/http"
	"reflect"
	"strconv"

	"go.uber.org/zap"

	"wayfinder/application/commands/bus"
	querybus "wayfinder/application/queries/bus"
	"wayfinder/domain/core/valueobjects"
	pkgerrors "wayfinder/pkg/errors"
)

const maxBodyBytes = 1 << 20

// base carries what every resource handler needs
type base struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

func newBase(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, errs *pkgerrors.ErrorHandler, logger *zap.Logger) base {
	if logger == nil {
		logger = zap.NewNop()
	}
	if errs == nil {
		errs = pkgerrors.NewErrorHandler(logger, false)
	}
	return base{commandBus: commandBus, queryBus: queryBus, errors: errs, logger: logger}
}

// send runs a command and writes its result with status
func (h base) send(w http.ResponseWriter, r *http.Request, status int, cmd bus.Command) {
	result, err := h.commandBus.Send(r.Context(), cmd)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.respondJSON(w, status, result)
}

// ask runs a query and writes its result
func (h base) ask(w http.ResponseWriter, r *http.Request, q querybus.Query) {
	result, err := h.queryBus.Ask(r.Context(), q)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}

// decode reads a JSON body into v, answering 400 itself on failure
func (h base) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.errors.HandleStatus(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func (h base) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	// Empty lists are [] on the wire, never null.
	if v := reflect.ValueOf(data); v.Kind() == reflect.Slice && v.IsNil() {
		data = reflect.MakeSlice(v.Type(), 0, 0).Interface()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// floorParam reads the optional floor query parameter; absent means all floors
func floorParam(r *http.Request) (valueobjects.Floor, error) {
	raw := r.URL.Query().Get("floor")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, pkgerrors.NewValidationError("floor must be a non-negative integer").
			WithDetails(map[string]interface{}{"floor": raw})
	}
	return valueobjects.Floor(n), nil
}

func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.NewValidationError(name + " must be an integer")
	}
	return n, nil
}
