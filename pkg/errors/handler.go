package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// ErrorResponse is the JSON body of every failed API call. Clients read
// Status and Message back verbatim.
type ErrorResponse struct {
	Error     bool                   `json:"error"`
	Status    int                    `json:"status"`
	Type      string                 `json:"type"`
	Message   string                 `json:"message"`
	Code      string                 `json:"code,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// ErrorHandler writes AppErrors as JSON responses
type ErrorHandler struct {
	logger *zap.Logger
	debug  bool
}

// NewErrorHandler creates an error handler. In debug mode unexpected
// errors and stack traces are exposed to the client.
func NewErrorHandler(logger *zap.Logger, debug bool) *ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorHandler{logger: logger, debug: debug}
}

// Handle writes err with the status its type maps to
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}
	resp := h.describe(err)
	resp.RequestID = requestIDFrom(r)
	h.log(r, resp, err)
	h.write(w, resp)
}

// HandleStatus writes a bare status and message, for failures that happen
// before a request reaches the application layer
func (h *ErrorHandler) HandleStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	resp := ErrorResponse{
		Error:     true,
		Status:    status,
		Type:      statusToErrorType(status),
		Message:   message,
		RequestID: requestIDFrom(r),
	}
	h.log(r, resp, nil)
	h.write(w, resp)
}

// Middleware turns panics into 500 responses
func (h *ErrorHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.Error("Recovered from panic",
					zap.Any("panic", rec),
					zap.String("path", r.URL.Path),
					zap.Stack("stack"),
				)
				h.Handle(w, r, NewInternalError(fmt.Sprintf("panic: %v", rec)))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (h *ErrorHandler) describe(err error) ErrorResponse {
	appErr := GetAppError(err)
	if appErr == nil {
		resp := ErrorResponse{
			Error:   true,
			Status:  http.StatusInternalServerError,
			Type:    string(ErrorTypeInternal),
			Message: "An internal error occurred",
		}
		if h.debug {
			resp.Message = err.Error()
		}
		return resp
	}

	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	resp := ErrorResponse{
		Error:   true,
		Status:  status,
		Type:    string(appErr.Type),
		Message: appErr.Message,
		Code:    appErr.Code,
	}
	if len(appErr.Details) > 0 || (h.debug && appErr.StackTrace != "") {
		resp.Details = make(map[string]interface{}, len(appErr.Details)+1)
		for k, v := range appErr.Details {
			resp.Details[k] = v
		}
		if h.debug && appErr.StackTrace != "" {
			resp.Details["stack_trace"] = appErr.StackTrace
		}
	}
	return resp
}

func (h *ErrorHandler) log(r *http.Request, resp ErrorResponse, err error) {
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", resp.Status),
		zap.String("errorType", resp.Type),
		zap.String("requestID", resp.RequestID),
	}
	if resp.Code != "" {
		fields = append(fields, zap.String("errorCode", resp.Code))
	}
	if appErr := GetAppError(err); appErr != nil && appErr.Cause != nil {
		fields = append(fields, zap.NamedError("cause", appErr.Cause))
	} else if err != nil && appErr == nil {
		fields = append(fields, zap.Error(err))
	}

	if resp.Status >= http.StatusInternalServerError {
		h.logger.Error(resp.Message, fields...)
		return
	}
	h.logger.Warn(resp.Message, fields...)
}

func (h *ErrorHandler) write(w http.ResponseWriter, resp ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Debug("error response not written", zap.Error(err))
	}
}

func requestIDFrom(r *http.Request) string {
	if id := middleware.GetReqID(r.Context()); id != "" {
		return id
	}
	return r.Header.Get("X-Request-ID")
}

func statusToErrorType(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusMethodNotAllowed, http.StatusRequestEntityTooLarge:
		return string(ErrorTypeValidation)
	case http.StatusNotFound:
		return string(ErrorTypeNotFound)
	case http.StatusConflict:
		return string(ErrorTypeConflict)
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	case http.StatusServiceUnavailable:
		return string(ErrorTypeUnavailable)
	case http.StatusBadGateway:
		return string(ErrorTypeExternal)
	default:
		return string(ErrorTypeInternal)
	}
}
