package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/autopec/garage/internal/ctxkeys"
	"github.com/autopec/garage/internal/service"
)

// ErrorResponse is the JSON body of every failed API call.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details string   `json:"details,omitempty"`
	Code    string   `json:"code,omitempty"`
	Fields  []string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError maps the service error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr  *service.ValidationError
		notFoundErr    *service.NotFoundError
		persistenceErr *service.PersistenceError
	)

	switch {
	case errors.As(err, &validationErr):
		resp := ErrorResponse{Error: "Validation error", Details: validationErr.Message, Fields: validationErr.Fields}
		if validationErr.Code != "" {
			resp.Error = "File upload error"
			resp.Code = validationErr.Code
		}
		writeJSON(w, http.StatusBadRequest, resp)

	case errors.As(err, &notFoundErr):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Repair not found", Details: notFoundErr.Error()})

	case errors.As(err, &persistenceErr) && persistenceErr.Kind != service.PersistenceUnavailable:
		slog.Warn("repair store rejected write", "error", err, "kind", persistenceErr.Kind,
			"path", r.URL.Path, "request_id", ctxkeys.RequestID(r.Context()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Validation error", Details: persistenceErr.Error(), Code: string(persistenceErr.Kind)})

	default:
		slog.Error("request failed", "error", err, "method", r.Method, "path", r.URL.Path,
			"request_id", ctxkeys.RequestID(r.Context()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}
}

func badRequest(w http.ResponseWriter, message, details string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: message, Details: details})
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Not found", Details: r.Method + " " + r.URL.Path})
}
