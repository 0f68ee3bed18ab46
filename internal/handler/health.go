package handler

import (
	"net/http"
	"time"
)

type HealthHandler struct {
	appName string
}

func NewHealthHandler(appName string) *HealthHandler {
	return &HealthHandler{appName: appName}
}

// Health reports liveness; it never checks dependencies.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "OK",
		"message":   "Server is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(h.appName + " is running."))
}

// Index lists the API endpoints.
func (h *HealthHandler) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": h.appName + " API",
		"endpoints": map[string]string{
			"GET /api/repairs":                     "Get all repairs",
			"POST /api/repairs/submit":             "Submit a new repair request",
			"PUT /api/repairs/:id/status":          "Update repair status",
			"GET /api/repairs/track/:registration": "Track repair by registration",
			"DELETE /api/repairs/:id":              "Delete a repair",
			"GET /api/repairs/status/:status":      "Get repairs by status",
		},
	})
}
