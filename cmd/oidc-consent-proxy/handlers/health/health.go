// Package health serves the health check endpoint.
package health

import (
	"context"
	"encoding/json"
	"net/http"
)

// Checker is any component that can report its own health.
type Checker interface {
	CheckHealth(ctx context.Context) error
}

// Handler reports the aggregate health of the service's dependencies.
type Handler struct {
	version    string
	components map[string]Checker
}

// Response is the health check payload.
type Response struct {
	Status  string         `json:"status"`
	Version string         `json:"version,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// New creates a health handler over the named components.
func New(version string, components map[string]Checker) *Handler {
	return &Handler{
		version:    version,
		components: components,
	}
}

// ServeHTTP handles health check requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	response := Response{
		Status:  "healthy",
		Version: h.version,
		Details: make(map[string]any),
	}

	for name, component := range h.components {
		if err := component.CheckHealth(r.Context()); err != nil {
			response.Status = "unhealthy"
			response.Details[name] = map[string]any{
				"status":  "unhealthy",
				"message": err.Error(),
			}
			continue
		}
		response.Details[name] = map[string]any{"status": "healthy"}
	}

	if response.Status != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, `{"error":"server_error"}`, http.StatusInternalServerError)
	}
}
