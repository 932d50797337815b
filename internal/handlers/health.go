package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carddemo/carddemo-api/internal/services"
	pkghttp "github.com/carddemo/carddemo-api/pkg/http"
)

// HealthServiceInterface defines the health reporting the handler needs
type HealthServiceInterface interface {
	Basic() *services.HealthStatus
	Detailed(ctx context.Context) *services.DetailedHealth
	Component(ctx context.Context, name string) *services.ComponentHealth
}

// HealthHandler handles health probe HTTP requests
type HealthHandler struct {
	service HealthServiceInterface
	appName string
	version string
}

func NewHealthHandler(service HealthServiceInterface, appName, version string) *HealthHandler {
	return &HealthHandler{service: service, appName: appName, version: version}
}

// Root handles GET /
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": h.appName,
		"version": h.version,
		"status":  "running",
	})
}

// Basic handles GET /health
func (h *HealthHandler) Basic(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Basic())
}

// Detailed handles GET /health/detailed. An unhealthy report still returns
// 200 so monitors can read the component breakdown; the status field carries
// the verdict.
func (h *HealthHandler) Detailed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Detailed(r.Context()))
}

// Component handles GET /health/component/{name}. A name the service does
// not recognize is a caller error against a fixed set, reported as a 500
// with the unknown status preserved in the message.
func (h *HealthHandler) Component(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	component := h.service.Component(r.Context(), name)
	if component.Status == services.StatusUnknown {
		pkghttp.WriteError(w, r, http.StatusInternalServerError, pkghttp.CodeInternalError,
			"Failed to check component "+name+": unknown component")
		return
	}
	writeJSON(w, http.StatusOK, component)
}
