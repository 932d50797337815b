package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/carddemo/carddemo-api/internal/auth"
	"github.com/carddemo/carddemo-api/internal/models"
	"github.com/carddemo/carddemo-api/internal/services"
	pkghttp "github.com/carddemo/carddemo-api/pkg/http"
)

// writeJSON writes a success response
func writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// decodeJSON decodes a request body, reporting malformed JSON as a 400
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		pkghttp.WriteBadRequest(w, r, "Invalid request body")
		return false
	}
	return true
}

// currentUserID extracts the authenticated user's ID from token claims.
// Runs behind the auth middleware, so absence means a wiring bug and is
// reported as 401 rather than a panic.
func currentUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	claims := auth.GetClaims(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, r, "Invalid or expired token")
		return 0, false
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		pkghttp.WriteUnauthorized(w, r, "Invalid or expired token")
		return 0, false
	}
	return id, true
}

// writeServiceError maps service-layer errors to their HTTP envelopes
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, r, "Resource not found")
	case errors.Is(err, models.ErrUnauthorized):
		pkghttp.WriteUnauthorized(w, r, "Invalid or expired token")
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteError(w, r, http.StatusForbidden, pkghttp.CodeForbidden, "Access denied")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, r, "Invalid request")
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteError(w, r, http.StatusConflict, "CONFLICT", "Resource already exists")
	case errors.Is(err, services.ErrInsufficientCredit):
		pkghttp.WriteBadRequest(w, r, "Insufficient available credit")
	case errors.Is(err, models.ErrDatabase):
		pkghttp.WriteDatabaseError(w, r)
	default:
		pkghttp.WriteInternalError(w, r)
	}
}

// queryInt parses an integer query parameter, falling back to def when the
// parameter is absent or malformed.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// clampLimit bounds a page size to 1..100 with a default of 20
func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}
