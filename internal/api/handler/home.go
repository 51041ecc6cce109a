package handler

import (
	"net/http"

	"github.com/mcoot/golfclub/internal/api/apierr"
	"github.com/mcoot/golfclub/internal/api/response"
)

// HomeHandler serves the API banner and health check
type HomeHandler struct {
	storageType string
}

// NewHomeHandler creates a new home handler
func NewHomeHandler(storageType string) *HomeHandler {
	return &HomeHandler{storageType: storageType}
}

// Banner handles GET /api/v1/
func (h *HomeHandler) Banner(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.Banner{
		Status:  "running",
		Message: "Golf Club API is running",
		APIDocs: "Available endpoints: /api/v1/members/, /api/v1/tournaments/",
	})
}

// Health handles GET /api/v1/health
func (h *HomeHandler) Health(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok", Storage: h.storageType})
}

// NotFound writes the JSON 404 for unmatched API routes
func NotFound(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, apierr.NewNotFoundError())
}
