package companion

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/greenpaw/ecobuddies/backend/internal/model/catalog"
	"github.com/greenpaw/ecobuddies/backend/pkg/utils"
)

// Handler serves the read-only companion catalog.
type Handler struct {
	catalog catalog.Store
}

// New creates the catalog handler.
func New(store catalog.Store) *Handler {
	return &Handler{catalog: store}
}

// RegisterRoutes registers the catalog routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/companions", h.handleListCompanions)
}

// handleListCompanions lists every selectable companion with its actions.
func (h *Handler) handleListCompanions(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.catalog.List())
}
