package lookuphttp

import "github.com/go-chi/chi/v5"

// MountRoutes registers the lookup endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Get("/lookup", h.handlePage)
	r.Post("/lookup", h.handleSubmit)
	r.Post("/lookup/tag", h.handleTag)
}
