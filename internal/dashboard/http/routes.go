package dashboardhttp

import "github.com/go-chi/chi/v5"

// MountRoutes registers the dashboard endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Get("/", h.handlePage)
	r.Get("/dashboard/panel", h.handlePanel)
	r.Get("/dashboard/snapshot", h.handleSnapshot)
	r.Get("/dashboard/offenders.csv", h.handleCSV)
}
