package exporthttp

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// DownloadsPerMinute caps export requests per client IP.
const DownloadsPerMinute = 10

// MountRoutes registers the export endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Get("/export", h.handlePage)
	r.With(httprate.LimitByIP(DownloadsPerMinute, time.Minute)).Post("/export/{format:csv|pdf}", h.handleDownload)
}
