package exporthttp

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cti-console/cti-console/internal/export"
	"github.com/cti-console/cti-console/internal/shared"
	"github.com/cti-console/cti-console/internal/view"
)

// FieldLimit is the form field carrying the row limit.
const FieldLimit = "limit"

// DefaultLimit pre-fills the limit input.
const DefaultLimit = 1000

// Handler serves the export page and download endpoints.
type Handler struct {
	logger    *slog.Logger
	trigger   *export.Trigger
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// PageData is the view model of the export page.
type PageData struct {
	Limit int
}

// NewHandler constructs an export handler.
func NewHandler(logger *slog.Logger, trigger *export.Trigger, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, trigger: trigger, templates: templates, csrf: csrf}
}

func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	if h.templates == nil {
		http.Error(w, http.StatusText(http.StatusNotImplemented), http.StatusNotImplemented)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	var (
		csrfToken string
		flash     *shared.FlashMessage
	)
	if sess != nil {
		if h.csrf != nil {
			csrfToken, _ = h.csrf.EnsureToken(r.Context(), sess)
		}
		flash = sess.PopFlash()
	}
	data := view.TemplateData{
		Title:       "Export Threats",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        PageData{Limit: DefaultLimit},
	}
	if err := h.templates.Render(w, "pages/export.html", data); err != nil {
		h.logger.Error("render export", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	if h.trigger == nil {
		http.Error(w, http.StatusText(http.StatusNotImplemented), http.StatusNotImplemented)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	format := chi.URLParam(r, "format")
	file, err := h.trigger.Export(r.Context(), format, r.PostFormValue(FieldLimit))
	if err != nil {
		if sess := shared.SessionFromContext(r.Context()); sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "danger", Message: err.Error()})
		}
		http.Redirect(w, r, "/export", http.StatusSeeOther)
		return
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			h.logger.Warn("close export body", slog.Any("error", cerr))
		}
	}()

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", file.Name))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, file.Body); err != nil {
		h.logger.Error("stream export", slog.String("file", file.Name), slog.Any("error", err))
	}
}
