package lookuphttp

import (
	"log/slog"
	"net/http"

	"github.com/cti-console/cti-console/internal/lookup"
	"github.com/cti-console/cti-console/internal/shared"
	"github.com/cti-console/cti-console/internal/threatapi"
	"github.com/cti-console/cti-console/internal/view"
)

// Form field names bound by the lookup page.
const (
	FieldQuery = "query"
	FieldTag   = "manual-tag"
)

// PanelStore resolves the panel for a session.
type PanelStore interface {
	Panel(sessionID string) *lookup.Panel
}

// Handler serves the lookup page.
type Handler struct {
	logger    *slog.Logger
	store     PanelStore
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// PageData is the view model of the lookup page.
type PageData struct {
	Panel lookup.Snapshot
}

// NewHandler constructs a lookup handler.
func NewHandler(logger *slog.Logger, store PanelStore, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, store: store, templates: templates, csrf: csrf}
}

func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	if h.templates == nil || h.store == nil {
		http.Error(w, http.StatusText(http.StatusNotImplemented), http.StatusNotImplemented)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	var csrfToken string
	if h.csrf != nil {
		csrfToken, _ = h.csrf.EnsureToken(r.Context(), sess)
	}
	data := view.TemplateData{
		Title:       "Threat Lookup",
		CSRFToken:   csrfToken,
		Flash:       sess.PopFlash(),
		CurrentPath: r.URL.Path,
		Data:        PageData{Panel: h.store.Panel(sess.ID).Snapshot()},
	}
	if err := h.templates.Render(w, "pages/lookup.html", data); err != nil {
		h.logger.Error("render lookup", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || h.store == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	panel := h.store.Panel(sess.ID)
	if err := panel.Submit(r.Context(), r.PostFormValue(FieldQuery)); err != nil && threatapi.IsValidation(err) {
		sess.AddFlash(shared.FlashMessage{Kind: "warning", Message: err.Error()})
	}
	http.Redirect(w, r, "/lookup", http.StatusSeeOther)
}

func (h *Handler) handleTag(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || h.store == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	notice, _ := h.store.Panel(sess.ID).AddTag(r.Context(), r.PostFormValue(FieldTag))
	sess.AddFlash(shared.FlashMessage{Kind: notice.Kind, Message: notice.Message})
	http.Redirect(w, r, "/lookup", http.StatusSeeOther)
}
