package dashboardhttp

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cti-console/cti-console/internal/dashboard"
	"github.com/cti-console/cti-console/internal/platform/httpx"
	"github.com/cti-console/cti-console/internal/shared"
	"github.com/cti-console/cti-console/internal/view"
)

// SnapshotSource exposes the current panel state.
type SnapshotSource interface {
	Snapshot() dashboard.Snapshot
}

// Handler serves the dashboard page and its refresh endpoints.
type Handler struct {
	logger    *slog.Logger
	source    SnapshotSource
	templates *view.Engine
	now       func() time.Time
}

// PageData is the view model of the dashboard page.
type PageData struct {
	Snapshot     dashboard.Snapshot
	Columns      int
	EmptyMessage string
}

// NewHandler constructs a dashboard handler.
func NewHandler(logger *slog.Logger, source SnapshotSource, templates *view.Engine) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, source: source, templates: templates, now: time.Now}
}

func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	if h.templates == nil || h.source == nil {
		http.Error(w, http.StatusText(http.StatusNotImplemented), http.StatusNotImplemented)
		return
	}
	var flash *shared.FlashMessage
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		flash = sess.PopFlash()
	}
	data := view.TemplateData{
		Title:       "Dashboard",
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        h.pageData(),
	}
	if err := h.templates.Render(w, "pages/dashboard.html", data); err != nil {
		h.logger.Error("render dashboard", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) handlePanel(w http.ResponseWriter, r *http.Request) {
	if h.templates == nil || h.source == nil {
		http.Error(w, http.StatusText(http.StatusNotImplemented), http.StatusNotImplemented)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	data := view.TemplateData{CurrentPath: r.URL.Path, Data: h.pageData()}
	if err := h.templates.Render(w, "partials/stats_panel.html", data); err != nil {
		h.logger.Error("render stats panel", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.source == nil {
		httpx.RespondError(w, fmt.Errorf("stats poller not running: %w", httpx.ErrUnavailable))
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	httpx.JSON(w, http.StatusOK, h.source.Snapshot())
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	if h.source == nil {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	snap := h.source.Snapshot()
	filename := fmt.Sprintf("top_offenders_%s.csv", h.now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if err := dashboard.WriteRowsCSV(w, snap.Rows); err != nil {
		h.logger.Error("write offenders csv", slog.Any("error", err))
	}
}

func (h *Handler) pageData() PageData {
	return PageData{
		Snapshot:     h.source.Snapshot(),
		Columns:      dashboard.TableColumns,
		EmptyMessage: dashboard.EmptyTableMessage,
	}
}
