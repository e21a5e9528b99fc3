package dashboard

import (
	"context"
	"html/template"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/cti-console/cti-console/internal/chart"
	"github.com/cti-console/cti-console/internal/threatapi"
)

// Element ids the dashboard template binds to.
const (
	CategoryCanvasID = "categoryChart"
	TimelineCanvasID = "timelineChart"
)

// Empty-state texts painted on the chart canvases.
const (
	NoCategoriesText = "No threat categories found"
	NoTimelineText   = "No timeline data available"
)

const (
	categoryWidth  = 360
	categoryHeight = 300
	timelineWidth  = 720
	timelineHeight = 300
)

// DefaultInterval is the stats refresh cadence.
const DefaultInterval = 60 * time.Second

// StatsSource provides aggregate statistics.
type StatsSource interface {
	Stats(ctx context.Context) (threatapi.DashboardStats, error)
}

// Observer is notified of every refresh outcome.
type Observer interface {
	ObservePoll(outcome string)
}

// Poller owns the dashboard panel state: counters, offenders table and the
// two chart canvases. It replaces the page-global chart handles with fields
// that only the poller mutates.
type Poller struct {
	source   StatsSource
	logger   *slog.Logger
	interval time.Duration
	observer Observer
	printer  *message.Printer
	now      func() time.Time

	issued atomic.Uint64
	wg     sync.WaitGroup

	mu        sync.RWMutex
	applied   uint64
	counters  Counters
	rows      []Row
	category  *chart.Canvas
	timeline  *chart.Canvas
	outcome   Outcome
	lastError string
	updatedAt time.Time
}

// NewPoller constructs a poller. A non-positive interval falls back to DefaultInterval.
func NewPoller(source StatsSource, logger *slog.Logger, interval time.Duration, observer Observer) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		source:   source,
		logger:   logger,
		interval: interval,
		observer: observer,
		printer:  message.NewPrinter(language.English),
		now:      time.Now,
		counters: Counters{Total: "0", High: "0", Medium: "0", Low: "0"},
		category: chart.NewCanvas(CategoryCanvasID, categoryWidth, categoryHeight),
		timeline: chart.NewCanvas(TimelineCanvasID, timelineWidth, timelineHeight),
		outcome:  OutcomePending,
	}
}

// Interval returns the refresh cadence.
func (p *Poller) Interval() time.Duration { return p.interval }

// Run refreshes immediately and then on every tick until ctx is done. Ticks do
// not wait for earlier refreshes, so several may be in flight; the
// generation check in Refresh keeps a late response from overwriting a newer one.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	defer p.wg.Wait()

	p.spawn(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.spawn(ctx)
		}
	}
}

func (p *Poller) spawn(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		_ = p.Refresh(ctx)
	}()
}

// Refresh performs one stats cycle and applies its result unless a newer
// cycle has already been applied. The returned error is informational.
func (p *Poller) Refresh(ctx context.Context) error {
	gen := p.issued.Add(1)
	stats, err := p.source.Stats(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()

	if gen < p.applied {
		p.logger.Debug("discard superseded stats response", slog.Uint64("generation", gen), slog.Uint64("applied", p.applied))
		p.observe(OutcomeSuperseded)
		return err
	}
	p.applied = gen
	p.updatedAt = p.now()

	if err == nil {
		p.applyStats(stats)
		p.observe(OutcomeOK)
		return nil
	}
	if appErr, ok := threatapi.AsApplication(err); ok && appErr.OK() {
		p.logger.Error("stats api error", slog.String("error", appErr.Message))
		p.applyEmpty(appErr.Message)
		p.observe(OutcomeEmpty)
		return err
	}
	p.logger.Error("load dashboard stats", slog.Any("error", err))
	p.applyFailure(err)
	p.observe(OutcomeFailed)
	return err
}

// Snapshot returns a copy of the current panel state.
func (p *Poller) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	rows := make([]Row, len(p.rows))
	copy(rows, p.rows)
	return Snapshot{
		Counters:        p.counters,
		Rows:            rows,
		CategoryChart:   p.category.HTML(),
		TimelineChart:   p.timeline.HTML(),
		Outcome:         p.outcome,
		Error:           p.lastError,
		UpdatedAt:       p.updatedAt,
		Generation:      p.applied,
		IntervalSeconds: int(p.interval / time.Second),
	}
}

func (p *Poller) applyStats(stats threatapi.DashboardStats) {
	high, medium, low := RiskTiers(stats.TopMaliciousIPs)
	total := 0.0
	if stats.TotalThreats != nil {
		total = *stats.TotalThreats
	}
	p.counters = Counters{
		Total:  p.formatCount(total),
		High:   p.formatCount(float64(high)),
		Medium: p.formatCount(float64(medium)),
		Low:    p.formatCount(float64(low)),
	}
	p.rows = BuildRows(stats.TopMaliciousIPs)
	p.drawCategory(stats.CategoryCounts)
	p.drawTimeline(stats.ThreatsOverTime)
	p.outcome = OutcomeOK
	p.lastError = ""
}

func (p *Poller) applyEmpty(reason string) {
	p.counters = Counters{Total: "0", High: "0", Medium: "0", Low: "0"}
	p.rows = nil
	p.drawCategory(nil)
	p.drawTimeline(nil)
	p.outcome = OutcomeEmpty
	p.lastError = reason
}

// applyFailure leaves both charts as they were.
func (p *Poller) applyFailure(err error) {
	p.counters = Counters{Total: "Error", High: "-", Medium: "-", Low: "-"}
	p.rows = nil
	p.outcome = OutcomeFailed
	p.lastError = err.Error()
}

func (p *Poller) drawCategory(counts threatapi.CategoryCounts) {
	if len(counts) == 0 {
		p.category.Clear(NoCategoriesText)
		return
	}
	labels := make([]string, len(counts))
	values := make([]float64, len(counts))
	for i, c := range counts {
		labels[i] = c.Category
		values[i] = c.Count
	}
	html, err := chart.Donut(p.category.Width, p.category.Height, labels, values, chart.DonutOpts{
		Title:       "Threat Categories",
		Description: "Threats grouped by category",
	})
	if err != nil {
		// The placeholder means "no data"; a render failure keeps the last chart.
		p.logger.Error("render category chart", slog.Any("error", err))
		return
	}
	p.category.Draw(chart.NewChart("doughnut", html))
}

func (p *Poller) drawTimeline(points []threatapi.TimePoint) {
	if len(points) == 0 {
		p.timeline.Clear(NoTimelineText)
		return
	}
	labels := make([]string, len(points))
	series := make([]float64, len(points))
	for i, point := range points {
		labels[i] = point.Date
		series[i] = point.Count
	}
	html, err := chart.Line(p.timeline.Width, p.timeline.Height, series, labels, chart.LineOpts{
		Title:       "Threats",
		Description: "Threats detected per day",
		ShowDots:    true,
	})
	if err != nil {
		p.logger.Error("render timeline chart", slog.Any("error", err))
		return
	}
	p.timeline.Draw(chart.NewChart("line", html))
}

func (p *Poller) formatCount(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return p.printer.Sprintf("%d", int64(v))
	}
	return threatapi.FormatNumber(v)
}

func (p *Poller) observe(outcome Outcome) {
	if p.observer != nil {
		p.observer.ObservePoll(string(outcome))
	}
}

// Counters are the four summary cards.
type Counters struct {
	Total  string `json:"total"`
	High   string `json:"high"`
	Medium string `json:"medium"`
	Low    string `json:"low"`
}

// Outcome describes how the last applied refresh ended.
type Outcome string

// Refresh outcomes.
const (
	OutcomePending    Outcome = "pending"
	OutcomeOK         Outcome = "ok"
	OutcomeEmpty      Outcome = "api_error"
	OutcomeFailed     Outcome = "failed"
	OutcomeSuperseded Outcome = "superseded"
)

// Snapshot is an immutable copy of the panel for rendering.
type Snapshot struct {
	Counters        Counters      `json:"counters"`
	Rows            []Row         `json:"rows"`
	CategoryChart   template.HTML `json:"-"`
	TimelineChart   template.HTML `json:"-"`
	Outcome         Outcome       `json:"outcome"`
	Error           string        `json:"error,omitempty"`
	UpdatedAt       time.Time     `json:"updated_at"`
	Generation      uint64        `json:"generation"`
	IntervalSeconds int           `json:"interval_seconds"`
}

// Pending reports whether no refresh has been applied yet.
func (s Snapshot) Pending() bool { return s.Outcome == OutcomePending }
