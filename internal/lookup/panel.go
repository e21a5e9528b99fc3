package lookup

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/cti-console/cti-console/internal/threatapi"
)

// Notification texts.
const (
	MsgQueryRequired = "Please enter an IP address or domain"
	MsgTagRequired   = "Please enter a tag and perform a lookup first"
	MsgTagAdded      = "Tag added successfully!"
)

// State is the results area state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateDisplayed
	StateErrorDisplayed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateDisplayed:
		return "displayed"
	case StateErrorDisplayed:
		return "error"
	default:
		return "idle"
	}
}

// Service is the part of the threat API the panel uses.
type Service interface {
	Lookup(ctx context.Context, query string) (threatapi.LookupResult, error)
	Tag(ctx context.Context, query, tag string) ([]string, error)
}

// Notice is a one-shot user notification.
type Notice struct {
	Kind    string
	Message string
}

type queryInput struct {
	Query string `validate:"required"`
}

type tagInput struct {
	Tag   string `validate:"required"`
	Query string `validate:"required"`
}

// Panel is the lookup controller for one session.
type Panel struct {
	service   Service
	logger    *slog.Logger
	validator *validator.Validate

	mu           sync.Mutex
	issued       uint64
	state        State
	currentQuery string
	queryDraft   string
	tagDraft     string
	busy         bool
	view         View
}

// Snapshot is a copy of the panel for rendering.
type Snapshot struct {
	State          State
	CurrentQuery   string
	QueryDraft     string
	TagDraft       string
	Busy           bool
	SubmitDisabled bool
	View           View
}

// NewPanel constructs an idle panel.
func NewPanel(service Service, logger *slog.Logger, v *validator.Validate) *Panel {
	if logger == nil {
		logger = slog.Default()
	}
	if v == nil {
		v = validator.New()
	}
	return &Panel{service: service, logger: logger, validator: v}
}

// Submit looks up query and renders the outcome into the panel. It returns a
// ValidationError when the query is blank, the upstream error when the lookup
// failed, and nil otherwise. A response that settles after a newer submission
// was issued is dropped.
func (p *Panel) Submit(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if err := p.validator.Struct(queryInput{Query: query}); err != nil {
		return &threatapi.ValidationError{Field: "query", Message: MsgQueryRequired}
	}

	p.mu.Lock()
	p.issued++
	gen := p.issued
	p.currentQuery = query
	p.queryDraft = query
	p.busy = true
	p.view.Visible = false
	p.state = StateLoading
	p.mu.Unlock()

	result, err := p.service.Lookup(ctx, query)

	p.mu.Lock()
	defer p.mu.Unlock()
	defer p.settle(gen)

	if gen != p.issued {
		p.logger.Debug("discard superseded lookup", slog.String("query", query))
		return err
	}
	if err == nil {
		p.view = resultView(result)
		p.state = StateDisplayed
		return nil
	}

	p.logger.Error("lookup error", slog.String("query", query), slog.Any("error", err))
	p.view = errorView(lookupErrorText(err))
	p.state = StateErrorDisplayed
	return err
}

// settle clears the busy indicator unless a newer submission still owns it.
func (p *Panel) settle(gen uint64) {
	if gen == p.issued {
		p.busy = false
	}
}

// AddTag attaches tag to the current query and replaces the displayed tags
// with the server's set. The returned notice is always populated.
func (p *Panel) AddTag(ctx context.Context, tag string) (Notice, error) {
	tag = strings.TrimSpace(tag)

	p.mu.Lock()
	query := p.currentQuery
	gen := p.issued
	p.tagDraft = tag
	p.mu.Unlock()

	if err := p.validator.Struct(tagInput{Tag: tag, Query: query}); err != nil {
		return Notice{Kind: "warning", Message: MsgTagRequired}, &threatapi.ValidationError{Field: "tag", Message: MsgTagRequired}
	}

	tags, err := p.service.Tag(ctx, query, tag)
	if err != nil {
		p.logger.Error("add tag error", slog.String("query", query), slog.Any("error", err))
		return Notice{Kind: "danger", Message: tagErrorText(err)}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen == p.issued {
		p.view.Tags = cloneTags(tags)
	}
	p.tagDraft = ""
	return Notice{Kind: "success", Message: MsgTagAdded}, nil
}

// Snapshot returns a copy of the panel state.
func (p *Panel) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	view := p.view
	view.Tags = cloneTags(p.view.Tags)
	return Snapshot{
		State:          p.state,
		CurrentQuery:   p.currentQuery,
		QueryDraft:     p.queryDraft,
		TagDraft:       p.tagDraft,
		Busy:           p.busy,
		SubmitDisabled: p.busy,
		View:           view,
	}
}

func lookupErrorText(err error) string {
	if appErr, ok := threatapi.AsApplication(err); ok {
		if appErr.OK() {
			return "Error: " + appErr.Message
		}
		return appErr.Message
	}
	if statusErr, ok := threatapi.AsStatus(err); ok {
		return statusErr.Error()
	}
	return fmt.Sprintf("Network error: %s. Please check if the server is running.", err.Error())
}

func tagErrorText(err error) string {
	if appErr, ok := threatapi.AsApplication(err); ok {
		return "Error: " + appErr.Message
	}
	if _, ok := threatapi.AsStatus(err); ok {
		return "Error: Unknown error"
	}
	return "Error adding tag: " + err.Error()
}
