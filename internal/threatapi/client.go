package threatapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/cti-console/cti-console/internal/threatapi"

// Recorder observes upstream calls. observability.Metrics implements it.
type Recorder interface {
	ObserveUpstream(op, outcome string, elapsed time.Duration)
}

// Download is a successful export body. Callers must Close it.
type Download struct {
	ContentType string
	Body        io.ReadCloser
}

// Close releases the underlying response body.
func (d Download) Close() error {
	if d.Body == nil {
		return nil
	}
	return d.Body.Close()
}

// Client talks to the threat intelligence backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tracer     trace.Tracer
	recorder   Recorder
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// WithTracer overrides the tracer used for spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *Client) {
		if t != nil {
			c.tracer = t
		}
	}
}

// NewClient constructs a client. A zero timeout leaves request lifetime to the context and transport.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Stats fetches the aggregate dashboard statistics.
func (c *Client) Stats(ctx context.Context) (stats DashboardStats, err error) {
	ctx, finish := c.start(ctx, "stats")
	defer func() { finish(err) }()

	resp, err := c.do(ctx, "stats", http.MethodGet, "/api/dashboard/stats", nil)
	if err != nil {
		return DashboardStats{}, err
	}
	defer closeBody(resp)

	if !isSuccess(resp.StatusCode) {
		return DashboardStats{}, &StatusError{Op: "stats", StatusCode: resp.StatusCode}
	}
	if err := decode(resp, "stats", &stats); err != nil {
		return DashboardStats{}, err
	}
	if stats.Error != "" {
		return DashboardStats{}, &ApplicationError{Op: "stats", StatusCode: resp.StatusCode, Message: stats.Error}
	}
	return stats, nil
}

// Export requests a CSV or PDF export. limit may be nil when the input was not numeric.
func (c *Client) Export(ctx context.Context, format Format, limit *int) (dl Download, err error) {
	op := "export_" + string(format)
	ctx, finish := c.start(ctx, op)
	defer func() { finish(err) }()

	if !format.Valid() {
		return Download{}, &ValidationError{Field: "format", Message: fmt.Sprintf("unsupported export format %q", format)}
	}
	resp, err := c.do(ctx, op, http.MethodPost, "/api/export/"+string(format), exportRequest{Limit: limit})
	if err != nil {
		return Download{}, err
	}
	if isSuccess(resp.StatusCode) {
		return Download{ContentType: resp.Header.Get("Content-Type"), Body: resp.Body}, nil
	}
	defer closeBody(resp)

	var body errorResponse
	if err := decode(resp, op, &body); err != nil {
		return Download{}, err
	}
	if body.Error == "" {
		return Download{}, &StatusError{Op: op, StatusCode: resp.StatusCode}
	}
	return Download{}, &ApplicationError{Op: op, StatusCode: resp.StatusCode, Message: body.Error}
}

// Lookup submits a single IP or domain query.
func (c *Client) Lookup(ctx context.Context, query string) (result LookupResult, err error) {
	ctx, finish := c.start(ctx, "lookup")
	defer func() { finish(err) }()

	resp, err := c.do(ctx, "lookup", http.MethodPost, "/api/lookup", lookupRequest{Query: query})
	if err != nil {
		return LookupResult{}, err
	}
	defer closeBody(resp)

	if err := decode(resp, "lookup", &result); err != nil {
		return LookupResult{}, err
	}
	if result.Error != "" {
		return LookupResult{}, &ApplicationError{Op: "lookup", StatusCode: resp.StatusCode, Message: result.Error}
	}
	if !isSuccess(resp.StatusCode) {
		return LookupResult{}, &StatusError{Op: "lookup", StatusCode: resp.StatusCode}
	}
	return result, nil
}

// Tag appends a manual tag and returns the server's authoritative tag set.
func (c *Client) Tag(ctx context.Context, query, tag string) (tags []string, err error) {
	ctx, finish := c.start(ctx, "tag")
	defer func() { finish(err) }()

	resp, err := c.do(ctx, "tag", http.MethodPost, "/api/tag", tagRequest{Query: query, Tag: tag})
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	var body tagResponse
	if err := decode(resp, "tag", &body); err != nil {
		return nil, err
	}
	if body.Error != "" {
		return nil, &ApplicationError{Op: "tag", StatusCode: resp.StatusCode, Message: body.Error}
	}
	if !isSuccess(resp.StatusCode) {
		return nil, &StatusError{Op: "tag", StatusCode: resp.StatusCode}
	}
	if body.Tags == nil {
		return nil, &TransportError{Op: "tag", Err: errors.New("decode tag response: tags missing")}
	}
	return body.Tags, nil
}

func (c *Client) start(ctx context.Context, op string) (context.Context, func(error)) {
	started := time.Now()
	ctx, span := c.tracer.Start(ctx, "threatapi."+op, trace.WithSpanKind(trace.SpanKindClient))
	return ctx, func(err error) {
		outcome := outcomeOf(err)
		span.SetAttributes(attribute.String("threatapi.outcome", outcome))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		if c.recorder != nil {
			c.recorder.ObserveUpstream(op, outcome, time.Since(started))
		}
	}
}

func (c *Client) do(ctx context.Context, op, method, path string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, &TransportError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	return resp, nil
}

func decode(resp *http.Response, op string, dest any) error {
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("decode %s response: %w", op, err)}
	}
	return nil
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}

func closeBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	_ = resp.Body.Close()
}
