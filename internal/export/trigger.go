package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/cti-console/cti-console/internal/threatapi"
)

// Service is the part of the threat API the trigger uses.
type Service interface {
	Export(ctx context.Context, format threatapi.Format, limit *int) (threatapi.Download, error)
}

// File is a finished export ready to be handed to the user. Close releases it.
type File struct {
	Name        string
	ContentType string
	Body        io.ReadCloser
}

// Close releases the underlying response body.
func (f File) Close() error {
	if f.Body == nil {
		return nil
	}
	return f.Body.Close()
}

// Error is a failed export as the user sees it.
type Error struct {
	Format threatapi.Format
	Reason string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("Error exporting %s: %s", e.Format.Label(), e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

type request struct {
	Format string `validate:"required,oneof=csv pdf"`
}

// Trigger performs one export round trip per call. Calls are independent and
// may run concurrently.
type Trigger struct {
	service   Service
	logger    *slog.Logger
	validator *validator.Validate
	now       func() time.Time
}

// NewTrigger constructs an export trigger.
func NewTrigger(service Service, logger *slog.Logger) *Trigger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Trigger{
		service:   service,
		logger:    logger,
		validator: validator.New(),
		now:       time.Now,
	}
}

// WithNow overrides the clock used for file names.
func (t *Trigger) WithNow(fn func() time.Time) {
	if fn != nil {
		t.now = fn
	}
}

// Export requests format with the raw limit input. A limit that does not
// start with an integer is sent as null.
func (t *Trigger) Export(ctx context.Context, format string, rawLimit string) (File, error) {
	if err := t.validator.Struct(request{Format: format}); err != nil {
		return File{}, &threatapi.ValidationError{Field: "format", Message: fmt.Sprintf("unsupported export format %q", format)}
	}
	f := threatapi.Format(format)
	clicked := t.now().UTC()

	dl, err := t.service.Export(ctx, f, ParseLimit(rawLimit))
	if err != nil {
		t.logger.Error("export error", slog.String("format", format), slog.Any("error", err))
		return File{}, &Error{Format: f, Reason: reason(err), Err: err}
	}
	return File{
		Name:        FileName(f, clicked),
		ContentType: contentType(f, dl.ContentType),
		Body:        dl.Body,
	}, nil
}

// FileName is the download name for an export clicked at t.
func FileName(format threatapi.Format, t time.Time) string {
	return fmt.Sprintf("threats_export_%s.%s", t.UTC().Format("2006-01-02"), format.Extension())
}

// ParseLimit reads a leading base-10 integer the way a browser's parseInt
// does: surrounding whitespace and trailing garbage are ignored.
func ParseLimit(raw string) *int {
	s := strings.TrimSpace(raw)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return nil
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return nil
	}
	return &n
}

func reason(err error) string {
	if appErr, ok := threatapi.AsApplication(err); ok {
		return appErr.Message
	}
	if _, ok := threatapi.AsStatus(err); ok {
		return "Unknown error"
	}
	return err.Error()
}

func contentType(format threatapi.Format, upstream string) string {
	if upstream != "" {
		return upstream
	}
	if format == threatapi.FormatPDF {
		return "application/pdf"
	}
	return "text/csv; charset=utf-8"
}
