package loader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/jgoulah/griddash/internal/dataset"
)

// defaultMaxBody caps how much of a CSV resource is read
const defaultMaxBody = 256 << 20

// LoadError reports a CSV resource that could not be fetched or read
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Loader fetches a CSV resource and parses it into a dataset
type Loader struct {
	source   string
	client   *http.Client
	location *time.Location
	logger   *slog.Logger
	maxBody  int64
}

// Option configures a Loader
type Option func(*Loader)

// WithHTTPClient sets the client used for http and https sources
func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) { l.client = c }
}

// WithTimeout sets the HTTP fetch timeout on a copy of the current client;
// zero means no timeout
func WithTimeout(d time.Duration) Option {
	return func(l *Loader) {
		c := *l.client
		c.Timeout = d
		l.client = &c
	}
}

// WithLocation sets the location used to derive the hour of each record
func WithLocation(loc *time.Location) Option {
	return func(l *Loader) { l.location = loc }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// New creates a loader for source, which is an http(s) URL, a file URL or a local path
func New(source string, opts ...Option) *Loader {
	l := &Loader{
		source:   source,
		client:   http.DefaultClient,
		location: time.Local,
		logger:   slog.Default(),
		maxBody:  defaultMaxBody,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Source returns the resource this loader reads
func (l *Loader) Source() string {
	return l.source
}

// Load fetches and parses the resource. Any fetch failure is returned as a *LoadError.
func (l *Loader) Load(ctx context.Context) (*dataset.Dataset, error) {
	text, err := l.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	records, stats := Parse(text, l.location)
	l.logger.Info("csv parsed",
		"source", l.source,
		"lines", stats.Lines,
		"records", stats.Accepted,
		"skipped", stats.Skipped(),
		"unknownHour", stats.UnknownHour,
	)
	if stats.Skipped() > 0 {
		l.logger.Debug("rows skipped",
			"source", l.source,
			"columns", stats.SkippedColumns,
			"numeric", stats.SkippedNumeric,
		)
	}

	return dataset.New(records), nil
}

// Fetch retrieves the full text of the resource
func (l *Loader) Fetch(ctx context.Context) (string, error) {
	rc, err := l.open(ctx)
	if err != nil {
		return "", &LoadError{Source: l.source, Err: err}
	}
	defer rc.Close()

	body, err := io.ReadAll(io.LimitReader(rc, l.maxBody+1))
	if err != nil {
		return "", &LoadError{Source: l.source, Err: fmt.Errorf("reading body: %w", err)}
	}
	if int64(len(body)) > l.maxBody {
		return "", &LoadError{Source: l.source, Err: fmt.Errorf("resource larger than %d bytes", l.maxBody)}
	}
	return string(body), nil
}

func (l *Loader) open(ctx context.Context) (io.ReadCloser, error) {
	u, err := url.Parse(l.source)
	if err == nil {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return l.get(ctx, u.String())
		case "file":
			return os.Open(u.Path)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.Open(l.source)
}

func (l *Loader) get(ctx context.Context, target string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, text/plain, */*")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request error: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP error: status %d", resp.StatusCode)
	}
	return resp.Body, nil
}
