// Package remote fetches activity documents over HTTP and falls back to another source on failure.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hylla/slaboard/internal/adapters/source/bundled"
	"github.com/hylla/slaboard/internal/app"
	"github.com/hylla/slaboard/internal/domain"
)

// Origin names this source in snapshots and logs.
const Origin = "remote"

// Document paths under the base URL.
const (
	DefinitionsPath = "/activity-definitions.json"
	StatusesPath    = "/activity-statuses.json"
)

// DefaultTimeout bounds one document request.
const DefaultTimeout = 10 * time.Second

// ErrBaseURLRequired reports a client built without an endpoint.
var ErrBaseURLRequired = errors.New("remote base url is required")

// Config configures the remote client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithFallback sets the source used when a document cannot be fetched. Nil disables fallback.
func WithFallback(src app.Source) Option {
	return func(c *Client) {
		c.fallback = src
	}
}

// WithLogger sets the logger used for fallback warnings.
func WithLogger(logger app.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client fetches definitions and statuses from a static JSON endpoint.
type Client struct {
	endpoint string
	http     *http.Client
	fallback app.Source
	logger   app.Logger

	mu          sync.Mutex
	defsOrigin  string
	statsOrigin string
}

// New constructs a client. The bundled source is the default fallback.
func New(cfg Config, opts ...Option) (*Client, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if endpoint == "" {
		return nil, ErrBaseURLRequired
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		return nil, fmt.Errorf("remote base url %q: scheme must be http or https", cfg.BaseURL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
		fallback: bundled.New(),
		logger:   app.NopLogger(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// FetchDefinitions fetches activity-definitions.json.
func (c *Client) FetchDefinitions(ctx context.Context) ([]domain.ActivityDefinition, error) {
	var defs []domain.ActivityDefinition
	err := c.get(ctx, DefinitionsPath, func(r io.Reader) error {
		out, err := bundled.DecodeDefinitions(r)
		defs = out
		return err
	})
	if err == nil {
		c.setOrigin(&c.defsOrigin, Origin)
		return defs, nil
	}
	if ctx.Err() != nil || c.fallback == nil {
		return nil, err
	}
	c.logger.Warn("remote definitions unavailable, using fallback", "url", c.endpoint+DefinitionsPath, "err", err)
	defs, ferr := c.fallback.FetchDefinitions(ctx)
	if ferr != nil {
		return nil, errors.Join(err, fmt.Errorf("fallback definitions: %w", ferr))
	}
	c.setOrigin(&c.defsOrigin, fallbackOrigin(c.fallback))
	return defs, nil
}

// FetchStatuses fetches activity-statuses.json.
func (c *Client) FetchStatuses(ctx context.Context) ([]domain.ActivityStatus, error) {
	var statuses []domain.ActivityStatus
	err := c.get(ctx, StatusesPath, func(r io.Reader) error {
		out, err := bundled.DecodeStatuses(r)
		statuses = out
		return err
	})
	if err == nil {
		c.setOrigin(&c.statsOrigin, Origin)
		return statuses, nil
	}
	if ctx.Err() != nil || c.fallback == nil {
		return nil, err
	}
	c.logger.Warn("remote statuses unavailable, using fallback", "url", c.endpoint+StatusesPath, "err", err)
	statuses, ferr := c.fallback.FetchStatuses(ctx)
	if ferr != nil {
		return nil, errors.Join(err, fmt.Errorf("fallback statuses: %w", ferr))
	}
	c.setOrigin(&c.statsOrigin, fallbackOrigin(c.fallback))
	return statuses, nil
}

// Origin reports where the last fetched documents came from. Mixed results read "remote+<fallback>".
func (c *Client) Origin() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.defsOrigin == c.statsOrigin:
		return c.defsOrigin
	case c.defsOrigin == Origin:
		return Origin + "+" + c.statsOrigin
	case c.statsOrigin == Origin:
		return Origin + "+" + c.defsOrigin
	default:
		return c.defsOrigin
	}
}

func (c *Client) setOrigin(field *string, origin string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	*field = origin
}

// get performs one GET and hands a 2xx body to decode.
func (c *Client) get(ctx context.Context, path string, decode func(io.Reader) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+path, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		blob, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("get %s: status=%d body=%s", path, resp.StatusCode, strings.TrimSpace(string(blob)))
	}
	if err := decode(resp.Body); err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	return nil
}

func fallbackOrigin(src app.Source) string {
	if reporter, ok := src.(app.OriginReporter); ok {
		return reporter.Origin()
	}
	return "fallback"
}
