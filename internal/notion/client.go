// Package notion reads a workspace through the Notion API. It lists the
// items of a collection, finds pages by title and reads page content as
// ordered blocks, the structured source tried before the accessibility tree.
package notion

import (
	"net/http"
	"strings"
	"time"

	"github.com/jomei/notionapi"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout bounds a single HTTP request.
	DefaultTimeout = 30 * time.Second
	// DefaultRPS is the documented average request rate.
	DefaultRPS = 3

	maxPageSize = 100
)

// Client talks to the Notion API with an integration token.
type Client struct {
	api *notionapi.Client
}

type settings struct {
	transport http.RoundTripper
	timeout   time.Duration
	rps       float64
}

// Option configures a Client.
type Option func(*settings)

// WithTransport sends requests through rt, such as one pointing at a test
// server.
func WithTransport(rt http.RoundTripper) Option {
	return func(s *settings) {
		s.transport = rt
	}
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		s.timeout = d
	}
}

// WithRateLimit sets the request rate. Zero or less disables limiting.
func WithRateLimit(rps float64) Option {
	return func(s *settings) {
		s.rps = rps
	}
}

// throttled waits for the limiter before every request the API client
// sends.
type throttled struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

func (t *throttled) RoundTrip(r *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(r.Context()); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(r)
}

// New returns a client authenticated with token.
func New(token string, opts ...Option) *Client {
	s := settings{transport: http.DefaultTransport, timeout: DefaultTimeout, rps: DefaultRPS}
	for _, opt := range opts {
		opt(&s)
	}
	limit := rate.Inf
	if s.rps > 0 {
		limit = rate.Limit(s.rps)
	}
	h := &http.Client{
		Timeout:   s.timeout,
		Transport: &throttled{base: s.transport, limiter: rate.NewLimiter(limit, 1)},
	}
	return &Client{api: notionapi.NewClient(notionapi.Token(token), notionapi.WithHTTPClient(h))}
}

// NormalizeID strips the hyphens Notion URLs and the API disagree about.
func NormalizeID(id string) string {
	return strings.ReplaceAll(strings.TrimSpace(id), "-", "")
}
