package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/okian/peloton/pkg/metrics"
)

// Defaults for HTTPFetcher.
const (
	DefaultFetchTimeout = 10 * time.Second
	DefaultFetchDelay   = 500 * time.Millisecond
	maxProfileBytes     = 4 << 20
)

// Fetcher retrieves the raw results-site payload for a rider slug.
type Fetcher interface {
	Fetch(ctx context.Context, slug string) ([]byte, error)
}

// FetcherOption applies a configuration option to the HTTPFetcher.
type FetcherOption func(*HTTPFetcher)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *HTTPFetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithRequestDelay sets the minimum gap between two requests.
func WithRequestDelay(d time.Duration) FetcherOption {
	return func(f *HTTPFetcher) {
		if d >= 0 {
			f.delay = d
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *HTTPFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// HTTPFetcher GETs {base}/rider/{slug} and returns the JSON body. Requests
// are spaced at least the configured delay apart.
type HTTPFetcher struct {
	base      string
	client    *http.Client
	delay     time.Duration
	userAgent string

	mu   sync.Mutex
	last time.Time
}

var _ Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher creates a fetcher for the results API at baseURL.
func NewHTTPFetcher(baseURL string, opts ...FetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		base:      strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: DefaultFetchTimeout},
		delay:     DefaultFetchDelay,
		userAgent: "peloton/1.0",
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the profile payload for slug.
func (f *HTTPFetcher) Fetch(ctx context.Context, slug string) ([]byte, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	body, result, err := f.get(ctx, f.base+"/rider/"+url.PathEscape(slug))
	metrics.RecordFetch(result, float64(time.Since(start).Milliseconds()))
	return body, err
}

func (f *HTTPFetcher) get(ctx context.Context, u string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, "error", fmt.Errorf("%w: build request: %v", ErrFetch, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "error", fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, "not_found", fmt.Errorf("%w: %w: %s", ErrFetch, ErrRiderUnknown, u)
	case resp.StatusCode != http.StatusOK:
		return nil, "error", fmt.Errorf("%w: unexpected status %d from %s", ErrFetch, resp.StatusCode, u)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileBytes))
	if err != nil {
		return nil, "error", fmt.Errorf("%w: read body: %v", ErrFetch, err)
	}
	return body, "ok", nil
}

// wait blocks until the delay since the previous request has passed.
func (f *HTTPFetcher) wait(ctx context.Context) error {
	f.mu.Lock()
	next := f.last.Add(f.delay)
	now := time.Now()
	if next.Before(now) {
		next = now
	}
	f.last = next
	f.mu.Unlock()

	d := time.Until(next)
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrFetch, ctx.Err())
	case <-t.C:
		return nil
	}
}
