package driven

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/alorle/iptv-sync/circuitbreaker"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "iptv-sync/1.0"
)

// FetchError describes a failed playlist retrieval.
// StatusCode is zero when no HTTP response was received.
type FetchError struct {
	URL        string
	StatusCode int
	Status     string
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: unexpected HTTP status: %s", e.URL, e.Status)
	}
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

var (
	// errUpstreamStatus marks a server-side HTTP status counted against the host's breaker.
	errUpstreamStatus = errors.New("upstream server error")
	// errRateLimitWait marks a request abandoned before it reached the host.
	errRateLimitWait = errors.New("waiting for rate limiter")
)

// PlaylistHTTPFetcherConfig configures a PlaylistHTTPFetcher.
// Zero values select defaults; a zero RateLimit disables pacing and a nil
// Breakers group disables circuit breaking.
type PlaylistHTTPFetcherConfig struct {
	Client    *http.Client
	Timeout   time.Duration
	UserAgent string
	RateLimit float64 // requests per second
	Breakers  *circuitbreaker.Group
}

// PlaylistHTTPFetcher retrieves playlist documents over HTTP.
// It implements the driven.PlaylistFetcher port.
type PlaylistHTTPFetcher struct {
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
	breakers  *circuitbreaker.Group
}

// NewPlaylistHTTPFetcher creates a fetcher from cfg.
// If cfg.Client is nil, it creates an HTTP client with cfg.Timeout (30 seconds by default).
func NewPlaylistHTTPFetcher(cfg PlaylistHTTPFetcherConfig) *PlaylistHTTPFetcher {
	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	return &PlaylistHTTPFetcher{
		client:    client,
		userAgent: userAgent,
		limiter:   limiter,
		breakers:  cfg.Breakers,
	}
}

// FetchText retrieves the full document at rawURL.
// Any status outside 2xx is returned as a *FetchError. Transport errors and
// 5xx responses count against the breaker of the URL's host; client errors do not.
// A request rejected by an open breaker does not consume a rate token.
func (f *PlaylistHTTPFetcher) FetchText(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", &FetchError{URL: rawURL, Err: err}
	}

	if f.breakers == nil {
		return f.pacedFetch(ctx, rawURL)
	}

	var body string
	var fetchErr error
	err = f.breakers.Get(u.Host).Execute(func() error {
		body, fetchErr = f.pacedFetch(ctx, rawURL)
		if countsAgainstHost(fetchErr) {
			return fetchErr
		}
		return nil
	})
	if err != nil && fetchErr == nil {
		// Rejected by the breaker without calling upstream.
		return "", &FetchError{URL: rawURL, Err: err}
	}
	return body, fetchErr
}

// pacedFetch waits for a rate token, then fetches.
func (f *PlaylistHTTPFetcher) pacedFetch(ctx context.Context, rawURL string) (string, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return "", &FetchError{URL: rawURL, Err: fmt.Errorf("%w: %w", errRateLimitWait, err)}
		}
	}
	return f.fetch(ctx, rawURL)
}

func (f *PlaylistHTTPFetcher) fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &FetchError{URL: rawURL, Err: fmt.Errorf("creating HTTP request: %w", err)}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		fe := &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Status: resp.Status}
		if resp.StatusCode >= http.StatusInternalServerError {
			fe.Err = errUpstreamStatus
		}
		return "", fe
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &FetchError{URL: rawURL, Err: fmt.Errorf("reading response body: %w", err)}
	}

	return string(body), nil
}

func countsAgainstHost(err error) bool {
	if err == nil {
		return false
	}
	var fe *FetchError
	if errors.As(err, &fe) && fe.StatusCode != 0 {
		return fe.StatusCode >= http.StatusInternalServerError
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, errRateLimitWait)
}
