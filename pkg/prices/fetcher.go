package prices

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/skinvault/skinport-api/pkg/logging"
)

// Prometheus metrics for upstream fetch operations.
var (
	upstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skinport_upstream_requests_total",
		Help: "Total Skinport API requests by outcome",
	}, []string{"outcome"})

	upstreamRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "skinport_upstream_request_duration_seconds",
		Help:    "Skinport API request duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	})
)

const (
	// DefaultFetchTimeout bounds a single upstream request.
	DefaultFetchTimeout = 10 * time.Second

	// maxErrorBodyBytes limits how much of an upstream error body is kept
	// for diagnostics.
	maxErrorBodyBytes = 512
)

// FetcherConfig holds the upstream fetcher configuration.
type FetcherConfig struct {
	// URL is the Skinport items endpoint.
	URL string

	// UserAgent is sent on every request. Skinport sits behind Cloudflare,
	// so a browser-like agent avoids bot challenges.
	UserAgent string

	// Timeout bounds a single fetch (default: DefaultFetchTimeout).
	Timeout time.Duration

	// HTTPClient overrides the transport (for testing).
	HTTPClient *http.Client
}

// Fetcher retrieves and validates item listings from the Skinport API.
type Fetcher struct {
	httpClient *http.Client
	url        string
	userAgent  string
	timeout    time.Duration
	logger     zerolog.Logger
}

// NewFetcher creates a new upstream fetcher.
func NewFetcher(cfg FetcherConfig) (*Fetcher, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("upstream url is required")
	}
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("invalid upstream url: %w", err)
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Fetcher{
		httpClient: httpClient,
		url:        cfg.URL,
		userAgent:  cfg.UserAgent,
		timeout:    timeout,
		logger:     logging.NewLogger("skinport-fetcher"),
	}, nil
}

// Fetch performs a single GET against the Skinport items endpoint and
// returns the listings that survived shape validation.
//
// Failures are classified: deadline overruns map to ErrUpstreamTimeout,
// non-2xx responses to *UpstreamError, and responses with zero valid
// listings to ErrUpstreamEmpty. No retries are attempted; resilience is
// the caller's concern.
func (f *Fetcher) Fetch(ctx context.Context) ([]RawListing, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		upstreamRequestDuration.Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	// Skinport serves CS:GO (app 730) prices in the requested currency.
	query := req.URL.Query()
	query.Set("app_id", "730")
	query.Set("currency", "EUR")
	req.URL.RawQuery = query.Encode()

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			f.logger.Warn().Dur("timeout", f.timeout).Msg("Skinport request timed out")
			upstreamRequestsTotal.WithLabelValues("timeout").Inc()
			return nil, fmt.Errorf("%w after %s", ErrUpstreamTimeout, f.timeout)
		}
		f.logger.Warn().Err(err).Msg("Skinport request failed")
		upstreamRequestsTotal.WithLabelValues("network_error").Inc()
		return nil, fmt.Errorf("skinport request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		upstreamRequestsTotal.WithLabelValues(fmt.Sprintf("%d", resp.StatusCode)).Inc()
		f.logger.Warn().
			Int("status", resp.StatusCode).
			Msg("Skinport responded with an error status")
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		upstreamRequestsTotal.WithLabelValues("network_error").Inc()
		return nil, fmt.Errorf("read skinport response: %w", err)
	}

	listings := NormalizeListings(payload)
	if len(listings) == 0 {
		upstreamRequestsTotal.WithLabelValues("empty").Inc()
		return nil, ErrUpstreamEmpty
	}

	upstreamRequestsTotal.WithLabelValues("success").Inc()
	f.logger.Debug().
		Int("listings", len(listings)).
		Dur("duration", time.Since(start)).
		Msg("Fetched Skinport listings")

	return listings, nil
}
