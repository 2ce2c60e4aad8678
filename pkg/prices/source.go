package prices

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/skinvault/skinport-api/pkg/logging"
)

var fallbackHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "skinport_fallback_hits_total",
	Help: "Total times the bundled fallback dataset substituted a failed live fetch",
})

// Source yields validated listings, preferring the live Skinport API and
// optionally substituting the bundled fallback dataset when the live fetch
// fails. Precedence is fixed: live first, fallback second, never the other
// way around.
type Source struct {
	fetcher     *Fetcher
	useFallback bool
	logger      zerolog.Logger
}

// NewSource creates a two-stage listing source.
func NewSource(fetcher *Fetcher, useFallback bool) *Source {
	if fetcher == nil {
		panic("fetcher cannot be nil")
	}
	return &Source{
		fetcher:     fetcher,
		useFallback: useFallback,
		logger:      logging.NewLogger("price-source"),
	}
}

// Listings returns validated listings from the live API or, if that fails
// and the fallback policy is enabled, from the bundled dataset. When both
// stages fail the error wraps ErrUpstreamUnavailable.
func (s *Source) Listings(ctx context.Context) ([]RawListing, error) {
	listings, err := s.fetcher.Fetch(ctx)
	if err == nil {
		return listings, nil
	}

	if !s.useFallback {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	s.logger.Warn().Err(err).Msg("Live fetch failed; substituting fallback dataset")

	fallback, fbErr := FallbackListings()
	if fbErr != nil {
		s.logger.Error().Err(fbErr).Msg("Fallback dataset unusable")
		return nil, fmt.Errorf("%w: %v (fallback: %v)", ErrUpstreamUnavailable, err, fbErr)
	}

	fallbackHitsTotal.Inc()
	return fallback, nil
}
