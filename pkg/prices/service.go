package prices

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/skinvault/skinport-api/pkg/cache"
	"github.com/skinvault/skinport-api/pkg/logging"
)

// SummaryCache is the cache surface the service needs. Implemented by
// *cache.Store; Get must return cache.ErrCacheMiss on an absent key and
// cache.ErrInvalidEntry on an undecodable value.
type SummaryCache interface {
	Get(ctx context.Context, v any) error
	Set(ctx context.Context, v any) error
	Delete(ctx context.Context) error
}

// Service is the cache-through price reader: cache lookup first, then the
// two-stage source, then best-effort cache population.
//
// Cache-store failures never surface to callers; the read path degrades to
// a miss and the write path is a logged no-op. Concurrent misses may each
// fetch upstream and redundantly repopulate the cache; entries are
// idempotent derivations of the same upstream truth, so last-writer-wins
// is fine and no request coalescing is attempted.
type Service struct {
	source *Source
	cache  SummaryCache
	logger zerolog.Logger
}

// NewService creates a cache-through price service.
func NewService(source *Source, summaryCache SummaryCache) *Service {
	if source == nil {
		panic("source cannot be nil")
	}
	if summaryCache == nil {
		panic("summary cache cannot be nil")
	}
	return &Service{
		source: source,
		cache:  summaryCache,
		logger: logging.NewLogger("price-service"),
	}
}

// GetPrices returns the aggregated per-item min-price summaries.
// The only error it returns wraps ErrUpstreamUnavailable.
func (s *Service) GetPrices(ctx context.Context) ([]Summary, error) {
	var cached []Summary
	err := s.cache.Get(ctx, &cached)
	switch {
	case err == nil:
		if cached != nil {
			s.logger.Debug().Int("items", len(cached)).Msg("Serving item prices from cache")
			return cached, nil
		}
		// A literal null decodes cleanly but carries nothing; treat as a miss.
	case errors.Is(err, cache.ErrCacheMiss):
		// Fall through to the source.
	case errors.Is(err, cache.ErrInvalidEntry):
		s.logger.Warn().Err(err).Msg("Failed to decode cached items; purging cache key")
		if delErr := s.cache.Delete(ctx); delErr != nil {
			s.logger.Warn().Err(delErr).Msg("Failed to purge stale cache key")
		}
	default:
		// Store unreachable: degrade to a miss, never fail the request.
		s.logger.Warn().Err(err).Msg("Failed to read from cache")
	}

	listings, err := s.source.Listings(ctx)
	if err != nil {
		return nil, err
	}

	summaries := Aggregate(listings)

	if err := s.cache.Set(ctx, summaries); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to write items to cache")
	}

	return summaries, nil
}
