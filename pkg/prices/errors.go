package prices

import (
	"errors"
	"fmt"
)

// Common errors returned by the price read path.
var (
	// ErrUpstreamUnavailable is returned when both the live Skinport fetch
	// and the fallback dataset failed to produce listings. It is the only
	// failure the cache-through service surfaces to callers.
	ErrUpstreamUnavailable = errors.New("upstream price data unavailable")

	// ErrUpstreamTimeout is returned when the Skinport request exceeded
	// its deadline.
	ErrUpstreamTimeout = errors.New("skinport request timed out")

	// ErrUpstreamEmpty is returned when the Skinport response contained no
	// listings that survived shape validation.
	ErrUpstreamEmpty = errors.New("no valid listings returned by skinport")
)

// UpstreamError reports a non-2xx response from the Skinport API.
type UpstreamError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("skinport responded with %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("skinport responded with %d", e.StatusCode)
}
