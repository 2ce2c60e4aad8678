package prices

import (
	_ "embed"
	"fmt"
)

// fallbackData is a bundled snapshot of the Skinport items payload, used
// when the live API is unreachable and the fallback policy is enabled.
//
//go:embed fallback_data.json
var fallbackData []byte

// FallbackListings validates the bundled dataset and returns its listings.
func FallbackListings() ([]RawListing, error) {
	listings := NormalizeListings(fallbackData)
	if len(listings) == 0 {
		return nil, fmt.Errorf("fallback dataset contains no valid listings")
	}
	return listings, nil
}
