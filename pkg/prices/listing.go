// Package prices implements the Skinport min-price read path: upstream
// payload validation, per-item aggregation, fallback substitution, and the
// cache-through service used by the HTTP surface.
package prices

import (
	"encoding/json"
	"math"
)

// RawListing is a single validated entry of the upstream Skinport items
// payload. Listings are ephemeral; they only exist between fetch and
// aggregation.
type RawListing struct {
	MarketHashName string  `json:"market_hash_name"`
	MinPrice       float64 `json:"min_price"`
	Tradable       bool    `json:"tradable"`
}

// Summary is the aggregated per-item result: the minimum price per
// tradability class. A nil price means no listing of that class was seen.
type Summary struct {
	MarketHashName      string   `json:"marketHashName"`
	TradableMinPrice    *float64 `json:"tradableMinPrice"`
	NonTradableMinPrice *float64 `json:"nonTradableMinPrice"`
}

// rawEntry mirrors RawListing with pointer fields so that missing keys can
// be told apart from zero values during validation.
type rawEntry struct {
	MarketHashName *string  `json:"market_hash_name"`
	MinPrice       *float64 `json:"min_price"`
	Tradable       *bool    `json:"tradable"`
}

// NormalizeListings validates a raw upstream payload and returns the
// listings that match the expected shape. Entries that are not objects,
// have missing or type-mismatched fields, or carry a non-finite or
// negative price are discarded. A payload that is not a JSON array yields
// no listings.
func NormalizeListings(payload []byte) []RawListing {
	var entries []json.RawMessage
	if err := json.Unmarshal(payload, &entries); err != nil {
		return nil
	}

	listings := make([]RawListing, 0, len(entries))

	for _, raw := range entries {
		var entry rawEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		if entry.MarketHashName == nil || entry.MinPrice == nil || entry.Tradable == nil {
			continue
		}
		price := *entry.MinPrice
		if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
			continue
		}

		listings = append(listings, RawListing{
			MarketHashName: *entry.MarketHashName,
			MinPrice:       price,
			Tradable:       *entry.Tradable,
		})
	}

	return listings
}
