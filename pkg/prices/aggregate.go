package prices

// Aggregate groups listings by market hash name and keeps the minimum
// price per tradability class. It is a pure function over its input; the
// order of the returned summaries is unspecified.
func Aggregate(listings []RawListing) []Summary {
	byName := make(map[string]*Summary)

	for _, listing := range listings {
		summary, ok := byName[listing.MarketHashName]
		if !ok {
			summary = &Summary{MarketHashName: listing.MarketHashName}
			byName[listing.MarketHashName] = summary
		}

		price := listing.MinPrice
		if listing.Tradable {
			if summary.TradableMinPrice == nil || price < *summary.TradableMinPrice {
				summary.TradableMinPrice = &price
			}
		} else {
			if summary.NonTradableMinPrice == nil || price < *summary.NonTradableMinPrice {
				summary.NonTradableMinPrice = &price
			}
		}
	}

	summaries := make([]Summary, 0, len(byName))
	for _, summary := range byName {
		summaries = append(summaries, *summary)
	}

	return summaries
}
