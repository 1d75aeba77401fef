package tracker

import "time"

// DefaultFreshnessThreshold is how long a scrape result is considered
// current before a refresh request actually re-scrapes.
const DefaultFreshnessThreshold = time.Hour

// RefreshDue reports whether a record scraped at lastScrapedAt needs
// re-scraping. force bypasses the gate unconditionally. Pure predicate,
// no side effects.
func RefreshDue(lastScrapedAt time.Time, threshold time.Duration, force bool, now time.Time) bool {
	if force {
		return true
	}
	if threshold <= 0 {
		threshold = DefaultFreshnessThreshold
	}
	if lastScrapedAt.IsZero() {
		return true
	}
	return now.Sub(lastScrapedAt) >= threshold
}
