package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRefreshDue(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	// scraped 30 minutes ago with a 1 hour threshold
	require.False(t, RefreshDue(now.Add(-time.Minute*30), time.Hour, false, now))
	// same record, forced
	require.True(t, RefreshDue(now.Add(-time.Minute*30), time.Hour, true, now))
	// scraped over the threshold ago
	require.True(t, RefreshDue(now.Add(-time.Hour*2), time.Hour, false, now))
	// exactly at the threshold counts as due
	require.True(t, RefreshDue(now.Add(-time.Hour), time.Hour, false, now))
	// never scraped
	require.True(t, RefreshDue(time.Time{}, time.Hour, false, now))
	// zero threshold falls back to the default hour
	require.False(t, RefreshDue(now.Add(-time.Minute*30), 0, false, now))
}
