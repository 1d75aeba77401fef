package scrape

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHostLimiterSpacing(t *testing.T) {
	now := time.Unix(1000, 0)
	var slept []time.Duration

	limiter := NewHostLimiter(time.Second * 2)
	limiter.now = func() time.Time { return now }
	limiter.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		now = now.Add(d)
		return nil
	}

	ctx := context.Background()

	// first request to a host goes straight through
	require.NoError(t, limiter.Wait(ctx, "leetcode.com"))
	require.Empty(t, slept)

	// immediate second request waits out the interval
	require.NoError(t, limiter.Wait(ctx, "leetcode.com"))
	require.Equal(t, []time.Duration{time.Second * 2}, slept)

	// a different host is independent
	require.NoError(t, limiter.Wait(ctx, "github.com"))
	require.Len(t, slept, 1)
}

func TestHostLimiterDisabled(t *testing.T) {
	var limiter *HostLimiter
	require.NoError(t, limiter.Wait(context.Background(), "leetcode.com"))
	require.NoError(t, NewHostLimiter(0).Wait(context.Background(), "leetcode.com"))
}
