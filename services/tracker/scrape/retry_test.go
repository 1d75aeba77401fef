package scrape

import (
	"context"
	"fmt"
	"testing"
	"time"

	"codetrack-backend/lib/telemetry"
	"codetrack-backend/services/tracker/store"

	"github.com/stretchr/testify/require"
)

type fakeScraper struct {
	platform store.Platform
	calls    int
	// failures before the first success; negative means always fail
	failFirst int
	err       error
}

func (f *fakeScraper) Platform() store.Platform { return f.platform }
func (f *fakeScraper) Host() string             { return string(f.platform) + ".example.com" }

func (f *fakeScraper) Fetch(ctx context.Context, username string) (store.Stats, error) {
	f.calls++
	if f.failFirst < 0 || f.calls <= f.failFirst {
		if f.err != nil {
			return nil, f.err
		}
		return nil, fmt.Errorf("fetch failed (call %d)", f.calls)
	}
	return &store.GithubStats{
		CommonStats: store.CommonStats{Username: username},
	}, nil
}

func TestFetchWithRetryEventualSuccess(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:tracker/scrape")
	defer cleanup()

	scraper := &fakeScraper{platform: store.PlatformGithub, failFirst: 2}
	cfg := RetryConfig{Attempts: 3, Delay: time.Millisecond}

	stats, err := FetchWithRetry(context.Background(), cfg, scraper, "alice")
	require.NoError(t, err)
	require.Equal(t, "alice", stats.Common().Username)
	require.Equal(t, 3, scraper.calls)
}

func TestFetchWithRetryExhausted(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:tracker/scrape")
	defer cleanup()

	scraper := &fakeScraper{platform: store.PlatformGithub, failFirst: -1, err: ErrNoSignal}
	cfg := RetryConfig{Attempts: 3, Delay: time.Millisecond}

	_, err := FetchWithRetry(context.Background(), cfg, scraper, "alice")
	require.ErrorIs(t, err, ErrNoSignal)
	require.Equal(t, 3, scraper.calls)
}

func TestFetchWithRetryCancellation(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:tracker/scrape")
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scraper := &fakeScraper{platform: store.PlatformGithub, failFirst: -1}
	cfg := RetryConfig{Attempts: 3, Delay: time.Hour}

	_, err := FetchWithRetry(ctx, cfg, scraper, "alice")
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, scraper.calls)
}
