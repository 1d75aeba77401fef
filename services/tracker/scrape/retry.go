package scrape

import (
	"context"
	"time"

	"codetrack-backend/services/tracker/store"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type RetryConfig struct {
	// Attempts is the total number of tries, not the number of retries.
	Attempts int
	// Delay is the base backoff; attempt n sleeps Delay*n before trying
	// again (linear backoff).
	Delay time.Duration
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.Attempts <= 0 {
		c.Attempts = 3
	}
	if c.Delay <= 0 {
		c.Delay = time.Second
	}
	return c
}

// FetchWithRetry wraps an in-process adapter call in a bounded retry
// loop. External-process adapters are never retried here; they carry
// their own timeout and are too expensive to re-run inside a request.
func FetchWithRetry(ctx context.Context, cfg RetryConfig, scraper Scraper, username string) (store.Stats, error) {
	ctx, span := tracer.Start(ctx, "FetchWithRetry")
	defer span.End()
	span.SetAttributes(
		attribute.String("platform", string(scraper.Platform())),
		attribute.String("username", username),
	)

	cfg = cfg.withDefaults()

	var lastErr error
	for attempt := 1; attempt <= cfg.Attempts; attempt++ {
		stats, err := scraper.Fetch(ctx, username)
		if err == nil {
			return stats, nil
		}
		lastErr = err
		span.RecordError(err)
		span.AddEvent("attempt failed", trace.WithAttributes(attribute.Int("attempt", attempt)))

		if attempt == cfg.Attempts {
			break
		}
		select {
		case <-time.After(cfg.Delay * time.Duration(attempt)):
		case <-ctx.Done():
			span.SetStatus(codes.Error, "context cancelled")
			return nil, ctx.Err()
		}
	}

	span.SetStatus(codes.Error, "retries exhausted")
	return nil, lastErr
}
