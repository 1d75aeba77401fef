package tracker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"codetrack-backend/lib/timezone"
)

// StartRefreshSweep runs the background staleness sweep until the
// context is cancelled. Every sweep refreshes records whose
// lastScrapedAt fell behind the freshness threshold, one student at a
// time. A zero sweep interval disables the daemon.
func (s *Service) StartRefreshSweep(ctx context.Context) {
	if s.cfg.SweepIntervalMin <= 0 {
		return
	}
	go s.refreshSweepWorker(ctx, time.Duration(s.cfg.SweepIntervalMin)*time.Minute)
}

func (s *Service) refreshSweepWorker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Service) sweepOnce(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "sweepOnce")
	defer span.End()

	cutoff := timezone.Now().Add(-s.cfg.freshnessThreshold())
	stale, err := s.store.ListStale(ctx, cutoff)
	if err != nil {
		span.RecordError(err)
		slog.ErrorContext(ctx, "staleness sweep query failed", "err", err)
		return
	}
	if len(stale) == 0 {
		return
	}
	slog.InfoContext(ctx, "refreshing stale records", "count", len(stale))

	for _, record := range stale {
		if ctx.Err() != nil {
			return
		}
		summary, err := s.RefreshStudent(ctx, record.ID.Hex(), false)
		if err != nil {
			if errors.Is(err, ErrNotDue) {
				continue
			}
			slog.ErrorContext(ctx, "background refresh failed",
				"student", record.RollNo, "err", err)
			continue
		}
		slog.InfoContext(ctx, "background refresh finished",
			"student", record.RollNo,
			"successful", len(summary.Successful),
			"failed", len(summary.Failed),
		)
	}
}
