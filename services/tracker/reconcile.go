package tracker

import (
	"context"
	"fmt"
	"log/slog"

	"codetrack-backend/lib/timezone"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Reconcile merges one refresh pass's outcomes into the student record
// and persists it exactly once. The record is re-read first: external
// scraper processes write their platform sub-documents directly, and
// reconciling against a pre-scrape snapshot would clobber those writes.
// lastScrapedAt is advanced once for the whole pass, not per platform.
func (s *Service) Reconcile(ctx context.Context, studentID string, outcomes []PlatformOutcome) (RefreshSummary, error) {
	ctx, span := tracer.Start(ctx, "Reconcile")
	defer span.End()

	record, err := s.store.GetByID(ctx, studentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to re-read record")
		return RefreshSummary{}, fmt.Errorf("reconcile: %w", err)
	}

	now := timezone.Now()
	summary := RefreshSummary{RefreshedAt: now}

	for _, outcome := range outcomes {
		switch outcome.State {
		case StateSuccess:
			if !outcome.StoreWritten {
				err := record.Platforms.Set(outcome.Platform, outcome.Stats)
				if err != nil {
					span.RecordError(err)
					summary.Failed = append(summary.Failed, PlatformFailure{
						Platform: outcome.Platform,
						Error:    err.Error(),
					})
					record.AppendScrapingError(outcome.Platform, err.Error(), now)
					continue
				}
			}
			summary.Successful = append(summary.Successful, outcome.Platform)
		case StateSkipped:
			summary.Skipped = append(summary.Skipped, outcome.Platform)
		case StateSoftFailure, StateHardFailure:
			message := "scraping failed"
			if outcome.Err != nil {
				message = outcome.Err.Error()
			}
			record.AppendScrapingError(outcome.Platform, message, now)
			summary.Failed = append(summary.Failed, PlatformFailure{
				Platform: outcome.Platform,
				Error:    message,
			})
		default:
			// an outcome stuck in a non-terminal state is a pipeline bug
			slog.WarnContext(ctx, "non-terminal outcome reached reconciler",
				"platform", outcome.Platform, "state", outcome.State)
		}
	}

	record.TouchLastScraped(now)

	err = s.store.Save(ctx, record)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist record")
		return RefreshSummary{}, fmt.Errorf("reconcile: %w", err)
	}

	span.SetAttributes(
		attribute.Int("successful", len(summary.Successful)),
		attribute.Int("skipped", len(summary.Skipped)),
		attribute.Int("failed", len(summary.Failed)),
	)
	s.pushSnapshots(ctx, record)
	return summary, nil
}
