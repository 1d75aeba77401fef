package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"codetrack-backend/lib/timezone"
	"codetrack-backend/services/tracker/external"
	"codetrack-backend/services/tracker/scrape"
	"codetrack-backend/services/tracker/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("tracker")

// ErrNotDue marks a refresh request that the freshness gate declined.
// The caller reports it as "already fresh", not as a failure.
var ErrNotDue = fmt.Errorf("record is fresh, refresh not due")

type Config struct {
	// minutes; zero means DefaultFreshnessThreshold
	FreshnessThresholdMin int `json:"freshness_threshold_min"`
	// minimum gap between requests to the same platform host
	ScrapeIntervalMs int `json:"scrape_interval_ms"`
	// request user-agent for the in-process scrapers; empty means
	// scrape.DefaultUserAgent
	UserAgent string `json:"user_agent"`
	RetryAttempts    int `json:"retry_attempts"`
	RetryDelayMs     int `json:"retry_delay_ms"`
	// platforms routed through the external scraper process instead of
	// the in-process adapters
	ExternalPlatforms []string        `json:"external_platforms"`
	External          external.Config `json:"external"`
	// minutes between background staleness sweeps; zero disables the sweep
	SweepIntervalMin int `json:"sweep_interval_min"`
}

func (c Config) freshnessThreshold() time.Duration {
	if c.FreshnessThresholdMin > 0 {
		return time.Duration(c.FreshnessThresholdMin) * time.Minute
	}
	return DefaultFreshnessThreshold
}

func (c Config) retryConfig() scrape.RetryConfig {
	cfg := scrape.RetryConfig{Attempts: c.RetryAttempts}
	if c.RetryDelayMs > 0 {
		cfg.Delay = time.Duration(c.RetryDelayMs) * time.Millisecond
	}
	return cfg
}

// SnapshotSink receives the reconciled record after every refresh pass
// so rating history can be recorded out of band. Push failures are
// logged, never surfaced to the caller.
type SnapshotSink interface {
	Push(ctx context.Context, record *store.StudentRecord) error
}

type Service struct {
	store     store.Store
	scrapers  map[store.Platform]scrape.Scraper
	runner    *external.Runner
	limiter   *scrape.HostLimiter
	snapshots SnapshotSink
	cfg       Config

	externalSet map[store.Platform]bool
}

func NewService(
	st store.Store,
	scrapers map[store.Platform]scrape.Scraper,
	runner *external.Runner,
	snapshots SnapshotSink,
	cfg Config,
) *Service {
	interval := time.Duration(cfg.ScrapeIntervalMs) * time.Millisecond
	if cfg.ScrapeIntervalMs == 0 {
		interval = time.Second * 2
	}

	externalSet := map[store.Platform]bool{}
	for _, name := range cfg.ExternalPlatforms {
		platform, err := store.ParsePlatform(name)
		if err != nil {
			slog.Warn("ignoring unknown external platform", "platform", name)
			continue
		}
		externalSet[platform] = true
	}

	return &Service{
		store:       st,
		scrapers:    scrapers,
		runner:      runner,
		limiter:     scrape.NewHostLimiter(interval),
		snapshots:   snapshots,
		cfg:         cfg,
		externalSet: externalSet,
	}
}

func (s *Service) GetStudent(ctx context.Context, id string) (*store.StudentRecord, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) GetStudentByRoll(ctx context.Context, roll string) (*store.StudentRecord, error) {
	return s.store.GetByRoll(ctx, roll)
}

// RefreshStudent runs a full refresh pass over every platform. When the
// freshness gate declines (record scraped recently and force unset) it
// returns ErrNotDue without touching any scraper.
func (s *Service) RefreshStudent(ctx context.Context, id string, force bool) (RefreshSummary, error) {
	return s.refresh(ctx, id, store.AllPlatforms, force)
}

// RefreshPlatform refreshes a single platform. The freshness gate still
// applies, keyed on the whole record's lastScrapedAt.
func (s *Service) RefreshPlatform(ctx context.Context, id string, platform store.Platform, force bool) (RefreshSummary, error) {
	return s.refresh(ctx, id, []store.Platform{platform}, force)
}

func (s *Service) refresh(ctx context.Context, id string, platforms []store.Platform, force bool) (RefreshSummary, error) {
	ctx, span := tracer.Start(ctx, "refresh")
	defer span.End()
	span.SetAttributes(
		attribute.String("student_id", id),
		attribute.Bool("force", force),
	)

	record, err := s.store.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "record lookup failed")
		return RefreshSummary{}, err
	}

	if !RefreshDue(record.LastScrapedAt, s.cfg.freshnessThreshold(), force, timezone.Now()) {
		span.AddEvent("refresh not due")
		return RefreshSummary{}, ErrNotDue
	}

	// platforms are deliberately sequential: one external process in
	// flight at a time, and the host limiter paces in-process fetches
	outcomes := make([]PlatformOutcome, 0, len(platforms))
	for _, platform := range platforms {
		outcome := s.attemptPlatform(ctx, record, platform)
		outcomes = append(outcomes, outcome)
		slog.InfoContext(ctx, "platform attempt finished",
			"student", record.RollNo,
			"platform", platform,
			"state", outcome.State,
		)
	}

	return s.Reconcile(ctx, id, outcomes)
}

// attemptPlatform drives one platform through the per-request state
// machine: pending, resolving_identifier, scraping, then one of the
// terminal states. Failures are contained here; they never abort the
// remaining platforms.
func (s *Service) attemptPlatform(ctx context.Context, record *store.StudentRecord, platform store.Platform) PlatformOutcome {
	ctx, span := tracer.Start(ctx, "attemptPlatform")
	defer span.End()
	span.SetAttributes(attribute.String("platform", string(platform)))

	outcome := PlatformOutcome{Platform: platform, State: StateResolving}

	username := ResolveIdentifier(record, platform)
	if username == "" {
		outcome.State = StateSkipped
		span.AddEvent("no identifier resolvable")
		return outcome
	}
	outcome.Username = username
	outcome.State = StateScraping

	if s.runner.Enabled() && s.externalSet[platform] {
		return s.attemptExternal(ctx, record, platform, username, outcome)
	}

	scraper, ok := s.scrapers[platform]
	if !ok {
		outcome.State = StateHardFailure
		outcome.Err = fmt.Errorf("no scraper registered for platform %q", platform)
		return outcome
	}

	err := s.limiter.Wait(ctx, scraper.Host())
	if err != nil {
		outcome.State = StateHardFailure
		outcome.Err = err
		return outcome
	}

	stats, err := scrape.FetchWithRetry(ctx, s.cfg.retryConfig(), scraper, username)
	if err != nil {
		if errors.Is(err, scrape.ErrNoSignal) {
			outcome.State = StateSoftFailure
		} else {
			outcome.State = StateHardFailure
		}
		outcome.Err = err
		span.RecordError(err)
		return outcome
	}

	common := stats.Common()
	common.Username = username
	common.LastUpdated = timezone.Now()

	outcome.State = StateSuccess
	outcome.Stats = stats
	return outcome
}

// attemptExternal runs the external scraper process. On success the
// process has already written the store, so the outcome is flagged
// StoreWritten. A killed process is ambiguous: the store is re-read and
// the platform's lastUpdated decides between late success and failure.
func (s *Service) attemptExternal(ctx context.Context, record *store.StudentRecord, platform store.Platform, username string, outcome PlatformOutcome) PlatformOutcome {
	started := timezone.Now()
	result := s.runner.Run(ctx, platform, record.ID.Hex(), username)

	switch result.Outcome {
	case external.OutcomeSuccess:
		outcome.State = StateSuccess
		outcome.StoreWritten = true
	case external.OutcomeSoftFailure:
		outcome.State = StateSoftFailure
		outcome.Err = result.Err
	case external.OutcomeKilled:
		if s.platformUpdatedSince(ctx, record.ID.Hex(), platform, started) {
			slog.InfoContext(ctx, "external scraper wrote store before being killed",
				"platform", platform, "student", record.RollNo)
			outcome.State = StateSuccess
			outcome.StoreWritten = true
		} else {
			outcome.State = StateHardFailure
			outcome.Err = result.Err
		}
	default:
		outcome.State = StateHardFailure
		outcome.Err = result.Err
	}
	return outcome
}

// platformUpdatedSince re-reads the record and reports whether the
// platform's sub-document was updated after the given instant.
func (s *Service) platformUpdatedSince(ctx context.Context, id string, platform store.Platform, since time.Time) bool {
	record, err := s.store.GetByID(ctx, id)
	if err != nil {
		slog.ErrorContext(ctx, "failed to re-read record after kill", "err", err)
		return false
	}
	stats := record.Platforms.Get(platform)
	if stats == nil {
		return false
	}
	return stats.Common().LastUpdated.After(since)
}

func (s *Service) pushSnapshots(ctx context.Context, record *store.StudentRecord) {
	if s.snapshots == nil {
		return
	}
	err := s.snapshots.Push(ctx, record)
	if err != nil {
		slog.WarnContext(ctx, "failed to push rating snapshots", "err", err)
	}
}
