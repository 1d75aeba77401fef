package snapshots

import (
	"context"
	"database/sql"
	"time"

	"codetrack-backend/lib/timezone"
	"codetrack-backend/services/snapshots/db"
	"codetrack-backend/services/tracker/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/snapshots")

type Service struct {
	db  *sql.DB
	qry *db.Queries
}

func NewService(database *sql.DB) Service {
	return Service{
		db:  database,
		qry: db.New(database),
	}
}

type Snapshot struct {
	Time           time.Time `json:"time"`
	Rating         int       `json:"rating"`
	ProblemsSolved int       `json:"problemsSolved"`
}

type PlatformSeries struct {
	Platform  store.Platform `json:"platform"`
	Snapshots []Snapshot     `json:"snapshots"`
}

// Push records one snapshot per platform from a freshly reconciled
// record. At most one snapshot per student per day is kept; a second
// refresh on the same day replaces that day's rows.
func (s Service) Push(ctx context.Context, record *store.StudentRecord) error {
	ctx, span := tracer.Start(ctx, "Push")
	defer span.End()
	span.SetAttributes(attribute.String("student", record.RollNo))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	now := timezone.Now()
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, timezone.Location).Unix()
	startOfTomorrow := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, timezone.Location).Unix()

	err = txqry.DeleteRatingSnapshotsIn(ctx, db.DeleteRatingSnapshotsInParams{
		StudentID: record.ID.Hex(),
		After:     startOfToday,
		Before:    startOfTomorrow,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	for _, platform := range store.AllPlatforms {
		stats := record.Platforms.Get(platform)
		if stats == nil {
			continue
		}
		common := stats.Common()
		err := txqry.CreateRatingSnapshot(ctx, db.CreateRatingSnapshotParams{
			StudentID:      record.ID.Hex(),
			Platform:       string(platform),
			Time:           now.Unix(),
			Rating:         int64(common.Rating),
			ProblemsSolved: int64(common.ProblemsSolved),
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}

	err = tx.Commit()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// Pull returns the stored time series grouped by platform, sorted by
// time within each platform.
func (s Service) Pull(ctx context.Context, studentID string) ([]PlatformSeries, error) {
	ctx, span := tracer.Start(ctx, "Pull")
	defer span.End()
	span.SetAttributes(attribute.String("student_id", studentID))

	rows, err := s.qry.GetRatingSnapshots(ctx, studentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// rows are sorted by platform, so equal platforms are adjacent
	var series []PlatformSeries
	var last *PlatformSeries
	for _, r := range rows {
		if last == nil || string(last.Platform) != r.Platform {
			series = append(series, PlatformSeries{Platform: store.Platform(r.Platform)})
			last = &series[len(series)-1]
		}
		last.Snapshots = append(last.Snapshots, Snapshot{
			Time:           time.Unix(r.Time, 0).In(timezone.Location),
			Rating:         int(r.Rating),
			ProblemsSolved: int(r.ProblemsSolved),
		})
	}
	return series, nil
}
