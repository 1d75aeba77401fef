package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const createRatingSnapshot = `
INSERT INTO rating_snapshot (student_id, platform, time, rating, problems_solved)
VALUES (?, ?, ?, ?, ?)
`

type CreateRatingSnapshotParams struct {
	StudentID      string
	Platform       string
	Time           int64
	Rating         int64
	ProblemsSolved int64
}

func (q *Queries) CreateRatingSnapshot(ctx context.Context, arg CreateRatingSnapshotParams) error {
	_, err := q.db.ExecContext(ctx, createRatingSnapshot,
		arg.StudentID,
		arg.Platform,
		arg.Time,
		arg.Rating,
		arg.ProblemsSolved,
	)
	return err
}

const deleteRatingSnapshotsIn = `
DELETE FROM rating_snapshot
WHERE student_id = ? AND time >= ? AND time < ?
`

type DeleteRatingSnapshotsInParams struct {
	StudentID string
	After     int64
	Before    int64
}

func (q *Queries) DeleteRatingSnapshotsIn(ctx context.Context, arg DeleteRatingSnapshotsInParams) error {
	_, err := q.db.ExecContext(ctx, deleteRatingSnapshotsIn, arg.StudentID, arg.After, arg.Before)
	return err
}

const getRatingSnapshots = `
SELECT platform, time, rating, problems_solved
FROM rating_snapshot
WHERE student_id = ?
ORDER BY platform, time
`

type GetRatingSnapshotsRow struct {
	Platform       string
	Time           int64
	Rating         int64
	ProblemsSolved int64
}

func (q *Queries) GetRatingSnapshots(ctx context.Context, studentID string) ([]GetRatingSnapshotsRow, error) {
	rows, err := q.db.QueryContext(ctx, getRatingSnapshots, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GetRatingSnapshotsRow
	for rows.Next() {
		var row GetRatingSnapshotsRow
		err := rows.Scan(&row.Platform, &row.Time, &row.Rating, &row.ProblemsSolved)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
