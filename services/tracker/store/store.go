package store

import (
	"context"
	"fmt"
	"time"
)

var ErrNotFound = fmt.Errorf("student record not found")

// Store is the persistence contract the refresh pipeline needs: fetch
// by id, fetch by roll number (case-insensitive), whole-document save,
// and a staleness query for the background sweep. Nothing in the
// pipeline assumes more than that about the underlying database.
type Store interface {
	// Lookups only see active records; a soft-deleted student is
	// ErrNotFound everywhere.
	GetByID(ctx context.Context, id string) (*StudentRecord, error)
	GetByRoll(ctx context.Context, roll string) (*StudentRecord, error)
	// ListStale returns active records whose lastScrapedAt is before
	// the cutoff.
	ListStale(ctx context.Context, cutoff time.Time) ([]*StudentRecord, error)
	Save(ctx context.Context, record *StudentRecord) error
	// Deactivate soft-deletes a record. The pipeline never hard-deletes.
	Deactivate(ctx context.Context, id string) error
}
