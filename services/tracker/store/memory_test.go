package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mazen160/go-random"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundtrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	roll, err := random.String(8)
	require.NoError(t, err)

	record := &StudentRecord{RollNo: roll, IsActive: true}
	require.NoError(t, store.Save(ctx, record))
	require.False(t, record.ID.IsZero())

	got, err := store.GetByID(ctx, record.ID.Hex())
	require.NoError(t, err)
	require.Equal(t, roll, got.RollNo)

	// roll lookup ignores casing
	got, err = store.GetByRoll(ctx, strings.ToUpper(roll))
	require.NoError(t, err)
	require.Equal(t, record.ID, got.ID)

	_, err = store.GetByID(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreIsolation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	record := &StudentRecord{RollNo: "21CS001", IsActive: true}
	record.PlatformUsernames = map[Platform]string{PlatformLeetcode: "alice"}
	require.NoError(t, store.Save(ctx, record))

	// mutating the caller's copy must not affect the stored record
	record.PlatformUsernames[PlatformLeetcode] = "mallory"

	got, err := store.GetByID(ctx, record.ID.Hex())
	require.NoError(t, err)
	require.Equal(t, "alice", got.PlatformUsernames[PlatformLeetcode])
}

func TestMemoryStoreStaleAndDeactivate(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	fresh := &StudentRecord{RollNo: "A", IsActive: true, LastScrapedAt: time.Now()}
	stale := &StudentRecord{RollNo: "B", IsActive: true, LastScrapedAt: time.Now().Add(-time.Hour * 2)}
	inactive := &StudentRecord{RollNo: "C", IsActive: false}
	require.NoError(t, store.Save(ctx, fresh))
	require.NoError(t, store.Save(ctx, stale))
	require.NoError(t, store.Save(ctx, inactive))

	records, err := store.ListStale(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "B", records[0].RollNo)

	require.NoError(t, store.Deactivate(ctx, stale.ID.Hex()))
	records, err = store.ListStale(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, records, 0)

	// a soft-deleted record disappears from lookups too
	_, err = store.GetByID(ctx, stale.ID.Hex())
	require.ErrorIs(t, err, ErrNotFound)
	_, err = store.GetByRoll(ctx, "B")
	require.ErrorIs(t, err, ErrNotFound)
}
