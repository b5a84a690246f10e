package eventstore

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/folio/internal/foundation/errors"
	"git.home.luguber.info/inful/folio/internal/retry"
)

const testBuildID = "build-123"

func newStore(t *testing.T, opts ...Option) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAppendAndGetByBuildID(t *testing.T) {
	store := newStore(t)
	ctx := t.Context()

	require.NoError(t, store.Append(ctx, testBuildID, "A", []byte(`{"n":1}`), map[string]string{"key": "value"}))
	require.NoError(t, store.Append(ctx, "other", "A", []byte(`{}`), nil))
	require.NoError(t, store.Append(ctx, testBuildID, "B", nil, nil))

	events, err := store.GetByBuildID(ctx, testBuildID)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "A", events[0].Type())
	assert.JSONEq(t, `{"n":1}`, string(events[0].Payload()))
	assert.Equal(t, map[string]string{"key": "value"}, events[0].Metadata())
	assert.Equal(t, "B", events[1].Type())
	assert.JSONEq(t, `{}`, string(events[1].Payload()))
	assert.Nil(t, events[1].Metadata())
	assert.Less(t, events[0].ID(), events[1].ID())
}

func TestGetRangeUsesStoreClock(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(start)
	store := newStore(t, WithClock(clock))
	ctx := t.Context()

	require.NoError(t, store.Append(ctx, "b1", "A", nil, nil))
	clock.Advance(time.Hour)
	require.NoError(t, store.Append(ctx, "b2", "A", nil, nil))
	clock.Advance(time.Hour)
	require.NoError(t, store.Append(ctx, "b3", "A", nil, nil))

	events, err := store.GetRange(ctx, start.Add(30*time.Minute), start.Add(90*time.Minute))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "b2", events[0].BuildID())
	assert.True(t, events[0].Timestamp().Equal(start.Add(time.Hour)))

	all, err := store.GetRange(ctx, time.Time{}, start.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestPersistentStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(t.Context(), testBuildID, "A", nil, nil))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	events, err := reopened.GetByBuildID(t.Context(), testBuildID)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestClosedStoreErrorsAreClassified(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	err = store.Append(t.Context(), testBuildID, "A", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEventAppendFailed)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryEventStore))

	_, err = store.GetByBuildID(t.Context(), testBuildID)
	assert.ErrorIs(t, err, ErrEventQueryFailed)
}

func TestRetryPolicy(t *testing.T) {
	p := retry.NewPolicy(retry.Fixed, 5*time.Millisecond, 10*time.Millisecond, 7)
	store, err := NewSQLiteStore(":memory:", WithRetry(p))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	assert.Equal(t, p, store.retry)

	require.NoError(t, store.Append(t.Context(), testBuildID, "A", nil, nil))
	assert.False(t, isBusy(errors.New("database is locked")), "only driver errors carry a result code")
	assert.False(t, isBusy(nil))
}

func TestRecordSkipsNilStore(t *testing.T) {
	e, err := NewBuildStarted(testBuildID, "content", []string{"note"}, 4)
	require.NoError(t, err)
	assert.NoError(t, Record(t.Context(), nil, e))

	store := newStore(t)
	require.NoError(t, Record(t.Context(), store, e))
	events, err := store.GetByBuildID(t.Context(), testBuildID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, TypeBuildStarted, events[0].Type())
}
