package analytics

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func setupTracker(t *testing.T) (*Tracker, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewTracker(db, quietLogger()), mock
}

func TestTrack_InsertsEvent(t *testing.T) {
	tracker, mock := setupTracker(t)

	mock.ExpectExec(`INSERT INTO analytics_events`).
		WithArgs(sqlmock.AnyArg(), EventContractPublished, "CTOKEN", "GABC", "testnet", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tracker.Track(context.Background(), EventContractPublished, "CTOKEN", "GABC", "testnet",
		map[string]string{"version": "v1.0.0"})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrack_SwallowsErrors(t *testing.T) {
	tracker, mock := setupTracker(t)

	mock.ExpectExec(`INSERT INTO analytics_events`).
		WillReturnError(errors.New("db down"))

	// Must not panic or propagate.
	tracker.Track(context.Background(), EventPublishRejected, "CTOKEN", "", "", nil)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrack_NilDBIsNoop(t *testing.T) {
	tracker := NewTracker(nil, quietLogger())
	tracker.Track(context.Background(), EventGraphQueried, "", "", "", nil)

	page, err := tracker.ActivityFeed(context.Background(), FeedParams{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Entries)
}

func TestActivityFeed_FirstPage(t *testing.T) {
	tracker, mock := setupTracker(t)

	now := time.Now().UTC()
	older := now.Add(-time.Minute)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM analytics_events`).
		WithArgs(nil).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectQuery(`SELECT id, event_type, .+ FROM analytics_events`).
		WithArgs(nil, 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_type", "contract_id", "user_address", "network", "metadata", "created_at"}).
			AddRow("e2", EventContractPublished, "CTOKEN", "GABC", "testnet", []byte(`{"version":"v2"}`), now).
			AddRow("e1", EventContractPublished, "CTOKEN", "GABC", "testnet", nil, older))

	page, err := tracker.ActivityFeed(context.Background(), FeedParams{Limit: 2})
	require.NoError(t, err)

	assert.EqualValues(t, 5, page.Total)
	require.Len(t, page.Entries, 2)
	assert.Equal(t, "e2", page.Entries[0].ID, "newest first")
	require.NotNil(t, page.NextCursor)
	assert.True(t, page.NextCursor.Equal(older), "cursor is the oldest entry on the page")
}

func TestActivityFeed_CursorAndTypeFilter(t *testing.T) {
	tracker, mock := setupTracker(t)

	cursor := time.Now().UTC().Add(-time.Hour)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM analytics_events`).
		WithArgs(cursor, EventPublishRejected).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT id, event_type, .+ FROM analytics_events`).
		WithArgs(cursor, EventPublishRejected, 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_type", "contract_id", "user_address", "network", "metadata", "created_at"}))

	page, err := tracker.ActivityFeed(context.Background(), FeedParams{
		Cursor:    cursor,
		EventType: EventPublishRejected,
	})
	require.NoError(t, err)
	assert.Empty(t, page.Entries)
	assert.Nil(t, page.NextCursor)
}

func TestActivityFeed_LimitClamped(t *testing.T) {
	tracker, mock := setupTracker(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM analytics_events`).
		WithArgs(nil).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT id, event_type, .+ FROM analytics_events`).
		WithArgs(nil, maxFeedLimit).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_type", "contract_id", "user_address", "network", "metadata", "created_at"}))

	page, err := tracker.ActivityFeed(context.Background(), FeedParams{Limit: 10000})
	require.NoError(t, err)
	assert.Equal(t, maxFeedLimit, page.Limit)
}

func TestDeleteOlderThan(t *testing.T) {
	tracker, mock := setupTracker(t)

	cutoff := time.Now().UTC().AddDate(0, 0, -90)
	mock.ExpectExec(`DELETE FROM analytics_events WHERE created_at <`).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 42))

	n, err := tracker.DeleteOlderThan(context.Background(), cutoff)
	require.NoError(t, err)
	assert.EqualValues(t, 42, n)
}
