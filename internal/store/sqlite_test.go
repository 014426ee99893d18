package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quipvault/quipvault/internal/models"
)

func newMockStore(t *testing.T) (*SQLiteStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewSQLiteStore(&Pool{DB: db}), mock
}

func TestSQLiteStore_ReadAllRecords(t *testing.T) {
	st, mock := newMockStore(t)

	created := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"record_id", "text", "category", "intensity", "created_at", "favorite"}).
		AddRow("rec-1", "first quip", "pun", 2, formatStoredTime(created), true).
		AddRow("rec-2", "second quip", "one_liner", 3, "garbage-timestamp", false)

	mock.ExpectQuery("SELECT r.record_id, r.text").WillReturnRows(rows)

	records, err := st.ReadAllRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "rec-1", records[0].ID)
	assert.True(t, records[0].Favorite)
	assert.True(t, records[0].CreatedAt.Equal(created))

	// Unparseable stored timestamps surface as the zero time, not an error.
	assert.True(t, records[1].CreatedAt.IsZero())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_ReadAllRecords_QueryError(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery("SELECT r.record_id, r.text").WillReturnError(errors.New("disk I/O error"))

	_, err := st.ReadAllRecords(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read content records")
}

func TestSQLiteStore_ReadFavoriteIDs(t *testing.T) {
	st, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"record_id"}).AddRow("rec-1").AddRow("rec-3")
	mock.ExpectQuery("SELECT record_id FROM favorites").WillReturnRows(rows)

	ids, err := st.ReadFavoriteIDs(context.Background())
	require.NoError(t, err)
	assert.Len(t, ids, 2)
	assert.Contains(t, ids, "rec-1")
	assert.Contains(t, ids, "rec-3")
}

func TestSQLiteStore_ReadUsageStats(t *testing.T) {
	st, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"stat_key", "stat_value"}).
		AddRow("total_generated", 120).
		AddRow("total_viewed", 450).
		AddRow("total_shared", 12).
		AddRow("category:pun", 80).
		AddRow("category:one_liner", 40)
	mock.ExpectQuery("SELECT stat_key, stat_value FROM usage_stats").WillReturnRows(rows)

	stats, err := st.ReadUsageStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(120), stats.TotalGenerated)
	assert.Equal(t, int64(450), stats.TotalViewed)
	assert.Equal(t, int64(12), stats.TotalShared)
	assert.Equal(t, int64(80), stats.ByCategory["pun"])
	assert.Equal(t, int64(40), stats.ByCategory["one_liner"])
}

func TestSQLiteStore_UpsertRecord(t *testing.T) {
	st, mock := newMockStore(t)

	rec := &models.ContentRecord{ID: "rec-1", Text: "quip", Category: "pun", Intensity: 2, CreatedAt: time.Now()}

	mock.ExpectExec("INSERT INTO content_records").
		WithArgs(rec.ID, rec.Text, rec.Category, rec.Intensity, formatStoredTime(rec.CreatedAt)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, st.UpsertRecord(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_WriteFavoriteIDs_Transactional(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM favorites").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO favorites").WithArgs("rec-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := st.WriteFavoriteIDs(context.Background(), map[string]struct{}{"rec-1": {}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_ReplaceAll_RollsBackOnFailure(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM content_records").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM favorites").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM preferences").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO content_records").WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	err := st.ReplaceAll(context.Background(),
		[]models.ContentRecord{{ID: "rec-1", Text: "quip", CreatedAt: time.Now()}},
		nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rec-1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_ClearAll(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM content_records").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM favorites").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM preferences").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	// Usage statistics are deliberately not cleared.
	require.NoError(t, st.ClearAll(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_AppliesPendingSteps(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("PRAGMA user_version").
		WillReturnRows(sqlmock.NewRows([]string{"user_version"}).AddRow(0))
	for _, m := range migrations {
		mock.ExpectBegin()
		for range m.statements {
			mock.ExpectExec(".*").WillReturnResult(sqlmock.NewResult(0, 0))
		}
		mock.ExpectExec("PRAGMA user_version").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()
	}

	require.NoError(t, Migrate(context.Background(), &Pool{DB: db}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_UpToDateIsNoOp(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	latest := migrations[len(migrations)-1].version
	mock.ExpectQuery("PRAGMA user_version").
		WillReturnRows(sqlmock.NewRows([]string{"user_version"}).AddRow(latest))

	require.NoError(t, Migrate(context.Background(), &Pool{DB: db}))
	assert.NoError(t, mock.ExpectationsWereMet())
}
