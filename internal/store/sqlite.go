package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite" // CGo-free sqlite driver

	"github.com/quipvault/quipvault/internal/config"
	"github.com/quipvault/quipvault/internal/constants"
	"github.com/quipvault/quipvault/internal/models"
)

// Pool represents the local store connection pool
type Pool struct {
	*sql.DB
}

// Usage counter keys as persisted in the usage_stats table. Per-category counters
// use the category prefix followed by the category tag.
const (
	statTotalGenerated = "total_generated"
	statTotalViewed    = "total_viewed"
	statTotalShared    = "total_shared"
	statCategoryPrefix = "category:"
)

// Connect opens the local sqlite store, creating the database file and applying
// any pending schema migrations, and returns a connection pool.
func Connect(cfg *config.AppConfig) (*Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if dir := filepath.Dir(cfg.Store.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)",
		cfg.Store.Path, cfg.Store.BusyTimeoutMs)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	db.SetMaxOpenConns(cfg.Store.MaxConns)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping store: %w", err)
	}

	pool := &Pool{DB: db}
	if err := Migrate(ctx, pool); err != nil {
		db.Close()
		return nil, err
	}

	log.Info().
		Str("path", cfg.Store.Path).
		Str("category", constants.LogCategoryStore).
		Msg("Local store opened")

	return pool, nil
}

// SQLiteStore is the sqlite implementation of LocalStore.
type SQLiteStore struct {
	db *Pool
}

// NewSQLiteStore creates a LocalStore backed by the given pool.
func NewSQLiteStore(db *Pool) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// ReadAllRecords returns every stored content record, favorite flags included,
// ordered by creation time.
func (s *SQLiteStore) ReadAllRecords(ctx context.Context) ([]models.ContentRecord, error) {
	query := `
        SELECT r.record_id, r.text, r.category, r.intensity, r.created_at,
               f.record_id IS NOT NULL AS favorite
        FROM content_records r
        LEFT JOIN favorites f ON f.record_id = r.record_id
        ORDER BY r.created_at, r.record_id
    `

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read content records: %w", err)
	}
	defer rows.Close()

	records := []models.ContentRecord{}
	for rows.Next() {
		var rec models.ContentRecord
		var createdAt string
		if err := rows.Scan(&rec.ID, &rec.Text, &rec.Category, &rec.Intensity, &createdAt, &rec.Favorite); err != nil {
			return nil, fmt.Errorf("failed to scan content record: %w", err)
		}
		rec.CreatedAt = parseStoredTime(createdAt)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read content records: %w", err)
	}

	return records, nil
}

// ReadFavoriteIDs returns the favorited record identifiers as a set.
func (s *SQLiteStore) ReadFavoriteIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT record_id FROM favorites`)
	if err != nil {
		return nil, fmt.Errorf("failed to read favorites: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read favorites: %w", err)
	}

	return ids, nil
}

// ReadPreferences returns the full preference configuration.
func (s *SQLiteStore) ReadPreferences(ctx context.Context) (models.PreferenceMap, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT pref_key, pref_value FROM preferences`)
	if err != nil {
		return nil, fmt.Errorf("failed to read preferences: %w", err)
	}
	defer rows.Close()

	prefs := models.PreferenceMap{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan preference: %w", err)
		}
		prefs[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read preferences: %w", err)
	}

	return prefs, nil
}

// ReadUsageStats assembles the aggregate usage counters from the usage_stats table.
func (s *SQLiteStore) ReadUsageStats(ctx context.Context) (*models.UsageStatistics, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT stat_key, stat_value FROM usage_stats`)
	if err != nil {
		return nil, fmt.Errorf("failed to read usage stats: %w", err)
	}
	defer rows.Close()

	stats := &models.UsageStatistics{ByCategory: map[string]int64{}}
	for rows.Next() {
		var key string
		var value int64
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan usage stat: %w", err)
		}
		switch key {
		case statTotalGenerated:
			stats.TotalGenerated = value
		case statTotalViewed:
			stats.TotalViewed = value
		case statTotalShared:
			stats.TotalShared = value
		default:
			if len(key) > len(statCategoryPrefix) && key[:len(statCategoryPrefix)] == statCategoryPrefix {
				stats.ByCategory[key[len(statCategoryPrefix):]] = value
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read usage stats: %w", err)
	}

	return stats, nil
}

// UpsertRecord inserts the record or overwrites an existing one with the same
// identifier. The favorite flag is managed through WriteFavoriteIDs, not here.
func (s *SQLiteStore) UpsertRecord(ctx context.Context, record *models.ContentRecord) error {
	query := `
        INSERT INTO content_records (record_id, text, category, intensity, created_at)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(record_id) DO UPDATE SET
            text = excluded.text,
            category = excluded.category,
            intensity = excluded.intensity,
            created_at = excluded.created_at
    `

	_, err := s.db.ExecContext(ctx, query,
		record.ID, record.Text, record.Category, record.Intensity, formatStoredTime(record.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert content record: %w", err)
	}

	return nil
}

// WriteFavoriteIDs replaces the favorite set with the given identifiers, in a
// single transaction.
func (s *SQLiteStore) WriteFavoriteIDs(ctx context.Context, ids map[string]struct{}) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM favorites`); err != nil {
		return fmt.Errorf("failed to clear favorites: %w", err)
	}
	for id := range ids {
		if _, err := tx.ExecContext(ctx, `INSERT INTO favorites (record_id) VALUES (?)`, id); err != nil {
			return fmt.Errorf("failed to write favorite: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit favorites: %w", err)
	}
	return nil
}

// WritePreference writes a single preference key, overwriting any existing value.
func (s *SQLiteStore) WritePreference(ctx context.Context, key, value string) error {
	query := `
        INSERT INTO preferences (pref_key, pref_value) VALUES (?, ?)
        ON CONFLICT(pref_key) DO UPDATE SET pref_value = excluded.pref_value
    `

	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to write preference: %w", err)
	}
	return nil
}

// ReplaceAll atomically replaces records, favorites, and preferences. The whole
// replacement runs in one transaction so no partial replace is ever visible.
func (s *SQLiteStore) ReplaceAll(ctx context.Context, records []models.ContentRecord, favoriteIDs map[string]struct{}, prefs models.PreferenceMap) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"content_records", "favorites", "preferences"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, rec := range records {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO content_records (record_id, text, category, intensity, created_at) VALUES (?, ?, ?, ?, ?)`,
			rec.ID, rec.Text, rec.Category, rec.Intensity, formatStoredTime(rec.CreatedAt)); err != nil {
			return fmt.Errorf("failed to write content record %s: %w", rec.ID, err)
		}
	}
	for id := range favoriteIDs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO favorites (record_id) VALUES (?)`, id); err != nil {
			return fmt.Errorf("failed to write favorite: %w", err)
		}
	}
	for key, value := range prefs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO preferences (pref_key, pref_value) VALUES (?, ?)`, key, value); err != nil {
			return fmt.Errorf("failed to write preference %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit replace: %w", err)
	}

	log.Info().
		Int("records", len(records)).
		Int("favorites", len(favoriteIDs)).
		Int("preferences", len(prefs)).
		Str("category", constants.LogCategoryStore).
		Msg("Local state replaced")

	return nil
}

// ClearAll removes all records, favorites, and preferences. Usage statistics are
// device-local and kept.
func (s *SQLiteStore) ClearAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"content_records", "favorites", "preferences"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit clear: %w", err)
	}
	return nil
}

// formatStoredTime renders a timestamp for storage. Zero times store as the RFC3339
// zero value and round-trip back to zero.
func formatStoredTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseStoredTime parses a stored timestamp, tolerating values written by older
// builds; unparseable values come back as the zero time.
func parseStoredTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Compile-time interface check.
var _ LocalStore = (*SQLiteStore)(nil)
