package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/quipvault/quipvault/internal/constants"
)

// migration is a single versioned schema step. Steps apply in order; the
// database's PRAGMA user_version records the last applied step so reopening an
// up-to-date store is a no-op.
type migration struct {
	version    int
	name       string
	statements []string
}

// migrations is the ordered schema history of the local store. Append new steps;
// never edit an applied one.
var migrations = []migration{
	{
		version: 1,
		name:    "base schema",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS content_records (
				record_id  TEXT PRIMARY KEY,
				text       TEXT NOT NULL,
				category   TEXT NOT NULL DEFAULT '',
				intensity  INTEGER NOT NULL DEFAULT 1,
				created_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS favorites (
				record_id TEXT PRIMARY KEY
			)`,
			`CREATE TABLE IF NOT EXISTS preferences (
				pref_key   TEXT PRIMARY KEY,
				pref_value TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS usage_stats (
				stat_key   TEXT PRIMARY KEY,
				stat_value INTEGER NOT NULL DEFAULT 0
			)`,
		},
	},
	{
		version: 2,
		name:    "category and creation time indexes",
		statements: []string{
			`CREATE INDEX IF NOT EXISTS idx_content_records_category ON content_records (category)`,
			`CREATE INDEX IF NOT EXISTS idx_content_records_created_at ON content_records (created_at)`,
		},
	},
}

// Migrate brings the store schema up to date, applying each pending step in its
// own transaction.
func Migrate(ctx context.Context, db *Pool) error {
	var current int
	if err := db.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", m.version, err)
		}
		for _, stmt := range m.statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				tx.Rollback()
				return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.name, err)
			}
		}
		// PRAGMA does not support placeholders.
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d`, m.version)); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record schema version %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
		}

		log.Info().
			Str("category", constants.LogCategoryStore).
			Int("version", m.version).
			Str("name", m.name).
			Msg("Applied store migration")
	}

	return nil
}
