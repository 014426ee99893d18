// Package store provides the local persistence layer for QuipVault state:
// content records, favorites, preferences, and usage statistics.
//
// The store is the one shared mutable resource of the interchange subsystem. The
// export and import pipelines borrow it for the duration of a single operation and
// never retain state across operations; the transfer manager serializes operations
// against each other so the pipelines can assume no concurrent writer.
package store

import (
	"context"

	"github.com/quipvault/quipvault/internal/models"
)

// LocalStore is the persistence contract the interchange pipelines depend on.
// Every method is synchronous and consistent for the duration of a single call.
type LocalStore interface {
	// ReadAllRecords returns every stored content record with its favorite flag set.
	ReadAllRecords(ctx context.Context) ([]models.ContentRecord, error)

	// ReadFavoriteIDs returns the set of favorited record identifiers.
	ReadFavoriteIDs(ctx context.Context) (map[string]struct{}, error)

	// ReadPreferences returns the full preference configuration.
	ReadPreferences(ctx context.Context) (models.PreferenceMap, error)

	// ReadUsageStats returns the aggregate usage counters.
	ReadUsageStats(ctx context.Context) (*models.UsageStatistics, error)

	// UpsertRecord inserts the record or overwrites an existing record with the
	// same identifier.
	UpsertRecord(ctx context.Context, record *models.ContentRecord) error

	// WriteFavoriteIDs replaces the favorite set with the given identifiers.
	WriteFavoriteIDs(ctx context.Context, ids map[string]struct{}) error

	// WritePreference writes a single preference key.
	WritePreference(ctx context.Context, key, value string) error

	// ReplaceAll atomically replaces records, favorites, and preferences with the
	// given state. Either all three land or none do; usage statistics are
	// device-local and untouched.
	ReplaceAll(ctx context.Context, records []models.ContentRecord, favoriteIDs map[string]struct{}, prefs models.PreferenceMap) error

	// ClearAll removes all records, favorites, and preferences.
	ClearAll(ctx context.Context) error
}
