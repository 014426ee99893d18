package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/quipvault/quipvault/internal/models"
)

// MemoryStore is an in-memory LocalStore used by tests and by embedding callers
// that have no durable storage. It implements the same consistency contract as
// the sqlite store: every method is atomic under an internal lock.
type MemoryStore struct {
	mu sync.Mutex

	records     map[string]models.ContentRecord
	favorites   map[string]struct{}
	preferences models.PreferenceMap
	usage       models.UsageStatistics

	// FailUpsertIDs lists record identifiers whose upsert fails with an injected
	// error. Tests use it to exercise the merge error budget.
	FailUpsertIDs map[string]struct{}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:       map[string]models.ContentRecord{},
		favorites:     map[string]struct{}{},
		preferences:   models.PreferenceMap{},
		FailUpsertIDs: map[string]struct{}{},
	}
}

// Seed loads the store with the given state, replacing whatever it holds.
func (m *MemoryStore) Seed(records []models.ContentRecord, favoriteIDs []string, prefs models.PreferenceMap) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = map[string]models.ContentRecord{}
	for _, rec := range records {
		m.records[rec.ID] = rec
	}
	m.favorites = map[string]struct{}{}
	for _, id := range favoriteIDs {
		m.favorites[id] = struct{}{}
	}
	m.preferences = prefs.Clone()
}

// SetUsageStats sets the usage counters returned by ReadUsageStats.
func (m *MemoryStore) SetUsageStats(stats models.UsageStatistics) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usage = stats
}

// ReadAllRecords returns every record with its favorite flag set, ordered by
// creation time.
func (m *MemoryStore) ReadAllRecords(ctx context.Context) ([]models.ContentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.ContentRecord, 0, len(m.records))
	for id, rec := range m.records {
		_, fav := m.favorites[id]
		rec.Favorite = fav
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}

// ReadFavoriteIDs returns a copy of the favorite set.
func (m *MemoryStore) ReadFavoriteIDs(ctx context.Context) (map[string]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]struct{}, len(m.favorites))
	for id := range m.favorites {
		out[id] = struct{}{}
	}
	return out, nil
}

// ReadPreferences returns a copy of the preference map.
func (m *MemoryStore) ReadPreferences(ctx context.Context) (models.PreferenceMap, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.preferences.Clone(), nil
}

// ReadUsageStats returns a copy of the usage counters.
func (m *MemoryStore) ReadUsageStats(ctx context.Context) (*models.UsageStatistics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := m.usage
	if m.usage.ByCategory != nil {
		stats.ByCategory = make(map[string]int64, len(m.usage.ByCategory))
		for k, v := range m.usage.ByCategory {
			stats.ByCategory[k] = v
		}
	}
	return &stats, nil
}

// UpsertRecord inserts or overwrites a record, honoring injected failures.
func (m *MemoryStore) UpsertRecord(ctx context.Context, record *models.ContentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, fail := m.FailUpsertIDs[record.ID]; fail {
		return fmt.Errorf("injected upsert failure for record %s", record.ID)
	}

	m.records[record.ID] = *record
	return nil
}

// WriteFavoriteIDs replaces the favorite set.
func (m *MemoryStore) WriteFavoriteIDs(ctx context.Context, ids map[string]struct{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.favorites = make(map[string]struct{}, len(ids))
	for id := range ids {
		m.favorites[id] = struct{}{}
	}
	return nil
}

// WritePreference writes a single preference key.
func (m *MemoryStore) WritePreference(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.preferences == nil {
		m.preferences = models.PreferenceMap{}
	}
	m.preferences[key] = value
	return nil
}

// ReplaceAll atomically replaces records, favorites, and preferences.
func (m *MemoryStore) ReplaceAll(ctx context.Context, records []models.ContentRecord, favoriteIDs map[string]struct{}, prefs models.PreferenceMap) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	newRecords := make(map[string]models.ContentRecord, len(records))
	for _, rec := range records {
		newRecords[rec.ID] = rec
	}
	newFavorites := make(map[string]struct{}, len(favoriteIDs))
	for id := range favoriteIDs {
		newFavorites[id] = struct{}{}
	}

	m.records = newRecords
	m.favorites = newFavorites
	m.preferences = prefs.Clone()
	return nil
}

// ClearAll removes all records, favorites, and preferences.
func (m *MemoryStore) ClearAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = map[string]models.ContentRecord{}
	m.favorites = map[string]struct{}{}
	m.preferences = models.PreferenceMap{}
	return nil
}

// Compile-time interface check.
var _ LocalStore = (*MemoryStore)(nil)
