package transfer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quipvault/quipvault/internal/config"
	"github.com/quipvault/quipvault/internal/constants"
	"github.com/quipvault/quipvault/internal/models"
	"github.com/quipvault/quipvault/internal/snapshot"
	"github.com/quipvault/quipvault/internal/store"
	"github.com/quipvault/quipvault/internal/utils"
)

func testConfig(t *testing.T) *config.AppConfig {
	t.Helper()

	cfg := config.Default()
	cfg.Transfer.ExportDir = t.TempDir()
	return cfg
}

// seedStore builds a memory store with n records, the first favs of them favorited.
func seedStore(t *testing.T, n, favs int) *store.MemoryStore {
	t.Helper()

	records := make([]models.ContentRecord, 0, n)
	favoriteIDs := make([]string, 0, favs)
	base := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("rec-%03d", i)
		records = append(records, models.ContentRecord{
			ID:        id,
			Text:      fmt.Sprintf("quip number %d", i),
			Category:  "pun",
			Intensity: 1 + i%5,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if i < favs {
			favoriteIDs = append(favoriteIDs, id)
		}
	}

	st := store.NewMemoryStore()
	st.Seed(records, favoriteIDs, models.PreferenceMap{
		"display.theme":          "dark",
		"humor.intensity":        "3",
		"generator.endpoint.url": "https://api.example.com/v1",
		"generator.api_key":      "sk-secret",
	})
	return st
}

// drain consumes a progress channel to completion and returns every update.
func drain(t *testing.T, ch <-chan models.OperationProgress) []models.OperationProgress {
	t.Helper()

	var updates []models.OperationProgress
	timeout := time.After(10 * time.Second)
	for {
		select {
		case p, ok := <-ch:
			if !ok {
				require.NotEmpty(t, updates, "channel closed without any update")
				return updates
			}
			updates = append(updates, p)
		case <-timeout:
			t.Fatal("timed out waiting for progress channel to close")
		}
	}
}

func newTestManager(t *testing.T, st store.LocalStore, cfg *config.AppConfig) *Manager {
	t.Helper()

	m, err := NewManager(cfg, st)
	require.NoError(t, err)
	return m
}

func TestExport_FullPipeline(t *testing.T) {
	cfg := testConfig(t)
	m := newTestManager(t, seedStore(t, 42, 5), cfg)

	ch, err := m.StartExport(context.Background(), models.ExportOptions{})
	require.NoError(t, err)
	updates := drain(t, ch)

	last := updates[len(updates)-1]
	require.Equal(t, models.PhaseCompleted, last.Phase)
	require.NotNil(t, last.ExportResult)

	result := last.ExportResult
	assert.Equal(t, 42, result.RecordCount)
	assert.Equal(t, 5, result.FavoriteCount)
	assert.False(t, result.Encrypted)
	assert.NotEmpty(t, result.Checksum)
	assert.Positive(t, result.SizeBytes)

	// The file exists under the configured directory with the expected name shape.
	assert.Equal(t, cfg.Transfer.ExportDir, filepath.Dir(result.FilePath))
	base := filepath.Base(result.FilePath)
	assert.True(t, strings.HasPrefix(base, constants.SnapshotFilePrefix))
	assert.True(t, strings.HasSuffix(base, constants.SnapshotFileExtension))

	// The written file round-trips through the codec.
	data, err := os.ReadFile(result.FilePath)
	require.NoError(t, err)
	assert.Equal(t, result.SizeBytes, int64(len(data)))

	parsed, err := snapshot.Unmarshal(data)
	require.NoError(t, err)
	assert.Len(t, parsed.ContentRecords, 42)
	assert.Len(t, parsed.FavoriteIDs, 5)
	assert.Equal(t, result.Checksum, parsed.Checksum)

	// Fractions never decrease and the operation is labeled throughout.
	prev := 0.0
	for _, p := range updates {
		assert.Equal(t, constants.OperationExport, p.Operation)
		assert.GreaterOrEqual(t, p.Fraction, prev)
		prev = p.Fraction
	}
	assert.Equal(t, 1.0, last.Fraction)
}

func TestExport_StripsCredentialKeysByDefault(t *testing.T) {
	m := newTestManager(t, seedStore(t, 3, 0), testConfig(t))

	ch, err := m.StartExport(context.Background(), models.ExportOptions{})
	require.NoError(t, err)
	updates := drain(t, ch)

	snap := updates[len(updates)-1].ExportResult.Snapshot
	assert.Contains(t, snap.Preferences, "display.theme")
	assert.Contains(t, snap.Preferences, "humor.intensity")
	assert.NotContains(t, snap.Preferences, "generator.endpoint.url")
	assert.NotContains(t, snap.Preferences, "generator.api_key")
}

func TestExport_IncludeCredentials(t *testing.T) {
	m := newTestManager(t, seedStore(t, 3, 0), testConfig(t))

	ch, err := m.StartExport(context.Background(), models.ExportOptions{IncludeCredentials: true})
	require.NoError(t, err)
	updates := drain(t, ch)

	snap := updates[len(updates)-1].ExportResult.Snapshot
	assert.Equal(t, "sk-secret", snap.Preferences["generator.api_key"])
}

func TestExport_Anonymize(t *testing.T) {
	st := store.NewMemoryStore()
	st.Seed([]models.ContentRecord{
		{ID: "r1", Text: "Ask dave@example.com about @funnyguy", Category: "pun", Intensity: 2, CreatedAt: time.Now()},
		{ID: "r2", Text: "No identifiers here", Category: "pun", Intensity: 2, CreatedAt: time.Now()},
	}, nil, nil)
	m := newTestManager(t, st, testConfig(t))

	ch, err := m.StartExport(context.Background(), models.ExportOptions{Anonymize: true})
	require.NoError(t, err)
	updates := drain(t, ch)

	snap := updates[len(updates)-1].ExportResult.Snapshot
	require.Len(t, snap.ContentRecords, 2)
	assert.Equal(t, "Ask [redacted] about [redacted]", snap.ContentRecords[0].Text)
	assert.Equal(t, "No identifiers here", snap.ContentRecords[1].Text)
}

func TestExport_OptionalMetadata(t *testing.T) {
	st := seedStore(t, 2, 0)
	st.SetUsageStats(models.UsageStatistics{TotalGenerated: 99, ByCategory: map[string]int64{"pun": 99}})
	m := newTestManager(t, st, testConfig(t))

	ch, err := m.StartExport(context.Background(), models.ExportOptions{
		IncludeDeviceInfo: true,
		IncludeUsageStats: true,
	})
	require.NoError(t, err)
	updates := drain(t, ch)

	snap := updates[len(updates)-1].ExportResult.Snapshot
	require.NotNil(t, snap.DeviceInfo)
	assert.NotEmpty(t, snap.DeviceInfo.Platform)
	require.NotNil(t, snap.UsageStats)
	assert.Equal(t, int64(99), snap.UsageStats.TotalGenerated)
}

func TestExport_MetadataExcludedByDefault(t *testing.T) {
	m := newTestManager(t, seedStore(t, 2, 0), testConfig(t))

	ch, err := m.StartExport(context.Background(), models.ExportOptions{})
	require.NoError(t, err)
	updates := drain(t, ch)

	snap := updates[len(updates)-1].ExportResult.Snapshot
	assert.Nil(t, snap.DeviceInfo)
	assert.Nil(t, snap.UsageStats)
}

func TestExport_Encrypted(t *testing.T) {
	m := newTestManager(t, seedStore(t, 5, 2), testConfig(t))

	ch, err := m.StartExport(context.Background(), models.ExportOptions{EncryptionPassword: "tell-no-one"})
	require.NoError(t, err)
	updates := drain(t, ch)

	last := updates[len(updates)-1]
	require.Equal(t, models.PhaseCompleted, last.Phase)
	assert.True(t, last.ExportResult.Encrypted)

	data, err := os.ReadFile(last.ExportResult.FilePath)
	require.NoError(t, err)
	require.True(t, utils.IsEncryptedSnapshot(data))

	parser := NewImportParser()
	snap, compatible, err := parser.Parse(data, "tell-no-one")
	require.NoError(t, err)
	assert.True(t, compatible)
	assert.Len(t, snap.ContentRecords, 5)

	_, _, err = parser.Parse(data, "wrong password")
	require.Error(t, err)
	assert.True(t, utils.IsCorruptedDataError(err))
}

func TestExport_InsufficientStorage(t *testing.T) {
	cfg := testConfig(t)
	m := newTestManager(t, seedStore(t, 10, 0), cfg)

	prev := availableSpace
	availableSpace = func(dir string) (int64, error) { return 16, nil }
	defer func() { availableSpace = prev }()

	ch, err := m.StartExport(context.Background(), models.ExportOptions{})
	require.NoError(t, err)
	updates := drain(t, ch)

	last := updates[len(updates)-1]
	require.Equal(t, models.PhaseFailed, last.Phase)
	require.True(t, utils.IsInsufficientStorageError(last.Err))

	te := utils.AsTransferError(last.Err)
	assert.Equal(t, int64(16), te.AvailableBytes)
	assert.Greater(t, te.RequiredBytes, te.AvailableBytes)

	// No partial file survives the failure.
	entries, err := os.ReadDir(cfg.Transfer.ExportDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExport_CancelledBeforeStart(t *testing.T) {
	cfg := testConfig(t)
	m := newTestManager(t, seedStore(t, 10, 0), cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ch, err := m.StartExport(ctx, models.ExportOptions{})
	require.NoError(t, err)
	updates := drain(t, ch)

	last := updates[len(updates)-1]
	require.Equal(t, models.PhaseFailed, last.Phase)
	assert.True(t, utils.IsCancelledError(last.Err))

	entries, err := os.ReadDir(cfg.Transfer.ExportDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	require.NoError(t, writeAtomically(path, []byte("hello")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSpanFraction(t *testing.T) {
	assert.InDelta(t, 0.15, spanFraction(0.15, 0.5, 0, 10), 1e-9)
	assert.InDelta(t, 0.325, spanFraction(0.15, 0.5, 5, 10), 1e-9)
	assert.InDelta(t, 0.5, spanFraction(0.15, 0.5, 10, 10), 1e-9)
	assert.InDelta(t, 0.5, spanFraction(0.15, 0.5, 0, 0), 1e-9)
}
