package transfer

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quipvault/quipvault/internal/constants"
	"github.com/quipvault/quipvault/internal/models"
	"github.com/quipvault/quipvault/internal/store"
)

// PreviewBuilder computes the non-committing impact summary of applying a parsed
// snapshot against current local state. It reads the store but never writes.
type PreviewBuilder struct {
	store store.LocalStore

	// likelyWindow is the timestamp proximity within which identical content in
	// the same category is flagged as a likely duplicate of a local record.
	likelyWindow time.Duration
}

// NewPreviewBuilder creates a preview builder with the given likely-duplicate
// time window.
func NewPreviewBuilder(st store.LocalStore, likelyWindow time.Duration) *PreviewBuilder {
	return &PreviewBuilder{store: st, likelyWindow: likelyWindow}
}

// Build computes the import preview for a parsed snapshot. Record anomalies
// (out-of-range intensity, missing timestamps, empty text) become warnings, never
// failures; the merge step's error budget decides tolerance at commit time.
func (b *PreviewBuilder) Build(ctx context.Context, snap *models.Snapshot, compatible bool) (*models.ImportPreview, error) {
	localRecords, err := b.store.ReadAllRecords(ctx)
	if err != nil {
		return nil, err
	}
	localFavorites, err := b.store.ReadFavoriteIDs(ctx)
	if err != nil {
		return nil, err
	}
	localPrefs, err := b.store.ReadPreferences(ctx)
	if err != nil {
		return nil, err
	}

	localByID := make(map[string]models.ContentRecord, len(localRecords))
	localByContent := make(map[string][]models.ContentRecord, len(localRecords))
	for _, rec := range localRecords {
		localByID[rec.ID] = rec
		key := rec.ContentKey()
		localByContent[key] = append(localByContent[key], rec)
	}

	preview := &models.ImportPreview{
		Source: models.SnapshotInfo{
			SchemaVersion: snap.SchemaVersion,
			AppVersion:    snap.AppVersion,
			ExportedAt:    snap.ExportedAt,
			DeviceInfo:    snap.DeviceInfo,
		},
		Compatible:        compatible,
		TotalRecords:      len(snap.ContentRecords),
		TotalFavorites:    len(snap.FavoriteIDs),
		Warnings:          []models.ImportWarning{},
		PreferenceChanges: []models.PreferenceChange{},
		Snapshot:          snap,
	}

	seenContent := map[string]struct{}{}
	snapIDs := make(map[string]struct{}, len(snap.ContentRecords))
	for _, rec := range snap.ContentRecords {
		snapIDs[rec.ID] = struct{}{}

		if _, exists := localByID[rec.ID]; exists {
			preview.DuplicateRecords++
		} else {
			preview.NewRecords++
		}

		// Likely duplicates within the snapshot: identical content and category
		// under different identifiers.
		key := rec.ContentKey()
		if _, seen := seenContent[key]; seen {
			preview.LikelyDuplicates++
		}
		seenContent[key] = struct{}{}

		// Likely duplicates against local state: same content key, different
		// identifier, creation times within the window.
		for _, local := range localByContent[key] {
			if local.ID == rec.ID {
				continue
			}
			if withinWindow(rec.CreatedAt, local.CreatedAt, b.likelyWindow) {
				preview.Warnings = append(preview.Warnings, models.ImportWarning{
					Code:     models.WarnLikelyDuplicate,
					RecordID: rec.ID,
					Detail:   fmt.Sprintf("matches local record %s", local.ID),
				})
				break
			}
		}

		if rec.Text == "" {
			preview.Warnings = append(preview.Warnings, models.ImportWarning{
				Code:     models.WarnEmptyText,
				RecordID: rec.ID,
			})
		}
		if !rec.IntensityInRange() {
			preview.Warnings = append(preview.Warnings, models.ImportWarning{
				Code:     models.WarnIntensityOutOfRange,
				RecordID: rec.ID,
				Detail:   fmt.Sprintf("intensity %d", rec.Intensity),
			})
		}
		if rec.CreatedAt.IsZero() {
			preview.Warnings = append(preview.Warnings, models.ImportWarning{
				Code:     models.WarnMissingTimestamp,
				RecordID: rec.ID,
			})
		}
	}

	for _, id := range snap.FavoriteIDs {
		if _, fav := localFavorites[id]; !fav {
			preview.NewFavorites++
		}
		_, inSnapshot := snapIDs[id]
		_, inLocal := localByID[id]
		if !inSnapshot && !inLocal {
			preview.Warnings = append(preview.Warnings, models.ImportWarning{
				Code:     models.WarnUnknownFavorite,
				RecordID: id,
			})
		}
	}

	for key, incoming := range snap.Preferences {
		if current, ok := localPrefs[key]; !ok || current != incoming {
			old := ""
			if ok {
				old = current
			}
			preview.PreferenceChanges = append(preview.PreferenceChanges, models.PreferenceChange{
				Key:      key,
				OldValue: old,
				NewValue: incoming,
			})
		}
	}

	log.Debug().
		Str("category", constants.LogCategoryTransfer).
		Str("event", constants.LogEventPreview).
		Int("total_records", preview.TotalRecords).
		Int("new_records", preview.NewRecords).
		Int("duplicate_records", preview.DuplicateRecords).
		Int("warnings", len(preview.Warnings)).
		Bool("compatible", preview.Compatible).
		Msg("Import preview computed")

	return preview, nil
}

// withinWindow reports whether two timestamps are within d of each other. A zero
// timestamp on either side never matches.
func withinWindow(a, b time.Time, d time.Duration) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= d
}
