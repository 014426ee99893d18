package transfer

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quipvault/quipvault/internal/constants"
	"github.com/quipvault/quipvault/internal/models"
	"github.com/quipvault/quipvault/internal/store"
	"github.com/quipvault/quipvault/internal/utils"
)

// Import phase fractions.
const (
	importFracPreparing   = 0.05
	importFracValidating  = 0.10
	importFracRecordsFrom = 0.15
	importFracRecordsTo   = 0.60
	importFracFavorites   = 0.70
	importFracPreferences = 0.80
	importFracSaving      = 0.90
)

// MergeEngine commits a parsed snapshot into local state using the requested
// reconciliation strategy. Replace is atomic; merge applies record by record
// under an error budget and is not rolled back when the budget is exceeded.
type MergeEngine struct {
	store store.LocalStore
}

// NewMergeEngine creates a merge engine over the given store.
func NewMergeEngine(st store.LocalStore) *MergeEngine {
	return &MergeEngine{store: st}
}

// Run applies the snapshot with the given options. Usage statistics in the
// snapshot are never written; the local counters always describe local activity.
func (e *MergeEngine) Run(ctx context.Context, snap *models.Snapshot, opts models.ImportOptions, sink *progressSink) (*models.ImportResult, error) {
	started := time.Now()

	sink.phase(ctx, models.PhasePreparing, importFracPreparing, "preparing import")
	if err := utils.ValidateStruct(&opts); err != nil {
		return nil, utils.AsTransferError(err).WithContext(constants.OperationImport, string(models.PhasePreparing), 0, 0)
	}
	if err := cancelled(ctx, constants.OperationImport, models.PhasePreparing); err != nil {
		return nil, err
	}

	var (
		result *models.ImportResult
		err    error
	)
	switch opts.Strategy {
	case models.StrategyReplace:
		result, err = e.replace(ctx, snap, sink)
	default:
		result, err = e.merge(ctx, snap, opts, sink)
	}
	if err != nil {
		return nil, err
	}

	result.Strategy = opts.Strategy
	result.Duration = time.Since(started)

	log.Info().
		Str("category", constants.LogCategoryTransfer).
		Str("event", constants.LogEventImport).
		Str("strategy", string(opts.Strategy)).
		Int("imported", result.RecordsImported).
		Int("skipped", result.RecordsSkipped).
		Int("failed", result.RecordsFailed).
		Int("favorites_added", result.FavoritesAdded).
		Int("preferences_updated", result.PreferencesUpdated).
		Dur("duration", result.Duration).
		Msg("Import completed")

	return result, nil
}

// replace writes the snapshot verbatim over local state in a single atomic
// operation. Any invalid record aborts the whole replace; nothing is applied.
func (e *MergeEngine) replace(ctx context.Context, snap *models.Snapshot, sink *progressSink) (*models.ImportResult, error) {
	sink.phase(ctx, models.PhaseValidating, importFracValidating, "validating snapshot records")

	now := time.Now().UTC()
	records := make([]models.ContentRecord, 0, len(snap.ContentRecords))
	total := len(snap.ContentRecords)
	for i, rec := range snap.ContentRecords {
		if err := cancelled(ctx, constants.OperationImport, models.PhaseProcessingRecords); err != nil {
			return nil, err
		}
		normalized, recErr := normalizeRecord(rec, now)
		if recErr != nil {
			return nil, utils.NewCorruptedDataError(
				fmt.Sprintf("record %s is not importable: %s", rec.ID, recErr), nil).
				WithContext(constants.OperationImport, string(models.PhaseProcessingRecords), i, total)
		}
		records = append(records, normalized)
		sink.items(ctx, models.PhaseProcessingRecords, spanFraction(importFracRecordsFrom, importFracRecordsTo, i+1, total),
			i+1, total, "processing records")
	}

	sink.phase(ctx, models.PhaseProcessingFavorites, importFracFavorites, "processing favorites")
	favorites := snap.FavoriteSet()

	sink.phase(ctx, models.PhaseProcessingPreferences, importFracPreferences, "processing preferences")
	prefs := snap.Preferences.Clone()

	// Saving: a single transaction; cancellation from here on rolls back rather
	// than leaving mixed state.
	sink.phase(ctx, models.PhaseSaving, importFracSaving, "replacing local state")
	if err := e.store.ReplaceAll(ctx, records, favorites, prefs); err != nil {
		if ctx.Err() != nil {
			return nil, utils.NewOperationCancelledError(constants.OperationImport, string(models.PhaseSaving))
		}
		return nil, utils.AsTransferError(err).WithContext(constants.OperationImport, string(models.PhaseSaving), 0, total)
	}

	return &models.ImportResult{
		RecordsImported:    len(records),
		FavoritesAdded:     len(favorites),
		PreferencesUpdated: len(prefs),
		Warnings:           []models.ImportWarning{},
	}, nil
}

// merge reconciles the snapshot into existing state record by record. Per-record
// failures count against the error budget when partial import is allowed;
// otherwise the first failure aborts. Records already committed stay committed on
// the abort path and are carried in the terminal error.
func (e *MergeEngine) merge(ctx context.Context, snap *models.Snapshot, opts models.ImportOptions, sink *progressSink) (*models.ImportResult, error) {
	sink.phase(ctx, models.PhaseValidating, importFracValidating, "reading local state")
	localFavorites, err := e.store.ReadFavoriteIDs(ctx)
	if err != nil {
		return nil, utils.AsTransferError(err).WithContext(constants.OperationImport, string(models.PhaseValidating), 0, 0)
	}
	localRecords, err := e.store.ReadAllRecords(ctx)
	if err != nil {
		return nil, utils.AsTransferError(err).WithContext(constants.OperationImport, string(models.PhaseValidating), 0, 0)
	}
	localIDs := make(map[string]struct{}, len(localRecords))
	for _, rec := range localRecords {
		localIDs[rec.ID] = struct{}{}
	}

	result := &models.ImportResult{Warnings: []models.ImportWarning{}}

	now := time.Now().UTC()
	total := len(snap.ContentRecords)
	committed := make([]string, 0, total)
	overwritten := map[string]bool{}

	fail := func(rec models.ContentRecord, i int, cause error) error {
		result.RecordsFailed++
		result.Warnings = append(result.Warnings, models.ImportWarning{
			Code:     models.WarnRecordFailed,
			RecordID: rec.ID,
			Detail:   cause.Error(),
		})
		if !opts.AllowPartialImport {
			return utils.NewCorruptedDataError(
				fmt.Sprintf("record %s is not importable: %s", rec.ID, cause), nil).
				WithContext(constants.OperationImport, string(models.PhaseProcessingRecords), i, total)
		}
		if result.RecordsFailed > opts.MaxErrorsAllowed {
			ids := make([]string, len(committed))
			copy(ids, committed)
			return utils.NewPartialImportExceededError(result.RecordsFailed, ids).
				WithContext(constants.OperationImport, string(models.PhaseProcessingRecords), i, total)
		}
		return nil
	}

	for i, rec := range snap.ContentRecords {
		if err := cancelled(ctx, constants.OperationImport, models.PhaseProcessingRecords); err != nil {
			return nil, err
		}

		_, exists := localIDs[rec.ID]
		if exists && opts.SkipDuplicates {
			result.RecordsSkipped++
			sink.items(ctx, models.PhaseProcessingRecords, spanFraction(importFracRecordsFrom, importFracRecordsTo, i+1, total),
				i+1, total, "processing records")
			continue
		}

		normalized, recErr := normalizeRecord(rec, now)
		if recErr == nil {
			recErr = e.store.UpsertRecord(ctx, &normalized)
		}
		if recErr != nil {
			if abort := fail(rec, i, recErr); abort != nil {
				return nil, abort
			}
		} else {
			result.RecordsImported++
			committed = append(committed, normalized.ID)
			if exists {
				overwritten[normalized.ID] = normalized.Favorite
			}
		}

		sink.items(ctx, models.PhaseProcessingRecords, spanFraction(importFracRecordsFrom, importFracRecordsTo, i+1, total),
			i+1, total, "processing records")
	}

	// Favorites: start from the local set, drop flags only for overwritten
	// records the snapshot marks unfavorited (and only when preservation is off),
	// then add every incoming favorite. With preservation on, no local favorite
	// is ever removed.
	sink.phase(ctx, models.PhaseProcessingFavorites, importFracFavorites, "merging favorites")
	if err := cancelled(ctx, constants.OperationImport, models.PhaseProcessingFavorites); err != nil {
		return nil, err
	}

	incoming := snap.FavoriteSet()
	final := make(map[string]struct{}, len(localFavorites)+len(incoming))
	for id := range localFavorites {
		final[id] = struct{}{}
	}
	if !opts.PreserveExistingFavorites {
		for id, fav := range overwritten {
			if _, keep := incoming[id]; !keep && !fav {
				delete(final, id)
			}
		}
	}
	for id := range incoming {
		if _, had := final[id]; !had {
			result.FavoritesAdded++
		}
		final[id] = struct{}{}
	}
	if err := e.store.WriteFavoriteIDs(ctx, final); err != nil {
		return nil, utils.AsTransferError(err).WithContext(constants.OperationImport, string(models.PhaseProcessingFavorites), 0, 0)
	}

	// Preferences: key by key; incoming values win.
	sink.phase(ctx, models.PhaseProcessingPreferences, importFracPreferences, "merging preferences")
	for key, value := range snap.Preferences {
		if err := cancelled(ctx, constants.OperationImport, models.PhaseProcessingPreferences); err != nil {
			return nil, err
		}
		if err := e.store.WritePreference(ctx, key, value); err != nil {
			return nil, utils.AsTransferError(err).WithContext(constants.OperationImport, string(models.PhaseProcessingPreferences), 0, 0)
		}
		result.PreferencesUpdated++
	}

	sink.phase(ctx, models.PhaseSaving, importFracSaving, "finalizing import")

	return result, nil
}

// normalizeRecord prepares an incoming record for storage: a zero creation time
// defaults to the import time and an out-of-range intensity is clamped. Empty
// identifiers and empty text are per-record failures, not fixable anomalies.
func normalizeRecord(rec models.ContentRecord, importTime time.Time) (models.ContentRecord, error) {
	if rec.ID == "" {
		return rec, fmt.Errorf("missing record identifier")
	}
	if rec.Text == "" {
		return rec, fmt.Errorf("empty content text")
	}
	if len(rec.Text) > constants.MaxContentTextLength {
		return rec, fmt.Errorf("content text exceeds %d characters", constants.MaxContentTextLength)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = importTime
	}
	if rec.Intensity < constants.MinIntensityLevel {
		rec.Intensity = constants.MinIntensityLevel
	} else if rec.Intensity > constants.MaxIntensityLevel {
		rec.Intensity = constants.MaxIntensityLevel
	}
	return rec, nil
}
