package transfer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quipvault/quipvault/internal/compliance"
	"github.com/quipvault/quipvault/internal/config"
	"github.com/quipvault/quipvault/internal/constants"
	"github.com/quipvault/quipvault/internal/models"
	"github.com/quipvault/quipvault/internal/snapshot"
	"github.com/quipvault/quipvault/internal/store"
	"github.com/quipvault/quipvault/internal/utils"
)

// Export phase fractions. Record processing spans the gap between its bound and
// the next phase's bound.
const (
	exportFracPreparing   = 0.05
	exportFracCollecting  = 0.10
	exportFracRecordsFrom = 0.15
	exportFracRecordsTo   = 0.50
	exportFracFavorites   = 0.55
	exportFracPreferences = 0.65
	exportFracMetadata    = 0.75
	exportFracSerializing = 0.85
	exportFracWriting     = 0.95
)

// ExportService assembles local state into a snapshot file. It is stateless
// between runs; the manager owns single-flight sequencing and progress delivery.
type ExportService struct {
	store store.LocalStore
	cfg   *config.AppConfig
	anon  *compliance.Anonymizer
}

// NewExportService creates an export service over the given store. The
// anonymizer is built once from the configured extra patterns.
func NewExportService(st store.LocalStore, cfg *config.AppConfig) (*ExportService, error) {
	anon, err := compliance.NewAnonymizer(cfg.Transfer.AnonymizePatterns)
	if err != nil {
		return nil, err
	}
	return &ExportService{store: st, cfg: cfg, anon: anon}, nil
}

// Run executes the export pipeline and returns the result of the written
// snapshot. Cancellation is checked between phases and between records; a
// cancelled or failed run leaves no partial file behind.
func (s *ExportService) Run(ctx context.Context, opts models.ExportOptions, sink *progressSink) (*models.ExportResult, error) {
	started := time.Now()

	// Preparing: resolve the target directory before touching the store.
	sink.phase(ctx, models.PhasePreparing, exportFracPreparing, "preparing export")
	exportDir := s.cfg.Transfer.ExportDir
	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		return nil, utils.AsTransferError(err).WithContext(constants.OperationExport, string(models.PhasePreparing), 0, 0)
	}
	if err := cancelled(ctx, constants.OperationExport, models.PhasePreparing); err != nil {
		return nil, err
	}

	// Collecting: read all source state up front so the snapshot is a single
	// consistent view.
	sink.phase(ctx, models.PhaseCollectingData, exportFracCollecting, "reading local state")
	records, err := s.store.ReadAllRecords(ctx)
	if err != nil {
		return nil, utils.AsTransferError(err).WithContext(constants.OperationExport, string(models.PhaseCollectingData), 0, 0)
	}
	favoriteIDs, err := s.store.ReadFavoriteIDs(ctx)
	if err != nil {
		return nil, utils.AsTransferError(err).WithContext(constants.OperationExport, string(models.PhaseCollectingData), 0, 0)
	}
	prefs, err := s.store.ReadPreferences(ctx)
	if err != nil {
		return nil, utils.AsTransferError(err).WithContext(constants.OperationExport, string(models.PhaseCollectingData), 0, 0)
	}
	if err := cancelled(ctx, constants.OperationExport, models.PhaseCollectingData); err != nil {
		return nil, err
	}

	snap := models.NewSnapshot(s.cfg.App.Version)

	// Records: copy each record into the snapshot, redacting text when the
	// options ask for anonymization.
	total := len(records)
	for i, rec := range records {
		if err := cancelled(ctx, constants.OperationExport, models.PhaseProcessingRecords); err != nil {
			return nil, err
		}
		if opts.Anonymize {
			rec.Text = s.anon.Redact(rec.Text)
		}
		snap.ContentRecords = append(snap.ContentRecords, rec)
		sink.items(ctx, models.PhaseProcessingRecords, spanFraction(exportFracRecordsFrom, exportFracRecordsTo, i+1, total),
			i+1, total, "processing records")
	}

	// Favorites: the favorite set is authoritative; only identifiers that refer
	// to an exported record are carried.
	sink.phase(ctx, models.PhaseProcessingFavorites, exportFracFavorites, "processing favorites")
	known := make(map[string]struct{}, len(snap.ContentRecords))
	for _, rec := range snap.ContentRecords {
		known[rec.ID] = struct{}{}
	}
	for id := range favoriteIDs {
		if _, ok := known[id]; ok {
			snap.FavoriteIDs = append(snap.FavoriteIDs, id)
		}
	}
	sort.Strings(snap.FavoriteIDs)

	// Preferences: credential and endpoint keys are stripped unless explicitly
	// included.
	sink.phase(ctx, models.PhaseProcessingPreferences, exportFracPreferences, "processing preferences")
	for key, value := range prefs {
		if !opts.IncludeCredentials && compliance.IsCredentialKey(key) {
			continue
		}
		snap.Preferences[key] = value
	}
	if err := cancelled(ctx, constants.OperationExport, models.PhaseProcessingPreferences); err != nil {
		return nil, err
	}

	// Metadata: optional sections are attached only when requested.
	sink.phase(ctx, models.PhaseGeneratingMetadata, exportFracMetadata, "generating metadata")
	if opts.IncludeDeviceInfo {
		snap.DeviceInfo = currentDeviceInfo()
	}
	if opts.IncludeUsageStats {
		stats, err := s.store.ReadUsageStats(ctx)
		if err != nil {
			return nil, utils.AsTransferError(err).WithContext(constants.OperationExport, string(models.PhaseGeneratingMetadata), 0, 0)
		}
		snap.UsageStats = stats
	}

	// Serializing: checksum stamping happens inside Marshal. Encryption wraps the
	// serialized document when a password is set.
	sink.phase(ctx, models.PhaseSerializing, exportFracSerializing, "serializing snapshot")
	data, err := snapshot.Marshal(snap)
	if err != nil {
		return nil, utils.AsTransferError(err).WithContext(constants.OperationExport, string(models.PhaseSerializing), 0, 0)
	}
	encrypted := opts.EncryptionPassword != ""
	if encrypted {
		data, err = utils.EncryptSnapshot(data, opts.EncryptionPassword)
		if err != nil {
			return nil, utils.AsTransferError(err).WithContext(constants.OperationExport, string(models.PhaseSerializing), 0, 0)
		}
	}
	if err := cancelled(ctx, constants.OperationExport, models.PhaseSerializing); err != nil {
		return nil, err
	}

	// Writing: check free space against the exact payload size, then write to a
	// temp file and rename so a crash or failure never leaves a partial snapshot
	// under the final name.
	sink.phase(ctx, models.PhaseWriting, exportFracWriting, "writing snapshot file")
	required := int64(len(data))
	if available, spaceErr := availableSpace(exportDir); spaceErr == nil && available < required {
		return nil, utils.NewInsufficientStorageError(required, available).
			WithContext(constants.OperationExport, string(models.PhaseWriting), 0, 0)
	}

	filename := fmt.Sprintf("%s%s%s", constants.SnapshotFilePrefix,
		started.UTC().Format(constants.SnapshotTimestampFormat), constants.SnapshotFileExtension)
	finalPath := filepath.Join(exportDir, filename)
	if err := writeAtomically(finalPath, data); err != nil {
		if errors.Is(err, syscall.ENOSPC) {
			return nil, utils.NewInsufficientStorageError(required, 0).
				WithContext(constants.OperationExport, string(models.PhaseWriting), 0, 0)
		}
		return nil, utils.AsTransferError(err).WithContext(constants.OperationExport, string(models.PhaseWriting), 0, 0)
	}
	if err := cancelled(ctx, constants.OperationExport, models.PhaseWriting); err != nil {
		// The file landed before cancellation was observed; remove it so a
		// cancelled export leaves nothing behind.
		_ = os.Remove(finalPath)
		return nil, err
	}

	result := &models.ExportResult{
		FilePath:      finalPath,
		SizeBytes:     required,
		RecordCount:   len(snap.ContentRecords),
		FavoriteCount: len(snap.FavoriteIDs),
		Encrypted:     encrypted,
		Checksum:      snap.Checksum,
		Duration:      time.Since(started),
		Snapshot:      snap,
	}

	log.Info().
		Str("category", constants.LogCategoryTransfer).
		Str("event", constants.LogEventExport).
		Str("file", finalPath).
		Int("records", result.RecordCount).
		Int("favorites", result.FavoriteCount).
		Bool("encrypted", encrypted).
		Int64("size_bytes", required).
		Dur("duration", result.Duration).
		Msg("Export completed")

	return result, nil
}

// writeAtomically writes data to path via a temp file in the same directory and
// an atomic rename. The temp file is removed on any failure.
func writeAtomically(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// spanFraction maps item progress onto the overall fraction span of a phase.
func spanFraction(from, to float64, processed, total int) float64 {
	if total <= 0 {
		return to
	}
	return from + (to-from)*float64(processed)/float64(total)
}

// cancelled converts a done context into the taxonomy's cancellation error.
func cancelled(ctx context.Context, operation string, phase models.Phase) error {
	if ctx.Err() != nil {
		return utils.NewOperationCancelledError(operation, string(phase))
	}
	return nil
}
