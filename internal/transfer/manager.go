package transfer

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/quipvault/quipvault/internal/compliance"
	"github.com/quipvault/quipvault/internal/config"
	"github.com/quipvault/quipvault/internal/constants"
	"github.com/quipvault/quipvault/internal/models"
	"github.com/quipvault/quipvault/internal/store"
	"github.com/quipvault/quipvault/internal/utils"
)

// ErrOperationInProgress is returned when an export or import is requested while
// another committing operation is still running. At most one runs at a time.
var ErrOperationInProgress = errors.New("an export or import operation is already in progress")

// Manager is the single entry point of the interchange subsystem. It serializes
// committing operations (export runs and confirmed imports), delivers progress
// over per-operation channels, and supports cooperative cancellation.
//
// Previews are read-only and do not occupy the operation slot; a caller may
// inspect a snapshot while an export is running.
type Manager struct {
	cfg      *config.AppConfig
	analyzer *compliance.Analyzer
	exporter *ExportService
	parser   *ImportParser
	preview  *PreviewBuilder
	merger   *MergeEngine

	mu     sync.Mutex
	active string
	cancel context.CancelFunc
}

// NewManager creates a manager over the given store.
func NewManager(cfg *config.AppConfig, st store.LocalStore) (*Manager, error) {
	exporter, err := NewExportService(st, cfg)
	if err != nil {
		return nil, err
	}
	return &Manager{
		cfg:      cfg,
		analyzer: compliance.NewAnalyzer(),
		exporter: exporter,
		parser:   NewImportParser(),
		preview:  NewPreviewBuilder(st, cfg.Transfer.LikelyDuplicateWindow),
		merger:   NewMergeEngine(st),
	}, nil
}

// AnalyzeExport runs the compliance analysis for the given export options. The
// caller must present the issues before starting the export and obtain explicit
// acknowledgment when the notice requires it.
func (m *Manager) AnalyzeExport(opts models.ExportOptions) (models.PrivacyNotice, []models.ComplianceIssue) {
	return m.analyzer.Analyze(opts)
}

// StartExport begins an export and returns its progress channel. The channel is
// buffered and closed after the terminal update; callers must drain it. Returns
// ErrOperationInProgress when another committing operation is running.
func (m *Manager) StartExport(ctx context.Context, opts models.ExportOptions) (<-chan models.OperationProgress, error) {
	if err := m.acquire(constants.OperationExport); err != nil {
		return nil, err
	}

	opCtx, cancel := context.WithCancel(ctx)
	m.setCancel(cancel)

	sink := newProgressSink(constants.OperationExport, m.cfg.Transfer.ProgressBufferSize)
	go func() {
		defer m.release()
		defer cancel()

		result, err := m.exporter.Run(opCtx, opts, sink)
		if err != nil {
			te := utils.AsTransferError(err)
			log.Error().
				Str("category", constants.LogCategoryTransfer).
				Str("event", constants.LogEventExport).
				Str("phase", te.Phase).
				Err(te).
				Msg("Export failed")
			sink.terminal(models.OperationProgress{
				Phase:   models.PhaseFailed,
				Message: te.Message,
				Err:     te,
			})
			return
		}
		sink.terminal(models.OperationProgress{
			Phase:        models.PhaseCompleted,
			Message:      "export completed",
			ExportResult: result,
		})
	}()

	return sink.ch, nil
}

// StartImport parses snapshot bytes and computes the import preview without
// committing anything. The password is required only for encrypted snapshots.
// The returned preview carries the parsed snapshot; pass it to ConfirmImport to
// apply it.
func (m *Manager) StartImport(ctx context.Context, data []byte, password string) (*models.ImportPreview, error) {
	snap, compatible, err := m.parser.Parse(data, password)
	if err != nil {
		te := utils.AsTransferError(err)
		te.Operation = constants.OperationImport
		log.Warn().
			Str("category", constants.LogCategoryTransfer).
			Str("event", constants.LogEventPreview).
			Err(te).
			Msg("Snapshot rejected")
		return nil, te
	}
	preview, err := m.preview.Build(ctx, snap, compatible)
	if err != nil {
		return nil, utils.AsTransferError(err).WithContext(constants.OperationImport, string(models.PhaseValidating), 0, 0)
	}
	return preview, nil
}

// ConfirmImport commits a previewed snapshot with the given options and returns
// the operation's progress channel. A preview without its parsed snapshot is a
// validation error. Options left at their zero value get the configured default
// error budget when partial import is allowed.
func (m *Manager) ConfirmImport(ctx context.Context, preview *models.ImportPreview, opts models.ImportOptions) (<-chan models.OperationProgress, error) {
	if preview == nil || preview.Snapshot == nil {
		return nil, utils.NewValidationError("preview", "import confirmation requires a computed preview")
	}
	if opts.AllowPartialImport && opts.MaxErrorsAllowed == 0 {
		opts.MaxErrorsAllowed = m.cfg.Transfer.DefaultMaxErrors
	}
	if err := m.acquire(constants.OperationImport); err != nil {
		return nil, err
	}

	opCtx, cancel := context.WithCancel(ctx)
	m.setCancel(cancel)

	snap := preview.Snapshot
	sink := newProgressSink(constants.OperationImport, m.cfg.Transfer.ProgressBufferSize)
	go func() {
		defer m.release()
		defer cancel()

		result, err := m.merger.Run(opCtx, snap, opts, sink)
		if err != nil {
			te := utils.AsTransferError(err)
			log.Error().
				Str("category", constants.LogCategoryTransfer).
				Str("event", constants.LogEventImport).
				Str("phase", te.Phase).
				Err(te).
				Msg("Import failed")
			sink.terminal(models.OperationProgress{
				Phase:   models.PhaseFailed,
				Message: te.Message,
				Err:     te,
			})
			return
		}
		sink.terminal(models.OperationProgress{
			Phase:        models.PhaseCompleted,
			Message:      "import completed",
			ImportResult: result,
		})
	}()

	return sink.ch, nil
}

// CancelCurrentOperation requests cooperative cancellation of the running
// operation, if any. The operation observes the request at its next check point
// and terminates with a cancellation failure on its progress channel.
func (m *Manager) CancelCurrentOperation() {
	m.mu.Lock()
	cancel := m.cancel
	operation := m.active
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	log.Info().
		Str("category", constants.LogCategoryTransfer).
		Str("event", constants.LogEventCancel).
		Str("operation", operation).
		Msg("Cancellation requested")
	cancel()
}

// acquire claims the single operation slot.
func (m *Manager) acquire(operation string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != "" {
		return ErrOperationInProgress
	}
	m.active = operation
	return nil
}

// setCancel stores the cancel function for the active operation.
func (m *Manager) setCancel(cancel context.CancelFunc) {
	m.mu.Lock()
	m.cancel = cancel
	m.mu.Unlock()
}

// release frees the operation slot.
func (m *Manager) release() {
	m.mu.Lock()
	m.active = ""
	m.cancel = nil
	m.mu.Unlock()
}
