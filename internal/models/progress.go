// Package models provides data structures and operations for the QuipVault application.
// This file contains the operation progress models used to report the advancement of
// long-running export and import pipelines back to the caller.
package models

import "time"

// Phase names a stage within a long-running pipeline operation. Export and import
// run their phases in a strict, documented order; PhaseCompleted and PhaseFailed
// are terminal.
type Phase string

// Export pipeline phases, in execution order.
const (
	PhasePreparing             Phase = "preparing"
	PhaseCollectingData        Phase = "collecting_data"
	PhaseProcessingRecords     Phase = "processing_records"
	PhaseProcessingFavorites   Phase = "processing_favorites"
	PhaseProcessingPreferences Phase = "processing_preferences"
	PhaseGeneratingMetadata    Phase = "generating_metadata"
	PhaseSerializing           Phase = "serializing"
	PhaseWriting               Phase = "writing"
)

// Import pipeline phases not shared with export.
const (
	PhaseValidating Phase = "validating"
	PhaseSaving     Phase = "saving"
)

// Terminal phases.
const (
	PhaseCompleted Phase = "completed"
	PhaseFailed    Phase = "failed"
)

// OperationProgress is a single progress update from a pipeline. The last value
// observed before the channel closes is authoritative: it carries either the
// operation result (PhaseCompleted) or the terminal failure (PhaseFailed).
type OperationProgress struct {
	// Operation identifies the pipeline ("export" or "import").
	Operation string `json:"operation"`

	// Phase is the current pipeline stage.
	Phase Phase `json:"phase"`

	// Fraction is the overall fractional progress in [0, 1]. It never decreases
	// over the lifetime of an operation.
	Fraction float64 `json:"fraction"`

	// ItemsProcessed counts processed items within phases that have countable items.
	ItemsProcessed int `json:"items_processed"`

	// TotalItems is the item total for the current countable phase, zero otherwise.
	TotalItems int `json:"total_items"`

	// Message is a short human-readable description of the current stage.
	Message string `json:"message,omitempty"`

	// Err is the terminal failure, set only when Phase is PhaseFailed.
	Err error `json:"-"`

	// ExportResult is the operation result, set only on export completion.
	ExportResult *ExportResult `json:"-"`

	// ImportResult is the operation result, set only on import completion.
	ImportResult *ImportResult `json:"-"`
}

// Terminal reports whether this update is the final one for the operation.
func (p OperationProgress) Terminal() bool {
	return p.Phase == PhaseCompleted || p.Phase == PhaseFailed
}

// ExportResult summarizes a completed export.
type ExportResult struct {
	// FilePath is the location of the written snapshot file.
	FilePath string `json:"file_path"`

	// SizeBytes is the size of the written file.
	SizeBytes int64 `json:"size_bytes"`

	// RecordCount is the number of content records exported.
	RecordCount int `json:"record_count"`

	// FavoriteCount is the number of favorite identifiers exported.
	FavoriteCount int `json:"favorite_count"`

	// Encrypted reports whether the snapshot was password-protected.
	Encrypted bool `json:"encrypted"`

	// Checksum is the payload checksum embedded in the snapshot.
	Checksum string `json:"checksum"`

	// Duration is the wall-clock time the export took.
	Duration time.Duration `json:"duration"`

	// Snapshot is the exported snapshot as held in memory, for callers that want
	// to inspect what was written.
	Snapshot *Snapshot `json:"-"`
}

// ImportResult summarizes a completed import.
type ImportResult struct {
	// Strategy is the reconciliation mode that was applied.
	Strategy ImportStrategy `json:"strategy"`

	// RecordsImported is the number of records inserted or overwritten.
	RecordsImported int `json:"records_imported"`

	// RecordsSkipped is the number of duplicate records skipped.
	RecordsSkipped int `json:"records_skipped"`

	// RecordsFailed is the number of per-record failures tolerated by the error budget.
	RecordsFailed int `json:"records_failed"`

	// FavoritesAdded is the number of favorite flags added to local state.
	FavoritesAdded int `json:"favorites_added"`

	// PreferencesUpdated is the number of preference keys written.
	PreferencesUpdated int `json:"preferences_updated"`

	// Warnings carries per-record failure details accumulated during a partial import.
	Warnings []ImportWarning `json:"warnings,omitempty"`

	// Duration is the wall-clock time the import took.
	Duration time.Duration `json:"duration"`
}
