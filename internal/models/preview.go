// Package models provides data structures and operations for the QuipVault application.
// This file contains the import preview models: the computed, non-committing summary
// of what applying a snapshot would change. A preview is built fresh per import
// attempt and discarded after the user confirms or cancels.
package models

import "time"

// SnapshotInfo summarizes the source metadata of a parsed snapshot for display.
type SnapshotInfo struct {
	// SchemaVersion is the snapshot's interchange format version.
	SchemaVersion int `json:"schema_version"`

	// AppVersion is the application version that produced the snapshot.
	AppVersion string `json:"app_version"`

	// ExportedAt is when the snapshot was produced.
	ExportedAt time.Time `json:"exported_at"`

	// DeviceInfo optionally describes the exporting device.
	DeviceInfo *DeviceInfo `json:"device_info,omitempty"`
}

// WarningCode identifies the kind of anomaly an ImportWarning reports. The core
// produces codes, not human language; the presentation layer renders them.
type WarningCode string

const (
	// WarnIntensityOutOfRange flags a record whose intensity level is outside the
	// valid range. The record is still importable; merge clamps the value.
	WarnIntensityOutOfRange WarningCode = "intensity_out_of_range"

	// WarnMissingTimestamp flags a record with a missing or zero creation timestamp,
	// which will be defaulted to the import time.
	WarnMissingTimestamp WarningCode = "missing_timestamp"

	// WarnEmptyText flags a record with empty content text. Such records count
	// against the merge error budget when applied.
	WarnEmptyText WarningCode = "empty_text"

	// WarnUnknownFavorite flags a favorite identifier that matches no record in the
	// snapshot or in local state.
	WarnUnknownFavorite WarningCode = "unknown_favorite"

	// WarnLikelyDuplicate flags a record whose content, category, and creation time
	// closely match an existing local record under a different identifier.
	WarnLikelyDuplicate WarningCode = "likely_duplicate"

	// WarnRecordFailed reports a per-record failure tolerated by the merge error
	// budget. It appears in import results, not previews.
	WarnRecordFailed WarningCode = "record_failed"
)

// ImportWarning reports a single anomaly found while building a preview. Warnings
// never abort preview computation; tolerance decisions belong to the merge step's
// error budget.
type ImportWarning struct {
	// Code identifies the anomaly kind.
	Code WarningCode `json:"code"`

	// RecordID is the identifier of the affected record, when applicable.
	RecordID string `json:"record_id,omitempty"`

	// Detail carries structured context for the warning (e.g., the offending value).
	Detail string `json:"detail,omitempty"`
}

// PreferenceChange describes a preference key whose incoming value differs from
// the current local value.
type PreferenceChange struct {
	// Key is the preference key.
	Key string `json:"key"`

	// OldValue is the current local value; empty when the key is new.
	OldValue string `json:"old_value"`

	// NewValue is the incoming value.
	NewValue string `json:"new_value"`
}

// ImportPreview is the computed impact of applying a snapshot against current local
// state. It is ephemeral and carries the parsed snapshot through to confirmation.
type ImportPreview struct {
	// Source summarizes the snapshot's origin metadata.
	Source SnapshotInfo `json:"source"`

	// Compatible reflects the parser's compatibility check: true when the snapshot
	// was written with the current schema version, false-but-continuable for older
	// versions.
	Compatible bool `json:"compatible"`

	// TotalRecords is the number of content records in the snapshot.
	TotalRecords int `json:"total_records"`

	// NewRecords is the number of records whose identifier is not present locally.
	NewRecords int `json:"new_records"`

	// DuplicateRecords is the number of records whose identifier already exists
	// in the local store.
	DuplicateRecords int `json:"duplicate_records"`

	// LikelyDuplicates is the number of record pairs within the snapshot sharing
	// identical content and category. Reported separately from identifier
	// duplicates and never auto-skipped.
	LikelyDuplicates int `json:"likely_duplicates"`

	// TotalFavorites is the number of favorite identifiers in the snapshot.
	TotalFavorites int `json:"total_favorites"`

	// NewFavorites is the number of incoming favorites not already favorited locally.
	NewFavorites int `json:"new_favorites"`

	// Warnings lists anomalies found in the snapshot.
	Warnings []ImportWarning `json:"warnings"`

	// PreferenceChanges lists preference keys whose incoming value differs from
	// the current local value.
	PreferenceChanges []PreferenceChange `json:"preference_changes"`

	// Snapshot is the parsed snapshot the preview was computed from. It is carried
	// so a confirmed import applies exactly what was previewed.
	Snapshot *Snapshot `json:"-"`
}
