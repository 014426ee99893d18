// Package constants provides shared constant values used throughout the application.
//
// The transfer_const.go file defines constants that shape the snapshot interchange
// format and the limits applied to its entities. The schema version recorded here is
// the single source of truth for what the running build can produce and understand;
// bumping it is a compatibility-affecting change.
package constants

// Snapshot Schema constants define the versioned interchange format.
const (
	// SnapshotSchemaVersion is the schema version written into every exported
	// snapshot and the newest version the importer understands. Snapshots carrying
	// a greater version are rejected; older versions are accepted with a
	// compatibility flag cleared.
	SnapshotSchemaVersion = 2

	// SnapshotFilePrefix is the filename prefix for generated snapshot files.
	SnapshotFilePrefix = "quipvault_"

	// SnapshotFileExtension is the filename extension for snapshot files.
	SnapshotFileExtension = ".json"

	// SnapshotTimestampFormat is the layout used when embedding a timestamp in
	// generated snapshot filenames.
	SnapshotTimestampFormat = "20060102_150405"

	// EncryptedSnapshotMagic is the byte prefix identifying an encrypted snapshot
	// envelope. Plain snapshots start with a JSON object, never with this prefix.
	EncryptedSnapshotMagic = "QVENC1"
)

// Content Record Limits bound the fields of a single generated item.
const (
	// MinIntensityLevel is the lowest valid intensity for a content record.
	MinIntensityLevel = 1

	// MaxIntensityLevel is the highest valid intensity for a content record.
	MaxIntensityLevel = 5

	// MaxContentTextLength is the maximum accepted length of a record's text.
	MaxContentTextLength = 2000
)

// Operation names identify the two long-running pipelines for logging and
// error context.
const (
	// OperationExport identifies the export pipeline.
	OperationExport = "export"

	// OperationImport identifies the import pipeline.
	OperationImport = "import"
)

// Reserved preference key prefixes. Preference keys under these prefixes hold
// generation-client connectivity settings and are treated as credentials by the
// compliance analyzer and the export pipeline.
const (
	// PrefPrefixEndpoint is the preference key prefix for generator endpoint settings.
	PrefPrefixEndpoint = "generator.endpoint"

	// PrefPrefixAPIKey is the preference key prefix for generator credentials.
	PrefPrefixAPIKey = "generator.api_key"
)

// Log Categories and Events classify structured log entries emitted by the
// interchange pipelines.
const (
	// LogCategoryTransfer is the log category for export/import pipeline events.
	LogCategoryTransfer = "transfer"

	// LogCategoryStore is the log category for local store events.
	LogCategoryStore = "store"

	// LogEventExport is the log event type for export operations.
	LogEventExport = "export"

	// LogEventImport is the log event type for import operations.
	LogEventImport = "import"

	// LogEventPreview is the log event type for import preview computation.
	LogEventPreview = "preview"

	// LogEventCancel is the log event type for operation cancellation.
	LogEventCancel = "cancel"
)

// LogRedactedValue is substituted for sensitive values in log output.
const LogRedactedValue = "[REDACTED]"
