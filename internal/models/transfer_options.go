// Package models provides data structures and operations for the QuipVault application.
// This file contains the closed option structures that drive export and import
// behavior. Options are constructed per request and never persisted beyond the
// operation they configure.
package models

// ExportOptions is the inclusion policy for a single export request.
type ExportOptions struct {
	// IncludeCredentials includes generator endpoint and credential preference keys
	// in the exported snapshot. The compliance analyzer always flags this choice as
	// a high-severity issue.
	IncludeCredentials bool `json:"include_credentials"`

	// IncludeDeviceInfo includes platform and OS version metadata.
	IncludeDeviceInfo bool `json:"include_device_info"`

	// IncludeUsageStats includes aggregate usage counters.
	IncludeUsageStats bool `json:"include_usage_stats"`

	// Anonymize redacts content substrings matching configured identifying patterns.
	// The transform is best-effort, not a security guarantee.
	Anonymize bool `json:"anonymize"`

	// EncryptionPassword, when non-empty, encrypts the serialized snapshot with a
	// key derived from this password. The password itself is never written anywhere.
	EncryptionPassword string `json:"-"`
}

// ImportStrategy is the chosen reconciliation mode for an import.
type ImportStrategy string

const (
	// StrategyMerge reconciles the snapshot into existing local state record by record.
	StrategyMerge ImportStrategy = "merge"

	// StrategyReplace clears local state and writes the snapshot verbatim, atomically.
	StrategyReplace ImportStrategy = "replace"
)

// ImportOptions configures how a parsed snapshot is committed into local state.
// It is constructed per import request from the user's choice plus preview findings.
type ImportOptions struct {
	// Strategy selects merge or replace reconciliation.
	Strategy ImportStrategy `json:"strategy" validate:"required,oneof=merge replace"`

	// SkipDuplicates skips incoming records whose identifier already exists locally.
	// It acts strictly on identifier equality; likely duplicates detected by content
	// similarity are surfaced as warnings only and never auto-skipped.
	SkipDuplicates bool `json:"skip_duplicates"`

	// PreserveExistingFavorites guarantees that an incoming snapshot never removes
	// a favorite flag present in local state.
	PreserveExistingFavorites bool `json:"preserve_existing_favorites"`

	// AllowPartialImport tolerates per-record failures during merge up to
	// MaxErrorsAllowed. When false, the first per-record failure aborts the import.
	AllowPartialImport bool `json:"allow_partial_import"`

	// MaxErrorsAllowed is the error budget: the number of per-record failures
	// tolerated before a partial import aborts.
	MaxErrorsAllowed int `json:"max_errors_allowed" validate:"min=0"`
}

// DefaultImportOptions returns merge options with duplicate skipping, favorite
// preservation, and the given error budget.
func DefaultImportOptions(maxErrors int) ImportOptions {
	return ImportOptions{
		Strategy:                  StrategyMerge,
		SkipDuplicates:            true,
		PreserveExistingFavorites: true,
		AllowPartialImport:        true,
		MaxErrorsAllowed:          maxErrors,
	}
}
