// Package models provides data structures and operations for the QuipVault application.
// This file contains the compliance models produced by the pre-export privacy
// analysis. They carry the findings the caller must present to the user before an
// export proceeds.
package models

// IssueSeverity grades how serious a compliance issue is.
type IssueSeverity string

const (
	// SeverityLow marks informational issues that need no acknowledgment.
	SeverityLow IssueSeverity = "low"

	// SeverityMedium marks issues the user should review before exporting.
	SeverityMedium IssueSeverity = "medium"

	// SeverityHigh marks issues that require explicit user acknowledgment before
	// the export pipeline may run.
	SeverityHigh IssueSeverity = "high"
)

// Issue categories produced by the compliance analyzer.
const (
	// IssueCategoryCredentials concerns exporting generator credentials or
	// endpoint configuration.
	IssueCategoryCredentials = "credentials"

	// IssueCategoryDeviceMetadata concerns exporting device identification metadata.
	IssueCategoryDeviceMetadata = "device_metadata"

	// IssueCategoryAnonymization concerns the heuristic nature of content anonymization.
	IssueCategoryAnonymization = "anonymization"
)

// ComplianceIssue is a flagged privacy or sensitivity concern tied to an export
// option choice.
type ComplianceIssue struct {
	// Category names the concern area.
	Category string `json:"category"`

	// Severity grades the issue. Any high-severity issue gates the export behind
	// explicit user acknowledgment.
	Severity IssueSeverity `json:"severity"`

	// Description explains the concern.
	Description string `json:"description"`

	// Recommendation suggests how to resolve or mitigate the concern.
	Recommendation string `json:"recommendation"`
}

// PrivacyNotice lists what an export will contain so the user can make an informed
// decision. The unconditional fields are always present; the optional fields reflect
// the current export option selection.
type PrivacyNotice struct {
	// AlwaysIncluded names the data categories every export contains.
	AlwaysIncluded []string `json:"always_included"`

	// OptionalIncluded names the optional data categories selected by the current
	// export options.
	OptionalIncluded []string `json:"optional_included"`

	// RequiresAcknowledgment is true when any produced issue is high severity.
	// Acknowledgment is a caller-side gate; the analyzer only drives it.
	RequiresAcknowledgment bool `json:"requires_acknowledgment"`
}
