// Package compliance implements the pre-export privacy analysis and the
// best-effort content anonymizer.
//
// The analyzer classifies the fields a requested export would include by
// sensitivity and produces warnings and recommendations. Its severities drive a
// caller-side acknowledgment gate: the export pipeline must not run until the
// caller has presented the issues to the user and, when any issue is high
// severity, obtained explicit acknowledgment. The analyzer itself is a pure
// function of the export options and never touches the local store.
package compliance

import (
	"regexp"
	"strings"

	"github.com/quipvault/quipvault/internal/constants"
	"github.com/quipvault/quipvault/internal/models"
)

// credentialKeyPattern detects preference keys that carry generator credentials or
// endpoint configuration, beyond the reserved key prefixes.
var credentialKeyPattern = regexp.MustCompile(`(?i)auth|token|secret|key|credential|endpoint|password|pwd`)

// Analyzer produces privacy notices and compliance issues for export requests.
type Analyzer struct{}

// NewAnalyzer creates a new Analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze classifies the requested export fields by sensitivity.
//
// Rules:
//   - Including credential/endpoint preference keys always yields a high-severity
//     issue recommending exclusion (or at minimum encryption, when no password is set).
//   - Including device metadata yields a low-severity informational issue.
//   - Enabling anonymization yields a medium-severity issue warning that the
//     transform is heuristic, not guaranteed.
//
// The returned notice always lists the unconditionally included fields versus the
// optional fields the options select.
func (a *Analyzer) Analyze(opts models.ExportOptions) (models.PrivacyNotice, []models.ComplianceIssue) {
	notice := models.PrivacyNotice{
		AlwaysIncluded: []string{
			"content records",
			"favorites",
			"preferences",
			"export metadata",
		},
		OptionalIncluded: []string{},
	}
	issues := []models.ComplianceIssue{}

	if opts.IncludeCredentials {
		notice.OptionalIncluded = append(notice.OptionalIncluded, "generator credentials and endpoint configuration")
		recommendation := "Exclude credentials from the export; re-enter them on the target device instead."
		if opts.EncryptionPassword == "" {
			recommendation = "Exclude credentials from the export, or at minimum set an encryption password so the snapshot file is not readable in transit."
		}
		issues = append(issues, models.ComplianceIssue{
			Category:       models.IssueCategoryCredentials,
			Severity:       models.SeverityHigh,
			Description:    "The snapshot will contain generator credentials and endpoint configuration in readable form.",
			Recommendation: recommendation,
		})
	}

	if opts.IncludeDeviceInfo {
		notice.OptionalIncluded = append(notice.OptionalIncluded, "device metadata")
		issues = append(issues, models.ComplianceIssue{
			Category:       models.IssueCategoryDeviceMetadata,
			Severity:       models.SeverityLow,
			Description:    "The snapshot will record the platform and OS version of this device.",
			Recommendation: "Disable device metadata if the snapshot will be shared beyond your own devices.",
		})
	}

	if opts.IncludeUsageStats {
		notice.OptionalIncluded = append(notice.OptionalIncluded, "usage statistics")
	}

	if opts.Anonymize {
		issues = append(issues, models.ComplianceIssue{
			Category:       models.IssueCategoryAnonymization,
			Severity:       models.SeverityMedium,
			Description:    "Anonymization is a heuristic pattern-based redaction, not a guarantee that all identifying content is removed.",
			Recommendation: "Review the exported file before sharing it.",
		})
	}

	for _, issue := range issues {
		if issue.Severity == models.SeverityHigh {
			notice.RequiresAcknowledgment = true
			break
		}
	}

	return notice, issues
}

// IsCredentialKey reports whether a preference key holds generator credentials or
// endpoint configuration. The export pipeline strips these keys unless the export
// options explicitly include credentials.
func IsCredentialKey(key string) bool {
	if strings.HasPrefix(key, constants.PrefPrefixEndpoint) || strings.HasPrefix(key, constants.PrefPrefixAPIKey) {
		return true
	}
	return credentialKeyPattern.MatchString(key)
}
