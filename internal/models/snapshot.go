// Package models provides data structures and operations for the QuipVault application.
// This file contains the snapshot model: the complete versioned transfer object
// produced by export and consumed by import. A snapshot is the only wire-level
// artifact of the interchange subsystem.
package models

import (
	"time"

	"github.com/quipvault/quipvault/internal/constants"
)

// PreferenceMap holds the user's preference configuration as string key/value pairs.
// Keys are namespaced with dots (e.g., "display.theme", "generator.endpoint.url").
type PreferenceMap map[string]string

// Clone returns a copy of the preference map. A nil map clones to an empty map.
func (p PreferenceMap) Clone() PreferenceMap {
	out := make(PreferenceMap, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// DeviceInfo describes the device a snapshot was exported from. It is optional
// and only present when the export options include device metadata.
type DeviceInfo struct {
	// Platform is the device platform name (e.g., "android", "ios", "linux").
	Platform string `json:"platform"`

	// OSVersion is the operating system version string.
	OSVersion string `json:"os_version"`
}

// UsageStatistics holds aggregate usage counters. The counters are device-local
// and included in a snapshot only when requested; they are never written back by
// an import.
type UsageStatistics struct {
	// TotalGenerated is the number of content records ever generated on this device.
	TotalGenerated int64 `json:"total_generated"`

	// TotalViewed is the number of content views.
	TotalViewed int64 `json:"total_viewed"`

	// TotalShared is the number of share actions.
	TotalShared int64 `json:"total_shared"`

	// ByCategory counts generated records per category tag.
	ByCategory map[string]int64 `json:"by_category,omitempty"`
}

// Snapshot is the root transfer object: the user's entire local state serialized
// into a portable versioned form.
//
// SchemaVersion is always present and monotonically meaningful. A snapshot carrying
// a newer schema version than the running build understands is rejected, never
// silently coerced.
type Snapshot struct {
	// SchemaVersion is the interchange format version the snapshot was written with.
	SchemaVersion int `json:"schema_version" validate:"required,min=1"`

	// AppVersion is the application version that produced the snapshot.
	AppVersion string `json:"app_version"`

	// ExportedAt records when the snapshot was produced.
	ExportedAt time.Time `json:"exported_at"`

	// DeviceInfo optionally describes the exporting device.
	DeviceInfo *DeviceInfo `json:"device_info,omitempty"`

	// ContentRecords is the ordered list of exported content records. Per-record
	// anomalies are not parse failures; they surface as preview warnings and count
	// against the merge error budget.
	ContentRecords []ContentRecord `json:"content_records"`

	// FavoriteIDs is the set of favorited record identifiers, serialized as a list.
	FavoriteIDs []string `json:"favorite_ids"`

	// Preferences is the exported preference configuration.
	Preferences PreferenceMap `json:"preferences"`

	// UsageStats optionally carries aggregate usage counters.
	UsageStats *UsageStatistics `json:"usage_stats,omitempty"`

	// Checksum is the hex SHA-256 of the serialized entity payload, written on
	// export and verified on import.
	Checksum string `json:"checksum,omitempty"`
}

// NewSnapshot creates an empty snapshot stamped with the current schema version,
// the given application version, and the current time.
func NewSnapshot(appVersion string) *Snapshot {
	return &Snapshot{
		SchemaVersion:  constants.SnapshotSchemaVersion,
		AppVersion:     appVersion,
		ExportedAt:     time.Now().UTC(),
		ContentRecords: []ContentRecord{},
		FavoriteIDs:    []string{},
		Preferences:    PreferenceMap{},
	}
}

// FavoriteSet returns the favorite identifiers as a set for membership checks.
func (s *Snapshot) FavoriteSet() map[string]struct{} {
	set := make(map[string]struct{}, len(s.FavoriteIDs))
	for _, id := range s.FavoriteIDs {
		set[id] = struct{}{}
	}
	return set
}
