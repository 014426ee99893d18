// Package models provides data structures and operations for the QuipVault application.
// This file contains the content record model, the single unit of generated content
// that the interchange subsystem moves between the local store and snapshot files.
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/quipvault/quipvault/internal/constants"
)

// ContentRecord represents a single generated item (a "quip") in local state or in
// a snapshot. Identity, not content equality, defines a duplicate for merge purposes;
// content plus category plus timestamp proximity only drives user-facing likely-duplicate
// warnings.
type ContentRecord struct {
	// ID is the stable unique identifier of the record. IDs are unique within a
	// snapshot and within local state.
	ID string `json:"id" db:"record_id" validate:"required"`

	// Text is the generated content itself.
	Text string `json:"text" db:"text" validate:"required"`

	// Category is the content category tag (e.g., "pun", "one_liner").
	Category string `json:"category" db:"category"`

	// Intensity is the humor intensity level, bounded to the valid range.
	Intensity int `json:"intensity" db:"intensity"`

	// CreatedAt records when the content was generated. A zero value is tolerated
	// on import and defaulted to the import time, with a warning.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// Favorite marks the record as favorited by the user.
	Favorite bool `json:"favorite" db:"favorite"`
}

// NewContentRecord creates a ContentRecord with a generated identifier and the
// current time as its creation timestamp.
func NewContentRecord(text, category string, intensity int) *ContentRecord {
	return &ContentRecord{
		ID:        uuid.NewString(),
		Text:      text,
		Category:  category,
		Intensity: intensity,
		CreatedAt: time.Now(),
	}
}

// UnmarshalJSON decodes a content record with a lenient creation timestamp:
// a malformed or missing created_at parses as the zero time instead of failing
// the whole snapshot. The preview engine reports the anomaly and the merge engine
// defaults the value to the import time.
func (r *ContentRecord) UnmarshalJSON(data []byte) error {
	type alias ContentRecord
	aux := struct {
		CreatedAt json.RawMessage `json:"created_at"`
		*alias
	}{alias: (*alias)(r)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	r.CreatedAt = time.Time{}
	if len(aux.CreatedAt) > 0 {
		var raw string
		if err := json.Unmarshal(aux.CreatedAt, &raw); err == nil {
			if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
				r.CreatedAt = t
			}
		}
	}

	return nil
}

// IntensityInRange reports whether the record's intensity level is within the
// valid bounded range.
func (r *ContentRecord) IntensityInRange() bool {
	return r.Intensity >= constants.MinIntensityLevel && r.Intensity <= constants.MaxIntensityLevel
}

// ContentKey returns the content-equality key used for likely-duplicate detection:
// two records with the same text and category are considered likely duplicates when
// their creation timestamps are close.
func (r *ContentRecord) ContentKey() string {
	return r.Category + "\x00" + r.Text
}

// TableName returns the database table name for the ContentRecord model.
func (r *ContentRecord) TableName() string {
	return "content_records"
}
