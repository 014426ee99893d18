package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContentRecord(t *testing.T) {
	rec := NewContentRecord("a quip", "pun", 3)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "a quip", rec.Text)
	assert.Equal(t, "pun", rec.Category)
	assert.Equal(t, 3, rec.Intensity)
	assert.False(t, rec.CreatedAt.IsZero())
	assert.False(t, rec.Favorite)
}

func TestContentRecord_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantZero bool
	}{
		{
			name:     "valid timestamp",
			in:       `{"id": "r1", "text": "x", "created_at": "2026-03-01T10:00:00Z"}`,
			wantZero: false,
		},
		{
			name:     "missing timestamp",
			in:       `{"id": "r1", "text": "x"}`,
			wantZero: true,
		},
		{
			name:     "malformed timestamp tolerated",
			in:       `{"id": "r1", "text": "x", "created_at": "last tuesday"}`,
			wantZero: true,
		},
		{
			name:     "non-string timestamp tolerated",
			in:       `{"id": "r1", "text": "x", "created_at": 12345}`,
			wantZero: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec ContentRecord
			require.NoError(t, json.Unmarshal([]byte(tt.in), &rec))
			assert.Equal(t, "r1", rec.ID)
			assert.Equal(t, tt.wantZero, rec.CreatedAt.IsZero())
		})
	}
}

func TestContentRecord_IntensityInRange(t *testing.T) {
	assert.True(t, (&ContentRecord{Intensity: 1}).IntensityInRange())
	assert.True(t, (&ContentRecord{Intensity: 5}).IntensityInRange())
	assert.False(t, (&ContentRecord{Intensity: 0}).IntensityInRange())
	assert.False(t, (&ContentRecord{Intensity: 6}).IntensityInRange())
}

func TestContentRecord_ContentKey(t *testing.T) {
	a := &ContentRecord{Text: "same joke", Category: "pun"}
	b := &ContentRecord{Text: "same joke", Category: "pun"}
	c := &ContentRecord{Text: "same joke", Category: "one_liner"}

	assert.Equal(t, a.ContentKey(), b.ContentKey())
	assert.NotEqual(t, a.ContentKey(), c.ContentKey())
}

func TestSnapshot_FavoriteSet(t *testing.T) {
	s := &Snapshot{FavoriteIDs: []string{"a", "b", "a"}}

	set := s.FavoriteSet()
	assert.Len(t, set, 2)
	assert.Contains(t, set, "a")
	assert.Contains(t, set, "b")
}

func TestPreferenceMap_Clone(t *testing.T) {
	original := PreferenceMap{"k": "v"}
	clone := original.Clone()
	clone["k"] = "changed"

	assert.Equal(t, "v", original["k"])

	var nilMap PreferenceMap
	assert.NotNil(t, nilMap.Clone())
}

func TestOperationProgress_Terminal(t *testing.T) {
	assert.True(t, OperationProgress{Phase: PhaseCompleted}.Terminal())
	assert.True(t, OperationProgress{Phase: PhaseFailed}.Terminal())
	assert.False(t, OperationProgress{Phase: PhaseWriting}.Terminal())
}

func TestNewSnapshot(t *testing.T) {
	s := NewSnapshot("1.4.2")

	assert.Equal(t, "1.4.2", s.AppVersion)
	assert.NotZero(t, s.SchemaVersion)
	assert.WithinDuration(t, time.Now(), s.ExportedAt, time.Minute)
	assert.NotNil(t, s.ContentRecords)
	assert.NotNil(t, s.FavoriteIDs)
	assert.NotNil(t, s.Preferences)
}
