// Package snapshot implements serialization and deserialization of the versioned
// snapshot interchange format.
//
// The wire format is a single JSON document. The schema version owned by the
// current build is constants.SnapshotSchemaVersion; deserialization fails with a
// corrupted data error on structural violations and with a version mismatch error
// when the document claims a schema version newer than this build understands.
// Serialization never omits required fields; optional fields are present-but-empty
// rather than type-ambiguous.
package snapshot

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/quipvault/quipvault/internal/constants"
	"github.com/quipvault/quipvault/internal/models"
	"github.com/quipvault/quipvault/internal/utils"
)

// payload is the checksummed entity section of a snapshot: everything except the
// export metadata. Field order and map key ordering are deterministic under
// encoding/json, so the checksum is stable across serialize/parse cycles.
type payload struct {
	ContentRecords []models.ContentRecord `json:"content_records"`
	FavoriteIDs    []string               `json:"favorite_ids"`
	Preferences    models.PreferenceMap   `json:"preferences"`
	UsageStats     *models.UsageStatistics `json:"usage_stats,omitempty"`
}

// Marshal serializes a snapshot to its wire form, stamping the payload checksum.
// Required collection fields are normalized to empty (never null) before encoding.
func Marshal(s *models.Snapshot) ([]byte, error) {
	if s == nil {
		return nil, utils.NewSerializationError(errors.New("nil snapshot"))
	}

	if s.ContentRecords == nil {
		s.ContentRecords = []models.ContentRecord{}
	}
	if s.FavoriteIDs == nil {
		s.FavoriteIDs = []string{}
	}
	if s.Preferences == nil {
		s.Preferences = models.PreferenceMap{}
	}

	checksum, err := ComputeChecksum(s)
	if err != nil {
		return nil, err
	}
	s.Checksum = checksum

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, utils.NewSerializationError(err)
	}

	return data, nil
}

// Unmarshal parses snapshot bytes, enforcing structural validity, identifier
// uniqueness, the payload checksum, and the schema version gate. Parsing is
// atomic: either a complete valid snapshot is returned or an error; no partial
// result escapes.
func Unmarshal(data []byte) (*models.Snapshot, error) {
	if len(data) == 0 {
		return nil, utils.NewCorruptedDataError("snapshot data is empty", nil)
	}
	if len(data) > constants.MaxSnapshotSize {
		return nil, utils.NewCorruptedDataError(
			fmt.Sprintf("snapshot exceeds maximum size of %d bytes", constants.MaxSnapshotSize), nil)
	}

	s := &models.Snapshot{}
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(s); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, utils.NewCorruptedDataError(
				fmt.Sprintf("field %q has wrong type (expected %s)", typeErr.Field, typeErr.Type), err)
		}
		return nil, utils.NewCorruptedDataError("snapshot is not valid JSON", err)
	}

	// A schema version is required and always positive; zero means it was absent.
	if s.SchemaVersion <= 0 {
		return nil, utils.NewCorruptedDataError("snapshot is missing a schema version", nil)
	}
	if s.SchemaVersion > constants.SnapshotSchemaVersion {
		return nil, utils.NewVersionMismatchError(s.SchemaVersion, constants.SnapshotSchemaVersion)
	}

	if err := utils.ValidateStruct(s); err != nil {
		var te *utils.TransferError
		if errors.As(err, &te) {
			return nil, utils.NewCorruptedDataError(
				fmt.Sprintf("field %q failed validation: %s", te.Field, te.Message), err)
		}
		return nil, utils.NewCorruptedDataError("snapshot failed structural validation", err)
	}

	// Identifier uniqueness within a snapshot is an invariant of the format.
	seen := make(map[string]struct{}, len(s.ContentRecords))
	for _, rec := range s.ContentRecords {
		if _, dup := seen[rec.ID]; dup {
			return nil, utils.NewCorruptedDataError(
				fmt.Sprintf("duplicate record identifier %q", rec.ID), nil)
		}
		seen[rec.ID] = struct{}{}
	}

	if s.Checksum != "" {
		computed, err := ComputeChecksum(s)
		if err != nil {
			return nil, err
		}
		if computed != s.Checksum {
			return nil, utils.NewCorruptedDataError("payload checksum mismatch", nil)
		}
	}

	return s, nil
}

// ComputeChecksum returns the hex SHA-256 of the snapshot's serialized entity
// payload. The export metadata (version, timestamps, device info) is deliberately
// outside the checksum so it can be inspected without the payload.
func ComputeChecksum(s *models.Snapshot) (string, error) {
	body, err := json.Marshal(payload{
		ContentRecords: s.ContentRecords,
		FavoriteIDs:    s.FavoriteIDs,
		Preferences:    s.Preferences,
		UsageStats:     s.UsageStats,
	})
	if err != nil {
		return "", utils.NewSerializationError(err)
	}
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:]), nil
}
