package transfer

import (
	"fmt"

	"github.com/quipvault/quipvault/internal/constants"
	"github.com/quipvault/quipvault/internal/models"
	"github.com/quipvault/quipvault/internal/snapshot"
	"github.com/quipvault/quipvault/internal/utils"
)

// ImportParser turns raw snapshot bytes into a validated snapshot, unwrapping the
// encryption envelope when present. Parsing is read-only and touches no local state.
type ImportParser struct{}

// NewImportParser creates a new ImportParser.
func NewImportParser() *ImportParser {
	return &ImportParser{}
}

// Parse decodes and validates snapshot bytes. The returned compatible flag is
// true only when the snapshot carries the current schema version; older versions
// parse successfully with the flag cleared so the caller can warn before
// importing. Newer versions fail with a version mismatch error inside Unmarshal.
//
// An encrypted envelope requires a password; a wrong password surfaces as a
// corrupted data failure because the ciphertext cannot be authenticated.
func (p *ImportParser) Parse(data []byte, password string) (*models.Snapshot, bool, error) {
	if len(data) > constants.MaxSnapshotSize {
		return nil, false, utils.NewCorruptedDataError(
			fmt.Sprintf("snapshot exceeds maximum size of %d bytes", constants.MaxSnapshotSize), nil)
	}

	if utils.IsEncryptedSnapshot(data) {
		if password == "" {
			return nil, false, utils.NewValidationError("encryption_password",
				"snapshot is encrypted and requires a password")
		}
		plain, err := utils.DecryptSnapshot(data, password)
		if err != nil {
			return nil, false, utils.NewCorruptedDataError(
				"failed to decrypt snapshot (wrong password or damaged file)", err)
		}
		data = plain
	}

	s, err := snapshot.Unmarshal(data)
	if err != nil {
		return nil, false, err
	}

	return s, s.SchemaVersion == constants.SnapshotSchemaVersion, nil
}
