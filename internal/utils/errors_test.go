package utils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCorruptedDataError(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	err := NewCorruptedDataError("snapshot is not valid JSON", cause)

	assert.True(t, IsCorruptedDataError(err))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "snapshot is not valid JSON", err.Error())
	assert.False(t, err.Timestamp.IsZero())
}

func TestNewVersionMismatchError(t *testing.T) {
	err := NewVersionMismatchError(3, 2)

	assert.True(t, IsVersionMismatchError(err))
	assert.Equal(t, 3, err.FoundVersion)
	assert.Equal(t, 2, err.SupportedVersion)
	assert.Contains(t, err.Error(), "3")
	assert.Contains(t, err.Error(), "2")
}

func TestNewInsufficientStorageError(t *testing.T) {
	err := NewInsufficientStorageError(1024, 512)

	assert.True(t, IsInsufficientStorageError(err))
	assert.Equal(t, int64(1024), err.RequiredBytes)
	assert.Equal(t, int64(512), err.AvailableBytes)
}

func TestNewPartialImportExceededError(t *testing.T) {
	committed := []string{"rec-1", "rec-2"}
	err := NewPartialImportExceededError(11, committed)

	assert.True(t, IsPartialImportExceededError(err))
	assert.Equal(t, 11, err.ErrorsEncountered)
	assert.Equal(t, committed, err.RecordsCommitted)
}

func TestNewOperationCancelledError(t *testing.T) {
	err := NewOperationCancelledError("export", "writing")

	assert.True(t, IsCancelledError(err))
	assert.Equal(t, "export", err.Operation)
	assert.Equal(t, "writing", err.Phase)
	assert.Contains(t, err.Error(), "export/writing")
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("strategy", "must be merge or replace")

	assert.True(t, IsValidationError(err))
	assert.Equal(t, "strategy", err.Field)
	assert.Equal(t, "strategy: must be merge or replace", err.Error())
}

func TestWithContext(t *testing.T) {
	err := NewSerializationError(nil).WithContext("import", "processing_records", 4, 10)

	assert.Equal(t, "import", err.Operation)
	assert.Equal(t, "processing_records", err.Phase)
	assert.Equal(t, 4, err.ItemsProcessed)
	assert.Equal(t, 10, err.TotalItems)
}

func TestAsTransferError_PassThrough(t *testing.T) {
	original := NewVersionMismatchError(5, 2)
	wrapped := fmt.Errorf("parse failed: %w", original)

	got := AsTransferError(wrapped)
	assert.Same(t, original, got)
}

func TestAsTransferError_WrapsUnknown(t *testing.T) {
	plain := errors.New("disk glitch")

	got := AsTransferError(plain)
	require.NotNil(t, got)
	assert.True(t, IsSerializationError(got))
	assert.Equal(t, "disk glitch", got.Message)
}

func TestClassificationHelpers_Disjoint(t *testing.T) {
	err := NewCorruptedDataError("bad", nil)

	assert.True(t, IsCorruptedDataError(err))
	assert.False(t, IsVersionMismatchError(err))
	assert.False(t, IsInsufficientStorageError(err))
	assert.False(t, IsCancelledError(err))
	assert.False(t, IsPartialImportExceededError(err))
	assert.False(t, IsValidationError(err))
}
