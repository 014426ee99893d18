// Package utils provides shared helper functionality for the QuipVault application:
// the interchange error taxonomy, struct validation, logging setup, and snapshot
// envelope encryption.
package utils

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the interchange taxonomy. Every failure surfaced by the
// export/import pipelines wraps exactly one of these, so callers can classify
// with errors.Is without string matching.
var (
	ErrCorruptedData         = errors.New("corrupted snapshot data")
	ErrVersionMismatch       = errors.New("unsupported schema version")
	ErrInsufficientStorage   = errors.New("insufficient storage")
	ErrSerialization         = errors.New("serialization failure")
	ErrPartialImportExceeded = errors.New("partial import error budget exceeded")
	ErrOperationCancelled    = errors.New("operation cancelled")
	ErrValidation            = errors.New("validation error")
	ErrNotFound              = errors.New("resource not found")
)

// TransferError represents an interchange failure with full operation context.
// The core produces structured kinds and context values, never localized text;
// Message is a stable developer-facing description.
type TransferError struct {
	// Err is the sentinel this failure wraps, driving classification.
	Err error

	// Message is a stable description of what failed.
	Message string

	// Operation identifies the pipeline ("export" or "import"), when known.
	Operation string

	// Phase is the pipeline phase the failure occurred in, when known.
	Phase string

	// ItemsProcessed and TotalItems capture pipeline position at failure time.
	ItemsProcessed int
	TotalItems     int

	// RequiredBytes and AvailableBytes are set for insufficient storage failures.
	RequiredBytes  int64
	AvailableBytes int64

	// FoundVersion and SupportedVersion are set for version mismatch failures.
	FoundVersion     int
	SupportedVersion int

	// ErrorsEncountered is the per-record failure count for exceeded error budgets.
	ErrorsEncountered int

	// RecordsCommitted lists record identifiers already applied before a partial
	// import aborted. Merge is not rolled back on that path.
	RecordsCommitted []string

	// Field names the offending field for validation failures.
	Field string

	// Timestamp records when the failure was classified.
	Timestamp time.Time
}

// Error implements the error interface.
func (e *TransferError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	if e.Phase != "" {
		return fmt.Sprintf("%s/%s: %s", e.Operation, e.Phase, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped sentinel, plus any underlying cause chained through it.
func (e *TransferError) Unwrap() error {
	return e.Err
}

// WithContext attaches pipeline position to the error and returns it.
func (e *TransferError) WithContext(operation string, phase string, processed, total int) *TransferError {
	e.Operation = operation
	e.Phase = phase
	e.ItemsProcessed = processed
	e.TotalItems = total
	return e
}

// NewCorruptedDataError creates an error for structural violations in snapshot data:
// missing required fields, wrong types, checksum mismatches, or undecodable input.
func NewCorruptedDataError(message string, cause error) *TransferError {
	err := ErrCorruptedData
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrCorruptedData, cause)
	}
	return &TransferError{
		Err:       err,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewVersionMismatchError creates an error for a snapshot whose schema version
// exceeds what the running build understands.
func NewVersionMismatchError(found, supported int) *TransferError {
	return &TransferError{
		Err:              ErrVersionMismatch,
		Message:          fmt.Sprintf("snapshot schema version %d is newer than supported version %d", found, supported),
		FoundVersion:     found,
		SupportedVersion: supported,
		Timestamp:        time.Now(),
	}
}

// NewInsufficientStorageError creates an error for a snapshot payload that cannot
// be written to the target location.
func NewInsufficientStorageError(required, available int64) *TransferError {
	return &TransferError{
		Err:            ErrInsufficientStorage,
		Message:        fmt.Sprintf("need %d bytes, %d available", required, available),
		RequiredBytes:  required,
		AvailableBytes: available,
		Timestamp:      time.Now(),
	}
}

// NewSerializationError creates an error for an internal encoding failure.
func NewSerializationError(cause error) *TransferError {
	err := ErrSerialization
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrSerialization, cause)
	}
	return &TransferError{
		Err:       err,
		Message:   "failed to serialize snapshot",
		Timestamp: time.Now(),
	}
}

// NewPartialImportExceededError creates the terminal error for a merge whose
// per-record failures exceeded the configured budget. Committed records remain
// applied; the identifiers are carried so the caller can report them.
func NewPartialImportExceededError(errorsEncountered int, committed []string) *TransferError {
	return &TransferError{
		Err:               ErrPartialImportExceeded,
		Message:           fmt.Sprintf("%d record failures exceeded the allowed budget", errorsEncountered),
		ErrorsEncountered: errorsEncountered,
		RecordsCommitted:  committed,
		Timestamp:         time.Now(),
	}
}

// NewOperationCancelledError creates the terminal error for a cooperatively
// cancelled operation.
func NewOperationCancelledError(operation string, phase string) *TransferError {
	return &TransferError{
		Err:       ErrOperationCancelled,
		Message:   "operation cancelled by caller",
		Operation: operation,
		Phase:     phase,
		Timestamp: time.Now(),
	}
}

// NewValidationError creates a validation error for a specific field.
func NewValidationError(field, message string) *TransferError {
	return &TransferError{
		Err:       ErrValidation,
		Message:   message,
		Field:     field,
		Timestamp: time.Now(),
	}
}

// AsTransferError extracts a TransferError from an error chain, wrapping unknown
// errors as serialization-kind internal failures so every pipeline error carries
// the taxonomy.
func AsTransferError(err error) *TransferError {
	var te *TransferError
	if errors.As(err, &te) {
		return te
	}
	out := NewSerializationError(err)
	out.Message = err.Error()
	return out
}

// IsCorruptedDataError checks whether an error is a corrupted data failure.
func IsCorruptedDataError(err error) bool {
	return errors.Is(err, ErrCorruptedData)
}

// IsVersionMismatchError checks whether an error is a version mismatch failure.
func IsVersionMismatchError(err error) bool {
	return errors.Is(err, ErrVersionMismatch)
}

// IsInsufficientStorageError checks whether an error is a storage exhaustion failure.
func IsInsufficientStorageError(err error) bool {
	return errors.Is(err, ErrInsufficientStorage)
}

// IsSerializationError checks whether an error is an internal encoding failure.
func IsSerializationError(err error) bool {
	return errors.Is(err, ErrSerialization)
}

// IsCancelledError checks whether an error is an operation cancellation.
func IsCancelledError(err error) bool {
	return errors.Is(err, ErrOperationCancelled)
}

// IsPartialImportExceededError checks whether an error is an exceeded import budget.
func IsPartialImportExceededError(err error) bool {
	return errors.Is(err, ErrPartialImportExceeded)
}

// IsValidationError checks whether an error is a validation failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFoundError checks whether an error is a missing resource failure.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
