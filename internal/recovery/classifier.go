// Package recovery classifies interchange failures and derives the recovery
// options to offer the user. It produces structured kinds, strategies, and stable
// developer-facing text; localization belongs to the presentation layer.
package recovery

import (
	"github.com/quipvault/quipvault/internal/utils"
)

// Kind is the classified category of an interchange failure.
type Kind string

const (
	KindCorruptedData         Kind = "corrupted_data"
	KindVersionMismatch       Kind = "version_mismatch"
	KindInsufficientStorage   Kind = "insufficient_storage"
	KindSerialization         Kind = "serialization"
	KindPartialImportExceeded Kind = "partial_import_exceeded"
	KindCancelled             Kind = "cancelled"
	KindValidation            Kind = "validation"
	KindUnknown               Kind = "unknown"
)

// Strategy is a recovery action the caller can offer.
type Strategy string

const (
	// StrategyRetry restarts the failed operation unchanged.
	StrategyRetry Strategy = "retry"

	// StrategySkipAndContinue restarts the import with partial import enabled so
	// failing records are skipped.
	StrategySkipAndContinue Strategy = "skip_and_continue"

	// StrategyFreeStorageAndRetry asks the user to free space, then restarts.
	StrategyFreeStorageAndRetry Strategy = "free_storage_and_retry"

	// StrategyAbort gives up on the operation.
	StrategyAbort Strategy = "abort"
)

// ErrorInfo is the classified summary of a failure.
type ErrorInfo struct {
	// Kind is the failure category.
	Kind Kind `json:"kind"`

	// Message is the stable developer-facing description from the failure.
	Message string `json:"message"`

	// Operation and Phase locate the failure in the pipeline, when known.
	Operation string `json:"operation,omitempty"`
	Phase     string `json:"phase,omitempty"`

	// Suggestion names the recommended strategy for this failure.
	Suggestion Strategy `json:"suggestion"`
}

// Option is a single recovery choice to present to the user. Exactly one option
// in a derived set is recommended.
type Option struct {
	// Strategy is the action this option performs.
	Strategy Strategy `json:"strategy"`

	// Title is a short stable label for the action.
	Title string `json:"title"`

	// Description explains what choosing this option does.
	Description string `json:"description"`

	// Recommended marks the default choice for this failure.
	Recommended bool `json:"recommended"`
}

// OperationContext carries the request state that shapes the recovery menu.
type OperationContext struct {
	// Operation is the pipeline that failed ("export" or "import").
	Operation string

	// AllowPartialImport reflects the failed request's tolerance setting. It
	// decides whether skipping failing records is a sensible offer.
	AllowPartialImport bool
}

// Classify maps any interchange error onto its failure kind and recommended
// strategy. Unknown errors classify as KindUnknown with a retry suggestion.
func Classify(err error) ErrorInfo {
	info := ErrorInfo{Kind: KindUnknown, Suggestion: StrategyRetry}
	if err == nil {
		return info
	}
	info.Message = err.Error()

	// Normalize first: unknown errors fold into the serialization kind so every
	// failure classifies somewhere actionable.
	te := utils.AsTransferError(err)
	info.Operation = te.Operation
	info.Phase = te.Phase
	info.Message = te.Message

	switch {
	case utils.IsInsufficientStorageError(te):
		info.Kind = KindInsufficientStorage
		info.Suggestion = StrategyFreeStorageAndRetry
	case utils.IsVersionMismatchError(te):
		info.Kind = KindVersionMismatch
		info.Suggestion = StrategyAbort
	case utils.IsPartialImportExceededError(te):
		info.Kind = KindPartialImportExceeded
		info.Suggestion = StrategyAbort
	case utils.IsCancelledError(te):
		info.Kind = KindCancelled
		info.Suggestion = StrategyAbort
	case utils.IsCorruptedDataError(te):
		info.Kind = KindCorruptedData
		info.Suggestion = StrategySkipAndContinue
	case utils.IsValidationError(te):
		info.Kind = KindValidation
		info.Suggestion = StrategyRetry
	case utils.IsSerializationError(te):
		info.Kind = KindSerialization
		info.Suggestion = StrategyRetry
	}

	return info
}

// Options derives the recovery menu for a failure in the given operation
// context. Exactly one returned option is marked recommended.
func Options(err error, opCtx OperationContext) []Option {
	info := Classify(err)

	switch info.Kind {
	case KindInsufficientStorage:
		return []Option{
			recommended(StrategyFreeStorageAndRetry, "Free up space",
				"Delete unneeded files to make room, then run the operation again."),
			plain(StrategyRetry, "Try again",
				"Run the operation again without changes."),
			plain(StrategyAbort, "Cancel",
				"Give up on the operation."),
		}

	case KindCorruptedData:
		// Skipping damaged records only makes sense for an import that tolerates
		// partial success.
		if opCtx.Operation == "import" && opCtx.AllowPartialImport {
			return []Option{
				recommended(StrategySkipAndContinue, "Skip damaged records",
					"Import everything that can be read and skip records that cannot."),
				plain(StrategyRetry, "Try again",
					"Run the import again without changes."),
				plain(StrategyAbort, "Cancel",
					"Give up on the import."),
			}
		}
		return []Option{
			recommended(StrategyAbort, "Cancel",
				"The file is damaged and cannot be applied safely."),
			plain(StrategyRetry, "Try again",
				"Run the operation again, for example with a fresh copy of the file."),
		}

	case KindVersionMismatch:
		return []Option{
			recommended(StrategyAbort, "Cancel",
				"The file was created by a newer version of the application. Update the application and try again."),
		}

	case KindPartialImportExceeded:
		return []Option{
			recommended(StrategyAbort, "Stop",
				"Too many records failed. Records already imported remain in place."),
			plain(StrategyRetry, "Try again",
				"Run the import again, for example with a higher error tolerance."),
		}

	case KindCancelled:
		return []Option{
			recommended(StrategyAbort, "Done",
				"The operation was cancelled; nothing further will happen."),
			plain(StrategyRetry, "Restart",
				"Run the operation again from the beginning."),
		}

	default:
		return []Option{
			recommended(StrategyRetry, "Try again",
				"Run the operation again; the failure may be transient."),
			plain(StrategyAbort, "Cancel",
				"Give up on the operation."),
		}
	}
}

func recommended(s Strategy, title, description string) Option {
	return Option{Strategy: s, Title: title, Description: description, Recommended: true}
}

func plain(s Strategy, title, description string) Option {
	return Option{Strategy: s, Title: title, Description: description}
}
