// Package transfer implements the export and import pipelines of the QuipVault
// data interchange subsystem, and the manager that serializes them, reports their
// progress, and supports cooperative cancellation.
package transfer

import (
	"context"

	"github.com/quipvault/quipvault/internal/models"
)

// progressSink delivers OperationProgress updates from a pipeline to the caller's
// channel. Intermediate updates are dropped rather than blocking a slow caller;
// the terminal update always blocks until delivered so the authoritative last
// value is never lost. Fractions are clamped monotonic.
type progressSink struct {
	ch        chan models.OperationProgress
	operation string
	last      float64
}

func newProgressSink(operation string, buffer int) *progressSink {
	if buffer < 1 {
		buffer = 1
	}
	return &progressSink{
		ch:        make(chan models.OperationProgress, buffer),
		operation: operation,
	}
}

// phase emits a phase transition without item counts.
func (s *progressSink) phase(ctx context.Context, phase models.Phase, fraction float64, message string) {
	s.emit(ctx, models.OperationProgress{
		Phase:    phase,
		Fraction: fraction,
		Message:  message,
	})
}

// items emits an update within a countable phase.
func (s *progressSink) items(ctx context.Context, phase models.Phase, fraction float64, processed, total int, message string) {
	s.emit(ctx, models.OperationProgress{
		Phase:          phase,
		Fraction:       fraction,
		ItemsProcessed: processed,
		TotalItems:     total,
		Message:        message,
	})
}

func (s *progressSink) emit(ctx context.Context, p models.OperationProgress) {
	p.Operation = s.operation
	if p.Fraction < s.last {
		p.Fraction = s.last
	}
	s.last = p.Fraction

	select {
	case s.ch <- p:
	case <-ctx.Done():
	default:
	}
}

// terminal delivers the final update and closes the channel. The send blocks:
// callers are expected to drain the channel until it closes.
func (s *progressSink) terminal(p models.OperationProgress) {
	p.Operation = s.operation
	if p.Phase == models.PhaseCompleted {
		p.Fraction = 1
	} else if p.Fraction < s.last {
		p.Fraction = s.last
	}
	s.ch <- p
	close(s.ch)
}
