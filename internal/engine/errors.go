package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyInput is returned for an album with no audio files.
	ErrEmptyInput = errors.New("album has no audio files")

	// ErrNoMatch is returned by catalog searchers when no album matched.
	ErrNoMatch = errors.New("no catalog match")

	// ErrCancelled is returned when the run's context is cancelled between
	// steps.
	ErrCancelled = errors.New("album processing cancelled")
)

// StructuralError reports a generated mapping that violates the mapping
// invariants. It consumes a mapping-generation attempt, never a business
// retry, and no review is requested for it.
type StructuralError struct {
	Problems []string
}

func (e *StructuralError) Error() string {
	if len(e.Problems) == 0 {
		return "invalid mapping"
	}
	return fmt.Sprintf("invalid mapping: %s", strings.Join(e.Problems, "; "))
}

// BudgetExhaustedError is the deliberate terminal failure after all
// strategies ran out of attempts. The last structural or review verdict is
// attached for diagnostics.
type BudgetExhaustedError struct {
	Stage       string
	LastVerdict *Verdict
	LastErr     error
}

func (e *BudgetExhaustedError) Error() string {
	msg := fmt.Sprintf("%s budget exhausted without an accepted mapping", e.Stage)
	if e.LastErr != nil {
		msg += ": " + e.LastErr.Error()
	}
	return msg
}

func (e *BudgetExhaustedError) Unwrap() error {
	return e.LastErr
}
