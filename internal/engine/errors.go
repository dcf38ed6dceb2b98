package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents an error detected while exploring.
//
// Codes split into two groups:
//   - probe-local (DECODE_FAILED, PROBE_FAILED): the current probe is
//     abandoned and the loop continues
//   - session-ending (ABUSE_DETECTED, BUDGET_EXHAUSTED, INTERRUPTED)
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Pair is the probe that failed, rendered "A + B", if any.
	Pair string

	// Err is the underlying cause.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeAbuseDetected indicates the oracle answered with its abuse check.
	ErrCodeAbuseDetected RuntimeErrorCode = "ABUSE_DETECTED"

	// ErrCodeDecodeFailed indicates the oracle answer could not be parsed.
	ErrCodeDecodeFailed RuntimeErrorCode = "DECODE_FAILED"

	// ErrCodeProbeFailed indicates any other non-retryable oracle failure.
	ErrCodeProbeFailed RuntimeErrorCode = "PROBE_FAILED"

	// ErrCodeBudgetExhausted indicates the probe budget was used up.
	ErrCodeBudgetExhausted RuntimeErrorCode = "BUDGET_EXHAUSTED"

	// ErrCodeInterrupted indicates the context ended between probes.
	ErrCodeInterrupted RuntimeErrorCode = "INTERRUPTED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Pair != "" {
		msg += fmt.Sprintf(" (pair=%s)", e.Pair)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

func hasCode(err error, codes ...RuntimeErrorCode) bool {
	var re *RuntimeError
	if !errors.As(err, &re) {
		return false
	}
	for _, c := range codes {
		if re.Code == c {
			return true
		}
	}
	return false
}

// IsFatal reports whether err must end the whole process.
func IsFatal(err error) bool {
	return hasCode(err, ErrCodeAbuseDetected)
}

// IsProbeLocal reports whether err only aborts the current probe.
func IsProbeLocal(err error) bool {
	return hasCode(err, ErrCodeDecodeFailed, ErrCodeProbeFailed)
}

// IsBudgetError reports whether err is a probe budget exhaustion.
func IsBudgetError(err error) bool {
	return hasCode(err, ErrCodeBudgetExhausted)
}

// IsInterrupted reports whether err is a cooperative cancellation.
func IsInterrupted(err error) bool {
	return hasCode(err, ErrCodeInterrupted)
}

// NewInterruptedError creates a RuntimeError for a cancelled context.
func NewInterruptedError(cause error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeInterrupted,
		Message: "exploration interrupted between probes",
		Err:     cause,
	}
}

// NewBudgetError creates a RuntimeError for an exhausted probe budget.
func NewBudgetError(used, limit int) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeBudgetExhausted,
		Message: fmt.Sprintf("probe budget exhausted (%d >= %d)", used, limit),
	}
}
