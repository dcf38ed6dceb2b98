package oracle

import (
	"errors"
	"fmt"

	"github.com/roach88/craftgraph/internal/craft"
)

// ErrAbuseDetected is returned when the service answers with its bot/abuse
// challenge. It is never retried.
var ErrAbuseDetected = errors.New("oracle: abuse detection triggered")

// DecodeError reports an answer that could not be parsed into a Combination.
type DecodeError struct {
	Pair craft.Pair
	Body []byte
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("oracle: decode answer for %s: %v", e.Pair, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// StatusError reports a non-retryable HTTP status.
type StatusError struct {
	Pair craft.Pair
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("oracle: HTTP %d for %s", e.Code, e.Pair)
}

// TransientError is returned when retries were cut short by the caller's
// context. Err is the last transport error.
type TransientError struct {
	Pair     craft.Pair
	Attempts int
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("oracle: %s failed after %d attempts: %v", e.Pair, e.Attempts, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}
