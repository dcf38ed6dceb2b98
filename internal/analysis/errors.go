package analysis

import (
	"errors"
	"fmt"
)

// ErrUnknownTarget is returned by Reconstruct for a target that is neither a
// seed nor the result of any edge.
var ErrUnknownTarget = errors.New("unknown target")

// IntegrityKind categorizes integrity errors.
type IntegrityKind string

const (
	// IntegrityNonConvergence: depth relaxation did not reach a fixed point
	// within its pass bound.
	IntegrityNonConvergence IntegrityKind = "non-convergence"

	// IntegrityCycle: an element's producer chain leads back to itself.
	IntegrityCycle IntegrityKind = "cycle"
)

// IntegrityError reports an edge log that cannot be analysed soundly.
type IntegrityError struct {
	Kind    IntegrityKind
	Element string
	Detail  string
}

func (e *IntegrityError) Error() string {
	if e.Element != "" {
		return fmt.Sprintf("data integrity (%s) at %q: %s", e.Kind, e.Element, e.Detail)
	}
	return fmt.Sprintf("data integrity (%s): %s", e.Kind, e.Detail)
}

// IsIntegrityError reports whether err is an IntegrityError.
func IsIntegrityError(err error) bool {
	var ie *IntegrityError
	return errors.As(err, &ie)
}
