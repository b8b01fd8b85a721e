package ledger

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidation marks every rejection that happened before any mutation.
var ErrValidation = errors.New("validation failed")

// ValidationError carries every problem found while validating a request.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Problems collects validation failures.
type Problems []string

// Addf records one problem.
func (p *Problems) Addf(format string, args ...any) {
	*p = append(*p, fmt.Sprintf(format, args...))
}

// Err returns a *ValidationError when any problem was recorded, nil otherwise.
func (p Problems) Err() error {
	if len(p) == 0 {
		return nil
	}
	return &ValidationError{Problems: append([]string(nil), p...)}
}

// AsValidation returns the problems carried by err, if it is a validation failure.
func AsValidation(err error) ([]string, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Problems, true
	}
	return nil, false
}
