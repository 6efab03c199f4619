package utils

import (
	"errors"
	"fmt"
)

var ErrPanic = errors.New("recovered panic")

// RecoverWithError must be deferred directly. It replaces *err with an
// ErrPanic-wrapped error when the deferring function panics.
func RecoverWithError(err *error) {
	if rv := recover(); rv != nil {
		*err = fmt.Errorf("%w: %v", ErrPanic, rv)
	}
}
