package window

import (
	"errors"
	"fmt"
)

var (
	errEmptyCoeffs = errors.New("window coefficients must not be empty")

	// ErrUnknownType is returned by Parse for names it does not recognize.
	ErrUnknownType = errors.New("unknown window type")
)

func errUnknownType(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownType, name)
}

func validateLength(size int) error {
	if size <= 0 {
		return fmt.Errorf("window size must be > 0: %d", size)
	}
	return nil
}
