package qrcache

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned by Put for an empty key or a nil value.
var ErrInvalidArgument = errors.New("qrcache: invalid argument")

// ClearError reports a Clear that could not take effect: the epoch bump
// failed and the provider could not purge the namespace either.
type ClearError struct {
	Namespace string
	BumpErr   error
	PurgeErr  error
}

func (e *ClearError) Error() string {
	switch {
	case e.BumpErr != nil && e.PurgeErr != nil:
		return fmt.Sprintf("clear %q failed: epoch bump and purge failed: bump=%v; purge=%v",
			e.Namespace, e.BumpErr, e.PurgeErr)
	case e.BumpErr != nil:
		return fmt.Sprintf("clear %q: epoch bump failed: %v", e.Namespace, e.BumpErr)
	case e.PurgeErr != nil:
		return fmt.Sprintf("clear %q: purge failed: %v", e.Namespace, e.PurgeErr)
	default:
		return fmt.Sprintf("clear %q: unknown error", e.Namespace)
	}
}

func (e *ClearError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.BumpErr != nil {
		errs = append(errs, e.BumpErr)
	}
	if e.PurgeErr != nil {
		errs = append(errs, e.PurgeErr)
	}
	return errs
}
