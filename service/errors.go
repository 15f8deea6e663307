package service

import (
	"fmt"

	"github.com/m-mizutani/goerr/v2"

	"github.com/unkn0wn-root/qrcache/store"
)

var (
	// ErrValidation marks a request rejected before any work was done.
	ErrValidation = goerr.New("validation failed")
	// ErrGeneration marks a failure to encode or rasterize. The underlying
	// symbol or raster error stays reachable through errors.Is.
	ErrGeneration = goerr.New("generation failed")
	// ErrNotFound is store.ErrNotFound, so either sentinel matches.
	ErrNotFound = store.ErrNotFound
)

func generationError(cause error, msg string, opts ...goerr.Option) error {
	return goerr.Wrap(fmt.Errorf("%w: %w", ErrGeneration, cause), msg, opts...)
}

// BatchError reports the item that stopped a fail-fast batch. Persisted holds
// every code the batch saved, which includes the failing item when it was
// saved but could not be linked to its owner. None are rolled back.
type BatchError struct {
	BatchID   string
	Index     int
	Persisted []store.ID
	Err       error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch %s: item %d failed (%d persisted): %v", e.BatchID, e.Index, len(e.Persisted), e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }
