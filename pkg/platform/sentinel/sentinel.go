package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Byte stores return these
// (optionally wrapped) so the process layer can decide how to react:
//   - ErrNotFound: key has never been written
//   - ErrUnavailable: backend could not be reached
//
// Caller mistakes and invalid transitions use pkg/domain-errors instead.
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
)
