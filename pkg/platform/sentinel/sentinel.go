package sentinel

import "errors"

// Sentinel errors for storage and collaborator facts. Stores return these
// (optionally wrapped) and services translate them into domain errors.
//
//   - ErrNotFound: aggregate does not exist in the store
//   - ErrConflict: an insert collided with an existing aggregate
//   - ErrStaleVersion: an optimistic write lost against a concurrent writer
//   - ErrUnavailable: backing store or collaborator temporarily unreachable
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrStaleVersion = errors.New("stale version")
	ErrUnavailable  = errors.New("unavailable")
)
