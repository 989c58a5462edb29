package models

import (
	"fmt"
	"strings"

	id "apertura/pkg/domain"
)

// LifecycleError is returned for a transition the lifecycle table does not
// allow. The solicitud is never mutated when it is returned.
type LifecycleError struct {
	From   Estado
	To     Estado
	Reason string
}

func (e *LifecycleError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("transition %s -> %s not allowed: %s", e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("transition %s -> %s not allowed", e.From, e.To)
}

// ConcurrentModificationError means the stored estado no longer matches the
// caller's expected prior estado. Reload and retry.
type ConcurrentModificationError struct {
	SolicitudID id.SolicitudID
	Expected    Estado
	Actual      Estado
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("solicitud %s was modified concurrently: expected %s, found %s",
		e.SolicitudID, e.Expected, e.Actual)
}

// MissingSectionsError lists every section still required before submission.
type MissingSectionsError struct {
	Sections []Section
}

func (e *MissingSectionsError) Error() string {
	names := make([]string, 0, len(e.Sections))
	for _, s := range e.Sections {
		names = append(names, string(s))
	}
	return "missing required sections: " + strings.Join(names, ", ")
}
