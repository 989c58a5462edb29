package ownership

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ErrorKind classifies a validation violation for UI mapping.
type ErrorKind string

const (
	ErrMissingRoot          ErrorKind = "missing_root"
	ErrPayloadMismatch      ErrorKind = "payload_mismatch"
	ErrOwnershipUndeclared  ErrorKind = "ownership_undeclared"
	ErrPercentageExceeded   ErrorKind = "percentage_exceeded"
	ErrPercentageOutOfRange ErrorKind = "percentage_out_of_range"
	ErrCycleDetected        ErrorKind = "cycle_detected"
	ErrDepthExceeded        ErrorKind = "depth_exceeded"
	ErrMissingField         ErrorKind = "missing_required_field"
	ErrUnexpectedField      ErrorKind = "unexpected_field"
)

// Step is one hop from a corporate node into its shareholder list.
type Step struct {
	Index int    `json:"index"`
	ID    string `json:"id,omitempty"`
}

// Path locates a node from the root. The root itself has an empty path.
type Path []Step

// Child returns a new path extended with the shareholder at index i.
func (p Path) Child(i int, n *Node) Path {
	step := Step{Index: i}
	if n != nil && n.ID != nil {
		step.ID = n.ID.String()
	}
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, step)
}

// MarshalJSON renders a nil path as an empty array so the root is never null.
func (p Path) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Step(p))
}

// String renders the path as "$.accionistas[0].accionistas[2]".
func (p Path) String() string {
	var b strings.Builder
	b.WriteString("$")
	for _, step := range p {
		b.WriteString(".accionistas[")
		b.WriteString(strconv.Itoa(step.Index))
		b.WriteString("]")
	}
	return b.String()
}

// ValidationError is a single user-correctable violation located in the tree.
type ValidationError struct {
	Kind   ErrorKind `json:"kind"`
	Path   Path      `json:"path"`
	Field  string    `json:"field,omitempty"`
	NodeID string    `json:"node_id,omitempty"`
	// RelatedID names the second node involved in a cycle: the shareholder
	// under which NodeID was declared again, or its nearest ancestor with an
	// id when that shareholder is unsaved.
	RelatedID string `json:"related_id,omitempty"`
	Message   string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s at %s (%s): %s", e.Kind, e.Path, e.Field, e.Message)
	}
	return fmt.Sprintf("%s at %s: %s", e.Kind, e.Path, e.Message)
}

// ValidationErrors is the complete, ordered list of violations of a tree.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	switch len(v) {
	case 0:
		return "no validation errors"
	case 1:
		return v[0].Error()
	}
	return fmt.Sprintf("%d validation errors; first: %s", len(v), v[0].Error())
}

// OfKind filters the list down to one kind.
func (v ValidationErrors) OfKind(kind ErrorKind) ValidationErrors {
	var out ValidationErrors
	for _, e := range v {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
