package tree

import (
	"errors"
	"fmt"
)

// ErrMissingRoot matches any *MissingRootError via errors.Is.
var ErrMissingRoot = errors.New("tree: root node missing")

// MissingRootError is returned when the root id is empty or has no entry in items.
type MissingRootError struct {
	RootID string
}

func (e *MissingRootError) Error() string {
	return fmt.Sprintf("tree: root node %q not found in items", e.RootID)
}

func (e *MissingRootError) Is(target error) bool {
	return target == ErrMissingRoot
}

// WarningCode identifies the kind of a non-fatal normalization condition.
type WarningCode string

const (
	WarnDanglingChild WarningCode = "dangling_child_reference"
	WarnMultiParent   WarningCode = "multi_parent_override"
	WarnRootAsChild   WarningCode = "root_referenced_as_child"
	WarnUnknownKind   WarningCode = "unknown_kind"
	WarnIDMismatch    WarningCode = "id_mismatch"
	WarnSelfReference WarningCode = "self_reference"
)

// Warning is a non-fatal condition found while normalizing. NodeID is the
// node the condition was found on; Ref names the other id involved, if any.
type Warning struct {
	Code    WarningCode `json:"code"`
	NodeID  string      `json:"nodeId"`
	Ref     string      `json:"ref,omitempty"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	return string(w.Code) + ": " + w.Message
}

func danglingChild(parent, child string) Warning {
	return Warning{
		Code:    WarnDanglingChild,
		NodeID:  parent,
		Ref:     child,
		Message: fmt.Sprintf("node %q lists missing child %q", parent, child),
	}
}

func multiParent(child, previous, next string) Warning {
	return Warning{
		Code:    WarnMultiParent,
		NodeID:  child,
		Ref:     previous,
		Message: fmt.Sprintf("node %q claimed by %q and %q, keeping %q", child, previous, next, next),
	}
}

func rootAsChild(root, parent string) Warning {
	return Warning{
		Code:    WarnRootAsChild,
		NodeID:  root,
		Ref:     parent,
		Message: fmt.Sprintf("root %q listed as child of %q, ignoring", root, parent),
	}
}

func unknownKind(id string, kind Kind) Warning {
	return Warning{
		Code:    WarnUnknownKind,
		NodeID:  id,
		Ref:     string(kind),
		Message: fmt.Sprintf("node %q has unknown kind %q, using %q", id, kind, KindCheckbox),
	}
}

func idMismatch(key, id string) Warning {
	return Warning{
		Code:    WarnIDMismatch,
		NodeID:  key,
		Ref:     id,
		Message: fmt.Sprintf("node keyed %q declares id %q", key, id),
	}
}

func selfReference(id string) Warning {
	return Warning{
		Code:    WarnSelfReference,
		NodeID:  id,
		Message: fmt.Sprintf("node %q lists itself as a child, ignoring", id),
	}
}
