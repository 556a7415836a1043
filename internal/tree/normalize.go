package tree

import (
	"fmt"
	"slices"
	"sort"

	"dario.cat/mergo"
	"github.com/brunoga/deep"
)

// Result is a normalized tree plus every non-fatal condition found on the way.
type Result struct {
	Tree     Tree      `json:"tree"`
	Warnings []Warning `json:"warnings"`
}

// Normalize fills defaults and derives parent/child linkage for raw, returning
// a freshly allocated tree. raw is never modified.
//
// Children that reference missing ids, or the node itself, are dropped from
// the result and reported as warnings. An empty root id counts as missing.
// When several nodes list the same child, the last one visited becomes its
// parent. parentId, hasParent and hasChildren are always derived
// from the children lists; values supplied for them in raw are ignored.
func Normalize(raw RawTree) (Result, error) {
	if _, ok := raw.Items[raw.RootID]; !ok || raw.RootID == "" {
		return Result{}, &MissingRootError{RootID: raw.RootID}
	}

	items, err := deep.Copy(raw.Items)
	if err != nil {
		return Result{}, fmt.Errorf("copy items: %w", err)
	}

	order := iterationOrder(raw)
	warnings := make([]Warning, 0)
	out := make(map[string]Node, len(items))

	for _, key := range order {
		n, w, err := fill(key, items[key])
		if err != nil {
			return Result{}, err
		}
		out[key] = n
		warnings = append(warnings, w...)
	}

	parentOf := make(map[string]string, len(out))
	for _, key := range order {
		n := out[key]
		if len(n.Children) == 0 {
			continue
		}
		// Filters in place: n.Children belongs to the copy, not to raw.
		n.Children = slices.DeleteFunc(n.Children, func(childID string) bool {
			if _, ok := out[childID]; !ok {
				warnings = append(warnings, danglingChild(key, childID))
				return true
			}
			if childID == key {
				warnings = append(warnings, selfReference(key))
				return true
			}
			if prev, ok := parentOf[childID]; ok && prev != key {
				warnings = append(warnings, multiParent(childID, prev, key))
			}
			parentOf[childID] = key
			return false
		})
		out[key] = n
	}

	for _, key := range order {
		n := out[key]
		if n.Children == nil {
			n.Children = []string{}
		}
		n.HasChildren = len(n.Children) > 0

		n.ParentID = ""
		n.HasParent = false
		if parent, ok := parentOf[key]; ok {
			if key == raw.RootID {
				warnings = append(warnings, rootAsChild(key, parent))
			} else {
				n.ParentID = parent
				n.HasParent = true
			}
		}
		out[key] = n
	}

	return Result{
		Tree:     Tree{RootID: raw.RootID, Items: out, Order: order},
		Warnings: warnings,
	}, nil
}

func fill(key string, p PartialNode) (Node, []Warning, error) {
	var n Node
	if p.ID != nil {
		n.ID = *p.ID
	}
	if p.Kind != nil {
		n.Kind = *p.Kind
	}
	if p.Title != nil {
		n.Title = *p.Title
	}
	n.Children = p.Children
	if p.IsExpanded != nil {
		n.IsExpanded = *p.IsExpanded
	}
	if p.IsChecked != nil {
		n.IsChecked = *p.IsChecked
	}
	if p.IsChildrenLoading != nil {
		n.IsChildrenLoading = *p.IsChildrenLoading
	}

	if err := mergo.Merge(&n, Node{ID: key, Kind: KindCheckbox}); err != nil {
		return Node{}, nil, fmt.Errorf("fill defaults for %q: %w", key, err)
	}
	// Title falls back to the id, which may itself have just been defaulted.
	if err := mergo.Merge(&n, Node{Title: n.ID}); err != nil {
		return Node{}, nil, fmt.Errorf("fill title for %q: %w", key, err)
	}

	var warnings []Warning
	if n.ID != key {
		warnings = append(warnings, idMismatch(key, n.ID))
	}
	if !n.Kind.Valid() {
		warnings = append(warnings, unknownKind(key, n.Kind))
		n.Kind = KindCheckbox
	}
	return n, warnings, nil
}

func iterationOrder(raw RawTree) []string {
	seen := make(map[string]struct{}, len(raw.Items))
	out := make([]string, 0, len(raw.Items))
	for _, key := range raw.Order {
		if _, ok := raw.Items[key]; !ok {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}

	rest := make([]string, 0, len(raw.Items)-len(out))
	for key := range raw.Items {
		if _, ok := seen[key]; !ok {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}
