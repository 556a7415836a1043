package tree

import (
	"errors"
	"sort"
)

// SkipChildren can be returned from a WalkFunc to skip the node's subtree.
var SkipChildren = errors.New("skip children")

// WalkFunc is called for every node reached by Walk. key is the node's items
// key, which differs from n.ID when an explicit id was given.
type WalkFunc func(key string, n Node, depth int) error

func (t Tree) Root() (Node, bool) {
	n, ok := t.Items[t.RootID]
	return n, ok
}

// Children returns the resolved children of id in order. Unknown ids are skipped.
func (t Tree) Children(id string) []Node {
	n, ok := t.Items[id]
	if !ok {
		return nil
	}
	out := make([]Node, 0, len(n.Children))
	for _, c := range n.Children {
		if child, ok := t.Items[c]; ok {
			out = append(out, child)
		}
	}
	return out
}

// Walk visits the tree depth-first in pre-order starting at the root. Each
// node is visited at most once, so hand-written cycles terminate.
func (t Tree) Walk(fn WalkFunc) error {
	if _, ok := t.Root(); !ok {
		return &MissingRootError{RootID: t.RootID}
	}
	visited := make(map[string]struct{}, len(t.Items))
	return t.walk(t.RootID, 0, visited, fn)
}

func (t Tree) walk(key string, depth int, visited map[string]struct{}, fn WalkFunc) error {
	n, ok := t.Items[key]
	if !ok {
		return nil
	}
	if _, ok := visited[key]; ok {
		return nil
	}
	visited[key] = struct{}{}

	if err := fn(key, n, depth); err != nil {
		if errors.Is(err, SkipChildren) {
			return nil
		}
		return err
	}
	for _, child := range n.Children {
		if err := t.walk(child, depth+1, visited, fn); err != nil {
			return err
		}
	}
	return nil
}

// Unreachable returns the sorted keys of nodes that cannot be reached from
// the root by following children. A missing root makes every node unreachable.
func (t Tree) Unreachable() []string {
	seen := make(map[string]struct{}, len(t.Items))
	_ = t.Walk(func(key string, _ Node, _ int) error {
		seen[key] = struct{}{}
		return nil
	})

	var out []string
	for key := range t.Items {
		if _, ok := seen[key]; !ok {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}
