package tree

// Kind controls single- vs multi-select semantics among siblings.
type Kind string

const (
	KindCheckbox Kind = "checkbox"
	KindRadio    Kind = "radio"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == KindCheckbox || k == KindRadio
}

// Node is a fully specified tree entry.
type Node struct {
	ID                string   `json:"id"`
	Kind              Kind     `json:"kind"`
	Title             string   `json:"title"`
	Children          []string `json:"children"`
	HasChildren       bool     `json:"hasChildren"`
	HasParent         bool     `json:"hasParent"`
	ParentID          string   `json:"parentId,omitempty"`
	IsExpanded        bool     `json:"isExpanded"`
	IsChecked         bool     `json:"isChecked"`
	IsChildrenLoading bool     `json:"isChildrenLoading"`
}

// PartialNode is a node record as supplied by configuration. Nil fields are absent.
type PartialNode struct {
	ID                *string  `json:"id,omitempty" yaml:"id,omitempty"`
	Kind              *Kind    `json:"kind,omitempty" yaml:"kind,omitempty" validate:"omitempty,oneof=checkbox radio"`
	Title             *string  `json:"title,omitempty" yaml:"title,omitempty"`
	Children          []string `json:"children,omitempty" yaml:"children,omitempty"`
	HasChildren       *bool    `json:"hasChildren,omitempty" yaml:"hasChildren,omitempty"`
	HasParent         *bool    `json:"hasParent,omitempty" yaml:"hasParent,omitempty"`
	ParentID          *string  `json:"parentId,omitempty" yaml:"parentId,omitempty"`
	IsExpanded        *bool    `json:"isExpanded,omitempty" yaml:"isExpanded,omitempty"`
	IsChecked         *bool    `json:"isChecked,omitempty" yaml:"isChecked,omitempty"`
	IsChildrenLoading *bool    `json:"isChildrenLoading,omitempty" yaml:"isChildrenLoading,omitempty"`
}

// RawTree is the normalizer input.
//
// Order fixes the key iteration order. Keys not listed in Order are visited
// afterwards in lexical order, so normalization is deterministic either way.
type RawTree struct {
	RootID string                 `json:"rootId"`
	Items  map[string]PartialNode `json:"items"`
	Order  []string               `json:"-"`
}

// Tree is a normalized tree. Order records the key order normalization used.
type Tree struct {
	RootID string          `json:"rootId"`
	Items  map[string]Node `json:"items"`
	Order  []string        `json:"-"`
}

// Raw converts a normalized tree back into normalizer input with every field
// explicitly set.
func (t Tree) Raw() RawTree {
	items := make(map[string]PartialNode, len(t.Items))
	for key, n := range t.Items {
		p := PartialNode{
			ID:                &n.ID,
			Kind:              &n.Kind,
			Title:             &n.Title,
			Children:          append([]string(nil), n.Children...),
			HasChildren:       &n.HasChildren,
			HasParent:         &n.HasParent,
			IsExpanded:        &n.IsExpanded,
			IsChecked:         &n.IsChecked,
			IsChildrenLoading: &n.IsChildrenLoading,
		}
		if n.ParentID != "" {
			p.ParentID = &n.ParentID
		}
		items[key] = p
	}
	return RawTree{RootID: t.RootID, Items: items, Order: append([]string(nil), t.Order...)}
}
