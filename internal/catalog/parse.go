package catalog

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"layertree/core-go/internal/tree"
)

// Definition is one named raw tree from the catalog document.
type Definition struct {
	Name string
	Raw  tree.RawTree
}

type document struct {
	Trees yaml.Node `yaml:"trees"`
}

type definitionDoc struct {
	Root  string    `yaml:"root" validate:"required"`
	Items yaml.Node `yaml:"items" validate:"-"`
}

var validate = validator.New()

// Parse decodes a catalog document. Tree names and item keys keep the order
// they appear in the document; item order becomes the normalization order.
func Parse(data []byte) ([]Definition, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if doc.Trees.Kind == 0 {
		return nil, errors.New("parse catalog: no trees defined")
	}
	if doc.Trees.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse catalog: line %d: trees must be a mapping", doc.Trees.Line)
	}

	defs := make([]Definition, 0, len(doc.Trees.Content)/2)
	seen := make(map[string]struct{}, len(doc.Trees.Content)/2)
	for i := 0; i+1 < len(doc.Trees.Content); i += 2 {
		name := doc.Trees.Content[i].Value
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("parse catalog: line %d: duplicate tree %q", doc.Trees.Content[i].Line, name)
		}
		seen[name] = struct{}{}

		var dd definitionDoc
		if err := doc.Trees.Content[i+1].Decode(&dd); err != nil {
			return nil, fmt.Errorf("tree %q: %w", name, err)
		}
		if err := validate.Struct(dd); err != nil {
			return nil, fmt.Errorf("tree %q: %w", name, err)
		}

		items, order, err := decodeItems(&dd.Items)
		if err != nil {
			return nil, fmt.Errorf("tree %q: %w", name, err)
		}
		defs = append(defs, Definition{
			Name: name,
			Raw:  tree.RawTree{RootID: dd.Root, Items: items, Order: order},
		})
	}
	return defs, nil
}

func decodeItems(node *yaml.Node) (map[string]tree.PartialNode, []string, error) {
	if node.Kind == 0 {
		return map[string]tree.PartialNode{}, nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, nil, fmt.Errorf("line %d: items must be a mapping", node.Line)
	}

	items := make(map[string]tree.PartialNode, len(node.Content)/2)
	order := make([]string, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if _, ok := items[key]; ok {
			return nil, nil, fmt.Errorf("line %d: duplicate item %q", node.Content[i].Line, key)
		}

		var p tree.PartialNode
		if err := node.Content[i+1].Decode(&p); err != nil {
			return nil, nil, fmt.Errorf("item %q: %w", key, err)
		}
		if err := validate.Struct(p); err != nil {
			return nil, nil, fmt.Errorf("item %q: %w", key, err)
		}
		items[key] = p
		order = append(order, key)
	}
	return items, order, nil
}
