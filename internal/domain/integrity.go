package domain

import "fmt"

// ViolationKind names a broken graph invariant
type ViolationKind string

const (
	ViolationDangling             ViolationKind = "dangling"
	ViolationSpouseAsymmetry      ViolationKind = "spouse_asymmetry"
	ViolationParentChildAsymmetry ViolationKind = "parent_child_asymmetry"
	ViolationSelfReference        ViolationKind = "self_reference"
	ViolationDuplicate            ViolationKind = "duplicate"
)

// Violation describes one broken invariant on one node
type Violation struct {
	Kind     ViolationKind `json:"kind"`
	NodeID   string        `json:"node_id"`
	Field    string        `json:"field"`
	TargetID string        `json:"target_id,omitempty"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s.%s -> %s", v.Kind, v.NodeID, v.Field, v.TargetID)
}

// Validate checks every node against the relation invariants and returns the
// violations in node order. A nil result means the graph is consistent.
func Validate(g *FamilyGraph) []Violation {
	var out []Violation
	for _, node := range g.Nodes() {
		out = append(out, validateNode(g, node)...)
	}
	return out
}

func validateNode(g *FamilyGraph, node *PersonNode) []Violation {
	var out []Violation
	add := func(kind ViolationKind, field, target string) {
		out = append(out, Violation{Kind: kind, NodeID: node.ID, Field: field, TargetID: target})
	}

	for _, field := range []struct {
		name string
		id   string
	}{
		{"father", node.Rels.Father},
		{"mother", node.Rels.Mother},
	} {
		if field.id == "" {
			continue
		}
		if field.id == node.ID {
			add(ViolationSelfReference, field.name, field.id)
			continue
		}
		parent, ok := g.FindByID(field.id)
		if !ok {
			add(ViolationDangling, field.name, field.id)
			continue
		}
		if !containsID(parent.Rels.Children, node.ID) {
			add(ViolationParentChildAsymmetry, field.name, field.id)
		}
	}

	seen := make(map[string]bool, len(node.Rels.Spouses))
	for _, id := range node.Rels.Spouses {
		switch {
		case seen[id]:
			add(ViolationDuplicate, "spouses", id)
			continue
		case id == node.ID:
			add(ViolationSelfReference, "spouses", id)
			continue
		}
		seen[id] = true
		spouse, ok := g.FindByID(id)
		if !ok {
			add(ViolationDangling, "spouses", id)
			continue
		}
		if !containsID(spouse.Rels.Spouses, node.ID) {
			add(ViolationSpouseAsymmetry, "spouses", id)
		}
	}

	seen = make(map[string]bool, len(node.Rels.Children))
	for _, id := range node.Rels.Children {
		switch {
		case seen[id]:
			add(ViolationDuplicate, "children", id)
			continue
		case id == node.ID:
			add(ViolationSelfReference, "children", id)
			continue
		}
		seen[id] = true
		child, ok := g.FindByID(id)
		if !ok {
			add(ViolationDangling, "children", id)
			continue
		}
		if child.Rels.Father != node.ID && child.Rels.Mother != node.ID {
			add(ViolationParentChildAsymmetry, "children", id)
		}
	}

	return out
}
