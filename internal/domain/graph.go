package domain

import (
	"bytes"
	"encoding/json"
	"reflect"
)

// FamilyGraph is an arena of person nodes addressed by id.
// Insertion order is kept so exports are deterministic.
type FamilyGraph struct {
	order []string
	nodes map[string]*PersonNode
}

// NewFamilyGraph creates an empty graph
func NewFamilyGraph() *FamilyGraph {
	return &FamilyGraph{
		order: make([]string, 0),
		nodes: make(map[string]*PersonNode),
	}
}

// FindByID returns the node with the given id. A missing id is not an error;
// callers decide what to do with it.
func (g *FamilyGraph) FindByID(id string) (*PersonNode, bool) {
	if g == nil || g.nodes == nil {
		return nil, false
	}
	node, ok := g.nodes[id]
	return node, ok
}

// Len returns the number of nodes
func (g *FamilyGraph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.order)
}

// IDs returns node ids in insertion order
func (g *FamilyGraph) IDs() []string {
	if g == nil {
		return nil
	}
	return cloneIDs(g.order)
}

// Nodes returns the nodes in insertion order. The nodes are shared with the
// graph and must be treated as read-only.
func (g *FamilyGraph) Nodes() []*PersonNode {
	if g == nil {
		return nil
	}
	out := make([]*PersonNode, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// Put inserts node, or replaces the node with the same id in place.
// Used when building a graph from an import or a store; edits go through
// AddMember, UpdateMember and DeleteMember.
func (g *FamilyGraph) Put(node *PersonNode) {
	if g.nodes == nil {
		g.nodes = make(map[string]*PersonNode)
	}
	if _, exists := g.nodes[node.ID]; !exists {
		g.order = append(g.order, node.ID)
	}
	g.nodes[node.ID] = node
}

// Clone returns a deep copy of the graph
func (g *FamilyGraph) Clone() *FamilyGraph {
	out := NewFamilyGraph()
	for _, node := range g.Nodes() {
		out.Put(node.Clone())
	}
	return out
}

// shallowCopy returns a graph that shares every node with g.
// Nodes must be replaced, not modified, in the copy (see edit.mutable).
func (g *FamilyGraph) shallowCopy() *FamilyGraph {
	out := &FamilyGraph{
		order: cloneIDs(g.order),
		nodes: make(map[string]*PersonNode, len(g.nodes)),
	}
	if out.order == nil {
		out.order = make([]string, 0)
	}
	for id, node := range g.nodes {
		out.nodes[id] = node
	}
	return out
}

// remove drops a node and its slot in the order
func (g *FamilyGraph) remove(id string) {
	delete(g.nodes, id)
	g.order = removeID(g.order, id)
}

// Equal reports whether two graphs are structurally equal: same ids in the
// same order, same attributes and same relations. Nil and empty collections
// compare equal.
func Equal(a, b *FamilyGraph) bool {
	if a.Len() != b.Len() {
		return false
	}
	ao, bo := a.IDs(), b.IDs()
	for i := range ao {
		if ao[i] != bo[i] {
			return false
		}
		an, _ := a.FindByID(ao[i])
		bn, _ := b.FindByID(bo[i])
		if !nodesEqual(an, bn) {
			return false
		}
	}
	return true
}

func nodesEqual(a, b *PersonNode) bool {
	if a.ID != b.ID {
		return false
	}
	if a.Rels.Father != b.Rels.Father || a.Rels.Mother != b.Rels.Mother {
		return false
	}
	if !idsEqual(a.Rels.Spouses, b.Rels.Spouses) || !idsEqual(a.Rels.Children, b.Rels.Children) {
		return false
	}
	if len(a.Data) != len(b.Data) {
		return false
	}
	for k, av := range a.Data {
		bv, ok := b.Data[k]
		if !ok || !valuesEqual(av, bv) {
			return false
		}
	}
	return true
}

// valuesEqual compares attribute values by their export encoding, so that
// int(1950) and the float64(1950) a JSON import yields are the same value.
func valuesEqual(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	aj, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bj, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(aj, bj)
}

func idsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
