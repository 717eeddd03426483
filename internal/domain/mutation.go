package domain

import "fmt"

// RelationKind selects how AddMember attaches a new person to the anchor
type RelationKind string

const (
	RelationChild  RelationKind = "child"
	RelationSpouse RelationKind = "spouse"
	RelationParent RelationKind = "parent"
)

// ParseRelationKind validates a relation kind from user input
func ParseRelationKind(s string) (RelationKind, error) {
	switch k := RelationKind(s); k {
	case RelationChild, RelationSpouse, RelationParent:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRelation, s)
}

// parentSlot is the relation field a parent occupies on a child
type parentSlot int

const (
	slotFather parentSlot = iota
	slotMother
)

// slotFor picks the slot for a parent of the given gender: F is mother, anything else father
func slotFor(g Gender) parentSlot {
	if g == GenderFemale {
		return slotMother
	}
	return slotFather
}

func (s parentSlot) other() parentSlot {
	if s == slotFather {
		return slotMother
	}
	return slotFather
}

func (s parentSlot) get(r *Relations) string {
	if s == slotMother {
		return r.Mother
	}
	return r.Father
}

func (s parentSlot) set(r *Relations, id string) {
	if s == slotMother {
		r.Mother = id
	} else {
		r.Father = id
	}
}

// edit is a copy-on-write view over a graph. The source graph and its nodes
// are never modified; a node is cloned the first time it is touched.
type edit struct {
	g       *FamilyGraph
	touched map[string]bool
}

func newEdit(src *FamilyGraph) *edit {
	return &edit{
		g:       src.shallowCopy(),
		touched: make(map[string]bool),
	}
}

// mutable returns a private copy of node id that may be modified
func (e *edit) mutable(id string) *PersonNode {
	node, ok := e.g.nodes[id]
	if !ok {
		return nil
	}
	if !e.touched[id] {
		node = node.Clone()
		e.g.nodes[id] = node
		e.touched[id] = true
	}
	return node
}

// insert adds a node created during this edit
func (e *edit) insert(node *PersonNode) {
	e.g.Put(node)
	e.touched[node.ID] = true
}

// linkParent points child's slot at parentID and adds child to the parent's
// children. A parent displaced from the slot loses child from its children.
func (e *edit) linkParent(childID, parentID string, slot parentSlot) {
	child := e.mutable(childID)
	if prev := slot.get(&child.Rels); prev != "" && prev != parentID {
		if displaced := e.mutable(prev); displaced != nil {
			displaced.Rels.Children = removeID(displaced.Rels.Children, childID)
		}
	}
	slot.set(&child.Rels, parentID)

	parent := e.mutable(parentID)
	parent.Rels.Children = appendID(parent.Rels.Children, childID)
}

// AddMember creates a new person related to anchorID and returns the new
// graph and the new person's id. The input graph is left unchanged.
//
// A child gets the anchor as father (or mother if the anchor is F) and the
// anchor's first spouse as the other parent. A spouse is linked both ways,
// defaults to the opposite gender of the anchor and adopts the anchor's
// children. A parent becomes the anchor's mother if attrs gender is F,
// otherwise its father. An occupied parent slot is overwritten.
func AddMember(g *FamilyGraph, ids IDGenerator, anchorID string, attrs Attributes, kind RelationKind) (*FamilyGraph, string, error) {
	anchor, ok := g.FindByID(anchorID)
	if !ok {
		return nil, "", &NotFoundError{ID: anchorID}
	}
	if _, err := ParseRelationKind(string(kind)); err != nil {
		return nil, "", err
	}

	e := newEdit(g)
	newID := ids.NewID()
	if _, exists := g.FindByID(newID); exists || newID == "" {
		return nil, "", fmt.Errorf("id generator returned unusable id %q", newID)
	}
	member := NewPersonNode(newID, attrs)

	switch kind {
	case RelationChild:
		e.insert(member)
		anchorSlot := slotFor(anchor.Gender())
		e.linkParent(newID, anchorID, anchorSlot)
		if len(anchor.Rels.Spouses) > 0 {
			spouseID := anchor.Rels.Spouses[0]
			if _, ok := g.FindByID(spouseID); ok {
				e.linkParent(newID, spouseID, anchorSlot.other())
			}
		}

	case RelationSpouse:
		if !attrs.Has(AttrGender) {
			if opposite := anchor.Gender().Opposite(); opposite != GenderUnknown {
				member.Data[AttrGender] = string(opposite)
			}
		}
		e.insert(member)

		a := e.mutable(anchorID)
		a.Rels.Spouses = appendID(a.Rels.Spouses, newID)
		member.Rels.Spouses = appendID(member.Rels.Spouses, anchorID)

		slot := slotFor(member.Gender())
		for _, childID := range anchor.Rels.Children {
			child, ok := e.g.nodes[childID]
			if !ok {
				continue
			}
			s := slot
			if s.get(&child.Rels) == anchorID {
				s = s.other()
			}
			e.linkParent(childID, newID, s)
		}

	case RelationParent:
		e.insert(member)
		e.linkParent(anchorID, newID, slotFor(attrs.Gender()))
	}

	return e.g, newID, nil
}

// UpdateMember shallow-merges attrs into the member's attributes. Keys absent
// from attrs are kept; relations are untouched.
func UpdateMember(g *FamilyGraph, memberID string, attrs Attributes) (*FamilyGraph, error) {
	if _, ok := g.FindByID(memberID); !ok {
		return nil, &NotFoundError{ID: memberID}
	}

	e := newEdit(g)
	node := e.mutable(memberID)
	if node.Data == nil {
		node.Data = make(Attributes, len(attrs))
	}
	for k, v := range attrs {
		node.Data[k] = v
	}
	return e.g, nil
}

// DeleteMember removes a member and every reference to it from the other nodes
func DeleteMember(g *FamilyGraph, memberID string) (*FamilyGraph, error) {
	if _, ok := g.FindByID(memberID); !ok {
		return nil, &NotFoundError{ID: memberID}
	}

	e := newEdit(g)
	for _, id := range g.order {
		if id == memberID {
			continue
		}
		node := g.nodes[id]
		if !references(node, memberID) {
			continue
		}
		n := e.mutable(id)
		n.Rels.Children = removeID(n.Rels.Children, memberID)
		n.Rels.Spouses = removeID(n.Rels.Spouses, memberID)
		if n.Rels.Father == memberID {
			n.Rels.Father = ""
		}
		if n.Rels.Mother == memberID {
			n.Rels.Mother = ""
		}
	}
	e.g.remove(memberID)
	return e.g, nil
}

// references reports whether node points at id through any relation
func references(node *PersonNode, id string) bool {
	return node.Rels.Father == id ||
		node.Rels.Mother == id ||
		containsID(node.Rels.Spouses, id) ||
		containsID(node.Rels.Children, id)
}
