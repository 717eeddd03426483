// Package domain defines the family graph and the operations that edit it.
//
// A FamilyGraph is an arena of PersonNodes addressed by id. Relations
// (father, mother, spouses, children) are ids, so the cycles between parents,
// children and spouses need no owning pointers.
//
// # Edit Operations
//
// AddMember, UpdateMember and DeleteMember are pure: each takes a graph and a
// command and returns a new graph, leaving its input untouched. Nodes that an
// edit does not touch are shared between the input and the output.
//
// # Invariants
//
// After every successful edit:
//
//   - every relation id names a node in the graph
//   - spouse links are symmetric
//   - a child listed under a parent has that parent as father or mother, and
//     the reverse
//   - no node references itself
//   - spouses and children hold no duplicates
//
// Validate reports the invariants a graph breaks, which matters for graphs
// that come from an import rather than from edits.
//
// # Errors
//
// A missing anchor or member yields a *NotFoundError (errors.Is ErrNotFound).
// Decoding failures in codecs yield a *MalformedDataError (errors.Is
// ErrMalformedData).
package domain
