// Package service coordinates the family-graph engine with storage.
//
// TreeService loads a tree from a repository.Repository, applies one edit
// from the domain package, persists the result and publishes an Event. Edits
// to the same tree are serialized; the engine itself stays pure.
//
// # Import strategies
//
// "replace" (the default) swaps the stored tree for the imported document.
// "merge" keeps stored members the document does not mention and replaces
// those it does; new members are appended after existing ones.
//
// # Event System
//
// Every successful write publishes an Event on the EventBus. The SSE hub
// relays them to connected browsers. Slow subscribers miss events rather
// than block writers.
package service
