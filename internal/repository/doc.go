// Package repository defines the persistence boundary for family trees.
//
// The edit engine in package domain never performs I/O. Callers load a tree
// through a Repository, apply an edit, and save the returned graph.
//
// # Implementations
//
// The sqlite subpackage stores one row per person with relation ids in
// dedicated columns and attributes as JSON, preserving node order so that
// exports stay deterministic.
//
// The memory subpackage keeps deep copies of graphs in a map. It serves tests
// and the "memory" database driver.
package repository
