// Package graph maintains the directed dependency graph of published
// contract versions.
//
// Nodes are contract version refs; edges point from a dependent version to a
// depended-upon contract identifier. The graph lives in immutable snapshots:
// the Store holds the current snapshot behind an atomic pointer, readers load
// it once and query it for as long as they like, and every successful commit
// swaps in a fresh snapshot under a new epoch. Commits are validated for
// cycles before they become visible, so the committed graph is always
// acyclic over version nodes.
package graph
