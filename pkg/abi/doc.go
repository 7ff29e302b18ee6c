// Package abi models the parsed interface description of a published
// contract version and extracts the set of contracts it references.
//
// The registry receives an InterfaceDocument alongside every publish. The
// document is the already-parsed form of the contract's interface artifact;
// parsing the artifact's concrete syntax happens upstream. Extract walks the
// declared imports, client bindings, and interface bindings and yields one
// Reference per distinct (target contract, kind) pair.
package abi
