// Package constraint implements the Validator & Constraint Engine: the pure
// functions the Store calls before and after invoking the opaque property
// schema.Validator (spec §4.2).
//
// None of these functions touch a backend. They operate on already-loaded
// state (a registry, a props map, an existing-kinds slice, an edge count)
// and either return a value or one of the typed errors in the root
// typegraph package. The Store is responsible for loading that state via
// the adapter and for wrapping these calls in a transaction.
package constraint
