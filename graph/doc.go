// Package graph aggregates node and edge kind registrations — with their
// uniqueness specs, cardinality, delete policy, endpoint types, and ontology
// relations — into a single Definition, and validates the definition's
// structural invariants before handing it to kind.Build.
//
// # Builder
//
// A Definition is assembled with a Builder:
//
//	b := graph.NewBuilder()
//	b.NodeKind(kind.NodeKind{Name: "Person"})
//	b.NodeKind(kind.NodeKind{Name: "Robot"})
//	b.EdgeKind(kind.EdgeKind{Name: "knows", FromKinds: []string{"Person"}, ToKinds: []string{"Person"}})
//	b.Relation(kind.OntologyRelation{Kind: kind.RelDisjointWith, A: "Person", B: "Robot"})
//	def, err := b.Build()
//
// # Validation
//
// Build validates definition invariants before constructing the Kind
// Registry: duplicate kind names, edge kinds with no declared endpoints,
// uniqueness constraints with empty field lists, and ontology relations
// naming kinds that were never registered. Ontology-level invariants (cyclic
// subclass, cyclic implication, double inverse) are then checked by
// kind.Build itself.
package graph
