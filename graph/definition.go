package graph

import (
	"fmt"

	"github.com/nicia-ai/typegraph/kind"
)

// Definition is the fully validated, immutable aggregate of a graph's
// node/edge kind registrations and ontology relations, plus the compiled
// Kind Registry built from them (spec §2 "Graph Definition").
type Definition struct {
	NodeKinds []kind.NodeKind
	EdgeKinds []kind.EdgeKind
	Relations []kind.OntologyRelation
	Registry  *kind.Registry
}

// Builder accumulates node kinds, edge kinds, and ontology relations before
// validating and building a Definition. The zero value is ready to use.
type Builder struct {
	nodeKinds []kind.NodeKind
	edgeKinds []kind.EdgeKind
	relations []kind.OntologyRelation
	err       error
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder { return &Builder{} }

// NodeKind registers a node kind. Returns the Builder for chaining.
func (b *Builder) NodeKind(nk kind.NodeKind) *Builder {
	b.nodeKinds = append(b.nodeKinds, nk)
	return b
}

// EdgeKind registers an edge kind. Returns the Builder for chaining.
func (b *Builder) EdgeKind(ek kind.EdgeKind) *Builder {
	b.edgeKinds = append(b.edgeKinds, ek)
	return b
}

// Relation registers an ontology relation. Returns the Builder for chaining.
func (b *Builder) Relation(rel kind.OntologyRelation) *Builder {
	b.relations = append(b.relations, rel)
	return b
}

// Build validates the accumulated definition and constructs the Kind
// Registry, returning a *DefinitionError (definition-level) or the
// Registry's own *kind.BuildError (ontology-level) on failure.
func (b *Builder) Build() (*Definition, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}
	reg, err := kind.Build(b.nodeKinds, b.edgeKinds, b.relations)
	if err != nil {
		return nil, err
	}
	return &Definition{
		NodeKinds: b.nodeKinds,
		EdgeKinds: b.edgeKinds,
		Relations: b.relations,
		Registry:  reg,
	}, nil
}

func (b *Builder) validate() error {
	seen := map[string]struct{}{}
	for _, nk := range b.nodeKinds {
		if nk.Name == "" {
			return &DefinitionError{"node kind declared with empty name"}
		}
		if _, dup := seen[nk.Name]; dup {
			return &DefinitionError{fmt.Sprintf("duplicate node kind %q", nk.Name)}
		}
		seen[nk.Name] = struct{}{}
		for _, u := range nk.Uniques {
			if u.Name == "" {
				return &DefinitionError{fmt.Sprintf("node kind %q declares a uniqueness constraint with no name", nk.Name)}
			}
			if len(u.Fields) == 0 {
				return &DefinitionError{fmt.Sprintf("uniqueness constraint %q on %q declares no fields", u.Name, nk.Name)}
			}
		}
	}

	edgeSeen := map[string]struct{}{}
	for _, ek := range b.edgeKinds {
		if ek.Name == "" {
			return &DefinitionError{"edge kind declared with empty name"}
		}
		if _, dup := edgeSeen[ek.Name]; dup {
			return &DefinitionError{fmt.Sprintf("duplicate edge kind %q", ek.Name)}
		}
		edgeSeen[ek.Name] = struct{}{}
		if len(ek.FromKinds) == 0 {
			return &DefinitionError{fmt.Sprintf("edge kind %q declares no from-kinds", ek.Name)}
		}
		if len(ek.ToKinds) == 0 {
			return &DefinitionError{fmt.Sprintf("edge kind %q declares no to-kinds", ek.Name)}
		}
		for _, fk := range ek.FromKinds {
			if _, ok := seen[fk]; !ok {
				return &DefinitionError{fmt.Sprintf("edge kind %q references undeclared from-kind %q", ek.Name, fk)}
			}
		}
		for _, tk := range ek.ToKinds {
			if _, ok := seen[tk]; !ok {
				return &DefinitionError{fmt.Sprintf("edge kind %q references undeclared to-kind %q", ek.Name, tk)}
			}
		}
	}

	for _, rel := range b.relations {
		switch rel.Kind {
		case kind.RelSubClassOf, kind.RelDisjointWith, kind.RelEquivalentTo, kind.RelSameAs,
			kind.RelPartOf, kind.RelHasPart, kind.RelRelatedTo:
			if _, ok := seen[rel.A]; !ok {
				return &DefinitionError{fmt.Sprintf("ontology relation references undeclared node kind %q", rel.A)}
			}
			if _, ok := seen[rel.B]; !ok {
				return &DefinitionError{fmt.Sprintf("ontology relation references undeclared node kind %q", rel.B)}
			}
		case kind.RelInverseOf, kind.RelImplies:
			if _, ok := edgeSeen[rel.A]; !ok {
				return &DefinitionError{fmt.Sprintf("ontology relation references undeclared edge kind %q", rel.A)}
			}
			if _, ok := edgeSeen[rel.B]; !ok {
				return &DefinitionError{fmt.Sprintf("ontology relation references undeclared edge kind %q", rel.B)}
			}
		}
	}
	return nil
}

// DefinitionError reports a malformed graph definition: a duplicate or
// unnamed kind, an edge kind with no declared endpoints, a uniqueness
// constraint with no fields, or a relation naming an unregistered kind.
type DefinitionError struct {
	Message string
}

func (e *DefinitionError) Error() string { return "typegraph: definition error: " + e.Message }
