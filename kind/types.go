// Package kind holds the in-memory representation of a TypeGraph ontology:
// node/edge kind descriptors, uniqueness constraints, and the declarative
// ontology relations (subclass, disjointness, equivalence, inversion,
// implication) that the Registry (registry.go) compiles into closures.
package kind

import "time"

// ValueType enumerates the primitive property value types a node/edge
// property schema may describe. The schema itself stays opaque to this
// package (see the schema package's Validator interface); ValueType is only
// used where the compiler or DDL generator must know how to address a
// property path on the wire (JSON extraction, embedding distance operators).
type ValueType uint8

const (
	ValueString ValueType = iota
	ValueNumber
	ValueBoolean
	ValueDate
	ValueJSON
	ValueEmbedding
)

func (t ValueType) String() string {
	switch t {
	case ValueString:
		return "string"
	case ValueNumber:
		return "number"
	case ValueBoolean:
		return "boolean"
	case ValueDate:
		return "date"
	case ValueJSON:
		return "json"
	case ValueEmbedding:
		return "embedding"
	default:
		return "unknown"
	}
}

// DeleteBehavior controls what happens to a node's incident edges when the
// node is deleted (spec §4.6).
type DeleteBehavior uint8

const (
	// DeleteRestrict fails the delete if any live edge is incident to the node.
	DeleteRestrict DeleteBehavior = iota
	// DeleteCascade soft-deletes every incident edge in the same transaction.
	DeleteCascade
	// DeleteDisconnect soft-deletes incident edges without otherwise touching
	// the neighbor nodes; documented as preserving historical joins.
	DeleteDisconnect
)

// Cardinality constrains how many live edges of a kind may originate from a
// single source node (spec §3 invariant 4).
type Cardinality uint8

const (
	// CardinalityMany imposes no constraint.
	CardinalityMany Cardinality = iota
	// CardinalityOne allows at most one live edge of this kind per source node.
	CardinalityOne
	// CardinalityUnique allows at most one live edge per (from, to) pair.
	CardinalityUnique
	// CardinalityOneActive allows at most one edge per source node with
	// valid_to IS NULL.
	CardinalityOneActive
)

// UniqueScope controls how far a uniqueness constraint's key space extends.
type UniqueScope uint8

const (
	// ScopeKind restricts a constraint to exactly one node kind.
	ScopeKind UniqueScope = iota
	// ScopeKindWithSubClasses expands the scope to the full connected
	// subclass component rooted at the declared kind.
	ScopeKindWithSubClasses
)

// Collation controls how a uniqueness key's string components are folded
// before comparison.
type Collation uint8

const (
	CollationBinary Collation = iota
	CollationCaseInsensitive
)

// WherePredicate is a partial-index predicate over a node's (or edge's)
// property fields, restricting which rows participate in a UniqueConstraint.
// It is evaluated by the constraint package against an already-parsed props
// map; the compiler lowers the equivalent expression into SQL for the DDL
// generator (§6.3). Keep this minimal and serializable: only null-checks are
// named by the spec (§4.2 checkWherePredicate).
type WherePredicate struct {
	// Field is the property path the predicate inspects (dotted for nested
	// object fields, e.g. "address.country").
	Field string
	// Op is one of "notNull" or "isNull".
	Op string
}

// Evaluate reports whether props satisfies the predicate.
func (w WherePredicate) Evaluate(props map[string]any) bool {
	if w.Field == "" {
		return true
	}
	v, present := lookupPath(props, w.Field)
	switch w.Op {
	case "isNull":
		return !present || v == nil
	case "notNull", "":
		return present && v != nil
	default:
		return false
	}
}

func lookupPath(props map[string]any, path string) (any, bool) {
	cur := any(props)
	for _, seg := range splitPath(path) {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := m[seg]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

func splitPath(path string) []string {
	var segs []string
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			segs = append(segs, path[start:i])
			start = i + 1
		}
	}
	segs = append(segs, path[start:])
	return segs
}

// UniqueConstraint declares a named uniqueness constraint on a node kind
// (spec §3 UniqueConstraint).
type UniqueConstraint struct {
	Name      string
	Fields    []string
	Scope     UniqueScope
	Collation Collation
	Where     *WherePredicate // optional partial-index predicate
}

// NodeKind describes a declared node type (spec §3 NodeKind).
type NodeKind struct {
	Name       string
	Uniques    []UniqueConstraint
	OnDelete   DeleteBehavior
	Properties []PropertyDescriptor
}

// Unique looks up a declared constraint by name.
func (k NodeKind) Unique(name string) (UniqueConstraint, bool) {
	for _, u := range k.Uniques {
		if u.Name == name {
			return u, true
		}
	}
	return UniqueConstraint{}, false
}

// EdgeKind describes a declared edge type (spec §3 EdgeKind).
type EdgeKind struct {
	Name        string
	FromKinds   []string
	ToKinds     []string
	Cardinality Cardinality
	Properties  []PropertyDescriptor
}

// PropertyDescriptor is a minimal, serializable description of one property
// on a node or edge kind's schema, enough for the compiler and DDL generator
// to address it (column/path + value type) without needing to know how the
// opaque Validator parses or defaults it.
type PropertyDescriptor struct {
	Name  string
	Type  ValueType
	Array bool
}

// OntologyRelationKind enumerates the ontology-relation variants the
// Registry understands (spec §3 OntologyRelation, §4.1).
type OntologyRelationKind uint8

const (
	RelSubClassOf OntologyRelationKind = iota
	RelDisjointWith
	RelEquivalentTo
	RelSameAs
	RelPartOf
	RelHasPart
	RelRelatedTo
	RelInverseOf
	RelImplies
	RelMeta // user-defined meta-edge relation
)

// OntologyRelation is a single declarative fact about the ontology.
//
// For node-kind relations (subClassOf, disjointWith, equivalentTo, sameAs,
// partOf, hasPart, relatedTo) A and B name node kinds. For edge-kind
// relations (inverseOf, implies) A and B name edge kinds.
type OntologyRelation struct {
	Kind OntologyRelationKind
	A, B string

	// Transitive and InferenceMode only apply to user-defined Meta relations;
	// all built-in relation kinds carry their own fixed transitivity.
	Transitive    bool
	InferenceMode string
}

// TemporalMode is a query-time filter over deletion and validity columns
// (spec §3 invariant 6, GLOSSARY).
type TemporalMode struct {
	Mode string // "current" | "includeTombstones" | "includeEnded" | "asOf"
	AsOf time.Time
}

var (
	TemporalCurrent           = TemporalMode{Mode: "current"}
	TemporalIncludeTombstones = TemporalMode{Mode: "includeTombstones"}
	TemporalIncludeEnded      = TemporalMode{Mode: "includeEnded"}
)

// TemporalAsOf builds a TemporalMode filtering by the half-open validity
// window [valid_from, valid_to) as of t, ignoring tombstones.
func TemporalAsOf(t time.Time) TemporalMode {
	return TemporalMode{Mode: "asOf", AsOf: t}
}

// Meta carries the bookkeeping columns shared by nodes and edges (spec §3).
type Meta struct {
	Version   int
	ValidFrom *time.Time
	ValidTo   *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// Node is a materialized node row (spec §3).
type Node struct {
	Kind  string
	ID    string
	Props map[string]any
	Meta  Meta
}

// Edge is a materialized edge row (spec §3).
type Edge struct {
	Kind     string
	ID       string
	FromKind string
	FromID   string
	ToKind   string
	ToID     string
	Props    map[string]any
	Meta     Meta
}
