// Package query defines the immutable query AST and the fluent Builder
// that constructs it (spec §4.3), plus opaque cursor encode/decode (spec
// §6.4). Nothing in this package touches SQL or a backend: the compiler
// package lowers an AST into dialect SQL text.
package query

import "time"

// Direction is a TraversalStep's edge direction.
type Direction uint8

const (
	Out Direction = iota
	In
)

// ExpandMode controls how a TraversalStep's declared edge kind widens to
// include its ontology-implied neighbors (spec §4.3 TraversalStep).
type ExpandMode uint8

const (
	ExpandInverse ExpandMode = iota // default: widen to the edge's declared inverse, if any
	ExpandNone
	ExpandImplying
	ExpandAll
)

// CyclePolicy controls whether a RecursiveSpec permits revisiting a node
// already on the current path.
type CyclePolicy uint8

const (
	CyclePrevent CyclePolicy = iota
	CycleAllow
)

// SetOpKind names a set operation combining two query ASTs.
type SetOpKind uint8

const (
	SetUnion SetOpKind = iota
	SetUnionAll
	SetIntersect
	SetExcept
)

// TemporalMode mirrors kind.TemporalMode; duplicated here (rather than
// imported) so the query AST has no dependency on the kind package —
// compiler is the only package that needs to reconcile the two.
type TemporalMode struct {
	Mode string // "current" | "includeTombstones" | "includeEnded" | "asOf"
	AsOf time.Time
}

var (
	TemporalCurrent           = TemporalMode{Mode: "current"}
	TemporalIncludeTombstones = TemporalMode{Mode: "includeTombstones"}
	TemporalIncludeEnded      = TemporalMode{Mode: "includeEnded"}
)

// TemporalAsOf builds an as-of TemporalMode.
func TemporalAsOf(t time.Time) TemporalMode { return TemporalMode{Mode: "asOf", AsOf: t} }

// FromClause anchors a query at a node kind (spec §4.3 FromClause).
type FromClause struct {
	Kind             string
	Alias            string
	ExpandSubClasses bool
}

// RecursiveSpec configures a recursive traversal step (spec §4.3
// RecursiveSpec). Unbounded recursion is capped at depth 100; an explicit
// MaxHops must be <= 1000 (enforced by the compiler's validation pass).
type RecursiveSpec struct {
	MinHops     int
	MaxHops     int // 0 means unbounded (capped at depth 100)
	CyclePolicy CyclePolicy
	DepthAlias  string
	PathAlias   string
}

// TraversalStep moves from a previously bound alias across an edge kind
// (spec §4.3 TraversalStep).
type TraversalStep struct {
	EdgeKind  string
	EdgeAlias string
	Direction Direction
	Optional  bool
	// Anchor names a prior alias to traverse from (fan-out pattern). Empty
	// means "the most recently bound alias".
	Anchor    string
	Expand    ExpandMode
	Recursive *RecursiveSpec
}

// ToClause names the traversal step's destination alias (spec §4.3
// ToClause).
type ToClause struct {
	Kind             string
	Alias            string
	IncludeSubClasses bool
}

// Param is a placeholder bound at execute time (spec §4.3 Param).
type Param struct {
	Name string
}

// OrderTerm is one ORDER BY term (spec §4.3 OrderBy); null-ordering is
// fixed by the compiler (nulls trail ascending, lead descending).
type OrderTerm struct {
	Alias string
	Prop  string
	Desc  bool
}

// Pagination configures cursor-based paging (spec §4.3, §4.4, §6.4).
type Pagination struct {
	First  *int
	Last   *int
	After  string // opaque cursor
	Before string // opaque cursor
}

// SetOp composes this query's result with another query AST (spec §4.3
// SetOp). Query is declared in builder.go; SetOp references it by pointer
// since both live in the same package.
type SetOp struct {
	Kind  SetOpKind
	Other *Query
}

// AggregateKind enumerates supported aggregate functions (spec §4.3
// Aggregates).
type AggregateKind uint8

const (
	AggCount AggregateKind = iota
	AggSum
	AggAvg
	AggMin
	AggMax
)

// Aggregate is one aggregate projection or group-by/having term.
type Aggregate struct {
	Kind  AggregateKind
	Alias string // node/edge alias the aggregate reads from
	Field string // property name; empty for Count(*)
}

// GroupByTerm groups by either a specific property on an alias, or by the
// entire node identity of an alias (groupByNode).
type GroupByTerm struct {
	Alias string
	Prop  string // empty means groupByNode(alias)
}

// ProjectionSource tags what a Projection entry pulls its value from.
type ProjectionSource uint8

const (
	ProjectNode ProjectionSource = iota
	ProjectEdge
	ProjectMeta
	ProjectAggregate
	ProjectDepth
	ProjectPath
	ProjectLiteral
)

// ProjectionTerm is one output column (spec §4.3 Projection).
type ProjectionTerm struct {
	OutputKey string
	Source    ProjectionSource
	Alias     string // node/edge alias, for Node/Edge/Meta/Depth/Path sources
	Prop      string // property name, for Node/Edge sources
	MetaField string // "version" | "validFrom" | "validTo" | "createdAt" | "updatedAt" | "deletedAt"
	Aggregate *Aggregate
	Literal   any
}
