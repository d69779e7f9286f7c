package query

// OperandKind tags which variant an Operand holds (spec §4.3 Predicates:
// "tagged-variant operand types").
type OperandKind uint8

const (
	OperandSystemColumn OperandKind = iota
	OperandPropPath
	OperandLiteral
	OperandAggregate
	OperandParam
)

// SystemColumn names a fixed metadata column rather than a JSON property.
type SystemColumn string

const (
	ColID        SystemColumn = "id"
	ColKind      SystemColumn = "kind"
	ColVersion   SystemColumn = "version"
	ColValidFrom SystemColumn = "valid_from"
	ColValidTo   SystemColumn = "valid_to"
	ColCreatedAt SystemColumn = "created_at"
	ColUpdatedAt SystemColumn = "updated_at"
	ColDeletedAt SystemColumn = "deleted_at"
)

// Operand is one side of a predicate comparison: a system column, a
// dotted property path, a literal value, an aggregate result, or a named
// Param resolved at execute time.
type Operand struct {
	Kind      OperandKind
	Alias     string // owning node/edge alias, for SystemColumn/PropPath/Aggregate
	Column    SystemColumn
	Path      string
	Literal   any
	Aggregate *Aggregate
	Param     Param
}

// Col builds a SystemColumn operand.
func Col(alias string, c SystemColumn) Operand {
	return Operand{Kind: OperandSystemColumn, Alias: alias, Column: c}
}

// Prop builds a PropPath operand for a (possibly dotted) property path.
func Prop(alias, path string) Operand {
	return Operand{Kind: OperandPropPath, Alias: alias, Path: path}
}

// Lit builds a Literal operand.
func Lit(v any) Operand { return Operand{Kind: OperandLiteral, Literal: v} }

// ParamOperand builds a Param operand bound at execute time.
func ParamOperand(name string) Operand { return Operand{Kind: OperandParam, Param: Param{Name: name}} }

// AggOperand builds an Aggregate operand, used in Having predicates.
func AggOperand(agg Aggregate) Operand { return Operand{Kind: OperandAggregate, Aggregate: &agg} }

// Op names a predicate operator (spec §4.3 Predicates, per-value-type
// operator lists).
type Op uint8

const (
	OpEQ Op = iota
	OpNEQ
	OpGT
	OpGTE
	OpLT
	OpLTE
	OpBetween
	OpIn
	OpNotIn
	OpLike
	OpILike
	OpStartsWith
	OpEndsWith
	OpContains // string substring OR array-contains(v), disambiguated by operand array-ness at compile time
	OpIsNull
	OpIsNotNull
	OpArrayContainsAll
	OpArrayContainsAny
	OpArrayIsEmpty
	OpArrayIsNotEmpty
	OpArrayLengthGte
	OpObjectHasKey
	OpObjectPathEquals
	OpObjectPathIsNull
	OpSimilarTo
)

// SimilarityMetric names an embedding distance function (spec §4.3
// Predicates: Embedding.similarTo).
type SimilarityMetric uint8

const (
	MetricCosine SimilarityMetric = iota
	MetricL2
	MetricInnerProduct
)

// SimilarOptions configures a SimilarTo predicate.
type SimilarOptions struct {
	Metric   SimilarityMetric
	K        int
	MinScore *float64
}

// PredicateKind tags a Predicate node's variant: a leaf comparison or a
// boolean combinator over child predicates.
type PredicateKind uint8

const (
	PredLeaf PredicateKind = iota
	PredAnd
	PredOr
	PredNot
)

// Predicate is one node of the boolean predicate tree (spec §4.3
// Predicates). Leaf nodes compare Left against Right (Right unused for
// IsNull/IsNotNull/ArrayIsEmpty/ArrayIsNotEmpty) or Right/Values for
// In/NotIn/Between/array operators; combinator nodes hold Children.
type Predicate struct {
	Kind PredicateKind

	Op      Op
	Left    Operand
	Right   Operand
	Values  []Operand // In, NotIn, ContainsAll, ContainsAny
	Between struct{ Lo, Hi Operand }
	Similar SimilarOptions

	Children []Predicate // And/Or (len >= 0), Not (len == 1)
}

// Eq builds an equality leaf predicate.
func Eq(left, right Operand) Predicate { return leaf(OpEQ, left, right) }

// Neq builds an inequality leaf predicate.
func Neq(left, right Operand) Predicate { return leaf(OpNEQ, left, right) }

// Gt builds a greater-than leaf predicate.
func Gt(left, right Operand) Predicate { return leaf(OpGT, left, right) }

// Gte builds a greater-or-equal leaf predicate.
func Gte(left, right Operand) Predicate { return leaf(OpGTE, left, right) }

// Lt builds a less-than leaf predicate.
func Lt(left, right Operand) Predicate { return leaf(OpLT, left, right) }

// Lte builds a less-or-equal leaf predicate.
func Lte(left, right Operand) Predicate { return leaf(OpLTE, left, right) }

// BetweenOp builds a BETWEEN leaf predicate.
func BetweenOp(left, lo, hi Operand) Predicate {
	p := leaf(OpBetween, left, Operand{})
	p.Between.Lo, p.Between.Hi = lo, hi
	return p
}

// InOp builds an IN leaf predicate.
func InOp(left Operand, values ...Operand) Predicate {
	p := leaf(OpIn, left, Operand{})
	p.Values = values
	return p
}

// NotInOp builds a NOT IN leaf predicate.
func NotInOp(left Operand, values ...Operand) Predicate {
	p := leaf(OpNotIn, left, Operand{})
	p.Values = values
	return p
}

// Like builds a LIKE leaf predicate (caller-supplied wildcard pattern).
func Like(left, pattern Operand) Predicate { return leaf(OpLike, left, pattern) }

// ILike builds a case-insensitive LIKE leaf predicate.
func ILike(left, pattern Operand) Predicate { return leaf(OpILike, left, pattern) }

// StartsWith builds a prefix-match leaf predicate.
func StartsWith(left, prefix Operand) Predicate { return leaf(OpStartsWith, left, prefix) }

// EndsWith builds a suffix-match leaf predicate.
func EndsWith(left, suffix Operand) Predicate { return leaf(OpEndsWith, left, suffix) }

// Contains builds a substring/array-membership leaf predicate.
func Contains(left, v Operand) Predicate { return leaf(OpContains, left, v) }

// IsNull builds a null-check leaf predicate.
func IsNull(left Operand) Predicate { return leaf(OpIsNull, left, Operand{}) }

// IsNotNull builds a not-null-check leaf predicate.
func IsNotNull(left Operand) Predicate { return leaf(OpIsNotNull, left, Operand{}) }

// ContainsAll builds an array containsAll leaf predicate.
func ContainsAll(left Operand, values ...Operand) Predicate {
	p := leaf(OpArrayContainsAll, left, Operand{})
	p.Values = values
	return p
}

// ContainsAny builds an array containsAny leaf predicate.
func ContainsAny(left Operand, values ...Operand) Predicate {
	p := leaf(OpArrayContainsAny, left, Operand{})
	p.Values = values
	return p
}

// IsEmpty builds an array isEmpty leaf predicate.
func IsEmpty(left Operand) Predicate { return leaf(OpArrayIsEmpty, left, Operand{}) }

// IsNotEmpty builds an array isNotEmpty leaf predicate.
func IsNotEmpty(left Operand) Predicate { return leaf(OpArrayIsNotEmpty, left, Operand{}) }

// LengthGte builds an array lengthGte(n) leaf predicate.
func LengthGte(left Operand, n int) Predicate { return leaf(OpArrayLengthGte, left, Lit(n)) }

// HasKey builds an object hasKey(k) leaf predicate.
func HasKey(left Operand, key string) Predicate { return leaf(OpObjectHasKey, left, Lit(key)) }

// PathEquals builds an object pathEquals(ptr, v) leaf predicate.
func PathEquals(left Operand, ptr string, v Operand) Predicate {
	p := leaf(OpObjectPathEquals, left, v)
	p.Left.Path = ptr
	return p
}

// PathIsNull builds an object pathIsNull(ptr) leaf predicate.
func PathIsNull(left Operand, ptr string) Predicate {
	p := leaf(OpObjectPathIsNull, left, Operand{})
	p.Left.Path = ptr
	return p
}

// SimilarTo builds an embedding similarity leaf predicate. The compiler
// lowers this to an ORDER BY + LIMIT k rather than a WHERE clause.
func SimilarTo(left, v Operand, opts SimilarOptions) Predicate {
	p := leaf(OpSimilarTo, left, v)
	p.Similar = opts
	return p
}

func leaf(op Op, left, right Operand) Predicate {
	return Predicate{Kind: PredLeaf, Op: op, Left: left, Right: right}
}

// And combines predicates with logical AND.
func And(ps ...Predicate) Predicate { return Predicate{Kind: PredAnd, Children: ps} }

// Or combines predicates with logical OR.
func Or(ps ...Predicate) Predicate { return Predicate{Kind: PredOr, Children: ps} }

// Not negates a predicate.
func Not(p Predicate) Predicate { return Predicate{Kind: PredNot, Children: []Predicate{p}} }
