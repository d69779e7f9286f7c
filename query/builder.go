package query

// Query is the immutable query AST. Builder methods never mutate a Query
// in place; each returns a new value. Slices are always grown via a fresh
// append with matching capacity so two Querys never alias and silently
// observe each other's later appends (spec §4.3: "each chained call
// returns a new value that shares the prior AST by structural reference").
type Query struct {
	From       FromClause
	Steps      []TraversalStep
	Tos        []ToClause // Tos[i] is the destination of Steps[i]
	Where      *Predicate
	Projection []ProjectionTerm
	GroupBy    []GroupByTerm
	Having     *Predicate
	OrderBy    []OrderTerm
	Limit      *int
	Offset     *int
	Page       *Pagination
	Set        *SetOp
	Temporal   TemporalMode
}

// From starts a new Query anchored at a node kind.
func From(kind, alias string) Query {
	return Query{From: FromClause{Kind: kind, Alias: alias}, Temporal: TemporalCurrent}
}

// ExpandSubClasses marks the FromClause to include all subclasses of its
// kind.
func (q Query) ExpandSubClasses() Query {
	q.From.ExpandSubClasses = true
	return q
}

// Traverse appends a TraversalStep and its destination ToClause.
func (q Query) Traverse(step TraversalStep, to ToClause) Query {
	q.Steps = appendCopy(q.Steps, step)
	q.Tos = appendCopy(q.Tos, to)
	return q
}

// Where ANDs a predicate onto the query's existing filter, if any.
func (q Query) Where(p Predicate) Query {
	if q.Where == nil {
		q.Where = &p
		return q
	}
	combined := And(*q.Where, p)
	q.Where = &combined
	return q
}

// Project appends one or more projection terms.
func (q Query) Project(terms ...ProjectionTerm) Query {
	q.Projection = appendCopyAll(q.Projection, terms)
	return q
}

// GroupByTerms appends group-by terms.
func (q Query) GroupByTerms(terms ...GroupByTerm) Query {
	q.GroupBy = appendCopyAll(q.GroupBy, terms)
	return q
}

// HavingPredicate ANDs a post-aggregation predicate.
func (q Query) HavingPredicate(p Predicate) Query {
	if q.Having == nil {
		q.Having = &p
		return q
	}
	combined := And(*q.Having, p)
	q.Having = &combined
	return q
}

// Order appends an ORDER BY term.
func (q Query) Order(alias, prop string, desc bool) Query {
	q.OrderBy = appendCopy(q.OrderBy, OrderTerm{Alias: alias, Prop: prop, Desc: desc})
	return q
}

// WithLimit sets LIMIT n.
func (q Query) WithLimit(n int) Query {
	q.Limit = &n
	return q
}

// WithOffset sets OFFSET n.
func (q Query) WithOffset(n int) Query {
	q.Offset = &n
	return q
}

// Paginate sets cursor-based pagination, taking precedence over
// Limit/Offset at compile time.
func (q Query) Paginate(p Pagination) Query {
	q.Page = &p
	return q
}

// Union composes this query with other via UNION.
func (q Query) Union(other Query) Query { return q.setOp(SetUnion, other) }

// UnionAll composes this query with other via UNION ALL.
func (q Query) UnionAll(other Query) Query { return q.setOp(SetUnionAll, other) }

// Intersect composes this query with other via INTERSECT.
func (q Query) Intersect(other Query) Query { return q.setOp(SetIntersect, other) }

// Except composes this query with other via EXCEPT.
func (q Query) Except(other Query) Query { return q.setOp(SetExcept, other) }

func (q Query) setOp(kind SetOpKind, other Query) Query {
	q.Set = &SetOp{Kind: kind, Other: &other}
	return q
}

// AsOf sets the TemporalMode to asOf semantics.
func (q Query) AsOf(t TemporalMode) Query {
	q.Temporal = t
	return q
}

func appendCopy[T any](s []T, v T) []T {
	out := make([]T, len(s)+1)
	copy(out, s)
	out[len(s)] = v
	return out
}

func appendCopyAll[T any](s []T, vs []T) []T {
	out := make([]T, len(s)+len(vs))
	copy(out, s)
	copy(out[len(s):], vs)
	return out
}
