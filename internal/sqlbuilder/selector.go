package sqlbuilder

import (
	"strconv"
	"strings"
)

// OrderDirection is ASC or DESC.
type OrderDirection string

const (
	OrderAsc  OrderDirection = "ASC"
	OrderDesc OrderDirection = "DESC"
)

// JoinClause is a single JOIN in a Selector's FROM clause.
type JoinClause struct {
	Kind  string // "JOIN" | "LEFT JOIN"
	Table string
	Alias string
	On    Predicate
}

// OrderTerm is one ORDER BY term, with dialect-consistent null ordering:
// nulls trail ascending, lead descending. Expr, when set, is a raw
// pre-rendered SQL expression (e.g. a JSON path extraction) used instead
// of the Alias/Field identifier pair.
type OrderTerm struct {
	Alias, Field string
	Expr         string
	Dir          OrderDirection
}

// Selector builds a SELECT statement.
type Selector struct {
	dialect    Dialect
	ctes       []cte
	columns    []selectColumn
	table      string
	tableAlias string
	joins      []JoinClause
	where      []Predicate
	groupBy    []string
	having     []Predicate
	orderBy    []OrderTerm
	limit      *int
	offset     *int
	forUpdate  bool
	setOp      *setOpClause
}

type cte struct {
	name      string
	recursive bool
	body      string
	args      []any
}

type selectColumn struct {
	expr string
	as   string
}

type setOpClause struct {
	op    string // UNION | UNION ALL | INTERSECT | EXCEPT
	query string
	args  []any
}

// Select starts a Selector for the given dialect.
func Select(d Dialect, columns ...string) *Selector {
	s := &Selector{dialect: d}
	for _, c := range columns {
		s.columns = append(s.columns, selectColumn{expr: c})
	}
	return s
}

// ColumnAs appends a SELECT column with an explicit output alias.
func (s *Selector) ColumnAs(expr, as string) *Selector {
	s.columns = append(s.columns, selectColumn{expr: expr, as: as})
	return s
}

// From sets the FROM table and its alias.
func (s *Selector) From(table, alias string) *Selector {
	s.table = table
	s.tableAlias = alias
	return s
}

// With registers a (possibly recursive) CTE, rendered before the main
// query body. body/args come from a fully-rendered sub-Builder's Query().
func (s *Selector) With(name string, recursive bool, body string, args []any) *Selector {
	s.ctes = append(s.ctes, cte{name: name, recursive: recursive, body: body, args: args})
	return s
}

// Join adds an inner join.
func (s *Selector) Join(table, alias string, on Predicate) *Selector {
	s.joins = append(s.joins, JoinClause{Kind: "JOIN", Table: table, Alias: alias, On: on})
	return s
}

// LeftJoin adds a left join, used for TraversalStep.optional steps.
func (s *Selector) LeftJoin(table, alias string, on Predicate) *Selector {
	s.joins = append(s.joins, JoinClause{Kind: "LEFT JOIN", Table: table, Alias: alias, On: on})
	return s
}

// Where adds a predicate, ANDed with any others already present.
func (s *Selector) Where(p Predicate) *Selector {
	s.where = append(s.where, p)
	return s
}

// GroupBy adds group-by expressions.
func (s *Selector) GroupBy(exprs ...string) *Selector {
	s.groupBy = append(s.groupBy, exprs...)
	return s
}

// Having adds a post-aggregation predicate.
func (s *Selector) Having(p Predicate) *Selector {
	s.having = append(s.having, p)
	return s
}

// OrderBy appends an ordering term over a plain alias.field column.
func (s *Selector) OrderBy(alias, field string, dir OrderDirection) *Selector {
	s.orderBy = append(s.orderBy, OrderTerm{Alias: alias, Field: field, Dir: dir})
	return s
}

// OrderByExpr appends an ordering term over a raw pre-rendered expression
// (e.g. a JSON prop path extraction), used when the sort key isn't a plain
// physical column.
func (s *Selector) OrderByExpr(expr string, dir OrderDirection) *Selector {
	s.orderBy = append(s.orderBy, OrderTerm{Expr: expr, Dir: dir})
	return s
}

// Limit sets LIMIT n.
func (s *Selector) Limit(n int) *Selector { s.limit = &n; return s }

// Offset sets OFFSET n.
func (s *Selector) Offset(n int) *Selector { s.offset = &n; return s }

// ForUpdate appends a row-locking clause (ignored on SQLite, which has no
// row-level locking; the compiler only emits it targeting Postgres).
func (s *Selector) ForUpdate() *Selector { s.forUpdate = true; return s }

// SetOp composes this query with another via UNION/UNION ALL/INTERSECT/
// EXCEPT. query/args come from rendering the other side first.
func (s *Selector) SetOp(op, query string, args []any) *Selector {
	s.setOp = &setOpClause{op: op, query: query, args: args}
	return s
}

// Query renders the accumulated SELECT statement and returns its SQL text
// plus bind arguments in placeholder order.
func (s *Selector) Query() (string, []any) {
	b := New(s.dialect)

	if len(s.ctes) > 0 {
		recursive := false
		for _, c := range s.ctes {
			if c.recursive {
				recursive = true
			}
		}
		if recursive {
			b.WriteString("WITH RECURSIVE ")
		} else {
			b.WriteString("WITH ")
		}
		for i, c := range s.ctes {
			if i > 0 {
				b.WriteString(", ")
			}
			b.Ident(c.name).WriteString(" AS (")
			Rebind(b, c.body, c.args)
			b.WriteString(")")
		}
		b.WriteString(" ")
	}

	b.WriteString("SELECT ")
	if len(s.columns) == 0 {
		b.WriteString("*")
	}
	for i, c := range s.columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.expr)
		if c.as != "" {
			b.WriteString(" AS ")
			b.Ident(c.as)
		}
	}

	b.WriteString(" FROM ")
	b.Ident(s.table)
	if s.tableAlias != "" {
		b.WriteString(" ")
		b.Ident(s.tableAlias)
	}

	for _, j := range s.joins {
		b.WriteString(" " + j.Kind + " ")
		b.Ident(j.Table)
		if j.Alias != "" {
			b.WriteString(" ")
			b.Ident(j.Alias)
		}
		b.WriteString(" ON ")
		j.On(b)
	}

	if len(s.where) > 0 {
		b.WriteString(" WHERE ")
		And(s.where...)(b)
	}

	if len(s.groupBy) > 0 {
		b.WriteString(" GROUP BY " + strings.Join(s.groupBy, ", "))
	}
	if len(s.having) > 0 {
		b.WriteString(" HAVING ")
		And(s.having...)(b)
	}

	if len(s.orderBy) > 0 {
		b.WriteString(" ORDER BY ")
		for i, o := range s.orderBy {
			if i > 0 {
				b.WriteString(", ")
			}
			if o.Expr != "" {
				b.WriteString(o.Expr)
			} else {
				writeCol(b, o.Alias, o.Field)
			}
			b.WriteString(" " + string(o.Dir))
			if o.Dir == OrderAsc {
				b.WriteString(" NULLS LAST")
			} else {
				b.WriteString(" NULLS FIRST")
			}
		}
	}

	if s.limit != nil {
		b.WriteString(" LIMIT ")
		b.Arg(*s.limit)
	}
	if s.offset != nil {
		b.WriteString(" OFFSET ")
		b.Arg(*s.offset)
	}
	if s.forUpdate && s.dialect == Postgres {
		b.WriteString(" FOR UPDATE")
	}

	if s.setOp != nil {
		b.WriteString(" " + s.setOp.op + " ")
		Rebind(b, s.setOp.query, s.setOp.args)
	}

	return b.Query()
}

// Rebind appends a previously-rendered SQL fragment (with its own "?"/"$n"
// placeholders) into b, translating placeholders to b's numbering for
// Postgres. SQLite's "?" placeholders need no translation. Used to splice
// a CTE body or set-op right-hand side, whose Builder/Selector rendered it
// independently, into the enclosing statement.
func Rebind(b *Builder, fragment string, args []any) {
	if b.dialect != Postgres {
		b.WriteString(fragment)
		b.args = append(b.args, args...)
		return
	}
	var out strings.Builder
	argIdx := 0
	for i := 0; i < len(fragment); i++ {
		if fragment[i] == '$' && argIdx < len(args) {
			j := i + 1
			for j < len(fragment) && fragment[j] >= '0' && fragment[j] <= '9' {
				j++
			}
			if j > i+1 {
				b.args = append(b.args, args[argIdx])
				out.WriteString("$" + strconv.Itoa(len(b.args)))
				argIdx++
				i = j - 1
				continue
			}
		}
		out.WriteByte(fragment[i])
	}
	b.WriteString(out.String())
}
