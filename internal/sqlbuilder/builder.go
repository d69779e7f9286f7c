// Package sqlbuilder is a small, dialect-aware SQL string builder: the
// primitive the compiler package's dialect emitters lower an AST to. It
// knows nothing about kinds, ontologies, or the graph domain — only how to
// quote identifiers, bind placeholders, and assemble SELECT/INSERT/UPDATE/
// DELETE text for SQLite and PostgreSQL.
//
// Grounded on the shape documented (but, in the retrieved source tree,
// never implemented) in the teacher's dialect/sql/doc.go: a Builder for
// low-level string assembly, a Selector for SELECT statements, and
// Insert/Update/DeleteBuilder for writes, plus a family of predicate
// constructors (EQ, NEQ, GT, In, Like, IsNull, ...).
package sqlbuilder

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect names the two backends TypeGraph's adapter contract supports
// (spec §6.1).
type Dialect string

const (
	SQLite   Dialect = "sqlite3"
	Postgres Dialect = "postgres"
)

// Builder accumulates SQL text and bind arguments. It is not safe for
// concurrent use; callers build one statement per Builder.
type Builder struct {
	dialect Dialect
	sb      strings.Builder
	args    []any
}

// New starts a Builder for the given dialect.
func New(d Dialect) *Builder {
	return &Builder{dialect: d}
}

// Dialect returns the builder's target dialect.
func (b *Builder) Dialect() Dialect { return b.dialect }

// WriteString appends raw SQL text.
func (b *Builder) WriteString(s string) *Builder {
	b.sb.WriteString(s)
	return b
}

// Ident appends a quoted identifier. SQLite and Postgres both accept
// double-quoted identifiers, so no dialect branch is needed here.
func (b *Builder) Ident(name string) *Builder {
	b.sb.WriteByte('"')
	b.sb.WriteString(strings.ReplaceAll(name, `"`, `""`))
	b.sb.WriteByte('"')
	return b
}

// Arg appends a bind placeholder for v and records v as a positional
// argument. SQLite uses "?"; Postgres uses "$1", "$2", ... in emission
// order, so the placeholder text depends on how many args already exist.
func (b *Builder) Arg(v any) *Builder {
	b.args = append(b.args, v)
	if b.dialect == Postgres {
		b.sb.WriteString("$" + strconv.Itoa(len(b.args)))
	} else {
		b.sb.WriteByte('?')
	}
	return b
}

// Args returns the accumulated bind arguments in placeholder order.
func (b *Builder) Args() []any { return b.args }

// String returns the accumulated SQL text.
func (b *Builder) String() string { return b.sb.String() }

// Query returns the accumulated SQL text and bind arguments, the shape
// database/sql.(*DB).QueryContext / ExecContext expect.
func (b *Builder) Query() (string, []any) { return b.sb.String(), b.args }

// Pad appends a single space if the builder is non-empty and doesn't
// already end in one, to keep token joins readable.
func (b *Builder) Pad() *Builder {
	s := b.sb.String()
	if len(s) > 0 && s[len(s)-1] != ' ' && s[len(s)-1] != '(' {
		b.sb.WriteByte(' ')
	}
	return b
}

// Join writes items separated by sep, each rendered by render.
func Join[T any](b *Builder, items []T, sep string, render func(*Builder, T)) {
	for i, it := range items {
		if i > 0 {
			b.WriteString(sep)
		}
		render(b, it)
	}
}

// Predicate renders a boolean SQL expression onto a Builder. Predicates
// compose via And/Or/Not.
type Predicate func(b *Builder)

func col(alias, field string) string {
	if alias == "" {
		return field
	}
	return alias + "." + field
}

func writeCol(b *Builder, alias, field string) {
	if alias != "" {
		b.Ident(alias).WriteString(".")
	}
	b.Ident(field)
}

// EQ renders "alias.field = ?".
func EQ(alias, field string, v any) Predicate {
	return func(b *Builder) { writeCol(b, alias, field); b.WriteString(" = "); b.Arg(v) }
}

// EQCol renders "a1.f1 = a2.f2", an equality between two columns (used
// for join conditions, where the right side is not a bind argument).
func EQCol(alias1, field1, alias2, field2 string) Predicate {
	return func(b *Builder) {
		writeCol(b, alias1, field1)
		b.WriteString(" = ")
		writeCol(b, alias2, field2)
	}
}

// NEQ renders "alias.field <> ?".
func NEQ(alias, field string, v any) Predicate {
	return func(b *Builder) { writeCol(b, alias, field); b.WriteString(" <> "); b.Arg(v) }
}

// GT renders "alias.field > ?".
func GT(alias, field string, v any) Predicate {
	return func(b *Builder) { writeCol(b, alias, field); b.WriteString(" > "); b.Arg(v) }
}

// GTE renders "alias.field >= ?".
func GTE(alias, field string, v any) Predicate {
	return func(b *Builder) { writeCol(b, alias, field); b.WriteString(" >= "); b.Arg(v) }
}

// LT renders "alias.field < ?".
func LT(alias, field string, v any) Predicate {
	return func(b *Builder) { writeCol(b, alias, field); b.WriteString(" < "); b.Arg(v) }
}

// LTE renders "alias.field <= ?".
func LTE(alias, field string, v any) Predicate {
	return func(b *Builder) { writeCol(b, alias, field); b.WriteString(" <= "); b.Arg(v) }
}

// Between renders "alias.field BETWEEN ? AND ?".
func Between(alias, field string, lo, hi any) Predicate {
	return func(b *Builder) {
		writeCol(b, alias, field)
		b.WriteString(" BETWEEN ")
		b.Arg(lo)
		b.WriteString(" AND ")
		b.Arg(hi)
	}
}

// In renders "alias.field IN (?, ?, ...)". An empty vs produces the
// always-false predicate "1 = 0" since SQL IN () is invalid on both
// dialects.
func In(alias, field string, vs []any) Predicate {
	return func(b *Builder) {
		if len(vs) == 0 {
			b.WriteString("1 = 0")
			return
		}
		writeCol(b, alias, field)
		b.WriteString(" IN (")
		for i, v := range vs {
			if i > 0 {
				b.WriteString(", ")
			}
			b.Arg(v)
		}
		b.WriteString(")")
	}
}

// NotIn renders "alias.field NOT IN (?, ?, ...)"; empty vs is always-true.
func NotIn(alias, field string, vs []any) Predicate {
	return func(b *Builder) {
		if len(vs) == 0 {
			b.WriteString("1 = 1")
			return
		}
		writeCol(b, alias, field)
		b.WriteString(" NOT IN (")
		for i, v := range vs {
			if i > 0 {
				b.WriteString(", ")
			}
			b.Arg(v)
		}
		b.WriteString(")")
	}
}

// Like renders "alias.field LIKE ?" verbatim (caller supplies wildcards).
func Like(alias, field string, pattern string) Predicate {
	return func(b *Builder) { writeCol(b, alias, field); b.WriteString(" LIKE "); b.Arg(pattern) }
}

// ILike renders case-insensitive LIKE: Postgres has a native ILIKE
// operator; SQLite's LIKE is already case-insensitive for ASCII, so it
// emits plain LIKE there.
func ILike(alias, field string, pattern string) Predicate {
	return func(b *Builder) {
		writeCol(b, alias, field)
		if b.dialect == Postgres {
			b.WriteString(" ILIKE ")
		} else {
			b.WriteString(" LIKE ")
		}
		b.Arg(pattern)
	}
}

// Contains renders a LIKE predicate for substring containment.
func Contains(alias, field, substr string) Predicate { return Like(alias, field, "%"+escapeLike(substr)+"%") }

// HasPrefix renders a LIKE predicate anchored at the start of the value.
func HasPrefix(alias, field, prefix string) Predicate { return Like(alias, field, escapeLike(prefix)+"%") }

// HasSuffix renders a LIKE predicate anchored at the end of the value.
func HasSuffix(alias, field, suffix string) Predicate { return Like(alias, field, "%"+escapeLike(suffix)) }

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return r.Replace(s)
}

// IsNull renders "alias.field IS NULL".
func IsNull(alias, field string) Predicate {
	return func(b *Builder) { writeCol(b, alias, field); b.WriteString(" IS NULL") }
}

// NotNull renders "alias.field IS NOT NULL".
func NotNull(alias, field string) Predicate {
	return func(b *Builder) { writeCol(b, alias, field); b.WriteString(" IS NOT NULL") }
}

// Raw wraps an already-rendered SQL fragment. Any args passed are ignored
// and never bound, so expr must carry no placeholders.
func Raw(expr string, args ...any) Predicate {
	return func(b *Builder) {
		b.WriteString(expr)
		for _, a := range args {
			_ = a // args in Raw are pre-interpolated; kept only for signature symmetry
		}
	}
}

// And joins predicates with SQL AND, parenthesized as a group.
func And(ps ...Predicate) Predicate {
	return func(b *Builder) { joinLogical(b, "AND", ps) }
}

// Or joins predicates with SQL OR, parenthesized as a group.
func Or(ps ...Predicate) Predicate {
	return func(b *Builder) { joinLogical(b, "OR", ps) }
}

func joinLogical(b *Builder, op string, ps []Predicate) {
	if len(ps) == 0 {
		b.WriteString("1 = 1")
		return
	}
	if len(ps) == 1 {
		ps[0](b)
		return
	}
	b.WriteString("(")
	for i, p := range ps {
		if i > 0 {
			b.WriteString(" " + op + " ")
		}
		p(b)
	}
	b.WriteString(")")
}

// Not negates a predicate.
func Not(p Predicate) Predicate {
	return func(b *Builder) {
		b.WriteString("NOT (")
		p(b)
		b.WriteString(")")
	}
}

// JSONExtract renders a dialect-appropriate JSON field extraction
// expression for a dotted prop path (e.g. "address.country"), used by the
// compiler when lowering Object predicates (hasKey/pathEquals/pathIsNull)
// and property-path projections over the JSON props column.
func JSONExtract(b *Builder, alias, column, path string) {
	ptr := "$." + path
	switch b.dialect {
	case Postgres:
		b.WriteString("jsonb_extract_path_text(")
		writeCol(b, alias, column)
		b.WriteString(fmt.Sprintf(", %s)", pgPathLiteral(path)))
	default: // SQLite
		writeCol(b, alias, column)
		b.WriteString(" ->> '" + strings.ReplaceAll(ptr, "'", "''") + "'")
	}
}

func pgPathLiteral(path string) string {
	segs := strings.Split(path, ".")
	quoted := make([]string, len(segs))
	for i, s := range segs {
		quoted[i] = "'" + strings.ReplaceAll(s, "'", "''") + "'"
	}
	return strings.Join(quoted, ", ")
}
