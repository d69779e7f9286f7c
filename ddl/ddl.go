// Package ddl renders CREATE [UNIQUE] INDEX statements for declarative
// property-path indexes over a node or edge kind (spec §6.3). It never
// executes anything against a connection, and deliberately never drives
// ariga.io/atlas's migrate/diff engine either: that engine plans changes
// against a live schema.ExecQuerier, and spec.md §1's non-goals explicitly
// exclude "schema DDL execution" — the core only ever generates text. Atlas
// is used here purely as a typed, serializable schema model
// (schema.Table/Index/IndexPart/RawExpr/IndexPredicate): an IndexSpec is
// built into one, then rendered to text by this package's own dialect
// emitter, built on the same internal/sqlbuilder primitives the compiler
// uses.
//
// Key expressions and the optional partial-index predicate reuse the query
// package's predicate AST and the compiler's own operand-to-SQL lowering
// (compiler.RenderPredicate), so a declared WHERE clause is restricted to
// exactly the same system columns and property paths a compiled query can
// address.
package ddl

import (
	"fmt"
	"strings"

	"ariga.io/atlas/sql/schema"
	"github.com/go-openapi/inflect"

	"github.com/nicia-ai/typegraph/compiler"
	"github.com/nicia-ai/typegraph/internal/sqlbuilder"
	"github.com/nicia-ai/typegraph/kind"
	"github.com/nicia-ai/typegraph/query"
)

// Dialect names the two backends TypeGraph's adapter contract supports
// (spec §6.1), re-exported so callers don't need to import the internal
// sqlbuilder package.
type Dialect = sqlbuilder.Dialect

const (
	SQLite   = sqlbuilder.SQLite
	Postgres = sqlbuilder.Postgres
)

// IndexSpec declares one property-path index (spec §6.3: "{ fields[],
// coveringFields?, unique?, scope, direction?, where? }").
type IndexSpec struct {
	// Fields are the (possibly dotted) property paths, or system-column
	// names ("id", "version", "createdAt", ...), forming the index key, in
	// order.
	Fields []string
	// CoveringFields are additional key columns appended after Fields
	// purely to avoid a heap lookup on read. Only valid when Unique is
	// false: a unique index's covering columns can't be expressed without
	// changing what the index enforces uniqueness over, and Postgres's
	// column-only INCLUDE clause can't address a JSON property path anyway.
	CoveringFields []string
	// Unique renders CREATE UNIQUE INDEX instead of CREATE INDEX.
	Unique bool
	// Scope controls whether the index is partial-restricted to exactly
	// this kind, or widened to this kind's full subclass closure.
	Scope kind.UniqueScope
	// Desc reverses the sort order of the declared Fields (not
	// CoveringFields, which never participate in ordering).
	Desc bool
	// Where is an optional additional partial-index predicate, ANDed with
	// the implicit "deleted_at IS NULL" and kind-scope predicates. Built
	// with alias "" (there is exactly one implicit table per index).
	Where *query.Predicate
}

// UnsupportedError reports an IndexSpec this generator deliberately refuses
// to render, rather than emitting DDL that wouldn't mean what it looks like.
type UnsupportedError struct {
	Reason string
}

func (e *UnsupportedError) Error() string { return "ddl: unsupported index spec: " + e.Reason }

// UnknownKindError reports an index declared against a kind absent from the
// Registry.
type UnknownKindError struct {
	Kind string
}

func (e *UnknownKindError) Error() string { return fmt.Sprintf("ddl: unknown kind %q", e.Kind) }

// GenerateNodeIndex renders a CREATE [UNIQUE] INDEX statement for an index
// declared over a node kind.
func GenerateNodeIndex(dialect Dialect, reg *kind.Registry, kindName string, spec IndexSpec) (string, error) {
	if _, ok := reg.NodeKind(kindName); !ok {
		return "", &UnknownKindError{Kind: kindName}
	}
	scopeKinds := []string{kindName}
	if spec.Scope == kind.ScopeKindWithSubClasses {
		scopeKinds = reg.ExpandSubClasses(kindName)
	}
	return generate(dialect, compiler.TableNodes, kindName, scopeKinds, spec)
}

// GenerateEdgeIndex renders a CREATE [UNIQUE] INDEX statement for an index
// declared over an edge kind. Edge kinds carry no subclass concept (spec
// §3), so the index is always scoped to exactly this kind.
func GenerateEdgeIndex(dialect Dialect, reg *kind.Registry, kindName string, spec IndexSpec) (string, error) {
	if _, ok := reg.EdgeKind(kindName); !ok {
		return "", &UnknownKindError{Kind: kindName}
	}
	return generate(dialect, compiler.TableEdges, kindName, []string{kindName}, spec)
}

func generate(dialect Dialect, table, kindName string, scopeKinds []string, spec IndexSpec) (string, error) {
	if len(spec.Fields) == 0 {
		return "", &UnsupportedError{Reason: fmt.Sprintf("index on %q declares no fields", kindName)}
	}
	if spec.Unique && len(spec.CoveringFields) > 0 {
		return "", &UnsupportedError{Reason: "covering fields require a non-unique index"}
	}

	tbl := &schema.Table{Name: table}
	idx := &schema.Index{
		Name:   indexName(kindName, spec),
		Unique: spec.Unique,
		Table:  tbl,
	}
	idx.Parts = append(idx.Parts,
		&schema.IndexPart{SeqNo: 0, C: &schema.Column{Name: compiler.ColGraphID}},
		&schema.IndexPart{SeqNo: 1, C: &schema.Column{Name: compiler.ColKind}},
	)
	seq := 2
	for _, f := range spec.Fields {
		idx.Parts = append(idx.Parts, keyExprPart(dialect, seq, f, spec.Desc))
		seq++
	}
	for _, f := range spec.CoveringFields {
		idx.Parts = append(idx.Parts, keyExprPart(dialect, seq, f, false))
		seq++
	}

	where := fmt.Sprintf(`"%s" IS NULL AND %s`, compiler.ColDeletedAt, scopePredicate(scopeKinds))
	if spec.Where != nil {
		extra, err := renderWhere(dialect, *spec.Where)
		if err != nil {
			return "", err
		}
		where = where + " AND (" + extra + ")"
	}
	idx.Attrs = append(idx.Attrs, &schema.IndexPredicate{P: where})
	tbl.Indexes = append(tbl.Indexes, idx)

	return render(dialect, idx), nil
}

// render lowers an atlas schema.Index describing the desired index into
// dialect DDL text. Both SQLite and PostgreSQL accept the same
// "CREATE [UNIQUE] INDEX IF NOT EXISTS name ON table (parts) WHERE pred"
// grammar, so no dialect branch is needed beyond identifier quoting, which
// sqlbuilder.Builder already handles uniformly.
func render(dialect Dialect, idx *schema.Index) string {
	b := sqlbuilder.New(dialect)
	b.WriteString("CREATE ")
	if idx.Unique {
		b.WriteString("UNIQUE ")
	}
	b.WriteString("INDEX IF NOT EXISTS ")
	b.Ident(idx.Name)
	b.WriteString(" ON ")
	b.Ident(idx.Table.Name)
	b.WriteString(" (")
	sqlbuilder.Join(b, idx.Parts, ", ", writeIndexPart)
	b.WriteString(")")
	for _, a := range idx.Attrs {
		if pred, ok := a.(*schema.IndexPredicate); ok {
			b.WriteString(" WHERE " + pred.P)
		}
	}
	return b.String()
}

func writeIndexPart(b *sqlbuilder.Builder, p *schema.IndexPart) {
	switch {
	case p.C != nil:
		b.Ident(p.C.Name)
	case p.X != nil:
		if raw, ok := p.X.(*schema.RawExpr); ok {
			b.WriteString("(" + raw.X + ")")
		}
	}
	if p.Desc {
		b.WriteString(" DESC")
	}
}

// systemColumnAliases maps the camelCase system-field names the rest of the
// package exposes (kind.Meta) onto the physical column a field name
// addresses directly, bypassing JSON extraction.
var systemColumnAliases = map[string]string{
	"id":        compiler.ColID,
	"kind":      compiler.ColKind,
	"version":   compiler.ColVersion,
	"validFrom": compiler.ColValidFrom,
	"validTo":   compiler.ColValidTo,
	"createdAt": compiler.ColCreatedAt,
	"updatedAt": compiler.ColUpdatedAt,
	"deletedAt": compiler.ColDeletedAt,
}

func keyExprPart(dialect Dialect, seqNo int, field string, desc bool) *schema.IndexPart {
	if col, ok := systemColumnAliases[field]; ok {
		return &schema.IndexPart{SeqNo: seqNo, C: &schema.Column{Name: col}, Desc: desc}
	}
	b := sqlbuilder.New(dialect)
	sqlbuilder.JSONExtract(b, "", compiler.ColProps, field)
	return &schema.IndexPart{SeqNo: seqNo, X: &schema.RawExpr{X: b.String()}, Desc: desc}
}

func scopePredicate(scopeKinds []string) string {
	if len(scopeKinds) == 1 {
		return fmt.Sprintf(`"%s" = %s`, compiler.ColKind, literal(scopeKinds[0]))
	}
	vals := make([]string, len(scopeKinds))
	for i, k := range scopeKinds {
		vals[i] = literal(k)
	}
	return fmt.Sprintf(`"%s" IN (%s)`, compiler.ColKind, strings.Join(vals, ", "))
}

// renderWhere lowers a caller-supplied predicate through the compiler's own
// operand rendering, then inlines the resulting bind arguments as SQL
// literals: DDL text carries no prepared-statement placeholders.
func renderWhere(dialect Dialect, pr query.Predicate) (string, error) {
	rendered, err := compiler.RenderPredicate(pr, nil)
	if err != nil {
		return "", err
	}
	b := sqlbuilder.New(dialect)
	rendered(b)
	return inlineLiterals(dialect, b.String(), b.Args()), nil
}

// inlineLiterals substitutes each bind placeholder in text with a literal
// rendering of its argument, in emission order. Postgres placeholders are
// replaced highest-index first so "$1" can never collide with "$10".
func inlineLiterals(dialect Dialect, text string, args []any) string {
	if len(args) == 0 {
		return text
	}
	if dialect == Postgres {
		for i := len(args) - 1; i >= 0; i-- {
			text = strings.ReplaceAll(text, fmt.Sprintf("$%d", i+1), literal(args[i]))
		}
		return text
	}
	var sb strings.Builder
	i := 0
	for _, r := range text {
		if r == '?' && i < len(args) {
			sb.WriteString(literal(args[i]))
			i++
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func literal(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	case int, int32, int64, float32, float64:
		return fmt.Sprintf("%v", x)
	default:
		return "'" + strings.ReplaceAll(fmt.Sprintf("%v", x), "'", "''") + "'"
	}
}

// indexName derives a deterministic, dialect-safe identifier from the kind
// name and declared fields via go-openapi/inflect's snake_case conversion,
// the same identifier-naming tool the kind package uses to default a
// UniqueConstraint's name.
func indexName(kindName string, spec IndexSpec) string {
	prefix := "idx"
	if spec.Unique {
		prefix = "uq"
	}
	parts := make([]string, 0, len(spec.Fields)+1)
	parts = append(parts, inflect.Underscore(kindName))
	for _, f := range spec.Fields {
		parts = append(parts, inflect.Underscore(strings.ReplaceAll(f, ".", "_")))
	}
	return prefix + "_" + strings.Join(parts, "_")
}
