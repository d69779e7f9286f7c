// Package compiler lowers a query.Query AST into dialect SQL text plus
// bound parameters (spec §4.4): kind-set expansion via the Registry,
// predicate hoisting (WHERE vs. join ON-clause), recursive CTE lowering,
// cursor-based pagination, set-op composition, and dialect emission.
//
// It assumes the fixed four-table physical schema (spec §6.2): the
// adapter owns table creation, the compiler only ever emits SQL text and
// arguments. It is grounded on the teacher's dialect/sql/sqlgraph package,
// which performed the analogous AST-to-SQL lowering for ent-style graph
// traversal queries.
package compiler

// Physical table and column names shared by both dialects (spec §6.2).
const (
	TableNodes        = "nodes"
	TableEdges        = "edges"
	TableNodeUniques  = "node_uniques"
	TableSchemaVersns = "schema_versions"

	ColGraphID    = "graph_id"
	ColKind       = "kind"
	ColID         = "id"
	ColProps      = "props"
	ColVersion    = "version"
	ColValidFrom  = "valid_from"
	ColValidTo    = "valid_to"
	ColCreatedAt  = "created_at"
	ColUpdatedAt  = "updated_at"
	ColDeletedAt  = "deleted_at"
	ColFromKind   = "from_kind"
	ColFromID     = "from_id"
	ColToKind     = "to_kind"
	ColToID       = "to_id"
)

// recursionDepthCap is the hard ceiling on an unbounded recursive
// traversal (spec §4.3 RecursiveSpec).
const recursionDepthCap = 100

// maxExplicitHops is the validation ceiling on an explicit maxHops value
// (spec §4.3 RecursiveSpec).
const maxExplicitHops = 1000
