package ddl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicia-ai/typegraph/ddl"
	"github.com/nicia-ai/typegraph/kind"
	"github.com/nicia-ai/typegraph/query"
)

func testRegistry(t *testing.T) *kind.Registry {
	t.Helper()
	reg, err := kind.Build(
		[]kind.NodeKind{
			{Name: "Person", Uniques: []kind.UniqueConstraint{
				{Name: "person_email", Fields: []string{"email"}},
			}},
			{Name: "Employee"},
		},
		[]kind.EdgeKind{
			{Name: "worksAt", FromKinds: []string{"Person"}, ToKinds: []string{"Company"}},
		},
		[]kind.OntologyRelation{
			{Kind: kind.RelSubClassOf, A: "Employee", B: "Person"},
		},
	)
	require.NoError(t, err)
	return reg
}

func TestGenerateNodeIndexSQLite(t *testing.T) {
	reg := testRegistry(t)
	sql, err := ddl.GenerateNodeIndex(ddl.SQLite, reg, "Person", ddl.IndexSpec{
		Fields: []string{"email"},
		Unique: true,
	})
	require.NoError(t, err)
	assert.Contains(t, sql, `CREATE UNIQUE INDEX IF NOT EXISTS "uq_person_email"`)
	assert.Contains(t, sql, `"graph_id"`)
	assert.Contains(t, sql, `"props" ->> '$.email'`)
	assert.Contains(t, sql, `"kind" = 'Person'`)
	assert.Contains(t, sql, `"deleted_at" IS NULL`)
}

func TestGenerateNodeIndexPostgresWithSubClasses(t *testing.T) {
	reg := testRegistry(t)
	sql, err := ddl.GenerateNodeIndex(ddl.Postgres, reg, "Person", ddl.IndexSpec{
		Fields: []string{"email"},
		Scope:  kind.ScopeKindWithSubClasses,
	})
	require.NoError(t, err)
	assert.Contains(t, sql, `CREATE INDEX IF NOT EXISTS "idx_person_email"`)
	assert.Contains(t, sql, `jsonb_extract_path_text`)
	assert.Contains(t, sql, `"kind" IN ('Employee', 'Person')`)
}

func TestGenerateNodeIndexWithWherePredicate(t *testing.T) {
	reg := testRegistry(t)
	pr := query.IsNotNull(query.Prop("", "archivedAt"))
	sql, err := ddl.GenerateNodeIndex(ddl.SQLite, reg, "Person", ddl.IndexSpec{
		Fields: []string{"email"},
		Where:  &pr,
	})
	require.NoError(t, err)
	assert.Contains(t, sql, `"props" ->> '$.archivedAt' IS NOT NULL`)
}

func TestGenerateNodeIndexSystemColumn(t *testing.T) {
	reg := testRegistry(t)
	sql, err := ddl.GenerateNodeIndex(ddl.SQLite, reg, "Person", ddl.IndexSpec{
		Fields: []string{"createdAt"},
		Desc:   true,
	})
	require.NoError(t, err)
	assert.Contains(t, sql, `"created_at" DESC`)
}

func TestGenerateNodeIndexCoveringFields(t *testing.T) {
	reg := testRegistry(t)
	sql, err := ddl.GenerateNodeIndex(ddl.SQLite, reg, "Person", ddl.IndexSpec{
		Fields:         []string{"lastName"},
		CoveringFields: []string{"firstName"},
	})
	require.NoError(t, err)
	assert.Contains(t, sql, `"props" ->> '$.lastName'`)
	assert.Contains(t, sql, `"props" ->> '$.firstName'`)
}

func TestGenerateNodeIndexUniqueWithCoveringFieldsRejected(t *testing.T) {
	reg := testRegistry(t)
	_, err := ddl.GenerateNodeIndex(ddl.SQLite, reg, "Person", ddl.IndexSpec{
		Fields:         []string{"email"},
		CoveringFields: []string{"firstName"},
		Unique:         true,
	})
	var ue *ddl.UnsupportedError
	require.ErrorAs(t, err, &ue)
}

func TestGenerateNodeIndexUnknownKind(t *testing.T) {
	reg := testRegistry(t)
	_, err := ddl.GenerateNodeIndex(ddl.SQLite, reg, "Ghost", ddl.IndexSpec{Fields: []string{"x"}})
	var ke *ddl.UnknownKindError
	require.ErrorAs(t, err, &ke)
}

func TestGenerateEdgeIndex(t *testing.T) {
	reg := testRegistry(t)
	sql, err := ddl.GenerateEdgeIndex(ddl.SQLite, reg, "worksAt", ddl.IndexSpec{
		Fields: []string{"role"},
	})
	require.NoError(t, err)
	assert.Contains(t, sql, `ON "edges"`)
	assert.Contains(t, sql, `"kind" = 'worksAt'`)
}
