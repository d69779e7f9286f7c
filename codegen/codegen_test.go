package codegen_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicia-ai/typegraph/codegen"
	"github.com/nicia-ai/typegraph/kind"
)

func testRegistry(t *testing.T) *kind.Registry {
	t.Helper()
	reg, err := kind.Build(
		[]kind.NodeKind{
			{
				Name: "Person",
				Properties: []kind.PropertyDescriptor{
					{Name: "email", Type: kind.ValueString},
					{Name: "age", Type: kind.ValueNumber},
					{Name: "tags", Type: kind.ValueString, Array: true},
				},
			},
			{Name: "Company"},
		},
		[]kind.EdgeKind{
			{Name: "worksAt", FromKinds: []string{"Person"}, ToKinds: []string{"Company"}},
		},
		nil,
	)
	require.NoError(t, err)
	return reg
}

func TestGenerateDeclaresKindConstants(t *testing.T) {
	reg := testRegistry(t)
	src, err := codegen.Generate(reg, "typegraphgen")
	require.NoError(t, err)

	out := string(src)
	assert.Contains(t, out, `KindPerson = "Person"`)
	assert.Contains(t, out, `KindCompany = "Company"`)
	assert.Contains(t, out, `EdgeworksAt = "worksAt"`)
	assert.Contains(t, out, "package typegraphgen")
}

func TestGeneratePropsTypeForDeclaredProperties(t *testing.T) {
	reg := testRegistry(t)
	src, err := codegen.Generate(reg, "typegraphgen")
	require.NoError(t, err)

	out := string(src)
	assert.Contains(t, out, "type PersonProps struct")
	assert.Contains(t, out, "Email string")
	assert.Contains(t, out, "Age float64")
	assert.Contains(t, out, "Tags []string")
	assert.Contains(t, out, "func (p PersonProps) ToMap() map[string]any")
	assert.Contains(t, out, "func PersonFromMap(m map[string]any) PersonProps")
}

func TestGenerateSkipsPropsTypeWhenNoProperties(t *testing.T) {
	reg := testRegistry(t)
	src, err := codegen.Generate(reg, "typegraphgen")
	require.NoError(t, err)

	assert.NotContains(t, string(src), "type CompanyProps struct")
}

func TestWriteFile(t *testing.T) {
	reg := testRegistry(t)
	dir := t.TempDir()
	path := dir + "/kinds_gen.go"
	require.NoError(t, codegen.WriteFile(path, reg, "typegraphgen"))
}
