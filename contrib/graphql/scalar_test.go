package graphql_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicia-ai/typegraph/contrib/graphql"
)

func TestMarshalPropMap(t *testing.T) {
	var buf bytes.Buffer
	graphql.MarshalPropMap(graphql.PropMap{"name": "Ada", "age": float64(30)}).MarshalGQL(&buf)
	assert.Contains(t, buf.String(), `"name":"Ada"`)
}

func TestUnmarshalPropMap(t *testing.T) {
	got, err := graphql.UnmarshalPropMap(map[string]any{"name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", got["name"])
}

func TestUnmarshalPropMapRejectsNonMap(t *testing.T) {
	_, err := graphql.UnmarshalPropMap("not a map")
	assert.Error(t, err)
}
