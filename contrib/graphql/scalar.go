package graphql

import (
	"github.com/99designs/gqlgen/graphql"
)

// MarshalPropMap and UnmarshalPropMap back a custom "PropMap" scalar for
// node/edge property bags (kind.Node.Props / kind.Edge.Props), which are
// untyped map[string]any and don't fit any of gqlgen's generated object
// types. Wire it into a schema with:
//
//	scalar PropMap
//
// and a gqlgen.yml model mapping:
//
//	models:
//	  PropMap:
//	    model: github.com/nicia-ai/typegraph/contrib/graphql.PropMap
type PropMap = map[string]any

// MarshalPropMap implements the gqlgen Marshaler contract for the PropMap
// scalar, delegating to gqlgen's own Map marshaler since PropMap is a type
// alias for map[string]interface{}.
func MarshalPropMap(v PropMap) graphql.Marshaler {
	return graphql.MarshalMap(v)
}

// UnmarshalPropMap implements the gqlgen Unmarshaler contract for the
// PropMap scalar.
func UnmarshalPropMap(v any) (PropMap, error) {
	return graphql.UnmarshalMap(v)
}
