// Package config loads a TypeGraph ontology from a YAML document (spec
// §0.3 EXPANSION) and compiles it into a *kind.Registry, as an operational
// alternative to declaring node/edge kinds directly in Go. It mirrors the
// teacher's own YAML config loading (internal/config/loader.go): decode
// with gopkg.in/yaml.v3, then validate and translate into the in-memory
// model the rest of the library already understands.
package config

import (
	"fmt"

	"github.com/nicia-ai/typegraph/kind"
)

// Document is the root shape of the YAML ontology document.
type Document struct {
	NodeKinds []NodeKindDoc      `yaml:"nodeKinds"`
	EdgeKinds []EdgeKindDoc      `yaml:"edgeKinds"`
	Relations []RelationDoc      `yaml:"relations"`
}

// NodeKindDoc is the YAML shape of a kind.NodeKind.
type NodeKindDoc struct {
	Name       string             `yaml:"name"`
	Uniques    []UniqueDoc        `yaml:"uniques"`
	OnDelete   string             `yaml:"onDelete"` // "restrict" | "cascade" | "disconnect"
	Properties []PropertyDoc      `yaml:"properties"`
}

// EdgeKindDoc is the YAML shape of a kind.EdgeKind.
type EdgeKindDoc struct {
	Name        string        `yaml:"name"`
	FromKinds   []string      `yaml:"fromKinds"`
	ToKinds     []string      `yaml:"toKinds"`
	Cardinality string        `yaml:"cardinality"` // "many" | "one" | "unique" | "oneActive"
	Properties  []PropertyDoc `yaml:"properties"`
}

// UniqueDoc is the YAML shape of a kind.UniqueConstraint.
type UniqueDoc struct {
	Name      string         `yaml:"name"`
	Fields    []string       `yaml:"fields"`
	Scope     string         `yaml:"scope"` // "kind" | "kindWithSubClasses"
	Collation string         `yaml:"collation"` // "binary" | "caseInsensitive"
	Where     *WhereDoc      `yaml:"where"`
}

// WhereDoc is the YAML shape of a kind.WherePredicate.
type WhereDoc struct {
	Field string `yaml:"field"`
	Op    string `yaml:"op"` // "notNull" | "isNull"
}

// PropertyDoc is the YAML shape of a kind.PropertyDescriptor.
type PropertyDoc struct {
	Name  string `yaml:"name"`
	Type  string `yaml:"type"` // "string" | "number" | "boolean" | "date" | "json" | "embedding"
	Array bool   `yaml:"array"`
}

// RelationDoc is the YAML shape of a kind.OntologyRelation.
type RelationDoc struct {
	Kind          string `yaml:"kind"`
	A             string `yaml:"a"`
	B             string `yaml:"b"`
	Transitive    bool   `yaml:"transitive"`
	InferenceMode string `yaml:"inferenceMode"`
}

// Compile translates a decoded Document into the Build inputs kind.Build
// expects, then builds and returns the resulting Registry.
func (d *Document) Compile() (*kind.Registry, error) {
	nodeKinds := make([]kind.NodeKind, len(d.NodeKinds))
	for i, nk := range d.NodeKinds {
		onDelete, err := parseDeleteBehavior(nk.OnDelete)
		if err != nil {
			return nil, fmt.Errorf("config: nodeKinds[%d] %q: %w", i, nk.Name, err)
		}
		uniques := make([]kind.UniqueConstraint, len(nk.Uniques))
		for j, u := range nk.Uniques {
			uc, err := u.compile()
			if err != nil {
				return nil, fmt.Errorf("config: nodeKinds[%d] %q uniques[%d]: %w", i, nk.Name, j, err)
			}
			uniques[j] = uc
		}
		props, err := compileProperties(nk.Properties)
		if err != nil {
			return nil, fmt.Errorf("config: nodeKinds[%d] %q: %w", i, nk.Name, err)
		}
		nodeKinds[i] = kind.NodeKind{Name: nk.Name, Uniques: uniques, OnDelete: onDelete, Properties: props}
	}

	edgeKinds := make([]kind.EdgeKind, len(d.EdgeKinds))
	for i, ek := range d.EdgeKinds {
		card, err := parseCardinality(ek.Cardinality)
		if err != nil {
			return nil, fmt.Errorf("config: edgeKinds[%d] %q: %w", i, ek.Name, err)
		}
		props, err := compileProperties(ek.Properties)
		if err != nil {
			return nil, fmt.Errorf("config: edgeKinds[%d] %q: %w", i, ek.Name, err)
		}
		edgeKinds[i] = kind.EdgeKind{
			Name: ek.Name, FromKinds: ek.FromKinds, ToKinds: ek.ToKinds,
			Cardinality: card, Properties: props,
		}
	}

	relations := make([]kind.OntologyRelation, len(d.Relations))
	for i, rel := range d.Relations {
		rk, err := parseRelationKind(rel.Kind)
		if err != nil {
			return nil, fmt.Errorf("config: relations[%d]: %w", i, err)
		}
		relations[i] = kind.OntologyRelation{
			Kind: rk, A: rel.A, B: rel.B,
			Transitive: rel.Transitive, InferenceMode: rel.InferenceMode,
		}
	}

	reg, err := kind.Build(nodeKinds, edgeKinds, relations)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return reg, nil
}

func (u UniqueDoc) compile() (kind.UniqueConstraint, error) {
	scope, err := parseUniqueScope(u.Scope)
	if err != nil {
		return kind.UniqueConstraint{}, err
	}
	collation, err := parseCollation(u.Collation)
	if err != nil {
		return kind.UniqueConstraint{}, err
	}
	var where *kind.WherePredicate
	if u.Where != nil {
		where = &kind.WherePredicate{Field: u.Where.Field, Op: u.Where.Op}
	}
	return kind.UniqueConstraint{
		Name: u.Name, Fields: u.Fields, Scope: scope, Collation: collation, Where: where,
	}, nil
}

func compileProperties(docs []PropertyDoc) ([]kind.PropertyDescriptor, error) {
	out := make([]kind.PropertyDescriptor, len(docs))
	for i, p := range docs {
		vt, err := parseValueType(p.Type)
		if err != nil {
			return nil, fmt.Errorf("properties[%d] %q: %w", i, p.Name, err)
		}
		out[i] = kind.PropertyDescriptor{Name: p.Name, Type: vt, Array: p.Array}
	}
	return out, nil
}

func parseDeleteBehavior(s string) (kind.DeleteBehavior, error) {
	switch s {
	case "", "restrict":
		return kind.DeleteRestrict, nil
	case "cascade":
		return kind.DeleteCascade, nil
	case "disconnect":
		return kind.DeleteDisconnect, nil
	default:
		return 0, fmt.Errorf("onDelete: unknown value %q", s)
	}
}

func parseCardinality(s string) (kind.Cardinality, error) {
	switch s {
	case "", "many":
		return kind.CardinalityMany, nil
	case "one":
		return kind.CardinalityOne, nil
	case "unique":
		return kind.CardinalityUnique, nil
	case "oneActive":
		return kind.CardinalityOneActive, nil
	default:
		return 0, fmt.Errorf("cardinality: unknown value %q", s)
	}
}

func parseUniqueScope(s string) (kind.UniqueScope, error) {
	switch s {
	case "", "kind":
		return kind.ScopeKind, nil
	case "kindWithSubClasses":
		return kind.ScopeKindWithSubClasses, nil
	default:
		return 0, fmt.Errorf("scope: unknown value %q", s)
	}
}

func parseCollation(s string) (kind.Collation, error) {
	switch s {
	case "", "binary":
		return kind.CollationBinary, nil
	case "caseInsensitive":
		return kind.CollationCaseInsensitive, nil
	default:
		return 0, fmt.Errorf("collation: unknown value %q", s)
	}
}

func parseValueType(s string) (kind.ValueType, error) {
	switch s {
	case "", "string":
		return kind.ValueString, nil
	case "number":
		return kind.ValueNumber, nil
	case "boolean":
		return kind.ValueBoolean, nil
	case "date":
		return kind.ValueDate, nil
	case "json":
		return kind.ValueJSON, nil
	case "embedding":
		return kind.ValueEmbedding, nil
	default:
		return 0, fmt.Errorf("type: unknown value %q", s)
	}
}

var relationKinds = map[string]kind.OntologyRelationKind{
	"subClassOf":   kind.RelSubClassOf,
	"disjointWith": kind.RelDisjointWith,
	"equivalentTo": kind.RelEquivalentTo,
	"sameAs":       kind.RelSameAs,
	"partOf":       kind.RelPartOf,
	"hasPart":      kind.RelHasPart,
	"relatedTo":    kind.RelRelatedTo,
	"inverseOf":    kind.RelInverseOf,
	"implies":      kind.RelImplies,
	"meta":         kind.RelMeta,
}

func parseRelationKind(s string) (kind.OntologyRelationKind, error) {
	rk, ok := relationKinds[s]
	if !ok {
		return 0, fmt.Errorf("kind: unknown relation kind %q", s)
	}
	return rk, nil
}
