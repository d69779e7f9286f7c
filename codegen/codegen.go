// Package codegen emits typed Go constants and property accessors for a
// compiled *kind.Registry (spec §2 EXPANSION), so callers who want
// compile-time-checked kind/property names don't have to hand-maintain
// string literals alongside their ontology declaration. It is developer
// sugar, entirely outside the Store/compiler core: nothing in this module
// depends on generated output existing.
//
// Grounded on the teacher's own code generator (compiler/gen/generate.go,
// writer.go): render with dave/jennifer (auto-tracked imports, no manual
// import bookkeeping while building the AST), then run the result through
// golang.org/x/tools/imports before writing to disk, exactly the
// belt-and-suspenders "jennifer renders, goimports cleans up" two-step the
// teacher's TemplateWriter.generateFile and JenniferGenerator.writeFile
// both perform (the latter relies on jennifer alone; this package adds the
// imports.Process pass too, since a mixed struct/const file generated from
// arbitrary property sets is more prone to stray formatting than the
// teacher's fully-templated per-entity files).
package codegen

import (
	"bytes"
	"fmt"
	"os"

	"github.com/dave/jennifer/jen"
	"golang.org/x/tools/imports"

	"github.com/nicia-ai/typegraph/kind"
)

// Generate renders a single Go source file declaring, for every node and
// edge kind in reg: a string constant for the kind's name, and (when it
// declares any properties) a typed "<Kind>Props" struct plus ToMap/FromMap
// helpers addressing the same property names the Store accepts at
// runtime (kind.PropertyDescriptor.Name), so a typo in a generated call
// site is a compile error instead of a silent no-op property write.
func Generate(reg *kind.Registry, pkg string) ([]byte, error) {
	f := jen.NewFile(pkg)
	f.HeaderComment("Code generated by typegraph/codegen. DO NOT EDIT.")

	nodeNames := reg.NodeKinds()
	edgeNames := reg.EdgeKinds()

	f.Const().DefsFunc(func(g *jen.Group) {
		for _, name := range nodeNames {
			g.Id("Kind" + name).Op("=").Lit(name)
		}
		for _, name := range edgeNames {
			g.Id("Edge" + name).Op("=").Lit(name)
		}
	})

	for _, name := range nodeNames {
		nk, _ := reg.NodeKind(name)
		genPropsType(f, name, nk.Properties)
	}
	for _, name := range edgeNames {
		ek, _ := reg.EdgeKind(name)
		genPropsType(f, name, ek.Properties)
	}

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, fmt.Errorf("codegen: render: %w", err)
	}

	out, err := imports.Process(pkg+".go", buf.Bytes(), nil)
	if err != nil {
		return nil, fmt.Errorf("codegen: goimports: %w", err)
	}
	return out, nil
}

// WriteFile generates source for reg and writes it to path.
func WriteFile(path string, reg *kind.Registry, pkg string) error {
	src, err := Generate(reg, pkg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, src, 0o644); err != nil {
		return fmt.Errorf("codegen: write %q: %w", path, err)
	}
	return nil
}

// genPropsType declares a "<kind>Props" struct with one field per property
// descriptor, plus ToMap/FromMap conversions to/from the map[string]any
// shape store.Store's node/edge operations accept. Array properties become
// Go slices of the element type.
func genPropsType(f *jen.File, kindName string, props []kind.PropertyDescriptor) {
	if len(props) == 0 {
		return
	}
	typeName := kindName + "Props"

	f.Commentf("%s is a typed view over %s's declared properties.", typeName, kindName)
	f.Type().Id(typeName).StructFunc(func(g *jen.Group) {
		for _, p := range props {
			fieldType := goType(p)
			g.Id(exportedFieldName(p.Name)).Add(fieldType).Tag(map[string]string{"json": p.Name + ",omitempty"})
		}
	})

	dict := jen.Dict{}
	for _, p := range props {
		dict[jen.Lit(p.Name)] = jen.Id("p").Dot(exportedFieldName(p.Name))
	}
	f.Commentf("ToMap converts p into the map[string]any shape Store accepts.")
	f.Func().Params(jen.Id("p").Id(typeName)).Id("ToMap").Params().Map(jen.String()).Any().Block(
		jen.Return(jen.Map(jen.String()).Any().Values(dict)),
	)

	f.Commentf("%sFromMap converts a Store-returned property map into %s.", kindName, typeName)
	f.Func().Id(kindName+"FromMap").Params(jen.Id("m").Map(jen.String()).Any()).Id(typeName).BlockFunc(func(g *jen.Group) {
		g.Id("p").Op(":=").Id(typeName).Values()
		for _, prop := range props {
			field := exportedFieldName(prop.Name)
			g.If(jen.List(jen.Id("v"), jen.Id("ok")).Op(":=").Id("m").Index(jen.Lit(prop.Name)).Assert(goType(prop)), jen.Id("ok")).Block(
				jen.Id("p").Dot(field).Op("=").Id("v"),
			)
		}
		g.Return(jen.Id("p"))
	})
}

func goType(p kind.PropertyDescriptor) jen.Code {
	base := scalarType(p.Type)
	if p.Array {
		return jen.Index().Add(base)
	}
	return base
}

func scalarType(t kind.ValueType) jen.Code {
	switch t {
	case kind.ValueString:
		return jen.String()
	case kind.ValueNumber:
		return jen.Float64()
	case kind.ValueBoolean:
		return jen.Bool()
	case kind.ValueDate:
		return jen.Qual("time", "Time")
	case kind.ValueEmbedding:
		return jen.Index().Float32()
	case kind.ValueJSON:
		return jen.Any()
	default:
		return jen.Any()
	}
}

// exportedFieldName upper-cases the first rune of a property name so it
// can serve as an exported Go struct field name; property names are
// already validated as identifier-safe by the schema package.
func exportedFieldName(name string) string {
	if name == "" {
		return name
	}
	r := []rune(name)
	if r[0] >= 'a' && r[0] <= 'z' {
		r[0] = r[0] - ('a' - 'A')
	}
	return string(r)
}

