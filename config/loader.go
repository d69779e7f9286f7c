package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nicia-ai/typegraph/kind"
)

// Load reads and compiles the YAML ontology document at path into a
// *kind.Registry. It is a convenience wrapper around LoadFromReader.
func Load(path string) (*kind.Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	reg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return reg, nil
}

// LoadFromReader decodes a YAML ontology document from r and compiles it
// into a *kind.Registry. dec.KnownFields(true) catches typo'd keys (e.g.
// "fromKind" instead of "fromKinds") at load time rather than silently
// dropping them.
func LoadFromReader(r io.Reader) (*kind.Registry, error) {
	doc := &Document{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(doc); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	return doc.Compile()
}
