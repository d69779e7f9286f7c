package store

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/nicia-ai/typegraph/adapter"
	"github.com/nicia-ai/typegraph/kind"
)

func newID() string { return uuid.New().String() }

func encodeProps(props map[string]any) ([]byte, error) {
	if props == nil {
		props = map[string]any{}
	}
	b, err := json.Marshal(props)
	if err != nil {
		return nil, fmt.Errorf("typegraph: encode properties: %w", err)
	}
	return b, nil
}

func decodeProps(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	var props map[string]any
	if err := json.Unmarshal(raw, &props); err != nil {
		return nil, fmt.Errorf("typegraph: decode properties: %w", err)
	}
	return props, nil
}

func nodeFromRow(row *adapter.NodeRow) (*kind.Node, error) {
	props, err := decodeProps(row.Props)
	if err != nil {
		return nil, err
	}
	return &kind.Node{
		Kind:  row.Kind,
		ID:    row.ID,
		Props: props,
		Meta: kind.Meta{
			Version:   row.Version,
			ValidFrom: row.ValidFrom,
			ValidTo:   row.ValidTo,
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
			DeletedAt: row.DeletedAt,
		},
	}, nil
}

func edgeFromRow(row *adapter.EdgeRow) (*kind.Edge, error) {
	props, err := decodeProps(row.Props)
	if err != nil {
		return nil, err
	}
	return &kind.Edge{
		Kind:     row.Kind,
		ID:       row.ID,
		FromKind: row.FromKind,
		FromID:   row.FromID,
		ToKind:   row.ToKind,
		ToID:     row.ToID,
		Props:    props,
		Meta: kind.Meta{
			Version:   row.Version,
			ValidFrom: row.ValidFrom,
			ValidTo:   row.ValidTo,
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
			DeletedAt: row.DeletedAt,
		},
	}, nil
}
