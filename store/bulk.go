package store

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/nicia-ai/typegraph"
	"github.com/nicia-ai/typegraph/kind"
)

// bulkConcurrency bounds how many items a bulk* call processes at once.
// Each item opens its own backend transaction (via withHandle), so this
// also bounds how many connections a single bulk call can hold from the
// pool at a time.
const bulkConcurrency = 8

// BulkCreateNodes runs CreateNode concurrently over inputs. Results keep
// input order; the failed items' errors are combined in input order by
// typegraph.NewAggregateError, which drops the nil entries of successful
// items and returns a lone failure unwrapped.
func (s *Store) BulkCreateNodes(ctx context.Context, kindName string, inputs []map[string]any) ([]*kind.Node, error) {
	results := make([]*kind.Node, len(inputs))
	errs := make([]error, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bulkConcurrency)
	for i, props := range inputs {
		i, props := i, props
		g.Go(func() error {
			n, err := s.CreateNode(gctx, kindName, props, CreateOptions{})
			results[i], errs[i] = n, err
			return nil
		})
	}
	_ = g.Wait() // per-item errors are collected in errs, never aborts siblings

	return results, typegraph.NewAggregateError(errs...)
}

// BulkUpsertByIdInput is one BulkUpsertNodesById input: the id to upsert
// and the properties to create or merge.
type BulkUpsertByIdInput struct {
	ID    string
	Props map[string]any
}

// BulkUpsertNodesById runs UpsertNodeById concurrently over inputs,
// preserving input order.
func (s *Store) BulkUpsertNodesById(ctx context.Context, kindName string, inputs []BulkUpsertByIdInput, ifExists UpsertIfExists) ([]*kind.Node, []UpsertAction, error) {
	results := make([]*kind.Node, len(inputs))
	actions := make([]UpsertAction, len(inputs))
	errs := make([]error, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bulkConcurrency)
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			n, action, err := s.UpsertNodeById(gctx, kindName, in.ID, in.Props, ifExists)
			results[i], actions[i], errs[i] = n, action, err
			return nil
		})
	}
	_ = g.Wait()

	return results, actions, typegraph.NewAggregateError(errs...)
}

// BulkGetOrCreateByConstraintInput is one BulkGetOrCreateNodesByConstraint
// input.
type BulkGetOrCreateByConstraintInput struct {
	Props map[string]any
}

// BulkGetOrCreateNodesByConstraint runs GetOrCreateNodeByConstraint
// concurrently over inputs against a single named constraint, preserving
// input order.
func (s *Store) BulkGetOrCreateNodesByConstraint(ctx context.Context, kindName, constraintName string, inputs []BulkGetOrCreateByConstraintInput, ifExists UpsertIfExists) ([]*kind.Node, []UpsertAction, error) {
	results := make([]*kind.Node, len(inputs))
	actions := make([]UpsertAction, len(inputs))
	errs := make([]error, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bulkConcurrency)
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			n, action, err := s.GetOrCreateNodeByConstraint(gctx, kindName, constraintName, in.Props, ifExists)
			results[i], actions[i], errs[i] = n, action, err
			return nil
		})
	}
	_ = g.Wait()

	return results, actions, typegraph.NewAggregateError(errs...)
}
