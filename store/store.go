// Package store implements the Store / Constraint Enforcer (spec §4.5,
// §4.6): the single mediator for every write, and the read path's entry
// point for get/find/query. It orchestrates the Kind Registry, the
// Validator & Constraint Engine (constraint package), the Query Planner /
// SQL Compiler (compiler package), and a concrete Backend Adapter.
//
// Grounded on the teacher's generated client.go/tx.go (compiler/gen/sql):
// a root Client/Store type holding shared config (registry, adapter,
// logger), typed per-kind collections reachable off it, and a Transaction
// method that hands the caller a second Store bound to a transactional
// Handle instead of the pooled one.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/nicia-ai/typegraph/adapter"
	"github.com/nicia-ai/typegraph/compiler"
	"github.com/nicia-ai/typegraph/internal/sqlbuilder"
	"github.com/nicia-ai/typegraph/kind"
	"github.com/nicia-ai/typegraph/schema"
)

// Store mediates all reads and writes for one graph (spec §4.5). It holds
// no mutable global state; per-graph caches (compiled-statement cache) are
// owned exclusively by the Store instance (spec §5 Shared resources).
type Store struct {
	graphID  string
	registry *kind.Registry
	handle   adapter.Handle  // the pooled Adapter, or a txHandle inside a transaction
	adapter  adapter.Adapter // nil inside a transaction; only the root Store can start one
	dialect  sqlbuilder.Dialect
	logger   *slog.Logger

	nodeValidators map[string]schema.Validator
	edgeValidators map[string]schema.Validator

	cache *statementCache
}

// Option configures a Store at New time.
type Option func(*Store)

// WithLogger attaches a structured logger (spec §0.2); nil discards.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithNodeValidator registers a Validator for a node kind. A kind with no
// registered validator accepts any property map unchanged.
func WithNodeValidator(kindName string, v schema.Validator) Option {
	return func(s *Store) { s.nodeValidators[kindName] = v }
}

// WithEdgeValidator registers a Validator for an edge kind.
func WithEdgeValidator(kindName string, v schema.Validator) Option {
	return func(s *Store) { s.edgeValidators[kindName] = v }
}

// WithStatementCacheSize bounds the compiled-statement LRU (spec §5: "a
// bounded LRU keyed by builder identity"). Zero disables caching.
func WithStatementCacheSize(n int) Option {
	return func(s *Store) { s.cache = newStatementCache(n) }
}

// New builds a Store for graphID over a, whose schema must already exist
// (see adapter.Open's EnsureSchema call).
func New(graphID string, reg *kind.Registry, a adapter.Adapter, opts ...Option) *Store {
	s := &Store{
		graphID:        graphID,
		registry:       reg,
		handle:         a,
		adapter:        a,
		dialect:        a.Dialect(),
		logger:         slog.New(slog.DiscardHandler),
		nodeValidators: map[string]schema.Validator{},
		edgeValidators: map[string]schema.Validator{},
		cache:          newStatementCache(256),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Transaction opens a backend transaction and runs body against a Store
// bound to the transactional handle (spec §5: "A transactional Store
// exposes the same operations as the non-transactional one"). A non-nil
// return from body rolls back; nil commits.
//
// Nested transactions are rejected with typegraph.ErrTxStarted, since this
// build relies on neither backend's savepoint support (spec §5).
func (s *Store) Transaction(ctx context.Context, opts *adapter.TxOptions, body func(tx *Store) error) error {
	if s.adapter == nil {
		return errTxStarted()
	}
	return s.adapter.Transaction(ctx, opts, func(h adapter.Tx) error {
		txStore := &Store{
			graphID:        s.graphID,
			registry:       s.registry,
			handle:         h,
			adapter:        nil,
			dialect:        s.dialect,
			logger:         s.logger,
			nodeValidators: s.nodeValidators,
			edgeValidators: s.edgeValidators,
			cache:          s.cache,
		}
		return body(txStore)
	})
}

// Close releases the underlying adapter's pooled connections. Only the
// root (non-transactional) Store may be closed.
func (s *Store) Close() error {
	if s.adapter == nil {
		return errTxStarted()
	}
	return s.adapter.Close()
}

// Clear hard-deletes every row in this graph and resets the statement
// cache (spec §4.5 clear()).
func (s *Store) Clear(ctx context.Context) error {
	for _, k := range s.registry.EdgeKinds() {
		if err := s.clearEdgeKind(ctx, k); err != nil {
			return err
		}
	}
	for _, k := range s.registry.NodeKinds() {
		if err := s.clearNodeKind(ctx, k); err != nil {
			return err
		}
	}
	s.cache.reset()
	return nil
}

func (s *Store) clearNodeKind(ctx context.Context, k string) error {
	ids, err := s.listLiveAndTombstonedIDs(ctx, k, false)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := s.handle.DeleteNode(ctx, s.graphID, k, id, true); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) clearEdgeKind(ctx context.Context, k string) error {
	ids, err := s.listLiveAndTombstonedIDs(ctx, k, true)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := s.handle.DeleteEdge(ctx, s.graphID, k, id, true); err != nil {
			return err
		}
	}
	return nil
}

// withHandle runs fn against a Handle that spans a single atomic unit of
// work: the root Store opens a backend transaction and passes it fn's
// Handle; a Store already inside Transaction just passes its own
// transactional handle straight through, since atomicity is already the
// caller's responsibility in that case.
func (s *Store) withHandle(ctx context.Context, fn func(h adapter.Handle) error) error {
	if s.adapter == nil {
		return fn(s.handle)
	}
	return s.adapter.Transaction(ctx, nil, func(tx adapter.Tx) error {
		return fn(tx)
	})
}

// queryKinds returns the kinds currently live for id in this graph, used
// by create/upsertById to discover non-disjoint kinds the id already
// carries before admitting one more (spec §4.2 checkDisjointness). The
// physical primary key is (graph_id, kind, id), not (graph_id, id): a
// single logical id can carry several rows, one per assigned kind.
func (s *Store) queryKinds(ctx context.Context, h adapter.Handle, id string) ([]string, error) {
	text, args := sqlbuilder.Select(s.dialect, compiler.ColKind).
		From(compiler.TableNodes, "t").
		Where(sqlbuilder.EQ("t", compiler.ColGraphID, s.graphID)).
		Where(sqlbuilder.EQ("t", compiler.ColID, id)).
		Where(sqlbuilder.IsNull("t", compiler.ColDeletedAt)).
		Query()

	rows, err := h.Execute(ctx, text, args)
	if err != nil {
		return nil, wrapBackend("queryKinds", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, wrapBackend("queryKinds", err)
		}
		out = append(out, k)
	}
	return out, wrapBackend("queryKinds", rows.Err())
}

// listLiveAndTombstonedIDs returns every id for kindName in this graph,
// live or soft-deleted, for Clear's hard-delete sweep.
func (s *Store) listLiveAndTombstonedIDs(ctx context.Context, kindName string, isEdge bool) ([]string, error) {
	table := compiler.TableNodes
	if isEdge {
		table = compiler.TableEdges
	}
	text, args := sqlbuilder.Select(s.dialect, compiler.ColID).
		From(table, "t").
		Where(sqlbuilder.EQ("t", compiler.ColGraphID, s.graphID)).
		Where(sqlbuilder.EQ("t", compiler.ColKind, kindName)).
		Query()

	rows, err := s.handle.Execute(ctx, text, args)
	if err != nil {
		return nil, wrapBackend("listIDs", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, wrapBackend("listIDs", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapBackend("listIDs", err)
	}
	return ids, nil
}

func (s *Store) now() time.Time { return time.Now().UTC() }
