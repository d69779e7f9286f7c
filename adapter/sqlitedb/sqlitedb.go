// Package sqlitedb implements the Backend Adapter contract (spec §6.1)
// against modernc.org/sqlite, a CGo-free SQLite driver. It owns the
// physical schema's SQLite-specific DDL (TEXT/JSON columns, ISO-8601 TEXT
// timestamps); CRUD statement building is shared with adapter/postgresdb
// via adapter/internal/sqlcore.
package sqlitedb

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nicia-ai/typegraph/adapter"
	"github.com/nicia-ai/typegraph/adapter/internal/sqlcore"
	"github.com/nicia-ai/typegraph/internal/sqlbuilder"
)

// Adapter is a SQLite-backed adapter.Adapter.
type Adapter struct {
	db   *sql.DB
	core *sqlcore.Core
}

// Option configures an Adapter at Open time.
type Option func(*Adapter)

// WithLogger attaches a structured logger (spec §0.2); nil discards.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) { a.core.Logger = l }
}

// WithSlowQueryThreshold sets the duration above which a statement is
// logged at warn level (spec §0.2). Zero disables slow-query logging.
func WithSlowQueryThreshold(d time.Duration) Option {
	return func(a *Adapter) { a.core.SlowThreshold = d }
}

// Open opens a SQLite database at dsn (e.g. "file:typegraph.db?_pragma=foreign_keys(1)"
// or ":memory:") and ensures the physical schema exists.
func Open(ctx context.Context, dsn string, opts ...Option) (*Adapter, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	a := New(db, opts...)
	if err := a.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

// New wraps an already-open *sql.DB, without touching the schema — useful
// when migrations are applied out of band.
func New(db *sql.DB, opts ...Option) *Adapter {
	a := &Adapter{db: db, core: &sqlcore.Core{Dialect: sqlbuilder.SQLite}}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Dialect reports sqlbuilder.SQLite.
func (a *Adapter) Dialect() sqlbuilder.Dialect { return sqlbuilder.SQLite }

// Capabilities reports SQLite's feature set: recursive CTEs and JSON1 are
// available; RETURNING is version-gated so the compiler never relies on
// it; native JSONB and GIN-style indexes are Postgres-only.
func (a *Adapter) Capabilities() adapter.Capabilities {
	return adapter.Capabilities{CTE: true, Returning: false, JSONB: false, GINIndexes: false}
}

// EnsureSchema creates the four physical tables and their mandatory
// indexes (spec §6.2) if they do not already exist.
func (a *Adapter) EnsureSchema(ctx context.Context) error {
	for _, stmt := range ddlStatements {
		if _, err := a.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

var ddlStatements = []string{
	`CREATE TABLE IF NOT EXISTS nodes (
		graph_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		id TEXT NOT NULL,
		props TEXT NOT NULL DEFAULT '{}',
		version INTEGER NOT NULL DEFAULT 1,
		valid_from TEXT,
		valid_to TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		deleted_at TEXT,
		PRIMARY KEY (graph_id, kind, id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_nodes_kind_live ON nodes (graph_id, kind, deleted_at)`,
	`CREATE INDEX IF NOT EXISTS idx_nodes_kind_live_created ON nodes (graph_id, kind, deleted_at, created_at)`,
	`CREATE TABLE IF NOT EXISTS edges (
		graph_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		id TEXT NOT NULL,
		from_kind TEXT NOT NULL,
		from_id TEXT NOT NULL,
		to_kind TEXT NOT NULL,
		to_id TEXT NOT NULL,
		props TEXT NOT NULL DEFAULT '{}',
		version INTEGER NOT NULL DEFAULT 1,
		valid_from TEXT,
		valid_to TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		deleted_at TEXT,
		PRIMARY KEY (graph_id, kind, id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_edges_from ON edges (graph_id, from_kind, from_id, kind, to_kind, deleted_at, valid_to)`,
	`CREATE INDEX IF NOT EXISTS idx_edges_to ON edges (graph_id, to_kind, to_id, kind, from_kind, deleted_at, valid_to)`,
	`CREATE INDEX IF NOT EXISTS idx_edges_kind_live_created ON edges (graph_id, kind, deleted_at, created_at)`,
	`CREATE TABLE IF NOT EXISTS node_uniques (
		graph_id TEXT NOT NULL,
		constraint_name TEXT NOT NULL,
		kind TEXT NOT NULL,
		unique_key TEXT NOT NULL,
		node_id TEXT NOT NULL,
		PRIMARY KEY (graph_id, constraint_name, kind, unique_key)
	)`,
	`CREATE TABLE IF NOT EXISTS schema_versions (
		graph_id TEXT NOT NULL,
		version INTEGER NOT NULL,
		applied_at TEXT NOT NULL,
		PRIMARY KEY (graph_id, version)
	)`,
}

func (a *Adapter) InsertNode(ctx context.Context, row adapter.NodeRow) error {
	return a.core.InsertNode(ctx, a.db, row)
}
func (a *Adapter) UpdateNode(ctx context.Context, graphID, kind, id string, sets map[string]any, expectedVersion int) error {
	return a.core.UpdateNode(ctx, a.db, graphID, kind, id, sets, expectedVersion)
}
func (a *Adapter) DeleteNode(ctx context.Context, graphID, kind, id string, hard bool) error {
	return a.core.DeleteNode(ctx, a.db, graphID, kind, id, hard)
}
func (a *Adapter) GetNode(ctx context.Context, graphID, kind, id string) (*adapter.NodeRow, error) {
	return a.core.GetNode(ctx, a.db, graphID, kind, id)
}
func (a *Adapter) InsertEdge(ctx context.Context, row adapter.EdgeRow) error {
	return a.core.InsertEdge(ctx, a.db, row)
}
func (a *Adapter) UpdateEdge(ctx context.Context, graphID, kind, id string, sets map[string]any, expectedVersion int) error {
	return a.core.UpdateEdge(ctx, a.db, graphID, kind, id, sets, expectedVersion)
}
func (a *Adapter) DeleteEdge(ctx context.Context, graphID, kind, id string, hard bool) error {
	return a.core.DeleteEdge(ctx, a.db, graphID, kind, id, hard)
}
func (a *Adapter) GetEdge(ctx context.Context, graphID, kind, id string) (*adapter.EdgeRow, error) {
	return a.core.GetEdge(ctx, a.db, graphID, kind, id)
}
func (a *Adapter) InsertUnique(ctx context.Context, row adapter.UniqueRow) error {
	return a.core.InsertUnique(ctx, a.db, row)
}
func (a *Adapter) CheckUnique(ctx context.Context, graphID, constraintName, key string) (string, bool, error) {
	return a.core.CheckUnique(ctx, a.db, graphID, constraintName, key)
}
func (a *Adapter) DeleteUnique(ctx context.Context, graphID, constraintName, nodeID string) error {
	return a.core.DeleteUnique(ctx, a.db, graphID, constraintName, nodeID)
}
func (a *Adapter) InsertSchema(ctx context.Context, v adapter.SchemaVersion) error {
	return a.core.InsertSchema(ctx, a.db, v)
}
func (a *Adapter) GetActiveSchema(ctx context.Context, graphID string) (*adapter.SchemaVersion, error) {
	return a.core.GetActiveSchema(ctx, a.db, graphID)
}
func (a *Adapter) FindEdgesConnectedTo(ctx context.Context, graphID, nodeKind, nodeID string) ([]adapter.EdgeRow, error) {
	return a.core.FindEdgesConnectedTo(ctx, a.db, graphID, nodeKind, nodeID)
}
func (a *Adapter) Execute(ctx context.Context, query string, args []any) (adapter.Rows, error) {
	return a.core.Execute(ctx, a.db, query, args)
}

// Transaction runs body against a SQLite transaction (spec §5). SQLite
// serializes writers regardless of the requested isolation level, so opts
// is accepted for contract symmetry with postgresdb but otherwise ignored.
func (a *Adapter) Transaction(ctx context.Context, _ *adapter.TxOptions, body func(adapter.Tx) error) error {
	sqlTx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	tx := &txHandle{tx: sqlTx, core: a.core}
	if err := body(tx); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	return sqlTx.Commit()
}

// Close releases the underlying connection pool.
func (a *Adapter) Close() error { return a.db.Close() }

// txHandle is the transactional Handle a Transaction body receives,
// routing every CRUD call through the same sqlcore.Core logic bound to
// the *sql.Tx instead of the pooled *sql.DB (mirrors the teacher's
// Conn/Tx split in dialect/sql/driver.go).
type txHandle struct {
	tx   *sql.Tx
	core *sqlcore.Core
}

func (t *txHandle) InsertNode(ctx context.Context, row adapter.NodeRow) error {
	return t.core.InsertNode(ctx, t.tx, row)
}
func (t *txHandle) UpdateNode(ctx context.Context, graphID, kind, id string, sets map[string]any, expectedVersion int) error {
	return t.core.UpdateNode(ctx, t.tx, graphID, kind, id, sets, expectedVersion)
}
func (t *txHandle) DeleteNode(ctx context.Context, graphID, kind, id string, hard bool) error {
	return t.core.DeleteNode(ctx, t.tx, graphID, kind, id, hard)
}
func (t *txHandle) GetNode(ctx context.Context, graphID, kind, id string) (*adapter.NodeRow, error) {
	return t.core.GetNode(ctx, t.tx, graphID, kind, id)
}
func (t *txHandle) InsertEdge(ctx context.Context, row adapter.EdgeRow) error {
	return t.core.InsertEdge(ctx, t.tx, row)
}
func (t *txHandle) UpdateEdge(ctx context.Context, graphID, kind, id string, sets map[string]any, expectedVersion int) error {
	return t.core.UpdateEdge(ctx, t.tx, graphID, kind, id, sets, expectedVersion)
}
func (t *txHandle) DeleteEdge(ctx context.Context, graphID, kind, id string, hard bool) error {
	return t.core.DeleteEdge(ctx, t.tx, graphID, kind, id, hard)
}
func (t *txHandle) GetEdge(ctx context.Context, graphID, kind, id string) (*adapter.EdgeRow, error) {
	return t.core.GetEdge(ctx, t.tx, graphID, kind, id)
}
func (t *txHandle) InsertUnique(ctx context.Context, row adapter.UniqueRow) error {
	return t.core.InsertUnique(ctx, t.tx, row)
}
func (t *txHandle) CheckUnique(ctx context.Context, graphID, constraintName, key string) (string, bool, error) {
	return t.core.CheckUnique(ctx, t.tx, graphID, constraintName, key)
}
func (t *txHandle) DeleteUnique(ctx context.Context, graphID, constraintName, nodeID string) error {
	return t.core.DeleteUnique(ctx, t.tx, graphID, constraintName, nodeID)
}
func (t *txHandle) InsertSchema(ctx context.Context, v adapter.SchemaVersion) error {
	return t.core.InsertSchema(ctx, t.tx, v)
}
func (t *txHandle) GetActiveSchema(ctx context.Context, graphID string) (*adapter.SchemaVersion, error) {
	return t.core.GetActiveSchema(ctx, t.tx, graphID)
}
func (t *txHandle) FindEdgesConnectedTo(ctx context.Context, graphID, nodeKind, nodeID string) ([]adapter.EdgeRow, error) {
	return t.core.FindEdgesConnectedTo(ctx, t.tx, graphID, nodeKind, nodeID)
}
func (t *txHandle) Execute(ctx context.Context, query string, args []any) (adapter.Rows, error) {
	return t.core.Execute(ctx, t.tx, query, args)
}

var (
	_ adapter.Adapter = (*Adapter)(nil)
	_ adapter.Tx      = (*txHandle)(nil)
)
