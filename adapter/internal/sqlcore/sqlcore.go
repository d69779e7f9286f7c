// Package sqlcore implements the Backend Adapter contract's CRUD surface
// once, shared between adapter/sqlitedb and adapter/postgresdb: both
// dialects agree on column names (compiler's Table*/Col* constants) and on
// database/sql's placeholder-via-driver-args convention, differing only in
// identifier quoting/placeholder syntax (handled by internal/sqlbuilder)
// and DDL text (owned by each dialect package). Grounded on the teacher's
// dialect/sql.Conn, which wraps a bare ExecQuerier and is shared by both
// the pooled Driver and the transactional Tx (dialect/sql/driver.go).
package sqlcore

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/nicia-ai/typegraph/adapter"
	"github.com/nicia-ai/typegraph/compiler"
	"github.com/nicia-ai/typegraph/internal/sqlbuilder"
)

// ErrNoRowsAffected is returned by UpdateNode/UpdateEdge/DeleteNode/
// DeleteEdge when the WHERE clause (graph/kind/id[/version]) matched no
// live row. The caller (the Store) disambiguates "never existed" from
// "version conflict" with a follow-up GetNode/GetEdge, since sqlcore has
// no typed-error opinion about which one applies (spec §7).
var ErrNoRowsAffected = errors.New("sqlcore: no rows affected")

// ExecQuerier is satisfied by both *sql.DB and *sql.Tx, letting every CRUD
// function below run unchanged whether or not it's inside a transaction.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Core holds the cross-cutting concerns (dialect, logging, slow-query
// threshold) every CRUD function needs, grounded on the teacher's
// StatsDriver/DebugDriver wrapping pattern (dialect/sql/stats.go) collapsed
// into plain fields rather than a decorator chain, since this package has
// no separate Driver/Tx types to wrap.
type Core struct {
	Dialect       sqlbuilder.Dialect
	Logger        *slog.Logger
	SlowThreshold time.Duration
}

func (c *Core) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// Exec runs a compiled statement's SQL text with its bound args, logging
// the statement at debug level and any slow execution at warn level
// (spec §0.2).
func (c *Core) Exec(ctx context.Context, q ExecQuerier, text string, args []any) (sql.Result, error) {
	start := time.Now()
	res, err := q.ExecContext(ctx, text, args...)
	c.record(ctx, text, args, start, err)
	return res, err
}

// Query runs a compiled SELECT and returns the resulting *sql.Rows.
func (c *Core) Query(ctx context.Context, q ExecQuerier, text string, args []any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := q.QueryContext(ctx, text, args...)
	c.record(ctx, text, args, start, err)
	return rows, err
}

func (c *Core) record(ctx context.Context, text string, args []any, start time.Time, err error) {
	l := c.logger()
	l.DebugContext(ctx, "typegraph: sql", "query", text, "args", args, "err", err)
	if d := time.Since(start); c.SlowThreshold > 0 && d > c.SlowThreshold {
		l.WarnContext(ctx, "typegraph: slow query", "duration", d, "query", text)
	}
}

// InsertNode inserts a node row.
func (c *Core) InsertNode(ctx context.Context, q ExecQuerier, row adapter.NodeRow) error {
	ib := sqlbuilder.InsertInto(c.Dialect, compiler.TableNodes).
		Columns(compiler.ColGraphID, compiler.ColKind, compiler.ColID, compiler.ColProps,
			compiler.ColVersion, compiler.ColValidFrom, compiler.ColValidTo,
			compiler.ColCreatedAt, compiler.ColUpdatedAt, compiler.ColDeletedAt).
		Values(row.GraphID, row.Kind, row.ID, row.Props, row.Version,
			row.ValidFrom, row.ValidTo, row.CreatedAt, row.UpdatedAt, row.DeletedAt)
	text, args := ib.Query()
	_, err := c.Exec(ctx, q, text, args)
	return err
}

// UpdateNode applies sets plus an unconditional version bump and
// updated_at touch, scoped to a live row at the expected version.
func (c *Core) UpdateNode(ctx context.Context, q ExecQuerier, graphID, kind, id string, sets map[string]any, expectedVersion int) error {
	ub := sqlbuilder.Update(c.Dialect, compiler.TableNodes)
	for col, v := range sets {
		ub.Set(col, v)
	}
	ub.SetRaw(compiler.ColVersion, compiler.ColVersion+" + 1")
	ub.Set(compiler.ColUpdatedAt, time.Now().UTC())
	ub.Where(sqlbuilder.EQ("", compiler.ColGraphID, graphID))
	ub.Where(sqlbuilder.EQ("", compiler.ColKind, kind))
	ub.Where(sqlbuilder.EQ("", compiler.ColID, id))
	ub.Where(sqlbuilder.EQ("", compiler.ColVersion, expectedVersion))
	ub.Where(isNull(compiler.ColDeletedAt))
	return c.execAffecting(ctx, q, ub.Query())
}

// DeleteNode soft- or hard-deletes a node row.
func (c *Core) DeleteNode(ctx context.Context, q ExecQuerier, graphID, kind, id string, hard bool) error {
	if hard {
		db := sqlbuilder.DeleteFrom(c.Dialect, compiler.TableNodes).
			Where(sqlbuilder.EQ("", compiler.ColGraphID, graphID)).
			Where(sqlbuilder.EQ("", compiler.ColKind, kind)).
			Where(sqlbuilder.EQ("", compiler.ColID, id))
		return c.execAffecting(ctx, q, db.Query())
	}
	ub := sqlbuilder.Update(c.Dialect, compiler.TableNodes).
		Set(compiler.ColDeletedAt, time.Now().UTC()).
		Where(sqlbuilder.EQ("", compiler.ColGraphID, graphID)).
		Where(sqlbuilder.EQ("", compiler.ColKind, kind)).
		Where(sqlbuilder.EQ("", compiler.ColID, id)).
		Where(isNull(compiler.ColDeletedAt))
	return c.execAffecting(ctx, q, ub.Query())
}

// GetNode reads one node row by primary key. Soft-deleted rows are returned
// too, with DeletedAt set.
func (c *Core) GetNode(ctx context.Context, q ExecQuerier, graphID, kind, id string) (*adapter.NodeRow, error) {
	sel := sqlbuilder.Select(c.Dialect).
		From(compiler.TableNodes, "").
		Where(sqlbuilder.EQ("", compiler.ColGraphID, graphID)).
		Where(sqlbuilder.EQ("", compiler.ColKind, kind)).
		Where(sqlbuilder.EQ("", compiler.ColID, id))
	text, args := sel.Query()
	rows, err := c.Query(ctx, q, text, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, adapter.ErrNotFoundRow
	}
	var row adapter.NodeRow
	if err := rows.Scan(&row.GraphID, &row.Kind, &row.ID, &row.Props, &row.Version,
		&row.ValidFrom, &row.ValidTo, &row.CreatedAt, &row.UpdatedAt, &row.DeletedAt); err != nil {
		return nil, err
	}
	return &row, rows.Err()
}

// InsertEdge inserts an edge row.
func (c *Core) InsertEdge(ctx context.Context, q ExecQuerier, row adapter.EdgeRow) error {
	ib := sqlbuilder.InsertInto(c.Dialect, compiler.TableEdges).
		Columns(compiler.ColGraphID, compiler.ColKind, compiler.ColID,
			compiler.ColFromKind, compiler.ColFromID, compiler.ColToKind, compiler.ColToID,
			compiler.ColProps, compiler.ColVersion, compiler.ColValidFrom, compiler.ColValidTo,
			compiler.ColCreatedAt, compiler.ColUpdatedAt, compiler.ColDeletedAt).
		Values(row.GraphID, row.Kind, row.ID, row.FromKind, row.FromID, row.ToKind, row.ToID,
			row.Props, row.Version, row.ValidFrom, row.ValidTo, row.CreatedAt, row.UpdatedAt, row.DeletedAt)
	text, args := ib.Query()
	_, err := c.Exec(ctx, q, text, args)
	return err
}

// UpdateEdge mirrors UpdateNode for the edges table.
func (c *Core) UpdateEdge(ctx context.Context, q ExecQuerier, graphID, kind, id string, sets map[string]any, expectedVersion int) error {
	ub := sqlbuilder.Update(c.Dialect, compiler.TableEdges)
	for col, v := range sets {
		ub.Set(col, v)
	}
	ub.SetRaw(compiler.ColVersion, compiler.ColVersion+" + 1")
	ub.Set(compiler.ColUpdatedAt, time.Now().UTC())
	ub.Where(sqlbuilder.EQ("", compiler.ColGraphID, graphID))
	ub.Where(sqlbuilder.EQ("", compiler.ColKind, kind))
	ub.Where(sqlbuilder.EQ("", compiler.ColID, id))
	ub.Where(sqlbuilder.EQ("", compiler.ColVersion, expectedVersion))
	ub.Where(isNull(compiler.ColDeletedAt))
	return c.execAffecting(ctx, q, ub.Query())
}

// DeleteEdge mirrors DeleteNode for the edges table.
func (c *Core) DeleteEdge(ctx context.Context, q ExecQuerier, graphID, kind, id string, hard bool) error {
	if hard {
		db := sqlbuilder.DeleteFrom(c.Dialect, compiler.TableEdges).
			Where(sqlbuilder.EQ("", compiler.ColGraphID, graphID)).
			Where(sqlbuilder.EQ("", compiler.ColKind, kind)).
			Where(sqlbuilder.EQ("", compiler.ColID, id))
		return c.execAffecting(ctx, q, db.Query())
	}
	ub := sqlbuilder.Update(c.Dialect, compiler.TableEdges).
		Set(compiler.ColDeletedAt, time.Now().UTC()).
		Where(sqlbuilder.EQ("", compiler.ColGraphID, graphID)).
		Where(sqlbuilder.EQ("", compiler.ColKind, kind)).
		Where(sqlbuilder.EQ("", compiler.ColID, id)).
		Where(isNull(compiler.ColDeletedAt))
	return c.execAffecting(ctx, q, ub.Query())
}

// GetEdge reads one edge row by primary key. Soft-deleted rows are returned
// too, with DeletedAt set.
func (c *Core) GetEdge(ctx context.Context, q ExecQuerier, graphID, kind, id string) (*adapter.EdgeRow, error) {
	sel := sqlbuilder.Select(c.Dialect).
		From(compiler.TableEdges, "").
		Where(sqlbuilder.EQ("", compiler.ColGraphID, graphID)).
		Where(sqlbuilder.EQ("", compiler.ColKind, kind)).
		Where(sqlbuilder.EQ("", compiler.ColID, id))
	text, args := sel.Query()
	rows, err := c.Query(ctx, q, text, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, adapter.ErrNotFoundRow
	}
	var row adapter.EdgeRow
	if err := rows.Scan(&row.GraphID, &row.Kind, &row.ID, &row.FromKind, &row.FromID, &row.ToKind, &row.ToID,
		&row.Props, &row.Version, &row.ValidFrom, &row.ValidTo, &row.CreatedAt, &row.UpdatedAt, &row.DeletedAt); err != nil {
		return nil, err
	}
	return &row, rows.Err()
}

// FindEdgesConnectedTo returns every live edge incident to (nodeKind, id)
// in either direction (spec §6.1 findEdgesConnectedTo, used by cascade
// delete planning).
func (c *Core) FindEdgesConnectedTo(ctx context.Context, q ExecQuerier, graphID, nodeKind, nodeID string) ([]adapter.EdgeRow, error) {
	sel := sqlbuilder.Select(c.Dialect).
		From(compiler.TableEdges, "").
		Where(sqlbuilder.EQ("", compiler.ColGraphID, graphID)).
		Where(isNull(compiler.ColDeletedAt)).
		Where(sqlbuilder.Or(
			sqlbuilder.And(sqlbuilder.EQ("", compiler.ColFromKind, nodeKind), sqlbuilder.EQ("", compiler.ColFromID, nodeID)),
			sqlbuilder.And(sqlbuilder.EQ("", compiler.ColToKind, nodeKind), sqlbuilder.EQ("", compiler.ColToID, nodeID)),
		))
	text, args := sel.Query()
	rows, err := c.Query(ctx, q, text, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []adapter.EdgeRow
	for rows.Next() {
		var row adapter.EdgeRow
		if err := rows.Scan(&row.GraphID, &row.Kind, &row.ID, &row.FromKind, &row.FromID, &row.ToKind, &row.ToID,
			&row.Props, &row.Version, &row.ValidFrom, &row.ValidTo, &row.CreatedAt, &row.UpdatedAt, &row.DeletedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// InsertUnique inserts a node_uniques entry. A conflict on (graph_id,
// constraint_name, kind, key) is left for the caller to classify via
// adapter.IsUniqueConstraintError — same-node re-insert idempotency (spec
// §6.1) is the Store's responsibility, checked before insert.
func (c *Core) InsertUnique(ctx context.Context, q ExecQuerier, row adapter.UniqueRow) error {
	ib := sqlbuilder.InsertInto(c.Dialect, compiler.TableNodeUniques).
		Columns("graph_id", "constraint_name", "kind", "unique_key", "node_id").
		Values(row.GraphID, row.ConstraintName, row.Kind, row.Key, row.NodeID)
	text, args := ib.Query()
	_, err := c.Exec(ctx, q, text, args)
	return err
}

// CheckUnique looks up the node id currently holding a uniqueness key.
func (c *Core) CheckUnique(ctx context.Context, q ExecQuerier, graphID, constraintName, key string) (string, bool, error) {
	sel := sqlbuilder.Select(c.Dialect, "node_id").
		From(compiler.TableNodeUniques, "").
		Where(sqlbuilder.EQ("", compiler.ColGraphID, graphID)).
		Where(sqlbuilder.EQ("", "constraint_name", constraintName)).
		Where(sqlbuilder.EQ("", "unique_key", key))
	text, args := sel.Query()
	row := q.QueryRowContext(ctx, text, args...)
	var nodeID string
	if err := row.Scan(&nodeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return nodeID, true, nil
}

// DeleteUnique removes every node_uniques entry for a node under a
// constraint (used when a constraint's participating fields change and
// the old key no longer applies).
func (c *Core) DeleteUnique(ctx context.Context, q ExecQuerier, graphID, constraintName, nodeID string) error {
	db := sqlbuilder.DeleteFrom(c.Dialect, compiler.TableNodeUniques).
		Where(sqlbuilder.EQ("", compiler.ColGraphID, graphID)).
		Where(sqlbuilder.EQ("", "constraint_name", constraintName)).
		Where(sqlbuilder.EQ("", "node_id", nodeID))
	text, args := db.Query()
	_, err := c.Exec(ctx, q, text, args)
	return err
}

// InsertSchema records a newly applied schema version.
func (c *Core) InsertSchema(ctx context.Context, q ExecQuerier, v adapter.SchemaVersion) error {
	ib := sqlbuilder.InsertInto(c.Dialect, compiler.TableSchemaVersns).
		Columns(compiler.ColGraphID, "version", "applied_at").
		Values(v.GraphID, v.Version, v.AppliedAt)
	text, args := ib.Query()
	_, err := c.Exec(ctx, q, text, args)
	return err
}

// GetActiveSchema returns the highest applied schema version for a graph.
func (c *Core) GetActiveSchema(ctx context.Context, q ExecQuerier, graphID string) (*adapter.SchemaVersion, error) {
	sel := sqlbuilder.Select(c.Dialect, "version", "applied_at").
		From(compiler.TableSchemaVersns, "").
		Where(sqlbuilder.EQ("", compiler.ColGraphID, graphID)).
		OrderBy("", "version", sqlbuilder.OrderDesc).
		Limit(1)
	text, args := sel.Query()
	row := q.QueryRowContext(ctx, text, args...)
	var v adapter.SchemaVersion
	v.GraphID = graphID
	if err := row.Scan(&v.Version, &v.AppliedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, adapter.ErrNotFoundRow
		}
		return nil, err
	}
	return &v, nil
}

// Execute runs compiler-produced SQL text for a read query.
func (c *Core) Execute(ctx context.Context, q ExecQuerier, text string, args []any) (*sql.Rows, error) {
	return c.Query(ctx, q, text, args)
}

func (c *Core) execAffecting(ctx context.Context, q ExecQuerier, text string, args []any) error {
	res, err := c.Exec(ctx, q, text, args)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

func isNull(col string) sqlbuilder.Predicate {
	return func(b *sqlbuilder.Builder) {
		b.Ident(col).WriteString(" IS NULL")
	}
}
