// Package adapter declares the Backend Adapter contract (spec §6.1): the
// seam between the Store and a concrete SQL backend. adapter/sqlitedb and
// adapter/postgresdb provide the two dialects this build targets.
//
// Grounded on the teacher's dialect.Driver/dialect.Tx split
// (dialect/sql/driver.go): one narrow interface for the pooled handle, a
// second for the transactional handle returned by Tx's body, both backed
// by the same underlying Conn.
package adapter

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/nicia-ai/typegraph/internal/sqlbuilder"
)

// ErrNotFoundRow is returned by GetNode/GetEdge/GetActiveSchema when no row
// matches; the Store translates it into typegraph.ErrNotFound or a more
// specific error depending on the calling operation's context.
var ErrNotFoundRow = errors.New("adapter: no matching row")

// Capabilities reports the optional features a concrete backend supports,
// so the Store and compiler can gate dialect-specific behavior (spec §6.1).
type Capabilities struct {
	CTE        bool
	Returning  bool
	JSONB      bool
	GINIndexes bool
}

// NodeRow is the physical row shape for the nodes table (spec §3, §6.2).
type NodeRow struct {
	GraphID   string
	Kind      string
	ID        string
	Props     []byte // canonical JSON/JSONB encoding
	Version   int
	ValidFrom *time.Time
	ValidTo   *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// EdgeRow is the physical row shape for the edges table (spec §3, §6.2).
type EdgeRow struct {
	GraphID   string
	Kind      string
	ID        string
	FromKind  string
	FromID    string
	ToKind    string
	ToID      string
	Props     []byte
	Version   int
	ValidFrom *time.Time
	ValidTo   *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// UniqueRow is one entry in node_uniques: a precomputed uniqueness key for
// a live node under some declared UniqueConstraint (spec §3, §4.2).
type UniqueRow struct {
	GraphID        string
	ConstraintName string
	Kind           string
	Key            string
	NodeID         string
}

// SchemaVersion records one applied schema revision, keyed by graph (spec
// §3 schema_versions).
type SchemaVersion struct {
	GraphID   string
	Version   int
	AppliedAt time.Time
}

// Rows is the minimal row-iteration surface Execute results expose,
// satisfied directly by *database/sql.Rows; kept as an interface so tests
// can supply go-sqlmock rows without a live connection.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Columns() ([]string, error)
	Err() error
	Close() error
}

// TxOptions configures a transaction's isolation level (spec §5).
type TxOptions struct {
	Isolation sql.IsolationLevel
}

// Handle is the set of operations available both on the pooled Adapter and
// on the transactional handle a Tx body receives (spec §6.1). Every method
// takes a context for cancellation/timeout plumbing (spec §5).
type Handle interface {
	InsertNode(ctx context.Context, row NodeRow) error
	UpdateNode(ctx context.Context, graphID, kind, id string, sets map[string]any, expectedVersion int) error
	DeleteNode(ctx context.Context, graphID, kind, id string, hard bool) error
	GetNode(ctx context.Context, graphID, kind, id string) (*NodeRow, error)

	InsertEdge(ctx context.Context, row EdgeRow) error
	UpdateEdge(ctx context.Context, graphID, kind, id string, sets map[string]any, expectedVersion int) error
	DeleteEdge(ctx context.Context, graphID, kind, id string, hard bool) error
	GetEdge(ctx context.Context, graphID, kind, id string) (*EdgeRow, error)

	InsertUnique(ctx context.Context, row UniqueRow) error
	CheckUnique(ctx context.Context, graphID, constraintName, key string) (nodeID string, found bool, err error)
	DeleteUnique(ctx context.Context, graphID, constraintName, nodeID string) error

	InsertSchema(ctx context.Context, v SchemaVersion) error
	GetActiveSchema(ctx context.Context, graphID string) (*SchemaVersion, error)

	FindEdgesConnectedTo(ctx context.Context, graphID, nodeKind, nodeID string) ([]EdgeRow, error)

	// Execute runs compiled query SQL and returns its rows (spec §6.1
	// execute(sqlWithBinds)).
	Execute(ctx context.Context, query string, args []any) (Rows, error)
}

// Tx is a transactional Handle, committed or rolled back by the caller of
// Adapter.Transaction's body.
type Tx interface {
	Handle
}

// Adapter is the pooled Backend Adapter contract (spec §6.1).
type Adapter interface {
	Handle

	Dialect() sqlbuilder.Dialect
	Capabilities() Capabilities

	// Transaction runs body against a transactional Handle. A non-nil
	// return from body rolls back; nil commits. Nested calls fail with
	// typegraph.ErrTxStarted unless the backend offers savepoints (spec §5).
	Transaction(ctx context.Context, opts *TxOptions, body func(tx Tx) error) error

	// Close releases pooled connections (spec §6.1).
	Close() error
}
