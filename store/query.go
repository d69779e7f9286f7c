package store

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/nicia-ai/typegraph/compiler"
	"github.com/nicia-ai/typegraph/kind"
	"github.com/nicia-ai/typegraph/query"
)

// cacheKey derives the statementCache key for q. query.Fingerprint alone
// only identifies a query's shape (From/Steps/OrderBy/Temporal) and
// deliberately ignores Where/Project/Page, since it exists to validate
// cursor compatibility across pages of the same query. The compiler bakes
// every Where/Having literal (and every resolved Param) into Compiled.Args
// at compile time, so reusing a cached Compiled across two calls that
// differ only in a bound literal would silently replay the first call's
// values. cacheKey folds the full rendered Query value into the key as
// well, so only byte-for-byte identical queries share a cache entry; the
// shape-only Fingerprint is reserved for cursor fingerprinting.
func cacheKey(q query.Query, dialect string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%+v", dialect, q)
	return query.Fingerprint(q) + ":" + base64.RawURLEncoding.EncodeToString(h.Sum(nil))[:16]
}

func (s *Store) compile(q query.Query) (*compiler.Compiled, error) {
	key := cacheKey(q, string(s.dialect))
	return s.cache.getOrCompile(key, func() (*compiler.Compiled, error) {
		return compiler.Compile(s.registry, s.graphID, q, s.dialect, nil)
	})
}

// runNodeQuery compiles and executes q, scanning rows under the default
// "whole node" projection (id, kind, props, version, valid_from, valid_to,
// created_at, updated_at, deleted_at) that applyProjection emits for an
// empty Projection list. Callers must not set q.Projection.
func (s *Store) runNodeQuery(ctx context.Context, q query.Query) ([]*kind.Node, error) {
	compiled, err := s.compile(q)
	if err != nil {
		return nil, err
	}
	rows, err := s.handle.Execute(ctx, compiled.SQL, compiled.Args)
	if err != nil {
		return nil, wrapBackend("query", err)
	}
	defer rows.Close()

	var out []*kind.Node
	for rows.Next() {
		n, err := scanNodeColumns(rows, q.From.Kind)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapBackend("query", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanNodeColumns scans one row of the default 9-column node projection.
// The resulting Node's Kind is the physical row's own kind column, not
// necessarily fallbackKind (e.g. a query with expandSubClasses set may
// return rows of several concrete kinds).
func scanNodeColumns(r scanner, fallbackKind string) (*kind.Node, error) {
	var (
		id, rowKind          string
		props                []byte
		version              int
		validFrom, validTo   *time.Time
		createdAt, updatedAt time.Time
		deletedAt            *time.Time
	)
	if err := r.Scan(&id, &rowKind, &props, &version, &validFrom, &validTo, &createdAt, &updatedAt, &deletedAt); err != nil {
		return nil, wrapBackend("query", err)
	}
	decoded, err := decodeProps(props)
	if err != nil {
		return nil, err
	}
	if rowKind == "" {
		rowKind = fallbackKind
	}
	return &kind.Node{
		Kind:  rowKind,
		ID:    id,
		Props: decoded,
		Meta: kind.Meta{
			Version:   version,
			ValidFrom: validFrom,
			ValidTo:   validTo,
			CreatedAt: createdAt,
			UpdatedAt: updatedAt,
			DeletedAt: deletedAt,
		},
	}, nil
}
