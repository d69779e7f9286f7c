package query

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// cursorPayload is the msgpack-encoded body of a cursor: the ordered
// tuple of OrderBy values as of the last row returned, the primary key
// tiebreaker, a direction byte, and a fingerprint of the query shape that
// produced it (spec §6.4).
type cursorPayload struct {
	Values      []any  `msgpack:"v"`
	PrimaryKey  string `msgpack:"pk"`
	Forward     bool   `msgpack:"f"`
	Fingerprint string `msgpack:"fp"`
}

// Fingerprint derives a stable, compact identifier for a query's "shape"
// — its FromClause, traversal steps, order terms, and temporal mode. It
// deliberately ignores Where/Project/Page, which don't affect how a
// cursor's tuple is interpreted by the next page's ORDER BY. Two Query
// values with the same Fingerprint can safely exchange cursors.
func Fingerprint(q Query) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%v|", q.From.Kind, q.From.Alias, q.From.ExpandSubClasses)
	for _, s := range q.Steps {
		fmt.Fprintf(h, "%s|%d|%v|%d|", s.EdgeKind, s.Direction, s.Optional, s.Expand)
	}
	for _, o := range q.OrderBy {
		fmt.Fprintf(h, "%s.%s:%v|", o.Alias, o.Prop, o.Desc)
	}
	fmt.Fprintf(h, "%s", q.Temporal.Mode)
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))[:16]
}

// EncodeCursor builds an opaque, URL-safe cursor string from an ordered
// tuple of ORDER BY values plus the row's primary key, for a query with
// the given fingerprint and scan direction.
func EncodeCursor(q Query, values []any, primaryKey string, forward bool) (string, error) {
	p := cursorPayload{
		Values:      values,
		PrimaryKey:  primaryKey,
		Forward:     forward,
		Fingerprint: Fingerprint(q),
	}
	b, err := msgpack.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("typegraph: encode cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// DecodedCursor is a cursor's parsed contents.
type DecodedCursor struct {
	Values     []any
	PrimaryKey string
	Forward    bool
}

// DecodeCursor parses an opaque cursor string and verifies its
// fingerprint matches q's shape, returning a *CursorError when it was
// produced by a differently shaped query, or is otherwise malformed.
func DecodeCursor(q Query, raw string) (*DecodedCursor, error) {
	b, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil, &CursorError{Message: "cursor is not valid base64: " + err.Error()}
	}
	var p cursorPayload
	if err := msgpack.Unmarshal(b, &p); err != nil {
		return nil, &CursorError{Message: "cursor payload is malformed: " + err.Error()}
	}
	want := Fingerprint(q)
	if p.Fingerprint != want {
		return nil, &CursorError{Message: "cursor was issued for a different query shape"}
	}
	return &DecodedCursor{Values: p.Values, PrimaryKey: p.PrimaryKey, Forward: p.Forward}, nil
}

// CursorError reports a malformed or mismatched-fingerprint cursor. The
// Store wraps it as a *typegraph.ValidationError at the API boundary.
type CursorError struct {
	Message string
}

func (e *CursorError) Error() string { return "typegraph: invalid cursor: " + e.Message }
