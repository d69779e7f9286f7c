// Package typegraph is an embedded library presenting a typed property-graph
// data model over a relational store (SQLite or PostgreSQL). See the
// subpackages for the Kind Registry (kind), the property-schema Validator
// contract (schema), the Validator & Constraint Engine (constraint), the
// query AST and immutable builder (query), the planner/SQL compiler
// (compiler), the Store (store), the Backend Adapter contract (adapter), and
// the DDL helpers (ddl).
package typegraph

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors for common operations.
var (
	// ErrNotFound is returned when a requested node or edge does not exist.
	ErrNotFound = errors.New("typegraph: entity not found")

	// ErrTxStarted is returned when attempting to start a new transaction
	// within an existing transaction and the backend offers no savepoints.
	ErrTxStarted = errors.New("typegraph: cannot start a transaction within a transaction")
)

// ValidationError reports that a property did not satisfy the kind's
// (opaque) property schema.
type ValidationError struct {
	Kind    string
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("typegraph: validation failed for kind %q (fields=%v): %s", e.Kind, e.Fields, e.Message)
}

// IsValidationError returns true if err is a *ValidationError.
func IsValidationError(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

// UniquenessError reports a violation of a declared UniqueConstraint
// (spec §4.2, §8 invariant 2).
type UniquenessError struct {
	ConstraintName string
	Kind           string
	Fields         []string
	ExistingID     string
	NewID          string
}

func (e *UniquenessError) Error() string {
	return fmt.Sprintf("typegraph: uniqueness violation on %s.%s (fields=%v): existing id %q conflicts with new id %q",
		e.Kind, e.ConstraintName, e.Fields, e.ExistingID, e.NewID)
}

// IsUniquenessError returns true if err is a *UniquenessError.
func IsUniquenessError(err error) bool {
	var e *UniquenessError
	return errors.As(err, &e)
}

// CardinalityError reports a violation of an edge kind's declared
// cardinality (spec §4.2, §8 invariant 4).
type CardinalityError struct {
	EdgeKind      string
	FromKind      string
	FromID        string
	Cardinality   string
	ExistingCount int
}

func (e *CardinalityError) Error() string {
	return fmt.Sprintf("typegraph: cardinality %q violated for edge %q from %s:%s (existing=%d)",
		e.Cardinality, e.EdgeKind, e.FromKind, e.FromID, e.ExistingCount)
}

// IsCardinalityError returns true if err is a *CardinalityError.
func IsCardinalityError(err error) bool {
	var e *CardinalityError
	return errors.As(err, &e)
}

// EndpointError reports that an edge endpoint is not assignable to any
// declared from/to kind (spec §4.2, §8 invariant 3).
type EndpointError struct {
	EdgeKind      string
	Endpoint      string // "from" | "to"
	ActualKind    string
	ExpectedKinds []string
}

func (e *EndpointError) Error() string {
	return fmt.Sprintf("typegraph: edge %q %s endpoint kind %q is not assignable to any of %v",
		e.EdgeKind, e.Endpoint, e.ActualKind, e.ExpectedKinds)
}

// IsEndpointError returns true if err is a *EndpointError.
func IsEndpointError(err error) bool {
	var e *EndpointError
	return errors.As(err, &e)
}

// DisjointError reports an attempt to give a logical id a kind disjoint with
// one it already carries (spec §4.2, §8 invariant 1).
type DisjointError struct {
	NodeID          string
	AttemptedKind   string
	ConflictingKind string
}

func (e *DisjointError) Error() string {
	return fmt.Sprintf("typegraph: node %q cannot also be kind %q: disjoint with existing kind %q",
		e.NodeID, e.AttemptedKind, e.ConflictingKind)
}

// IsDisjointError returns true if err is a *DisjointError.
func IsDisjointError(err error) bool {
	var e *DisjointError
	return errors.As(err, &e)
}

// RestrictedDeleteError reports that a node with onDelete=restrict has live
// incident edges (spec §4.2, §4.6).
type RestrictedDeleteError struct {
	Kind      string
	ID        string
	EdgeCount int
	EdgeKinds []string
}

func (e *RestrictedDeleteError) Error() string {
	return fmt.Sprintf("typegraph: cannot delete %s:%s: %d live edge(s) of kind(s) %v restrict the delete",
		e.Kind, e.ID, e.EdgeCount, e.EdgeKinds)
}

// IsRestrictedDeleteError returns true if err is a *RestrictedDeleteError.
func IsRestrictedDeleteError(err error) bool {
	var e *RestrictedDeleteError
	return errors.As(err, &e)
}

// NodeConstraintNotFoundError reports an unknown uniqueness constraint name
// requested on a node kind.
type NodeConstraintNotFoundError struct {
	Kind, Name string
}

func (e *NodeConstraintNotFoundError) Error() string {
	return fmt.Sprintf("typegraph: node kind %q has no uniqueness constraint named %q", e.Kind, e.Name)
}

// IsNodeConstraintNotFoundError returns true if err is a *NodeConstraintNotFoundError.
func IsNodeConstraintNotFoundError(err error) bool {
	var e *NodeConstraintNotFoundError
	return errors.As(err, &e)
}

// EdgeConstraintNotFoundError reports an unknown matchOn field set requested
// on an edge kind.
type EdgeConstraintNotFoundError struct {
	Kind, Name string
}

func (e *EdgeConstraintNotFoundError) Error() string {
	return fmt.Sprintf("typegraph: edge kind %q has no constraint named %q", e.Kind, e.Name)
}

// IsEdgeConstraintNotFoundError returns true if err is a *EdgeConstraintNotFoundError.
func IsEdgeConstraintNotFoundError(err error) bool {
	var e *EdgeConstraintNotFoundError
	return errors.As(err, &e)
}

// VersionConflictError reports an optimistic-update failure: the caller's
// observed version no longer matches the stored row (spec §3 invariant 5).
type VersionConflictError struct {
	Kind, ID    string
	ExpectedVer int
	ActualVer   int
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("typegraph: version conflict on %s:%s: expected %d, found %d",
		e.Kind, e.ID, e.ExpectedVer, e.ActualVer)
}

// IsVersionConflictError returns true if err is a *VersionConflictError.
func IsVersionConflictError(err error) bool {
	var e *VersionConflictError
	return errors.As(err, &e)
}

// TemporalError reports a malformed asOf query parameter.
type TemporalError struct {
	Message string
}

func (e *TemporalError) Error() string {
	return fmt.Sprintf("typegraph: temporal error: %s", e.Message)
}

// IsTemporalError returns true if err is a *TemporalError.
func IsTemporalError(err error) bool {
	var e *TemporalError
	return errors.As(err, &e)
}

// CompilationError reports a query AST that the planner cannot lower to SQL:
// an unreachable alias, a cyclic ontology, maxHops out of range, and similar.
type CompilationError struct {
	Message string
}

func (e *CompilationError) Error() string {
	return fmt.Sprintf("typegraph: compilation error: %s", e.Message)
}

// IsCompilationError returns true if err is a *CompilationError.
func IsCompilationError(err error) bool {
	var e *CompilationError
	return errors.As(err, &e)
}

// BackendError wraps an adapter I/O failure. The core never retries it;
// retry policy is the caller's concern.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("typegraph: backend error during %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// NewBackendError wraps err as a *BackendError, or returns nil if err is nil.
func NewBackendError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &BackendError{Op: op, Err: err}
}

// IsBackendError returns true if err is a *BackendError.
func IsBackendError(err error) bool {
	var e *BackendError
	return errors.As(err, &e)
}

// AggregateError collects multiple errors from a single bulk operation,
// preserving their input order (spec §8 invariant 8).
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "typegraph: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("typegraph: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// NewAggregateError returns a new AggregateError if errs contains any
// non-nil error, otherwise nil. A single non-nil error is returned bare.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	switch len(filtered) {
	case 0:
		return nil
	case 1:
		return filtered[0]
	default:
		return &AggregateError{Errors: filtered}
	}
}
