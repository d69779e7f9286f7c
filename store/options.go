package store

import "time"

// CreateOptions configures create (spec §4.5 create). A caller-supplied ID
// lets a logical id be assigned several disjoint-compatible kinds over its
// lifetime; an empty ID asks the Store to mint a uuid.
type CreateOptions struct {
	ID        string
	ValidFrom *time.Time
	ValidTo   *time.Time
}

// UpsertIfExists controls the "if exists" branch of upsertById and
// getOrCreateByConstraint (spec §4.5).
type UpsertIfExists int

const (
	// UpsertReturn returns the existing row unchanged.
	UpsertReturn UpsertIfExists = iota
	// UpsertUpdate merges the supplied properties into the existing row.
	UpsertUpdate
)

// UpsertAction reports which branch an upsert-style operation took.
type UpsertAction string

const (
	ActionCreated     UpsertAction = "created"
	ActionFound       UpsertAction = "found"
	ActionUpdated     UpsertAction = "updated"
	ActionResurrected UpsertAction = "resurrected"
)
