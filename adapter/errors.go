package adapter

import (
	"errors"
	"strings"
)

// errorCoder is implemented by lib/pq's pq.Error and by modernc.org/sqlite's
// error type, both of which expose a driver-specific code string.
type errorCoder interface {
	Code() string
}

// sqlStateError is implemented by lib/pq's pq.Error.
type sqlStateError interface {
	SQLState() string
}

// PostgreSQL SQLSTATE codes for constraint violations (Class 23).
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// IsUniqueConstraintError reports whether err resulted from a uniqueness
// violation on either backend. Required to match /uniqueness.*violation/i
// once wrapped by the Store (spec §6.1).
func IsUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if e, ok := asError[sqlStateError](err); ok && e.SQLState() == pgUniqueViolation {
		return true
	}
	if e, ok := asError[errorCoder](err); ok && e.Code() == pgUniqueViolation {
		return true
	}
	return containsAny(err.Error(),
		"violates unique constraint", // Postgres string fallback
		"UNIQUE constraint failed",   // SQLite
	)
}

// IsForeignKeyConstraintError reports whether err resulted from a foreign
// key violation on either backend.
func IsForeignKeyConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if e, ok := asError[sqlStateError](err); ok && e.SQLState() == pgForeignKeyViolation {
		return true
	}
	if e, ok := asError[errorCoder](err); ok && e.Code() == pgForeignKeyViolation {
		return true
	}
	return containsAny(err.Error(),
		"violates foreign key constraint",
		"FOREIGN KEY constraint failed",
	)
}

func asError[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if e, ok := err.(T); ok {
			return e, true
		}
		err = errors.Unwrap(err)
	}
	return target, false
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
