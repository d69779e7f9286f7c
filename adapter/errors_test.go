package adapter

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakePQError struct{ sqlstate string }

func (e fakePQError) SQLState() string { return e.sqlstate }
func (e fakePQError) Error() string    { return "pq: duplicate key value" }

func TestIsUniqueConstraintErrorSQLState(t *testing.T) {
	assert.True(t, IsUniqueConstraintError(fakePQError{sqlstate: pgUniqueViolation}))
	assert.False(t, IsUniqueConstraintError(fakePQError{sqlstate: pgForeignKeyViolation}))
}

func TestIsUniqueConstraintErrorStringFallback(t *testing.T) {
	assert.True(t, IsUniqueConstraintError(errors.New("UNIQUE constraint failed: nodes.id")))
	assert.True(t, IsUniqueConstraintError(errors.New("pq: duplicate key value violates unique constraint \"email_unique\"")))
	assert.False(t, IsUniqueConstraintError(errors.New("connection refused")))
}

func TestIsUniqueConstraintErrorWrapped(t *testing.T) {
	wrapped := fmt.Errorf("insert node: %w", fakePQError{sqlstate: pgUniqueViolation})
	assert.True(t, IsUniqueConstraintError(wrapped))
}

func TestIsForeignKeyConstraintError(t *testing.T) {
	assert.True(t, IsForeignKeyConstraintError(errors.New("FOREIGN KEY constraint failed")))
	assert.True(t, IsForeignKeyConstraintError(fakePQError{sqlstate: pgForeignKeyViolation}))
	assert.False(t, IsForeignKeyConstraintError(errors.New("syntax error")))
}

func TestIsUniqueConstraintErrorNil(t *testing.T) {
	assert.False(t, IsUniqueConstraintError(nil))
	assert.False(t, IsForeignKeyConstraintError(nil))
}
