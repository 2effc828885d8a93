package persistence

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestUniqueViolation(t *testing.T) {
	dup := &pq.Error{Code: pqUniqueViolation, Constraint: "contracts_booking_id_key"}

	assert.True(t, uniqueViolation(dup, "contracts_booking_id_key"))
	assert.True(t, uniqueViolation(fmt.Errorf("insert: %w", dup), ""))
	assert.False(t, uniqueViolation(dup, "escrow_transactions_booking_id_key"))
	assert.False(t, uniqueViolation(&pq.Error{Code: pqForeignKeyViolation}, ""))
	assert.False(t, uniqueViolation(errors.New("boom"), ""))
	assert.False(t, uniqueViolation(nil, ""))
}

func TestForeignKeyViolation(t *testing.T) {
	assert.True(t, foreignKeyViolation(&pq.Error{Code: pqForeignKeyViolation}))
	assert.False(t, foreignKeyViolation(&pq.Error{Code: pqUniqueViolation}))
}
