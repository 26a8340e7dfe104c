// internal/domain/payout_test.go
package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPayout(t *testing.T) {
	amount := decimal.NewFromInt(50)

	t.Run("Defaults", func(t *testing.T) {
		payout := NewPayout("pro-123", amount, "JMD", nil)

		assert.Equal(t, PayoutStatusPending, payout.Status)
		assert.Equal(t, "pro-123", payout.ProfessionalID)
		assert.True(t, amount.Equal(payout.Amount))
		assert.Equal(t, "JMD", payout.Currency)
		assert.Nil(t, payout.TransactionID)
		assert.Nil(t, payout.CompletedAt)
		assert.False(t, payout.CreatedAt.IsZero())
		// Absent metadata is stored as an empty object, never NULL.
		assert.JSONEq(t, "{}", string(payout.Metadata))

		_, err := uuid.Parse(payout.ID)
		require.NoError(t, err)
	})

	t.Run("MetadataPreserved", func(t *testing.T) {
		metadata := types.JSONText(`{"source":"mobile"}`)
		payout := NewPayout("pro-123", amount, "JMD", metadata)
		assert.JSONEq(t, `{"source":"mobile"}`, string(payout.Metadata))
	})

	t.Run("UniqueIDs", func(t *testing.T) {
		first := NewPayout("pro-123", amount, "JMD", nil)
		second := NewPayout("pro-123", amount, "JMD", nil)
		assert.NotEqual(t, first.ID, second.ID)
	})
}

func TestPayoutStatusIsTerminal(t *testing.T) {
	assert.False(t, PayoutStatusPending.IsTerminal())
	assert.True(t, PayoutStatusSuccess.IsTerminal())
	assert.True(t, PayoutStatusFailed.IsTerminal())
	assert.True(t, PayoutStatusCancelled.IsTerminal())
}
