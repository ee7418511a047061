package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yieldvault/ledger/pkg/domain"
	"github.com/yieldvault/ledger/pkg/domain/account"
	"github.com/yieldvault/ledger/pkg/domain/transaction"
)

func TestDeltaForTransaction(t *testing.T) {
	t.Parallel()
	amount := decimal.RequireFromString("125.50")

	tests := []struct {
		txType  transaction.Type
		outcome transaction.Outcome
		want    decimal.Decimal
	}{
		{transaction.TypeDeposit, transaction.OutcomeNone, amount},
		{transaction.TypeProfit, transaction.OutcomeNone, amount},
		{transaction.TypeBonus, transaction.OutcomeNone, amount},
		{transaction.TypeWithdrawal, transaction.OutcomeNone, amount.Neg()},
		{transaction.TypeInvestment, transaction.OutcomeNone, amount.Neg()},
		{transaction.TypeBotTrade, transaction.OutcomeWin, amount},
		{transaction.TypeBotTrade, transaction.OutcomeLoss, amount.Neg()},
		// outcome is ignored for non bot trades
		{transaction.TypeDeposit, transaction.OutcomeLoss, amount},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.txType)+"/"+string(tt.outcome), func(t *testing.T) {
			t.Parallel()
			got, err := DeltaForTransaction(tt.txType, amount, tt.outcome)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestDeltaForTransaction_Errors(t *testing.T) {
	t.Parallel()

	_, err := DeltaForTransaction(transaction.TypeBotTrade, decimal.NewFromInt(1), transaction.OutcomeNone)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = DeltaForTransaction(transaction.Type("refund"), decimal.NewFromInt(1), transaction.OutcomeNone)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = DeltaForTransaction(transaction.TypeDeposit, decimal.Zero, transaction.OutcomeNone)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestEffectFor(t *testing.T) {
	t.Parallel()

	e, err := EffectFor(&transaction.Transaction{Type: transaction.TypeProfit, Amount: decimal.NewFromInt(3)})
	require.NoError(t, err)
	assert.Equal(t, account.BucketProfit, e.Bucket)
	assert.True(t, e.Delta.Equal(decimal.NewFromInt(3)))

	e, err = EffectFor(&transaction.Transaction{Type: transaction.TypeWithdrawal, Amount: decimal.NewFromInt(3)})
	require.NoError(t, err)
	assert.Equal(t, account.BucketMain, e.Bucket)
	assert.True(t, e.Delta.Equal(decimal.NewFromInt(-3)))
}
