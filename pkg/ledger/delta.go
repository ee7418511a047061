package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/yieldvault/ledger/pkg/domain"
	"github.com/yieldvault/ledger/pkg/domain/account"
	"github.com/yieldvault/ledger/pkg/domain/transaction"
)

// DeltaForTransaction returns the signed balance change a completed
// transaction of txType and amount causes. Bot trades take their sign from
// outcome; every other type ignores it.
func DeltaForTransaction(txType transaction.Type, amount decimal.Decimal, outcome transaction.Outcome) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, domain.NewInvalidInput("amount", "must be positive")
	}
	switch txType {
	case transaction.TypeDeposit, transaction.TypeProfit, transaction.TypeBonus:
		return amount, nil
	case transaction.TypeWithdrawal, transaction.TypeInvestment:
		return amount.Neg(), nil
	case transaction.TypeBotTrade:
		switch outcome {
		case transaction.OutcomeWin:
			return amount, nil
		case transaction.OutcomeLoss:
			return amount.Neg(), nil
		default:
			return decimal.Zero, domain.NewInvalidInput("outcome", "bot_trade requires win or loss")
		}
	}
	return decimal.Zero, domain.NewInvalidInput("type", fmt.Sprintf("%q is not a transaction type", txType))
}

// Effect is where and by how much a completed transaction moves an account.
type Effect struct {
	Bucket account.Bucket
	Delta  decimal.Decimal
}

// BucketFor returns the balance a transaction type settles into.
// Profit lands in the profit balance; everything else in the main balance.
func BucketFor(txType transaction.Type) account.Bucket {
	if txType == transaction.TypeProfit {
		return account.BucketProfit
	}
	return account.BucketMain
}

// EffectFor combines DeltaForTransaction and BucketFor for tx.
func EffectFor(tx *transaction.Transaction) (Effect, error) {
	delta, err := DeltaForTransaction(tx.Type, tx.Amount, tx.Outcome)
	if err != nil {
		return Effect{}, err
	}
	return Effect{Bucket: BucketFor(tx.Type), Delta: delta}, nil
}
