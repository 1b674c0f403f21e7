// Package payments derives milestone amounts from the agreed price and
// verifies reported confirmations against them. Financial amounts must
// reconcile exactly; there is no rounding tolerance on confirmation.
package payments

import (
	"math/big"

	"github.com/FindNest-Estate/NestFind-sub001/internal/models"
)

type Milestone string

const (
	MilestoneToken      Milestone = "token"
	MilestoneCommission Milestone = "commission"
)

// Gate computes required milestone amounts as a permille share of the
// agreed amount. Defaults are 1 permille token and 9 permille commission.
type Gate struct {
	TokenPermille      int64
	CommissionPermille int64
}

func NewGate(tokenPermille, commissionPermille int64) Gate {
	if tokenPermille <= 0 {
		tokenPermille = 1
	}
	if commissionPermille <= 0 {
		commissionPermille = 9
	}
	return Gate{TokenPermille: tokenPermille, CommissionPermille: commissionPermille}
}

// RequiredAmount returns the exact amount due for a milestone. Any
// sub-unit remainder rounds up so the payee is never underpaid.
func (g Gate) RequiredAmount(agreedAmount int64, milestone Milestone) (int64, error) {
	if agreedAmount <= 0 {
		return 0, models.ErrInvalidAmount
	}
	var permille int64
	switch milestone {
	case MilestoneToken:
		permille = g.TokenPermille
	case MilestoneCommission:
		permille = g.CommissionPermille
	default:
		return 0, models.ErrInvalidAmount
	}
	return permilleOf(agreedAmount, permille), nil
}

// Confirm checks a reported confirmation against the required milestone
// amount. Exact match only; any difference is AmountMismatch.
func (g Gate) Confirm(agreedAmount int64, milestone Milestone, conf models.PaymentConfirmation) error {
	required, err := g.RequiredAmount(agreedAmount, milestone)
	if err != nil {
		return err
	}
	if conf.Amount != required {
		return models.ErrAmountMismatch
	}
	return nil
}

func permilleOf(amount, permille int64) int64 {
	num := new(big.Int).Mul(big.NewInt(amount), big.NewInt(permille))
	quot, rem := new(big.Int).QuoRem(num, big.NewInt(1000), new(big.Int))
	if rem.Sign() > 0 {
		quot.Add(quot, big.NewInt(1))
	}
	return quot.Int64()
}
