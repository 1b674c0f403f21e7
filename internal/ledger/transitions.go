// Package ledger holds the transaction state machine. Every function is a
// total, pure transition: it takes a snapshot and returns either a new
// snapshot or a typed failure, never partially mutating its input. The
// orchestrating service in internal/services persists the result
// atomically.
package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/FindNest-Estate/NestFind-sub001/internal/models"
)

// NewFromOffer seeds a Transaction the instant an Offer is accepted. The
// agreed amount is snapshotted here and never changes again.
func NewFromOffer(offer models.Offer, sellerID string, now time.Time) (models.Transaction, error) {
	if offer.Status != models.OfferAccepted {
		return models.Transaction{}, models.ErrInvalidTransition
	}
	if offer.Amount <= 0 {
		return models.Transaction{}, models.ErrInvalidAmount
	}
	now = now.UTC()
	return models.Transaction{
		TxID:         uuid.NewString(),
		OfferID:      offer.OfferID,
		PropertyID:   offer.PropertyID,
		BuyerID:      offer.BuyerID,
		SellerID:     sellerID,
		AgentID:      offer.AgentID,
		AgreedAmount: offer.Amount,
		Status:       models.TxInitiated,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// BuyerVerified advances INITIATED -> BUYER_VERIFIED after the buyer's OTP
// check succeeded.
func BuyerVerified(tx models.Transaction, now time.Time) (models.Transaction, error) {
	if tx.Status.Terminal() {
		return tx, models.ErrTerminalState
	}
	if tx.Status != models.TxInitiated {
		return tx, models.ErrWrongState
	}
	tx.BuyerVerified = true
	tx.Status = models.TxBuyerVerified
	tx.UpdatedAt = now.UTC()
	return tx, nil
}

// SellerVerified advances BUYER_VERIFIED -> SELLER_VERIFIED after the
// seller's OTP check succeeded.
func SellerVerified(tx models.Transaction, now time.Time) (models.Transaction, error) {
	if tx.Status.Terminal() {
		return tx, models.ErrTerminalState
	}
	if tx.Status != models.TxBuyerVerified {
		return tx, models.ErrWrongState
	}
	tx.SellerVerified = true
	tx.Status = models.TxSellerVerified
	tx.UpdatedAt = now.UTC()
	return tx, nil
}

// TokenPaid records the token payment milestone. It does not change the
// status; payment runs as a parallel gate checked at the registration
// step. Allowed from BUYER_VERIFIED onwards, before registration.
func TokenPaid(tx models.Transaction, now time.Time) (models.Transaction, error) {
	if tx.Status.Terminal() {
		return tx, models.ErrTerminalState
	}
	if tx.Status != models.TxBuyerVerified && tx.Status != models.TxSellerVerified {
		return tx, models.ErrWrongState
	}
	if tx.RegistrationCompletedAt != nil || tx.TokenPaidAt != nil {
		return tx, models.ErrWrongState
	}
	t := now.UTC()
	tx.TokenPaidAt = &t
	tx.UpdatedAt = t
	return tx, nil
}

// RegistrationCompleted records the registration milestone. Requires both
// parties verified and the token payment confirmed.
func RegistrationCompleted(tx models.Transaction, now time.Time) (models.Transaction, error) {
	if tx.Status.Terminal() {
		return tx, models.ErrTerminalState
	}
	if tx.Status != models.TxSellerVerified {
		return tx, models.ErrWrongState
	}
	if tx.TokenPaidAt == nil {
		return tx, models.ErrPaymentRequired
	}
	if tx.RegistrationCompletedAt != nil {
		return tx, models.ErrWrongState
	}
	t := now.UTC()
	tx.RegistrationCompletedAt = &t
	tx.UpdatedAt = t
	return tx, nil
}

// CommissionPaid records the commission payment milestone. Requires the
// registration milestone first.
func CommissionPaid(tx models.Transaction, now time.Time) (models.Transaction, error) {
	if tx.Status.Terminal() {
		return tx, models.ErrTerminalState
	}
	if tx.RegistrationCompletedAt == nil {
		return tx, models.ErrWrongState
	}
	if tx.CommissionPaidAt != nil {
		return tx, models.ErrWrongState
	}
	t := now.UTC()
	tx.CommissionPaidAt = &t
	tx.UpdatedAt = t
	return tx, nil
}

// Completed is the sole transition into COMPLETED. All prerequisites must
// already hold; it is never retried automatically, the caller re-invokes
// after satisfying whatever MissingPrerequisite names.
func Completed(tx models.Transaction, now time.Time) (models.Transaction, error) {
	if tx.Status.Terminal() {
		return tx, models.ErrTerminalState
	}
	if tx.Status != models.TxSellerVerified {
		return tx, models.ErrWrongState
	}
	if tx.TokenPaidAt == nil {
		return tx, models.ErrPaymentRequired
	}
	if tx.RegistrationCompletedAt == nil {
		return tx, models.ErrWrongState
	}
	if tx.CommissionPaidAt == nil {
		return tx, models.ErrPaymentRequired
	}
	t := now.UTC()
	tx.Status = models.TxCompleted
	tx.CompletedAt = &t
	tx.UpdatedAt = t
	return tx, nil
}

// Cancelled exits any non-terminal state. Immediate and synchronous; late
// confirmations arriving afterwards are rejected as terminal.
func Cancelled(tx models.Transaction, reason string, now time.Time) (models.Transaction, error) {
	if tx.Status.Terminal() {
		return tx, models.ErrTerminalState
	}
	if reason == "" {
		return tx, models.ErrReasonRequired
	}
	tx.Status = models.TxCancelled
	tx.UpdatedAt = now.UTC()
	return tx, nil
}

// Failed exits any non-terminal state on operational failure.
func Failed(tx models.Transaction, reason string, now time.Time) (models.Transaction, error) {
	if tx.Status.Terminal() {
		return tx, models.ErrTerminalState
	}
	if reason == "" {
		return tx, models.ErrReasonRequired
	}
	tx.Status = models.TxFailed
	tx.UpdatedAt = now.UTC()
	return tx, nil
}

// MissingPrerequisite names the first unmet completion prerequisite, for
// audit reasons on rejected complete attempts.
func MissingPrerequisite(tx models.Transaction) string {
	switch {
	case tx.Status != models.TxSellerVerified:
		return "status is " + string(tx.Status) + ", expected " + string(models.TxSellerVerified)
	case tx.TokenPaidAt == nil:
		return "token payment not confirmed"
	case tx.RegistrationCompletedAt == nil:
		return "registration not completed"
	case tx.CommissionPaidAt == nil:
		return "commission payment not confirmed"
	default:
		return ""
	}
}
