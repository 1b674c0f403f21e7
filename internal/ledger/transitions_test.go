package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/FindNest-Estate/NestFind-sub001/internal/models"
)

var now = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func acceptedOffer(amount int64) models.Offer {
	return models.Offer{
		OfferID:    "offer-1",
		PropertyID: "prop-1",
		BuyerID:    "buyer-1",
		AgentID:    "agent-1",
		Amount:     amount,
		Status:     models.OfferAccepted,
		NextActor:  models.RoleBuyer,
	}
}

func TestNewFromOffer(t *testing.T) {
	tx, err := NewFromOffer(acceptedOffer(4800000), "seller-1", now)
	if err != nil {
		t.Fatalf("NewFromOffer: %v", err)
	}
	if tx.Status != models.TxInitiated {
		t.Fatalf("status = %s, want initiated", tx.Status)
	}
	if tx.AgreedAmount != 4800000 {
		t.Fatalf("agreed amount = %d, want 4800000", tx.AgreedAmount)
	}
	if tx.SellerID != "seller-1" || tx.BuyerID != "buyer-1" || tx.AgentID != "agent-1" {
		t.Fatalf("party ids not carried over: %+v", tx)
	}
}

func TestNewFromOfferRequiresAcceptedStatus(t *testing.T) {
	offer := acceptedOffer(4800000)
	for _, status := range []models.OfferStatus{models.OfferPending, models.OfferCountered, models.OfferRejected} {
		offer.Status = status
		if _, err := NewFromOffer(offer, "seller-1", now); !errors.Is(err, models.ErrInvalidTransition) {
			t.Errorf("status %s: got %v, want ErrInvalidTransition", status, err)
		}
	}
}

// buildTx assembles a transaction at SELLER_VERIFIED with the given
// milestone flags, for prerequisite enumeration.
func buildTx(status models.TransactionStatus, tokenPaid, registered, commissionPaid bool) models.Transaction {
	tx := models.Transaction{
		TxID:         "tx-1",
		AgreedAmount: 5000000,
		Status:       status,
	}
	ts := now
	if tokenPaid {
		tx.TokenPaidAt = &ts
	}
	if registered {
		tx.RegistrationCompletedAt = &ts
	}
	if commissionPaid {
		tx.CommissionPaidAt = &ts
	}
	return tx
}

func TestCompletedRequiresAllPrerequisites(t *testing.T) {
	statuses := []models.TransactionStatus{
		models.TxInitiated, models.TxBuyerVerified, models.TxSellerVerified,
	}
	bools := []bool{false, true}
	for _, status := range statuses {
		for _, tokenPaid := range bools {
			for _, registered := range bools {
				for _, commissionPaid := range bools {
					tx := buildTx(status, tokenPaid, registered, commissionPaid)
					got, err := Completed(tx, now)

					shouldSucceed := status == models.TxSellerVerified &&
						tokenPaid && registered && commissionPaid
					if shouldSucceed {
						if err != nil {
							t.Errorf("%s token=%v reg=%v comm=%v: unexpected %v",
								status, tokenPaid, registered, commissionPaid, err)
							continue
						}
						if got.Status != models.TxCompleted || got.CompletedAt == nil {
							t.Errorf("completion did not apply: %+v", got)
						}
					} else if err == nil {
						t.Errorf("%s token=%v reg=%v comm=%v: completion succeeded without prerequisites",
							status, tokenPaid, registered, commissionPaid)
					}
				}
			}
		}
	}
}

func TestCompletedFailureLeavesSnapshotUnchanged(t *testing.T) {
	tx := buildTx(models.TxSellerVerified, true, false, false)
	got, err := Completed(tx, now)
	if !errors.Is(err, models.ErrWrongState) {
		t.Fatalf("got %v, want ErrWrongState", err)
	}
	if got != tx {
		t.Fatalf("snapshot changed on failure: %+v != %+v", got, tx)
	}
}

func TestMilestoneOrdering(t *testing.T) {
	tx := buildTx(models.TxInitiated, false, false, false)

	// Token payment before buyer verification is refused.
	if _, err := TokenPaid(tx, now); !errors.Is(err, models.ErrWrongState) {
		t.Errorf("token at initiated: got %v, want ErrWrongState", err)
	}

	// Registration needs seller verification and token payment.
	tx.Status = models.TxSellerVerified
	if _, err := RegistrationCompleted(tx, now); !errors.Is(err, models.ErrPaymentRequired) {
		t.Errorf("registration without token: got %v, want ErrPaymentRequired", err)
	}

	// Commission needs registration.
	withToken, err := TokenPaid(tx, now)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if _, err := CommissionPaid(withToken, now); !errors.Is(err, models.ErrWrongState) {
		t.Errorf("commission without registration: got %v, want ErrWrongState", err)
	}

	registered, err := RegistrationCompleted(withToken, now)
	if err != nil {
		t.Fatalf("registration: %v", err)
	}
	if _, err := CommissionPaid(registered, now); err != nil {
		t.Errorf("commission after registration: %v", err)
	}
}

func TestMilestonesApplyOnlyOnce(t *testing.T) {
	tx := buildTx(models.TxBuyerVerified, false, false, false)
	withToken, err := TokenPaid(tx, now)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if _, err := TokenPaid(withToken, now); !errors.Is(err, models.ErrWrongState) {
		t.Fatalf("second token payment: got %v, want ErrWrongState", err)
	}
}

func TestVerificationSequence(t *testing.T) {
	tx := buildTx(models.TxInitiated, false, false, false)

	// Seller cannot verify before the buyer.
	if _, err := SellerVerified(tx, now); !errors.Is(err, models.ErrWrongState) {
		t.Fatalf("seller first: got %v, want ErrWrongState", err)
	}

	afterBuyer, err := BuyerVerified(tx, now)
	if err != nil {
		t.Fatalf("buyer verified: %v", err)
	}
	if afterBuyer.Status != models.TxBuyerVerified || !afterBuyer.BuyerVerified {
		t.Fatalf("buyer verification did not apply: %+v", afterBuyer)
	}

	// Re-entering a completed milestone is refused.
	if _, err := BuyerVerified(afterBuyer, now); !errors.Is(err, models.ErrWrongState) {
		t.Fatalf("buyer verify twice: got %v, want ErrWrongState", err)
	}

	afterSeller, err := SellerVerified(afterBuyer, now)
	if err != nil {
		t.Fatalf("seller verified: %v", err)
	}
	if afterSeller.Status != models.TxSellerVerified || !afterSeller.SellerVerified {
		t.Fatalf("seller verification did not apply: %+v", afterSeller)
	}
}

func TestCancelFromAnyNonTerminalState(t *testing.T) {
	for _, status := range []models.TransactionStatus{models.TxInitiated, models.TxBuyerVerified, models.TxSellerVerified} {
		tx := buildTx(status, false, false, false)
		got, err := Cancelled(tx, "buyer withdrew", now)
		if err != nil {
			t.Errorf("cancel from %s: %v", status, err)
			continue
		}
		if got.Status != models.TxCancelled {
			t.Errorf("cancel from %s: status = %s", status, got.Status)
		}
	}
}

func TestCancelRequiresReason(t *testing.T) {
	tx := buildTx(models.TxInitiated, false, false, false)
	if _, err := Cancelled(tx, "", now); !errors.Is(err, models.ErrReasonRequired) {
		t.Fatalf("got %v, want ErrReasonRequired", err)
	}
}

func TestTerminalStatesFreeze(t *testing.T) {
	completed := buildTx(models.TxSellerVerified, true, true, true)
	completed, err := Completed(completed, now)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	completedAt := *completed.CompletedAt

	if _, err := Cancelled(completed, "late change of heart", now); !errors.Is(err, models.ErrTerminalState) {
		t.Fatalf("cancel after complete: got %v, want ErrTerminalState", err)
	}
	if _, err := TokenPaid(completed, now); !errors.Is(err, models.ErrTerminalState) {
		t.Fatalf("token after complete: got %v, want ErrTerminalState", err)
	}
	if _, err := Failed(completed, "gateway outage", now); !errors.Is(err, models.ErrTerminalState) {
		t.Fatalf("fail after complete: got %v, want ErrTerminalState", err)
	}
	if !completed.CompletedAt.Equal(completedAt) {
		t.Fatalf("completed_at changed: %v != %v", completed.CompletedAt, completedAt)
	}

	for _, terminal := range []models.TransactionStatus{models.TxCancelled, models.TxFailed} {
		tx := buildTx(terminal, false, false, false)
		if _, err := BuyerVerified(tx, now); !errors.Is(err, models.ErrTerminalState) {
			t.Errorf("verify on %s: got %v, want ErrTerminalState", terminal, err)
		}
	}
}

func TestMissingPrerequisiteNamesFirstGap(t *testing.T) {
	tests := []struct {
		tx   models.Transaction
		want string
	}{
		{buildTx(models.TxInitiated, false, false, false), "status is initiated, expected seller_verified"},
		{buildTx(models.TxSellerVerified, false, false, false), "token payment not confirmed"},
		{buildTx(models.TxSellerVerified, true, false, false), "registration not completed"},
		{buildTx(models.TxSellerVerified, true, true, false), "commission payment not confirmed"},
		{buildTx(models.TxSellerVerified, true, true, true), ""},
	}
	for _, tt := range tests {
		if got := MissingPrerequisite(tt.tx); got != tt.want {
			t.Errorf("MissingPrerequisite = %q, want %q", got, tt.want)
		}
	}
}
