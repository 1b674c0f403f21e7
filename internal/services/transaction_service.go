package services

import (
	"context"
	"log"
	"time"

	"github.com/FindNest-Estate/NestFind-sub001/internal/audit"
	"github.com/FindNest-Estate/NestFind-sub001/internal/ledger"
	"github.com/FindNest-Estate/NestFind-sub001/internal/metrics"
	"github.com/FindNest-Estate/NestFind-sub001/internal/models"
	"github.com/FindNest-Estate/NestFind-sub001/internal/otp"
	"github.com/FindNest-Estate/NestFind-sub001/internal/payments"
)

// TransactionStore is the persistence port for transactions. ApplyTransition
// persists a new snapshot guarded by the expected current status and writes
// the audit entry in the same database transaction; zero rows means the
// stored row moved on concurrently.
type TransactionStore interface {
	GetTransaction(ctx context.Context, txID string) (*models.Transaction, error)
	ApplyTransition(ctx context.Context, tx *models.Transaction, expectedStatus models.TransactionStatus, entry *models.AuditEntry) (int64, error)
}

// TransactionService sequences the milestones of a sale: buyer OTP, seller
// OTP, token payment, registration, commission payment, completion. Every
// operation loads a snapshot, computes a pure transition and applies it
// all-or-nothing; a failed call leaves the stored row untouched.
type TransactionService struct {
	Store TransactionStore
	Audit audit.Store
	Feed  *audit.Feed
	OTP   *otp.Service
	Gate  payments.Gate
	Now   func() time.Time
}

func (s *TransactionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *TransactionService) Get(ctx context.Context, txID string) (*models.Transaction, error) {
	return s.Store.GetTransaction(ctx, txID)
}

func (s *TransactionService) AuditTrail(ctx context.Context, txID string) ([]*models.AuditEntry, error) {
	return s.Audit.ListAudit(ctx, txID)
}

// SendOTP issues a challenge for the named party. Only the agent sends, and
// only for the verification the machine currently expects.
func (s *TransactionService) SendOTP(ctx context.Context, txID string, role models.Role, destination string, actor models.Actor) (*models.OTPChallenge, error) {
	if actor.Role != models.RoleAgent {
		return nil, models.ErrForbiddenRole
	}
	tx, err := s.Store.GetTransaction(ctx, txID)
	if err != nil {
		return nil, err
	}
	if tx.Status.Terminal() {
		return nil, models.ErrTerminalState
	}
	switch role {
	case models.RoleBuyer:
		if tx.Status != models.TxInitiated {
			return nil, models.ErrWrongState
		}
	case models.RoleSeller:
		if tx.Status != models.TxBuyerVerified {
			return nil, models.ErrWrongState
		}
	default:
		return nil, models.ErrForbiddenRole
	}
	return s.OTP.Issue(ctx, txID, role, destination)
}

// VerifyBuyer consumes the buyer challenge and advances INITIATED ->
// BUYER_VERIFIED.
func (s *TransactionService) VerifyBuyer(ctx context.Context, txID, code string, actor models.Actor) (*models.Transaction, error) {
	return s.verifyParty(ctx, txID, code, actor, models.RoleBuyer)
}

// VerifySeller consumes the seller challenge and advances BUYER_VERIFIED ->
// SELLER_VERIFIED.
func (s *TransactionService) VerifySeller(ctx context.Context, txID, code string, actor models.Actor) (*models.Transaction, error) {
	return s.verifyParty(ctx, txID, code, actor, models.RoleSeller)
}

func (s *TransactionService) verifyParty(ctx context.Context, txID, code string, actor models.Actor, role models.Role) (*models.Transaction, error) {
	op := "verify_" + string(role)
	if actor.Role != role {
		return nil, models.ErrForbiddenRole
	}
	tx, err := s.Store.GetTransaction(ctx, txID)
	if err != nil {
		return nil, err
	}
	if tx.Status.Terminal() {
		s.reject(ctx, tx, actor, op, models.ErrTerminalState)
		return nil, models.ErrTerminalState
	}

	// The challenge check runs before the state check so a duplicate
	// submission surfaces as AlreadyConsumed, not a generic state error.
	if err := s.OTP.Verify(ctx, txID, role, code); err != nil {
		metrics.OTPVerificationsTotal.WithLabelValues("failure").Inc()
		s.reject(ctx, tx, actor, op, err)
		return nil, err
	}
	metrics.OTPVerificationsTotal.WithLabelValues("success").Inc()

	var next models.Transaction
	if role == models.RoleBuyer {
		next, err = ledger.BuyerVerified(*tx, s.now())
	} else {
		next, err = ledger.SellerVerified(*tx, s.now())
	}
	if err != nil {
		s.reject(ctx, tx, actor, op, err)
		return nil, err
	}

	return s.apply(ctx, tx, &next, actor, "")
}

// PayToken records the token payment confirmation reported by the external
// gateway. It does not advance the status; it arms the registration step.
func (s *TransactionService) PayToken(ctx context.Context, txID string, conf models.PaymentConfirmation, actor models.Actor) (*models.Transaction, error) {
	return s.payMilestone(ctx, txID, conf, actor, payments.MilestoneToken)
}

// PayCommission records the commission payment confirmation. Requires the
// registration milestone first.
func (s *TransactionService) PayCommission(ctx context.Context, txID string, conf models.PaymentConfirmation, actor models.Actor) (*models.Transaction, error) {
	return s.payMilestone(ctx, txID, conf, actor, payments.MilestoneCommission)
}

func (s *TransactionService) payMilestone(ctx context.Context, txID string, conf models.PaymentConfirmation, actor models.Actor, milestone payments.Milestone) (*models.Transaction, error) {
	op := "pay_" + string(milestone)
	tx, err := s.Store.GetTransaction(ctx, txID)
	if err != nil {
		return nil, err
	}

	var next models.Transaction
	if milestone == payments.MilestoneToken {
		next, err = ledger.TokenPaid(*tx, s.now())
	} else {
		next, err = ledger.CommissionPaid(*tx, s.now())
	}
	if err != nil {
		metrics.PaymentConfirmationsTotal.WithLabelValues(string(milestone), "rejected").Inc()
		s.reject(ctx, tx, actor, op, err)
		return nil, err
	}

	if err := s.Gate.Confirm(tx.AgreedAmount, milestone, conf); err != nil {
		metrics.PaymentConfirmationsTotal.WithLabelValues(string(milestone), "rejected").Inc()
		s.reject(ctx, tx, actor, op, err)
		return nil, err
	}
	metrics.PaymentConfirmationsTotal.WithLabelValues(string(milestone), "confirmed").Inc()

	return s.apply(ctx, tx, &next, actor, "payment reference "+conf.ReferenceID)
}

// CompleteRegistration records the registration milestone. Agent only;
// requires SELLER_VERIFIED and a confirmed token payment.
func (s *TransactionService) CompleteRegistration(ctx context.Context, txID string, actor models.Actor) (*models.Transaction, error) {
	if actor.Role != models.RoleAgent {
		return nil, models.ErrForbiddenRole
	}
	tx, err := s.Store.GetTransaction(ctx, txID)
	if err != nil {
		return nil, err
	}
	next, err := ledger.RegistrationCompleted(*tx, s.now())
	if err != nil {
		s.reject(ctx, tx, actor, "complete_registration", err)
		return nil, err
	}
	return s.apply(ctx, tx, &next, actor, "")
}

// Complete is the sole entry into COMPLETED. Either party may trigger it;
// each failed attempt is audited with the specific missing prerequisite.
func (s *TransactionService) Complete(ctx context.Context, txID string, actor models.Actor) (*models.Transaction, error) {
	if actor.Role != models.RoleBuyer && actor.Role != models.RoleAgent {
		return nil, models.ErrForbiddenRole
	}
	tx, err := s.Store.GetTransaction(ctx, txID)
	if err != nil {
		return nil, err
	}
	next, err := ledger.Completed(*tx, s.now())
	if err != nil {
		s.rejectReason(ctx, tx, actor, "complete", err, ledger.MissingPrerequisite(*tx))
		return nil, err
	}
	return s.apply(ctx, tx, &next, actor, "")
}

// Cancel exits any non-terminal state. Requires a non-empty reason.
func (s *TransactionService) Cancel(ctx context.Context, txID string, actor models.Actor, reason string) (*models.Transaction, error) {
	if actor.Role != models.RoleBuyer && actor.Role != models.RoleAgent {
		return nil, models.ErrForbiddenRole
	}
	tx, err := s.Store.GetTransaction(ctx, txID)
	if err != nil {
		return nil, err
	}
	next, err := ledger.Cancelled(*tx, reason, s.now())
	if err != nil {
		s.reject(ctx, tx, actor, "cancel", err)
		return nil, err
	}
	return s.apply(ctx, tx, &next, actor, reason)
}

// Fail marks an operational failure. Agent or system only.
func (s *TransactionService) Fail(ctx context.Context, txID string, actor models.Actor, reason string) (*models.Transaction, error) {
	if actor.Role != models.RoleAgent && actor.Role != models.RoleSystem {
		return nil, models.ErrForbiddenRole
	}
	tx, err := s.Store.GetTransaction(ctx, txID)
	if err != nil {
		return nil, err
	}
	next, err := ledger.Failed(*tx, reason, s.now())
	if err != nil {
		s.reject(ctx, tx, actor, "fail", err)
		return nil, err
	}
	return s.apply(ctx, tx, &next, actor, reason)
}

// apply persists the new snapshot guarded by the old status, with the
// applied audit entry in the same database transaction.
func (s *TransactionService) apply(ctx context.Context, prev *models.Transaction, next *models.Transaction, actor models.Actor, reason string) (*models.Transaction, error) {
	entry := audit.NewEntry(next.TxID, prev.Status, next.Status, actor, models.AuditApplied, reason, s.now())
	n, err := s.Store.ApplyTransition(ctx, next, prev.Status, entry)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, models.ErrWrongState
	}
	metrics.TransitionsTotal.WithLabelValues(string(next.Status)).Inc()
	s.Feed.Publish(entry)
	return next, nil
}

// reject audits a refused attempt. Best effort: the typed rejection is
// returned even if the audit write fails.
func (s *TransactionService) reject(ctx context.Context, tx *models.Transaction, actor models.Actor, op string, cause error) {
	s.rejectReason(ctx, tx, actor, op, cause, "")
}

func (s *TransactionService) rejectReason(ctx context.Context, tx *models.Transaction, actor models.Actor, op string, cause error, detail string) {
	metrics.RejectedAttemptsTotal.WithLabelValues(op).Inc()
	reason := op + ": " + cause.Error()
	if detail != "" {
		reason += " (" + detail + ")"
	}
	entry := audit.NewEntry(tx.TxID, tx.Status, tx.Status, actor, models.AuditRejected, reason, s.now())
	if err := s.Audit.AppendAudit(ctx, entry); err != nil {
		log.Printf("audit append failed (tx=%s op=%s): %v", tx.TxID, op, err)
		return
	}
	s.Feed.Publish(entry)
}
