package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FindNest-Estate/NestFind-sub001/internal/models"
)

type Store struct {
	Pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{Pool: pool}
}

func (s *Store) CreateOffer(ctx context.Context, offer *models.Offer) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO offers (
			offer_id, property_id, buyer_id, agent_id,
			amount, status, next_actor, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		offer.OfferID,
		offer.PropertyID,
		offer.BuyerID,
		offer.AgentID,
		offer.Amount,
		offer.Status,
		offer.NextActor,
		offer.CreatedAt,
		offer.UpdatedAt,
	)
	return err
}

func (s *Store) GetOffer(ctx context.Context, offerID string) (*models.Offer, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT offer_id, property_id, buyer_id, agent_id,
			amount, status, next_actor, created_at, updated_at
		FROM offers WHERE offer_id=$1
	`, offerID)

	var offer models.Offer
	err := row.Scan(
		&offer.OfferID,
		&offer.PropertyID,
		&offer.BuyerID,
		&offer.AgentID,
		&offer.Amount,
		&offer.Status,
		&offer.NextActor,
		&offer.CreatedAt,
		&offer.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &offer, nil
}

func (s *Store) UpdateOffer(ctx context.Context, offer *models.Offer, expectedStatus models.OfferStatus, expectedNext models.Role) (int64, error) {
	res, err := s.Pool.Exec(ctx, `
		UPDATE offers
		SET amount=$2, status=$3, next_actor=$4, updated_at=$5
		WHERE offer_id=$1 AND status=$6 AND next_actor=$7
	`,
		offer.OfferID,
		offer.Amount,
		offer.Status,
		offer.NextActor,
		offer.UpdatedAt,
		expectedStatus,
		expectedNext,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

func (s *Store) AcceptOffer(ctx context.Context, offer *models.Offer, tx *models.Transaction, expectedStatus models.OfferStatus, expectedNext models.Role) (int64, error) {
	dbtx, err := s.Pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer dbtx.Rollback(ctx)

	res, err := dbtx.Exec(ctx, `
		UPDATE offers
		SET status=$2, next_actor=$3, updated_at=$4
		WHERE offer_id=$1 AND status=$5 AND next_actor=$6
	`,
		offer.OfferID,
		offer.Status,
		offer.NextActor,
		offer.UpdatedAt,
		expectedStatus,
		expectedNext,
	)
	if err != nil {
		return 0, err
	}
	if res.RowsAffected() == 0 {
		return 0, nil
	}

	_, err = dbtx.Exec(ctx, `
		INSERT INTO transactions (
			tx_id, offer_id, property_id, buyer_id, seller_id, agent_id,
			agreed_amount, status, buyer_verified, seller_verified,
			token_paid_at, commission_paid_at, registration_completed_at,
			completed_at, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
	`,
		tx.TxID,
		tx.OfferID,
		tx.PropertyID,
		tx.BuyerID,
		tx.SellerID,
		tx.AgentID,
		tx.AgreedAmount,
		tx.Status,
		tx.BuyerVerified,
		tx.SellerVerified,
		tx.TokenPaidAt,
		tx.CommissionPaidAt,
		tx.RegistrationCompletedAt,
		tx.CompletedAt,
		tx.CreatedAt,
		tx.UpdatedAt,
	)
	if err != nil {
		return 0, err
	}
	if err := dbtx.Commit(ctx); err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

// SellerOf resolves the seller for a property from the listing read model,
// which the external listing service keeps in sync.
func (s *Store) SellerOf(ctx context.Context, propertyID string) (string, error) {
	var sellerID string
	err := s.Pool.QueryRow(ctx, `
		SELECT seller_id FROM property_sellers WHERE property_id=$1
	`, propertyID).Scan(&sellerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", models.ErrNotFound
		}
		return "", err
	}
	return sellerID, nil
}

func (s *Store) GetTransaction(ctx context.Context, txID string) (*models.Transaction, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT tx_id, offer_id, property_id, buyer_id, seller_id, agent_id,
			agreed_amount, status, buyer_verified, seller_verified,
			token_paid_at, commission_paid_at, registration_completed_at,
			completed_at, created_at, updated_at
		FROM transactions WHERE tx_id=$1
	`, txID)
	return scanTransaction(row)
}

// ApplyTransition writes the new snapshot guarded by the expected current
// status, and the audit entry, in one database transaction. Zero rows
// affected means the stored row is no longer in the expected status.
func (s *Store) ApplyTransition(ctx context.Context, tx *models.Transaction, expectedStatus models.TransactionStatus, entry *models.AuditEntry) (int64, error) {
	dbtx, err := s.Pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer dbtx.Rollback(ctx)

	res, err := dbtx.Exec(ctx, `
		UPDATE transactions
		SET status=$2, buyer_verified=$3, seller_verified=$4,
			token_paid_at=$5, commission_paid_at=$6,
			registration_completed_at=$7, completed_at=$8, updated_at=$9
		WHERE tx_id=$1 AND status=$10
	`,
		tx.TxID,
		tx.Status,
		tx.BuyerVerified,
		tx.SellerVerified,
		tx.TokenPaidAt,
		tx.CommissionPaidAt,
		tx.RegistrationCompletedAt,
		tx.CompletedAt,
		tx.UpdatedAt,
		expectedStatus,
	)
	if err != nil {
		return 0, err
	}
	if res.RowsAffected() == 0 {
		return 0, nil
	}

	if err := insertAudit(ctx, dbtx, entry); err != nil {
		return 0, err
	}
	if err := dbtx.Commit(ctx); err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

func (s *Store) AppendAudit(ctx context.Context, entry *models.AuditEntry) error {
	return insertAudit(ctx, s.Pool, entry)
}

func (s *Store) ListAudit(ctx context.Context, txID string) ([]*models.AuditEntry, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT entry_id, tx_id, from_status, to_status,
			actor_id, actor_role, outcome, reason, recorded_at
		FROM audit_log
		WHERE tx_id=$1
		ORDER BY recorded_at, entry_id
	`, txID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(
			&e.EntryID,
			&e.TxID,
			&e.FromStatus,
			&e.ToStatus,
			&e.ActorID,
			&e.ActorRole,
			&e.Outcome,
			&e.Reason,
			&e.RecordedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func (s *Store) GetChallenge(ctx context.Context, txID string, role models.Role) (*models.OTPChallenge, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT challenge_id, tx_id, party_role, code_hash,
			issued_at, expires_at, consumed, attempt_count
		FROM otp_challenges
		WHERE tx_id=$1 AND party_role=$2
	`, txID, role)

	var ch models.OTPChallenge
	err := row.Scan(
		&ch.ChallengeID,
		&ch.TxID,
		&ch.Role,
		&ch.CodeHash,
		&ch.IssuedAt,
		&ch.ExpiresAt,
		&ch.Consumed,
		&ch.AttemptCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &ch, nil
}

// ReplaceChallenge keeps at most one challenge per (tx, role); a fresh
// issue invalidates whatever was there before.
func (s *Store) ReplaceChallenge(ctx context.Context, ch *models.OTPChallenge) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO otp_challenges (
			challenge_id, tx_id, party_role, code_hash,
			issued_at, expires_at, consumed, attempt_count
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (tx_id, party_role) DO UPDATE SET
			challenge_id=EXCLUDED.challenge_id,
			code_hash=EXCLUDED.code_hash,
			issued_at=EXCLUDED.issued_at,
			expires_at=EXCLUDED.expires_at,
			consumed=false,
			attempt_count=0
	`,
		ch.ChallengeID,
		ch.TxID,
		ch.Role,
		ch.CodeHash,
		ch.IssuedAt,
		ch.ExpiresAt,
		ch.Consumed,
		ch.AttemptCount,
	)
	return err
}

func (s *Store) MarkConsumed(ctx context.Context, challengeID string) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE otp_challenges SET consumed=true WHERE challenge_id=$1
	`, challengeID)
	return err
}

func (s *Store) IncrementAttempts(ctx context.Context, challengeID string) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE otp_challenges SET attempt_count=attempt_count+1 WHERE challenge_id=$1
	`, challengeID)
	return err
}

// PurgeTerminalChallenges deletes challenges owned by transactions that
// reached a terminal state. Run by the maintenance worker.
func (s *Store) PurgeTerminalChallenges(ctx context.Context) (int64, error) {
	res, err := s.Pool.Exec(ctx, `
		DELETE FROM otp_challenges c
		USING transactions t
		WHERE c.tx_id = t.tx_id
		AND t.status IN ('completed','cancelled','failed')
	`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

// DeleteExpiredChallenges removes unconsumed challenges whose expiry
// passed. Verify-time expiry stays authoritative; this is hygiene only.
func (s *Store) DeleteExpiredChallenges(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.Pool.Exec(ctx, `
		DELETE FROM otp_challenges
		WHERE consumed=false AND expires_at < $1
	`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

// execer covers both *pgxpool.Pool and pgx.Tx.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func insertAudit(ctx context.Context, ex execer, entry *models.AuditEntry) error {
	_, err := ex.Exec(ctx, `
		INSERT INTO audit_log (
			entry_id, tx_id, from_status, to_status,
			actor_id, actor_role, outcome, reason, recorded_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		entry.EntryID,
		entry.TxID,
		entry.FromStatus,
		entry.ToStatus,
		entry.ActorID,
		entry.ActorRole,
		entry.Outcome,
		entry.Reason,
		entry.RecordedAt,
	)
	return err
}

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	var tx models.Transaction
	err := row.Scan(
		&tx.TxID,
		&tx.OfferID,
		&tx.PropertyID,
		&tx.BuyerID,
		&tx.SellerID,
		&tx.AgentID,
		&tx.AgreedAmount,
		&tx.Status,
		&tx.BuyerVerified,
		&tx.SellerVerified,
		&tx.TokenPaidAt,
		&tx.CommissionPaidAt,
		&tx.RegistrationCompletedAt,
		&tx.CompletedAt,
		&tx.CreatedAt,
		&tx.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &tx, nil
}
