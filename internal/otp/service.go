// Package otp issues and verifies single-use numeric codes bound to a
// (transaction, role) pair. Codes are delivered out of band and stored
// only as bcrypt hashes. Expiry is a predicate checked at verify time;
// nothing here runs on a timer.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"log"
	"math/big"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/FindNest-Estate/NestFind-sub001/internal/models"
	"github.com/FindNest-Estate/NestFind-sub001/internal/notify"
)

const CodeLength = 6

// ChallengeStore is the persistence port for challenges. The pgx
// implementation lives in internal/store; tests use an in-memory fake.
type ChallengeStore interface {
	// GetChallenge returns the most recent challenge for the key, or
	// models.ErrNotFound when none was ever issued.
	GetChallenge(ctx context.Context, txID string, role models.Role) (*models.OTPChallenge, error)
	// ReplaceChallenge stores a new challenge, invalidating any prior
	// challenge for the same (txID, role).
	ReplaceChallenge(ctx context.Context, ch *models.OTPChallenge) error
	// MarkConsumed sets consumed=true exactly once.
	MarkConsumed(ctx context.Context, challengeID string) error
	// IncrementAttempts bumps the failed-attempt counter.
	IncrementAttempts(ctx context.Context, challengeID string) error
}

type Service struct {
	Store       ChallengeStore
	Sender      notify.Sender
	TTL         time.Duration
	MaxAttempts int
	Now         func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Issue creates a fresh challenge for (txID, role), replacing any prior
// unconsumed one, and triggers out-of-band delivery. Delivery failure
// never fails the issue call.
func (s *Service) Issue(ctx context.Context, txID string, role models.Role, destination string) (*models.OTPChallenge, error) {
	code, err := generateCode()
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now()
	ch := &models.OTPChallenge{
		ChallengeID: uuid.NewString(),
		TxID:        txID,
		Role:        role,
		CodeHash:    string(hash),
		IssuedAt:    now,
		ExpiresAt:   now.Add(s.TTL),
	}
	if err := s.Store.ReplaceChallenge(ctx, ch); err != nil {
		return nil, err
	}

	go func() {
		if err := s.Sender.Send(destination, code); err != nil {
			log.Printf("otp delivery failed (tx=%s role=%s): %v", txID, role, err)
		}
	}()
	return ch, nil
}

// Verify consumes the active challenge if the submitted code matches.
// Success is returned exactly once per challenge; verifying again after
// consumption yields ErrAlreadyConsumed so the caller knows verification
// already happened.
func (s *Service) Verify(ctx context.Context, txID string, role models.Role, submitted string) error {
	ch, err := s.Store.GetChallenge(ctx, txID, role)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNoActiveChallenge
		}
		return err
	}
	if ch.Consumed {
		return models.ErrAlreadyConsumed
	}
	if s.now().After(ch.ExpiresAt) {
		return models.ErrChallengeExpired
	}
	if ch.AttemptCount >= s.MaxAttempts {
		return models.ErrTooManyAttempts
	}
	if bcrypt.CompareHashAndPassword([]byte(ch.CodeHash), []byte(submitted)) != nil {
		if err := s.Store.IncrementAttempts(ctx, ch.ChallengeID); err != nil {
			return err
		}
		if ch.AttemptCount+1 >= s.MaxAttempts {
			return models.ErrTooManyAttempts
		}
		return models.ErrCodeMismatch
	}
	if err := s.Store.MarkConsumed(ctx, ch.ChallengeID); err != nil {
		return err
	}
	return nil
}

func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < CodeLength; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	code := n.String()
	for len(code) < CodeLength {
		code = "0" + code
	}
	return code, nil
}
