package services

import (
	"context"
	"errors"
	"time"

	"github.com/FindNest-Estate/NestFind-sub001/internal/ledger"
	"github.com/FindNest-Estate/NestFind-sub001/internal/models"
	"github.com/FindNest-Estate/NestFind-sub001/internal/negotiation"
)

var ErrMissingParticipant = errors.New("missing property or participant id")

// OfferStore is the persistence port for offers. Updates are guarded by
// the expected (status, next_actor) pair so a stale snapshot never
// overwrites a concurrent change.
type OfferStore interface {
	CreateOffer(ctx context.Context, offer *models.Offer) error
	GetOffer(ctx context.Context, offerID string) (*models.Offer, error)
	UpdateOffer(ctx context.Context, offer *models.Offer, expectedStatus models.OfferStatus, expectedNext models.Role) (int64, error)
	// AcceptOffer applies the accepted offer and inserts the seeded
	// transaction in one database transaction, guarded the same way as
	// UpdateOffer.
	AcceptOffer(ctx context.Context, offer *models.Offer, tx *models.Transaction, expectedStatus models.OfferStatus, expectedNext models.Role) (int64, error)
}

// ListingDirectory is the external property/listing collaborator. Only the
// seller lookup is consumed here.
type ListingDirectory interface {
	SellerOf(ctx context.Context, propertyID string) (string, error)
}

type OfferService struct {
	Store    OfferStore
	Listings ListingDirectory
	Now      func() time.Time
}

func (s *OfferService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Create submits a new pending offer. Only a buyer may open negotiation.
func (s *OfferService) Create(ctx context.Context, actor models.Actor, propertyID, agentID string, amount int64) (*models.Offer, error) {
	if actor.Role != models.RoleBuyer {
		return nil, models.ErrForbiddenRole
	}
	if propertyID == "" || agentID == "" {
		return nil, ErrMissingParticipant
	}
	offer, err := negotiation.NewOffer(propertyID, actor.ID, agentID, amount, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.Store.CreateOffer(ctx, &offer); err != nil {
		return nil, err
	}
	return &offer, nil
}

func (s *OfferService) Get(ctx context.Context, offerID string) (*models.Offer, error) {
	return s.Store.GetOffer(ctx, offerID)
}

// Accept closes the negotiation and spawns the Transaction atomically.
func (s *OfferService) Accept(ctx context.Context, offerID string, actor models.Actor) (*models.Offer, *models.Transaction, error) {
	offer, err := s.Store.GetOffer(ctx, offerID)
	if err != nil {
		return nil, nil, err
	}
	prevStatus, prevNext := offer.Status, offer.NextActor

	accepted, err := negotiation.Accept(*offer, actor, s.now())
	if err != nil {
		return nil, nil, err
	}
	sellerID, err := s.Listings.SellerOf(ctx, offer.PropertyID)
	if err != nil {
		return nil, nil, err
	}
	tx, err := ledger.NewFromOffer(accepted, sellerID, s.now())
	if err != nil {
		return nil, nil, err
	}

	n, err := s.Store.AcceptOffer(ctx, &accepted, &tx, prevStatus, prevNext)
	if err != nil {
		return nil, nil, err
	}
	if n == 0 {
		return nil, nil, models.ErrInvalidTransition
	}
	return &accepted, &tx, nil
}

// Counter proposes a new amount and flips the turn.
func (s *OfferService) Counter(ctx context.Context, offerID string, actor models.Actor, newAmount int64) (*models.Offer, error) {
	offer, err := s.Store.GetOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	prevStatus, prevNext := offer.Status, offer.NextActor

	countered, err := negotiation.Counter(*offer, actor, newAmount, s.now())
	if err != nil {
		return nil, err
	}
	n, err := s.Store.UpdateOffer(ctx, &countered, prevStatus, prevNext)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, models.ErrInvalidTransition
	}
	return &countered, nil
}

// Reject declines the offer permanently.
func (s *OfferService) Reject(ctx context.Context, offerID string, actor models.Actor) (*models.Offer, error) {
	offer, err := s.Store.GetOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	prevStatus, prevNext := offer.Status, offer.NextActor

	rejected, err := negotiation.Reject(*offer, actor, s.now())
	if err != nil {
		return nil, err
	}
	n, err := s.Store.UpdateOffer(ctx, &rejected, prevStatus, prevNext)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, models.ErrInvalidTransition
	}
	return &rejected, nil
}
