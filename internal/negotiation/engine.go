// Package negotiation drives the offer state machine between buyer and
// agent. All functions are pure: they take an offer snapshot and return a
// new snapshot or a typed failure, never mutating their input.
package negotiation

import (
	"time"

	"github.com/google/uuid"

	"github.com/FindNest-Estate/NestFind-sub001/internal/models"
)

// NewOffer creates the initial pending offer. The first move after a buyer
// submits is the agent's, so NextActor starts as agent.
func NewOffer(propertyID, buyerID, agentID string, amount int64, now time.Time) (models.Offer, error) {
	if amount <= 0 {
		return models.Offer{}, models.ErrInvalidAmount
	}
	return models.Offer{
		OfferID:    uuid.NewString(),
		PropertyID: propertyID,
		BuyerID:    buyerID,
		AgentID:    agentID,
		Amount:     amount,
		Status:     models.OfferPending,
		NextActor:  models.RoleAgent,
		CreatedAt:  now.UTC(),
		UpdatedAt:  now.UTC(),
	}, nil
}

// Accept closes the negotiation in favour of the current amount. Only the
// party whose turn it is may accept; the caller is responsible for creating
// the Transaction from the returned snapshot.
func Accept(offer models.Offer, actor models.Actor, now time.Time) (models.Offer, error) {
	if err := checkTurn(offer, actor); err != nil {
		return offer, err
	}
	offer.Status = models.OfferAccepted
	offer.UpdatedAt = now.UTC()
	return offer, nil
}

// Counter proposes a new amount and hands the turn to the other party. A
// buyer counter puts the offer back to pending (agent's turn); an agent
// counter sets countered (buyer's turn).
func Counter(offer models.Offer, actor models.Actor, newAmount int64, now time.Time) (models.Offer, error) {
	if err := checkTurn(offer, actor); err != nil {
		return offer, err
	}
	if newAmount <= 0 {
		return offer, models.ErrInvalidAmount
	}
	switch actor.Role {
	case models.RoleBuyer:
		offer.Status = models.OfferPending
		offer.NextActor = models.RoleAgent
	case models.RoleAgent:
		offer.Status = models.OfferCountered
		offer.NextActor = models.RoleBuyer
	}
	offer.Amount = newAmount
	offer.UpdatedAt = now.UTC()
	return offer, nil
}

// Reject declines the offer. Either party may reject regardless of turn;
// the result is terminal and a new offer must be created to resume.
func Reject(offer models.Offer, actor models.Actor, now time.Time) (models.Offer, error) {
	if offer.Status.Terminal() {
		return offer, models.ErrTerminalState
	}
	if actor.Role != models.RoleBuyer && actor.Role != models.RoleAgent {
		return offer, models.ErrInvalidTransition
	}
	offer.Status = models.OfferRejected
	offer.UpdatedAt = now.UTC()
	return offer, nil
}

func checkTurn(offer models.Offer, actor models.Actor) error {
	if offer.Status.Terminal() {
		return models.ErrTerminalState
	}
	switch offer.Status {
	case models.OfferPending, models.OfferCountered:
		if actor.Role != offer.NextActor {
			return models.ErrInvalidTransition
		}
		return nil
	}
	return models.ErrInvalidTransition
}
