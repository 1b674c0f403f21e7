package negotiation

import (
	"errors"
	"testing"
	"time"

	"github.com/FindNest-Estate/NestFind-sub001/internal/models"
)

var (
	buyer = models.Actor{ID: "buyer-1", Role: models.RoleBuyer}
	agent = models.Actor{ID: "agent-1", Role: models.RoleAgent}
	now   = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
)

func newPending(t *testing.T, amount int64) models.Offer {
	t.Helper()
	offer, err := NewOffer("prop-1", buyer.ID, agent.ID, amount, now)
	if err != nil {
		t.Fatalf("NewOffer: %v", err)
	}
	return offer
}

func TestNewOfferRejectsNonPositiveAmount(t *testing.T) {
	for _, amount := range []int64{0, -1, -4500000} {
		if _, err := NewOffer("prop-1", buyer.ID, agent.ID, amount, now); !errors.Is(err, models.ErrInvalidAmount) {
			t.Errorf("amount %d: got %v, want ErrInvalidAmount", amount, err)
		}
	}
}

func TestInitialOfferIsAgentsTurn(t *testing.T) {
	offer := newPending(t, 4500000)
	if offer.Status != models.OfferPending {
		t.Fatalf("status = %s, want pending", offer.Status)
	}
	if offer.NextActor != models.RoleAgent {
		t.Fatalf("next actor = %s, want agent", offer.NextActor)
	}
}

func TestCounterFlipsTurn(t *testing.T) {
	offer := newPending(t, 4500000)

	// Agent counters: buyer's turn, status countered.
	countered, err := Counter(offer, agent, 4800000, now)
	if err != nil {
		t.Fatalf("agent counter: %v", err)
	}
	if countered.Status != models.OfferCountered || countered.NextActor != models.RoleBuyer {
		t.Fatalf("after agent counter: status=%s next=%s", countered.Status, countered.NextActor)
	}
	if countered.Amount != 4800000 {
		t.Fatalf("amount = %d, want 4800000", countered.Amount)
	}

	// Buyer counters back: agent's turn, status pending.
	back, err := Counter(countered, buyer, 4600000, now)
	if err != nil {
		t.Fatalf("buyer counter: %v", err)
	}
	if back.Status != models.OfferPending || back.NextActor != models.RoleAgent {
		t.Fatalf("after buyer counter: status=%s next=%s", back.Status, back.NextActor)
	}
}

func TestOutOfTurnActionsFail(t *testing.T) {
	offer := newPending(t, 4500000)

	if _, err := Accept(offer, buyer, now); !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("buyer accept on pending: got %v, want ErrInvalidTransition", err)
	}
	if _, err := Counter(offer, buyer, 4400000, now); !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("buyer counter on pending: got %v, want ErrInvalidTransition", err)
	}

	countered, _ := Counter(offer, agent, 4800000, now)
	if _, err := Accept(countered, agent, now); !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("agent accept on countered: got %v, want ErrInvalidTransition", err)
	}
}

func TestCounterRejectsNonPositiveAmount(t *testing.T) {
	offer := newPending(t, 4500000)
	if _, err := Counter(offer, agent, 0, now); !errors.Is(err, models.ErrInvalidAmount) {
		t.Fatalf("got %v, want ErrInvalidAmount", err)
	}
}

func TestCounterThenAcceptScenario(t *testing.T) {
	offer := newPending(t, 4500000)

	countered, err := Counter(offer, agent, 4800000, now)
	if err != nil {
		t.Fatalf("counter: %v", err)
	}
	accepted, err := Accept(countered, buyer, now)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != models.OfferAccepted {
		t.Fatalf("status = %s, want accepted", accepted.Status)
	}
	if accepted.Amount != 4800000 {
		t.Fatalf("amount = %d, want 4800000", accepted.Amount)
	}
}

func TestEitherPartyMayRejectRegardlessOfTurn(t *testing.T) {
	offer := newPending(t, 4500000)

	// Pending means agent's turn, but the buyer may still reject.
	rejected, err := Reject(offer, buyer, now)
	if err != nil {
		t.Fatalf("buyer reject: %v", err)
	}
	if rejected.Status != models.OfferRejected {
		t.Fatalf("status = %s, want rejected", rejected.Status)
	}
}

func TestTerminalOffersAreImmutable(t *testing.T) {
	offer := newPending(t, 4500000)
	rejected, err := Reject(offer, agent, now)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}

	if _, err := Accept(rejected, buyer, now); !errors.Is(err, models.ErrTerminalState) {
		t.Errorf("accept after reject: got %v, want ErrTerminalState", err)
	}
	if _, err := Counter(rejected, buyer, 4600000, now); !errors.Is(err, models.ErrTerminalState) {
		t.Errorf("counter after reject: got %v, want ErrTerminalState", err)
	}
	if _, err := Reject(rejected, buyer, now); !errors.Is(err, models.ErrTerminalState) {
		t.Errorf("reject after reject: got %v, want ErrTerminalState", err)
	}

	accepted, _ := Accept(offer, agent, now)
	if _, err := Counter(accepted, buyer, 4600000, now); !errors.Is(err, models.ErrTerminalState) {
		t.Errorf("counter after accept: got %v, want ErrTerminalState", err)
	}
}

func TestOperationsDoNotMutateInput(t *testing.T) {
	offer := newPending(t, 4500000)
	before := offer
	if _, err := Counter(offer, agent, 4800000, now); err != nil {
		t.Fatalf("counter: %v", err)
	}
	if offer != before {
		t.Fatalf("input offer mutated: %+v != %+v", offer, before)
	}
}
