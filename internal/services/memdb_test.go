package services

import (
	"context"
	"sync"

	"github.com/FindNest-Estate/NestFind-sub001/internal/models"
)

// memDB implements the service ports in memory, mirroring the guarded
// update semantics of the pgx store.
type memDB struct {
	mu         sync.Mutex
	offers     map[string]models.Offer
	txs        map[string]models.Transaction
	challenges map[string]models.OTPChallenge
	entries    []models.AuditEntry
	sellers    map[string]string
}

func newMemDB() *memDB {
	return &memDB{
		offers:     make(map[string]models.Offer),
		txs:        make(map[string]models.Transaction),
		challenges: make(map[string]models.OTPChallenge),
		sellers:    make(map[string]string),
	}
}

func (m *memDB) CreateOffer(_ context.Context, offer *models.Offer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offers[offer.OfferID] = *offer
	return nil
}

func (m *memDB) GetOffer(_ context.Context, offerID string) (*models.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	offer, ok := m.offers[offerID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &offer, nil
}

func (m *memDB) UpdateOffer(_ context.Context, offer *models.Offer, expectedStatus models.OfferStatus, expectedNext models.Role) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.offers[offer.OfferID]
	if !ok || stored.Status != expectedStatus || stored.NextActor != expectedNext {
		return 0, nil
	}
	m.offers[offer.OfferID] = *offer
	return 1, nil
}

func (m *memDB) AcceptOffer(_ context.Context, offer *models.Offer, tx *models.Transaction, expectedStatus models.OfferStatus, expectedNext models.Role) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.offers[offer.OfferID]
	if !ok || stored.Status != expectedStatus || stored.NextActor != expectedNext {
		return 0, nil
	}
	m.offers[offer.OfferID] = *offer
	m.txs[tx.TxID] = *tx
	return 1, nil
}

func (m *memDB) SellerOf(_ context.Context, propertyID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sellerID, ok := m.sellers[propertyID]
	if !ok {
		return "", models.ErrNotFound
	}
	return sellerID, nil
}

func (m *memDB) GetTransaction(_ context.Context, txID string) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[txID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &tx, nil
}

func (m *memDB) ApplyTransition(_ context.Context, tx *models.Transaction, expectedStatus models.TransactionStatus, entry *models.AuditEntry) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.txs[tx.TxID]
	if !ok || stored.Status != expectedStatus {
		return 0, nil
	}
	m.txs[tx.TxID] = *tx
	m.entries = append(m.entries, *entry)
	return 1, nil
}

func (m *memDB) AppendAudit(_ context.Context, entry *models.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memDB) ListAudit(_ context.Context, txID string) ([]*models.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.AuditEntry
	for i := range m.entries {
		if m.entries[i].TxID == txID {
			e := m.entries[i]
			out = append(out, &e)
		}
	}
	return out, nil
}

func (m *memDB) GetChallenge(_ context.Context, txID string, role models.Role) (*models.OTPChallenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.challenges[txID+"/"+string(role)]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &ch, nil
}

func (m *memDB) ReplaceChallenge(_ context.Context, ch *models.OTPChallenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *ch
	cp.Consumed = false
	cp.AttemptCount = 0
	m.challenges[ch.TxID+"/"+string(ch.Role)] = cp
	return nil
}

func (m *memDB) MarkConsumed(_ context.Context, challengeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, ch := range m.challenges {
		if ch.ChallengeID == challengeID {
			ch.Consumed = true
			m.challenges[k] = ch
			return nil
		}
	}
	return models.ErrNotFound
}

func (m *memDB) IncrementAttempts(_ context.Context, challengeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, ch := range m.challenges {
		if ch.ChallengeID == challengeID {
			ch.AttemptCount++
			m.challenges[k] = ch
			return nil
		}
	}
	return models.ErrNotFound
}
