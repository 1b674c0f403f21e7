package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/FindNest-Estate/NestFind-sub001/internal/models"
	"github.com/FindNest-Estate/NestFind-sub001/internal/services"
)

type Handler struct {
	Offers       *services.OfferService
	Transactions *services.TransactionService
}

func NewHandler(offers *services.OfferService, transactions *services.TransactionService) *Handler {
	return &Handler{Offers: offers, Transactions: transactions}
}

// actorFrom reads the caller identity supplied by the external identity
// layer. The core trusts these headers; it does not authenticate.
func actorFrom(r *http.Request) (models.Actor, bool) {
	id := r.Header.Get("X-Actor-Id")
	role := models.Role(r.Header.Get("X-Actor-Role"))
	if id == "" {
		return models.Actor{}, false
	}
	switch role {
	case models.RoleBuyer, models.RoleAgent, models.RoleSeller, models.RoleSystem:
		return models.Actor{ID: id, Role: role}, true
	}
	return models.Actor{}, false
}

type createOfferRequest struct {
	PropertyID string `json:"propertyId"`
	AgentID    string `json:"agentId"`
	Amount     int64  `json:"amount"`
}

type counterOfferRequest struct {
	Amount int64 `json:"amount"`
}

type sendOTPRequest struct {
	Role        string `json:"role"`
	Destination string `json:"destination"`
}

type verifyOTPRequest struct {
	Role string `json:"role"`
	Code string `json:"code"`
}

type paymentRequest struct {
	Amount      int64  `json:"amount"`
	ReferenceID string `json:"referenceId"`
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

type offerResponse struct {
	OfferID    string `json:"offerId"`
	PropertyID string `json:"propertyId"`
	BuyerID    string `json:"buyerId"`
	AgentID    string `json:"agentId"`
	Amount     int64  `json:"amount"`
	Status     string `json:"status"`
	NextActor  string `json:"nextActor"`
	CreatedAt  string `json:"createdAt"`
}

type transactionResponse struct {
	TxID                    string `json:"txId"`
	OfferID                 string `json:"offerId"`
	PropertyID              string `json:"propertyId"`
	BuyerID                 string `json:"buyerId"`
	SellerID                string `json:"sellerId"`
	AgentID                 string `json:"agentId"`
	AgreedAmount            int64  `json:"agreedAmount"`
	Status                  string `json:"status"`
	BuyerVerified           bool   `json:"buyerVerified"`
	SellerVerified          bool   `json:"sellerVerified"`
	TokenPaidAt             string `json:"tokenPaidAt,omitempty"`
	CommissionPaidAt        string `json:"commissionPaidAt,omitempty"`
	RegistrationCompletedAt string `json:"registrationCompletedAt,omitempty"`
	CompletedAt             string `json:"completedAt,omitempty"`
}

type auditEntryResponse struct {
	EntryID    string `json:"entryId"`
	FromStatus string `json:"fromStatus"`
	ToStatus   string `json:"toStatus"`
	ActorID    string `json:"actorId"`
	ActorRole  string `json:"actorRole"`
	Outcome    string `json:"outcome"`
	Reason     string `json:"reason,omitempty"`
	RecordedAt string `json:"recordedAt"`
}

func toOfferResponse(o *models.Offer) offerResponse {
	return offerResponse{
		OfferID:    o.OfferID,
		PropertyID: o.PropertyID,
		BuyerID:    o.BuyerID,
		AgentID:    o.AgentID,
		Amount:     o.Amount,
		Status:     string(o.Status),
		NextActor:  string(o.NextActor),
		CreatedAt:  o.CreatedAt.Format(time.RFC3339),
	}
}

func toTransactionResponse(tx *models.Transaction) transactionResponse {
	resp := transactionResponse{
		TxID:           tx.TxID,
		OfferID:        tx.OfferID,
		PropertyID:     tx.PropertyID,
		BuyerID:        tx.BuyerID,
		SellerID:       tx.SellerID,
		AgentID:        tx.AgentID,
		AgreedAmount:   tx.AgreedAmount,
		Status:         string(tx.Status),
		BuyerVerified:  tx.BuyerVerified,
		SellerVerified: tx.SellerVerified,
	}
	if tx.TokenPaidAt != nil {
		resp.TokenPaidAt = tx.TokenPaidAt.Format(time.RFC3339)
	}
	if tx.CommissionPaidAt != nil {
		resp.CommissionPaidAt = tx.CommissionPaidAt.Format(time.RFC3339)
	}
	if tx.RegistrationCompletedAt != nil {
		resp.RegistrationCompletedAt = tx.RegistrationCompletedAt.Format(time.RFC3339)
	}
	if tx.CompletedAt != nil {
		resp.CompletedAt = tx.CompletedAt.Format(time.RFC3339)
	}
	return resp
}

func toAuditResponse(e *models.AuditEntry) auditEntryResponse {
	return auditEntryResponse{
		EntryID:    e.EntryID,
		FromStatus: string(e.FromStatus),
		ToStatus:   string(e.ToStatus),
		ActorID:    e.ActorID,
		ActorRole:  string(e.ActorRole),
		Outcome:    e.Outcome,
		Reason:     e.Reason,
		RecordedAt: e.RecordedAt.Format(time.RFC3339),
	}
}

func (h *Handler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing actor identity")
		return
	}
	var req createOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	offer, err := h.Offers.Create(r.Context(), actor, req.PropertyID, req.AgentID, req.Amount)
	if err != nil {
		writeDomainError(w, err, "create offer failed")
		return
	}
	writeJSON(w, http.StatusCreated, toOfferResponse(offer))
}

func (h *Handler) GetOffer(w http.ResponseWriter, r *http.Request) {
	offer, err := h.Offers.Get(r.Context(), chi.URLParam(r, "offerId"))
	if err != nil {
		writeDomainError(w, err, "get offer failed")
		return
	}
	writeJSON(w, http.StatusOK, toOfferResponse(offer))
}

func (h *Handler) AcceptOffer(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing actor identity")
		return
	}
	offer, tx, err := h.Offers.Accept(r.Context(), chi.URLParam(r, "offerId"), actor)
	if err != nil {
		writeDomainError(w, err, "accept offer failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"offer":       toOfferResponse(offer),
		"transaction": toTransactionResponse(tx),
	})
}

func (h *Handler) CounterOffer(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing actor identity")
		return
	}
	var req counterOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	offer, err := h.Offers.Counter(r.Context(), chi.URLParam(r, "offerId"), actor, req.Amount)
	if err != nil {
		writeDomainError(w, err, "counter offer failed")
		return
	}
	writeJSON(w, http.StatusOK, toOfferResponse(offer))
}

func (h *Handler) RejectOffer(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing actor identity")
		return
	}
	offer, err := h.Offers.Reject(r.Context(), chi.URLParam(r, "offerId"), actor)
	if err != nil {
		writeDomainError(w, err, "reject offer failed")
		return
	}
	writeJSON(w, http.StatusOK, toOfferResponse(offer))
}

func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := h.Transactions.Get(r.Context(), chi.URLParam(r, "txId"))
	if err != nil {
		writeDomainError(w, err, "get transaction failed")
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (h *Handler) SendOTP(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing actor identity")
		return
	}
	var req sendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	ch, err := h.Transactions.SendOTP(r.Context(), chi.URLParam(r, "txId"), models.Role(req.Role), req.Destination, actor)
	if err != nil {
		writeDomainError(w, err, "send otp failed")
		return
	}
	// The code travels out of band; only the envelope is returned.
	writeJSON(w, http.StatusOK, map[string]string{
		"challengeId": ch.ChallengeID,
		"role":        string(ch.Role),
		"expiresAt":   ch.ExpiresAt.Format(time.RFC3339),
	})
}

func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing actor identity")
		return
	}
	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	txID := chi.URLParam(r, "txId")
	var tx *models.Transaction
	var err error
	switch models.Role(req.Role) {
	case models.RoleBuyer:
		tx, err = h.Transactions.VerifyBuyer(r.Context(), txID, req.Code, actor)
	case models.RoleSeller:
		tx, err = h.Transactions.VerifySeller(r.Context(), txID, req.Code, actor)
	default:
		writeError(w, http.StatusBadRequest, "role must be buyer or seller")
		return
	}
	if err != nil {
		writeDomainError(w, err, "verify otp failed")
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (h *Handler) PayToken(w http.ResponseWriter, r *http.Request) {
	h.pay(w, r, h.Transactions.PayToken)
}

func (h *Handler) PayCommission(w http.ResponseWriter, r *http.Request) {
	h.pay(w, r, h.Transactions.PayCommission)
}

func (h *Handler) pay(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, txID string, conf models.PaymentConfirmation, actor models.Actor) (*models.Transaction, error)) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing actor identity")
		return
	}
	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	conf := models.PaymentConfirmation{Amount: req.Amount, ReferenceID: req.ReferenceID}
	tx, err := fn(r.Context(), chi.URLParam(r, "txId"), conf, actor)
	if err != nil {
		writeDomainError(w, err, "payment confirmation failed")
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (h *Handler) CompleteRegistration(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing actor identity")
		return
	}
	tx, err := h.Transactions.CompleteRegistration(r.Context(), chi.URLParam(r, "txId"), actor)
	if err != nil {
		writeDomainError(w, err, "complete registration failed")
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing actor identity")
		return
	}
	tx, err := h.Transactions.Complete(r.Context(), chi.URLParam(r, "txId"), actor)
	if err != nil {
		writeDomainError(w, err, "complete transaction failed")
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing actor identity")
		return
	}
	var req reasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	tx, err := h.Transactions.Cancel(r.Context(), chi.URLParam(r, "txId"), actor, req.Reason)
	if err != nil {
		writeDomainError(w, err, "cancel transaction failed")
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (h *Handler) Fail(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing actor identity")
		return
	}
	var req reasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	tx, err := h.Transactions.Fail(r.Context(), chi.URLParam(r, "txId"), actor, req.Reason)
	if err != nil {
		writeDomainError(w, err, "fail transaction failed")
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Transactions.AuditTrail(r.Context(), chi.URLParam(r, "txId"))
	if err != nil {
		writeDomainError(w, err, "list audit failed")
		return
	}
	out := make([]auditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toAuditResponse(e))
	}
	writeJSON(w, http.StatusOK, out)
}

// writeDomainError maps the typed core failures onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrReasonRequired),
		errors.Is(err, services.ErrMissingParticipant):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrForbiddenRole):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrTerminalState),
		errors.Is(err, models.ErrWrongState),
		errors.Is(err, models.ErrAlreadyConsumed),
		errors.Is(err, models.ErrTooManyAttempts):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrPaymentRequired):
		writeError(w, http.StatusPreconditionFailed, err.Error())
	case errors.Is(err, models.ErrAmountMismatch),
		errors.Is(err, models.ErrCodeMismatch),
		errors.Is(err, models.ErrChallengeExpired),
		errors.Is(err, models.ErrNoActiveChallenge):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
