package models

import "time"

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleAgent  Role = "agent"
	RoleSeller Role = "seller"
	RoleSystem Role = "system"
)

// Actor identifies who is invoking an operation. Supplied by the external
// identity layer; never read from ambient state inside the core.
type Actor struct {
	ID   string
	Role Role
}

type OfferStatus string

const (
	OfferPending   OfferStatus = "pending"
	OfferCountered OfferStatus = "countered"
	OfferAccepted  OfferStatus = "accepted"
	OfferRejected  OfferStatus = "rejected"
)

func (s OfferStatus) Terminal() bool {
	return s == OfferAccepted || s == OfferRejected
}

type Offer struct {
	OfferID    string
	PropertyID string
	BuyerID    string
	AgentID    string
	Amount     int64
	Status     OfferStatus
	NextActor  Role
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type TransactionStatus string

const (
	TxInitiated      TransactionStatus = "initiated"
	TxBuyerVerified  TransactionStatus = "buyer_verified"
	TxSellerVerified TransactionStatus = "seller_verified"
	TxCompleted      TransactionStatus = "completed"
	TxCancelled      TransactionStatus = "cancelled"
	TxFailed         TransactionStatus = "failed"
)

func (s TransactionStatus) Terminal() bool {
	return s == TxCompleted || s == TxCancelled || s == TxFailed
}

// Transaction is the authoritative record of a sale in progress. AgreedAmount
// is snapshotted from the accepted offer and never mutated afterwards.
// Amounts are in minor currency units.
type Transaction struct {
	TxID                    string
	OfferID                 string
	PropertyID              string
	BuyerID                 string
	SellerID                string
	AgentID                 string
	AgreedAmount            int64
	Status                  TransactionStatus
	BuyerVerified           bool
	SellerVerified          bool
	TokenPaidAt             *time.Time
	CommissionPaidAt        *time.Time
	RegistrationCompletedAt *time.Time
	CompletedAt             *time.Time
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// OTPChallenge is a single-use verification artifact. The code itself is
// never stored, only its bcrypt hash.
type OTPChallenge struct {
	ChallengeID  string
	TxID         string
	Role         Role
	CodeHash     string
	IssuedAt     time.Time
	ExpiresAt    time.Time
	Consumed     bool
	AttemptCount int
}

// AuditEntry is an immutable fact about one attempted transition. Rejected
// attempts are recorded too, with the failure reason.
type AuditEntry struct {
	EntryID    string
	TxID       string
	FromStatus TransactionStatus
	ToStatus   TransactionStatus
	ActorID    string
	ActorRole  Role
	Outcome    string
	Reason     string
	RecordedAt time.Time
}

const (
	AuditApplied  = "applied"
	AuditRejected = "rejected"
)

// PaymentConfirmation is what the external gateway reports after an
// out-of-band capture. This core never initiates payment calls.
type PaymentConfirmation struct {
	Amount      int64
	ReferenceID string
}
