package escrow

import (
	"math/big"
)

// GigStatus is the display projection of a gig, derived from the on-chain
// open flag plus transient tracker state.
type GigStatus string

const (
	StatusLocked    GigStatus = "LOCKED"
	StatusPending   GigStatus = "PENDING"
	StatusUnlocked  GigStatus = "UNLOCKED"
	StatusMerged    GigStatus = "MERGED"
	StatusCancelled GigStatus = "CANCELLED"
)

// Gig is a read-through projection of the on-chain escrow record. This client
// never owns a gig, it only caches what the contract returns.
type Gig struct {
	Id         uint64    `json:"id"`
	Client     string    `json:"client"`
	Freelancer string    `json:"freelancer"`
	Amount     *big.Int  `json:"amount"`
	RepoOwner  string    `json:"repoOwner"`
	RepoName   string    `json:"repoName"`
	PrId       string    `json:"prId"`
	IsOpen     bool      `json:"isOpen"`
	CreatedAt  int64     `json:"createdAt"`
	Status     GigStatus `json:"status"`
}

// CreateGigInput carries the create form fields. Amount is the human-readable
// token string, converted to the fixed-point integer after validation.
type CreateGigInput struct {
	Freelancer string `json:"freelancerAddress"`
	Amount     string `json:"amount"`
	RepoOwner  string `json:"repoOwner"`
	RepoName   string `json:"repoName"`
	PrId       string `json:"prId"`
}

// TxHandle is an opaque reference to a broadcast but not yet confirmed
// transaction.
type TxHandle string

// Receipt of a mined transaction
type Receipt struct {
	Handle      TxHandle
	BlockNumber uint64
}

type TxStatus string

const (
	TxIdle       TxStatus = "idle"
	TxPending    TxStatus = "pending"
	TxConfirming TxStatus = "confirming"
	TxSuccess    TxStatus = "success"
	TxError      TxStatus = "error"
)

// TransactionState mirrors the most recent write operation, superseded on
// every new write.
type TransactionState struct {
	Status TxStatus `json:"status"`
	Handle TxHandle `json:"hash,omitempty"`
	Error  string   `json:"error,omitempty"`
}

type VerificationStatus string

const (
	VerificationPending   VerificationStatus = "pending"
	VerificationSubmitted VerificationStatus = "submitted"
	VerificationVerified  VerificationStatus = "verified"
	VerificationNotMerged VerificationStatus = "not_merged"
	VerificationError     VerificationStatus = "error"
)

// IsTerminal reports whether the status only changes via an explicit Clear
func (s VerificationStatus) IsTerminal() bool {
	return s == VerificationVerified || s == VerificationNotMerged || s == VerificationError
}

// VerificationResult is the in-flight lifecycle of one verification attempt
type VerificationResult struct {
	Status       VerificationStatus `json:"status"`
	GigId        uint64             `json:"gigId"`
	Handle       TxHandle           `json:"hash,omitempty"`
	Amount       *big.Int           `json:"amount,omitempty"`
	Recipient    string             `json:"recipient,omitempty"`
	ErrorMessage string             `json:"error,omitempty"`
}

// Contract event names
const (
	EventGigCreated                = "GigCreated"
	EventGigCancelled              = "GigCancelled"
	EventGigFunded                 = "GigFunded"
	EventWorkVerificationRequested = "WorkVerificationRequested"
	EventWorkVerified              = "WorkVerified"
	EventPaymentReleased           = "PaymentReleased"
)

// Event is a decoded contract event
type Event interface {
	EventName() string
}

type GigCreatedEvent struct {
	GigId      uint64
	Client     string
	Freelancer string
	Amount     *big.Int
	RepoOwner  string
	RepoName   string
	PrId       string
}

func (e *GigCreatedEvent) EventName() string { return EventGigCreated }

type GigCancelledEvent struct {
	GigId  uint64
	Client string
	Amount *big.Int
}

func (e *GigCancelledEvent) EventName() string { return EventGigCancelled }

type GigFundedEvent struct {
	GigId  uint64
	Amount *big.Int
}

func (e *GigFundedEvent) EventName() string { return EventGigFunded }

type WorkVerificationRequestedEvent struct {
	GigId     uint64
	RequestId string
	Requester string
}

func (e *WorkVerificationRequestedEvent) EventName() string { return EventWorkVerificationRequested }

type WorkVerifiedEvent struct {
	GigId     uint64
	RequestId string
	IsMerged  bool
}

func (e *WorkVerifiedEvent) EventName() string { return EventWorkVerified }

type PaymentReleasedEvent struct {
	GigId      uint64
	Freelancer string
	Amount     *big.Int
}

func (e *PaymentReleasedEvent) EventName() string { return EventPaymentReleased }
