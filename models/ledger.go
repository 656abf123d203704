package models

import "time"

// EntryKind enumerates the closed set of monetary movement kinds.
type EntryKind string

const (
	EntryDeposit    EntryKind = "deposit"
	EntryWithdrawal EntryKind = "withdrawal"
	EntryPayment    EntryKind = "payment"
	EntryRefund     EntryKind = "refund"
	EntryReward     EntryKind = "reward"
)

// ValidEntryKind reports whether k is one of the known kinds.
// Unknown shapes are rejected at the boundary, never stored.
func ValidEntryKind(k EntryKind) bool {
	switch k {
	case EntryDeposit, EntryWithdrawal, EntryPayment, EntryRefund, EntryReward:
		return true
	}
	return false
}

// EntryStatus enumerates ledger entry lifecycle states.
type EntryStatus string

const (
	EntryPending   EntryStatus = "pending"
	EntryCompleted EntryStatus = "completed"
	EntryFailed    EntryStatus = "failed"
	EntryRefunded  EntryStatus = "refunded"
)

// EntryPurpose tags what a movement pays for. Platform-destined purposes
// (subscription fee, booking service fee) trigger the admin mirror entry.
type EntryPurpose string

const (
	PurposeWalletTopup     EntryPurpose = "wallet_topup"
	PurposeBookingPayment  EntryPurpose = "booking_payment"
	PurposeSubscriptionFee EntryPurpose = "subscription_fee"
	PurposeServiceFee      EntryPurpose = "service_fee"
)

// PlatformDestined reports whether the transfer lands on the platform
// revenue account and must be mirrored there.
func (p EntryPurpose) PlatformDestined() bool {
	return p == PurposeSubscriptionFee || p == PurposeServiceFee
}

// LedgerEntry is one immutable record of a monetary movement for one user.
// Amounts are integer minor units (centavos); floating point never touches
// money in this system.
type LedgerEntry struct {
	ID             string       `bson:"id" json:"id"`
	UserID         string       `bson:"user_id" json:"user_id"`
	Kind           EntryKind    `bson:"kind" json:"kind"`
	Purpose        EntryPurpose `bson:"purpose" json:"purpose"`
	Amount         int64        `bson:"amount" json:"amount"`
	Gross          int64        `bson:"gross" json:"gross"`
	Fee            int64        `bson:"fee" json:"fee"`
	Net            int64        `bson:"net" json:"net"`
	Status         EntryStatus  `bson:"status" json:"status"`
	ExternalRef    string       `bson:"external_ref,omitempty" json:"external_ref,omitempty"`
	ReservationID  string       `bson:"reservation_id,omitempty" json:"reservation_id,omitempty"`
	RelatedEntryID string       `bson:"related_entry_id,omitempty" json:"related_entry_id,omitempty"`
	EventID        string       `bson:"event_id,omitempty" json:"event_id,omitempty"`
	Description    string       `bson:"description,omitempty" json:"description,omitempty"`
	FailReason     string       `bson:"fail_reason,omitempty" json:"fail_reason,omitempty"`
	CreatedAt      time.Time    `bson:"created_at" json:"created_at"`
	ConfirmedAt    *time.Time   `bson:"confirmed_at,omitempty" json:"confirmed_at,omitempty"`
}

// Credits reports whether a completed entry of this kind adds to the
// owner's wallet balance. Deposits, refunds and rewards add; withdrawals
// and payments subtract.
func (e *LedgerEntry) Credits() bool {
	switch e.Kind {
	case EntryDeposit, EntryRefund, EntryReward:
		return true
	}
	return false
}

// BalanceDelta is the signed effect of this entry on the owner's wallet,
// in minor units.
func (e *LedgerEntry) BalanceDelta() int64 {
	if e.Credits() {
		return e.Net
	}
	return -e.Net
}
