package models

import "time"

// SubscriptionStatus enumerates host subscription states.
type SubscriptionStatus string

const (
	SubscriptionPending SubscriptionStatus = "pending"
	SubscriptionActive  SubscriptionStatus = "active"
	SubscriptionExpired SubscriptionStatus = "expired"
)

// HostSubscription tracks a host's paid-access period. It is created when a
// subscription-fee transaction is recorded and becomes active only once that
// transaction completes.
type HostSubscription struct {
	ID          string             `bson:"id" json:"id"`
	HostID      string             `bson:"host_id" json:"host_id"`
	PlanID      string             `bson:"plan_id" json:"plan_id"`
	Status      SubscriptionStatus `bson:"status" json:"status"`
	EntryID     string             `bson:"entry_id" json:"entry_id"` // activating ledger entry
	PeriodStart time.Time          `bson:"period_start" json:"period_start"`
	PeriodEnd   time.Time          `bson:"period_end" json:"period_end"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// ActiveAt reports whether the subscription grants access at the given time.
func (s *HostSubscription) ActiveAt(t time.Time) bool {
	return s.Status == SubscriptionActive && t.Before(s.PeriodEnd)
}
