package subscriptionRepo

import (
	"errors"
	"time"

	"tahanan/models"
)

var (
	// ErrNotFound indicates no subscription exists for the host.
	ErrNotFound = errors.New("subscription not found")
	// ErrStaleStatus indicates a status-guarded update matched no document.
	ErrStaleStatus = errors.New("subscription not in expected status")
)

// SubscriptionRepository defines methods for host subscription data access.
type SubscriptionRepository interface {
	// GetByHost retrieves the host's most recent subscription.
	GetByHost(hostID string) (*models.HostSubscription, error)
	// GetByEntryID retrieves the subscription activated or last renewed by
	// the given ledger entry. One entry can pay for at most one period.
	GetByEntryID(entryID string) (*models.HostSubscription, error)
	// Create inserts a new subscription record.
	Create(sub *models.HostSubscription) error
	// Update replaces a subscription record by its ID.
	Update(sub *models.HostSubscription) error
	// ListActiveEndedBefore returns active subscriptions whose period
	// bound has passed. The expiry sweep consumes this.
	ListActiveEndedBefore(t time.Time) ([]models.HostSubscription, error)
	// MarkExpired moves an active subscription to expired as a
	// conditional write.
	MarkExpired(id string) error
}
