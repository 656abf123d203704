package subscription

import (
	"context"
	"errors"
	"time"

	subscriptionRepo "tahanan/database/repository/subscription"
	"tahanan/models"
	"tahanan/services/events"
	"tahanan/services/ledger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrPaymentNotConfirmed means the referenced ledger entry has not
	// reached completed status, so it cannot activate access.
	ErrPaymentNotConfirmed = errors.New("activating payment is not confirmed")
	// ErrEntryNotEligible means the referenced entry does not pay this
	// host's subscription fee.
	ErrEntryNotEligible = errors.New("entry does not pay this host's subscription fee")
	// ErrEntryAlreadyUsed means the referenced entry has already bought a
	// subscription period.
	ErrEntryAlreadyUsed = errors.New("entry already activated a subscription")
)

// DefaultPlanID is used until multiple plans exist.
const DefaultPlanID = "host-standard"

// Service tracks a host's paid-access period.
type Service interface {
	// ActivateOnPayment activates or extends the host's subscription from
	// a completed subscription-fee entry.
	ActivateOnPayment(ctx context.Context, hostID, entryID string) (*models.HostSubscription, error)
	// IsActive is the access-control gate read by listing-creation flows.
	IsActive(ctx context.Context, hostID string) (bool, error)
	// ExpireDue sweeps active subscriptions past their period bound to
	// expired and returns the affected host ids.
	ExpireDue(ctx context.Context, now time.Time) ([]string, error)
	GetByHost(ctx context.Context, hostID string) (*models.HostSubscription, error)
}

// DefaultSubscriptionService implements Service.
type DefaultSubscriptionService struct {
	Repo          subscriptionRepo.SubscriptionRepository
	Ledger        ledger.Service
	Events        *events.Bus
	Logger        *zap.Logger
	PlanCycleDays int
}

func (s *DefaultSubscriptionService) ActivateOnPayment(ctx context.Context, hostID, entryID string) (*models.HostSubscription, error) {
	entry, err := s.Ledger.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.Status != models.EntryCompleted {
		return nil, ErrPaymentNotConfirmed
	}
	if entry.UserID != hostID || entry.Purpose != models.PurposeSubscriptionFee {
		s.Logger.Error("ineligible entry offered for activation",
			zap.String("hostID", hostID),
			zap.String("entryID", entry.ID),
			zap.String("entryUserID", entry.UserID),
			zap.String("purpose", string(entry.Purpose)),
		)
		return nil, ErrEntryNotEligible
	}
	// One fee buys one period. An entry already referenced by a
	// subscription cannot activate again.
	if _, err := s.Repo.GetByEntryID(entry.ID); err == nil {
		return nil, ErrEntryAlreadyUsed
	} else if !errors.Is(err, subscriptionRepo.ErrNotFound) {
		return nil, err
	}

	now := time.Now()
	cycle := time.Duration(s.PlanCycleDays) * 24 * time.Hour

	existing, err := s.Repo.GetByHost(hostID)
	if err != nil && !errors.Is(err, subscriptionRepo.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.ActiveAt(now) {
		// Extending pushes the bound from the current period end, so a
		// host renewing early loses nothing.
		existing.PeriodEnd = existing.PeriodEnd.Add(cycle)
		existing.EntryID = entry.ID
		if err := s.Repo.Update(existing); err != nil {
			return nil, err
		}
		s.publishActive(existing)
		return existing, nil
	}

	sub := &models.HostSubscription{
		ID:          uuid.New().String(),
		HostID:      hostID,
		PlanID:      DefaultPlanID,
		Status:      models.SubscriptionActive,
		EntryID:     entry.ID,
		PeriodStart: now,
		PeriodEnd:   now.Add(cycle),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Repo.Create(sub); err != nil {
		return nil, err
	}
	s.publishActive(sub)
	return sub, nil
}

func (s *DefaultSubscriptionService) IsActive(ctx context.Context, hostID string) (bool, error) {
	sub, err := s.Repo.GetByHost(hostID)
	if err != nil {
		if errors.Is(err, subscriptionRepo.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return sub.ActiveAt(time.Now()), nil
}

func (s *DefaultSubscriptionService) ExpireDue(ctx context.Context, now time.Time) ([]string, error) {
	due, err := s.Repo.ListActiveEndedBefore(now)
	if err != nil {
		return nil, err
	}
	var hosts []string
	for i := range due {
		if err := s.Repo.MarkExpired(due[i].ID); err != nil {
			if errors.Is(err, subscriptionRepo.ErrStaleStatus) {
				continue
			}
			s.Logger.Error("expiry sweep failed for subscription",
				zap.String("subscriptionID", due[i].ID), zap.Error(err))
			continue
		}
		hosts = append(hosts, due[i].HostID)
		s.Events.Publish(events.Event{
			Kind:   events.SubscriptionExpired,
			UserID: due[i].HostID,
		})
	}
	return hosts, nil
}

func (s *DefaultSubscriptionService) GetByHost(ctx context.Context, hostID string) (*models.HostSubscription, error) {
	sub, err := s.Repo.GetByHost(hostID)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *DefaultSubscriptionService) publishActive(sub *models.HostSubscription) {
	s.Events.Publish(events.Event{
		Kind:    events.SubscriptionActive,
		UserID:  sub.HostID,
		EntryID: sub.EntryID,
	})
}
