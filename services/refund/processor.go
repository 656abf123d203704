package refund

import (
	"context"
	"errors"
	"fmt"
	"time"

	ledgerRepo "tahanan/database/repository/ledger"
	"tahanan/models"
	"tahanan/services/events"
	"tahanan/services/ledger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrAmountExceedsOriginal means a partial refund asked for more than the
// original entry's net.
var ErrAmountExceedsOriginal = errors.New("refund amount exceeds original entry net")

// NotRefundableError reports why an entry cannot be refunded, carrying its
// current status so the caller can explain the rejection.
type NotRefundableError struct {
	EntryID string
	Status  models.EntryStatus
	Reason  string
}

func (e *NotRefundableError) Error() string {
	return fmt.Sprintf("entry %s not refundable (status %s): %s", e.EntryID, e.Status, e.Reason)
}

// Processor reverses a completed entry's monetary effect without mutating
// the original record. At most one refund per entry.
type Processor interface {
	// Refund reverses entryID. amount is the partial amount in minor
	// units; zero means the full original net. Returns the guest-side
	// refund entry.
	Refund(ctx context.Context, entryID string, amount int64, reason string) (*models.LedgerEntry, error)
}

// DefaultRefundProcessor implements Processor.
type DefaultRefundProcessor struct {
	Repo   ledgerRepo.LedgerRepository
	Wallet ledger.BalanceCache
	Events *events.Bus
	Logger *zap.Logger
}

func (p *DefaultRefundProcessor) Refund(ctx context.Context, entryID string, amount int64, reason string) (*models.LedgerEntry, error) {
	original, err := p.Repo.GetByID(entryID)
	if err != nil {
		if errors.Is(err, ledgerRepo.ErrNotFound) {
			return nil, ledger.ErrEntryNotFound
		}
		return nil, err
	}
	if original.Status != models.EntryCompleted {
		return nil, &NotRefundableError{EntryID: original.ID, Status: original.Status, Reason: "only completed entries can be refunded"}
	}
	if existing, err := p.Repo.GetRefundOf(original.ID); err == nil && existing != nil {
		return nil, &NotRefundableError{EntryID: original.ID, Status: original.Status, Reason: "a refund already references this entry"}
	} else if err != nil && !errors.Is(err, ledgerRepo.ErrNotFound) {
		return nil, err
	}

	if amount == 0 {
		amount = original.Net
	}
	if amount < 0 || amount > original.Net {
		return nil, ErrAmountExceedsOriginal
	}

	now := time.Now()
	eventID := uuid.New().String()

	// The side that paid gets a refund-kind credit; a side that received
	// gets a withdrawal-kind debit. Either way the delta is the inverse of
	// the original's, and both reversal entries share the refund event id.
	guestEntry := reversalOf(original, original.ID, amount, eventID, reason, now)

	originals := []string{original.ID}
	reversals := []*models.LedgerEntry{guestEntry}

	mirror, err := p.Repo.GetMirrorOf(original.ID)
	if err != nil && !errors.Is(err, ledgerRepo.ErrNotFound) {
		return nil, err
	}
	var adminEntry *models.LedgerEntry
	if mirror != nil && mirror.Status == models.EntryCompleted {
		adminEntry = reversalOf(mirror, mirror.ID, amount, eventID, reason, now)
		originals = append(originals, mirror.ID)
		reversals = append(reversals, adminEntry)
	}

	// Mark originals refunded and append the reversal entries as one unit.
	// Breaking this symmetry would un-balance the books, so partial writes
	// are not tolerated.
	if err := p.Repo.ApplyRefund(originals, reversals); err != nil {
		if errors.Is(err, ledgerRepo.ErrStaleStatus) {
			return nil, &NotRefundableError{EntryID: original.ID, Status: original.Status, Reason: "entry state changed concurrently"}
		}
		return nil, err
	}

	for _, rev := range reversals {
		if err := p.Wallet.Invalidate(ctx, rev.UserID); err != nil {
			p.Logger.Warn("wallet cache invalidate failed", zap.Error(err))
		}
		p.Events.Publish(events.Event{
			Kind:          events.EntryRefunded,
			UserID:        rev.UserID,
			EntryID:       rev.ID,
			ReservationID: rev.ReservationID,
			Amount:        rev.Net,
		})
	}

	p.Logger.Info("refund applied",
		zap.String("originalEntryID", original.ID),
		zap.String("refundEntryID", guestEntry.ID),
		zap.Int64("amount", amount),
		zap.Bool("mirrorReversed", adminEntry != nil),
	)
	return guestEntry, nil
}

// reversalOf builds the entry that undoes original's balance effect for
// amount minor units. Originals that debited (payments, withdrawals) are
// reversed with a refund-kind credit; originals that credited (deposits,
// mirrors) are reversed with a withdrawal-kind debit.
func reversalOf(original *models.LedgerEntry, relatedID string, amount int64, eventID, reason string, now time.Time) *models.LedgerEntry {
	kind := models.EntryRefund
	if original.Credits() {
		kind = models.EntryWithdrawal
	}
	return &models.LedgerEntry{
		ID:             uuid.New().String(),
		UserID:         original.UserID,
		Kind:           kind,
		Purpose:        original.Purpose,
		Amount:         amount,
		Gross:          amount,
		Fee:            0,
		Net:            amount,
		Status:         models.EntryCompleted,
		ReservationID:  original.ReservationID,
		RelatedEntryID: relatedID,
		EventID:        eventID,
		Description:    reason,
		CreatedAt:      now,
		ConfirmedAt:    &now,
	}
}
