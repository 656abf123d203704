package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	ledgerRepo "tahanan/database/repository/ledger"
	"tahanan/models"
	"tahanan/services/events"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RecordRequest describes a movement to append. Gross must be the
// processor-confirmed amount, never a client-asserted one.
type RecordRequest struct {
	UserID        string
	Kind          models.EntryKind
	Purpose       models.EntryPurpose
	Gross         int64
	Fee           int64
	ExternalRef   string
	ReservationID string
	Description   string
}

// Service is the append-only financial ledger. Balances are derived from
// the entry log; all balance mutation flows through Confirm (and the refund
// processor), never through direct cache writes.
type Service interface {
	RecordEntry(ctx context.Context, req RecordRequest) (*models.LedgerEntry, error)
	Confirm(ctx context.Context, entryID string) error
	Fail(ctx context.Context, entryID, reason string) error
	BalanceOf(ctx context.Context, userID string) (int64, error)
	// RebuildBalance refolds a user's balance from the full entry history
	// and rewrites the cache. Disaster-recovery path for a lost or
	// distrusted cache.
	RebuildBalance(ctx context.Context, userID string) (int64, error)
	EntriesOf(ctx context.Context, userID string) ([]models.LedgerEntry, error)
	GetEntry(ctx context.Context, entryID string) (*models.LedgerEntry, error)
	// GetByExternalRef returns the user's entry recorded for an external
	// processor reference. Webhook retries resolve their earlier entry
	// through this.
	GetByExternalRef(ctx context.Context, userID, externalRef string) (*models.LedgerEntry, error)
}

// DefaultLedgerService implements Service.
type DefaultLedgerService struct {
	Repo        ledgerRepo.LedgerRepository
	Wallet      BalanceCache
	Events      *events.Bus
	AdminUserID string
	Logger      *zap.Logger
}

func (s *DefaultLedgerService) RecordEntry(ctx context.Context, req RecordRequest) (*models.LedgerEntry, error) {
	if req.Gross <= 0 || req.UserID == "" || !models.ValidEntryKind(req.Kind) {
		return nil, ErrInvalidAmount
	}

	fee := req.Fee
	if req.Purpose.PlatformDestined() {
		// No-fee promise for platform transfers: the processor's reported
		// fee is absorbed, net equals gross. Kept deliberately from the
		// product's original policy.
		fee = 0
	}
	if fee < 0 || fee > req.Gross {
		return nil, ErrInvalidAmount
	}

	if req.ExternalRef != "" {
		existing, err := s.Repo.GetByExternalRef(req.UserID, req.ExternalRef)
		if err != nil && !errors.Is(err, ledgerRepo.ErrNotFound) {
			return nil, fmt.Errorf("failed to check external reference: %w", err)
		}
		if existing != nil {
			s.Logger.Error("duplicate external reference rejected",
				zap.String("userID", req.UserID),
				zap.String("externalRef", req.ExternalRef),
				zap.String("existingEntryID", existing.ID),
			)
			return nil, ErrDuplicateExternalReference
		}
	}

	if req.Kind == models.EntryWithdrawal || req.Kind == models.EntryPayment {
		balance, err := s.BalanceOf(ctx, req.UserID)
		if err != nil {
			return nil, err
		}
		// Pending debits already hold a claim on the balance; the same
		// funds cannot back two in-flight payments.
		reserved, err := s.Repo.SumPendingDebitsByUser(req.UserID)
		if err != nil {
			return nil, err
		}
		if balance-reserved < req.Gross-fee {
			return nil, ErrInsufficientFunds
		}
	}

	entry := &models.LedgerEntry{
		ID:            uuid.New().String(),
		UserID:        req.UserID,
		Kind:          req.Kind,
		Purpose:       req.Purpose,
		Amount:        req.Gross,
		Gross:         req.Gross,
		Fee:           fee,
		Net:           req.Gross - fee,
		Status:        models.EntryPending,
		ExternalRef:   req.ExternalRef,
		ReservationID: req.ReservationID,
		Description:   req.Description,
		CreatedAt:     time.Now(),
	}

	if err := s.Repo.Insert(entry); err != nil {
		if errors.Is(err, ledgerRepo.ErrDuplicateExternalRef) {
			// Race between the pre-check and the insert; the unique index
			// is the real guard.
			s.Logger.Error("duplicate external reference rejected by index",
				zap.String("userID", req.UserID),
				zap.String("externalRef", req.ExternalRef),
			)
			return nil, ErrDuplicateExternalReference
		}
		return nil, err
	}

	s.Events.Publish(events.Event{
		Kind:          events.EntryRecorded,
		UserID:        entry.UserID,
		EntryID:       entry.ID,
		ReservationID: entry.ReservationID,
		Amount:        entry.Net,
	})
	return entry, nil
}

func (s *DefaultLedgerService) Confirm(ctx context.Context, entryID string) error {
	entry, err := s.GetEntry(ctx, entryID)
	if err != nil {
		return err
	}
	if entry.Status != models.EntryPending {
		s.Logger.Error("illegal confirm attempted",
			zap.String("entryID", entry.ID),
			zap.String("status", string(entry.Status)),
		)
		return ErrInvalidTransition
	}

	now := time.Now()
	var mirror *models.LedgerEntry
	if entry.Kind == models.EntryDeposit && entry.Purpose.PlatformDestined() && entry.Fee == 0 {
		// Fee-free platform transfer: the admin revenue entry must match
		// the guest entry exactly, created in the same transaction.
		mirror = &models.LedgerEntry{
			ID:             uuid.New().String(),
			UserID:         s.AdminUserID,
			Kind:           models.EntryDeposit,
			Purpose:        entry.Purpose,
			Amount:         entry.Amount,
			Gross:          entry.Gross,
			Fee:            0,
			Net:            entry.Net,
			Status:         models.EntryCompleted,
			ReservationID:  entry.ReservationID,
			RelatedEntryID: entry.ID,
			Description:    "platform revenue mirror",
			CreatedAt:      now,
			ConfirmedAt:    &now,
		}
	}

	if err := s.Repo.ConfirmAndMirror(entry.ID, now, mirror); err != nil {
		if errors.Is(err, ledgerRepo.ErrStaleStatus) {
			return ErrInvalidTransition
		}
		return err
	}

	if err := s.Wallet.Invalidate(ctx, entry.UserID); err != nil {
		s.Logger.Warn("wallet cache invalidate failed", zap.Error(err))
	}
	s.Events.Publish(events.Event{
		Kind:          events.EntryConfirmed,
		UserID:        entry.UserID,
		EntryID:       entry.ID,
		ReservationID: entry.ReservationID,
		Amount:        entry.Net,
	})

	if mirror != nil {
		if err := s.Wallet.Invalidate(ctx, mirror.UserID); err != nil {
			s.Logger.Warn("admin wallet cache invalidate failed", zap.Error(err))
		}
		s.Events.Publish(events.Event{
			Kind:    events.EntryConfirmed,
			UserID:  mirror.UserID,
			EntryID: mirror.ID,
			Amount:  mirror.Net,
		})
	}
	return nil
}

func (s *DefaultLedgerService) Fail(ctx context.Context, entryID, reason string) error {
	entry, err := s.GetEntry(ctx, entryID)
	if err != nil {
		return err
	}
	if entry.Status != models.EntryPending {
		s.Logger.Error("illegal fail attempted",
			zap.String("entryID", entry.ID),
			zap.String("status", string(entry.Status)),
		)
		return ErrInvalidTransition
	}

	if err := s.Repo.UpdateStatus(entry.ID, models.EntryPending, models.EntryFailed, reason, nil); err != nil {
		if errors.Is(err, ledgerRepo.ErrStaleStatus) {
			return ErrInvalidTransition
		}
		return err
	}
	s.Events.Publish(events.Event{
		Kind:    events.EntryFailed,
		UserID:  entry.UserID,
		EntryID: entry.ID,
		Amount:  entry.Net,
	})
	return nil
}

func (s *DefaultLedgerService) BalanceOf(ctx context.Context, userID string) (int64, error) {
	balance, hit, err := s.Wallet.Get(ctx, userID)
	if err != nil {
		s.Logger.Warn("wallet cache read failed, folding from ledger", zap.Error(err))
	} else if hit {
		return balance, nil
	}
	return s.RebuildBalance(ctx, userID)
}

func (s *DefaultLedgerService) RebuildBalance(ctx context.Context, userID string) (int64, error) {
	balance, err := s.Repo.SumCompletedByUser(userID)
	if err != nil {
		return 0, err
	}
	if err := s.Wallet.Set(ctx, userID, balance); err != nil {
		s.Logger.Warn("wallet cache write failed", zap.Error(err))
	}
	return balance, nil
}

func (s *DefaultLedgerService) EntriesOf(ctx context.Context, userID string) ([]models.LedgerEntry, error) {
	return s.Repo.ListByUser(userID)
}

func (s *DefaultLedgerService) GetByExternalRef(ctx context.Context, userID, externalRef string) (*models.LedgerEntry, error) {
	entry, err := s.Repo.GetByExternalRef(userID, externalRef)
	if err != nil {
		if errors.Is(err, ledgerRepo.ErrNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return entry, nil
}

func (s *DefaultLedgerService) GetEntry(ctx context.Context, entryID string) (*models.LedgerEntry, error) {
	entry, err := s.Repo.GetByID(entryID)
	if err != nil {
		if errors.Is(err, ledgerRepo.ErrNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return entry, nil
}
