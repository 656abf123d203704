package ledgerRepo

import (
	"errors"
	"time"

	"tahanan/models"
)

// Storage-level sentinel conditions. Services map these onto the
// user-facing error taxonomy.
var (
	// ErrNotFound indicates the requested entry does not exist.
	ErrNotFound = errors.New("ledger entry not found")
	// ErrDuplicateExternalRef indicates an entry already exists for the
	// same (user, external reference) pair.
	ErrDuplicateExternalRef = errors.New("duplicate external reference")
	// ErrStaleStatus indicates a status-guarded update matched no document:
	// the entry is not in the expected state.
	ErrStaleStatus = errors.New("entry not in expected status")
)

// LedgerRepository defines methods for ledger entry data access. The ledger
// is append-only: entries are inserted and their status advanced, never
// deleted or rewritten.
type LedgerRepository interface {
	// Insert appends a new entry. Returns ErrDuplicateExternalRef when an
	// entry with the same user and external reference already exists.
	Insert(entry *models.LedgerEntry) error
	// GetByID retrieves an entry by its unique ID.
	GetByID(id string) (*models.LedgerEntry, error)
	// GetByExternalRef retrieves a user's entry by external processor reference.
	GetByExternalRef(userID, externalRef string) (*models.LedgerEntry, error)
	// GetMirrorOf retrieves the admin-side mirror of the given entry, if
	// any. Mirrors link via related_entry_id and carry no refund event id.
	GetMirrorOf(entryID string) (*models.LedgerEntry, error)
	// GetRefundOf retrieves the reversal entry referencing the given
	// entry, if any. Reversals link via related_entry_id and always carry
	// a refund event id.
	GetRefundOf(entryID string) (*models.LedgerEntry, error)
	// UpdateStatus advances an entry from one status to another as a
	// conditional write. Returns ErrStaleStatus when the entry is not in
	// the expected from status.
	UpdateStatus(id string, from, to models.EntryStatus, failReason string, confirmedAt *time.Time) error
	// ConfirmAndMirror confirms a pending entry and inserts the admin
	// mirror entry in a single transaction. A crash can never leave one
	// side of the books written without the other.
	ConfirmAndMirror(entryID string, confirmedAt time.Time, mirror *models.LedgerEntry) error
	// ApplyRefund marks the original entries refunded and inserts the
	// reversal entries in a single transaction.
	ApplyRefund(originalIDs []string, refundEntries []*models.LedgerEntry) error
	// ListByUser returns all entries owned by a user, newest first.
	ListByUser(userID string) ([]models.LedgerEntry, error)
	// SumCompletedByUser folds all completed entries for a user into a
	// signed balance in minor units. This is the ground-truth balance;
	// any cache is rebuilt from it.
	SumCompletedByUser(userID string) (int64, error)
	// SumPendingDebitsByUser totals the net of the user's pending payment
	// and withdrawal entries. A pending debit holds a claim on the balance
	// until it confirms or fails.
	SumPendingDebitsByUser(userID string) (int64, error)
}
