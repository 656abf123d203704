package ledger

import "errors"

var (
	// ErrDuplicateExternalReference means an entry already exists for the
	// same external processor reference and user. Recording again would
	// double-credit a single payment notification.
	ErrDuplicateExternalReference = errors.New("entry already recorded for this external reference")
	// ErrInvalidTransition means an illegal entry state-machine move was
	// attempted. Valid moves are pending to completed, pending to failed
	// and completed to refunded only.
	ErrInvalidTransition = errors.New("invalid ledger entry status transition")
	// ErrInsufficientFunds means a withdrawal or payment exceeds the
	// owner's wallet balance.
	ErrInsufficientFunds = errors.New("insufficient wallet balance")
	// ErrEntryNotFound means the referenced entry does not exist.
	ErrEntryNotFound = errors.New("ledger entry not found")
	// ErrInvalidAmount means a non-positive or unknown-kind movement was
	// rejected at the boundary.
	ErrInvalidAmount = errors.New("invalid entry amount or kind")
)
