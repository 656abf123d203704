package booking

import (
	"errors"
	"fmt"
)

var (
	// ErrListingNotFound means the referenced listing does not exist.
	ErrListingNotFound = errors.New("listing not found")
	// ErrReservationNotFound means the referenced reservation does not exist.
	ErrReservationNotFound = errors.New("reservation not found")
	// ErrTooManyGuests means the request exceeds the listing's capacity.
	ErrTooManyGuests = errors.New("guest count exceeds listing capacity")
	// ErrInvalidTransition means an illegal reservation state-machine move
	// was attempted.
	ErrInvalidTransition = errors.New("invalid reservation status transition")
	// ErrNotAllowed means the caller is not a party to the reservation
	// they are acting on.
	ErrNotAllowed = errors.New("caller may not act on this reservation")
)

// AvailabilityConflictError reports which requested days are unavailable.
type AvailabilityConflictError struct {
	ListingID string
	Days      []string
}

func (e *AvailabilityConflictError) Error() string {
	return fmt.Sprintf("listing %s unavailable on %v", e.ListingID, e.Days)
}
