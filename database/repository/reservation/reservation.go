package reservationRepo

import (
	"errors"

	"tahanan/models"
)

var (
	// ErrNotFound indicates the requested reservation does not exist.
	ErrNotFound = errors.New("reservation not found")
	// ErrStaleStatus indicates a status-guarded update matched no document:
	// the reservation is not in the expected state.
	ErrStaleStatus = errors.New("reservation not in expected status")
)

// ReservationRepository defines methods for reservation data access.
type ReservationRepository interface {
	// Create inserts a new reservation record.
	Create(reservation *models.Reservation) error
	// GetByID retrieves a reservation by its unique ID.
	GetByID(id string) (*models.Reservation, error)
	// ListConfirmedByListing returns all confirmed reservations for a
	// listing. Availability reads consume this snapshot.
	ListConfirmedByListing(listingID string) ([]models.Reservation, error)
	// ListActiveByListing returns pending and confirmed reservations for
	// a listing. A pending reservation reserves its range, so booking
	// creation checks against this set.
	ListActiveByListing(listingID string) ([]models.Reservation, error)
	// ListByGuest returns a guest's reservations, newest first.
	ListByGuest(guestID string) ([]models.Reservation, error)
	// UpdateStatus advances a reservation from one status to another as a
	// conditional write. Returns ErrStaleStatus when the reservation is
	// not in the expected from status.
	UpdateStatus(id string, from, to models.ReservationStatus) error
	// Cancel moves a reservation to cancelled, recording who cancelled.
	Cancel(id string, from models.ReservationStatus, cancelledBy string) error
	// ListConfirmedEndedBefore returns confirmed reservations whose
	// check-out date is on or before the given calendar day. The
	// completion sweep consumes this.
	ListConfirmedEndedBefore(date string) ([]models.Reservation, error)
}
