package booking

import (
	"context"
	"errors"
	"time"

	listingRepo "tahanan/database/repository/listing"
	reservationRepo "tahanan/database/repository/reservation"
	"tahanan/models"
	"tahanan/services/availability"
	"tahanan/services/events"
	"tahanan/services/ledger"
	"tahanan/services/refund"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CancelledByGuest, CancelledByHost and CancelledByAdmin record who
// triggered a cancellation, for audit.
const (
	CancelledByGuest = "guest"
	CancelledByHost  = "host"
	CancelledByAdmin = "admin"
)

// BookingRequest is a guest's ask for a stay.
type BookingRequest struct {
	ListingID string
	GuestID   string
	CheckIn   string // YYYY-MM-DD
	CheckOut  string // YYYY-MM-DD, exclusive
	Guests    int
}

// Service owns the reservation state machine:
// pending -> confirmed|cancelled, confirmed -> cancelled|completed.
type Service interface {
	RequestBooking(ctx context.Context, req BookingRequest) (*models.Reservation, error)
	// HostRespond approves or declines a pending reservation. callerID
	// must be the listing's host; guests cannot approve their own stays.
	HostRespond(ctx context.Context, reservationID, callerID string, approve bool) (*models.Reservation, error)
	// CancelConfirmed cancels a confirmed reservation. Who cancelled is
	// derived from the caller's identity and role, never asserted by the
	// request, because it decides the refund percentage.
	CancelConfirmed(ctx context.Context, reservationID, callerID, role string) (*models.Reservation, error)
	Complete(ctx context.Context, reservationID string) error
	// CompleteDue runs Complete for every confirmed reservation whose
	// check-out has elapsed; the scheduler invokes it.
	CompleteDue(ctx context.Context, now time.Time) ([]string, error)
	ListByGuest(ctx context.Context, guestID string) ([]models.Reservation, error)
	CheckAvailability(ctx context.Context, listingID string, start, end time.Time) (bool, error)
}

// DefaultBookingService implements Service.
type DefaultBookingService struct {
	Listings     listingRepo.ListingRepository
	Reservations reservationRepo.ReservationRepository
	Engine       *availability.Engine
	Ledger       ledger.Service
	Refunds      refund.Processor
	Events       *events.Bus
	Logger       *zap.Logger

	// RefundPercentOnGuestCancel is the refund policy input; host and
	// admin cancellations always refund in full.
	RefundPercentOnGuestCancel int

	locks *listingLocks
}

// NewDefaultBookingService wires the lifecycle with its lock table.
func NewDefaultBookingService(
	listings listingRepo.ListingRepository,
	reservations reservationRepo.ReservationRepository,
	engine *availability.Engine,
	ledgerSvc ledger.Service,
	refunds refund.Processor,
	bus *events.Bus,
	logger *zap.Logger,
	refundPercentOnGuestCancel int,
) *DefaultBookingService {
	return &DefaultBookingService{
		Listings:                   listings,
		Reservations:               reservations,
		Engine:                     engine,
		Ledger:                     ledgerSvc,
		Refunds:                    refunds,
		Events:                     bus,
		Logger:                     logger,
		RefundPercentOnGuestCancel: refundPercentOnGuestCancel,
		locks:                      newListingLocks(),
	}
}

func (s *DefaultBookingService) RequestBooking(ctx context.Context, req BookingRequest) (*models.Reservation, error) {
	start, end, err := parseRange(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}

	listing, err := s.Listings.GetByID(req.ListingID)
	if err != nil {
		if errors.Is(err, listingRepo.ErrNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	if req.Guests < 1 || req.Guests > listing.MaxGuests {
		return nil, ErrTooManyGuests
	}

	// Availability check and reservation write are one atomic unit per
	// listing. A concurrent request for overlapping dates serializes here
	// and sees this reservation in its snapshot. Pending reservations
	// reserve their range too, so of two overlapping requests exactly one
	// survives.
	mu := s.locks.acquire(listing.ID)
	mu.Lock()
	defer mu.Unlock()

	active, err := s.Reservations.ListActiveByListing(listing.ID)
	if err != nil {
		return nil, err
	}
	free, err := s.Engine.IsAvailable(listing, start, end, active)
	if err != nil {
		return nil, err
	}
	if !free {
		days, err := s.Engine.ConflictingDays(listing, start, end, active)
		if err != nil {
			return nil, err
		}
		return nil, &AvailabilityConflictError{ListingID: listing.ID, Days: days}
	}

	nights := int64(end.Sub(start).Hours() / 24)
	reservation := &models.Reservation{
		ID:         uuid.New().String(),
		ListingID:  listing.ID,
		GuestID:    req.GuestID,
		HostID:     listing.HostID,
		CheckIn:    start.Format(models.DateLayout),
		CheckOut:   end.Format(models.DateLayout),
		Guests:     req.Guests,
		TotalPrice: nights * listing.NightlyRate,
		Status:     models.ReservationPending,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	entry, err := s.Ledger.RecordEntry(ctx, ledger.RecordRequest{
		UserID:        req.GuestID,
		Kind:          models.EntryPayment,
		Purpose:       models.PurposeBookingPayment,
		Gross:         reservation.TotalPrice,
		ReservationID: reservation.ID,
		Description:   "booking payment for listing " + listing.ID,
	})
	if err != nil {
		return nil, err
	}
	reservation.EntryID = entry.ID

	if err := s.Reservations.Create(reservation); err != nil {
		// The payment entry must not stay live without its reservation.
		if failErr := s.Ledger.Fail(ctx, entry.ID, "reservation write failed"); failErr != nil {
			s.Logger.Error("failed to void orphaned payment entry",
				zap.String("entryID", entry.ID), zap.Error(failErr))
		}
		return nil, err
	}

	s.Events.Publish(events.Event{
		Kind:          events.ReservationCreated,
		UserID:        req.GuestID,
		ReservationID: reservation.ID,
		ListingID:     listing.ID,
		EntryID:       entry.ID,
		Amount:        reservation.TotalPrice,
	})
	return reservation, nil
}

func (s *DefaultBookingService) HostRespond(ctx context.Context, reservationID, callerID string, approve bool) (*models.Reservation, error) {
	reservation, err := s.getReservation(reservationID)
	if err != nil {
		return nil, err
	}
	if reservation.HostID != callerID {
		s.Logger.Warn("non-host response on reservation",
			zap.String("reservationID", reservation.ID),
			zap.String("callerID", callerID),
		)
		return nil, ErrNotAllowed
	}
	if reservation.Status != models.ReservationPending {
		s.Logger.Error("host response on non-pending reservation",
			zap.String("reservationID", reservation.ID),
			zap.String("status", string(reservation.Status)),
		)
		return nil, ErrInvalidTransition
	}

	if approve {
		// Re-check against confirmed reservations under the listing lock:
		// no approval may create an overlapping confirmed pair, whatever
		// history led here.
		mu := s.locks.acquire(reservation.ListingID)
		mu.Lock()
		err = s.approveLocked(reservation)
		mu.Unlock()
		if err != nil {
			return nil, err
		}
		// Capture the guest's funds logically.
		if err := s.Ledger.Confirm(ctx, reservation.EntryID); err != nil {
			s.Logger.Error("payment confirm failed after reservation confirm",
				zap.String("reservationID", reservation.ID),
				zap.String("entryID", reservation.EntryID),
				zap.Error(err),
			)
			return nil, err
		}
		reservation.Status = models.ReservationConfirmed
		s.Events.Publish(events.Event{
			Kind:          events.ReservationConfirmed,
			UserID:        reservation.GuestID,
			ReservationID: reservation.ID,
			ListingID:     reservation.ListingID,
			EntryID:       reservation.EntryID,
			Amount:        reservation.TotalPrice,
		})
		return reservation, nil
	}

	if err := s.Reservations.Cancel(reservation.ID, models.ReservationPending, CancelledByHost); err != nil {
		return nil, mapStale(err)
	}
	if err := s.releaseFunds(ctx, reservation, "host declined booking", 100); err != nil {
		return nil, err
	}
	reservation.Status = models.ReservationCancelled
	reservation.CancelledBy = CancelledByHost
	s.Events.Publish(events.Event{
		Kind:          events.ReservationCancelled,
		UserID:        reservation.GuestID,
		ReservationID: reservation.ID,
		ListingID:     reservation.ListingID,
	})
	return reservation, nil
}

func (s *DefaultBookingService) CancelConfirmed(ctx context.Context, reservationID, callerID, role string) (*models.Reservation, error) {
	reservation, err := s.getReservation(reservationID)
	if err != nil {
		return nil, err
	}

	// The cancelling party is derived, not asserted: it selects the
	// refund percentage, so a guest must not be able to claim the host's.
	var cancelledBy string
	switch {
	case role == "admin":
		cancelledBy = CancelledByAdmin
	case callerID == reservation.HostID:
		cancelledBy = CancelledByHost
	case callerID == reservation.GuestID:
		cancelledBy = CancelledByGuest
	default:
		s.Logger.Warn("cancel attempted by a non-party",
			zap.String("reservationID", reservation.ID),
			zap.String("callerID", callerID),
		)
		return nil, ErrNotAllowed
	}

	if reservation.Status != models.ReservationConfirmed {
		s.Logger.Error("cancel on non-confirmed reservation",
			zap.String("reservationID", reservation.ID),
			zap.String("status", string(reservation.Status)),
		)
		return nil, ErrInvalidTransition
	}

	if err := s.Reservations.Cancel(reservation.ID, models.ReservationConfirmed, cancelledBy); err != nil {
		return nil, mapStale(err)
	}

	percent := 100
	if cancelledBy == CancelledByGuest {
		percent = s.RefundPercentOnGuestCancel
	}
	if err := s.releaseFunds(ctx, reservation, "booking cancelled by "+cancelledBy, percent); err != nil {
		return nil, err
	}

	reservation.Status = models.ReservationCancelled
	reservation.CancelledBy = cancelledBy
	s.Events.Publish(events.Event{
		Kind:          events.ReservationCancelled,
		UserID:        reservation.GuestID,
		ReservationID: reservation.ID,
		ListingID:     reservation.ListingID,
	})
	return reservation, nil
}

func (s *DefaultBookingService) Complete(ctx context.Context, reservationID string) error {
	reservation, err := s.getReservation(reservationID)
	if err != nil {
		return err
	}
	switch reservation.Status {
	case models.ReservationCompleted:
		// Sweep re-runs land here; completing twice is a no-op.
		return nil
	case models.ReservationConfirmed:
	default:
		return ErrInvalidTransition
	}

	if err := s.Reservations.UpdateStatus(reservation.ID, models.ReservationConfirmed, models.ReservationCompleted); err != nil {
		if errors.Is(err, reservationRepo.ErrStaleStatus) {
			// Lost the race with another sweep run; already terminal.
			return nil
		}
		return err
	}
	s.Events.Publish(events.Event{
		Kind:          events.ReservationCompleted,
		UserID:        reservation.GuestID,
		ReservationID: reservation.ID,
		ListingID:     reservation.ListingID,
	})
	return nil
}

func (s *DefaultBookingService) CompleteDue(ctx context.Context, now time.Time) ([]string, error) {
	today := now.Format(models.DateLayout)
	due, err := s.Reservations.ListConfirmedEndedBefore(today)
	if err != nil {
		return nil, err
	}
	var completed []string
	for i := range due {
		if err := s.Complete(ctx, due[i].ID); err != nil {
			s.Logger.Error("completion sweep failed for reservation",
				zap.String("reservationID", due[i].ID), zap.Error(err))
			continue
		}
		completed = append(completed, due[i].ID)
	}
	return completed, nil
}

func (s *DefaultBookingService) ListByGuest(ctx context.Context, guestID string) ([]models.Reservation, error) {
	return s.Reservations.ListByGuest(guestID)
}

func (s *DefaultBookingService) CheckAvailability(ctx context.Context, listingID string, start, end time.Time) (bool, error) {
	listing, err := s.Listings.GetByID(listingID)
	if err != nil {
		if errors.Is(err, listingRepo.ErrNotFound) {
			return false, ErrListingNotFound
		}
		return false, err
	}
	confirmed, err := s.Reservations.ListConfirmedByListing(listingID)
	if err != nil {
		return false, err
	}
	return s.Engine.IsAvailable(listing, start, end, confirmed)
}

// approveLocked moves a pending reservation to confirmed after verifying
// the range is still free of confirmed overlaps. Caller holds the listing
// lock.
func (s *DefaultBookingService) approveLocked(reservation *models.Reservation) error {
	listing, err := s.Listings.GetByID(reservation.ListingID)
	if err != nil {
		if errors.Is(err, listingRepo.ErrNotFound) {
			return ErrListingNotFound
		}
		return err
	}
	confirmed, err := s.Reservations.ListConfirmedByListing(reservation.ListingID)
	if err != nil {
		return err
	}
	start, end, err := parseRange(reservation.CheckIn, reservation.CheckOut)
	if err != nil {
		return err
	}
	free, err := s.Engine.IsAvailable(listing, start, end, confirmed)
	if err != nil {
		return err
	}
	if !free {
		days, err := s.Engine.ConflictingDays(listing, start, end, confirmed)
		if err != nil {
			return err
		}
		return &AvailabilityConflictError{ListingID: listing.ID, Days: days}
	}
	return mapStale(s.Reservations.UpdateStatus(reservation.ID, models.ReservationPending, models.ReservationConfirmed))
}

// releaseFunds returns the guest's money after a decline or cancellation.
// A still-pending payment entry is voided; a captured one goes through the
// refund processor for percent of its net.
func (s *DefaultBookingService) releaseFunds(ctx context.Context, reservation *models.Reservation, reason string, percent int) error {
	entry, err := s.Ledger.GetEntry(ctx, reservation.EntryID)
	if err != nil {
		return err
	}
	switch entry.Status {
	case models.EntryPending:
		return s.Ledger.Fail(ctx, entry.ID, reason)
	case models.EntryCompleted:
		amount := entry.Net * int64(percent) / 100
		if amount == 0 {
			return nil
		}
		_, err := s.Refunds.Refund(ctx, entry.ID, amount, reason)
		return err
	default:
		// Already failed or refunded; nothing left to release.
		return nil
	}
}

func (s *DefaultBookingService) getReservation(id string) (*models.Reservation, error) {
	reservation, err := s.Reservations.GetByID(id)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return reservation, nil
}

func mapStale(err error) error {
	if errors.Is(err, reservationRepo.ErrStaleStatus) {
		return ErrInvalidTransition
	}
	return err
}

func parseRange(checkIn, checkOut string) (time.Time, time.Time, error) {
	start, err := time.Parse(models.DateLayout, checkIn)
	if err != nil {
		return time.Time{}, time.Time{}, availability.ErrInvalidDateRange
	}
	end, err := time.Parse(models.DateLayout, checkOut)
	if err != nil {
		return time.Time{}, time.Time{}, availability.ErrInvalidDateRange
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, availability.ErrInvalidDateRange
	}
	return start, end, nil
}
