package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	listingRepo "tahanan/database/repository/listing"
	reservationRepo "tahanan/database/repository/reservation"
	"tahanan/models"
	"tahanan/services/availability"
	"tahanan/services/events"
	"tahanan/services/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memListingRepo struct {
	mu       sync.Mutex
	listings map[string]*models.Listing
}

func newMemListingRepo() *memListingRepo {
	return &memListingRepo{listings: make(map[string]*models.Listing)}
}

func (r *memListingRepo) GetByID(id string) (*models.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return nil, listingRepo.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *memListingRepo) Create(listing *models.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *listing
	r.listings[listing.ID] = &cp
	return nil
}

func (r *memListingRepo) SetBlockedDates(id string, dates []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return listingRepo.ErrNotFound
	}
	l.BlockedDates = dates
	return nil
}

func (r *memListingRepo) SetAllowedDates(id string, dates []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return listingRepo.ErrNotFound
	}
	l.AllowedDates = dates
	return nil
}

type memReservationRepo struct {
	mu           sync.Mutex
	reservations map[string]*models.Reservation
	failCreate   bool
}

func newMemReservationRepo() *memReservationRepo {
	return &memReservationRepo{reservations: make(map[string]*models.Reservation)}
}

func (r *memReservationRepo) Create(reservation *models.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return errors.New("write failed")
	}
	cp := *reservation
	r.reservations[reservation.ID] = &cp
	return nil
}

func (r *memReservationRepo) GetByID(id string) (*models.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.reservations[id]
	if !ok {
		return nil, reservationRepo.ErrNotFound
	}
	cp := *res
	return &cp, nil
}

func (r *memReservationRepo) ListConfirmedByListing(listingID string) ([]models.Reservation, error) {
	return r.listByListing(listingID, models.ReservationConfirmed)
}

func (r *memReservationRepo) ListActiveByListing(listingID string) ([]models.Reservation, error) {
	return r.listByListing(listingID, models.ReservationPending, models.ReservationConfirmed)
}

func (r *memReservationRepo) listByListing(listingID string, statuses ...models.ReservationStatus) ([]models.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Reservation
	for _, res := range r.reservations {
		if res.ListingID != listingID {
			continue
		}
		for _, st := range statuses {
			if res.Status == st {
				out = append(out, *res)
				break
			}
		}
	}
	return out, nil
}

func (r *memReservationRepo) ListByGuest(guestID string) ([]models.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Reservation
	for _, res := range r.reservations {
		if res.GuestID == guestID {
			out = append(out, *res)
		}
	}
	return out, nil
}

func (r *memReservationRepo) UpdateStatus(id string, from, to models.ReservationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.reservations[id]
	if !ok || res.Status != from {
		return reservationRepo.ErrStaleStatus
	}
	res.Status = to
	res.UpdatedAt = time.Now()
	return nil
}

func (r *memReservationRepo) Cancel(id string, from models.ReservationStatus, cancelledBy string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.reservations[id]
	if !ok || res.Status != from {
		return reservationRepo.ErrStaleStatus
	}
	res.Status = models.ReservationCancelled
	res.CancelledBy = cancelledBy
	res.UpdatedAt = time.Now()
	return nil
}

func (r *memReservationRepo) ListConfirmedEndedBefore(date string) ([]models.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Reservation
	for _, res := range r.reservations {
		if res.Status == models.ReservationConfirmed && res.CheckOut <= date {
			out = append(out, *res)
		}
	}
	return out, nil
}

// fakeLedger implements ledger.Service with just enough state for the
// lifecycle: pending entries that can be confirmed or failed.
type fakeLedger struct {
	mu      sync.Mutex
	entries map[string]*models.LedgerEntry
	seq     int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{entries: make(map[string]*models.LedgerEntry)}
}

func (f *fakeLedger) RecordEntry(ctx context.Context, req ledger.RecordRequest) (*models.LedgerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	entry := &models.LedgerEntry{
		ID:            fmt.Sprintf("entry-%d", f.seq),
		UserID:        req.UserID,
		Kind:          req.Kind,
		Purpose:       req.Purpose,
		Amount:        req.Gross,
		Gross:         req.Gross,
		Net:           req.Gross,
		Status:        models.EntryPending,
		ReservationID: req.ReservationID,
		Description:   req.Description,
		CreatedAt:     time.Now(),
	}
	f.entries[entry.ID] = entry
	cp := *entry
	return &cp, nil
}

func (f *fakeLedger) Confirm(ctx context.Context, entryID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[entryID]
	if !ok {
		return ledger.ErrEntryNotFound
	}
	if e.Status != models.EntryPending {
		return ledger.ErrInvalidTransition
	}
	now := time.Now()
	e.Status = models.EntryCompleted
	e.ConfirmedAt = &now
	return nil
}

func (f *fakeLedger) Fail(ctx context.Context, entryID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[entryID]
	if !ok {
		return ledger.ErrEntryNotFound
	}
	if e.Status != models.EntryPending {
		return ledger.ErrInvalidTransition
	}
	e.Status = models.EntryFailed
	e.FailReason = reason
	return nil
}

func (f *fakeLedger) BalanceOf(ctx context.Context, userID string) (int64, error)      { return 0, nil }
func (f *fakeLedger) RebuildBalance(ctx context.Context, userID string) (int64, error) { return 0, nil }

func (f *fakeLedger) EntriesOf(ctx context.Context, userID string) ([]models.LedgerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.LedgerEntry
	for _, e := range f.entries {
		if e.UserID == userID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeLedger) GetEntry(ctx context.Context, entryID string) (*models.LedgerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[entryID]
	if !ok {
		return nil, ledger.ErrEntryNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeLedger) GetByExternalRef(ctx context.Context, userID, externalRef string) (*models.LedgerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.UserID == userID && e.ExternalRef == externalRef {
			cp := *e
			return &cp, nil
		}
	}
	return nil, ledger.ErrEntryNotFound
}

type refundCall struct {
	entryID string
	amount  int64
	reason  string
}

type fakeRefunds struct {
	mu     sync.Mutex
	ledger *fakeLedger
	calls  []refundCall
}

func (f *fakeRefunds) Refund(ctx context.Context, entryID string, amount int64, reason string) (*models.LedgerEntry, error) {
	f.mu.Lock()
	f.calls = append(f.calls, refundCall{entryID: entryID, amount: amount, reason: reason})
	f.mu.Unlock()

	f.ledger.mu.Lock()
	defer f.ledger.mu.Unlock()
	e, ok := f.ledger.entries[entryID]
	if !ok {
		return nil, ledger.ErrEntryNotFound
	}
	e.Status = models.EntryRefunded
	return &models.LedgerEntry{ID: "refund-of-" + entryID, Kind: models.EntryRefund, Net: amount}, nil
}

type bookingFixture struct {
	svc          *DefaultBookingService
	listings     *memListingRepo
	reservations *memReservationRepo
	ledger       *fakeLedger
	refunds      *fakeRefunds
}

func newBookingFixture(t *testing.T, refundPercent int) *bookingFixture {
	t.Helper()
	listings := newMemListingRepo()
	reservations := newMemReservationRepo()
	fl := newFakeLedger()
	refunds := &fakeRefunds{ledger: fl}
	svc := NewDefaultBookingService(
		listings,
		reservations,
		availability.NewEngine(),
		fl,
		refunds,
		events.NewBus(16, nil),
		zap.NewNop(),
		refundPercent,
	)
	return &bookingFixture{svc: svc, listings: listings, reservations: reservations, ledger: fl, refunds: refunds}
}

func (f *bookingFixture) seedListing(t *testing.T, listing models.Listing) {
	t.Helper()
	require.NoError(t, f.listings.Create(&listing))
}

func defaultListing() models.Listing {
	return models.Listing{
		ID:          "listing-1",
		HostID:      "host-1",
		Title:       "Beachfront studio",
		NightlyRate: 24975,
		MaxGuests:   4,
	}
}

func TestRequestBooking(t *testing.T) {
	f := newBookingFixture(t, 100)
	f.seedListing(t, defaultListing())
	ctx := context.Background()

	reservation, err := f.svc.RequestBooking(ctx, BookingRequest{
		ListingID: "listing-1",
		GuestID:   "guest-1",
		CheckIn:   "2025-06-01",
		CheckOut:  "2025-06-05",
		Guests:    2,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReservationPending, reservation.Status)
	assert.Equal(t, "host-1", reservation.HostID)
	assert.Equal(t, 4, reservation.Nights())
	assert.Equal(t, int64(99900), reservation.TotalPrice)
	require.NotEmpty(t, reservation.EntryID)

	entry, err := f.ledger.GetEntry(ctx, reservation.EntryID)
	require.NoError(t, err)
	assert.Equal(t, models.EntryPayment, entry.Kind)
	assert.Equal(t, models.PurposeBookingPayment, entry.Purpose)
	assert.Equal(t, int64(99900), entry.Gross)
	assert.Equal(t, models.EntryPending, entry.Status)
	assert.Equal(t, reservation.ID, entry.ReservationID)
}

func TestRequestBookingValidation(t *testing.T) {
	f := newBookingFixture(t, 100)
	f.seedListing(t, defaultListing())
	ctx := context.Background()

	_, err := f.svc.RequestBooking(ctx, BookingRequest{
		ListingID: "no-such-listing",
		GuestID:   "guest-1",
		CheckIn:   "2025-06-01",
		CheckOut:  "2025-06-05",
		Guests:    2,
	})
	assert.ErrorIs(t, err, ErrListingNotFound)

	_, err = f.svc.RequestBooking(ctx, BookingRequest{
		ListingID: "listing-1",
		GuestID:   "guest-1",
		CheckIn:   "2025-06-05",
		CheckOut:  "2025-06-01",
		Guests:    2,
	})
	assert.ErrorIs(t, err, availability.ErrInvalidDateRange)

	for _, guests := range []int{0, 5} {
		_, err = f.svc.RequestBooking(ctx, BookingRequest{
			ListingID: "listing-1",
			GuestID:   "guest-1",
			CheckIn:   "2025-06-01",
			CheckOut:  "2025-06-05",
			Guests:    guests,
		})
		assert.ErrorIs(t, err, ErrTooManyGuests)
	}
}

func TestRequestBookingBlockedDate(t *testing.T) {
	f := newBookingFixture(t, 100)
	listing := defaultListing()
	listing.BlockedDates = []string{"2025-06-03"}
	f.seedListing(t, listing)

	_, err := f.svc.RequestBooking(context.Background(), BookingRequest{
		ListingID: "listing-1",
		GuestID:   "guest-1",
		CheckIn:   "2025-06-01",
		CheckOut:  "2025-06-05",
		Guests:    2,
	})
	var conflict *AvailabilityConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []string{"2025-06-03"}, conflict.Days)

	// Nothing was written: no reservation, no payment entry.
	entries, err := f.ledger.EntriesOf(context.Background(), "guest-1")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPendingReservationReservesRange(t *testing.T) {
	f := newBookingFixture(t, 100)
	f.seedListing(t, defaultListing())
	ctx := context.Background()

	_, err := f.svc.RequestBooking(ctx, BookingRequest{
		ListingID: "listing-1",
		GuestID:   "guest-1",
		CheckIn:   "2025-06-01",
		CheckOut:  "2025-06-05",
		Guests:    2,
	})
	require.NoError(t, err)

	_, err = f.svc.RequestBooking(ctx, BookingRequest{
		ListingID: "listing-1",
		GuestID:   "guest-2",
		CheckIn:   "2025-06-04",
		CheckOut:  "2025-06-07",
		Guests:    2,
	})
	var conflict *AvailabilityConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []string{"2025-06-04"}, conflict.Days)

	// Disjoint range is still bookable.
	_, err = f.svc.RequestBooking(ctx, BookingRequest{
		ListingID: "listing-1",
		GuestID:   "guest-2",
		CheckIn:   "2025-06-05",
		CheckOut:  "2025-06-07",
		Guests:    2,
	})
	assert.NoError(t, err)
}

func TestConcurrentOverlappingRequestsExactlyOneWins(t *testing.T) {
	f := newBookingFixture(t, 100)
	f.seedListing(t, defaultListing())
	ctx := context.Background()

	const workers = 8
	results := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := f.svc.RequestBooking(ctx, BookingRequest{
				ListingID: "listing-1",
				GuestID:   fmt.Sprintf("guest-%d", n),
				CheckIn:   "2025-06-01",
				CheckOut:  "2025-06-05",
				Guests:    2,
			})
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		if err == nil {
			wins++
			continue
		}
		var conflict *AvailabilityConflictError
		require.ErrorAs(t, err, &conflict)
		conflicts++
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, workers-1, conflicts)
}

func TestHostApprove(t *testing.T) {
	f := newBookingFixture(t, 100)
	f.seedListing(t, defaultListing())
	ctx := context.Background()

	reservation, err := f.svc.RequestBooking(ctx, BookingRequest{
		ListingID: "listing-1",
		GuestID:   "guest-1",
		CheckIn:   "2025-06-01",
		CheckOut:  "2025-06-05",
		Guests:    2,
	})
	require.NoError(t, err)

	approved, err := f.svc.HostRespond(ctx, reservation.ID, "host-1", true)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationConfirmed, approved.Status)

	entry, err := f.ledger.GetEntry(ctx, reservation.EntryID)
	require.NoError(t, err)
	assert.Equal(t, models.EntryCompleted, entry.Status)

	// Responding twice is an illegal transition.
	_, err = f.svc.HostRespond(ctx, reservation.ID, "host-1", true)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestHostDeclineVoidsPayment(t *testing.T) {
	f := newBookingFixture(t, 100)
	f.seedListing(t, defaultListing())
	ctx := context.Background()

	reservation, err := f.svc.RequestBooking(ctx, BookingRequest{
		ListingID: "listing-1",
		GuestID:   "guest-1",
		CheckIn:   "2025-06-01",
		CheckOut:  "2025-06-05",
		Guests:    2,
	})
	require.NoError(t, err)

	declined, err := f.svc.HostRespond(ctx, reservation.ID, "host-1", false)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationCancelled, declined.Status)
	assert.Equal(t, CancelledByHost, declined.CancelledBy)

	// The uncaptured payment is voided, not refunded.
	entry, err := f.ledger.GetEntry(ctx, reservation.EntryID)
	require.NoError(t, err)
	assert.Equal(t, models.EntryFailed, entry.Status)
	assert.Empty(t, f.refunds.calls)

	// The range is free again.
	_, err = f.svc.RequestBooking(ctx, BookingRequest{
		ListingID: "listing-1",
		GuestID:   "guest-2",
		CheckIn:   "2025-06-01",
		CheckOut:  "2025-06-05",
		Guests:    2,
	})
	assert.NoError(t, err)
}

func confirmedReservation(t *testing.T, f *bookingFixture, guestID string) *models.Reservation {
	t.Helper()
	ctx := context.Background()
	reservation, err := f.svc.RequestBooking(ctx, BookingRequest{
		ListingID: "listing-1",
		GuestID:   guestID,
		CheckIn:   "2025-06-01",
		CheckOut:  "2025-06-05",
		Guests:    2,
	})
	require.NoError(t, err)
	_, err = f.svc.HostRespond(ctx, reservation.ID, "host-1", true)
	require.NoError(t, err)
	return reservation
}

func TestCancelConfirmedByGuestRefundsPolicyPercent(t *testing.T) {
	f := newBookingFixture(t, 50)
	f.seedListing(t, defaultListing())
	ctx := context.Background()

	reservation := confirmedReservation(t, f, "guest-1")

	cancelled, err := f.svc.CancelConfirmed(ctx, reservation.ID, "guest-1", "guest")
	require.NoError(t, err)
	assert.Equal(t, models.ReservationCancelled, cancelled.Status)
	assert.Equal(t, CancelledByGuest, cancelled.CancelledBy)

	require.Len(t, f.refunds.calls, 1)
	call := f.refunds.calls[0]
	assert.Equal(t, reservation.EntryID, call.entryID)
	assert.Equal(t, int64(49950), call.amount) // half of 99900
}

func TestCancelConfirmedByHostRefundsInFull(t *testing.T) {
	f := newBookingFixture(t, 50)
	f.seedListing(t, defaultListing())
	ctx := context.Background()

	reservation := confirmedReservation(t, f, "guest-1")

	_, err := f.svc.CancelConfirmed(ctx, reservation.ID, "host-1", "host")
	require.NoError(t, err)

	require.Len(t, f.refunds.calls, 1)
	assert.Equal(t, int64(99900), f.refunds.calls[0].amount)
}

func TestHostRespondRejectsNonHost(t *testing.T) {
	f := newBookingFixture(t, 100)
	f.seedListing(t, defaultListing())
	ctx := context.Background()

	reservation, err := f.svc.RequestBooking(ctx, BookingRequest{
		ListingID: "listing-1",
		GuestID:   "guest-1",
		CheckIn:   "2025-06-01",
		CheckOut:  "2025-06-05",
		Guests:    2,
	})
	require.NoError(t, err)

	// The guest cannot approve their own stay.
	_, err = f.svc.HostRespond(ctx, reservation.ID, "guest-1", true)
	assert.ErrorIs(t, err, ErrNotAllowed)

	got, err := f.reservations.GetByID(reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationPending, got.Status)

	entry, err := f.ledger.GetEntry(ctx, reservation.EntryID)
	require.NoError(t, err)
	assert.Equal(t, models.EntryPending, entry.Status)
}

func TestCancelDerivesPartyFromCaller(t *testing.T) {
	f := newBookingFixture(t, 50)
	f.seedListing(t, defaultListing())
	ctx := context.Background()

	reservation := confirmedReservation(t, f, "guest-1")

	// A guest claiming to be the host still gets the guest policy; the
	// party comes from who the caller is, not from what they assert.
	cancelled, err := f.svc.CancelConfirmed(ctx, reservation.ID, "guest-1", "host")
	require.NoError(t, err)
	assert.Equal(t, CancelledByGuest, cancelled.CancelledBy)
	require.Len(t, f.refunds.calls, 1)
	assert.Equal(t, int64(49950), f.refunds.calls[0].amount)
}

func TestCancelByAdminRefundsInFull(t *testing.T) {
	f := newBookingFixture(t, 50)
	f.seedListing(t, defaultListing())
	ctx := context.Background()

	reservation := confirmedReservation(t, f, "guest-1")

	cancelled, err := f.svc.CancelConfirmed(ctx, reservation.ID, "admin-9", "admin")
	require.NoError(t, err)
	assert.Equal(t, CancelledByAdmin, cancelled.CancelledBy)
	require.Len(t, f.refunds.calls, 1)
	assert.Equal(t, int64(99900), f.refunds.calls[0].amount)
}

func TestCancelRejectsNonParty(t *testing.T) {
	f := newBookingFixture(t, 50)
	f.seedListing(t, defaultListing())
	ctx := context.Background()

	reservation := confirmedReservation(t, f, "guest-1")

	_, err := f.svc.CancelConfirmed(ctx, reservation.ID, "guest-2", "guest")
	assert.ErrorIs(t, err, ErrNotAllowed)

	got, err := f.reservations.GetByID(reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationConfirmed, got.Status)
	assert.Empty(t, f.refunds.calls)
}

func TestCancelRequiresConfirmed(t *testing.T) {
	f := newBookingFixture(t, 100)
	f.seedListing(t, defaultListing())
	ctx := context.Background()

	reservation, err := f.svc.RequestBooking(ctx, BookingRequest{
		ListingID: "listing-1",
		GuestID:   "guest-1",
		CheckIn:   "2025-06-01",
		CheckOut:  "2025-06-05",
		Guests:    2,
	})
	require.NoError(t, err)

	_, err = f.svc.CancelConfirmed(ctx, reservation.ID, "guest-1", "guest")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.svc.CancelConfirmed(ctx, "no-such-reservation", "guest-1", "guest")
	assert.ErrorIs(t, err, ErrReservationNotFound)
}

func TestCompleteIsIdempotent(t *testing.T) {
	f := newBookingFixture(t, 100)
	f.seedListing(t, defaultListing())
	ctx := context.Background()

	reservation := confirmedReservation(t, f, "guest-1")

	require.NoError(t, f.svc.Complete(ctx, reservation.ID))

	got, err := f.reservations.GetByID(reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationCompleted, got.Status)

	// Sweep re-runs hit completed reservations; that is a no-op.
	assert.NoError(t, f.svc.Complete(ctx, reservation.ID))
}

func TestCompleteRejectsPending(t *testing.T) {
	f := newBookingFixture(t, 100)
	f.seedListing(t, defaultListing())
	ctx := context.Background()

	reservation, err := f.svc.RequestBooking(ctx, BookingRequest{
		ListingID: "listing-1",
		GuestID:   "guest-1",
		CheckIn:   "2025-06-01",
		CheckOut:  "2025-06-05",
		Guests:    2,
	})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Complete(ctx, reservation.ID), ErrInvalidTransition)
}

func TestCompleteDueSweepsElapsedStays(t *testing.T) {
	f := newBookingFixture(t, 100)
	f.seedListing(t, defaultListing())
	ctx := context.Background()

	past := confirmedReservation(t, f, "guest-1")

	future, err := f.svc.RequestBooking(ctx, BookingRequest{
		ListingID: "listing-1",
		GuestID:   "guest-2",
		CheckIn:   "2025-07-01",
		CheckOut:  "2025-07-05",
		Guests:    2,
	})
	require.NoError(t, err)
	_, err = f.svc.HostRespond(ctx, future.ID, "host-1", true)
	require.NoError(t, err)

	now, err := time.Parse(models.DateLayout, "2025-06-10")
	require.NoError(t, err)
	completed, err := f.svc.CompleteDue(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, []string{past.ID}, completed)

	got, err := f.reservations.GetByID(future.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationConfirmed, got.Status)
}

func TestRequestBookingVoidsEntryWhenWriteFails(t *testing.T) {
	f := newBookingFixture(t, 100)
	f.seedListing(t, defaultListing())
	f.reservations.failCreate = true
	ctx := context.Background()

	_, err := f.svc.RequestBooking(ctx, BookingRequest{
		ListingID: "listing-1",
		GuestID:   "guest-1",
		CheckIn:   "2025-06-01",
		CheckOut:  "2025-06-05",
		Guests:    2,
	})
	require.Error(t, err)

	entries, err := f.ledger.EntriesOf(ctx, "guest-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.EntryFailed, entries[0].Status)
}

func TestCheckAvailabilityIgnoresPending(t *testing.T) {
	f := newBookingFixture(t, 100)
	f.seedListing(t, defaultListing())
	ctx := context.Background()

	reservation, err := f.svc.RequestBooking(ctx, BookingRequest{
		ListingID: "listing-1",
		GuestID:   "guest-1",
		CheckIn:   "2025-06-01",
		CheckOut:  "2025-06-05",
		Guests:    2,
	})
	require.NoError(t, err)

	start, _ := time.Parse(models.DateLayout, "2025-06-01")
	end, _ := time.Parse(models.DateLayout, "2025-06-05")

	// Discovery reads only count confirmed reservations.
	free, err := f.svc.CheckAvailability(ctx, "listing-1", start, end)
	require.NoError(t, err)
	assert.True(t, free)

	_, err = f.svc.HostRespond(ctx, reservation.ID, "host-1", true)
	require.NoError(t, err)

	free, err = f.svc.CheckAvailability(ctx, "listing-1", start, end)
	require.NoError(t, err)
	assert.False(t, free)
}
