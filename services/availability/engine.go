package availability

import (
	"errors"
	"fmt"
	"time"

	"tahanan/models"
)

// ErrInvalidDateRange is returned when the requested range is empty or
// inverted (end on or before start).
var ErrInvalidDateRange = errors.New("check-out date must be after check-in date")

// ConflictError reports exactly which calendar days in a requested range
// are not bookable, so a failed booking can tell the guest what to change.
type ConflictError struct {
	Days []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("dates unavailable: %v", e.Days)
}

// Engine decides whether a listing's date range is bookable. It is a pure
// function over the supplied calendar data and reservation snapshot; the
// caller owns snapshot freshness and the atomicity of check-then-write.
type Engine struct{}

// NewEngine creates an availability engine.
func NewEngine() *Engine {
	return &Engine{}
}

// normalize strips any time-of-day component. Availability is calendar-day
// granular.
func normalize(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// IsAvailable reports whether every day in [start, end) is bookable: not in
// the listing's block-list, present in the allow-list when one is
// configured, and outside every confirmed reservation's [checkIn, checkOut)
// span. A single failing day short-circuits to false.
func (e *Engine) IsAvailable(listing *models.Listing, start, end time.Time, confirmed []models.Reservation) (bool, error) {
	free, _, err := e.scan(listing, start, end, confirmed, true)
	return free, err
}

// ConflictingDays returns every day in [start, end) that is not bookable.
func (e *Engine) ConflictingDays(listing *models.Listing, start, end time.Time, confirmed []models.Reservation) ([]string, error) {
	_, conflicts, err := e.scan(listing, start, end, confirmed, false)
	return conflicts, err
}

// HasPartialAvailability reports whether at least one day in [start, end)
// is bookable. Used by discovery listings, never for booking approval.
func (e *Engine) HasPartialAvailability(listing *models.Listing, start, end time.Time, confirmed []models.Reservation) (bool, error) {
	_, conflicts, err := e.scan(listing, start, end, confirmed, false)
	if err != nil {
		return false, err
	}
	total := int(normalize(end).Sub(normalize(start)).Hours() / 24)
	return len(conflicts) < total, nil
}

func (e *Engine) scan(listing *models.Listing, start, end time.Time, confirmed []models.Reservation, shortCircuit bool) (bool, []string, error) {
	start = normalize(start)
	end = normalize(end)
	if !end.After(start) {
		return false, nil, ErrInvalidDateRange
	}

	blocked := toSet(listing.BlockedDates)
	var allowed map[string]struct{}
	if len(listing.AllowedDates) > 0 {
		allowed = toSet(listing.AllowedDates)
	}

	var conflicts []string
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		day := d.Format(models.DateLayout)
		if !dayFree(day, d, blocked, allowed, confirmed) {
			if shortCircuit {
				return false, []string{day}, nil
			}
			conflicts = append(conflicts, day)
		}
	}
	return len(conflicts) == 0, conflicts, nil
}

func dayFree(day string, d time.Time, blocked, allowed map[string]struct{}, confirmed []models.Reservation) bool {
	// Block-list wins over everything, including the allow-list.
	if _, hit := blocked[day]; hit {
		return false
	}
	if allowed != nil {
		if _, ok := allowed[day]; !ok {
			return false
		}
	}
	for i := range confirmed {
		if withinStay(&confirmed[i], d) {
			return false
		}
	}
	return true
}

// withinStay reports whether day d falls inside the reservation's
// [checkIn, checkOut) span. Unparseable dates behave as no reservation;
// the boundary validates date shapes before they are stored.
func withinStay(r *models.Reservation, d time.Time) bool {
	in, err := time.Parse(models.DateLayout, r.CheckIn)
	if err != nil {
		return false
	}
	out, err := time.Parse(models.DateLayout, r.CheckOut)
	if err != nil {
		return false
	}
	return !d.Before(in) && d.Before(out)
}

func toSet(days []string) map[string]struct{} {
	set := make(map[string]struct{}, len(days))
	for _, day := range days {
		set[day] = struct{}{}
	}
	return set
}
