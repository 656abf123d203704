package models

import "time"

// ReservationStatus enumerates reservation lifecycle states.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationCompleted ReservationStatus = "completed"
)

// Reservation is a guest's claim on a listing's date range.
// CheckOut is exclusive: the stay covers [CheckIn, CheckOut).
type Reservation struct {
	ID          string            `bson:"id" json:"id"`
	ListingID   string            `bson:"listing_id" json:"listing_id"`
	GuestID     string            `bson:"guest_id" json:"guest_id"`
	HostID      string            `bson:"host_id" json:"host_id"`
	CheckIn     string            `bson:"check_in" json:"check_in"`   // YYYY-MM-DD
	CheckOut    string            `bson:"check_out" json:"check_out"` // YYYY-MM-DD, exclusive
	Guests      int               `bson:"guests" json:"guests"`
	TotalPrice  int64             `bson:"total_price" json:"total_price"` // minor units
	Status      ReservationStatus `bson:"status" json:"status"`
	EntryID     string            `bson:"entry_id,omitempty" json:"entry_id,omitempty"`         // linked payment ledger entry
	CancelledBy string            `bson:"cancelled_by,omitempty" json:"cancelled_by,omitempty"` // guest, host or admin
	CreatedAt   time.Time         `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time         `bson:"updated_at" json:"updated_at"`
}

// Nights returns the number of nights covered by the stay, assuming the
// dates have already been validated.
func (r *Reservation) Nights() int {
	in, err := time.Parse(DateLayout, r.CheckIn)
	if err != nil {
		return 0
	}
	out, err := time.Parse(DateLayout, r.CheckOut)
	if err != nil {
		return 0
	}
	return int(out.Sub(in).Hours() / 24)
}
