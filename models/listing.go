package models

import "time"

// DateLayout is the calendar-day format used everywhere availability is
// concerned. No time-of-day semantics.
const DateLayout = "2006-01-02"

// Listing represents a bookable property.
type Listing struct {
	ID          string `bson:"id" json:"id"`
	HostID      string `bson:"host_id" json:"host_id"`
	Title       string `bson:"title" json:"title"`
	NightlyRate int64  `bson:"nightly_rate" json:"nightly_rate"` // minor units per night
	MaxGuests   int    `bson:"max_guests" json:"max_guests"`

	// AllowedDates, when non-empty, is an allow-list: only listed days are
	// bookable. BlockedDates always wins over AllowedDates.
	AllowedDates []string `bson:"allowed_dates,omitempty" json:"allowed_dates,omitempty"`
	BlockedDates []string `bson:"blocked_dates,omitempty" json:"blocked_dates,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
