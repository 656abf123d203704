package listingRepo

import (
	"errors"

	"tahanan/models"
)

// ErrNotFound indicates the requested listing does not exist.
var ErrNotFound = errors.New("listing not found")

// ListingRepository defines methods for listing data access.
type ListingRepository interface {
	// GetByID retrieves a listing by its unique ID.
	GetByID(id string) (*models.Listing, error)
	// Create inserts a new listing record.
	Create(listing *models.Listing) error
	// SetBlockedDates replaces the listing's block-list.
	SetBlockedDates(id string, dates []string) error
	// SetAllowedDates replaces the listing's allow-list. An empty list
	// removes the allow-list entirely (all days bookable).
	SetAllowedDates(id string, dates []string) error
}
