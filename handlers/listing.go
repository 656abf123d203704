package handlers

import (
	"errors"
	"net/http"
	"time"

	listingRepo "tahanan/database/repository/listing"
	"tahanan/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ListingHandler exposes listing calendar management for hosts.
type ListingHandler struct {
	Repo   listingRepo.ListingRepository
	Logger *zap.Logger
}

// NewListingHandler creates a ListingHandler.
func NewListingHandler(repo listingRepo.ListingRepository, logger *zap.Logger) *ListingHandler {
	return &ListingHandler{Repo: repo, Logger: logger}
}

// Create handles POST /api/listings.
func (h *ListingHandler) Create(c *gin.Context) {
	var input struct {
		Title       string `json:"title" binding:"required"`
		NightlyRate int64  `json:"nightly_rate" binding:"required"`
		MaxGuests   int    `json:"max_guests" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if input.NightlyRate <= 0 || input.MaxGuests <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nightly_rate and max_guests must be positive"})
		return
	}

	listing := &models.Listing{
		ID:          uuid.New().String(),
		HostID:      c.GetString("userID"),
		Title:       input.Title,
		NightlyRate: input.NightlyRate,
		MaxGuests:   input.MaxGuests,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := h.Repo.Create(listing); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"listing_id": listing.ID})
}

// UpdateCalendar handles PUT /api/listings/:id/calendar. The host manages
// both the block-list and the optional allow-list here.
func (h *ListingHandler) UpdateCalendar(c *gin.Context) {
	var input struct {
		BlockedDates *[]string `json:"blocked_dates"`
		AllowedDates *[]string `json:"allowed_dates"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if input.BlockedDates == nil && input.AllowedDates == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	id := c.Param("id")
	listing, err := h.Repo.GetByID(id)
	if err != nil {
		if errors.Is(err, listingRepo.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "listing not found"})
			return
		}
		respondError(c, err)
		return
	}
	if listing.HostID != c.GetString("userID") {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the host can manage the calendar"})
		return
	}

	if input.BlockedDates != nil {
		if bad := invalidDays(*input.BlockedDates); bad != "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date: " + bad})
			return
		}
		if err := h.Repo.SetBlockedDates(id, *input.BlockedDates); err != nil {
			respondError(c, err)
			return
		}
	}
	if input.AllowedDates != nil {
		if bad := invalidDays(*input.AllowedDates); bad != "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date: " + bad})
			return
		}
		if err := h.Repo.SetAllowedDates(id, *input.AllowedDates); err != nil {
			respondError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// invalidDays returns the first day that is not a valid YYYY-MM-DD, or "".
func invalidDays(days []string) string {
	for _, day := range days {
		if _, err := time.Parse(models.DateLayout, day); err != nil {
			return day
		}
	}
	return ""
}
