package handlers

import (
	"net/http"
	"time"

	"tahanan/models"
	"tahanan/services/booking"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler exposes the reservation lifecycle over HTTP.
type BookingHandler struct {
	Service booking.Service
	Logger  *zap.Logger
}

// NewBookingHandler creates a BookingHandler.
func NewBookingHandler(service booking.Service, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Service: service, Logger: logger}
}

// CheckAvailability handles GET /api/availability/:listingID?start=&end=.
func (h *BookingHandler) CheckAvailability(c *gin.Context) {
	listingID := c.Param("listingID")
	start, err := time.Parse(models.DateLayout, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must be YYYY-MM-DD"})
		return
	}
	end, err := time.Parse(models.DateLayout, c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must be YYYY-MM-DD"})
		return
	}

	available, err := h.Service.CheckAvailability(c.Request.Context(), listingID, start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": available})
}

// RequestBooking handles POST /api/bookings.
func (h *BookingHandler) RequestBooking(c *gin.Context) {
	var input struct {
		ListingID string `json:"listing_id" binding:"required"`
		CheckIn   string `json:"check_in" binding:"required"`
		CheckOut  string `json:"check_out" binding:"required"`
		Guests    int    `json:"guests" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	guestID := c.GetString("userID")

	reservation, err := h.Service.RequestBooking(c.Request.Context(), booking.BookingRequest{
		ListingID: input.ListingID,
		GuestID:   guestID,
		CheckIn:   input.CheckIn,
		CheckOut:  input.CheckOut,
		Guests:    input.Guests,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"reservation_id": reservation.ID,
		"status":         reservation.Status,
		"total_price":    reservation.TotalPrice,
	})
}

// HostRespond handles POST /api/bookings/:id/respond.
func (h *BookingHandler) HostRespond(c *gin.Context) {
	var input struct {
		Approve *bool `json:"approve" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	reservation, err := h.Service.HostRespond(c.Request.Context(), c.Param("id"), c.GetString("userID"), *input.Approve)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": reservation.Status})
}

// Cancel handles POST /api/bookings/:id/cancel. The cancelling party comes
// from the authenticated identity, never from the request body: who
// cancelled decides the refund percentage.
func (h *BookingHandler) Cancel(c *gin.Context) {
	reservation, err := h.Service.CancelConfirmed(c.Request.Context(), c.Param("id"), c.GetString("userID"), c.GetString("role"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": reservation.Status, "cancelled_by": reservation.CancelledBy})
}

// ListMine handles GET /api/bookings for the authenticated guest.
func (h *BookingHandler) ListMine(c *gin.Context) {
	reservations, err := h.Service.ListByGuest(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservations": reservations})
}
