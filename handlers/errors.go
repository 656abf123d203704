package handlers

import (
	"errors"
	"net/http"

	"tahanan/services/availability"
	"tahanan/services/booking"
	"tahanan/services/ledger"
	"tahanan/services/payment"
	"tahanan/services/refund"
	"tahanan/services/subscription"
	"tahanan/utils"

	"github.com/gin-gonic/gin"
)

// respondError maps core errors onto HTTP responses. Validation failures
// carry enough detail for user-facing messaging; consistency violations are
// rejected as conflicts, already logged loudly by the services.
func respondError(c *gin.Context, err error) {
	var conflict *booking.AvailabilityConflictError
	if errors.As(err, &conflict) {
		c.JSON(http.StatusConflict, gin.H{
			"message":          "requested dates are not available",
			"conflicting_days": conflict.Days,
		})
		return
	}
	var notRefundable *refund.NotRefundableError
	if errors.As(err, &notRefundable) {
		c.JSON(http.StatusConflict, gin.H{
			"message":      "entry is not refundable",
			"entry_status": notRefundable.Status,
			"details":      notRefundable.Reason,
		})
		return
	}

	switch {
	case errors.Is(err, availability.ErrInvalidDateRange),
		errors.Is(err, booking.ErrTooManyGuests),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, refund.ErrAmountExceedsOriginal),
		errors.Is(err, subscription.ErrEntryNotEligible):
		utils.JSONError(c, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, booking.ErrNotAllowed):
		utils.JSONError(c, http.StatusForbidden, err.Error(), "")
	case errors.Is(err, booking.ErrListingNotFound),
		errors.Is(err, booking.ErrReservationNotFound),
		errors.Is(err, ledger.ErrEntryNotFound):
		utils.JSONError(c, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, ledger.ErrDuplicateExternalReference),
		errors.Is(err, ledger.ErrInvalidTransition),
		errors.Is(err, booking.ErrInvalidTransition),
		errors.Is(err, subscription.ErrEntryAlreadyUsed):
		utils.JSONError(c, http.StatusConflict, err.Error(), "")
	case errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, subscription.ErrPaymentNotConfirmed),
		errors.Is(err, payment.ErrNotConfirmed):
		utils.JSONError(c, http.StatusPaymentRequired, err.Error(), "")
	default:
		utils.JSONError(c, http.StatusInternalServerError, "internal error", err.Error())
	}
}
