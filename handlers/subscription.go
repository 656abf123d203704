package handlers

import (
	"errors"
	"net/http"

	subscriptionRepo "tahanan/database/repository/subscription"
	"tahanan/services/subscription"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SubscriptionHandler exposes host paid-access over HTTP.
type SubscriptionHandler struct {
	Service subscription.Service
	Logger  *zap.Logger
}

// NewSubscriptionHandler creates a SubscriptionHandler.
func NewSubscriptionHandler(service subscription.Service, logger *zap.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{Service: service, Logger: logger}
}

// Activate handles POST /api/subscriptions/activate.
func (h *SubscriptionHandler) Activate(c *gin.Context) {
	var input struct {
		HostID  string `json:"host_id" binding:"required"`
		EntryID string `json:"entry_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	sub, err := h.Service.ActivateOnPayment(c.Request.Context(), input.HostID, input.EntryID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"subscription_id": sub.ID,
		"status":          sub.Status,
		"period_end":      sub.PeriodEnd,
	})
}

// Get handles GET /api/subscriptions/:hostID, the access-control gate read.
func (h *SubscriptionHandler) Get(c *gin.Context) {
	hostID := c.Param("hostID")
	active, err := h.Service.IsActive(c.Request.Context(), hostID)
	if err != nil {
		respondError(c, err)
		return
	}
	sub, err := h.Service.GetByHost(c.Request.Context(), hostID)
	if err != nil {
		if errors.Is(err, subscriptionRepo.ErrNotFound) {
			c.JSON(http.StatusOK, gin.H{"active": false})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"active":     active,
		"status":     sub.Status,
		"period_end": sub.PeriodEnd,
	})
}
