package handlers

import (
	"errors"
	"net/http"

	"tahanan/models"
	"tahanan/services/ledger"
	"tahanan/services/payment"
	"tahanan/services/refund"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LedgerHandler exposes deposits, refunds and wallet reads over HTTP.
type LedgerHandler struct {
	Ledger  ledger.Service
	Refunds refund.Processor
	Gateway payment.Gateway
	Logger  *zap.Logger
}

// NewLedgerHandler creates a LedgerHandler.
func NewLedgerHandler(ledgerSvc ledger.Service, refunds refund.Processor, gateway payment.Gateway, logger *zap.Logger) *LedgerHandler {
	return &LedgerHandler{Ledger: ledgerSvc, Refunds: refunds, Gateway: gateway, Logger: logger}
}

// Deposit handles POST /api/ledger/deposit. The client-asserted amount is
// used only as a cross-check; the recorded gross is what the processor
// confirmed for the external reference.
func (h *LedgerHandler) Deposit(c *gin.Context) {
	var input struct {
		UserID      string              `json:"user_id" binding:"required"`
		ExternalRef string              `json:"external_ref" binding:"required"`
		Amount      int64               `json:"amount"`
		Purpose     models.EntryPurpose `json:"purpose"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if input.Purpose == "" {
		input.Purpose = models.PurposeWalletTopup
	}

	gross, err := h.Gateway.ConfirmedAmount(c.Request.Context(), input.ExternalRef)
	if err != nil {
		respondError(c, err)
		return
	}
	if input.Amount != 0 && input.Amount != gross {
		h.Logger.Warn("client-asserted amount differs from processor",
			zap.String("externalRef", input.ExternalRef),
			zap.Int64("asserted", input.Amount),
			zap.Int64("confirmed", gross),
		)
	}

	entry, err := h.Ledger.RecordEntry(c.Request.Context(), ledger.RecordRequest{
		UserID:      input.UserID,
		Kind:        models.EntryDeposit,
		Purpose:     input.Purpose,
		Gross:       gross,
		ExternalRef: input.ExternalRef,
	})
	if errors.Is(err, ledger.ErrDuplicateExternalReference) {
		h.resumeDeposit(c, input.UserID, input.ExternalRef)
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.Ledger.Confirm(c.Request.Context(), entry.ID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"entry_id": entry.ID,
		"status":   models.EntryCompleted,
		"gross":    entry.Gross,
		"net":      entry.Net,
	})
}

// resumeDeposit completes a deposit retry. The external reference already
// has an entry: a crash after RecordEntry leaves it pending, so confirm it
// now; a settled one is simply reported back, making processor retries
// idempotent.
func (h *LedgerHandler) resumeDeposit(c *gin.Context, userID, externalRef string) {
	existing, err := h.Ledger.GetByExternalRef(c.Request.Context(), userID, externalRef)
	if err != nil {
		respondError(c, err)
		return
	}

	switch existing.Status {
	case models.EntryPending:
		if err := h.Ledger.Confirm(c.Request.Context(), existing.ID); err != nil {
			respondError(c, err)
			return
		}
		existing.Status = models.EntryCompleted
	case models.EntryCompleted, models.EntryRefunded:
	default:
		// A failed entry cannot be revived under the same reference.
		respondError(c, ledger.ErrDuplicateExternalReference)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entry_id": existing.ID,
		"status":   existing.Status,
		"gross":    existing.Gross,
		"net":      existing.Net,
	})
}

// Refund handles POST /api/ledger/refund.
func (h *LedgerHandler) Refund(c *gin.Context) {
	var input struct {
		EntryID string `json:"entry_id" binding:"required"`
		Amount  int64  `json:"amount"`
		Reason  string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	entry, err := h.Refunds.Refund(c.Request.Context(), input.EntryID, input.Amount, input.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"refund_entry_id": entry.ID, "amount": entry.Net})
}

// Wallet handles GET /api/wallet/:userID.
func (h *LedgerHandler) Wallet(c *gin.Context) {
	balance, err := h.Ledger.BalanceOf(c.Request.Context(), c.Param("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

// WalletHistory handles GET /api/wallet/:userID/entries.
func (h *LedgerHandler) WalletHistory(c *gin.Context) {
	entries, err := h.Ledger.EntriesOf(c.Request.Context(), c.Param("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// RebuildWallet handles POST /api/wallet/:userID/rebuild, the documented
// cache recovery procedure.
func (h *LedgerHandler) RebuildWallet(c *gin.Context) {
	balance, err := h.Ledger.RebuildBalance(c.Request.Context(), c.Param("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}
