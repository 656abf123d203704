package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"tahanan/models"
	"tahanan/services/ledger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// depositLedger implements just enough of ledger.Service to drive the
// deposit flow: one entry per external reference, explicit confirm, and a
// switch to make Confirm fail once the way a crash mid-deposit would.
type depositLedger struct {
	entries         map[string]*models.LedgerEntry // keyed by external ref
	seq             int
	failNextConfirm bool
}

func newDepositLedger() *depositLedger {
	return &depositLedger{entries: map[string]*models.LedgerEntry{}}
}

func (l *depositLedger) RecordEntry(ctx context.Context, req ledger.RecordRequest) (*models.LedgerEntry, error) {
	if _, ok := l.entries[req.ExternalRef]; ok {
		return nil, ledger.ErrDuplicateExternalReference
	}
	l.seq++
	entry := &models.LedgerEntry{
		ID:          fmt.Sprintf("entry-%d", l.seq),
		UserID:      req.UserID,
		Kind:        req.Kind,
		Purpose:     req.Purpose,
		Gross:       req.Gross,
		Net:         req.Gross - req.Fee,
		Status:      models.EntryPending,
		ExternalRef: req.ExternalRef,
	}
	l.entries[req.ExternalRef] = entry
	return entry, nil
}

func (l *depositLedger) Confirm(ctx context.Context, entryID string) error {
	if l.failNextConfirm {
		l.failNextConfirm = false
		return fmt.Errorf("store unavailable")
	}
	for _, e := range l.entries {
		if e.ID == entryID {
			e.Status = models.EntryCompleted
			return nil
		}
	}
	return ledger.ErrEntryNotFound
}

func (l *depositLedger) GetByExternalRef(ctx context.Context, userID, externalRef string) (*models.LedgerEntry, error) {
	e, ok := l.entries[externalRef]
	if !ok || e.UserID != userID {
		return nil, ledger.ErrEntryNotFound
	}
	return e, nil
}

func (l *depositLedger) Fail(ctx context.Context, entryID, reason string) error { panic("not used") }
func (l *depositLedger) BalanceOf(ctx context.Context, userID string) (int64, error) {
	panic("not used")
}
func (l *depositLedger) RebuildBalance(ctx context.Context, userID string) (int64, error) {
	panic("not used")
}
func (l *depositLedger) EntriesOf(ctx context.Context, userID string) ([]models.LedgerEntry, error) {
	panic("not used")
}
func (l *depositLedger) GetEntry(ctx context.Context, entryID string) (*models.LedgerEntry, error) {
	panic("not used")
}

// fixedGateway confirms every reference at one amount.
type fixedGateway struct {
	amount int64
}

func (g fixedGateway) ConfirmedAmount(ctx context.Context, externalRef string) (int64, error) {
	return g.amount, nil
}

func depositRouter(l *depositLedger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewLedgerHandler(l, nil, fixedGateway{amount: 10000}, zap.NewNop())
	r := gin.New()
	r.POST("/api/ledger/deposit", h.Deposit)
	return r
}

func postDeposit(t *testing.T, r *gin.Engine, userID, externalRef string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(gin.H{"user_id": userID, "external_ref": externalRef})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/ledger/deposit", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestDepositRetryReturnsSettledEntry(t *testing.T) {
	l := newDepositLedger()
	r := depositRouter(l)

	first := postDeposit(t, r, "guest-1", "pi_abc")
	require.Equal(t, http.StatusCreated, first.Code)

	retry := postDeposit(t, r, "guest-1", "pi_abc")
	assert.Equal(t, http.StatusOK, retry.Code)

	var firstBody, retryBody map[string]any
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &firstBody))
	require.NoError(t, json.Unmarshal(retry.Body.Bytes(), &retryBody))
	assert.Equal(t, firstBody["entry_id"], retryBody["entry_id"])
	assert.Equal(t, string(models.EntryCompleted), retryBody["status"])

	// Exactly one entry exists for the reference.
	assert.Len(t, l.entries, 1)
}

func TestDepositRetryConfirmsStrandedEntry(t *testing.T) {
	l := newDepositLedger()
	r := depositRouter(l)

	// First attempt records the entry but dies before confirming it.
	l.failNextConfirm = true
	first := postDeposit(t, r, "guest-1", "pi_abc")
	require.Equal(t, http.StatusInternalServerError, first.Code)
	require.Equal(t, models.EntryPending, l.entries["pi_abc"].Status)

	// The processor retry settles the stranded entry instead of erroring.
	retry := postDeposit(t, r, "guest-1", "pi_abc")
	assert.Equal(t, http.StatusOK, retry.Code)
	assert.Equal(t, models.EntryCompleted, l.entries["pi_abc"].Status)
	assert.Len(t, l.entries, 1)
}

func TestDepositRetryRejectsFailedEntry(t *testing.T) {
	l := newDepositLedger()
	r := depositRouter(l)

	first := postDeposit(t, r, "guest-1", "pi_abc")
	require.Equal(t, http.StatusCreated, first.Code)
	l.entries["pi_abc"].Status = models.EntryFailed

	retry := postDeposit(t, r, "guest-1", "pi_abc")
	assert.Equal(t, http.StatusConflict, retry.Code)
}
