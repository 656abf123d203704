package payment

import (
	"context"
	"errors"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"go.uber.org/zap"
)

// ErrNotConfirmed means the processor has not (yet) confirmed the payment.
// The boundary retries; the core never records an unconfirmed amount.
var ErrNotConfirmed = errors.New("payment not confirmed by processor")

// Gateway is the boundary to the external payment processor. The core
// trusts only the processor-confirmed amount, never a client-asserted one.
type Gateway interface {
	// ConfirmedAmount returns the confirmed amount in minor units for the
	// given external reference.
	ConfirmedAmount(ctx context.Context, externalRef string) (int64, error)
}

// StripeGateway implements Gateway against the Stripe API. Retry with
// backoff lives here, outside the ledger core.
type StripeGateway struct {
	Logger   *zap.Logger
	Attempts int
}

// NewStripeGateway creates a gateway with sane retry defaults.
func NewStripeGateway(logger *zap.Logger) *StripeGateway {
	return &StripeGateway{Logger: logger, Attempts: 3}
}

func (g *StripeGateway) ConfirmedAmount(ctx context.Context, externalRef string) (int64, error) {
	var lastErr error
	for attempt := 1; attempt <= g.Attempts; attempt++ {
		pi, err := paymentintent.Get(externalRef, nil)
		if err != nil {
			lastErr = err
			g.Logger.Warn("processor lookup failed",
				zap.String("externalRef", externalRef),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
			continue
		}
		if pi.Status != stripe.PaymentIntentStatusSucceeded {
			g.Logger.Info("payment not yet confirmed",
				zap.String("externalRef", externalRef),
				zap.String("status", string(pi.Status)),
			)
			return 0, ErrNotConfirmed
		}
		return pi.Amount, nil
	}
	g.Logger.Error("processor unreachable", zap.String("externalRef", externalRef), zap.Error(lastErr))
	return 0, ErrNotConfirmed
}
