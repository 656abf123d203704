package events

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Kind enumerates state-transition events emitted by the ledger and the
// booking lifecycle. Subscribers (notification delivery, reporting) consume
// these instead of watching documents.
type Kind string

const (
	EntryRecorded        Kind = "entry.recorded"
	EntryConfirmed       Kind = "entry.confirmed"
	EntryFailed          Kind = "entry.failed"
	EntryRefunded        Kind = "entry.refunded"
	ReservationCreated   Kind = "reservation.created"
	ReservationConfirmed Kind = "reservation.confirmed"
	ReservationCancelled Kind = "reservation.cancelled"
	ReservationCompleted Kind = "reservation.completed"
	SubscriptionActive   Kind = "subscription.active"
	SubscriptionExpired  Kind = "subscription.expired"
)

// Event is one state transition.
type Event struct {
	Kind          Kind      `json:"kind"`
	At            time.Time `json:"at"`
	UserID        string    `json:"user_id,omitempty"`
	EntryID       string    `json:"entry_id,omitempty"`
	ReservationID string    `json:"reservation_id,omitempty"`
	ListingID     string    `json:"listing_id,omitempty"`
	Amount        int64     `json:"amount,omitempty"`
}

// Bus is an in-process fan-out channel. Publish never blocks the core: a
// subscriber that cannot keep up drops events, which is acceptable for
// notification-grade delivery (the ledger itself is the record).
type Bus struct {
	mu     sync.RWMutex
	subs   []chan Event
	buffer int
	logger *zap.Logger
}

// NewBus creates a bus whose subscriber channels hold up to buffer events.
func NewBus(buffer int, logger *zap.Logger) *Bus {
	if buffer <= 0 {
		buffer = 64
	}
	return &Bus{buffer: buffer, logger: logger}
}

// Subscribe registers a new subscriber channel.
func (b *Bus) Subscribe() <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, b.buffer)
	b.subs = append(b.subs, ch)
	return ch
}

// Publish delivers the event to every subscriber without blocking.
func (b *Bus) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			if b.logger != nil {
				b.logger.Warn("event subscriber full, dropping event", zap.String("kind", string(e.Kind)))
			}
		}
	}
}

// LogEvents runs a subscriber that logs every transition. Wired in main so
// the core stays free of delivery concerns.
func LogEvents(bus *Bus, logger *zap.Logger) {
	ch := bus.Subscribe()
	go func() {
		for e := range ch {
			logger.Info("state transition",
				zap.String("kind", string(e.Kind)),
				zap.String("userID", e.UserID),
				zap.String("entryID", e.EntryID),
				zap.String("reservationID", e.ReservationID),
				zap.Int64("amount", e.Amount),
			)
		}
	}()
}
