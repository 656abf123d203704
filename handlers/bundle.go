package handlers

// HandlerBundle aggregates the handlers registered by the route layer.
type HandlerBundle struct {
	Booking      *BookingHandler
	Ledger       *LedgerHandler
	Subscription *SubscriptionHandler
	Listing      *ListingHandler
}
