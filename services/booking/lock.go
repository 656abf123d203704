package booking

import "sync"

// listingLocks serializes the availability-check-plus-reserve critical
// section per listing. "Check then write" without this region is exactly
// the double-booking race; two concurrent requests for the same listing
// must observe each other's reservations.
type listingLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newListingLocks() *listingLocks {
	return &listingLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire returns the mutex for a listing, creating it on first use.
// Listing count is bounded by the catalogue, so entries are never evicted.
func (l *listingLocks) acquire(listingID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[listingID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[listingID] = m
	}
	return m
}
