package consolidator

import (
	"sync"

	"github.com/google/uuid"
)

// OwnerLocks hands out one mutex per owner. Entries are reference counted
// and dropped once no goroutine holds or waits on them.
type OwnerLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*ownerLock
}

type ownerLock struct {
	mu   sync.Mutex
	refs int
}

// NewOwnerLocks creates an empty lock table.
func NewOwnerLocks() *OwnerLocks {
	return &OwnerLocks{locks: make(map[uuid.UUID]*ownerLock)}
}

// Lock blocks until the owner's lock is held and returns its release func.
func (l *OwnerLocks) Lock(ownerID uuid.UUID) (unlock func()) {
	l.mu.Lock()
	ol, ok := l.locks[ownerID]
	if !ok {
		ol = &ownerLock{}
		l.locks[ownerID] = ol
	}
	ol.refs++
	l.mu.Unlock()

	ol.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			ol.mu.Unlock()
			l.mu.Lock()
			ol.refs--
			if ol.refs == 0 {
				delete(l.locks, ownerID)
			}
			l.mu.Unlock()
		})
	}
}

// Len returns the number of owners currently holding or awaiting a lock.
func (l *OwnerLocks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
