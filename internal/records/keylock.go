package records

import (
	"sync"

	"github.com/google/uuid"
)

// keyLock serializes writers per (company, domain). Reads never take it;
// cross-process writers are additionally guarded by the repository's
// revision check.
type keyLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyLock() *keyLock {
	return &keyLock{locks: make(map[string]*sync.Mutex)}
}

// Acquire locks the (company, domain) key and returns the unlock func.
func (k *keyLock) Acquire(companyID uuid.UUID, domain Domain) func() {
	key := companyID.String() + "/" + string(domain)

	k.mu.Lock()
	lock, ok := k.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		k.locks[key] = lock
	}
	k.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
