package collab

import "sync"

// LockTable records which user currently holds edit rights for each picture.
// At most one holder exists per picture at any instant; TryAcquire is the
// linearization point for that invariant.
type LockTable struct {
	mu      sync.Mutex
	holders map[int64]int64
}

// NewLockTable creates an empty lock table
func NewLockTable() *LockTable {
	return &LockTable{
		holders: make(map[int64]int64),
	}
}

// TryAcquire records userID as the holder for the picture iff no holder
// exists. Returns true when the caller won the lock.
func (t *LockTable) TryAcquire(pictureID, userID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, held := t.holders[pictureID]; held {
		return false
	}
	t.holders[pictureID] = userID
	return true
}

// Release clears the holder iff userID currently holds the lock. A stale or
// non-holder caller must not clobber a legitimate new holder. Returns true
// when the lock was released.
func (t *LockTable) Release(pictureID, userID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	holder, held := t.holders[pictureID]
	if !held || holder != userID {
		return false
	}
	delete(t.holders, pictureID)
	return true
}

// Holder returns the current holder for the picture, if any
func (t *LockTable) Holder(pictureID int64) (int64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	holder, held := t.holders[pictureID]
	return holder, held
}
