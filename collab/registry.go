package collab

import "sync"

// Registry tracks the live sessions editing each picture. It is safe for
// concurrent use; callers never lock around it.
type Registry struct {
	mu       sync.RWMutex
	sessions map[int64]map[*Session]struct{}
}

// NewRegistry creates an empty session registry
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[int64]map[*Session]struct{}),
	}
}

// Add inserts the session into the picture's session set, creating the set if
// absent. Idempotent.
func (r *Registry) Add(pictureID int64, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.sessions[pictureID]
	if !ok {
		set = make(map[*Session]struct{})
		r.sessions[pictureID] = set
	}
	set[s] = struct{}{}
}

// Remove deletes the session from the picture's session set and reports
// whether it was present. Empty sets are pruned so idle pictures leave no
// entry behind.
func (r *Registry) Remove(pictureID int64, s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.sessions[pictureID]
	if !ok {
		return false
	}
	if _, present := set[s]; !present {
		return false
	}
	delete(set, s)
	if len(set) == 0 {
		delete(r.sessions, pictureID)
	}
	return true
}

// Snapshot returns a point-in-time copy of the picture's session set for
// fan-out. The returned slice is owned by the caller.
func (r *Registry) Snapshot(pictureID int64) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.sessions[pictureID]
	if !ok {
		return nil
	}
	out := make([]*Session, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	return out
}

// Count returns the number of sessions editing the picture
func (r *Registry) Count(pictureID int64) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions[pictureID])
}

// Pictures returns the ids of all pictures with at least one session
func (r *Registry) Pictures() []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]int64, 0, len(r.sessions))
	for id := range r.sessions {
		out = append(out, id)
	}
	return out
}
