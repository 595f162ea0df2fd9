package notification

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

// Session is one connected live client.
type Session interface {
	Send(payload []byte) error
	Close() error
}

// Registry is the set of connected live sessions, guarded by its own lock.
// Sessions register for future events only; past events are not replayed.
type Registry struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[uuid.UUID]Session)}
}

// Add registers a session and returns its handle for later removal.
func (r *Registry) Add(s Session) uuid.UUID {
	id := uuid.New()
	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()
	return id
}

// Remove unregisters and closes a session. Unknown ids are ignored.
func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		s.Close()
	}
}

// Broadcast forwards the payload to every session registered at the time of
// the call. The lock is released before any Send, so a stalled write cannot
// block Add, Remove or Len. A session that fails to receive is dropped;
// delivery to the remaining sessions continues.
func (r *Registry) Broadcast(payload []byte) {
	r.mu.Lock()
	snapshot := make(map[uuid.UUID]Session, len(r.sessions))
	for id, s := range r.sessions {
		snapshot[id] = s
	}
	r.mu.Unlock()

	for id, s := range snapshot {
		if err := s.Send(payload); err != nil {
			log.Printf("notification: dropping session %s: %v", id, err)
			r.Remove(id)
		}
	}
}

// Len reports the number of connected sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
