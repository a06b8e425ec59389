package handlers

import (
	"ev-route-planner/internal/domain"
	"ev-route-planner/internal/services"
	"sync"
	"time"
)

// Session is one trip request moving through place resolution. Callers
// must hold Lock while touching the resolution or the trip.
type Session struct {
	sync.Mutex

	ID             string
	Resolution     *services.PlaceResolution
	MaxDailyMeters float64
	BufferFraction float64
	// Set once the planner has run.
	Trip *domain.Trip

	expiresAt time.Time
}

// SessionStore keeps suspended resolutions between HTTP requests.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *SessionStore) Add(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.expiresAt = s.now().Add(s.ttl)
	s.sessions[sess.ID] = sess
}

// Get returns a live session and extends its lifetime.
func (s *SessionStore) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	now := s.now()
	if now.After(sess.expiresAt) {
		delete(s.sessions, id)
		return nil, false
	}
	sess.expiresAt = now.Add(s.ttl)
	return sess, true
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Sweep drops expired sessions and reports how many were removed.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for id, sess := range s.sessions {
		if now.After(sess.expiresAt) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}
