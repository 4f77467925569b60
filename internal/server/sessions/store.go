// Package sessions provides the server-side login session store. Sessions
// are kept in memory, keyed by an opaque token carried in a cookie, and
// expire after a fixed TTL. There is no background reaper: expired entries
// are dropped on access.
package sessions

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/savelyev/securesms/internal/server/mfa"
)

type entry struct {
	sess      *mfa.Session
	expiresAt time.Time
}

// Store maps session tokens to login sessions. The mutex only guards the
// map; serializing mutations of an individual session across concurrent
// requests remains the transport layer's responsibility.
type Store struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*entry

	// test seam
	now func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:      ttl,
		sessions: make(map[string]*entry),
		now:      time.Now,
	}
}

// Create allocates a fresh anonymous session and returns its opaque token.
func (s *Store) Create() (string, *mfa.Session) {
	token := uuid.NewString()
	sess := &mfa.Session{}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = &entry{sess: sess, expiresAt: s.now().Add(s.ttl)}

	return token, sess
}

// Get returns the session for token, or false if it is unknown or expired.
// Expired entries are removed on the spot.
func (s *Store) Get(token string) (*mfa.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[token]
	if !ok {
		return nil, false
	}
	if s.now().After(e.expiresAt) {
		delete(s.sessions, token)
		return nil, false
	}
	return e.sess, true
}

// Delete removes the session for token, if present.
func (s *Store) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// Len reports the number of stored sessions, including not-yet-collected
// expired ones.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
