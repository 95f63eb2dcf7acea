package shell

import (
	"log"
	"sync"
	"time"

	"github.com/bryanwahyu/medvision/internal/domain/diagnosis"
)

// maxSessions caps the store; the least recently seen session goes first.
const maxSessions = 256

// session is the per-browser state. It lives in memory only and is lost
// on restart.
type session struct {
	credential diagnosis.Credential
	modelID    string
	depth      string
	focus      diagnosis.Focus
	preview    string
	result     *diagnosis.Result
	failure    string
	lastSeen   time.Time
}

type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
	limit    int
	now      func() time.Time
}

func newStore() *sessionStore {
	return &sessionStore{
		sessions: make(map[string]*session),
		limit:    maxSessions,
		now:      time.Now,
	}
}

// view returns a copy so handlers never hold the lock while rendering or
// calling the model.
func (s *sessionStore) view(id string) session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		sess.lastSeen = s.now()
		return *sess
	}
	return session{}
}

func (s *sessionStore) update(id string, fn func(*session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		if len(s.sessions) >= s.limit {
			s.evictOldest()
		}
		sess = &session{}
		s.sessions[id] = sess
	}
	sess.lastSeen = s.now()
	fn(sess)
}

func (s *sessionStore) delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// evictOldest expects s.mu held.
func (s *sessionStore) evictOldest() {
	var oldest string
	var at time.Time
	for id, sess := range s.sessions {
		if oldest == "" || sess.lastSeen.Before(at) {
			oldest, at = id, sess.lastSeen
		}
	}
	delete(s.sessions, oldest)
}

// expire drops sessions not seen within idle and reports how many went.
func (s *sessionStore) expire(idle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > idle {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

func (s *sessionStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Cleanup expires idle sessions until stop is closed.
func (s *Server) Cleanup(idle time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(idle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if n := s.store.expire(idle); n > 0 {
				log.Printf("shell sessions expired count=%d", n)
			}
		}
	}
}
