package shell

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/medvision/internal/domain/diagnosis"
)

type fakeNow struct{ t time.Time }

func (f *fakeNow) now() time.Time { return f.t }

func TestStoreExpiresIdleSessions(t *testing.T) {
	clock := &fakeNow{t: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
	s := newStore()
	s.now = clock.now

	s.update("old", func(sess *session) { sess.credential = "gsk_old" })
	clock.t = clock.t.Add(20 * time.Minute)
	s.update("fresh", func(sess *session) { sess.credential = "gsk_fresh" })
	clock.t = clock.t.Add(15 * time.Minute)

	assert.Equal(t, 1, s.expire(30*time.Minute))
	assert.Equal(t, 1, s.size())
	assert.Empty(t, s.view("old").credential)
	assert.Equal(t, diagnosis.Credential("gsk_fresh"), s.view("fresh").credential)
}

func TestStoreViewKeepsSessionAlive(t *testing.T) {
	clock := &fakeNow{t: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
	s := newStore()
	s.now = clock.now

	s.update("a", func(*session) {})
	clock.t = clock.t.Add(25 * time.Minute)
	s.view("a")
	clock.t = clock.t.Add(25 * time.Minute)

	assert.Zero(t, s.expire(30*time.Minute))
	assert.Equal(t, 1, s.size())
}

func TestStoreCapEvictsLeastRecent(t *testing.T) {
	clock := &fakeNow{t: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
	s := newStore()
	s.now = clock.now
	s.limit = 3

	for _, id := range []string{"a", "b", "c"} {
		s.update(id, func(*session) {})
		clock.t = clock.t.Add(time.Second)
	}
	s.view("a")
	s.update("d", func(*session) {})

	assert.Equal(t, 3, s.size())
	_, hasB := s.sessions["b"]
	assert.False(t, hasB)
	for _, id := range []string{"a", "c", "d"} {
		_, ok := s.sessions[id]
		assert.True(t, ok, id)
	}
}

func TestCookielessLoginsStayBounded(t *testing.T) {
	srv, err := New(&stubAnalyzer{}, Options{Models: models})
	require.NoError(t, err)
	h := srv.Routes()

	for i := 0; i < maxSessions+50; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(url.Values{"api_key": {"gsk"}}.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
	assert.Equal(t, maxSessions, srv.store.size())
}

func TestCleanupRunsUntilStopped(t *testing.T) {
	srv, err := New(&stubAnalyzer{}, Options{Models: models})
	require.NoError(t, err)
	srv.store.update("idle", func(*session) {})

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		srv.Cleanup(20*time.Millisecond, stop)
		close(done)
	}()

	assert.Eventually(t, func() bool { return srv.store.size() == 0 }, 2*time.Second, 10*time.Millisecond)
	close(stop)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup did not stop")
	}
}
