package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/miskar/quizdeck/internal/quiz"
)

// Quiz sessions are in-memory only: an abandoned one is discarded, never
// persisted, so the registry just forgets entries that go quiet.
const sessionIdleTimeout = 30 * time.Minute

type entry struct {
	engine     *quiz.Engine
	userID     int
	lastActive time.Time
}

// Registry holds the live quiz sessions keyed by id.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*entry
}

// NewRegistry creates a new session registry
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*entry)}
}

// Put registers an engine and returns its session id.
func (r *Registry) Put(userID int, engine *quiz.Engine) string {
	id := uuid.New().String()
	r.mu.Lock()
	r.sessions[id] = &entry{engine: engine, userID: userID, lastActive: time.Now()}
	r.mu.Unlock()
	return id
}

// Get returns the engine for a session id, if the session belongs to the
// given user and is still live.
func (r *Registry) Get(id string, userID int) (*quiz.Engine, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok || e.userID != userID {
		return nil, false
	}
	e.lastActive = time.Now()
	return e.engine, true
}

// Delete discards a session.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// StartCleanupJob starts a background job that drops idle sessions.
func (r *Registry) StartCleanupJob(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	go func() {
		for {
			select {
			case <-ticker.C:
				r.dropIdle()
			case <-ctx.Done():
				ticker.Stop()
				return
			}
		}
	}()
}

func (r *Registry) dropIdle() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.sessions {
		if time.Since(e.lastActive) > sessionIdleTimeout {
			delete(r.sessions, id)
		}
	}
}
