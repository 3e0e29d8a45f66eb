package stream

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aiist007/JSpeak/internal/observability"
)

// Registry tracks the live dictation sessions by id. With a positive idle
// TTL it also sweeps sessions that stopped pushing audio without a
// stream_finalize, so abandoned clients do not pin buffers forever.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	idleTTL time.Duration
	stopCh  chan struct{}
	stopped sync.Once
	logger  zerolog.Logger
}

// NewRegistry creates a session registry. idleTTL <= 0 disables sweeping;
// sessions then live until finalized.
func NewRegistry(idleTTL time.Duration) *Registry {
	r := &Registry{
		sessions: make(map[string]*Session),
		idleTTL:  idleTTL,
		stopCh:   make(chan struct{}),
		logger:   observability.GetLogger().With().Str("component", "registry").Logger(),
	}
	if idleTTL > 0 {
		go r.sweepLoop()
	}
	return r
}

// Put registers a session under its id, replacing any previous one
func (r *Registry) Put(sess *Session) {
	r.mu.Lock()
	_, replaced := r.sessions[sess.ID]
	r.sessions[sess.ID] = sess
	r.mu.Unlock()

	if !replaced {
		observability.RecordSessionStart()
	}
	r.logger.Debug().Str("session_id", sess.ID).Msg("Session registered")
}

// Get returns the session for id, if any
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[id]
	return sess, ok
}

// Remove unregisters and returns the session for id, if any
func (r *Registry) Remove(id string) (*Session, bool) {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if ok {
		observability.RecordSessionEnd()
		r.logger.Debug().Str("session_id", id).Msg("Session removed")
	}
	return sess, ok
}

// IDs returns the ids of all live sessions
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of live sessions
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close stops the sweep loop. Live sessions are left registered.
func (r *Registry) Close() {
	r.stopped.Do(func() {
		close(r.stopCh)
	})
}

func (r *Registry) sweepLoop() {
	interval := r.idleTTL / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

func (r *Registry) sweep() {
	cutoff := time.Now().Add(-r.idleTTL)

	r.mu.RLock()
	var stale []string
	for id, sess := range r.sessions {
		if sess.LastActivity().Before(cutoff) {
			stale = append(stale, id)
		}
	}
	r.mu.RUnlock()

	for _, id := range stale {
		if _, ok := r.Remove(id); ok {
			r.logger.Warn().Str("session_id", id).Msg("Removed idle session")
		}
	}
}
