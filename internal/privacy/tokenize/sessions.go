package tokenize

import "sync"

// Sessions owns one Registry per session. Registries are created on first use
// and destroyed only by End; there is no idle eviction.
type Sessions struct {
	mu         sync.Mutex
	registries map[string]*Registry
	observer   func(active int)
}

// SessionsOption configures Sessions.
type SessionsOption func(*Sessions)

// WithActiveObserver is called with the active session count after every change.
func WithActiveObserver(fn func(active int)) SessionsOption {
	return func(s *Sessions) {
		s.observer = fn
	}
}

func NewSessions(opts ...SessionsOption) *Sessions {
	s := &Sessions{registries: make(map[string]*Registry)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ForSession returns the registry for sessionID, creating it if needed.
func (s *Sessions) ForSession(sessionID string) *Registry {
	s.mu.Lock()
	r, ok := s.registries[sessionID]
	if !ok {
		r = New()
		s.registries[sessionID] = r
	}
	active := len(s.registries)
	s.mu.Unlock()

	if !ok {
		s.notify(active)
	}
	return r
}

// End clears and forgets the registry of sessionID. It is idempotent and
// reports whether a registry existed.
func (s *Sessions) End(sessionID string) bool {
	s.mu.Lock()
	r, ok := s.registries[sessionID]
	delete(s.registries, sessionID)
	active := len(s.registries)
	s.mu.Unlock()

	if !ok {
		return false
	}
	r.Clear()
	s.notify(active)
	return true
}

// Active returns the number of live session registries.
func (s *Sessions) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.registries)
}

func (s *Sessions) notify(active int) {
	if s.observer != nil {
		s.observer(active)
	}
}
