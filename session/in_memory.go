package session

import (
	"context"
	"sync"

	"github.com/fablecraft/storyagent/core"
)

// InMemoryStore is a volatile SessionStore keeping checkpoints in a process
// local map. It is safe for concurrent access across distinct keys. Every state
// crossing the boundary is cloned so callers can never mutate stored
// checkpoints in place.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*core.SessionState
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*core.SessionState)}
}

// Load returns a clone of the checkpoint for the key, or (nil, nil) when none
// exists.
func (s *InMemoryStore) Load(_ context.Context, sessionKey string) (*core.SessionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.sessions[sessionKey]
	if !ok {
		return nil, nil
	}
	return state.Clone(), nil
}

// Save stores a clone of the provided state snapshot under the key.
func (s *InMemoryStore) Save(_ context.Context, sessionKey string, state *core.SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionKey] = state.Clone()
	return nil
}
