package session

import (
	"sync"

	"github.com/google/uuid"
)

// Store maps session IDs to their state. Sessions live for the process
// lifetime; there is no persistence behind them.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*State
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*State)}
}

// Get returns an existing session.
func (st *Store) Get(id string) (*State, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

// GetOrCreate resolves a session, minting a fresh ID when none is supplied
// or the supplied one is unknown.
func (st *Store) GetOrCreate(id string) *State {
	st.mu.Lock()
	defer st.mu.Unlock()
	if id != "" {
		if s, ok := st.sessions[id]; ok {
			return s
		}
	}
	if id == "" {
		id = uuid.NewString()
	}
	s := NewState(id)
	st.sessions[id] = s
	return s
}

func (st *Store) Count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
