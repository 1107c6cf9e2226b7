package server

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

const loginStateTTL = 15 * time.Minute

// loginStateStore tracks in-flight browser logins: the state parameter binds
// the callback to the initiating request, the nonce binds the resulting ID
// token to this flow. Entries are single use.
type loginStateStore struct {
	mu     sync.Mutex
	states map[string]loginState
	stopCh chan struct{}
}

type loginState struct {
	nonce   string
	expires time.Time
}

func newLoginStateStore() *loginStateStore {
	s := &loginStateStore{
		states: make(map[string]loginState),
		stopCh: make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// Begin creates a state/nonce pair for a new login flow.
func (s *loginStateStore) Begin() (state, nonce string) {
	state = generateRandomString(32)
	nonce = generateRandomString(32)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state] = loginState{nonce: nonce, expires: time.Now().Add(loginStateTTL)}
	return state, nonce
}

// Consume returns the nonce for a state and removes it. A state is only
// usable once and only before it expires.
func (s *loginStateStore) Consume(state string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.states[state]
	if !ok {
		return "", false
	}
	delete(s.states, state)
	if time.Now().After(entry.expires) {
		return "", false
	}
	return entry.nonce, true
}

func (s *loginStateStore) cleanupLoop() {
	ticker := time.NewTicker(loginStateTTL)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

func (s *loginStateStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for state, entry := range s.states {
		if now.After(entry.expires) {
			delete(s.states, state)
		}
	}
}

func (s *loginStateStore) Stop() {
	close(s.stopCh)
}

func generateRandomString(length int) string {
	b := make([]byte, length)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
