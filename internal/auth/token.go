package auth

import "sync"

// TokenStore holds the current bearer token. The empty string means no token.
//
// The mutex only keeps reads and writes memory safe. Concurrent callers that
// each find the store empty each fetch their own token; fetches are not
// coalesced.
type TokenStore struct {
	mutex sync.RWMutex
	token string
}

// NewTokenStore creates a new token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// Get returns the current token.
func (s *TokenStore) Get() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.token
}

// Set stores a new token.
func (s *TokenStore) Set(token string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.token = token
}

// Clear removes the stored token.
func (s *TokenStore) Clear() {
	s.Set("")
}

// CompareAndClear clears the store only when it still holds token.
func (s *TokenStore) CompareAndClear(token string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.token != token {
		return false
	}

	s.token = ""

	return true
}
