// Package tokenstore tracks revoked JWT ids so a logout invalidates the
// token before its natural expiry. In-memory only; a multi-instance
// deployment would back this with Redis or the DB.
package tokenstore

import "sync"

type Store struct {
	mu      sync.RWMutex
	revoked map[string]struct{}
}

var defaultStore = &Store{revoked: map[string]struct{}{}}

func Default() *Store { return defaultStore }

func (s *Store) Revoke(jti string) {
	if jti == "" {
		return
	}
	s.mu.Lock()
	s.revoked[jti] = struct{}{}
	s.mu.Unlock()
}

func (s *Store) IsRevoked(jti string) bool {
	if jti == "" {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.revoked[jti]
	return ok
}

// RevokeToken marks a token id as revoked on the default store.
func RevokeToken(jti string) { defaultStore.Revoke(jti) }

// IsRevoked reports whether a token id has been revoked on the default store.
func IsRevoked(jti string) bool { return defaultStore.IsRevoked(jti) }
