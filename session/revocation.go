package session

import (
	"sync"
	"time"
)

// RevokedTokenCache tracks revoked credential ids (jti) until their natural
// expiry. Logout revokes server-side so a leaked credential dies with the
// session instead of living until exp.
type RevokedTokenCache interface {
	Add(jti string, exp time.Time) error
	IsRevoked(jti string) bool
	Cleanup() // Remove expired entries
}

// InMemoryRevokedTokenCache is the single-process implementation. Expiry is
// enforced at read time, matching the Redis variant's TTL semantics; Cleanup
// only reclaims memory.
type InMemoryRevokedTokenCache struct {
	mu      sync.RWMutex
	expires map[string]time.Time
	nowFunc func() time.Time
}

func NewInMemoryRevokedTokenCache() *InMemoryRevokedTokenCache {
	return &InMemoryRevokedTokenCache{
		expires: make(map[string]time.Time),
		nowFunc: time.Now,
	}
}

// Add marks jti revoked until exp. An already-expired exp is not stored; the
// credential it belongs to can no longer validate anyway.
func (c *InMemoryRevokedTokenCache) Add(jti string, exp time.Time) error {
	if !exp.After(c.nowFunc()) {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.expires[jti] = exp
	return nil
}

func (c *InMemoryRevokedTokenCache) IsRevoked(jti string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	exp, ok := c.expires[jti]
	return ok && c.nowFunc().Before(exp)
}

func (c *InMemoryRevokedTokenCache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowFunc()
	for jti, exp := range c.expires {
		if !now.Before(exp) {
			delete(c.expires, jti)
		}
	}
}
