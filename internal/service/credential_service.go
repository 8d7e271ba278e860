package service

import "sync"

// Credentials is the synchronized store for the billing secret. Rotation
// happens only through the protocol's own ChangePassword method; readers
// always observe either the old or the new value, never a partial one.
type Credentials struct {
	mu      sync.RWMutex
	secret  string
	rotated bool
}

// NewCredentials creates a credential store seeded with the startup secret.
func NewCredentials(initial string) *Credentials {
	return &Credentials{secret: initial}
}

// Current returns the secret in effect.
func (c *Credentials) Current() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.secret
}

// Rotate replaces the secret. After the first rotation the sandbox-relaxed
// authentication policy stays off for the life of the process.
func (c *Credentials) Rotate(secret string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.secret = secret
	c.rotated = true
}

// Rotated reports whether Rotate has ever been called.
func (c *Credentials) Rotated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rotated
}
