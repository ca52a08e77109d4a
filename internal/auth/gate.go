package auth

import (
	"crypto/subtle"
	"sync"
)

// Gate validates caller-supplied credentials against the one process-wide
// shared secret before a mutating history operation is allowed.
//
// Behaviour:
//   - A missing, empty, or mismatched supplied secret is denied.
//   - An empty *configured* secret denies everything: external mutation is
//     disabled until a secret is provided, rather than left open.
//
// Reads are not gated — the display surface carries no credential.
type Gate struct {
	mu     sync.RWMutex
	secret string
}

// New creates a Gate with the given shared secret.
func New(secret string) *Gate {
	return &Gate{secret: secret}
}

// Authorize reports whether supplied matches the configured secret.
// The comparison is constant-time.
func (g *Gate) Authorize(supplied string) bool {
	g.mu.RLock()
	secret := g.secret
	g.mu.RUnlock()

	if secret == "" || supplied == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(supplied)) == 1
}

// SetSecret replaces the configured secret. Used on config hot-reload so a
// rotated secret takes effect without a restart.
func (g *Gate) SetSecret(secret string) {
	g.mu.Lock()
	g.secret = secret
	g.mu.Unlock()
}
