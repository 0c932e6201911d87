package kvstore

import "github.com/harvestconnect/harvestcart/internal/cart"

// Scoped namespaces every key under one session so a single backend can hold
// many carts, e.g. session:<id>:harvest_cart.
type Scoped struct {
	inner  cart.KeyValueStore
	prefix string
}

func NewScoped(inner cart.KeyValueStore, sessionID string) *Scoped {
	return &Scoped{inner: inner, prefix: ScopePrefix(sessionID)}
}

// ScopePrefix returns the key prefix used for sessionID.
func ScopePrefix(sessionID string) string {
	return "session:" + sessionID + ":"
}

func (s *Scoped) Get(key string) (string, bool, error) {
	return s.inner.Get(s.prefix + key)
}

func (s *Scoped) Set(key, value string) error {
	return s.inner.Set(s.prefix+key, value)
}
