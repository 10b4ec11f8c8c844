package keyring

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"bitstamp-go/internal/nonce"
	"bitstamp-go/pkg/core"
)

// KeyRing holds several Bitstamp credential sets and picks the one used for
// the next signed request.
type KeyRing struct {
	mu       sync.RWMutex
	keys     []*APIKey
	current  int
	strategy RotationStrategy
	logger   zerolog.Logger
}

// APIKey is one credential set. Each key owns its nonce generator because
// Bitstamp orders nonces per key.
type APIKey struct {
	ID         string
	Key        string
	Secret     string
	CustomerID string
	Disabled   bool
	LastUsed   time.Time
	ErrorCount int

	nonces *nonce.Generator
}

type RotationStrategy int

const (
	// RotationNone keeps the current key until it is disabled.
	RotationNone RotationStrategy = iota
	// RotationRoundRobin advances to the next key after every use.
	RotationRoundRobin
	// RotationOnError advances to the next key after a failed call.
	RotationOnError
)

func NewKeyRing(keys []*APIKey, strategy RotationStrategy) *KeyRing {
	keysCopy := make([]*APIKey, 0, len(keys))
	for _, k := range keys {
		keysCopy = append(keysCopy, copyKey(k))
	}

	return &KeyRing{
		keys:     keysCopy,
		strategy: strategy,
		logger:   zerolog.Nop(),
	}
}

// FromCredentials builds a single-key ring, the common case.
func FromCredentials(creds core.Credentials) *KeyRing {
	return NewKeyRing([]*APIKey{{
		ID:         "default",
		Key:        creds.APIKey,
		Secret:     creds.SecretKey,
		CustomerID: creds.CustomerID,
	}}, RotationNone)
}

func copyKey(k *APIKey) *APIKey {
	return &APIKey{
		ID:         k.ID,
		Key:        k.Key,
		Secret:     k.Secret,
		CustomerID: k.CustomerID,
		Disabled:   k.Disabled,
		LastUsed:   k.LastUsed,
		ErrorCount: k.ErrorCount,
		nonces:     nonce.New(),
	}
}

// SetLogger sets the logger used for rotation events.
func (k *KeyRing) SetLogger(logger zerolog.Logger) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.logger = logger
}

// Len returns the number of keys, enabled or not.
func (k *KeyRing) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.keys)
}

// Current returns the first enabled key starting at the rotation cursor, or
// nil when none is enabled.
func (k *KeyRing) Current() *APIKey {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if len(k.keys) == 0 {
		return nil
	}

	for i := 0; i < len(k.keys); i++ {
		idx := (k.current + i) % len(k.keys)
		if !k.keys[idx].Disabled {
			return k.keys[idx]
		}
	}

	return nil
}

func (k *KeyRing) Rotate() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.rotateLocked()
}

func (k *KeyRing) rotateLocked() {
	if len(k.keys) == 0 {
		return
	}

	start := k.current
	for {
		k.current = (k.current + 1) % len(k.keys)
		if !k.keys[k.current].Disabled || k.current == start {
			break
		}
	}
	k.logger.Debug().Str("key_id", k.keys[k.current].ID).Msg("api key rotated")
}

// OnError records a failed call made with the key identified by id and
// advances the cursor under RotationOnError.
func (k *KeyRing) OnError(id string, err error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	for idx, key := range k.keys {
		if key.ID != id {
			continue
		}
		key.ErrorCount++
		k.logger.Warn().Err(err).Str("key_id", key.ID).Int("errors", key.ErrorCount).Msg("api key call failed")
		if k.strategy == RotationOnError && idx == k.current {
			k.rotateLocked()
		}
		return
	}
}

// Acquire returns the key to sign the next request with, stamps it as used
// and advances the cursor under round robin. It returns core.ErrNoAPIKey when
// every key is disabled.
func (k *KeyRing) Acquire() (*APIKey, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	for i := 0; i < len(k.keys); i++ {
		idx := (k.current + i) % len(k.keys)
		key := k.keys[idx]
		if key.Disabled {
			continue
		}
		k.current = idx
		key.LastUsed = time.Now()
		if k.strategy == RotationRoundRobin {
			k.rotateLocked()
		}
		return key, nil
	}

	return nil, core.ErrNoAPIKey
}

func (k *KeyRing) Disable(id string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	for _, key := range k.keys {
		if key.ID == id {
			key.Disabled = true
			return
		}
	}
}

func (k *KeyRing) Enable(id string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	for _, key := range k.keys {
		if key.ID == id {
			key.Disabled = false
			key.ErrorCount = 0
			return
		}
	}
}

func (k *KeyRing) Add(key *APIKey) {
	k.mu.Lock()
	defer k.mu.Unlock()

	for _, existing := range k.keys {
		if existing.ID == key.ID {
			return
		}
	}

	added := copyKey(key)
	added.Disabled = false
	added.ErrorCount = 0
	k.keys = append(k.keys, added)
}

func (k *KeyRing) Remove(id string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	for i, key := range k.keys {
		if key.ID == id {
			k.keys = append(k.keys[:i], k.keys[i+1:]...)
			if k.current >= len(k.keys) {
				k.current = 0
			}
			return
		}
	}
}

// Credentials returns the key as signing credentials.
func (a *APIKey) Credentials() core.Credentials {
	return core.Credentials{
		APIKey:     a.Key,
		SecretKey:  a.Secret,
		CustomerID: a.CustomerID,
	}
}

// NextNonce issues the next nonce for this key. Only keys handed out by a
// KeyRing carry a generator.
func (a *APIKey) NextNonce() string {
	return a.nonces.Next()
}

func (a *APIKey) String() string {
	return fmt.Sprintf("APIKey{ID:%s, Key:%s, CustomerID:%s}", a.ID, maskKey(a.Key), a.CustomerID)
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}
