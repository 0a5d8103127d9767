// Package attestor holds the Ed25519 keyring and implements the signing,
// verification, and JWS operations described for the Attestor component: key
// custody, raw bundle signatures, bundle verification, and compact JWS
// certificates, with additive key rotation.
package attestor

import (
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
)

// Key is one keyring entry: a signing key paired with its verify key, keyed
// by kid. Once inserted a Key is never mutated.
type Key struct {
	Kid        string
	signingKey ed25519.PrivateKey
	VerifyKey  ed25519.PublicKey
}

// Keyring is a process-scoped, copy-on-write map of kid -> Key plus an
// active_kid pointer. Rotation only appends entries and swaps the pointer;
// it never mutates key material in place, so reads never need to lock
// against a write touching an existing entry.
type Keyring struct {
	keys   map[string]Key
	mu     sync.RWMutex
	active string
}

// NewKeyring derives keypairs deterministically from seeds: the Ed25519 seed
// is SHA-256(seed bytes), matching the original prototype's
// signing.SigningKey(hashlib.sha256(seed).digest()) construction so that the
// same configured seed always reproduces the same keypair across restarts
// and across language implementations.
func NewKeyring(seeds map[string][]byte, activeKid string) (*Keyring, error) {
	if len(seeds) == 0 {
		return nil, fmt.Errorf("attestor: at least one seed required")
	}
	keys := make(map[string]Key, len(seeds))
	for kid, seed := range seeds {
		kid = strings.TrimSpace(kid)
		if kid == "" {
			return nil, fmt.Errorf("attestor: empty kid in seed configuration")
		}
		sum := sha256.Sum256(seed)
		priv := ed25519.NewKeyFromSeed(sum[:])
		keys[kid] = Key{
			Kid:        kid,
			signingKey: priv,
			VerifyKey:  priv.Public().(ed25519.PublicKey),
		}
	}
	if _, ok := keys[activeKid]; !ok {
		return nil, fmt.Errorf("attestor: active kid %q has no matching seed", activeKid)
	}
	return &Keyring{keys: keys, active: activeKid}, nil
}

// ActiveKid returns the kid used for new signatures.
func (k *Keyring) ActiveKid() string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.active
}

// SetActiveKid swaps the active pointer. The swap is atomic with respect to
// readers: existing Key entries are never touched, only which kid is
// consulted for new signatures changes.
func (k *Keyring) SetActiveKid(kid string) error {
	if _, ok := k.keys[kid]; !ok {
		return fmt.Errorf("attestor: unknown kid %q", kid)
	}
	k.mu.Lock()
	k.active = kid
	k.mu.Unlock()
	return nil
}

// Lookup returns the Key for kid, or false if unknown. Old kids remain
// verifiable indefinitely; rotation never removes an entry.
func (k *Keyring) Lookup(kid string) (Key, bool) {
	key, ok := k.keys[kid]
	return key, ok
}

// Active returns the currently active Key.
func (k *Keyring) Active() Key {
	return k.keys[k.ActiveKid()]
}

// VerifyKeys returns a snapshot of kid -> verify key for the /keys endpoint.
func (k *Keyring) VerifyKeys() map[string]ed25519.PublicKey {
	out := make(map[string]ed25519.PublicKey, len(k.keys))
	for kid, key := range k.keys {
		out[kid] = key.VerifyKey
	}
	return out
}
