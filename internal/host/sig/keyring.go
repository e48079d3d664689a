// Package sig implements signature-based call authorization: accounts
// register ed25519 public keys (base58-encoded) and a call is authorized for
// every account whose signature over the request digest verifies.
package sig

import (
	"bytes"
	"crypto/ed25519"
	"fmt"
	"sync"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"

	"coffee-ledger/internal/domain"
)

// Keyring maps accounts to their registered public keys.
type Keyring struct {
	mu   sync.RWMutex
	keys map[domain.Name]ed25519.PublicKey
}

// NewKeyring creates an empty keyring.
func NewKeyring() *Keyring {
	return &Keyring{keys: make(map[domain.Name]ed25519.PublicKey)}
}

// RegisterKey stores a base58-encoded ed25519 public key for an account.
// The key must decode to 32 bytes and be a canonical curve point.
func (k *Keyring) RegisterKey(account domain.Name, encodedKey string) error {
	if err := account.Validate(); err != nil {
		return err
	}

	raw, err := base58.Decode(encodedKey)
	if err != nil {
		return fmt.Errorf("decode public key for %s: %w", account, err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return fmt.Errorf("public key for %s has length %d, want %d", account, len(raw), ed25519.PublicKeySize)
	}

	// Reject non-canonical encodings up front rather than at verify time.
	// SetBytes accepts non-canonical encodings of valid points, so compare
	// against the round-tripped canonical form as well.
	p, err := new(edwards25519.Point).SetBytes(raw)
	if err != nil {
		return fmt.Errorf("public key for %s is not a valid curve point: %w", account, err)
	}
	if !bytes.Equal(p.Bytes(), raw) {
		return fmt.Errorf("public key for %s is not canonically encoded", account)
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	k.keys[account] = ed25519.PublicKey(raw)
	return nil
}

// Verify reports whether sig is a valid signature by account's key over digest.
// Unknown accounts never verify.
func (k *Keyring) Verify(account domain.Name, digest, sig []byte) bool {
	k.mu.RLock()
	key, ok := k.keys[account]
	k.mu.RUnlock()
	if !ok || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(key, digest, sig)
}

// Authorized returns the set of accounts whose signatures over digest verify,
// for installing into the request context via host.WithAuthorized.
func (k *Keyring) Authorized(digest []byte, sigs map[domain.Name][]byte) []domain.Name {
	var out []domain.Name
	for account, s := range sigs {
		if k.Verify(account, digest, s) {
			out = append(out, account)
		}
	}
	return out
}
