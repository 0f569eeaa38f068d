// Package wallet loads the locally held signing identity used by the
// autonomous payer. The key is read once per invocation and never mutated;
// the gateway side of the protocol never sees it.
package wallet

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// Keypair is an ed25519 signing identity.
type Keypair struct {
	key solana.PrivateKey
}

// FromSecret parses a secret key in either of the two formats wallets
// export: a base58 string, or a JSON byte array (the Solana keygen file
// contents). The format is detected from the string itself.
func FromSecret(secret string) (*Keypair, error) {
	trimmed := strings.TrimSpace(secret)
	if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
		var arr []int
		if err := json.Unmarshal([]byte(trimmed), &arr); err != nil {
			return nil, fmt.Errorf("invalid keypair JSON: %w", err)
		}
		raw := make([]byte, len(arr))
		for i, b := range arr {
			if b < 0 || b > 255 {
				return nil, fmt.Errorf("invalid key byte %d at index %d", b, i)
			}
			raw[i] = byte(b)
		}
		return FromBytes(raw)
	}

	key, err := solana.PrivateKeyFromBase58(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid base58 secret key: %w", err)
	}
	return &Keypair{key: key}, nil
}

// FromBytes wraps a raw 64-byte ed25519 secret key.
func FromBytes(raw []byte) (*Keypair, error) {
	if len(raw) != 64 {
		return nil, fmt.Errorf("invalid key length %d (expected 64 bytes)", len(raw))
	}
	return &Keypair{key: solana.PrivateKey(raw)}, nil
}

// FromFile reads a Solana keygen JSON file.
func FromFile(path string) (*Keypair, error) {
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keygen file: %w", err)
	}
	return &Keypair{key: key}, nil
}

// PublicKey returns the signing identity's public key.
func (k *Keypair) PublicKey() solana.PublicKey { return k.key.PublicKey() }

// Address returns the base58-encoded public key.
func (k *Keypair) Address() string { return k.key.PublicKey().String() }

// PrivateKey exposes the raw key for signing. Callers must not persist it.
func (k *Keypair) PrivateKey() solana.PrivateKey { return k.key }
