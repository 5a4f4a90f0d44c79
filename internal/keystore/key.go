package keystore

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/mrz1836/zipsign/internal/crypto"
	zserrors "github.com/mrz1836/zipsign/internal/errors"
)

// Key is a named Ed25519 key pair.
type Key struct {
	name string
	priv ed25519.PrivateKey
}

var _ crypto.Signer = (*Key)(nil)

func newKey(name string, priv ed25519.PrivateKey) (*Key, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: expected %d, got %d", zserrors.ErrInvalidKeySize, ed25519.PrivateKeySize, len(priv))
	}
	return &Key{name: name, priv: priv}, nil
}

// Name returns the key name.
func (k *Key) Name() string {
	return k.name
}

// PublicKey returns the public half of the key.
func (k *Key) PublicKey() ed25519.PublicKey {
	return k.priv.Public().(ed25519.PublicKey) //nolint:forcetypeassert // ed25519 always returns ed25519.PublicKey
}

// Sign signs message with Ed25519.
func (k *Key) Sign(_ context.Context, message []byte) ([]byte, error) {
	return ed25519.Sign(k.priv, message), nil
}

// Verify checks an Ed25519 signature.
func (k *Key) Verify(_ context.Context, message, signature []byte) error {
	if !ed25519.Verify(k.PublicKey(), message, signature) {
		return fmt.Errorf("%w: key %s", zserrors.ErrSignatureInvalid, k.name)
	}
	return nil
}
