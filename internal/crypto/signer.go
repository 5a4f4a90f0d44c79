// Package crypto defines the signing abstractions used by the archive signer.
// Key storage and algorithms live behind these interfaces so the signer can
// be tested without touching disk.
package crypto

import "context"

// Verifier checks signatures.
type Verifier interface {
	// Verify returns nil if signature is valid for message.
	Verify(ctx context.Context, message, signature []byte) error
}

// Signer signs with one named key.
// Signing the same message twice must produce the same signature.
type Signer interface {
	Verifier

	// Name returns the key name recorded in signed archives.
	Name() string

	// Sign signs message and returns the signature.
	Sign(ctx context.Context, message []byte) ([]byte, error)
}

// KeySource looks up named signing keys.
type KeySource interface {
	// Signer returns the signer for name.
	Signer(ctx context.Context, name string) (Signer, error)

	// Names lists the keys the source can sign with, sorted.
	Names(ctx context.Context) ([]string, error)
}

// VerifierSource looks up verification keys. Lookups never create keys.
type VerifierSource interface {
	Verifier(ctx context.Context, name string) (Verifier, error)
}
