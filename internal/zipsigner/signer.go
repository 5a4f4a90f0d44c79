// Package zipsigner signs zip archives with a named Ed25519 key.
//
// A signed archive carries three entries under META-INF/: a manifest with the
// SHA-256 digest of every other entry, a signature file naming the key and
// the manifest digest, and a detached Ed25519 signature over the signature
// file. Signer implements signing.Operation so it can run inside a Worker.
package zipsigner

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"

	"github.com/mrz1836/zipsign/internal/constants"
	"github.com/mrz1836/zipsign/internal/crypto"
	zserrors "github.com/mrz1836/zipsign/internal/errors"
	"github.com/mrz1836/zipsign/internal/signing"
)

// NoKeyName is announced when auto-none falls back to an unsigned copy.
const NoKeyName = "none"

// Progress milestones.
const (
	percentDigestEnd = 45
	percentWriteEnd  = 90
	percentSignature = 95
)

// Phase labels sent with high-priority progress events.
const (
	PhaseResolvingKey = "Resolving key"
	PhaseManifest     = "Generating manifest"
	PhaseSignature    = "Writing signature"
)

// Keys is the key store the signer reads from.
type Keys interface {
	crypto.KeySource
	crypto.VerifierSource
}

// Signer is a one-shot signing Operation.
type Signer struct {
	keys     Keys
	keyMode  string
	listener signing.Listener
	logger   zerolog.Logger

	cancelRequested atomic.Bool
	canceled        atomic.Bool
}

var _ signing.Operation = (*Signer)(nil)

// NewSigner creates a Signer for keyMode that reports to listener.
func NewSigner(keys Keys, keyMode string, listener signing.Listener, logger zerolog.Logger) *Signer {
	return &Signer{keys: keys, keyMode: keyMode, listener: listener, logger: logger}
}

// Factory adapts NewSigner to signing.OperationFactory.
func Factory(keys Keys, logger zerolog.Logger) signing.OperationFactory {
	return func(keyMode string, listener signing.Listener) (signing.Operation, error) {
		if keys == nil {
			return nil, fmt.Errorf("%w: key store", zserrors.ErrMissingParameter)
		}
		return NewSigner(keys, keyMode, listener, logger), nil
	}
}

// Cancel asks Run to stop before the next entry.
func (s *Signer) Cancel() {
	s.cancelRequested.Store(true)
}

// IsCanceled reports whether Run stopped early because of Cancel.
func (s *Signer) IsCanceled() bool {
	return s.canceled.Load()
}

// checkpoint reports whether Run should stop now.
func (s *Signer) checkpoint() bool {
	if s.cancelRequested.Load() {
		s.canceled.Store(true)
		return true
	}
	return false
}

// Run signs input into output. The output is replaced atomically; a failed
// or canceled run leaves no partial file behind. A ctx that ends while a
// blocking step waits on it stops the run as canceled.
func (s *Signer) Run(ctx context.Context, input, output string) error {
	err := s.run(ctx, input, output)
	if err != nil && interrupted(ctx, err) {
		s.canceled.Store(true)
		s.logger.Debug().Err(err).Msg("signing interrupted by context")
		return nil
	}
	return err
}

// interrupted reports whether err is ctx's own cancellation.
func interrupted(ctx context.Context, err error) bool {
	ctxErr := ctx.Err()
	return ctxErr != nil && errors.Is(err, ctxErr)
}

func (s *Signer) run(ctx context.Context, input, output string) error {
	s.progress(0, signing.PriorityHigh, PhaseResolvingKey)

	zr, err := zip.OpenReader(input)
	if err != nil {
		return asFormatError(input, err)
	}
	defer func() { _ = zr.Close() }()

	if s.checkpoint() {
		return nil
	}

	key, err := s.resolveKey(ctx, input)
	if err != nil {
		return err
	}

	pending, err := renameio.NewPendingFile(output, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("creating output %s: %w", output, err)
	}
	defer func() { _ = pending.Cleanup() }()

	zw := zip.NewWriter(pending)
	if key == nil {
		err = s.copyUnsigned(zr, zw)
	} else {
		err = s.sign(ctx, key, zr, zw)
	}
	if err != nil || s.canceled.Load() {
		return err
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finishing archive: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replacing %s: %w", output, err)
	}

	s.progress(constants.CompletePercent, signing.PriorityNormal, "")
	s.logger.Debug().Str("output_file", output).Msg("archive written")
	return nil
}

// resolveKey maps the key mode to a signer. A nil signer with a nil error
// means the archive is copied unsigned.
func (s *Signer) resolveKey(ctx context.Context, input string) (crypto.Signer, error) {
	switch s.keyMode {
	case constants.KeyModeAuto, constants.KeyModeAutoTestkey, constants.KeyModeAutoNone:
	default:
		return s.keys.Signer(ctx, s.keyMode)
	}

	name, err := Verify(ctx, input, s.keys)
	if err != nil && interrupted(ctx, err) {
		return nil, err
	}
	if err != nil {
		s.logger.Debug().Err(err).Str("key_mode", s.keyMode).Msg("no existing signature detected")
		switch s.keyMode {
		case constants.KeyModeAutoTestkey:
			name = constants.DefaultKeyMode
		case constants.KeyModeAutoNone:
			s.announce(NoKeyName)
			return nil, nil //nolint:nilnil // nil signer selects the unsigned copy
		default:
			return nil, &KeyResolutionError{Mode: s.keyMode}
		}
	}

	s.announce(name)
	return s.keys.Signer(ctx, name)
}

func (s *Signer) sign(ctx context.Context, key crypto.Signer, zr *zip.ReadCloser, zw *zip.Writer) error {
	entries := make([]*zip.File, 0, len(zr.File))
	for _, f := range zr.File {
		if !isSignatureEntry(f.Name) {
			entries = append(entries, f)
		}
	}

	m := manifest{}
	for i, f := range entries {
		if s.checkpoint() {
			return nil
		}
		s.progress(scale(i, len(entries), 0, percentDigestEnd), signing.PriorityNormal, f.Name)
		if f.FileInfo().IsDir() {
			continue
		}
		d, err := digestEntry(f)
		if err != nil {
			return err
		}
		m[f.Name] = d
	}

	s.progress(percentDigestEnd, signing.PriorityHigh, PhaseManifest)
	mf := m.encode()
	sf := signatureFile{KeyName: key.Name(), ManifestDigest: digest(mf)}.encode()
	sig, err := key.Sign(ctx, sf)
	if err != nil {
		return fmt.Errorf("signing manifest: %w", err)
	}

	for _, e := range []struct {
		name string
		data []byte
	}{
		{constants.ManifestName, mf},
		{constants.SignatureFileName, sf},
		{constants.SignatureBlockName, sig},
	} {
		if err := writeEntry(zw, e.name, e.data); err != nil {
			return err
		}
	}

	for i, f := range entries {
		if s.checkpoint() {
			return nil
		}
		s.progress(scale(i, len(entries), percentDigestEnd, percentWriteEnd), signing.PriorityNormal, f.Name)
		if err := zw.Copy(f); err != nil {
			return fmt.Errorf("copying %s: %w", f.Name, err)
		}
	}

	if s.checkpoint() {
		return nil
	}
	s.progress(percentSignature, signing.PriorityHigh, PhaseSignature)
	return nil
}

func (s *Signer) copyUnsigned(zr *zip.ReadCloser, zw *zip.Writer) error {
	for i, f := range zr.File {
		if s.checkpoint() {
			return nil
		}
		s.progress(scale(i, len(zr.File), 0, percentWriteEnd), signing.PriorityNormal, f.Name)
		if err := zw.Copy(f); err != nil {
			return fmt.Errorf("copying %s: %w", f.Name, err)
		}
	}
	return nil
}

func (s *Signer) progress(percent int, p signing.Priority, label string) {
	if s.listener != nil {
		s.listener.OnProgress(signing.ProgressEvent{PercentDone: percent, Priority: p, Label: label})
	}
}

func (s *Signer) announce(name string) {
	if s.listener != nil {
		s.listener.OnKeyResolved(name)
	}
}

func digestEntry(f *zip.File) (string, error) {
	data, err := readEntry(f)
	if err != nil {
		return "", err
	}
	return digest(data), nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, asFormatError(f.Name, err)
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, asFormatError(f.Name, err)
	}
	return data, nil
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

// scale maps step i of n onto the [lo, hi) percent range.
func scale(i, n, lo, hi int) int {
	if n <= 0 {
		return lo
	}
	return lo + i*(hi-lo)/n
}
