package zipsigner

import (
	"archive/zip"
	"context"
	"fmt"

	"github.com/mrz1836/zipsign/internal/constants"
	"github.com/mrz1836/zipsign/internal/crypto"
	"github.com/mrz1836/zipsign/internal/ctxutil"
	zserrors "github.com/mrz1836/zipsign/internal/errors"
)

// Verify checks the signature and every entry digest of the archive at path
// and returns the name of the key that signed it.
func Verify(ctx context.Context, path string, keys crypto.VerifierSource) (string, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return "", err
	}
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", asFormatError(path, err)
	}
	defer func() { _ = zr.Close() }()

	byName := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		byName[f.Name] = f
	}

	mfData, sfData, sig, err := readSignatureEntries(byName)
	if err != nil {
		return "", err
	}

	sf, err := parseSignatureFile(sfData)
	if err != nil {
		return "", err
	}

	verifier, err := keys.Verifier(ctx, sf.KeyName)
	if err != nil {
		return "", fmt.Errorf("loading key %s: %w", sf.KeyName, err)
	}
	if err := verifier.Verify(ctx, sfData, sig); err != nil {
		return "", err
	}
	if digest(mfData) != sf.ManifestDigest {
		return "", fmt.Errorf("%w: manifest digest mismatch", zserrors.ErrSignatureInvalid)
	}

	m, err := parseManifest(mfData)
	if err != nil {
		return "", err
	}
	if err := checkEntries(zr.File, m); err != nil {
		return "", err
	}
	return sf.KeyName, nil
}

func readSignatureEntries(byName map[string]*zip.File) (mf, sf, sig []byte, err error) {
	read := func(name string) ([]byte, error) {
		f, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s not found", zserrors.ErrSignatureMissing, name)
		}
		return readEntry(f)
	}

	if mf, err = read(constants.ManifestName); err != nil {
		return nil, nil, nil, err
	}
	if sf, err = read(constants.SignatureFileName); err != nil {
		return nil, nil, nil, err
	}
	if sig, err = read(constants.SignatureBlockName); err != nil {
		return nil, nil, nil, err
	}
	return mf, sf, sig, nil
}

// checkEntries requires that the manifest covers exactly the archive's
// regular, non-signature entries and that every digest matches.
func checkEntries(files []*zip.File, m manifest) error {
	seen := make(map[string]bool, len(m))
	for _, f := range files {
		if isSignatureEntry(f.Name) || f.FileInfo().IsDir() {
			continue
		}
		want, ok := m[f.Name]
		if !ok {
			return fmt.Errorf("%w: %s is not in the manifest", zserrors.ErrSignatureInvalid, f.Name)
		}
		got, err := digestEntry(f)
		if err != nil {
			return err
		}
		if got != want {
			return fmt.Errorf("%w: digest mismatch for %s", zserrors.ErrSignatureInvalid, f.Name)
		}
		seen[f.Name] = true
	}
	for _, name := range m.names() {
		if !seen[name] {
			return fmt.Errorf("%w: %s is missing from the archive", zserrors.ErrSignatureInvalid, name)
		}
	}
	return nil
}
