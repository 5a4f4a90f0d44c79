package zipsigner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	zserrors "github.com/mrz1836/zipsign/internal/errors"
)

func TestIsSignatureEntry(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"META-INF/MANIFEST.MF":  true,
		"META-INF/ZIPSIGN.SF":   true,
		"META-INF/ZIPSIGN.SIG":  true,
		"META-INF/CERT.RSA":     true,
		"meta-inf/cert.sf":      true,
		"META-INF/services/x":   false,
		"META-INF/sub/CERT.RSA": false,
		"a.sf":                  false,
		"res/MANIFEST.MF":       false,
	}
	for name, want := range tests {
		assert.Equal(t, want, isSignatureEntry(name), name)
	}
}

func TestManifest_EncodeParse(t *testing.T) {
	t.Parallel()

	m := manifest{"b.txt": digest([]byte("b")), "a.txt": digest([]byte("a"))}
	enc := m.encode()
	assert.Contains(t, string(enc), "Manifest-Version: 1.0\r\n")
	assert.Less(t, strings.Index(string(enc), "a.txt"), strings.Index(string(enc), "b.txt"), "entries are sorted")

	parsed, err := parseManifest(enc)
	require.NoError(t, err)
	assert.Equal(t, m, parsed)
}

func TestParseManifest_MissingDigest(t *testing.T) {
	t.Parallel()

	_, err := parseManifest([]byte("Manifest-Version: 1.0\r\n\r\nName: a.txt\r\n\r\n"))
	require.ErrorIs(t, err, zserrors.ErrSignatureInvalid)
}

func TestSignatureFile(t *testing.T) {
	t.Parallel()

	sf := signatureFile{KeyName: "media", ManifestDigest: "abc="}
	parsed, err := parseSignatureFile(sf.encode())
	require.NoError(t, err)
	assert.Equal(t, sf, parsed)

	_, err = parseSignatureFile(nil)
	require.ErrorIs(t, err, zserrors.ErrSignatureInvalid)

	_, err = parseSignatureFile([]byte("Signature-Version: 1.0\r\n"))
	require.ErrorIs(t, err, zserrors.ErrSignatureInvalid)
}

func TestDigest(t *testing.T) {
	t.Parallel()

	// sha256("") in base64.
	assert.Equal(t, "47DEQpj8HBSa+/TImW+5JCeuQeRkm5NMpJWZG3hSuFU=", digest(nil))
}

func TestScale(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, scale(0, 4, 0, 40))
	assert.Equal(t, 30, scale(3, 4, 0, 40))
	assert.Equal(t, 45, scale(0, 0, 45, 90))
}
