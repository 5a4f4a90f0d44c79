package zipsigner

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"

	"github.com/mrz1836/zipsign/internal/constants"
	zserrors "github.com/mrz1836/zipsign/internal/errors"
)

const (
	digestHeader         = "SHA-256-Digest"
	manifestDigestHeader = "SHA-256-Digest-Manifest"
	keyNameHeader        = "Key-Name"
	createdBy            = "zipsign"
)

// isSignatureEntry reports whether name is manifest or signature metadata
// that signing replaces. Foreign JAR-style signature blocks are dropped too.
func isSignatureEntry(name string) bool {
	upper := strings.ToUpper(name)
	if !strings.HasPrefix(upper, constants.MetaInfDir) || strings.Contains(upper[len(constants.MetaInfDir):], "/") {
		return false
	}
	if upper == constants.ManifestName {
		return true
	}
	for _, ext := range []string{".SF", ".SIG", ".RSA", ".DSA", ".EC"} {
		if strings.HasSuffix(upper, ext) {
			return true
		}
	}
	return false
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return base64.StdEncoding.EncodeToString(sum[:])
}

// manifest maps entry names to base64 SHA-256 digests.
type manifest map[string]string

func (m manifest) names() []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// encode renders the manifest with entries in name order.
func (m manifest) encode() []byte {
	var b bytes.Buffer
	b.WriteString("Manifest-Version: 1.0\r\n")
	b.WriteString("Created-By: " + createdBy + "\r\n\r\n")
	for _, name := range m.names() {
		fmt.Fprintf(&b, "Name: %s\r\n%s: %s\r\n\r\n", name, digestHeader, m[name])
	}
	return b.Bytes()
}

func parseManifest(data []byte) (manifest, error) {
	m := manifest{}
	for _, section := range sections(data) {
		name := section["Name"]
		if name == "" {
			continue
		}
		d, ok := section[digestHeader]
		if !ok {
			return nil, fmt.Errorf("%w: manifest entry %s has no digest", zserrors.ErrSignatureInvalid, name)
		}
		m[name] = d
	}
	return m, nil
}

// signatureFile is the signed statement tying a key to a manifest.
type signatureFile struct {
	KeyName        string
	ManifestDigest string
}

func (s signatureFile) encode() []byte {
	var b bytes.Buffer
	b.WriteString("Signature-Version: 1.0\r\n")
	b.WriteString("Created-By: " + createdBy + "\r\n")
	fmt.Fprintf(&b, "%s: %s\r\n", keyNameHeader, s.KeyName)
	fmt.Fprintf(&b, "%s: %s\r\n\r\n", manifestDigestHeader, s.ManifestDigest)
	return b.Bytes()
}

func parseSignatureFile(data []byte) (signatureFile, error) {
	secs := sections(data)
	if len(secs) == 0 {
		return signatureFile{}, fmt.Errorf("%w: empty signature file", zserrors.ErrSignatureInvalid)
	}
	sf := signatureFile{KeyName: secs[0][keyNameHeader], ManifestDigest: secs[0][manifestDigestHeader]}
	if sf.KeyName == "" || sf.ManifestDigest == "" {
		return signatureFile{}, fmt.Errorf("%w: incomplete signature file", zserrors.ErrSignatureInvalid)
	}
	return sf, nil
}

// sections splits "Key: value" lines into blank-line separated groups.
func sections(data []byte) []map[string]string {
	var out []map[string]string
	cur := map[string]string{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = map[string]string{}
			}
			continue
		}
		k, v, ok := strings.Cut(line, ": ")
		if ok {
			cur[k] = v
		}
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}
