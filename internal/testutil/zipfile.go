// Package testutil provides archive fixtures shared by the test files.
//
// It should only be imported by test files (*_test.go).
package testutil

import (
	"archive/zip"
	"io"
	"maps"
	"os"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteZip writes an archive at path holding files, keyed by entry name.
// Entries are written in name order so fixtures are reproducible.
func WriteZip(t testing.TB, path string, files map[string]string) {
	t.Helper()

	f, err := os.Create(path) // #nosec G304 -- test temp dir
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for _, name := range slices.Sorted(maps.Keys(files)) {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = io.WriteString(w, files[name])
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

// ReadZip returns every entry of the archive at path, keyed by name.
func ReadZip(t testing.TB, path string) map[string]string {
	t.Helper()

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer func() { _ = zr.Close() }()

	out := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		require.NoError(t, err)
		out[f.Name] = string(data)
	}
	return out
}

// EntryNames lists the entry names of the archive at path in stored order.
func EntryNames(t testing.TB, path string) []string {
	t.Helper()

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer func() { _ = zr.Close() }()

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}
