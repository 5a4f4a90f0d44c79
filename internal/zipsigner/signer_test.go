package zipsigner

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/zipsign/internal/constants"
	"github.com/mrz1836/zipsign/internal/crypto"
	zserrors "github.com/mrz1836/zipsign/internal/errors"
	"github.com/mrz1836/zipsign/internal/keystore"
	"github.com/mrz1836/zipsign/internal/signing"
	"github.com/mrz1836/zipsign/internal/testutil"
)

type recordingListener struct {
	mu     sync.Mutex
	events []signing.ProgressEvent
	keys   []string
	onProg func(signing.ProgressEvent)
}

func (l *recordingListener) OnProgress(e signing.ProgressEvent) {
	l.mu.Lock()
	l.events = append(l.events, e)
	hook := l.onProg
	l.mu.Unlock()
	if hook != nil {
		hook(e)
	}
}

func (l *recordingListener) OnKeyResolved(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = append(l.keys, name)
}

type fixture struct {
	dir  string
	keys *keystore.Store
	in   string
	out  string
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	dir := t.TempDir()
	fx := fixture{
		dir:  dir,
		keys: keystore.New(filepath.Join(dir, "keys"), keystore.WithAutoCreate(true)),
		in:   filepath.Join(dir, "in.zip"),
		out:  filepath.Join(dir, "out.zip"),
	}
	testutil.WriteZip(t, fx.in, map[string]string{
		"a.txt":                "alpha",
		"dir/b.txt":            "bravo",
		"META-INF/OLD.RSA":     "stale",
		"META-INF/MANIFEST.MF": "Manifest-Version: 1.0\r\n",
	})
	return fx
}

func TestSigner_SignsArchive(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	l := &recordingListener{}
	s := NewSigner(fx.keys, "testkey", l, zerolog.Nop())

	require.NoError(t, s.Run(context.Background(), fx.in, fx.out))
	assert.False(t, s.IsCanceled())

	entries := testutil.ReadZip(t, fx.out)
	assert.Equal(t, "alpha", entries["a.txt"])
	assert.Equal(t, "bravo", entries["dir/b.txt"])
	assert.NotContains(t, entries, "META-INF/OLD.RSA", "foreign signatures are stripped")
	assert.Contains(t, entries["META-INF/MANIFEST.MF"], "Name: a.txt")
	assert.Contains(t, entries["META-INF/ZIPSIGN.SF"], "Key-Name: testkey")
	assert.Equal(t, []string{
		constants.ManifestName, constants.SignatureFileName, constants.SignatureBlockName, "a.txt", "dir/b.txt",
	}, testutil.EntryNames(t, fx.out))

	name, err := Verify(context.Background(), fx.out, fx.keys)
	require.NoError(t, err)
	assert.Equal(t, "testkey", name)
	assert.Empty(t, l.keys, "an explicit key is not announced")
}

func TestSigner_ProgressEvents(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	l := &recordingListener{}
	require.NoError(t, NewSigner(fx.keys, "testkey", l, zerolog.Nop()).Run(context.Background(), fx.in, fx.out))

	require.NotEmpty(t, l.events)
	first, last := l.events[0], l.events[len(l.events)-1]
	assert.Equal(t, signing.ProgressEvent{PercentDone: 0, Priority: signing.PriorityHigh, Label: PhaseResolvingKey}, first)
	assert.Equal(t, 100, last.PercentDone)

	var phases, items []string
	for _, e := range l.events {
		if e.Priority == signing.PriorityHigh {
			phases = append(phases, e.Label)
		} else if e.Label != "" {
			items = append(items, e.Label)
		}
		assert.GreaterOrEqual(t, e.PercentDone, 0)
		assert.LessOrEqual(t, e.PercentDone, 100)
	}
	assert.Equal(t, []string{PhaseResolvingKey, PhaseManifest, PhaseSignature}, phases)
	assert.Equal(t, []string{"a.txt", "dir/b.txt", "a.txt", "dir/b.txt"}, items)
}

func TestSigner_MissingKeyWithoutAutoCreate(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	keys := keystore.New(filepath.Join(fx.dir, "empty"))
	err := NewSigner(keys, "platform", nil, zerolog.Nop()).Run(context.Background(), fx.in, fx.out)
	require.ErrorIs(t, err, zserrors.ErrKeyNotFound)
	assert.NoFileExists(t, fx.out)
}

func TestSigner_BadZip(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	require.NoError(t, os.WriteFile(fx.in, []byte("definitely not a zip"), 0o600))

	err := NewSigner(fx.keys, "testkey", nil, zerolog.Nop()).Run(context.Background(), fx.in, fx.out)
	var formatErr *FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, "FormatError", zserrors.Kind(err))
	assert.Equal(t, "FormatError", signing.Failure(err).ErrorKind)
	assert.NoFileExists(t, fx.out)
}

func TestSigner_MissingInput(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	err := NewSigner(fx.keys, "testkey", nil, zerolog.Nop()).Run(context.Background(), filepath.Join(fx.dir, "nope.zip"), fx.out)
	require.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, "PathError", zserrors.Kind(err))
}

func TestSigner_CancelDiscardsOutput(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	l := &recordingListener{}
	s := NewSigner(fx.keys, "testkey", l, zerolog.Nop())
	l.onProg = func(e signing.ProgressEvent) {
		if e.Label == "a.txt" {
			s.Cancel()
		}
	}

	require.NoError(t, s.Run(context.Background(), fx.in, fx.out))
	assert.True(t, s.IsCanceled())
	assert.NoFileExists(t, fx.out)

	entries, err := os.ReadDir(fx.dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"in.zip", "keys"}, names, "temporary output is cleaned up")
}

func TestSigner_CancelBeforeRun(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	s := NewSigner(fx.keys, "testkey", nil, zerolog.Nop())
	s.Cancel()

	require.NoError(t, s.Run(context.Background(), fx.in, fx.out))
	assert.True(t, s.IsCanceled())
	assert.NoFileExists(t, fx.out)
}

// cancelingKeys cancels the run's context as soon as a key is requested.
type cancelingKeys struct {
	*keystore.Store
	cancel context.CancelFunc
}

func (k cancelingKeys) Signer(ctx context.Context, name string) (crypto.Signer, error) {
	k.cancel()
	return k.Store.Signer(ctx, name)
}

func (k cancelingKeys) Verifier(ctx context.Context, name string) (crypto.Verifier, error) {
	k.cancel()
	return k.Store.Verifier(ctx, name)
}

func TestSigner_ContextCanceledDuringKeyResolution(t *testing.T) {
	t.Parallel()

	for _, mode := range []string{"testkey", "auto", "auto-testkey", "auto-none"} {
		t.Run(mode, func(t *testing.T) {
			t.Parallel()

			fx := newFixture(t)
			signed := filepath.Join(fx.dir, "signed.zip")
			require.NoError(t, NewSigner(fx.keys, "media", nil, zerolog.Nop()).Run(context.Background(), fx.in, signed))

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			keys := cancelingKeys{Store: fx.keys, cancel: cancel}

			s := NewSigner(keys, mode, nil, zerolog.Nop())
			require.NoError(t, s.Run(ctx, signed, fx.out))
			assert.True(t, s.IsCanceled())
			assert.NoFileExists(t, fx.out)
		})
	}
}

func TestSigner_ContextCanceledInsideWorker(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	keys := cancelingKeys{Store: fx.keys, cancel: cancel}

	params := signing.Params{InputFile: fx.in, OutputFile: fx.out, KeyMode: "testkey"}
	w := signing.NewWorker(params, Factory(keys, zerolog.Nop()))
	require.NoError(t, w.Start(ctx))

	var last signing.Message
	for msg := range w.Messages() {
		last = msg
	}
	assert.Equal(t, signing.CanceledMsg{}, last)
	assert.NoFileExists(t, fx.out)
}

func TestSigner_KeyModes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("auto detects existing key", func(t *testing.T) {
		t.Parallel()

		fx := newFixture(t)
		signed := filepath.Join(fx.dir, "signed.zip")
		require.NoError(t, NewSigner(fx.keys, "media", nil, zerolog.Nop()).Run(ctx, fx.in, signed))

		l := &recordingListener{}
		require.NoError(t, NewSigner(fx.keys, "auto", l, zerolog.Nop()).Run(ctx, signed, fx.out))
		assert.Equal(t, []string{"media"}, l.keys)

		name, err := Verify(ctx, fx.out, fx.keys)
		require.NoError(t, err)
		assert.Equal(t, "media", name)
	})

	t.Run("auto fails on unsigned input", func(t *testing.T) {
		t.Parallel()

		fx := newFixture(t)
		err := NewSigner(fx.keys, "auto", nil, zerolog.Nop()).Run(ctx, fx.in, fx.out)
		require.ErrorIs(t, err, zserrors.ErrKeyUnresolved)
		assert.Equal(t, "KeyResolutionError", zserrors.Kind(err))
	})

	t.Run("auto-testkey falls back to testkey", func(t *testing.T) {
		t.Parallel()

		fx := newFixture(t)
		l := &recordingListener{}
		require.NoError(t, NewSigner(fx.keys, "auto-testkey", l, zerolog.Nop()).Run(ctx, fx.in, fx.out))
		assert.Equal(t, []string{"testkey"}, l.keys)

		name, err := Verify(ctx, fx.out, fx.keys)
		require.NoError(t, err)
		assert.Equal(t, "testkey", name)
	})

	t.Run("auto-none copies unsigned", func(t *testing.T) {
		t.Parallel()

		fx := newFixture(t)
		l := &recordingListener{}
		require.NoError(t, NewSigner(fx.keys, "auto-none", l, zerolog.Nop()).Run(ctx, fx.in, fx.out))
		assert.Equal(t, []string{NoKeyName}, l.keys)
		assert.Equal(t, testutil.ReadZip(t, fx.in), testutil.ReadZip(t, fx.out))

		_, err := Verify(ctx, fx.out, fx.keys)
		require.ErrorIs(t, err, zserrors.ErrSignatureMissing)
	})
}

func TestSigner_ResignInPlace(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ctx := context.Background()
	require.NoError(t, NewSigner(fx.keys, "media", nil, zerolog.Nop()).Run(ctx, fx.in, fx.in))
	require.NoError(t, NewSigner(fx.keys, "platform", nil, zerolog.Nop()).Run(ctx, fx.in, fx.in))

	name, err := Verify(ctx, fx.in, fx.keys)
	require.NoError(t, err)
	assert.Equal(t, "platform", name)
}

func TestFactory(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	op, err := Factory(fx.keys, zerolog.Nop())("media", &recordingListener{})
	require.NoError(t, err)
	assert.IsType(t, &Signer{}, op)

	_, err = Factory(nil, zerolog.Nop())("media", &recordingListener{})
	require.ErrorIs(t, err, zserrors.ErrMissingParameter)
}
