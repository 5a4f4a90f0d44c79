// Package keystore keeps named Ed25519 signing keys on disk.
//
// Each key lives in <dir>/<name>.key as the hex encoding of the 64-byte
// private key. Key generation is serialized across processes with a lock
// file so two concurrent runs never write different keys under one name.
package keystore

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"

	"github.com/mrz1836/zipsign/internal/constants"
	"github.com/mrz1836/zipsign/internal/crypto"
	"github.com/mrz1836/zipsign/internal/ctxutil"
	zserrors "github.com/mrz1836/zipsign/internal/errors"
	"github.com/mrz1836/zipsign/internal/flock"
)

var nameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// ValidName returns ErrInvalidKeyName unless name can be used as a key name.
func ValidName(name string) error {
	if !nameRe.MatchString(name) {
		return fmt.Errorf("%w: %q", zserrors.ErrInvalidKeyName, name)
	}
	return nil
}

// Store is a directory of named keys. It caches loaded keys and is safe for
// concurrent use.
type Store struct {
	dir         string
	autoCreate  bool
	lockTimeout time.Duration
	logger      zerolog.Logger

	mu    sync.RWMutex
	cache map[string]*Key
}

var (
	_ crypto.KeySource      = (*Store)(nil)
	_ crypto.VerifierSource = (*Store)(nil)
)

// Option configures a Store.
type Option func(*Store)

// WithAutoCreate makes Signer generate missing keys instead of failing.
func WithAutoCreate(enabled bool) Option {
	return func(s *Store) {
		s.autoCreate = enabled
	}
}

// WithLockTimeout bounds how long generation waits for the lock.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// New returns a Store rooted at dir. The directory is created lazily.
func New(dir string, opts ...Option) *Store {
	s := &Store{
		dir:         dir,
		lockTimeout: constants.LockTimeout,
		logger:      zerolog.Nop(),
		cache:       make(map[string]*Key),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the key directory.
func (s *Store) Dir() string {
	return s.dir
}

// Signer returns the key called name, generating it first when auto-create
// is enabled.
func (s *Store) Signer(ctx context.Context, name string) (crypto.Signer, error) {
	key, err := s.Load(ctx, name)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, zserrors.ErrKeyNotFound) || !s.autoCreate {
		return nil, err
	}

	key, err = s.generate(ctx, name, true)
	if err != nil {
		return nil, err
	}
	return key, nil
}

// Verifier returns the key called name for verification. It never creates keys.
func (s *Store) Verifier(ctx context.Context, name string) (crypto.Verifier, error) {
	key, err := s.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	return key, nil
}

// Load reads the key called name. It returns ErrKeyNotFound if it is absent.
func (s *Store) Load(ctx context.Context, name string) (*Key, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}
	if err := ValidName(name); err != nil {
		return nil, err
	}

	s.mu.RLock()
	key, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return key, nil
	}

	key, err := s.read(name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[name] = key
	s.mu.Unlock()
	return key, nil
}

// Generate creates a new key. It fails with ErrKeyExists if name is taken.
func (s *Store) Generate(ctx context.Context, name string) (*Key, error) {
	if err := ValidName(name); err != nil {
		return nil, err
	}
	return s.generate(ctx, name, false)
}

// Names lists the stored key names, sorted. A missing directory has no keys.
func (s *Store) Names(ctx context.Context) ([]string, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), constants.KeyFileExt) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), constants.KeyFileExt)
		if ValidName(name) == nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Info describes one stored key.
type Info struct {
	Name      string
	PublicKey ed25519.PublicKey
	ModTime   time.Time
}

// List returns Info for every stored key, sorted by name.
func (s *Store) List(ctx context.Context) ([]Info, error) {
	names, err := s.Names(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]Info, 0, len(names))
	for _, name := range names {
		key, err := s.Load(ctx, name)
		if err != nil {
			return nil, err
		}
		info := Info{Name: name, PublicKey: key.PublicKey()}
		if st, err := os.Stat(s.path(name)); err == nil {
			info.ModTime = st.ModTime()
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+constants.KeyFileExt)
}

func (s *Store) read(name string) (*Key, error) {
	data, err := os.ReadFile(s.path(name)) // #nosec G304 -- name is validated
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", zserrors.ErrKeyNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("reading key %s: %w", name, err)
	}

	decoded, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("decoding key %s: %w", name, err)
	}
	return newKey(name, ed25519.PrivateKey(decoded))
}

// generate writes a new key under the directory lock. When reuse is set an
// existing key (created by a racing process) is returned instead of failing.
func (s *Store) generate(ctx context.Context, name string, reuse bool) (*Key, error) {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating key directory: %w", err)
	}

	lock := flock.New(filepath.Join(s.dir, constants.KeyLockFileName))
	if err := lock.Lock(ctx, s.lockTimeout); err != nil {
		return nil, fmt.Errorf("locking key directory: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	if existing, err := s.read(name); err == nil {
		if !reuse {
			return nil, fmt.Errorf("%w: %s", zserrors.ErrKeyExists, name)
		}
		s.remember(existing)
		return existing, nil
	} else if !errors.Is(err, zserrors.ErrKeyNotFound) {
		return nil, err
	}

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating ed25519 key: %w", err)
	}
	if err := renameio.WriteFile(s.path(name), []byte(hex.EncodeToString(priv)), 0o600); err != nil {
		return nil, fmt.Errorf("saving key %s: %w", name, err)
	}

	key, err := newKey(name, priv)
	if err != nil {
		return nil, err
	}
	s.remember(key)
	s.logger.Info().Str("key_name", name).Str("key_dir", s.dir).Msg("generated signing key")
	return key, nil
}

func (s *Store) remember(k *Key) {
	s.mu.Lock()
	s.cache[k.name] = k
	s.mu.Unlock()
}
