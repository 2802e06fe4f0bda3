package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/harshul/deploy-helper/internal/migrate"
)

// StoreKey is the key the document lives under in the key/value store.
const StoreKey = "config"

var (
	// ErrAlreadyLoaded is returned by a second call to Load.
	ErrAlreadyLoaded = errors.New("config: already loaded")
	// ErrNotLoaded is returned when the store is used before Load.
	ErrNotLoaded = errors.New("config: not loaded")
	// ErrUnknownField is returned by Set for keys that are not Config fields.
	ErrUnknownField = errors.New("config: unknown field")
	// ErrVersionDowngrade is returned when Set would lower configVersion.
	ErrVersionDowngrade = errors.New("config: configVersion cannot decrease")
)

// PersistenceError wraps a failure reading or writing the persisted document.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("config: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// KV is the persistence primitive the store reads and writes through.
type KV interface {
	Lookup(key string, out any) (bool, error)
	Set(key string, value any) error
}

// Store owns the canonical in-memory Config. Construct one per process,
// call Load once, then read and stage changes; nothing reaches disk until
// Save.
type Store struct {
	kv       KV
	pipeline *migrate.Pipeline
	logger   *log.Logger

	mu     sync.RWMutex
	cfg    Config
	loaded bool
}

// StoreOption customizes a Store.
type StoreOption func(*Store)

// WithLogger sets the logger for load and save failures.
func WithLogger(logger *log.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPipeline replaces the default migration pipeline.
func WithPipeline(p *migrate.Pipeline) StoreOption {
	return func(s *Store) {
		if p != nil {
			s.pipeline = p
		}
	}
}

// NewStore returns an unloaded store backed by kv.
func NewStore(kv KV, opts ...StoreOption) *Store {
	s := &Store{
		kv:     kv,
		logger: log.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.pipeline == nil {
		s.pipeline = migrate.Default(migrate.WithLogger(s.logger))
	}
	return s
}

// Load reads the persisted document (or the default one on first run),
// migrates it to the latest version, adopts it and writes the migrated form
// back. Documents from a newer build are adopted but not written back.
//
// When the persisted document cannot be read, the default document is adopted,
// nothing is written and a *PersistenceError is returned.
func (s *Store) Load() (Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return Config{}, ErrAlreadyLoaded
	}
	s.loaded = true

	var doc migrate.Document
	found, err := s.kv.Lookup(StoreKey, &doc)
	if err != nil {
		return s.fallback("read", err)
	}
	if !found || doc == nil {
		s.logger.Info("no saved config, starting from defaults")
		doc = DefaultDocument()
	}

	migrated, outcome := s.pipeline.Migrate(doc)
	cfg, err := decode(migrated)
	if err != nil {
		return s.fallback("decode", err)
	}
	s.cfg = cfg

	if outcome.Forward {
		return s.cfg.Clone(), nil
	}
	if err := s.kv.Set(StoreKey, s.cfg); err != nil {
		perr := &PersistenceError{Op: "write", Err: err}
		s.logger.Error("failed to persist migrated config", "err", err)
		return s.cfg.Clone(), perr
	}
	return s.cfg.Clone(), nil
}

func (s *Store) fallback(op string, err error) (Config, error) {
	perr := &PersistenceError{Op: op, Err: err}
	s.logger.Error("failed to load config, using defaults", "op", op, "err", err)

	migrated, _ := s.pipeline.Migrate(DefaultDocument())
	cfg, derr := decode(migrated)
	if derr != nil {
		return Config{}, errors.Join(perr, derr)
	}
	s.cfg = cfg
	return s.cfg.Clone(), perr
}

// Save writes a copy of the whole document.
func (s *Store) Save() error {
	s.mu.RLock()
	if !s.loaded {
		s.mu.RUnlock()
		return ErrNotLoaded
	}
	snapshot := s.cfg.Clone()
	s.mu.RUnlock()

	if err := s.kv.Set(StoreKey, snapshot); err != nil {
		s.logger.Error("failed to save config", "err", err)
		return &PersistenceError{Op: "write", Err: err}
	}
	return nil
}

// Value returns a deep copy of the current document.
func (s *Store) Value() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Clone()
}

// Get returns a top-level field by its JSON name, in generic JSON form.
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fields, err := s.cfg.fields()
	if err != nil {
		return nil, false
	}
	v, ok := fields[key]
	return v, ok
}

// Set stages a top-level field by its JSON name. The value must have a shape
// compatible with the field; on error the document is left unchanged.
func (s *Store) Set(key string, value any) error {
	if !IsField(key) {
		return fmt.Errorf("%w: %q", ErrUnknownField, key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fields, err := s.cfg.fields()
	if err != nil {
		return fmt.Errorf("config: set %q: %w", key, err)
	}
	fields[key] = value

	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("config: set %q: %w", key, err)
	}
	var next Config
	if err := json.Unmarshal(data, &next); err != nil {
		return fmt.Errorf("config: set %q: %w", key, err)
	}
	if next.ConfigVersion < s.cfg.ConfigVersion {
		return ErrVersionDowngrade
	}
	s.cfg = next
	return nil
}

// Update stages a nested change. fn receives the canonical document and must
// not retain it.
func (s *Store) Update(fn func(*Config)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.cfg)
}

// UpdateErr is Update for changes that can fail. The document is only
// replaced when fn succeeds.
func (s *Store) UpdateErr(fn func(*Config) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cfg.Clone()
	if err := fn(&next); err != nil {
		return err
	}
	s.cfg = next
	return nil
}
