package kvstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// AppName is used for the default config directory.
const AppName = "deploy-helper"

var (
	// ErrInvalidKey is returned for empty keys or keys with empty path segments.
	ErrInvalidKey = errors.New("kvstore: invalid key")
	// ErrCorrupt is returned when the backing file exists but is not a JSON object.
	ErrCorrupt = errors.New("kvstore: store file is corrupt")
)

// Store is a JSON-file backed key/value store. Keys may be dot paths
// ("config.gitBashPath") that address nested objects.
type Store struct {
	path string
	mu   sync.RWMutex
}

// New returns a store persisted at path. The file is created on first write.
func New(path string) *Store {
	return &Store{path: path}
}

// DefaultPath returns the store location under the user's config directory.
func DefaultPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "store.json"), nil
}

// configDir returns the configuration directory
func configDir() (string, error) {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, AppName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("kvstore: locate home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", AppName), nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Get returns the raw JSON stored at key.
func (s *Store) Get(key string) (json.RawMessage, bool, error) {
	segments, err := splitKey(key)
	if err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	root, err := s.read()
	if err != nil {
		return nil, false, err
	}

	var cur any = root
	for _, seg := range segments {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false, nil
		}
		cur, ok = obj[seg]
		if !ok {
			return nil, false, nil
		}
	}

	data, err := json.Marshal(cur)
	if err != nil {
		return nil, false, fmt.Errorf("kvstore: encode %q: %w", key, err)
	}
	return data, true, nil
}

// Lookup decodes the value at key into out. It reports whether the key exists.
func (s *Store) Lookup(key string, out any) (bool, error) {
	data, ok, err := s.Get(key)
	if err != nil || !ok {
		return ok, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return true, fmt.Errorf("kvstore: decode %q: %w", key, err)
	}
	return true, nil
}

// Set stores value at key, creating intermediate objects as needed.
func (s *Store) Set(key string, value any) error {
	segments, err := splitKey(key)
	if err != nil {
		return err
	}
	plain, err := toPlain(value)
	if err != nil {
		return fmt.Errorf("kvstore: encode %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	root, err := s.read()
	if err != nil {
		return err
	}

	obj := root
	for _, seg := range segments[:len(segments)-1] {
		next, ok := obj[seg].(map[string]any)
		if !ok {
			next = map[string]any{}
			obj[seg] = next
		}
		obj = next
	}
	obj[segments[len(segments)-1]] = plain

	return s.write(root)
}

// Delete removes key. Missing keys are not an error.
func (s *Store) Delete(key string) error {
	segments, err := splitKey(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	root, err := s.read()
	if err != nil {
		return err
	}

	obj := root
	for _, seg := range segments[:len(segments)-1] {
		next, ok := obj[seg].(map[string]any)
		if !ok {
			return nil
		}
		obj = next
	}
	delete(obj, segments[len(segments)-1])

	return s.write(root)
}

// All returns the whole store contents.
func (s *Store) All() (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read()
}

// Replace overwrites the whole store with contents. It does not read the
// current file, so it also recovers a corrupt store.
func (s *Store) Replace(contents map[string]any) error {
	plain, err := toPlain(contents)
	if err != nil {
		return fmt.Errorf("kvstore: encode contents: %w", err)
	}
	root, _ := plain.(map[string]any)
	if root == nil {
		root = map[string]any{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(root)
}

func (s *Store) read() (map[string]any, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("kvstore: read %s: %w", s.path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return map[string]any{}, nil
	}

	root := map[string]any{}
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrCorrupt, s.path, err)
	}
	return root, nil
}

func (s *Store) write(root map[string]any) error {
	data, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return fmt.Errorf("kvstore: marshal: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("kvstore: ensure dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".store-*.json")
	if err != nil {
		return fmt.Errorf("kvstore: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("kvstore: write temp file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("kvstore: chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("kvstore: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("kvstore: replace %s: %w", s.path, err)
	}
	return nil
}

func splitKey(key string) ([]string, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	segments := strings.Split(key, ".")
	for _, seg := range segments {
		if seg == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return segments, nil
}

// toPlain converts value into the map/slice/scalar shape produced by
// encoding/json so stored trees never alias caller memory.
func toPlain(value any) (any, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var plain any
	if err := json.Unmarshal(data, &plain); err != nil {
		return nil, err
	}
	return plain, nil
}
