// Package host implements the operations the UI layer calls across the
// process boundary: command execution, config import and export, and raw
// store access.
package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/harshul/deploy-helper/internal/config"
	"github.com/harshul/deploy-helper/internal/kvstore"
	"github.com/harshul/deploy-helper/internal/router"
	"github.com/harshul/deploy-helper/internal/runner"
	"github.com/harshul/deploy-helper/internal/shell"
)

// StreamSuccess is returned by ExecuteCommandStream when the command exits 0.
const StreamSuccess = "Command completed successfully"

// ErrNotObject is returned when an imported file is not a JSON or YAML object.
var ErrNotObject = errors.New("imported document is not an object")

// KV is the raw key/value store. *kvstore.Store implements it.
type KV interface {
	Get(key string) (json.RawMessage, bool, error)
	Set(key string, value any) error
	All() (map[string]any, error)
	Replace(contents map[string]any) error
}

// Exec runs commands. *runner.Runner implements it.
type Exec interface {
	Run(ctx context.Context, req runner.Request) (string, error)
	Stream(ctx context.Context, req runner.StreamRequest, h runner.Handlers) error
}

// Host wires the process-boundary operations together.
type Host struct {
	kv       KV
	exec     Exec
	router   *router.Router
	relaunch func() error
	logger   *log.Logger
}

// Option customizes a Host.
type Option func(*Host)

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithRelaunch sets the hook run after a successful import. It should reload
// the configuration so the imported document is migrated and adopted.
func WithRelaunch(fn func() error) Option {
	return func(h *Host) {
		h.relaunch = fn
	}
}

// New returns a Host.
func New(kv KV, exec Exec, r *router.Router, opts ...Option) *Host {
	h := &Host{kv: kv, exec: exec, router: r, logger: log.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ExecuteCommand runs command in directory and returns its trimmed stdout.
// Args are passed to command as separate arguments.
func (h *Host) ExecuteCommand(ctx context.Context, command, directory, shellType string, args ...string) (string, error) {
	return h.exec.Run(ctx, runner.Request{Command: command, Args: args, Dir: directory, ShellType: shellType})
}

// ExecuteCommandStream runs command with args, routing output to target (or
// the focused window when target is nil). It never returns an error: the
// outcome is reported as StreamSuccess or "Error: <message>".
func (h *Host) ExecuteCommandStream(ctx context.Context, command string, args []string, directory, shellType string, target router.Window) string {
	req := runner.StreamRequest{Command: command, Args: args, Dir: directory, ShellType: shellType}
	err := h.exec.Stream(ctx, req, runner.Handlers{
		Stdout: h.router.Stdout(target),
		Stderr: h.router.Stderr(target),
	})
	if err != nil {
		h.logger.Error("stream command failed", "err", err)
		return "Error: " + err.Error()
	}
	return StreamSuccess
}

// ExportConfig writes the whole store to path as indented JSON.
func (h *Host) ExportConfig(path string) error {
	all, err := h.kv.All()
	if err == nil {
		var data []byte
		data, err = json.MarshalIndent(all, "", "  ")
		if err == nil {
			err = os.WriteFile(path, append(data, '\n'), 0o600)
		}
	}
	if err != nil {
		h.logger.Error("exporting config", "path", path, "err", err)
		return &config.PersistenceError{Op: "export", Err: err}
	}
	h.logger.Info("exported config", "path", path)
	return nil
}

// ImportConfig merges the top-level keys of the JSON (or .yaml/.yml) file at
// path into the store and then runs the relaunch hook. A corrupt store is
// replaced by the imported keys.
func (h *Host) ImportConfig(path string) error {
	contents, err := readDocument(path)
	if err == nil {
		var root map[string]any
		root, err = h.kv.All()
		if errors.Is(err, kvstore.ErrCorrupt) {
			h.logger.Warn("store is corrupt, replacing it with the imported file", "err", err)
			root, err = map[string]any{}, nil
		}
		if err == nil {
			maps.Copy(root, contents)
			err = h.kv.Replace(root)
		}
	}
	if err != nil {
		h.logger.Error("importing config", "path", path, "err", err)
		return &config.PersistenceError{Op: "import", Err: err}
	}

	h.logger.Info("imported config", "path", path, "keys", len(contents))
	if h.relaunch != nil {
		return h.relaunch()
	}
	return nil
}

func readDocument(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	return obj, nil
}

// GetStoreValue returns the decoded value at key, or "" when it is missing,
// null or unreadable.
func (h *Host) GetStoreValue(key string) any {
	raw, ok, err := h.kv.Get(key)
	if err != nil {
		h.logger.Warn("reading store value", "key", key, "err", err)
		return ""
	}
	if !ok {
		return ""
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil || v == nil {
		return ""
	}
	return v
}

// SetStoreValue writes value at key.
func (h *Host) SetStoreValue(key string, value any) error {
	if err := h.kv.Set(key, value); err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	return nil
}

// SeedGitBashPath stores the platform's default bash path when none is
// configured, so the setting is visible and editable. It reports whether the
// document changed.
func SeedGitBashPath(store *config.Store, platform string) (bool, error) {
	if store.Value().GitBashPath != "" {
		return false, nil
	}
	if err := store.Set("gitBashPath", shell.DefaultBashPath(platform)); err != nil {
		return false, err
	}
	return true, store.Save()
}
