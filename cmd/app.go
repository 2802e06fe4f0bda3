package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/harshul/deploy-helper/internal/config"
	"github.com/harshul/deploy-helper/internal/host"
	"github.com/harshul/deploy-helper/internal/kvstore"
	"github.com/harshul/deploy-helper/internal/router"
	"github.com/harshul/deploy-helper/internal/runner"
	"github.com/harshul/deploy-helper/internal/shell"
	"github.com/harshul/deploy-helper/internal/ui"
)

// errUnreadableStore is returned by save when the store could not be read at
// startup; saving would replace the user's data with defaults.
var errUnreadableStore = errors.New("the store could not be read at startup; refusing to overwrite it (fix or move the file, or use 'config import')")

// app holds the services every command works with
type app struct {
	kv       *kvstore.Store
	store    *config.Store
	resolver *shell.Resolver
	runner   *runner.Runner
	logger   *log.Logger
	noTUI    bool
	degraded bool
}

// loadApp opens the store and loads (and migrates) the configuration
func loadApp(cmd *cobra.Command) (*app, error) {
	path, err := storePath(cmd)
	if err != nil {
		return nil, err
	}
	noTUI, _ := cmd.Flags().GetBool("no-tui")

	a := &app{
		kv:     kvstore.New(path),
		logger: log.Default(),
		noTUI:  noTUI || !isatty.IsTerminal(os.Stdout.Fd()),
	}
	if err := a.load(); err != nil {
		return nil, err
	}

	a.resolver = shell.NewResolver(func() string { return a.store.Value().GitBashPath })
	a.runner = runner.New(a.resolver, runner.WithLogger(a.logger))
	return a, nil
}

// storePath returns --store or the default location
func storePath(cmd *cobra.Command) (string, error) {
	path, _ := cmd.Flags().GetString("store")
	if path != "" {
		return path, nil
	}
	return kvstore.DefaultPath()
}

func (a *app) load() error {
	store := config.NewStore(a.kv, config.WithLogger(a.logger))
	_, err := store.Load()

	var perr *config.PersistenceError
	switch {
	case err == nil:
	case errors.As(err, &perr) && perr.Op == "write":
		// the migrated document is in memory; the next save retries the write
		a.logger.Warn("could not write migrated config", "err", perr.Err)
	case errors.As(err, &perr):
		a.degraded = true
		a.logger.Warn("using default configuration", "path", a.kv.Path(), "err", perr.Err)
	default:
		return err
	}
	a.store = store
	return nil
}

// reload re-reads the store, as after an import
func (a *app) reload() error {
	a.degraded = false
	return a.load()
}

// save persists the configuration
func (a *app) save() error {
	if a.degraded {
		return errUnreadableStore
	}
	return a.store.Save()
}

// update applies fn to the configuration and saves it
func (a *app) update(fn func(*config.Config) error) error {
	if err := a.store.UpdateErr(fn); err != nil {
		return err
	}
	return a.save()
}

// host returns the process-boundary operations bound to reg
func (a *app) host(reg router.Registry) *host.Host {
	return host.New(a.kv, a.runner, router.New(reg),
		host.WithLogger(a.logger),
		host.WithRelaunch(a.reload),
	)
}

// argOrPrompt returns args[i], asking for it when it was not given and the
// terminal is interactive
func (a *app) argOrPrompt(args []string, i int, label, placeholder string) (string, error) {
	if i < len(args) {
		return args[i], nil
	}
	if a.noTUI {
		return "", fmt.Errorf("missing argument: %s", label)
	}
	value, err := ui.RunTextInputPrompt(strings.ToUpper(label[:1])+label[1:], "", placeholder, "")
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("%s is required", label)
	}
	return value, nil
}

// findProject resolves a project by id or name
func findProject(cfg *config.Config, ref string) (*config.Project, error) {
	if p, ok := cfg.Project(ref); ok {
		return p, nil
	}
	var match *config.Project
	for i := range cfg.Projects {
		if strings.EqualFold(cfg.Projects[i].Name, ref) {
			if match != nil {
				return nil, fmt.Errorf("project name %q is ambiguous, use the id", ref)
			}
			match = &cfg.Projects[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("project %q: %w", ref, config.ErrNotFound)
	}
	return match, nil
}

// findStep resolves a step by id or name
func findStep(cfg *config.Config, ref string) (*config.Step, error) {
	if s, ok := cfg.Step(ref); ok {
		return s, nil
	}
	var match *config.Step
	for i := range cfg.Steps {
		if strings.EqualFold(cfg.Steps[i].Name, ref) {
			if match != nil {
				return nil, fmt.Errorf("step name %q is ambiguous, use the id", ref)
			}
			match = &cfg.Steps[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("step %q: %w", ref, config.ErrNotFound)
	}
	return match, nil
}

// maskSecret masks sensitive values for display
func maskSecret(value string) string {
	if value == "" {
		return ""
	}

	// Short values are fully hidden
	if len(value) <= 10 {
		return strings.Repeat("*", len(value))
	}

	// Mask the middle of longer values
	return value[:2] + strings.Repeat("*", len(value)-4) + value[len(value)-2:]
}
