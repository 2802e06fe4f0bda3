package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/harshul/deploy-helper/internal/host"
	"github.com/harshul/deploy-helper/internal/ui"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the configuration store and show the quick start",
	Long: `The init command creates the configuration store on first run (or
migrates an existing one to the current format), records the default bash
location for this platform, and shows how to get started.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	if a.degraded {
		return errUnreadableStore
	}

	seeded, err := host.SeedGitBashPath(a.store, runtime.GOOS)
	if err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	if !seeded {
		if err := a.save(); err != nil {
			return fmt.Errorf("failed to save configuration: %w", err)
		}
	}

	if a.noTUI {
		cfg := a.store.Value()
		ui.PrintSuccess(fmt.Sprintf("Configuration ready at %s", a.kv.Path()))
		ui.PrintHighlight("Config version", fmt.Sprint(cfg.ConfigVersion))
		ui.PrintHighlight("Bash", a.resolver.Path("bash"))
		ui.PrintInfo("Run 'deploy-helper env add <name>' to create your first environment")
		return nil
	}

	return ui.RunWelcomeScreen(a.kv.Path())
}
