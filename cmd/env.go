package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harshul/deploy-helper/internal/config"
	"github.com/harshul/deploy-helper/internal/ui"
)

var envCmd = &cobra.Command{
	Use:     "env",
	Aliases: []string{"environment"},
	Short:   "Manage deployment environments",
}

var envListCmd = &cobra.Command{
	Use:   "list",
	Short: "List environments",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		cfg := a.store.Value()
		if len(cfg.Environments) == 0 {
			ui.PrintInfo("No environments yet. Add one with 'deploy-helper env add <name>'")
			return nil
		}
		for _, env := range cfg.Environments {
			marker := " "
			if env == cfg.SelectedEnvironment {
				marker = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, env)
		}
		return nil
	},
}

var envAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add an environment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		if err := a.update(func(c *config.Config) error { return c.AddEnvironment(args[0]) }); err != nil {
			return err
		}
		ui.PrintSuccess(fmt.Sprintf("Added environment %s", args[0]))
		return nil
	},
}

var envRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove an environment (stored credentials are kept)",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		err = a.update(func(c *config.Config) error {
			if !c.RemoveEnvironment(args[0]) {
				return fmt.Errorf("environment %q: %w", args[0], config.ErrNotFound)
			}
			return nil
		})
		if err != nil {
			return err
		}
		ui.PrintSuccess(fmt.Sprintf("Removed environment %s", args[0]))
		return nil
	},
}

func init() {
	envCmd.AddCommand(envListCmd, envAddCmd, envRemoveCmd)
}
