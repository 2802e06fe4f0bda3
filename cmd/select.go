package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harshul/deploy-helper/internal/config"
	"github.com/harshul/deploy-helper/internal/ui"
)

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Choose the default project or environment",
}

var selectProjectCmd = &cobra.Command{
	Use:   "project [project]",
	Short: "Select the default project",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSelectProject,
}

var selectEnvCmd = &cobra.Command{
	Use:   "env [environment]",
	Short: "Select the default environment",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSelectEnv,
}

func init() {
	selectCmd.AddCommand(selectProjectCmd, selectEnvCmd)
}

func runSelectProject(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	ref := ""
	if len(args) == 1 {
		ref = args[0]
	} else {
		cfg := a.store.Value()
		if len(cfg.Projects) == 0 {
			return fmt.Errorf("no projects configured")
		}
		if a.noTUI {
			return fmt.Errorf("a project argument is required without an interactive terminal")
		}
		options := make([]ui.SelectOption, len(cfg.Projects))
		for i, p := range cfg.Projects {
			options[i] = ui.SelectOption{Label: p.Name, Value: p.ID, Description: p.Path}
		}
		choice, err := ui.RunSelectPrompt("Select project", "Used by 'combo add' when --project is omitted", options)
		if err != nil {
			return err
		}
		if choice.Value == "" {
			return nil
		}
		ref = choice.Value
	}

	var name string
	err = a.update(func(c *config.Config) error {
		p, err := findProject(c, ref)
		if err != nil {
			return err
		}
		c.SelectedProject = p.ID
		name = p.Name
		return nil
	})
	if err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Selected project %s", name))
	return nil
}

func runSelectEnv(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	env := ""
	if len(args) == 1 {
		env = args[0]
	} else {
		cfg := a.store.Value()
		if len(cfg.Environments) == 0 {
			return fmt.Errorf("no environments configured")
		}
		if a.noTUI {
			return fmt.Errorf("an environment argument is required without an interactive terminal")
		}
		options := make([]ui.SelectOption, len(cfg.Environments))
		for i, e := range cfg.Environments {
			options[i] = ui.SelectOption{Label: e, Value: e}
		}
		choice, err := ui.RunSelectPrompt("Select environment", "Used by 'combo add' when --env is omitted", options)
		if err != nil {
			return err
		}
		if choice.Value == "" {
			return nil
		}
		env = choice.Value
	}

	err = a.update(func(c *config.Config) error {
		if !c.HasEnvironment(env) {
			return fmt.Errorf("environment %q: %w", env, config.ErrNotFound)
		}
		c.SelectedEnvironment = env
		return nil
	})
	if err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Selected environment %s", env))
	return nil
}
