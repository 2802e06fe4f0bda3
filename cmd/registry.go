package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/harshul/deploy-helper/internal/config"
	"github.com/harshul/deploy-helper/internal/ui"
)

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Inspect and rotate container registry logins",
}

var registryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registry logins by project and environment",
	Args:  cobra.NoArgs,
	RunE:  runRegistryList,
}

var registryPasswordCmd = &cobra.Command{
	Use:   "password",
	Short: "Change the password of existing registry logins",
	Long: `Change a registry password in one go. Choose the logins with exactly one
of --env (every project in that environment), --all (every login) or --pick
(choose interactively). Registry hosts and usernames are left unchanged.`,
	Args: cobra.NoArgs,
	RunE: runRegistryPassword,
}

func init() {
	registryPasswordCmd.Flags().StringP("env", "e", "", "Update every login in this environment")
	registryPasswordCmd.Flags().Bool("all", false, "Update every login")
	registryPasswordCmd.Flags().Bool("pick", false, "Choose the logins to update")
	registryPasswordCmd.Flags().String("password", "", "New password (prompted when omitted)")
	registryPasswordCmd.MarkFlagsMutuallyExclusive("env", "all", "pick")
	registryPasswordCmd.MarkFlagsOneRequired("env", "all", "pick")

	registryCmd.AddCommand(registryListCmd, registryPasswordCmd)
}

func runRegistryList(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	cfg := a.store.Value()
	targets := cfg.RegistryTargets()
	if len(targets) == 0 {
		ui.PrintInfo("No registry logins. Add one with 'deploy-helper project login'")
		return nil
	}
	for _, t := range targets {
		p, _ := cfg.Project(t.ProjectID)
		cred := p.DockerLogin[t.Environment]
		fmt.Fprintf(cmd.OutOrStdout(), "%-20s %-12s %s@%s  %s\n",
			p.Name, t.Environment, cred.Username, cred.Registry, maskSecret(cred.Password))
	}
	return nil
}

func runRegistryPassword(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	env, _ := cmd.Flags().GetString("env")
	all, _ := cmd.Flags().GetBool("all")
	pick, _ := cmd.Flags().GetBool("pick")
	password, _ := cmd.Flags().GetString("password")

	var targets []config.RegistryTarget
	if pick {
		if a.noTUI {
			return errors.New("--pick needs an interactive terminal")
		}
		if targets, err = pickTargets(a.store.Value()); err != nil {
			return err
		}
		if len(targets) == 0 {
			ui.PrintInfo("Nothing selected")
			return nil
		}
	}

	if password == "" {
		if a.noTUI {
			return errors.New("--password is required without an interactive terminal")
		}
		if password, err = ui.RunPasswordPrompt("New registry password", "Registry hosts and usernames stay the same"); err != nil {
			return err
		}
	}

	var n int
	err = a.update(func(c *config.Config) error {
		var err error
		switch {
		case all:
			n, err = c.UpdateRegistryPasswordAll(password)
		case pick:
			n, err = c.UpdateRegistryPasswordTargets(targets, password)
		default:
			n, err = c.UpdateRegistryPassword(env, password)
		}
		return err
	})
	if err != nil {
		return err
	}
	if n == 0 {
		ui.PrintWarning("No matching registry logins were found")
		return nil
	}
	ui.PrintSuccess(fmt.Sprintf("Updated %d registry login(s)", n))
	return nil
}

// pickTargets asks which logins to update. Logins in the selected
// environment start checked.
func pickTargets(cfg config.Config) ([]config.RegistryTarget, error) {
	all := cfg.RegistryTargets()
	if len(all) == 0 {
		return nil, errors.New("no registry logins configured")
	}

	options := make([]ui.SelectOption, len(all))
	var preselected []string
	for i, t := range all {
		p, _ := cfg.Project(t.ProjectID)
		cred := p.DockerLogin[t.Environment]
		options[i] = ui.SelectOption{
			Label:       fmt.Sprintf("%s / %s", p.Name, t.Environment),
			Value:       strconv.Itoa(i),
			Description: cred.Username + "@" + cred.Registry,
		}
		if t.Environment == cfg.SelectedEnvironment {
			preselected = append(preselected, options[i].Value)
		}
	}

	selected, err := ui.RunMultiSelectPrompt("Registry logins", "Space to toggle, enter to confirm", options, preselected...)
	if err != nil {
		return nil, err
	}
	targets := make([]config.RegistryTarget, 0, len(selected))
	for _, opt := range selected {
		i, err := strconv.Atoi(opt.Value)
		if err != nil {
			return nil, err
		}
		targets = append(targets, all[i])
	}
	return targets, nil
}
