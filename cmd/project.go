package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harshul/deploy-helper/internal/config"
	"github.com/harshul/deploy-helper/internal/ui"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage deployment projects, their repositories and registry logins",
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	Args:  cobra.NoArgs,
	RunE:  runProjectList,
}

var projectAddCmd = &cobra.Command{
	Use:   "add <name> <path>",
	Short: "Add a project rooted at path (prompted for when omitted)",
	Args:  cobra.MaximumNArgs(2),
	RunE:  runProjectAdd,
}

var projectRemoveCmd = &cobra.Command{
	Use:     "remove <project>",
	Aliases: []string{"rm"},
	Short:   "Remove a project and the combinations bound to it",
	Args:    cobra.ExactArgs(1),
	RunE:    runProjectRemove,
}

var projectRepoAddCmd = &cobra.Command{
	Use:   "repo-add <project> <name> <path>",
	Short: "Add a git repository to a project",
	Args:  cobra.ExactArgs(3),
	RunE:  runProjectRepoAdd,
}

var projectLoginCmd = &cobra.Command{
	Use:   "login <project> <environment>",
	Short: "Store the registry login of a project for an environment",
	Args:  cobra.ExactArgs(2),
	RunE:  runProjectLogin,
}

func init() {
	projectListCmd.Flags().BoolP("verbose", "v", false, "Show repositories and logins")
	projectLoginCmd.Flags().String("registry", "", "Registry host")
	projectLoginCmd.Flags().String("username", "", "Registry username")
	projectLoginCmd.Flags().String("password", "", "Registry password (prompted when omitted)")

	projectCmd.AddCommand(projectListCmd, projectAddCmd, projectRemoveCmd, projectRepoAddCmd, projectLoginCmd)
}

func runProjectList(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	verbose, _ := cmd.Flags().GetBool("verbose")
	cfg := a.store.Value()
	out := cmd.OutOrStdout()

	if len(cfg.Projects) == 0 {
		ui.PrintInfo("No projects yet. Add one with 'deploy-helper project add <name> <path>'")
		return nil
	}
	for _, p := range cfg.Projects {
		marker := " "
		if p.ID == cfg.SelectedProject {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %s  %s  (%s)\n", marker, p.Name, p.Path, p.ID)
		if !verbose {
			continue
		}
		for _, r := range p.Repos {
			fmt.Fprintf(out, "    repo  %s  %s\n", r.Name, r.Path)
		}
		for _, env := range cfg.Environments {
			cred, ok := p.DockerLogin[env]
			if !ok {
				continue
			}
			fmt.Fprintf(out, "    login %s  %s@%s  %s\n", env, cred.Username, cred.Registry, maskSecret(cred.Password))
		}
	}
	return nil
}

func runProjectAdd(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	name, err := a.argOrPrompt(args, 0, "project name", "shop")
	if err != nil {
		return err
	}
	dir, err := a.argOrPrompt(args, 1, "project path", ".")
	if err != nil {
		return err
	}
	path, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	var added config.Project
	err = a.update(func(c *config.Config) error {
		var err error
		added, err = c.AddProject(config.Project{Name: name, Path: path})
		return err
	})
	if err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Added project %s", added.Name))
	ui.PrintHighlight("ID", added.ID)
	return nil
}

func runProjectRemove(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	var name string
	err = a.update(func(c *config.Config) error {
		p, err := findProject(c, args[0])
		if err != nil {
			return err
		}
		name = p.Name
		c.RemoveProject(p.ID)
		return nil
	})
	if err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Removed project %s", name))
	return nil
}

func runProjectRepoAdd(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	path, err := filepath.Abs(args[2])
	if err != nil {
		return err
	}
	err = a.update(func(c *config.Config) error {
		p, err := findProject(c, args[0])
		if err != nil {
			return err
		}
		return c.AddRepo(p.ID, config.Repo{Name: args[1], Path: path})
	})
	if err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Added repo %s", args[1]))
	return nil
}

func runProjectLogin(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	registry, _ := cmd.Flags().GetString("registry")
	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")

	if registry == "" {
		registry = a.store.Value().RegistrySiteURL
	}
	if strings.TrimSpace(registry) == "" || strings.TrimSpace(username) == "" {
		return fmt.Errorf("--registry (or registrySiteUrl) and --username are required")
	}
	if password == "" && !a.noTUI {
		password, err = ui.RunPasswordPrompt("Registry password",
			fmt.Sprintf("%s@%s for %s", username, registry, args[1]))
		if err != nil {
			return err
		}
	}

	err = a.update(func(c *config.Config) error {
		p, err := findProject(c, args[0])
		if err != nil {
			return err
		}
		return c.SetCredential(p.ID, args[1], config.Credential{
			Registry: registry,
			Username: username,
			Password: password,
		})
	})
	if err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Stored %s login for %s", args[1], args[0]))
	return nil
}
