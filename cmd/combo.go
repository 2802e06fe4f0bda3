package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harshul/deploy-helper/internal/config"
	"github.com/harshul/deploy-helper/internal/ui"
)

var comboCmd = &cobra.Command{
	Use:     "combo",
	Aliases: []string{"combination"},
	Short:   "Manage step combinations",
}

var comboListCmd = &cobra.Command{
	Use:   "list",
	Short: "List step combinations",
	Args:  cobra.NoArgs,
	RunE:  runComboList,
}

var comboAddCmd = &cobra.Command{
	Use:   "add <name> <step>...",
	Short: "Add a combination running the given steps in order",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runComboAdd,
}

func init() {
	comboAddCmd.Flags().StringP("project", "p", "", "Project (default: the selected project)")
	comboAddCmd.Flags().StringP("env", "e", "", "Environment (default: the selected environment)")

	comboCmd.AddCommand(comboListCmd, comboAddCmd)
}

func runComboList(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	cfg := a.store.Value()
	out := cmd.OutOrStdout()

	if len(cfg.StepCombinations) == 0 {
		ui.PrintInfo("No combinations yet. Add one with 'deploy-helper combo add <name> <step>...'")
		return nil
	}
	for _, sc := range cfg.StepCombinations {
		project := sc.ProjectID
		if p, ok := cfg.Project(sc.ProjectID); ok {
			project = p.Name
		}
		fmt.Fprintf(out, "%s  (%s)  %s/%s\n", sc.Name, sc.ID, project, sc.Environment)
		for i, id := range sc.Steps {
			name := id + " (missing)"
			if s, ok := cfg.Step(id); ok {
				name = s.Name
			}
			fmt.Fprintf(out, "    %d. %s\n", i+1, name)
		}
	}
	return nil
}

func runComboAdd(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	projectRef, _ := cmd.Flags().GetString("project")
	env, _ := cmd.Flags().GetString("env")

	var added config.StepCombination
	err = a.update(func(c *config.Config) error {
		if projectRef == "" {
			projectRef = c.SelectedProject
		}
		if env == "" {
			env = c.SelectedEnvironment
		}
		if projectRef == "" || env == "" {
			return fmt.Errorf("no project or environment given and none selected (see 'deploy-helper select')")
		}
		p, err := findProject(c, projectRef)
		if err != nil {
			return err
		}

		steps := make([]string, 0, len(args)-1)
		for _, ref := range args[1:] {
			s, err := findStep(c, ref)
			if err != nil {
				return err
			}
			steps = append(steps, s.ID)
		}

		added, err = c.AddCombination(config.StepCombination{
			Name:        args[0],
			Steps:       steps,
			ProjectID:   p.ID,
			Environment: env,
		})
		return err
	})
	if err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Added combination %s with %d steps", added.Name, len(added.Steps)))
	ui.PrintHighlight("ID", added.ID)
	return nil
}
