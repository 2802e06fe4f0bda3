package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harshul/deploy-helper/internal/config"
	"github.com/harshul/deploy-helper/internal/ui"
)

var stepCmd = &cobra.Command{
	Use:   "step",
	Short: "Manage the shared pool of shell steps",
}

var stepListCmd = &cobra.Command{
	Use:   "list",
	Short: "List steps",
	Args:  cobra.NoArgs,
	RunE:  runStepList,
}

var stepAddCmd = &cobra.Command{
	Use:   "add <name> <command>",
	Short: "Add a step",
	Long: `Add a shell step. The command may contain {placeholders}: builtins such as
{projectPath}, {environment}, {registry}, {username}, {password} and
{tempPath}, step parameters, and outputs captured by earlier steps.
A command or directory that mentions {repoName} or {repoPath} runs once per
repository of the project.

Missing arguments are prompted for on an interactive terminal.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runStepAdd,
}

var stepParamCmd = &cobra.Command{
	Use:   "param <step> <name> <value>",
	Short: "Add a parameter to a step, optionally for one environment",
	Args:  cobra.ExactArgs(3),
	RunE:  runStepParam,
}

func init() {
	stepAddCmd.Flags().String("dir", "", "Working directory (defaults to the project path)")
	stepAddCmd.Flags().String("shell", string(config.ShellBash), "Shell: bash or powershell")
	stepAddCmd.Flags().Bool("async", false, "Run in the background without waiting")
	stepAddCmd.Flags().String("output", "", "Capture stdout under this name")
	stepAddCmd.Flags().String("requires", "", "Name of an output that must exist before this step runs")
	stepParamCmd.Flags().String("env", "", "Environment the value applies to (default: all)")

	stepCmd.AddCommand(stepListCmd, stepAddCmd, stepParamCmd)
}

func runStepList(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	cfg := a.store.Value()
	out := cmd.OutOrStdout()

	if len(cfg.Steps) == 0 {
		ui.PrintInfo("No steps yet. Add one with 'deploy-helper step add <name> <command>'")
		return nil
	}
	for _, s := range cfg.Steps {
		var tags []string
		if s.ExecutionMode == config.ModeAsync {
			tags = append(tags, "async")
		}
		if s.ShellType != "" && s.ShellType != config.ShellBash {
			tags = append(tags, string(s.ShellType))
		}
		if s.HasOutputField {
			tags = append(tags, "→ "+s.OutputField)
		}
		if s.HasOutputReference {
			tags = append(tags, "needs "+s.OutputReference)
		}
		line := fmt.Sprintf("%s  (%s)", s.Name, s.ID)
		if len(tags) > 0 {
			line += "  [" + strings.Join(tags, ", ") + "]"
		}
		fmt.Fprintln(out, line)
		fmt.Fprintf(out, "    $ %s\n", s.Command)
		if s.HasDirectory {
			fmt.Fprintf(out, "    in %s\n", s.Directory)
		}
		for _, p := range s.EnvironmentSpecificParameters {
			env := p.Environment
			if env == "" {
				env = "all"
			}
			fmt.Fprintf(out, "    %s=%s (%s)\n", p.Name, p.Value, env)
		}
	}
	return nil
}

func runStepAdd(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	dir, _ := cmd.Flags().GetString("dir")
	shellName, _ := cmd.Flags().GetString("shell")
	async, _ := cmd.Flags().GetBool("async")
	output, _ := cmd.Flags().GetString("output")
	requires, _ := cmd.Flags().GetString("requires")

	shellType := config.ShellType(strings.ToLower(shellName))
	if shellType != config.ShellBash && shellType != config.ShellPowerShell {
		return fmt.Errorf("unknown shell %q (bash or powershell)", shellName)
	}
	mode := config.ModeSync
	if async {
		mode = config.ModeAsync
	}
	name, err := a.argOrPrompt(args, 0, "step name", "build")
	if err != nil {
		return err
	}
	command, err := a.argOrPrompt(args, 1, "command", "docker build -t {registry}/app {projectPath}")
	if err != nil {
		return err
	}

	var added config.Step
	err = a.update(func(c *config.Config) error {
		var err error
		added, err = c.AddStep(config.Step{
			Name:            name,
			Command:         command,
			Directory:       dir,
			ShellType:       shellType,
			ExecutionMode:   mode,
			OutputField:     output,
			OutputReference: requires,
		})
		return err
	})
	if err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Added step %s", added.Name))
	ui.PrintHighlight("ID", added.ID)
	return nil
}

func runStepParam(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	env, _ := cmd.Flags().GetString("env")

	err = a.update(func(c *config.Config) error {
		s, err := findStep(c, args[0])
		if err != nil {
			return err
		}
		if env != "" && !c.HasEnvironment(env) {
			return fmt.Errorf("environment %q: %w", env, config.ErrNotFound)
		}
		c.AddEnvironmentSpecificParameter(s.ID, config.Parameter{Name: args[1], Environment: env, Value: args[2]})
		return nil
	})
	if err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Added parameter %s to %s", args[1], args[0]))
	return nil
}
