package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harshul/deploy-helper/internal/config"
	"github.com/harshul/deploy-helper/internal/host"
	"github.com/harshul/deploy-helper/internal/ui"
)

var execCmd = &cobra.Command{
	Use:   "exec [flags] -- <command> [args...]",
	Short: "Run a one-off command through the configured shell",
	Long: `The exec command runs a single command line under bash (or PowerShell)
using the same shell resolution as steps. The first argument is the command
text; the remaining arguments are passed to it unchanged, so spaces and
shell characters in them are not interpreted.

Without --stream the command's stdout is printed when it finishes. With
--stream output is shown live in a console window.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExec,
}

func init() {
	execCmd.Flags().Bool("stream", false, "Stream output while the command runs")
	execCmd.Flags().String("shell", string(config.ShellBash), "Shell: bash or powershell")
	execCmd.Flags().StringP("dir", "C", "", "Working directory")
}

func runExec(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	stream, _ := cmd.Flags().GetBool("stream")
	shellType, _ := cmd.Flags().GetString("shell")
	dir, _ := cmd.Flags().GetString("dir")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if !stream {
		out, err := a.host(nil).ExecuteCommand(ctx, args[0], dir, shellType, args[1:]...)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	}

	return ui.RunWithDashboard(ctx, ui.DashboardConfig{
		Title:        "deploy-helper · exec",
		FallbackMode: a.noTUI,
		Out:          cmd.OutOrStdout(),
		Err:          cmd.ErrOrStderr(),
	}, func(ctx context.Context, dr *ui.DashboardRunner) error {
		console := dr.Workspace().Open("console")
		console.SetStatus(ui.StatusRunning)

		result := a.host(dr.Workspace()).ExecuteCommandStream(ctx, args[0], args[1:], dir, shellType, console)
		console.Flush()
		if result != host.StreamSuccess {
			console.SetStatus(ui.StatusError)
			return errors.New(strings.TrimPrefix(result, "Error: "))
		}
		console.SetStatus(ui.StatusSuccess)
		return nil
	})
}
