package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harshul/deploy-helper/internal/doctor"
	"github.com/harshul/deploy-helper/internal/ui"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the shells, tools and project paths deploy-helper relies on",
	Args:  cobra.NoArgs,
	RunE:  runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	spinner := ui.NewSpinner(cmd.ErrOrStderr(), "Checking runtimes...")
	if !a.noTUI {
		spinner.Start()
	}
	d := doctor.Checker{}.Diagnose(ctx, a.store.Value(), a.resolver)
	if !a.noTUI {
		spinner.Stop()
	}

	ui.PrintHeader("Runtimes")
	for _, r := range d.Runtimes {
		switch {
		case r.Installed:
			ui.PrintSuccess(fmt.Sprintf("%-12s %s  (%s)", r.Name, r.Version, r.Path))
		case r.Optional:
			ui.PrintInfo(fmt.Sprintf("%-12s not found (optional)", r.Name))
		default:
			ui.PrintError(fmt.Sprintf("%-12s not found", r.Name))
		}
	}

	if len(d.Paths) > 0 {
		fmt.Fprintln(cmd.OutOrStdout())
		ui.PrintHeader("Paths")
		for _, p := range d.Paths {
			label := p.Project
			if p.Repo != "" {
				label += "/" + p.Repo
			}
			if p.Exists {
				ui.PrintSuccess(fmt.Sprintf("%-24s %s", label, p.Path))
			} else {
				ui.PrintError(fmt.Sprintf("%-24s %s (missing)", label, p.Path))
			}
		}
	}

	fmt.Fprintln(cmd.OutOrStdout())
	if !d.Healthy {
		for _, issue := range d.Issues {
			ui.PrintWarning(issue)
		}
		return fmt.Errorf("%d issue(s) found", len(d.Issues))
	}
	ui.PrintSuccess("Everything looks good")
	return nil
}
