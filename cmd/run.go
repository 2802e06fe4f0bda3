package main

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/harshul/deploy-helper/internal/config"
	"github.com/harshul/deploy-helper/internal/deploy"
	"github.com/harshul/deploy-helper/internal/router"
	"github.com/harshul/deploy-helper/internal/ui"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <combination>",
	Short: "Execute a step combination",
	Long: `The run command executes the steps of a combination (by id or name)
against its project and environment.

Sync steps run in order and the first failure stops the sequence. Async
steps start in the background and are waited for before the run ends.
Each step gets its own dashboard window; use --no-tui for plain output.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringArrayP("param", "P", nil, "Override a parameter (KEY=VALUE, repeatable)")
	runCmd.Flags().String("params-file", "", "Read parameter overrides from a KEY=VALUE file")
	runCmd.Flags().StringSliceP("repo", "r", nil, "Limit per-repository steps to these repositories")
}

func runRun(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	params, err := runParams(cmd)
	if err != nil {
		return err
	}
	repos, _ := cmd.Flags().GetStringSlice("repo")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	reporter := &windowReporter{}
	var report deploy.Report
	err = ui.RunWithDashboard(ctx, ui.DashboardConfig{
		Title:        "deploy-helper · " + args[0],
		FallbackMode: a.noTUI,
		Out:          cmd.OutOrStdout(),
		Err:          cmd.ErrOrStderr(),
	}, func(ctx context.Context, dr *ui.DashboardRunner) error {
		reporter.ws = dr.Workspace()
		executor := deploy.New(a.store, a.runner, router.New(dr.Workspace()), deploy.WithLogger(a.logger))

		var runErr error
		report, runErr = executor.Run(ctx, deploy.Plan{
			Combination: args[0],
			Repos:       repos,
			Params:      params,
			Reporter:    reporter,
		})
		return runErr
	})

	printReport(cmd, report)
	if !a.noTUI {
		// the dashboard is gone; keep the tail of failed windows visible
		reporter.printFailures(cmd)
	}
	return err
}

// runParams merges --params-file and --param; flags win over the file
func runParams(cmd *cobra.Command) (map[string]string, error) {
	params := map[string]string{}
	if file, _ := cmd.Flags().GetString("params-file"); file != "" {
		fromFile, err := deploy.ReadParamsFile(file)
		if err != nil {
			return nil, err
		}
		maps.Copy(params, fromFile)
	}
	pairs, _ := cmd.Flags().GetStringArray("param")
	fromFlags, err := deploy.ParseParams(pairs)
	if err != nil {
		return nil, err
	}
	maps.Copy(params, fromFlags)
	return params, nil
}

// windowReporter opens a dashboard window for each step execution
type windowReporter struct {
	ws *ui.Workspace

	mu     sync.Mutex
	failed []*ui.Window
}

func (r *windowReporter) StepStarted(step config.Step, repo string) router.Window {
	name := step.Name
	if repo != "" {
		name += " · " + repo
	}
	w := r.ws.Open(name)
	w.SetStatus(ui.StatusRunning)
	return w
}

func (r *windowReporter) StepFinished(rw router.Window, err error) {
	w, ok := rw.(*ui.Window)
	if !ok || w == nil {
		return
	}
	w.Flush()
	switch {
	case err == nil:
		w.SetStatus(ui.StatusSuccess)
	case errors.Is(err, context.Canceled):
		w.SetStatus(ui.StatusStopped)
	default:
		w.SetStatus(ui.StatusError)
		r.mu.Lock()
		r.failed = append(r.failed, w)
		r.mu.Unlock()
	}
}

const failureTailLines = 15

func (r *windowReporter) printFailures(cmd *cobra.Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.failed {
		tail := w.Tail(failureTailLines)
		lines := make([]string, 0, len(tail))
		for _, l := range tail {
			lines = append(lines, l.Text)
		}
		if len(lines) == 0 {
			lines = append(lines, "(no output)")
		}
		ui.PrintBox(cmd.ErrOrStderr(), w.Name, lines)
	}
}

func printReport(cmd *cobra.Command, report deploy.Report) {
	if report.Combination == "" {
		return
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	ui.PrintHeader(fmt.Sprintf("%s · %s · %s", report.Combination, report.Project, report.Environment))
	for i, s := range report.Steps {
		name := s.Name
		if s.Repo != "" {
			name += " (" + s.Repo + ")"
		}
		if s.Async {
			name += " [async]"
		}
		mark := "✔"
		if s.Err != nil {
			mark = "✖"
		}
		d := s.Duration.Round(10 * time.Millisecond)
		ui.PrintStep(out, i+1, len(report.Steps), fmt.Sprintf("%s %s  %s", mark, name, d))
		if s.Err != nil {
			fmt.Fprintf(out, "      %v\n", s.Err)
		}
	}
	for _, id := range report.Skipped {
		ui.PrintWarning(fmt.Sprintf("skipped missing step %s", id))
	}
	if len(report.Outputs) > 0 {
		ui.PrintDivider(out)
		names := make([]string, 0, len(report.Outputs))
		for name := range report.Outputs {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			ui.PrintHighlight(name, report.Outputs[name])
		}
	}
}
