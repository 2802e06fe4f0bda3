// Package deploy runs step combinations against a project.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/harshul/deploy-helper/internal/config"
	"github.com/harshul/deploy-helper/internal/router"
	"github.com/harshul/deploy-helper/internal/runner"
)

// Placeholders that make a step run once per selected repository.
const (
	RepoName = "repoName"
	RepoPath = "repoPath"
)

var (
	ErrCombinationNotFound = errors.New("step combination not found")
	ErrProjectNotFound     = errors.New("project not found")
	ErrUnknownRepo         = errors.New("unknown repository")
)

// MissingOutputError means a step references an output no earlier step
// produced.
type MissingOutputError struct {
	Step      string
	Reference string
}

func (e *MissingOutputError) Error() string {
	return fmt.Sprintf("step %q references output %q which has not been produced", e.Step, e.Reference)
}

// StepError wraps the failure of one step execution.
type StepError struct {
	Step string
	Repo string
	Err  error
}

func (e *StepError) Error() string {
	if e.Repo != "" {
		return fmt.Sprintf("step %q (%s): %v", e.Step, e.Repo, e.Err)
	}
	return fmt.Sprintf("step %q: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Exec runs commands. *runner.Runner implements it.
type Exec interface {
	Run(ctx context.Context, req runner.Request) (string, error)
	Stream(ctx context.Context, req runner.StreamRequest, h runner.Handlers) error
}

// Source provides the configuration snapshot a run works from.
// *config.Store implements it.
type Source interface {
	Value() config.Config
}

// Reporter is told when each step execution starts and ends. StepStarted
// returns the window the step's output goes to; nil lets the router choose.
type Reporter interface {
	StepStarted(step config.Step, repo string) router.Window
	StepFinished(w router.Window, err error)
}

// Plan selects what to run.
type Plan struct {
	// Combination is a combination id or name.
	Combination string
	// Repos restricts per-repo steps to these repository names. Empty means
	// every repository of the project.
	Repos []string
	// Params override configured step parameters.
	Params   map[string]string
	Reporter Reporter
}

// StepResult records one step execution.
type StepResult struct {
	StepID   string
	Name     string
	Repo     string
	Async    bool
	Output   string
	Duration time.Duration
	Err      error
}

// Report summarizes a run.
type Report struct {
	Combination string
	Project     string
	Environment string
	Steps       []StepResult
	Skipped     []string
	Outputs     map[string]string
}

// Failed returns the executions that ended with an error.
func (r Report) Failed() []StepResult {
	var out []StepResult
	for _, s := range r.Steps {
		if s.Err != nil {
			out = append(out, s)
		}
	}
	return out
}

// Executor runs step combinations.
type Executor struct {
	source Source
	exec   Exec
	router *router.Router
	logger *log.Logger
}

// Option customizes an Executor.
type Option func(*Executor)

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New returns an Executor reading configuration from source and delivering
// output through r.
func New(source Source, exec Exec, r *router.Router, opts ...Option) *Executor {
	e := &Executor{source: source, exec: exec, router: r, logger: log.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// run is the state of a single Run call.
type run struct {
	*Executor
	ctx      context.Context
	cfg      config.Config
	project  *config.Project
	combo    *config.StepCombination
	repos    []config.Repo
	params   map[string]string
	reporter Reporter

	mu      sync.Mutex
	outputs map[string]string
	report  Report
}

// Run executes the plan's combination. Sync steps run in order and the first
// failure stops the sequence; async steps run in the background and are
// joined before Run returns. Step ids that no longer exist are skipped.
func (e *Executor) Run(ctx context.Context, plan Plan) (Report, error) {
	cfg := e.source.Value()

	combo, ok := findCombination(&cfg, plan.Combination)
	if !ok {
		return Report{}, fmt.Errorf("%w: %s", ErrCombinationNotFound, plan.Combination)
	}
	project, ok := cfg.Project(combo.ProjectID)
	if !ok {
		return Report{}, fmt.Errorf("%w: %s (combination %s)", ErrProjectNotFound, combo.ProjectID, combo.Name)
	}
	repos, err := selectRepos(project, plan.Repos)
	if err != nil {
		return Report{}, err
	}

	r := &run{
		Executor: e,
		ctx:      ctx,
		cfg:      cfg,
		project:  project,
		combo:    combo,
		repos:    repos,
		params:   plan.Params,
		reporter: plan.Reporter,
		outputs:  map[string]string{},
		report: Report{
			Combination: combo.Name,
			Project:     project.Name,
			Environment: combo.Environment,
		},
	}

	e.logger.Info("running combination", "combination", combo.Name, "project", project.Name, "environment", combo.Environment)

	var async errgroup.Group
	var syncErr error
	for _, id := range combo.Steps {
		step, ok := cfg.Step(id)
		if !ok {
			e.logger.Debug("skipping missing step", "id", id)
			r.report.Skipped = append(r.report.Skipped, id)
			continue
		}
		if ctx.Err() != nil {
			syncErr = ctx.Err()
			break
		}

		s := *step
		if s.ExecutionMode == config.ModeAsync {
			async.Go(func() error { return r.step(s, true) })
			continue
		}
		if err := r.step(s, false); err != nil {
			syncErr = err
			break
		}
	}

	asyncErr := async.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.Outputs = maps.Clone(r.outputs)
	if syncErr != nil {
		return r.report, syncErr
	}
	return r.report, asyncErr
}

// step runs s once, or once per selected repo when its command or
// directory mentions a repo placeholder.
func (r *run) step(s config.Step, async bool) error {
	if s.HasOutputReference && s.OutputReference != "" {
		r.mu.Lock()
		_, ok := r.outputs[s.OutputReference]
		r.mu.Unlock()
		if !ok {
			err := &MissingOutputError{Step: s.Name, Reference: s.OutputReference}
			r.record(StepResult{StepID: s.ID, Name: s.Name, Async: async, Err: err})
			return err
		}
	}

	perRepo := References(s.Command, RepoName, RepoPath) ||
		(s.HasDirectory && References(s.Directory, RepoName, RepoPath))
	if !perRepo {
		return r.execute(s, nil, async)
	}

	if len(r.repos) == 0 {
		r.logger.Warn("step uses repository placeholders but no repository is selected", "step", s.Name)
	}
	for i := range r.repos {
		if err := r.execute(s, &r.repos[i], async); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) execute(s config.Step, repo *config.Repo, async bool) error {
	vars := r.variables(s, repo)
	command := Substitute(s.Command, vars)
	dir := r.project.Path
	if s.HasDirectory && s.Directory != "" {
		dir = Substitute(s.Directory, vars)
	}
	shellType := string(s.ShellType)
	if shellType == "" {
		shellType = string(config.ShellBash)
	}

	repoName := ""
	if repo != nil {
		repoName = repo.Name
	}

	var target router.Window
	if r.reporter != nil {
		target = r.reporter.StepStarted(s, repoName)
	}

	r.logger.Debug("executing step", "step", s.Name, "repo", repoName, "dir", dir, "shell", shellType, "async", async)
	start := time.Now()

	result := StepResult{StepID: s.ID, Name: s.Name, Repo: repoName, Async: async}
	var err error
	if s.HasOutputField && s.OutputField != "" {
		var out string
		out, err = r.exec.Run(r.ctx, runner.Request{Command: command, Dir: dir, ShellType: shellType})
		if err == nil {
			r.mu.Lock()
			r.outputs[s.OutputField] = out
			r.mu.Unlock()
			result.Output = out
			r.router.Emit(target, router.CommandOutput, out+"\n")
		}
	} else {
		err = r.exec.Stream(r.ctx, runner.StreamRequest{Command: command, Dir: dir, ShellType: shellType}, runner.Handlers{
			Stdout: r.router.Stdout(target),
			Stderr: r.router.Stderr(target),
		})
	}
	result.Duration = time.Since(start)

	if err != nil {
		r.router.Emit(target, router.CommandError, "Error: "+err.Error()+"\n")
		err = &StepError{Step: s.Name, Repo: repoName, Err: err}
		r.logger.Error("step failed", "step", s.Name, "repo", repoName, "err", err)
	}
	result.Err = err
	r.record(result)

	if r.reporter != nil {
		r.reporter.StepFinished(target, err)
	}
	return err
}

func (r *run) record(res StepResult) {
	r.mu.Lock()
	r.report.Steps = append(r.report.Steps, res)
	r.mu.Unlock()
}

// variables layers builtins, step parameters, runtime parameters and captured
// outputs, later layers winning.
func (r *run) variables(s config.Step, repo *config.Repo) map[string]string {
	env := r.combo.Environment
	cred := r.project.DockerLogin[env]

	vars := map[string]string{
		"projectName":     r.project.Name,
		"projectPath":     r.project.Path,
		"environment":     env,
		"registry":        cred.Registry,
		"username":        cred.Username,
		"password":        cred.Password,
		"registrySiteUrl": r.cfg.RegistrySiteURL,
		"tempPath":        r.cfg.TempPath,
	}
	if repo != nil {
		vars[RepoName] = repo.Name
		vars[RepoPath] = repo.Path
	}
	maps.Copy(vars, r.cfg.ParametersFor(s.ID, env))
	maps.Copy(vars, r.params)

	r.mu.Lock()
	maps.Copy(vars, r.outputs)
	r.mu.Unlock()
	return vars
}

func findCombination(cfg *config.Config, ref string) (*config.StepCombination, bool) {
	if sc, ok := cfg.Combination(ref); ok {
		return sc, true
	}
	for i := range cfg.StepCombinations {
		if cfg.StepCombinations[i].Name == ref {
			return &cfg.StepCombinations[i], true
		}
	}
	return nil, false
}

func selectRepos(p *config.Project, names []string) ([]config.Repo, error) {
	if len(names) == 0 {
		return slices.Clone(p.Repos), nil
	}
	out := make([]config.Repo, 0, len(names))
	for _, name := range names {
		idx := slices.IndexFunc(p.Repos, func(r config.Repo) bool { return r.Name == name })
		if idx < 0 {
			return nil, fmt.Errorf("%w: %s in project %s", ErrUnknownRepo, name, p.Name)
		}
		out = append(out, p.Repos[idx])
	}
	return out, nil
}
