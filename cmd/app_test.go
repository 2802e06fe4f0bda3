package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harshul/deploy-helper/internal/config"
	"github.com/harshul/deploy-helper/internal/deploy"
	"github.com/harshul/deploy-helper/internal/kvstore"
	"github.com/harshul/deploy-helper/internal/migrate"
	"github.com/harshul/deploy-helper/internal/router"
	"github.com/harshul/deploy-helper/internal/ui"
)

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", maskSecret(""))
	assert.Equal(t, "******", maskSecret("hunter"))
	assert.Equal(t, "ab********yz", maskSecret("ab12345678yz"))
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, "plain", parseValue("plain"))
	assert.Equal(t, float64(3), parseValue("3"))
	assert.Equal(t, true, parseValue("true"))
	assert.Equal(t, []any{"a", "b"}, parseValue(`["a","b"]`))
}

func TestFindProject(t *testing.T) {
	cfg := &config.Config{Projects: []config.Project{
		{ID: "1", Name: "Shop"},
		{ID: "2", Name: "blog"},
		{ID: "3", Name: "Blog"},
	}}

	p, err := findProject(cfg, "1")
	require.NoError(t, err)
	assert.Equal(t, "Shop", p.Name)

	p, err = findProject(cfg, "shop")
	require.NoError(t, err)
	assert.Equal(t, "1", p.ID)

	_, err = findProject(cfg, "blog")
	assert.ErrorContains(t, err, "ambiguous")

	_, err = findProject(cfg, "nope")
	assert.ErrorIs(t, err, config.ErrNotFound)
}

func TestWindowReporter(t *testing.T) {
	r := &windowReporter{ws: ui.NewWorkspace()}

	ok := r.StepStarted(config.Step{Name: "build"}, "")
	bad := r.StepStarted(config.Step{Name: "deploy"}, "api")
	stopped := r.StepStarted(config.Step{Name: "watch"}, "")

	okWin, isWindow := ok.(*ui.Window)
	require.True(t, isWindow)
	assert.Equal(t, ui.StatusRunning, okWin.Status())
	assert.Equal(t, "deploy · api", bad.(*ui.Window).Name)

	r.StepFinished(ok, nil)
	r.StepFinished(bad, errors.New("exit 1"))
	r.StepFinished(stopped, context.Canceled)
	r.StepFinished(nil, nil)

	assert.Equal(t, ui.StatusSuccess, okWin.Status())
	assert.Equal(t, ui.StatusError, bad.(*ui.Window).Status())
	assert.Equal(t, ui.StatusStopped, stopped.(*ui.Window).Status())
	require.Len(t, r.failed, 1)
	assert.Equal(t, "deploy · api", r.failed[0].Name)
}

// execute runs the root command against a store in dir
func execute(t *testing.T, store string, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(append([]string{"--store", store, "--no-tui", "--log-level", "error"}, args...))
	return rootCmd.Execute()
}

func TestCommands_BuildCatalogue(t *testing.T) {
	dir := t.TempDir()
	store := filepath.Join(dir, "config.json")
	projectDir := filepath.Join(dir, "shop")
	require.NoError(t, os.Mkdir(projectDir, 0o755))

	require.NoError(t, execute(t, store, "env", "add", "prod"))
	require.NoError(t, execute(t, store, "project", "add", "shop", projectDir))
	require.NoError(t, execute(t, store, "project", "login", "shop", "prod",
		"--registry", "registry.example.com", "--username", "ci", "--password", "old"))
	require.NoError(t, execute(t, store, "step", "add", "build", "echo {environment}"))
	require.NoError(t, execute(t, store, "step", "param", "build", "tag", "v1", "--env", "prod"))
	require.NoError(t, execute(t, store, "combo", "add", "release", "build", "--project", "shop", "--env", "prod"))
	require.NoError(t, execute(t, store, "registry", "password", "--env", "prod", "--password", "new"))

	s := config.NewStore(kvstore.New(store))
	cfg, err := s.Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"prod"}, cfg.Environments)
	require.Len(t, cfg.Projects, 1)
	assert.Equal(t, "new", cfg.Projects[0].DockerLogin["prod"].Password)
	assert.Equal(t, "ci", cfg.Projects[0].DockerLogin["prod"].Username)
	require.Len(t, cfg.Steps, 1)
	assert.Equal(t, map[string]string{"tag": "v1"}, cfg.ParametersFor(cfg.Steps[0].ID, "prod"))
	require.Len(t, cfg.StepCombinations, 1)
	assert.Equal(t, []string{cfg.Steps[0].ID}, cfg.StepCombinations[0].Steps)

	assert.ErrorIs(t, execute(t, store, "env", "add", "prod"), config.ErrExists)
	assert.ErrorIs(t, execute(t, store, "env", "add", "manage-environments"), config.ErrReservedEnvironment)
}

func TestCommands_ConfigSetAndExport(t *testing.T) {
	dir := t.TempDir()
	store := filepath.Join(dir, "config.json")
	export := filepath.Join(dir, "backup.json")

	require.NoError(t, execute(t, store, "config", "set", "tempPath", "/tmp/deploy"))
	require.NoError(t, execute(t, store, "config", "export", export))

	other := filepath.Join(dir, "other.json")
	require.NoError(t, execute(t, other, "config", "import", export, "--yes"))

	cfg, err := config.NewStore(kvstore.New(other)).Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/deploy", cfg.TempPath)

	assert.ErrorIs(t, execute(t, store, "config", "set", "notAField", "x"), config.ErrUnknownField)
}

func TestCommands_ImportOverCorruptStore(t *testing.T) {
	dir := t.TempDir()
	store := filepath.Join(dir, "config.json")
	backup := filepath.Join(dir, "backup.json")
	require.NoError(t, os.WriteFile(store, []byte(`{"config": {`), 0o600))
	require.NoError(t, os.WriteFile(backup, []byte(`{"config": {"configVersion": 5, "environments": ["prod"]}}`), 0o600))

	assert.Error(t, execute(t, store, "env", "add", "dev"))
	require.NoError(t, execute(t, store, "config", "import", backup, "--yes"))
	require.NoError(t, execute(t, store, "env", "add", "dev"))

	cfg, err := config.NewStore(kvstore.New(store)).Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"prod", "dev"}, cfg.Environments)
}

func TestCommands_AddWithoutTerminalNeedsArguments(t *testing.T) {
	store := filepath.Join(t.TempDir(), "config.json")

	err := execute(t, store, "project", "add", "shop")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing argument: project path")

	err = execute(t, store, "step", "add")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing argument: step name")
}

func TestForwardVersionMessage(t *testing.T) {
	latest := migrate.Default().Latest()
	msg := forwardVersionMessage(latest+4, latest)

	assert.Contains(t, msg, "Stored version "+strconv.Itoa(latest+4))
	assert.Contains(t, msg, "(latest "+strconv.Itoa(latest)+")")
}

func TestPrintReport_NumbersSteps(t *testing.T) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	printReport(cmd, deploy.Report{
		Combination: "release",
		Project:     "shop",
		Environment: "prod",
		Steps: []deploy.StepResult{
			{Name: "build", Duration: time.Second},
			{Name: "push", Repo: "api", Err: errors.New("denied")},
		},
	})

	got := out.String()
	assert.Contains(t, got, "[1/2]")
	assert.Contains(t, got, "build")
	assert.Contains(t, got, "[2/2]")
	assert.Contains(t, got, "push (api)")
	assert.Contains(t, got, "denied")
}

func TestPrintFailures_ShowsWindowTail(t *testing.T) {
	r := &windowReporter{ws: ui.NewWorkspace()}
	w := r.StepStarted(config.Step{Name: "deploy"}, "")
	for i := 0; i < 5; i++ {
		w.Send(router.CommandOutput, "preamble\n")
	}
	for i := 0; i < failureTailLines; i++ {
		w.Send(router.CommandError, "line "+strconv.Itoa(i)+"\n")
	}
	r.StepFinished(w, errors.New("exit status 1"))

	var errOut bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetErr(&errOut)
	r.printFailures(cmd)

	got := errOut.String()
	assert.Contains(t, got, "deploy")
	assert.Contains(t, got, "line 0")
	assert.Contains(t, got, "line "+strconv.Itoa(failureTailLines-1))
	assert.NotContains(t, got, "preamble")
}
