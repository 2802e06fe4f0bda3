package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddEnvironment(t *testing.T) {
	t.Parallel()

	var cfg Config
	require.NoError(t, cfg.AddEnvironment("dev"))
	require.NoError(t, cfg.AddEnvironment(" prod "))

	assert.ErrorIs(t, cfg.AddEnvironment("dev"), ErrExists)
	assert.ErrorIs(t, cfg.AddEnvironment(""), ErrEmptyName)
	assert.ErrorIs(t, cfg.AddEnvironment("manage-environments"), ErrReservedEnvironment)
	assert.Equal(t, []string{"dev", "prod"}, cfg.Environments)
}

func TestRemoveEnvironment_KeepsStaleCredentials(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Environments:        []string{"dev", "prod"},
		SelectedEnvironment: "dev",
		Projects: []Project{{
			ID:          "p1",
			DockerLogin: map[string]Credential{"dev": {Registry: "r"}},
		}},
	}

	assert.True(t, cfg.RemoveEnvironment("dev"))
	assert.False(t, cfg.RemoveEnvironment("dev"))

	assert.Equal(t, []string{"prod"}, cfg.Environments)
	assert.Empty(t, cfg.SelectedEnvironment)
	assert.Contains(t, cfg.Projects[0].DockerLogin, "dev")
}

func TestAddProject_AssignsIDAndDefaults(t *testing.T) {
	t.Parallel()

	var cfg Config
	p, err := cfg.AddProject(Project{Name: "Shop"})
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.NotNil(t, p.Repos)
	assert.NotNil(t, p.DockerLogin)

	_, err = cfg.AddProject(Project{ID: p.ID, Name: "Again"})
	assert.ErrorIs(t, err, ErrExists)

	_, err = cfg.AddProject(Project{})
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestRemoveProject_DropsItsCombinations(t *testing.T) {
	t.Parallel()

	cfg := Config{
		SelectedProject: "p1",
		Projects:        []Project{{ID: "p1"}, {ID: "p2"}},
		StepCombinations: []StepCombination{
			{ID: "a", ProjectID: "p1"},
			{ID: "b", ProjectID: "p2"},
		},
	}

	assert.True(t, cfg.RemoveProject("p1"))
	assert.False(t, cfg.RemoveProject("p1"))

	assert.Len(t, cfg.Projects, 1)
	assert.Equal(t, []StepCombination{{ID: "b", ProjectID: "p2"}}, cfg.StepCombinations)
	assert.Empty(t, cfg.SelectedProject)
}

func TestSetCredential(t *testing.T) {
	t.Parallel()

	cfg := Config{Environments: []string{"dev"}, Projects: []Project{{ID: "p1"}}}
	cred := Credential{Registry: "r", Username: "u", Password: "p"}

	require.NoError(t, cfg.SetCredential("p1", "dev", cred))
	assert.Equal(t, cred, cfg.Projects[0].DockerLogin["dev"])

	assert.ErrorIs(t, cfg.SetCredential("p1", "prod", cred), ErrNotFound)
	assert.ErrorIs(t, cfg.SetCredential("p9", "dev", cred), ErrNotFound)
	assert.ErrorIs(t, cfg.SetCredential("p1", "manage-environments", cred), ErrReservedEnvironment)
}

func TestAddStep_FillsDefaults(t *testing.T) {
	t.Parallel()

	var cfg Config
	s, err := cfg.AddStep(Step{Name: "tag", Command: "git describe", OutputField: "version"})
	require.NoError(t, err)

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, ShellBash, s.ShellType)
	assert.Equal(t, ModeSync, s.ExecutionMode)
	assert.True(t, s.HasOutputField)
	assert.False(t, s.HasOutputReference)
	assert.False(t, s.HasDirectory)
}

func TestAddCombination_ValidatesProjectAndEnvironment(t *testing.T) {
	t.Parallel()

	cfg := Config{Environments: []string{"dev"}, Projects: []Project{{ID: "p1"}}}

	sc, err := cfg.AddCombination(StepCombination{Name: "ship", ProjectID: "p1", Environment: "dev", Steps: []string{"ghost"}})
	require.NoError(t, err)
	assert.NotEmpty(t, sc.ID)

	_, err = cfg.AddCombination(StepCombination{Name: "ship", ProjectID: "p2", Environment: "dev"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = cfg.AddCombination(StepCombination{Name: "ship", ProjectID: "p1", Environment: "qa"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEnvironmentSpecificParameters(t *testing.T) {
	t.Parallel()

	cfg := Config{Steps: []Step{{ID: "s1"}}}

	assert.Equal(t, []Parameter{}, cfg.EnvironmentSpecificParameters("s1"))
	assert.Equal(t, []Parameter{}, cfg.EnvironmentSpecificParameters("missing"))

	assert.True(t, cfg.AddEnvironmentSpecificParameter("s1", Parameter{Name: "tag", Value: "latest"}))
	assert.False(t, cfg.AddEnvironmentSpecificParameter("missing", Parameter{Name: "tag"}))

	params := cfg.EnvironmentSpecificParameters("s1")
	assert.Equal(t, []Parameter{{Name: "tag", Value: "latest"}}, params)

	params[0].Value = "mutated"
	assert.Equal(t, "latest", cfg.Steps[0].EnvironmentSpecificParameters[0].Value)
}

func TestParametersFor_EnvironmentOverridesGeneric(t *testing.T) {
	t.Parallel()

	cfg := Config{Steps: []Step{{
		ID: "s1",
		EnvironmentSpecificParameters: []Parameter{
			{Name: "replicas", Environment: "prod", Value: "3"},
			{Name: "replicas", Value: "1"},
			{Name: "region", Value: "eu"},
			{Name: "debug", Environment: "dev", Value: "true"},
		},
	}}}

	assert.Equal(t, map[string]string{"replicas": "3", "region": "eu"}, cfg.ParametersFor("s1", "prod"))
	assert.Equal(t, map[string]string{"replicas": "1", "region": "eu", "debug": "true"}, cfg.ParametersFor("s1", "dev"))
	assert.Empty(t, cfg.ParametersFor("missing", "dev"))
}

func TestConfigJSON_PreservesUnknownFields(t *testing.T) {
	t.Parallel()

	var cfg Config
	require.NoError(t, cfg.UnmarshalJSON([]byte(`{"configVersion": 5, "environments": ["dev"], "theme": "dark"}`)))

	data, err := cfg.MarshalJSON()
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"configVersion": 5,
		"selectedProject": "",
		"selectedEnvironment": "",
		"gitBashPath": "",
		"registrySiteUrl": "",
		"tempPath": "",
		"projects": [],
		"environments": ["dev"],
		"steps": [],
		"stepCombinations": [],
		"theme": "dark"
	}`, string(data))
}
