package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/harshul/deploy-helper/internal/migrate"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrExists              = errors.New("already exists")
	ErrEmptyName           = errors.New("name is required")
	ErrReservedEnvironment = fmt.Errorf("environment name %q is reserved", migrate.ManageEnvironmentsSentinel)
)

// NewID returns a fresh identifier for projects, steps and combinations.
func NewID() string {
	return uuid.NewString()
}

// Project returns the project with id.
func (c *Config) Project(id string) (*Project, bool) {
	for i := range c.Projects {
		if c.Projects[i].ID == id {
			return &c.Projects[i], true
		}
	}
	return nil, false
}

// Step returns the step with id.
func (c *Config) Step(id string) (*Step, bool) {
	for i := range c.Steps {
		if c.Steps[i].ID == id {
			return &c.Steps[i], true
		}
	}
	return nil, false
}

// Combination returns the step combination with id.
func (c *Config) Combination(id string) (*StepCombination, bool) {
	for i := range c.StepCombinations {
		if c.StepCombinations[i].ID == id {
			return &c.StepCombinations[i], true
		}
	}
	return nil, false
}

// HasEnvironment reports whether name is a configured environment.
func (c *Config) HasEnvironment(name string) bool {
	return slices.Contains(c.Environments, name)
}

// AddEnvironment appends a new environment.
func (c *Config) AddEnvironment(name string) error {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return ErrEmptyName
	case name == migrate.ManageEnvironmentsSentinel:
		return ErrReservedEnvironment
	case c.HasEnvironment(name):
		return fmt.Errorf("environment %q: %w", name, ErrExists)
	}
	c.Environments = append(c.Environments, name)
	return nil
}

// RemoveEnvironment drops name from the environment list. Credentials stored
// under it stay in place. It reports whether anything was removed.
func (c *Config) RemoveEnvironment(name string) bool {
	i := slices.Index(c.Environments, name)
	if i < 0 {
		return false
	}
	c.Environments = slices.Delete(c.Environments, i, i+1)
	if c.SelectedEnvironment == name {
		c.SelectedEnvironment = ""
	}
	return true
}

// AddProject appends p, assigning an id when it has none, and returns the
// stored project.
func (c *Config) AddProject(p Project) (Project, error) {
	if strings.TrimSpace(p.Name) == "" {
		return Project{}, ErrEmptyName
	}
	if p.ID == "" {
		p.ID = NewID()
	}
	if _, exists := c.Project(p.ID); exists {
		return Project{}, fmt.Errorf("project %q: %w", p.ID, ErrExists)
	}
	if p.Repos == nil {
		p.Repos = []Repo{}
	}
	if p.DockerLogin == nil {
		p.DockerLogin = map[string]Credential{}
	}
	c.Projects = append(c.Projects, p)
	return p, nil
}

// RemoveProject deletes the project and the combinations bound to it.
func (c *Config) RemoveProject(id string) bool {
	i := slices.IndexFunc(c.Projects, func(p Project) bool { return p.ID == id })
	if i < 0 {
		return false
	}
	c.Projects = slices.Delete(c.Projects, i, i+1)
	c.StepCombinations = slices.DeleteFunc(c.StepCombinations, func(sc StepCombination) bool {
		return sc.ProjectID == id
	})
	if c.SelectedProject == id {
		c.SelectedProject = ""
	}
	return true
}

// AddRepo appends a repository to a project.
func (c *Config) AddRepo(projectID string, repo Repo) error {
	p, ok := c.Project(projectID)
	if !ok {
		return fmt.Errorf("project %q: %w", projectID, ErrNotFound)
	}
	if repo.Name == "" {
		return ErrEmptyName
	}
	if slices.ContainsFunc(p.Repos, func(r Repo) bool { return r.Name == repo.Name }) {
		return fmt.Errorf("repo %q: %w", repo.Name, ErrExists)
	}
	p.Repos = append(p.Repos, repo)
	return nil
}

// SetCredential stores the registry login for a project in env.
func (c *Config) SetCredential(projectID, env string, cred Credential) error {
	p, ok := c.Project(projectID)
	if !ok {
		return fmt.Errorf("project %q: %w", projectID, ErrNotFound)
	}
	if env == migrate.ManageEnvironmentsSentinel {
		return ErrReservedEnvironment
	}
	if !c.HasEnvironment(env) {
		return fmt.Errorf("environment %q: %w", env, ErrNotFound)
	}
	if p.DockerLogin == nil {
		p.DockerLogin = map[string]Credential{}
	}
	p.DockerLogin[env] = cred
	return nil
}

// AddStep appends s to the global step pool, filling the id, shell and mode
// defaults.
func (c *Config) AddStep(s Step) (Step, error) {
	if strings.TrimSpace(s.Name) == "" {
		return Step{}, ErrEmptyName
	}
	if s.ID == "" {
		s.ID = NewID()
	}
	if _, exists := c.Step(s.ID); exists {
		return Step{}, fmt.Errorf("step %q: %w", s.ID, ErrExists)
	}
	if s.ShellType == "" {
		s.ShellType = ShellBash
	}
	if s.ExecutionMode == "" {
		s.ExecutionMode = ModeSync
	}
	s.HasOutputField = s.OutputField != ""
	s.HasOutputReference = s.OutputReference != ""
	s.HasDirectory = s.Directory != ""
	c.Steps = append(c.Steps, s)
	return s, nil
}

// AddCombination appends sc. The project and environment must exist; step ids
// are not checked.
func (c *Config) AddCombination(sc StepCombination) (StepCombination, error) {
	if strings.TrimSpace(sc.Name) == "" {
		return StepCombination{}, ErrEmptyName
	}
	if _, ok := c.Project(sc.ProjectID); !ok {
		return StepCombination{}, fmt.Errorf("project %q: %w", sc.ProjectID, ErrNotFound)
	}
	if !c.HasEnvironment(sc.Environment) {
		return StepCombination{}, fmt.Errorf("environment %q: %w", sc.Environment, ErrNotFound)
	}
	if sc.ID == "" {
		sc.ID = NewID()
	}
	if _, exists := c.Combination(sc.ID); exists {
		return StepCombination{}, fmt.Errorf("combination %q: %w", sc.ID, ErrExists)
	}
	if sc.Steps == nil {
		sc.Steps = []string{}
	}
	c.StepCombinations = append(c.StepCombinations, sc)
	return sc, nil
}

// AddEnvironmentSpecificParameter appends p to a step's parameters. Unknown
// steps are ignored; the return value reports whether the step was found.
func (c *Config) AddEnvironmentSpecificParameter(stepID string, p Parameter) bool {
	s, ok := c.Step(stepID)
	if !ok {
		return false
	}
	s.EnvironmentSpecificParameters = append(s.EnvironmentSpecificParameters, p)
	return true
}

// EnvironmentSpecificParameters returns a copy of a step's parameters, or an
// empty list when the step is unknown or has none.
func (c *Config) EnvironmentSpecificParameters(stepID string) []Parameter {
	s, ok := c.Step(stepID)
	if !ok || len(s.EnvironmentSpecificParameters) == 0 {
		return []Parameter{}
	}
	return slices.Clone(s.EnvironmentSpecificParameters)
}

// ParametersFor resolves a step's parameters for env. Parameters without an
// environment apply first; environment-specific ones override them.
func (c *Config) ParametersFor(stepID, env string) map[string]string {
	out := map[string]string{}
	params := c.EnvironmentSpecificParameters(stepID)
	for _, p := range params {
		if p.Environment == "" {
			out[p.Name] = p.Value
		}
	}
	for _, p := range params {
		if p.Environment != "" && p.Environment == env {
			out[p.Name] = p.Value
		}
	}
	return out
}
