// Package config holds the deploy-helper configuration document and the store
// that loads, migrates and persists it.
package config

import (
	"encoding/json"
	"maps"
	"reflect"
	"slices"

	"github.com/harshul/deploy-helper/internal/migrate"
)

// ShellType selects the interpreter a step runs under.
type ShellType string

const (
	ShellBash       ShellType = "bash"
	ShellPowerShell ShellType = "powershell"
)

// ExecutionMode controls whether the executor waits for a step.
type ExecutionMode string

const (
	ModeSync  ExecutionMode = "sync"
	ModeAsync ExecutionMode = "async"
)

// Credential is a container registry login. Passwords are stored in plaintext.
type Credential struct {
	Registry string `json:"registry"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Repo is a git repository belonging to a project.
type Repo struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Project is a deployment target with its repositories and per-environment
// registry credentials.
type Project struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Path        string                `json:"path"`
	Repos       []Repo                `json:"repos"`
	DockerLogin map[string]Credential `json:"dockerLogin"`

	extra members
}

// Parameter is a named value for a step. An empty Environment applies to
// every environment.
type Parameter struct {
	Name        string `json:"name"`
	Environment string `json:"environment,omitempty"`
	Value       string `json:"value"`

	extra members
}

// Step is a reusable shell command template.
type Step struct {
	ID                 string        `json:"id"`
	Name               string        `json:"name"`
	Command            string        `json:"command"`
	OutputField        string        `json:"outputField,omitempty"`
	OutputReference    string        `json:"outputReference,omitempty"`
	Directory          string        `json:"directory,omitempty"`
	HasOutputField     bool          `json:"hasOutputField"`
	HasOutputReference bool          `json:"hasOutputReference"`
	HasDirectory       bool          `json:"hasDirectory"`
	ExecutionMode      ExecutionMode `json:"executionMode,omitempty"`
	ShellType          ShellType     `json:"shellType,omitempty"`

	EnvironmentSpecificParameters []Parameter `json:"environmentSpecificParameters,omitempty"`

	// extra keeps members this build does not read, and blank ones it would
	// otherwise omit, so a save writes them back.
	extra members
}

// StepCombination is an ordered list of step ids bound to a project and an
// environment.
type StepCombination struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Steps       []string `json:"steps"`
	ProjectID   string   `json:"projectId"`
	Environment string   `json:"environment"`

	extra members
}

// Config is the root document persisted under the "config" store key.
type Config struct {
	ConfigVersion       int               `json:"configVersion"`
	SelectedProject     string            `json:"selectedProject"`
	SelectedEnvironment string            `json:"selectedEnvironment"`
	GitBashPath         string            `json:"gitBashPath"`
	RegistrySiteURL     string            `json:"registrySiteUrl"`
	TempPath            string            `json:"tempPath"`
	Projects            []Project         `json:"projects"`
	Environments        []string          `json:"environments"`
	Steps               []Step            `json:"steps"`
	StepCombinations    []StepCombination `json:"stepCombinations"`

	// extra keeps top-level fields this build does not know about so a save
	// does not drop them.
	extra members
}

// configFields has Config's layout without its JSON methods.
type configFields Config

var fieldKeys = jsonKeys(reflect.TypeOf(configFields{}))

// IsField reports whether key names a top-level Config field.
func IsField(key string) bool {
	_, ok := fieldKeys[key]
	return ok
}

// MarshalJSON writes the known fields followed by any preserved unknown ones.
func (c Config) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(configFields(c.normalized()))
	if err != nil {
		return nil, err
	}
	return c.extra.merge(base)
}

// UnmarshalJSON decodes the known fields and keeps the rest aside.
func (c *Config) UnmarshalJSON(data []byte) error {
	var fields configFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	extra, err := splitMembers(data, fieldKeys)
	if err != nil {
		return err
	}
	fields.extra = extra
	*c = Config(fields)
	return nil
}

// normalized returns a copy with nil collections replaced by empty ones so the
// document always serializes arrays and objects rather than null.
func (c Config) normalized() Config {
	c = c.Clone()
	if c.Projects == nil {
		c.Projects = []Project{}
	}
	if c.Environments == nil {
		c.Environments = []string{}
	}
	if c.Steps == nil {
		c.Steps = []Step{}
	}
	if c.StepCombinations == nil {
		c.StepCombinations = []StepCombination{}
	}
	for i := range c.Projects {
		if c.Projects[i].Repos == nil {
			c.Projects[i].Repos = []Repo{}
		}
		if c.Projects[i].DockerLogin == nil {
			c.Projects[i].DockerLogin = map[string]Credential{}
		}
	}
	for i := range c.StepCombinations {
		if c.StepCombinations[i].Steps == nil {
			c.StepCombinations[i].Steps = []string{}
		}
	}
	return c
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	out := c
	out.Environments = slices.Clone(c.Environments)
	out.extra = maps.Clone(c.extra)

	if c.Projects != nil {
		out.Projects = make([]Project, len(c.Projects))
		for i, p := range c.Projects {
			p.Repos = slices.Clone(p.Repos)
			p.DockerLogin = maps.Clone(p.DockerLogin)
			p.extra = maps.Clone(p.extra)
			out.Projects[i] = p
		}
	}
	if c.Steps != nil {
		out.Steps = make([]Step, len(c.Steps))
		for i, s := range c.Steps {
			s.extra = maps.Clone(s.extra)
			if s.EnvironmentSpecificParameters != nil {
				params := make([]Parameter, len(s.EnvironmentSpecificParameters))
				for j, p := range s.EnvironmentSpecificParameters {
					p.extra = maps.Clone(p.extra)
					params[j] = p
				}
				s.EnvironmentSpecificParameters = params
			}
			out.Steps[i] = s
		}
	}
	if c.StepCombinations != nil {
		out.StepCombinations = make([]StepCombination, len(c.StepCombinations))
		for i, sc := range c.StepCombinations {
			sc.Steps = slices.Clone(sc.Steps)
			sc.extra = maps.Clone(sc.extra)
			out.StepCombinations[i] = sc
		}
	}
	return out
}

// DefaultDocument is the document used on first run, before migrations.
func DefaultDocument() migrate.Document {
	return migrate.Document{
		migrate.VersionKey:    float64(1),
		"selectedProject":     "",
		"selectedEnvironment": "",
		"gitBashPath":         "",
		"registrySiteUrl":     "",
		"tempPath":            "",
		"projects":            []any{},
		"environments":        []any{},
		"steps":               []any{},
		"stepCombinations":    []any{},
	}
}

// decode converts a generic document into a Config.
func decode(doc migrate.Document) (Config, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// fields returns c as a generic top-level map keyed by JSON field name.
func (c Config) fields() (map[string]any, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
