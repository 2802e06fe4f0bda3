package config

import "errors"

var (
	ErrEmptyPassword = errors.New("config: new password is empty")
	ErrNoTargets     = errors.New("config: no registry targets selected")
)

// RegistryTarget addresses one project's credential in one environment.
type RegistryTarget struct {
	ProjectID   string `json:"projectId"`
	Environment string `json:"environment"`
}

// HasRegistryConfig reports whether the project has a credential for env.
func (c *Config) HasRegistryConfig(projectID, env string) bool {
	p, ok := c.Project(projectID)
	if !ok || p.DockerLogin == nil {
		return false
	}
	_, ok = p.DockerLogin[env]
	return ok
}

// RegistryTargets lists every configured credential, by project then by
// environment order.
func (c *Config) RegistryTargets() []RegistryTarget {
	var out []RegistryTarget
	for _, p := range c.Projects {
		for _, env := range c.Environments {
			if _, ok := p.DockerLogin[env]; ok {
				out = append(out, RegistryTarget{ProjectID: p.ID, Environment: env})
			}
		}
	}
	return out
}

// UpdateRegistryPassword sets the password of every project's credential in
// env and returns how many changed.
func (c *Config) UpdateRegistryPassword(env, password string) (int, error) {
	if env == "" {
		return 0, ErrNoTargets
	}
	if password == "" {
		return 0, ErrEmptyPassword
	}
	n := 0
	for i := range c.Projects {
		if c.setPassword(&c.Projects[i], env, password) {
			n++
		}
	}
	return n, nil
}

// UpdateRegistryPasswordAll sets the password of every credential in every
// configured environment.
func (c *Config) UpdateRegistryPasswordAll(password string) (int, error) {
	if password == "" {
		return 0, ErrEmptyPassword
	}
	n := 0
	for i := range c.Projects {
		for _, env := range c.Environments {
			if c.setPassword(&c.Projects[i], env, password) {
				n++
			}
		}
	}
	return n, nil
}

// UpdateRegistryPasswordTargets sets the password for exactly the given
// targets. Targets without a credential are skipped.
func (c *Config) UpdateRegistryPasswordTargets(targets []RegistryTarget, password string) (int, error) {
	if len(targets) == 0 {
		return 0, ErrNoTargets
	}
	if password == "" {
		return 0, ErrEmptyPassword
	}
	n := 0
	for _, t := range targets {
		p, ok := c.Project(t.ProjectID)
		if !ok {
			continue
		}
		if c.setPassword(p, t.Environment, password) {
			n++
		}
	}
	return n, nil
}

// setPassword only touches the password; registry and username stay.
func (c *Config) setPassword(p *Project, env, password string) bool {
	if p.DockerLogin == nil {
		p.DockerLogin = map[string]Credential{}
	}
	cred, ok := p.DockerLogin[env]
	if !ok {
		return false
	}
	cred.Password = password
	p.DockerLogin[env] = cred
	return true
}
