package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/harshul/deploy-helper/internal/config"
	"github.com/harshul/deploy-helper/internal/shell"
)

// RuntimeStatus represents the status of a runtime check
type RuntimeStatus struct {
	Name      string
	Installed bool
	Version   string
	Path      string
	Optional  bool
}

// PathStatus represents a configured directory and whether it exists
type PathStatus struct {
	Project string
	Repo    string // empty for the project root
	Path    string
	Exists  bool
}

// Diagnosis contains the full health check results
type Diagnosis struct {
	Runtimes []RuntimeStatus
	Paths    []PathStatus
	Healthy  bool
	Issues   []string
}

// Checker probes the local machine. The zero value uses the real system.
type Checker struct {
	// Platform defaults to the running OS.
	Platform string
	// LookPath resolves an executable name; exec.LookPath when nil.
	LookPath func(file string) (string, error)
	// Version runs an executable and returns the first line of its output.
	Version func(ctx context.Context, path string, args ...string) (string, error)
	// Stat reports whether a directory exists; os.Stat when nil.
	Stat func(path string) (os.FileInfo, error)
}

// Diagnose checks the shells and tools steps rely on and every configured
// project and repository path.
func (c Checker) Diagnose(ctx context.Context, cfg config.Config, resolver *shell.Resolver) Diagnosis {
	diagnosis := Diagnosis{
		Healthy: true,
		Issues:  []string{},
	}

	platform := c.Platform
	if platform == "" {
		platform = resolver.Platform
	}

	diagnosis.Runtimes = append(diagnosis.Runtimes, c.checkRuntime(ctx, "bash", resolver.Path(shell.Bash), false, "--version"))
	diagnosis.Runtimes = append(diagnosis.Runtimes, c.checkRuntime(ctx, "PowerShell", shell.PowerShellPath, platform != "windows", "-NoProfile", "-Command", "$PSVersionTable.PSVersion.ToString()"))
	diagnosis.Runtimes = append(diagnosis.Runtimes, c.checkRuntime(ctx, "git", "git", false, "--version"))
	diagnosis.Runtimes = append(diagnosis.Runtimes, c.checkRuntime(ctx, "docker", "docker", false, "--version"))

	for _, rt := range diagnosis.Runtimes {
		if !rt.Installed && !rt.Optional {
			diagnosis.Healthy = false
			diagnosis.Issues = append(diagnosis.Issues, rt.Name+" is not installed or not reachable at "+rt.Path)
		}
	}

	for _, p := range cfg.Projects {
		diagnosis.Paths = append(diagnosis.Paths, c.checkPath(p.Name, "", p.Path))
		for _, r := range p.Repos {
			diagnosis.Paths = append(diagnosis.Paths, c.checkPath(p.Name, r.Name, r.Path))
		}
	}

	for _, ps := range diagnosis.Paths {
		if ps.Exists {
			continue
		}
		diagnosis.Healthy = false
		if ps.Repo == "" {
			diagnosis.Issues = append(diagnosis.Issues, fmt.Sprintf("project %s: path %q does not exist", ps.Project, ps.Path))
		} else {
			diagnosis.Issues = append(diagnosis.Issues, fmt.Sprintf("project %s: repo %s path %q does not exist", ps.Project, ps.Repo, ps.Path))
		}
	}

	return diagnosis
}

// checkRuntime checks that an executable is reachable and records its version
func (c Checker) checkRuntime(ctx context.Context, name, executable string, optional bool, versionArgs ...string) RuntimeStatus {
	status := RuntimeStatus{Name: name, Path: executable, Optional: optional}

	lookPath := c.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	path, err := lookPath(executable)
	if err != nil {
		return status
	}
	status.Installed = true
	status.Path = path

	version := c.Version
	if version == nil {
		version = runVersion
	}
	if v, err := version(ctx, path, versionArgs...); err == nil {
		status.Version = v
	}
	return status
}

func (c Checker) checkPath(project, repo, path string) PathStatus {
	status := PathStatus{Project: project, Repo: repo, Path: path}
	if path == "" {
		return status
	}
	stat := c.Stat
	if stat == nil {
		stat = os.Stat
	}
	if info, err := stat(filepath.Clean(path)); err == nil && info.IsDir() {
		status.Exists = true
	}
	return status
}

// runVersion runs path with args and returns the first output line
func runVersion(ctx context.Context, path string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, path, args...).Output()
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(output)), "\n")
	return strings.TrimSpace(line), nil
}
