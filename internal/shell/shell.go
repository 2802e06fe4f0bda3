// Package shell picks the interpreter a step runs under.
package shell

import (
	"runtime"
	"strings"
)

// Shell types understood by Resolve. Anything else is treated as bash.
const (
	Bash       = "bash"
	PowerShell = "powershell"
)

// PowerShellPath is the executable used for powershell steps.
const PowerShellPath = "powershell.exe"

// DefaultBashPath returns the bash location assumed when no override is set.
func DefaultBashPath(platform string) string {
	switch platform {
	case "windows", "win32":
		return `C:\Program Files\Git\bin\bash.exe`
	case "darwin":
		return "/usr/local/bin/bash"
	default:
		return "/bin/bash"
	}
}

// Resolve returns the shell executable for shellType on platform. The
// override only applies to bash steps.
func Resolve(shellType, platform, override string) string {
	if shellType == PowerShell {
		return PowerShellPath
	}
	if override = strings.TrimSpace(override); override != "" {
		return override
	}
	return DefaultBashPath(platform)
}

// Resolver resolves shells for the running platform, reading the bash
// override on every call so a changed setting takes effect immediately.
type Resolver struct {
	// Override returns the configured bash path, or "".
	Override func() string
	// Platform defaults to runtime.GOOS.
	Platform string
}

// NewResolver returns a Resolver for the current platform.
func NewResolver(override func() string) *Resolver {
	return &Resolver{Override: override, Platform: runtime.GOOS}
}

// Path returns the executable for shellType.
func (r *Resolver) Path(shellType string) string {
	platform := r.Platform
	if platform == "" {
		platform = runtime.GOOS
	}
	var override string
	if r.Override != nil {
		override = r.Override()
	}
	return Resolve(shellType, platform, override)
}

// Command returns the argv that runs script under shellType. Args reach the
// script as separate arguments and are never parsed by the shell.
func (r *Resolver) Command(shellType, script string, args ...string) []string {
	return Argv(r.Path(shellType), shellType, script, args)
}

// ArgvZero is $0 for bash scripts that receive arguments.
const ArgvZero = "deploy-helper"

// Argv builds the argv that runs script with path. Bash gets the args as
// positional parameters expanded by "$@"; PowerShell gets each one as a
// single-quoted literal.
func Argv(path, shellType, script string, args []string) []string {
	if len(args) == 0 {
		return []string{path, "-c", script}
	}
	if shellType == PowerShell {
		quoted := make([]string, len(args))
		for i, a := range args {
			quoted[i] = "'" + strings.ReplaceAll(a, "'", "''") + "'"
		}
		return []string{path, "-c", script + " " + strings.Join(quoted, " ")}
	}
	return append([]string{path, "-c", script + ` "$@"`, ArgvZero}, args...)
}
