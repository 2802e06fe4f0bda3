// Package runner executes shell commands, either buffered or streaming their
// output chunk by chunk.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// CompletionMessage is emitted on stdout after a streamed command exits 0.
const CompletionMessage = "Command completed successfully\n"

// SpawnError means the process could not be started (missing shell,
// bad working directory, permissions).
type SpawnError struct {
	Shell string
	Err   error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Shell, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// ExitError means the process ran and exited with a non-zero status.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command exited with code %d", e.Code)
}

// ExecutionError is returned by Run. It wraps a *SpawnError or *ExitError.
type ExecutionError struct {
	Command string
	Err     error
}

func (e *ExecutionError) Error() string {
	msg := fmt.Sprintf("command failed: %v", e.Err)
	var exitErr *ExitError
	if errors.As(e.Err, &exitErr) && exitErr.Stderr != "" {
		msg += ": " + exitErr.Stderr
	}
	return msg
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Shells builds the argv for a script under a shell type. Args must reach
// the script as an argument vector, not as shell text.
type Shells interface {
	Command(shellType, script string, args ...string) []string
}

// Request is a buffered command execution.
type Request struct {
	Command   string
	Args      []string
	Dir       string
	ShellType string
}

// StreamRequest is a streaming execution. Args are passed to Command as
// separate arguments.
type StreamRequest struct {
	Command   string
	Args      []string
	Dir       string
	ShellType string
}

// Line returns the command line for display.
func (r StreamRequest) Line() string {
	if len(r.Args) == 0 {
		return r.Command
	}
	return r.Command + " " + strings.Join(r.Args, " ")
}

// Handlers receive streamed output. Stdout and Stderr may be called
// concurrently; each is called in arrival order for its own stream.
type Handlers struct {
	Stdout func(chunk string)
	Stderr func(chunk string)
}

// Runner starts one child process per call.
type Runner struct {
	shells Shells
	env    []string
	logger *log.Logger
}

// Option customizes a Runner.
type Option func(*Runner)

// WithEnv appends KEY=VALUE pairs to the inherited environment.
func WithEnv(env ...string) Option {
	return func(r *Runner) {
		r.env = append(r.env, env...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New returns a Runner that resolves shells through shells.
func New(shells Shells, opts ...Option) *Runner {
	r := &Runner{shells: shells, logger: log.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) command(ctx context.Context, shellType, script, dir string, args []string) *exec.Cmd {
	argv := r.shells.Command(shellType, script, args...)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	if len(r.env) > 0 {
		cmd.Env = append(os.Environ(), r.env...)
	}
	r.logger.Debug("starting command", "shell", argv[0], "dir", dir)
	return cmd
}

// Run executes req and returns its trimmed stdout.
func (r *Runner) Run(ctx context.Context, req Request) (string, error) {
	cmd := r.command(ctx, req.ShellType, req.Command, req.Dir, req.Args)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return "", &ExecutionError{Command: req.Command, Err: &SpawnError{Shell: cmd.Path, Err: err}}
	}
	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &ExecutionError{
				Command: req.Command,
				Err:     &ExitError{Code: exitErr.ExitCode(), Stderr: strings.TrimSpace(stderr.String())},
			}
		}
		return "", &ExecutionError{Command: req.Command, Err: fmt.Errorf("waiting for command: %w", err)}
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Stream executes req, forwarding output chunks as they arrive. On a zero
// exit CompletionMessage is sent to h.Stdout as the final event and nil is
// returned. A spawn failure emits nothing.
func (r *Runner) Stream(ctx context.Context, req StreamRequest, h Handlers) error {
	cmd := r.command(ctx, req.ShellType, req.Command, req.Dir, req.Args)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &SpawnError{Shell: cmd.Path, Err: fmt.Errorf("creating stdout pipe: %w", err)}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return &SpawnError{Shell: cmd.Path, Err: fmt.Errorf("creating stderr pipe: %w", err)}
	}

	if err := cmd.Start(); err != nil {
		return &SpawnError{Shell: cmd.Path, Err: err}
	}

	// Both pipes must be drained before Wait closes them.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		forward(stdout, h.Stdout)
	}()
	go func() {
		defer wg.Done()
		forward(stderr, h.Stderr)
	}()
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			r.logger.Debug("command exited with error", "code", exitErr.ExitCode())
			return &ExitError{Code: exitErr.ExitCode()}
		}
		return fmt.Errorf("waiting for command: %w", err)
	}

	if h.Stdout != nil {
		h.Stdout(CompletionMessage)
	}
	return nil
}

// forward copies chunks from rd to fn until EOF. Output is drained even when
// fn is nil so the child never blocks on a full pipe.
func forward(rd io.Reader, fn func(string)) {
	buf := make([]byte, 32*1024)
	for {
		n, err := rd.Read(buf)
		if n > 0 && fn != nil {
			fn(string(buf[:n]))
		}
		if err != nil {
			return
		}
	}
}
