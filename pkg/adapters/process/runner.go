package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"slices"
	"sort"
	"time"
)

// ErrNotRegistered is returned when a tool is not in the allow-list.
var ErrNotRegistered = errors.New("process tool not registered")

// Result is the outcome of a finished process.
type Result struct {
	// Good is true when the process exited with status 0.
	Good       bool
	ReturnCode int
	Stdout     string
	Stderr     string
	Duration   time.Duration
}

// Runner executes local processes.
// It follows a Strict Registry pattern for security (Allow-Listing): only
// registered commands run, and callers can only append arguments.
type Runner struct {
	registry map[string]RegisteredProcess
	baseDir  string
	logger   *slog.Logger
}

// RegisteredProcess defines a allowed command execution.
type RegisteredProcess struct {
	Command string
	Args    []string // Leading args, before the caller's
	Env     []string
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithRegistry populates the allow-list from a loaded config.
// Jar tools are run with java, which must be set for them.
func WithRegistry(tools map[string]ProcessConfig, java string, javaOpts ...string) RunnerOption {
	return func(r *Runner) {
		for name, tool := range tools {
			command, args := tool.Command, tool.Args
			if tool.Jar != "" {
				command = java
				args = append(append(slices.Clone(javaOpts), "-jar", tool.Jar), tool.Args...)
			}
			if command == "" {
				continue
			}
			r.Register(name, command, args...)
			for k, v := range tool.Environment {
				p := r.registry[name]
				p.Env = append(p.Env, k+"="+v)
				r.registry[name] = p
			}
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = l
	}
}

// NewRunner creates a new Process Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(map[string]RegisteredProcess),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted command to the allow-list.
func (r *Runner) Register(name string, command string, args ...string) {
	r.registry[name] = RegisteredProcess{
		Command: command,
		Args:    args,
	}
}

// Registered reports whether name is in the allow-list.
func (r *Runner) Registered(name string) bool {
	_, ok := r.registry[name]
	return ok
}

// Tools returns the registered tool names, sorted.
func (r *Runner) Tools() []string {
	names := make([]string, 0, len(r.registry))
	for name := range r.registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes a registered tool with extra arguments appended.
//
// A process that runs and exits non-zero is not an error: the status is in
// the Result. Errors are reserved for tools that are not registered, commands
// that cannot be started, and cancellation.
func (r *Runner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	proc, ok := r.registry[name]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}

	// 1. Prepare Command
	cmd := exec.CommandContext(ctx, proc.Command, append(slices.Clone(proc.Args), args...)...)
	cmd.Dir = r.baseDir
	if len(proc.Env) > 0 {
		cmd.Env = append(cmd.Environ(), proc.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// 2. Run
	start := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	// 3. Classify
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		res.Good = true
	case ctx.Err() != nil:
		return res, ctx.Err()
	case errors.As(err, &exitErr):
		res.ReturnCode = exitErr.ExitCode()
	default:
		return res, fmt.Errorf("failed to run %s: %w", name, err)
	}

	r.logger.Debug("Process finished", "tool", name, "code", res.ReturnCode, "duration", res.Duration)
	return res, nil
}
