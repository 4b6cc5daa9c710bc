package java

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/aretw0/teiinfo/pkg/adapters/process"
	"github.com/aretw0/teiinfo/pkg/domain"
)

// Tool names in the process registry.
const (
	ToolJing    = "jing"
	ToolTrang   = "trang"
	toolVersion = "java-version"
)

// Executor runs an allow-listed tool. *process.Runner satisfies it.
type Executor interface {
	Run(ctx context.Context, name string, args ...string) (process.Result, error)
}

// Tools validates and converts schemas with the Java tools.
type Tools struct {
	exec   Executor
	logger *slog.Logger
	now    func() time.Time
}

// Option configures Tools.
type Option func(*Tools)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tools) {
		t.logger = l
	}
}

// WithExecutor replaces the process runner, mainly for tests.
func WithExecutor(e Executor) Option {
	return func(t *Tools) {
		t.exec = e
	}
}

// WithClock overrides the time source of validation reports.
func WithClock(now func() time.Time) Option {
	return func(t *Tools) {
		t.now = now
	}
}

// New creates the adapter from a tools configuration. The java binary
// defaults to "java" on the PATH.
func New(cfg process.ConfigFile, opts ...Option) *Tools {
	t := &Tools{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.exec == nil {
		java := cfg.Java
		if java == "" {
			java = "java"
		}
		runner := process.NewRunner(
			process.WithRegistry(cfg.ToolMap(), java, cfg.JavaOpts...),
			process.WithLogger(t.logger),
		)
		runner.Register(toolVersion, java, "-version")
		t.exec = runner
	}
	return t
}

// Load reads tools.yaml (or tools.json) and creates the adapter.
func Load(path string, opts ...Option) (*Tools, error) {
	cfg, err := process.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return New(cfg, opts...), nil
}

// JavaVersion returns the first line printed by "java -version".
func (t *Tools) JavaVersion(ctx context.Context) (string, error) {
	res, err := t.run(ctx, toolVersion)
	if err != nil {
		return "", err
	}
	if !res.Good {
		return "", fmt.Errorf("java -version exited with status %d: %s", res.ReturnCode, strings.TrimSpace(res.Stderr))
	}
	// The version goes to stderr.
	out := strings.TrimSpace(res.Stderr + "\n" + res.Stdout)
	line, _, _ := strings.Cut(out, "\n")
	return strings.TrimSpace(line), nil
}

// run maps process errors onto the domain errors.
func (t *Tools) run(ctx context.Context, tool string, args ...string) (process.Result, error) {
	res, err := t.exec.Run(ctx, tool, args...)
	switch {
	case err == nil:
		return res, nil
	case errors.Is(err, process.ErrNotRegistered):
		return res, fmt.Errorf("%w: %s", domain.ErrToolNotConfigured, tool)
	case errors.Is(err, exec.ErrNotFound), missingExecutable(err):
		return res, fmt.Errorf("%w: %v", domain.ErrJavaNotFound, err)
	}
	return res, err
}

// missingExecutable reports a configured java path that does not exist.
// A missing working directory is not the executable's fault.
func missingExecutable(err error) bool {
	var pathErr *fs.PathError
	return errors.As(err, &pathErr) && pathErr.Op != "chdir" && errors.Is(pathErr.Err, fs.ErrNotExist)
}
