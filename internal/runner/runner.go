package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// Command describes a single subprocess invocation
type Command struct {
	Name  string
	Args  []string
	Env   []string // appended to the parent environment
	Stdin io.Reader
}

// String renders the command line for logs
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result contains the captured output of a subprocess
type Result struct {
	Stdout   []byte
	Stderr   []byte
	Combined []byte // stdout and stderr interleaved in write order
	ExitCode int
}

// Runner executes subprocesses
type Runner interface {
	// Run executes cmd and blocks until it exits. The returned error is
	// non-nil when the process could not be started or exited non-zero;
	// the Result is populated in both cases whenever the process ran.
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// Exec runs commands on the local host with os/exec
type Exec struct {
	Logger *slog.Logger
}

// New returns a Runner backed by os/exec
func New(logger *slog.Logger) *Exec {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Exec{Logger: logger}
}

// Run executes the command and captures its output
func (e *Exec) Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Name == "" {
		return nil, fmt.Errorf("command name cannot be empty")
	}

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	if cmd.Stdin != nil {
		c.Stdin = cmd.Stdin
	}

	var stdout, stderr bytes.Buffer
	combined := &lockedBuffer{}
	c.Stdout = io.MultiWriter(&stdout, combined)
	c.Stderr = io.MultiWriter(&stderr, combined)

	e.Logger.Debug("running command", "cmd", cmd.String())
	err := c.Run()

	result := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Combined: combined.Bytes(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			e.Logger.Debug("command failed", "cmd", cmd.Name, "exit_code", result.ExitCode)
			return result, err
		}
		return result, err
	}

	return result, nil
}

// lockedBuffer serialises writes coming from the stdout and stderr copiers
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Bytes()
}
