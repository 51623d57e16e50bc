package runner

import (
	"context"
	"io"
	"sync"
)

// Fake is an in-memory Runner that records every invocation.
// RunFunc decides the outcome; when nil every command succeeds with no output.
type Fake struct {
	RunFunc func(ctx context.Context, cmd Command) (*Result, error)

	mu    sync.Mutex
	calls []Command
	stdin [][]byte
}

// Run records the command and delegates to RunFunc
func (f *Fake) Run(ctx context.Context, cmd Command) (*Result, error) {
	var in []byte
	if cmd.Stdin != nil {
		data, err := io.ReadAll(cmd.Stdin)
		if err != nil {
			return nil, err
		}
		in = data
	}

	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	f.stdin = append(f.stdin, in)
	f.mu.Unlock()

	if f.RunFunc == nil {
		return &Result{}, nil
	}
	return f.RunFunc(ctx, cmd)
}

// Calls returns the recorded commands in invocation order
func (f *Fake) Calls() []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Command, len(f.calls))
	copy(out, f.calls)
	return out
}

// Stdin returns what was piped to the i-th call
func (f *Fake) Stdin(i int) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i < 0 || i >= len(f.stdin) {
		return nil
	}
	return f.stdin[i]
}
