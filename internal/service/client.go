package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/catalystcommunity/infrakit/internal/envelope"
	"github.com/catalystcommunity/infrakit/internal/runner"
	"github.com/mattn/go-shellwords"
)

// Caller invokes a service command with a JSON payload
type Caller interface {
	Call(ctx context.Context, command string, payload map[string]any) (*envelope.Response, error)
}

// ExecClient runs infrakit-service as a subprocess and pipes the envelope
// over stdin and stdout.
type ExecClient struct {
	argv   []string
	runner runner.Runner
}

// NewExecClient parses path with shell word rules, so values such as
// "env HELM_DEBUG=1 /usr/local/bin/infrakit-service" are accepted.
func NewExecClient(path string, r runner.Runner) (*ExecClient, error) {
	argv, err := shellwords.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service path %q: %w", path, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("service path cannot be empty")
	}
	return &ExecClient{argv: argv, runner: r}, nil
}

// Argv returns the parsed command line without the service command
func (c *ExecClient) Argv() []string {
	out := make([]string, len(c.argv))
	copy(out, c.argv)
	return out
}

// Call runs the service binary with command appended to its arguments
func (c *ExecClient) Call(ctx context.Context, command string, payload map[string]any) (*envelope.Response, error) {
	input, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	args := append(c.Argv()[1:], command)
	result, err := c.runner.Run(ctx, runner.Command{
		Name:  c.argv[0],
		Args:  args,
		Stdin: bytes.NewReader(input),
	})
	if err != nil {
		stderr := ""
		if result != nil {
			stderr = strings.TrimSpace(string(result.Stderr))
		}
		if stderr != "" {
			return nil, fmt.Errorf("service command %s failed: %w: %s", command, err, stderr)
		}
		return nil, fmt.Errorf("service command %s failed: %w", command, err)
	}

	resp, err := envelope.DecodeResponse(bytes.NewReader(result.Stdout))
	if err != nil {
		return nil, fmt.Errorf("invalid response from service command %s: %w", command, err)
	}
	return resp, nil
}

// LocalClient serves calls with an in-process Server. The payload still
// makes a JSON round trip so both clients see identical typing.
type LocalClient struct {
	server *Server
}

// NewLocalClient wraps server as a Caller
func NewLocalClient(server *Server) *LocalClient {
	return &LocalClient{server: server}
}

// Call dispatches command to the in-process server
func (c *LocalClient) Call(ctx context.Context, command string, payload map[string]any) (*envelope.Response, error) {
	input, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	var out bytes.Buffer
	if err := c.server.Serve(ctx, command, bytes.NewReader(input), &out); err != nil {
		return nil, fmt.Errorf("service command %s failed: %w", command, err)
	}
	return envelope.DecodeResponse(&out)
}

// NewCaller returns an ExecClient for a non-empty path and a LocalClient
// around server otherwise.
func NewCaller(path string, r runner.Runner, server *Server) (Caller, error) {
	if strings.TrimSpace(path) == "" {
		return NewLocalClient(server), nil
	}
	return NewExecClient(path, r)
}
