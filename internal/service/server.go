// Package service dispatches infrakit-service commands: a JSON request is
// read from stdin, handed to helm or kubectl, and the outcome is written
// back as a JSON response.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/catalystcommunity/infrakit/internal/envelope"
	"github.com/catalystcommunity/infrakit/internal/helm"
	"github.com/catalystcommunity/infrakit/internal/kubectl"
	"github.com/catalystcommunity/infrakit/internal/runner"
)

// Commands understood by the dispatcher
const (
	CommandGenerateHelm = "generate-helm"
	CommandValidateK8s  = "validate-k8s"
)

// UsageMessage is reported when no command is given
const UsageMessage = "Command required: generate-helm or validate-k8s"

// ErrUnknownCommand is returned for commands without a handler
var ErrUnknownCommand = errors.New("unknown command")

// HandlerFunc serves a single decoded request
type HandlerFunc func(ctx context.Context, req envelope.Request) envelope.Response

// Options tunes the external binaries and temp file location
type Options struct {
	HelmBinary    string
	KubectlBinary string
	TempDir       string
}

// Server maps command names to handlers
type Server struct {
	templater *helm.Templater
	validator *kubectl.Validator
	logger    *slog.Logger
	handlers  map[string]HandlerFunc
}

// NewServer creates a dispatcher that runs helm and kubectl through r
func NewServer(r runner.Runner, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.HelmBinary == "" {
		opts.HelmBinary = helm.DefaultBinary
	}
	if opts.KubectlBinary == "" {
		opts.KubectlBinary = kubectl.DefaultBinary
	}

	s := &Server{
		templater: &helm.Templater{Runner: r, Binary: opts.HelmBinary, TempDir: opts.TempDir},
		validator: &kubectl.Validator{Runner: r, Binary: opts.KubectlBinary, TempDir: opts.TempDir},
		logger:    logger,
	}
	s.handlers = map[string]HandlerFunc{
		CommandGenerateHelm: s.GenerateHelm,
		CommandValidateK8s:  s.ValidateK8s,
	}
	return s
}

// Commands returns the registered command names, sorted
func (s *Server) Commands() []string {
	names := make([]string, 0, len(s.handlers))
	for name := range s.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Handler looks up the handler for command
func (s *Server) Handler(command string) (HandlerFunc, error) {
	h, ok := s.handlers[command]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}
	return h, nil
}

// Serve runs one command: the command is resolved first, then a single
// JSON request is decoded from in and the response is written to out.
// Errors returned here are usage errors; handler failures are reported
// inside the response.
func (s *Server) Serve(ctx context.Context, command string, in io.Reader, out io.Writer) error {
	h, err := s.Handler(command)
	if err != nil {
		return err
	}

	req, err := envelope.Decode(in)
	if err != nil {
		return err
	}

	resp := h(ctx, req)
	s.logger.Debug("command finished", "command", command, "success", resp.Success)

	return envelope.Encode(out, resp)
}
