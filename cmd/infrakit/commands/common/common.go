// Package common holds what the infrakit commands share: config loading,
// logging, and the connections a command needs.
package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/hashicorp/go-multierror"
	"github.com/urfave/cli/v3"

	"github.com/catalystcommunity/infrakit/internal/app"
	"github.com/catalystcommunity/infrakit/internal/argocd"
	"github.com/catalystcommunity/infrakit/internal/cache"
	"github.com/catalystcommunity/infrakit/internal/config"
	"github.com/catalystcommunity/infrakit/internal/logging"
	"github.com/catalystcommunity/infrakit/internal/runner"
	"github.com/catalystcommunity/infrakit/internal/secrets"
	"github.com/catalystcommunity/infrakit/internal/service"
	"github.com/catalystcommunity/infrakit/internal/store"
)

// Global flag names
const (
	FlagConfig = "config"
	FlagDebug  = "debug"
)

// Needs selects the backends a command talks to
type Needs uint8

const (
	NeedService Needs = 1 << iota
	NeedStore
	NeedCache
	NeedArgoCD
)

// Has reports whether n includes need
func (n Needs) Has(need Needs) bool {
	return n&need != 0
}

// Out is where command output goes
func Out(cmd *cli.Command) io.Writer {
	return cmd.Root().Writer
}

// Logger returns the diagnostic logger, honouring --debug
func Logger(cmd *cli.Command) *slog.Logger {
	return logging.NewLoggerTo(cmd.Root().ErrWriter, func() bool {
		return cmd.Bool(FlagDebug)
	})
}

// ConfigPath resolves the --config flag to a file on disk
func ConfigPath(cmd *cli.Command) (string, error) {
	path, err := config.FindConfig(cmd.String(FlagConfig))
	if err != nil {
		return "", fmt.Errorf("%w (run 'infrakit config init' to create one)", err)
	}
	return path, nil
}

// LoadConfig loads the selected config with every reference resolved. An
// ArgoCD password missing from the file is read from the keyring.
func LoadConfig(cmd *cli.Command) (*config.Config, error) {
	path, err := ConfigPath(cmd)
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadResolved(path, secrets.DefaultResolver())
	if err != nil {
		return nil, err
	}

	if cfg.ArgoCD.UsesBasicAuth() && cfg.ArgoCD.Password == "" {
		password, err := secrets.LoadCredential(secrets.AccountArgoCD)
		if err != nil {
			if errors.Is(err, secrets.ErrCredentialNotFound) {
				return nil, fmt.Errorf("no ArgoCD password configured (run 'infrakit login')")
			}
			return nil, err
		}
		cfg.ArgoCD.Password = password
	}

	return cfg, nil
}

// Session is a loaded config plus the open connections of one command
type Session struct {
	Config *config.Config
	Logger *slog.Logger
	Deps   app.Deps

	closers []func() error
}

// Manager returns a workflow manager over the session's connections
func (s *Session) Manager() *app.Manager {
	return app.NewManager(s.Config, s.Deps)
}

// OnClose registers fn to run when the session is closed
func (s *Session) OnClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

// Close closes every connection, newest first
func (s *Session) Close() error {
	var errs error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	s.closers = nil
	return errs
}

// Connector opens the backends in needs and stores them in s.Deps
type Connector func(ctx context.Context, s *Session, needs Needs) error

// Connect is the Connector used by the commands. Tests replace it.
var Connect Connector = DefaultConnect

// OpenSession loads the config and connects to the backends in needs
func OpenSession(ctx context.Context, cmd *cli.Command, needs Needs) (*Session, error) {
	cfg, err := LoadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger := Logger(cmd)
	s := &Session{Config: cfg, Logger: logger}
	s.Deps.Logger = logger

	if err := Connect(ctx, s, needs); err != nil {
		if closeErr := s.Close(); closeErr != nil {
			return nil, multierror.Append(err, closeErr)
		}
		return nil, err
	}

	return s, nil
}

// DefaultConnect dials the real backends
func DefaultConnect(ctx context.Context, s *Session, needs Needs) error {
	cfg := s.Config

	if needs.Has(NeedService) {
		r := runner.New(s.Logger)
		caller, err := service.NewCaller(cfg.GoService.Path, r, service.NewServer(r, s.Logger, service.Options{}))
		if err != nil {
			return err
		}
		s.Deps.Service = caller
	}

	if needs.Has(NeedStore) {
		st, err := store.Open(ctx, cfg.PostgreSQL.URL, s.Logger)
		if err != nil {
			return err
		}
		s.OnClose(st.Close)
		s.Deps.Store = st
	}

	if needs.Has(NeedCache) {
		c, err := cache.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		s.OnClose(c.Close)
		s.Deps.Cache = c
	}

	if needs.Has(NeedArgoCD) {
		client, err := argocd.NewClient(argocd.Options{
			URL:      cfg.ArgoCD.APIURL,
			Username: cfg.ArgoCD.Username,
			Password: cfg.ArgoCD.Password,
			Token:    cfg.ArgoCD.Token,
			Insecure: cfg.ArgoCD.Insecure,
		})
		if err != nil {
			return fmt.Errorf("failed to create ArgoCD client: %w", err)
		}
		s.Deps.ArgoCD = client
	}

	return nil
}
