package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/catalystcommunity/infrakit/internal/helm"
	"github.com/catalystcommunity/infrakit/internal/kubectl"
	"github.com/catalystcommunity/infrakit/internal/logging"
	"github.com/catalystcommunity/infrakit/internal/runner"
	"github.com/catalystcommunity/infrakit/internal/service"
	"github.com/urfave/cli/v3"
)

var (
	// Version information (will be set by build flags)
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// errUsage is returned when no command argument is given
var errUsage = errors.New(service.UsageMessage)

func main() {
	var debug bool
	logger := logging.NewLogger(func() bool { return debug })

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newCommand(logger, &debug, os.Stdin, os.Stdout)
	if err := cmd.Run(ctx, os.Args); err != nil {
		stop()
		logger.Error(fatalMessage(err), "error", err)
		os.Exit(1)
	}
}

func newCommand(logger *slog.Logger, debug *bool, in io.Reader, out io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "infrakit-service",
		Usage:     "Render Helm charts and dry-run Kubernetes manifests over a JSON envelope",
		ArgsUsage: "<generate-helm|validate-k8s>",
		Version:   fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "debug",
				Usage:       "enable debug logging",
				Sources:     cli.EnvVars(logging.DebugEnvVar),
				Destination: debug,
			},
			&cli.StringFlag{
				Name:    "helm-binary",
				Usage:   "helm executable",
				Value:   helm.DefaultBinary,
				Sources: cli.EnvVars("INFRAKIT_HELM_BINARY"),
			},
			&cli.StringFlag{
				Name:    "kubectl-binary",
				Usage:   "kubectl executable",
				Value:   kubectl.DefaultBinary,
				Sources: cli.EnvVars("INFRAKIT_KUBECTL_BINARY"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() == 0 {
				return errUsage
			}

			srv := service.NewServer(runner.New(logger), logger, service.Options{
				HelmBinary:    cmd.String("helm-binary"),
				KubectlBinary: cmd.String("kubectl-binary"),
			})
			return srv.Serve(ctx, cmd.Args().First(), in, out)
		},
	}
}

// fatalMessage picks the log line for an error that ends the process
func fatalMessage(err error) string {
	switch {
	case errors.Is(err, errUsage):
		return service.UsageMessage
	case errors.Is(err, service.ErrUnknownCommand):
		return "Unknown command"
	default:
		return "Failed to process request"
	}
}
