package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	applicationcmd "github.com/catalystcommunity/infrakit/cmd/infrakit/commands/application"
	authcmd "github.com/catalystcommunity/infrakit/cmd/infrakit/commands/auth"
	"github.com/catalystcommunity/infrakit/cmd/infrakit/commands/common"
	configcmd "github.com/catalystcommunity/infrakit/cmd/infrakit/commands/config"
	releasescmd "github.com/catalystcommunity/infrakit/cmd/infrakit/commands/releases"
	"github.com/catalystcommunity/infrakit/internal/config"
	"github.com/catalystcommunity/infrakit/internal/logging"
)

var (
	// Version information (will be set by build flags)
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	commands := applicationcmd.Commands()
	commands = append(commands,
		releasescmd.Command,
		authcmd.LoginCommand,
		authcmd.LogoutCommand,
		configcmd.Command,
	)

	return &cli.Command{
		Name:    "infrakit",
		Usage:   "GitOps automation for Helm applications on ArgoCD",
		Version: fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    common.FlagConfig,
				Aliases: []string{"c"},
				Usage:   "config file name or path",
				Sources: cli.EnvVars(config.ConfigEnvVar),
			},
			&cli.BoolFlag{
				Name:    common.FlagDebug,
				Usage:   "enable debug logging",
				Sources: cli.EnvVars(logging.DebugEnvVar),
			},
		},
		Commands: commands,
	}
}
