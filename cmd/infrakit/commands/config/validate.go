package config

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/catalystcommunity/infrakit/cmd/infrakit/commands/common"
	"github.com/catalystcommunity/infrakit/internal/config"
)

// ValidateCommand validates a configuration file
var ValidateCommand = &cli.Command{
	Name:      "validate",
	Usage:     "Validate configuration file syntax and structure",
	ArgsUsage: "[config-file]",
	Action:    runValidate,
}

func runValidate(ctx context.Context, cmd *cli.Command) error {
	configPath, err := pathFromArgs(cmd)
	if err != nil {
		return err
	}

	// references are checked for syntax only, nothing is resolved
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	out := common.Out(cmd)
	fmt.Fprintf(out, "✓ Configuration is valid: %s\n", configPath)
	fmt.Fprintf(out, "  ArgoCD: %s (project %s, namespace %s)\n", cfg.ArgoCD.APIURL, cfg.ArgoCD.Project, cfg.ArgoCD.Namespace)
	if cfg.GoService.Path == "" {
		fmt.Fprintln(out, "  Service: in-process")
	} else {
		fmt.Fprintf(out, "  Service: %s\n", cfg.GoService.Path)
	}
	fmt.Fprintf(out, "  Clusters: %d\n", len(cfg.Clusters))

	return nil
}

// pathFromArgs prefers a positional path over --config
func pathFromArgs(cmd *cli.Command) (string, error) {
	if cmd.Args().Len() > 0 {
		return config.FindConfig(cmd.Args().First())
	}
	return common.ConfigPath(cmd)
}
