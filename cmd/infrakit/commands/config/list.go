package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/catalystcommunity/infrakit/cmd/infrakit/commands/common"
	"github.com/catalystcommunity/infrakit/internal/config"
)

// ListCommand lists all available configuration files
var ListCommand = &cli.Command{
	Name:    "list",
	Aliases: []string{"ls"},
	Usage:   "List available configuration files",
	Action:  runList,
}

func runList(ctx context.Context, cmd *cli.Command) error {
	out := common.Out(cmd)

	configDir, err := config.GetConfigDir()
	if err != nil {
		return err
	}

	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		fmt.Fprintf(out, "No configuration directory found at: %s\n", configDir)
		fmt.Fprintln(out, "Run 'infrakit config init' to create your first configuration.")
		return nil
	}

	configs, err := config.ListConfigs()
	if err != nil {
		return fmt.Errorf("failed to list configs: %w", err)
	}

	if len(configs) == 0 {
		fmt.Fprintf(out, "No configuration files found in: %s\n", configDir)
		fmt.Fprintln(out, "Run 'infrakit config init' to create your first configuration.")
		return nil
	}

	// the config the other commands would pick
	selected := ""
	if path, err := common.ConfigPath(cmd); err == nil {
		selected = filepath.Base(path)
	}

	fmt.Fprintf(out, "Configuration files in %s:\n\n", configDir)

	for _, cfgPath := range configs {
		name := filepath.Base(cfgPath)
		marker := " "
		if name == selected {
			marker = "*"
		}

		cfg, err := config.Load(cfgPath)
		if err != nil {
			fmt.Fprintf(out, "  %s %s (invalid: %v)\n", marker, name, err)
			continue
		}

		fmt.Fprintf(out, "  %s %s\n", marker, name)
		fmt.Fprintf(out, "      ArgoCD: %s, Clusters: %d\n", cfg.ArgoCD.APIURL, len(cfg.Clusters))
	}

	if selected != "" {
		fmt.Fprintf(out, "\n* = selected config\n")
	}

	return nil
}
