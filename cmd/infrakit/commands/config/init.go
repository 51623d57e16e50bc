package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/catalystcommunity/infrakit/cmd/infrakit/commands/common"
	"github.com/catalystcommunity/infrakit/internal/config"
)

// InitCommand writes a starter config file
var InitCommand = &cli.Command{
	Name:  "init",
	Usage: "Create a new configuration file",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "name",
			Aliases: []string{"n"},
			Usage:   "name for the config file (without .yaml extension)",
			Value:   strings.TrimSuffix(config.DefaultConfigName, ".yaml"),
		},
		&cli.BoolFlag{
			Name:    "force",
			Aliases: []string{"f"},
			Usage:   "overwrite existing config file",
		},
		&cli.StringFlag{Name: "argocd-url", Usage: "ArgoCD API URL"},
		&cli.StringFlag{Name: "argocd-username", Usage: "ArgoCD username"},
		&cli.StringFlag{Name: "postgres-url", Usage: "PostgreSQL connection URL"},
		&cli.StringFlag{Name: "redis-url", Usage: "Redis URL"},
		&cli.StringFlag{Name: "service-path", Usage: "infrakit-service command; empty runs it in-process"},
		&cli.StringFlag{Name: "kubeconfig", Usage: "default kubeconfig path"},
	},
	Action: runInit,
}

func runInit(ctx context.Context, cmd *cli.Command) error {
	configDir, err := config.EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, cmd.String("name")+".yaml")

	if _, err := os.Stat(configPath); err == nil && !cmd.Bool("force") {
		return fmt.Errorf("config file already exists: %s (use --force to overwrite)", configPath)
	}

	cfg := config.DefaultConfig()
	if v := cmd.String("argocd-url"); v != "" {
		cfg.ArgoCD.APIURL = v
	}
	if v := cmd.String("argocd-username"); v != "" {
		cfg.ArgoCD.Username = v
	}
	if v := cmd.String("postgres-url"); v != "" {
		cfg.PostgreSQL.URL = v
	}
	if v := cmd.String("redis-url"); v != "" {
		cfg.Redis.URL = v
	}
	if cmd.IsSet("service-path") {
		cfg.GoService.Path = cmd.String("service-path")
	}
	if v := cmd.String("kubeconfig"); v != "" {
		cfg.Kubernetes.Kubeconfig = v
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := config.Save(cfg, configPath); err != nil {
		return err
	}

	out := common.Out(cmd)
	fmt.Fprintf(out, "Created config file: %s\n", configPath)
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  1. Review the URLs in the config file")
	fmt.Fprintln(out, "  2. Run: infrakit login")
	fmt.Fprintln(out, "  3. Run: infrakit config validate")
	return nil
}
