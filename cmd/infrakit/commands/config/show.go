package config

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/catalystcommunity/infrakit/cmd/infrakit/commands/common"
	"github.com/catalystcommunity/infrakit/internal/config"
)

// ShowCommand prints a configuration with credentials masked
var ShowCommand = &cli.Command{
	Name:      "show",
	Usage:     "Display a configuration file with secrets redacted",
	ArgsUsage: "[config-file]",
	Action:    runShow,
}

func runShow(ctx context.Context, cmd *cli.Command) error {
	configPath, err := pathFromArgs(cmd)
	if err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg.Redacted())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	out := common.Out(cmd)
	fmt.Fprintf(out, "# %s\n", configPath)
	fmt.Fprint(out, string(data))
	return nil
}
