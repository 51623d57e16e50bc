package application

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/catalystcommunity/infrakit/cmd/infrakit/commands/common"
)

// SyncCommand triggers an ArgoCD sync
var SyncCommand = &cli.Command{
	Name:      "sync",
	Usage:     "Trigger an application sync",
	ArgsUsage: "<name>",
	Action:    runSync,
}

func runSync(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one application name")
	}
	name := cmd.Args().First()

	s, err := common.OpenSession(ctx, cmd, common.NeedCache|common.NeedArgoCD)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Manager().Sync(ctx, name); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	fmt.Fprintf(common.Out(cmd), "✓ Sync triggered for %s\n", name)
	return nil
}
