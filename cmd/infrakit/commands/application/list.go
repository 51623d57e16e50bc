package application

import (
	"context"
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/urfave/cli/v3"

	"github.com/catalystcommunity/infrakit/cmd/infrakit/commands/common"
	"github.com/catalystcommunity/infrakit/internal/app"
	"github.com/catalystcommunity/infrakit/internal/store"
)

// ListCommand lists onboarded applications
var ListCommand = &cli.Command{
	Name:    "list",
	Aliases: []string{"ls"},
	Usage:   "List onboarded applications",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "live", Usage: "include health and sync status from ArgoCD"},
	},
	Action: runList,
}

func runList(ctx context.Context, cmd *cli.Command) error {
	live := cmd.Bool("live")

	needs := common.NeedStore
	if live {
		needs |= common.NeedArgoCD
	}

	s, err := common.OpenSession(ctx, cmd, needs)
	if err != nil {
		return err
	}
	defer s.Close()

	var listings []app.Listing
	if live {
		listings, err = s.Manager().ListLive(ctx)
	} else {
		var apps []store.Application
		apps, err = s.Manager().List(ctx)
		for _, a := range apps {
			listings = append(listings, app.Listing{Application: a})
		}
	}
	if err != nil {
		return fmt.Errorf("failed to list applications: %w", err)
	}

	out := common.Out(cmd)
	if len(listings) == 0 {
		fmt.Fprintln(out, "No applications onboarded")
		fmt.Fprintln(out, "Use 'infrakit onboard' to add one")
		return nil
	}

	table := uitable.New()
	table.MaxColWidth = 50
	if live {
		table.AddRow("NAME", "CLUSTER", "NAMESPACE", "CHART", "REVISION", "HEALTH", "SYNC")
	} else {
		table.AddRow("NAME", "CLUSTER", "NAMESPACE", "CHART", "REPO", "REVISION", "UPDATED")
	}
	for _, l := range listings {
		if !live {
			table.AddRow(l.Name, l.Cluster, l.Namespace, l.HelmChart, l.GitRepo, l.GitRevision, l.UpdatedAt.Format("2006-01-02 15:04"))
			continue
		}
		health, sync := "Missing", "Missing"
		if l.Live != nil {
			health = valueOr(l.Live.Health.Status, "Unknown")
			sync = valueOr(l.Live.Sync.Status, "Unknown")
		}
		table.AddRow(l.Name, l.Cluster, l.Namespace, l.HelmChart, l.GitRevision, health, sync)
	}
	fmt.Fprintln(out, table)

	return nil
}
