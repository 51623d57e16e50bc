package application

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gosuri/uitable"
	"github.com/urfave/cli/v3"

	"github.com/catalystcommunity/infrakit/cmd/infrakit/commands/common"
	"github.com/catalystcommunity/infrakit/internal/app"
)

// StatusCommand shows what is known about an application
var StatusCommand = &cli.Command{
	Name:      "status",
	Usage:     "Check application status",
	ArgsUsage: "<name>",
	Description: `Shows the cached state of an application, or its stored record when
nothing is cached.`,
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "live", Usage: "include health and sync status from ArgoCD"},
		&cli.BoolFlag{Name: "pods", Usage: "list the application's pods"},
	},
	Action: runStatus,
}

func runStatus(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one application name")
	}
	name := cmd.Args().First()
	opts := app.StatusOptions{Live: cmd.Bool("live"), Pods: cmd.Bool("pods")}

	needs := common.NeedCache | common.NeedStore
	if opts.Live {
		needs |= common.NeedArgoCD
	}

	s, err := common.OpenSession(ctx, cmd, needs)
	if err != nil {
		return err
	}
	defer s.Close()

	st, err := s.Manager().Status(ctx, name, opts)
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	printStatus(common.Out(cmd), st)
	return nil
}

func printStatus(w io.Writer, st *app.Status) {
	fmt.Fprintf(w, "Application: %s\n", st.Name)

	if c := st.Cached; c != nil {
		fmt.Fprintf(w, "  Status: %s\n", c.Status)
		if c.Cluster != "" {
			fmt.Fprintf(w, "  Cluster: %s\n", c.Cluster)
		}
		if c.LastOperation != "" {
			fmt.Fprintf(w, "  Last operation: %s\n", c.LastOperation)
		}
		if c.LastSync != "" {
			fmt.Fprintf(w, "  Last sync: %s\n", c.LastSync)
		}
		if c.Error != "" {
			fmt.Fprintf(w, "  Error: %s\n", c.Error)
		}
		fmt.Fprintf(w, "  Updated: %s\n", c.UpdatedAt.Format(time.RFC3339))
	} else {
		fmt.Fprintln(w, "  Status: unknown (no cached state)")
	}

	if r := st.Record; r != nil {
		fmt.Fprintln(w, "\nRecord:")
		fmt.Fprintf(w, "  Cluster: %s\n", r.Cluster)
		fmt.Fprintf(w, "  Namespace: %s\n", r.Namespace)
		fmt.Fprintf(w, "  Chart: %s\n", r.HelmChart)
		fmt.Fprintf(w, "  Source: %s@%s:%s\n", r.GitRepo, r.GitRevision, r.GitPath)
		fmt.Fprintf(w, "  Onboarded: %s\n", r.CreatedAt.Format(time.RFC3339))
	}

	if st.LiveMissing {
		fmt.Fprintln(w, "\nArgoCD:")
		fmt.Fprintf(w, "  %s not found in ArgoCD\n", st.Name)
	}

	if l := st.Live; l != nil {
		fmt.Fprintln(w, "\nArgoCD:")
		fmt.Fprintf(w, "  Health: %s\n", valueOr(l.Health.Status, "Unknown"))
		if l.Health.Message != "" {
			fmt.Fprintf(w, "  Message: %s\n", l.Health.Message)
		}
		fmt.Fprintf(w, "  Sync: %s\n", valueOr(l.Sync.Status, "Unknown"))
		if l.Sync.Revision != "" {
			fmt.Fprintf(w, "  Revision: %s\n", l.Sync.Revision)
		}
	}

	if st.Pods != nil {
		fmt.Fprintln(w, "\nPods:")
		if len(st.Pods) == 0 {
			fmt.Fprintln(w, "  none")
			return
		}
		table := uitable.New()
		table.AddRow("NAME", "READY", "STATUS", "RESTARTS", "NODE")
		for _, p := range st.Pods {
			ready, total := p.ReadyCount()
			table.AddRow(p.Name, fmt.Sprintf("%d/%d", ready, total), p.Status, p.Restarts(), p.NodeName)
		}
		fmt.Fprintln(w, table)
	}
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
