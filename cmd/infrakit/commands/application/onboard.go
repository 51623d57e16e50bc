package application

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/catalystcommunity/infrakit/cmd/infrakit/commands/common"
	"github.com/catalystcommunity/infrakit/internal/app"
)

// OnboardCommand onboards a new application
var OnboardCommand = &cli.Command{
	Name:  "onboard",
	Usage: "Onboard a new application",
	Description: `Renders the Helm chart, validates the manifests against the cluster with a
server-side dry run, records the application and creates it in ArgoCD.

Only one onboarding per application name runs at a time.`,
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "name", Usage: "application name", Required: true},
		&cli.StringFlag{Name: "cluster", Usage: "target cluster", Required: true},
		&cli.StringFlag{Name: "chart", Usage: "Helm chart reference", Required: true},
		&cli.StringFlag{Name: "repo", Usage: "Git repository URL", Required: true},
		&cli.StringFlag{Name: "namespace", Usage: "Kubernetes namespace", Value: "default"},
		&cli.StringFlag{Name: "path", Usage: "path within the Git repository", Value: "."},
		&cli.StringFlag{Name: "revision", Usage: "Git revision", Value: "main"},
		&cli.StringFlag{Name: "values-file", Usage: "Helm values file"},
		&cli.StringFlag{Name: "values", Usage: "inline Helm values (YAML or JSON)"},
		&cli.StringFlag{Name: "kubeconfig", Usage: "kubeconfig used for validation (overrides the config file)"},
		&cli.BoolFlag{Name: "create-namespace", Usage: "create the target namespace if it does not exist"},
	},
	Action: runOnboard,
}

func runOnboard(ctx context.Context, cmd *cli.Command) error {
	req := app.OnboardRequest{
		Name:            cmd.String("name"),
		Cluster:         cmd.String("cluster"),
		Chart:           cmd.String("chart"),
		Repo:            cmd.String("repo"),
		Namespace:       cmd.String("namespace"),
		Path:            cmd.String("path"),
		Revision:        cmd.String("revision"),
		ValuesFile:      cmd.String("values-file"),
		Values:          cmd.String("values"),
		Kubeconfig:      cmd.String("kubeconfig"),
		CreateNamespace: cmd.Bool("create-namespace"),
	}

	s, err := common.OpenSession(ctx, cmd, common.NeedService|common.NeedStore|common.NeedCache|common.NeedArgoCD)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Manager().Onboard(ctx, req); err != nil {
		return fmt.Errorf("onboarding failed: %w", err)
	}

	fmt.Fprintf(common.Out(cmd), "✓ Onboarded %s to %s (namespace %s)\n", req.Name, req.Cluster, req.Namespace)
	return nil
}
