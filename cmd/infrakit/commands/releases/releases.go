// Package releases lists the Helm releases of a cluster.
package releases

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gosuri/uitable"
	"github.com/urfave/cli/v3"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/catalystcommunity/infrakit/cmd/infrakit/commands/common"
	"github.com/catalystcommunity/infrakit/internal/config"
	"github.com/catalystcommunity/infrakit/internal/helm"
)

// Lister lists releases; the Helm SDK client in production
type Lister interface {
	List(ctx context.Context, opts helm.ListOptions) ([]helm.Release, error)
	Close() error
}

// NewLister builds the Lister for a kubeconfig. Tests replace it.
var NewLister = func(cmd *cli.Command, kubeconfig []byte, namespace string) (Lister, error) {
	return helm.NewClient(kubeconfig, namespace, common.Logger(cmd))
}

// Command lists Helm releases
var Command = &cli.Command{
	Name:  "releases",
	Usage: "List Helm releases in a cluster",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "cluster", Usage: "cluster from the config file whose kubeconfig is used"},
		&cli.StringFlag{Name: "kubeconfig", Usage: "kubeconfig path (overrides the config file)"},
		&cli.StringFlag{Name: "namespace", Aliases: []string{"n"}, Usage: "namespace to list", Value: "default"},
		&cli.BoolFlag{Name: "all-namespaces", Aliases: []string{"A"}, Usage: "list releases across all namespaces"},
	},
	Action: runReleases,
}

func runReleases(ctx context.Context, cmd *cli.Command) error {
	path, err := kubeconfigPath(cmd)
	if err != nil {
		return err
	}

	kubeconfig, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read kubeconfig: %w", err)
	}

	lister, err := NewLister(cmd, kubeconfig, cmd.String("namespace"))
	if err != nil {
		return fmt.Errorf("failed to create helm client: %w", err)
	}
	defer lister.Close()

	rels, err := lister.List(ctx, helm.ListOptions{
		Namespace:     cmd.String("namespace"),
		AllNamespaces: cmd.Bool("all-namespaces"),
	})
	if err != nil {
		return err
	}

	printReleases(common.Out(cmd), rels)
	return nil
}

// kubeconfigPath picks --kubeconfig, then the config file, then the
// client-go default location.
func kubeconfigPath(cmd *cli.Command) (string, error) {
	if override := cmd.String("kubeconfig"); override != "" {
		return override, nil
	}

	cfgPath, err := common.ConfigPath(cmd)
	if err == nil {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return "", err
		}
		if path := cfg.KubeconfigFor(cmd.String("cluster"), ""); path != "" {
			return path, nil
		}
	} else if cmd.String("cluster") != "" {
		return "", err
	}

	if env := os.Getenv(clientcmd.RecommendedConfigPathEnvVar); env != "" {
		return filepath.SplitList(env)[0], nil
	}
	return clientcmd.RecommendedHomeFile, nil
}

func printReleases(w io.Writer, rels []helm.Release) {
	if len(rels) == 0 {
		fmt.Fprintln(w, "No releases found")
		return
	}

	table := uitable.New()
	table.MaxColWidth = 60
	table.AddRow("NAME", "NAMESPACE", "REVISION", "UPDATED", "STATUS", "CHART", "APP VERSION")
	for _, r := range rels {
		updated := ""
		if !r.Updated.IsZero() {
			updated = r.Updated.Format("2006-01-02 15:04:05 MST")
		}
		table.AddRow(r.Name, r.Namespace, r.Version, updated, r.Status, r.Chart, r.AppVersion)
	}
	fmt.Fprintln(w, table)
}
