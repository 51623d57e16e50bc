package helm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"helm.sh/helm/v3/pkg/action"
	"helm.sh/helm/v3/pkg/cli"
	"helm.sh/helm/v3/pkg/release"
)

// Client wraps read-only Helm SDK operations against a cluster
type Client struct {
	namespace string
	settings  *cli.EnvSettings
	logger    *slog.Logger
}

// NewClient creates a new Helm client
// kubeconfig is the raw kubeconfig YAML bytes
// namespace is the default namespace for operations
func NewClient(kubeconfig []byte, namespace string, logger *slog.Logger) (*Client, error) {
	if len(kubeconfig) == 0 {
		return nil, fmt.Errorf("kubeconfig cannot be empty")
	}
	if namespace == "" {
		namespace = "default"
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	// Helm SDK requires a file path, not in-memory config
	tmpDir, err := os.MkdirTemp("", "infrakit-helm-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}

	kubeconfigPath := filepath.Join(tmpDir, "kubeconfig")
	if err := os.WriteFile(kubeconfigPath, kubeconfig, 0600); err != nil {
		os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("failed to write kubeconfig: %w", err)
	}

	settings := cli.New()
	settings.KubeConfig = kubeconfigPath
	settings.SetNamespace(namespace)
	settings.RepositoryConfig = filepath.Join(tmpDir, "repositories.yaml")
	settings.RepositoryCache = filepath.Join(tmpDir, "cache")

	return &Client{
		namespace: namespace,
		settings:  settings,
		logger:    logger,
	}, nil
}

// Close cleans up temporary resources
func (c *Client) Close() error {
	if c.settings != nil && c.settings.KubeConfig != "" {
		tmpDir := filepath.Dir(c.settings.KubeConfig)
		return os.RemoveAll(tmpDir)
	}
	return nil
}

func (c *Client) getActionConfig(namespace string) (*action.Configuration, error) {
	actionConfig := new(action.Configuration)
	if err := actionConfig.Init(c.settings.RESTClientGetter(), namespace, os.Getenv("HELM_DRIVER"), func(format string, v ...interface{}) {
		c.logger.Debug(fmt.Sprintf(format, v...), "component", "helm")
	}); err != nil {
		return nil, fmt.Errorf("failed to initialize action config: %w", err)
	}

	return actionConfig, nil
}

// List lists Helm releases, sorted by namespace then name
func (c *Client) List(ctx context.Context, opts ListOptions) ([]Release, error) {
	namespace := opts.Namespace
	if namespace == "" {
		namespace = c.namespace
	}
	if opts.AllNamespaces {
		namespace = ""
	}

	actionConfig, err := c.getActionConfig(namespace)
	if err != nil {
		return nil, err
	}

	listAction := action.NewList(actionConfig)
	listAction.All = true
	listAction.AllNamespaces = opts.AllNamespaces

	releases, err := listAction.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to list releases: %w", err)
	}

	result := make([]Release, len(releases))
	for i, rel := range releases {
		result[i] = convertRelease(rel)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Namespace != result[j].Namespace {
			return result[i].Namespace < result[j].Namespace
		}
		return result[i].Name < result[j].Name
	})

	return result, nil
}

func convertRelease(rel *release.Release) Release {
	r := Release{
		Name:      rel.Name,
		Namespace: rel.Namespace,
		Version:   rel.Version,
	}
	if rel.Info != nil {
		r.Status = rel.Info.Status.String()
		r.Updated = rel.Info.LastDeployed.Time
	}
	if rel.Chart != nil && rel.Chart.Metadata != nil {
		r.Chart = fmt.Sprintf("%s-%s", rel.Chart.Metadata.Name, rel.Chart.Metadata.Version)
		r.AppVersion = rel.Chart.Metadata.AppVersion
	}
	return r
}
