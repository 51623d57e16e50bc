package config

import (
	"net/url"
	"strings"
)

// Destination is where ArgoCD deploys an application
type Destination struct {
	Server string
	Name   string
}

// DestinationFor resolves the ArgoCD destination for a cluster.
// Clusters listed in the config win; otherwise a URL is used as the server
// and anything else as the registered ArgoCD cluster name. "in-cluster"
// maps to the in-cluster API server.
func (c *Config) DestinationFor(cluster string) Destination {
	if cc, ok := c.Clusters[cluster]; ok {
		return Destination{Server: cc.Server, Name: cc.Name}
	}

	switch {
	case cluster == "" || cluster == "in-cluster":
		return Destination{Server: DefaultInClusterServer}
	case strings.HasPrefix(cluster, "https://") || strings.HasPrefix(cluster, "http://"):
		return Destination{Server: cluster}
	default:
		return Destination{Name: cluster}
	}
}

// KubeconfigFor returns the kubeconfig path for a cluster: an explicit
// override first, then the cluster entry, then the global default.
func (c *Config) KubeconfigFor(cluster, override string) string {
	if override != "" {
		return override
	}
	if cc, ok := c.Clusters[cluster]; ok && cc.Kubeconfig != "" {
		return cc.Kubeconfig
	}
	return c.Kubernetes.Kubeconfig
}

// Redacted returns a copy with credentials masked, for display
func (c *Config) Redacted() *Config {
	out := *c
	out.ArgoCD.Password = redact(c.ArgoCD.Password)
	out.ArgoCD.Token = redact(c.ArgoCD.Token)
	out.PostgreSQL.URL = redactURL(c.PostgreSQL.URL)
	out.Redis.URL = redactURL(c.Redis.URL)

	if c.Clusters != nil {
		out.Clusters = make(map[string]ClusterConfig, len(c.Clusters))
		for k, v := range c.Clusters {
			out.Clusters[k] = v
		}
	}
	return &out
}

const redactedValue = "********"

// redact masks a literal secret but keeps references readable
func redact(v string) string {
	if v == "" || strings.HasPrefix(v, "${") {
		return v
	}
	return redactedValue
}

// redactURL masks the password portion of a connection URL
func redactURL(raw string) string {
	if strings.HasPrefix(raw, "${") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}
