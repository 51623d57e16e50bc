package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Default values applied by ApplyDefaults
const (
	DefaultArgoCDNamespace = "argocd"
	DefaultArgoCDProject   = "default"
	DefaultInClusterServer = "https://kubernetes.default.svc"
)

// Config represents the infrakit CLI configuration
type Config struct {
	ArgoCD     ArgoCDConfig             `yaml:"argocd"`
	PostgreSQL PostgreSQLConfig         `yaml:"postgresql"`
	Redis      RedisConfig              `yaml:"redis"`
	GoService  GoServiceConfig          `yaml:"go_service"`
	Kubernetes KubernetesConfig         `yaml:"kubernetes,omitempty"`
	Clusters   map[string]ClusterConfig `yaml:"clusters,omitempty"`
}

// ArgoCDConfig holds the ArgoCD API endpoint and credentials
type ArgoCDConfig struct {
	APIURL    string `yaml:"apiUrl"`
	Username  string `yaml:"username,omitempty"`
	Password  string `yaml:"password,omitempty"`
	Token     string `yaml:"token,omitempty"`
	Namespace string `yaml:"namespace,omitempty"`
	Project   string `yaml:"project,omitempty"`
	Insecure  bool   `yaml:"insecure,omitempty"`
}

// PostgreSQLConfig points at the application store
type PostgreSQLConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig points at the state cache
type RedisConfig struct {
	URL string `yaml:"url"`
}

// GoServiceConfig locates the infrakit-service binary.
// An empty path runs the service in-process.
type GoServiceConfig struct {
	Path string `yaml:"path,omitempty"`
}

// KubernetesConfig holds cluster access defaults
type KubernetesConfig struct {
	Kubeconfig string `yaml:"kubeconfig,omitempty"`
}

// ClusterConfig maps a cluster name to an ArgoCD destination
type ClusterConfig struct {
	Server     string `yaml:"server,omitempty"`
	Name       string `yaml:"name,omitempty"`
	Kubeconfig string `yaml:"kubeconfig,omitempty"`
}

// ApplyDefaults fills optional fields left empty in the file
func (c *Config) ApplyDefaults() {
	if c.ArgoCD.Namespace == "" {
		c.ArgoCD.Namespace = DefaultArgoCDNamespace
	}
	if c.ArgoCD.Project == "" {
		c.ArgoCD.Project = DefaultArgoCDProject
	}
}

// Validate performs validation on the Config struct
func (c *Config) Validate() error {
	if err := c.ArgoCD.Validate(); err != nil {
		return fmt.Errorf("argocd validation failed: %w", err)
	}

	if err := c.PostgreSQL.Validate(); err != nil {
		return fmt.Errorf("postgresql validation failed: %w", err)
	}

	if err := c.Redis.Validate(); err != nil {
		return fmt.Errorf("redis validation failed: %w", err)
	}

	for name, cluster := range c.Clusters {
		if err := cluster.Validate(); err != nil {
			return fmt.Errorf("cluster %s validation failed: %w", name, err)
		}
	}

	return nil
}

// Validate performs validation on ArgoCDConfig
func (a *ArgoCDConfig) Validate() error {
	if a.APIURL == "" {
		return fmt.Errorf("apiUrl is required")
	}
	if err := validateURL(a.APIURL, "http", "https"); err != nil {
		return fmt.Errorf("invalid apiUrl: %w", err)
	}

	if a.Token != "" && (a.Username != "" || a.Password != "") {
		return fmt.Errorf("token and username/password are mutually exclusive")
	}

	if a.Token == "" && a.Username == "" {
		return fmt.Errorf("either token or username is required")
	}

	return nil
}

// UsesBasicAuth reports whether requests authenticate with username and password
func (a *ArgoCDConfig) UsesBasicAuth() bool {
	return a.Token == ""
}

// Validate performs validation on PostgreSQLConfig
func (p *PostgreSQLConfig) Validate() error {
	if p.URL == "" {
		return fmt.Errorf("url is required")
	}
	return nil
}

// Validate performs validation on RedisConfig
func (r *RedisConfig) Validate() error {
	if r.URL == "" {
		return fmt.Errorf("url is required")
	}
	return nil
}

// Validate performs validation on ClusterConfig
func (c *ClusterConfig) Validate() error {
	if c.Server == "" && c.Name == "" {
		return fmt.Errorf("either server or name is required")
	}
	if c.Server != "" && c.Name != "" {
		return fmt.Errorf("server and name are mutually exclusive")
	}
	if c.Server != "" {
		if err := validateURL(c.Server, "https", "http"); err != nil {
			return fmt.Errorf("invalid server: %w", err)
		}
	}
	return nil
}

// validateURL skips unresolved ${...} references, which are checked after resolution
func validateURL(raw string, schemes ...string) error {
	if strings.HasPrefix(raw, "${") {
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	for _, s := range schemes {
		if u.Scheme == s {
			if u.Host == "" {
				return fmt.Errorf("%q has no host", raw)
			}
			return nil
		}
	}
	return fmt.Errorf("%q must use one of the schemes %s", raw, strings.Join(schemes, ", "))
}
