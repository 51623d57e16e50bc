package helm

import "time"

// Release represents a Helm release
type Release struct {
	Name       string
	Namespace  string
	Version    int
	Status     string
	Chart      string
	AppVersion string
	Updated    time.Time
}

// TemplateOptions contains options for rendering a chart with `helm template`
type TemplateOptions struct {
	ReleaseName string
	Chart       string
	Namespace   string
	Version     string
	ValuesFile  string
	// InlineValues is YAML or JSON text written to a temporary values file
	InlineValues string
}

// ListOptions contains options for listing releases
type ListOptions struct {
	Namespace     string
	AllNamespaces bool
}
