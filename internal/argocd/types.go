package argocd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Client represents an ArgoCD API client
type Client struct {
	baseURL string
	// httpClient is exposed for testing
	httpClient HTTPClient
}

// HTTPClient interface for HTTP operations (allows mocking)
type HTTPClient interface {
	Do(ctx context.Context, method, path string, body interface{}) ([]byte, error)
}

// Options configures NewClient. Either Token or Username/Password must be set.
type Options struct {
	URL      string
	Username string
	Password string
	Token    string
	Insecure bool
}

// Application is an argoproj.io/v1alpha1 Application
type Application struct {
	APIVersion string            `json:"apiVersion,omitempty"`
	Kind       string            `json:"kind,omitempty"`
	Metadata   ObjectMeta        `json:"metadata"`
	Spec       ApplicationSpec   `json:"spec"`
	Status     ApplicationStatus `json:"status,omitzero"`
}

// ObjectMeta holds the application name and the namespace ArgoCD runs in
type ObjectMeta struct {
	Name      string            `json:"name"`
	Namespace string            `json:"namespace,omitempty"`
	Labels    map[string]string `json:"labels,omitempty"`
}

// ApplicationSpec describes what to deploy and where
type ApplicationSpec struct {
	Project     string                 `json:"project"`
	Source      ApplicationSource      `json:"source"`
	Destination ApplicationDestination `json:"destination"`
	SyncPolicy  *SyncPolicy            `json:"syncPolicy,omitempty"`
}

// ApplicationSource is the git location of the manifests
type ApplicationSource struct {
	RepoURL        string      `json:"repoURL"`
	TargetRevision string      `json:"targetRevision,omitempty"`
	Path           string      `json:"path,omitempty"`
	Helm           *HelmSource `json:"helm,omitempty"`
}

// HelmSource carries helm parameters when the source path is a chart
type HelmSource struct {
	ReleaseName string   `json:"releaseName,omitempty"`
	ValueFiles  []string `json:"valueFiles,omitempty"`
	Values      string   `json:"values,omitempty"`
}

// ApplicationDestination selects the cluster by server URL or by name
type ApplicationDestination struct {
	Server    string `json:"server,omitempty"`
	Name      string `json:"name,omitempty"`
	Namespace string `json:"namespace"`
}

// SyncPolicy controls automated syncing
type SyncPolicy struct {
	Automated   *SyncPolicyAutomated `json:"automated,omitempty"`
	SyncOptions []string             `json:"syncOptions,omitempty"`
}

// SyncPolicyAutomated enables pruning and self healing
type SyncPolicyAutomated struct {
	Prune    bool `json:"prune"`
	SelfHeal bool `json:"selfHeal"`
}

// ApplicationStatus is the part of the status infrakit reports
type ApplicationStatus struct {
	Health HealthStatus `json:"health,omitzero"`
	Sync   SyncStatus   `json:"sync,omitzero"`
}

// HealthStatus is the aggregated resource health
type HealthStatus struct {
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

// SyncStatus is the comparison result against git
type SyncStatus struct {
	Status   string `json:"status,omitempty"`
	Revision string `json:"revision,omitempty"`
}

// ApplicationList is the response of the list endpoint
type ApplicationList struct {
	Items []Application `json:"items"`
}

// SyncRequest is the body of the sync endpoint; empty means defaults
type SyncRequest struct {
	Revision string `json:"revision,omitempty"`
	Prune    bool   `json:"prune,omitempty"`
	DryRun   bool   `json:"dryRun,omitempty"`
}

// APIError represents an error response from the ArgoCD API
type APIError struct {
	StatusCode int    `json:"-"`
	ErrorMsg   string `json:"error,omitempty"`
	Message    string `json:"message,omitempty"`
	Code       int    `json:"code,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.ErrorMsg
	}
	return fmt.Sprintf("ArgoCD API error (status %d): %s", e.StatusCode, msg)
}

// IsNotFound reports whether err is an ArgoCD 404
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
