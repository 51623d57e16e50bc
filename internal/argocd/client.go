package argocd

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	applicationsPath = "/api/v1/applications"
	// APIVersion and Kind of ArgoCD Application resources
	APIVersion = "argoproj.io/v1alpha1"
	Kind       = "Application"
)

// NewClient creates a new ArgoCD API client
func NewClient(opts Options) (*Client, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("API URL cannot be empty")
	}
	if opts.Token == "" && opts.Username == "" {
		return nil, fmt.Errorf("either token or username is required")
	}

	baseURL := strings.TrimSuffix(opts.URL, "/")

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	httpClient := &defaultHTTPClient{
		baseURL:  baseURL,
		username: opts.Username,
		password: opts.Password,
		token:    opts.Token,
		client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}, nil
}

// defaultHTTPClient implements HTTPClient using net/http
type defaultHTTPClient struct {
	baseURL  string
	username string
	password string
	token    string
	client   *http.Client
}

// Do performs an HTTP request
func (c *defaultHTTPClient) Do(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	} else {
		req.SetBasicAuth(c.username, c.password)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(respBody, apiErr); err != nil || (apiErr.ErrorMsg == "" && apiErr.Message == "") {
			apiErr.Message = strings.TrimSpace(string(respBody))
			if apiErr.Message == "" {
				apiErr.Message = http.StatusText(resp.StatusCode)
			}
		}
		return nil, apiErr
	}

	return respBody, nil
}

// NewApplication fills in the resource header of an Application
func NewApplication(name, namespace string, spec ApplicationSpec) *Application {
	return &Application{
		APIVersion: APIVersion,
		Kind:       Kind,
		Metadata:   ObjectMeta{Name: name, Namespace: namespace},
		Spec:       spec,
	}
}

// CreateApplication creates app in ArgoCD. With upsert an existing
// application of the same name is updated instead of rejected.
func (c *Client) CreateApplication(ctx context.Context, app *Application, upsert bool) (*Application, error) {
	if app == nil || app.Metadata.Name == "" {
		return nil, fmt.Errorf("application name cannot be empty")
	}
	if app.Spec.Source.RepoURL == "" {
		return nil, fmt.Errorf("application source repoURL cannot be empty")
	}

	path := applicationsPath
	if upsert {
		path += "?upsert=true"
	}

	respBody, err := c.httpClient.Do(ctx, http.MethodPost, path, app)
	if err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	var created Application
	if err := json.Unmarshal(respBody, &created); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &created, nil
}

// SyncApplication triggers a sync of the named application
func (c *Client) SyncApplication(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	path := fmt.Sprintf("%s/%s/sync", applicationsPath, url.PathEscape(name))
	if _, err := c.httpClient.Do(ctx, http.MethodPost, path, SyncRequest{}); err != nil {
		return fmt.Errorf("failed to sync application: %w", err)
	}

	return nil
}

// GetApplication fetches the named application including its status
func (c *Client) GetApplication(ctx context.Context, name string) (*Application, error) {
	if name == "" {
		return nil, fmt.Errorf("application name cannot be empty")
	}

	path := fmt.Sprintf("%s/%s", applicationsPath, url.PathEscape(name))
	respBody, err := c.httpClient.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}

	var app Application
	if err := json.Unmarshal(respBody, &app); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &app, nil
}

// ListApplications lists all applications visible to the credentials
func (c *Client) ListApplications(ctx context.Context) ([]Application, error) {
	respBody, err := c.httpClient.Do(ctx, http.MethodGet, applicationsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}

	var list ApplicationList
	if err := json.Unmarshal(respBody, &list); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if list.Items == nil {
		return []Application{}, nil
	}
	return list.Items, nil
}
