package argocd

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockHTTPClient implements HTTPClient for testing
type mockHTTPClient struct {
	DoFunc func(ctx context.Context, method, path string, body interface{}) ([]byte, error)
}

func (m *mockHTTPClient) Do(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	return m.DoFunc(ctx, method, path, body)
}

func testApplication() *Application {
	return NewApplication("myapp", "argocd", ApplicationSpec{
		Project: "default",
		Source: ApplicationSource{
			RepoURL:        "https://github.com/acme/deploy.git",
			TargetRevision: "main",
			Path:           "apps/myapp",
		},
		Destination: ApplicationDestination{
			Server:    "https://kubernetes.default.svc",
			Namespace: "web",
		},
		SyncPolicy: &SyncPolicy{
			Automated: &SyncPolicyAutomated{Prune: true, SelfHeal: true},
		},
	})
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
		errMsg  string
	}{
		{
			name: "basic auth",
			opts: Options{URL: "https://argocd.example.com", Username: "admin", Password: "pw"},
		},
		{
			name: "token with trailing slash",
			opts: Options{URL: "https://argocd.example.com/", Token: "tok"},
		},
		{
			name: "insecure transport",
			opts: Options{URL: "https://argocd.example.com", Token: "tok", Insecure: true},
		},
		{
			name:    "empty URL",
			opts:    Options{Username: "admin"},
			wantErr: true,
			errMsg:  "API URL cannot be empty",
		},
		{
			name:    "no credentials",
			opts:    Options{URL: "https://argocd.example.com"},
			wantErr: true,
			errMsg:  "either token or username is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.opts)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Nil(t, client)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "https://argocd.example.com", client.baseURL)

			hc := client.httpClient.(*defaultHTTPClient)
			transport := hc.client.Transport.(*http.Transport)
			if tt.opts.Insecure {
				require.NotNil(t, transport.TLSClientConfig)
				assert.True(t, transport.TLSClientConfig.InsecureSkipVerify)
			} else if transport.TLSClientConfig != nil {
				assert.False(t, transport.TLSClientConfig.InsecureSkipVerify)
			}
		})
	}
}

func TestCreateApplication(t *testing.T) {
	tests := []struct {
		name     string
		app      *Application
		upsert   bool
		mockResp []byte
		mockErr  error
		wantPath string
		wantErr  bool
		errMsg   string
	}{
		{
			name:     "created",
			app:      testApplication(),
			mockResp: []byte(`{"metadata":{"name":"myapp","namespace":"argocd"},"spec":{"project":"default","source":{"repoURL":"https://github.com/acme/deploy.git"},"destination":{"namespace":"web"}}}`),
			wantPath: "/api/v1/applications",
		},
		{
			name:     "upsert",
			app:      testApplication(),
			upsert:   true,
			mockResp: []byte(`{"metadata":{"name":"myapp"}}`),
			wantPath: "/api/v1/applications?upsert=true",
		},
		{
			name:    "nil application",
			wantErr: true,
			errMsg:  "application name cannot be empty",
		},
		{
			name: "missing repo",
			app: NewApplication("myapp", "argocd", ApplicationSpec{
				Destination: ApplicationDestination{Namespace: "web"},
			}),
			wantErr: true,
			errMsg:  "repoURL cannot be empty",
		},
		{
			name:    "API error",
			app:     testApplication(),
			mockErr: &APIError{StatusCode: 400, Message: "application spec is invalid"},
			wantErr: true,
			errMsg:  "failed to create application",
		},
		{
			name:     "bad response",
			app:      testApplication(),
			mockResp: []byte(`not json`),
			wantErr:  true,
			errMsg:   "failed to parse response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath string
			var gotBody interface{}
			client := &Client{httpClient: &mockHTTPClient{
				DoFunc: func(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
					assert.Equal(t, http.MethodPost, method)
					gotPath = path
					gotBody = body
					return tt.mockResp, tt.mockErr
				},
			}}

			app, err := client.CreateApplication(context.Background(), tt.app, tt.upsert)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "myapp", app.Metadata.Name)
			assert.Equal(t, tt.wantPath, gotPath)
			assert.Same(t, tt.app, gotBody)
		})
	}
}

func TestSyncApplication(t *testing.T) {
	t.Run("posts empty sync request", func(t *testing.T) {
		client := &Client{httpClient: &mockHTTPClient{
			DoFunc: func(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
				assert.Equal(t, http.MethodPost, method)
				assert.Equal(t, "/api/v1/applications/myapp/sync", path)

				data, err := json.Marshal(body)
				require.NoError(t, err)
				assert.JSONEq(t, `{}`, string(data))
				return []byte(`{}`), nil
			},
		}}
		require.NoError(t, client.SyncApplication(context.Background(), "myapp"))
	})

	t.Run("escapes the name", func(t *testing.T) {
		client := &Client{httpClient: &mockHTTPClient{
			DoFunc: func(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
				assert.Equal(t, "/api/v1/applications/a%2Fb/sync", path)
				return nil, nil
			},
		}}
		require.NoError(t, client.SyncApplication(context.Background(), "a/b"))
	})

	t.Run("empty name", func(t *testing.T) {
		client := &Client{httpClient: &mockHTTPClient{}}
		err := client.SyncApplication(context.Background(), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "application name cannot be empty")
	})

	t.Run("API error is preserved", func(t *testing.T) {
		client := &Client{httpClient: &mockHTTPClient{
			DoFunc: func(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
				return nil, &APIError{StatusCode: 404, Message: "not found"}
			},
		}}
		err := client.SyncApplication(context.Background(), "ghost")
		require.Error(t, err)
		assert.True(t, IsNotFound(err))
	})
}

func TestGetApplication(t *testing.T) {
	client := &Client{httpClient: &mockHTTPClient{
		DoFunc: func(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
			assert.Equal(t, http.MethodGet, method)
			assert.Equal(t, "/api/v1/applications/myapp", path)
			assert.Nil(t, body)
			return []byte(`{
				"metadata": {"name": "myapp"},
				"status": {
					"health": {"status": "Healthy"},
					"sync": {"status": "Synced", "revision": "4f1c2e9"}
				}
			}`), nil
		},
	}}

	app, err := client.GetApplication(context.Background(), "myapp")
	require.NoError(t, err)
	assert.Equal(t, "Healthy", app.Status.Health.Status)
	assert.Equal(t, "Synced", app.Status.Sync.Status)
	assert.Equal(t, "4f1c2e9", app.Status.Sync.Revision)

	_, err = client.GetApplication(context.Background(), "")
	require.Error(t, err)
}

func TestListApplications(t *testing.T) {
	tests := []struct {
		name     string
		mockResp string
		want     int
	}{
		{name: "items", mockResp: `{"items":[{"metadata":{"name":"a"}},{"metadata":{"name":"b"}}]}`, want: 2},
		{name: "null items", mockResp: `{"items":null}`, want: 0},
		{name: "empty object", mockResp: `{}`, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &Client{httpClient: &mockHTTPClient{
				DoFunc: func(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
					assert.Equal(t, "/api/v1/applications", path)
					return []byte(tt.mockResp), nil
				},
			}}

			apps, err := client.ListApplications(context.Background())
			require.NoError(t, err)
			assert.NotNil(t, apps)
			assert.Len(t, apps, tt.want)
		})
	}
}

func TestApplicationJSON(t *testing.T) {
	data, err := json.Marshal(testApplication())
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"apiVersion": "argoproj.io/v1alpha1",
		"kind": "Application",
		"metadata": {"name": "myapp", "namespace": "argocd"},
		"spec": {
			"project": "default",
			"source": {
				"repoURL": "https://github.com/acme/deploy.git",
				"targetRevision": "main",
				"path": "apps/myapp"
			},
			"destination": {"server": "https://kubernetes.default.svc", "namespace": "web"},
			"syncPolicy": {"automated": {"prune": true, "selfHeal": true}}
		}
	}`, string(data))
}

func TestAPIError(t *testing.T) {
	assert.Equal(t, "ArgoCD API error (status 403): permission denied",
		(&APIError{StatusCode: 403, Message: "permission denied"}).Error())
	assert.Equal(t, "ArgoCD API error (status 500): boom",
		(&APIError{StatusCode: 500, ErrorMsg: "boom"}).Error())

	assert.True(t, IsNotFound(&APIError{StatusCode: 404}))
	assert.False(t, IsNotFound(&APIError{StatusCode: 400}))
	assert.False(t, IsNotFound(errors.New("404")))
}

func TestDefaultHTTPClient(t *testing.T) {
	t.Run("basic auth request", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "admin", user)
			assert.Equal(t, "pw", pass)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Equal(t, "/api/v1/applications", r.URL.Path)
			assert.Equal(t, "true", r.URL.Query().Get("upsert"))

			var app Application
			require.NoError(t, json.NewDecoder(r.Body).Decode(&app))
			assert.Equal(t, "myapp", app.Metadata.Name)

			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(app)
		}))
		defer server.Close()

		client, err := NewClient(Options{URL: server.URL, Username: "admin", Password: "pw"})
		require.NoError(t, err)

		app, err := client.CreateApplication(context.Background(), testApplication(), true)
		require.NoError(t, err)
		assert.Equal(t, "web", app.Spec.Destination.Namespace)
	})

	t.Run("bearer token request", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			assert.Equal(t, "/api/v1/applications/myapp/sync", r.URL.Path)
			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{}`, string(body))
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		client, err := NewClient(Options{URL: server.URL, Token: "tok"})
		require.NoError(t, err)
		require.NoError(t, client.SyncApplication(context.Background(), "myapp"))
	})

	t.Run("json API error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error":"permission denied","code":7,"message":"permission denied"}`))
		}))
		defer server.Close()

		client, err := NewClient(Options{URL: server.URL, Token: "tok"})
		require.NoError(t, err)

		_, err = client.GetApplication(context.Background(), "myapp")
		require.Error(t, err)

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
		assert.Equal(t, "permission denied", apiErr.Message)
		assert.Equal(t, 7, apiErr.Code)
	})

	t.Run("plain text error body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("upstream unavailable\n"))
		}))
		defer server.Close()

		client, err := NewClient(Options{URL: server.URL, Token: "tok"})
		require.NoError(t, err)

		_, err = client.ListApplications(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 502")
		assert.Contains(t, err.Error(), "upstream unavailable")
	})

	t.Run("empty error body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client, err := NewClient(Options{URL: server.URL, Token: "tok"})
		require.NoError(t, err)

		_, err = client.GetApplication(context.Background(), "ghost")
		require.Error(t, err)
		assert.True(t, IsNotFound(err))
		assert.Contains(t, err.Error(), "Not Found")
	})

	t.Run("cancelled context", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client, err := NewClient(Options{URL: server.URL, Token: "tok"})
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = client.ListApplications(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
