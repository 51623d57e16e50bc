// Package app implements the infrakit workflows: onboarding, syncing and
// inspecting GitOps applications across the service binary, ArgoCD,
// PostgreSQL, Redis and the target cluster.
package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/catalystcommunity/infrakit/internal/argocd"
	"github.com/catalystcommunity/infrakit/internal/cache"
	"github.com/catalystcommunity/infrakit/internal/config"
	"github.com/catalystcommunity/infrakit/internal/k8s"
	"github.com/catalystcommunity/infrakit/internal/service"
	"github.com/catalystcommunity/infrakit/internal/store"
)

// Lock lifetimes
const (
	OnboardLockTTL = 30 * time.Second
	SyncLockTTL    = 60 * time.Second
)

// ErrLocked is returned when another invocation holds the lock of an operation
var ErrLocked = errors.New("operation already in progress")

// ApplicationStore persists application records
type ApplicationStore interface {
	Upsert(ctx context.Context, app store.Application) error
	Get(ctx context.Context, name string) (*store.Application, error)
	List(ctx context.Context) ([]store.Application, error)
}

// StateCache caches application state and hands out locks
type StateCache interface {
	CacheState(ctx context.Context, name string, state cache.State, ttl time.Duration) error
	GetState(ctx context.Context, name string) (*cache.State, error)
	AcquireLock(ctx context.Context, scope string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, scope string) error
}

// ArgoCD manages ArgoCD applications
type ArgoCD interface {
	CreateApplication(ctx context.Context, app *argocd.Application, upsert bool) (*argocd.Application, error)
	SyncApplication(ctx context.Context, name string) error
	GetApplication(ctx context.Context, name string) (*argocd.Application, error)
	ListApplications(ctx context.Context) ([]argocd.Application, error)
}

// Cluster is the slice of the Kubernetes API the workflows touch
type Cluster interface {
	EnsureNamespace(ctx context.Context, name string) (bool, error)
	GetApplicationPods(ctx context.Context, namespace, name string) ([]*k8s.Pod, error)
}

// ClusterFactory connects to the cluster behind a kubeconfig path
type ClusterFactory func(kubeconfig string) (Cluster, error)

// Deps are the collaborators of a Manager. Only the ones a workflow
// touches need to be set.
type Deps struct {
	Service  service.Caller
	Store    ApplicationStore
	Cache    StateCache
	ArgoCD   ArgoCD
	Clusters ClusterFactory
	Logger   *slog.Logger
}

// Manager runs the workflows
type Manager struct {
	cfg      *config.Config
	service  service.Caller
	store    ApplicationStore
	cache    StateCache
	argocd   ArgoCD
	clusters ClusterFactory
	logger   *slog.Logger

	onboardLockTTL time.Duration
	syncLockTTL    time.Duration
	stateTTL       time.Duration
}

// NewManager creates a Manager for cfg
func NewManager(cfg *config.Config, deps Deps) *Manager {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	clusters := deps.Clusters
	if clusters == nil {
		clusters = DefaultClusterFactory
	}

	return &Manager{
		cfg:            cfg,
		service:        deps.Service,
		store:          deps.Store,
		cache:          deps.Cache,
		argocd:         deps.ArgoCD,
		clusters:       clusters,
		logger:         logger,
		onboardLockTTL: OnboardLockTTL,
		syncLockTTL:    SyncLockTTL,
		stateTTL:       cache.DefaultStateTTL,
	}
}

// DefaultClusterFactory builds client-go clients
func DefaultClusterFactory(kubeconfig string) (Cluster, error) {
	return k8s.NewClient(kubeconfig)
}

// List returns all stored applications ordered by name
func (m *Manager) List(ctx context.Context) ([]store.Application, error) {
	return m.store.List(ctx)
}

// Listing pairs a stored application with its ArgoCD status. Live is nil
// when ArgoCD does not know the application.
type Listing struct {
	store.Application
	Live *argocd.ApplicationStatus
}

// ListLive returns the stored applications joined with the status ArgoCD
// reports for each of them
func (m *Manager) ListLive(ctx context.Context) ([]Listing, error) {
	apps, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}

	remote, err := m.argocd.ListApplications(ctx)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]*argocd.ApplicationStatus, len(remote))
	for i := range remote {
		byName[remote[i].Metadata.Name] = &remote[i].Status
	}

	listings := make([]Listing, 0, len(apps))
	for _, a := range apps {
		live := byName[a.Name]
		if live == nil {
			m.logger.Debug("application not found in ArgoCD", "name", a.Name)
		}
		listings = append(listings, Listing{Application: a, Live: live})
	}
	return listings, nil
}
