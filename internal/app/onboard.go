package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/catalystcommunity/infrakit/internal/argocd"
	"github.com/catalystcommunity/infrakit/internal/cache"
	"github.com/catalystcommunity/infrakit/internal/envelope"
	"github.com/catalystcommunity/infrakit/internal/service"
	"github.com/catalystcommunity/infrakit/internal/store"
)

const operationOnboard = "onboard"

// OnboardRequest describes an application to onboard
type OnboardRequest struct {
	Name      string
	Cluster   string
	Namespace string
	Chart     string
	Repo      string
	Path      string
	Revision  string

	ValuesFile string
	// Values is inline YAML or JSON passed to helm and to ArgoCD
	Values string
	// Kubeconfig overrides the kubeconfig configured for the cluster
	Kubeconfig string

	CreateNamespace bool
}

// Validate checks the required fields and fills in defaults
func (r *OnboardRequest) Validate() error {
	var errs error
	if r.Name == "" {
		errs = multierror.Append(errs, errors.New("name is required"))
	}
	if r.Cluster == "" {
		errs = multierror.Append(errs, errors.New("cluster is required"))
	}
	if r.Chart == "" {
		errs = multierror.Append(errs, errors.New("chart is required"))
	}
	if r.Repo == "" {
		errs = multierror.Append(errs, errors.New("repo is required"))
	}
	if errs != nil {
		return errs
	}

	if r.Namespace == "" {
		r.Namespace = "default"
	}
	if r.Path == "" {
		r.Path = "."
	}
	if r.Revision == "" {
		r.Revision = "main"
	}
	return nil
}

// Onboard renders and validates the chart, records the application and
// hands it to ArgoCD. Only one onboarding per application name runs at a
// time. A failure is cached as the application state.
func (m *Manager) Onboard(ctx context.Context, req OnboardRequest) (err error) {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid onboard request: %w", err)
	}

	scope := operationOnboard + ":" + req.Name
	acquired, err := m.cache.AcquireLock(ctx, scope, m.onboardLockTTL)
	if err != nil {
		return err
	}
	if !acquired {
		return fmt.Errorf("onboarding %s: %w", req.Name, ErrLocked)
	}

	defer func() {
		if relErr := m.cache.ReleaseLock(context.WithoutCancel(ctx), scope); relErr != nil {
			err = multierror.Append(err, relErr)
		}
	}()

	m.logger.Info("starting onboarding", "name", req.Name, "cluster", req.Cluster)

	if err := m.onboard(ctx, req); err != nil {
		m.logger.Error("onboarding failed", "name", req.Name, "error", err)

		failed := cache.State{Status: cache.StatusFailed, Cluster: req.Cluster, LastOperation: operationOnboard, Error: err.Error()}
		if cacheErr := m.cache.CacheState(context.WithoutCancel(ctx), req.Name, failed, m.stateTTL); cacheErr != nil {
			return multierror.Append(err, cacheErr)
		}
		return err
	}

	m.logger.Info("onboarded application", "name", req.Name)
	return nil
}

func (m *Manager) onboard(ctx context.Context, req OnboardRequest) error {
	kubeconfig := m.cfg.KubeconfigFor(req.Cluster, req.Kubeconfig)

	rendered, err := m.call(ctx, service.CommandGenerateHelm, map[string]any{
		"name":        req.Name,
		"chart":       req.Chart,
		"namespace":   req.Namespace,
		"values_file": req.ValuesFile,
		"values":      req.Values,
	})
	if err != nil {
		return fmt.Errorf("helm template generation failed: %w", err)
	}
	m.logger.Debug("rendered chart", "name", req.Name, "bytes", len(rendered.Manifest))

	validatePayload := map[string]any{"manifest": rendered.Manifest}
	if kubeconfig != "" {
		validatePayload["kubeconfig"] = kubeconfig
	}
	if _, err := m.call(ctx, service.CommandValidateK8s, validatePayload); err != nil {
		return fmt.Errorf("manifest validation failed: %w", err)
	}

	if req.CreateNamespace {
		if err := m.ensureNamespace(ctx, kubeconfig, req.Namespace); err != nil {
			return err
		}
	}

	if err := m.store.Upsert(ctx, store.Application{
		Name:        req.Name,
		Cluster:     req.Cluster,
		Namespace:   req.Namespace,
		HelmChart:   req.Chart,
		GitRepo:     req.Repo,
		GitRevision: req.Revision,
		GitPath:     req.Path,
	}); err != nil {
		return err
	}

	if _, err := m.argocd.CreateApplication(ctx, m.argoApplication(req), true); err != nil {
		return err
	}

	active := cache.State{Status: cache.StatusActive, Cluster: req.Cluster, LastOperation: operationOnboard}
	return m.cache.CacheState(ctx, req.Name, active, m.stateTTL)
}

// call runs a service command and turns a success:false response into an error
func (m *Manager) call(ctx context.Context, command string, payload map[string]any) (*envelope.Response, error) {
	for k, v := range payload {
		if s, ok := v.(string); ok && s == "" {
			delete(payload, k)
		}
	}

	resp, err := m.service.Call(ctx, command, payload)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, errors.New(resp.Error)
	}
	return resp, nil
}

func (m *Manager) ensureNamespace(ctx context.Context, kubeconfig, namespace string) error {
	if kubeconfig == "" {
		m.logger.Warn("no kubeconfig available, skipping namespace creation", "namespace", namespace)
		return nil
	}

	cluster, err := m.clusters(kubeconfig)
	if err != nil {
		return fmt.Errorf("failed to connect to cluster: %w", err)
	}

	created, err := cluster.EnsureNamespace(ctx, namespace)
	if err != nil {
		return err
	}
	if created {
		m.logger.Info("created namespace", "namespace", namespace)
	}
	return nil
}

func (m *Manager) argoApplication(req OnboardRequest) *argocd.Application {
	dest := m.cfg.DestinationFor(req.Cluster)

	policy := &argocd.SyncPolicy{
		Automated: &argocd.SyncPolicyAutomated{Prune: true, SelfHeal: true},
	}
	if req.CreateNamespace {
		policy.SyncOptions = []string{"CreateNamespace=true"}
	}

	return argocd.NewApplication(req.Name, m.cfg.ArgoCD.Namespace, argocd.ApplicationSpec{
		Project: m.cfg.ArgoCD.Project,
		Source: argocd.ApplicationSource{
			RepoURL:        req.Repo,
			TargetRevision: req.Revision,
			Path:           req.Path,
			Helm: &argocd.HelmSource{
				ReleaseName: req.Name,
				Values:      req.Values,
			},
		},
		Destination: argocd.ApplicationDestination{
			Server:    dest.Server,
			Name:      dest.Name,
			Namespace: req.Namespace,
		},
		SyncPolicy: policy,
	})
}
