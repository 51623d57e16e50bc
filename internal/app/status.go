package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/catalystcommunity/infrakit/internal/argocd"
	"github.com/catalystcommunity/infrakit/internal/cache"
	"github.com/catalystcommunity/infrakit/internal/k8s"
	"github.com/catalystcommunity/infrakit/internal/store"
)

// StatusOptions selects the optional live views
type StatusOptions struct {
	// Live fetches health and sync status from ArgoCD
	Live bool
	// Pods lists the pods of the application namespace
	Pods bool
}

// Status is what infrakit knows about an application
type Status struct {
	Name   string
	Cached *cache.State
	Record *store.Application
	Live   *argocd.ApplicationStatus
	Pods   []*k8s.Pod

	// LiveMissing is set when ArgoCD has no application by this name
	LiveMissing bool
}

// Status returns the cached state of an application, falling back to the
// stored record when nothing is cached.
func (m *Manager) Status(ctx context.Context, name string, opts StatusOptions) (*Status, error) {
	if name == "" {
		return nil, fmt.Errorf("application name is required")
	}

	st := &Status{Name: name}

	cached, err := m.cache.GetState(ctx, name)
	if err != nil {
		m.logger.Warn("failed to read cached state", "name", name, "error", err)
	}
	st.Cached = cached

	if st.Cached == nil || opts.Pods {
		m.logger.Debug("loading application record", "name", name)
		record, err := m.store.Get(ctx, name)
		if err != nil {
			if errors.Is(err, store.ErrApplicationNotFound) && st.Cached != nil {
				return nil, fmt.Errorf("application %s has no stored record, cannot list pods", name)
			}
			return nil, err
		}
		st.Record = record
	}

	if opts.Live {
		app, err := m.argocd.GetApplication(ctx, name)
		switch {
		case argocd.IsNotFound(err):
			st.LiveMissing = true
		case err != nil:
			return nil, err
		default:
			st.Live = &app.Status
		}
	}

	if opts.Pods {
		cluster, err := m.clusters(m.cfg.KubeconfigFor(st.Record.Cluster, ""))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to cluster: %w", err)
		}
		pods, err := cluster.GetApplicationPods(ctx, st.Record.Namespace, name)
		if err != nil {
			return nil, err
		}
		st.Pods = pods
	}

	return st, nil
}
