package app

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/catalystcommunity/infrakit/internal/cache"
)

const operationSync = "sync"

// Sync asks ArgoCD to sync the named application and marks it as syncing
func (m *Manager) Sync(ctx context.Context, name string) (err error) {
	if name == "" {
		return fmt.Errorf("application name is required")
	}

	scope := operationSync + ":" + name
	acquired, err := m.cache.AcquireLock(ctx, scope, m.syncLockTTL)
	if err != nil {
		return err
	}
	if !acquired {
		return fmt.Errorf("syncing %s: %w", name, ErrLocked)
	}

	defer func() {
		if relErr := m.cache.ReleaseLock(context.WithoutCancel(ctx), scope); relErr != nil {
			err = multierror.Append(err, relErr)
		}
	}()

	if err := m.argocd.SyncApplication(ctx, name); err != nil {
		return err
	}

	state := cache.State{Status: cache.StatusSyncing, LastOperation: operationSync, LastSync: "pending"}
	if err := m.cache.CacheState(ctx, name, state, m.stateTTL); err != nil {
		return err
	}

	m.logger.Info("sync triggered", "name", name)
	return nil
}
