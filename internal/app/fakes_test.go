package app

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/catalystcommunity/infrakit/internal/argocd"
	"github.com/catalystcommunity/infrakit/internal/cache"
	"github.com/catalystcommunity/infrakit/internal/config"
	"github.com/catalystcommunity/infrakit/internal/envelope"
	"github.com/catalystcommunity/infrakit/internal/k8s"
	"github.com/catalystcommunity/infrakit/internal/store"
)

type serviceCall struct {
	Command string
	Payload map[string]any
}

type fakeService struct {
	mu        sync.Mutex
	calls     []serviceCall
	responses map[string]*envelope.Response
	err       error
}

func (f *fakeService) Call(ctx context.Context, command string, payload map[string]any) (*envelope.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, serviceCall{Command: command, Payload: payload})
	if f.err != nil {
		return nil, f.err
	}
	if resp, ok := f.responses[command]; ok {
		return resp, nil
	}
	return &envelope.Response{Success: true}, nil
}

type fakeStore struct {
	apps      map[string]store.Application
	upsertErr error
	err       error
}

func newFakeStore(apps ...store.Application) *fakeStore {
	s := &fakeStore{apps: map[string]store.Application{}}
	for _, a := range apps {
		s.apps[a.Name] = a
	}
	return s
}

func (s *fakeStore) Upsert(ctx context.Context, app store.Application) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.apps[app.Name] = app
	return nil
}

func (s *fakeStore) Get(ctx context.Context, name string) (*store.Application, error) {
	app, ok := s.apps[name]
	if !ok {
		return nil, store.ErrApplicationNotFound
	}
	return &app, nil
}

func (s *fakeStore) List(ctx context.Context) ([]store.Application, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := []store.Application{}
	for _, a := range s.apps {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type fakeArgoCD struct {
	created []*argocd.Application
	synced  []string
	status  argocd.ApplicationStatus
	known   []string
	err     error
}

func (f *fakeArgoCD) CreateApplication(ctx context.Context, app *argocd.Application, upsert bool) (*argocd.Application, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, app)
	return app, nil
}

func (f *fakeArgoCD) SyncApplication(ctx context.Context, name string) error {
	if f.err != nil {
		return f.err
	}
	f.synced = append(f.synced, name)
	return nil
}

func (f *fakeArgoCD) GetApplication(ctx context.Context, name string) (*argocd.Application, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &argocd.Application{Metadata: argocd.ObjectMeta{Name: name}, Status: f.status}, nil
}

func (f *fakeArgoCD) ListApplications(ctx context.Context) ([]argocd.Application, error) {
	if f.err != nil {
		return nil, f.err
	}
	apps := make([]argocd.Application, 0, len(f.known))
	for _, name := range f.known {
		apps = append(apps, argocd.Application{Metadata: argocd.ObjectMeta{Name: name}, Status: f.status})
	}
	return apps, nil
}

type fakeCluster struct {
	kubeconfig string
	namespaces []string
	pods       []*k8s.Pod
	podQuery   [2]string
	err        error
}

func (f *fakeCluster) EnsureNamespace(ctx context.Context, name string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.namespaces = append(f.namespaces, name)
	return true, nil
}

func (f *fakeCluster) GetApplicationPods(ctx context.Context, namespace, name string) ([]*k8s.Pod, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.podQuery = [2]string{namespace, name}
	return f.pods, nil
}

type harness struct {
	mgr     *Manager
	cfg     *config.Config
	redis   *miniredis.Miniredis
	cache   *cache.Cache
	service *fakeService
	store   *fakeStore
	argocd  *fakeArgoCD
	cluster *fakeCluster
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	mr := miniredis.RunT(t)
	c := cache.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { c.Close() })

	cfg := config.DefaultConfig()
	cfg.Kubernetes.Kubeconfig = "/home/ops/.kube/config"
	cfg.Clusters = map[string]config.ClusterConfig{
		"prod": {Server: "https://prod.example.com:6443", Kubeconfig: "/home/ops/.kube/prod"},
	}

	h := &harness{
		cfg:   cfg,
		redis: mr,
		cache: c,
		service: &fakeService{responses: map[string]*envelope.Response{
			"generate-helm": {Success: true, Manifest: "kind: Deployment\n"},
			"validate-k8s":  {Success: true, Message: "Manifest validated successfully"},
		}},
		store:   newFakeStore(),
		argocd:  &fakeArgoCD{},
		cluster: &fakeCluster{},
	}
	h.mgr = NewManager(cfg, Deps{
		Service: h.service,
		Store:   h.store,
		Cache:   c,
		ArgoCD:  h.argocd,
		Clusters: func(kubeconfig string) (Cluster, error) {
			if kubeconfig == "/broken" {
				return nil, errors.New("invalid kubeconfig")
			}
			h.cluster.kubeconfig = kubeconfig
			return h.cluster, nil
		},
	})
	return h
}
