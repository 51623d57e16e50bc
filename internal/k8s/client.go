package k8s

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// Client wraps Kubernetes client-go for the read-mostly views infrakit needs
type Client struct {
	clientset kubernetes.Interface
	config    *rest.Config
}

// NewClient creates a client from a kubeconfig path. An empty path follows
// the usual KUBECONFIG / ~/.kube/config loading rules.
func NewClient(kubeconfigPath string) (*Client, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if kubeconfigPath != "" {
		rules.ExplicitPath = kubeconfigPath
	}

	config, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, &clientcmd.ConfigOverrides{}).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load kubeconfig: %w", err)
	}

	return newClientForConfig(config)
}

// NewClientFromKubeconfig creates a Kubernetes client from kubeconfig bytes
func NewClientFromKubeconfig(kubeconfig []byte) (*Client, error) {
	if len(kubeconfig) == 0 {
		return nil, fmt.Errorf("kubeconfig is empty")
	}

	config, err := clientcmd.RESTConfigFromKubeConfig(kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to build config from kubeconfig: %w", err)
	}

	return newClientForConfig(config)
}

// NewFromClientset wraps an existing clientset
func NewFromClientset(clientset kubernetes.Interface) *Client {
	return &Client{clientset: clientset}
}

func newClientForConfig(config *rest.Config) (*Client, error) {
	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes clientset: %w", err)
	}

	return &Client{
		clientset: clientset,
		config:    config,
	}, nil
}

// GetPods retrieves the pods in namespace matching selector.
// If namespace is empty, retrieves pods from all namespaces.
func (c *Client) GetPods(ctx context.Context, namespace, selector string) ([]*Pod, error) {
	if namespace == "" {
		namespace = metav1.NamespaceAll
	}

	podList, err := c.clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{LabelSelector: selector})
	if err != nil {
		return nil, fmt.Errorf("failed to list pods: %w", err)
	}

	pods := make([]*Pod, 0, len(podList.Items))
	for i := range podList.Items {
		pods = append(pods, PodFromCoreV1(&podList.Items[i]))
	}

	return pods, nil
}

// GetApplicationPods lists the pods a Helm release named name created in namespace
func (c *Client) GetApplicationPods(ctx context.Context, namespace, name string) ([]*Pod, error) {
	return c.GetPods(ctx, namespace, InstanceSelector(name))
}

// GetNamespace retrieves a namespace by name
func (c *Client) GetNamespace(ctx context.Context, name string) (*Namespace, error) {
	ns, err := c.clientset.CoreV1().Namespaces().Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get namespace: %w", err)
	}

	return NamespaceFromCoreV1(ns), nil
}

// CreateNamespace creates a new namespace labelled as managed by infrakit
func (c *Client) CreateNamespace(ctx context.Context, name string) error {
	ns := &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{
			Name:   name,
			Labels: ManagedLabels(),
		},
	}

	_, err := c.clientset.CoreV1().Namespaces().Create(ctx, ns, metav1.CreateOptions{})
	if err != nil {
		return fmt.Errorf("failed to create namespace: %w", err)
	}

	return nil
}

// EnsureNamespace creates name unless it already exists. It reports
// whether the namespace was created.
func (c *Client) EnsureNamespace(ctx context.Context, name string) (bool, error) {
	_, err := c.clientset.CoreV1().Namespaces().Get(ctx, name, metav1.GetOptions{})
	if err == nil {
		return false, nil
	}
	if !apierrors.IsNotFound(err) {
		return false, fmt.Errorf("failed to get namespace: %w", err)
	}

	if err := c.CreateNamespace(ctx, name); err != nil {
		// lost a race with another creator
		if apierrors.IsAlreadyExists(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Clientset returns the underlying Kubernetes clientset
func (c *Client) Clientset() kubernetes.Interface {
	return c.clientset
}

// Config returns the REST config, nil for clients built from a clientset
func (c *Client) Config() *rest.Config {
	return c.config
}
