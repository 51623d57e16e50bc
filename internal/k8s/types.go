package k8s

import (
	"time"

	corev1 "k8s.io/api/core/v1"
)

// Pod represents a Kubernetes pod with simplified fields
type Pod struct {
	Name              string
	Namespace         string
	Status            string
	Phase             corev1.PodPhase
	Ready             bool
	NodeName          string
	PodIP             string
	CreationTimestamp time.Time
	Containers        []Container
}

// Restarts sums the restart counts of all containers
func (p *Pod) Restarts() int32 {
	var total int32
	for _, c := range p.Containers {
		total += c.Restarts
	}
	return total
}

// ReadyCount returns "ready/total" for the pod's containers
func (p *Pod) ReadyCount() (ready, total int) {
	for _, c := range p.Containers {
		if c.Ready {
			ready++
		}
	}
	return ready, len(p.Containers)
}

// Namespace represents a Kubernetes namespace
type Namespace struct {
	Name              string
	Status            string
	Managed           bool
	CreationTimestamp time.Time
}

// Container represents a container within a pod
type Container struct {
	Name     string
	Image    string
	Ready    bool
	State    string
	Restarts int32
}

// NamespaceFromCoreV1 converts a core/v1 Namespace to our Namespace type
func NamespaceFromCoreV1(ns *corev1.Namespace) *Namespace {
	return &Namespace{
		Name:              ns.Name,
		Status:            string(ns.Status.Phase),
		Managed:           IsManaged(ns.Labels),
		CreationTimestamp: ns.CreationTimestamp.Time,
	}
}

// PodFromCoreV1 converts a core/v1 Pod to our Pod type
func PodFromCoreV1(pod *corev1.Pod) *Pod {
	p := &Pod{
		Name:              pod.Name,
		Namespace:         pod.Namespace,
		Phase:             pod.Status.Phase,
		Status:            podStatus(pod),
		Ready:             isPodReady(pod),
		NodeName:          pod.Spec.NodeName,
		PodIP:             pod.Status.PodIP,
		CreationTimestamp: pod.CreationTimestamp.Time,
		Containers:        make([]Container, 0, len(pod.Status.ContainerStatuses)),
	}

	for _, cs := range pod.Status.ContainerStatuses {
		container := Container{
			Name:     cs.Name,
			Image:    cs.Image,
			Ready:    cs.Ready,
			Restarts: cs.RestartCount,
		}

		switch {
		case cs.State.Running != nil:
			container.State = "Running"
		case cs.State.Waiting != nil:
			container.State = "Waiting"
		case cs.State.Terminated != nil:
			container.State = "Terminated"
		}

		p.Containers = append(p.Containers, container)
	}

	return p
}

// podStatus mirrors the STATUS column of kubectl get pods: a waiting
// reason such as CrashLoopBackOff wins over the phase.
func podStatus(pod *corev1.Pod) string {
	if pod.DeletionTimestamp != nil {
		return "Terminating"
	}
	for _, cs := range pod.Status.ContainerStatuses {
		if cs.State.Waiting != nil && cs.State.Waiting.Reason != "" {
			return cs.State.Waiting.Reason
		}
	}
	if pod.Status.Reason != "" {
		return pod.Status.Reason
	}
	return string(pod.Status.Phase)
}

// isPodReady checks if all containers in a pod are ready
func isPodReady(pod *corev1.Pod) bool {
	for _, cond := range pod.Status.Conditions {
		if cond.Type == corev1.PodReady {
			return cond.Status == corev1.ConditionTrue
		}
	}
	return false
}
