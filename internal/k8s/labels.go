package k8s

import (
	"k8s.io/apimachinery/pkg/labels"
)

// Well-known labels
const (
	LabelManagedBy = "app.kubernetes.io/managed-by"
	LabelInstance  = "app.kubernetes.io/instance"

	ManagedByValue = "infrakit"
)

// ManagedLabels returns the labels set on objects infrakit creates
func ManagedLabels() map[string]string {
	return map[string]string{LabelManagedBy: ManagedByValue}
}

// IsManaged reports whether an object carrying objLabels was created by infrakit
func IsManaged(objLabels map[string]string) bool {
	return objLabels[LabelManagedBy] == ManagedByValue
}

// InstanceSelector selects the objects Helm charts label with the release name
func InstanceSelector(release string) string {
	return labels.SelectorFromSet(labels.Set{LabelInstance: release}).String()
}
