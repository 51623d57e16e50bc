package helm

import (
	"context"
	"fmt"
	"os"

	"github.com/catalystcommunity/infrakit/internal/runner"
	"sigs.k8s.io/yaml"
)

// DefaultBinary is the helm executable looked up in PATH
const DefaultBinary = "helm"

// Templater renders charts by shelling out to the helm CLI
type Templater struct {
	Runner  runner.Runner
	Binary  string
	TempDir string // directory for inline values files, os.TempDir() when empty
}

// NewTemplater creates a Templater using the default helm binary
func NewTemplater(r runner.Runner) *Templater {
	return &Templater{Runner: r, Binary: DefaultBinary}
}

// Template runs `helm template` and returns the process result.
// A nil result means helm was never started.
func (t *Templater) Template(ctx context.Context, opts TemplateOptions) (*runner.Result, error) {
	if opts.ReleaseName == "" {
		return nil, fmt.Errorf("release name cannot be empty")
	}
	if opts.Chart == "" {
		return nil, fmt.Errorf("chart cannot be empty")
	}

	args := templateArgs(opts)

	if opts.InlineValues != "" {
		valuesYAML, err := NormalizeValues(opts.InlineValues)
		if err != nil {
			return nil, err
		}

		valuesFile, err := os.CreateTemp(t.TempDir, "helm-values-*.yaml")
		if err != nil {
			return nil, fmt.Errorf("failed to create values file: %w", err)
		}
		defer os.Remove(valuesFile.Name())

		if _, err := valuesFile.Write(valuesYAML); err != nil {
			valuesFile.Close()
			return nil, fmt.Errorf("failed to write values file: %w", err)
		}
		if err := valuesFile.Close(); err != nil {
			return nil, fmt.Errorf("failed to close values file: %w", err)
		}
		args = append(args, "--values", valuesFile.Name())
	}

	binary := t.Binary
	if binary == "" {
		binary = DefaultBinary
	}

	return t.Runner.Run(ctx, runner.Command{Name: binary, Args: args})
}

func templateArgs(opts TemplateOptions) []string {
	args := []string{"template", opts.ReleaseName, opts.Chart}
	if opts.Namespace != "" {
		args = append(args, "--namespace", opts.Namespace)
	}
	if opts.Version != "" {
		args = append(args, "--version", opts.Version)
	}
	if opts.ValuesFile != "" {
		args = append(args, "--values", opts.ValuesFile)
	}
	return args
}

// NormalizeValues converts inline YAML or JSON values into YAML.
// The document must be a mapping, matching what helm accepts in a values file.
func NormalizeValues(raw string) ([]byte, error) {
	var values map[string]interface{}
	if err := yaml.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("failed to parse values: %w", err)
	}
	if values == nil {
		values = map[string]interface{}{}
	}
	out, err := yaml.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("failed to encode values: %w", err)
	}
	return out, nil
}
