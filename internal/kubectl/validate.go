package kubectl

import (
	"context"
	"fmt"
	"os"

	"github.com/catalystcommunity/infrakit/internal/runner"
)

// DefaultBinary is the kubectl executable looked up in PATH
const DefaultBinary = "kubectl"

// tempFilePattern names the manifest files handed to kubectl
const tempFilePattern = "k8s-validate-"

// Validator submits manifests to the API server with a server-side dry run
type Validator struct {
	Runner  runner.Runner
	Binary  string
	TempDir string // os.TempDir() when empty
}

// NewValidator creates a Validator using the default kubectl binary
func NewValidator(r runner.Runner) *Validator {
	return &Validator{Runner: r, Binary: DefaultBinary}
}

// TempFileError reports a failure while staging the manifest on disk
type TempFileError struct {
	Op  string
	Err error
}

func (e *TempFileError) Error() string {
	switch e.Op {
	case "create":
		return "Failed to create temp file: " + e.Err.Error()
	case "write":
		return "Failed to write manifest: " + e.Err.Error()
	default:
		return "Failed to close temp file: " + e.Err.Error()
	}
}

func (e *TempFileError) Unwrap() error { return e.Err }

// Validate writes manifest to a temp file and runs
// `kubectl apply --dry-run=server -f <file>` against it. KUBECONFIG is
// overridden when kubeconfig is non-empty. The temp file is removed on
// every return path. A nil result means kubectl was never started.
func (v *Validator) Validate(ctx context.Context, manifest, kubeconfig string) (*runner.Result, error) {
	if manifest == "" {
		return nil, fmt.Errorf("manifest cannot be empty")
	}

	tmpfile, err := os.CreateTemp(v.TempDir, tempFilePattern)
	if err != nil {
		return nil, &TempFileError{Op: "create", Err: err}
	}
	defer os.Remove(tmpfile.Name())

	if _, err := tmpfile.WriteString(manifest); err != nil {
		tmpfile.Close()
		return nil, &TempFileError{Op: "write", Err: err}
	}
	if err := tmpfile.Close(); err != nil {
		return nil, &TempFileError{Op: "close", Err: err}
	}

	binary := v.Binary
	if binary == "" {
		binary = DefaultBinary
	}

	cmd := runner.Command{
		Name: binary,
		Args: []string{"apply", "--dry-run=server", "-f", tmpfile.Name()},
	}
	if kubeconfig != "" {
		cmd.Env = []string{"KUBECONFIG=" + kubeconfig}
	}

	return v.Runner.Run(ctx, cmd)
}
