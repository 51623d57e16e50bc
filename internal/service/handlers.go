package service

import (
	"context"
	"errors"

	"github.com/catalystcommunity/infrakit/internal/envelope"
	"github.com/catalystcommunity/infrakit/internal/helm"
	"github.com/catalystcommunity/infrakit/internal/kubectl"
	"github.com/catalystcommunity/infrakit/internal/runner"
)

// Response texts shared with callers of the service
const (
	MsgMissingNameOrChart = "Both 'name' and 'chart' must be provided"
	MsgMissingManifest    = "No manifest provided"
	MsgManifestValid      = "Manifest validated successfully"
)

// GenerateHelm renders a chart with `helm template <name> <chart>`.
// Optional string fields namespace, version, values_file and values are
// passed through to helm.
func (s *Server) GenerateHelm(ctx context.Context, req envelope.Request) envelope.Response {
	name, nameOk := req.NonEmpty("name")
	chart, chartOk := req.NonEmpty("chart")
	if !nameOk || !chartOk {
		return envelope.Failure(MsgMissingNameOrChart)
	}

	opts := helm.TemplateOptions{ReleaseName: name, Chart: chart}
	optional := []struct {
		key    string
		target *string
	}{
		{"namespace", &opts.Namespace},
		{"version", &opts.Version},
		{"values_file", &opts.ValuesFile},
		{"values", &opts.InlineValues},
	}
	for _, field := range optional {
		v, err := req.Optional(field.key)
		if err != nil {
			return envelope.Failure(err.Error())
		}
		*field.target = v
	}

	s.logger.Info("rendering chart", "release", name, "chart", chart)
	result, err := s.templater.Template(ctx, opts)
	if err != nil {
		return failureFromRun(result, err)
	}

	if len(result.Stderr) > 0 {
		s.logger.Warn("helm wrote to stderr", "output", string(result.Stderr))
	}
	return envelope.WithManifest(string(result.Stdout))
}

// ValidateK8s runs a server-side dry run of the manifest field, honouring
// an optional kubeconfig path.
func (s *Server) ValidateK8s(ctx context.Context, req envelope.Request) envelope.Response {
	manifest, ok := req.NonEmpty("manifest")
	if !ok {
		return envelope.Failure(MsgMissingManifest)
	}

	kubeconfig, err := req.Optional("kubeconfig")
	if err != nil {
		return envelope.Failure(err.Error())
	}

	s.logger.Info("validating manifest", "bytes", len(manifest), "kubeconfig", kubeconfig)
	result, err := s.validator.Validate(ctx, manifest, kubeconfig)
	if err != nil {
		var tfErr *kubectl.TempFileError
		if errors.As(err, &tfErr) {
			return envelope.Failure(tfErr.Error())
		}
		return failureFromRun(result, err)
	}

	return envelope.WithMessage(MsgManifestValid)
}

// failureFromRun embeds the raw subprocess output ahead of the failure reason
func failureFromRun(result *runner.Result, err error) envelope.Response {
	if result == nil {
		return envelope.Failure(err.Error())
	}
	return envelope.Failure(string(result.Combined) + "\n" + err.Error())
}
