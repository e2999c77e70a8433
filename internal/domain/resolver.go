package domain

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"lcevc.dev/pkg/conformance/internal/adapter"
	m "lcevc.dev/pkg/conformance/internal/model"
)

// pathParameters are resolved against the input or base root directories and
// then rewritten relative to the job directory.
var pathParameters = []string{m.KeyInputFile, m.KeyBase, m.KeyBaseRecon}

// ParameterResolver produces the final parameter set of a job.
//
// Layers, lowest precedence first:
//  1. metadata parsed from the input filename (with format normalisation)
//  2. the test's include-parameters file
//  3. the test's own parameters
//  4. the batch defaults of the job (codec, resolution, sequence files)
//
// Batch defaults identify the codec and sequence under test, so a test
// cannot override them.
type ParameterResolver interface {
	Resolve(ctx context.Context, job m.JobDescriptor, jobDir string) (m.ParameterSet, error)
}

type parameterResolver struct {
	manifests adapter.ManifestStore
	fs        adapter.WorkspaceFSAdapter
}

// NewParameterResolver constructs a ParameterResolver.
func NewParameterResolver(manifests adapter.ManifestStore, fs adapter.WorkspaceFSAdapter) ParameterResolver {
	return &parameterResolver{manifests: manifests, fs: fs}
}

func (r *parameterResolver) Resolve(ctx context.Context, job m.JobDescriptor, jobDir string) (m.ParameterSet, error) {
	params := m.Merge(job.Test.Parameters, job.Defaults)

	if job.Test.IncludeParameters != "" {
		included, err := r.manifests.LoadParameters(ctx, m.Path(job.Test.IncludeParameters))
		if err != nil {
			return nil, fmt.Errorf("include parameters for %s: %w", job.Test.Name, err)
		}

		params = m.Merge(included, params)
	}

	if input, ok := params.String(m.KeyInputFile); ok {
		params = m.Merge(ParseFilenameMetadata(input), params)
	}

	if job.Test.GenerateBase {
		params = params.Without(m.KeyBase, m.KeyBaseRecon)
	}

	if err := r.anchorPaths(params, job); err != nil {
		return nil, err
	}

	if err := r.relativizePaths(params, jobDir); err != nil {
		return nil, err
	}

	return params, nil
}

// anchorPaths makes input and base paths absolute. Empty values mean absent.
func (r *parameterResolver) anchorPaths(params m.ParameterSet, job m.JobDescriptor) error {
	roots := map[string]m.Path{
		m.KeyInputFile: job.InputDir,
		m.KeyBase:      job.BaseDir,
		m.KeyBaseRecon: job.BaseDir,
	}

	for _, key := range pathParameters {
		value, ok := params.String(key)
		if !ok || value == "" || filepath.IsAbs(value) {
			continue
		}

		abs, err := r.fs.AbsPath(filepath.Join(string(roots[key]), value))
		if err != nil {
			slog.Error("Failed to resolve parameter path", "key", key, "value", value, "error", err)
			return fmt.Errorf("resolve %s: %w", key, err)
		}

		params[key] = abs
	}

	return nil
}

// relativizePaths rewrites path parameters relative to the job directory so
// the written config stays portable.
func (r *parameterResolver) relativizePaths(params m.ParameterSet, jobDir string) error {
	base, err := r.fs.AbsPath(jobDir)
	if err != nil {
		return fmt.Errorf("resolve job directory: %w", err)
	}

	for _, key := range pathParameters {
		value, ok := params.String(key)
		if !ok || value == "" {
			continue
		}

		rel, err := r.fs.RelPath(base, value)
		if err != nil {
			slog.Error("Failed to relativize parameter path", "key", key, "value", value, "error", err)
			return fmt.Errorf("relativize %s: %w", key, err)
		}

		params[key] = rel
	}

	return nil
}
