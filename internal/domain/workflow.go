// Package domain implements the conformance batch workflow: job construction,
// per-job execution and verification, and decode-only re-verification of
// published bitstreams.
package domain

import (
	"context"

	"lcevc.dev/pkg/conformance/internal/adapter"
	"lcevc.dev/pkg/conformance/internal/controller"
	m "lcevc.dev/pkg/conformance/internal/model"
)

// RunArgs configures an encode/decode batch.
type RunArgs struct {
	Files adapter.BatchFiles
	Build BuildArgs
	// Workers is the number of concurrent jobs. Zero runs jobs one at a
	// time on the calling goroutine.
	Workers int
	// Hashes is where the hash report is written.
	Hashes m.Path
	// Reference is an optional earlier hash report to compare against.
	Reference m.Path
}

// DecodeArgs configures a decode conformance run over published bitstreams.
type DecodeArgs struct {
	Decoder m.Path
	Root    m.Path
	// Pattern selects bitstreams below Root; it defaults to "**/*.bit".
	Pattern string
	// Base is a base codec name or "auto" to detect it per bitstream.
	Base    string
	Workers int
	Display m.DisplayMode
}

// CompareArgs names the two hash reports to compare.
type CompareArgs struct {
	Reference m.Path
	Current   m.Path
}

// Workflow defines the high-level operations of the conformance tool.
type Workflow interface {
	Run(ctx context.Context, args RunArgs) (m.BatchReport, error)
	Decode(ctx context.Context, args DecodeArgs) (m.DecodeReport, error)
	Compare(ctx context.Context, args CompareArgs) (m.HashComparison, error)
}

type workflow struct {
	adapter.ManifestStore
	adapter.ReportStore
	adapter.WorkspaceFSAdapter
	adapter.ProcessAdapter
	controller.UI
	JobBuilder
	ParameterResolver
	JobExecutor
	Verifier
}

// WorkflowDeps are the collaborators a Workflow is assembled from.
type WorkflowDeps struct {
	Manifests adapter.ManifestStore
	Reports   adapter.ReportStore
	FS        adapter.WorkspaceFSAdapter
	Process   adapter.ProcessAdapter
	UI        controller.UI
	Builder   JobBuilder
	Resolver  ParameterResolver
	Executor  JobExecutor
	Verifier  Verifier
}

// NewWorkflow creates a new Workflow instance with the provided dependencies.
func NewWorkflow(deps WorkflowDeps) Workflow {
	return &workflow{
		ManifestStore:      deps.Manifests,
		ReportStore:        deps.Reports,
		WorkspaceFSAdapter: deps.FS,
		ProcessAdapter:     deps.Process,
		UI:                 deps.UI,
		JobBuilder:         deps.Builder,
		ParameterResolver:  deps.Resolver,
		JobExecutor:        deps.Executor,
		Verifier:           deps.Verifier,
	}
}
