// Package controller provides output adapters for displaying conformance batch progress and results.
package controller

import (
	"context"

	m "lcevc.dev/pkg/conformance/internal/model"
)

// StartMode defines the mode of operation for the UI.
type StartMode int

// Available StartMode values.
const (
	ModeRun StartMode = iota
	ModeDecode
)

// StartOption is a functional option for Start method.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	mode StartMode
}

// WithRunMode sets the UI to encode/decode batch mode.
func WithRunMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeRun
	}
}

// WithDecodeMode sets the UI to decode conformance mode.
func WithDecodeMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeDecode
	}
}

// UI defines the interface for displaying batch progress.
// Implementations must be safe for use from concurrent workers.
type UI interface {
	Start(ctx context.Context, options ...StartOption) error
	Close(ctx context.Context)
	Wait(ctx context.Context) // Wait for UI to finish (user closes it)
	DisplayBatchInfo(ctx context.Context, jobs int, workers int)
	DisplayJobStarted(ctx context.Context, job m.JobDescriptor)
	DisplayJobCompleted(ctx context.Context, job m.JobDescriptor, result m.JobResult)
	DisplayBatchSummary(ctx context.Context, report m.BatchReport)
	DisplayDecodeResult(ctx context.Context, result m.DecodeResult)
	DisplayDecodeSummary(ctx context.Context, report m.DecodeReport)
	DisplayComparison(ctx context.Context, comparison m.HashComparison)
}
