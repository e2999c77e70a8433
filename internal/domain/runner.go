package domain

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
	"lcevc.dev/pkg/conformance/internal/controller"
	m "lcevc.dev/pkg/conformance/internal/model"
)

// Run loads the batch, builds and checks every job, runs them and writes the
// hash report. Configuration errors abort the batch before any job starts;
// job failures are counted in the report.
func (w *workflow) Run(ctx context.Context, args RunArgs) (m.BatchReport, error) {
	batch, err := w.LoadBatch(ctx, args.Files)
	if err != nil {
		slog.Error("Failed to load batch", "error", err)
		return m.BatchReport{}, fmt.Errorf("load batch: %w", err)
	}

	jobs, err := w.Build(batch, args.Build)
	if err != nil {
		slog.Error("Failed to build jobs", "error", err)
		return m.BatchReport{}, fmt.Errorf("build jobs: %w", err)
	}

	if err := w.preflight(ctx, jobs); err != nil {
		slog.Error("Batch configuration is invalid", "error", err)
		return m.BatchReport{}, fmt.Errorf("check jobs: %w", err)
	}

	if err := w.Start(ctx, controller.WithRunMode()); err != nil {
		slog.Error("Failed to start workflow UI", "error", err)
		return m.BatchReport{}, err
	}

	w.DisplayBatchInfo(ctx, len(jobs), args.Workers)

	results := w.runJobs(ctx, jobs, args.Workers)
	report := foldResults(jobs, results)

	if err := w.SaveHashes(ctx, args.Hashes, report.Hashes); err != nil {
		w.Close(ctx)
		slog.Error("Failed to save hash report", "path", args.Hashes, "error", err)

		return report, fmt.Errorf("save hashes: %w", err)
	}

	w.DisplayBatchSummary(ctx, report)

	if args.Reference != "" {
		reference, err := w.LoadHashes(ctx, args.Reference)
		if err != nil {
			w.Close(ctx)
			slog.Error("Failed to load reference hashes", "path", args.Reference, "error", err)

			return report, fmt.Errorf("load reference: %w", err)
		}

		comparison, err := CompareHashes(reference, report.Hashes)
		if err != nil {
			w.Close(ctx)
			return report, err
		}

		report.Comparison = &comparison
		w.DisplayComparison(ctx, comparison)
	}

	w.Wait(ctx)
	w.Close(ctx)

	return report, nil
}

// preflight resolves every job's parameters without running anything, so a
// missing include file or required key fails the batch up front.
func (w *workflow) preflight(ctx context.Context, jobs []m.JobDescriptor) error {
	var result *multierror.Error

	for _, job := range jobs {
		params, err := w.Resolve(ctx, job, JobDir(job))
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("job %d (%s): %w", job.Number, job.OutputName(), err))
			continue
		}

		if _, err := params.Decode(); err != nil {
			result = multierror.Append(result, fmt.Errorf("job %d (%s): %w", job.Number, job.OutputName(), err))
		}
	}

	return result.ErrorOrNil()
}

func (w *workflow) runJobs(ctx context.Context, jobs []m.JobDescriptor, workers int) []m.JobResult {
	if workers <= 0 {
		results := make([]m.JobResult, 0, len(jobs))
		for _, job := range jobs {
			results = append(results, w.runJob(ctx, job))
		}

		return results
	}

	resultsChannel := make(chan m.JobResult, workers)

	var group errgroup.Group
	group.SetLimit(workers)

	go func() {
		for _, job := range jobs {
			currentJob := job

			group.Go(func() error {
				resultsChannel <- w.runJob(ctx, currentJob)
				return nil
			})
		}

		_ = group.Wait()

		close(resultsChannel)
	}()

	results := make([]m.JobResult, 0, len(jobs))
	for result := range resultsChannel {
		results = append(results, result)
	}

	return results
}

func (w *workflow) runJob(ctx context.Context, job m.JobDescriptor) m.JobResult {
	w.DisplayJobStarted(ctx, job)

	var (
		result m.JobResult
		err    error
	)

	if err = ctx.Err(); err == nil {
		result, err = w.RunJob(ctx, job)
	}

	if err != nil {
		slog.Error("Job failed to run", "job", job.Number, "output", job.OutputName(), "error", err)

		result = m.JobResult{Number: job.Number, Test: job.Test.Clone(), Err: err.Error()}
	}

	w.DisplayJobCompleted(ctx, job, result)

	return result
}

// foldResults places every result at its job's position, whatever order the
// results arrived in, and builds the report from that ordering.
func foldResults(jobs []m.JobDescriptor, results []m.JobResult) m.BatchReport {
	position := make(map[int]int, len(jobs))
	for i, job := range jobs {
		position[job.Number] = i
	}

	ordered := make([]m.JobResult, len(jobs))
	seen := make([]bool, len(jobs))

	for _, result := range results {
		i, ok := position[result.Number]
		if !ok {
			slog.Warn("Dropping result for unknown job", "job", result.Number)
			continue
		}

		ordered[i] = result
		seen[i] = true
	}

	report := m.BatchReport{Results: ordered, Hashes: m.HashReport{}}

	for i, job := range jobs {
		if !seen[i] {
			ordered[i] = m.JobResult{Number: job.Number, Test: job.Test.Clone(), Err: "no result"}
		}

		if ordered[i].Test.Sequence == "" {
			ordered[i].Test.Sequence = job.Sequence
		}

		if !ordered[i].Success {
			report.Failures++
		}

		report.Hashes.Add(job.Sequence, ordered[i].Test)
	}

	return report
}
