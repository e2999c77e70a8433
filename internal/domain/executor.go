package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"lcevc.dev/pkg/conformance/internal/adapter"
	m "lcevc.dev/pkg/conformance/internal/model"
)

// JobExecutor runs one job end to end: encode, decode, validate, harness
// decode, verify, persist and clean up.
type JobExecutor interface {
	// RunJob returns an error only when the job could not be set up at all.
	// Tool and verification failures are reported through the result.
	RunJob(ctx context.Context, job m.JobDescriptor) (m.JobResult, error)
}

type jobExecutor struct {
	fs       adapter.WorkspaceFSAdapter
	process  adapter.ProcessAdapter
	resolver ParameterResolver
	verifier Verifier
	writer   ConformanceWriter
	status   io.Writer
}

// NewJobExecutor constructs a JobExecutor reporting progress lines to status.
func NewJobExecutor(
	fs adapter.WorkspaceFSAdapter,
	process adapter.ProcessAdapter,
	resolver ParameterResolver,
	verifier Verifier,
	writer ConformanceWriter,
	status io.Writer,
) JobExecutor {
	if status == nil {
		status = io.Discard
	}

	return &jobExecutor{
		fs:       fs,
		process:  process,
		resolver: resolver,
		verifier: verifier,
		writer:   writer,
		status:   status,
	}
}

// JobDir is the working directory of a job: one directory per test category,
// with one subdirectory per codec and sequence so concurrent jobs never share
// scratch files.
func JobDir(job m.JobDescriptor) string {
	return filepath.Join(string(job.WorkDir), job.Test.Category(), job.Codec+"_"+job.Sequence)
}

type jobRun struct {
	job    m.JobDescriptor
	dir    string
	output string
	tmpDir string
	params m.EncoderParameters
}

func (r *jobRun) path(name string) string {
	return filepath.Join(r.dir, name)
}

func (r *jobRun) artifact(suffix string) string {
	return r.path(r.output + suffix)
}

func (e *jobExecutor) RunJob(ctx context.Context, job m.JobDescriptor) (m.JobResult, error) {
	result := m.JobResult{Number: job.Number, Test: job.Test.Clone()}
	dir := JobDir(job)

	if err := e.fs.MkdirAll(ctx, dir); err != nil {
		slog.Error("Failed to create job directory", "job", job.Number, "dir", dir, "error", err)
		return result, fmt.Errorf("create job directory: %w", err)
	}

	params, err := e.resolver.Resolve(ctx, job, dir)
	if err != nil {
		return result, err
	}

	decoded, err := params.Decode()
	if err != nil {
		return result, fmt.Errorf("job %d: %w", job.Number, err)
	}

	run := &jobRun{
		job:    job,
		dir:    dir,
		output: job.OutputName(),
		tmpDir: "tmp_" + job.Sequence,
		params: decoded,
	}

	if err := e.writeConfig(ctx, run, params); err != nil {
		return result, err
	}

	e.statusf("Encode/Decode %d: %s : %s\n", job.Number, run.output, job.Test.Description)

	outcome := e.execute(ctx, run)

	result.Outcome = outcome
	result.Success = outcome.Success()
	result.Test.Checksum = outcome.Checksum
	result.Test.Sequence = job.Sequence

	if decoded.BaseRecon != "" {
		result.Test.BaseRecon = filepath.Base(decoded.BaseRecon)
	}

	return result, nil
}

func (e *jobExecutor) writeConfig(ctx context.Context, run *jobRun, params m.ParameterSet) error {
	content, err := json.MarshalIndent(params, "", "    ")
	if err != nil {
		return fmt.Errorf("encode parameters: %w", err)
	}

	if err := e.fs.WriteFile(ctx, run.artifact(SuffixConfig), content, 0o644); err != nil {
		slog.Error("Failed to write parameter file", "path", run.artifact(SuffixConfig), "error", err)
		return fmt.Errorf("write parameters: %w", err)
	}

	return nil
}

func (e *jobExecutor) execute(ctx context.Context, run *jobRun) m.JobOutcome {
	var outcome m.JobOutcome

	p := run.params
	tools := run.job.Tools

	if run.job.DecodeOnly {
		outcome.EncodeOK = true
	} else {
		outcome.EncodeOK = e.runStage(ctx, run, "Encode", EncoderArgs(tools.Encoder, p, run.output, run.job.Test.Limit), SuffixEncoderLog)
	}

	encodedXXH := e.verifier.XXH3(ctx, run.artifact(SuffixRecon), NoEncodedOutputXXH)
	encodedMD5 := e.verifier.MD5(ctx, run.artifact(SuffixRecon), NoEncodedOutput)

	if expected := run.job.Test.ExpectedMD5; expected != "" {
		outcome.ExpectedMismatch = !strings.EqualFold(expected, encodedMD5)
		e.statusf("Encoded checksum %d %s: %s\n", run.job.Number, run.output, verdict(!outcome.ExpectedMismatch))
	}

	bitstreamMD5 := NoBitstreamOutput
	if outcome.EncodeOK {
		bitstreamMD5 = e.verifier.MD5(ctx, run.artifact(SuffixBitstream), NoBitstreamOutput)
	}

	if outcome.EncodeOK {
		if err := e.fs.MkdirAll(ctx, run.path(run.tmpDir)); err != nil {
			slog.Error("Failed to create harness directory", "dir", run.path(run.tmpDir), "error", err)
		}

		outcome.DecodeOK = e.runStage(ctx, run, "Decode", DecoderArgs(tools.Decoder, p, run.output), SuffixDecoderLog)
		outcome.ValidateOK = e.runStage(ctx, run, "Validator", ValidatorArgs(tools.Validator, p, run.output), SuffixValidLog)
		outcome.HarnessOK = e.runStage(ctx, run, "Harness", HarnessArgs(tools.Harness, p, run.output, run.tmpDir), SuffixHarnessLog)
	}

	decoded := e.verifier.XXH3(ctx, run.artifact(SuffixDecoded), NoDecodedOutput)

	harnessOutputs := make([]string, 0, len(HarnessOutputs))
	for _, name := range HarnessOutputs {
		harnessOutputs = append(harnessOutputs, filepath.Join(run.dir, run.tmpDir, name))
	}

	harness := e.verifier.FirstXXH3(ctx, harnessOutputs, NoHarnessOutput)

	e.persistChecksums(ctx, run, bitstreamMD5, encodedMD5, StatusReport(encodedXXH, decoded, harness))

	outcome.Checksum = encodedXXH
	outcome.DecodeMatch = encodedXXH == decoded
	outcome.HarnessMatch = encodedXXH == harness

	e.statusf("LTM: Encoded vs decoded checksum %d %s: %s\n", run.job.Number, run.output, verdict(outcome.DecodeMatch))
	e.statusf("SDK: Encoded vs decoded checksum %d %s: %s\n", run.job.Number, run.output, verdict(outcome.HarnessMatch))

	e.cleanup(ctx, run)

	if outcome.DecodeMatch {
		e.persistConformance(ctx, run)
	}

	checked, ok := e.verifier.CheckUserData(ctx, run.dir, run.output)
	if checked {
		e.statusf("LTM: Userdata %d %s: %s\n", run.job.Number, run.output, verdict(ok))
	}

	outcome.UserDataOK = ok

	return outcome
}

func (e *jobExecutor) runStage(ctx context.Context, run *jobRun, stage string, args []string, logSuffix string) bool {
	ok, err := e.process.Run(ctx, adapter.ProcessSpec{
		Title:   fmt.Sprintf("  %s %d %s", stage, run.job.Number, run.output),
		Args:    args,
		Dir:     m.Path(run.dir),
		LogFile: m.Path(run.output + logSuffix),
		Display: run.job.Display,
	})
	if err != nil {
		slog.Error("Failed to run stage", "stage", stage, "job", run.job.Number, "error", err)
		return false
	}

	return ok
}

func (e *jobExecutor) persistChecksums(ctx context.Context, run *jobRun, bitstreamMD5, reconMD5, status string) {
	files := []struct {
		path    string
		content string
	}{
		{run.artifact(SuffixMD5), bitstreamMD5 + "\n"},
		{run.artifact(SuffixReconMD5), reconMD5 + "\n"},
		{run.artifact(SuffixStatus), status},
	}

	for _, file := range files {
		if err := e.fs.WriteFile(ctx, file.path, []byte(file.content), 0o644); err != nil {
			slog.Error("Failed to write checksum artifact", "path", file.path, "error", err)
		}
	}
}

// cleanup drops the raw reconstructions and the harness scratch directory.
// Failures are logged and never affect the verdict.
func (e *jobExecutor) cleanup(ctx context.Context, run *jobRun) {
	for _, suffix := range []string{SuffixRecon, SuffixDecoded} {
		if err := e.fs.Remove(ctx, run.artifact(suffix)); err != nil {
			slog.Warn("Failed to remove reconstruction", "path", run.artifact(suffix), "error", err)
		}
	}

	if err := e.fs.RemoveAll(ctx, run.path(run.tmpDir)); err != nil {
		slog.Warn("Failed to remove harness directory", "dir", run.path(run.tmpDir), "error", err)
	}
}

func (e *jobExecutor) persistConformance(ctx context.Context, run *jobRun) {
	p := run.params

	if err := e.writer.WriteOPL(ctx, run.artifact(SuffixEncoderLog), run.artifact(SuffixOPL), p.Width, p.Height); err != nil {
		slog.Warn("Skipping OPL", "job", run.job.Number, "error", err)
	}

	entry := ManifestEntry{
		Output:      run.output,
		Description: run.job.Test.Description,
		Width:       p.Width,
		Height:      p.Height,
		Info:        run.job.Manifest,
	}

	if err := e.writer.WriteManifest(ctx, run.artifact(SuffixManifest), entry); err != nil {
		slog.Warn("Skipping manifest", "job", run.job.Number, "error", err)
	}
}

func (e *jobExecutor) statusf(format string, args ...any) {
	_, _ = fmt.Fprintf(e.status, format, args...)
}

func verdict(ok bool) string {
	if ok {
		return "OK"
	}

	return "FAILED"
}
