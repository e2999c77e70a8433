package controller

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	m "lcevc.dev/pkg/conformance/internal/model"
)

const (
	passLabel = "OK"
	failLabel = "FAILED"
)

// SimpleUI implements UI using cobra Command's writers. Batch progress goes to
// the error stream next to the process status lines; tables, decode results
// and comparisons go to the output stream.
type SimpleUI struct {
	cmd *cobra.Command
	mu  sync.Mutex
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context, _ ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return nil
}

// Close finalizes the UI.
func (s *SimpleUI) Close(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		return
	}
}

// Wait blocks until the UI is closed (no-op for SimpleUI).
func (s *SimpleUI) Wait(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		return
	}
	// SimpleUI doesn't block - it just prints and continues
}

// DisplayBatchInfo announces how many jobs will run and how.
func (s *SimpleUI) DisplayBatchInfo(ctx context.Context, jobs int, workers int) {
	if err := ctx.Err(); err != nil {
		return
	}

	if workers <= 0 {
		s.statusf("Running %d tests\n", jobs)
		return
	}

	s.statusf("Running %d tests using %d workers\n", jobs, workers)
}

// DisplayJobStarted shows which job a worker picked up.
func (s *SimpleUI) DisplayJobStarted(ctx context.Context, job m.JobDescriptor) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.statusf("-- Test %d %s %s\n", job.Number, job.Sequence, job.Test.Name)
}

// DisplayJobCompleted prints the verdict of one job.
func (s *SimpleUI) DisplayJobCompleted(ctx context.Context, job m.JobDescriptor, result m.JobResult) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.statusf("Test %d %s: %s\n", job.Number, job.OutputName(), label(result.Success))

	if result.Err != "" {
		s.statusf("  error: %s\n", result.Err)
	}
}

// DisplayBatchSummary prints a per-job table and the failure count.
func (s *SimpleUI) DisplayBatchSummary(ctx context.Context, report m.BatchReport) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("\n%s", renderBatchTable(report))

	if report.Failures != 0 {
		s.statusf("Tests failed: %d\n", report.Failures)
	}
}

func renderBatchTable(report m.BatchReport) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Job", "Output", "Encode", "Decode", "Harness", "LTM", "SDK", "Userdata", "Result"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)

	for _, result := range report.Results {
		o := result.Outcome
		table.Append([]string{
			fmt.Sprintf("%d", result.Number),
			result.Test.OutputName(result.Test.Sequence),
			mark(o.EncodeOK),
			mark(o.DecodeOK),
			mark(o.HarnessOK),
			mark(o.DecodeMatch),
			mark(o.HarnessMatch),
			mark(o.UserDataOK),
			label(result.Success),
		})
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total %d", len(report.Results)),
		"", "", "", "", "", "", "",
		fmt.Sprintf("%d failed", report.Failures),
	})

	table.Render()

	return tableBuffer.String()
}

// DisplayDecodeResult prints the checks of one re-decoded bitstream.
func (s *SimpleUI) DisplayDecodeResult(ctx context.Context, result m.DecodeResult) {
	if err := ctx.Err(); err != nil {
		return
	}

	switch {
	case result.Err != "":
		s.printf("decode FAILED: %s (%s)\n", result.Bitstream, result.Err)
		return
	case !result.DecodeOK:
		s.printf("decode FAILED: %s\n", result.Bitstream)
		return
	}

	if result.ChecksumChecked {
		s.printf("Encoded vs stored checksum %s: %s\n", result.Bitstream, label(result.ChecksumMatch))

		if !result.ChecksumMatch {
			s.printf("Decoded MD5: %s\n", result.Checksum)
			s.printf("Stored MD5:  %s\n", result.StoredChecksum)
		}
	} else {
		s.printf("MD5 %s  --  %s\n", result.Bitstream, result.Checksum)
	}

	if result.UserDataChecked {
		s.printf("Userdata Comparison %s: %s\n", result.Bitstream, label(result.UserDataOK))
	}
}

// DisplayDecodeSummary prints the failure count of a decode run.
func (s *SimpleUI) DisplayDecodeSummary(ctx context.Context, report m.DecodeReport) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("Decoded %d bitstream(s), %d failed\n", len(report.Results), report.Failures)
}

// DisplayComparison prints the differences between two hash reports.
func (s *SimpleUI) DisplayComparison(ctx context.Context, comparison m.HashComparison) {
	if err := ctx.Err(); err != nil {
		return
	}

	if comparison.Equal() {
		s.printf("Hashes match reference\n")
		return
	}

	s.printf("Hashes differ from reference: %d added, %d removed, %d changed\n",
		len(comparison.Added), len(comparison.Removed), len(comparison.Changed))
	s.printf("%s", comparison.Diff)
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}

func (s *SimpleUI) statusf(format string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = fmt.Fprintf(s.cmd.ErrOrStderr(), format, args...)
}

func label(ok bool) string {
	if ok {
		return passLabel
	}

	return failLabel
}

func mark(ok bool) string {
	if ok {
		return "✓"
	}

	return "✗"
}
