package adapter

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	m "lcevc.dev/pkg/conformance/internal/model"
)

const spinnerGlyphs = "|/-\\|/-\\"

// ProcessSpec describes one supervised invocation of an external tool.
type ProcessSpec struct {
	// Title labels the process on the status stream.
	Title string
	// Args is the full command line; Args[0] is the executable.
	Args []string
	// Dir is the working directory of the process.
	Dir m.Path
	// LogFile receives the command line followed by every output line.
	// Relative paths are resolved against Dir.
	LogFile m.Path
	// Display selects how progress is shown on the status stream.
	Display m.DisplayMode
}

// ProcessAdapter supervises external encoder, decoder, validator and harness runs.
type ProcessAdapter interface {
	// Run executes the process described by spec and reports whether it
	// exited with status 0. An error is returned only when the log file
	// cannot be created; launch failures are logged and reported as false.
	Run(ctx context.Context, spec ProcessSpec) (bool, error)
}

// LocalProcessAdapter runs processes with os/exec and streams their merged
// output line by line into the log file and the status stream.
type LocalProcessAdapter struct {
	status io.Writer
}

// NewLocalProcessAdapter constructs a LocalProcessAdapter writing progress to status.
func NewLocalProcessAdapter(status io.Writer) *LocalProcessAdapter {
	if status == nil {
		status = io.Discard
	}

	return &LocalProcessAdapter{status: NewSyncWriter(status)}
}

// Run starts the process and blocks until it exits.
func (a *LocalProcessAdapter) Run(ctx context.Context, spec ProcessSpec) (bool, error) {
	if len(spec.Args) == 0 {
		return false, fmt.Errorf("no command given for %q", spec.Title)
	}

	logPath := string(spec.LogFile)
	if !filepath.IsAbs(logPath) {
		logPath = filepath.Join(string(spec.Dir), logPath)
	}

	// #nosec G304 - log path is derived from the job output name
	logFile, err := os.Create(logPath)
	if err != nil {
		slog.Error("Failed to create process log", "title", spec.Title, "log", logPath, "error", err)
		return false, fmt.Errorf("create log %s: %w", logPath, err)
	}

	defer func() {
		if err := logFile.Close(); err != nil {
			slog.Error("Failed to close process log", "log", logPath, "error", err)
		}
	}()

	a.statusf("    %s: Start\r", spec.Title)

	if spec.Display == m.DisplayNone || spec.Display == "" {
		a.statusf("\n")
	} else {
		a.statusf("\r")
	}

	_, _ = fmt.Fprintln(logFile, strings.Join(spec.Args, " "))

	ok := a.execute(ctx, spec, logFile)
	if !ok {
		a.statusf("    %s: FAILED\n", spec.Title)
		return false, nil
	}

	a.statusf("    %s: OK    \n", spec.Title)

	return true, nil
}

func (a *LocalProcessAdapter) execute(ctx context.Context, spec ProcessSpec, logFile io.Writer) bool {
	// #nosec G204 - tool paths come from the operator's configuration
	cmd := exec.CommandContext(ctx, spec.Args[0], spec.Args[1:]...)
	cmd.Dir = string(spec.Dir)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		slog.Error("Failed to attach process output", "title", spec.Title, "error", err)
		_, _ = fmt.Fprintf(logFile, "failed to attach output: %v\n", err)

		return false
	}

	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		slog.Error("Failed to start process", "title", spec.Title, "command", spec.Args[0], "error", err)
		_, _ = fmt.Fprintf(logFile, "failed to start: %v\n", err)

		return false
	}

	a.stream(spec, stdout, logFile)

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			slog.Debug("Process exited with failure", "title", spec.Title, "code", exitErr.ExitCode())
		} else {
			slog.Error("Failed waiting for process", "title", spec.Title, "error", err)
		}

		return false
	}

	return true
}

// maxLineSize bounds how much output is held before a line is forced out.
const maxLineSize = 64 * 1024

// stream forwards lines as they arrive so a hung or killed process still
// leaves its partial output in the log.
func (a *LocalProcessAdapter) stream(spec ProcessSpec, output io.Reader, logFile io.Writer) {
	scanner := bufio.NewScanner(output)
	scanner.Buffer(make([]byte, 0, 4096), 2*maxLineSize)
	scanner.Split(scanOutputLines)

	for n := 0; scanner.Scan(); n++ {
		line := scanner.Text()
		a.progress(spec, n, line)
		_, _ = fmt.Fprintln(logFile, strings.TrimSpace(line))
	}

	if err := scanner.Err(); err != nil {
		slog.Warn("Process output read interrupted", "title", spec.Title, "error", err)
		// Keep draining so the process never blocks on a full pipe.
		_, _ = io.Copy(logFile, output)
	}
}

// scanOutputLines is a bufio.SplitFunc ending lines at "\n", "\r" or "\r\n".
// Lines longer than maxLineSize are split.
func scanOutputLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.IndexAny(data, "\r\n"); i >= 0 && i < maxLineSize {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}

		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}

			return i + 1, data[:i], nil
		}

		if atEOF {
			return i + 1, data[:i], nil
		}

		// A trailing "\r" may be the first half of "\r\n".
		return 0, nil, nil
	}

	if len(data) >= maxLineSize {
		return maxLineSize, data[:maxLineSize], nil
	}

	if atEOF {
		return len(data), data, nil
	}

	return 0, nil, nil
}

func (a *LocalProcessAdapter) progress(spec ProcessSpec, n int, line string) {
	switch spec.Display {
	case m.DisplaySpinner:
		a.statusf("    %s: %c      \r", spec.Title, spinnerGlyphs[n%len(spinnerGlyphs)])
	case m.DisplayVerbose:
		if !strings.HasSuffix(line, "\n") {
			line += "\n"
		}

		a.statusf("%s", line)
	case m.DisplayNone:
	}
}

func (a *LocalProcessAdapter) statusf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.status, format, args...)
}

// SyncWriter serialises writes from concurrent jobs onto one stream.
type SyncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewSyncWriter wraps w. Wrapping a SyncWriter returns it unchanged.
func NewSyncWriter(w io.Writer) *SyncWriter {
	if sw, ok := w.(*SyncWriter); ok {
		return sw
	}

	return &SyncWriter{w: w}
}

// Write implements io.Writer.
func (s *SyncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.w.Write(p)
}
