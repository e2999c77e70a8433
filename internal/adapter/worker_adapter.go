package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os/exec"

	m "lcevc.dev/pkg/conformance/internal/model"
)

// WorkerProcessAdapter runs one job per child process. The child reads the
// job descriptor as JSON on stdin and writes its JobResult as JSON on stdout.
type WorkerProcessAdapter struct {
	command []string
	stderr  io.Writer
}

// NewWorkerProcessAdapter constructs a WorkerProcessAdapter. command is the
// full worker command line, e.g. {"/usr/bin/conformance", "worker"}.
// The child's stderr carries its status output and is forwarded to stderr.
func NewWorkerProcessAdapter(command []string, stderr io.Writer) *WorkerProcessAdapter {
	if stderr == nil {
		stderr = io.Discard
	}

	return &WorkerProcessAdapter{command: command, stderr: stderr}
}

// RunJob sends job to a fresh worker process and decodes its result.
func (a *WorkerProcessAdapter) RunJob(ctx context.Context, job m.JobDescriptor) (m.JobResult, error) {
	if len(a.command) == 0 {
		return m.JobResult{}, fmt.Errorf("no worker command configured")
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return m.JobResult{}, fmt.Errorf("encode job %d: %w", job.Number, err)
	}

	// #nosec G204 - the worker command is this executable
	cmd := exec.CommandContext(ctx, a.command[0], a.command[1:]...)
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stderr = a.stderr

	var stdout bytes.Buffer

	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		slog.Error("Worker process failed", "job", job.Number, "error", err)
		return m.JobResult{}, fmt.Errorf("worker for job %d: %w", job.Number, err)
	}

	var result m.JobResult
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return m.JobResult{}, fmt.Errorf("decode result of job %d: %w", job.Number, err)
	}

	if result.Number != job.Number {
		return m.JobResult{}, fmt.Errorf("worker answered for job %d, expected %d", result.Number, job.Number)
	}

	return result, nil
}
