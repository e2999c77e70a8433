package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	m "lcevc.dev/pkg/conformance/internal/model"
)

// ReportStore persists the hash report of a batch.
type ReportStore interface {
	SaveHashes(ctx context.Context, path m.Path, report m.HashReport) error
	LoadHashes(ctx context.Context, path m.Path) (m.HashReport, error)
}

type reportStore struct{}

// NewReportStore returns a ReportStore writing indented JSON.
func NewReportStore() ReportStore {
	return &reportStore{}
}

// MarshalHashes renders a report exactly as SaveHashes writes it.
func MarshalHashes(report m.HashReport) ([]byte, error) {
	if report == nil {
		report = m.HashReport{}
	}

	return json.MarshalIndent(report, "", "    ")
}

func (s *reportStore) SaveHashes(ctx context.Context, path m.Path, report m.HashReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := MarshalHashes(report)
	if err != nil {
		return fmt.Errorf("encode hashes: %w", err)
	}

	if err := os.WriteFile(string(path), data, 0o600); err != nil {
		slog.Error("Failed to write hashes", "path", path, "error", err)
		return fmt.Errorf("write hashes: %w", err)
	}

	slog.Info("Wrote hashes", "path", path, "entries", len(report))

	return nil
}

func (s *reportStore) LoadHashes(ctx context.Context, path m.Path) (m.HashReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// #nosec G304 - report path is supplied by the operator
	data, err := os.ReadFile(string(path))
	if err != nil {
		return nil, fmt.Errorf("read hashes: %w", err)
	}

	report := m.HashReport{}
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("%w: hashes %s: %v", ErrInvalidManifest, path, err)
	}

	return report, nil
}
