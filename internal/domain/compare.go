package domain

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/pmezard/go-difflib/difflib"
	"lcevc.dev/pkg/conformance/internal/adapter"
	m "lcevc.dev/pkg/conformance/internal/model"
)

// Compare loads two hash reports and describes how they differ.
func (w *workflow) Compare(ctx context.Context, args CompareArgs) (m.HashComparison, error) {
	reference, err := w.LoadHashes(ctx, args.Reference)
	if err != nil {
		slog.Error("Failed to load reference hashes", "path", args.Reference, "error", err)
		return m.HashComparison{}, fmt.Errorf("load reference: %w", err)
	}

	current, err := w.LoadHashes(ctx, args.Current)
	if err != nil {
		slog.Error("Failed to load current hashes", "path", args.Current, "error", err)
		return m.HashComparison{}, fmt.Errorf("load current: %w", err)
	}

	comparison, err := CompareHashes(reference, current)
	if err != nil {
		return m.HashComparison{}, err
	}

	w.DisplayComparison(ctx, comparison)

	return comparison, nil
}

// CompareHashes lists keys added, removed and changed between two reports,
// plus a unified diff of their serialized form.
func CompareHashes(reference, current m.HashReport) (m.HashComparison, error) {
	var comparison m.HashComparison

	for key, entry := range current {
		previous, ok := reference[key]

		switch {
		case !ok:
			comparison.Added = append(comparison.Added, key)
		case previous != entry:
			comparison.Changed = append(comparison.Changed, m.HashChange{Key: key, Reference: previous, Current: entry})
		}
	}

	for key := range reference {
		if _, ok := current[key]; !ok {
			comparison.Removed = append(comparison.Removed, key)
		}
	}

	sort.Strings(comparison.Added)
	sort.Strings(comparison.Removed)
	sort.Slice(comparison.Changed, func(i, j int) bool {
		return comparison.Changed[i].Key < comparison.Changed[j].Key
	})

	if comparison.Equal() {
		return comparison, nil
	}

	before, err := adapter.MarshalHashes(reference)
	if err != nil {
		return m.HashComparison{}, fmt.Errorf("encode reference: %w", err)
	}

	after, err := adapter.MarshalHashes(current)
	if err != nil {
		return m.HashComparison{}, fmt.Errorf("encode current: %w", err)
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(before)),
		B:        difflib.SplitLines(string(after)),
		FromFile: "reference",
		ToFile:   "current",
		Context:  1,
	})
	if err != nil {
		return m.HashComparison{}, fmt.Errorf("diff hashes: %w", err)
	}

	comparison.Diff = diff

	return comparison, nil
}
