package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
	"lcevc.dev/pkg/conformance/internal/adapter"
	"lcevc.dev/pkg/conformance/internal/controller"
	m "lcevc.dev/pkg/conformance/internal/model"
)

// ErrUnknownBase is returned when the base codec of a bitstream cannot be detected.
var ErrUnknownBase = errors.New("cannot detect base codec")

const (
	// BaseAuto asks the decode run to detect the base codec per bitstream.
	BaseAuto = "auto"
	// DefaultBitstreamPattern selects every bitstream below the root.
	DefaultBitstreamPattern = "**/*.bit"
	// storedChecksumLength is the length of a hex MD5 digest.
	storedChecksumLength = 32
)

// baseHints map sequence names found in bitstream names to their base codec,
// for bitstreams published without their parameter file.
var baseHints = []struct {
	marker string
	base   string
}{
	{"Cactus", "avc"},
	{"CanYouReadThis", "avc"},
	{"ParkRunning3", "hevc"},
}

// Decode re-decodes every published bitstream below args.Root and checks the
// output against the stored reconstruction MD5 and user data. Bitstreams in
// the same directory are decoded one after another because the decoder writes
// its user data to its working directory.
func (w *workflow) Decode(ctx context.Context, args DecodeArgs) (m.DecodeReport, error) {
	bitstreams, err := findBitstreams(args)
	if err != nil {
		slog.Error("Failed to find bitstreams", "root", args.Root, "error", err)
		return m.DecodeReport{}, err
	}

	if err := w.Start(ctx, controller.WithDecodeMode()); err != nil {
		slog.Error("Failed to start workflow UI", "error", err)
		return m.DecodeReport{}, err
	}

	w.DisplayBatchInfo(ctx, len(bitstreams), args.Workers)

	results := make([]m.DecodeResult, len(bitstreams))
	groups := groupByDir(bitstreams)

	var group errgroup.Group

	group.SetLimit(max(args.Workers, 1))

	for _, indices := range groups {
		currentIndices := indices

		group.Go(func() error {
			for _, i := range currentIndices {
				results[i] = w.decodeOne(ctx, args, bitstreams[i])
				w.DisplayDecodeResult(ctx, results[i])
			}

			return nil
		})
	}

	_ = group.Wait()

	report := m.DecodeReport{Results: results}

	for _, result := range results {
		if !result.Success() {
			report.Failures++
		}
	}

	w.DisplayDecodeSummary(ctx, report)
	w.Wait(ctx)
	w.Close(ctx)

	return report, nil
}

func findBitstreams(args DecodeArgs) ([]string, error) {
	pattern := args.Pattern
	if pattern == "" {
		pattern = DefaultBitstreamPattern
	}

	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid bitstream pattern %q", pattern)
	}

	matches, err := doublestar.Glob(os.DirFS(string(args.Root)), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", args.Root, err)
	}

	sort.Strings(matches)

	return matches, nil
}

// groupByDir returns bitstream indices grouped by directory, in first-seen order.
func groupByDir(bitstreams []string) [][]int {
	var (
		groups [][]int
		index  = map[string]int{}
	)

	for i, bitstream := range bitstreams {
		dir := filepath.Dir(bitstream)

		g, ok := index[dir]
		if !ok {
			g = len(groups)
			index[dir] = g

			groups = append(groups, nil)
		}

		groups[g] = append(groups[g], i)
	}

	return groups
}

func (w *workflow) decodeOne(ctx context.Context, args DecodeArgs, bitstream string) m.DecodeResult {
	result := m.DecodeResult{Bitstream: m.Path(bitstream)}

	dir := filepath.Join(string(args.Root), filepath.FromSlash(filepath.Dir(bitstream)))
	file := filepath.Base(bitstream)
	name := strings.TrimSuffix(file, SuffixBitstream)

	base, external, err := w.detectBase(ctx, dir, name, args.Base)
	if err != nil {
		slog.Error("Failed to detect base codec", "bitstream", bitstream, "error", err)
		result.Err = err.Error()

		return result
	}

	result.BaseEncoder = base

	ok, err := w.ProcessAdapter.Run(ctx, adapter.ProcessSpec{
		Title:   "  Decode " + strings.TrimSuffix(bitstream, SuffixBitstream),
		Args:    StandaloneDecoderArgs(args.Decoder, base, file, name+inputSuffix, external),
		Dir:     m.Path(dir),
		LogFile: m.Path(name + SuffixDecoderLog),
		Display: args.Display,
	})
	if err != nil {
		result.Err = err.Error()
		return result
	}

	result.DecodeOK = ok
	if !ok {
		return result
	}

	decoded := filepath.Join(dir, name+inputSuffix)
	result.Checksum = w.MD5(ctx, decoded, NoDecodedOutput)

	if stored, ok := w.storedChecksum(ctx, filepath.Join(dir, name+SuffixReconMD5)); ok {
		result.StoredChecksum = stored
		result.ChecksumChecked = true
		result.ChecksumMatch = stored == result.Checksum
	}

	result.UserDataChecked, result.UserDataOK = w.checkPublishedUserData(ctx, dir, name)

	if err := w.Remove(ctx, decoded); err != nil {
		slog.Warn("Failed to remove decoded output", "path", decoded, "error", err)
	}

	return result
}

// detectBase picks the base codec from the bitstream's parameter file, or
// from well known sequence names when there is none.
func (w *workflow) detectBase(ctx context.Context, dir, name, base string) (string, bool, error) {
	if base != "" && base != BaseAuto {
		return base, false, nil
	}

	cfg := filepath.Join(dir, name+SuffixConfig)
	if w.IsFile(ctx, cfg) {
		data, err := w.ReadFile(ctx, cfg)
		if err != nil {
			return "", false, fmt.Errorf("read %s: %w", cfg, err)
		}

		var params m.ParameterSet
		if err := json.Unmarshal(data, &params); err != nil {
			return "", false, fmt.Errorf("parse %s: %w", cfg, err)
		}

		encoder, ok := params.String(m.KeyBaseEncoder)
		if !ok || encoder == "" {
			return "", false, fmt.Errorf("%w: %s names no base_encoder", ErrUnknownBase, cfg)
		}

		format, _ := params.String(m.KeyFormat)

		return encoder, BaseExternal(format), nil
	}

	for _, hint := range baseHints {
		if strings.Contains(name, hint.marker) {
			external := hint.base == "hevc" && (strings.Contains(name, "12bit") || strings.Contains(name, "14bit"))
			return hint.base, external, nil
		}
	}

	return "", false, fmt.Errorf("%w: %s", ErrUnknownBase, name)
}

func (w *workflow) storedChecksum(ctx context.Context, path string) (string, bool) {
	if !w.IsFile(ctx, path) {
		return "", false
	}

	data, err := w.ReadFile(ctx, path)
	if err != nil {
		slog.Warn("Failed to read stored checksum", "path", path, "error", err)
		return "", false
	}

	line, _, _ := strings.Cut(string(data), "\n")
	if len(line) > storedChecksumLength {
		line = line[:storedChecksumLength]
	}

	return line, true
}

// checkPublishedUserData compares the published user data of a bitstream with
// what the decoder just extracted, then removes the extracted copy.
func (w *workflow) checkPublishedUserData(ctx context.Context, dir, name string) (bool, bool) {
	published := filepath.Join(dir, name+SuffixUserData)
	if !w.IsFile(ctx, published) {
		return false, true
	}

	decoded := filepath.Join(dir, UserDataDecoded)
	if !w.IsFile(ctx, decoded) {
		return true, false
	}

	same, err := w.SameContent(ctx, published, decoded)
	if err != nil {
		slog.Error("Failed to compare user data", "path", published, "error", err)
		same = false
	}

	if err := w.Remove(ctx, decoded); err != nil {
		slog.Warn("Failed to remove decoded user data", "path", decoded, "error", err)
	}

	return true, same
}
