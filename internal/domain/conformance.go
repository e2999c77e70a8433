package domain

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strings"

	"lcevc.dev/pkg/conformance/internal/adapter"
	m "lcevc.dev/pkg/conformance/internal/model"
)

const (
	md5LinePrefix = "[MD5Y "
	oplHeader     = "PicOrderCntVal,pic_width_max,pic_height_max,md5_y,md5_u,md5_v"
)

// md5Fields are the byte ranges of the Y, U and V digests in an encoder
// "[MD5Y ...]" log line.
var md5Fields = [][2]int{{6, 38}, {46, 78}, {86, 118}}

// Level boundaries in luma samples per second.
var levelLimits = []int64{29410000, 124560000, 527650000}

// ConformanceLevel is the major level implied by the picture size at rate.
func ConformanceLevel(width, height, rate int) int {
	samples := int64(width) * int64(height) * int64(rate)

	for i, limit := range levelLimits {
		if samples <= limit {
			return i + 1
		}
	}

	return len(levelLimits) + 1
}

// ConformanceWriter produces the published conformance artifacts of a job.
type ConformanceWriter interface {
	WriteOPL(ctx context.Context, encoderLog, target string, width, height int) error
	WriteManifest(ctx context.Context, target string, info ManifestEntry) error
}

// ManifestEntry is everything the text manifest of one bitstream describes.
type ManifestEntry struct {
	Output      string
	Description string
	Width       int
	Height      int
	Info        m.ManifestInfo
}

type conformanceWriter struct {
	fs adapter.WorkspaceFSAdapter
}

// NewConformanceWriter constructs a ConformanceWriter.
func NewConformanceWriter(fs adapter.WorkspaceFSAdapter) ConformanceWriter {
	return &conformanceWriter{fs: fs}
}

// WriteOPL converts the per-picture MD5 lines of the encoder log into the
// output picture list CSV.
func (w *conformanceWriter) WriteOPL(ctx context.Context, encoderLog, target string, width, height int) error {
	data, err := w.fs.ReadFile(ctx, encoderLog)
	if err != nil {
		slog.Error("Failed to read encoder log", "path", encoderLog, "error", err)
		return fmt.Errorf("read encoder log: %w", err)
	}

	content, err := BuildOPL(data, width, height)
	if err != nil {
		return err
	}

	if err := w.fs.WriteFile(ctx, target, content, 0o644); err != nil {
		slog.Error("Failed to write OPL", "path", target, "error", err)
		return fmt.Errorf("write OPL: %w", err)
	}

	return nil
}

// BuildOPL renders an OPL from encoder log content. Picture order counts are
// assigned in log order starting at zero.
func BuildOPL(encoderLog []byte, width, height int) ([]byte, error) {
	var buf bytes.Buffer

	out := csv.NewWriter(&buf)
	out.UseCRLF = true

	if err := out.Write(strings.Split(oplHeader, ",")); err != nil {
		return nil, fmt.Errorf("write OPL header: %w", err)
	}

	scanner := bufio.NewScanner(bytes.NewReader(encoderLog))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	poc := 0

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, md5LinePrefix) {
			continue
		}

		record := []string{fmt.Sprint(poc), fmt.Sprint(width), fmt.Sprint(height)}
		for _, field := range md5Fields {
			record = append(record, slice(line, field[0], field[1]))
		}

		if err := out.Write(record); err != nil {
			return nil, fmt.Errorf("write OPL record: %w", err)
		}

		poc++
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan encoder log: %w", err)
	}

	out.Flush()

	if err := out.Error(); err != nil {
		return nil, fmt.Errorf("flush OPL: %w", err)
	}

	return buf.Bytes(), nil
}

func slice(s string, from, to int) string {
	if from >= len(s) {
		return ""
	}

	if to > len(s) {
		to = len(s)
	}

	return s[from:to]
}

func (w *conformanceWriter) WriteManifest(ctx context.Context, target string, entry ManifestEntry) error {
	if err := w.fs.WriteFile(ctx, target, []byte(BuildManifest(entry)), 0o644); err != nil {
		slog.Error("Failed to write manifest", "path", target, "error", err)
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}

// BuildManifest renders the text manifest describing one conformance bitstream.
func BuildManifest(entry ManifestEntry) string {
	info := entry.Info
	level := ConformanceLevel(entry.Width, entry.Height, info.PictureRate)

	var sb strings.Builder

	fmt.Fprintf(&sb, "Bitstream file name: %s%s\n", entry.Output, SuffixBitstream)
	fmt.Fprintf(&sb, "Explanation of bitstream features: %s\n", entry.Description)
	fmt.Fprintf(&sb, "Profile: %s\n", info.Profile)
	fmt.Fprintf(&sb, "Level: %d.1\n", level)
	fmt.Fprintf(&sb, "Max picture width: %d\n", entry.Width)
	fmt.Fprintf(&sb, "Max picture height: %d\n", entry.Height)
	fmt.Fprintf(&sb, "Picture rate: %d\n", info.PictureRate)
	fmt.Fprintf(&sb, "LTM release version number used to generate the bitstream: %s\n", info.Release)
	fmt.Fprintf(&sb, "Contact name and email: %s\n", info.Contact)

	return sb.String()
}
