package domain

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"lcevc.dev/pkg/conformance/internal/adapter"
	m "lcevc.dev/pkg/conformance/internal/model"
)

// Sentinels stand in for the checksum of an artifact that was never produced.
// They are distinct per artifact, so two missing outputs never compare equal
// unless they are the same kind of missing.
const (
	NoEncodedOutputXXH = "No encoded output (xxhash)"
	NoEncodedOutput    = "No encoded output"
	NoBitstreamOutput  = "No bitstream output"
	NoDecodedOutput    = "No decoded output"
	NoHarnessOutput    = "No SDK output"
)

// HarnessOutputs are the harness output files in order of preference.
var HarnessOutputs = []string{"conformance_window.yuv", "high.y", "high.yuv"}

// Verifier computes artifact checksums and compares job outputs.
type Verifier interface {
	XXH3(ctx context.Context, path string, missing string) string
	MD5(ctx context.Context, path string, missing string) string
	FirstXXH3(ctx context.Context, paths []string, missing string) string
	CheckUserData(ctx context.Context, dir, output string) (checked, ok bool)
}

type verifier struct {
	checksums adapter.ChecksumAdapter
	fs        adapter.WorkspaceFSAdapter
}

// NewVerifier constructs a Verifier.
func NewVerifier(checksums adapter.ChecksumAdapter, fs adapter.WorkspaceFSAdapter) Verifier {
	return &verifier{checksums: checksums, fs: fs}
}

func (v *verifier) XXH3(ctx context.Context, path string, missing string) string {
	return v.digest(ctx, path, missing, v.checksums.XXH3)
}

func (v *verifier) MD5(ctx context.Context, path string, missing string) string {
	return v.digest(ctx, path, missing, v.checksums.MD5)
}

// FirstXXH3 hashes the first path that exists.
func (v *verifier) FirstXXH3(ctx context.Context, paths []string, missing string) string {
	for _, path := range paths {
		if v.fs.IsFile(ctx, path) {
			return v.XXH3(ctx, path, missing)
		}
	}

	return missing
}

func (v *verifier) digest(ctx context.Context, path, missing string, hash func(context.Context, m.Path) (string, error)) string {
	if !v.fs.IsFile(ctx, path) {
		return missing
	}

	sum, err := hash(ctx, m.Path(path))
	if err != nil {
		slog.Error("Failed to checksum artifact", "path", path, "error", err)
		return missing
	}

	return sum
}

// CheckUserData compares the user data the encoder embedded with what the
// decoder extracted. The encoder copy is then published as
// "<output>_userdata.bin" and the decoder copy removed, so neither leaks into
// the next job. No encoder copy means nothing was embedded and the check passes.
func (v *verifier) CheckUserData(ctx context.Context, dir, output string) (bool, bool) {
	encoded := filepath.Join(dir, UserDataEncoded)
	decoded := filepath.Join(dir, UserDataDecoded)

	if !v.fs.IsFile(ctx, encoded) {
		return false, true
	}

	if !v.fs.IsFile(ctx, decoded) {
		slog.Warn("Decoder produced no user data", "dir", dir)
		return true, false
	}

	same, err := v.fs.SameContent(ctx, encoded, decoded)
	if err != nil {
		slog.Error("Failed to compare user data", "dir", dir, "error", err)
		same = false
	}

	if err := v.fs.Rename(ctx, encoded, filepath.Join(dir, output+SuffixUserData)); err != nil {
		slog.Error("Failed to publish user data", "dir", dir, "error", err)
		same = false
	}

	if err := v.fs.Remove(ctx, decoded); err != nil {
		slog.Warn("Failed to remove decoded user data", "path", decoded, "error", err)
	}

	return true, same
}

// StatusReport is the two line status file of a job.
func StatusReport(encoded, decoded, harness string) string {
	return fmt.Sprintf("LTM: encode:%s decode:%s ok:%s\nSDK: encode:%s decode:%s ok:%s\n",
		encoded, decoded, pyBool(encoded == decoded),
		encoded, harness, pyBool(encoded == harness))
}

func pyBool(b bool) string {
	if b {
		return "True"
	}

	return "False"
}
