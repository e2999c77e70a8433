package domain_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"lcevc.dev/pkg/conformance/internal/adapter"
	adaptermocks "lcevc.dev/pkg/conformance/internal/adapter/mocks"
	domain "lcevc.dev/pkg/conformance/internal/domain"
	m "lcevc.dev/pkg/conformance/internal/model"
)

const md5LogLine = "[MD5Y 0123456789abcdef0123456789abcdef] [MD5U 0123456789abcdef0123456789abcdef] [MD5V 0123456789abcdef0123456789abcdef]"

// fakeTools emulates the external tools by writing the files each stage produces.
type fakeTools struct {
	recon     string
	decoded   string
	harness   string
	userdata  string
	encodeOK  bool
	harnessIn string
}

func goodTools() *fakeTools {
	return &fakeTools{recon: "frame", decoded: "frame", harness: "frame", encodeOK: true, harnessIn: "high.yuv"}
}

func (f *fakeTools) run(_ context.Context, spec adapter.ProcessSpec) (bool, error) {
	dir := string(spec.Dir)
	output := strings.TrimSuffix(string(spec.LogFile), filepath.Ext(string(spec.LogFile)))
	output = output[:strings.LastIndex(output, "_")]

	write := func(name, content string) {
		_ = os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600)
	}

	write(string(spec.LogFile), strings.Join(spec.Args, " ")+"\n")

	switch {
	case strings.Contains(spec.Title, "Encode"):
		if !f.encodeOK {
			return false, nil
		}

		write(output+domain.SuffixEncoderLog, md5LogLine+"\n")
		write(output+domain.SuffixBitstream, "bits")
		write(output+domain.SuffixRecon, f.recon)

		if f.userdata != "" {
			write(domain.UserDataEncoded, f.userdata)
		}
	case strings.Contains(spec.Title, "Decode"):
		if f.decoded != "" {
			write(output+domain.SuffixDecoded, f.decoded)
		}

		if f.userdata != "" {
			write(domain.UserDataDecoded, f.userdata)
		}
	case strings.Contains(spec.Title, "Harness"):
		if f.harness != "" {
			write(filepath.Join("tmp_seq", f.harnessIn), f.harness)
		}
	}

	return true, nil
}

func executorJob(root string) m.JobDescriptor {
	return m.JobDescriptor{
		Number:   3,
		Codec:    "avc",
		Sequence: "seq",
		Test: m.TestDefinition{
			Name:        "tool",
			Version:     1,
			Description: "temporal tool",
			Parameters:  m.ParameterSet{m.KeyQP: int64(28)},
		},
		Tools: m.Executables{
			Encoder:   "/opt/enc",
			Decoder:   "/opt/dec",
			Validator: "/opt/val",
			Harness:   "/opt/harness",
		},
		InputDir: m.Path(filepath.Join(root, "inputs")),
		BaseDir:  m.Path(filepath.Join(root, "bases")),
		WorkDir:  m.Path(filepath.Join(root, "work")),
		Defaults: m.ParameterSet{
			m.KeyBaseEncoder: "avc",
			m.KeyWidth:       int64(64),
			m.KeyHeight:      int64(32),
			m.KeyInputFile:   "seq_64x32_50fps_8bit_420p.yuv",
			m.KeyBase:        "seq_avc.bit",
			m.KeyBaseRecon:   "seq_avc.yuv",
			m.KeyFormat:      "yuv420p8",
		},
		Display:  m.DisplayNone,
		Manifest: m.ManifestInfo{Profile: "Main", PictureRate: 50},
	}
}

func newExecutor(t *testing.T, tools *fakeTools, status io.Writer) (domain.JobExecutor, *adaptermocks.MockProcessAdapter) {
	t.Helper()

	fs := adapter.NewLocalWorkspaceFSAdapter()
	process := adaptermocks.NewMockProcessAdapter(t)
	process.On("Run", mock.Anything, mock.Anything).Return(tools.run).Maybe()

	executor := domain.NewJobExecutor(
		fs,
		process,
		domain.NewParameterResolver(adaptermocks.NewMockManifestStore(t), fs),
		domain.NewVerifier(adapter.NewLocalChecksumAdapter(), fs),
		domain.NewConformanceWriter(fs),
		status,
	)

	return executor, process
}

func hashOf(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "content")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	sum, err := adapter.NewLocalChecksumAdapter().XXH3(context.Background(), m.Path(path))
	require.NoError(t, err)

	return sum
}

func TestJobExecutor_RunJob_Success(t *testing.T) {
	root := t.TempDir()
	job := executorJob(root)
	tools := goodTools()
	tools.userdata = "sei payload"

	var status bytes.Buffer

	executor, process := newExecutor(t, tools, &status)

	result, err := executor.RunJob(context.Background(), job)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Number)
	assert.True(t, result.Outcome.EncodeOK)
	assert.True(t, result.Outcome.DecodeOK)
	assert.True(t, result.Outcome.ValidateOK)
	assert.True(t, result.Outcome.HarnessOK)
	assert.True(t, result.Outcome.DecodeMatch)
	assert.True(t, result.Outcome.HarnessMatch)
	assert.True(t, result.Outcome.UserDataOK)
	assert.Equal(t, hashOf(t, "frame"), result.Test.Checksum)
	assert.Equal(t, "seq_avc.yuv", result.Test.BaseRecon)
	assert.Equal(t, "seq", result.Test.Sequence)
	process.AssertNumberOfCalls(t, "Run", 4)

	dir := domain.JobDir(job)
	out := filepath.Join(dir, "seq_tool_v-nova_v01")

	cfg, err := os.ReadFile(out + domain.SuffixConfig)
	require.NoError(t, err)

	var params map[string]any
	require.NoError(t, json.Unmarshal(cfg, &params))
	assert.InDelta(t, 28, params[m.KeyQP], 0)
	assert.Equal(t, filepath.Join("..", "..", "..", "inputs", "seq_64x32_50fps_8bit_420p.yuv"), params[m.KeyInputFile])
	assert.Contains(t, string(cfg), "\n    \"")

	md5, err := os.ReadFile(out + domain.SuffixMD5)
	require.NoError(t, err)
	assert.Len(t, strings.TrimSpace(string(md5)), 32)

	statusFile, err := os.ReadFile(out + domain.SuffixStatus)
	require.NoError(t, err)
	assert.Contains(t, string(statusFile), "ok:True\nSDK:")

	assert.NoFileExists(t, out+domain.SuffixRecon)
	assert.NoFileExists(t, out+domain.SuffixDecoded)
	assert.NoDirExists(t, filepath.Join(dir, "tmp_seq"))
	assert.FileExists(t, out+domain.SuffixOPL)
	assert.FileExists(t, out+domain.SuffixManifest)
	assert.FileExists(t, out+domain.SuffixUserData)

	assert.Contains(t, status.String(), "Encode/Decode 3: seq_tool_v-nova_v01 : temporal tool\n")
	assert.Contains(t, status.String(), "LTM: Encoded vs decoded checksum 3 seq_tool_v-nova_v01: OK\n")
	assert.Contains(t, status.String(), "SDK: Encoded vs decoded checksum 3 seq_tool_v-nova_v01: OK\n")
	assert.Contains(t, status.String(), "LTM: Userdata 3 seq_tool_v-nova_v01: OK\n")
}

func TestJobExecutor_RunJob_DecodeMismatch(t *testing.T) {
	root := t.TempDir()
	job := executorJob(root)
	tools := goodTools()
	tools.decoded = "broken"

	var status bytes.Buffer

	executor, _ := newExecutor(t, tools, &status)

	result, err := executor.RunJob(context.Background(), job)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.False(t, result.Outcome.DecodeMatch)
	assert.True(t, result.Outcome.HarnessMatch)

	out := filepath.Join(domain.JobDir(job), "seq_tool_v-nova_v01")
	assert.NoFileExists(t, out+domain.SuffixOPL)
	assert.NoFileExists(t, out+domain.SuffixManifest)
	assert.Contains(t, status.String(), "LTM: Encoded vs decoded checksum 3 seq_tool_v-nova_v01: FAILED\n")
	assert.NotContains(t, status.String(), "Userdata")
}

func TestJobExecutor_RunJob_DecoderWritesNothing(t *testing.T) {
	job := executorJob(t.TempDir())
	tools := goodTools()
	tools.decoded = ""

	executor, _ := newExecutor(t, tools, nil)

	result, err := executor.RunJob(context.Background(), job)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.True(t, result.Outcome.DecodeOK)
	assert.False(t, result.Outcome.DecodeMatch)
	assert.True(t, result.Outcome.HarnessMatch)

	out := filepath.Join(domain.JobDir(job), "seq_tool_v-nova_v01")
	statusFile, err := os.ReadFile(out + domain.SuffixStatus)
	require.NoError(t, err)

	recon := hashOf(t, "frame")
	assert.Equal(t,
		"LTM: encode:"+recon+" decode:"+domain.NoDecodedOutput+" ok:False\n"+
			"SDK: encode:"+recon+" decode:"+recon+" ok:True\n",
		string(statusFile))
}

func TestJobExecutor_RunJob_ExpectedReconMD5(t *testing.T) {
	reconPath := filepath.Join(t.TempDir(), "recon")
	require.NoError(t, os.WriteFile(reconPath, []byte("frame"), 0o600))

	reconMD5, err := adapter.NewLocalChecksumAdapter().MD5(context.Background(), m.Path(reconPath))
	require.NoError(t, err)

	cases := map[string]struct {
		expected string
		success  bool
		line     string
	}{
		"match":    {expected: strings.ToUpper(reconMD5), success: true, line: "Encoded checksum 3 seq_tool_v-nova_v01: OK\n"},
		"mismatch": {expected: "00000000000000000000000000000000", success: false, line: "Encoded checksum 3 seq_tool_v-nova_v01: FAILED\n"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			job := executorJob(t.TempDir())
			job.Test.ExpectedMD5 = tc.expected

			var status bytes.Buffer

			executor, _ := newExecutor(t, goodTools(), &status)

			result, err := executor.RunJob(context.Background(), job)
			require.NoError(t, err)

			assert.Equal(t, tc.success, result.Success)
			assert.Equal(t, !tc.success, result.Outcome.ExpectedMismatch)
			assert.True(t, result.Outcome.DecodeMatch)
			assert.Contains(t, status.String(), tc.line)
		})
	}
}

func TestJobExecutor_RunJob_HarnessFallbackOutput(t *testing.T) {
	job := executorJob(t.TempDir())
	tools := goodTools()
	tools.harnessIn = "conformance_window.yuv"

	executor, _ := newExecutor(t, tools, nil)

	result, err := executor.RunJob(context.Background(), job)
	require.NoError(t, err)
	assert.True(t, result.Outcome.HarnessMatch)
}

func TestJobExecutor_RunJob_EncodeFailure(t *testing.T) {
	job := executorJob(t.TempDir())
	tools := goodTools()
	tools.encodeOK = false

	executor, process := newExecutor(t, tools, nil)

	result, err := executor.RunJob(context.Background(), job)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.False(t, result.Outcome.EncodeOK)
	assert.False(t, result.Outcome.DecodeOK)
	assert.Equal(t, domain.NoEncodedOutputXXH, result.Test.Checksum)
	process.AssertNumberOfCalls(t, "Run", 1)

	out := filepath.Join(domain.JobDir(job), "seq_tool_v-nova_v01")
	md5, err := os.ReadFile(out + domain.SuffixMD5)
	require.NoError(t, err)
	assert.Equal(t, domain.NoBitstreamOutput+"\n", string(md5))
}

func TestJobExecutor_RunJob_DecodeOnlySkipsEncoder(t *testing.T) {
	job := executorJob(t.TempDir())
	job.DecodeOnly = true

	executor, process := newExecutor(t, goodTools(), nil)

	_, err := executor.RunJob(context.Background(), job)
	require.NoError(t, err)

	process.AssertNumberOfCalls(t, "Run", 3)

	for _, call := range process.Calls {
		spec := call.Arguments.Get(1).(adapter.ProcessSpec)
		assert.NotContains(t, spec.Title, "Encode")
	}
}

func TestJobExecutor_RunJob_MissingParameter(t *testing.T) {
	job := executorJob(t.TempDir())
	job.Test.Parameters = nil

	executor, process := newExecutor(t, goodTools(), nil)

	_, err := executor.RunJob(context.Background(), job)
	require.ErrorIs(t, err, m.ErrMissingParameter)
	process.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}
