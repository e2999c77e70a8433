package domain

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lcevc.dev/pkg/conformance/internal/adapter"
	adaptermocks "lcevc.dev/pkg/conformance/internal/adapter/mocks"
	m "lcevc.dev/pkg/conformance/internal/model"
)

func newLocalVerifier() Verifier {
	return NewVerifier(adapter.NewLocalChecksumAdapter(), adapter.NewLocalWorkspaceFSAdapter())
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestVerifier_Digests(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	v := newLocalVerifier()

	abc := writeFile(t, filepath.Join(dir, "abc.bit"), "abc")
	empty := writeFile(t, filepath.Join(dir, "empty.yuv"), "")

	assert.Equal(t, "900150983cd24fb0d6963f7d28e17f72", v.MD5(ctx, abc, NoBitstreamOutput))
	assert.Equal(t, "2d06800538d394c2", v.XXH3(ctx, empty, NoEncodedOutputXXH))

	missing := filepath.Join(dir, "missing.yuv")
	assert.Equal(t, NoEncodedOutputXXH, v.XXH3(ctx, missing, NoEncodedOutputXXH))
	assert.Equal(t, NoEncodedOutput, v.MD5(ctx, missing, NoEncodedOutput))
}

func TestVerifier_ChecksumErrorYieldsSentinel(t *testing.T) {
	ctx := context.Background()
	path := writeFile(t, filepath.Join(t.TempDir(), "recon.yuv"), "x")

	checksums := adaptermocks.NewMockChecksumAdapter(t)
	checksums.On("XXH3", ctx, m.Path(path)).Return("", os.ErrPermission).Once()

	v := NewVerifier(checksums, adapter.NewLocalWorkspaceFSAdapter())
	assert.Equal(t, NoDecodedOutput, v.XXH3(ctx, path, NoDecodedOutput))
}

func TestVerifier_FirstXXH3(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	v := newLocalVerifier()

	paths := []string{
		filepath.Join(dir, HarnessOutputs[0]),
		filepath.Join(dir, HarnessOutputs[1]),
		filepath.Join(dir, HarnessOutputs[2]),
	}

	assert.Equal(t, NoHarnessOutput, v.FirstXXH3(ctx, paths, NoHarnessOutput))

	writeFile(t, paths[2], "")
	writeFile(t, paths[1], "different")

	assert.Equal(t, v.XXH3(ctx, paths[1], ""), v.FirstXXH3(ctx, paths, NoHarnessOutput))
	assert.NotEqual(t, v.XXH3(ctx, paths[2], ""), v.FirstXXH3(ctx, paths, NoHarnessOutput))
}

func TestVerifier_CheckUserData(t *testing.T) {
	ctx := context.Background()
	v := newLocalVerifier()

	t.Run("nothing embedded", func(t *testing.T) {
		checked, ok := v.CheckUserData(ctx, t.TempDir(), "out")
		assert.False(t, checked)
		assert.True(t, ok)
	})

	t.Run("match", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, UserDataEncoded), "payload")
		writeFile(t, filepath.Join(dir, UserDataDecoded), "payload")

		checked, ok := v.CheckUserData(ctx, dir, "out")
		assert.True(t, checked)
		assert.True(t, ok)
		assert.FileExists(t, filepath.Join(dir, "out"+SuffixUserData))
		assert.NoFileExists(t, filepath.Join(dir, UserDataEncoded))
		assert.NoFileExists(t, filepath.Join(dir, UserDataDecoded))
	})

	t.Run("mismatch still publishes", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, UserDataEncoded), "payload")
		writeFile(t, filepath.Join(dir, UserDataDecoded), "other")

		checked, ok := v.CheckUserData(ctx, dir, "out")
		assert.True(t, checked)
		assert.False(t, ok)
		assert.FileExists(t, filepath.Join(dir, "out"+SuffixUserData))
		assert.NoFileExists(t, filepath.Join(dir, UserDataDecoded))
	})

	t.Run("decoder extracted nothing", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, UserDataEncoded), "payload")

		checked, ok := v.CheckUserData(ctx, dir, "out")
		assert.True(t, checked)
		assert.False(t, ok)
	})
}

func TestStatusReport(t *testing.T) {
	assert.Equal(t,
		"LTM: encode:a decode:a ok:True\nSDK: encode:a decode:b ok:False\n",
		StatusReport("a", "a", "b"))
}
