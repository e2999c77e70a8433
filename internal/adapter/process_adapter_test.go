package adapter

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	m "lcevc.dev/pkg/conformance/internal/model"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on windows")
	}

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o700)) //nolint:gosec // test script must be executable

	return path
}

func TestLocalProcessAdapter_RunSuccess(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "tool.sh", `echo "frame 1"
echo "frame 2" >&2
echo "  done  "`)

	var status bytes.Buffer

	ok, err := NewLocalProcessAdapter(&status).Run(context.Background(), ProcessSpec{
		Title:   "  Encode 1 out",
		Args:    []string{script, "-a", "b"},
		Dir:     m.Path(dir),
		LogFile: "out_encoder.log",
		Display: m.DisplayNone,
	})
	require.NoError(t, err)
	assert.True(t, ok)

	log, err := os.ReadFile(filepath.Join(dir, "out_encoder.log"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(log), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, script+" -a b", lines[0])
	assert.ElementsMatch(t, []string{"frame 1", "frame 2", "done"}, lines[1:])

	assert.Contains(t, status.String(), "  Encode 1 out: Start")
	assert.Contains(t, status.String(), "  Encode 1 out: OK")
}

func TestLocalProcessAdapter_RunFailure(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "tool.sh", `echo "broken"; exit 3`)

	var status bytes.Buffer

	ok, err := NewLocalProcessAdapter(&status).Run(context.Background(), ProcessSpec{
		Title:   "  Decode 1 out",
		Args:    []string{script},
		Dir:     m.Path(dir),
		LogFile: "out_decoder.log",
	})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, status.String(), "  Decode 1 out: FAILED")

	log, err := os.ReadFile(filepath.Join(dir, "out_decoder.log"))
	require.NoError(t, err)
	assert.Contains(t, string(log), "broken")
}

func TestLocalProcessAdapter_MissingExecutable(t *testing.T) {
	dir := t.TempDir()

	ok, err := NewLocalProcessAdapter(nil).Run(context.Background(), ProcessSpec{
		Title:   "validator",
		Args:    []string{filepath.Join(dir, "does-not-exist")},
		Dir:     m.Path(dir),
		LogFile: "out_validator.log",
	})
	require.NoError(t, err)
	assert.False(t, ok)

	log, err := os.ReadFile(filepath.Join(dir, "out_validator.log"))
	require.NoError(t, err)
	assert.Contains(t, string(log), "failed to start")
}

func TestLocalProcessAdapter_LogCannotBeCreated(t *testing.T) {
	dir := t.TempDir()

	ok, err := NewLocalProcessAdapter(nil).Run(context.Background(), ProcessSpec{
		Title:   "harness",
		Args:    []string{"true"},
		Dir:     m.Path(dir),
		LogFile: m.Path(filepath.Join("missing", "dir", "out_harness.log")),
	})
	require.Error(t, err)
	assert.False(t, ok)
}

func TestLocalProcessAdapter_NoCommand(t *testing.T) {
	_, err := NewLocalProcessAdapter(nil).Run(context.Background(), ProcessSpec{Title: "empty"})
	require.Error(t, err)
}

func TestLocalProcessAdapter_DisplayModes(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "tool.sh", `echo one; echo two`)

	t.Run("spinner", func(t *testing.T) {
		var status bytes.Buffer

		ok, err := NewLocalProcessAdapter(&status).Run(context.Background(), ProcessSpec{
			Title: "  Encode 2 out", Args: []string{script}, Dir: m.Path(dir),
			LogFile: "spinner.log", Display: m.DisplaySpinner,
		})
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Contains(t, status.String(), "  Encode 2 out: |")
		assert.Contains(t, status.String(), "  Encode 2 out: /")
		assert.NotContains(t, status.String(), "one\n")
	})

	t.Run("verbose", func(t *testing.T) {
		var status bytes.Buffer

		ok, err := NewLocalProcessAdapter(&status).Run(context.Background(), ProcessSpec{
			Title: "  Encode 3 out", Args: []string{script}, Dir: m.Path(dir),
			LogFile: "verbose.log", Display: m.DisplayVerbose,
		})
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Contains(t, status.String(), "one\ntwo\n")
	})
}

func TestLocalProcessAdapter_CarriageReturnEndsLine(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "tool.sh", `printf 'frame 1\rframe 2\rframe 3\r'
printf 'done\r\n'`)

	var status bytes.Buffer

	ok, err := NewLocalProcessAdapter(&status).Run(context.Background(), ProcessSpec{
		Title: "  Encode 4 out", Args: []string{script}, Dir: m.Path(dir),
		LogFile: "cr.log", Display: m.DisplaySpinner,
	})
	require.NoError(t, err)
	assert.True(t, ok)

	log, err := os.ReadFile(filepath.Join(dir, "cr.log"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(log), "\n"), "\n")
	assert.Equal(t, []string{"frame 1", "frame 2", "frame 3", "done"}, lines[1:])

	for _, glyph := range []string{"|", "/", "-", "\\"} {
		assert.Contains(t, status.String(), "  Encode 4 out: "+glyph)
	}
}

func TestLocalProcessAdapter_CancelKeepsPartialOutput(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "tool.sh", `echo "frame 1"
exec sleep 30`)
	logPath := filepath.Join(dir, "cancel.log")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type outcome struct {
		ok  bool
		err error
	}

	done := make(chan outcome, 1)

	go func() {
		ok, err := NewLocalProcessAdapter(nil).Run(ctx, ProcessSpec{
			Title: "  Decode 5 out", Args: []string{script}, Dir: m.Path(dir),
			LogFile: "cancel.log", Display: m.DisplayNone,
		})
		done <- outcome{ok: ok, err: err}
	}()

	require.Eventually(t, func() bool {
		log, err := os.ReadFile(logPath)
		return err == nil && strings.Contains(string(log), "frame 1")
	}, 10*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case result := <-done:
		require.NoError(t, result.err)
		assert.False(t, result.ok)
	case <-time.After(10 * time.Second):
		t.Fatal("process was not stopped after cancellation")
	}

	log, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Equal(t, script+"\nframe 1\n", string(log))
}

func TestScanOutputLines(t *testing.T) {
	long := strings.Repeat("x", maxLineSize+10)
	input := "a\r\nb\rc\n\n" + long + "\ntail"

	scanner := bufio.NewScanner(strings.NewReader(input))
	scanner.Buffer(make([]byte, 0, 16), 2*maxLineSize)
	scanner.Split(scanOutputLines)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	require.NoError(t, scanner.Err())
	assert.Equal(t, []string{"a", "b", "c", "", long[:maxLineSize], "xxxxxxxxxx", "tail"}, lines)
}

func TestSyncWriter_WrapsOnce(t *testing.T) {
	var buf bytes.Buffer

	sw := NewSyncWriter(&buf)
	assert.Same(t, sw, NewSyncWriter(sw))

	_, err := sw.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", buf.String())
}
