package domain

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lcevc.dev/pkg/conformance/internal/adapter"
	m "lcevc.dev/pkg/conformance/internal/model"
)

func testBatch() m.Batch {
	return m.Batch{
		Tests: []m.TestDefinition{
			{Name: "first", Version: 1, Input: "yuv420p", Base: "avc", Sets: []string{"avc", "hevc", "LTM"}},
			{Name: "second", Version: 2, Input: "luma", Base: "avc", Sets: []string{"avc", "SDK"}},
			{Name: "third", Version: 1, Input: "yuv420p", Base: "hevc", Sets: []string{"hevc"}},
		},
		Codecs: []m.CodecSpec{
			{Name: "avc", Width: 1920, Height: 1080, Sequences: []string{"s1", "s2"}},
			{Name: "hevc", Width: 3840, Height: 2160, Sequences: []string{"s1"}},
		},
		Inputs: m.SequenceTable{
			"yuv420p": {"s1": "s1_1920x1080_50fps_10bit_420p", "s2": "s2_1920x1080_50fps_8bit_420p"},
			"luma":    {"s1": "s1_luma_1920x1080_8bit", "s2": "s2_luma_1920x1080_12bit"},
		},
		Bases: m.SequenceTable{
			"avc":  {"s1": "s1_avc", "s2": "s2_avc"},
			"hevc": {"s1": "s1_hevc"},
		},
	}
}

func TestJobBuilder_OrderAndNumbering(t *testing.T) {
	jobs, err := NewJobBuilder(adapter.NewLocalWorkspaceFSAdapter()).Build(testBatch(), BuildArgs{})
	require.NoError(t, err)

	type key struct{ codec, sequence, test string }

	var got []key
	for i, job := range jobs {
		assert.Equal(t, i, job.Number)
		got = append(got, key{job.Codec, job.Sequence, job.Test.Name})
	}

	assert.Equal(t, []key{
		{"avc", "s1", "first"},
		{"avc", "s1", "second"},
		{"avc", "s2", "first"},
		{"avc", "s2", "second"},
		{"hevc", "s1", "first"},
		{"hevc", "s1", "third"},
	}, got)
}

func TestJobBuilder_SetFilter(t *testing.T) {
	jobs, err := NewJobBuilder(adapter.NewLocalWorkspaceFSAdapter()).Build(testBatch(), BuildArgs{Sets: []string{"SDK"}})
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	for i, job := range jobs {
		assert.Equal(t, i, job.Number)
		assert.Equal(t, "second", job.Test.Name)
	}

	jobs, err = NewJobBuilder(adapter.NewLocalWorkspaceFSAdapter()).Build(testBatch(), BuildArgs{Sets: []string{"missing"}})
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestJobBuilder_Defaults(t *testing.T) {
	args := BuildArgs{
		Tools:      m.Executables{Encoder: "bin/enc"},
		InputDir:   "in",
		BaseDir:    "base",
		WorkDir:    "work",
		Display:    m.DisplaySpinner,
		DecodeOnly: true,
		Manifest:   m.ManifestInfo{Profile: "Main"},
	}

	jobs, err := NewJobBuilder(adapter.NewLocalWorkspaceFSAdapter()).Build(testBatch(), args)
	require.NoError(t, err)

	first := jobs[0]
	assert.Equal(t, m.ParameterSet{
		m.KeyBaseEncoder: "avc",
		m.KeyWidth:       int64(1920),
		m.KeyHeight:      int64(1080),
		m.KeyInputFile:   "s1_1920x1080_50fps_10bit_420p.yuv",
		m.KeyBase:        "s1_avc.bit",
		m.KeyBaseRecon:   "s1_avc.yuv",
		m.KeyFormat:      "yuv420p10",
	}, first.Defaults)

	assert.True(t, filepath.IsAbs(string(first.Tools.Encoder)))
	assert.Empty(t, first.Tools.Decoder)
	assert.Equal(t, m.DisplaySpinner, first.Display)
	assert.True(t, first.DecodeOnly)
	assert.Equal(t, "Main", first.Manifest.Profile)
	assert.Equal(t, m.Path("work"), first.WorkDir)

	luma := jobs[3]
	assert.Equal(t, "second", luma.Test.Name)
	assert.Equal(t, "y12", luma.Defaults[m.KeyFormat])
}

func TestJobBuilder_ReportsEveryMissingEntry(t *testing.T) {
	batch := testBatch()
	delete(batch.Bases, "hevc")
	batch.Inputs["yuv420p"]["s2"] = "s2_no_depth"

	_, err := NewJobBuilder(adapter.NewLocalWorkspaceFSAdapter()).Build(batch, BuildArgs{})
	require.ErrorIs(t, err, adapter.ErrInvalidManifest)
	assert.Contains(t, err.Error(), "carries no bit depth")
	assert.Contains(t, err.Error(), `no "hevc" base`)
}

func TestParseSets(t *testing.T) {
	assert.Equal(t, []string{"LTM", "SDK"}, ParseSets(" LTM, ,SDK,"))
	assert.Empty(t, ParseSets(""))
}
