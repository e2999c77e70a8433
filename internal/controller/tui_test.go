package controller

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	m "lcevc.dev/pkg/conformance/internal/model"
)

func update(t *testing.T, model batchModel, msg tea.Msg) batchModel {
	t.Helper()

	next, _ := model.Update(msg)

	bm, ok := next.(batchModel)
	require.True(t, ok)

	return bm
}

func TestBatchModel_Progress(t *testing.T) {
	bm := newBatchModel(ModeRun)

	bm = update(t, bm, batchInfoMsg{total: 4, workers: 2})
	bm = update(t, bm, jobStartedMsg{number: 0, name: "seq_a_v-nova_v01"})
	bm = update(t, bm, jobStartedMsg{number: 1, name: "seq_b_v-nova_v01"})

	view := bm.View()
	assert.Contains(t, view, "Conformance - Encode/Decode")
	assert.Contains(t, view, "0/4")
	assert.Contains(t, view, "seq_a_v-nova_v01")
	assert.Contains(t, view, "seq_b_v-nova_v01")

	bm = update(t, bm, itemDoneMsg{number: 0, name: "seq_a_v-nova_v01", ok: true})
	bm = update(t, bm, itemDoneMsg{number: 1, name: "seq_b_v-nova_v01", detail: "no result"})

	assert.Equal(t, 2, bm.done)
	assert.Equal(t, 1, bm.failures)
	assert.Empty(t, bm.running)
	assert.InDelta(t, 0.5, bm.percent(), 1e-9)

	view = bm.View()
	assert.Contains(t, view, "2/4")
	assert.Contains(t, view, "1 failed")
	assert.Contains(t, view, "(no result)")
}

func TestBatchModel_RecentIsBounded(t *testing.T) {
	bm := newBatchModel(ModeDecode)
	bm = update(t, bm, batchInfoMsg{total: 20})

	for i := 0; i < 20; i++ {
		bm = update(t, bm, itemDoneMsg{number: -1, name: "x.bit", ok: true})
	}

	assert.Len(t, bm.recent, recentLimit)
	assert.Contains(t, bm.View(), "Conformance - Decode")
}

func TestBatchModel_Summary(t *testing.T) {
	bm := newBatchModel(ModeRun)
	bm = update(t, bm, summaryMsg{total: 3, failures: 0})
	assert.Contains(t, bm.View(), "All 3 passed")
	assert.Contains(t, bm.View(), "q: quit")

	bm = update(t, bm, summaryMsg{total: 3, failures: 2})
	bm = update(t, bm, comparisonMsg{comparison: m.HashComparison{
		Changed: []m.HashChange{{Key: "k", Reference: m.HashEntry{Hash: "01"}, Current: m.HashEntry{Hash: "02"}}},
	}})

	view := bm.View()
	assert.Contains(t, view, "Tests failed: 2 of 3")
	assert.Contains(t, view, "0 added, 0 removed, 1 changed")
	assert.Contains(t, view, "k: 01 -> 02")
}

func TestBatchModel_QuitKeys(t *testing.T) {
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyCtrlC},
		{Type: tea.KeyEsc},
		{Type: tea.KeyRunes, Runes: []rune("q")},
	} {
		next, cmd := newBatchModel(ModeRun).Update(key)
		require.NotNil(t, cmd)
		assert.True(t, next.(batchModel).quitting)
	}

	next, cmd := newBatchModel(ModeRun).Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.Nil(t, cmd)
	assert.False(t, next.(batchModel).quitting)
}

func TestTUI_DisplayBeforeStartIsNoop(t *testing.T) {
	ui := NewTUI(nil)

	ui.DisplayBatchInfo(t.Context(), 1, 1)
	ui.DisplayJobCompleted(t.Context(), m.JobDescriptor{}, m.JobResult{})
	ui.Wait(t.Context())
	ui.Close(t.Context())
}
