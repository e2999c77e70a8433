package controller

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	m "lcevc.dev/pkg/conformance/internal/model"
)

const (
	recentLimit   = 8
	progressWidth = 48
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	passStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	faintStyle = lipgloss.NewStyle().Faint(true)
)

// TUI implements UI using Bubble Tea for interactive display.
type TUI struct {
	output  io.Writer
	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
}

// NewTUI creates a new TUI.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output}
}

// Start launches the Bubble Tea program in the background.
func (t *TUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	config := StartConfig{mode: ModeRun}
	for _, option := range options {
		option(&config)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.program != nil {
		return nil
	}

	t.program = tea.NewProgram(newBatchModel(config.mode), tea.WithOutput(t.output), tea.WithContext(ctx))
	t.done = make(chan struct{})

	go func(program *tea.Program, done chan struct{}) {
		defer close(done)

		if _, err := program.Run(); err != nil {
			slog.Debug("TUI stopped", "error", err)
		}
	}(t.program, t.done)

	return nil
}

// Close stops the program and waits for the terminal to be restored.
func (t *TUI) Close(_ context.Context) {
	t.mu.Lock()
	program, done := t.program, t.done
	t.program = nil
	t.mu.Unlock()

	if program == nil {
		return
	}

	program.Quit()
	<-done
}

// Wait blocks until the user quits the program.
func (t *TUI) Wait(ctx context.Context) {
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()

	if done == nil {
		return
	}

	select {
	case <-ctx.Done():
	case <-done:
	}
}

func (t *TUI) send(msg tea.Msg) {
	t.mu.Lock()
	program := t.program
	t.mu.Unlock()

	if program != nil {
		program.Send(msg)
	}
}

// DisplayBatchInfo sets the total of the progress bar.
func (t *TUI) DisplayBatchInfo(_ context.Context, jobs int, workers int) {
	t.send(batchInfoMsg{total: jobs, workers: workers})
}

// DisplayJobStarted adds the job to the running list.
func (t *TUI) DisplayJobStarted(_ context.Context, job m.JobDescriptor) {
	t.send(jobStartedMsg{number: job.Number, name: job.OutputName()})
}

// DisplayJobCompleted moves the job to the recent results.
func (t *TUI) DisplayJobCompleted(_ context.Context, job m.JobDescriptor, result m.JobResult) {
	t.send(itemDoneMsg{number: job.Number, name: job.OutputName(), ok: result.Success, detail: result.Err})
}

// DisplayBatchSummary shows the final failure count.
func (t *TUI) DisplayBatchSummary(_ context.Context, report m.BatchReport) {
	t.send(summaryMsg{total: len(report.Results), failures: report.Failures})
}

// DisplayDecodeResult records one decoded bitstream.
func (t *TUI) DisplayDecodeResult(_ context.Context, result m.DecodeResult) {
	t.send(itemDoneMsg{number: -1, name: string(result.Bitstream), ok: result.Success(), detail: result.Err})
}

// DisplayDecodeSummary shows the final failure count of a decode run.
func (t *TUI) DisplayDecodeSummary(_ context.Context, report m.DecodeReport) {
	t.send(summaryMsg{total: len(report.Results), failures: report.Failures})
}

// DisplayComparison shows the outcome of a hash report comparison.
func (t *TUI) DisplayComparison(_ context.Context, comparison m.HashComparison) {
	t.send(comparisonMsg{comparison: comparison})
}

type batchInfoMsg struct {
	total   int
	workers int
}

type jobStartedMsg struct {
	number int
	name   string
}

type itemDoneMsg struct {
	number int
	name   string
	ok     bool
	detail string
}

type summaryMsg struct {
	total    int
	failures int
}

type comparisonMsg struct {
	comparison m.HashComparison
}

// batchModel is the Bubble Tea model for batch and decode progress.
type batchModel struct {
	mode       StartMode
	spinner    spinner.Model
	progress   progress.Model
	total      int
	workers    int
	done       int
	failures   int
	running    map[int]string
	recent     []string
	summary    *summaryMsg
	comparison *m.HashComparison
	quitting   bool
}

func newBatchModel(mode StartMode) batchModel {
	return batchModel{
		mode:     mode,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Line)),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(progressWidth)),
		running:  map[int]string{},
	}
}

func (bm batchModel) Init() tea.Cmd {
	return bm.spinner.Tick
}

func (bm batchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return bm.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		bm.progress.Width = min(progressWidth, max(msg.Width-8, 10))
		return bm, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		bm.spinner, cmd = bm.spinner.Update(msg)

		return bm, cmd
	case batchInfoMsg:
		bm.total = msg.total
		bm.workers = msg.workers
	case jobStartedMsg:
		bm.running[msg.number] = msg.name
	case itemDoneMsg:
		return bm.complete(msg), nil
	case summaryMsg:
		bm.summary = &msg
	case comparisonMsg:
		bm.comparison = &msg.comparison
	}

	return bm, nil
}

func (bm batchModel) complete(msg itemDoneMsg) batchModel {
	running := make(map[int]string, len(bm.running))
	for number, name := range bm.running {
		if number != msg.number {
			running[number] = name
		}
	}

	bm.running = running
	bm.done++

	line := passStyle.Render("✓ ") + msg.name
	if !msg.ok {
		bm.failures++
		line = failStyle.Render("✗ ") + msg.name

		if msg.detail != "" {
			line += faintStyle.Render(" (" + msg.detail + ")")
		}
	}

	bm.recent = append(append([]string(nil), bm.recent...), line)
	if len(bm.recent) > recentLimit {
		bm.recent = bm.recent[len(bm.recent)-recentLimit:]
	}

	return bm
}

//nolint:exhaustive // We only handle quit keys
func (bm batchModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		bm.quitting = true
		return bm, tea.Quit
	default:
	}

	if msg.String() == "q" {
		bm.quitting = true
		return bm, tea.Quit
	}

	return bm, nil
}

func (bm batchModel) percent() float64 {
	if bm.total == 0 {
		return 0
	}

	return float64(bm.done) / float64(bm.total)
}

func (bm batchModel) View() string {
	var b strings.Builder

	title := "Conformance - Encode/Decode"
	if bm.mode == ModeDecode {
		title = "Conformance - Decode"
	}

	b.WriteString(titleStyle.Render(title) + "\n\n")

	fmt.Fprintf(&b, "  %s %d/%d", bm.progress.ViewAs(bm.percent()), bm.done, bm.total)

	if bm.failures > 0 {
		b.WriteString("  " + failStyle.Render(fmt.Sprintf("%d failed", bm.failures)))
	}

	b.WriteString("\n\n")

	bm.renderRunning(&b)

	for _, line := range bm.recent {
		b.WriteString("  " + line + "\n")
	}

	bm.renderSummary(&b)

	if !bm.quitting && bm.summary != nil {
		b.WriteString("\n" + faintStyle.Render("  q: quit") + "\n")
	}

	return b.String()
}

func (bm batchModel) renderRunning(b *strings.Builder) {
	if len(bm.running) == 0 || bm.summary != nil {
		return
	}

	numbers := make([]int, 0, len(bm.running))
	for number := range bm.running {
		numbers = append(numbers, number)
	}

	sort.Ints(numbers)

	for _, number := range numbers {
		fmt.Fprintf(b, "  %s %d %s\n", bm.spinner.View(), number, bm.running[number])
	}

	b.WriteString("\n")
}

func (bm batchModel) renderSummary(b *strings.Builder) {
	if bm.summary == nil {
		return
	}

	b.WriteString("\n")

	if bm.summary.failures == 0 {
		b.WriteString("  " + passStyle.Render(fmt.Sprintf("All %d passed", bm.summary.total)) + "\n")
	} else {
		b.WriteString("  " + failStyle.Render(fmt.Sprintf("Tests failed: %d of %d", bm.summary.failures, bm.summary.total)) + "\n")
	}

	if bm.comparison == nil {
		return
	}

	if bm.comparison.Equal() {
		b.WriteString("  " + passStyle.Render("Hashes match reference") + "\n")
		return
	}

	fmt.Fprintf(b, "  %s\n", failStyle.Render(fmt.Sprintf("Hashes differ from reference: %d added, %d removed, %d changed",
		len(bm.comparison.Added), len(bm.comparison.Removed), len(bm.comparison.Changed))))

	for _, change := range bm.comparison.Changed {
		fmt.Fprintf(b, "    %s: %s -> %s\n", change.Key, change.Reference.Hash, change.Current.Hash)
	}
}
