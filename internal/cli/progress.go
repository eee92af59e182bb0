package cli

import (
	"fmt"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/raphaelgruber/coursechat-go/internal/corpus"
)

const pollInterval = 200 * time.Millisecond

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// tickMsg triggers polling the sync state
type tickMsg time.Time

// syncDoneMsg carries the finished sync outcome
type syncDoneMsg syncOutcome

// ingestModel is the bubbletea model for ingestion progress.
type ingestModel struct {
	tracker  *syncTracker
	resultCh chan syncOutcome
	progress progress.Model
	theme    Theme
	outcome  *syncOutcome
	done     bool
	quitting bool
}

// newIngestModel creates a new ingestion progress model.
func newIngestModel(tracker *syncTracker, resultCh chan syncOutcome) ingestModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)

	return ingestModel{
		tracker:  tracker,
		resultCh: resultCh,
		progress: prog,
		theme:    defaultTheme,
	}
}

// Init returns the initial command (start polling).
func (m ingestModel) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		m.progress.Init(),
	)
}

// Update handles messages and returns the updated model.
func (m ingestModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		// Drain the result channel without blocking the UI loop
		select {
		case outcome := <-m.resultCh:
			return m, func() tea.Msg { return syncDoneMsg(outcome) }
		default:
			return m, tickCmd()
		}

	case syncDoneMsg:
		outcome := syncOutcome(msg)
		m.outcome = &outcome
		m.done = true
		return m, tea.Quit

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m ingestModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

// renderContent builds the display string.
func (m ingestModel) renderContent() string {
	if m.done {
		return m.finalView()
	}

	done, total, file := m.tracker.snapshot()
	if total == 0 {
		return "Scanning documents...\n"
	}

	pct := float64(done) / float64(total)
	status := m.theme.statusStyle().Render("[ingesting]")
	progressBar := m.progress.ViewAs(pct)
	counts := fmt.Sprintf("%d/%d files", done, total)
	current := ""
	if file != "" {
		current = m.theme.hintStyle().Render("  " + file)
	}

	return fmt.Sprintf("%s %s %s%s\n", status, progressBar, counts, current)
}

// finalView renders the completion message.
func (m ingestModel) finalView() string {
	if m.quitting {
		return m.theme.hintStyle().Render("\nIngestion aborted.\n")
	}
	if m.outcome != nil && m.outcome.err != nil {
		return m.theme.errorStyle().Render(fmt.Sprintf("\n✗ Ingestion failed: %s\n", m.outcome.err))
	}
	return m.theme.completedStyle().Render("✓ Ingestion complete") + "\n"
}

// tickCmd returns a command that sends a tick after the poll interval.
func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// runIngestProgress runs the interactive progress UI while the sync runs in
// the background, then returns the sync report.
func runIngestProgress(tracker *syncTracker, resultCh chan syncOutcome) (corpus.SyncReport, error) {
	model := newIngestModel(tracker, resultCh)
	p := tea.NewProgram(model)

	finalModel, err := p.Run()
	if err != nil {
		return corpus.SyncReport{}, fmt.Errorf("progress UI error: %w", err)
	}

	m, ok := finalModel.(ingestModel)
	if !ok || m.outcome == nil {
		if ok && m.quitting {
			return corpus.SyncReport{}, fmt.Errorf("ingestion aborted")
		}
		return corpus.SyncReport{}, fmt.Errorf("ingestion did not complete")
	}
	return m.outcome.report, m.outcome.err
}
