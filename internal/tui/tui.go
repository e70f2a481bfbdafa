// Package tui provides a Bubble Tea terminal user interface for gphoto-get.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/soralit/gphoto-get/internal/config"
	"github.com/soralit/gphoto-get/internal/download"
	"github.com/soralit/gphoto-get/internal/gphotos"
	httpx "github.com/soralit/gphoto-get/internal/http"
	"github.com/soralit/gphoto-get/internal/model"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#4285F4")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)
)

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateEnumerating
	StateDownloading
	StateComplete
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   download.ProgressLevel
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	settings  *config.Settings
	logs      []LogEntry
	err       error

	// Run context
	ctx    context.Context
	cancel context.CancelFunc

	// Pipeline state
	manager  *download.Manager
	resolved []model.ResolvedMedia
	summary  model.Summary

	// events carries manager progress callbacks into the Update loop.
	events chan download.ProgressEvent

	// Download progress
	filesDone     int32
	filesTotal    int32
	receivedBytes int64
	expectedBytes int64

	// Options
	verbose bool

	width  int
	height int
}

// NewModel creates a new TUI model.
func NewModel(settings *config.Settings) Model {
	ti := textinput.New()
	ti.Placeholder = "https://photos.app.goo.gl/..."
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#4285F4"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:     StateInput,
		textInput: ti,
		spinner:   sp,
		progress:  prog,
		settings:  settings,
		logs:      make([]LogEntry, 0),
		events:    make(chan download.ProgressEvent, 64),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// EnumerateDoneMsg is sent when the album has been fully enumerated
	// and resolved.
	EnumerateDoneMsg struct {
		Resolved   []model.ResolvedMedia
		Manager    *download.Manager
		TotalBytes int64
		Err        error
	}

	// ProgressMsg carries one manager progress event into the UI.
	ProgressMsg struct {
		Event download.ProgressEvent
	}

	// DownloadDoneMsg is sent when all downloads complete.
	DownloadDoneMsg struct {
		Summary model.Summary
		Err     error
	}

	// TickMsg is for periodic progress updates.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 20
		if m.progress.Width > 80 {
			m.progress.Width = 80
		}
		if m.progress.Width < 20 {
			m.progress.Width = 20
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.state == StateInput {
				return m, tea.Quit
			}
			if m.state == StateDownloading || m.state == StateEnumerating {
				m.cancel()
				m.state = StateError
				m.err = fmt.Errorf("cancelled by user")
			}

		case "enter":
			if m.state == StateInput && m.textInput.Value() != "" {
				m.state = StateEnumerating
				return m, tea.Batch(m.enumerateAlbum(), m.spinner.Tick)
			}

		case "v":
			if m.state == StateInput {
				m.verbose = !m.verbose
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				// Reset for a new run
				m.state = StateInput
				m.logs = nil
				m.err = nil
				m.manager = nil
				m.resolved = nil
				m.summary = model.Summary{}
				m.filesDone = 0
				m.filesTotal = 0
				m.receivedBytes = 0
				m.expectedBytes = 0
				// Fresh channel: a listener from the previous run may
				// still hold the old one.
				m.events = make(chan download.ProgressEvent, 64)
				m.ctx, m.cancel = context.WithCancel(context.Background())
				m.textInput.SetValue("")
				m.textInput.Focus()
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case EnumerateDoneMsg:
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
		} else {
			m.resolved = msg.Resolved
			m.manager = msg.Manager
			m.expectedBytes = msg.TotalBytes
			m.state = StateDownloading
			cmds = append(cmds, m.startDownload(), m.tickProgress(), m.listenEvents())
		}

	case ProgressMsg:
		// Keep listening regardless; verbose events are filtered here so
		// the toggle takes effect without touching the manager.
		cmds = append(cmds, m.listenEvents())
		if msg.Event.Level == download.LevelVerbose && !m.verbose {
			break
		}
		m.logs = append(m.logs, LogEntry{
			Message: msg.Event.Message,
			Level:   msg.Event.Level,
		})
		// Keep only last 10 logs
		if len(m.logs) > 10 {
			m.logs = m.logs[len(m.logs)-10:]
		}

	case DownloadDoneMsg:
		m.summary = msg.Summary
		if msg.Err != nil && m.ctx.Err() == nil {
			m.state = StateError
			m.err = msg.Err
		} else if m.ctx.Err() != nil {
			m.state = StateError
			m.err = fmt.Errorf("cancelled by user")
		} else {
			m.state = StateComplete
		}

	case TickMsg:
		if m.manager != nil && m.state == StateDownloading {
			done, total, received := m.manager.GetProgress()
			m.filesDone = done
			m.filesTotal = total
			m.receivedBytes = received

			var percent float64
			if total > 0 {
				percent = float64(done) / float64(total)
			}
			progressCmd := m.progress.SetPercent(percent)
			cmds = append(cmds, progressCmd, m.tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	// Update text input
	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// listenEvents returns a command that delivers the next manager progress
// event as a ProgressMsg. The ProgressMsg handler re-issues it, so exactly
// one listener is outstanding at a time.
func (m Model) listenEvents() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		return ProgressMsg{Event: <-events}
	}
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("📷 gphoto-get"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Download shared Google Photos albums"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateEnumerating:
		b.WriteString(m.viewEnumerating())
	case StateDownloading:
		b.WriteString(m.viewDownloading())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Enter shared album URL:"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	verboseCheck := "[ ]"
	if m.verbose {
		verboseCheck = "[×]"
	}

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s Verbose output (v)\n", verboseCheck))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Output directory: %s", m.settings.OutputDir)))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewEnumerating() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render("Enumerating album..."))
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewDownloading() string {
	var b strings.Builder

	b.WriteString(successStyle.Render(fmt.Sprintf("Found %d media item(s)", len(m.resolved))))
	b.WriteString("\n\n")

	var percent float64
	if m.filesTotal > 0 {
		percent = float64(m.filesDone) / float64(m.filesTotal)
	}
	b.WriteString(m.progress.ViewAs(percent))
	b.WriteString("\n")

	received := fmt.Sprintf("%.2f MB", float64(m.receivedBytes)/1024/1024)
	if m.expectedBytes > 0 {
		received = fmt.Sprintf("%.2f / %.2f MB", float64(m.receivedBytes)/1024/1024, float64(m.expectedBytes)/1024/1024)
	}
	b.WriteString(infoStyle.Render(fmt.Sprintf(
		"Files: %d/%d | Received: %s",
		m.filesDone,
		m.filesTotal,
		received,
	)))
	b.WriteString("\n\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	var b strings.Builder

	status := "✨ Download Complete!"
	if m.summary.Failed > 0 {
		status = "⚠ Finished with failures"
	}

	box := boxStyle.Render(fmt.Sprintf(
		"%s\n\n"+
			"Downloaded: %d\n"+
			"Skipped:    %d\n"+
			"Failed:     %d\n"+
			"Size:       %.2f MB",
		status,
		m.summary.Success,
		m.summary.Skipped,
		m.summary.Failed,
		float64(m.receivedBytes)/1024/1024,
	))
	b.WriteString(box)

	if len(m.summary.FailedIDs) > 0 {
		b.WriteString("\n\n")
		b.WriteString(errorStyle.Render("Failed items: " + strings.Join(m.summary.FailedIDs, ", ")))
	}

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("❌ Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case download.LevelError:
			style = errorStyle
			prefix = "✗"
		case download.LevelWarning:
			style = warningStyle
			prefix = "!"
		case download.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case download.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateInput:
		return "enter: start • v: verbose • esc: quit"
	case StateEnumerating, StateDownloading:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: new download • q: quit"
	}
	return ""
}

// enumerateAlbum resolves the share URL, walks the album, and prepares the
// download manager.
func (m *Model) enumerateAlbum() tea.Cmd {
	return func() tea.Msg {
		url := m.textInput.Value()

		client := httpx.NewClient(m.settings.UserAgent, m.settings.RequestTimeout())
		fetcher := gphotos.NewFetcher(client, zerolog.Nop())

		ref, err := fetcher.ResolveShareURL(m.ctx, url)
		if err != nil {
			return EnumerateDoneMsg{Err: err}
		}

		walker := gphotos.NewWalker(fetcher, gphotos.WalkerOptions{
			MaxRetries:      m.settings.MaxRetries,
			LoopGuardRounds: m.settings.LoopGuardRounds,
			RetryCooldown:   m.settings.RetryCooldown,
			RetryExponent:   m.settings.RetryExponent,
		}, zerolog.Nop())

		manifest, err := walker.Walk(m.ctx, ref)
		if err != nil {
			return EnumerateDoneMsg{Err: err}
		}

		// The callback runs on download goroutines; the send must never
		// block the engine, so a full channel drops the event instead.
		events := m.events
		manager := download.NewManager(m.settings, client, zerolog.Nop(), func(event download.ProgressEvent) {
			select {
			case events <- event:
			default:
			}
		})

		resolved := gphotos.ResolveAll(manifest)
		totalBytes := manager.PrefetchSizes(m.ctx, resolved)

		return EnumerateDoneMsg{
			Resolved:   resolved,
			Manager:    manager,
			TotalBytes: totalBytes,
		}
	}
}

// startDownload starts the actual download in background.
func (m *Model) startDownload() tea.Cmd {
	return func() tea.Msg {
		if m.manager == nil {
			return DownloadDoneMsg{Err: fmt.Errorf("no manager")}
		}

		results, err := m.manager.DownloadAll(m.ctx, m.resolved, m.settings.OutputDir)
		return DownloadDoneMsg{Summary: model.Summarize(results), Err: err}
	}
}

// Run starts the TUI application.
func Run(settings *config.Settings) error {
	p := tea.NewProgram(NewModel(settings), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
