package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wiimctl/wiimctl/internal/core"
	"github.com/wiimctl/wiimctl/internal/linkplay"
	"github.com/wiimctl/wiimctl/internal/player"
	"github.com/wiimctl/wiimctl/internal/tui/styles"
)

// App holds the TUI application state.
type App struct {
	host        string
	name        string
	player      *player.Player
	client      *linkplay.Client
	refreshRate time.Duration
}

// NewApp creates a new TUI application around an existing player.
func NewApp(p *player.Player, refreshRate time.Duration) *App {
	if refreshRate <= 0 {
		refreshRate = time.Second
	}
	return &App{
		host:        p.Host,
		name:        p.Name,
		player:      p,
		client:      linkplay.NewClient(p.Host),
		refreshRate: refreshRate,
	}
}

type (
	refreshTickMsg  time.Time
	positionTickMsg time.Time
	stateMsg        core.NowPlaying
	errMsg          struct{ err error }
	cmdSentMsg      struct{}
)

// Model is the main TUI model.
type Model struct {
	app    *App
	width  int
	height int

	state  core.NowPlaying
	loaded bool

	progress progress.Model
	spinner  spinner.Model

	lastError   error
	errorExpiry time.Time

	quitting bool
}

// NewModel creates the initial model for an app.
func NewModel(app *App) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	pr := progress.New(
		progress.WithSolidFill(string(styles.Primary)),
		progress.WithoutPercentage(),
	)

	return Model{
		app:      app,
		progress: pr,
		spinner:  sp,
		width:    80,
		height:   24,
	}
}

// Init starts the refresh loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.refreshState(),
		m.scheduleRefresh(),
		m.schedulePositionTick(),
	)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = m.progressWidth()
		return m, nil

	case refreshTickMsg:
		return m, tea.Batch(m.refreshState(), m.scheduleRefresh())

	case positionTickMsg:
		// Advance the estimated position between polls.
		if pos, ok := m.app.player.Position(); ok {
			m.state.Position = time.Duration(pos) * time.Second
		}
		return m, m.schedulePositionTick()

	case stateMsg:
		m.state = core.NowPlaying(msg)
		m.loaded = true
		return m, nil

	case errMsg:
		m.lastError = msg.err
		m.errorExpiry = time.Now().Add(5 * time.Second)
		return m, nil

	case cmdSentMsg:
		// Poll right away so the UI reflects the command.
		return m, m.refreshState()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit

	case " ":
		return m, m.deviceCmd(func(ctx context.Context, c *linkplay.Client) error {
			return c.Toggle(ctx)
		})

	case "n":
		return m, m.deviceCmd(func(ctx context.Context, c *linkplay.Client) error {
			return c.Next(ctx)
		})

	case "p":
		return m, m.deviceCmd(func(ctx context.Context, c *linkplay.Client) error {
			return c.Previous(ctx)
		})

	case "+", "=":
		return m, m.adjustVolume(5)

	case "-", "_":
		return m, m.adjustVolume(-5)

	case "m":
		muted := m.state.Muted
		return m, m.deviceCmd(func(ctx context.Context, c *linkplay.Client) error {
			return c.SetMute(ctx, !muted)
		})
	}
	return m, nil
}

// refreshState polls the device and returns the merged view.
func (m Model) refreshState() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := m.app.player.Refresh(ctx); err != nil {
			return errMsg{err}
		}
		return stateMsg(core.FromSnapshot(m.app.player.State()))
	}
}

func (m Model) scheduleRefresh() tea.Cmd {
	return tea.Tick(m.app.refreshRate, func(t time.Time) tea.Msg {
		return refreshTickMsg(t)
	})
}

func (m Model) schedulePositionTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return positionTickMsg(t)
	})
}

// deviceCmd runs a device command asynchronously.
func (m Model) deviceCmd(fn func(ctx context.Context, c *linkplay.Client) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := fn(ctx, m.app.client); err != nil {
			return errMsg{err}
		}
		return cmdSentMsg{}
	}
}

func (m Model) adjustVolume(delta int) tea.Cmd {
	if !m.state.HasVolume {
		return nil
	}
	target := m.state.Volume + delta
	return m.deviceCmd(func(ctx context.Context, c *linkplay.Client) error {
		return c.SetVolume(ctx, target)
	})
}

func (m Model) progressWidth() int {
	w := m.width - 20
	if w < 10 {
		w = 10
	}
	if w > 60 {
		w = 60
	}
	return w
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	name := m.app.name
	if name == "" {
		name = m.app.host
	}
	title := styles.PanelTitle(name, true)

	var content string
	switch {
	case !m.loaded:
		content = m.spinner.View() + " " + styles.Muted.Render("Connecting...")
	case !m.state.HasTrack:
		content = styles.Muted.Render("Nothing playing")
	default:
		content = m.renderTrack()
	}

	footer := styles.Dim.Render("space play/pause • n next • p prev • +/- volume • m mute • q quit")

	if m.lastError != nil && time.Now().Before(m.errorExpiry) {
		footer = lipgloss.NewStyle().Foreground(styles.Error).Render(m.lastError.Error()) + "\n" + footer
	}

	panel := styles.Panel(true).Width(m.width - 2)
	body := panel.Render(lipgloss.JoinVertical(lipgloss.Left, title, "", content, "", footer))

	return lipgloss.NewStyle().Margin(1, 1).Render(body)
}

func (m Model) renderTrack() string {
	icon := styles.StatusIcon(m.state.IsPlaying())
	title := styles.Title.Render(m.state.Title)

	line := icon + " " + title
	meta := ""
	if m.state.Artist != "" {
		meta = styles.Subtitle.Render(m.state.Artist)
		if m.state.Album != "" {
			meta += styles.Dim.Render(" · " + m.state.Album)
		}
	}

	var progressLine string
	if m.state.Duration > 0 {
		bar := m.progress.ViewAs(m.state.ProgressPercent() / 100)
		progressLine = fmt.Sprintf("%s %s %s",
			styles.Muted.Render(formatClock(m.state.Position)),
			bar,
			styles.Muted.Render(formatClock(m.state.Duration)))
	}

	status := ""
	if m.state.HasVolume {
		vol := fmt.Sprintf("🔊 %d%%", m.state.Volume)
		if m.state.Muted {
			vol = "🔇 muted"
		}
		status = styles.Muted.Render(vol)
	}
	if m.state.Source != "" {
		src := styles.SourceIcon(m.state.Source) + " " + m.state.Source
		if status != "" {
			status += styles.Dim.Render("   ")
		}
		status += styles.Muted.Render(src)
	}

	parts := []string{line}
	if meta != "" {
		parts = append(parts, "  "+meta)
	}
	if progressLine != "" {
		parts = append(parts, "", progressLine)
	}
	if status != "" {
		parts = append(parts, "", status)
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func formatClock(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// Run starts the dashboard and blocks until it exits.
func Run(p *player.Player, refreshRate time.Duration) error {
	app := NewApp(p, refreshRate)
	prog := tea.NewProgram(NewModel(app), tea.WithAltScreen())
	_, err := prog.Run()
	return err
}
