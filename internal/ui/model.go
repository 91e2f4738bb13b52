package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

//nolint:gochecknoglobals
var (
	// titleStyle defines the style for a panel's title.
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	// borderStyle defines the style for a panel's borders.
	borderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4"))

	// infoStyle defines the style for a panel's text.
	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA"))

	// failStyle defines the style for a failed install's final state.
	failStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF5F5F"))

	// helpStyle defines the style for the help panel's text.
	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Padding(0, 1)
)

// statusMsg is a [tea.Msg] carrying the current step description.
type statusMsg string

// percentMsg is a [tea.Msg] carrying the overall progress percentage.
type percentMsg int

// busyMsg is a [tea.Msg] toggling the indeterminate activity indicator.
type busyMsg bool

// doneMsg is a [tea.Msg] signalling the end of the install.
type doneMsg struct {
	err error
}

// TeaModel is the principal [tea.Model] for the command-line user interface.
type TeaModel struct {
	width  int
	height int

	cancel context.CancelFunc

	uiHandler *Handler

	fullWidthWithBorders int

	statusText string
	percent    int
	busy       bool
	done       bool
	doneErr    error

	installProgress progress.Model
	busySpinner     spinner.Model
	logsViewport    viewport.Model
	logs            []string

	ready bool
}

// NewTeaModel returns an initial new [TeaModel].
//
//nolint:mnd
func NewTeaModel(uiHandler *Handler, cancel context.CancelFunc) TeaModel {
	installProgress := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(80),
	)

	busySpinner := spinner.New(spinner.WithSpinner(spinner.Dot))

	logsViewport := viewport.New(80, 20)

	return TeaModel{
		uiHandler:       uiHandler,
		installProgress: installProgress,
		busySpinner:     busySpinner,
		logsViewport:    logsViewport,
		statusText:      "Preparing...",
		logs:            make([]string, 0, 100),
		cancel:          cancel,
		ready:           false,
	}
}

// Init initializes the model within a [tea.Program].
func (m TeaModel) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		m.busySpinner.Tick,
	)
}

// Update is the principal message handling method of the model.
// It sets the internal state of the model, for later rendering.
//
//nolint:funlen,ireturn
func (m TeaModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()

			return m, tea.Quit
		case "q":
			if m.done {
				return m, tea.Quit
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		m.fullWidthWithBorders = m.width - 2 //nolint:mnd

		m.installProgress.Width = m.fullWidthWithBorders

		// Viewport height: everything below the progress panel.
		viewportHeight := m.height - 10 //nolint:mnd
		if viewportHeight < 3 {
			viewportHeight = 3
		}

		m.logsViewport.Width = m.fullWidthWithBorders
		m.logsViewport.Height = viewportHeight

		if len(m.logs) > 0 {
			m.logsViewport.SetContent(m.renderLogs())
			m.logsViewport.GotoBottom()
		}

		if !m.ready {
			m.ready = true
			m.uiHandler.Ready.Store(true)
		}

	case statusMsg:
		m.statusText = string(msg)

	case percentMsg:
		pct := int(msg)
		if pct < 0 {
			pct = 0
		} else if pct > 100 {
			pct = 100
		}
		m.percent = pct

		cmds = append(cmds, m.installProgress.SetPercent(float64(pct)/100)) //nolint:mnd

	case busyMsg:
		m.busy = bool(msg)

	case doneMsg:
		m.done = true
		m.doneErr = msg.err
		m.busy = false

	case logMsg:
		if len(m.logs) >= 100 { //nolint:mnd
			m.logs = m.logs[1:]
		}

		m.logs = append(m.logs, string(msg))

		m.logsViewport.SetContent(m.renderLogs())
		m.logsViewport.GotoBottom()

	case spinner.TickMsg:
		m.busySpinner, cmd = m.busySpinner.Update(msg)
		cmds = append(cmds, cmd)

	case progress.FrameMsg:
		updated, cmd := m.installProgress.Update(msg)
		if progressModel, ok := updated.(progress.Model); ok {
			m.installProgress = progressModel
		}
		cmds = append(cmds, cmd)
	}

	m.logsViewport, cmd = m.logsViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View is the principal rendering function of the model.
func (m TeaModel) View() string {
	if !m.ready {
		return "Loading the GUI..."
	}

	var s strings.Builder

	statusLine := m.statusText
	if m.busy {
		statusLine = m.busySpinner.View() + statusLine
	}

	if m.done {
		if m.doneErr != nil {
			statusLine = failStyle.Render("Install failed: " + m.doneErr.Error())
		} else {
			statusLine = "Install complete."
		}
	}

	progressSection := borderStyle.
		Width(m.fullWidthWithBorders).
		Render(
			lipgloss.JoinVertical(
				lipgloss.Left,
				titleStyle.Width(m.fullWidthWithBorders).Render("Installation"),
				"", // Empty line for spacing.
				m.installProgress.View(),
				"", // Empty line for spacing.
				infoStyle.Width(m.fullWidthWithBorders).Render(statusLine),
			),
		)

	logsSection := borderStyle.
		Width(m.fullWidthWithBorders).
		Render(
			lipgloss.JoinVertical(
				lipgloss.Left,
				titleStyle.Width(m.fullWidthWithBorders).Render("Process Information"),
				lipgloss.NewStyle().Width(m.fullWidthWithBorders).Render(m.logsViewport.View()),
			),
		)

	helpText := "ctrl+c: abort install"
	if m.done {
		helpText = "q: quit gui • ctrl+c: quit program"
	}

	helpSection := helpStyle.
		Width(m.fullWidthWithBorders).
		Render(helpText)

	s.WriteString(lipgloss.JoinVertical(
		lipgloss.Left,
		progressSection,
		logsSection,
		helpSection,
	))

	return s.String()
}

func (m TeaModel) renderLogs() string {
	return lipgloss.NewStyle().
		Width(m.logsViewport.Width).
		Render(strings.TrimSuffix(strings.Join(m.logs, ""), "\n"))
}
