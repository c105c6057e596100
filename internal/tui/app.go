// Package tui renders the live tunnel table. It is a thin view over
// the supervisor: all process control stays in the supervisor, the TUI
// only displays snapshots and turns `q` into a quit request.
package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"rtun/internal/supervisor"
	"rtun/internal/tunnel"
	"rtun/pkg/logging"
)

// statusMsg carries a fresh supervisor snapshot into the model.
type statusMsg []supervisor.TunnelStatus

// logMsg carries one log entry for the footer.
type logMsg logging.LogEntry

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			Padding(0, 1)
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	flashStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// App hosts the bubbletea program for a run.
type App struct {
	program *tea.Program
	sup     *supervisor.Supervisor
}

// New builds the TUI over the given supervisor. State changes and log
// entries are forwarded into the program as messages.
func New(version string, sup *supervisor.Supervisor, logCh <-chan logging.LogEntry) *App {
	m := model{
		version:  version,
		statuses: sup.Snapshot(),
		table:    newTunnelTable(sup.Snapshot()),
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	app := &App{program: p, sup: sup}

	sup.SetStateChangeCallback(func(_ tunnel.Spec, _, _ supervisor.State, _ error) {
		p.Send(statusMsg(sup.Snapshot()))
	})

	if logCh != nil {
		go func() {
			for entry := range logCh {
				p.Send(logMsg(entry))
			}
		}()
	}

	return app
}

// Run blocks until the operator quits or Quit is called.
func (a *App) Run() error {
	_, err := a.program.Run()
	return err
}

// Quit stops the program from outside (signal or child crash).
func (a *App) Quit() {
	a.program.Quit()
}

// model is the bubbletea state for the tunnel table.
type model struct {
	version  string
	statuses []supervisor.TunnelStatus
	table    table.Model
	width    int
	height   int
	lastLog  string
	flash    string
}

func newTunnelTable(statuses []supervisor.TunnelStatus) table.Model {
	columns := []table.Column{
		{Title: "Port", Width: 7},
		{Title: "Address", Width: 24},
		{Title: "State", Width: 12},
		{Title: "PID", Width: 8},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(statusRows(statuses)),
		table.WithFocused(true),
		table.WithHeight(len(statuses)+2),
	)

	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).BorderBottom(true)
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("212")).Bold(true)
	t.SetStyles(styles)

	return t
}

func statusRows(statuses []supervisor.TunnelStatus) []table.Row {
	rows := make([]table.Row, 0, len(statuses))
	for _, st := range statuses {
		pid := "-"
		if st.PID > 0 {
			pid = strconv.Itoa(st.PID)
		}
		rows = append(rows, table.Row{
			strconv.Itoa(st.Spec.Port),
			st.Spec.Address(),
			renderState(st.State),
			pid,
		})
	}
	return rows
}

func renderState(state supervisor.State) string {
	switch state {
	case supervisor.StateRunning:
		return runningStyle.Render(string(state))
	case supervisor.StateFailed, supervisor.StateStopFailed:
		return failedStyle.Render(string(state))
	default:
		return string(state)
	}
}

// Init is called when the program starts.
func (m model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(msg.Width - 4)

	case statusMsg:
		m.statuses = msg
		m.table.SetRows(statusRows(m.statuses))

	case logMsg:
		m.lastLog = fmt.Sprintf("%s %s", msg.Subsystem, msg.Message)

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "c":
			m.flash = m.copySelectedCommand()
		}
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// copySelectedCommand puts the selected tunnel's full ssh invocation
// on the clipboard and returns a short confirmation for the footer.
func (m model) copySelectedCommand() string {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.statuses) {
		return ""
	}
	spec := m.statuses[idx].Spec
	command := "ssh " + strings.Join(spec.SSHArgs(), " ")
	if err := clipboard.WriteAll(command); err != nil {
		return fmt.Sprintf("clipboard error: %v", err)
	}
	return fmt.Sprintf("copied: %s", command)
}

// View renders the title, the tunnel table and a footer with the
// keybindings and the most recent log line.
func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("rtun %s — SSH tunnel manager", m.version)))
	b.WriteString("\n\n")
	b.WriteString(m.table.View())
	b.WriteString("\n\n")

	if m.flash != "" {
		b.WriteString(flashStyle.Render(m.flash))
		b.WriteString("\n")
	}
	if m.lastLog != "" {
		b.WriteString(footerStyle.Render(m.lastLog))
		b.WriteString("\n")
	}
	b.WriteString(footerStyle.Render("q: quit all tunnels • c: copy ssh command • ↑/↓: select"))

	return b.String()
}
