// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Airstream Components

package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/airstream/izonectl/pkg/izone"
	"github.com/airstream/izonectl/pkg/session"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Interactive TUI for monitoring and controlling zones",
	Long: `Watch the controller in an interactive terminal UI.

The zone table refreshes on a timer and on change broadcasts. Arrow
keys select a zone, + and - nudge its setpoint by half a degree, o
cycles its mode, q quits.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 30*time.Second, "Full refresh interval")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Refresh(ctx); err != nil {
		return err
	}

	m := initialWatchModel(ctx, s)
	p := tea.NewProgram(m, tea.WithAltScreen())

	// Forward session change events into the TUI.
	events := s.Subscribe()
	go func() {
		for range events {
			p.Send(watchUpdateMsg{})
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type watchTickMsg time.Time

type watchUpdateMsg struct{}

type watchErrMsg struct{ err error }

//////////////////////////////////////////////////////////////
// Model
//////////////////////////////////////////////////////////////

type watchModel struct {
	ctx     context.Context
	session *session.Session

	zones    table.Model
	snap     session.Snapshot
	lastErr  error
	width    int
	height   int
	quitting bool
}

func initialWatchModel(ctx context.Context, s *session.Session) watchModel {
	columns := []table.Column{
		{Title: "Zone", Width: 4},
		{Title: "Name", Width: 16},
		{Title: "Mode", Width: 9},
		{Title: "Temp", Width: 9},
		{Title: "Setpoint", Width: 9},
		{Title: "Airflow", Width: 9},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(izone.MaxZones),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(styles)

	m := watchModel{
		ctx:     ctx,
		session: s,
		zones:   t,
		width:   80,
		height:  24,
	}
	m.reload()
	return m
}

func watchTickCmd() tea.Cmd {
	return tea.Tick(watchInterval, func(t time.Time) tea.Msg {
		return watchTickMsg(t)
	})
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(watchTickCmd(), tea.EnterAltScreen)
}

func (m *watchModel) reload() {
	m.snap = m.session.Snapshot()
	rows := make([]table.Row, 0, len(m.snap.Zones))
	for i := range m.snap.Zones {
		z := &m.snap.Zones[i]
		idx, name, mode := "-", "-", "-"
		if z.Index != nil {
			idx = strconv.Itoa(*z.Index)
		}
		if z.Name != nil {
			name = *z.Name
		}
		if z.Mode != nil {
			mode = z.Mode.String()
		}
		airflow := "-"
		if z.MinAir != nil && z.MaxAir != nil {
			airflow = fmt.Sprintf("%d-%d%%", *z.MinAir, *z.MaxAir)
		}
		rows = append(rows, table.Row{
			idx, name, mode, tempOrDash(z.Temp), tempOrDash(z.Setpoint), airflow,
		})
	}
	m.zones.SetRows(rows)
}

// selectedZone returns the highlighted zone, nil when the table is empty.
func (m *watchModel) selectedZone() *izone.ZoneStatus {
	row := m.zones.SelectedRow()
	if row == nil {
		return nil
	}
	idx, err := strconv.Atoi(row[0])
	if err != nil {
		return nil
	}
	for i := range m.snap.Zones {
		if m.snap.Zones[i].Index != nil && *m.snap.Zones[i].Index == idx {
			return &m.snap.Zones[i]
		}
	}
	return nil
}

func (m *watchModel) nudgeSetpoint(delta izone.Temperature) tea.Cmd {
	z := m.selectedZone()
	if z == nil || z.Index == nil || z.Setpoint == nil {
		return nil
	}
	zone, target := *z.Index, *z.Setpoint+delta
	s := m.session
	ctx := m.ctx
	return func() tea.Msg {
		cmd, err := izone.NewZoneSetpointCommand(s.Validator(), zone, target)
		if err == nil {
			err = s.Execute(ctx, cmd)
		}
		if err != nil {
			return watchErrMsg{err}
		}
		return watchUpdateMsg{}
	}
}

// cycleMode steps the selected zone open -> close -> auto -> open.
func (m *watchModel) cycleMode() tea.Cmd {
	z := m.selectedZone()
	if z == nil || z.Index == nil || z.Mode == nil {
		return nil
	}
	var next izone.ZoneMode
	switch *z.Mode {
	case izone.ZoneModeOpen:
		next = izone.ZoneModeClose
	case izone.ZoneModeClose:
		next = izone.ZoneModeAuto
	default:
		next = izone.ZoneModeOpen
	}
	zone := *z.Index
	s := m.session
	ctx := m.ctx
	return func() tea.Msg {
		cmd, err := izone.NewZoneModeCommand(s.Validator(), zone, next)
		if err == nil {
			err = s.Execute(ctx, cmd)
		}
		if err != nil {
			return watchErrMsg{err}
		}
		return watchUpdateMsg{}
	}
}

func (m watchModel) refreshCmd() tea.Cmd {
	s := m.session
	ctx := m.ctx
	return func() tea.Msg {
		if err := s.Refresh(ctx); err != nil {
			return watchErrMsg{err}
		}
		return watchUpdateMsg{}
	}
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "+", "=":
			return m, m.nudgeSetpoint(izone.SetpointStep)
		case "-":
			return m, m.nudgeSetpoint(-izone.SetpointStep)
		case "o":
			return m, m.cycleMode()
		case "r":
			return m, m.refreshCmd()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case watchTickMsg:
		return m, tea.Batch(watchTickCmd(), m.refreshCmd())

	case watchUpdateMsg:
		m.lastErr = nil
		m.reload()

	case watchErrMsg:
		m.lastErr = msg.err
	}

	var cmd tea.Cmd
	m.zones, cmd = m.zones.Update(msg)
	return m, cmd
}

func (m watchModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	header := fmt.Sprintf("Controller %s", m.snap.UID)
	if sys := m.snap.System; sys != nil {
		header += " | " + systemSummary(sys)
	}

	s := titleStyle.Render("IZONECTL - ZONE MONITOR") + "\n"
	s += headerStyle.Render(header) + "\n"
	s += headerStyle.Render("arrows: select | +/-: setpoint | o: mode | r: refresh | q: quit") + "\n\n"
	s += boxStyle.Render(m.zones.View()) + "\n"

	if m.lastErr != nil {
		s += errorStyle.Render(fmt.Sprintf("✗ %v", m.lastErr)) + "\n"
	}
	return s
}

func systemSummary(sys *izone.SystemStatus) string {
	state := "off"
	if sys.SysOn != nil && *sys.SysOn != 0 {
		state = "on"
	}
	out := state
	if sys.SysMode != nil {
		out += " " + sys.SysMode.String()
	}
	if sys.Setpoint != nil {
		out += " " + sys.Setpoint.String()
	}
	if sys.Temp != nil {
		out += fmt.Sprintf(" (return %s)", sys.Temp)
	}
	return out
}
