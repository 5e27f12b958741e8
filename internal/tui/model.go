package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	bar "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"darkroom/internal/progress"
)

// Unit says what a progress state counts.
type Unit int

const (
	Bytes Unit = iota
	Items
)

// Model shows one long running request: a bar when the total is known, a
// spinner otherwise.
type Model struct {
	title    string
	unit     Unit
	updates  <-chan progress.State
	started  time.Time
	width    int
	state    progress.State
	bar      bar.Model
	spin     spinner.Model
	quitting bool
}

type doneMsg struct{}

type stateMsg progress.State

func NewModel(title string, unit Unit, updates <-chan progress.State) Model {
	return Model{
		title:   title,
		unit:    unit,
		updates: updates,
		started: time.Now(),
		state:   progress.State{Total: progress.Unknown},
		bar:     bar.New(bar.WithGradient(string(ColorAccentAlt), string(ColorAccent)), bar.WithWidth(40)),
		spin:    spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(lipgloss.NewStyle().Foreground(ColorAccent))),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(listenForUpdates(m.updates), m.spin.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		m.state = progress.State(msg)
		return m, listenForUpdates(m.updates)
	case doneMsg:
		m.quitting = true
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = barWidth(msg.Width)
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	default:
		return m, nil
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var indicator string
	if m.state.Indeterminate() {
		indicator = m.spin.View() + " " + dimStyle.Render("working")
	} else {
		indicator = m.bar.ViewAs(m.state.Ratio())
	}
	elapsed := time.Since(m.started).Round(time.Second)

	lines := []string{
		titleStyle.Render(m.title),
		indicator,
		labelStyle.Render(Label(m.state, m.unit)) + dimStyle.Render(fmt.Sprintf("  %s", elapsed)),
	}
	return strings.Join(lines, "\n")
}

// Label renders a state as "3/10" items or "1.2 MB of 4.0 MB".
func Label(s progress.State, unit Unit) string {
	if unit == Items {
		if s.Indeterminate() {
			return fmt.Sprintf("%d done", s.Done)
		}
		return fmt.Sprintf("%d/%d", s.Done, s.Total)
	}
	done := humanize.Bytes(uint64(max(s.Done, 0)))
	if s.Indeterminate() {
		return done
	}
	return fmt.Sprintf("%s of %s", done, humanize.Bytes(uint64(s.Total)))
}

func listenForUpdates(updates <-chan progress.State) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return doneMsg{}
		}
		return stateMsg(update)
	}
}

func barWidth(termWidth int) int {
	w := min(60, termWidth-10)
	return max(w, 20)
}

// Run shows the model on out until updates is closed.
func Run(title string, unit Unit, updates <-chan progress.State, out io.Writer) error {
	p := tea.NewProgram(NewModel(title, unit, updates), tea.WithOutput(out))
	_, err := p.Run()
	return err
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorInk)
	labelStyle = lipgloss.NewStyle().Foreground(ColorInk)
	dimStyle   = lipgloss.NewStyle().Foreground(ColorDim)
)
