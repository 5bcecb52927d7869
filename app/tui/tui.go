// Package tui is the interactive terminal frontend for the study planner.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"studyplan/app/board"
	"studyplan/app/config"
	"studyplan/app/export"
)

const requestTimeout = 90 * time.Second

type mode int

const (
	modeBrowse mode = iota
	modeGoal
	modeAdd
	modeConfirmClear
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			MarginTop(1)
)

// Options configures a Model.
type Options struct {
	Export     config.ExportConfig
	ExportPath string
}

type viewMsg struct{ view *board.View }

type doneMsg struct{ status string }

type errMsg struct{ err error }

// Model is the bubbletea model driving a board.Board.
type Model struct {
	board    *board.Board
	opts     Options
	view     *board.View
	cursor   int
	mode     mode
	input    textinput.Model
	busy     bool
	status   string
	err      error
	quitting bool
}

// New creates a Model for b.
func New(b *board.Board, opts Options) Model {
	in := textinput.New()
	in.CharLimit = 200
	in.Width = 60
	if opts.ExportPath == "" {
		opts.ExportPath = "study_plan.pdf"
	}
	return Model{board: b, opts: opts, input: in}
}

// Run starts the program and blocks until the user quits.
func Run(b *board.Board, opts Options) error {
	_, err := tea.NewProgram(New(b, opts), tea.WithAltScreen()).Run()
	return err
}

// Init loads the task list.
func (m Model) Init() tea.Cmd {
	return m.refresh()
}

func (m Model) refresh() tea.Cmd {
	b := m.board
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		view, err := b.Refresh(ctx)
		if err != nil {
			return errMsg{err}
		}
		return viewMsg{view}
	}
}

// run executes fn off the UI goroutine and reports its status line.
func run(fn func(ctx context.Context) (string, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		status, err := fn(ctx)
		if err != nil {
			return errMsg{err}
		}
		return doneMsg{status}
	}
}

// Update handles key presses and the results of background commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case viewMsg:
		m.busy = false
		m.view = msg.view
		if n := len(m.view.Tasks); m.cursor >= n {
			m.cursor = max(n-1, 0)
		}
		if len(m.view.Failures) > 0 {
			m.err = errors.Join(m.view.Failures...)
		}
		return m, nil

	case doneMsg:
		m.status = msg.status
		m.err = nil
		return m, m.refresh()

	case errMsg:
		m.busy = false
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.quitting = true
			return m, tea.Quit
		}
		switch m.mode {
		case modeGoal, modeAdd:
			return m.updateInput(msg)
		case modeConfirmClear:
			return m.updateConfirm(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.view != nil && m.cursor < len(m.view.Tasks)-1 {
			m.cursor++
		}
	case "r":
		m.busy = true
		m.err = nil
		return m, m.refresh()
	case "g":
		return m.prompt(modeGoal, "e.g. Learn DBMS in 5 days")
	case "a":
		return m.prompt(modeAdd, "Add a task manually")
	case "c":
		m.mode = modeConfirmClear
	case " ", "enter":
		return m.toggle()
	case "d":
		return m.delete()
	case "e":
		return m.export()
	}
	return m, nil
}

func (m Model) prompt(next mode, placeholder string) (tea.Model, tea.Cmd) {
	m.mode = next
	m.input.Reset()
	m.input.Placeholder = placeholder
	return m, m.input.Focus()
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeBrowse
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		value := m.input.Value()
		submitted := m.mode
		m.mode = modeBrowse
		m.input.Blur()
		m.busy = true
		b := m.board
		if submitted == modeGoal {
			m.status = "Generating study plan..."
			return m, run(func(ctx context.Context) (string, error) {
				n, err := b.GeneratePlan(ctx, value)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("Study plan added (%d tasks)", n), nil
			})
		}
		return m, run(func(ctx context.Context) (string, error) {
			task, err := b.AddTask(ctx, value)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Added %q", task.Name), nil
		})
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = modeBrowse
	if msg.String() != "y" {
		return m, nil
	}
	m.busy = true
	b := m.board
	return m, run(func(ctx context.Context) (string, error) {
		n, err := b.Clear(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d tasks cleared!", n), nil
	})
}

func (m Model) selected() (int64, bool) {
	if m.view == nil || len(m.view.Tasks) == 0 {
		return 0, false
	}
	return m.view.Tasks[m.cursor].ID, true
}

func (m Model) toggle() (tea.Model, tea.Cmd) {
	id, ok := m.selected()
	if !ok {
		return m, nil
	}
	if m.view.Derived(id) {
		m.err = board.ErrDerivedTask
		return m, nil
	}
	b, view := m.board, m.view
	m.busy = true
	return m, run(func(ctx context.Context) (string, error) {
		task, err := b.Toggle(ctx, view, id)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s", export.Glyph(task.Completed), task.Name), nil
	})
}

func (m Model) delete() (tea.Model, tea.Cmd) {
	id, ok := m.selected()
	if !ok {
		return m, nil
	}
	b := m.board
	m.busy = true
	return m, run(func(ctx context.Context) (string, error) {
		if err := b.Delete(ctx, id); err != nil {
			return "", err
		}
		return "Task deleted", nil
	})
}

func (m Model) export() (tea.Model, tea.Cmd) {
	if m.view == nil {
		return m, nil
	}
	tasks := m.view.Tasks
	opts := m.opts
	return m, run(func(context.Context) (string, error) {
		format := export.FormatPDF
		if strings.HasSuffix(opts.ExportPath, ".txt") {
			format = export.FormatText
		}
		if err := export.Save(opts.ExportPath, format, tasks, opts.Export); err != nil {
			return "", err
		}
		return "Exported to " + opts.ExportPath, nil
	})
}

// View renders the list, the active prompt and the status line.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("📚 AI Study Planner"))
	b.WriteString("\n\n")

	switch {
	case m.view == nil && m.err == nil:
		b.WriteString("Loading tasks...")
	case m.view == nil || len(m.view.Tasks) == 0:
		b.WriteString(export.Render(nil))
	default:
		for i, l := range export.Lines(m.view.Tasks) {
			prefix := "  "
			if i == m.cursor {
				prefix = cursorStyle.Render("> ")
			}
			b.WriteString(prefix + export.RenderLine(l) + "\n")
		}
	}
	b.WriteString("\n")

	switch m.mode {
	case modeGoal:
		b.WriteString("Enter your study goal:\n" + m.input.View() + "\n")
	case modeAdd:
		b.WriteString("New task:\n" + m.input.View() + "\n")
	case modeConfirmClear:
		b.WriteString(errorStyle.Render("Clear all tasks? (y/N)") + "\n")
	}

	if m.err != nil {
		b.WriteString(errorStyle.Render("❌ "+m.err.Error()) + "\n")
	} else if m.status != "" {
		b.WriteString(statusStyle.Render(m.status) + "\n")
	}
	if m.busy {
		b.WriteString(footerStyle.Render("working...") + "\n")
	}

	b.WriteString(footerStyle.Render(
		"space toggle • d delete • g generate • a add • c clear • e export • r refresh • q quit"))
	return b.String()
}
