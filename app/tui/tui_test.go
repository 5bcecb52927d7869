package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyplan/app/board"
	"studyplan/app/config"
	"studyplan/app/models"
)

type stubAPI struct {
	tasks  []models.Task
	nextID int64
}

func (s *stubAPI) ListTasks(context.Context) ([]models.Task, error) {
	return append([]models.Task(nil), s.tasks...), nil
}

func (s *stubAPI) CreateTask(_ context.Context, name string) (*models.Task, error) {
	s.nextID++
	task := models.Task{ID: s.nextID, Name: name}
	s.tasks = append(s.tasks, task)
	return &task, nil
}

func (s *stubAPI) SetCompleted(_ context.Context, id int64, completed bool) (*models.Task, error) {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks[i].Completed = completed
			t := s.tasks[i]
			return &t, nil
		}
	}
	return nil, errors.New("task not found")
}

func (s *stubAPI) DeleteTask(_ context.Context, id int64) error {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return nil
		}
	}
	return errors.New("task not found")
}

func (s *stubAPI) ClearTasks(context.Context) (int64, error) {
	n := int64(len(s.tasks))
	s.tasks = nil
	return n, nil
}

type stubPlans []string

func (p stubPlans) Plan(context.Context, string) []string { return p }

func newStub() *stubAPI {
	return &stubAPI{
		nextID: 3,
		tasks: []models.Task{
			{ID: 1, Name: "Week 1"},
			{ID: 2, Name: "Algebra"},
			{ID: 3, Name: "Geometry", Completed: true},
		},
	}
}

// drive feeds msg to m and keeps executing the returned commands until the
// model settles.
func drive(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	for i := 0; msg != nil && i < 10; i++ {
		next, cmd := m.Update(msg)
		m = next.(Model)
		if cmd == nil {
			return m
		}
		msg = cmd()
		switch msg.(type) {
		case viewMsg, doneMsg, errMsg:
		default:
			return m
		}
	}
	return m
}

// staticCursor stops the input cursor from scheduling blink ticks.
func staticCursor(m Model) Model {
	m.input.Cursor.SetMode(cursor.CursorStatic)
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loaded(t *testing.T, api *stubAPI, plans board.PlanSource) Model {
	t.Helper()
	m := staticCursor(New(board.New(api, plans, nil), Options{}))
	m = drive(t, m, m.Init()())
	require.NotNil(t, m.view)
	return m
}

func TestInit_LoadsView(t *testing.T) {
	m := loaded(t, newStub(), nil)
	assert.Len(t, m.view.Tasks, 3)
	assert.Contains(t, m.View(), "Algebra")
	assert.Contains(t, m.View(), "> ")
}

func TestToggle_ChildUpdatesParent(t *testing.T) {
	api := newStub()
	m := loaded(t, api, nil)

	m = drive(t, m, key("j"))
	assert.Equal(t, 1, m.cursor)

	m = drive(t, m, key(" "))
	require.NoError(t, m.err)
	assert.True(t, api.tasks[1].Completed)
	assert.True(t, api.tasks[0].Completed, "refresh propagated to the parent")
}

func TestToggle_DerivedParentRejected(t *testing.T) {
	api := newStub()
	m := loaded(t, api, nil)

	m = drive(t, m, key(" "))
	assert.ErrorIs(t, m.err, board.ErrDerivedTask)
	assert.False(t, api.tasks[0].Completed)
}

func TestCursorBounds(t *testing.T) {
	m := loaded(t, newStub(), nil)
	m = drive(t, m, key("k"))
	assert.Equal(t, 0, m.cursor)
	for range 5 {
		m = drive(t, m, key("j"))
	}
	assert.Equal(t, 2, m.cursor)
}

func TestGenerate(t *testing.T) {
	api := &stubAPI{}
	m := loaded(t, api, stubPlans{"### Plan", "Day 1: SQL", "Day 2: Joins"})

	m = drive(t, m, key("g"))
	assert.Equal(t, modeGoal, m.mode)
	for _, r := range "DBMS" {
		m = drive(t, m, key(string(r)))
	}
	m = drive(t, m, key("enter"))

	assert.Equal(t, modeBrowse, m.mode)
	assert.Equal(t, "Study plan added (2 tasks)", m.status)
	assert.Len(t, m.view.Tasks, 2)
}

func TestAddEscape(t *testing.T) {
	api := &stubAPI{}
	m := loaded(t, api, nil)

	m = drive(t, m, key("a"))
	m = drive(t, m, key("x"))
	m = drive(t, m, key("esc"))
	assert.Equal(t, modeBrowse, m.mode)
	assert.Empty(t, api.tasks)
}

func TestClearRequiresConfirmation(t *testing.T) {
	api := newStub()
	m := loaded(t, api, nil)

	m = drive(t, m, key("c"))
	m = drive(t, m, key("n"))
	assert.Len(t, api.tasks, 3)

	m = drive(t, m, key("c"))
	m = drive(t, m, key("y"))
	assert.Empty(t, api.tasks)
	assert.Equal(t, "3 tasks cleared!", m.status)
	assert.Contains(t, m.View(), "No tasks yet")
}

func TestDelete(t *testing.T) {
	api := newStub()
	m := loaded(t, api, nil)

	m = drive(t, m, key("j"))
	m = drive(t, m, key("j"))
	m = drive(t, m, key("d"))
	assert.Len(t, api.tasks, 2)
	assert.Equal(t, 1, m.cursor)
}

func TestExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.txt")
	m := staticCursor(New(board.New(newStub(), nil, nil), Options{
		ExportPath: path,
		Export:     config.ExportConfig{Width: 90, LinesPerPage: 40, Title: "Plan"},
	}))
	m = drive(t, m, m.Init()())

	m = drive(t, m, key("e"))
	require.NoError(t, m.err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "    [ ] Algebra")
}

func TestQuit(t *testing.T) {
	m := loaded(t, newStub(), nil)
	next, cmd := m.Update(key("q"))
	assert.True(t, next.(Model).quitting)
	assert.NotNil(t, cmd)
	assert.Empty(t, next.(Model).View())
}
