package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"studyplan/app/controllers"
	"studyplan/app/repository"
	"studyplan/app/routes"
	"studyplan/app/services"
)

type fixedPlan []string

func (p fixedPlan) Plan(context.Context, string) []string { return p }

// harness runs commands against an in-memory task API.
type harness struct {
	t      *testing.T
	server string
	plans  fixedPlan
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	repo, err := repository.NewSQLite(context.Background(), ":memory:")
	require.NoError(t, err)

	router := mux.NewRouter()
	routes.RegisterRoutes(router,
		controllers.NewTaskController(services.NewTaskService(repo, zap.NewNop()), zap.NewNop()),
		zap.NewNop())
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		repo.Close(context.Background())
	})
	return &harness{t: t, server: srv.URL}
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	opts := &options{}
	if h.plans != nil {
		opts.plans = h.plans
	}
	cmd := newRootCommand(opts)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--server", h.server}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, out)
	return out
}

func TestCommands_Registered(t *testing.T) {
	root := NewRootCommand()
	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	for _, want := range []string{"list", "add", "plan", "toggle", "delete", "clear", "export", "health", "tui"} {
		assert.Contains(t, names, want)
	}
}

func TestList_Empty(t *testing.T) {
	h := newHarness(t)
	assert.Contains(t, h.mustRun("list"), "No tasks yet")
}

func TestPlanToggleList(t *testing.T) {
	h := newHarness(t)
	h.plans = fixedPlan{"### DBMS", "Week 1", "Day 1: ER model", "Day 2: SQL"}

	assert.Contains(t, h.mustRun("plan", "Learn", "DBMS"), "Study plan added (3 tasks)")

	out := h.mustRun("list")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Week 1")
	assert.Contains(t, lines[1], "Day 1: ER model")

	_, err := h.run("toggle", "1")
	assert.ErrorContains(t, err, "parent completion follows its children")

	h.mustRun("toggle", "2")
	h.mustRun("done", "3")

	out = h.mustRun("list")
	assert.Contains(t, out, "✅ Week 1", "parent completed once both children are")
}

func TestPlan_GenerationError(t *testing.T) {
	h := newHarness(t)
	h.plans = fixedPlan{"❌ Error: quota exceeded"}

	_, err := h.run("plan", "DBMS")
	assert.ErrorContains(t, err, "quota exceeded")
	assert.Contains(t, h.mustRun("list"), "No tasks yet")
}

func TestAddDeleteClear(t *testing.T) {
	h := newHarness(t)

	assert.Contains(t, h.mustRun("add", "Revise", "joins"), "Added task 1: Revise joins")
	h.mustRun("add", "Practice queries")
	assert.Contains(t, h.mustRun("rm", "1"), "Task deleted")

	_, err := h.run("delete", "1")
	assert.Error(t, err)

	_, err = h.run("clear")
	assert.ErrorContains(t, err, "--yes")
	assert.Contains(t, h.mustRun("clear", "--yes"), "1 tasks cleared!")
}

func TestInvalidID(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("toggle", "abc")
	assert.ErrorContains(t, err, `invalid task id "abc"`)
	_, err = h.run("delete", "0")
	assert.Error(t, err)
}

func TestExport(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "Week 1")
	h.mustRun("add", "Algebra")

	path := filepath.Join(t.TempDir(), "plan.txt")
	assert.Contains(t, h.mustRun("export", "--format", "txt", "-o", path), "Exported 2 tasks")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "AI Study Planner - Task List\n\n[ ] Week 1\n    [ ] Algebra\n", string(data))

	_, err = h.run("export", "--format", "docx", "-o", filepath.Join(t.TempDir(), "x"))
	assert.ErrorContains(t, err, "unknown export format")
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	assert.Contains(t, h.mustRun("health"), "Study Planner Backend is Running!")
}

func TestOpenInteractive_SilentLogger(t *testing.T) {
	h := newHarness(t)
	opts := &options{serverURL: h.server, plans: fixedPlan{"Day 1: SQL"}}

	s, err := opts.openInteractive(context.Background())
	require.NoError(t, err)
	defer s.close()
	assert.False(t, s.logger.Core().Enabled(zap.ErrorLevel), "tui logging would draw over the alternate screen")
	assert.Equal(t, h.server, s.cfg.Client.BaseURL)

	s, err = opts.open(context.Background(), noPlanner)
	require.NoError(t, err)
	defer s.close()
	assert.True(t, s.logger.Core().Enabled(zap.ErrorLevel))
}
