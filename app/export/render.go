// Package export renders a task list for the terminal and exports it as a
// paginated text document or a PDF. Output depends only on the tasks and the
// options, so the same list always produces the same bytes.
package export

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"

	"studyplan/app/hierarchy"
	"studyplan/app/models"
)

const childIndent = "    "

// Terminal styles for rendered task lines.
var (
	ParentStyle = lipgloss.NewStyle().Bold(true)
	ChildStyle  = lipgloss.NewStyle().PaddingLeft(2)
	DoneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Line is one rendered task.
type Line struct {
	Task   models.Task
	Parent bool
}

// Lines classifies each task once, preserving order.
func Lines(tasks []models.Task) []Line {
	out := make([]Line, len(tasks))
	for i, task := range tasks {
		out[i] = Line{Task: task, Parent: hierarchy.IsParent(task.Name)}
	}
	return out
}

// Glyph is the terminal status marker for a task.
func Glyph(completed bool) string {
	if completed {
		return "✅"
	}
	return "🔲"
}

// Checkbox is the plain-text status marker used in documents.
func Checkbox(completed bool) string {
	if completed {
		return "[x]"
	}
	return "[ ]"
}

// RenderLine styles one line for the terminal: parents bold, children indented.
func RenderLine(l Line) string {
	text := Glyph(l.Task.Completed) + " " + l.Task.Name
	if l.Parent {
		return ParentStyle.Render(text)
	}
	if l.Task.Completed {
		return ChildStyle.Inherit(DoneStyle).Render(text)
	}
	return ChildStyle.Render(text)
}

// Render styles the whole list, one task per line.
func Render(tasks []models.Task) string {
	if len(tasks) == 0 {
		return "No tasks yet. Generate a plan or add manually!"
	}
	var b strings.Builder
	for i, l := range Lines(tasks) {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(RenderLine(l))
	}
	return b.String()
}

// DocumentLines returns the unstyled lines of an export body: a checkbox per
// task, children indented, each wrapped to width columns. Whitespace runs in
// a name, newlines included, fold to one space. Continuation lines keep the
// task's indent.
func DocumentLines(tasks []models.Task, width int) []string {
	var out []string
	for _, l := range Lines(tasks) {
		indent := ""
		if !l.Parent {
			indent = childIndent
		}
		text := Checkbox(l.Task.Completed) + " " + strings.Join(strings.Fields(l.Task.Name), " ")
		for _, part := range Wrap(text, width-len(indent)) {
			out = append(out, indent+part)
		}
	}
	return out
}

// Wrap breaks s at word boundaries to at most width columns, splitting words
// longer than width.
func Wrap(s string, width int) []string {
	if width < 1 {
		width = 1
	}
	wrapped := wrap.String(wordwrap.String(s, width), width)
	lines := strings.Split(wrapped, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return lines
}

// Paginate splits lines into pages of at most perPage lines. The first page
// holds firstPage lines, leaving room for a title.
func Paginate(lines []string, firstPage, perPage int) [][]string {
	if perPage < 1 {
		perPage = 1
	}
	if firstPage < 0 {
		firstPage = 0
	}

	var pages [][]string
	first := min(firstPage, len(lines))
	pages = append(pages, lines[:first])
	for rest := lines[first:]; len(rest) > 0; {
		n := min(perPage, len(rest))
		pages = append(pages, rest[:n])
		rest = rest[n:]
	}
	return pages
}
