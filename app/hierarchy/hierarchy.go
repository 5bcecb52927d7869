// Package hierarchy derives the one-level parent/child structure of a task
// list from task names and propagates completion from children to parents.
//
// A task is a parent when its name starts with "Month", "Week" or "Year"
// (any case), optionally followed by digits. Every other task is a child of
// the nearest preceding parent, or unassociated when no parent precedes it.
package hierarchy

import (
	"regexp"

	"studyplan/app/models"
)

var parentPattern = regexp.MustCompile(`(?i)^(Month|Week|Year)\s*\d*`)

// IsParent reports whether name is a heading-like parent name.
func IsParent(name string) bool {
	return parentPattern.MatchString(name)
}

// Grouping maps each parent to its group. Groups[id][0] is the parent itself.
type Grouping struct {
	Parents []int64
	Groups  map[int64][]models.Task
}

// Children returns the group of parentID without the parent.
func (g Grouping) Children(parentID int64) []models.Task {
	group := g.Groups[parentID]
	if len(group) == 0 {
		return nil
	}
	return group[1:]
}

// HasChildren reports whether parentID has at least one child, which makes
// its completion derived rather than set by hand.
func (g Grouping) HasChildren(parentID int64) bool {
	return len(g.Children(parentID)) > 0
}

// Group scans tasks (already ordered by ascending id) once and groups each
// child under the nearest preceding parent.
func Group(tasks []models.Task) Grouping {
	g := Grouping{Groups: make(map[int64][]models.Task)}

	var current int64
	hasCurrent := false
	for _, task := range tasks {
		if IsParent(task.Name) {
			current = task.ID
			hasCurrent = true
			g.Parents = append(g.Parents, task.ID)
			g.Groups[task.ID] = nil
		}
		if hasCurrent {
			g.Groups[current] = append(g.Groups[current], task)
		}
	}
	return g
}

// Correction is an update the store needs so a parent matches its children.
type Correction struct {
	ID        int64
	Completed bool
}

// Propagate returns one correction per parent whose stored flag differs from
// the AND of its children. Childless parents are never corrected.
func Propagate(g Grouping) []Correction {
	var out []Correction
	for _, pid := range g.Parents {
		children := g.Children(pid)
		if len(children) == 0 {
			continue
		}
		parent := g.Groups[pid][0]

		all := true
		for _, child := range children {
			if !child.Completed {
				all = false
				break
			}
		}
		if parent.Completed != all {
			out = append(out, Correction{ID: pid, Completed: all})
		}
	}
	return out
}

// Apply returns a copy of tasks with corrections applied.
func Apply(tasks []models.Task, corrections []Correction) []models.Task {
	want := make(map[int64]bool, len(corrections))
	for _, c := range corrections {
		want[c.ID] = c.Completed
	}

	out := make([]models.Task, len(tasks))
	for i, task := range tasks {
		if completed, ok := want[task.ID]; ok {
			task.Completed = completed
		}
		out[i] = task
	}
	return out
}
