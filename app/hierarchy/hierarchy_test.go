package hierarchy

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"studyplan/app/models"
)

func TestIsParent(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"Week 1", true},
		{"week 2: Trees", true},
		{"WEEK3", true},
		{"Month 1 - Foundations", true},
		{"Year", true},
		{"year 2025 plan", true},
		{"Weekly review", true},
		{"Day 1: Algebra", false},
		{"1. Week 1", false},
		{" Week 1", false},
		{"Review last week", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsParent(tt.name))
		})
	}
}

func scenario() []models.Task {
	return []models.Task{
		{ID: 1, Name: "Week 1", Completed: false},
		{ID: 2, Name: "Algebra", Completed: true},
		{ID: 3, Name: "Geometry", Completed: true},
		{ID: 4, Name: "Week 2", Completed: false},
		{ID: 5, Name: "Calculus", Completed: false},
	}
}

func ids(tasks []models.Task) []int64 {
	out := make([]int64, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestGroup_Scenario(t *testing.T) {
	g := Group(scenario())

	assert.Equal(t, []int64{1, 4}, g.Parents)
	got := map[int64][]int64{}
	for pid, group := range g.Groups {
		got[pid] = ids(group)
	}
	want := map[int64][]int64{1: {1, 2, 3}, 4: {4, 5}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("groups mismatch (-want +got):\n%s", diff)
	}
}

func TestGroup_LeadingTasksUnassociated(t *testing.T) {
	tasks := []models.Task{
		{ID: 1, Name: "Set up notes"},
		{ID: 2, Name: "Month 1"},
		{ID: 3, Name: "Read chapter 1"},
	}
	g := Group(tasks)

	assert.Equal(t, []int64{2}, g.Parents)
	assert.Equal(t, []int64{2, 3}, ids(g.Groups[2]))
	_, grouped := g.Groups[1]
	assert.False(t, grouped)
}

func TestGroup_ConsecutiveParentsDoNotNest(t *testing.T) {
	tasks := []models.Task{
		{ID: 1, Name: "Year 1"},
		{ID: 2, Name: "Month 1"},
		{ID: 3, Name: "Week 1"},
		{ID: 4, Name: "Sets"},
	}
	g := Group(tasks)

	assert.Equal(t, []int64{1, 2, 3}, g.Parents)
	assert.Empty(t, g.Children(1))
	assert.Empty(t, g.Children(2))
	assert.Equal(t, []int64{4}, ids(g.Children(3)))
	assert.False(t, g.HasChildren(1))
	assert.True(t, g.HasChildren(3))
}

func TestGroup_Empty(t *testing.T) {
	g := Group(nil)
	assert.Empty(t, g.Parents)
	assert.Empty(t, g.Groups)
	assert.Empty(t, Propagate(g))
}

func TestPropagate_Scenario(t *testing.T) {
	got := Propagate(Group(scenario()))
	want := []Correction{{ID: 1, Completed: true}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("corrections mismatch (-want +got):\n%s", diff)
	}
}

func TestPropagate_ParentEqualsAndOfChildren(t *testing.T) {
	for _, parent := range []bool{false, true} {
		for _, a := range []bool{false, true} {
			for _, b := range []bool{false, true} {
				tasks := []models.Task{
					{ID: 1, Name: "Week 1", Completed: parent},
					{ID: 2, Name: "a", Completed: a},
					{ID: 3, Name: "b", Completed: b},
				}
				view := Apply(tasks, Propagate(Group(tasks)))
				assert.Equal(t, a && b, view[0].Completed, "parent=%v a=%v b=%v", parent, a, b)
			}
		}
	}
}

func TestPropagate_ChildlessParentUntouched(t *testing.T) {
	for _, completed := range []bool{false, true} {
		tasks := []models.Task{
			{ID: 1, Name: "Week 1", Completed: completed},
			{ID: 2, Name: "Week 2", Completed: false},
			{ID: 3, Name: "Trees", Completed: false},
		}
		corrections := Propagate(Group(tasks))
		for _, c := range corrections {
			assert.NotEqual(t, int64(1), c.ID)
		}
		assert.Equal(t, completed, Apply(tasks, corrections)[0].Completed)
	}
}

func TestPropagate_ParentWithoutGroup(t *testing.T) {
	g := Grouping{Parents: []int64{7}, Groups: map[int64][]models.Task{}}
	assert.NotPanics(t, func() {
		assert.Empty(t, Propagate(g))
	})
}

func TestPropagate_UncompletesParent(t *testing.T) {
	tasks := []models.Task{
		{ID: 1, Name: "Week 1", Completed: true},
		{ID: 2, Name: "Algebra", Completed: true},
		{ID: 3, Name: "Geometry", Completed: false},
	}
	assert.Equal(t, []Correction{{ID: 1, Completed: false}}, Propagate(Group(tasks)))
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	tasks := scenario()
	view := Apply(tasks, []Correction{{ID: 1, Completed: true}})

	assert.False(t, tasks[0].Completed)
	assert.True(t, view[0].Completed)
	assert.Equal(t, ids(tasks), ids(view))
}
