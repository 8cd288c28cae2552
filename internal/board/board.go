// Package board holds the client copy of an expedition board and applies
// task moves optimistically, reconciling them with the server.
package board

import (
	"sort"
	"strings"

	"spacequest/internal/service"
)

// Board is a client-held copy of a project's columns and tasks.
// Column membership is always derived by filtering on Task.Status.
type Board struct {
	ProjectID string
	Name      string
	Columns   []service.Column
	Tasks     []service.Task
}

// FromProject builds a board from a fetched project, columns sorted by Order.
func FromProject(p service.Project) *Board {
	cols := make([]service.Column, len(p.Columns))
	copy(cols, p.Columns)
	sort.SliceStable(cols, func(i, j int) bool { return cols[i].Order < cols[j].Order })

	tasks := make([]service.Task, len(p.Tasks))
	copy(tasks, p.Tasks)

	return &Board{
		ProjectID: p.ID,
		Name:      p.Name,
		Columns:   cols,
		Tasks:     tasks,
	}
}

// Clone returns a deep-enough copy: slices are copied, task values too.
func (b *Board) Clone() *Board {
	c := &Board{ProjectID: b.ProjectID, Name: b.Name}
	c.Columns = append([]service.Column(nil), b.Columns...)
	c.Tasks = append([]service.Task(nil), b.Tasks...)
	return c
}

// Column returns the column with the given ID.
func (b *Board) Column(id string) (service.Column, bool) {
	for _, c := range b.Columns {
		if c.ID == id {
			return c, true
		}
	}
	return service.Column{}, false
}

// Task returns the task with the given ID.
func (b *Board) Task(id string) (service.Task, bool) {
	if i := b.taskIndex(id); i >= 0 {
		return b.Tasks[i], true
	}
	return service.Task{}, false
}

// TasksIn returns the tasks whose status equals columnID, in board order.
func (b *Board) TasksIn(columnID string) []service.Task {
	var out []service.Task
	for _, t := range b.Tasks {
		if t.Status == columnID {
			out = append(out, t)
		}
	}
	return out
}

// Counts returns the task count of every column, keyed by column ID.
func (b *Board) Counts() map[string]int {
	counts := make(map[string]int, len(b.Columns))
	for _, c := range b.Columns {
		counts[c.ID] = 0
	}
	for _, t := range b.Tasks {
		if _, ok := counts[t.Status]; ok {
			counts[t.Status]++
		}
	}
	return counts
}

// Orphans returns tasks whose status matches no column; they render nowhere.
func (b *Board) Orphans() []service.Task {
	var out []service.Task
	for _, t := range b.Tasks {
		if _, ok := b.Column(t.Status); !ok {
			out = append(out, t)
		}
	}
	return out
}

// ResolveColumn finds a column by ID, or failing that by title
// (case-insensitive, trimmed).
func (b *Board) ResolveColumn(ref string) (service.Column, bool) {
	ref = strings.TrimSpace(ref)
	if c, ok := b.Column(ref); ok {
		return c, true
	}
	for _, c := range b.Columns {
		if strings.EqualFold(strings.TrimSpace(c.Title), ref) {
			return c, true
		}
	}
	return service.Column{}, false
}

// ColumnIndex returns the position of a column in display order, or -1.
func (b *Board) ColumnIndex(id string) int {
	for i, c := range b.Columns {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (b *Board) taskIndex(id string) int {
	for i, t := range b.Tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// setStatus changes one task's status. Returns false if the task is unknown.
func (b *Board) setStatus(taskID, status string) bool {
	i := b.taskIndex(taskID)
	if i < 0 {
		return false
	}
	b.Tasks[i].Status = status
	return true
}

// statuses maps every task ID to its current status.
func (b *Board) statuses() map[string]string {
	out := make(map[string]string, len(b.Tasks))
	for _, t := range b.Tasks {
		out[t.ID] = t.Status
	}
	return out
}
