package drag

import (
	"time"

	"plancal/internal/layout"
	"plancal/internal/model"
)

// Occupancy answers whether a point of the grid is covered by a task.
type Occupancy interface {
	TaskAt(column int, at time.Time) (taskID string, ok bool)
}

// Index is an Occupancy built from the tasks shown in each day column.
type Index struct {
	columns [][]model.CalendarTask
}

// NewIndex assigns every task to the day columns it appears on.
func NewIndex(days []time.Time, tasks []model.CalendarTask) *Index {
	idx := &Index{columns: make([][]model.CalendarTask, len(days))}
	for c, day := range days {
		idx.columns[c] = layout.FilterDay(tasks, day)
	}
	return idx
}

// TaskAt returns the first task in column whose [start, end) covers at.
func (i *Index) TaskAt(column int, at time.Time) (string, bool) {
	if i == nil || column < 0 || column >= len(i.columns) {
		return "", false
	}
	for _, t := range i.columns[column] {
		if !at.Before(t.Start) && at.Before(t.End) {
			return t.ID, true
		}
	}
	return "", false
}
