// Package layout turns a day's tasks into side-by-side columns and pixel
// geometry for the calendar time grid. Everything here is a pure function
// of its input; nothing is cached or mutated.
package layout

import (
	"sort"
	"time"

	"plancal/internal/model"
)

// ColumnScope selects how totalColumns is reported.
type ColumnScope string

const (
	// ScopeCluster reports the column count of the connected overlap
	// component a task belongs to.
	ScopeCluster ColumnScope = "cluster"
	// ScopeDay reports the maximum column count of the whole day for
	// every task.
	ScopeDay ColumnScope = "day"
)

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
// Touching intervals do not overlap. Degenerate intervals are compared
// using their raw bounds.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aEnd.After(bStart) && aStart.Before(bEnd)
}

type span struct {
	start time.Time
	end   time.Time
}

type placement struct {
	column int
	total  int
}

// assign is the greedy interval colouring shared by tasks and pairs.
// It returns the processing order (a stable sort by start) and a
// placement for every input index.
func assign(spans []span, scope ColumnScope) ([]int, []placement) {
	order := make([]int, len(spans))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return spans[order[a]].start.Before(spans[order[b]].start)
	})

	placements := make([]placement, len(spans))
	var columns [][]int

	for _, idx := range order {
		s := spans[idx]
		col := -1
		for c, members := range columns {
			free := true
			for _, m := range members {
				if Overlaps(s.start, s.end, spans[m].start, spans[m].end) {
					free = false
					break
				}
			}
			if free {
				col = c
				break
			}
		}
		if col == -1 {
			columns = append(columns, nil)
			col = len(columns) - 1
		}
		columns[col] = append(columns[col], idx)
		placements[idx].column = col
	}

	if scope == ScopeDay {
		for i := range placements {
			placements[i].total = len(columns)
		}
		return order, placements
	}

	// Union overlapping spans into connected components, then give each
	// member the highest column of its component.
	parent := make([]int, len(spans))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	for i := range spans {
		for j := i + 1; j < len(spans); j++ {
			if Overlaps(spans[i].start, spans[i].end, spans[j].start, spans[j].end) {
				parent[find(i)] = find(j)
			}
		}
	}

	width := make(map[int]int)
	for i, p := range placements {
		root := find(i)
		if p.column+1 > width[root] {
			width[root] = p.column + 1
		}
	}
	for i := range placements {
		placements[i].total = width[find(i)]
	}

	return order, placements
}

// AssignColumns places tasks into columns so that no two overlapping tasks
// share one. Output is ordered by start time, ties kept in input order.
// totalColumns is reported per overlap cluster.
func AssignColumns(tasks []model.CalendarTask) []model.PositionedTask {
	return AssignColumnsScoped(tasks, ScopeCluster)
}

// AssignColumnsScoped is AssignColumns with an explicit totalColumns scope.
func AssignColumnsScoped(tasks []model.CalendarTask, scope ColumnScope) []model.PositionedTask {
	spans := make([]span, len(tasks))
	for i, t := range tasks {
		spans[i] = span{start: t.Start, end: t.End}
	}

	order, placements := assign(spans, scope)

	out := make([]model.PositionedTask, 0, len(tasks))
	for _, idx := range order {
		t := tasks[idx]
		out = append(out, model.PositionedTask{
			Task:            t,
			Column:          placements[idx].column,
			TotalColumns:    placements[idx].total,
			StartMinutes:    minuteOfDay(t.Start),
			DurationMinutes: int(t.End.Sub(t.Start) / time.Minute),
		})
	}
	return out
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
