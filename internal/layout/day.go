package layout

import (
	"errors"
	"fmt"
	"time"

	"plancal/internal/model"
)

// Mode selects which tasks a day shows and whether they are paired.
type Mode string

const (
	ModePlan   Mode = "plan"
	ModeRecord Mode = "record"
	ModeBoth   Mode = "both"
)

var (
	ErrInvalidMode     = errors.New("layout: mode must be plan, record or both")
	ErrConflictingKind = errors.New("layout: task is flagged both plan and record")
)

// Settings is everything BuildDay needs besides the tasks.
type Settings struct {
	Grid  Grid
	Mode  Mode
	Scope ColumnScope
}

// TaskBox is a positioned task with its rectangle.
type TaskBox struct {
	model.PositionedTask
	Geometry model.Geometry `json:"geometry"`
}

// PairBox is a positioned pair with its rectangle.
type PairBox struct {
	model.PositionedPair
	Geometry model.Geometry `json:"geometry"`
}

// DayLayout is the render-ready result for one day. Exactly one of Tasks
// and Pairs is populated, depending on Mode.
type DayLayout struct {
	Day   time.Time `json:"day"`
	Mode  Mode      `json:"mode"`
	Tasks []TaskBox `json:"tasks,omitempty"`
	Pairs []PairBox `json:"pairs,omitempty"`
}

// Visible returns the tasks a day shows in mode. Plan mode hides records,
// record mode hides plans and every other mode keeps all of them.
func Visible(tasks []model.CalendarTask, mode Mode) []model.CalendarTask {
	out := make([]model.CalendarTask, 0, len(tasks))
	for _, t := range tasks {
		if (mode == ModePlan && t.IsRecord) || (mode == ModeRecord && t.IsPlan) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// BuildDay lays out one day. ModeBoth pairs plans with records before
// column assignment; the other modes lay out the matching tasks directly.
// Bad settings and tasks flagged as both plan and record are rejected
// here so the algorithms below never have to.
func BuildDay(day time.Time, tasks []model.CalendarTask, s Settings) (DayLayout, error) {
	if err := s.Grid.Validate(); err != nil {
		return DayLayout{}, err
	}
	if s.Scope == "" {
		s.Scope = ScopeCluster
	}
	for _, t := range tasks {
		if t.IsPlan && t.IsRecord {
			return DayLayout{}, fmt.Errorf("%w: %s", ErrConflictingKind, t.ID)
		}
	}

	out := DayLayout{Day: StartOfDay(day), Mode: s.Mode}
	dayTasks := FilterDay(tasks, day)

	switch s.Mode {
	case ModeBoth:
		var plans, records []model.CalendarTask
		for _, t := range dayTasks {
			if t.IsRecord {
				records = append(records, t)
			} else {
				plans = append(plans, t)
			}
		}
		pairs := AssignPairColumns(PairPlanAndRecord(plans, records, day), s.Scope)
		out.Pairs = make([]PairBox, 0, len(pairs))
		for _, p := range pairs {
			p.StartMinutes, p.DurationMinutes = clipToDay(p.Pair.Start, p.Pair.End, out.Day)
			out.Pairs = append(out.Pairs, PairBox{PositionedPair: p, Geometry: s.Grid.PairGeometry(p)})
		}
	case ModePlan, ModeRecord:
		positioned := AssignColumnsScoped(Visible(dayTasks, s.Mode), s.Scope)
		out.Tasks = make([]TaskBox, 0, len(positioned))
		for _, p := range positioned {
			p.StartMinutes, p.DurationMinutes = clipToDay(p.Task.Start, p.Task.End, out.Day)
			out.Tasks = append(out.Tasks, TaskBox{PositionedTask: p, Geometry: s.Grid.TaskGeometry(p)})
		}
	default:
		return DayLayout{}, fmt.Errorf("%w: got %q", ErrInvalidMode, s.Mode)
	}

	return out, nil
}

// OnDay reports whether t starts on day or intersects it.
func OnDay(t model.CalendarTask, day time.Time) bool {
	start := StartOfDay(day)
	end := start.AddDate(0, 0, 1)
	if !t.Start.Before(start) && t.Start.Before(end) {
		return true
	}
	return Overlaps(t.Start, t.End, start, end)
}

// FilterDay keeps the tasks that belong on day, preserving order.
func FilterDay(tasks []model.CalendarTask, day time.Time) []model.CalendarTask {
	out := make([]model.CalendarTask, 0, len(tasks))
	for _, t := range tasks {
		if OnDay(t, day) {
			out = append(out, t)
		}
	}
	return out
}

// clipToDay projects [start, end) onto the minutes of dayStart's day.
// Tasks spilling over midnight are cut at the day bounds; degenerate
// intervals keep a zero duration.
func clipToDay(start, end, dayStart time.Time) (startMinutes, durationMinutes int) {
	from := int(start.Sub(dayStart) / time.Minute)
	to := int(end.Sub(dayStart) / time.Minute)
	from = min(max(from, 0), MinutesPerDay)
	to = min(max(to, 0), MinutesPerDay)
	return from, max(to-from, 0)
}
