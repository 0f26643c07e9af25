package model

import "time"

// Status is the lifecycle state of a task. Display only.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusCancelled  Status = "cancelled"
)

// Priority is a display-only urgency hint.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Kind classifies a task as a plan, a record, or a legacy plain task.
type Kind string

const (
	KindPlain  Kind = ""
	KindPlan   Kind = "plan"
	KindRecord Kind = "record"
)

// CalendarTask is one plan or record occurrence as supplied by the task
// store. The layout engine treats it as read-only.
type CalendarTask struct {
	ID    string `yaml:"id" json:"id"`
	Title string `yaml:"title" json:"title"`

	// Start / End bound the task. Well-formed input has End after Start;
	// anything else is tolerated as a degenerate interval.
	Start time.Time `yaml:"start" json:"start"`
	End   time.Time `yaml:"end" json:"end"`

	Status   Status   `yaml:"status,omitempty" json:"status,omitempty"`
	Priority Priority `yaml:"priority,omitempty" json:"priority,omitempty"`

	IsPlan   bool `yaml:"is_plan,omitempty" json:"is_plan,omitempty"`
	IsRecord bool `yaml:"is_record,omitempty" json:"is_record,omitempty"`

	// Record-only metrics.
	Satisfaction *int `yaml:"satisfaction,omitempty" json:"satisfaction,omitempty"`
	FocusLevel   *int `yaml:"focus_level,omitempty" json:"focus_level,omitempty"`
	EnergyLevel  *int `yaml:"energy_level,omitempty" json:"energy_level,omitempty"`

	// SourceID names the ICS source a task was imported from, empty for
	// tasks created locally.
	SourceID string `yaml:"source_id,omitempty" json:"source_id,omitempty"`
}

// Kind reports which side of the plan/record split the task belongs to.
func (t CalendarTask) Kind() Kind {
	switch {
	case t.IsPlan:
		return KindPlan
	case t.IsRecord:
		return KindRecord
	default:
		return KindPlain
	}
}

// Duration returns End - Start, which may be zero or negative.
func (t CalendarTask) Duration() time.Duration {
	return t.End.Sub(t.Start)
}

// PositionedTask is a task placed into a column of the day grid.
type PositionedTask struct {
	Task            CalendarTask `json:"task"`
	Column          int          `json:"column"`
	TotalColumns    int          `json:"total_columns"`
	StartMinutes    int          `json:"start_minutes"`
	DurationMinutes int          `json:"duration_minutes"`
}

// TaskPair joins the plan and the record of the same activity. At least one
// side is always set.
type TaskPair struct {
	ID         string        `json:"id"`
	PlanTask   *CalendarTask `json:"plan_task,omitempty"`
	RecordTask *CalendarTask `json:"record_task,omitempty"`

	// Start / End are the envelope of the present sides.
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	// HasOverlap is set only when both sides exist and intersect.
	HasOverlap bool `json:"has_overlap"`
}

// PositionedPair is a TaskPair placed into a column of the day grid.
type PositionedPair struct {
	Pair            TaskPair `json:"pair"`
	Column          int      `json:"column"`
	TotalColumns    int      `json:"total_columns"`
	StartMinutes    int      `json:"start_minutes"`
	DurationMinutes int      `json:"duration_minutes"`
}

// Geometry is the renderable rectangle of a positioned item. Top and
// Height are pixels, Left and Width are percentages of the day column.
type Geometry struct {
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	ZIndex int     `json:"z_index"`
}

// CreateRequest is emitted when a drag on empty grid space is committed.
type CreateRequest struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Column int       `json:"column"`
}
