// Package drag turns pointer input on the day grid into new task ranges.
//
// Mouse, pen and touch all feed the same Pointer events into one Machine:
//
//	idle --down on free space--> dragging --move--> dragging
//	dragging --up--> idle (commit if the range is at least 15 minutes)
package drag

import (
	"fmt"
	"time"

	"plancal/internal/layout"
	"plancal/internal/model"
)

// Phase is the stage of a pointer gesture.
type Phase int

const (
	PhaseDown Phase = iota
	PhaseMove
	PhaseUp
)

func (p Phase) String() string {
	switch p {
	case PhaseDown:
		return "down"
	case PhaseMove:
		return "move"
	case PhaseUp:
		return "up"
	default:
		return "unknown"
	}
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (p *Phase) UnmarshalText(b []byte) error {
	switch string(b) {
	case "down":
		*p = PhaseDown
	case "move":
		*p = PhaseMove
	case "up":
		*p = PhaseUp
	default:
		return fmt.Errorf("drag: unknown pointer phase %q", string(b))
	}
	return nil
}

// Pointer is one input event in client coordinates.
type Pointer struct {
	ID    int       `json:"id"`
	X     float64   `json:"x"`
	Y     float64   `json:"y"`
	Phase Phase     `json:"phase"`
	At    time.Time `json:"at"`
}

// State of the machine.
type State int

const (
	StateIdle State = iota
	StateDragging
)

// Surface describes the grid the pointer moves over.
type Surface struct {
	Grid layout.Grid
	// Days holds the date shown in each day column, left to right.
	Days []time.Time
	// Left is the client X of the first day column.
	Left float64
	// ColumnWidth is the pixel width of one day column.
	ColumnWidth float64
	// Container is the scrollable grid element. Nil disables mapping.
	Container layout.Container
	// Occupied reports existing tasks; a drag never starts on one.
	Occupied Occupancy
}

// column maps a client X to a day column, or -1 outside the grid.
func (s Surface) column(x float64) int {
	if s.ColumnWidth <= 0 || len(s.Days) == 0 {
		return -1
	}
	if x < s.Left {
		return -1
	}
	c := int((x - s.Left) / s.ColumnWidth)
	if c >= len(s.Days) {
		return -1
	}
	return c
}

// Machine is the drag state machine for one grid. It is not safe for
// concurrent use; a grid has a single interaction session.
type Machine struct {
	surface  Surface
	onCreate func(model.CreateRequest)

	state     State
	pointerID int
	column    int
	start     time.Time
	end       time.Time
}

// New returns an idle machine that reports committed drags to onCreate.
func New(surface Surface, onCreate func(model.CreateRequest)) *Machine {
	if surface.Grid.DefaultDuration <= 0 {
		surface.Grid.DefaultDuration = layout.DefaultDuration
	}
	return &Machine{surface: surface, onCreate: onCreate}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Range returns the candidate range of an in-progress drag.
func (m *Machine) Range() (model.CreateRequest, bool) {
	if m.state != StateDragging {
		return model.CreateRequest{}, false
	}
	return model.CreateRequest{Start: m.start, End: m.end, Column: m.column}, true
}

// Handle advances the machine by one pointer event. It reports whether a
// task creation was committed.
func (m *Machine) Handle(p Pointer) bool {
	switch p.Phase {
	case PhaseDown:
		if m.state == StateDragging && p.ID != m.pointerID {
			return false
		}
		m.down(p)
	case PhaseMove:
		if m.state != StateDragging || p.ID != m.pointerID {
			return false
		}
		m.move(p)
	case PhaseUp:
		if m.state != StateDragging || p.ID != m.pointerID {
			return false
		}
		return m.up()
	}
	return false
}

func (m *Machine) down(p Pointer) {
	m.state = StateIdle

	col := m.surface.column(p.X)
	if col < 0 {
		return
	}
	day := m.surface.Days[col]

	if occ := m.surface.Occupied; occ != nil && m.surface.Container != nil {
		if _, taken := occ.TaskAt(col, m.rawTime(day, p.Y)); taken {
			return
		}
	}

	m.state = StateDragging
	m.pointerID = p.ID
	m.column = col
	m.start = m.surface.Grid.StartAt(day, p.Y, m.surface.Container)
	m.end = m.start.Add(m.surface.Grid.DefaultDuration)
	if midnight := layout.EndOfDay(day); m.end.After(midnight) {
		m.end = midnight
	}
}

func (m *Machine) move(p Pointer) {
	day := m.surface.Days[m.column]
	end := m.surface.Grid.TimeAt(day, p.Y, m.surface.Container)
	if floor := m.start.Add(layout.MinDuration); end.Before(floor) {
		end = floor
	}
	if midnight := layout.EndOfDay(day); end.After(midnight) {
		end = midnight
	}
	m.end = end
}

func (m *Machine) up() bool {
	req := model.CreateRequest{Start: m.start, End: m.end, Column: m.column}
	m.state = StateIdle

	if req.End.Sub(req.Start) < layout.MinDuration {
		return false
	}
	if m.onCreate != nil {
		m.onCreate(req)
	}
	return true
}

// rawTime is the unsnapped time under the pointer, used for hit testing.
func (m *Machine) rawTime(day time.Time, clientY float64) time.Time {
	c := m.surface.Container
	minutes := m.surface.Grid.MinutesAt(clientY - c.Top() + c.ScrollTop())
	return layout.StartOfDay(day).Add(time.Duration(minutes * float64(time.Minute)))
}
