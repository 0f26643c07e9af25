package layout

import (
	"errors"
	"fmt"
	"math"
	"time"

	"plancal/internal/model"
)

const (
	MinutesPerDay = 24 * 60

	// MinDuration is the shortest interval the grid will create.
	MinDuration = 15 * time.Minute

	DefaultHourHeight     = 60.0
	DefaultGridInterval   = 15
	DefaultMinEventHeight = 20.0
	DefaultDuration       = time.Hour

	baseZIndex = 10
)

var (
	ErrInvalidGridInterval = errors.New("layout: grid interval must be 15, 30 or 60 minutes")
	ErrInvalidHourHeight   = errors.New("layout: hour height must be positive")
)

// Grid holds the coordinate system of the day grid. It is supplied by the
// caller and read-only to the mapper.
type Grid struct {
	// HourHeight is the pixel height of one hour.
	HourHeight float64
	// GridInterval is the snap granularity in minutes (15, 30 or 60).
	GridInterval int
	// MinEventHeight keeps short events visible and clickable.
	MinEventHeight float64
	// DefaultDuration is the provisional length of a drag that has not
	// moved yet.
	DefaultDuration time.Duration
}

// DefaultGrid returns a 60 px/hour grid snapping to 15 minutes.
func DefaultGrid() Grid {
	return Grid{
		HourHeight:      DefaultHourHeight,
		GridInterval:    DefaultGridInterval,
		MinEventHeight:  DefaultMinEventHeight,
		DefaultDuration: DefaultDuration,
	}
}

// Validate checks the grid values a caller controls.
func (g Grid) Validate() error {
	switch g.GridInterval {
	case 15, 30, 60:
	default:
		return fmt.Errorf("%w: got %d", ErrInvalidGridInterval, g.GridInterval)
	}
	if g.HourHeight <= 0 || math.IsNaN(g.HourHeight) || math.IsInf(g.HourHeight, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidHourHeight, g.HourHeight)
	}
	return nil
}

// Rect converts a minute range into top/height pixels. Height never drops
// below MinEventHeight.
func (g Grid) Rect(startMinutes, durationMinutes int) (top, height float64) {
	top = float64(startMinutes) / 60 * g.HourHeight
	height = math.Max(float64(durationMinutes)/60*g.HourHeight, g.MinEventHeight)
	return top, height
}

// TaskGeometry splits the day column evenly between overlapping tasks.
func (g Grid) TaskGeometry(p model.PositionedTask) model.Geometry {
	top, height := g.Rect(p.StartMinutes, p.DurationMinutes)
	total := max(p.TotalColumns, 1)
	width := 100 / float64(total)
	return model.Geometry{
		Top:    top,
		Height: height,
		Left:   float64(p.Column) * width,
		Width:  width,
		ZIndex: baseZIndex + p.Column,
	}
}

// PairGeometry places a pair using CalculateTaskPairLayout.
func (g Grid) PairGeometry(p model.PositionedPair) model.Geometry {
	top, height := g.Rect(p.StartMinutes, p.DurationMinutes)
	left, width := CalculateTaskPairLayout(p.Column, p.TotalColumns)
	return model.Geometry{
		Top:    top,
		Height: height,
		Left:   left,
		Width:  width,
		ZIndex: baseZIndex + p.Column,
	}
}

// MinutesAt converts a vertical offset inside the grid into raw minutes
// of the day.
func (g Grid) MinutesAt(relativeY float64) float64 {
	return relativeY / (24 * g.HourHeight) * MinutesPerDay
}

// Snap rounds minutes to the nearest multiple of GridInterval, ties going
// to the later slot, and clamps the result into the day.
func (g Grid) Snap(minutes float64) int {
	interval := g.GridInterval
	if interval <= 0 {
		interval = DefaultGridInterval
	}
	snapped := int(math.Floor(minutes/float64(interval)+0.5)) * interval
	return min(max(snapped, 0), MinutesPerDay)
}

// Container is the scrollable element the grid is drawn in, measured in
// the same client coordinate space as pointer events.
type Container interface {
	Top() float64
	ScrollTop() float64
}

// TimeAt maps a pointer's client Y coordinate to a snapped time on day.
// Without a container there is nothing to measure against and day is
// returned as is.
func (g Grid) TimeAt(day time.Time, clientY float64, c Container) time.Time {
	if c == nil {
		return day
	}
	relativeY := clientY - c.Top() + c.ScrollTop()
	minutes := g.Snap(g.MinutesAt(relativeY))
	return time.Date(day.Year(), day.Month(), day.Day(), 0, minutes, 0, 0, day.Location())
}

// StartAt is TimeAt for the start of a new interval. The result is held
// one grid interval before the next midnight so the interval stays on day.
func (g Grid) StartAt(day time.Time, clientY float64, c Container) time.Time {
	interval := g.GridInterval
	if interval <= 0 {
		interval = DefaultGridInterval
	}
	start := g.TimeAt(day, clientY, c)
	if latest := EndOfDay(day).Add(-time.Duration(interval) * time.Minute); start.After(latest) {
		return latest
	}
	return start
}

// StartOfDay returns midnight of t in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the midnight that ends t's day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1)
}
