package layout

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plancal/internal/model"
)

type stubContainer struct {
	top, scroll float64
}

func (c stubContainer) Top() float64       { return c.top }
func (c stubContainer) ScrollTop() float64 { return c.scroll }

func TestGrid_Validate(t *testing.T) {
	require.NoError(t, DefaultGrid().Validate())

	g := DefaultGrid()
	g.GridInterval = 20
	assert.ErrorIs(t, g.Validate(), ErrInvalidGridInterval)

	g = DefaultGrid()
	g.HourHeight = 0
	assert.ErrorIs(t, g.Validate(), ErrInvalidHourHeight)

	for _, interval := range []int{15, 30, 60} {
		g = DefaultGrid()
		g.GridInterval = interval
		assert.NoError(t, g.Validate())
	}
}

func TestGrid_Rect(t *testing.T) {
	g := DefaultGrid()

	top, height := g.Rect(540, 90)
	assert.Equal(t, 540.0, top)
	assert.Equal(t, 90.0, height)

	// Short events keep the minimum height.
	top, height = g.Rect(600, 5)
	assert.Equal(t, 600.0, top)
	assert.Equal(t, DefaultMinEventHeight, height)

	g.HourHeight = 120
	top, height = g.Rect(30, 30)
	assert.Equal(t, 60.0, top)
	assert.Equal(t, 60.0, height)
}

func TestGrid_Snap(t *testing.T) {
	tests := []struct {
		interval int
		minutes  float64
		want     int
	}{
		{15, 547, 540},
		{15, 547.5, 555},
		{15, 552, 555},
		{15, 0, 0},
		{30, 44, 30},
		{30, 45, 60},
		{60, 89, 60},
		{60, 90, 120},
		{15, -10, 0},
		{15, 1450, 1440},
		{60, 1439, 1440},
	}
	for _, tt := range tests {
		g := DefaultGrid()
		g.GridInterval = tt.interval
		assert.Equal(t, tt.want, g.Snap(tt.minutes), "snap(%v) on %d-minute grid", tt.minutes, tt.interval)
	}
}

func TestGrid_SnapIsMultipleOfInterval(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for _, interval := range []int{15, 30, 60} {
		g := DefaultGrid()
		g.GridInterval = interval
		for i := 0; i < 500; i++ {
			m := rnd.Float64()*1600 - 80
			got := g.Snap(m)
			assert.Zero(t, got%interval)
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, MinutesPerDay)
		}
	}
}

func TestGrid_TimeAt(t *testing.T) {
	g := DefaultGrid()
	c := stubContainer{top: 100, scroll: 0}

	assert.Equal(t, at(9, 0), g.TimeAt(testDay, 100+547, c))
	assert.Equal(t, at(9, 15), g.TimeAt(testDay, 100+547.5, c))

	// Scrolled by two hours.
	scrolled := stubContainer{top: 100, scroll: 120}
	assert.Equal(t, at(11, 0), g.TimeAt(testDay, 100+540, scrolled))

	// Above the grid clamps to midnight; below clamps to the next midnight.
	assert.Equal(t, testDay, g.TimeAt(testDay, 0, c))
	assert.Equal(t, testDay.AddDate(0, 0, 1), g.TimeAt(testDay, 100+24*60+200, c))
}

func TestGrid_TimeAtWithoutContainer(t *testing.T) {
	g := DefaultGrid()
	day := time.Date(2025, 3, 10, 13, 37, 0, 0, time.UTC)

	assert.Equal(t, day, g.TimeAt(day, 500, nil))
}

func TestGrid_StartAt(t *testing.T) {
	g := DefaultGrid()
	c := stubContainer{top: 100}

	assert.Equal(t, at(9, 0), g.StartAt(testDay, 100+547, c))
	assert.Equal(t, at(23, 30), g.StartAt(testDay, 100+23*60+30, c))
	assert.Equal(t, at(23, 45), g.StartAt(testDay, 100+23*60+53, c))
	assert.Equal(t, at(23, 45), g.StartAt(testDay, 100+24*60+200, c))

	g.GridInterval = 60
	assert.Equal(t, at(23, 0), g.StartAt(testDay, 100+23*60+53, c))

	assert.Equal(t, testDay, g.StartAt(testDay, 500, nil))
}

func TestEndOfDay(t *testing.T) {
	assert.Equal(t, testDay.AddDate(0, 0, 1), EndOfDay(at(17, 30)))
}

func TestGrid_TaskGeometry(t *testing.T) {
	g := DefaultGrid()
	geo := g.TaskGeometry(model.PositionedTask{Column: 1, TotalColumns: 3, StartMinutes: 540, DurationMinutes: 60})

	assert.Equal(t, 540.0, geo.Top)
	assert.Equal(t, 60.0, geo.Height)
	assert.InDelta(t, 100.0/3, geo.Left, 1e-9)
	assert.InDelta(t, 100.0/3, geo.Width, 1e-9)
	assert.Equal(t, 11, geo.ZIndex)
}

func TestGrid_PairGeometry(t *testing.T) {
	g := DefaultGrid()
	geo := g.PairGeometry(model.PositionedPair{Column: 1, TotalColumns: 2, StartMinutes: 60, DurationMinutes: 10})

	assert.Equal(t, 60.0, geo.Top)
	assert.Equal(t, DefaultMinEventHeight, geo.Height)
	assert.InDelta(t, 50.5, geo.Left, 1e-9)
	assert.InDelta(t, 49.5, geo.Width, 1e-9)
	assert.Equal(t, 11, geo.ZIndex)
}

func TestStartOfDay(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)
	in := time.Date(2025, 3, 10, 23, 59, 59, 0, seoul)

	got := StartOfDay(in)

	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, seoul), got)
}
