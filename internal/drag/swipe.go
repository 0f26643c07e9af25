package drag

import (
	"math"
	"time"
)

const (
	// SwipeMaxDuration bounds how long a swipe gesture may take.
	SwipeMaxDuration = 500 * time.Millisecond
	// SwipeMinDistance is the horizontal travel a swipe needs, in px.
	SwipeMinDistance = 50.0
)

// Direction of a horizontal swipe.
type Direction int

const (
	SwipeNone Direction = iota
	SwipeLeft
	SwipeRight
)

func (d Direction) String() string {
	switch d {
	case SwipeLeft:
		return "left"
	case SwipeRight:
		return "right"
	default:
		return "none"
	}
}

// DetectSwipe classifies a fast, mostly horizontal gesture between down
// and up. Slow or mostly vertical gestures are not swipes.
func DetectSwipe(down, up Pointer) Direction {
	if down.ID != up.ID {
		return SwipeNone
	}
	elapsed := up.At.Sub(down.At)
	if elapsed < 0 || elapsed >= SwipeMaxDuration {
		return SwipeNone
	}
	dx := up.X - down.X
	dy := up.Y - down.Y
	if math.Abs(dx) < SwipeMinDistance || math.Abs(dx) <= math.Abs(dy) {
		return SwipeNone
	}
	if dx < 0 {
		return SwipeLeft
	}
	return SwipeRight
}
