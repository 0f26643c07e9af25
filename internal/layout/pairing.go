package layout

import (
	"sort"
	"strings"
	"time"

	"plancal/internal/model"
)

const (
	planOnlyPrefix   = "plan-only-"
	recordOnlyPrefix = "record-only-"

	// PairGutter is the horizontal gap between adjacent pair columns, in
	// percent of the day column width.
	PairGutter = 1.0
)

// pairIDEscaper escapes the separator so a pair id names exactly one
// plan/record combination.
var pairIDEscaper = strings.NewReplacer(`\`, `\\`, "+", `\+`)

// PairPlanAndRecord matches the day's plans with the day's records.
//
// Matching is greedy and first-match-wins in input order:
//  1. same title, or ids linked by the plan/record naming convention
//  2. intersecting intervals
//  3. leftover plans become plan-only pairs
//  4. leftover records become record-only pairs
//
// The result is sorted by pair start time.
func PairPlanAndRecord(plans, records []model.CalendarTask, day time.Time) []model.TaskPair {
	plans = FilterDay(plans, day)
	records = FilterDay(records, day)

	planUsed := make([]bool, len(plans))
	recordUsed := make([]bool, len(records))
	pairs := make([]model.TaskPair, 0, len(plans)+len(records))

	match := func(same func(p, r model.CalendarTask) bool) {
		for i, p := range plans {
			if planUsed[i] {
				continue
			}
			for j, r := range records {
				if recordUsed[j] || !same(p, r) {
					continue
				}
				planUsed[i] = true
				recordUsed[j] = true
				pairs = append(pairs, newPair(&plans[i], &records[j]))
				break
			}
		}
	}

	match(sameActivity)
	match(func(p, r model.CalendarTask) bool {
		return Overlaps(p.Start, p.End, r.Start, r.End)
	})

	for i := range plans {
		if !planUsed[i] {
			pairs = append(pairs, newPair(&plans[i], nil))
		}
	}
	for j := range records {
		if !recordUsed[j] {
			pairs = append(pairs, newPair(nil, &records[j]))
		}
	}

	sort.SliceStable(pairs, func(a, b int) bool {
		return pairs[a].Start.Before(pairs[b].Start)
	})
	return pairs
}

// sameActivity reports whether a plan and a record describe the same
// activity by title or by linked ids: "plan-42" pairs with "record-42" and
// with any record id embedding "plan-42".
func sameActivity(p, r model.CalendarTask) bool {
	if p.Title != "" && p.Title == r.Title {
		return true
	}
	if p.ID == "" || r.ID == "" || p.ID == r.ID || !strings.Contains(p.ID, "plan") {
		return false
	}
	return strings.Replace(p.ID, "plan", "record", 1) == r.ID || strings.Contains(r.ID, p.ID)
}

func newPair(plan, record *model.CalendarTask) model.TaskPair {
	switch {
	case plan != nil && record != nil:
		p, r := *plan, *record
		start, end := p.Start, p.End
		if r.Start.Before(start) {
			start = r.Start
		}
		if r.End.After(end) {
			end = r.End
		}
		return model.TaskPair{
			ID:         pairIDEscaper.Replace(p.ID) + "+" + pairIDEscaper.Replace(r.ID),
			PlanTask:   &p,
			RecordTask: &r,
			Start:      start,
			End:        end,
			HasOverlap: Overlaps(p.Start, p.End, r.Start, r.End),
		}
	case plan != nil:
		p := *plan
		return model.TaskPair{ID: planOnlyPrefix + pairIDEscaper.Replace(p.ID), PlanTask: &p, Start: p.Start, End: p.End}
	default:
		r := *record
		return model.TaskPair{ID: recordOnlyPrefix + pairIDEscaper.Replace(r.ID), RecordTask: &r, Start: r.Start, End: r.End}
	}
}

// AssignPairColumns runs the column assignment over pairs, treating each
// pair envelope as one interval.
func AssignPairColumns(pairs []model.TaskPair, scope ColumnScope) []model.PositionedPair {
	spans := make([]span, len(pairs))
	for i, p := range pairs {
		spans[i] = span{start: p.Start, end: p.End}
	}

	order, placements := assign(spans, scope)

	out := make([]model.PositionedPair, 0, len(pairs))
	for _, idx := range order {
		p := pairs[idx]
		out = append(out, model.PositionedPair{
			Pair:            p,
			Column:          placements[idx].column,
			TotalColumns:    placements[idx].total,
			StartMinutes:    minuteOfDay(p.Start),
			DurationMinutes: int(p.End.Sub(p.Start) / time.Minute),
		})
	}
	return out
}

// CalculateTaskPairLayout converts a column placement into left/width
// percentages with PairGutter between neighbouring columns.
func CalculateTaskPairLayout(column, totalColumns int) (left, width float64) {
	if totalColumns <= 1 {
		return 0, 100
	}
	n := float64(totalColumns)
	width = (100 - PairGutter*(n-1)) / n
	left = float64(column) * (width + PairGutter)
	return left, width
}
