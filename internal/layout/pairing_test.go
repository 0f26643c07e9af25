package layout

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plancal/internal/model"
)

func plan(id, title string, sh, sm, eh, em int) model.CalendarTask {
	t := task(id, sh, sm, eh, em)
	t.Title = title
	t.IsPlan = true
	return t
}

func record(id, title string, sh, sm, eh, em int) model.CalendarTask {
	t := task(id, sh, sm, eh, em)
	t.Title = title
	t.IsRecord = true
	return t
}

func TestPairPlanAndRecord_MatchingTitles(t *testing.T) {
	pairs := PairPlanAndRecord(
		[]model.CalendarTask{plan("p1", "Team Sync", 9, 0, 9, 30)},
		[]model.CalendarTask{record("r1", "Team Sync", 9, 15, 9, 45)},
		testDay,
	)

	require.Len(t, pairs, 1)
	p := pairs[0]
	require.NotNil(t, p.PlanTask)
	require.NotNil(t, p.RecordTask)
	assert.Equal(t, "p1", p.PlanTask.ID)
	assert.Equal(t, "r1", p.RecordTask.ID)
	assert.Equal(t, "p1+r1", p.ID)
	assert.Equal(t, at(9, 0), p.Start)
	assert.Equal(t, at(9, 45), p.End)
	assert.True(t, p.HasOverlap)
}

func TestPairPlanAndRecord_TitleMatchWithoutOverlap(t *testing.T) {
	pairs := PairPlanAndRecord(
		[]model.CalendarTask{plan("p1", "Gym", 7, 0, 8, 0)},
		[]model.CalendarTask{record("r1", "Gym", 18, 0, 19, 0)},
		testDay,
	)

	require.Len(t, pairs, 1)
	assert.False(t, pairs[0].HasOverlap)
	assert.Equal(t, at(7, 0), pairs[0].Start)
	assert.Equal(t, at(19, 0), pairs[0].End)
}

func TestPairPlanAndRecord_LinkedIDs(t *testing.T) {
	pairs := PairPlanAndRecord(
		[]model.CalendarTask{plan("plan-42", "Write report", 9, 0, 10, 0)},
		[]model.CalendarTask{
			record("record-7", "Something else", 13, 0, 14, 0),
			record("record-42", "Report writing", 15, 0, 16, 0),
		},
		testDay,
	)

	require.Len(t, pairs, 2)
	assert.Equal(t, "plan-42+record-42", pairs[0].ID)
	assert.Equal(t, "record-only-record-7", pairs[1].ID)
}

func TestPairPlanAndRecord_EmbeddedPlanID(t *testing.T) {
	assert.True(t, sameActivity(
		model.CalendarTask{ID: "plan-9", Title: "a"},
		model.CalendarTask{ID: "rec-of-plan-9", Title: "b"},
	))
	assert.False(t, sameActivity(
		model.CalendarTask{ID: "9", Title: "a"},
		model.CalendarTask{ID: "19", Title: "b"},
	))
	assert.False(t, sameActivity(
		model.CalendarTask{ID: "p", Title: ""},
		model.CalendarTask{ID: "r", Title: ""},
	))
}

func TestPairPlanAndRecord_IdentityBeforeOverlap(t *testing.T) {
	pairs := PairPlanAndRecord(
		[]model.CalendarTask{
			plan("p-write", "Write", 9, 0, 10, 0),
			plan("p-read", "Read", 9, 0, 10, 0),
		},
		[]model.CalendarTask{record("r-read", "Read", 9, 0, 10, 0)},
		testDay,
	)

	require.Len(t, pairs, 2)
	ids := []string{pairs[0].ID, pairs[1].ID}
	assert.Contains(t, ids, "p-read+r-read")
	assert.Contains(t, ids, "plan-only-p-write")
}

func TestPairPlanAndRecord_OverlapFirstMatchWins(t *testing.T) {
	pairs := PairPlanAndRecord(
		[]model.CalendarTask{
			plan("p1", "A", 9, 0, 10, 0),
			plan("p2", "B", 9, 0, 10, 0),
		},
		[]model.CalendarTask{record("r1", "C", 9, 30, 10, 30)},
		testDay,
	)

	require.Len(t, pairs, 2)
	assert.Equal(t, "p1+r1", pairs[0].ID)
	assert.Equal(t, "plan-only-p2", pairs[1].ID)
}

func TestPairPlanAndRecord_ResidueSortedByStart(t *testing.T) {
	pairs := PairPlanAndRecord(
		[]model.CalendarTask{plan("p1", "Late plan", 15, 0, 16, 0)},
		[]model.CalendarTask{record("r1", "Early record", 8, 0, 9, 0)},
		testDay,
	)

	require.Len(t, pairs, 2)
	assert.Equal(t, "record-only-r1", pairs[0].ID)
	assert.Nil(t, pairs[0].PlanTask)
	assert.False(t, pairs[0].HasOverlap)
	assert.Equal(t, "plan-only-p1", pairs[1].ID)
	assert.Nil(t, pairs[1].RecordTask)
}

func TestPairPlanAndRecord_OtherDaysIgnored(t *testing.T) {
	tomorrow := plan("p2", "Tomorrow", 9, 0, 10, 0)
	tomorrow.Start = tomorrow.Start.AddDate(0, 0, 1)
	tomorrow.End = tomorrow.End.AddDate(0, 0, 1)

	pairs := PairPlanAndRecord([]model.CalendarTask{tomorrow}, nil, testDay)
	assert.Empty(t, pairs)
}

func TestNewPair_IDsAreDistinct(t *testing.T) {
	id := func(planID, recordID string) string {
		var p, r *model.CalendarTask
		if planID != "" {
			pt := plan(planID, "X", 9, 0, 10, 0)
			p = &pt
		}
		if recordID != "" {
			rt := record(recordID, "X", 9, 0, 10, 0)
			r = &rt
		}
		return newPair(p, r).ID
	}

	ids := []string{
		id("a-b", "c"),
		id("a", "b-c"),
		id("a+b", "c"),
		id("a", "b+c"),
		id(`a\`, "+b"),
		id("plan-only-a", "b"),
		id("a+b", ""),
		id("", "a+b"),
		id("record-only-a", "b"),
	}
	seen := map[string]bool{}
	for _, got := range ids {
		assert.False(t, seen[got], "duplicate pair id %q", got)
		seen[got] = true
	}
	assert.Equal(t, "a-b+c", ids[0])
	assert.Equal(t, `a\+b+c`, ids[2])
}

func TestPairPlanAndRecord_Properties(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	titles := []string{"Run", "Read", "Code", "Lunch"}

	for round := 0; round < 200; round++ {
		plans := randomTasks(rnd, rnd.Intn(12))
		records := randomTasks(rnd, rnd.Intn(12))
		for i := range plans {
			plans[i].ID = "plan-" + plans[i].ID
			plans[i].Title = titles[rnd.Intn(len(titles))]
			plans[i].IsPlan = true
		}
		for i := range records {
			records[i].ID = "rec-" + records[i].ID
			records[i].Title = titles[rnd.Intn(len(titles))]
			records[i].IsRecord = true
		}

		pairs := PairPlanAndRecord(plans, records, testDay)

		seen := map[string]int{}
		for i, p := range pairs {
			require.True(t, p.PlanTask != nil || p.RecordTask != nil)
			if p.PlanTask != nil {
				seen[p.PlanTask.ID]++
			}
			if p.RecordTask != nil {
				seen[p.RecordTask.ID]++
			}
			if p.PlanTask != nil && p.RecordTask != nil {
				assert.Equal(t, minTime(p.PlanTask.Start, p.RecordTask.Start), p.Start)
				assert.Equal(t, maxTime(p.PlanTask.End, p.RecordTask.End), p.End)
			}
			if i > 0 {
				assert.False(t, p.Start.Before(pairs[i-1].Start))
			}
		}
		assert.Len(t, seen, len(plans)+len(records))
		for id, n := range seen {
			assert.Equal(t, 1, n, "round %d: %s appears %d times", round, id, n)
		}

		positioned := AssignPairColumns(pairs, ScopeCluster)
		for i, a := range positioned {
			for _, b := range positioned[i+1:] {
				if a.Column == b.Column {
					assert.False(t, Overlaps(a.Pair.Start, a.Pair.End, b.Pair.Start, b.Pair.End))
				}
			}
		}
	}
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func TestAssignPairColumns(t *testing.T) {
	pairs := PairPlanAndRecord(
		[]model.CalendarTask{
			plan("p1", "Standup", 9, 0, 9, 30),
			plan("p2", "Review", 9, 15, 10, 0),
		},
		[]model.CalendarTask{record("r1", "Standup", 9, 10, 9, 40)},
		testDay,
	)

	got := AssignPairColumns(pairs, ScopeCluster)

	require.Len(t, got, 2)
	assert.Equal(t, "p1+r1", got[0].Pair.ID)
	assert.Equal(t, 0, got[0].Column)
	assert.Equal(t, 1, got[1].Column)
	assert.Equal(t, 2, got[0].TotalColumns)
	assert.Equal(t, 540, got[0].StartMinutes)
	assert.Equal(t, 40, got[0].DurationMinutes)
}

func TestCalculateTaskPairLayout(t *testing.T) {
	tests := []struct {
		column, total int
		left, width   float64
	}{
		{0, 1, 0, 100},
		{0, 0, 0, 100},
		{0, 2, 0, 49.5},
		{1, 2, 50.5, 49.5},
		{2, 3, 2 * (98.0/3 + 1), 98.0 / 3},
	}
	for _, tt := range tests {
		left, width := CalculateTaskPairLayout(tt.column, tt.total)
		assert.InDelta(t, tt.left, left, 1e-9, "left for %d/%d", tt.column, tt.total)
		assert.InDelta(t, tt.width, width, 1e-9, "width for %d/%d", tt.column, tt.total)
	}
}
