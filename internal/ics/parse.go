package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "plancal/internal/log"
	"plancal/internal/model"
)

// defaultEventLength is used for VEVENTs without DTEND.
const defaultEventLength = time.Hour

// ParseStats summarizes what ParseTasks skipped.
type ParseStats struct {
	Events    int
	AllDay    int
	Overrides int
	Invalid   int
	Recurring int
}

// ParseTasks converts the timed VEVENTs of an ICS payload into tasks of
// the source's kind. All-day events do not belong on the time grid and
// RECURRENCE-ID overrides are dropped; a recurring event contributes only
// its DTSTART instance. Times are converted into loc.
func ParseTasks(src Source, body []byte, loc *time.Location) ([]model.CalendarTask, ParseStats, error) {
	var stats ParseStats
	if len(body) == 0 {
		return nil, stats, errors.New("empty ICS body")
	}
	if loc == nil {
		loc = time.Local
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "id", src.ID, "url", redactURL(src.URL))
		return nil, stats, fmt.Errorf("ics: parse %s: %w", src.ID, err)
	}

	tasks := make([]model.CalendarTask, 0)
	for _, ve := range cal.Events() {
		stats.Events++

		if ve.GetProperty(ical.ComponentPropertyRecurrenceId) != nil {
			stats.Overrides++
			continue
		}
		if isAllDay(ve) {
			stats.AllDay++
			continue
		}
		if ve.GetProperty(ical.ComponentPropertyRrule) != nil {
			stats.Recurring++
		}

		t, perr := taskFromEvent(src, ve, loc)
		if perr != nil {
			// Log and skip this event, but keep parsing others.
			stats.Invalid++
			appLog.Error("ics vevent skipped", perr, "id", src.ID)
			continue
		}
		tasks = append(tasks, t)
	}

	appLog.Info("ics parse completed",
		"id", src.ID,
		"tasks", len(tasks),
		"all_day", stats.AllDay,
		"overrides", stats.Overrides,
		"invalid", stats.Invalid,
	)
	return tasks, stats, nil
}

func taskFromEvent(src Source, ve *ical.VEvent, loc *time.Location) (model.CalendarTask, error) {
	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return model.CalendarTask{}, errors.New("missing UID")
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return model.CalendarTask{}, fmt.Errorf("uid %s: DTSTART: %w", uid.Value, err)
	}
	end, err := ve.GetEndAt()
	if err != nil {
		end = start.Add(defaultEventLength)
	}

	t := model.CalendarTask{
		ID:       src.ID + ":" + uid.Value,
		Start:    start.In(loc),
		End:      end.In(loc),
		Status:   statusOf(ve),
		Priority: priorityOf(ve),
		IsPlan:   src.Kind == model.KindPlan,
		IsRecord: src.Kind == model.KindRecord,
		SourceID: src.ID,
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		t.Title = p.Value
	}
	return t, nil
}

// isAllDay detects VALUE=DATE or a DTSTART without a time part.
func isAllDay(ve *ical.VEvent) bool {
	p := ve.GetProperty(ical.ComponentPropertyDtStart)
	if p == nil {
		return false
	}
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

func statusOf(ve *ical.VEvent) model.Status {
	p := ve.GetProperty(ical.ComponentPropertyStatus)
	if p == nil {
		return model.StatusTodo
	}
	switch strings.ToUpper(strings.TrimSpace(p.Value)) {
	case "CANCELLED":
		return model.StatusCancelled
	case "COMPLETED":
		return model.StatusDone
	case "IN-PROCESS":
		return model.StatusInProgress
	default:
		return model.StatusTodo
	}
}

// priorityOf maps RFC 5545 PRIORITY (1 highest .. 9 lowest, 0 undefined).
func priorityOf(ve *ical.VEvent) model.Priority {
	p := ve.GetProperty(ical.ComponentPropertyPriority)
	if p == nil {
		return model.PriorityMedium
	}
	n, err := strconv.Atoi(strings.TrimSpace(p.Value))
	if err != nil {
		return model.PriorityMedium
	}
	switch {
	case n >= 1 && n <= 4:
		return model.PriorityHigh
	case n >= 6 && n <= 9:
		return model.PriorityLow
	default:
		return model.PriorityMedium
	}
}
