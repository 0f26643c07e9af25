package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"plancal/internal/drag"
	"plancal/internal/layout"
	appLog "plancal/internal/log"
	"plancal/internal/model"
	"plancal/internal/store"
)

// handleLayout returns the render-ready layout of one day.
//
// GET /api/layout?date=2025-01-02&mode=both
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	day, err := s.parseDay(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return
	}
	mode, err := s.parseMode(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	l, err := s.dayLayout(day, mode)
	if err != nil {
		appLog.Error("layout failed", err, "date", day.Format(dateLayout), "mode", mode)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, l)
}

type weekResponse struct {
	WeekStart string             `json:"week_start"`
	Days      []layout.DayLayout `json:"days"`
}

// handleWeek returns seven day layouts starting at the configured first
// weekday of the week containing date.
func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	day, err := s.parseDay(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return
	}
	mode, err := s.parseMode(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := weekResponse{WeekStart: s.cfg.WeekStart, Days: make([]layout.DayLayout, 0, 7)}
	for _, d := range WeekDays(day, s.cfg.WeekStart) {
		l, err := s.dayLayout(d, mode)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		resp.Days = append(resp.Days, l)
	}
	writeJSON(w, http.StatusOK, resp)
}

// WeekDays returns the seven midnights of the week containing day.
func WeekDays(day time.Time, weekStart string) []time.Time {
	first := time.Monday
	if weekStart == "sunday" {
		first = time.Sunday
	}
	offset := (int(day.Weekday()) - int(first) + 7) % 7
	start := layout.StartOfDay(day).AddDate(0, 0, -offset)

	days := make([]time.Time, 7)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}

// handleListTasks lists the tasks of ?date=.
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	day, err := s.parseDay(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return
	}
	writeJSON(w, http.StatusOK, s.store.Day(day))
}

// handleCreateTask stores a task posted as JSON.
func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var t model.CalendarTask
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeError(w, http.StatusBadRequest, "invalid task JSON")
		return
	}
	created, err := s.store.Create(t)
	if err != nil {
		if errors.Is(err, store.ErrInvalidTask) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		appLog.Error("create task failed", err)
		writeError(w, http.StatusInternalServerError, "failed to save task")
		return
	}
	appLog.Info("task created", "id", created.ID, "start", created.Start.Format(time.RFC3339))
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		appLog.Error("delete task failed", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to delete task")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// fixedContainer is a container measured once by the client.
type fixedContainer struct {
	top, scrollTop float64
}

func (c fixedContainer) Top() float64       { return c.top }
func (c fixedContainer) ScrollTop() float64 { return c.scrollTop }

type containerDTO struct {
	Top       float64 `json:"top"`
	ScrollTop float64 `json:"scroll_top"`
}

// dragRequest replays a recorded pointer gesture over a grid.
type dragRequest struct {
	// Days lists the date of every day column, left to right.
	Days        []string       `json:"days"`
	Left        float64        `json:"left"`
	ColumnWidth float64        `json:"column_width"`
	Container   *containerDTO  `json:"container"`
	Kind        model.Kind     `json:"kind"`
	Title       string         `json:"title"`
	Events      []drag.Pointer `json:"events"`
}

type dragResponse struct {
	Created []model.CalendarTask `json:"created"`
	Swipe   string               `json:"swipe"`
}

// handleDrag runs a pointer gesture through the drag state machine.
// Committed ranges become tasks; a fast horizontal swipe is reported
// instead so the client can page days.
func (s *Server) handleDrag(w http.ResponseWriter, r *http.Request) {
	var req dragRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid drag JSON")
		return
	}
	if len(req.Events) == 0 || len(req.Days) == 0 || req.ColumnWidth <= 0 {
		writeError(w, http.StatusBadRequest, "days, column_width and events are required")
		return
	}

	days := make([]time.Time, 0, len(req.Days))
	for _, v := range req.Days {
		d, err := time.ParseInLocation(dateLayout, v, s.loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid day "+v)
			return
		}
		days = append(days, d)
	}

	if dir := gestureSwipe(req.Events); dir != drag.SwipeNone {
		writeJSON(w, http.StatusOK, dragResponse{Created: []model.CalendarTask{}, Swipe: dir.String()})
		return
	}

	surface := drag.Surface{
		Grid:        s.settings.Grid,
		Days:        days,
		Left:        req.Left,
		ColumnWidth: req.ColumnWidth,
		Occupied:    drag.NewIndex(days, layout.Visible(s.store.All(), s.settings.Mode)),
	}
	if req.Container != nil {
		surface.Container = fixedContainer{top: req.Container.Top, scrollTop: req.Container.ScrollTop}
	}

	var commits []model.CreateRequest
	m := drag.New(surface, func(cr model.CreateRequest) {
		commits = append(commits, cr)
	})
	for _, ev := range req.Events {
		m.Handle(ev)
	}

	kind := req.Kind
	if kind == model.KindPlain {
		kind = model.KindPlan
		if s.settings.Mode == layout.ModeRecord {
			kind = model.KindRecord
		}
	}

	resp := dragResponse{Created: make([]model.CalendarTask, 0, len(commits)), Swipe: drag.SwipeNone.String()}
	for _, cr := range commits {
		t, err := s.store.CreateFromRequest(cr, kind, req.Title)
		if err != nil {
			appLog.Error("drag create failed", err, "start", cr.Start.Format(time.RFC3339))
			writeError(w, http.StatusInternalServerError, "failed to save task")
			return
		}
		resp.Created = append(resp.Created, t)
	}
	writeJSON(w, http.StatusOK, resp)
}

// gestureSwipe checks the first down and the last up of the first pointer.
func gestureSwipe(events []drag.Pointer) drag.Direction {
	var down, up *drag.Pointer
	for i := range events {
		ev := &events[i]
		if down == nil {
			if ev.Phase == drag.PhaseDown {
				down = ev
			}
			continue
		}
		if ev.ID == down.ID && ev.Phase == drag.PhaseUp {
			up = ev
		}
	}
	if down == nil || up == nil {
		return drag.SwipeNone
	}
	return drag.DetectSwipe(*down, *up)
}
