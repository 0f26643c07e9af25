// Package store owns the task collection. It hands out snapshots to the
// layout engine and persists every change to a YAML file.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"plancal/internal/config"
	"plancal/internal/layout"
	appLog "plancal/internal/log"
	"plancal/internal/model"
)

var (
	ErrNotFound    = errors.New("store: task not found")
	ErrInvalidTask = errors.New("store: invalid task")
)

const defaultTitle = "New task"

// fileFormat is the on-disk shape of the tasks file.
type fileFormat struct {
	Tasks []model.CalendarTask `yaml:"tasks"`
}

// Store is a mutex-guarded task collection. The zero value is not usable;
// call Open or NewMemory.
type Store struct {
	mu      sync.RWMutex
	path    string
	tasks   []model.CalendarTask
	version uint64
}

// NewMemory returns a store that never touches disk.
func NewMemory(tasks ...model.CalendarTask) *Store {
	return &Store{tasks: append([]model.CalendarTask(nil), tasks...)}
}

// Open loads the tasks file at path. A missing file yields an empty store
// that will create the file on first write.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("store: path is empty")
	}
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			appLog.Info("tasks file not found; starting empty", "path", path)
			return s, nil
		}
		return nil, err
	}

	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("store: parse %s: %w", path, err)
	}
	s.tasks = f.Tasks
	appLog.Info("tasks loaded", "path", path, "count", len(s.tasks))
	return s, nil
}

// Version increases on every change. Callers memoize layouts on it.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// All returns a snapshot of every task in insertion order.
func (s *Store) All() []model.CalendarTask {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.CalendarTask(nil), s.tasks...)
}

// Day returns a snapshot of the tasks shown on day.
func (s *Store) Day(day time.Time) []model.CalendarTask {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return layout.FilterDay(s.tasks, day)
}

// Get returns the task with id.
func (s *Store) Get(id string) (model.CalendarTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return model.CalendarTask{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Create validates t, assigns an id when missing, and stores it.
func (s *Store) Create(t model.CalendarTask) (model.CalendarTask, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		t.Title = defaultTitle
	}
	if t.Status == "" {
		t.Status = model.StatusTodo
	}
	if t.Priority == "" {
		t.Priority = model.PriorityMedium
	}
	if err := validate(t); err != nil {
		return model.CalendarTask{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.tasks {
		if existing.ID == t.ID {
			return model.CalendarTask{}, fmt.Errorf("%w: duplicate id %s", ErrInvalidTask, t.ID)
		}
	}
	next := make([]model.CalendarTask, 0, len(s.tasks)+1)
	next = append(next, s.tasks...)
	if err := s.commitLocked(append(next, t)); err != nil {
		return model.CalendarTask{}, err
	}
	return t, nil
}

// CreateFromRequest stores the task produced by a committed drag.
func (s *Store) CreateFromRequest(req model.CreateRequest, kind model.Kind, title string) (model.CalendarTask, error) {
	return s.Create(model.CalendarTask{
		Title:    title,
		Start:    req.Start,
		End:      req.End,
		IsPlan:   kind == model.KindPlan,
		IsRecord: kind == model.KindRecord,
	})
}

// Delete removes the task with id.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.tasks {
		if t.ID == id {
			next := make([]model.CalendarTask, 0, len(s.tasks)-1)
			next = append(next, s.tasks[:i]...)
			return s.commitLocked(append(next, s.tasks[i+1:]...))
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// ReplaceSource swaps every task imported from sourceID for tasks.
func (s *Store) ReplaceSource(sourceID string, tasks []model.CalendarTask) error {
	if sourceID == "" {
		return errors.New("store: source id is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]model.CalendarTask, 0, len(s.tasks)+len(tasks))
	for _, t := range s.tasks {
		if t.SourceID != sourceID {
			kept = append(kept, t)
		}
	}
	for _, t := range tasks {
		t.SourceID = sourceID
		kept = append(kept, t)
	}
	return s.commitLocked(kept)
}

func validate(t model.CalendarTask) error {
	if t.IsPlan && t.IsRecord {
		return fmt.Errorf("%w: %s is flagged both plan and record", ErrInvalidTask, t.ID)
	}
	if t.Start.IsZero() || t.End.IsZero() {
		return fmt.Errorf("%w: %s has no start or end", ErrInvalidTask, t.ID)
	}
	if !t.End.After(t.Start) {
		return fmt.Errorf("%w: %s ends before it starts", ErrInvalidTask, t.ID)
	}
	return nil
}

// commitLocked persists next and only then makes it the current
// collection. A failed write leaves the store unchanged.
func (s *Store) commitLocked(next []model.CalendarTask) error {
	if err := s.saveLocked(next); err != nil {
		return err
	}
	s.tasks = next
	s.version++
	return nil
}

func (s *Store) saveLocked(tasks []model.CalendarTask) error {
	if s.path == "" {
		return nil
	}
	data, err := yaml.Marshal(fileFormat{Tasks: tasks})
	if err != nil {
		return err
	}
	if err := config.WriteFileAtomic(s.path, data, ".plancal-tasks-*.tmp"); err != nil {
		appLog.Error("tasks save failed", err, "path", s.path)
		return err
	}
	return nil
}
