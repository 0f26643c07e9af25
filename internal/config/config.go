package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"plancal/internal/layout"
)

// ICSConfig describes a single ICS subscription source.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label shown in the UI.
	Name string `yaml:"name" json:"name"`
	// Kind is "plan" (default) or "record" and decides which side of the
	// plan/record split the feed's events land on.
	Kind string `yaml:"kind" json:"kind"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// LayoutConfig configures the day grid.
type LayoutConfig struct {
	// HourHeight is the pixel height of one hour row.
	HourHeight float64 `yaml:"hour_height" json:"hour_height"`
	// GridInterval is the snap granularity in minutes: 15, 30 or 60.
	GridInterval int `yaml:"grid_interval" json:"grid_interval"`
	// MinEventHeightPx is the smallest rendered task height.
	MinEventHeightPx float64 `yaml:"min_event_height_px" json:"min_event_height_px"`
	// DefaultDurationMinutes is the length of a click-created task.
	DefaultDurationMinutes int `yaml:"default_duration_minutes" json:"default_duration_minutes"`
	// PlanRecordMode is "plan", "record" or "both". Only "both" pairs
	// plans with records.
	PlanRecordMode string `yaml:"plan_record_mode" json:"plan_record_mode"`
	// ColumnScope is "cluster" (default) or "day".
	ColumnScope string `yaml:"column_scope" json:"column_scope"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone days are laid out in (e.g. "Asia/Seoul").
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekStart controls which weekday starts the week view:
	// "monday" (default) or "sunday".
	WeekStart string `yaml:"week_start" json:"week_start"`

	// RefreshCron is a cron-style schedule string (e.g. "*/15 * * * *")
	// for re-importing ICS sources.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// LogLevel is DEBUG, INFO or ERROR.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// TasksFile is the YAML file the task store persists to.
	TasksFile string `yaml:"tasks_file" json:"tasks_file"`

	// CacheDir holds the ICS HTTP cache and the rendered preview.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	Layout LayoutConfig `yaml:"layout" json:"layout"`

	// ICS is the list of subscribed ICS sources.
	ICS []ICSConfig `yaml:"ics" json:"ics"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      "127.0.0.1:8080",
		Timezone:    "Asia/Seoul",
		WeekStart:   "monday",
		RefreshCron: "*/15 * * * *",
		LogLevel:    "INFO",
		TasksFile:   "./var/tasks.yaml",
		CacheDir:    "./var/cache",
		Layout: LayoutConfig{
			HourHeight:             layout.DefaultHourHeight,
			GridInterval:           layout.DefaultGridInterval,
			MinEventHeightPx:       layout.DefaultMinEventHeight,
			DefaultDurationMinutes: int(layout.DefaultDuration / time.Minute),
			PlanRecordMode:         string(layout.ModeBoth),
			ColumnScope:            string(layout.ScopeCluster),
		},
		ICS:       []ICSConfig{},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()

	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	switch c.WeekStart {
	case "monday", "sunday":
	default:
		// Unknown value; fall back to monday to avoid surprising layouts.
		c.WeekStart = "monday"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = def.RefreshCron
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.TasksFile == "" {
		c.TasksFile = def.TasksFile
	}
	if c.CacheDir == "" {
		c.CacheDir = def.CacheDir
	}

	l := &c.Layout
	if l.HourHeight <= 0 {
		l.HourHeight = def.Layout.HourHeight
	}
	if l.GridInterval == 0 {
		l.GridInterval = def.Layout.GridInterval
	}
	if l.MinEventHeightPx <= 0 {
		l.MinEventHeightPx = def.Layout.MinEventHeightPx
	}
	if l.DefaultDurationMinutes <= 0 {
		l.DefaultDurationMinutes = def.Layout.DefaultDurationMinutes
	}
	if l.PlanRecordMode == "" {
		l.PlanRecordMode = def.Layout.PlanRecordMode
	}
	if l.ColumnScope == "" {
		l.ColumnScope = def.Layout.ColumnScope
	}

	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	for i := range c.ICS {
		if c.ICS[i].Kind == "" {
			c.ICS[i].Kind = "plan"
		}
	}
}

// Validate reports values Normalize cannot repair.
func (c *Config) Validate() error {
	if err := c.Settings().Grid.Validate(); err != nil {
		return err
	}
	switch layout.Mode(c.Layout.PlanRecordMode) {
	case layout.ModePlan, layout.ModeRecord, layout.ModeBoth:
	default:
		return fmt.Errorf("config: %w: got %q", layout.ErrInvalidMode, c.Layout.PlanRecordMode)
	}
	switch layout.ColumnScope(c.Layout.ColumnScope) {
	case layout.ScopeCluster, layout.ScopeDay:
	default:
		return fmt.Errorf("config: unknown column_scope %q", c.Layout.ColumnScope)
	}
	for _, src := range c.ICS {
		if src.Kind != "plan" && src.Kind != "record" {
			return fmt.Errorf("config: ics source %q has unknown kind %q", src.ID, src.Kind)
		}
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("config: invalid timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// Settings converts the layout section into layout.Settings.
func (c *Config) Settings() layout.Settings {
	return layout.Settings{
		Grid: layout.Grid{
			HourHeight:      c.Layout.HourHeight,
			GridInterval:    c.Layout.GridInterval,
			MinEventHeight:  c.Layout.MinEventHeightPx,
			DefaultDuration: time.Duration(c.Layout.DefaultDurationMinutes) * time.Minute,
		},
		Mode:  layout.Mode(c.Layout.PlanRecordMode),
		Scope: layout.ColumnScope(c.Layout.ColumnScope),
	}
}

// Location resolves Timezone, falling back to time.Local.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults and validate
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data, ".plancal-config-*.tmp")
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}

// WriteFileAtomic writes data to path through a 0600 temp file in the same
// directory followed by a rename, creating the directory (0700) if needed.
func WriteFileAtomic(path string, data []byte, pattern string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
