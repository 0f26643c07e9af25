package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"plancal/internal/capture"
	"plancal/internal/config"
	"plancal/internal/ics"
	"plancal/internal/layout"
	appLog "plancal/internal/log"
	"plancal/internal/store"
	"plancal/internal/web"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	once       bool
	date       string
	mode       string
	capture    bool
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	defer appLog.Sync()

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.Info("plancal starting",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"refresh", conf.RefreshCron,
		"grid_interval", conf.Layout.GridInterval,
		"hour_height", conf.Layout.HourHeight,
		"mode", conf.Layout.PlanRecordMode,
		"ics_count", len(conf.ICS),
		"once", flags.once,
	)

	st, err := store.Open(conf.TasksFile)
	if err != nil {
		appLog.Error("failed to open task store", err, "path", conf.TasksFile)
		os.Exit(1)
	}

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	refresher := ics.NewRefresher(
		ics.NewFetcher(conf.CacheDir),
		ics.SourcesFromConfig(conf.ICS),
		st,
		conf.Location(),
	)
	if err := refresher.Refresh(ctx); err != nil {
		appLog.Error("initial ics refresh incomplete", err)
	}

	if flags.once {
		if err := dumpDay(conf, st, flags.date, flags.mode); err != nil {
			appLog.Error("layout dump failed", err)
			os.Exit(1)
		}
		return
	}

	sched := cron.New(cron.WithLocation(conf.Location()))
	if _, err := sched.AddFunc(conf.RefreshCron, func() {
		if err := refresher.Refresh(ctx); err != nil {
			appLog.Error("scheduled ics refresh incomplete", err)
		}
	}); err != nil {
		appLog.Error("invalid refresh schedule", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	sched.Start()
	defer func() {
		<-sched.Stop().Done()
	}()

	srv := web.NewServer(conf, st)

	if flags.capture {
		go func() {
			// Let the listener come up before Chromium connects.
			time.Sleep(500 * time.Millisecond)
			opts := capture.Options{
				URL:        fmt.Sprintf("http://%s/day?date=%s", conf.Listen, flags.date),
				OutputPath: web.PreviewPath(conf),
			}
			if err := capture.DayPNG(ctx, opts); err != nil {
				appLog.Error("preview capture failed", err)
				return
			}
			appLog.Info("preview captured", "path", opts.OutputPath)
		}()
	}

	if err := srv.Run(ctx); err != nil {
		appLog.Error("http server failed", err)
		os.Exit(1)
	}
	appLog.Info("plancal exiting")
}

// dumpDay prints the layout of one day as JSON on stdout.
func dumpDay(conf *config.Config, st *store.Store, date, mode string) error {
	loc := conf.Location()
	day := layout.StartOfDay(time.Now().In(loc))
	if date != "" {
		d, err := time.ParseInLocation("2006-01-02", date, loc)
		if err != nil {
			return fmt.Errorf("invalid -date %q: %w", date, err)
		}
		day = d
	}

	settings := conf.Settings()
	if mode != "" {
		settings.Mode = layout.Mode(mode)
	}
	l, err := layout.BuildDay(day, st.Day(day), settings)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l); err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	return nil
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/plancal/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Print the layout of -date as JSON and exit")
	flag.StringVar(&cfg.date, "date", "", "Day to lay out (YYYY-MM-DD, default today)")
	flag.StringVar(&cfg.mode, "mode", "", "plan, record or both (default from config)")
	flag.BoolVar(&cfg.capture, "capture", false, "Capture /day to preview.png after startup")

	flag.Parse()

	return cfg
}
