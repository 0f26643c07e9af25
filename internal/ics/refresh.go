package ics

import (
	"context"
	"errors"
	"time"

	"plancal/internal/config"
	appLog "plancal/internal/log"
	"plancal/internal/model"
)

// TaskSink receives the tasks of one source, replacing what it imported
// from that source before.
type TaskSink interface {
	ReplaceSource(sourceID string, tasks []model.CalendarTask) error
}

// Refresher imports every configured source into a TaskSink.
type Refresher struct {
	fetcher *Fetcher
	sources []Source
	sink    TaskSink
	loc     *time.Location
}

// NewRefresher wires a Fetcher to a sink.
func NewRefresher(fetcher *Fetcher, sources []Source, sink TaskSink, loc *time.Location) *Refresher {
	if loc == nil {
		loc = time.Local
	}
	return &Refresher{fetcher: fetcher, sources: sources, sink: sink, loc: loc}
}

// Refresh fetches, parses and stores every source. A failing source keeps
// its previously imported tasks; all failures are joined into the result.
func (r *Refresher) Refresh(ctx context.Context) error {
	if len(r.sources) == 0 {
		return nil
	}

	results, errs := r.fetcher.FetchAll(ctx, r.sources)
	imported := 0
	for _, res := range results {
		tasks, _, err := ParseTasks(res.Source, res.Body, r.loc)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := r.sink.ReplaceSource(res.Source.ID, tasks); err != nil {
			errs = append(errs, err)
			continue
		}
		imported += len(tasks)
	}

	appLog.Info("ics refresh finished", "sources", len(r.sources), "tasks", imported, "errors", len(errs))
	return errors.Join(errs...)
}

// SourcesFromConfig builds sources from the config, skipping entries
// without a URL. The id falls back to the name, then the URL.
func SourcesFromConfig(entries []config.ICSConfig) []Source {
	sources := make([]Source, 0, len(entries))
	for _, e := range entries {
		if e.URL == "" {
			continue
		}
		id := e.ID
		if id == "" {
			if e.Name != "" {
				id = e.Name
			} else {
				id = e.URL
			}
		}
		kind := model.KindPlan
		if e.Kind == string(model.KindRecord) {
			kind = model.KindRecord
		}
		sources = append(sources, Source{ID: id, URL: e.URL, Kind: kind})
	}
	return sources
}
