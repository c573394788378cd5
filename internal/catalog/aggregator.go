// Package catalog builds the merged, scored event catalog from the three
// public Kalshi fetch strategies.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoPolymarket/polydesk/internal/config"
	"github.com/GoPolymarket/polydesk/internal/pkg/apperrors"
	"github.com/GoPolymarket/polydesk/internal/pkg/logger"
	"github.com/GoPolymarket/polydesk/internal/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// SourceReport describes how one strategy fared in a run.
type SourceReport struct {
	Source   Source `json:"source"`
	Events   int    `json:"events"`
	Failures int    `json:"failures"`
	Error    string `json:"error,omitempty"`
}

func (r SourceReport) failed() bool { return r.Error != "" && r.Events == 0 }

// Result is an aggregation run. Degraded is set when nothing came back, so
// callers can tell an empty catalog from a crash. Code carries
// PARTIAL_AGGREGATION_FAILURE or TOTAL_AGGREGATION_FAILURE when sources failed.
type Result struct {
	Events      []Event        `json:"events"`
	Degraded    bool           `json:"degraded"`
	Code        string         `json:"code,omitempty"`
	Sources     []SourceReport `json:"sources"`
	GeneratedAt time.Time      `json:"generated_at"`
}

type Aggregator struct {
	fetcher Fetcher
	cfg     config.CatalogConfig
	timeout time.Duration
	now     func() time.Time
	log     *slog.Logger
}

func NewAggregator(f Fetcher, cfg config.CatalogConfig) *Aggregator {
	timeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	if cfg.EnrichConcurrency < 1 {
		cfg.EnrichConcurrency = 1
	}
	return &Aggregator{
		fetcher: f,
		cfg:     cfg,
		timeout: timeout,
		now:     time.Now,
		log:     logger.Component("catalog"),
	}
}

// Aggregate runs all strategies, waits for every one of them and merges what
// came back. Strategy failures are reported, never returned.
func (a *Aggregator) Aggregate(ctx context.Context) (*Result, error) {
	start := a.now()
	defer func() { metrics.AggregationDuration.Observe(time.Since(start).Seconds()) }()

	strategies := []struct {
		src Source
		run func(context.Context) ([]Event, SourceReport)
	}{
		{SourcePagination, a.paginate},
		{SourceSeries, a.series},
		{SourceMarkets, a.markets},
	}

	results := make([][]Event, len(strategies))
	reports := make([]SourceReport, len(strategies))

	// Plain Group: one failing strategy must not cancel its siblings.
	var g errgroup.Group
	for i, s := range strategies {
		g.Go(func() error {
			events, rep := s.run(ctx)
			rep.Source = s.src
			rep.Events = len(events)
			results[i], reports[i] = events, rep
			return nil
		})
	}
	_ = g.Wait()

	bySource := make(map[Source][]Event, len(strategies))
	failed := 0
	for i, s := range strategies {
		bySource[s.src] = results[i]
		status := "ok"
		switch {
		case reports[i].failed():
			status = "failed"
			failed++
			a.log.Warn("aggregation source failed", "source", s.src, "error", reports[i].Error)
		case reports[i].Error != "":
			status = "partial"
		}
		metrics.AggregationSources.WithLabelValues(string(s.src), status).Inc()
	}

	events := merge(bySource)
	now := a.now()
	for i := range events {
		events[i].Score = score(events[i], now)
	}
	sortByScore(events)
	a.enrich(ctx, events)

	res := &Result{
		Events:      events,
		Degraded:    len(events) == 0,
		Sources:     reports,
		GeneratedAt: now.UTC(),
	}
	switch {
	case failed == len(strategies):
		res.Code = string(apperrors.ErrTotalAggregation)
	case failed > 0:
		res.Code = string(apperrors.ErrPartialAggregation)
	}
	if res.Degraded {
		a.log.Warn("aggregation returned no events", "failed_sources", failed)
	}
	return res, nil
}

// call bounds a single upstream fetch by the per-request timeout.
func call[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return fn(ctx)
}

func (a *Aggregator) paginate(ctx context.Context) ([]Event, SourceReport) {
	var (
		out    []Event
		rep    SourceReport
		cursor string
	)
	for page := 0; page < a.cfg.MaxPages; page++ {
		type pageResult struct {
			events []Event
			next   string
		}
		pr, err := call(ctx, a.timeout, func(ctx context.Context) (pageResult, error) {
			ev, next, err := a.fetcher.EventsPage(ctx, cursor, a.cfg.PageLimit)
			return pageResult{ev, next}, err
		})
		if err != nil {
			// Pages already read are kept.
			rep.Failures++
			rep.Error = fmt.Sprintf("page %d: %v", page+1, err)
			break
		}
		out = append(out, pr.events...)
		if pr.next == "" || pr.next == cursor {
			break
		}
		cursor = pr.next
	}
	return out, rep
}

func (a *Aggregator) series(ctx context.Context) ([]Event, SourceReport) {
	var (
		out  []Event
		rep  SourceReport
		errs []error
	)
	for _, ticker := range a.cfg.SeriesTickers {
		events, err := call(ctx, a.timeout, func(ctx context.Context) ([]Event, error) {
			return a.fetcher.SeriesEvents(ctx, ticker)
		})
		if err != nil {
			rep.Failures++
			errs = append(errs, fmt.Errorf("%s: %w", ticker, err))
			continue
		}
		out = append(out, events...)
	}
	if err := errors.Join(errs...); err != nil {
		rep.Error = err.Error()
	}
	return out, rep
}

func (a *Aggregator) markets(ctx context.Context) ([]Event, SourceReport) {
	markets, err := call(ctx, a.timeout, func(ctx context.Context) ([]Market, error) {
		return a.fetcher.OpenMarkets(ctx, a.cfg.MarketsLimit)
	})
	if err != nil {
		return nil, SourceReport{Failures: 1, Error: err.Error()}
	}
	return groupMarkets(markets), SourceReport{}
}

// enrich fetches images for the top N events. Failures leave the image empty.
func (a *Aggregator) enrich(ctx context.Context, events []Event) {
	n := min(a.cfg.EnrichTopN, len(events))
	if n <= 0 {
		return
	}
	var g errgroup.Group
	g.SetLimit(a.cfg.EnrichConcurrency)
	for i := range events[:n] {
		g.Go(func() error {
			img, err := call(ctx, a.timeout, func(ctx context.Context) (string, error) {
				return a.fetcher.EventImage(ctx, events[i].EventTicker)
			})
			if err != nil {
				a.log.Debug("image enrichment failed", "event", events[i].EventTicker, "error", err)
				return nil
			}
			events[i].ImageURL = img
			return nil
		})
	}
	_ = g.Wait()
}
