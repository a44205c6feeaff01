package fredsync

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/etnz/fredsync/date"
)

// DefaultStart is the historical epoch data is fetched from when a run
// does not say otherwise.
var DefaultStart = date.New(2010, time.January, 1)

// Pipeline orchestrates a full sync run: load the catalog definition,
// reconcile it against the store, then bring every resolved indicator's
// data up to date.
type Pipeline struct {
	store    Store
	provider Provider
	rows     func() ([]Row, error)

	// Workers bounds how many indicators sync concurrently. Zero or one
	// means sequential. All workers draw on the provider's single request
	// budget, so concurrency never raises the overall request rate.
	Workers int
}

// NewPipeline returns a Pipeline over the given store and provider; rows
// loads the catalog definition once per run.
func NewPipeline(store Store, provider Provider, rows func() ([]Row, error)) *Pipeline {
	return &Pipeline{store: store, provider: provider, rows: rows}
}

// RunSummary aggregates the per-indicator outcomes of one run.
type RunSummary struct {
	IndicatorsTotal int
	Succeeded       int
	Failed          map[string]error // series code -> recorded failure

	PointsAdded   int
	PointsUpdated int
	PointsDeleted int
	Fetches       int
}

// Run executes one sync pass over [r.From, r.To].
//
// A catalog failure (malformed source, reconciliation error) is fatal and
// returned immediately: there is no partial catalog to sync against. A
// per-indicator sync failure is isolated: it is recorded in the summary
// and the run proceeds with the next indicator. Run always returns a
// complete summary unless the failure was fatal or ctx was cancelled.
func (p *Pipeline) Run(ctx context.Context, r date.Range, fullRefresh bool) (RunSummary, error) {
	summary := RunSummary{Failed: make(map[string]error)}

	rows, err := p.rows()
	if err != nil {
		return summary, fmt.Errorf("failed to load catalog source: %w", err)
	}
	parsed, err := ParseRows(rows)
	if err != nil {
		return summary, err
	}
	indicators, err := NewReconciler(p.store).Reconcile(ctx, parsed)
	if err != nil {
		return summary, err
	}
	summary.IndicatorsTotal = len(indicators)

	p.describe(ctx, indicators)

	updater := NewUpdater(p.store, p.provider)

	workers := p.Workers
	if workers < 1 {
		workers = 1
	}
	jobs := make(chan Indicator)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ind := range jobs {
				res, err := updater.Sync(ctx, ind, r, fullRefresh)
				mu.Lock()
				summary.PointsAdded += res.PointsAdded
				summary.PointsUpdated += res.PointsUpdated
				summary.PointsDeleted += res.PointsDeleted
				summary.Fetches += res.Fetches
				if err != nil {
					summary.Failed[ind.Code] = err
					log.Printf("sync failed for %s: %v", ind.Code, err)
				} else {
					summary.Succeeded++
				}
				mu.Unlock()
			}
		}()
	}

dispatch:
	for _, ind := range indicators {
		select {
		case <-ctx.Done():
			// Stop handing out work; in-flight syncs finish their writes.
			break dispatch
		case jobs <- ind:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

// describe fills in provider metadata for indicators that have none yet.
// Best effort: a failure is logged, never fatal.
func (p *Pipeline) describe(ctx context.Context, indicators []Indicator) {
	for i, ind := range indicators {
		if ind.Title != "" || ctx.Err() != nil {
			continue
		}
		info, err := p.provider.SeriesInfo(ctx, ind.Code)
		if err != nil {
			log.Printf("warning: could not fetch metadata for %s: %v", ind.Code, err)
			continue
		}
		if err := p.store.UpdateIndicatorInfo(ctx, ind.ID, info); err != nil {
			log.Printf("warning: could not store metadata for %s: %v", ind.Code, err)
			continue
		}
		indicators[i].Title = info.Title
		indicators[i].Units = info.Units
		indicators[i].Frequency = info.Frequency
		indicators[i].Seasonal = info.Seasonal
		indicators[i].URL = info.URL
	}
}
