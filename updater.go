package fredsync

import (
	"context"
	"fmt"
	"log"

	"github.com/etnz/fredsync/date"
)

// Updater syncs one indicator's stored points with the provider.
type Updater struct {
	store    Store
	provider Provider
}

// NewUpdater returns an Updater reading from provider and writing through store.
func NewUpdater(store Store, provider Provider) *Updater {
	return &Updater{store: store, provider: provider}
}

// SyncResult reports what one indicator sync did.
type SyncResult struct {
	PointsAdded   int // new (indicator, date) pairs inserted
	PointsUpdated int // existing pairs whose value was overwritten
	PointsDeleted int // rows removed by a full refresh
	Fetches       int // provider requests issued
}

// Sync brings the stored points of ind within r up to date.
//
// In gap-fill mode (the default) it reads the dates already stored within
// r, computes the missing sub-ranges (contiguous gaps coalesced into a
// single request) and fetches exactly those: a date already present is
// never re-requested. In full-refresh mode it deletes every stored point
// within r first and fetches the whole range.
//
// Retries for rate-limited and transient failures happen inside the
// provider; an error returned here has its retries exhausted or is not
// retryable at all.
func (u *Updater) Sync(ctx context.Context, ind Indicator, r date.Range, fullRefresh bool) (SyncResult, error) {
	var res SyncResult

	if fullRefresh {
		deleted, err := u.store.DeletePoints(ctx, ind.ID, r)
		if err != nil {
			return res, fmt.Errorf("failed to clear points for %s: %w", ind.Code, err)
		}
		res.PointsDeleted = deleted

		obs, err := u.provider.Fetch(ctx, ind.Code, r)
		res.Fetches++
		if err != nil {
			return res, err
		}
		if err := u.store.UpsertPoints(ctx, ind.ID, obs); err != nil {
			return res, fmt.Errorf("failed to store points for %s: %w", ind.Code, err)
		}
		res.PointsAdded = len(obs)
		return res, nil
	}

	stored, err := u.store.Dates(ctx, ind.ID, r)
	if err != nil {
		return res, fmt.Errorf("failed to read stored dates for %s: %w", ind.Code, err)
	}
	gaps := date.Missing(r, stored)
	if len(gaps) == 0 {
		// Everything in range is already stored: no request to make.
		return res, nil
	}

	present := make(map[date.Date]bool, len(stored))
	for _, d := range stored {
		present[d] = true
	}

	for _, gap := range gaps {
		obs, err := u.provider.Fetch(ctx, ind.Code, gap)
		res.Fetches++
		if err != nil {
			return res, err
		}
		if len(obs) == 0 {
			continue
		}
		if err := u.store.UpsertPoints(ctx, ind.ID, obs); err != nil {
			return res, fmt.Errorf("failed to store points for %s: %w", ind.Code, err)
		}
		for _, o := range obs {
			if present[o.Date] {
				res.PointsUpdated++
			} else {
				present[o.Date] = true
				res.PointsAdded++
			}
		}
	}

	if res.PointsAdded > 0 {
		log.Printf("stored %d new data points for %s", res.PointsAdded, ind.Code)
	}
	return res, nil
}
