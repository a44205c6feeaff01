package fredsync

import (
	"context"

	"github.com/etnz/fredsync/date"
)

// Store is the persistence handle shared by the reconciler, the updater and
// the pipeline. Implementations guarantee at most one point per
// (indicator, date) pair at the schema level, so concurrent upserts to the
// same key serialize into a last-write-wins outcome, never a duplicate.
type Store interface {
	// Categories returns all persisted categories ordered by ordinal.
	Categories(ctx context.Context) ([]Category, error)
	// Indicators returns all persisted indicators in catalog order.
	Indicators(ctx context.Context) ([]Indicator, error)

	// ApplyCatalog persists the given catalog changes in a single
	// transaction: either the whole set commits or none of it does.
	// Categories are matched by name, indicators by code. An existing
	// category keeps its identity and ordinal; an existing indicator keeps
	// its identity and code but may move category and refresh its display
	// name. The returned slices carry the assigned identities, in input order.
	ApplyCatalog(ctx context.Context, categories []CategoryChange, indicators []IndicatorChange) ([]Category, []Indicator, error)

	// UpdateIndicatorInfo refreshes the provider metadata of one indicator.
	UpdateIndicatorInfo(ctx context.Context, indicatorID int64, info SeriesInfo) error

	// Dates returns the dates already stored for an indicator within r,
	// in ascending order.
	Dates(ctx context.Context, indicatorID int64, r date.Range) ([]date.Date, error)
	// Points returns the stored observations for an indicator within r,
	// in ascending date order.
	Points(ctx context.Context, indicatorID int64, r date.Range) ([]Observation, error)
	// PointCount returns the number of stored points for an indicator.
	PointCount(ctx context.Context, indicatorID int64) (int, error)

	// UpsertPoints writes observations for an indicator. A (indicator, date)
	// pair that already exists gets its value overwritten; a new pair is
	// inserted. The whole batch commits in one transaction.
	UpsertPoints(ctx context.Context, indicatorID int64, obs []Observation) error
	// DeletePoints removes all points for an indicator within r and
	// returns how many rows were deleted.
	DeletePoints(ctx context.Context, indicatorID int64, r date.Range) (int, error)
}
