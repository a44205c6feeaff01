package fredsync

import (
	"context"
	"fmt"
)

// Reconciler merges a freshly parsed catalog into the persisted one.
type Reconciler struct {
	store Store
}

// NewReconciler returns a Reconciler writing through the given store.
func NewReconciler(store Store) *Reconciler { return &Reconciler{store: store} }

// Reconcile merges parsed categories and indicators against the persisted
// catalog and returns the full resolved list of indicators, existing and
// newly created, in catalog order.
//
// Each distinct sector gets a top-level category of its own; header
// categories hang under their sector. Existing categories keep their
// identity and ordinal, new ones are appended after the current maximum.
// Existing indicators keep their identity and series code but follow the
// catalog when it moves them to another category. The whole pass commits
// in one transaction.
func (r *Reconciler) Reconcile(ctx context.Context, parsed []ParsedCategory) ([]Indicator, error) {
	existing, err := r.store.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read persisted categories: %w", err)
	}

	ordinals := make(map[string]int, len(existing))
	next := 0
	for _, cat := range existing {
		ordinals[cat.Name] = cat.Ordinal
		if cat.Ordinal >= next {
			next = cat.Ordinal + 1
		}
	}
	// ordinal returns the stable position for a category name, assigning
	// the next free one to names never seen before.
	ordinal := func(name string) int {
		if ord, ok := ordinals[name]; ok {
			return ord
		}
		ordinals[name] = next
		next++
		return ordinals[name]
	}

	var cats []CategoryChange
	var inds []IndicatorChange
	seen := make(map[string]bool)
	for _, pc := range parsed {
		if !seen[pc.Sector] {
			seen[pc.Sector] = true
			cats = append(cats, CategoryChange{
				Name:    pc.Sector,
				Sector:  pc.Sector,
				Ordinal: ordinal(pc.Sector),
			})
		}
		if pc.Name != pc.Sector {
			cats = append(cats, CategoryChange{
				Name:    pc.Name,
				Sector:  pc.Sector,
				Parent:  pc.Sector,
				Ordinal: ordinal(pc.Name),
			})
		}
		for _, pi := range pc.Indicators {
			inds = append(inds, IndicatorChange{
				Code:     pi.Code,
				Name:     pi.Name,
				Category: pc.Name,
			})
		}
	}

	_, resolved, err := r.store.ApplyCatalog(ctx, cats, inds)
	if err != nil {
		return nil, fmt.Errorf("failed to apply catalog: %w", err)
	}
	return resolved, nil
}
