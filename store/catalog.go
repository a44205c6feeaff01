package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/etnz/fredsync"
)

// This file holds the catalog side of the store: categories and indicators.

var _ fredsync.Store = (*Store)(nil)

// Categories returns all persisted categories ordered by ordinal.
func (s *Store) Categories(ctx context.Context) ([]fredsync.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.sector, c.ordinal, COALESCE(p.name, '')
		FROM categories c LEFT JOIN categories p ON c.parent_id = p.id
		ORDER BY c.ordinal`)
	if err != nil {
		return nil, fmt.Errorf("select categories: %w", err)
	}
	defer rows.Close()

	var cats []fredsync.Category
	for rows.Next() {
		var c fredsync.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Sector, &c.Ordinal, &c.Parent); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// Indicators returns all persisted indicators, ordered by their category's
// ordinal and then by identity.
func (s *Store) Indicators(ctx context.Context) ([]fredsync.Indicator, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.id, i.code, i.category_id, i.name, i.title, i.units, i.frequency, i.seasonal, i.url
		FROM indicators i JOIN categories c ON i.category_id = c.id
		ORDER BY c.ordinal, i.id`)
	if err != nil {
		return nil, fmt.Errorf("select indicators: %w", err)
	}
	defer rows.Close()

	var inds []fredsync.Indicator
	for rows.Next() {
		var i fredsync.Indicator
		if err := rows.Scan(&i.ID, &i.Code, &i.CategoryID, &i.Name, &i.Title, &i.Units, &i.Frequency, &i.Seasonal, &i.URL); err != nil {
			return nil, fmt.Errorf("scan indicator: %w", err)
		}
		inds = append(inds, i)
	}
	return inds, rows.Err()
}

// ApplyCatalog upserts the given catalog changes in one transaction.
// Category ordinals are only written on insert: an existing category keeps
// the ordinal it has. An existing indicator keeps its id and code but
// follows the change's display name and owning category.
func (s *Store) ApplyCatalog(ctx context.Context, categories []fredsync.CategoryChange, indicators []fredsync.IndicatorChange) (cats []fredsync.Category, inds []fredsync.Indicator, retErr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	categoryID := func(name string) (int64, error) {
		var id int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM categories WHERE name = ?`, name).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("unknown category %q", name)
		}
		return id, err
	}

	for _, ch := range categories {
		var parentID any // NULL for top-level categories
		if ch.Parent != "" {
			id, err := categoryID(ch.Parent)
			if err != nil {
				retErr = fmt.Errorf("resolve parent of %q: %w", ch.Name, err)
				return nil, nil, retErr
			}
			parentID = id
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO categories (name, sector, ordinal, parent_id) VALUES (?, ?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET sector = excluded.sector, parent_id = excluded.parent_id`,
			ch.Name, ch.Sector, ch.Ordinal, parentID); err != nil {
			retErr = fmt.Errorf("upsert category %q: %w", ch.Name, err)
			return nil, nil, retErr
		}
		var cat fredsync.Category
		cat.Parent = ch.Parent
		if err := tx.QueryRowContext(ctx, `SELECT id, name, sector, ordinal FROM categories WHERE name = ?`, ch.Name).
			Scan(&cat.ID, &cat.Name, &cat.Sector, &cat.Ordinal); err != nil {
			retErr = fmt.Errorf("read back category %q: %w", ch.Name, err)
			return nil, nil, retErr
		}
		cats = append(cats, cat)
	}

	for _, ch := range indicators {
		catID, err := categoryID(ch.Category)
		if err != nil {
			retErr = fmt.Errorf("resolve category of %q: %w", ch.Code, err)
			return nil, nil, retErr
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO indicators (code, category_id, name) VALUES (?, ?, ?)
			ON CONFLICT(code) DO UPDATE SET name = excluded.name, category_id = excluded.category_id`,
			ch.Code, catID, ch.Name); err != nil {
			retErr = fmt.Errorf("upsert indicator %q: %w", ch.Code, err)
			return nil, nil, retErr
		}
		var ind fredsync.Indicator
		if err := tx.QueryRowContext(ctx, `
			SELECT id, code, category_id, name, title, units, frequency, seasonal, url
			FROM indicators WHERE code = ?`, ch.Code).
			Scan(&ind.ID, &ind.Code, &ind.CategoryID, &ind.Name, &ind.Title, &ind.Units, &ind.Frequency, &ind.Seasonal, &ind.URL); err != nil {
			retErr = fmt.Errorf("read back indicator %q: %w", ch.Code, err)
			return nil, nil, retErr
		}
		inds = append(inds, ind)
	}

	if err := tx.Commit(); err != nil {
		retErr = err
		return nil, nil, retErr
	}
	return cats, inds, nil
}

// UpdateIndicatorInfo refreshes the provider metadata of one indicator.
func (s *Store) UpdateIndicatorInfo(ctx context.Context, indicatorID int64, info fredsync.SeriesInfo) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE indicators SET title = ?, units = ?, frequency = ?, seasonal = ?, url = ?
		WHERE id = ?`,
		info.Title, info.Units, info.Frequency, info.Seasonal, info.URL, indicatorID)
	if err != nil {
		return fmt.Errorf("update indicator %d: %w", indicatorID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update indicator %d: no such indicator", indicatorID)
	}
	return nil
}
