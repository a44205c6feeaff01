package store

import (
	"context"
	"fmt"

	"github.com/etnz/fredsync"
	"github.com/etnz/fredsync/date"
	"github.com/shopspring/decimal"
)

// This file holds the data-point side of the store.
//
// Days are stored as ISO-8601 text, so lexicographic order is
// chronological order and BETWEEN works on the raw column.

// Dates returns the dates already stored for an indicator within r, ascending.
func (s *Store) Dates(ctx context.Context, indicatorID int64, r date.Range) ([]date.Date, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT day FROM points
		WHERE indicator_id = ? AND day BETWEEN ? AND ?
		ORDER BY day`,
		indicatorID, r.From.String(), r.To.String())
	if err != nil {
		return nil, fmt.Errorf("select dates: %w", err)
	}
	defer rows.Close()

	var days []date.Date
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan day: %w", err)
		}
		d, err := date.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("stored day %q is not a date: %w", s, err)
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// Points returns the stored observations for an indicator within r, ascending.
func (s *Store) Points(ctx context.Context, indicatorID int64, r date.Range) ([]fredsync.Observation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT day, value FROM points
		WHERE indicator_id = ? AND day BETWEEN ? AND ?
		ORDER BY day`,
		indicatorID, r.From.String(), r.To.String())
	if err != nil {
		return nil, fmt.Errorf("select points: %w", err)
	}
	defer rows.Close()

	var obs []fredsync.Observation
	for rows.Next() {
		var day, value string
		if err := rows.Scan(&day, &value); err != nil {
			return nil, fmt.Errorf("scan point: %w", err)
		}
		var o fredsync.Observation
		var err error
		if o.Date, err = date.Parse(day); err != nil {
			return nil, fmt.Errorf("stored day %q is not a date: %w", day, err)
		}
		if o.Value, err = decimal.NewFromString(value); err != nil {
			return nil, fmt.Errorf("stored value %q is not a number: %w", value, err)
		}
		obs = append(obs, o)
	}
	return obs, rows.Err()
}

// PointCount returns the number of stored points for an indicator.
func (s *Store) PointCount(ctx context.Context, indicatorID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM points WHERE indicator_id = ?`, indicatorID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count points: %w", err)
	}
	return n, nil
}

// UpsertPoints writes observations for an indicator in one transaction. An
// existing (indicator, day) row gets its value overwritten.
func (s *Store) UpsertPoints(ctx context.Context, indicatorID int64, obs []fredsync.Observation) (retErr error) {
	if len(obs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO points (indicator_id, day, value) VALUES (?, ?, ?)
		ON CONFLICT(indicator_id, day) DO UPDATE SET value = excluded.value`)
	if err != nil {
		retErr = fmt.Errorf("prepare upsert: %w", err)
		return retErr
	}
	defer stmt.Close()

	for _, o := range obs {
		if _, err := stmt.ExecContext(ctx, indicatorID, o.Date.String(), o.Value.String()); err != nil {
			retErr = fmt.Errorf("upsert point %s: %w", o.Date, err)
			return retErr
		}
	}
	if err := tx.Commit(); err != nil {
		retErr = err
		return retErr
	}
	return nil
}

// DeletePoints removes all points for an indicator within r.
func (s *Store) DeletePoints(ctx context.Context, indicatorID int64, r date.Range) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM points WHERE indicator_id = ? AND day BETWEEN ? AND ?`,
		indicatorID, r.From.String(), r.To.String())
	if err != nil {
		return 0, fmt.Errorf("delete points: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}
