package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/etnz/fredsync"
	"github.com/etnz/fredsync/date"
	"github.com/shopspring/decimal"
)

// open creates a fresh store in a temporary directory.
func open(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seed applies a minimal catalog and returns the resolved indicators.
func seed(t *testing.T, s *Store, codes ...string) []fredsync.Indicator {
	t.Helper()
	cats := []fredsync.CategoryChange{
		{Name: "Labor", Sector: "Labor", Ordinal: 0},
		{Name: "Employment", Sector: "Labor", Parent: "Labor", Ordinal: 1},
	}
	var chs []fredsync.IndicatorChange
	for _, code := range codes {
		chs = append(chs, fredsync.IndicatorChange{Code: code, Name: code, Category: "Employment"})
	}
	_, inds, err := s.ApplyCatalog(context.Background(), cats, chs)
	if err != nil {
		t.Fatalf("failed to apply catalog: %v", err)
	}
	return inds
}

func TestApplyCatalogCreatesAndResolves(t *testing.T) {
	s := open(t)
	inds := seed(t, s, "PAYEMS", "UNRATE")

	if len(inds) != 2 {
		t.Fatalf("want 2 indicators, got %d", len(inds))
	}
	if inds[0].Code != "PAYEMS" || inds[1].Code != "UNRATE" {
		t.Errorf("unexpected codes: %q %q", inds[0].Code, inds[1].Code)
	}
	if inds[0].ID == 0 || inds[1].ID == 0 {
		t.Errorf("indicators must get identities, got %d %d", inds[0].ID, inds[1].ID)
	}

	cats, err := s.Categories(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(cats) != 2 {
		t.Fatalf("want 2 categories, got %d", len(cats))
	}
	if cats[0].Name != "Labor" || cats[0].Parent != "" {
		t.Errorf("want top-level Labor first, got %+v", cats[0])
	}
	if cats[1].Name != "Employment" || cats[1].Parent != "Labor" {
		t.Errorf("want Employment under Labor, got %+v", cats[1])
	}
}

func TestApplyCatalogKeepsIdentityAndOrdinal(t *testing.T) {
	s := open(t)
	first := seed(t, s, "PAYEMS")

	// Re-apply with a different sector label and a colliding ordinal: the
	// category must keep the ordinal it already has.
	cats, inds, err := s.ApplyCatalog(context.Background(),
		[]fredsync.CategoryChange{
			{Name: "Labor", Sector: "Labour", Ordinal: 7},
			{Name: "Employment", Sector: "Labour", Parent: "Labor", Ordinal: 8},
		},
		[]fredsync.IndicatorChange{{Code: "PAYEMS", Name: "Nonfarm Payrolls", Category: "Employment"}},
	)
	if err != nil {
		t.Fatal(err)
	}
	if cats[0].Ordinal != 0 || cats[1].Ordinal != 1 {
		t.Errorf("ordinals must be stable, got %d and %d", cats[0].Ordinal, cats[1].Ordinal)
	}
	if cats[0].Sector != "Labour" {
		t.Errorf("sector label must follow the catalog, got %q", cats[0].Sector)
	}
	if inds[0].ID != first[0].ID {
		t.Errorf("indicator identity changed: %d then %d", first[0].ID, inds[0].ID)
	}
	if inds[0].Name != "Nonfarm Payrolls" {
		t.Errorf("display name must follow the catalog, got %q", inds[0].Name)
	}
}

func TestApplyCatalogMovesIndicator(t *testing.T) {
	s := open(t)
	first := seed(t, s, "PAYEMS")

	_, inds, err := s.ApplyCatalog(context.Background(),
		[]fredsync.CategoryChange{
			{Name: "Labor", Sector: "Labor", Ordinal: 0},
			{Name: "Wages", Sector: "Labor", Parent: "Labor", Ordinal: 2},
		},
		[]fredsync.IndicatorChange{{Code: "PAYEMS", Name: "PAYEMS", Category: "Wages"}},
	)
	if err != nil {
		t.Fatal(err)
	}
	if inds[0].ID != first[0].ID {
		t.Errorf("move must not change identity: %d then %d", first[0].ID, inds[0].ID)
	}
	if inds[0].CategoryID == first[0].CategoryID {
		t.Error("indicator should have moved to another category")
	}
}

func TestApplyCatalogUnknownCategoryRollsBack(t *testing.T) {
	s := open(t)

	_, _, err := s.ApplyCatalog(context.Background(),
		[]fredsync.CategoryChange{{Name: "Labor", Sector: "Labor", Ordinal: 0}},
		[]fredsync.IndicatorChange{{Code: "PAYEMS", Name: "PAYEMS", Category: "Nope"}},
	)
	if err == nil {
		t.Fatal("want an error for an unknown category")
	}

	// The failed transaction must not leave the category behind.
	cats, err := s.Categories(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(cats) != 0 {
		t.Errorf("rollback left %d categories behind", len(cats))
	}
}

func TestUpdateIndicatorInfo(t *testing.T) {
	s := open(t)
	ind := seed(t, s, "PAYEMS")[0]

	info := fredsync.SeriesInfo{
		Title:     "All Employees, Total Nonfarm",
		Units:     "Thousands of Persons",
		Frequency: "Monthly",
		Seasonal:  "Seasonally Adjusted",
		URL:       "https://fred.stlouisfed.org/series/PAYEMS",
	}
	if err := s.UpdateIndicatorInfo(context.Background(), ind.ID, info); err != nil {
		t.Fatal(err)
	}
	inds, err := s.Indicators(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if inds[0].Title != info.Title || inds[0].Units != info.Units {
		t.Errorf("metadata not persisted: %+v", inds[0])
	}

	if err := s.UpdateIndicatorInfo(context.Background(), 999, info); err == nil {
		t.Error("want an error for an unknown indicator")
	}
}

func obs(d date.Date, v string) fredsync.Observation {
	return fredsync.Observation{Date: d, Value: decimal.RequireFromString(v)}
}

func TestUpsertPointsOverwrites(t *testing.T) {
	s := open(t)
	ind := seed(t, s, "PAYEMS")[0]
	ctx := context.Background()
	day := date.New(2020, time.January, 1)

	if err := s.UpsertPoints(ctx, ind.ID, []fredsync.Observation{obs(day, "100.5")}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertPoints(ctx, ind.ID, []fredsync.Observation{obs(day, "101.25")}); err != nil {
		t.Fatal(err)
	}

	n, err := s.PointCount(ctx, ind.ID)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("want exactly one point per date, got %d", n)
	}
	points, err := s.Points(ctx, ind.ID, date.NewRange(day, day))
	if err != nil {
		t.Fatal(err)
	}
	if got := points[0].Value.String(); got != "101.25" {
		t.Errorf("want last write to win, got %s", got)
	}
}

func TestDatesAndPointsRangeBounds(t *testing.T) {
	s := open(t)
	ind := seed(t, s, "PAYEMS")[0]
	ctx := context.Background()

	var batch []fredsync.Observation
	for d := 1; d <= 5; d++ {
		batch = append(batch, obs(date.New(2020, time.March, d), "1"))
	}
	if err := s.UpsertPoints(ctx, ind.ID, batch); err != nil {
		t.Fatal(err)
	}

	r := date.NewRange(date.New(2020, time.March, 2), date.New(2020, time.March, 4))
	days, err := s.Dates(ctx, ind.ID, r)
	if err != nil {
		t.Fatal(err)
	}
	if len(days) != 3 {
		t.Fatalf("want 3 days in range, got %d", len(days))
	}
	// Both bounds are inclusive and results come back ascending.
	if days[0] != r.From || days[2] != r.To {
		t.Errorf("want %s..%s, got %s..%s", r.From, r.To, days[0], days[2])
	}
}

func TestDeletePoints(t *testing.T) {
	s := open(t)
	ind := seed(t, s, "PAYEMS")[0]
	ctx := context.Background()

	for d := 1; d <= 4; d++ {
		if err := s.UpsertPoints(ctx, ind.ID, []fredsync.Observation{obs(date.New(2020, time.June, d), "1")}); err != nil {
			t.Fatal(err)
		}
	}

	r := date.NewRange(date.New(2020, time.June, 2), date.New(2020, time.June, 3))
	n, err := s.DeletePoints(ctx, ind.ID, r)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("want 2 deleted, got %d", n)
	}
	count, err := s.PointCount(ctx, ind.ID)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("want 2 points left, got %d", count)
	}
}
