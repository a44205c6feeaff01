package fredsync_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/etnz/fredsync"
	"github.com/etnz/fredsync/store"
)

// openStore creates a fresh SQLite store in a temporary directory.
func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// mustParse parses catalog rows or fails the test.
func mustParse(t *testing.T, rows []fredsync.Row) []fredsync.ParsedCategory {
	t.Helper()
	parsed, err := fredsync.ParseRows(rows)
	if err != nil {
		t.Fatalf("failed to parse rows: %v", err)
	}
	return parsed
}

var laborRows = []fredsync.Row{
	{Sector: "Labor", Name: "Employment"},
	{Name: "Total Nonfarm Payrolls", Code: "PAYEMS"},
	{Name: "Unemployment Rate", Code: "UNRATE"},
}

func TestReconcileCreatesSectorTree(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	inds, err := fredsync.NewReconciler(s).Reconcile(ctx, mustParse(t, laborRows))
	if err != nil {
		t.Fatal(err)
	}
	if len(inds) != 2 {
		t.Fatalf("want 2 indicators, got %d", len(inds))
	}

	cats, err := s.Categories(ctx)
	if err != nil {
		t.Fatal(err)
	}
	// The sector gets a top-level category, the header hangs under it.
	if len(cats) != 2 {
		t.Fatalf("want 2 categories, got %d", len(cats))
	}
	if cats[0].Name != "Labor" || cats[0].Parent != "" || cats[0].Ordinal != 0 {
		t.Errorf("unexpected sector category %+v", cats[0])
	}
	if cats[1].Name != "Employment" || cats[1].Parent != "Labor" || cats[1].Ordinal != 1 {
		t.Errorf("unexpected header category %+v", cats[1])
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	rec := fredsync.NewReconciler(s)

	first, err := rec.Reconcile(ctx, mustParse(t, laborRows))
	if err != nil {
		t.Fatal(err)
	}
	second, err := rec.Reconcile(ctx, mustParse(t, laborRows))
	if err != nil {
		t.Fatal(err)
	}

	if len(first) != len(second) {
		t.Fatalf("rerun changed the indicator count: %d then %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("indicator %s changed identity: %d then %d", first[i].Code, first[i].ID, second[i].ID)
		}
	}

	cats, err := s.Categories(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(cats) != 2 {
		t.Errorf("rerun must not duplicate categories, got %d", len(cats))
	}
}

func TestReconcileAppendsNewCategoriesAfterExisting(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	rec := fredsync.NewReconciler(s)

	if _, err := rec.Reconcile(ctx, mustParse(t, laborRows)); err != nil {
		t.Fatal(err)
	}

	// Prepend a new sector: existing categories must keep their ordinals,
	// the new ones are appended after the current maximum.
	grown := append([]fredsync.Row{
		{Sector: "Prices", Name: "Inflation"},
		{Name: "Consumer Price Index", Code: "CPIAUCSL"},
	}, laborRows...)
	if _, err := rec.Reconcile(ctx, mustParse(t, grown)); err != nil {
		t.Fatal(err)
	}

	cats, err := s.Categories(ctx)
	if err != nil {
		t.Fatal(err)
	}
	ordinals := make(map[string]int)
	for _, c := range cats {
		ordinals[c.Name] = c.Ordinal
	}
	if ordinals["Labor"] != 0 || ordinals["Employment"] != 1 {
		t.Errorf("existing ordinals moved: %v", ordinals)
	}
	if ordinals["Prices"] != 2 || ordinals["Inflation"] != 3 {
		t.Errorf("new categories must be appended, got %v", ordinals)
	}
}

func TestReconcileNewIndicatorJoinsExistingCategory(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	rec := fredsync.NewReconciler(s)

	if _, err := rec.Reconcile(ctx, mustParse(t, laborRows)); err != nil {
		t.Fatal(err)
	}
	before, err := s.Indicators(ctx)
	if err != nil {
		t.Fatal(err)
	}

	grown := append(append([]fredsync.Row{}, laborRows...),
		fredsync.Row{Name: "New Series", Code: "NEWSER"})
	after, err := rec.Reconcile(ctx, mustParse(t, grown))
	if err != nil {
		t.Fatal(err)
	}

	if len(after) != len(before)+1 {
		t.Fatalf("want exactly one new indicator, got %d then %d", len(before), len(after))
	}
	var created *fredsync.Indicator
	for i := range after {
		if after[i].Code == "NEWSER" {
			created = &after[i]
		}
	}
	if created == nil {
		t.Fatal("NEWSER was not created")
	}
	for _, old := range before {
		if old.Code == "PAYEMS" && created.CategoryID != old.CategoryID {
			t.Errorf("NEWSER must join the existing category %d, got %d", old.CategoryID, created.CategoryID)
		}
	}
}

func TestReconcileMovesIndicator(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	rec := fredsync.NewReconciler(s)

	first, err := rec.Reconcile(ctx, mustParse(t, laborRows))
	if err != nil {
		t.Fatal(err)
	}

	moved := []fredsync.Row{
		{Sector: "Labor", Name: "Employment"},
		{Name: "Unemployment Rate", Code: "UNRATE"},
		{Name: "Wages"},
		{Name: "Total Nonfarm Payrolls", Code: "PAYEMS"},
	}
	second, err := rec.Reconcile(ctx, mustParse(t, moved))
	if err != nil {
		t.Fatal(err)
	}

	byCode := make(map[string]fredsync.Indicator)
	for _, ind := range second {
		byCode[ind.Code] = ind
	}
	var before fredsync.Indicator
	for _, ind := range first {
		if ind.Code == "PAYEMS" {
			before = ind
		}
	}
	after := byCode["PAYEMS"]
	if after.ID != before.ID {
		t.Errorf("move must not change identity: %d then %d", before.ID, after.ID)
	}
	if after.CategoryID == before.CategoryID {
		t.Error("PAYEMS should have moved to the Wages category")
	}
}
