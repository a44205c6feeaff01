package fredsync

// Category groups indicators under a sector. Its ordinal is its stable
// position in the catalog: once assigned it never changes, and new
// categories are only ever appended after the current maximum, so external
// references to a position remain valid across reconciliations.
type Category struct {
	ID      int64
	Name    string
	Sector  string
	Ordinal int
	Parent  string // name of the parent category, empty when top-level
}

// Indicator is a single economic time series. It belongs to exactly one
// category. The ID and series Code are immutable once created; display
// metadata and the owning category may be refreshed by reconciliation.
type Indicator struct {
	ID         int64
	Code       string // external series code, e.g. "PAYEMS"
	CategoryID int64
	Name       string
	Title      string // provider's own title for the series
	Units      string
	Frequency  string
	Seasonal   string // seasonal adjustment, as reported by the provider
	URL        string // provider page for the series
}

// CategoryChange is the desired state of one category in a reconciliation
// pass. Categories are matched by name; Ordinal is only honored when the
// category does not exist yet.
type CategoryChange struct {
	Name    string
	Sector  string
	Parent  string // parent category name, resolved within the same pass
	Ordinal int
}

// IndicatorChange is the desired state of one indicator in a reconciliation
// pass. Indicators are matched by series code; Category names the owning
// category, resolved within the same pass.
type IndicatorChange struct {
	Code     string
	Name     string
	Category string
}
