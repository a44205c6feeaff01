package fredsync

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// This file loads the catalog definition: an ordered sequence of rows
// describing sectors, category headers and the indicators under them.

// Row is one validated line of the catalog source.
type Row struct {
	Sector   string // sector label; blank inherits the previous row's sector
	Category string // category name on header rows, usually blank otherwise
	Name     string // indicator (or category) display name
	Code     string // external series code; blank on category header rows
	Line     int    // 1-based line in the source file; 0 for rows built in memory
}

// ParsedIndicator is an indicator entry read from the catalog source.
type ParsedIndicator struct {
	Name string
	Code string
}

// ParsedCategory is a category entry read from the catalog source, with its
// indicators in source order.
type ParsedCategory struct {
	Sector     string
	Name       string
	Indicators []ParsedIndicator
}

// MalformedCatalogError reports a catalog source that violates the row
// schema. It is fatal for a whole run: no network or storage work happens
// after it.
type MalformedCatalogError struct {
	Line   int // 1-based row number in the source
	Reason string
}

func (e *MalformedCatalogError) Error() string {
	return fmt.Sprintf("malformed catalog row %d: %s", e.Line, e.Reason)
}

// cleanCode strips whitespace and the zero-width characters that
// spreadsheet exports tend to smuggle into series codes.
func cleanCode(code string) string {
	code = strings.TrimSpace(code)
	return strings.NewReplacer("\u200b", "", "\u200c", "", "\u200d", "").Replace(code)
}

// isHeader reports whether a row introduces a category rather than an
// indicator: its series code is blank or textually equal to its display name.
func (r Row) isHeader() bool {
	code := cleanCode(r.Code)
	return code == "" || code == strings.TrimSpace(r.Name)
}

// ParseRows turns the catalog rows into an ordered sequence of categories,
// each holding its indicators in source order. It is a pure function: no
// side effects, deterministic for the same input.
//
// An indicator row appearing before any category header, or missing a
// required column, yields a *MalformedCatalogError.
func ParseRows(rows []Row) ([]ParsedCategory, error) {
	var cats []ParsedCategory
	byName := make(map[string]int) // category name -> index in cats

	cur := -1      // index of the most recently seen category header
	sector := ""   // forward-filled sector label
	lastCode := "" // to skip consecutive duplicate rows
	for i, row := range rows {
		line := row.Line
		if line == 0 {
			line = i + 1
		}
		if s := strings.TrimSpace(row.Sector); s != "" {
			sector = s
		}
		name := strings.TrimSpace(row.Name)
		code := cleanCode(row.Code)

		if row.isHeader() {
			catName := strings.TrimSpace(row.Category)
			if catName == "" {
				catName = name
			}
			if catName == "" {
				return nil, &MalformedCatalogError{Line: line, Reason: "category header without a name"}
			}
			if sector == "" {
				return nil, &MalformedCatalogError{Line: line, Reason: fmt.Sprintf("category %q has no sector", catName)}
			}
			idx, ok := byName[catName]
			if !ok {
				idx = len(cats)
				byName[catName] = idx
				cats = append(cats, ParsedCategory{Sector: sector, Name: catName})
			}
			// A repeated header re-selects its category: following
			// indicators attach to it, not to the last appended one.
			cur = idx
			lastCode = ""
			continue
		}

		// Indicator row.
		if name == "" {
			return nil, &MalformedCatalogError{Line: line, Reason: fmt.Sprintf("indicator %q has no display name", code)}
		}
		if sector == "" {
			return nil, &MalformedCatalogError{Line: line, Reason: fmt.Sprintf("indicator %q has no sector", code)}
		}
		if cur < 0 {
			return nil, &MalformedCatalogError{Line: line, Reason: fmt.Sprintf("indicator %q appears before any category header", code)}
		}
		if code == lastCode {
			// Spreadsheet exports often repeat the previous row verbatim.
			continue
		}
		lastCode = code

		cat := &cats[cur]
		cat.Indicators = append(cat.Indicators, ParsedIndicator{Name: name, Code: code})
	}
	return cats, nil
}

// DecodeRows reads catalog rows from CSV content with the four columns
// sector, category, name, code. A leading header line is skipped.
func DecodeRows(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // validated per record below

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog csv: %w", err)
	}

	var rows []Row
	for i, rec := range records {
		if len(rec) < 4 {
			return nil, &MalformedCatalogError{Line: i + 1, Reason: fmt.Sprintf("want 4 columns, got %d", len(rec))}
		}
		row := Row{Sector: rec[0], Category: rec[1], Name: rec[2], Code: rec[3], Line: i + 1}
		if i == 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "sector") {
			// header line, not data
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}
