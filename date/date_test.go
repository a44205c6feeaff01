package date

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewNormalizes(t *testing.T) {
	// Day 0 of March is the last day of February.
	d := New(2024, time.March, 0)
	if got, want := d.String(), "2024-02-29"; got != want {
		t.Errorf("New(2024, March, 0) = %v want %v", got, want)
	}
}

func TestParse(t *testing.T) {
	d, err := Parse("2020-1-2")
	if err != nil {
		t.Fatalf("Parse() unexpected error = %v", err)
	}
	if got, want := d.String(), "2020-01-02"; got != want {
		t.Errorf("Parse(2020-1-2) = %v want %v", got, want)
	}

	if _, err := Parse("not-a-date"); err == nil {
		t.Error("Parse(not-a-date) expected an error")
	}
}

func TestAdd(t *testing.T) {
	d := New(2020, time.December, 31)
	if got, want := d.Add(1), New(2021, time.January, 1); got != want {
		t.Errorf("Add(1) = %v want %v", got, want)
	}
	if got, want := d.Add(-31), New(2020, time.November, 30); got != want {
		t.Errorf("Add(-31) = %v want %v", got, want)
	}
}

func TestCompare(t *testing.T) {
	a, b := New(2020, time.January, 1), New(2020, time.January, 2)
	if a.Compare(b) != -1 || b.Compare(a) != 1 || a.Compare(a) != 0 {
		t.Errorf("Compare() ordering is wrong: %d %d %d", a.Compare(b), b.Compare(a), a.Compare(a))
	}
}

func TestJSONRoundTrip(t *testing.T) {
	d := New(2021, time.June, 15)
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() unexpected error = %v", err)
	}
	if string(b) != `"2021-06-15"` {
		t.Errorf("Marshal() = %s want %q", b, "2021-06-15")
	}
	var back Date
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("Unmarshal() unexpected error = %v", err)
	}
	if back != d {
		t.Errorf("round trip = %v want %v", back, d)
	}
}
