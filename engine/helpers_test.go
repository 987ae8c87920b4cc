package engine

import (
	"math"
	"testing"
	"time"
)

// ── Test Data ─────────────────────────────────────────────────────────────────

var sampleNames = []string{"genre", "rating", "revenue", "year", "director"}

var sampleRows = [][]any{
	{"Action", 8.5, 100, 2020, "A"},
	{"Comedy", 7.2, 50, 2021, "B"},
	{"Drama", 9.1, 80, 2020, "C"},
	{"Action", 7.8, 120, 2021, "A"},
	{"Comedy", 6.9, 45, 2022, "B"},
	{"Drama", 8.7, 90, 2022, "C"},
}

func sampleTable(t *testing.T) *Table {
	t.Helper()
	rows := make([][]any, len(sampleRows))
	for i, r := range sampleRows {
		rows[i] = append([]any(nil), r...)
	}
	tbl, err := NewTableFromRows(sampleNames, rows)
	if err != nil {
		t.Fatalf("NewTableFromRows failed: %v", err)
	}
	return tbl
}

func mustProposal(t *testing.T, record string) Proposal {
	t.Helper()
	p, err := ParseProposal([]byte(record))
	if err != nil {
		t.Fatalf("ParseProposal(%s) failed: %v", record, err)
	}
	return p
}

// ── Assertions ────────────────────────────────────────────────────────────────

func assertEqual[T comparable](t *testing.T, got, want T, msg string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: got %v, want %v", msg, got, want)
	}
}

func assertClose(t *testing.T, got, want float64, msg string) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s: got %v, want %v", msg, got, want)
	}
}

func columnValues(t *testing.T, tbl *Table, name string) []any {
	t.Helper()
	c, ok := tbl.Column(name)
	if !ok {
		t.Fatalf("column %q missing (have %v)", name, tbl.Names())
	}
	return c.Values
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, ok := ParseTime(s)
	if !ok {
		t.Fatalf("ParseTime(%q) failed", s)
	}
	return ts
}
