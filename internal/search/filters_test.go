package search

import (
	"testing"
	"time"

	"hanami/internal/sales"
)

func ptr[T any](v T) *T { return &v }

func TestBuildFilters_OmitsUnsupplied(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fs := BuildFilters(Params{
		State:     ptr("SP"),
		City:      ptr(""),
		StartDate: &start,
		MinValue:  ptr(0.0),
	})

	if len(fs) != 3 {
		t.Fatalf("len = %d, want 3 (%v)", len(fs), fs)
	}
	if _, ok := fs[KeyCity]; ok {
		t.Fatalf("empty city should be omitted")
	}
	if v, ok := fs.Float(KeyMinValue); !ok || v != 0 {
		t.Fatalf("min_valor = %v, %v; want 0, true", v, ok)
	}
	if v, ok := fs.Time(KeyStartDate); !ok || !v.Equal(start) {
		t.Fatalf("start_date = %v, want %v", v, start)
	}
}

func TestBuildFilters_Empty(t *testing.T) {
	t.Parallel()

	if fs := BuildFilters(Params{}); len(fs) != 0 {
		t.Fatalf("BuildFilters(empty) = %v, want empty", fs)
	}
}

func TestBuildFilters_NoRangeValidation(t *testing.T) {
	t.Parallel()

	fs := BuildFilters(Params{MinValue: ptr(500.0), MaxValue: ptr(10.0)})
	if len(fs) != 2 {
		t.Fatalf("inverted range should pass through, got %v", fs)
	}
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	s := sales.Sale{FinalValue: ptr(100.0), Date: &day}
	if Match(s, fs) {
		t.Fatalf("inverted range matched a row")
	}
}

func TestMatch(t *testing.T) {
	t.Parallel()

	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	s := sales.Sale{
		State:      ptr("SP"),
		City:       ptr("Campinas"),
		Product:    ptr("Notebook Pro 14"),
		Category:   ptr("eletrônicos"),
		Date:       &day,
		FinalValue: ptr(250.0),
	}

	tests := []struct {
		name string
		p    Params
		want bool
	}{
		{"no filters", Params{}, true},
		{"state", Params{State: ptr("SP")}, true},
		{"state mismatch", Params{State: ptr("RJ")}, false},
		{"product substring", Params{Product: ptr("Pro")}, true},
		{"product case sensitive", Params{Product: ptr("pro")}, false},
		{"inclusive dates", Params{StartDate: &day, EndDate: &day}, true},
		{"before start", Params{StartDate: ptr(day.AddDate(0, 0, 1))}, false},
		{"inclusive values", Params{MinValue: ptr(250.0), MaxValue: ptr(250.0)}, true},
		{"above max", Params{MaxValue: ptr(249.99)}, false},
		{"all conjoined", Params{State: ptr("SP"), City: ptr("Campinas"), Category: ptr("eletrônicos")}, true},
		{"one conjunct fails", Params{State: ptr("SP"), City: ptr("Santos")}, false},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Match(s, BuildFilters(tc.p)); got != tc.want {
				t.Fatalf("Match = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMatch_MissingField(t *testing.T) {
	t.Parallel()

	if Match(sales.Sale{}, BuildFilters(Params{City: ptr("Campinas")})) {
		t.Fatalf("sale without city matched a city filter")
	}
}

func TestClampLimit(t *testing.T) {
	t.Parallel()

	for in, want := range map[int]int{0: 100, -3: 100, 1: 1, 500: 500, 501: 500} {
		if got := ClampLimit(in); got != want {
			t.Fatalf("ClampLimit(%d) = %d, want %d", in, got, want)
		}
	}
}
