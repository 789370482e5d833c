package core

import (
	"reflect"
	"testing"
)

func sampleExpenses() []Expense {
	return []Expense{
		{ID: "1", Amount: Money{Cents: 2000}, Category: "Food", Date: NewDate(2024, 1, 1), Description: "Lunch"},
		{ID: "2", Amount: Money{Cents: 3000}, Category: "Transportation", Date: NewDate(2024, 1, 2), Description: "Bus"},
		{ID: "3", Amount: Money{Cents: 450}, Category: "Food", Date: NewDate(2024, 1, 3), Description: "Coffee"},
		{ID: "4", Amount: Money{Cents: 0}, Category: "gym", Date: NewDate(2024, 1, 4), Description: "Free trial"},
	}
}

func ids(items []Expense) []string {
	out := make([]string, 0, len(items))
	for _, e := range items {
		out = append(out, e.ID)
	}
	return out
}

func TestTotal(t *testing.T) {
	if got := Total(nil); got.Cents != 0 {
		t.Fatalf("empty total = %d", got.Cents)
	}
	if got := Total(sampleExpenses()); got.Cents != 5450 {
		t.Fatalf("total = %d, want 5450", got.Cents)
	}
}

func TestCategories(t *testing.T) {
	if got := Categories(nil); !reflect.DeepEqual(got, []string{"All"}) {
		t.Fatalf("empty categories = %v", got)
	}
	want := []string{"All", "Food", "Transportation", "gym"}
	if got := Categories(sampleExpenses()); !reflect.DeepEqual(got, want) {
		t.Fatalf("categories = %v, want %v", got, want)
	}

	// An expense labelled with the sentinel itself does not duplicate it.
	items := append(sampleExpenses(), Expense{ID: "5", Category: "All"})
	if got := Categories(items); !reflect.DeepEqual(got, want) {
		t.Fatalf("categories with sentinel label = %v", got)
	}
}

func TestFilter(t *testing.T) {
	items := sampleExpenses()
	tests := []struct {
		name     string
		category string
		want     []string
	}{
		{"empty selects all", "", []string{"1", "2", "3", "4"}},
		{"sentinel selects all", "All", []string{"1", "2", "3", "4"}},
		{"single category keeps order", "Food", []string{"1", "3"}},
		{"free text category", "gym", []string{"4"}},
		{"unknown category", "Housing", []string{}},
		{"case sensitive", "food", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Filter(items, tt.category))
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Filter(%q) = %v, want %v", tt.category, got, tt.want)
			}
		})
	}
}

func TestByCategory(t *testing.T) {
	got := ByCategory(sampleExpenses())
	want := []CategoryAmount{
		{Name: "Food", Amount: Money{Cents: 2450}},
		{Name: "Transportation", Amount: Money{Cents: 3000}},
		{Name: "gym", Amount: Money{Cents: 0}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ByCategory = %+v, want %+v", got, want)
	}

	totals := CategoryTotals(sampleExpenses())
	if len(totals) != 3 || totals["Food"].Cents != 2450 || totals["Transportation"].Cents != 3000 {
		t.Fatalf("CategoryTotals = %+v", totals)
	}
}

func TestSummarizeScenario(t *testing.T) {
	items := []Expense{
		{ID: "a", Amount: Money{Cents: 2000}, Category: "Food", Date: NewDate(2024, 1, 1), Description: "Lunch"},
		{ID: "b", Amount: Money{Cents: 3000}, Category: "Transportation", Date: NewDate(2024, 1, 2), Description: "Bus"},
	}
	s := Summarize(items)
	if s.Total.Cents != 5000 || s.Count != 2 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if !reflect.DeepEqual(s.Categories, []string{"All", "Food", "Transportation"}) {
		t.Fatalf("unexpected categories %v", s.Categories)
	}
	food := Filter(items, "Food")
	if len(food) != 1 || food[0] != items[0] {
		t.Fatalf("unexpected filter result %+v", food)
	}
	// Total ignores the active filter.
	if Total(items) != s.Total {
		t.Fatalf("total depends on filter")
	}
}

func TestTotalOfLargestAmountsStaysPositive(t *testing.T) {
	items := []Expense{
		{ID: "a", Amount: Money{Cents: MaxAmountCents}, Category: "Housing", Date: NewDate(2024, 1, 1), Description: "Estate"},
		{ID: "b", Amount: Money{Cents: MaxAmountCents}, Category: "Housing", Date: NewDate(2024, 1, 2), Description: "Estate"},
	}
	want := 2 * MaxAmountCents
	if got := Total(items); got.Cents != want {
		t.Fatalf("Total = %d, want %d", got.Cents, want)
	}
	if got := ByCategory(items); got[0].Amount.Cents != want {
		t.Fatalf("ByCategory = %+v", got)
	}
	if got := CategoryTotals(items)["Housing"]; got.Cents != want {
		t.Fatalf("CategoryTotals = %d", got.Cents)
	}
}
