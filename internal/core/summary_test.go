package core

import "testing"

func TestSummarizeMonth(t *testing.T) {
	monthStart := NewDay(2026, 9, 1)
	names := map[int64]string{1: "Food", 2: "Transport"}
	expenses := []Expense{
		{Title: "Groceries", Amount: Money{Cents: 4000}, Day: NewDay(2026, 9, 5), CategoryID: 1},
		{Title: "Restaurant", Amount: Money{Cents: 2500}, Day: NewDay(2026, 9, 12), CategoryID: 1},
		{Title: "Train", Amount: Money{Cents: 1200}, Day: NewDay(2026, 9, 3), CategoryID: 2},
		{Title: "Gift", Amount: Money{Cents: 800}, Day: NewDay(2026, 9, 20), CategoryID: 99},
	}

	overview := SummarizeMonth(monthStart, expenses, names)

	if overview.Year != 2026 || overview.Month != 9 {
		t.Fatalf("overview period = %d-%d", overview.Year, overview.Month)
	}
	if overview.Total.Cents != 8500 {
		t.Fatalf("total = %d, want 8500", overview.Total.Cents)
	}

	want := []CategoryAmount{
		{Name: "Food", Amount: Money{Cents: 6500}},
		{Name: "Transport", Amount: Money{Cents: 1200}},
		{Name: MiscellaneousCategory, Amount: Money{Cents: 800}},
	}
	if len(overview.ByCategory) != len(want) {
		t.Fatalf("by category = %+v", overview.ByCategory)
	}
	for i, w := range want {
		if overview.ByCategory[i] != w {
			t.Fatalf("by category[%d] = %+v, want %+v", i, overview.ByCategory[i], w)
		}
	}
}

func TestSummarizeMonthEmpty(t *testing.T) {
	overview := SummarizeMonth(NewDay(2026, 2, 1), nil, nil)
	if overview.Total.Cents != 0 || len(overview.ByCategory) != 0 {
		t.Fatalf("overview = %+v", overview)
	}
}
