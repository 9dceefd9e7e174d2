package core

import "sort"

// CategoryAmount is an amount aggregated under a category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// MonthOverview is a compact spending summary for one month. Income
// entries carry negative amounts, so Total is the net for the month.
type MonthOverview struct {
	Year       int
	Month      int // 1-12
	Total      Money
	ByCategory []CategoryAmount
}

// SummarizeMonth aggregates the given expenses into a MonthOverview.
// Categories missing from names are grouped under the miscellaneous
// category. The per-category breakdown is sorted by descending amount.
func SummarizeMonth(monthStart Day, expenses []Expense, names map[int64]string) MonthOverview {
	var total int64
	byCategory := make(map[string]int64)
	for _, e := range expenses {
		total += e.Amount.Cents
		name, ok := names[e.CategoryID]
		if !ok {
			name = MiscellaneousCategory
		}
		byCategory[name] += e.Amount.Cents
	}

	list := make([]CategoryAmount, 0, len(byCategory))
	for name, cents := range byCategory {
		list = append(list, CategoryAmount{Name: name, Amount: Money{Cents: cents}})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Amount.Cents != list[j].Amount.Cents {
			return list[i].Amount.Cents > list[j].Amount.Cents
		}
		return list[i].Name < list[j].Name
	})

	return MonthOverview{
		Year:       monthStart.Year,
		Month:      int(monthStart.Month),
		Total:      Money{Cents: total},
		ByCategory: list,
	}
}
