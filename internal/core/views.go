package core

// AllCategories is the sentinel that selects every expense in the category filter.
const AllCategories = "All"

// DefaultCategories are the labels offered by the expense form. Other non-empty
// labels are accepted as well.
var DefaultCategories = []string{
	"Food", "Transportation", "Housing", "Utilities",
	"Entertainment", "Healthcare", "Shopping", "Other",
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string `json:"category"`
	Amount Money  `json:"amount"`
}

// Summary bundles the derived views shown next to the expense list.
type Summary struct {
	Total      Money            `json:"total"`
	Count      int              `json:"count"`
	Categories []string         `json:"categories"`
	ByCategory []CategoryAmount `json:"by_category"`
}

// Total sums the amount of every expense.
func Total(items []Expense) Money {
	var total Money
	for _, e := range items {
		total = total.Add(e.Amount)
	}
	return total
}

// Categories returns the filter choices: the AllCategories sentinel followed by the
// distinct categories in order of first appearance.
func Categories(items []Expense) []string {
	out := []string{AllCategories}
	seen := map[string]struct{}{AllCategories: {}}
	for _, e := range items {
		if _, ok := seen[e.Category]; ok {
			continue
		}
		seen[e.Category] = struct{}{}
		out = append(out, e.Category)
	}
	return out
}

// Filter returns items unchanged for "" and AllCategories, otherwise the expenses of
// that category in their original order.
func Filter(items []Expense, category string) []Expense {
	if category == "" || category == AllCategories {
		return items
	}
	out := make([]Expense, 0, len(items))
	for _, e := range items {
		if e.Category == category {
			out = append(out, e)
		}
	}
	return out
}

// ByCategory aggregates amounts per category, ordered by first appearance.
func ByCategory(items []Expense) []CategoryAmount {
	out := make([]CategoryAmount, 0)
	index := make(map[string]int)
	for _, e := range items {
		i, ok := index[e.Category]
		if !ok {
			i = len(out)
			index[e.Category] = i
			out = append(out, CategoryAmount{Name: e.Category})
		}
		out[i].Amount = out[i].Amount.Add(e.Amount)
	}
	return out
}

// CategoryTotals is ByCategory as a plain mapping.
func CategoryTotals(items []Expense) map[string]Money {
	totals := make(map[string]Money)
	for _, e := range items {
		totals[e.Category] = totals[e.Category].Add(e.Amount)
	}
	return totals
}

func Summarize(items []Expense) Summary {
	return Summary{
		Total:      Total(items),
		Count:      len(items),
		Categories: Categories(items),
		ByCategory: ByCategory(items),
	}
}
