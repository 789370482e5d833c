package http

import (
	"net/http"

	"expensetracker/internal/core"
	"expensetracker/internal/intake"
)

type formResponse struct {
	Form       intake.Form `json:"form"`
	Categories []string    `json:"categories"`
}

type summaryResponse struct {
	Total          core.Money            `json:"total"`
	TotalFormatted string                `json:"total_formatted"`
	Currency       string                `json:"currency"`
	Count          int                   `json:"count"`
	Categories     []string              `json:"categories"`
	ByCategory     []categoryAmountEntry `json:"by_category"`
}

type categoryAmountEntry struct {
	core.CategoryAmount
	Formatted string `json:"formatted"`
}

type categoriesResponse struct {
	Categories []string `json:"categories"`
	Options    []string `json:"options"`
}

// handleForm returns the blank form and the category options it offers.
func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().
		JSON(formResponse{Form: s.service.DefaultForm(), Categories: core.DefaultCategories}).
		Write(w)
}

// handleSummary returns the totals used for the header and the category chart.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	items, tag, fresh := s.snapshot(r)
	if fresh {
		NotModified(tag).Write(w)
		return
	}

	sum := core.Summarize(items)
	rows := make([]categoryAmountEntry, 0, len(sum.ByCategory))
	for _, row := range sum.ByCategory {
		rows = append(rows, categoryAmountEntry{CategoryAmount: row, Formatted: core.FormatAmount(s.currency, row.Amount)})
	}

	NewJSONResponse().
		ETag(tag).
		JSON(summaryResponse{
			Total:          sum.Total,
			TotalFormatted: core.FormatAmount(s.currency, sum.Total),
			Currency:       s.currency,
			Count:          sum.Count,
			Categories:     sum.Categories,
			ByCategory:     rows,
		}).
		Write(w)
}

// handleCategories returns the filter choices and the fixed form options.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	items, tag, fresh := s.snapshot(r)
	if fresh {
		NotModified(tag).Write(w)
		return
	}
	NewJSONResponse().
		ETag(tag).
		JSON(categoriesResponse{Categories: core.Categories(items), Options: core.DefaultCategories}).
		Write(w)
}
