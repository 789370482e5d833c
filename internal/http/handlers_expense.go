package http

import (
	"errors"
	"net/http"
	"strings"

	"expensetracker/internal/core"
	"expensetracker/internal/intake"
	applog "expensetracker/internal/log"
	"expensetracker/internal/store"
)

type expenseListResponse struct {
	Expenses       []core.Expense `json:"expenses"`
	Count          int            `json:"count"`
	Total          core.Money     `json:"total"`
	TotalFormatted string         `json:"total_formatted"`
	Category       string         `json:"category"`
	Categories     []string       `json:"categories"`
}

type expenseCreatedResponse struct {
	Expense core.Expense `json:"expense"`
	Form    intake.Form  `json:"form"`
}

type expenseResponse struct {
	Expense core.Expense `json:"expense"`
}

// handleListExpenses returns the expenses of the selected category. The total always
// covers the whole collection.
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	items, tag, fresh := s.snapshot(r)
	if fresh {
		NotModified(tag).Write(w)
		return
	}

	category := strings.TrimSpace(r.URL.Query().Get("category"))
	if category == "" {
		category = core.AllCategories
	}
	filtered := core.Filter(items, category)
	if filtered == nil {
		filtered = []core.Expense{}
	}
	total := core.Total(items)

	NewJSONResponse().
		ETag(tag).
		JSON(expenseListResponse{
			Expenses:       filtered,
			Count:          len(filtered),
			Total:          total,
			TotalFormatted: core.FormatAmount(s.currency, total),
			Category:       category,
			Categories:     core.Categories(items),
		}).
		Write(w)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	e, ok := s.store.Get(r.PathValue("id"))
	if !ok {
		NotFoundError("expense not found").Write(w)
		return
	}
	NewJSONResponse().JSON(expenseResponse{Expense: e}).Write(w)
}

// handleCreateExpense validates a submission and adds it. Invalid submissions are
// answered with 422 and the submitted values so the client can show them again.
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	form, err := ParseExpenseForm(w, r)
	if err != nil {
		if errors.Is(err, errBodyTooLarge) {
			ErrorResponse(http.StatusRequestEntityTooLarge, err.Error()).Write(w)
			return
		}
		logger.WarnContext(ctx, "Malformed expense submission", applog.FieldError, err.Error())
		BadRequestError("malformed request body").Write(w)
		return
	}

	e, err := s.service.CreateExpense(ctx, form)
	if err != nil {
		if fields, ok := intake.FieldErrors(err); ok {
			NewJSONResponse().
				Status(http.StatusUnprocessableEntity).
				JSON(ErrorBody{Error: "invalid expense", Fields: fields, Form: form}).
				Write(w)
			return
		}
		if errors.Is(err, store.ErrPersist) {
			InternalServerError("expense could not be saved").Write(w)
			return
		}
		logger.ErrorContext(ctx, "Create expense failed", applog.FieldError, err.Error())
		InternalServerError("internal error").Write(w)
		return
	}

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/expenses/"+e.ID).
		JSON(expenseCreatedResponse{Expense: e, Form: s.service.DefaultForm()}).
		Write(w)
}

// handleDeleteExpense answers 204 whether or not the id existed.
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if _, err := s.service.DeleteExpense(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrPersist) {
			InternalServerError("deletion could not be saved").Write(w)
			return
		}
		InternalServerError("internal error").Write(w)
		return
	}
	NoContent().Write(w)
}
