package http

import (
	"net/http"
	"strings"

	"budgetlens/internal/core"
	"budgetlens/internal/log"
)

// handleListExpenses filters by category_id, by an inclusive from/to range,
// or by month and year (the current month when nothing is given).
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	catID, byCategory, err := queryID(q, "category_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	from, to := strings.TrimSpace(q.Get("from")), strings.TrimSpace(q.Get("to"))

	var out []core.Expense
	switch {
	case byCategory:
		out, err = s.app.Expenses.ListByCategory(ctx, catID)
	case from != "" || to != "":
		out, err = s.listRange(r, from, to)
	default:
		var p MonthParams
		if p, err = ParseMonthParams(q, s.now()); err == nil {
			out, err = s.app.Expenses.ListByMonth(ctx, p.Month, p.Year)
		}
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	if out == nil {
		out = []core.Expense{}
	}
	NewJSONResponse().Body(out).Write(w)
}

func (s *Server) listRange(r *http.Request, from, to string) ([]core.Expense, error) {
	var fd, td core.Date
	var err error
	if from != "" {
		if fd, err = core.ParseDate(from); err != nil {
			return nil, core.Invalid("from", core.ErrInvalidDate)
		}
	}
	if to != "" {
		if td, err = core.ParseDate(to); err != nil {
			return nil, core.Invalid("to", core.ErrInvalidDate)
		}
	}
	return s.app.Expenses.ListByDateRange(r.Context(), fd, td)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	e, err := s.app.Expenses.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(e).Write(w)
}

// handleCreateExpense stores the expense even when it breaks the budget;
// the advisory travels back in the response.
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	e := req.toExpense(0)
	e.ID = 0

	res, err := s.app.Expenses.Save(r.Context(), e)
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Expense created",
		log.FieldExpenseID, res.Expense.ID,
		log.FieldStatus, string(res.Status.Status))
	NewJSONResponse().Status(http.StatusCreated).Body(res).Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.app.Expenses.Save(r.Context(), req.toExpense(id))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(res).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.app.Expenses.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// handleCheckExpense answers whether a candidate would fit its budget
// without storing anything. An id marks the candidate as an edit.
func (s *Server) handleCheckExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.app.Budgets.ValidateAgainstBudget(r.Context(), req.toExpense(0))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(res).Write(w)
}
