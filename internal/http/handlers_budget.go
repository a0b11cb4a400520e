package http

import (
	"net/http"

	"golang.org/x/sync/errgroup"

	"budgetlens/internal/core"
)

// budgetOverview is the dashboard payload for one month.
type budgetOverview struct {
	Month      int                      `json:"month"`
	Year       int                      `json:"year"`
	Budgets    []core.CategoryStatus    `json:"budgets"`
	Breakdown  []core.CategoryBreakdown `json:"breakdown"`
	GrandTotal core.Money               `json:"grand_total"`
	MonthTotal core.Money               `json:"month_total"`
	Alerts     int                      `json:"alerts"`
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("month") == "" && q.Get("year") == "" {
		bs, err := s.app.Budgets.List(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		NewJSONResponse().Body(bs).Write(w)
		return
	}

	p, err := ParseMonthParams(q, s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	bs, err := s.app.Budgets.ListByMonth(r.Context(), p.Month, p.Year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(bs).Write(w)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := s.app.Budgets.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(b).Write(w)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := s.app.Budgets.Save(r.Context(), req.toBudget(0))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(b).Write(w)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := s.app.Budgets.Get(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := s.app.Budgets.Save(r.Context(), req.toBudget(id))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(b).Write(w)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.app.Budgets.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// handleBudgetStatus evaluates one category-month.
func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	catID, ok, err := queryID(q, "category_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeError(w, r, core.Invalid("category_id", core.ErrUnknownCategory))
		return
	}
	p, err := ParseMonthParams(q, s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	st, err := s.app.Budgets.Evaluate(r.Context(), catID, p.Month, p.Year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(core.CategoryStatus{
		CategoryID: catID,
		Month:      p.Month,
		Year:       p.Year,
		Status:     st,
	}).Write(w)
}

// handleBudgetOverview gathers statuses, the report breakdown and the raw
// month total concurrently.
func (s *Server) handleBudgetOverview(w http.ResponseWriter, r *http.Request) {
	p, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := core.ValidateMonth(p.Month, p.Year); err != nil {
		writeError(w, r, err)
		return
	}

	out := budgetOverview{Month: p.Month, Year: p.Year}
	var rep core.MonthlyReport

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		out.Budgets, err = s.app.Budgets.EvaluateMonth(ctx, p.Month, p.Year)
		return err
	})
	g.Go(func() error {
		var err error
		rep, err = s.monthlyReport(ctx, p.Month, p.Year)
		return err
	})
	g.Go(func() error {
		var err error
		out.MonthTotal, err = s.app.Expenses.MonthTotal(ctx, p.Month, p.Year)
		return err
	})
	if err := g.Wait(); err != nil {
		writeError(w, r, err)
		return
	}

	out.Breakdown = rep.Breakdown
	out.GrandTotal = rep.GrandTotal
	for _, st := range out.Budgets {
		if st.Status.Status.Alerting() {
			out.Alerts++
		}
	}
	NewJSONResponse().Body(out).Write(w)
}
