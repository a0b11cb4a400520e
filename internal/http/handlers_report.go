package http

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"budgetlens/internal/core"
	"budgetlens/internal/report"
)

func (s *Server) periodFromPath(r *http.Request) (MonthParams, error) {
	year, err := pathInt(r, "year")
	if err != nil {
		return MonthParams{}, err
	}
	month, err := pathInt(r, "month")
	if err != nil {
		return MonthParams{}, err
	}
	return MonthParams{Month: month, Year: year}, nil
}

// reportFor resolves the period in the path and returns its report.
func (s *Server) reportFor(r *http.Request) (core.MonthlyReport, error) {
	p, err := s.periodFromPath(r)
	if err != nil {
		return core.MonthlyReport{}, err
	}
	return s.monthlyReport(r.Context(), p.Month, p.Year)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.reportFor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(rep).Write(w)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	s.writeExport(w, r, "csv", "text/csv; charset=utf-8", report.RenderCSV)
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	s.writeExport(w, r, "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", report.RenderXLSX)
}

type renderFunc func(w io.Writer, r core.MonthlyReport, cats map[int64]core.Category) error

// writeExport renders into memory first so a failed render still yields a
// proper error response.
func (s *Server) writeExport(w http.ResponseWriter, r *http.Request, ext, contentType string, render renderFunc) {
	rep, err := s.reportFor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cats, err := s.app.Reports.Lookup(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := render(&buf, rep, cats); err != nil {
		writeError(w, r, fmt.Errorf("render %s: %w", ext, err))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName(rep.Month, rep.Year, ext)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	kind, err := report.ParseChartKind(mux.Vars(r)["kind"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	rep, err := s.reportFor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := report.RenderChart(&buf, kind, rep); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
