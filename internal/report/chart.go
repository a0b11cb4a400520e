package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"budgetlens/internal/core"
)

type ChartKind string

const (
	ChartPie  ChartKind = "pie"
	ChartBar  ChartKind = "bar"
	ChartLine ChartKind = "line"
)

// ErrNoData is returned when a month has nothing to plot.
var ErrNoData = errors.New("no data to chart")

var ErrUnknownChart = errors.New("unknown chart kind, expected pie, bar or line")

func ParseChartKind(s string) (ChartKind, error) {
	switch k := ChartKind(strings.ToLower(strings.TrimSpace(s))); k {
	case ChartPie, ChartBar, ChartLine:
		return k, nil
	}
	return "", ErrUnknownChart
}

// RenderChart draws the report as a PNG: pie and bar from the category
// breakdown, line from cumulative daily spend.
func RenderChart(w io.Writer, kind ChartKind, r core.MonthlyReport) error {
	switch kind {
	case ChartPie:
		return renderPie(w, r)
	case ChartBar:
		return renderBar(w, r)
	case ChartLine:
		return renderLine(w, r)
	}
	return ErrUnknownChart
}

func breakdownValues(r core.MonthlyReport) []chart.Value {
	values := make([]chart.Value, 0, len(r.Breakdown))
	for _, row := range r.Breakdown {
		color := drawing.ColorFromHex(strings.TrimPrefix(row.Color, "#"))
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s (%.1f%%)", row.CategoryName, row.Percentage),
			Value: row.Amount.Float(),
			Style: chart.Style{FillColor: color, StrokeColor: color},
		})
	}
	return values
}

func renderPie(w io.Writer, r core.MonthlyReport) error {
	if len(r.Breakdown) == 0 {
		return ErrNoData
	}
	pie := chart.PieChart{
		Title:  "Spending by category, " + r.Title(),
		Width:  640,
		Height: 640,
		Values: breakdownValues(r),
	}
	if err := pie.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render pie chart: %w", err)
	}
	return nil
}

func renderBar(w io.Writer, r core.MonthlyReport) error {
	if len(r.Breakdown) == 0 {
		return ErrNoData
	}
	const barWidth = 60
	maxValue := r.Breakdown[0].Amount.Float()
	width := len(r.Breakdown)*(barWidth+20) + 200
	if width < 640 {
		width = 640
	}

	bars := breakdownValues(r)
	for i := range bars {
		bars[i].Label = r.Breakdown[i].CategoryName
	}
	bc := chart.BarChart{
		Title:    "Spending by category, " + r.Title(),
		Width:    width,
		Height:   480,
		BarWidth: barWidth,
		Bars:     bars,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: maxValue * 1.1},
		},
	}
	if err := bc.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render bar chart: %w", err)
	}
	return nil
}

func renderLine(w io.Writer, r core.MonthlyReport) error {
	if r.ExpenseTotal.Cents == 0 {
		return ErrNoData
	}
	days := core.DailyTotals(r.Expenses, r.Month, r.Year)
	xs := make([]float64, 0, len(days)+1)
	ys := make([]float64, 0, len(days)+1)
	xs, ys = append(xs, 0), append(ys, 0)
	var running core.Money
	for _, d := range days {
		running = running.Add(d.Amount)
		xs = append(xs, float64(d.Day))
		ys = append(ys, running.Float())
	}

	c := chart.Chart{
		Title:  "Cumulative spending, " + r.Title(),
		Width:  800,
		Height: 480,
		XAxis:  chart.XAxis{Name: "Day"},
		YAxis:  chart.YAxis{Name: "Spent"},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Cumulative spend",
				XValues: xs,
				YValues: ys,
			},
		},
	}
	if err := c.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render line chart: %w", err)
	}
	return nil
}
