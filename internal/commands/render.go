package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"budgetlens/internal/core"
)

var (
	colorBorder = lipgloss.Color("#575653")
	colorText   = lipgloss.Color("#FFFCF0")
	colorAccent = lipgloss.Color("#3AA99F")
	colorGreen  = lipgloss.Color("#879A39")
	colorOrange = lipgloss.Color("#DA702C")
	colorRed    = lipgloss.Color("#D14D41")
	colorMuted  = lipgloss.Color("#6F6E69")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorText)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	borderStyle = lipgloss.NewStyle().Foreground(colorBorder)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	okStyle     = lipgloss.NewStyle().Foreground(colorGreen)
	warnStyle   = lipgloss.NewStyle().Foreground(colorOrange)
	badStyle    = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
)

// Table is a bordered text table. The first column is left aligned, the
// rest right aligned. A row holding the single cell "---" draws a rule.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

func renderTitle(title string) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Width(50).
		Align(lipgloss.Center).
		Padding(0, 1)
	return box.Render(titleStyle.Render(title))
}

func renderTable(t Table) string {
	cols := len(t.Headers)
	if cols == 0 {
		return ""
	}
	widths := make([]int, cols)
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i := 0; i < cols && i < len(row); i++ {
			if w := lipgloss.Width(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	rule := func(left, mid, right string) string {
		parts := make([]string, cols)
		for i, w := range widths {
			parts[i] = strings.Repeat("─", w+2)
		}
		return borderStyle.Render(left+strings.Join(parts, mid)+right) + "\n"
	}
	line := func(cells []string, style lipgloss.Style) string {
		var b strings.Builder
		b.WriteString(borderStyle.Render("│"))
		for i := 0; i < cols; i++ {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			pad := strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
			if i == 0 {
				cell += pad
			} else {
				cell = pad + cell
			}
			b.WriteString(" " + style.Render(cell) + " ")
			b.WriteString(borderStyle.Render("│"))
		}
		return b.String() + "\n"
	}

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  " + headerStyle.Render(t.Title) + "\n")
	}
	b.WriteString(rule("╭", "┬", "╮"))
	b.WriteString(line(t.Headers, headerStyle))
	b.WriteString(rule("├", "┼", "┤"))
	for _, row := range t.Rows {
		if len(row) == 1 && row[0] == "---" {
			b.WriteString(rule("├", "┼", "┤"))
			continue
		}
		b.WriteString(line(row, lipgloss.NewStyle()))
	}
	b.WriteString(rule("╰", "┴", "╯"))
	return b.String()
}

func formatMoney(m core.Money) string {
	if m.Cents < 0 {
		return "-$" + core.Cents(-m.Cents).String()
	}
	return "$" + m.String()
}

func formatStatus(s core.Status) string {
	switch s {
	case core.StatusOK:
		return okStyle.Render(string(s))
	case core.StatusWarning:
		return warnStyle.Render(string(s))
	case core.StatusExceeded:
		return badStyle.Render(string(s))
	}
	return mutedStyle.Render(string(s))
}

// utilizationBar draws a ten cell gauge capped at 100%.
func utilizationBar(pct float64) string {
	filled := int(pct / 10)
	if filled > 10 {
		filled = 10
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + mutedStyle.Render(strings.Repeat("░", 10-filled))
}

func formatPercent(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}
