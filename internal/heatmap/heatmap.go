// Package heatmap renders a console calendar heatmap of daily worked
// hours, one column per week, Monday-aligned.
package heatmap

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/xolan/clinvoice/internal/ledger"
)

// defaultWidth is assumed when no terminal width is supplied.
const defaultWidth = 80

// intensityStyles are the cell styles from no activity to the busiest day.
var intensityStyles = []lipgloss.Style{
	lipgloss.NewStyle().Foreground(lipgloss.Color("236")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("22")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("28")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
}

var dayLabels = map[int]string{0: "Mon ", 2: "Wed ", 4: "Fri ", 6: "Sun "}

// Draw writes the heatmap for the ledger's daily hours to w. Weeks run
// left to right, truncated from the left to fit the terminal width. Cell
// intensity is scaled to the busiest day.
func Draw(w io.Writer, l ledger.Ledger, width int) {
	buckets := l.Aggregate(ledger.GranularityDay)
	if len(buckets) == 0 {
		fmt.Fprintln(w, "No entries to draw")
		return
	}
	if width <= 0 {
		width = defaultWidth
	}

	hours := make(map[time.Time]decimal.Decimal, len(buckets))
	maxHours := decimal.Zero
	for _, b := range buckets {
		hours[b.Date] = b.Hours
		if b.Hours.GreaterThan(maxHours) {
			maxHours = b.Hours
		}
	}
	startDate := buckets[0].Date
	endDate := buckets[len(buckets)-1].Date

	// Align the first column to the Monday on or before the start.
	firstMonday := startDate
	for firstMonday.Weekday() != time.Monday {
		firstMonday = firstMonday.AddDate(0, 0, -1)
	}

	var weekStarts []time.Time
	for monday := firstMonday; !monday.After(endDate); monday = monday.AddDate(0, 0, 7) {
		weekStarts = append(weekStarts, monday)
	}

	maxWeeks := (width - 5) / 3
	if maxWeeks > 0 && len(weekStarts) > maxWeeks {
		weekStarts = weekStarts[len(weekStarts)-maxWeeks:]
	}

	// Header: day of month for each week's Monday.
	fmt.Fprint(w, "     ")
	for _, monday := range weekStarts {
		fmt.Fprintf(w, "%2d ", monday.Day())
	}
	fmt.Fprintln(w)

	for dayOfWeek := 0; dayOfWeek < 7; dayOfWeek++ {
		label, ok := dayLabels[dayOfWeek]
		if !ok {
			label = "    "
		}
		fmt.Fprint(w, label)

		for _, monday := range weekStarts {
			day := monday.AddDate(0, 0, dayOfWeek)
			if day.Before(startDate) || day.After(endDate) {
				fmt.Fprint(w, "   ")
				continue
			}
			fmt.Fprint(w, cell(hours[day], maxHours))
		}
		fmt.Fprintln(w)
	}

	// Footer: month name under the first week of each month shown.
	fmt.Fprint(w, "     ")
	lastMonth := time.Month(0)
	for _, monday := range weekStarts {
		if monday.Month() != lastMonth {
			fmt.Fprintf(w, "%-3s", monday.Month().String()[:3])
			lastMonth = monday.Month()
		} else {
			fmt.Fprint(w, "   ")
		}
	}
	fmt.Fprintln(w)
}

// cell renders one day at an intensity scaled to the busiest day.
func cell(hours, maxHours decimal.Decimal) string {
	level := 0
	if hours.IsPositive() && maxHours.IsPositive() {
		ratio, _ := hours.Div(maxHours).Float64()
		level = 1 + int(ratio*float64(len(intensityStyles)-2))
		if level >= len(intensityStyles) {
			level = len(intensityStyles) - 1
		}
	}
	return intensityStyles[level].Render(" " + strings.Repeat("◼", 2))
}
