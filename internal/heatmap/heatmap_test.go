package heatmap

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xolan/clinvoice/internal/ledger"
	"github.com/xolan/clinvoice/internal/timesheet"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func day(d time.Time, h string) timesheet.Day {
	return timesheet.Day{
		Date:    d,
		Entries: []timesheet.Entry{timesheet.Time{Hours: decimal.RequireFromString(h), Description: "work"}},
	}
}

func TestDraw_Empty(t *testing.T) {
	var b strings.Builder
	Draw(&b, ledger.New(), 80)
	if !strings.Contains(b.String(), "No entries to draw") {
		t.Errorf("output = %q, expected empty-ledger message", b.String())
	}
}

func TestDraw_Layout(t *testing.T) {
	// 2023-03-06 is a Monday.
	l := ledger.New([]timesheet.Day{
		day(date(2023, time.March, 6), "8"),
		day(date(2023, time.March, 8), "4"),
		day(date(2023, time.March, 14), "2"),
	})

	var b strings.Builder
	Draw(&b, l, 80)
	out := b.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	// Header, seven weekday rows, month footer.
	if len(lines) != 9 {
		t.Fatalf("got %d lines, expected 9:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "      6 13") {
		t.Errorf("header = %q, expected Monday day numbers 6 and 13", lines[0])
	}
	for _, label := range []string{"Mon ", "Wed ", "Fri ", "Sun "} {
		if !strings.Contains(out, label) {
			t.Errorf("output missing day label %q", label)
		}
	}
	if !strings.Contains(lines[8], "Mar") {
		t.Errorf("footer = %q, expected month name", lines[8])
	}
}

func TestDraw_TruncatesToWidth(t *testing.T) {
	// A full year of Mondays is far wider than 26 columns; only the most
	// recent weeks fit.
	var days []timesheet.Day
	for monday := date(2023, time.January, 2); monday.Year() == 2023; monday = monday.AddDate(0, 0, 7) {
		days = append(days, day(monday, "8"))
	}

	var b strings.Builder
	Draw(&b, ledger.New(days), 26)
	header := strings.Split(b.String(), "\n")[0]

	// 26 wide leaves room for (26-5)/3 = 7 week columns.
	if got := len(strings.Fields(header)); got != 7 {
		t.Errorf("header has %d week columns, expected 7: %q", got, header)
	}
	if !strings.Contains(b.String(), "Dec") {
		t.Errorf("truncation should keep the most recent weeks:\n%s", b.String())
	}
}
