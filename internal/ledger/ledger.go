// Package ledger owns the merged, date-ordered collection of parsed
// timesheet records and its read-only range and aggregation views.
package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/xolan/clinvoice/internal/period"
	"github.com/xolan/clinvoice/internal/timesheet"
)

// SourceExt is the timesheet source file extension.
const SourceExt = ".cli"

// DailyRecord is a calendar date and its entries in insertion order.
type DailyRecord struct {
	Date    time.Time
	Entries []timesheet.Entry
}

// Ledger is a date-ordered, date-unique collection of DailyRecords.
// It is built once and never mutated; Filter and Aggregate are views.
type Ledger struct {
	days []DailyRecord
}

// New builds a Ledger by merging dated entry groups from any number of
// sources. Groups sharing a date accumulate entries in the order given;
// the result is sorted ascending with one record per date.
func New(groups ...[]timesheet.Day) Ledger {
	merged := make(map[time.Time][]timesheet.Entry)
	for _, group := range groups {
		for _, day := range group {
			merged[day.Date] = append(merged[day.Date], day.Entries...)
		}
	}

	days := make([]DailyRecord, 0, len(merged))
	for date, entries := range merged {
		days = append(days, DailyRecord{Date: date, Entries: entries})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })

	return Ledger{days: days}
}

// LoadDir parses every .cli file in dir and merges them into one Ledger.
// Files are parsed independently; overlapping dates accumulate entries.
func LoadDir(dir string) (Ledger, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return Ledger{}, fmt.Errorf("reading timesheet directory: %w", err)
	}

	var groups [][]timesheet.Day
	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != SourceExt {
			continue
		}
		path := filepath.Join(dir, file.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			return Ledger{}, fmt.Errorf("reading %s: %w", path, err)
		}
		days, err := timesheet.ParseSource(path, string(content))
		if err != nil {
			return Ledger{}, err
		}
		groups = append(groups, days)
	}

	return New(groups...), nil
}

// Days returns the date-ordered records. Callers must not mutate them.
func (l Ledger) Days() []DailyRecord {
	return l.days
}

// Len returns the number of distinct dates.
func (l Ledger) Len() int {
	return len(l.days)
}

// Filter returns the view of the ledger restricted to the inclusive range.
// The returned Ledger shares the underlying records; nothing is copied.
func (l Ledger) Filter(r period.DateRange) Ledger {
	lo := sort.Search(len(l.days), func(i int) bool {
		return !l.days[i].Date.Before(r.Start)
	})
	hi := sort.Search(len(l.days), func(i int) bool {
		return l.days[i].Date.After(r.End)
	})
	if lo > hi {
		lo = hi
	}
	return Ledger{days: l.days[lo:hi]}
}
