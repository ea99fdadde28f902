package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xolan/clinvoice/internal/timesheet"
)

// Granularity selects how aggregation collapses records into buckets.
type Granularity string

const (
	GranularityFull  Granularity = "full"
	GranularityDay   Granularity = "day"
	GranularityMonth Granularity = "month"
	GranularityYear  Granularity = "year"
)

// ParseGranularity validates a user-supplied granularity name.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case GranularityFull, GranularityDay, GranularityMonth, GranularityYear:
		return Granularity(s), nil
	}
	return "", fmt.Errorf("invalid format %q (use full, day, month, or year)", s)
}

// Bucket is one summary row produced by Aggregate.
type Bucket struct {
	Label       string          // formatted bucket key (date, month, or year)
	Date        time.Time       // first date covered by the bucket
	Hours       decimal.Decimal // summed time-entry hours
	Fixed       decimal.Decimal // summed fixed-cost amounts
	Description string          // descriptions and notes joined with "; "
}

// Aggregate collapses the ledger into summary buckets at the given
// granularity. Full yields one bucket per entry; day, month, and year sum
// hours and fixed costs per calendar unit, concatenating descriptions and
// notes in original order. The ledger itself is never modified.
func (l Ledger) Aggregate(g Granularity) []Bucket {
	if g == GranularityFull {
		return l.aggregateFull()
	}

	var buckets []Bucket
	var current *Bucket
	var descriptions []string

	flush := func() {
		if current != nil {
			current.Description = strings.Join(descriptions, "; ")
			buckets = append(buckets, *current)
			current = nil
			descriptions = nil
		}
	}

	for _, day := range l.days {
		label, bucketDate := bucketKey(g, day.Date)
		if current == nil || current.Label != label {
			flush()
			current = &Bucket{Label: label, Date: bucketDate, Hours: decimal.Zero, Fixed: decimal.Zero}
		}
		for _, e := range day.Entries {
			switch entry := e.(type) {
			case timesheet.Time:
				current.Hours = current.Hours.Add(entry.Hours)
				if entry.Description != "" {
					descriptions = append(descriptions, entry.Description)
				}
			case timesheet.FixedCost:
				current.Fixed = current.Fixed.Add(entry.Amount)
				if entry.Description != "" {
					descriptions = append(descriptions, entry.Description)
				}
			case timesheet.Note:
				if entry.Text != "" {
					descriptions = append(descriptions, entry.Text)
				}
			}
		}
	}
	flush()

	return buckets
}

// aggregateFull emits one bucket per original entry.
func (l Ledger) aggregateFull() []Bucket {
	var buckets []Bucket
	for _, day := range l.days {
		label := day.Date.Format("2006-01-02")
		for _, e := range day.Entries {
			b := Bucket{Label: label, Date: day.Date, Hours: decimal.Zero, Fixed: decimal.Zero}
			switch entry := e.(type) {
			case timesheet.Time:
				b.Hours = entry.Hours
				b.Description = entry.Description
			case timesheet.FixedCost:
				b.Fixed = entry.Amount
				b.Description = entry.Description
			case timesheet.Note:
				b.Description = entry.Text
			}
			buckets = append(buckets, b)
		}
	}
	return buckets
}

// bucketKey truncates a date to the bucket granularity.
func bucketKey(g Granularity, date time.Time) (label string, start time.Time) {
	switch g {
	case GranularityMonth:
		start = time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start.Format("2006-01"), start
	case GranularityYear:
		start = time.Date(date.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		return start.Format("2006"), start
	default:
		return date.Format("2006-01-02"), date
	}
}
