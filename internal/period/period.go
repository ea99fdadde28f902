// Package period translates textual period selectors into inclusive
// calendar date ranges.
package period

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrSelector indicates a malformed period selector or an inverted range.
var ErrSelector = errors.New("invalid period selector")

// DateRange is an inclusive [Start, End] pair of calendar dates.
// Both bounds are midnight UTC instants.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether the given date falls within the range (inclusive).
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// String formats the range as "YYYY-MM-DD..YYYY-MM-DD".
func (r DateRange) String() string {
	return FormatDate(r.Start) + ".." + FormatDate(r.End)
}

// dateLayouts are the supported date grammars, tried in order.
var dateLayouts = []string{"2006.01.02", "20060102", "2006-01-02"}

// ParseDate parses a date in YYYY.MM.DD, YYYYMMDD, or YYYY-MM-DD format.
// The result is midnight UTC.
func ParseDate(input string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, input); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q (use YYYY.MM.DD, YYYYMMDD, or YYYY-MM-DD)", input)
}

// FormatDate formats a date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// LastDayOfMonth returns the last calendar day of the given month,
// accounting for leap years.
func LastDayOfMonth(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1)
}

// ParseSelector maps a period selector token to a concrete DateRange.
//
// Accepted forms:
//   - "2024"           whole year
//   - "2024.03"        whole month
//   - "2024.03.15"     single day (any date grammar accepted by ParseDate)
//   - "start..end"     explicit range; each endpoint is itself a selector,
//     the start endpoint contributing its first day and the end endpoint
//     its last day
//
// Partially specified selectors expand to the maximal calendar span implied.
func ParseSelector(token string) (DateRange, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return DateRange{}, fmt.Errorf("%w: empty selector", ErrSelector)
	}

	if start, end, found := strings.Cut(token, ".."); found {
		startRange, err := parseSingle(start)
		if err != nil {
			return DateRange{}, err
		}
		endRange, err := parseSingle(end)
		if err != nil {
			return DateRange{}, err
		}
		r := DateRange{Start: startRange.Start, End: endRange.End}
		if r.Start.After(r.End) {
			return DateRange{}, fmt.Errorf("%w: start %s after end %s",
				ErrSelector, FormatDate(r.Start), FormatDate(r.End))
		}
		return r, nil
	}

	return parseSingle(token)
}

// parseSingle handles a selector without an explicit ".." range.
func parseSingle(token string) (DateRange, error) {
	token = strings.TrimSpace(token)

	// Full date in any supported grammar: a single-day range.
	if day, err := ParseDate(token); err == nil {
		return DateRange{Start: day, End: day}, nil
	}

	parts := strings.Split(token, ".")
	switch len(parts) {
	case 1:
		year, err := parseYear(parts[0])
		if err != nil {
			return DateRange{}, err
		}
		return DateRange{
			Start: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
		}, nil
	case 2:
		year, err := parseYear(parts[0])
		if err != nil {
			return DateRange{}, err
		}
		month, err := strconv.Atoi(parts[1])
		if err != nil || month < 1 || month > 12 {
			return DateRange{}, fmt.Errorf("%w: invalid month %q", ErrSelector, parts[1])
		}
		return DateRange{
			Start: time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC),
			End:   LastDayOfMonth(year, time.Month(month)),
		}, nil
	case 3:
		year, err := parseYear(parts[0])
		if err != nil {
			return DateRange{}, err
		}
		month, err := strconv.Atoi(parts[1])
		if err != nil || month < 1 || month > 12 {
			return DateRange{}, fmt.Errorf("%w: invalid month %q", ErrSelector, parts[1])
		}
		dayNum, err := strconv.Atoi(parts[2])
		if err != nil {
			return DateRange{}, fmt.Errorf("%w: invalid day %q", ErrSelector, parts[2])
		}
		day := time.Date(year, time.Month(month), dayNum, 0, 0, 0, 0, time.UTC)
		// time.Date normalizes out-of-range days, so reject anything
		// that did not survive the round trip (e.g. 2023.02.30).
		if day.Day() != dayNum || day.Month() != time.Month(month) || day.Year() != year {
			return DateRange{}, fmt.Errorf("%w: invalid day %q", ErrSelector, token)
		}
		return DateRange{Start: day, End: day}, nil
	default:
		return DateRange{}, fmt.Errorf("%w: %q", ErrSelector, token)
	}
}

func parseYear(s string) (int, error) {
	if len(s) != 4 {
		return 0, fmt.Errorf("%w: invalid year %q", ErrSelector, s)
	}
	year, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid year %q", ErrSelector, s)
	}
	return year, nil
}
