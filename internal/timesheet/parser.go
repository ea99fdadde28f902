package timesheet

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xolan/clinvoice/internal/period"
)

// ParseError is a line-addressed parse failure in a timesheet source.
type ParseError struct {
	Source string
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Source, e.Line, e.Reason)
}

var minutesPerHour = decimal.NewFromInt(60)

// ParseTimeSpec parses a single hours specification into decimal hours.
//
// Supported forms:
//   - "8h", "0.5h", "-2h"  a signed decimal number of hours
//   - "9-17", "09:00-17:30"  a clock range; its duration is the value.
//     An end of "24" or "24:00" means midnight at the end of the day.
func ParseTimeSpec(spec string) (decimal.Decimal, error) {
	spec = strings.TrimSpace(spec)

	if strings.HasSuffix(spec, "h") {
		hours, err := decimal.NewFromString(strings.TrimSuffix(spec, "h"))
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid hour value %q", spec)
		}
		return hours, nil
	}

	if strings.Contains(spec, "-") {
		startStr, endStr, _ := strings.Cut(spec, "-")
		startMin, err := parseClock(startStr)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid start time in %q: %v", spec, err)
		}
		endMin, err := parseClock(endStr)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid end time in %q: %v", spec, err)
		}
		if endMin < startMin {
			return decimal.Zero, fmt.Errorf("end time before start time in %q", spec)
		}
		return decimal.NewFromInt(int64(endMin - startMin)).Div(minutesPerHour), nil
	}

	return decimal.Zero, fmt.Errorf("invalid time specification %q (use Xh or HH:MM-HH:MM)", spec)
}

// parseClock parses "H", "HH", or "HH:MM" into minutes since midnight.
// "24" and "24:00" are accepted as end-of-day midnight.
func parseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	hourStr, minStr, hasMinutes := strings.Cut(s, ":")

	hour, err := strconv.Atoi(hourStr)
	if err != nil || hour < 0 || hour > 24 {
		return 0, fmt.Errorf("bad hour %q", s)
	}

	minute := 0
	if hasMinutes {
		minute, err = strconv.Atoi(minStr)
		if err != nil || minute < 0 || minute > 59 || len(minStr) != 2 {
			return 0, fmt.Errorf("bad minute %q", s)
		}
	}
	if hour == 24 && minute != 0 {
		return 0, fmt.Errorf("bad hour %q", s)
	}
	return hour*60 + minute, nil
}

// ParseLine classifies one non-comment, non-date line into an Entry.
//
// Classification by leading token:
//   - "*" or "-" opens a note, unless the "-" begins a negative cost or
//     hours entry (the line contains "=")
//   - a "$"-prefixed (optionally negative) value before "=" is a fixed cost
//   - otherwise the left of the first "=" is one or more comma-separated
//     hours specifications, summed; the right-hand side is the description
//     taken verbatim (it is not re-scanned for comment markers)
func ParseLine(line string) (Entry, error) {
	line = strings.TrimSpace(line)

	if first, rest, ok := noteSplit(line); ok {
		if first == "-" && strings.Contains(rest, "=") {
			// Negative cost or hours entry, not a note.
		} else {
			return Note{Text: strings.TrimSpace(rest)}, nil
		}
	}

	value, description, found := strings.Cut(line, "=")
	if !found {
		return nil, fmt.Errorf("entry needs a value and a description separated by '='")
	}
	value = strings.TrimSpace(value)
	description = strings.TrimSpace(description)

	if amountStr, isCost := costValue(value); isCost {
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("invalid cost value %q", value)
		}
		return FixedCost{Amount: amount, Description: description}, nil
	}

	total := decimal.Zero
	for _, spec := range strings.Split(value, ",") {
		hours, err := ParseTimeSpec(spec)
		if err != nil {
			return nil, err
		}
		total = total.Add(hours)
	}
	return Time{Hours: total, Description: description}, nil
}

// noteSplit reports whether the line starts with a note marker, returning
// the marker and the remainder.
func noteSplit(line string) (marker, rest string, ok bool) {
	if strings.HasPrefix(line, "*") || strings.HasPrefix(line, "-") {
		return line[:1], line[1:], true
	}
	return "", "", false
}

// costValue strips the "$" or "-$" prefix of a fixed-cost value, keeping
// the sign, and reports whether the value was a cost at all.
func costValue(value string) (string, bool) {
	if rest, ok := strings.CutPrefix(value, "$"); ok {
		return rest, true
	}
	if rest, ok := strings.CutPrefix(value, "-$"); ok {
		return "-" + rest, true
	}
	return "", false
}

// isComment reports whether the trimmed line is a full-line comment.
func isComment(line string) bool {
	return strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//")
}

// ParseSource parses the raw text of one timesheet source into dated entry
// groups in source order. A date line (YYYY.MM.DD, YYYYMMDD, or YYYY-MM-DD)
// opens a date context; subsequent entry lines belong to it until the next
// date line. Blank lines and lines starting with "#" or "//" are skipped.
// An entry
// line before any date line is a ParseError.
func ParseSource(name, text string) ([]Day, error) {
	var days []Day
	var current *Day

	scanner := bufio.NewScanner(strings.NewReader(text))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || isComment(line) {
			continue
		}

		if date, err := period.ParseDate(line); err == nil {
			days = append(days, Day{Date: date})
			current = &days[len(days)-1]
			continue
		}

		if current == nil {
			return nil, &ParseError{
				Source: name,
				Line:   lineNo,
				Reason: fmt.Sprintf("expected a date line before %q", line),
			}
		}

		entry, err := ParseLine(line)
		if err != nil {
			return nil, &ParseError{Source: name, Line: lineNo, Reason: err.Error()}
		}
		current.Entries = append(current.Entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}

	return days, nil
}
