// Package timesheet parses plain-text timesheet sources (.cli files)
// into typed entries grouped under calendar dates.
package timesheet

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry is one parsed timesheet line item. It is a closed sum of three
// variants: Time, FixedCost, and Note. Consumers switch exhaustively on
// the concrete type.
type Entry interface {
	entry()
}

// Time is a worked-hours entry. Hours may be negative (a discount).
type Time struct {
	Hours       decimal.Decimal
	Description string
}

// FixedCost is a flat monetary entry. Amount may be negative (a discount).
type FixedCost struct {
	Amount      decimal.Decimal
	Description string
}

// Note is a free-form annotation carried through to descriptions.
type Note struct {
	Text string
}

func (Time) entry()      {}
func (FixedCost) entry() {}
func (Note) entry()      {}

// Day is one date line and the entries parsed under it, in source order.
// A source may open the same date more than once; merging duplicate dates
// is the ledger's job.
type Day struct {
	Date    time.Time
	Entries []Entry
}
