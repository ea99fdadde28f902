package invoice

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xolan/clinvoice/internal/ledger"
	"github.com/xolan/clinvoice/internal/period"
	"github.com/xolan/clinvoice/internal/timesheet"
)

// DayFigures is one row of the per-day invoice breakdown.
type DayFigures struct {
	Index       int // 1-based position within the invoice
	Date        time.Time
	Hours       decimal.Decimal // billed hours for the day
	Cost        decimal.Decimal // HourlyRate * Hours
	Description string
}

// Figures is the complete, immutable result of one invoice computation.
type Figures struct {
	Period period.DateRange
	Days   []DayFigures

	TotalHoursWorked  decimal.Decimal // sum of raw time-entry hours
	TotalHoursCounted decimal.Decimal // after the per-day cap
	TotalHoursBilled  decimal.Decimal // after the invoice cap
	OverageHours      decimal.Decimal // counted minus billed

	TotalFixedFees decimal.Decimal // positive fixed costs
	TotalDiscounts decimal.Decimal // negative fixed costs plus negative hours at rate

	CountedAmount  decimal.Decimal
	BilledAmount   decimal.Decimal
	SubtotalAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	TotalAmount    decimal.Decimal
}

// Compute derives the billing figures for the ledger restricted to the
// given range under the given contract. Days are processed in ascending
// date order, all arithmetic in fixed-precision decimals.
//
// Per day, raw hours above cap_hours_per_day are dropped outright; negative
// (discount) hours pass through uncapped. The running counted total is then
// clamped to cap_hours_per_invoice: the day on which the cumulative total
// crosses the cap absorbs the excess, and later days bill against whatever
// budget remains. Hours shifted by the invoice cap become OverageHours.
//
// An empty range yields all-zero figures, not an error.
func Compute(l ledger.Ledger, r period.DateRange, contract Contract) (Figures, error) {
	if err := contract.Validate(); err != nil {
		return Figures{}, err
	}

	f := Figures{
		Period:            r,
		TotalHoursWorked:  decimal.Zero,
		TotalHoursCounted: decimal.Zero,
		TotalHoursBilled:  decimal.Zero,
		OverageHours:      decimal.Zero,
		TotalFixedFees:    decimal.Zero,
		TotalDiscounts:    decimal.Zero,
	}

	for _, day := range l.Filter(r).Days() {
		raw := decimal.Zero
		var descriptions []string

		for _, e := range day.Entries {
			switch entry := e.(type) {
			case timesheet.Time:
				raw = raw.Add(entry.Hours)
				if entry.Hours.IsNegative() {
					f.TotalDiscounts = f.TotalDiscounts.Add(contract.HourlyRate.Mul(entry.Hours))
				}
				if entry.Description != "" {
					descriptions = append(descriptions, entry.Description)
				}
			case timesheet.FixedCost:
				if entry.Amount.IsNegative() {
					f.TotalDiscounts = f.TotalDiscounts.Add(entry.Amount)
				} else {
					f.TotalFixedFees = f.TotalFixedFees.Add(entry.Amount)
				}
				if entry.Description != "" {
					descriptions = append(descriptions, entry.Description)
				}
			case timesheet.Note:
				if entry.Text != "" {
					descriptions = append(descriptions, entry.Text)
				}
			}
		}

		counted := raw
		if contract.HasDayCap() && raw.GreaterThan(contract.CapHoursPerDay) {
			counted = contract.CapHoursPerDay
		}

		billed := counted
		if contract.HasInvoiceCap() {
			remaining := contract.CapHoursPerInvoice.Sub(f.TotalHoursBilled)
			if counted.GreaterThan(remaining) {
				billed = remaining
			}
		}

		f.TotalHoursWorked = f.TotalHoursWorked.Add(raw)
		f.TotalHoursCounted = f.TotalHoursCounted.Add(counted)
		f.TotalHoursBilled = f.TotalHoursBilled.Add(billed)

		f.Days = append(f.Days, DayFigures{
			Index:       len(f.Days) + 1,
			Date:        day.Date,
			Hours:       billed,
			Cost:        contract.HourlyRate.Mul(billed),
			Description: strings.Join(descriptions, "; "),
		})
	}

	for _, d := range contract.Discounts {
		f.TotalDiscounts = f.TotalDiscounts.Add(d.Cost)
	}

	f.OverageHours = f.TotalHoursCounted.Sub(f.TotalHoursBilled)
	f.CountedAmount = contract.HourlyRate.Mul(f.TotalHoursCounted)
	f.BilledAmount = contract.HourlyRate.Mul(f.TotalHoursBilled)
	f.SubtotalAmount = f.BilledAmount.Add(f.TotalFixedFees).Add(f.TotalDiscounts)
	f.TaxAmount = decimal.Zero
	if contract.Tax != nil {
		f.TaxAmount = f.SubtotalAmount.Mul(contract.Tax.Percent).Div(oneHundred)
	}
	f.TotalAmount = f.SubtotalAmount.Add(f.TaxAmount)

	return f, nil
}
