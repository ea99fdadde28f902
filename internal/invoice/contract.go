// Package invoice computes billing figures from a ledger restricted to a
// date range and a set of contract terms.
package invoice

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrContract indicates invalid contract terms. It is always detected
// before any computation starts.
var ErrContract = errors.New("invalid contract")

var oneHundred = decimal.NewFromInt(100)

// Discount is a named flat deduction applied by contract.
type Discount struct {
	Text string
	Cost decimal.Decimal
}

// Tax is a percentage applied to the invoice subtotal.
type Tax struct {
	Name    string
	Percent decimal.Decimal
}

// Contract holds the billing terms for one client engagement.
// A zero cap means the cap is not configured.
type Contract struct {
	HourlyRate         decimal.Decimal
	PaymentDays        int
	CapHoursPerDay     decimal.Decimal
	CapHoursPerInvoice decimal.Decimal
	Discounts          []Discount
	Notes              []string
	Tax                *Tax
}

// HasDayCap reports whether a per-day hours cap is configured.
func (c Contract) HasDayCap() bool {
	return !c.CapHoursPerDay.IsZero()
}

// HasInvoiceCap reports whether a whole-invoice hours cap is configured.
func (c Contract) HasInvoiceCap() bool {
	return !c.CapHoursPerInvoice.IsZero()
}

// Validate checks the contract terms. Caps must be positive when set,
// the rate and payment terms non-negative, and a configured tax percent
// within [0, 100].
func (c Contract) Validate() error {
	if c.HourlyRate.IsNegative() {
		return fmt.Errorf("%w: hourly_rate must not be negative, got %s", ErrContract, c.HourlyRate)
	}
	if c.PaymentDays < 0 {
		return fmt.Errorf("%w: payment_days must not be negative, got %d", ErrContract, c.PaymentDays)
	}
	if c.CapHoursPerDay.IsNegative() {
		return fmt.Errorf("%w: cap_hours_per_day must be positive, got %s", ErrContract, c.CapHoursPerDay)
	}
	if c.CapHoursPerInvoice.IsNegative() {
		return fmt.Errorf("%w: cap_hours_per_invoice must be positive, got %s", ErrContract, c.CapHoursPerInvoice)
	}
	if c.Tax != nil {
		if c.Tax.Percent.IsNegative() || c.Tax.Percent.GreaterThan(oneHundred) {
			return fmt.Errorf("%w: tax percent must be within [0, 100], got %s", ErrContract, c.Tax.Percent)
		}
	}
	return nil
}
