package invoice

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xolan/clinvoice/internal/period"
)

// moneyPlaces is the display precision for monetary and hour values.
// Rounding happens here, at the formatting boundary, never mid-computation.
const moneyPlaces = 2

// EscapeFunc rewrites free-form text for safe inclusion in a document
// format. A nil EscapeFunc passes text through unchanged.
type EscapeFunc func(string) string

// TemplateContext assembles the flat context map handed to the templating
// collaborator. Derived figures are formatted at display precision;
// passthrough holds issuer/client/contract configuration values verbatim,
// already flattened to underscore-separated keys. The escape function is
// applied to every free-form text value, never to dates or numbers.
func TemplateContext(f Figures, contract Contract, sequence int, now time.Time, passthrough map[string]string, escape EscapeFunc) map[string]any {
	if escape == nil {
		escape = func(s string) string { return s }
	}

	today := now.Format("2006-01-02")
	dueDate := now.AddDate(0, 0, contract.PaymentDays).Format("2006-01-02")

	ctx := map[string]any{
		"now":                 now.Format(time.RFC3339),
		"today":               today,
		"invoice_date":        today,
		"due_date":            dueDate,
		"period_start":        period.FormatDate(f.Period.Start),
		"period_end":          period.FormatDate(f.Period.End),
		"sequence":            sequence,
		"total_hours_worked":  formatFixed(f.TotalHoursWorked),
		"total_hours_counted": formatFixed(f.TotalHoursCounted),
		"total_hours_billed":  formatFixed(f.TotalHoursBilled),
		"overage_hours":       formatFixed(f.OverageHours),
		"total_fixed_fees":    formatFixed(f.TotalFixedFees),
		"total_discounts":     formatFixed(f.TotalDiscounts),
		"counted_amount":      formatFixed(f.CountedAmount),
		"billed_amount":       formatFixed(f.BilledAmount),
		"subtotal_amount":     formatFixed(f.SubtotalAmount),
		"tax_amount":          formatFixed(f.TaxAmount),
		"total_amount":        formatFixed(f.TotalAmount),
	}

	if contract.Tax != nil {
		ctx["tax_name"] = escape(contract.Tax.Name)
		ctx["tax_percent"] = contract.Tax.Percent.String()
	} else {
		ctx["tax_name"] = ""
		ctx["tax_percent"] = ""
	}

	days := make([]map[string]any, 0, len(f.Days))
	for _, d := range f.Days {
		days = append(days, map[string]any{
			"index":       d.Index,
			"date":        period.FormatDate(d.Date),
			"hours":       formatFixed(d.Hours),
			"cost":        formatFixed(d.Cost),
			"description": escape(d.Description),
		})
	}
	ctx["days"] = days

	discounts := make([]map[string]any, 0, len(contract.Discounts))
	for _, d := range contract.Discounts {
		discounts = append(discounts, map[string]any{
			"text": escape(d.Text),
			"cost": formatFixed(d.Cost),
		})
	}
	ctx["discounts"] = discounts

	notes := make([]string, 0, len(contract.Notes))
	for _, n := range contract.Notes {
		notes = append(notes, escape(n))
	}
	ctx["notes"] = notes

	for key, value := range passthrough {
		if _, taken := ctx[key]; !taken {
			ctx[key] = escape(value)
		}
	}

	return ctx
}

func formatFixed(d decimal.Decimal) string {
	return d.StringFixed(moneyPlaces)
}
