package credit

import (
	"github.com/shopspring/decimal"

	"github.com/feral-file/carbon-marketplace/internal/domain"
)

var perHectareNDVI = decimal.NewFromInt(domain.CreditsPerHectareNDVI)

// Compute returns the carbon credits earned by a parcel: area * ndvi * 100.
// The result is rounded to a fixed precision so identical inputs always yield identical balances.
func Compute(area, ndvi float64) float64 {
	v := decimal.NewFromFloat(area).
		Mul(decimal.NewFromFloat(ndvi)).
		Mul(perHectareNDVI)
	return round(v)
}

// Sum adds credit amounts without accumulating binary floating point drift
func Sum(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return round(total)
}

// Sub returns a - b at credit precision
func Sub(a, b float64) float64 {
	return round(decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)))
}

// Exceeds reports whether requested is strictly greater than available at credit precision
func Exceeds(requested, available float64) bool {
	r := decimal.NewFromFloat(requested).Round(domain.CreditDecimalPlaces)
	a := decimal.NewFromFloat(available).Round(domain.CreditDecimalPlaces)
	return r.GreaterThan(a)
}

func round(d decimal.Decimal) float64 {
	f, _ := d.Round(domain.CreditDecimalPlaces).Float64()
	return f
}
