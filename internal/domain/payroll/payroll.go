// Package payroll computes gross-to-net earnings breakdowns for worker pay
// and base-to-total breakdowns for household bills. All functions are pure
// and deterministic; callers must recompute from the canonical gross figure
// instead of storing derived totals that can drift from a rate change.
package payroll

import (
	"errors"
	"math"
)

// RateTable holds the deduction and fee fractions applied to a gross figure.
// Each deduction is an independent fraction of gross; rates do not compound.
type RateTable struct {
	// VATRate is the value-added tax fraction withheld from worker pay.
	VATRate float64 `json:"vat_rate"`
	// InsuranceRate is the insurance premium fraction withheld from worker pay.
	InsuranceRate float64 `json:"insurance_rate"`
	// PensionRate is the pension contribution fraction withheld from worker pay.
	PensionRate float64 `json:"pension_rate"`
	// PlatformFeeRate is the marketplace fee fraction added to a household's
	// bill. It is never deducted from worker pay.
	PlatformFeeRate float64 `json:"platform_fee_rate"`
}

// DefaultRateTable returns the statutory defaults observed in production:
// VAT 18%, insurance 2%, pension 5%, platform fee 5%.
func DefaultRateTable() RateTable {
	return RateTable{
		VATRate:         0.18,
		InsuranceRate:   0.02,
		PensionRate:     0.05,
		PlatformFeeRate: 0.05,
	}
}

// Validate checks that every rate is a sane fraction and that worker
// deductions cannot exceed gross.
func (t RateTable) Validate() error {
	for _, r := range []float64{t.VATRate, t.InsuranceRate, t.PensionRate, t.PlatformFeeRate} {
		if r < 0 || r >= 1 {
			return errors.New("rates must be in [0, 1)")
		}
	}
	if t.VATRate+t.InsuranceRate+t.PensionRate >= 1 {
		return errors.New("combined deduction rates must be below 100%")
	}
	return nil
}

// DeductionLine is one independently reported deduction of a worker payout.
type DeductionLine struct {
	Label  string  `json:"label"`
	Rate   float64 `json:"rate"`
	Amount int64   `json:"amount"`
}

// WorkerPayout is the worker-facing net-pay breakdown: gross salary minus
// VAT, insurance, and pension lines.
type WorkerPayout struct {
	Gross      int64           `json:"gross"`
	Deductions []DeductionLine `json:"deductions"`
	Net        int64           `json:"net"`
}

// TotalDeductions sums the deduction line amounts.
func (p WorkerPayout) TotalDeductions() int64 {
	var total int64
	for _, d := range p.Deductions {
		total += d.Amount
	}
	return total
}

// HouseholdBill is the household-facing breakdown: base service fee plus an
// additive platform fee. No statutory deductions are shown to the household.
type HouseholdBill struct {
	Base        int64 `json:"base"`
	PlatformFee int64 `json:"platform_fee"`
	Total       int64 `json:"total"`
}

// WorkerBreakdown computes the worker's net pay for a gross salary figure.
// Each line is rounded to the nearest whole currency unit and net is
// gross minus the rounded lines, so net + sum(deductions) == gross exactly.
func WorkerBreakdown(gross int64, rates RateTable) (WorkerPayout, error) {
	if gross < 0 {
		return WorkerPayout{}, errors.New("gross must be >= 0")
	}
	if err := rates.Validate(); err != nil {
		return WorkerPayout{}, err
	}

	lines := []DeductionLine{
		{Label: "vat", Rate: rates.VATRate, Amount: roundShare(gross, rates.VATRate)},
		{Label: "insurance", Rate: rates.InsuranceRate, Amount: roundShare(gross, rates.InsuranceRate)},
		{Label: "pension", Rate: rates.PensionRate, Amount: roundShare(gross, rates.PensionRate)},
	}

	payout := WorkerPayout{Gross: gross, Deductions: lines}
	payout.Net = gross - payout.TotalDeductions()
	return payout, nil
}

// BillBreakdown computes the household's total due for a base service fee.
func BillBreakdown(base int64, rates RateTable) (HouseholdBill, error) {
	if base < 0 {
		return HouseholdBill{}, errors.New("base must be >= 0")
	}
	if err := rates.Validate(); err != nil {
		return HouseholdBill{}, err
	}

	fee := roundShare(base, rates.PlatformFeeRate)
	return HouseholdBill{
		Base:        base,
		PlatformFee: fee,
		Total:       base + fee,
	}, nil
}

// roundShare computes amount*rate rounded to the nearest whole currency unit.
func roundShare(amount int64, rate float64) int64 {
	return int64(math.Round(float64(amount) * rate))
}
