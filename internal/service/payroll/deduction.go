package payroll

import (
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/salary"
	"github.com/shopspring/decimal"
)

// override returns the stored amount unless it is absent or zero, in which
// case the computed default applies.
func override(stored *decimal.Decimal, computed decimal.Decimal) decimal.Decimal {
	if stored == nil || stored.IsZero() {
		return computed
	}
	return *stored
}

// CalculateDeductions derives every deduction line from gross pay and the
// resolved profile. Each line is rounded to a whole unit before totalling.
func CalculateDeductions(gross decimal.Decimal, profile salary.DeductionProfile, rates payroll.Rates) payroll.DeductionBreakdown {
	share := func(rate, fraction decimal.Decimal) decimal.Decimal {
		return gross.Mul(rate).Mul(fraction)
	}

	tax := decimal.Zero
	if gross.GreaterThan(rates.TaxThreshold) {
		tax = gross.Sub(rates.TaxThreshold).Mul(rates.TaxRate)
	}

	return payroll.DeductionBreakdown{
		LaborInsurance:        override(profile.LaborInsurance, share(rates.LaborRate, rates.LaborShare)).Round(0),
		HealthInsurance:       override(profile.HealthInsurance, share(rates.HealthRate, rates.HealthShare)).Round(0),
		UnemploymentInsurance: override(profile.UnemploymentInsurance, share(rates.UnemploymentRate, rates.UnemploymentShare)).Round(0),
		Pension:               override(profile.Pension, share(rates.PensionRate, rates.PensionShare)).Round(0),
		IncomeTax:             override(profile.IncomeTax, tax).Round(0),
		UnionFee:              profile.UnionFee.Round(0),
		LoanDeduction:         profile.LoanDeduction.Round(0),
		OtherDeductions:       profile.OtherDeductions.Round(0),
	}
}
