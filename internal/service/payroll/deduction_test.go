package payroll

import (
	"testing"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/salary"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func TestCalculateDeductions_DefaultsWithUnionFee(t *testing.T) {
	profile := salary.DeductionProfile{
		LaborInsurance:        ptr("0"),
		HealthInsurance:       ptr("0"),
		UnemploymentInsurance: ptr("0"),
		Pension:               ptr("0"),
		IncomeTax:             ptr("0"),
		UnionFee:              d("50"),
	}

	got := CalculateDeductions(d("30000"), profile, payroll.DefaultRates())

	assert.True(t, got.LaborInsurance.Equal(d("630")), got.LaborInsurance.String())
	assert.True(t, got.HealthInsurance.Equal(d("465")), got.HealthInsurance.String())
	assert.True(t, got.UnemploymentInsurance.Equal(d("60")))
	assert.True(t, got.Pension.Equal(d("1800")))
	assert.True(t, got.IncomeTax.IsZero())
	assert.True(t, got.UnionFee.Equal(d("50")))
	assert.True(t, got.Total().Equal(d("3005")))
}

func TestCalculateDeductions_NilMeansDefault(t *testing.T) {
	got := CalculateDeductions(d("30000"), salary.DeductionProfile{}, payroll.DefaultRates())

	assert.True(t, got.LaborInsurance.Equal(d("630")))
	assert.True(t, got.UnionFee.IsZero())
}

func TestCalculateDeductions_OverridesUsedVerbatim(t *testing.T) {
	profile := salary.DeductionProfile{
		LaborInsurance:  ptr("700"),
		HealthInsurance: ptr("420"),
		IncomeTax:       ptr("1200"),
	}

	got := CalculateDeductions(d("30000"), profile, payroll.DefaultRates())

	assert.True(t, got.LaborInsurance.Equal(d("700")))
	assert.True(t, got.HealthInsurance.Equal(d("420")))
	assert.True(t, got.IncomeTax.Equal(d("1200")))
	assert.True(t, got.Pension.Equal(d("1800")))
}

func TestCalculateDeductions_IncomeTaxThreshold(t *testing.T) {
	tests := []struct {
		gross string
		want  string
	}{
		{"39999", "0"},
		{"40000", "0"},
		{"50000", "500"},
		{"40010", "1"}, // 0.5 rounds up
	}

	for _, tt := range tests {
		t.Run(tt.gross, func(t *testing.T) {
			got := CalculateDeductions(d(tt.gross), salary.DeductionProfile{}, payroll.DefaultRates())
			assert.True(t, got.IncomeTax.Equal(d(tt.want)), got.IncomeTax.String())
		})
	}
}

func TestCalculateDeductions_PassThroughZeroMeansZero(t *testing.T) {
	profile := salary.DeductionProfile{LoanDeduction: d("0"), OtherDeductions: d("10.5")}

	got := CalculateDeductions(d("30000"), profile, payroll.DefaultRates())

	assert.True(t, got.LoanDeduction.IsZero())
	assert.True(t, got.OtherDeductions.Equal(d("11")))
}

func TestCalculateDeductions_LinesRoundedBeforeSum(t *testing.T) {
	// health: 10010 * 0.0517 * 0.3 = 155.2551 -> 155
	// labor:  10010 * 0.105 * 0.2  = 210.21   -> 210
	got := CalculateDeductions(d("10010"), salary.DeductionProfile{}, payroll.DefaultRates())

	for _, line := range got.Named() {
		assert.True(t, line.Amount.Equal(line.Amount.Round(0)), line.Name)
	}
	assert.True(t, got.HealthInsurance.Equal(d("155")))
	assert.True(t, got.LaborInsurance.Equal(d("210")))
}
