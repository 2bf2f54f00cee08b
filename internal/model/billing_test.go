package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrimandi/pkg/apperr"
)

func TestBillingRecalculate(t *testing.T) {
	// 100 kg ordered, 95 kg received at 20/kg with 100 total tax,
	// a 20 damage deduction, and 100 transport.
	b := Billing{
		OrderedQuantity:      Quantity{Value: decimal.NewFromInt(100), Unit: UnitKg},
		ActualWeightReceived: Quantity{Value: decimal.NewFromInt(95), Unit: UnitKg},
		RatePerUnit:          decimal.NewFromInt(20),
		SGST:                 TaxComponent{Percentage: decimal.NewFromInt(5), Amount: decimal.NewFromInt(50)},
		CGST:                 TaxComponent{Percentage: decimal.NewFromInt(5), Amount: decimal.NewFromInt(50)},
		DamageDeduction:      DeductionComponent{Amount: decimal.NewFromInt(20), Reason: "crushed crates"},
		TransportationCost:   Money{Amount: decimal.NewFromInt(100), Currency: CurrencyINR},
	}

	require.NoError(t, b.Recalculate())

	assert.True(t, b.WeightDifference.Value.Equal(decimal.NewFromInt(-5)), "weight diff %s", b.WeightDifference.Value)
	assert.Equal(t, UnitKg, b.WeightDifference.Unit)
	assert.True(t, b.WeightDifferencePct.Equal(decimal.NewFromInt(-5)), "weight diff pct %s", b.WeightDifferencePct)

	assert.True(t, b.SubTotal.Amount.Equal(decimal.NewFromInt(1900)), "subtotal %s", b.SubTotal.Amount)
	assert.True(t, b.TotalTax.Amount.Equal(decimal.NewFromInt(100)), "total tax %s", b.TotalTax.Amount)
	assert.True(t, b.TotalDeductions.Amount.Equal(decimal.NewFromInt(20)), "deductions %s", b.TotalDeductions.Amount)

	// 1900 + 100 - 20 + 100
	assert.True(t, b.TotalAmount.Amount.Equal(decimal.NewFromInt(2080)), "total %s", b.TotalAmount.Amount)
}

func TestBillingRecalculate_OtherLines(t *testing.T) {
	b := Billing{
		OrderedQuantity:      Quantity{Value: decimal.NewFromInt(50), Unit: UnitKg},
		ActualWeightReceived: Quantity{Value: decimal.NewFromInt(50), Unit: UnitKg},
		RatePerUnit:          decimal.NewFromInt(10),
		OtherTaxes: []BillingTaxLine{
			{Name: "Mandi Cess", Amount: decimal.NewFromInt(10)},
			{Name: "Market Fee", Amount: decimal.NewFromInt(5)},
		},
		OtherDeductions: []BillingDeductionLine{
			{Description: "moisture loss", Amount: decimal.NewFromInt(7)},
		},
	}

	require.NoError(t, b.Recalculate())

	assert.True(t, b.WeightDifference.Value.IsZero())
	assert.True(t, b.WeightDifferencePct.IsZero())
	assert.True(t, b.SubTotal.Amount.Equal(decimal.NewFromInt(500)))
	assert.True(t, b.TotalTax.Amount.Equal(decimal.NewFromInt(15)))
	assert.True(t, b.TotalDeductions.Amount.Equal(decimal.NewFromInt(7)))
	assert.True(t, b.TotalAmount.Amount.Equal(decimal.NewFromInt(508)))
}

func TestBillingRecalculate_ZeroOrderedQuantity(t *testing.T) {
	b := Billing{
		ActualWeightReceived: Quantity{Value: decimal.NewFromInt(10), Unit: UnitKg},
		RatePerUnit:          decimal.NewFromInt(10),
	}

	err := b.Recalculate()
	require.Error(t, err)
	assert.Equal(t, apperr.Invalid, apperr.KindOf(err))
}

func TestBillingRecalculate_Idempotent(t *testing.T) {
	b := Billing{
		OrderedQuantity:      Quantity{Value: decimal.NewFromInt(100), Unit: UnitKg},
		ActualWeightReceived: Quantity{Value: decimal.NewFromInt(95), Unit: UnitKg},
		RatePerUnit:          decimal.NewFromInt(20),
		SGST:                 TaxComponent{Amount: decimal.NewFromInt(50)},
		CGST:                 TaxComponent{Amount: decimal.NewFromInt(50)},
		DamageDeduction:      DeductionComponent{Amount: decimal.NewFromInt(20)},
		TransportationCost:   Money{Amount: decimal.NewFromInt(100), Currency: CurrencyINR},
	}

	require.NoError(t, b.Recalculate())
	first := b.TotalAmount.Amount

	require.NoError(t, b.Recalculate())
	assert.True(t, b.TotalAmount.Amount.Equal(first))
}

func TestBillingRemainingAmount(t *testing.T) {
	b := Billing{
		TotalAmount: Money{Amount: decimal.NewFromInt(2080), Currency: CurrencyINR},
		PaidAmount:  decimal.NewFromInt(1000),
	}
	assert.True(t, b.RemainingAmount().Equal(decimal.NewFromInt(1080)))

	b.PaidAmount = decimal.NewFromInt(2500)
	assert.True(t, b.RemainingAmount().Equal(decimal.NewFromInt(-420)))
}

func TestEffectivePaymentStatus(t *testing.T) {
	now := time.Now()
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	b := Billing{PaymentStatus: BillingUnpaid}
	assert.Equal(t, BillingUnpaid, b.EffectivePaymentStatus(now))

	b.PaymentDueDate = &future
	assert.Equal(t, BillingUnpaid, b.EffectivePaymentStatus(now))

	b.PaymentDueDate = &past
	assert.Equal(t, BillingOverdue, b.EffectivePaymentStatus(now))

	b.PaymentStatus = BillingPartial
	assert.Equal(t, BillingOverdue, b.EffectivePaymentStatus(now))

	// a fully paid invoice never reads overdue
	b.PaymentStatus = BillingPaid
	assert.Equal(t, BillingPaid, b.EffectivePaymentStatus(now))
}
