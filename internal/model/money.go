package model

import (
	"fmt"

	"github.com/shopspring/decimal"

	"agrimandi/pkg/apperr"
)

// CurrencyINR is the default currency for all monetary amounts.
const CurrencyINR = "INR"

// Quantity unit constants
const (
	UnitKg      = "kg"
	UnitQuintal = "quintal"
	UnitTon     = "ton"
	UnitLiter   = "liter"
	UnitPiece   = "unit"
	UnitDozen   = "dozen"
	UnitBox     = "box"
)

var validUnits = map[string]bool{
	UnitKg:      true,
	UnitQuintal: true,
	UnitTon:     true,
	UnitLiter:   true,
	UnitPiece:   true,
	UnitDozen:   true,
	UnitBox:     true,
}

// ValidUnit reports whether unit is one of the supported quantity units.
func ValidUnit(unit string) bool {
	return validUnits[unit]
}

// Money is an amount in a single currency. Amounts are never negative.
type Money struct {
	Amount   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"amount"`
	Currency string          `gorm:"type:varchar(10);not null;default:'INR'" json:"currency"`
}

// NewMoney builds a Money value, rejecting negative amounts.
func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	if amount.IsNegative() {
		return Money{}, apperr.E(apperr.Invalid, "amount cannot be negative")
	}
	if currency == "" {
		currency = CurrencyINR
	}
	return Money{Amount: amount, Currency: currency}, nil
}

// Add returns the sum of two amounts. Currencies must match; mixing
// currencies is always a caller bug, never silently normalized.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, apperr.E(apperr.Invalid, fmt.Sprintf("currency mismatch: %s vs %s", m.Currency, other.Currency))
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

// Mul scales the amount by a factor.
func (m Money) Mul(factor decimal.Decimal) Money {
	return Money{Amount: m.Amount.Mul(factor), Currency: m.Currency}
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// Quantity is an amount of goods in a single unit. Values are never negative.
type Quantity struct {
	Value decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"value"`
	Unit  string          `gorm:"type:varchar(20)" json:"unit"`
}

// NewQuantity builds a Quantity value, rejecting negative values and
// unknown units.
func NewQuantity(value decimal.Decimal, unit string) (Quantity, error) {
	if value.IsNegative() {
		return Quantity{}, apperr.E(apperr.Invalid, "quantity cannot be negative")
	}
	if !ValidUnit(unit) {
		return Quantity{}, apperr.E(apperr.Invalid, fmt.Sprintf("unknown quantity unit %q", unit))
	}
	return Quantity{Value: value, Unit: unit}, nil
}

// Add returns the sum of two quantities. Units must match.
func (q Quantity) Add(other Quantity) (Quantity, error) {
	if q.Unit != other.Unit {
		return Quantity{}, apperr.E(apperr.Invalid, fmt.Sprintf("unit mismatch: %s vs %s", q.Unit, other.Unit))
	}
	return Quantity{Value: q.Value.Add(other.Value), Unit: q.Unit}, nil
}

// PriceFor returns the total price for this quantity at the given per-unit rate.
func (q Quantity) PriceFor(ratePerUnit decimal.Decimal, currency string) Money {
	return Money{Amount: q.Value.Mul(ratePerUnit), Currency: currency}
}
