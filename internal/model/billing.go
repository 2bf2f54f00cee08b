package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"agrimandi/pkg/apperr"
)

// Billing payment status constants
const (
	BillingUnpaid  = "Unpaid"
	BillingPartial = "Partial"
	BillingPaid    = "Paid"
	BillingOverdue = "Overdue"
)

// TaxComponent is one named tax on an invoice (SGST, CGST, IGST).
type TaxComponent struct {
	Percentage decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"percentage"`
	Amount     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"amount"`
}

// DeductionComponent is one named deduction (damage, quality) with its reason.
type DeductionComponent struct {
	Amount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"amount"`
	Reason string          `gorm:"type:text" json:"reason"`
}

// BillingTaxLine is an arbitrary extra tax beyond the named GST components.
type BillingTaxLine struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BillingID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"billing_id"`
	Name       string          `gorm:"type:varchar(100);not null" json:"name"`
	Percentage decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"percentage"`
	Amount     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"amount"`
}

// BillingDeductionLine is an arbitrary extra deduction beyond the named ones.
type BillingDeductionLine struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BillingID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"billing_id"`
	Description string          `gorm:"type:varchar(255);not null" json:"description"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"amount"`
}

// Billing is the final settlement invoice for a delivered transaction,
// exactly one per transaction. Derived fields are never set directly;
// Recalculate runs before every save so totals cannot drift from the
// raw inputs.
type Billing struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceNumber string    `gorm:"type:varchar(30);uniqueIndex;not null" json:"invoice_number"` // INV-<yyyymm>-<seq>
	TransactionID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"transaction_id"`
	FarmerID      uuid.UUID `gorm:"type:uuid;not null;index:idx_billing_farmer_status" json:"farmer_id"`
	BuyerID       uuid.UUID `gorm:"type:uuid;not null;index:idx_billing_buyer_status" json:"buyer_id"`

	CommodityType  string `gorm:"type:varchar(50);not null" json:"commodity_type"`
	VarietySubtype string `gorm:"type:varchar(100)" json:"variety_subtype"`

	// Raw inputs
	OrderedQuantity      Quantity        `gorm:"embedded;embeddedPrefix:ordered_qty_" json:"ordered_quantity"`
	ActualWeightReceived Quantity        `gorm:"embedded;embeddedPrefix:actual_weight_" json:"actual_weight_received"`
	RatePerUnit          decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"rate_per_unit"`

	SGST            TaxComponent           `gorm:"embedded;embeddedPrefix:sgst_" json:"sgst"`
	CGST            TaxComponent           `gorm:"embedded;embeddedPrefix:cgst_" json:"cgst"`
	IGST            TaxComponent           `gorm:"embedded;embeddedPrefix:igst_" json:"igst"`
	OtherTaxes      []BillingTaxLine       `gorm:"foreignKey:BillingID;constraint:OnDelete:CASCADE" json:"other_taxes"`
	DamageDeduction DeductionComponent     `gorm:"embedded;embeddedPrefix:damage_" json:"damage_deduction"`
	QualityDeduct   DeductionComponent     `gorm:"embedded;embeddedPrefix:quality_" json:"quality_deduction"`
	OtherDeductions []BillingDeductionLine `gorm:"foreignKey:BillingID;constraint:OnDelete:CASCADE" json:"other_deductions"`

	TransportationCost Money `gorm:"embedded;embeddedPrefix:transport_cost_" json:"transportation_cost"`

	// Derived — recomputed by Recalculate on every save
	WeightDifference    Quantity        `gorm:"embedded;embeddedPrefix:weight_diff_" json:"weight_difference"`
	WeightDifferencePct decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"weight_difference_pct"`
	SubTotal            Money           `gorm:"embedded;embeddedPrefix:subtotal_" json:"sub_total"`
	TotalTax            Money           `gorm:"embedded;embeddedPrefix:total_tax_" json:"total_tax"`
	TotalDeductions     Money           `gorm:"embedded;embeddedPrefix:total_deductions_" json:"total_deductions"`
	TotalAmount         Money           `gorm:"embedded;embeddedPrefix:total_amount_" json:"total_amount"`

	BuyerGSTIN  string `gorm:"type:varchar(20)" json:"buyer_gstin"`
	FarmerGSTIN string `gorm:"type:varchar(20)" json:"farmer_gstin"`

	PaymentStatus     string          `gorm:"type:varchar(20);not null;default:'Unpaid';index:idx_billing_farmer_status;index:idx_billing_buyer_status" json:"payment_status"`
	PaymentMethod     string          `gorm:"type:varchar(20)" json:"payment_method"`
	PaidAmount        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"paid_amount"`
	PaymentDueDate    *time.Time      `json:"payment_due_date"`
	PaymentReceivedAt *time.Time      `json:"payment_received_at"`

	TermsAndConditions string `gorm:"type:text" json:"terms_and_conditions"`
	AdditionalNotes    string `gorm:"type:text" json:"additional_notes"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Recalculate derives every computed field from the raw inputs. It must
// run before every save of a billing row, not only at creation.
func (b *Billing) Recalculate() error {
	if b.OrderedQuantity.Value.IsZero() {
		return apperr.E(apperr.Invalid, "ordered quantity is zero, weight difference is undefined")
	}

	diff := b.ActualWeightReceived.Value.Sub(b.OrderedQuantity.Value)
	b.WeightDifference = Quantity{Value: diff, Unit: b.OrderedQuantity.Unit}
	b.WeightDifferencePct = diff.Div(b.OrderedQuantity.Value).Mul(decimal.NewFromInt(100))

	b.SubTotal = Money{
		Amount:   b.ActualWeightReceived.Value.Mul(b.RatePerUnit),
		Currency: CurrencyINR,
	}

	totalTax := b.SGST.Amount.Add(b.CGST.Amount).Add(b.IGST.Amount)
	for _, t := range b.OtherTaxes {
		totalTax = totalTax.Add(t.Amount)
	}
	b.TotalTax = Money{Amount: totalTax, Currency: CurrencyINR}

	totalDeductions := b.DamageDeduction.Amount.Add(b.QualityDeduct.Amount)
	for _, d := range b.OtherDeductions {
		totalDeductions = totalDeductions.Add(d.Amount)
	}
	b.TotalDeductions = Money{Amount: totalDeductions, Currency: CurrencyINR}

	b.TotalAmount = Money{
		Amount:   b.SubTotal.Amount.Add(totalTax).Sub(totalDeductions).Add(b.TransportationCost.Amount),
		Currency: CurrencyINR,
	}

	return nil
}

// RemainingAmount is the unpaid balance; negative when overpaid.
func (b *Billing) RemainingAmount() decimal.Decimal {
	return b.TotalAmount.Amount.Sub(b.PaidAmount)
}

// EffectivePaymentStatus folds the due date into the stored status:
// an unpaid or partially paid invoice past its due date reads as Overdue.
func (b *Billing) EffectivePaymentStatus(now time.Time) string {
	if b.PaymentStatus == BillingPaid {
		return BillingPaid
	}
	if b.PaymentDueDate != nil && now.After(*b.PaymentDueDate) {
		return BillingOverdue
	}
	return b.PaymentStatus
}
