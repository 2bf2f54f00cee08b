package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"agrimandi/internal/model"
	"agrimandi/internal/repository"
	ws "agrimandi/internal/websocket"
	"agrimandi/pkg/apperr"
)

// --- DTOs ---

type TaxComponentRequest struct {
	Percentage decimal.Decimal `json:"percentage"`
	Amount     decimal.Decimal `json:"amount"`
}

type OtherTaxRequest struct {
	Name       string          `json:"name" binding:"required"`
	Percentage decimal.Decimal `json:"percentage"`
	Amount     decimal.Decimal `json:"amount"`
}

type DeductionRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason"`
}

type OtherDeductionRequest struct {
	Description string          `json:"description" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
}

type CreateBillingRequest struct {
	TransactionID        string          `json:"transaction_id" binding:"required"`
	ActualWeightReceived decimal.Decimal `json:"actual_weight_received" binding:"required"`
	RatePerUnit          decimal.Decimal `json:"rate_per_unit" binding:"required"`

	SGST            *TaxComponentRequest    `json:"sgst"`
	CGST            *TaxComponentRequest    `json:"cgst"`
	IGST            *TaxComponentRequest    `json:"igst"`
	OtherTaxes      []OtherTaxRequest       `json:"other_taxes"`
	DamageDeduction *DeductionRequest       `json:"damage_deduction"`
	QualityDeduct   *DeductionRequest       `json:"quality_deduction"`
	OtherDeductions []OtherDeductionRequest `json:"other_deductions"`

	PaymentDueDate     *time.Time `json:"payment_due_date"`
	TermsAndConditions string     `json:"terms_and_conditions"`
	Notes              string     `json:"notes"`
}

type RecordPaymentRequest struct {
	PaymentMethod string          `json:"payment_method" binding:"required,oneof=Cash Cheque UPI 'Bank Transfer'"`
	PaidAmount    decimal.Decimal `json:"paid_amount" binding:"required"`
	PaymentDate   *time.Time      `json:"payment_date"`
}

type BillingFilter struct {
	PaymentStatus string
	Page          int
	Limit         int
}

type BillingResponse struct {
	ID             string `json:"id"`
	InvoiceNumber  string `json:"invoice_number"`
	TransactionID  string `json:"transaction_id"`
	FarmerID       string `json:"farmer_id"`
	BuyerID        string `json:"buyer_id"`
	CommodityType  string `json:"commodity_type"`
	VarietySubtype string `json:"variety_subtype"`

	OrderedQuantity      string `json:"ordered_quantity"`
	ActualWeightReceived string `json:"actual_weight_received"`
	QuantityUnit         string `json:"quantity_unit"`
	RatePerUnit          string `json:"rate_per_unit"`

	WeightDifference    string `json:"weight_difference"`
	WeightDifferencePct string `json:"weight_difference_pct"`
	SubTotal            string `json:"sub_total"`
	TotalTax            string `json:"total_tax"`
	TotalDeductions     string `json:"total_deductions"`
	TransportationCost  string `json:"transportation_cost"`
	TotalAmount         string `json:"total_amount"`

	BuyerGSTIN        string  `json:"buyer_gstin"`
	PaymentStatus     string  `json:"payment_status"`
	PaymentMethod     string  `json:"payment_method,omitempty"`
	PaidAmount        string  `json:"paid_amount"`
	RemainingAmount   string  `json:"remaining_amount"`
	PaymentDueDate    *string `json:"payment_due_date"`
	PaymentReceivedAt *string `json:"payment_received_at"`
	CreatedAt         string  `json:"created_at"`
}

// --- Interface ---

type BillingService interface {
	CreateBilling(ctx context.Context, buyerID string, req CreateBillingRequest) (BillingResponse, error)
	RecordPayment(ctx context.Context, id string, buyerID string, req RecordPaymentRequest) (BillingResponse, error)
	GetByID(ctx context.Context, id string, callerID string) (BillingResponse, error)
	ListByParty(ctx context.Context, callerID string, role string, filter BillingFilter) ([]BillingResponse, int64, error)
}

type billingService struct {
	billingRepo repository.BillingRepository
	txnRepo     repository.TransactionRepository
	userRepo    repository.UserRepository
	seqRepo     repository.SequenceRepository
	txManager   repository.TransactionManager
	hub         *ws.Hub

	// allowOverpayment keeps the legacy behavior of silently accepting
	// payments beyond the invoice total; when false the excess is rejected.
	allowOverpayment bool
}

func NewBillingService(
	billingRepo repository.BillingRepository,
	txnRepo repository.TransactionRepository,
	userRepo repository.UserRepository,
	seqRepo repository.SequenceRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
	allowOverpayment bool,
) BillingService {
	return &billingService{
		billingRepo:      billingRepo,
		txnRepo:          txnRepo,
		userRepo:         userRepo,
		seqRepo:          seqRepo,
		txManager:        txManager,
		hub:              hub,
		allowOverpayment: allowOverpayment,
	}
}

// --- Implementation ---

func (s *billingService) CreateBilling(ctx context.Context, buyerID string, req CreateBillingRequest) (BillingResponse, error) {
	buyer, err := uuid.Parse(buyerID)
	if err != nil {
		return BillingResponse{}, apperr.E(apperr.Invalid, "invalid buyer id", err)
	}
	txnID, err := uuid.Parse(req.TransactionID)
	if err != nil {
		return BillingResponse{}, apperr.E(apperr.Invalid, "invalid transaction id", err)
	}
	if req.ActualWeightReceived.IsNegative() {
		return BillingResponse{}, apperr.E(apperr.Invalid, "actual weight cannot be negative")
	}
	if req.RatePerUnit.IsNegative() {
		return BillingResponse{}, apperr.E(apperr.Invalid, "rate per unit cannot be negative")
	}

	txn, err := s.txnRepo.FindByID(ctx, txnID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return BillingResponse{}, apperr.NotFoundErr("transaction")
		}
		return BillingResponse{}, fmt.Errorf("failed to load transaction: %w", err)
	}
	if txn.BuyerID != buyer {
		return BillingResponse{}, apperr.UnauthorizedErr("only the transaction's buyer may create the invoice")
	}
	if !model.CanTransition(txn.Status, model.StatusCompleted) {
		return BillingResponse{}, apperr.Ef(apperr.Conflict, "transaction in status %q cannot be billed", txn.Status)
	}
	if _, err := s.billingRepo.FindByTransactionID(ctx, txnID); err == nil {
		return BillingResponse{}, apperr.E(apperr.Conflict, "transaction already has an invoice")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return BillingResponse{}, fmt.Errorf("failed to check existing invoice: %w", err)
	}

	billing := &model.Billing{
		TransactionID:  txn.ID,
		FarmerID:       txn.FarmerID,
		BuyerID:        txn.BuyerID,
		CommodityType:  txn.CommodityType,
		VarietySubtype: txn.VarietySubtype,
		OrderedQuantity: txn.AgreedQuantity,
		ActualWeightReceived: model.Quantity{
			Value: req.ActualWeightReceived,
			Unit:  txn.AgreedQuantity.Unit,
		},
		RatePerUnit:        req.RatePerUnit,
		TransportationCost: txn.TransportationCost,
		PaymentStatus:      model.BillingUnpaid,
		PaymentDueDate:     req.PaymentDueDate,
		TermsAndConditions: req.TermsAndConditions,
		AdditionalNotes:    req.Notes,
	}
	if billing.TransportationCost.Currency == "" {
		billing.TransportationCost.Currency = model.CurrencyINR
	}

	if req.SGST != nil {
		billing.SGST = model.TaxComponent{Percentage: req.SGST.Percentage, Amount: req.SGST.Amount}
	}
	if req.CGST != nil {
		billing.CGST = model.TaxComponent{Percentage: req.CGST.Percentage, Amount: req.CGST.Amount}
	}
	if req.IGST != nil {
		billing.IGST = model.TaxComponent{Percentage: req.IGST.Percentage, Amount: req.IGST.Amount}
	}
	for _, t := range req.OtherTaxes {
		billing.OtherTaxes = append(billing.OtherTaxes, model.BillingTaxLine{
			Name:       t.Name,
			Percentage: t.Percentage,
			Amount:     t.Amount,
		})
	}
	if req.DamageDeduction != nil {
		billing.DamageDeduction = model.DeductionComponent{Amount: req.DamageDeduction.Amount, Reason: req.DamageDeduction.Reason}
	}
	if req.QualityDeduct != nil {
		billing.QualityDeduct = model.DeductionComponent{Amount: req.QualityDeduct.Amount, Reason: req.QualityDeduct.Reason}
	}
	for _, d := range req.OtherDeductions {
		billing.OtherDeductions = append(billing.OtherDeductions, model.BillingDeductionLine{
			Description: d.Description,
			Amount:      d.Amount,
		})
	}

	// Copy the buyer's GSTIN onto the invoice; the profile is the source
	// of truth for tax identity at billing time.
	if profile, profileErr := s.userRepo.FindBuyerProfile(ctx, buyer); profileErr == nil {
		billing.BuyerGSTIN = profile.GSTIN
	}

	if err := billing.Recalculate(); err != nil {
		return BillingResponse{}, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		invoiceNumber, numErr := s.nextInvoiceNumber(txCtx)
		if numErr != nil {
			return numErr
		}
		billing.InvoiceNumber = invoiceNumber

		if createErr := s.billingRepo.Create(txCtx, billing); createErr != nil {
			return fmt.Errorf("failed to create invoice: %w", createErr)
		}

		now := time.Now()
		rows, updateErr := s.txnRepo.UpdateStatusIf(txCtx, txn.ID, txn.Status, map[string]interface{}{
			"status":       model.StatusCompleted,
			"billing_id":   billing.ID,
			"completed_at": &now,
		})
		if updateErr != nil {
			return fmt.Errorf("failed to complete transaction: %w", updateErr)
		}
		if rows == 0 {
			return apperr.Ef(apperr.Conflict, "transaction is no longer in status %q", txn.Status)
		}
		return s.txnRepo.AppendEvent(txCtx, &model.TransactionEvent{
			TransactionID: txn.ID,
			ActorID:       &buyer,
			FromStatus:    txn.Status,
			ToStatus:      model.StatusCompleted,
			Note:          "invoice " + billing.InvoiceNumber + " created",
		})
	})
	if err != nil {
		return BillingResponse{}, err
	}

	s.notify(txn.FarmerID, "invoice_created", billing)
	return toBillingResponse(*billing), nil
}

func (s *billingService) RecordPayment(ctx context.Context, id string, buyerID string, req RecordPaymentRequest) (BillingResponse, error) {
	billing, _, err := s.loadAsBuyer(ctx, id, buyerID)
	if err != nil {
		return BillingResponse{}, err
	}
	if req.PaidAmount.IsNegative() {
		return BillingResponse{}, apperr.E(apperr.Invalid, "paid amount cannot be negative")
	}

	newPaid := billing.PaidAmount.Add(req.PaidAmount)
	if !s.allowOverpayment && newPaid.GreaterThan(billing.TotalAmount.Amount) {
		return BillingResponse{}, apperr.Ef(apperr.Invalid, "payment of %s exceeds outstanding balance %s",
			req.PaidAmount.StringFixed(2), billing.RemainingAmount().StringFixed(2))
	}

	billing.PaidAmount = newPaid
	billing.PaymentMethod = req.PaymentMethod
	if req.PaymentDate != nil {
		billing.PaymentReceivedAt = req.PaymentDate
	} else {
		now := time.Now()
		billing.PaymentReceivedAt = &now
	}

	// Paid is terminal; anything short of the total with money received
	// reads Partial.
	switch {
	case newPaid.GreaterThanOrEqual(billing.TotalAmount.Amount):
		billing.PaymentStatus = model.BillingPaid
	case newPaid.IsPositive():
		billing.PaymentStatus = model.BillingPartial
	}

	// Totals are always rederived from raw inputs before a save so a
	// stale row can never persist drifted amounts.
	if err := billing.Recalculate(); err != nil {
		return BillingResponse{}, err
	}
	if err := s.billingRepo.Update(ctx, billing); err != nil {
		return BillingResponse{}, fmt.Errorf("failed to record payment: %w", err)
	}

	s.notify(billing.FarmerID, "payment_received", billing)
	return toBillingResponse(*billing), nil
}

func (s *billingService) GetByID(ctx context.Context, id string, callerID string) (BillingResponse, error) {
	billingID, err := uuid.Parse(id)
	if err != nil {
		return BillingResponse{}, apperr.E(apperr.Invalid, "invalid billing id", err)
	}
	caller, err := uuid.Parse(callerID)
	if err != nil {
		return BillingResponse{}, apperr.E(apperr.Invalid, "invalid caller id", err)
	}

	billing, err := s.billingRepo.FindByID(ctx, billingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return BillingResponse{}, apperr.NotFoundErr("billing")
		}
		return BillingResponse{}, fmt.Errorf("failed to load billing: %w", err)
	}
	if billing.FarmerID != caller && billing.BuyerID != caller {
		return BillingResponse{}, apperr.UnauthorizedErr("caller is not a party to this invoice")
	}
	return toBillingResponse(*billing), nil
}

func (s *billingService) ListByParty(ctx context.Context, callerID string, role string, filter BillingFilter) ([]BillingResponse, int64, error) {
	caller, err := uuid.Parse(callerID)
	if err != nil {
		return nil, 0, apperr.E(apperr.Invalid, "invalid caller id", err)
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	listFilter := repository.BillingListFilter{
		PaymentStatus: filter.PaymentStatus,
		Page:          filter.Page,
		Limit:         filter.Limit,
	}
	switch role {
	case model.RoleFarmer:
		listFilter.FarmerID = &caller
	case model.RoleBuyer:
		listFilter.BuyerID = &caller
	default:
		return nil, 0, apperr.Ef(apperr.Invalid, "unknown role %q", role)
	}

	billings, total, err := s.billingRepo.List(ctx, listFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch billings: %w", err)
	}

	result := make([]BillingResponse, 0, len(billings))
	for _, b := range billings {
		result = append(result, toBillingResponse(b))
	}
	return result, total, nil
}

// --- Helpers ---

func (s *billingService) loadAsBuyer(ctx context.Context, id string, buyerID string) (*model.Billing, uuid.UUID, error) {
	billingID, err := uuid.Parse(id)
	if err != nil {
		return nil, uuid.Nil, apperr.E(apperr.Invalid, "invalid billing id", err)
	}
	buyer, err := uuid.Parse(buyerID)
	if err != nil {
		return nil, uuid.Nil, apperr.E(apperr.Invalid, "invalid buyer id", err)
	}

	billing, err := s.billingRepo.FindByID(ctx, billingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, uuid.Nil, apperr.NotFoundErr("billing")
		}
		return nil, uuid.Nil, fmt.Errorf("failed to load billing: %w", err)
	}
	if billing.BuyerID != buyer {
		return nil, uuid.Nil, apperr.UnauthorizedErr("only the invoice's buyer may record payments")
	}
	return billing, buyer, nil
}

// nextInvoiceNumber issues INV-<yyyymm>-<seq> from a per-month atomic
// counter, so concurrent invoices in the same month never collide.
func (s *billingService) nextInvoiceNumber(ctx context.Context) (string, error) {
	yearMonth := time.Now().Format("200601")
	seq, err := s.seqRepo.Next(ctx, "invoice-"+yearMonth)
	if err != nil {
		return "", fmt.Errorf("failed to allocate invoice sequence: %w", err)
	}
	return fmt.Sprintf("INV-%s-%06d", yearMonth, seq), nil
}

func (s *billingService) notify(userID uuid.UUID, event string, billing *model.Billing) {
	if s.hub == nil {
		return
	}
	s.hub.NotifyUser(userID.String(), ws.Event{
		Event: event,
		Data: map[string]interface{}{
			"billing_id":     billing.ID.String(),
			"invoice_number": billing.InvoiceNumber,
			"payment_status": billing.PaymentStatus,
			"total_amount":   billing.TotalAmount.Amount.StringFixed(2),
		},
	})
}

// --- Mapping ---

func toBillingResponse(b model.Billing) BillingResponse {
	resp := BillingResponse{
		ID:                   b.ID.String(),
		InvoiceNumber:        b.InvoiceNumber,
		TransactionID:        b.TransactionID.String(),
		FarmerID:             b.FarmerID.String(),
		BuyerID:              b.BuyerID.String(),
		CommodityType:        b.CommodityType,
		VarietySubtype:       b.VarietySubtype,
		OrderedQuantity:      b.OrderedQuantity.Value.StringFixed(2),
		ActualWeightReceived: b.ActualWeightReceived.Value.StringFixed(2),
		QuantityUnit:         b.OrderedQuantity.Unit,
		RatePerUnit:          b.RatePerUnit.StringFixed(2),
		WeightDifference:     b.WeightDifference.Value.StringFixed(2),
		WeightDifferencePct:  b.WeightDifferencePct.StringFixed(2),
		SubTotal:             b.SubTotal.Amount.StringFixed(2),
		TotalTax:             b.TotalTax.Amount.StringFixed(2),
		TotalDeductions:      b.TotalDeductions.Amount.StringFixed(2),
		TransportationCost:   b.TransportationCost.Amount.StringFixed(2),
		TotalAmount:          b.TotalAmount.Amount.StringFixed(2),
		BuyerGSTIN:           b.BuyerGSTIN,
		PaymentStatus:        b.EffectivePaymentStatus(time.Now()),
		PaymentMethod:        b.PaymentMethod,
		PaidAmount:           b.PaidAmount.StringFixed(2),
		RemainingAmount:      b.RemainingAmount().StringFixed(2),
		CreatedAt:            b.CreatedAt.Format(time.RFC3339),
	}
	resp.PaymentDueDate = formatTimePtr(b.PaymentDueDate)
	resp.PaymentReceivedAt = formatTimePtr(b.PaymentReceivedAt)
	return resp
}
