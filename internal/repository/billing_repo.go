package repository

import (
	"context"

	"agrimandi/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BillingListFilter narrows invoice listings to one party and/or payment status.
type BillingListFilter struct {
	FarmerID      *uuid.UUID
	BuyerID       *uuid.UUID
	PaymentStatus string
	Page          int
	Limit         int
}

type BillingRepository interface {
	Create(ctx context.Context, billing *model.Billing) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Billing, error)
	FindByTransactionID(ctx context.Context, transactionID uuid.UUID) (*model.Billing, error)
	List(ctx context.Context, filter BillingListFilter) ([]model.Billing, int64, error)
	Update(ctx context.Context, billing *model.Billing) error
}

type billingRepository struct {
	db *gorm.DB
}

func NewBillingRepository(db *gorm.DB) BillingRepository {
	return &billingRepository{db: db}
}

func (r *billingRepository) Create(ctx context.Context, billing *model.Billing) error {
	return GetDB(ctx, r.db).Create(billing).Error
}

func (r *billingRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Billing, error) {
	var billing model.Billing
	if err := GetDB(ctx, r.db).Preload("OtherTaxes").Preload("OtherDeductions").First(&billing, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &billing, nil
}

func (r *billingRepository) FindByTransactionID(ctx context.Context, transactionID uuid.UUID) (*model.Billing, error) {
	var billing model.Billing
	if err := GetDB(ctx, r.db).Preload("OtherTaxes").Preload("OtherDeductions").First(&billing, "transaction_id = ?", transactionID).Error; err != nil {
		return nil, err
	}
	return &billing, nil
}

func (r *billingRepository) List(ctx context.Context, filter BillingListFilter) ([]model.Billing, int64, error) {
	var billings []model.Billing
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Billing{})
	if filter.FarmerID != nil {
		query = query.Where("farmer_id = ?", *filter.FarmerID)
	}
	if filter.BuyerID != nil {
		query = query.Where("buyer_id = ?", *filter.BuyerID)
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := query.Preload("OtherTaxes").Preload("OtherDeductions").Order("created_at desc").Offset(offset).Limit(filter.Limit).Find(&billings).Error; err != nil {
		return nil, 0, err
	}

	return billings, total, nil
}

func (r *billingRepository) Update(ctx context.Context, billing *model.Billing) error {
	return GetDB(ctx, r.db).Save(billing).Error
}
