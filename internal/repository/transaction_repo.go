package repository

import (
	"context"

	"agrimandi/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransactionListFilter narrows deal listings to one party and/or status.
type TransactionListFilter struct {
	FarmerID      *uuid.UUID
	BuyerID       *uuid.UUID
	TransporterID *uuid.UUID
	Status        string
	Page          int
	Limit         int
}

type TransactionRepository interface {
	Create(ctx context.Context, txn *model.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	List(ctx context.Context, filter TransactionListFilter) ([]model.Transaction, int64, error)
	// UpdateStatusIf applies updates only when the stored status still equals
	// expectedStatus, returning the number of rows matched. Zero rows means
	// the guard lost: the caller decides between not-found and conflict.
	UpdateStatusIf(ctx context.Context, id uuid.UUID, expectedStatus string, updates map[string]interface{}) (int64, error)
	Update(ctx context.Context, txn *model.Transaction) error
	AppendEvent(ctx context.Context, event *model.TransactionEvent) error
	ListEvents(ctx context.Context, transactionID uuid.UUID) ([]model.TransactionEvent, error)
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, txn *model.Transaction) error {
	return GetDB(ctx, r.db).Create(txn).Error
}

func (r *transactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var txn model.Transaction
	if err := GetDB(ctx, r.db).First(&txn, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *transactionRepository) List(ctx context.Context, filter TransactionListFilter) ([]model.Transaction, int64, error) {
	var txns []model.Transaction
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Transaction{})
	if filter.FarmerID != nil {
		query = query.Where("farmer_id = ?", *filter.FarmerID)
	}
	if filter.BuyerID != nil {
		query = query.Where("buyer_id = ?", *filter.BuyerID)
	}
	if filter.TransporterID != nil {
		query = query.Where("transporter_id = ?", *filter.TransporterID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := query.Order("created_at desc").Offset(offset).Limit(filter.Limit).Find(&txns).Error; err != nil {
		return nil, 0, err
	}

	return txns, total, nil
}

func (r *transactionRepository) UpdateStatusIf(ctx context.Context, id uuid.UUID, expectedStatus string, updates map[string]interface{}) (int64, error) {
	result := GetDB(ctx, r.db).Model(&model.Transaction{}).
		Where("id = ? AND status = ?", id, expectedStatus).
		Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *transactionRepository) Update(ctx context.Context, txn *model.Transaction) error {
	return GetDB(ctx, r.db).Save(txn).Error
}

func (r *transactionRepository) AppendEvent(ctx context.Context, event *model.TransactionEvent) error {
	return GetDB(ctx, r.db).Create(event).Error
}

func (r *transactionRepository) ListEvents(ctx context.Context, transactionID uuid.UUID) ([]model.TransactionEvent, error) {
	var events []model.TransactionEvent
	if err := GetDB(ctx, r.db).Where("transaction_id = ?", transactionID).Order("created_at asc").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
