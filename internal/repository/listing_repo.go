package repository

import (
	"context"

	"agrimandi/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ListingListFilter narrows listing searches; zero values mean "any".
type ListingListFilter struct {
	CommodityType string
	State         string
	Quality       string
	MinPrice      *decimal.Decimal
	MaxPrice      *decimal.Decimal
	FarmerID      *uuid.UUID
	ActiveOnly    bool
	Page          int
	Limit         int
}

type ListingRepository interface {
	Create(ctx context.Context, listing *model.CommodityListing) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CommodityListing, error)
	List(ctx context.Context, filter ListingListFilter) ([]model.CommodityListing, int64, error)
	Update(ctx context.Context, listing *model.CommodityListing) error
}

type listingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

func (r *listingRepository) Create(ctx context.Context, listing *model.CommodityListing) error {
	return GetDB(ctx, r.db).Create(listing).Error
}

func (r *listingRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.CommodityListing, error) {
	var listing model.CommodityListing
	if err := GetDB(ctx, r.db).First(&listing, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *listingRepository) List(ctx context.Context, filter ListingListFilter) ([]model.CommodityListing, int64, error) {
	var listings []model.CommodityListing
	var total int64

	query := GetDB(ctx, r.db).Model(&model.CommodityListing{})
	if filter.CommodityType != "" {
		query = query.Where("commodity_type = ?", filter.CommodityType)
	}
	if filter.State != "" {
		query = query.Where("pickup_state = ?", filter.State)
	}
	if filter.Quality != "" {
		query = query.Where("quality = ?", filter.Quality)
	}
	if filter.MinPrice != nil {
		query = query.Where("price_per_unit >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price_per_unit <= ?", *filter.MaxPrice)
	}
	if filter.FarmerID != nil {
		query = query.Where("farmer_id = ?", *filter.FarmerID)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := query.Order("created_at desc").Offset(offset).Limit(filter.Limit).Find(&listings).Error; err != nil {
		return nil, 0, err
	}

	return listings, total, nil
}

func (r *listingRepository) Update(ctx context.Context, listing *model.CommodityListing) error {
	return GetDB(ctx, r.db).Save(listing).Error
}
