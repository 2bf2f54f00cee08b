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
	"agrimandi/pkg/apperr"
)

// --- DTOs ---

type CreateListingRequest struct {
	CommodityType  string `json:"commodity_type" binding:"required"`
	VarietySubtype string `json:"variety_subtype" binding:"required"`
	Description    string `json:"description" binding:"max=1000"`
	Quality        string `json:"quality" binding:"omitempty,oneof=Premium 'Grade A' 'Grade B' Standard"`

	AvailableQuantity decimal.Decimal `json:"available_quantity" binding:"required"`
	QuantityUnit      string          `json:"quantity_unit" binding:"required"`
	MinOrderQuantity  decimal.Decimal `json:"min_order_quantity"`
	PricePerUnit      decimal.Decimal `json:"price_per_unit" binding:"required"`

	PickupAddress   string   `json:"pickup_address"`
	PickupCity      string   `json:"pickup_city"`
	PickupState     string   `json:"pickup_state" binding:"required"`
	PickupPincode   string   `json:"pickup_pincode"`
	PickupLatitude  *float64 `json:"pickup_latitude"`
	PickupLongitude *float64 `json:"pickup_longitude"`

	HarvestDate   *time.Time `json:"harvest_date"`
	AvailableFrom *time.Time `json:"available_from"`
}

type UpdateListingRequest struct {
	Description       *string          `json:"description"`
	Quality           *string          `json:"quality"`
	AvailableQuantity *decimal.Decimal `json:"available_quantity"`
	PricePerUnit      *decimal.Decimal `json:"price_per_unit"`
	IsActive          *bool            `json:"is_active"`
}

type ListingSearchFilter struct {
	CommodityType string
	State         string
	Quality       string
	MinPrice      *decimal.Decimal
	MaxPrice      *decimal.Decimal
	FarmerID      string
	Page          int
	Limit         int
}

type ListingResponse struct {
	ID                string  `json:"id"`
	FarmerID          string  `json:"farmer_id"`
	CommodityType     string  `json:"commodity_type"`
	VarietySubtype    string  `json:"variety_subtype"`
	Description       string  `json:"description,omitempty"`
	Quality           string  `json:"quality"`
	AvailableQuantity string  `json:"available_quantity"`
	QuantityUnit      string  `json:"quantity_unit"`
	MinOrderQuantity  string  `json:"min_order_quantity"`
	PricePerUnit      string  `json:"price_per_unit"`
	Currency          string  `json:"currency"`
	PickupCity        string  `json:"pickup_city"`
	PickupState       string  `json:"pickup_state"`
	IsActive          bool    `json:"is_active"`
	HarvestDate       *string `json:"harvest_date"`
	CreatedAt         string  `json:"created_at"`
}

// --- Interface ---

type ListingService interface {
	CreateListing(ctx context.Context, farmerID string, req CreateListingRequest) (ListingResponse, error)
	UpdateListing(ctx context.Context, id string, farmerID string, req UpdateListingRequest) (ListingResponse, error)
	DeactivateListing(ctx context.Context, id string, farmerID string) error
	GetByID(ctx context.Context, id string) (ListingResponse, error)
	Search(ctx context.Context, filter ListingSearchFilter) ([]ListingResponse, int64, error)
}

type listingService struct {
	repo repository.ListingRepository
}

func NewListingService(repo repository.ListingRepository) ListingService {
	return &listingService{repo: repo}
}

// --- Implementation ---

func (s *listingService) CreateListing(ctx context.Context, farmerID string, req CreateListingRequest) (ListingResponse, error) {
	farmer, err := uuid.Parse(farmerID)
	if err != nil {
		return ListingResponse{}, apperr.E(apperr.Invalid, "invalid farmer id", err)
	}

	available, err := model.NewQuantity(req.AvailableQuantity, req.QuantityUnit)
	if err != nil {
		return ListingResponse{}, err
	}
	minOrder := req.MinOrderQuantity
	if minOrder.IsZero() {
		minOrder = decimal.NewFromInt(1)
	}
	minOrderQty, err := model.NewQuantity(minOrder, req.QuantityUnit)
	if err != nil {
		return ListingResponse{}, err
	}
	if req.PricePerUnit.IsNegative() {
		return ListingResponse{}, apperr.E(apperr.Invalid, "price cannot be negative")
	}

	quality := req.Quality
	if quality == "" {
		quality = model.QualityStandard
	}

	listing := &model.CommodityListing{
		FarmerID:          farmer,
		CommodityType:     req.CommodityType,
		VarietySubtype:    req.VarietySubtype,
		Description:       req.Description,
		Quality:           quality,
		AvailableQuantity: available,
		MinOrderQuantity:  minOrderQty,
		PricePerUnit:      req.PricePerUnit,
		PriceCurrency:     model.CurrencyINR,
		PriceUnit:         req.QuantityUnit,
		PickupLocation: model.Location{
			Address:   req.PickupAddress,
			City:      req.PickupCity,
			State:     req.PickupState,
			Pincode:   req.PickupPincode,
			Latitude:  req.PickupLatitude,
			Longitude: req.PickupLongitude,
		},
		HarvestDate:   req.HarvestDate,
		AvailableFrom: req.AvailableFrom,
		IsActive:      true,
	}

	if err := s.repo.Create(ctx, listing); err != nil {
		return ListingResponse{}, fmt.Errorf("failed to create listing: %w", err)
	}
	return toListingResponse(*listing), nil
}

func (s *listingService) UpdateListing(ctx context.Context, id string, farmerID string, req UpdateListingRequest) (ListingResponse, error) {
	listing, err := s.loadOwned(ctx, id, farmerID)
	if err != nil {
		return ListingResponse{}, err
	}

	if req.Description != nil {
		listing.Description = *req.Description
	}
	if req.Quality != nil {
		listing.Quality = *req.Quality
	}
	if req.AvailableQuantity != nil {
		qty, qtyErr := model.NewQuantity(*req.AvailableQuantity, listing.AvailableQuantity.Unit)
		if qtyErr != nil {
			return ListingResponse{}, qtyErr
		}
		listing.AvailableQuantity = qty
	}
	if req.PricePerUnit != nil {
		if req.PricePerUnit.IsNegative() {
			return ListingResponse{}, apperr.E(apperr.Invalid, "price cannot be negative")
		}
		listing.PricePerUnit = *req.PricePerUnit
	}
	if req.IsActive != nil {
		listing.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, listing); err != nil {
		return ListingResponse{}, fmt.Errorf("failed to update listing: %w", err)
	}
	return toListingResponse(*listing), nil
}

func (s *listingService) DeactivateListing(ctx context.Context, id string, farmerID string) error {
	listing, err := s.loadOwned(ctx, id, farmerID)
	if err != nil {
		return err
	}
	listing.IsActive = false
	if err := s.repo.Update(ctx, listing); err != nil {
		return fmt.Errorf("failed to deactivate listing: %w", err)
	}
	return nil
}

func (s *listingService) GetByID(ctx context.Context, id string) (ListingResponse, error) {
	listingID, err := uuid.Parse(id)
	if err != nil {
		return ListingResponse{}, apperr.E(apperr.Invalid, "invalid listing id", err)
	}
	listing, err := s.repo.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ListingResponse{}, apperr.NotFoundErr("listing")
		}
		return ListingResponse{}, fmt.Errorf("failed to load listing: %w", err)
	}
	return toListingResponse(*listing), nil
}

func (s *listingService) Search(ctx context.Context, filter ListingSearchFilter) ([]ListingResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	repoFilter := repository.ListingListFilter{
		CommodityType: filter.CommodityType,
		State:         filter.State,
		Quality:       filter.Quality,
		MinPrice:      filter.MinPrice,
		MaxPrice:      filter.MaxPrice,
		ActiveOnly:    true,
		Page:          filter.Page,
		Limit:         filter.Limit,
	}
	if filter.FarmerID != "" {
		farmer, err := uuid.Parse(filter.FarmerID)
		if err != nil {
			return nil, 0, apperr.E(apperr.Invalid, "invalid farmer id", err)
		}
		repoFilter.FarmerID = &farmer
		repoFilter.ActiveOnly = false // owners see their inactive listings too
	}

	listings, total, err := s.repo.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch listings: %w", err)
	}

	result := make([]ListingResponse, 0, len(listings))
	for _, l := range listings {
		result = append(result, toListingResponse(l))
	}
	return result, total, nil
}

// --- Helpers ---

func (s *listingService) loadOwned(ctx context.Context, id string, farmerID string) (*model.CommodityListing, error) {
	listingID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.E(apperr.Invalid, "invalid listing id", err)
	}
	farmer, err := uuid.Parse(farmerID)
	if err != nil {
		return nil, apperr.E(apperr.Invalid, "invalid farmer id", err)
	}

	listing, err := s.repo.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundErr("listing")
		}
		return nil, fmt.Errorf("failed to load listing: %w", err)
	}
	if listing.FarmerID != farmer {
		return nil, apperr.UnauthorizedErr("caller does not own this listing")
	}
	return listing, nil
}

// --- Mapping ---

func toListingResponse(l model.CommodityListing) ListingResponse {
	resp := ListingResponse{
		ID:                l.ID.String(),
		FarmerID:          l.FarmerID.String(),
		CommodityType:     l.CommodityType,
		VarietySubtype:    l.VarietySubtype,
		Description:       l.Description,
		Quality:           l.Quality,
		AvailableQuantity: l.AvailableQuantity.Value.StringFixed(2),
		QuantityUnit:      l.AvailableQuantity.Unit,
		MinOrderQuantity:  l.MinOrderQuantity.Value.StringFixed(2),
		PricePerUnit:      l.PricePerUnit.StringFixed(2),
		Currency:          l.PriceCurrency,
		PickupCity:        l.PickupLocation.City,
		PickupState:       l.PickupLocation.State,
		IsActive:          l.IsActive,
		CreatedAt:         l.CreatedAt.Format(time.RFC3339),
	}
	resp.HarvestDate = formatTimePtr(l.HarvestDate)
	return resp
}
