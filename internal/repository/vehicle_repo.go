package repository

import (
	"context"

	"agrimandi/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VehicleListFilter narrows vehicle searches. ServiceState matches
// vehicles whose comma-separated service_states column contains the state.
type VehicleListFilter struct {
	TransporterID *uuid.UUID
	ServiceState  string
	AvailableOnly bool
	Page          int
	Limit         int
}

type VehicleRepository interface {
	Create(ctx context.Context, vehicle *model.Vehicle) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Vehicle, error)
	List(ctx context.Context, filter VehicleListFilter) ([]model.Vehicle, int64, error)
	Update(ctx context.Context, vehicle *model.Vehicle) error
	SetAvailability(ctx context.Context, id uuid.UUID, available bool) error
}

type vehicleRepository struct {
	db *gorm.DB
}

func NewVehicleRepository(db *gorm.DB) VehicleRepository {
	return &vehicleRepository{db: db}
}

func (r *vehicleRepository) Create(ctx context.Context, vehicle *model.Vehicle) error {
	return GetDB(ctx, r.db).Create(vehicle).Error
}

func (r *vehicleRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Vehicle, error) {
	var vehicle model.Vehicle
	if err := GetDB(ctx, r.db).First(&vehicle, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &vehicle, nil
}

func (r *vehicleRepository) List(ctx context.Context, filter VehicleListFilter) ([]model.Vehicle, int64, error) {
	var vehicles []model.Vehicle
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Vehicle{})
	if filter.TransporterID != nil {
		query = query.Where("transporter_id = ?", *filter.TransporterID)
	}
	if filter.ServiceState != "" {
		query = query.Where("service_states LIKE ?", "%"+filter.ServiceState+"%")
	}
	if filter.AvailableOnly {
		query = query.Where("is_available = ?", true)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := query.Order("created_at desc").Offset(offset).Limit(filter.Limit).Find(&vehicles).Error; err != nil {
		return nil, 0, err
	}

	return vehicles, total, nil
}

func (r *vehicleRepository) Update(ctx context.Context, vehicle *model.Vehicle) error {
	return GetDB(ctx, r.db).Save(vehicle).Error
}

func (r *vehicleRepository) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	return GetDB(ctx, r.db).Model(&model.Vehicle{}).Where("id = ?", id).Update("is_available", available).Error
}
