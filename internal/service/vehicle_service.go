package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"agrimandi/internal/model"
	"agrimandi/internal/repository"
	"agrimandi/pkg/apperr"
)

// Indian vehicle registration plates, e.g. MH12AB1234.
var registrationRegex = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[A-Z]{2}[0-9]{4}$`)

// --- DTOs ---

type RegisterVehicleRequest struct {
	VehicleType        string `json:"vehicle_type" binding:"required"`
	RegistrationNumber string `json:"registration_number" binding:"required"`
	RegistrationState  string `json:"registration_state"`
	Brand              string `json:"brand"`
	Model              string `json:"model"`

	CapacityWeight decimal.Decimal `json:"capacity_weight" binding:"required"`
	CapacityUnit   string          `json:"capacity_unit" binding:"required"`

	PricePerKilometer decimal.Decimal `json:"price_per_kilometer" binding:"required"`

	ServiceStates []string `json:"service_states" binding:"required,min=1"`
	ServiceCities []string `json:"service_cities"`
	MaxDistanceKm *int     `json:"max_distance_km"`

	HasGPS         bool `json:"has_gps"`
	IsRefrigerated bool `json:"is_refrigerated"`
	HasCovering    bool `json:"has_covering"`
}

type UpdateVehicleRequest struct {
	PricePerKilometer *decimal.Decimal `json:"price_per_kilometer"`
	ServiceStates     []string         `json:"service_states"`
	ServiceCities     []string         `json:"service_cities"`
	MaxDistanceKm     *int             `json:"max_distance_km"`
	IsAvailable       *bool            `json:"is_available"`
}

type VehicleSearchFilter struct {
	TransporterID string
	ServiceState  string
	AvailableOnly bool
	Page          int
	Limit         int
}

type VehicleResponse struct {
	ID                 string   `json:"id"`
	TransporterID      string   `json:"transporter_id"`
	VehicleType        string   `json:"vehicle_type"`
	RegistrationNumber string   `json:"registration_number"`
	RegistrationState  string   `json:"registration_state,omitempty"`
	Brand              string   `json:"brand,omitempty"`
	Model              string   `json:"model,omitempty"`
	CapacityWeight     string   `json:"capacity_weight"`
	CapacityUnit       string   `json:"capacity_unit"`
	PricePerKilometer  string   `json:"price_per_kilometer"`
	Currency           string   `json:"currency"`
	ServiceStates      []string `json:"service_states"`
	ServiceCities      []string `json:"service_cities,omitempty"`
	MaxDistanceKm      *int     `json:"max_distance_km,omitempty"`
	HasGPS             bool     `json:"has_gps"`
	IsRefrigerated     bool     `json:"is_refrigerated"`
	HasCovering        bool     `json:"has_covering"`
	IsAvailable        bool     `json:"is_available"`
	CreatedAt          string   `json:"created_at"`
}

// --- Interface ---

type VehicleService interface {
	RegisterVehicle(ctx context.Context, transporterID string, req RegisterVehicleRequest) (VehicleResponse, error)
	UpdateVehicle(ctx context.Context, id string, transporterID string, req UpdateVehicleRequest) (VehicleResponse, error)
	GetByID(ctx context.Context, id string) (VehicleResponse, error)
	Search(ctx context.Context, filter VehicleSearchFilter) ([]VehicleResponse, int64, error)
}

type vehicleService struct {
	repo repository.VehicleRepository
}

func NewVehicleService(repo repository.VehicleRepository) VehicleService {
	return &vehicleService{repo: repo}
}

// --- Implementation ---

func (s *vehicleService) RegisterVehicle(ctx context.Context, transporterID string, req RegisterVehicleRequest) (VehicleResponse, error) {
	transporter, err := uuid.Parse(transporterID)
	if err != nil {
		return VehicleResponse{}, apperr.E(apperr.Invalid, "invalid transporter id", err)
	}

	regNum := strings.ToUpper(strings.ReplaceAll(req.RegistrationNumber, " ", ""))
	if !registrationRegex.MatchString(regNum) {
		return VehicleResponse{}, apperr.E(apperr.Invalid, "invalid registration number format")
	}

	capacity, err := model.NewQuantity(req.CapacityWeight, req.CapacityUnit)
	if err != nil {
		return VehicleResponse{}, err
	}
	if req.PricePerKilometer.IsNegative() {
		return VehicleResponse{}, apperr.E(apperr.Invalid, "price per kilometer cannot be negative")
	}

	vehicle := &model.Vehicle{
		TransporterID:      transporter,
		VehicleType:        req.VehicleType,
		RegistrationNumber: regNum,
		RegistrationState:  req.RegistrationState,
		Brand:              req.Brand,
		Model:              req.Model,
		CapacityWeight:     capacity,
		PricePerKilometer:  req.PricePerKilometer,
		PriceCurrency:      model.CurrencyINR,
		ServiceStates:      strings.Join(req.ServiceStates, ","),
		ServiceCities:      strings.Join(req.ServiceCities, ","),
		MaxDistanceKm:      req.MaxDistanceKm,
		HasGPS:             req.HasGPS,
		IsRefrigerated:     req.IsRefrigerated,
		HasCovering:        req.HasCovering,
		IsAvailable:        true,
	}

	if err := s.repo.Create(ctx, vehicle); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return VehicleResponse{}, apperr.E(apperr.Conflict, "registration number already exists", err)
		}
		return VehicleResponse{}, fmt.Errorf("failed to register vehicle: %w", err)
	}
	return toVehicleResponse(*vehicle), nil
}

func (s *vehicleService) UpdateVehicle(ctx context.Context, id string, transporterID string, req UpdateVehicleRequest) (VehicleResponse, error) {
	vehicle, err := s.loadOwned(ctx, id, transporterID)
	if err != nil {
		return VehicleResponse{}, err
	}

	if req.PricePerKilometer != nil {
		if req.PricePerKilometer.IsNegative() {
			return VehicleResponse{}, apperr.E(apperr.Invalid, "price per kilometer cannot be negative")
		}
		vehicle.PricePerKilometer = *req.PricePerKilometer
	}
	if req.ServiceStates != nil {
		vehicle.ServiceStates = strings.Join(req.ServiceStates, ",")
	}
	if req.ServiceCities != nil {
		vehicle.ServiceCities = strings.Join(req.ServiceCities, ",")
	}
	if req.MaxDistanceKm != nil {
		vehicle.MaxDistanceKm = req.MaxDistanceKm
	}
	if req.IsAvailable != nil {
		vehicle.IsAvailable = *req.IsAvailable
	}

	if err := s.repo.Update(ctx, vehicle); err != nil {
		return VehicleResponse{}, fmt.Errorf("failed to update vehicle: %w", err)
	}
	return toVehicleResponse(*vehicle), nil
}

func (s *vehicleService) GetByID(ctx context.Context, id string) (VehicleResponse, error) {
	vehicleID, err := uuid.Parse(id)
	if err != nil {
		return VehicleResponse{}, apperr.E(apperr.Invalid, "invalid vehicle id", err)
	}
	vehicle, err := s.repo.FindByID(ctx, vehicleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return VehicleResponse{}, apperr.NotFoundErr("vehicle")
		}
		return VehicleResponse{}, fmt.Errorf("failed to load vehicle: %w", err)
	}
	return toVehicleResponse(*vehicle), nil
}

func (s *vehicleService) Search(ctx context.Context, filter VehicleSearchFilter) ([]VehicleResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	repoFilter := repository.VehicleListFilter{
		ServiceState:  filter.ServiceState,
		AvailableOnly: filter.AvailableOnly,
		Page:          filter.Page,
		Limit:         filter.Limit,
	}
	if filter.TransporterID != "" {
		transporter, err := uuid.Parse(filter.TransporterID)
		if err != nil {
			return nil, 0, apperr.E(apperr.Invalid, "invalid transporter id", err)
		}
		repoFilter.TransporterID = &transporter
	}

	vehicles, total, err := s.repo.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch vehicles: %w", err)
	}

	result := make([]VehicleResponse, 0, len(vehicles))
	for _, v := range vehicles {
		result = append(result, toVehicleResponse(v))
	}
	return result, total, nil
}

// --- Helpers ---

func (s *vehicleService) loadOwned(ctx context.Context, id string, transporterID string) (*model.Vehicle, error) {
	vehicleID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.E(apperr.Invalid, "invalid vehicle id", err)
	}
	transporter, err := uuid.Parse(transporterID)
	if err != nil {
		return nil, apperr.E(apperr.Invalid, "invalid transporter id", err)
	}

	vehicle, err := s.repo.FindByID(ctx, vehicleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundErr("vehicle")
		}
		return nil, fmt.Errorf("failed to load vehicle: %w", err)
	}
	if vehicle.TransporterID != transporter {
		return nil, apperr.UnauthorizedErr("caller does not own this vehicle")
	}
	return vehicle, nil
}

// --- Mapping ---

func toVehicleResponse(v model.Vehicle) VehicleResponse {
	return VehicleResponse{
		ID:                 v.ID.String(),
		TransporterID:      v.TransporterID.String(),
		VehicleType:        v.VehicleType,
		RegistrationNumber: v.RegistrationNumber,
		RegistrationState:  v.RegistrationState,
		Brand:              v.Brand,
		Model:              v.Model,
		CapacityWeight:     v.CapacityWeight.Value.StringFixed(2),
		CapacityUnit:       v.CapacityWeight.Unit,
		PricePerKilometer:  v.PricePerKilometer.StringFixed(2),
		Currency:           v.PriceCurrency,
		ServiceStates:      splitCSV(v.ServiceStates),
		ServiceCities:      splitCSV(v.ServiceCities),
		MaxDistanceKm:      v.MaxDistanceKm,
		HasGPS:             v.HasGPS,
		IsRefrigerated:     v.IsRefrigerated,
		HasCovering:        v.HasCovering,
		IsAvailable:        v.IsAvailable,
		CreatedAt:          v.CreatedAt.Format(time.RFC3339),
	}
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
