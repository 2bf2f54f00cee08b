package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Vehicle type constants
const (
	VehicleTwoWheeler   = "Two Wheeler"
	VehicleThreeWheeler = "Three Wheeler Auto"
	VehicleMiniTruck    = "Mini Truck (1-2 Ton)"
	VehicleSmallTruck   = "Small Truck (2-5 Ton)"
	VehicleMediumTruck  = "Medium Truck (5-10 Ton)"
	VehicleHeavyTruck   = "Heavy Truck (10+ Ton)"
	VehicleRefrigerated = "Refrigerated Truck"
	VehicleContainer    = "Container"
)

// Vehicle is a transporter's registered vehicle offered for logistics.
// ServiceStates is the comma-separated set of states the vehicle operates
// in, matched against a transaction's pickup state when searching.
type Vehicle struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TransporterID uuid.UUID  `gorm:"type:uuid;not null;index" json:"transporter_id"`
	DriverID      *uuid.UUID `gorm:"type:uuid" json:"driver_id"`

	VehicleType        string `gorm:"type:varchar(50);not null;index" json:"vehicle_type"`
	RegistrationNumber string `gorm:"type:varchar(20);uniqueIndex;not null" json:"registration_number"`
	RegistrationState  string `gorm:"type:varchar(100)" json:"registration_state"`
	Brand              string `gorm:"type:varchar(100)" json:"brand"`
	Model              string `gorm:"type:varchar(100)" json:"model"`

	CapacityWeight Quantity `gorm:"embedded;embeddedPrefix:capacity_" json:"capacity_weight"`

	PricePerKilometer decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"price_per_kilometer"`
	PriceCurrency     string          `gorm:"type:varchar(10);not null;default:'INR'" json:"price_currency"`

	ServiceStates string `gorm:"type:text" json:"service_states"`
	ServiceCities string `gorm:"type:text" json:"service_cities"`
	MaxDistanceKm *int   `json:"max_distance_km"`

	HasGPS         bool `gorm:"default:false" json:"has_gps"`
	IsRefrigerated bool `gorm:"default:false" json:"is_refrigerated"`
	HasCovering    bool `gorm:"default:false" json:"has_covering"`

	IsAvailable bool `gorm:"default:true;index" json:"is_available"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
