package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Quality grade constants for listings.
const (
	QualityPremium  = "Premium"
	QualityGradeA   = "Grade A"
	QualityGradeB   = "Grade B"
	QualityStandard = "Standard"
)

// CommodityListing is a farmer's published offering that buyers discover
// and send offers against. Offers snapshot its commodity fields; listing
// quantity is never decremented by an offer.
type CommodityListing struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FarmerID uuid.UUID `gorm:"type:uuid;not null;index" json:"farmer_id"`

	CommodityType  string `gorm:"type:varchar(50);not null;index" json:"commodity_type"`
	VarietySubtype string `gorm:"type:varchar(100);not null" json:"variety_subtype"` // e.g. Basmati Rice, Red Onion
	Description    string `gorm:"type:varchar(1000)" json:"description"`
	Quality        string `gorm:"type:varchar(20);default:'Standard'" json:"quality"`

	AvailableQuantity Quantity        `gorm:"embedded;embeddedPrefix:available_qty_" json:"available_quantity"`
	MinOrderQuantity  Quantity        `gorm:"embedded;embeddedPrefix:min_order_qty_" json:"min_order_quantity"`
	PricePerUnit      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"price_per_unit"`
	PriceCurrency     string          `gorm:"type:varchar(10);not null;default:'INR'" json:"price_currency"`
	PriceUnit         string          `gorm:"type:varchar(20);not null" json:"price_unit"`

	PickupLocation Location `gorm:"embedded;embeddedPrefix:pickup_" json:"pickup_location"`

	HarvestDate   *time.Time `json:"harvest_date"`
	AvailableFrom *time.Time `json:"available_from"`
	IsActive      bool       `gorm:"default:true;index" json:"is_active"`

	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
