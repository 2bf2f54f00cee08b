package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role constants — the three marketplace parties.
const (
	RoleFarmer      = "farmer"
	RoleBuyer       = "buyer"
	RoleTransporter = "transporter"
)

// ValidRole reports whether role is one of the marketplace roles.
func ValidRole(role string) bool {
	return role == RoleFarmer || role == RoleBuyer || role == RoleTransporter
}

// User is the base record for every account. Role-specific data lives in
// the profile tables below, discriminated by the single Role tag.
type User struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FirstName string         `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName  string         `gorm:"type:varchar(100);not null" json:"last_name"`
	Email     string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone     string         `gorm:"type:varchar(20);not null" json:"phone"`
	Password  string         `gorm:"type:varchar(255);not null" json:"-"`
	Role      string         `gorm:"type:varchar(20);not null;index" json:"role"` // farmer, buyer, transporter
	Address   string         `gorm:"type:text" json:"address"`
	City      string         `gorm:"type:varchar(100);index" json:"city"`
	State     string         `gorm:"type:varchar(100);index" json:"state"`
	Pincode   string         `gorm:"type:varchar(10)" json:"pincode"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// FarmerProfile holds farmer-only fields, 1:1 with a farmer User.
type FarmerProfile struct {
	UserID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	User           User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	FarmName       string    `gorm:"type:varchar(255)" json:"farm_name"`
	FarmSizeAcres  float64   `json:"farm_size_acres"`
	GSTIN          string    `gorm:"type:varchar(20)" json:"gstin"`
	PrimaryCrops   string    `gorm:"type:text" json:"primary_crops"`
	YearsOfFarming int       `json:"years_of_farming"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// BuyerProfile holds buyer-only fields, 1:1 with a buyer User. GSTIN is
// mandatory for buyers and copied onto invoices at billing time.
type BuyerProfile struct {
	UserID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	User         User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	ShopName     string    `gorm:"type:varchar(255);not null" json:"shop_name"`
	BusinessType string    `gorm:"type:varchar(100)" json:"business_type"`
	GSTIN        string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"gstin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TransporterProfile holds transporter-only fields, 1:1 with a
// transporter User.
type TransporterProfile struct {
	UserID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	User          User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CompanyName   string    `gorm:"type:varchar(255)" json:"company_name"`
	LicenseNumber string    `gorm:"type:varchar(50)" json:"license_number"`
	FleetSize     int       `json:"fleet_size"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RefreshToken stores long-lived tokens allowing users to request new access tokens
type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Token     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
