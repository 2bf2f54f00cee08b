package database

import (
	"log"

	"agrimandi/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.FarmerProfile{},
		&model.BuyerProfile{},
		&model.TransporterProfile{},
		&model.RefreshToken{},
		&model.CommodityListing{},
		&model.Vehicle{},
		&model.Transaction{},
		&model.TransactionEvent{},
		&model.Billing{},
		&model.BillingTaxLine{},
		&model.BillingDeductionLine{},
		&model.Sequence{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}
