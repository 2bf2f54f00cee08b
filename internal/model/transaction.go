package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction status constants. A transaction is the central record of one
// deal between a farmer and a buyer, optionally involving a transporter.
const (
	StatusOfferSent        = "Offer Sent"
	StatusOfferAccepted    = "Offer Accepted"
	StatusOfferRejected    = "Offer Rejected"
	StatusNegotiating      = "Negotiating"
	StatusFinalized        = "Finalized"
	StatusVehicleAllocated = "Vehicle Allocated"
	StatusInTransit        = "In Transit"
	StatusDelivered        = "Delivered"
	StatusCompleted        = "Completed"
	StatusCancelled        = "Cancelled"
)

// PaymentMethod enum constants
const (
	PaymentMethodCash    = "Cash"
	PaymentMethodCheque  = "Cheque"
	PaymentMethodUPI     = "UPI"
	PaymentMethodBank    = "Bank Transfer"
	PaymentMethodPending = "Pending"
)

// Transaction payment status constants
const (
	TxnPaymentPending   = "Pending"
	TxnPaymentPartial   = "Partial"
	TxnPaymentCompleted = "Completed"
)

// Quality inspection status constants
const (
	InspectionPending = "Pending"
	InspectionPassed  = "Passed"
	InspectionFailed  = "Failed"
)

// transitions is the full edge set of the deal state machine. Cancellation
// from any non-terminal state is handled separately in CanTransition.
var transitions = map[string][]string{
	StatusOfferSent:        {StatusOfferAccepted, StatusOfferRejected},
	StatusOfferAccepted:    {StatusNegotiating, StatusFinalized, StatusVehicleAllocated},
	StatusNegotiating:      {StatusFinalized},
	StatusFinalized:        {StatusVehicleAllocated},
	StatusVehicleAllocated: {StatusInTransit, StatusCompleted},
	StatusInTransit:        {StatusDelivered, StatusCompleted},
	StatusDelivered:        {StatusCompleted},
}

// IsTerminalStatus reports whether no further transitions are allowed.
func IsTerminalStatus(status string) bool {
	return status == StatusCompleted || status == StatusCancelled || status == StatusOfferRejected
}

// CanTransition reports whether the state machine allows from -> to.
func CanTransition(from, to string) bool {
	if to == StatusCancelled {
		return !IsTerminalStatus(from)
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Location is a postal address with an optional geocoordinate pair.
type Location struct {
	Address   string   `gorm:"type:text" json:"address"`
	City      string   `gorm:"type:varchar(100)" json:"city"`
	State     string   `gorm:"type:varchar(100)" json:"state"`
	Pincode   string   `gorm:"type:varchar(10)" json:"pincode"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// HasCoordinates reports whether both coordinates are present.
func (l Location) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// QualityInspection is an optional sub-record on a transaction. It is
// mutated independently and never drives the status machine.
type QualityInspection struct {
	Conducted   bool       `gorm:"default:false" json:"conducted"`
	InspectedBy *uuid.UUID `gorm:"type:uuid" json:"inspected_by"`
	Status      string     `gorm:"type:varchar(20);default:'Pending'" json:"status"` // Pending, Passed, Failed
	Remarks     string     `gorm:"type:text" json:"remarks"`
	InspectedAt *time.Time `json:"inspected_at"`
}

// Dispute is an optional sub-record; reporting one only raises the
// HasDispute flag on the transaction.
type Dispute struct {
	Reason     string     `gorm:"type:text" json:"reason"`
	ReportedBy string     `gorm:"type:varchar(20)" json:"reported_by"` // farmer or buyer
	ReportedAt *time.Time `json:"reported_at"`
	Resolution string     `gorm:"type:text" json:"resolution"`
	ResolvedAt *time.Time `json:"resolved_at"`
}

// Transaction records one deal from offer through settlement. Rows are
// never deleted; they are the financial audit trail.
type Transaction struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Reference string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"reference"` // TXN-<ms>-<seq>

	FarmerID      uuid.UUID  `gorm:"type:uuid;not null;index:idx_txn_farmer_status" json:"farmer_id"`
	BuyerID       uuid.UUID  `gorm:"type:uuid;not null;index:idx_txn_buyer_status" json:"buyer_id"`
	TransporterID *uuid.UUID `gorm:"type:uuid;index" json:"transporter_id"`
	DriverID      *uuid.UUID `gorm:"type:uuid" json:"driver_id"`
	VehicleID     *uuid.UUID `gorm:"type:uuid" json:"vehicle_id"`

	// Commodity snapshot taken from the listing at offer time; the listing
	// is never re-read after that.
	ListingID      uuid.UUID `gorm:"type:uuid;not null" json:"listing_id"`
	CommodityType  string    `gorm:"type:varchar(50)" json:"commodity_type"`
	VarietySubtype string    `gorm:"type:varchar(100)" json:"variety_subtype"`

	AgreedQuantity  Quantity        `gorm:"embedded;embeddedPrefix:agreed_qty_" json:"agreed_quantity"`
	PricePerUnit    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"price_per_unit"`
	PricePerUnitOf  string          `gorm:"type:varchar(20)" json:"price_per_unit_of"` // unit the rate applies to
	TotalPrice      Money           `gorm:"embedded;embeddedPrefix:total_price_" json:"total_price"`
	PaymentMethod   string          `gorm:"type:varchar(20);default:'Pending'" json:"payment_method"`
	PaymentStatus   string          `gorm:"type:varchar(20);default:'Pending';index" json:"payment_status"`
	PaidAmount      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"paid_amount"`
	RemainingAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"remaining_amount"`
	PaymentDueDate  *time.Time      `json:"payment_due_date"`

	TransportationCost Money            `gorm:"embedded;embeddedPrefix:transport_cost_" json:"transportation_cost"`
	PickupLocation     Location         `gorm:"embedded;embeddedPrefix:pickup_" json:"pickup_location"`
	DeliveryLocation   Location         `gorm:"embedded;embeddedPrefix:delivery_" json:"delivery_location"`
	EstimatedDistance  *decimal.Decimal `gorm:"type:decimal(10,2)" json:"estimated_distance_km"`

	Status string `gorm:"type:varchar(30);not null;default:'Offer Sent';index:idx_txn_farmer_status;index:idx_txn_buyer_status" json:"status"`

	OfferSentAt        *time.Time `json:"offer_sent_at"`
	OfferAcceptedAt    *time.Time `json:"offer_accepted_at"`
	VehicleAllocatedAt *time.Time `json:"vehicle_allocated_at"`
	TransportStartedAt *time.Time `json:"transport_started_at"`
	DeliveredAt        *time.Time `json:"delivered_at"`
	CompletedAt        *time.Time `json:"completed_at"`

	BillingID    *uuid.UUID `gorm:"type:uuid" json:"billing_id"`
	ActualWeight *Quantity  `gorm:"embedded;embeddedPrefix:actual_weight_" json:"actual_weight"`

	QualityInspection QualityInspection `gorm:"embedded;embeddedPrefix:inspection_" json:"quality_inspection"`
	HasDispute        bool              `gorm:"default:false" json:"has_dispute"`
	Dispute           Dispute           `gorm:"embedded;embeddedPrefix:dispute_" json:"dispute"`

	Notes              string `gorm:"type:text" json:"notes"`
	CancellationReason string `gorm:"type:text" json:"cancellation_reason"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TransactionEvent is one row of the per-transaction status audit trail,
// appended on every guarded transition.
type TransactionEvent struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TransactionID uuid.UUID  `gorm:"type:uuid;not null;index" json:"transaction_id"`
	ActorID       *uuid.UUID `gorm:"type:uuid" json:"actor_id"`
	FromStatus    string     `gorm:"type:varchar(30)" json:"from_status"`
	ToStatus      string     `gorm:"type:varchar(30);not null" json:"to_status"`
	Note          string     `gorm:"type:text" json:"note"`
	CreatedAt     time.Time  `json:"created_at"`
}
