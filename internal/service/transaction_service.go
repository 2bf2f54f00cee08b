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
	ws "agrimandi/internal/websocket"
	"agrimandi/pkg/apperr"
	"agrimandi/pkg/geo"
)

// defaultDistanceKm is the transport distance assumed when either end of
// the route has no geocoordinates to compute one from.
const defaultDistanceKm = 50

// --- DTOs ---

type SendOfferRequest struct {
	ListingID     string          `json:"listing_id" binding:"required"`
	Quantity      decimal.Decimal `json:"quantity" binding:"required"`
	ProposedPrice decimal.Decimal `json:"proposed_price" binding:"required"`
	PaymentMethod string          `json:"payment_method" binding:"omitempty,oneof=Cash Cheque UPI 'Bank Transfer'"`
	Notes         string          `json:"notes"`

	DeliveryAddress   string   `json:"delivery_address"`
	DeliveryCity      string   `json:"delivery_city"`
	DeliveryState     string   `json:"delivery_state"`
	DeliveryPincode   string   `json:"delivery_pincode"`
	DeliveryLatitude  *float64 `json:"delivery_latitude"`
	DeliveryLongitude *float64 `json:"delivery_longitude"`
}

type RejectOfferRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type RequestVehicleRequest struct {
	VehicleID string `json:"vehicle_id" binding:"required"`
}

type DeliveryRequest struct {
	ActualWeight decimal.Decimal `json:"actual_weight" binding:"required"`
}

type CancelRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type InspectionRequest struct {
	Status  string `json:"status" binding:"required,oneof=Passed Failed Pending"`
	Remarks string `json:"remarks"`
}

type DisputeRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type ResolveDisputeRequest struct {
	Resolution string `json:"resolution" binding:"required"`
}

type TransactionFilter struct {
	Status string
	Page   int
	Limit  int
}

type TransactionResponse struct {
	ID             string  `json:"id"`
	Reference      string  `json:"reference"`
	FarmerID       string  `json:"farmer_id"`
	BuyerID        string  `json:"buyer_id"`
	TransporterID  *string `json:"transporter_id"`
	VehicleID      *string `json:"vehicle_id"`
	ListingID      string  `json:"listing_id"`
	CommodityType  string  `json:"commodity_type"`
	VarietySubtype string  `json:"variety_subtype"`

	QuantityValue string `json:"quantity_value"`
	QuantityUnit  string `json:"quantity_unit"`
	PricePerUnit  string `json:"price_per_unit"`
	TotalPrice    string `json:"total_price"`
	Currency      string `json:"currency"`
	PaymentMethod string `json:"payment_method"`

	TransportationCost  string  `json:"transportation_cost"`
	EstimatedDistanceKm *string `json:"estimated_distance_km"`
	PickupState         string  `json:"pickup_state"`
	DeliveryState       string  `json:"delivery_state"`

	Status             string  `json:"status"`
	HasDispute         bool    `json:"has_dispute"`
	CancellationReason string  `json:"cancellation_reason,omitempty"`
	Notes              string  `json:"notes,omitempty"`
	BillingID          *string `json:"billing_id"`

	OfferSentAt        *string `json:"offer_sent_at"`
	OfferAcceptedAt    *string `json:"offer_accepted_at"`
	VehicleAllocatedAt *string `json:"vehicle_allocated_at"`
	TransportStartedAt *string `json:"transport_started_at"`
	DeliveredAt        *string `json:"delivered_at"`
	CompletedAt        *string `json:"completed_at"`
	CreatedAt          string  `json:"created_at"`
}

type VehicleOption struct {
	ID                 string `json:"id"`
	TransporterID      string `json:"transporter_id"`
	VehicleType        string `json:"vehicle_type"`
	RegistrationNumber string `json:"registration_number"`
	CapacityValue      string `json:"capacity_value"`
	CapacityUnit       string `json:"capacity_unit"`
	PricePerKilometer  string `json:"price_per_kilometer"`
	ServiceStates      string `json:"service_states"`
}

// --- Interface ---

type TransactionService interface {
	SendOffer(ctx context.Context, buyerID string, req SendOfferRequest) (TransactionResponse, error)
	AcceptOffer(ctx context.Context, id string, farmerID string) (TransactionResponse, error)
	RejectOffer(ctx context.Context, id string, farmerID string, reason string) (TransactionResponse, error)
	StartNegotiation(ctx context.Context, id string, actorID string) (TransactionResponse, error)
	Finalize(ctx context.Context, id string, actorID string) (TransactionResponse, error)
	RequestVehicle(ctx context.Context, id string, vehicleID string, farmerID string) (TransactionResponse, error)
	StartTransit(ctx context.Context, id string, transporterID string) (TransactionResponse, error)
	MarkDelivered(ctx context.Context, id string, transporterID string, actualWeight decimal.Decimal) (TransactionResponse, error)
	Cancel(ctx context.Context, id string, actorID string, reason string) (TransactionResponse, error)

	GetAvailableVehicles(ctx context.Context, id string, page, limit int) ([]VehicleOption, int64, error)
	GetByID(ctx context.Context, id string, callerID string) (TransactionResponse, error)
	ListByParty(ctx context.Context, callerID string, role string, filter TransactionFilter) ([]TransactionResponse, int64, error)

	UpdateInspection(ctx context.Context, id string, actorID string, req InspectionRequest) (TransactionResponse, error)
	ReportDispute(ctx context.Context, id string, actorID string, reason string) (TransactionResponse, error)
	ResolveDispute(ctx context.Context, id string, actorID string, resolution string) (TransactionResponse, error)
}

type transactionService struct {
	txnRepo     repository.TransactionRepository
	listingRepo repository.ListingRepository
	vehicleRepo repository.VehicleRepository
	seqRepo     repository.SequenceRepository
	txManager   repository.TransactionManager
	hub         *ws.Hub
}

func NewTransactionService(
	txnRepo repository.TransactionRepository,
	listingRepo repository.ListingRepository,
	vehicleRepo repository.VehicleRepository,
	seqRepo repository.SequenceRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) TransactionService {
	return &transactionService{
		txnRepo:     txnRepo,
		listingRepo: listingRepo,
		vehicleRepo: vehicleRepo,
		seqRepo:     seqRepo,
		txManager:   txManager,
		hub:         hub,
	}
}

// --- Implementation ---

func (s *transactionService) SendOffer(ctx context.Context, buyerID string, req SendOfferRequest) (TransactionResponse, error) {
	buyer, err := uuid.Parse(buyerID)
	if err != nil {
		return TransactionResponse{}, apperr.E(apperr.Invalid, "invalid buyer id", err)
	}
	listingID, err := uuid.Parse(req.ListingID)
	if err != nil {
		return TransactionResponse{}, apperr.E(apperr.Invalid, "invalid listing id", err)
	}

	listing, err := s.listingRepo.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TransactionResponse{}, apperr.NotFoundErr("listing")
		}
		return TransactionResponse{}, fmt.Errorf("failed to load listing: %w", err)
	}
	if !listing.IsActive {
		return TransactionResponse{}, apperr.E(apperr.Conflict, "listing is no longer active")
	}

	quantity, err := model.NewQuantity(req.Quantity, listing.AvailableQuantity.Unit)
	if err != nil {
		return TransactionResponse{}, err
	}
	if quantity.Value.IsZero() {
		return TransactionResponse{}, apperr.E(apperr.Invalid, "quantity must be greater than zero")
	}
	if req.ProposedPrice.IsNegative() {
		return TransactionResponse{}, apperr.E(apperr.Invalid, "proposed price cannot be negative")
	}

	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = model.PaymentMethodPending
	}

	now := time.Now()
	totalPrice := quantity.PriceFor(req.ProposedPrice, model.CurrencyINR)
	txn := &model.Transaction{
		FarmerID:       listing.FarmerID,
		BuyerID:        buyer,
		ListingID:      listing.ID,
		CommodityType:  listing.CommodityType,
		VarietySubtype: listing.VarietySubtype,
		// Snapshot fixes the deal at offer time; later listing edits must
		// not leak into the transaction.
		AgreedQuantity:  quantity,
		PricePerUnit:    req.ProposedPrice,
		PricePerUnitOf:  listing.PriceUnit,
		TotalPrice:      totalPrice,
		PaymentMethod:   paymentMethod,
		PaymentStatus:   model.TxnPaymentPending,
		RemainingAmount: totalPrice.Amount,
		PickupLocation:  listing.PickupLocation,
		DeliveryLocation: model.Location{
			Address:   req.DeliveryAddress,
			City:      req.DeliveryCity,
			State:     req.DeliveryState,
			Pincode:   req.DeliveryPincode,
			Latitude:  req.DeliveryLatitude,
			Longitude: req.DeliveryLongitude,
		},
		Status:      model.StatusOfferSent,
		Notes:       req.Notes,
		OfferSentAt: &now,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		seq, seqErr := s.seqRepo.Next(txCtx, "txn")
		if seqErr != nil {
			return fmt.Errorf("failed to allocate transaction sequence: %w", seqErr)
		}
		txn.Reference = fmt.Sprintf("TXN-%d-%d", now.UnixMilli(), seq)

		if createErr := s.txnRepo.Create(txCtx, txn); createErr != nil {
			return fmt.Errorf("failed to create transaction: %w", createErr)
		}
		return s.txnRepo.AppendEvent(txCtx, &model.TransactionEvent{
			TransactionID: txn.ID,
			ActorID:       &buyer,
			ToStatus:      model.StatusOfferSent,
			Note:          "offer sent",
		})
	})
	if err != nil {
		return TransactionResponse{}, err
	}

	s.notify(txn.FarmerID, "offer_received", txn)
	return toTransactionResponse(*txn), nil
}

func (s *transactionService) AcceptOffer(ctx context.Context, id string, farmerID string) (TransactionResponse, error) {
	now := time.Now()
	return s.transitionAs(ctx, id, farmerID, partyFarmer, model.StatusOfferAccepted, map[string]interface{}{
		"offer_accepted_at": &now,
	}, "offer accepted", func(txn *model.Transaction) {
		s.notify(txn.BuyerID, "offer_accepted", txn)
	})
}

func (s *transactionService) RejectOffer(ctx context.Context, id string, farmerID string, reason string) (TransactionResponse, error) {
	return s.transitionAs(ctx, id, farmerID, partyFarmer, model.StatusOfferRejected, map[string]interface{}{
		"cancellation_reason": reason,
	}, "offer rejected", func(txn *model.Transaction) {
		s.notify(txn.BuyerID, "offer_rejected", txn)
	})
}

func (s *transactionService) StartNegotiation(ctx context.Context, id string, actorID string) (TransactionResponse, error) {
	return s.transitionAs(ctx, id, actorID, partyFarmerOrBuyer, model.StatusNegotiating, nil, "negotiation started", nil)
}

func (s *transactionService) Finalize(ctx context.Context, id string, actorID string) (TransactionResponse, error) {
	return s.transitionAs(ctx, id, actorID, partyFarmerOrBuyer, model.StatusFinalized, nil, "terms finalized", nil)
}

func (s *transactionService) RequestVehicle(ctx context.Context, id string, vehicleID string, farmerID string) (TransactionResponse, error) {
	txn, actor, err := s.loadAs(ctx, id, farmerID, partyFarmer)
	if err != nil {
		return TransactionResponse{}, err
	}

	vid, err := uuid.Parse(vehicleID)
	if err != nil {
		return TransactionResponse{}, apperr.E(apperr.Invalid, "invalid vehicle id", err)
	}
	vehicle, err := s.vehicleRepo.FindByID(ctx, vid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TransactionResponse{}, apperr.NotFoundErr("vehicle")
		}
		return TransactionResponse{}, fmt.Errorf("failed to load vehicle: %w", err)
	}
	if !vehicle.IsAvailable {
		return TransactionResponse{}, apperr.E(apperr.Conflict, "vehicle is not available")
	}

	distance := s.estimateDistance(txn)
	cost := txn.AgreedQuantity.Value.
		Mul(vehicle.PricePerKilometer).
		Mul(distance).
		Div(decimal.NewFromInt(100))

	now := time.Now()
	updates := map[string]interface{}{
		"vehicle_id":              vehicle.ID,
		"transporter_id":          vehicle.TransporterID,
		"driver_id":               vehicle.DriverID,
		"transport_cost_amount":   cost,
		"transport_cost_currency": model.CurrencyINR,
		"estimated_distance":      distance,
		"vehicle_allocated_at":    &now,
	}

	resp, err := s.applyTransition(ctx, txn, actor, model.StatusVehicleAllocated, updates, "vehicle allocated")
	if err != nil {
		return TransactionResponse{}, err
	}

	if err := s.vehicleRepo.SetAvailability(ctx, vehicle.ID, false); err != nil {
		return TransactionResponse{}, fmt.Errorf("failed to mark vehicle unavailable: %w", err)
	}

	s.notify(vehicle.TransporterID, "vehicle_allocated", txn)
	return resp, nil
}

func (s *transactionService) StartTransit(ctx context.Context, id string, transporterID string) (TransactionResponse, error) {
	now := time.Now()
	return s.transitionAs(ctx, id, transporterID, partyTransporter, model.StatusInTransit, map[string]interface{}{
		"transport_started_at": &now,
	}, "transport started", func(txn *model.Transaction) {
		s.notify(txn.BuyerID, "transit_started", txn)
		s.notify(txn.FarmerID, "transit_started", txn)
	})
}

func (s *transactionService) MarkDelivered(ctx context.Context, id string, transporterID string, actualWeight decimal.Decimal) (TransactionResponse, error) {
	if actualWeight.IsNegative() {
		return TransactionResponse{}, apperr.E(apperr.Invalid, "actual weight cannot be negative")
	}
	now := time.Now()
	return s.transitionAs(ctx, id, transporterID, partyTransporter, model.StatusDelivered, map[string]interface{}{
		"delivered_at":        &now,
		"actual_weight_value": actualWeight,
		"actual_weight_unit":  gorm.Expr("agreed_qty_unit"),
	}, "goods delivered", func(txn *model.Transaction) {
		s.notify(txn.BuyerID, "delivered", txn)
		s.notify(txn.FarmerID, "delivered", txn)
	})
}

func (s *transactionService) Cancel(ctx context.Context, id string, actorID string, reason string) (TransactionResponse, error) {
	return s.transitionAs(ctx, id, actorID, partyAny, model.StatusCancelled, map[string]interface{}{
		"cancellation_reason": reason,
	}, "transaction cancelled", func(txn *model.Transaction) {
		s.notify(txn.FarmerID, "transaction_cancelled", txn)
		s.notify(txn.BuyerID, "transaction_cancelled", txn)
	})
}

func (s *transactionService) GetAvailableVehicles(ctx context.Context, id string, page, limit int) ([]VehicleOption, int64, error) {
	txnID, err := uuid.Parse(id)
	if err != nil {
		return nil, 0, apperr.E(apperr.Invalid, "invalid transaction id", err)
	}
	txn, err := s.txnRepo.FindByID(ctx, txnID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, apperr.NotFoundErr("transaction")
		}
		return nil, 0, fmt.Errorf("failed to load transaction: %w", err)
	}

	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	vehicles, total, err := s.vehicleRepo.List(ctx, repository.VehicleListFilter{
		ServiceState:  txn.PickupLocation.State,
		AvailableOnly: true,
		Page:          page,
		Limit:         limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch vehicles: %w", err)
	}

	options := make([]VehicleOption, 0, len(vehicles))
	for _, v := range vehicles {
		options = append(options, VehicleOption{
			ID:                 v.ID.String(),
			TransporterID:      v.TransporterID.String(),
			VehicleType:        v.VehicleType,
			RegistrationNumber: v.RegistrationNumber,
			CapacityValue:      v.CapacityWeight.Value.StringFixed(2),
			CapacityUnit:       v.CapacityWeight.Unit,
			PricePerKilometer:  v.PricePerKilometer.StringFixed(2),
			ServiceStates:      v.ServiceStates,
		})
	}
	return options, total, nil
}

func (s *transactionService) GetByID(ctx context.Context, id string, callerID string) (TransactionResponse, error) {
	txn, _, err := s.loadAs(ctx, id, callerID, partyAny)
	if err != nil {
		return TransactionResponse{}, err
	}
	return toTransactionResponse(*txn), nil
}

func (s *transactionService) ListByParty(ctx context.Context, callerID string, role string, filter TransactionFilter) ([]TransactionResponse, int64, error) {
	caller, err := uuid.Parse(callerID)
	if err != nil {
		return nil, 0, apperr.E(apperr.Invalid, "invalid caller id", err)
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	listFilter := repository.TransactionListFilter{
		Status: filter.Status,
		Page:   filter.Page,
		Limit:  filter.Limit,
	}
	switch role {
	case model.RoleFarmer:
		listFilter.FarmerID = &caller
	case model.RoleBuyer:
		listFilter.BuyerID = &caller
	case model.RoleTransporter:
		listFilter.TransporterID = &caller
	default:
		return nil, 0, apperr.Ef(apperr.Invalid, "unknown role %q", role)
	}

	txns, total, err := s.txnRepo.List(ctx, listFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch transactions: %w", err)
	}

	result := make([]TransactionResponse, 0, len(txns))
	for _, txn := range txns {
		result = append(result, toTransactionResponse(txn))
	}
	return result, total, nil
}

func (s *transactionService) UpdateInspection(ctx context.Context, id string, actorID string, req InspectionRequest) (TransactionResponse, error) {
	txn, actor, err := s.loadAs(ctx, id, actorID, partyFarmerOrBuyer)
	if err != nil {
		return TransactionResponse{}, err
	}

	now := time.Now()
	txn.QualityInspection = model.QualityInspection{
		Conducted:   true,
		InspectedBy: &actor,
		Status:      req.Status,
		Remarks:     req.Remarks,
		InspectedAt: &now,
	}
	if err := s.txnRepo.Update(ctx, txn); err != nil {
		return TransactionResponse{}, fmt.Errorf("failed to record inspection: %w", err)
	}
	return toTransactionResponse(*txn), nil
}

func (s *transactionService) ReportDispute(ctx context.Context, id string, actorID string, reason string) (TransactionResponse, error) {
	txn, actor, err := s.loadAs(ctx, id, actorID, partyFarmerOrBuyer)
	if err != nil {
		return TransactionResponse{}, err
	}

	reportedBy := model.RoleBuyer
	if txn.FarmerID == actor {
		reportedBy = model.RoleFarmer
	}
	now := time.Now()
	txn.HasDispute = true
	txn.Dispute = model.Dispute{
		Reason:     reason,
		ReportedBy: reportedBy,
		ReportedAt: &now,
	}
	if err := s.txnRepo.Update(ctx, txn); err != nil {
		return TransactionResponse{}, fmt.Errorf("failed to report dispute: %w", err)
	}

	counterparty := txn.FarmerID
	if reportedBy == model.RoleFarmer {
		counterparty = txn.BuyerID
	}
	s.notify(counterparty, "dispute_reported", txn)
	return toTransactionResponse(*txn), nil
}

func (s *transactionService) ResolveDispute(ctx context.Context, id string, actorID string, resolution string) (TransactionResponse, error) {
	txn, _, err := s.loadAs(ctx, id, actorID, partyFarmerOrBuyer)
	if err != nil {
		return TransactionResponse{}, err
	}
	if !txn.HasDispute {
		return TransactionResponse{}, apperr.E(apperr.Conflict, "transaction has no open dispute")
	}

	now := time.Now()
	txn.HasDispute = false
	txn.Dispute.Resolution = resolution
	txn.Dispute.ResolvedAt = &now
	if err := s.txnRepo.Update(ctx, txn); err != nil {
		return TransactionResponse{}, fmt.Errorf("failed to resolve dispute: %w", err)
	}
	return toTransactionResponse(*txn), nil
}

// --- Transition plumbing ---

type partyCheck int

const (
	partyFarmer partyCheck = iota
	partyBuyer
	partyTransporter
	partyFarmerOrBuyer
	partyAny
)

// loadAs fetches a transaction and verifies the caller is an authorized
// party to it.
func (s *transactionService) loadAs(ctx context.Context, id string, callerID string, check partyCheck) (*model.Transaction, uuid.UUID, error) {
	txnID, err := uuid.Parse(id)
	if err != nil {
		return nil, uuid.Nil, apperr.E(apperr.Invalid, "invalid transaction id", err)
	}
	caller, err := uuid.Parse(callerID)
	if err != nil {
		return nil, uuid.Nil, apperr.E(apperr.Invalid, "invalid caller id", err)
	}

	txn, err := s.txnRepo.FindByID(ctx, txnID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, uuid.Nil, apperr.NotFoundErr("transaction")
		}
		return nil, uuid.Nil, fmt.Errorf("failed to load transaction: %w", err)
	}

	isFarmer := txn.FarmerID == caller
	isBuyer := txn.BuyerID == caller
	isTransporter := txn.TransporterID != nil && *txn.TransporterID == caller

	authorized := false
	switch check {
	case partyFarmer:
		authorized = isFarmer
	case partyBuyer:
		authorized = isBuyer
	case partyTransporter:
		authorized = isTransporter
	case partyFarmerOrBuyer:
		authorized = isFarmer || isBuyer
	case partyAny:
		authorized = isFarmer || isBuyer || isTransporter
	}
	if !authorized {
		return nil, uuid.Nil, apperr.UnauthorizedErr("caller is not a party to this transaction")
	}
	return txn, caller, nil
}

// transitionAs is the common path for guarded status changes: load,
// authorize, then conditionally move to target.
func (s *transactionService) transitionAs(ctx context.Context, id string, callerID string, check partyCheck, target string, updates map[string]interface{}, note string, onSuccess func(*model.Transaction)) (TransactionResponse, error) {
	txn, actor, err := s.loadAs(ctx, id, callerID, check)
	if err != nil {
		return TransactionResponse{}, err
	}
	resp, err := s.applyTransition(ctx, txn, actor, target, updates, note)
	if err != nil {
		return TransactionResponse{}, err
	}
	if onSuccess != nil {
		onSuccess(txn)
	}
	return resp, nil
}

// applyTransition enforces the transition table against the status read in
// this request AND against the stored row: the UPDATE only matches when
// the status is still what we loaded, so two racing callers get at most
// one winner and the loser sees Conflict.
func (s *transactionService) applyTransition(ctx context.Context, txn *model.Transaction, actor uuid.UUID, target string, updates map[string]interface{}, note string) (TransactionResponse, error) {
	from := txn.Status
	if !model.CanTransition(from, target) {
		return TransactionResponse{}, apperr.Ef(apperr.Conflict, "cannot move from %q to %q", from, target)
	}

	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = target

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		rows, updateErr := s.txnRepo.UpdateStatusIf(txCtx, txn.ID, from, updates)
		if updateErr != nil {
			return fmt.Errorf("failed to update transaction: %w", updateErr)
		}
		if rows == 0 {
			return apperr.Ef(apperr.Conflict, "transaction is no longer in status %q", from)
		}
		return s.txnRepo.AppendEvent(txCtx, &model.TransactionEvent{
			TransactionID: txn.ID,
			ActorID:       &actor,
			FromStatus:    from,
			ToStatus:      target,
			Note:          note,
		})
	})
	if err != nil {
		return TransactionResponse{}, err
	}

	reloaded, err := s.txnRepo.FindByID(ctx, txn.ID)
	if err != nil {
		return TransactionResponse{}, fmt.Errorf("failed to reload transaction: %w", err)
	}
	*txn = *reloaded
	return toTransactionResponse(*reloaded), nil
}

// estimateDistance prefers the haversine distance between the pickup and
// delivery coordinates; without both ends it falls back to a flat 50 km.
func (s *transactionService) estimateDistance(txn *model.Transaction) decimal.Decimal {
	if txn.PickupLocation.HasCoordinates() && txn.DeliveryLocation.HasCoordinates() {
		km := geo.DistanceKm(
			*txn.PickupLocation.Latitude, *txn.PickupLocation.Longitude,
			*txn.DeliveryLocation.Latitude, *txn.DeliveryLocation.Longitude,
		)
		return decimal.NewFromFloat(km).Round(2)
	}
	return decimal.NewFromInt(defaultDistanceKm)
}

func (s *transactionService) notify(userID uuid.UUID, event string, txn *model.Transaction) {
	if s.hub == nil {
		return
	}
	s.hub.NotifyUser(userID.String(), ws.Event{
		Event: event,
		Data: map[string]interface{}{
			"transaction_id": txn.ID.String(),
			"reference":      txn.Reference,
			"status":         txn.Status,
		},
	})
}

// --- Mapping ---

func toTransactionResponse(txn model.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:                 txn.ID.String(),
		Reference:          txn.Reference,
		FarmerID:           txn.FarmerID.String(),
		BuyerID:            txn.BuyerID.String(),
		ListingID:          txn.ListingID.String(),
		CommodityType:      txn.CommodityType,
		VarietySubtype:     txn.VarietySubtype,
		QuantityValue:      txn.AgreedQuantity.Value.StringFixed(2),
		QuantityUnit:       txn.AgreedQuantity.Unit,
		PricePerUnit:       txn.PricePerUnit.StringFixed(2),
		TotalPrice:         txn.TotalPrice.Amount.StringFixed(2),
		Currency:           txn.TotalPrice.Currency,
		PaymentMethod:      txn.PaymentMethod,
		TransportationCost: txn.TransportationCost.Amount.StringFixed(2),
		PickupState:        txn.PickupLocation.State,
		DeliveryState:      txn.DeliveryLocation.State,
		Status:             txn.Status,
		HasDispute:         txn.HasDispute,
		CancellationReason: txn.CancellationReason,
		Notes:              txn.Notes,
		CreatedAt:          txn.CreatedAt.Format(time.RFC3339),
	}

	if txn.TransporterID != nil {
		v := txn.TransporterID.String()
		resp.TransporterID = &v
	}
	if txn.VehicleID != nil {
		v := txn.VehicleID.String()
		resp.VehicleID = &v
	}
	if txn.BillingID != nil {
		v := txn.BillingID.String()
		resp.BillingID = &v
	}
	if txn.EstimatedDistance != nil {
		v := txn.EstimatedDistance.StringFixed(2)
		resp.EstimatedDistanceKm = &v
	}

	resp.OfferSentAt = formatTimePtr(txn.OfferSentAt)
	resp.OfferAcceptedAt = formatTimePtr(txn.OfferAcceptedAt)
	resp.VehicleAllocatedAt = formatTimePtr(txn.VehicleAllocatedAt)
	resp.TransportStartedAt = formatTimePtr(txn.TransportStartedAt)
	resp.DeliveredAt = formatTimePtr(txn.DeliveredAt)
	resp.CompletedAt = formatTimePtr(txn.CompletedAt)

	return resp
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.Format(time.RFC3339)
	return &v
}
