package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"agrimandi/internal/model"
	"agrimandi/internal/repository"
)

// In-memory repository stubs backing the service tests. They implement
// the same guard semantics as the SQL layer so race-sensitive paths
// behave the same under test.

type listingRepoStub struct {
	mu       sync.Mutex
	listings map[uuid.UUID]*model.CommodityListing
}

func newListingRepoStub() *listingRepoStub {
	return &listingRepoStub{listings: map[uuid.UUID]*model.CommodityListing{}}
}

func (s *listingRepoStub) Create(_ context.Context, listing *model.CommodityListing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if listing.ID == uuid.Nil {
		listing.ID = uuid.New()
	}
	listing.CreatedAt = time.Now()
	cp := *listing
	s.listings[listing.ID] = &cp
	return nil
}

func (s *listingRepoStub) FindByID(_ context.Context, id uuid.UUID) (*model.CommodityListing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *l
	return &cp, nil
}

func (s *listingRepoStub) List(_ context.Context, _ repository.ListingListFilter) ([]model.CommodityListing, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.CommodityListing, 0, len(s.listings))
	for _, l := range s.listings {
		out = append(out, *l)
	}
	return out, int64(len(out)), nil
}

func (s *listingRepoStub) Update(_ context.Context, listing *model.CommodityListing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *listing
	s.listings[listing.ID] = &cp
	return nil
}

type vehicleRepoStub struct {
	mu       sync.Mutex
	vehicles map[uuid.UUID]*model.Vehicle
}

func newVehicleRepoStub() *vehicleRepoStub {
	return &vehicleRepoStub{vehicles: map[uuid.UUID]*model.Vehicle{}}
}

func (s *vehicleRepoStub) Create(_ context.Context, vehicle *model.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if vehicle.ID == uuid.Nil {
		vehicle.ID = uuid.New()
	}
	for _, v := range s.vehicles {
		if v.RegistrationNumber == vehicle.RegistrationNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	vehicle.CreatedAt = time.Now()
	cp := *vehicle
	s.vehicles[vehicle.ID] = &cp
	return nil
}

func (s *vehicleRepoStub) FindByID(_ context.Context, id uuid.UUID) (*model.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *v
	return &cp, nil
}

func (s *vehicleRepoStub) List(_ context.Context, filter repository.VehicleListFilter) ([]model.Vehicle, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Vehicle, 0, len(s.vehicles))
	for _, v := range s.vehicles {
		if filter.AvailableOnly && !v.IsAvailable {
			continue
		}
		out = append(out, *v)
	}
	return out, int64(len(out)), nil
}

func (s *vehicleRepoStub) Update(_ context.Context, vehicle *model.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *vehicle
	s.vehicles[vehicle.ID] = &cp
	return nil
}

func (s *vehicleRepoStub) SetAvailability(_ context.Context, id uuid.UUID, available bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.vehicles[id]; ok {
		v.IsAvailable = available
	}
	return nil
}

type txnRepoStub struct {
	mu     sync.Mutex
	txns   map[uuid.UUID]*model.Transaction
	events []model.TransactionEvent
}

func newTxnRepoStub() *txnRepoStub {
	return &txnRepoStub{txns: map[uuid.UUID]*model.Transaction{}}
}

func (s *txnRepoStub) Create(_ context.Context, txn *model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	txn.CreatedAt = time.Now()
	cp := *txn
	s.txns[txn.ID] = &cp
	return nil
}

func (s *txnRepoStub) FindByID(_ context.Context, id uuid.UUID) (*model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txn, ok := s.txns[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *txn
	return &cp, nil
}

func (s *txnRepoStub) List(_ context.Context, filter repository.TransactionListFilter) ([]model.Transaction, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Transaction, 0, len(s.txns))
	for _, txn := range s.txns {
		if filter.FarmerID != nil && txn.FarmerID != *filter.FarmerID {
			continue
		}
		if filter.BuyerID != nil && txn.BuyerID != *filter.BuyerID {
			continue
		}
		if filter.TransporterID != nil && (txn.TransporterID == nil || *txn.TransporterID != *filter.TransporterID) {
			continue
		}
		if filter.Status != "" && txn.Status != filter.Status {
			continue
		}
		out = append(out, *txn)
	}
	return out, int64(len(out)), nil
}

// UpdateStatusIf mirrors the SQL guard: the write applies only when the
// stored status still matches, and the caller learns how many rows matched.
func (s *txnRepoStub) UpdateStatusIf(_ context.Context, id uuid.UUID, expectedStatus string, updates map[string]interface{}) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txn, ok := s.txns[id]
	if !ok || txn.Status != expectedStatus {
		return 0, nil
	}

	for key, value := range updates {
		switch key {
		case "status":
			txn.Status = value.(string)
		case "cancellation_reason":
			txn.CancellationReason = value.(string)
		case "offer_accepted_at":
			txn.OfferAcceptedAt = value.(*time.Time)
		case "vehicle_allocated_at":
			txn.VehicleAllocatedAt = value.(*time.Time)
		case "transport_started_at":
			txn.TransportStartedAt = value.(*time.Time)
		case "delivered_at":
			txn.DeliveredAt = value.(*time.Time)
		case "completed_at":
			txn.CompletedAt = value.(*time.Time)
		case "vehicle_id":
			v := value.(uuid.UUID)
			txn.VehicleID = &v
		case "transporter_id":
			v := value.(uuid.UUID)
			txn.TransporterID = &v
		case "driver_id":
			if v, ok := value.(*uuid.UUID); ok {
				txn.DriverID = v
			}
		case "billing_id":
			v := value.(uuid.UUID)
			txn.BillingID = &v
		case "transport_cost_amount":
			txn.TransportationCost.Amount = value.(decimal.Decimal)
		case "transport_cost_currency":
			txn.TransportationCost.Currency = value.(string)
		case "estimated_distance":
			v := value.(decimal.Decimal)
			txn.EstimatedDistance = &v
		case "actual_weight_value":
			if txn.ActualWeight == nil {
				txn.ActualWeight = &model.Quantity{}
			}
			txn.ActualWeight.Value = value.(decimal.Decimal)
		case "actual_weight_unit":
			// the SQL layer copies agreed_qty_unit via an expression
			if txn.ActualWeight == nil {
				txn.ActualWeight = &model.Quantity{}
			}
			txn.ActualWeight.Unit = txn.AgreedQuantity.Unit
		}
	}
	return 1, nil
}

func (s *txnRepoStub) Update(_ context.Context, txn *model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *txn
	s.txns[txn.ID] = &cp
	return nil
}

func (s *txnRepoStub) AppendEvent(_ context.Context, event *model.TransactionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.CreatedAt = time.Now()
	s.events = append(s.events, *event)
	return nil
}

func (s *txnRepoStub) ListEvents(_ context.Context, transactionID uuid.UUID) ([]model.TransactionEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.TransactionEvent
	for _, e := range s.events {
		if e.TransactionID == transactionID {
			out = append(out, e)
		}
	}
	return out, nil
}

type billingRepoStub struct {
	mu       sync.Mutex
	billings map[uuid.UUID]*model.Billing
}

func newBillingRepoStub() *billingRepoStub {
	return &billingRepoStub{billings: map[uuid.UUID]*model.Billing{}}
}

func (s *billingRepoStub) Create(_ context.Context, billing *model.Billing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if billing.ID == uuid.Nil {
		billing.ID = uuid.New()
	}
	for _, b := range s.billings {
		if b.TransactionID == billing.TransactionID || b.InvoiceNumber == billing.InvoiceNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	billing.CreatedAt = time.Now()
	cp := *billing
	s.billings[billing.ID] = &cp
	return nil
}

func (s *billingRepoStub) FindByID(_ context.Context, id uuid.UUID) (*model.Billing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.billings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *billingRepoStub) FindByTransactionID(_ context.Context, transactionID uuid.UUID) (*model.Billing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.billings {
		if b.TransactionID == transactionID {
			cp := *b
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *billingRepoStub) List(_ context.Context, filter repository.BillingListFilter) ([]model.Billing, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Billing, 0, len(s.billings))
	for _, b := range s.billings {
		if filter.FarmerID != nil && b.FarmerID != *filter.FarmerID {
			continue
		}
		if filter.BuyerID != nil && b.BuyerID != *filter.BuyerID {
			continue
		}
		if filter.PaymentStatus != "" && b.PaymentStatus != filter.PaymentStatus {
			continue
		}
		out = append(out, *b)
	}
	return out, int64(len(out)), nil
}

func (s *billingRepoStub) Update(_ context.Context, billing *model.Billing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *billing
	s.billings[billing.ID] = &cp
	return nil
}

type userRepoStub struct {
	mu                  sync.Mutex
	users               map[uuid.UUID]*model.User
	buyerProfiles       map[uuid.UUID]*model.BuyerProfile
	farmerProfiles      map[uuid.UUID]*model.FarmerProfile
	transporterProfiles map[uuid.UUID]*model.TransporterProfile
	refreshTokens       map[string]*model.RefreshToken
}

func newUserRepoStub() *userRepoStub {
	return &userRepoStub{
		users:               map[uuid.UUID]*model.User{},
		buyerProfiles:       map[uuid.UUID]*model.BuyerProfile{},
		farmerProfiles:      map[uuid.UUID]*model.FarmerProfile{},
		transporterProfiles: map[uuid.UUID]*model.TransporterProfile{},
		refreshTokens:       map[string]*model.RefreshToken{},
	}
}

func (s *userRepoStub) Create(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *userRepoStub) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *userRepoStub) FindByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *userRepoStub) CreateFarmerProfile(_ context.Context, profile *model.FarmerProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *profile
	s.farmerProfiles[profile.UserID] = &cp
	return nil
}

func (s *userRepoStub) CreateBuyerProfile(_ context.Context, profile *model.BuyerProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *profile
	s.buyerProfiles[profile.UserID] = &cp
	return nil
}

func (s *userRepoStub) CreateTransporterProfile(_ context.Context, profile *model.TransporterProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *profile
	s.transporterProfiles[profile.UserID] = &cp
	return nil
}

func (s *userRepoStub) FindBuyerProfile(_ context.Context, userID uuid.UUID) (*model.BuyerProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.buyerProfiles[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *userRepoStub) FindBuyerByGSTIN(_ context.Context, gstin string) (*model.BuyerProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.buyerProfiles {
		if p.GSTIN == gstin {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *userRepoStub) CreateRefreshToken(_ context.Context, token *model.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *token
	s.refreshTokens[token.Token] = &cp
	return nil
}

func (s *userRepoStub) FindRefreshToken(_ context.Context, token string) (*model.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.refreshTokens[token]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *stored
	return &cp, nil
}

func (s *userRepoStub) DeleteRefreshToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.refreshTokens, token)
	return nil
}

func (s *userRepoStub) DeleteExpiredRefreshTokens(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, stored := range s.refreshTokens {
		if time.Now().After(stored.ExpiresAt) {
			delete(s.refreshTokens, token)
		}
	}
	return nil
}

// seqRepoStub mimics the atomic upsert counter: every call returns a value
// no other caller has seen.
type seqRepoStub struct {
	mu     sync.Mutex
	values map[string]int64
}

func newSeqRepoStub() *seqRepoStub {
	return &seqRepoStub{values: map[string]int64{}}
}

func (s *seqRepoStub) Next(_ context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name]++
	return s.values[name], nil
}

// txManagerStub runs the function directly; the stubs have no real
// transactions to scope.
type txManagerStub struct{}

func (txManagerStub) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}
