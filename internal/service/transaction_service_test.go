package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrimandi/internal/model"
	"agrimandi/pkg/apperr"
)

type txnTestEnv struct {
	svc         TransactionService
	txnRepo     *txnRepoStub
	listingRepo *listingRepoStub
	vehicleRepo *vehicleRepoStub

	farmerID uuid.UUID
	buyerID  uuid.UUID
	listing  *model.CommodityListing
}

func newTxnTestEnv(t *testing.T) *txnTestEnv {
	t.Helper()

	env := &txnTestEnv{
		txnRepo:     newTxnRepoStub(),
		listingRepo: newListingRepoStub(),
		vehicleRepo: newVehicleRepoStub(),
		farmerID:    uuid.New(),
		buyerID:     uuid.New(),
	}
	env.svc = NewTransactionService(env.txnRepo, env.listingRepo, env.vehicleRepo, newSeqRepoStub(), txManagerStub{}, nil)

	env.listing = &model.CommodityListing{
		FarmerID:          env.farmerID,
		CommodityType:     "Grains",
		VarietySubtype:    "Basmati Rice",
		Quality:           model.QualityGradeA,
		AvailableQuantity: model.Quantity{Value: decimal.NewFromInt(500), Unit: model.UnitKg},
		PricePerUnit:      decimal.NewFromInt(22),
		PriceCurrency:     model.CurrencyINR,
		PriceUnit:         model.UnitKg,
		PickupLocation:    model.Location{City: "Nashik", State: "Maharashtra"},
		IsActive:          true,
	}
	require.NoError(t, env.listingRepo.Create(context.Background(), env.listing))
	return env
}

func (env *txnTestEnv) sendOffer(t *testing.T) TransactionResponse {
	t.Helper()
	resp, err := env.svc.SendOffer(context.Background(), env.buyerID.String(), SendOfferRequest{
		ListingID:     env.listing.ID.String(),
		Quantity:      decimal.NewFromInt(100),
		ProposedPrice: decimal.NewFromInt(20),
		DeliveryCity:  "Pune",
		DeliveryState: "Maharashtra",
	})
	require.NoError(t, err)
	return resp
}

func (env *txnTestEnv) addVehicle(t *testing.T, available bool) *model.Vehicle {
	t.Helper()
	vehicle := &model.Vehicle{
		TransporterID:      uuid.New(),
		VehicleType:        model.VehicleMiniTruck,
		RegistrationNumber: "MH12AB" + uuid.NewString()[:4],
		CapacityWeight:     model.Quantity{Value: decimal.NewFromInt(2), Unit: model.UnitTon},
		PricePerKilometer:  decimal.NewFromInt(2),
		PriceCurrency:      model.CurrencyINR,
		ServiceStates:      "Maharashtra",
		IsAvailable:        available,
	}
	require.NoError(t, env.vehicleRepo.Create(context.Background(), vehicle))
	return vehicle
}

func TestSendOffer(t *testing.T) {
	env := newTxnTestEnv(t)

	resp := env.sendOffer(t)

	assert.Equal(t, model.StatusOfferSent, resp.Status)
	assert.True(t, strings.HasPrefix(resp.Reference, "TXN-"), resp.Reference)
	assert.Equal(t, "100.00", resp.QuantityValue)
	assert.Equal(t, model.UnitKg, resp.QuantityUnit)
	assert.Equal(t, "20.00", resp.PricePerUnit)
	assert.Equal(t, "2000.00", resp.TotalPrice)
	assert.Equal(t, env.farmerID.String(), resp.FarmerID)
	assert.Equal(t, "Maharashtra", resp.PickupState)
	assert.NotNil(t, resp.OfferSentAt)

	events, err := env.txnRepo.ListEvents(context.Background(), uuid.MustParse(resp.ID))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.StatusOfferSent, events[0].ToStatus)
}

func TestSendOffer_Validation(t *testing.T) {
	env := newTxnTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.SendOffer(ctx, env.buyerID.String(), SendOfferRequest{
		ListingID:     uuid.NewString(),
		Quantity:      decimal.NewFromInt(10),
		ProposedPrice: decimal.NewFromInt(20),
	})
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))

	_, err = env.svc.SendOffer(ctx, env.buyerID.String(), SendOfferRequest{
		ListingID:     env.listing.ID.String(),
		ProposedPrice: decimal.NewFromInt(20),
	})
	assert.Equal(t, apperr.Invalid, apperr.KindOf(err))

	_, err = env.svc.SendOffer(ctx, env.buyerID.String(), SendOfferRequest{
		ListingID:     env.listing.ID.String(),
		Quantity:      decimal.NewFromInt(10),
		ProposedPrice: decimal.NewFromInt(-1),
	})
	assert.Equal(t, apperr.Invalid, apperr.KindOf(err))

	env.listing.IsActive = false
	require.NoError(t, env.listingRepo.Update(ctx, env.listing))
	_, err = env.svc.SendOffer(ctx, env.buyerID.String(), SendOfferRequest{
		ListingID:     env.listing.ID.String(),
		Quantity:      decimal.NewFromInt(10),
		ProposedPrice: decimal.NewFromInt(20),
	})
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
}

func TestAcceptOffer(t *testing.T) {
	env := newTxnTestEnv(t)
	ctx := context.Background()
	offer := env.sendOffer(t)

	// only the listing's farmer may accept
	_, err := env.svc.AcceptOffer(ctx, offer.ID, env.buyerID.String())
	assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))

	resp, err := env.svc.AcceptOffer(ctx, offer.ID, env.farmerID.String())
	require.NoError(t, err)
	assert.Equal(t, model.StatusOfferAccepted, resp.Status)
	assert.NotNil(t, resp.OfferAcceptedAt)

	// a second accept finds the guard already spent
	_, err = env.svc.AcceptOffer(ctx, offer.ID, env.farmerID.String())
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
}

func TestRejectOffer(t *testing.T) {
	env := newTxnTestEnv(t)
	ctx := context.Background()
	offer := env.sendOffer(t)

	resp, err := env.svc.RejectOffer(ctx, offer.ID, env.farmerID.String(), "price too low")
	require.NoError(t, err)
	assert.Equal(t, model.StatusOfferRejected, resp.Status)
	assert.Equal(t, "price too low", resp.CancellationReason)

	// rejected is terminal
	_, err = env.svc.AcceptOffer(ctx, offer.ID, env.farmerID.String())
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
}

func TestNegotiateAndFinalize(t *testing.T) {
	env := newTxnTestEnv(t)
	ctx := context.Background()
	offer := env.sendOffer(t)

	_, err := env.svc.AcceptOffer(ctx, offer.ID, env.farmerID.String())
	require.NoError(t, err)

	resp, err := env.svc.StartNegotiation(ctx, offer.ID, env.buyerID.String())
	require.NoError(t, err)
	assert.Equal(t, model.StatusNegotiating, resp.Status)

	resp, err = env.svc.Finalize(ctx, offer.ID, env.farmerID.String())
	require.NoError(t, err)
	assert.Equal(t, model.StatusFinalized, resp.Status)

	// negotiation cannot be reopened once finalized
	_, err = env.svc.StartNegotiation(ctx, offer.ID, env.buyerID.String())
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
}

func TestRequestVehicle(t *testing.T) {
	env := newTxnTestEnv(t)
	ctx := context.Background()
	offer := env.sendOffer(t)
	vehicle := env.addVehicle(t, true)

	_, err := env.svc.AcceptOffer(ctx, offer.ID, env.farmerID.String())
	require.NoError(t, err)

	resp, err := env.svc.RequestVehicle(ctx, offer.ID, vehicle.ID.String(), env.farmerID.String())
	require.NoError(t, err)
	assert.Equal(t, model.StatusVehicleAllocated, resp.Status)
	require.NotNil(t, resp.TransporterID)
	assert.Equal(t, vehicle.TransporterID.String(), *resp.TransporterID)

	// no coordinates on either end: flat 50 km at 2/km for 100 kg
	// gives 100 * 2 * 50 / 100 = 100
	assert.Equal(t, "100.00", resp.TransportationCost)
	require.NotNil(t, resp.EstimatedDistanceKm)
	assert.Equal(t, "50.00", *resp.EstimatedDistanceKm)

	// the vehicle is booked
	stored, err := env.vehicleRepo.FindByID(ctx, vehicle.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsAvailable)
}

func TestRequestVehicle_Unavailable(t *testing.T) {
	env := newTxnTestEnv(t)
	ctx := context.Background()
	offer := env.sendOffer(t)
	vehicle := env.addVehicle(t, false)

	_, err := env.svc.AcceptOffer(ctx, offer.ID, env.farmerID.String())
	require.NoError(t, err)

	_, err = env.svc.RequestVehicle(ctx, offer.ID, vehicle.ID.String(), env.farmerID.String())
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))

	// the transaction is untouched
	stored, err := env.txnRepo.FindByID(ctx, uuid.MustParse(offer.ID))
	require.NoError(t, err)
	assert.Equal(t, model.StatusOfferAccepted, stored.Status)
	assert.Nil(t, stored.VehicleID)
}

func TestTransitAndDelivery(t *testing.T) {
	env := newTxnTestEnv(t)
	ctx := context.Background()
	offer := env.sendOffer(t)
	vehicle := env.addVehicle(t, true)
	transporter := vehicle.TransporterID.String()

	_, err := env.svc.AcceptOffer(ctx, offer.ID, env.farmerID.String())
	require.NoError(t, err)
	_, err = env.svc.RequestVehicle(ctx, offer.ID, vehicle.ID.String(), env.farmerID.String())
	require.NoError(t, err)

	// only the allocated transporter may move the shipment
	_, err = env.svc.StartTransit(ctx, offer.ID, env.buyerID.String())
	assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))

	resp, err := env.svc.StartTransit(ctx, offer.ID, transporter)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInTransit, resp.Status)

	_, err = env.svc.MarkDelivered(ctx, offer.ID, transporter, decimal.NewFromInt(-1))
	assert.Equal(t, apperr.Invalid, apperr.KindOf(err))

	resp, err = env.svc.MarkDelivered(ctx, offer.ID, transporter, decimal.NewFromInt(95))
	require.NoError(t, err)
	assert.Equal(t, model.StatusDelivered, resp.Status)
	assert.NotNil(t, resp.DeliveredAt)

	stored, err := env.txnRepo.FindByID(ctx, uuid.MustParse(offer.ID))
	require.NoError(t, err)
	require.NotNil(t, stored.ActualWeight)
	assert.True(t, stored.ActualWeight.Value.Equal(decimal.NewFromInt(95)))
	assert.Equal(t, model.UnitKg, stored.ActualWeight.Unit)
}

func TestCancel(t *testing.T) {
	env := newTxnTestEnv(t)
	ctx := context.Background()
	offer := env.sendOffer(t)

	resp, err := env.svc.Cancel(ctx, offer.ID, env.buyerID.String(), "found a better price")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, resp.Status)
	assert.Equal(t, "found a better price", resp.CancellationReason)

	// cancelled is terminal
	_, err = env.svc.Cancel(ctx, offer.ID, env.buyerID.String(), "again")
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
}

func TestGetByID_Authorization(t *testing.T) {
	env := newTxnTestEnv(t)
	ctx := context.Background()
	offer := env.sendOffer(t)

	_, err := env.svc.GetByID(ctx, offer.ID, env.farmerID.String())
	require.NoError(t, err)
	_, err = env.svc.GetByID(ctx, offer.ID, env.buyerID.String())
	require.NoError(t, err)

	_, err = env.svc.GetByID(ctx, offer.ID, uuid.NewString())
	assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))
}

func TestListByParty(t *testing.T) {
	env := newTxnTestEnv(t)
	ctx := context.Background()
	env.sendOffer(t)
	env.sendOffer(t)

	txns, total, err := env.svc.ListByParty(ctx, env.farmerID.String(), model.RoleFarmer, TransactionFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, txns, 2)

	// an unrelated buyer sees nothing
	txns, total, err = env.svc.ListByParty(ctx, uuid.NewString(), model.RoleBuyer, TransactionFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
	assert.Empty(t, txns)

	_, _, err = env.svc.ListByParty(ctx, env.buyerID.String(), "admin", TransactionFilter{})
	assert.Equal(t, apperr.Invalid, apperr.KindOf(err))
}

func TestInspectionAndDispute(t *testing.T) {
	env := newTxnTestEnv(t)
	ctx := context.Background()
	offer := env.sendOffer(t)

	resp, err := env.svc.UpdateInspection(ctx, offer.ID, env.buyerID.String(), InspectionRequest{
		Status:  model.InspectionFailed,
		Remarks: "moisture above limit",
	})
	require.NoError(t, err)
	assert.Equal(t, offer.ID, resp.ID)

	stored, err := env.txnRepo.FindByID(ctx, uuid.MustParse(offer.ID))
	require.NoError(t, err)
	assert.True(t, stored.QualityInspection.Conducted)
	assert.Equal(t, model.InspectionFailed, stored.QualityInspection.Status)

	// resolving with no dispute open is a conflict
	_, err = env.svc.ResolveDispute(ctx, offer.ID, env.buyerID.String(), "n/a")
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))

	resp, err = env.svc.ReportDispute(ctx, offer.ID, env.buyerID.String(), "grade below sample")
	require.NoError(t, err)
	assert.True(t, resp.HasDispute)

	stored, err = env.txnRepo.FindByID(ctx, uuid.MustParse(offer.ID))
	require.NoError(t, err)
	assert.Equal(t, model.RoleBuyer, stored.Dispute.ReportedBy)

	resp, err = env.svc.ResolveDispute(ctx, offer.ID, env.farmerID.String(), "partial refund agreed")
	require.NoError(t, err)
	assert.False(t, resp.HasDispute)
}

func TestReferenceSequenceIsStrictlyIncreasing(t *testing.T) {
	env := newTxnTestEnv(t)

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		resp := env.sendOffer(t)
		assert.False(t, seen[resp.Reference], "duplicate reference %s", resp.Reference)
		seen[resp.Reference] = true
	}
}
