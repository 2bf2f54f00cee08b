package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrimandi/internal/model"
	"agrimandi/pkg/apperr"
)

type billingTestEnv struct {
	svc         BillingService
	billingRepo *billingRepoStub
	txnRepo     *txnRepoStub
	userRepo    *userRepoStub
	seqRepo     *seqRepoStub

	farmerID uuid.UUID
	buyerID  uuid.UUID
}

func newBillingTestEnv(t *testing.T, allowOverpayment bool) *billingTestEnv {
	t.Helper()

	env := &billingTestEnv{
		billingRepo: newBillingRepoStub(),
		txnRepo:     newTxnRepoStub(),
		userRepo:    newUserRepoStub(),
		seqRepo:     newSeqRepoStub(),
		farmerID:    uuid.New(),
		buyerID:     uuid.New(),
	}
	env.svc = NewBillingService(env.billingRepo, env.txnRepo, env.userRepo, env.seqRepo, txManagerStub{}, nil, allowOverpayment)

	require.NoError(t, env.userRepo.CreateBuyerProfile(context.Background(), &model.BuyerProfile{
		UserID: env.buyerID,
		GSTIN:  "27ABCDE1234F1Z5",
	}))
	return env
}

// seedDelivered stores a transaction ready for billing: 100 kg at 20/kg
// with 100 of transport cost already allocated.
func (env *billingTestEnv) seedDelivered(t *testing.T) *model.Transaction {
	t.Helper()
	txn := &model.Transaction{
		Reference:          fmt.Sprintf("TXN-1-%d", time.Now().UnixNano()),
		FarmerID:           env.farmerID,
		BuyerID:            env.buyerID,
		ListingID:          uuid.New(),
		CommodityType:      "Grains",
		VarietySubtype:     "Basmati Rice",
		AgreedQuantity:     model.Quantity{Value: decimal.NewFromInt(100), Unit: model.UnitKg},
		PricePerUnit:       decimal.NewFromInt(20),
		TotalPrice:         model.Money{Amount: decimal.NewFromInt(2000), Currency: model.CurrencyINR},
		TransportationCost: model.Money{Amount: decimal.NewFromInt(100), Currency: model.CurrencyINR},
		Status:             model.StatusDelivered,
	}
	require.NoError(t, env.txnRepo.Create(context.Background(), txn))
	return txn
}

func (env *billingTestEnv) createBilling(t *testing.T, txn *model.Transaction) BillingResponse {
	t.Helper()
	resp, err := env.svc.CreateBilling(context.Background(), env.buyerID.String(), CreateBillingRequest{
		TransactionID:        txn.ID.String(),
		ActualWeightReceived: decimal.NewFromInt(95),
		RatePerUnit:          decimal.NewFromInt(20),
		SGST:                 &TaxComponentRequest{Percentage: decimal.NewFromInt(5), Amount: decimal.NewFromInt(50)},
		CGST:                 &TaxComponentRequest{Percentage: decimal.NewFromInt(5), Amount: decimal.NewFromInt(50)},
		DamageDeduction:      &DeductionRequest{Amount: decimal.NewFromInt(20), Reason: "crushed crates"},
	})
	require.NoError(t, err)
	return resp
}

func TestCreateBilling(t *testing.T) {
	env := newBillingTestEnv(t, true)
	ctx := context.Background()
	txn := env.seedDelivered(t)

	resp := env.createBilling(t, txn)

	// 95 kg received against 100 ordered at 20/kg: 1900 + 100 tax
	// - 20 deduction + 100 transport = 2080
	assert.Equal(t, "-5.00", resp.WeightDifference)
	assert.Equal(t, "-5.00", resp.WeightDifferencePct)
	assert.Equal(t, "1900.00", resp.SubTotal)
	assert.Equal(t, "100.00", resp.TotalTax)
	assert.Equal(t, "20.00", resp.TotalDeductions)
	assert.Equal(t, "100.00", resp.TransportationCost)
	assert.Equal(t, "2080.00", resp.TotalAmount)
	assert.Equal(t, "2080.00", resp.RemainingAmount)
	assert.Equal(t, model.BillingUnpaid, resp.PaymentStatus)
	assert.Equal(t, "27ABCDE1234F1Z5", resp.BuyerGSTIN)
	assert.Regexp(t, `^INV-\d{6}-\d{6}$`, resp.InvoiceNumber)

	// the underlying deal is settled
	stored, err := env.txnRepo.FindByID(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, stored.Status)
	require.NotNil(t, stored.BillingID)
	assert.Equal(t, resp.ID, stored.BillingID.String())
	assert.NotNil(t, stored.CompletedAt)
}

func TestCreateBilling_Guards(t *testing.T) {
	env := newBillingTestEnv(t, true)
	ctx := context.Background()
	txn := env.seedDelivered(t)

	// only the buyer may invoice
	_, err := env.svc.CreateBilling(ctx, env.farmerID.String(), CreateBillingRequest{
		TransactionID:        txn.ID.String(),
		ActualWeightReceived: decimal.NewFromInt(95),
		RatePerUnit:          decimal.NewFromInt(20),
	})
	assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))

	// negative inputs rejected before anything is loaded
	_, err = env.svc.CreateBilling(ctx, env.buyerID.String(), CreateBillingRequest{
		TransactionID:        txn.ID.String(),
		ActualWeightReceived: decimal.NewFromInt(-1),
		RatePerUnit:          decimal.NewFromInt(20),
	})
	assert.Equal(t, apperr.Invalid, apperr.KindOf(err))

	// one invoice per transaction
	env.createBilling(t, txn)
	_, err = env.svc.CreateBilling(ctx, env.buyerID.String(), CreateBillingRequest{
		TransactionID:        txn.ID.String(),
		ActualWeightReceived: decimal.NewFromInt(95),
		RatePerUnit:          decimal.NewFromInt(20),
	})
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
}

func TestCreateBilling_StatusMustAllowCompletion(t *testing.T) {
	env := newBillingTestEnv(t, true)
	ctx := context.Background()
	txn := env.seedDelivered(t)
	txn.Status = model.StatusOfferSent
	require.NoError(t, env.txnRepo.Update(ctx, txn))

	_, err := env.svc.CreateBilling(ctx, env.buyerID.String(), CreateBillingRequest{
		TransactionID:        txn.ID.String(),
		ActualWeightReceived: decimal.NewFromInt(95),
		RatePerUnit:          decimal.NewFromInt(20),
	})
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
}

func TestRecordPayment(t *testing.T) {
	env := newBillingTestEnv(t, true)
	ctx := context.Background()
	billing := env.createBilling(t, env.seedDelivered(t))

	// partial payment
	resp, err := env.svc.RecordPayment(ctx, billing.ID, env.buyerID.String(), RecordPaymentRequest{
		PaymentMethod: model.PaymentMethodUPI,
		PaidAmount:    decimal.NewFromInt(1000),
	})
	require.NoError(t, err)
	assert.Equal(t, model.BillingPartial, resp.PaymentStatus)
	assert.Equal(t, "1000.00", resp.PaidAmount)
	assert.Equal(t, "1080.00", resp.RemainingAmount)

	// settling the balance flips to Paid
	resp, err = env.svc.RecordPayment(ctx, billing.ID, env.buyerID.String(), RecordPaymentRequest{
		PaymentMethod: model.PaymentMethodUPI,
		PaidAmount:    decimal.NewFromInt(1080),
	})
	require.NoError(t, err)
	assert.Equal(t, model.BillingPaid, resp.PaymentStatus)
	assert.Equal(t, "0.00", resp.RemainingAmount)
	assert.NotNil(t, resp.PaymentReceivedAt)
}

func TestRecordPayment_Guards(t *testing.T) {
	env := newBillingTestEnv(t, true)
	ctx := context.Background()
	billing := env.createBilling(t, env.seedDelivered(t))

	_, err := env.svc.RecordPayment(ctx, billing.ID, env.farmerID.String(), RecordPaymentRequest{
		PaymentMethod: model.PaymentMethodCash,
		PaidAmount:    decimal.NewFromInt(100),
	})
	assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))

	_, err = env.svc.RecordPayment(ctx, billing.ID, env.buyerID.String(), RecordPaymentRequest{
		PaymentMethod: model.PaymentMethodCash,
		PaidAmount:    decimal.NewFromInt(-100),
	})
	assert.Equal(t, apperr.Invalid, apperr.KindOf(err))
}

func TestRecordPayment_OverpaymentPolicy(t *testing.T) {
	// default: overpayment accepted, balance goes negative
	env := newBillingTestEnv(t, true)
	ctx := context.Background()
	billing := env.createBilling(t, env.seedDelivered(t))

	resp, err := env.svc.RecordPayment(ctx, billing.ID, env.buyerID.String(), RecordPaymentRequest{
		PaymentMethod: model.PaymentMethodBank,
		PaidAmount:    decimal.NewFromInt(2500),
	})
	require.NoError(t, err)
	assert.Equal(t, model.BillingPaid, resp.PaymentStatus)
	assert.Equal(t, "-420.00", resp.RemainingAmount)

	// strict mode rejects the excess and leaves the invoice untouched
	strict := newBillingTestEnv(t, false)
	strictBilling := strict.createBilling(t, strict.seedDelivered(t))

	_, err = strict.svc.RecordPayment(ctx, strictBilling.ID, strict.buyerID.String(), RecordPaymentRequest{
		PaymentMethod: model.PaymentMethodBank,
		PaidAmount:    decimal.NewFromInt(2500),
	})
	assert.Equal(t, apperr.Invalid, apperr.KindOf(err))

	stored, err := strict.billingRepo.FindByID(ctx, uuid.MustParse(strictBilling.ID))
	require.NoError(t, err)
	assert.True(t, stored.PaidAmount.IsZero())
	assert.Equal(t, model.BillingUnpaid, stored.PaymentStatus)
}

func TestBillingGetByID_Authorization(t *testing.T) {
	env := newBillingTestEnv(t, true)
	ctx := context.Background()
	billing := env.createBilling(t, env.seedDelivered(t))

	_, err := env.svc.GetByID(ctx, billing.ID, env.farmerID.String())
	require.NoError(t, err)
	_, err = env.svc.GetByID(ctx, billing.ID, env.buyerID.String())
	require.NoError(t, err)

	_, err = env.svc.GetByID(ctx, billing.ID, uuid.NewString())
	assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))
}

func TestInvoiceNumbersUniqueUnderConcurrency(t *testing.T) {
	env := newBillingTestEnv(t, true)

	const n = 20
	var wg sync.WaitGroup
	results := make([]string, n)

	for i := 0; i < n; i++ {
		txn := env.seedDelivered(t)
		wg.Add(1)
		go func(i int, txnID string) {
			defer wg.Done()
			resp, err := env.svc.CreateBilling(context.Background(), env.buyerID.String(), CreateBillingRequest{
				TransactionID:        txnID,
				ActualWeightReceived: decimal.NewFromInt(100),
				RatePerUnit:          decimal.NewFromInt(20),
			})
			if err == nil {
				results[i] = resp.InvoiceNumber
			}
		}(i, txn.ID.String())
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, num := range results {
		require.NotEmpty(t, num)
		assert.False(t, seen[num], "duplicate invoice number %s", num)
		seen[num] = true
	}
}
