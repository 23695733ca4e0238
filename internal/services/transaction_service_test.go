package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/kasirpos/backend/internal/dto"
	"github.com/kasirpos/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cashSale(variant *models.ProductVariant, qty, amountPaid int64) *dto.CreateTransactionRequest {
	return &dto.CreateTransactionRequest{
		PaymentMethod: models.PaymentMethodCash,
		AmountPaid:    amountPaid,
		Items: []dto.TransactionItemInput{
			{ProductID: variant.ProductID, VariantID: variant.ID, Quantity: qty},
		},
	}
}

func TestCreateTransactionCashWithTax(t *testing.T) {
	db := newTestDB(t)
	svc := NewTransactionService(db)
	owner := seedUser(t, db, true)
	store := seedStore(t, db, owner.ID, 10)
	variant := seedVariant(t, db, store.ID, "Kopi Susu", "Large", 25000, 10)

	tx, err := svc.CreateTransaction(context.Background(), store.ID, owner.ID, cashSale(variant, 4, 150000))
	require.NoError(t, err)

	assert.Equal(t, int64(100000), tx.Subtotal)
	assert.Equal(t, int64(10000), tx.Tax)
	assert.Equal(t, int64(110000), tx.Total)
	assert.Equal(t, int64(150000), tx.AmountPaid)
	assert.Equal(t, int64(40000), tx.Change)
	assert.Equal(t, "INV-000001", tx.InvoiceNumber)

	require.Len(t, tx.Items, 1)
	assert.Equal(t, "Kopi Susu - Large", tx.Items[0].Name)
	assert.Equal(t, int64(25000), tx.Items[0].Price)
	assert.Equal(t, int64(100000), tx.Items[0].Subtotal)

	var stock models.ProductVariant
	require.NoError(t, db.First(&stock, "id = ?", variant.ID).Error)
	assert.EqualValues(t, 6, stock.Quantity)
}

func TestCreateTransactionInsufficientCashRollsBack(t *testing.T) {
	db := newTestDB(t)
	svc := NewTransactionService(db)
	owner := seedUser(t, db, true)
	store := seedStore(t, db, owner.ID, 10)
	variant := seedVariant(t, db, store.ID, "Kopi Susu", "", 25000, 10)

	// Total is 110000 with tax; 100000 is short.
	_, err := svc.CreateTransaction(context.Background(), store.ID, owner.ID, cashSale(variant, 4, 100000))
	require.ErrorIs(t, err, ErrInsufficientPayment)
	assert.Contains(t, err.Error(), "short by 10000")

	var count int64
	require.NoError(t, db.Model(&models.Transaction{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)

	// The stock decrement inside the aborted transaction is rolled back too.
	var stock models.ProductVariant
	require.NoError(t, db.First(&stock, "id = ?", variant.ID).Error)
	assert.EqualValues(t, 10, stock.Quantity)

	var counter models.Store
	require.NoError(t, db.First(&counter, "id = ?", store.ID).Error)
	assert.EqualValues(t, 0, counter.InvoiceCounter)
}

func TestCreateTransactionInsufficientStock(t *testing.T) {
	db := newTestDB(t)
	svc := NewTransactionService(db)
	owner := seedUser(t, db, true)
	store := seedStore(t, db, owner.ID, 0)
	variant := seedVariant(t, db, store.ID, "Teh Botol", "", 5000, 3)

	_, err := svc.CreateTransaction(context.Background(), store.ID, owner.ID, cashSale(variant, 5, 100000))
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Contains(t, err.Error(), "Teh Botol")

	var stock models.ProductVariant
	require.NoError(t, db.First(&stock, "id = ?", variant.ID).Error)
	assert.EqualValues(t, 3, stock.Quantity)
}

func TestCreateTransactionStockNeverNegative(t *testing.T) {
	db := newTestDB(t)
	svc := NewTransactionService(db)
	owner := seedUser(t, db, true)
	store := seedStore(t, db, owner.ID, 0)
	variant := seedVariant(t, db, store.ID, "Teh Botol", "", 5000, 3)

	_, err := svc.CreateTransaction(context.Background(), store.ID, owner.ID, cashSale(variant, 2, 100000))
	require.NoError(t, err)

	// Second sale wants 2 but only 1 remains.
	_, err = svc.CreateTransaction(context.Background(), store.ID, owner.ID, cashSale(variant, 2, 100000))
	require.ErrorIs(t, err, ErrInsufficientStock)

	var stock models.ProductVariant
	require.NoError(t, db.First(&stock, "id = ?", variant.ID).Error)
	assert.EqualValues(t, 1, stock.Quantity)
}

func TestCreateTransactionCreditUpsertsCustomer(t *testing.T) {
	db := newTestDB(t)
	svc := NewTransactionService(db)
	owner := seedUser(t, db, true)
	store := seedStore(t, db, owner.ID, 0)
	variant := seedVariant(t, db, store.ID, "Beras 5kg", "", 70000, 20)

	req := &dto.CreateTransactionRequest{
		PaymentMethod: models.PaymentMethodCredit,
		CustomerName:  "Ibu Sari",
		CustomerPhone: "0812345678",
		Items: []dto.TransactionItemInput{
			{ProductID: variant.ProductID, VariantID: variant.ID, Quantity: 1},
		},
	}

	first, err := svc.CreateTransaction(context.Background(), store.ID, owner.ID, req)
	require.NoError(t, err)
	require.NotNil(t, first.CustomerID)
	assert.EqualValues(t, 0, first.AmountPaid)
	assert.EqualValues(t, 0, first.Change)

	// Same phone in the same store reuses the customer, with the name updated.
	req.CustomerName = "Sari Dewi"
	second, err := svc.CreateTransaction(context.Background(), store.ID, owner.ID, req)
	require.NoError(t, err)
	require.NotNil(t, second.CustomerID)
	assert.Equal(t, *first.CustomerID, *second.CustomerID)

	var customers int64
	require.NoError(t, db.Model(&models.Customer{}).Count(&customers).Error)
	assert.EqualValues(t, 1, customers)

	var customer models.Customer
	require.NoError(t, db.First(&customer, "id = ?", *first.CustomerID).Error)
	assert.Equal(t, "Sari Dewi", customer.Name)
}

func TestCreateTransactionCreditRequiresCustomer(t *testing.T) {
	db := newTestDB(t)
	svc := NewTransactionService(db)
	owner := seedUser(t, db, true)
	store := seedStore(t, db, owner.ID, 0)
	variant := seedVariant(t, db, store.ID, "Beras 5kg", "", 70000, 20)

	req := &dto.CreateTransactionRequest{
		PaymentMethod: models.PaymentMethodCredit,
		Items: []dto.TransactionItemInput{
			{ProductID: variant.ProductID, VariantID: variant.ID, Quantity: 1},
		},
	}
	_, err := svc.CreateTransaction(context.Background(), store.ID, owner.ID, req)
	assert.ErrorIs(t, err, ErrCustomerRequired)
}

func TestCreateTransactionValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewTransactionService(db)
	owner := seedUser(t, db, true)
	store := seedStore(t, db, owner.ID, 0)

	_, err := svc.CreateTransaction(context.Background(), store.ID, owner.ID, &dto.CreateTransactionRequest{
		PaymentMethod: models.PaymentMethodCash,
	})
	assert.ErrorIs(t, err, ErrNoItems)

	_, err = svc.CreateTransaction(context.Background(), store.ID, owner.ID, &dto.CreateTransactionRequest{
		PaymentMethod: "TRANSFER",
		Items:         []dto.TransactionItemInput{{VariantID: uuid.New(), Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)
}

func TestCreateTransactionRejectsForeignVariant(t *testing.T) {
	db := newTestDB(t)
	svc := NewTransactionService(db)
	owner := seedUser(t, db, true)
	store := seedStore(t, db, owner.ID, 0)
	otherStore := seedStore(t, db, owner.ID, 0)
	foreign := seedVariant(t, db, otherStore.ID, "Kopi", "", 10000, 5)

	_, err := svc.CreateTransaction(context.Background(), store.ID, owner.ID, cashSale(foreign, 1, 20000))
	assert.ErrorIs(t, err, ErrVariantNotFound)
}

func TestCreateTransactionRequiresStoreAccess(t *testing.T) {
	db := newTestDB(t)
	svc := NewTransactionService(db)
	owner := seedUser(t, db, true)
	stranger := seedUser(t, db, true)
	store := seedStore(t, db, owner.ID, 0)
	variant := seedVariant(t, db, store.ID, "Kopi", "", 10000, 5)

	_, err := svc.CreateTransaction(context.Background(), store.ID, stranger.ID, cashSale(variant, 1, 20000))
	assert.ErrorIs(t, err, ErrNoStoreAccess)

	// An active member can sell.
	require.NoError(t, db.Create(&models.StoreMember{
		ID: uuid.New(), StoreID: store.ID, UserID: stranger.ID, Role: "cashier", IsActive: true,
	}).Error)
	_, err = svc.CreateTransaction(context.Background(), store.ID, stranger.ID, cashSale(variant, 1, 20000))
	assert.NoError(t, err)
}

func TestInvoiceNumbersIncreasePerStore(t *testing.T) {
	db := newTestDB(t)
	svc := NewTransactionService(db)
	owner := seedUser(t, db, true)
	storeA := seedStore(t, db, owner.ID, 0)
	storeB := seedStore(t, db, owner.ID, 0)
	variantA := seedVariant(t, db, storeA.ID, "Kopi", "", 10000, 50)
	variantB := seedVariant(t, db, storeB.ID, "Teh", "", 5000, 50)

	first, err := svc.CreateTransaction(context.Background(), storeA.ID, owner.ID, cashSale(variantA, 1, 10000))
	require.NoError(t, err)
	second, err := svc.CreateTransaction(context.Background(), storeA.ID, owner.ID, cashSale(variantA, 1, 10000))
	require.NoError(t, err)
	other, err := svc.CreateTransaction(context.Background(), storeB.ID, owner.ID, cashSale(variantB, 1, 5000))
	require.NoError(t, err)

	assert.Equal(t, "INV-000001", first.InvoiceNumber)
	assert.Equal(t, "INV-000002", second.InvoiceNumber)
	// Counters are per store, not global.
	assert.Equal(t, "INV-000001", other.InvoiceNumber)
}

func TestGetHistory(t *testing.T) {
	db := newTestDB(t)
	svc := NewTransactionService(db)
	owner := seedUser(t, db, true)
	stranger := seedUser(t, db, true)
	store := seedStore(t, db, owner.ID, 0)
	variant := seedVariant(t, db, store.ID, "Kopi", "", 10000, 50)

	created, err := svc.CreateTransaction(context.Background(), store.ID, owner.ID, cashSale(variant, 1, 10000))
	require.NoError(t, err)

	list, err := svc.GetHistoryAll(store.ID, owner.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	_, err = svc.GetHistoryAll(store.ID, stranger.ID, 10, 0)
	assert.ErrorIs(t, err, ErrNoStoreAccess)

	got, err := svc.GetHistoryByID(store.ID, owner.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.InvoiceNumber, got.InvoiceNumber)

	_, err = svc.GetHistoryByID(store.ID, owner.ID, uuid.New())
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestHasStoreAccess(t *testing.T) {
	db := newTestDB(t)
	svc := NewTransactionService(db)
	owner := seedUser(t, db, true)
	member := seedUser(t, db, true)
	inactive := seedUser(t, db, true)
	store := seedStore(t, db, owner.ID, 0)

	require.NoError(t, db.Create(&models.StoreMember{
		ID: uuid.New(), StoreID: store.ID, UserID: member.ID, IsActive: true,
	}).Error)
	revoked := models.StoreMember{ID: uuid.New(), StoreID: store.ID, UserID: inactive.ID, IsActive: true}
	require.NoError(t, db.Create(&revoked).Error)
	require.NoError(t, db.Model(&revoked).UpdateColumn("is_active", false).Error)

	for _, tc := range []struct {
		userID uuid.UUID
		want   bool
	}{
		{owner.ID, true},
		{member.ID, true},
		{inactive.ID, false},
		{uuid.New(), false},
	} {
		ok, err := svc.HasStoreAccess(store.ID, tc.userID)
		require.NoError(t, err)
		assert.Equal(t, tc.want, ok)
	}
}
