package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kasirpos/backend/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Store{},
		&models.StoreMember{},
		&models.SubscriptionPackage{},
		&models.Subscription{},
		&models.Payment{},
		&models.Product{},
		&models.ProductVariant{},
		&models.Customer{},
		&models.Transaction{},
		&models.TransactionItem{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, verified bool) *models.User {
	t.Helper()
	user := &models.User{
		ID:            uuid.New(),
		Name:          "Budi Santoso",
		Email:         fmt.Sprintf("%s@example.com", uuid.NewString()[:8]),
		Password:      "x",
		EmailVerified: verified,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedPackage(t *testing.T, db *gorm.DB, name string, price int64, maxStores, maxMembers int) *models.SubscriptionPackage {
	t.Helper()
	pkg := &models.SubscriptionPackage{
		ID:           uuid.New(),
		Name:         name,
		DisplayName:  name,
		Price:        price,
		DurationDays: 30,
		MaxStores:    maxStores,
		MaxMembers:   maxMembers,
		MaxUsers:     maxMembers + 1,
		IsActive:     true,
	}
	require.NoError(t, db.Create(pkg).Error)
	return pkg
}

func seedSubscription(t *testing.T, db *gorm.DB, userID, packageID uuid.UUID, status models.SubscriptionStatus, endsIn time.Duration) *models.Subscription {
	t.Helper()
	now := time.Now()
	sub := &models.Subscription{
		ID:          uuid.New(),
		UserID:      userID,
		PackageID:   packageID,
		Status:      status,
		StartDate:   now.Add(-24 * time.Hour),
		EndDate:     now.Add(endsIn),
		PaidMonths:  1,
		TotalMonths: 1,
	}
	require.NoError(t, db.Create(sub).Error)
	return sub
}

func seedStore(t *testing.T, db *gorm.DB, ownerID uuid.UUID, taxPercent int64) *models.Store {
	t.Helper()
	store := &models.Store{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		Name:       "Toko Sejahtera",
		TaxPercent: taxPercent,
	}
	require.NoError(t, db.Create(store).Error)
	return store
}

func seedVariant(t *testing.T, db *gorm.DB, storeID uuid.UUID, productName, variantName string, price, quantity int64) *models.ProductVariant {
	t.Helper()
	product := &models.Product{
		ID:      uuid.New(),
		StoreID: storeID,
		Name:    productName,
	}
	require.NoError(t, db.Create(product).Error)

	variant := &models.ProductVariant{
		ID:        uuid.New(),
		ProductID: product.ID,
		Name:      variantName,
		Price:     price,
		Quantity:  quantity,
	}
	require.NoError(t, db.Create(variant).Error)
	return variant
}
