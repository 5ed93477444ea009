package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/raffialdn/karyapay/internal/models"
)

// newTestDB opens an isolated in-memory database and migrates the schema.
// The database name is derived from the test so parallel tests cannot see
// each other's rows.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.PaymentTransaction{},
		&models.PaymentEvent{},
		&models.RevenueShare{},
		&models.Withdrawal{},
	))
	return db
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func createUser(t *testing.T, db *gorm.DB, name string) models.User {
	t.Helper()

	user := models.User{
		Name:     name,
		Email:    fmt.Sprintf("%s-%s@example.com", name, uuid.New().String()[:8]),
		Password: "hashed",
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// createPendingPayment seeds an order with a single 100.00 line item by the
// given creator plus a PENDING payment transaction carrying externalID.
func createPendingPayment(t *testing.T, db *gorm.DB, buyerID, creatorID uuid.UUID, externalID string) (models.Order, models.PaymentTransaction) {
	t.Helper()

	order := models.Order{
		BuyerID:     buyerID,
		TotalAmount: dec("100.00"),
		Currency:    "IDR",
		Status:      models.OrderPending,
	}
	require.NoError(t, db.Create(&order).Error)

	item := models.OrderItem{
		OrderID:   order.ID,
		ProductID: uuid.New(),
		CreatorID: creatorID,
		Quantity:  1,
		UnitPrice: dec("100.00"),
		Subtotal:  dec("100.00"),
	}
	require.NoError(t, db.Create(&item).Error)

	pt := models.PaymentTransaction{
		OrderID:    order.ID,
		Amount:     dec("100.00"),
		Currency:   "IDR",
		Method:     "VIRTUAL_ACCOUNT",
		Provider:   "fake",
		ExternalID: externalID,
		Status:     models.PaymentPending,
	}
	require.NoError(t, db.Create(&pt).Error)

	return order, pt
}

func createAvailableShare(t *testing.T, db *gorm.DB, creatorID uuid.UUID, revenue decimal.Decimal, createdAt time.Time) models.RevenueShare {
	t.Helper()

	share := models.RevenueShare{
		OrderID:        uuid.New(),
		CreatorID:      creatorID,
		TotalAmount:    revenue.Mul(decimal.NewFromInt(2)),
		PlatformFee:    revenue,
		CreatorRevenue: revenue,
		Status:         models.ShareAvailable,
		CreatedAt:      createdAt,
	}
	require.NoError(t, db.Create(&share).Error)
	return share
}
