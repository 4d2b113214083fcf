// internal/services/testutil_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/itemt/agroconnect-backend/internal/config"
	"github.com/itemt/agroconnect-backend/internal/models"
	"github.com/itemt/agroconnect-backend/internal/units"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// The in-memory database lives on a single connection
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.ProducerProfile{},
		&models.BuyerProfile{},
		&models.Crop{},
		&models.Publication{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.Payment{},
		&models.Rating{},
		&models.Conversation{},
		&models.Message{},
		&models.Notification{},
	))

	return db
}

func newTestConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		JWT: config.JWTConfig{
			SecretKey:       "test-secret",
			AccessTokenTTL:  1,
			RefreshTokenTTL: 24,
		},
		Payment: config.PaymentConfig{
			TestMode:      true,
			Currency:      "COP",
			MinimumAmount: 5000,
		},
		Frontend: config.FrontendConfig{BaseURL: "http://localhost:3000"},
	}
}

func createProducer(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username:  username,
		Email:     username + "@test.co",
		Role:      models.RoleProductor,
		Status:    models.UserStatusActivo,
		FirstName: "Prod",
		LastName:  "Uctor",
	}
	require.NoError(t, user.SetPassword("Secreta123"))
	require.NoError(t, db.Create(user).Error)
	require.NoError(t, db.Create(&models.ProducerProfile{UserID: user.ID}).Error)
	return user
}

func createBuyer(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username:  username,
		Email:     username + "@test.co",
		Role:      models.RoleComprador,
		Status:    models.UserStatusActivo,
		FirstName: "Comp",
		LastName:  "Rador",
	}
	require.NoError(t, user.SetPassword("Secreta123"))
	require.NoError(t, db.Create(user).Error)
	require.NoError(t, db.Create(&models.BuyerProfile{UserID: user.ID}).Error)
	return user
}

// createListing seeds a harvested crop with an active publication in kg.
func createListing(t *testing.T, db *gorm.DB, seller *models.User, price, stock int64) *models.Publication {
	t.Helper()

	crop := &models.Crop{
		ProductorID:  seller.ID,
		Nombre:       "Papa pastusa",
		Categoria:    models.CategoryTuberculos,
		UnidadMedida: units.UnitKilogram,
		Estado:       models.CropCosechado,
	}
	require.NoError(t, db.Create(crop).Error)

	publication := &models.Publication{
		CropID:             crop.ID,
		VendedorID:         seller.ID,
		PrecioPorUnidad:    decimal.NewFromInt(price),
		UnidadMedida:       units.UnitKilogram,
		CantidadDisponible: decimal.NewFromInt(stock),
		CantidadMinima:     decimal.NewFromInt(1),
		Estado:             models.PublicationActiva,
	}
	require.NoError(t, db.Create(publication).Error)
	return publication
}

func reloadPublication(t *testing.T, db *gorm.DB, id uuid.UUID) *models.Publication {
	t.Helper()

	var publication models.Publication
	require.NoError(t, db.First(&publication, id).Error)
	return &publication
}

func reloadOrder(t *testing.T, db *gorm.DB, id uuid.UUID) *models.Order {
	t.Helper()

	var order models.Order
	require.NoError(t, db.Preload("Payment").First(&order, id).Error)
	return &order
}
