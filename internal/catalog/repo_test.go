package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/okotelnikov/vpsshop-backend/pkg/db/models"
	pkgerrors "github.com/okotelnikov/vpsshop-backend/pkg/errors"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	tariffs := `
CREATE TABLE IF NOT EXISTS tariffs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  location TEXT NOT NULL,
  specs TEXT NOT NULL,
  price NUMERIC NOT NULL,
  currency TEXT NOT NULL DEFAULT 'RUB'
);`
	require.NoError(t, db.Exec(tariffs).Error)
	return db
}

func seedTariff(t *testing.T, db *gorm.DB, location, specs, price string) *models.Tariff {
	t.Helper()

	tariff := &models.Tariff{
		Location: location,
		Specs:    specs,
		Price:    decimal.RequireFromString(price),
		Currency: "RUB",
	}
	require.NoError(t, db.Create(tariff).Error)
	return tariff
}

func TestRepositoryLocations(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	seedTariff(t, db, "Frankfurt", "1 vCPU / 1 GB", "250.00")
	seedTariff(t, db, "Amsterdam", "1 vCPU / 1 GB", "250.00")
	seedTariff(t, db, "Amsterdam", "2 vCPU / 4 GB", "450.00")

	locations, err := repo.Locations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Amsterdam", "Frankfurt"}, locations)
}

func TestRepositoryByLocation_sortedByPrice(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	seedTariff(t, db, "Amsterdam", "4 vCPU / 8 GB", "900.00")
	seedTariff(t, db, "Amsterdam", "1 vCPU / 1 GB", "250.00")
	seedTariff(t, db, "Frankfurt", "1 vCPU / 1 GB", "260.00")

	tariffs, err := repo.ByLocation(context.Background(), "Amsterdam")
	require.NoError(t, err)
	require.Len(t, tariffs, 2)
	assert.Equal(t, "1 vCPU / 1 GB", tariffs[0].Specs)
	assert.Equal(t, "4 vCPU / 8 GB", tariffs[1].Specs)

	empty, err := repo.ByLocation(context.Background(), "Reykjavik")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRepositoryByID(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	seeded := seedTariff(t, db, "Frankfurt", "2 vCPU / 4 GB", "600.00")

	tariff, err := repo.ByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, "Frankfurt", tariff.Location)
	assert.True(t, tariff.Price.Equal(decimal.RequireFromString("600.00")))

	_, err = repo.ByID(context.Background(), 424242)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestRepositorySeedIfEmpty(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	presets := []models.Tariff{
		{Location: "Amsterdam", Specs: "1 vCPU / 1 GB", Price: decimal.RequireFromString("250.00"), Currency: "RUB"},
		{Location: "Frankfurt", Specs: "2 vCPU / 4 GB", Price: decimal.RequireFromString("600.00"), Currency: "RUB"},
	}

	inserted, err := repo.SeedIfEmpty(context.Background(), presets)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	again, err := repo.SeedIfEmpty(context.Background(), presets)
	require.NoError(t, err)
	assert.Zero(t, again)

	all, err := repo.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
