package catalog

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/okotelnikov/vpsshop-backend/internal/repo"
	"github.com/okotelnikov/vpsshop-backend/pkg/db/models"
	pkgerrors "github.com/okotelnikov/vpsshop-backend/pkg/errors"
)

// Repository is the read-mostly tariff catalog.
type Repository interface {
	Locations(ctx context.Context) ([]string, error)
	ByLocation(ctx context.Context, location string) ([]models.Tariff, error)
	ByID(ctx context.Context, id int64) (*models.Tariff, error)
	All(ctx context.Context) ([]models.Tariff, error)
	SeedIfEmpty(ctx context.Context, tariffs []models.Tariff) (int, error)
}

type repository struct {
	repo.Base
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) Locations(ctx context.Context) ([]string, error) {
	var locations []string
	err := r.DB(ctx).
		Model(&models.Tariff{}).
		Distinct("location").
		Order("location").
		Pluck("location", &locations).Error
	if err != nil {
		return nil, err
	}
	return locations, nil
}

func (r *repository) ByLocation(ctx context.Context, location string) ([]models.Tariff, error) {
	var tariffs []models.Tariff
	err := r.DB(ctx).
		Where("location = ?", location).
		Order("price ASC").
		Find(&tariffs).Error
	if err != nil {
		return nil, err
	}
	return tariffs, nil
}

func (r *repository) ByID(ctx context.Context, id int64) (*models.Tariff, error) {
	var tariff models.Tariff
	err := r.DB(ctx).Where("id = ?", id).First(&tariff).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tariff not found")
		}
		return nil, err
	}
	return &tariff, nil
}

func (r *repository) All(ctx context.Context) ([]models.Tariff, error) {
	var tariffs []models.Tariff
	err := r.DB(ctx).
		Order("location, price").
		Find(&tariffs).Error
	if err != nil {
		return nil, err
	}
	return tariffs, nil
}

// SeedIfEmpty inserts the preset tariffs only when the catalog is empty, so a
// repeat seeding run changes nothing.
func (r *repository) SeedIfEmpty(ctx context.Context, tariffs []models.Tariff) (int, error) {
	var count int64
	if err := r.DB(ctx).Model(&models.Tariff{}).Count(&count).Error; err != nil {
		return 0, err
	}
	if count > 0 || len(tariffs) == 0 {
		return 0, nil
	}
	if err := r.DB(ctx).Create(&tariffs).Error; err != nil {
		return 0, err
	}
	return len(tariffs), nil
}
