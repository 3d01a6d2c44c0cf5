package promo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/okotelnikov/vpsshop-backend/internal/repo"
	"github.com/okotelnikov/vpsshop-backend/pkg/db/models"
)

// Repository persists the per-account active promo code.
type Repository interface {
	Upsert(ctx context.Context, promo *models.PromoCode) error
	ByAccount(ctx context.Context, accountID int64) (*models.PromoCode, error)
	DeleteByAccount(ctx context.Context, accountID int64) error
}

type repository struct {
	repo.Base
}

// NewRepository builds a promo repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

// Upsert replaces the account's active code in one statement. The unique
// index on account_id makes the replace atomic.
func (r *repository) Upsert(ctx context.Context, promo *models.PromoCode) error {
	return r.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"code", "discount_percent", "min_amount"}),
		}).
		Create(promo).Error
}

func (r *repository) ByAccount(ctx context.Context, accountID int64) (*models.PromoCode, error) {
	var promo models.PromoCode
	err := r.DB(ctx).Where("account_id = ?", accountID).First(&promo).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &promo, nil
}

func (r *repository) DeleteByAccount(ctx context.Context, accountID int64) error {
	return r.DB(ctx).
		Where("account_id = ?", accountID).
		Delete(&models.PromoCode{}).Error
}
