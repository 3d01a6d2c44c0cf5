package identity

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/okotelnikov/vpsshop-backend/internal/repo"
	"github.com/okotelnikov/vpsshop-backend/pkg/db/models"
)

// Repository resolves external Telegram identities to accounts.
type Repository interface {
	ByID(ctx context.Context, id int64) (*models.Account, error)
	FindByTelegramID(ctx context.Context, telegramID int64) (*models.Account, error)
	FindByUsername(ctx context.Context, username string) (*models.Account, error)
	InsertIgnoringConflict(ctx context.Context, account *models.Account) error
}

type repository struct {
	repo.Base
}

// NewRepository builds an identity repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) ByID(ctx context.Context, id int64) (*models.Account, error) {
	var account models.Account
	err := r.DB(ctx).Where("id = ?", id).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *repository) FindByTelegramID(ctx context.Context, telegramID int64) (*models.Account, error) {
	var account models.Account
	err := r.DB(ctx).Where("telegram_id = ?", telegramID).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *repository) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	var account models.Account
	err := r.DB(ctx).Where("username = ?", username).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// InsertIgnoringConflict writes the account, silently losing the race when a
// concurrent insert already claimed the telegram_id. Callers re-fetch after.
func (r *repository) InsertIgnoringConflict(ctx context.Context, account *models.Account) error {
	return r.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "telegram_id"}},
			DoNothing: true,
		}).
		Create(account).Error
}
