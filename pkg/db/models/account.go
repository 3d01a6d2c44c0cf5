package models

import (
	"time"

	"github.com/okotelnikov/vpsshop-backend/pkg/enums"
)

// Account represents the canonical identity entity. Each Telegram user maps to
// exactly one account; the unique index on telegram_id makes the upsert safe
// under concurrent first contact.
type Account struct {
	ID         int64             `gorm:"primaryKey;autoIncrement"`
	Username   *string           `gorm:"column:username;type:varchar(255)"`
	TelegramID int64             `gorm:"column:telegram_id;not null;uniqueIndex:idx_accounts_telegram_id"`
	Role       enums.AccountRole `gorm:"column:role;type:varchar(32);not null;default:'user'"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
}
