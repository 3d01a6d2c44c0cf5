package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PromoCode is an account's currently active discount. At most one row per
// account; applying a new code replaces the previous one, and the row is
// removed once the discount is spent on an invoice.
type PromoCode struct {
	ID              int64           `gorm:"primaryKey;autoIncrement"`
	AccountID       int64           `gorm:"column:account_id;not null;uniqueIndex:idx_promo_codes_account_id"`
	Code            string          `gorm:"column:code;type:varchar(255);not null"`
	DiscountPercent int             `gorm:"column:discount_percent;not null"`
	MinAmount       decimal.Decimal `gorm:"column:min_amount;type:numeric(12,2);not null;default:0"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
}
