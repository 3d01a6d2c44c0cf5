package models

import (
	"github.com/shopspring/decimal"
)

// Tariff is an immutable catalog entry: a hosting plan offered in a location.
type Tariff struct {
	ID       int64           `gorm:"primaryKey;autoIncrement"`
	Location string          `gorm:"column:location;type:varchar(64);not null;index"`
	Specs    string          `gorm:"column:specs;type:varchar(255);not null"`
	Price    decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Currency string          `gorm:"column:currency;type:varchar(8);not null;default:'RUB'"`
}
