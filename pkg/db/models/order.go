package models

import (
	"time"

	"github.com/okotelnikov/vpsshop-backend/pkg/enums"
)

// Order ties an account to a purchased tariff and carries the payment state.
// Invariants enforced at the schema level: invoice_id is unique across all
// orders (the sole reconciliation key for payment notifications) and the
// account/tariff references survive deletion of the referenced rows.
type Order struct {
	ID        int64             `gorm:"primaryKey;autoIncrement"`
	AccountID *int64            `gorm:"column:account_id;index"`
	TariffID  *int64            `gorm:"column:tariff_id"`
	Status    enums.OrderStatus `gorm:"column:status;type:varchar(32);not null;default:'created'"`
	InvoiceID *int64            `gorm:"column:invoice_id;uniqueIndex:idx_orders_invoice_id"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}
