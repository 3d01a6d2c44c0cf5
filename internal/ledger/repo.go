package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/okotelnikov/vpsshop-backend/internal/repo"
	"github.com/okotelnikov/vpsshop-backend/pkg/db/models"
	"github.com/okotelnikov/vpsshop-backend/pkg/enums"
)

// AccountOrderRow is an order joined with its tariff for display. Tariff
// columns are zero-valued when the tariff row has been removed.
type AccountOrderRow struct {
	OrderID   int64             `gorm:"column:order_id"`
	Status    enums.OrderStatus `gorm:"column:status"`
	InvoiceID *int64            `gorm:"column:invoice_id"`
	CreatedAt time.Time         `gorm:"column:created_at"`
	Location  string            `gorm:"column:location"`
	Specs     string            `gorm:"column:specs"`
	Price     decimal.Decimal   `gorm:"column:price"`
	Currency  string            `gorm:"column:currency"`
}

// adminListLimit caps the admin order listings so a long history stays
// renderable as a single chat message.
const adminListLimit = 50

// Repository persists the order ledger.
type Repository interface {
	Insert(ctx context.Context, order *models.Order) error
	ByID(ctx context.Context, id int64) (*models.Order, error)
	ByInvoiceID(ctx context.Context, invoiceID int64) (*models.Order, error)
	UpdateStatus(ctx context.Context, id int64, status enums.OrderStatus) error
	ByAccount(ctx context.Context, accountID int64) ([]AccountOrderRow, error)
	ByStatus(ctx context.Context, status enums.OrderStatus) ([]models.Order, error)
	All(ctx context.Context) ([]models.Order, error)
	CountByStatus(ctx context.Context) (map[enums.OrderStatus]int64, error)
}

type repository struct {
	repo.Base
}

// NewRepository builds a ledger repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) Insert(ctx context.Context, order *models.Order) error {
	return r.DB(ctx).Create(order).Error
}

func (r *repository) ByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := r.DB(ctx).Where("id = ?", id).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *repository) ByInvoiceID(ctx context.Context, invoiceID int64) (*models.Order, error) {
	var order models.Order
	err := r.DB(ctx).Where("invoice_id = ?", invoiceID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status enums.OrderStatus) error {
	return r.DB(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *repository) ByAccount(ctx context.Context, accountID int64) ([]AccountOrderRow, error) {
	var rows []AccountOrderRow
	err := r.DB(ctx).
		Table("orders").
		Select(`orders.id AS order_id, orders.status, orders.invoice_id, orders.created_at,
			tariffs.location, tariffs.specs, tariffs.price, tariffs.currency`).
		Joins("LEFT JOIN tariffs ON tariffs.id = orders.tariff_id").
		Where("orders.account_id = ?", accountID).
		Order("orders.created_at DESC, orders.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ByStatus(ctx context.Context, status enums.OrderStatus) ([]models.Order, error) {
	var orders []models.Order
	err := r.DB(ctx).
		Where("status = ?", status).
		Order("created_at DESC, id DESC").
		Limit(adminListLimit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) All(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := r.DB(ctx).
		Order("created_at DESC, id DESC").
		Limit(adminListLimit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) CountByStatus(ctx context.Context) (map[enums.OrderStatus]int64, error) {
	type statusCount struct {
		Status enums.OrderStatus `gorm:"column:status"`
		Total  int64             `gorm:"column:total"`
	}

	var counts []statusCount
	err := r.DB(ctx).
		Model(&models.Order{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}

	out := make(map[enums.OrderStatus]int64, len(counts))
	for _, c := range counts {
		out[c.Status] = c.Total
	}
	return out, nil
}
