package ledger

import (
	"context"
	"errors"

	"github.com/okotelnikov/vpsshop-backend/pkg/db"
	"github.com/okotelnikov/vpsshop-backend/pkg/db/models"
	"github.com/okotelnikov/vpsshop-backend/pkg/enums"
	pkgerrors "github.com/okotelnikov/vpsshop-backend/pkg/errors"
)

// Stats summarizes the ledger for the admin panel.
type Stats struct {
	Total    int64
	ByStatus map[enums.OrderStatus]int64
}

// ServiceParams groups dependencies for the ledger service.
type ServiceParams struct {
	Repo Repository
}

// Service owns the order ledger and its status machine. Every status change
// funnels through SetStatus so the transition rules apply uniformly no matter
// who asks (payment notifications, admins, the conversation flow).
type Service struct {
	repo Repository
}

// NewService builds a ledger service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	return &Service{repo: params.Repo}, nil
}

// Create opens a ledger entry in the created status. The invoice id is the
// reconciliation key for the payment processor; reusing one that already
// belongs to another order is a conflict, surfaced from the unique index
// rather than a read-before-write check.
func (s *Service) Create(ctx context.Context, accountID, tariffID, invoiceID int64) (*models.Order, error) {
	order := &models.Order{
		AccountID: &accountID,
		TariffID:  &tariffID,
		Status:    enums.OrderStatusCreated,
		InvoiceID: &invoiceID,
	}
	if err := s.repo.Insert(ctx, order); err != nil {
		if db.IsUniqueViolation(err, "idx_orders_invoice_id") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "invoice already attached to an order")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create order")
	}
	return order, nil
}

// SetStatus applies a status transition. Re-applying the current status is a
// no-op and a disallowed transition fails closed: both return the unchanged
// record with changed=false and no error. Only an unknown order id errors.
func (s *Service) SetStatus(ctx context.Context, orderID int64, next enums.OrderStatus) (*models.Order, bool, error) {
	if !next.IsValid() {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	order, err := s.repo.ByID(ctx, orderID)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load order")
	}
	if order == nil {
		return nil, false, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	if order.Status == next || !order.Status.CanTransitionTo(next) {
		return order, false, nil
	}

	if err := s.repo.UpdateStatus(ctx, order.ID, next); err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update order status")
	}

	order.Status = next
	return order, true, nil
}

// ByInvoiceID returns the order holding the invoice, or nil when no order
// claims it.
func (s *Service) ByInvoiceID(ctx context.Context, invoiceID int64) (*models.Order, error) {
	return s.repo.ByInvoiceID(ctx, invoiceID)
}

// ByAccount lists the account's orders newest first, joined with tariffs.
func (s *Service) ByAccount(ctx context.Context, accountID int64) ([]AccountOrderRow, error) {
	return s.repo.ByAccount(ctx, accountID)
}

// PaidOrders lists orders awaiting delivery.
func (s *Service) PaidOrders(ctx context.Context) ([]models.Order, error) {
	return s.repo.ByStatus(ctx, enums.OrderStatusPaid)
}

// AllOrders lists the full ledger newest first.
func (s *Service) AllOrders(ctx context.Context) ([]models.Order, error) {
	return s.repo.All(ctx)
}

// Stats aggregates order counts per status.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	byStatus, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to aggregate orders")
	}
	stats := &Stats{ByStatus: byStatus}
	for _, n := range byStatus {
		stats.Total += n
	}
	return stats, nil
}
