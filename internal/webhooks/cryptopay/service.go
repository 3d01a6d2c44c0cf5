package cryptopaywebhook

import (
	"context"

	"github.com/okotelnikov/vpsshop-backend/pkg/db/models"
	"github.com/okotelnikov/vpsshop-backend/pkg/enums"
	pkgerrors "github.com/okotelnikov/vpsshop-backend/pkg/errors"
)

// Outcome classifies how a notification was reconciled against the ledger.
type Outcome string

const (
	// OutcomeProcessed means the order moved to paid.
	OutcomeProcessed Outcome = "processed"
	// OutcomeDuplicate means the order had already been settled.
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeOrphan means no order claims the invoice.
	OutcomeOrphan Outcome = "orphan"
	// OutcomeIgnored means the event class is not a payment.
	OutcomeIgnored Outcome = "ignored"
)

type orderLedger interface {
	ByInvoiceID(ctx context.Context, invoiceID int64) (*models.Order, error)
	SetStatus(ctx context.Context, orderID int64, next enums.OrderStatus) (*models.Order, bool, error)
}

// ServiceParams groups dependencies for the webhook service.
type ServiceParams struct {
	Ledger   orderLedger
	Notifier Notifier
}

// Service reconciles payment notifications against the order ledger.
type Service struct {
	ledger   orderLedger
	notifier Notifier
}

// NewService builds a webhook service. The notifier is optional.
func NewService(params ServiceParams) (*Service, error) {
	if params.Ledger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "ledger required")
	}
	return &Service{ledger: params.Ledger, notifier: params.Notifier}, nil
}

// HandleEvent settles the invoice named by the event. Non-payment events are
// ignored; a payment without an invoice id or with an unknown one is an
// orphan. All three count as handled so the sender stops redelivering. The
// paid transition itself is idempotent, which makes redelivered payment
// events duplicates rather than errors.
func (s *Service) HandleEvent(ctx context.Context, event *Event) (Outcome, *models.Order, error) {
	if event == nil {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "event required")
	}
	if !event.IsPayment() {
		return OutcomeIgnored, nil, nil
	}
	if event.InvoiceID == 0 {
		return OutcomeOrphan, nil, nil
	}

	order, err := s.ledger.ByInvoiceID(ctx, event.InvoiceID)
	if err != nil {
		return "", nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "look up invoice")
	}
	if order == nil {
		return OutcomeOrphan, nil, nil
	}

	order, changed, err := s.ledger.SetStatus(ctx, order.ID, enums.OrderStatusPaid)
	if err != nil {
		return "", nil, err
	}
	if !changed {
		return OutcomeDuplicate, order, nil
	}

	if s.notifier != nil {
		s.notifier.PaymentReceived(ctx, order)
	}
	return OutcomeProcessed, order, nil
}
