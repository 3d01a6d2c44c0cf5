package enums

import "fmt"

// OrderStatus tracks an order through the payment reconciliation lifecycle.
type OrderStatus string

const (
	OrderStatusCreated   OrderStatus = "created"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusCreated,
	OrderStatusPaid,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is known.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition can leave the status.
func (o OrderStatus) IsTerminal() bool {
	return o == OrderStatusDelivered || o == OrderStatusCancelled
}

// CanTransitionTo reports whether the status machine permits moving to next.
// Statuses advance created→paid→delivered; cancellation is reachable from any
// non-terminal status. Re-applying the current status is always permitted so
// that duplicate payment notifications stay harmless.
func (o OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if o == next {
		return true
	}
	switch next {
	case OrderStatusPaid:
		return o == OrderStatusCreated
	case OrderStatusDelivered:
		return o == OrderStatusPaid
	case OrderStatusCancelled:
		return !o.IsTerminal()
	default:
		return false
	}
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
