package cryptopaywebhook

import (
	"encoding/json"
	"strconv"
	"strings"

	pkgerrors "github.com/okotelnikov/vpsshop-backend/pkg/errors"
)

// paidEventType marks the one event class that settles an invoice.
const paidEventType = "invoice_paid"

// Event is a payment processor notification reduced to the fields the ledger
// needs. Senders have shipped several envelope shapes over time, so the
// parser probes a fixed list of locations instead of binding to one schema.
type Event struct {
	Type      string
	InvoiceID int64
}

// IsPayment reports whether the event settles an invoice.
func (e *Event) IsPayment() bool {
	return e.Type == paidEventType
}

// ParseEvent decodes a notification body. The event type is taken from the
// first of update_type, type, event; the invoice id from the first of
// invoice_id, payload.invoice_id, payload.invoiceId. Numbers and numeric
// strings are both accepted for the id.
func ParseEvent(body []byte) (*Event, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unparsable notification body")
	}

	event := &Event{Type: firstString(envelope, "update_type", "type", "event")}

	if id, ok := firstInvoiceID(envelope, "invoice_id"); ok {
		event.InvoiceID = id
		return event, nil
	}

	var payload map[string]json.RawMessage
	if raw, ok := envelope["payload"]; ok {
		if err := json.Unmarshal(raw, &payload); err == nil {
			if id, ok := firstInvoiceID(payload, "invoice_id", "invoiceId"); ok {
				event.InvoiceID = id
			}
		}
	}
	return event, nil
}

func firstString(fields map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var value string
		if err := json.Unmarshal(raw, &value); err == nil && value != "" {
			return value
		}
	}
	return ""
}

func firstInvoiceID(fields map[string]json.RawMessage, keys ...string) (int64, bool) {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		if id, ok := decodeInvoiceID(raw); ok {
			return id, true
		}
	}
	return 0, false
}

func decodeInvoiceID(raw json.RawMessage) (int64, bool) {
	var number json.Number
	if err := json.Unmarshal(raw, &number); err == nil {
		if id, err := number.Int64(); err == nil && id > 0 {
			return id, true
		}
		return 0, false
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
