package cryptopaywebhook

import "testing"

func TestParseEvent_shapes(t *testing.T) {
	cases := []struct {
		name      string
		body      string
		eventType string
		invoiceID int64
	}{
		{
			name:      "flat update_type and invoice_id",
			body:      `{"update_type":"invoice_paid","invoice_id":555}`,
			eventType: "invoice_paid",
			invoiceID: 555,
		},
		{
			name:      "type key",
			body:      `{"type":"invoice_paid","invoice_id":556}`,
			eventType: "invoice_paid",
			invoiceID: 556,
		},
		{
			name:      "event key",
			body:      `{"event":"invoice_paid","invoice_id":557}`,
			eventType: "invoice_paid",
			invoiceID: 557,
		},
		{
			name:      "update_type wins over type",
			body:      `{"update_type":"invoice_paid","type":"other","invoice_id":558}`,
			eventType: "invoice_paid",
			invoiceID: 558,
		},
		{
			name:      "nested snake case payload",
			body:      `{"update_type":"invoice_paid","payload":{"invoice_id":559}}`,
			eventType: "invoice_paid",
			invoiceID: 559,
		},
		{
			name:      "nested camel case payload",
			body:      `{"update_type":"invoice_paid","payload":{"invoiceId":560}}`,
			eventType: "invoice_paid",
			invoiceID: 560,
		},
		{
			name:      "string invoice id",
			body:      `{"update_type":"invoice_paid","invoice_id":"561"}`,
			eventType: "invoice_paid",
			invoiceID: 561,
		},
		{
			name:      "top level id wins over payload",
			body:      `{"update_type":"invoice_paid","invoice_id":562,"payload":{"invoice_id":999}}`,
			eventType: "invoice_paid",
			invoiceID: 562,
		},
		{
			name:      "unknown class with no id",
			body:      `{"update_type":"invoice_expired"}`,
			eventType: "invoice_expired",
			invoiceID: 0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			event, err := ParseEvent([]byte(tc.body))
			if err != nil {
				t.Fatalf("parse event: %v", err)
			}
			if event.Type != tc.eventType {
				t.Fatalf("expected type %q, got %q", tc.eventType, event.Type)
			}
			if event.InvoiceID != tc.invoiceID {
				t.Fatalf("expected invoice id %d, got %d", tc.invoiceID, event.InvoiceID)
			}
		})
	}
}

func TestParseEvent_rejectsUnparsableBody(t *testing.T) {
	if _, err := ParseEvent([]byte(`not json`)); err == nil {
		t.Fatalf("expected unparsable body to error")
	}
}

func TestEventIsPayment(t *testing.T) {
	paid := &Event{Type: "invoice_paid"}
	if !paid.IsPayment() {
		t.Fatalf("invoice_paid must be a payment event")
	}
	other := &Event{Type: "invoice_expired"}
	if other.IsPayment() {
		t.Fatalf("invoice_expired must not be a payment event")
	}
}
