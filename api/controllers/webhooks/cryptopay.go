package webhooks

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/okotelnikov/vpsshop-backend/api/responses"
	cryptopaywebhook "github.com/okotelnikov/vpsshop-backend/internal/webhooks/cryptopay"
	"github.com/okotelnikov/vpsshop-backend/pkg/db/models"
	pkgerrors "github.com/okotelnikov/vpsshop-backend/pkg/errors"
	"github.com/okotelnikov/vpsshop-backend/pkg/logger"
	"github.com/okotelnikov/vpsshop-backend/pkg/metrics"
)

const webhookSource = "cryptopay"

type CryptoPayWebhookService interface {
	HandleEvent(ctx context.Context, event *cryptopaywebhook.Event) (cryptopaywebhook.Outcome, *models.Order, error)
}

type CryptoPayGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

// CryptoPayWebhook receives payment processor notifications. Authentication
// comes first and is fail closed; after that every well-formed notification
// is answered 200 so the sender stops redelivering, whatever the ledger said.
func CryptoPayWebhook(
	svc CryptoPayWebhookService,
	policy cryptopaywebhook.SignaturePolicy,
	guard CryptoPayGuard,
	m *metrics.WebhookMetrics,
	logg *logger.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		start := time.Now()
		defer func() { m.ObserveDuration(webhookSource, time.Since(start)) }()

		if svc == nil || policy == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			m.IncOutcome(webhookSource, metrics.OutcomeInvalid)
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		if !policy.Verify(r.Header, body) {
			m.IncOutcome(webhookSource, metrics.OutcomeUnauthorized)
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "signature rejected"))
			return
		}

		event, err := cryptopaywebhook.ParseEvent(body)
		if err != nil {
			m.IncOutcome(webhookSource, metrics.OutcomeInvalid)
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if !event.IsPayment() {
			m.IncOutcome(webhookSource, metrics.OutcomeIgnored)
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if logg != nil {
			ctx = logg.WithInvoiceID(ctx, event.InvoiceID)
		}

		eventID := strconv.FormatInt(event.InvoiceID, 10)
		if guard != nil && event.InvoiceID != 0 {
			seen, err := guard.CheckAndMark(ctx, eventID)
			if err != nil && logg != nil {
				// The guard is an optimization; the ledger stays correct
				// without it, so a Redis hiccup does not fail the webhook.
				logg.Error(ctx, "webhook idempotency check", err)
			}
			if err == nil && seen {
				m.IncOutcome(webhookSource, string(cryptopaywebhook.OutcomeDuplicate))
				responses.WriteSuccess(w, map[string]string{"outcome": string(cryptopaywebhook.OutcomeDuplicate)})
				return
			}
		}

		outcome, order, err := svc.HandleEvent(ctx, event)
		if err != nil {
			if guard != nil {
				_ = guard.Delete(ctx, eventID)
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}
		m.IncOutcome(webhookSource, string(outcome))

		payload := map[string]any{"outcome": string(outcome)}
		if order != nil {
			payload["order_id"] = order.ID
		}
		responses.WriteSuccess(w, payload)
	}
}
