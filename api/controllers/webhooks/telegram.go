package webhooks

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okotelnikov/vpsshop-backend/api/responses"
	pkgerrors "github.com/okotelnikov/vpsshop-backend/pkg/errors"
	"github.com/okotelnikov/vpsshop-backend/pkg/logger"
	"github.com/okotelnikov/vpsshop-backend/pkg/telegram"
)

type ConversationService interface {
	Handle(ctx context.Context, update telegram.Update) error
}

// TelegramWebhook receives Bot API updates. A missing bot token or a failed
// handling attempt answers 500 so the platform redelivers the update.
func TelegramWebhook(svc ConversationService, botToken string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil || botToken == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bot not configured"))
			return
		}

		var update telegram.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode update"))
			return
		}

		if err := svc.Handle(ctx, update); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "handle update"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}
