package cryptopaywebhook

import (
	"context"
	"fmt"

	"github.com/okotelnikov/vpsshop-backend/pkg/db/models"
	"github.com/okotelnikov/vpsshop-backend/pkg/logger"
	"github.com/okotelnikov/vpsshop-backend/pkg/telegram"
)

type accountSource interface {
	ByID(ctx context.Context, id int64) (*models.Account, error)
}

// Notifier announces a settled payment. Delivery is best effort: a failed
// message never fails the webhook.
type Notifier interface {
	PaymentReceived(ctx context.Context, order *models.Order)
}

// TelegramNotifier messages the buyer and the admin chats when an order is
// paid.
type TelegramNotifier struct {
	sender       telegram.Sender
	accounts     accountSource
	adminChatIDs []int64
	logg         *logger.Logger
}

// NewTelegramNotifier builds the notifier. A nil sender disables delivery.
func NewTelegramNotifier(sender telegram.Sender, accounts accountSource, adminChatIDs []int64, logg *logger.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		sender:       sender,
		accounts:     accounts,
		adminChatIDs: adminChatIDs,
		logg:         logg,
	}
}

func (n *TelegramNotifier) PaymentReceived(ctx context.Context, order *models.Order) {
	if n == nil || n.sender == nil || order == nil {
		return
	}

	invoiceID := int64(0)
	if order.InvoiceID != nil {
		invoiceID = *order.InvoiceID
	}

	if order.AccountID != nil && n.accounts != nil {
		account, err := n.accounts.ByID(ctx, *order.AccountID)
		if err != nil {
			n.warn(ctx, "load buyer for payment notice", err)
		} else if account != nil {
			n.send(ctx, account.TelegramID, fmt.Sprintf(
				"Payment received! Order #%d is paid. We will deliver your server credentials shortly.", order.ID))
		}
	}

	adminText := fmt.Sprintf("Order #%d paid (invoice %d).", order.ID, invoiceID)
	for _, chatID := range n.adminChatIDs {
		n.send(ctx, chatID, adminText)
	}
}

func (n *TelegramNotifier) send(ctx context.Context, chatID int64, text string) {
	err := n.sender.SendMessage(ctx, telegram.SendMessageRequest{ChatID: chatID, Text: text})
	if err != nil {
		n.warn(ctx, fmt.Sprintf("send payment notice to chat %d", chatID), err)
	}
}

func (n *TelegramNotifier) warn(ctx context.Context, msg string, err error) {
	if n.logg != nil {
		n.logg.Error(ctx, msg, err)
	}
}
