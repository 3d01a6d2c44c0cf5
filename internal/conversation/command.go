package conversation

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/okotelnikov/vpsshop-backend/pkg/telegram"
)

// CommandKind discriminates the Command variant.
type CommandKind string

const (
	CommandStart         CommandKind = "start"
	CommandHelp          CommandKind = "help"
	CommandCatalog       CommandKind = "catalog"
	CommandLocation      CommandKind = "location"
	CommandBuy           CommandKind = "buy"
	CommandBack          CommandKind = "back"
	CommandMyOrders      CommandKind = "my_orders"
	CommandSupport       CommandKind = "support"
	CommandPromo         CommandKind = "promo"
	CommandClearPromo    CommandKind = "clear_promo"
	CommandAdminPanel    CommandKind = "admin_panel"
	CommandAdminStats    CommandKind = "admin_stats"
	CommandAdminPaid     CommandKind = "admin_paid"
	CommandAdminAll      CommandKind = "admin_all"
	CommandAdminDeliver  CommandKind = "admin_deliver"
	CommandAdminSetPaid  CommandKind = "admin_set_paid"
	CommandAdminAddPromo CommandKind = "admin_add_promo"
	CommandAdminDelPromo CommandKind = "admin_del_promo"
	CommandAdminSeed     CommandKind = "admin_seed"
	CommandUnknown       CommandKind = "unknown"
)

// callback data wire prefixes
const (
	callbackLocationPrefix = "loc:"
	callbackBuyPrefix      = "buy:"
	callbackBackCatalog    = "back:catalog"
)

// Command is one decoded user interaction. Only the fields implied by Kind
// carry meaning.
type Command struct {
	Kind CommandKind

	Location     string
	TariffID     int64
	PromoCode    string
	PromoPercent int
	PromoMin     decimal.Decimal
	OrderID      int64

	ChatID     int64
	TelegramID int64
	Username   string
	MessageID  int64
	CallbackID string
}

// IsAdmin reports whether the command requires the admin allow-list.
func (c Command) IsAdmin() bool {
	switch c.Kind {
	case CommandAdminPanel, CommandAdminStats, CommandAdminPaid, CommandAdminAll,
		CommandAdminDeliver, CommandAdminSetPaid, CommandAdminAddPromo,
		CommandAdminDelPromo, CommandAdminSeed:
		return true
	default:
		return false
	}
}

// Decode maps an inbound update onto a Command. The second return is false
// when the update carries nothing we handle (no message and no callback).
func Decode(update telegram.Update) (Command, bool) {
	if update.CallbackQuery != nil {
		return decodeCallback(*update.CallbackQuery), true
	}
	if update.Message != nil && update.Message.From != nil {
		return decodeMessage(*update.Message), true
	}
	return Command{}, false
}

func decodeCallback(query telegram.CallbackQuery) Command {
	cmd := Command{
		Kind:       CommandUnknown,
		TelegramID: query.From.ID,
		Username:   query.From.Username,
		CallbackID: query.ID,
	}
	if query.Message != nil {
		cmd.ChatID = query.Message.Chat.ID
		cmd.MessageID = query.Message.MessageID
	}

	data := query.Data
	switch {
	case strings.HasPrefix(data, callbackLocationPrefix):
		cmd.Kind = CommandLocation
		cmd.Location = strings.TrimPrefix(data, callbackLocationPrefix)
	case strings.HasPrefix(data, callbackBuyPrefix):
		id, err := strconv.ParseInt(strings.TrimPrefix(data, callbackBuyPrefix), 10, 64)
		if err == nil && id > 0 {
			cmd.Kind = CommandBuy
			cmd.TariffID = id
		}
	case data == callbackBackCatalog:
		cmd.Kind = CommandBack
	}
	return cmd
}

func decodeMessage(message telegram.Message) Command {
	cmd := Command{
		Kind:       CommandUnknown,
		ChatID:     message.Chat.ID,
		TelegramID: message.From.ID,
		Username:   message.From.Username,
		MessageID:  message.MessageID,
	}

	fields := strings.Fields(strings.TrimSpace(message.Text))
	if len(fields) == 0 {
		return cmd
	}

	// "/command@BotName" is still "/command"
	verb, _, _ := strings.Cut(fields[0], "@")
	switch verb {
	case "/start":
		cmd.Kind = CommandStart
	case "/help":
		cmd.Kind = CommandHelp
	case "/catalog", "/buy":
		cmd.Kind = CommandCatalog
	case "/orders":
		cmd.Kind = CommandMyOrders
	case "/support":
		cmd.Kind = CommandSupport
	case "/promo":
		cmd.Kind = CommandPromo
		if len(fields) > 1 {
			cmd.PromoCode = fields[1]
		}
	case "/clearpromo":
		cmd.Kind = CommandClearPromo
	case "/admin":
		cmd.Kind = CommandAdminPanel
	case "/stats":
		cmd.Kind = CommandAdminStats
	case "/paid":
		cmd.Kind = CommandAdminPaid
	case "/all":
		cmd.Kind = CommandAdminAll
	case "/deliver":
		if len(fields) > 1 {
			if id, err := strconv.ParseInt(fields[1], 10, 64); err == nil && id > 0 {
				cmd.Kind = CommandAdminDeliver
				cmd.OrderID = id
			}
		}
	case "/markpaid":
		if len(fields) > 1 {
			if id, err := strconv.ParseInt(fields[1], 10, 64); err == nil && id > 0 {
				cmd.Kind = CommandAdminSetPaid
				cmd.OrderID = id
			}
		}
	case "/addpromo":
		// /addpromo CODE PERCENT [MIN]
		if len(fields) > 2 {
			pct, err := strconv.Atoi(fields[2])
			if err != nil {
				break
			}
			min := decimal.Zero
			if len(fields) > 3 {
				min, err = decimal.NewFromString(fields[3])
				if err != nil {
					break
				}
			}
			cmd.Kind = CommandAdminAddPromo
			cmd.PromoCode = fields[1]
			cmd.PromoPercent = pct
			cmd.PromoMin = min
		}
	case "/delpromo":
		if len(fields) > 1 {
			cmd.Kind = CommandAdminDelPromo
			cmd.PromoCode = fields[1]
		}
	case "/seed":
		cmd.Kind = CommandAdminSeed
	}
	return cmd
}
