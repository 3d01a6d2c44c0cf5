package conversation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/okotelnikov/vpsshop-backend/internal/ledger"
	"github.com/okotelnikov/vpsshop-backend/pkg/db/models"
	"github.com/okotelnikov/vpsshop-backend/pkg/enums"
	"github.com/okotelnikov/vpsshop-backend/pkg/telegram"
)

const (
	greetingText = "Welcome to the VPS shop! Pick a location to see the available plans."
	helpText     = "Commands:\n/catalog - browse VPS plans\n/orders - your orders\n/promo CODE - redeem a promo code\n/clearpromo - drop your active promo code\n/support - contact support"
	catalogText  = "Choose a server location:"

	adminPanelText = "Admin commands:\n/stats - order counts\n/paid - paid orders awaiting delivery\n/all - all orders\n/deliver N - mark order N delivered\n/markpaid N - mark order N paid\n/addpromo CODE PERCENT [MIN] - register a promo code\n/delpromo CODE - unregister a promo code\n/seed - load the stock catalog into an empty one"
)

func supportText(contact string) string {
	if contact == "" {
		return "Support is unavailable right now."
	}
	return fmt.Sprintf("Questions? Reach us at %s.", contact)
}

func locationsKeyboard(locations []string) telegram.InlineKeyboardMarkup {
	rows := make([][]telegram.InlineKeyboardButton, 0, len(locations))
	for _, location := range locations {
		rows = append(rows, []telegram.InlineKeyboardButton{{
			Text:         location,
			CallbackData: callbackLocationPrefix + location,
		}})
	}
	return telegram.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func tariffsKeyboard(tariffs []models.Tariff, priceFor func(models.Tariff) decimal.Decimal) telegram.InlineKeyboardMarkup {
	rows := make([][]telegram.InlineKeyboardButton, 0, len(tariffs)+1)
	for _, tariff := range tariffs {
		label := fmt.Sprintf("%s - %s %s", tariff.Specs, priceFor(tariff).StringFixed(2), tariff.Currency)
		rows = append(rows, []telegram.InlineKeyboardButton{{
			Text:         label,
			CallbackData: fmt.Sprintf("%s%d", callbackBuyPrefix, tariff.ID),
		}})
	}
	rows = append(rows, []telegram.InlineKeyboardButton{{
		Text:         "Back",
		CallbackData: callbackBackCatalog,
	}})
	return telegram.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func tariffListText(location string) string {
	return fmt.Sprintf("Plans in %s:", location)
}

func invoiceText(order *models.Order, amountUSDT decimal.Decimal, asset string) string {
	return fmt.Sprintf(
		"Order #%d created. Pay %s %s via the button below. The order is confirmed automatically once the payment lands.",
		order.ID, amountUSDT.StringFixed(2), asset)
}

func payKeyboard(payURL string) telegram.InlineKeyboardMarkup {
	return telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		{{Text: "Pay invoice", URL: payURL}},
	}}
}

func ordersText(rows []ledger.AccountOrderRow) string {
	if len(rows) == 0 {
		return "You have no orders yet. Use /catalog to pick a plan."
	}
	var b strings.Builder
	b.WriteString("Your orders:\n")
	for _, row := range rows {
		fmt.Fprintf(&b, "#%d %s / %s - %s %s [%s]\n",
			row.OrderID, row.Location, row.Specs, row.Price.StringFixed(2), row.Currency, row.Status)
	}
	return strings.TrimRight(b.String(), "\n")
}

func orderListText(title string, orders []models.Order) string {
	if len(orders) == 0 {
		return title + " none"
	}
	var b strings.Builder
	b.WriteString(title + "\n")
	for _, order := range orders {
		invoiceID := int64(0)
		if order.InvoiceID != nil {
			invoiceID = *order.InvoiceID
		}
		fmt.Fprintf(&b, "#%d [%s] invoice %d\n", order.ID, order.Status, invoiceID)
	}
	return strings.TrimRight(b.String(), "\n")
}

func statsText(stats *ledger.Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Orders total: %d\n", stats.Total)
	for _, status := range []enums.OrderStatus{
		enums.OrderStatusCreated,
		enums.OrderStatusPaid,
		enums.OrderStatusDelivered,
		enums.OrderStatusCancelled,
	} {
		fmt.Fprintf(&b, "%s: %d\n", status, stats.ByStatus[status])
	}
	return strings.TrimRight(b.String(), "\n")
}
