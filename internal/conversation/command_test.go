package conversation

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/okotelnikov/vpsshop-backend/pkg/telegram"
)

func TestDecode_messageCommands(t *testing.T) {
	cases := []struct {
		text string
		kind CommandKind
	}{
		{"/start", CommandStart},
		{"/start@vpsshop_bot", CommandStart},
		{"/help", CommandHelp},
		{"/catalog", CommandCatalog},
		{"/buy", CommandCatalog},
		{"/orders", CommandMyOrders},
		{"/promo WELCOME10", CommandPromo},
		{"/promo", CommandPromo},
		{"/stats", CommandAdminStats},
		{"/paid", CommandAdminPaid},
		{"/all", CommandAdminAll},
		{"/support", CommandSupport},
		{"/clearpromo", CommandClearPromo},
		{"/admin", CommandAdminPanel},
		{"/deliver 42", CommandAdminDeliver},
		{"/markpaid 42", CommandAdminSetPaid},
		{"/addpromo SUMMER15 15", CommandAdminAddPromo},
		{"/addpromo SUMMER15 15 300", CommandAdminAddPromo},
		{"/addpromo SUMMER15", CommandUnknown},
		{"/addpromo SUMMER15 lots", CommandUnknown},
		{"/delpromo SUMMER15", CommandAdminDelPromo},
		{"/delpromo", CommandUnknown},
		{"/seed", CommandAdminSeed},
		{"/deliver", CommandUnknown},
		{"/deliver zero", CommandUnknown},
		{"random text", CommandUnknown},
		{"", CommandUnknown},
	}

	for _, tc := range cases {
		update := telegram.Update{Message: &telegram.Message{
			From: &telegram.User{ID: 1, Username: "user"},
			Chat: telegram.Chat{ID: 2},
			Text: tc.text,
		}}
		cmd, ok := Decode(update)
		if !ok {
			t.Fatalf("%q: expected a decodable update", tc.text)
		}
		if cmd.Kind != tc.kind {
			t.Fatalf("%q: expected %s, got %s", tc.text, tc.kind, cmd.Kind)
		}
	}
}

func TestDecode_commandArguments(t *testing.T) {
	promoCmd, _ := Decode(telegram.Update{Message: &telegram.Message{
		From: &telegram.User{ID: 1},
		Text: "/promo WELCOME10",
	}})
	if promoCmd.PromoCode != "WELCOME10" {
		t.Fatalf("expected promo code, got %q", promoCmd.PromoCode)
	}

	deliverCmd, _ := Decode(telegram.Update{Message: &telegram.Message{
		From: &telegram.User{ID: 1},
		Text: "/deliver 42",
	}})
	if deliverCmd.OrderID != 42 {
		t.Fatalf("expected order id 42, got %d", deliverCmd.OrderID)
	}

	addCmd, _ := Decode(telegram.Update{Message: &telegram.Message{
		From: &telegram.User{ID: 1},
		Text: "/addpromo summer15 15 300",
	}})
	if addCmd.PromoCode != "summer15" || addCmd.PromoPercent != 15 {
		t.Fatalf("unexpected addpromo arguments: %q %d", addCmd.PromoCode, addCmd.PromoPercent)
	}
	if !addCmd.PromoMin.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("expected minimum 300, got %s", addCmd.PromoMin)
	}
}

func TestDecode_callbackData(t *testing.T) {
	cases := []struct {
		data     string
		kind     CommandKind
		location string
		tariffID int64
	}{
		{"loc:Amsterdam", CommandLocation, "Amsterdam", 0},
		{"buy:7", CommandBuy, "", 7},
		{"buy:notanumber", CommandUnknown, "", 0},
		{"back:catalog", CommandBack, "", 0},
		{"garbage", CommandUnknown, "", 0},
	}

	for _, tc := range cases {
		update := telegram.Update{CallbackQuery: &telegram.CallbackQuery{
			ID:      "cb",
			From:    telegram.User{ID: 5, Username: "user"},
			Message: &telegram.Message{MessageID: 9, Chat: telegram.Chat{ID: 6}},
			Data:    tc.data,
		}}
		cmd, ok := Decode(update)
		if !ok {
			t.Fatalf("%q: expected a decodable update", tc.data)
		}
		if cmd.Kind != tc.kind {
			t.Fatalf("%q: expected %s, got %s", tc.data, tc.kind, cmd.Kind)
		}
		if cmd.Location != tc.location {
			t.Fatalf("%q: expected location %q, got %q", tc.data, tc.location, cmd.Location)
		}
		if cmd.TariffID != tc.tariffID {
			t.Fatalf("%q: expected tariff id %d, got %d", tc.data, tc.tariffID, cmd.TariffID)
		}
		if cmd.ChatID != 6 || cmd.MessageID != 9 || cmd.CallbackID != "cb" {
			t.Fatalf("%q: callback envelope fields not carried over", tc.data)
		}
	}
}

func TestDecode_emptyUpdate(t *testing.T) {
	if _, ok := Decode(telegram.Update{}); ok {
		t.Fatalf("expected empty update to be undecodable")
	}
}
