package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/okotelnikov/vpsshop-backend/internal/catalog"
	"github.com/okotelnikov/vpsshop-backend/internal/identity"
	"github.com/okotelnikov/vpsshop-backend/internal/ledger"
	"github.com/okotelnikov/vpsshop-backend/internal/promo"
	"github.com/okotelnikov/vpsshop-backend/pkg/config"
	"github.com/okotelnikov/vpsshop-backend/pkg/cryptopay"
	"github.com/okotelnikov/vpsshop-backend/pkg/db/models"
	"github.com/okotelnikov/vpsshop-backend/pkg/enums"
	pkgerrors "github.com/okotelnikov/vpsshop-backend/pkg/errors"
	"github.com/okotelnikov/vpsshop-backend/pkg/logger"
	"github.com/okotelnikov/vpsshop-backend/pkg/telegram"
)

type invoiceCreator interface {
	CreateInvoice(ctx context.Context, asset string, amount decimal.Decimal, description string, payload any) (*cryptopay.Invoice, error)
	RubToUSDT(ctx context.Context, amountRUB decimal.Decimal) (decimal.Decimal, error)
}

type orderLedger interface {
	Create(ctx context.Context, accountID, tariffID, invoiceID int64) (*models.Order, error)
	SetStatus(ctx context.Context, orderID int64, next enums.OrderStatus) (*models.Order, bool, error)
	ByAccount(ctx context.Context, accountID int64) ([]ledger.AccountOrderRow, error)
	PaidOrders(ctx context.Context) ([]models.Order, error)
	AllOrders(ctx context.Context) ([]models.Order, error)
	Stats(ctx context.Context) (*ledger.Stats, error)
}

type promoService interface {
	Redeem(ctx context.Context, accountID int64, code string) (*models.PromoCode, error)
	ActiveFor(ctx context.Context, accountID int64) (*models.PromoCode, error)
	Consume(ctx context.Context, accountID int64) error
	Clear(ctx context.Context, accountID int64) error
	AddDefinition(def promo.Definition) error
	RemoveDefinition(code string) bool
}

// ServiceParams groups dependencies for the conversation service.
type ServiceParams struct {
	Catalog  catalog.Repository
	Identity identity.Service
	Ledger   orderLedger
	Promo    promoService
	Invoices invoiceCreator
	Sender   telegram.Sender
	States   Store
	Admin    config.AdminConfig
	Pricing  config.PricingConfig
	Asset    string
	Logg     *logger.Logger
}

// Service routes inbound chat updates: it decodes them into commands, applies
// the pure state transition, and performs the side effects the command asks
// for. Purchases create the processor invoice before the ledger entry, so an
// order without an invoice id can never exist.
type Service struct {
	catalog  catalog.Repository
	identity identity.Service
	ledger   orderLedger
	promo    promoService
	invoices invoiceCreator
	sender   telegram.Sender
	states   Store
	admin    config.AdminConfig
	pricing  config.PricingConfig
	asset    string
	logg     *logger.Logger
}

// NewService builds the conversation service. Promo support is optional.
func NewService(params ServiceParams) (*Service, error) {
	if params.Catalog == nil {
		return nil, errors.New("catalog is required")
	}
	if params.Identity == nil {
		return nil, errors.New("identity is required")
	}
	if params.Ledger == nil {
		return nil, errors.New("ledger is required")
	}
	if params.Invoices == nil {
		return nil, errors.New("invoice creator is required")
	}
	if params.Sender == nil {
		return nil, errors.New("sender is required")
	}
	if params.States == nil {
		return nil, errors.New("state store is required")
	}
	asset := params.Asset
	if asset == "" {
		asset = "USDT"
	}
	return &Service{
		catalog:  params.Catalog,
		identity: params.Identity,
		ledger:   params.Ledger,
		promo:    params.Promo,
		invoices: params.Invoices,
		sender:   params.Sender,
		states:   params.States,
		admin:    params.Admin,
		pricing:  params.Pricing,
		asset:    asset,
		logg:     params.Logg,
	}, nil
}

// Handle processes one inbound update end to end.
func (s *Service) Handle(ctx context.Context, update telegram.Update) error {
	cmd, ok := Decode(update)
	if !ok {
		return nil
	}
	if s.logg != nil {
		ctx = s.logg.WithChatID(ctx, cmd.ChatID)
	}

	if cmd.CallbackID != "" {
		ack := telegram.AnswerCallbackQueryRequest{CallbackQueryID: cmd.CallbackID}
		if err := s.sender.AnswerCallbackQuery(ctx, ack); err != nil && s.logg != nil {
			s.logg.Error(ctx, "answer callback query", err)
		}
	}

	if cmd.IsAdmin() {
		return s.handleAdmin(ctx, cmd)
	}

	switch cmd.Kind {
	case CommandStart:
		return s.handleStart(ctx, cmd)
	case CommandHelp:
		return s.reply(ctx, cmd, helpText)
	case CommandCatalog, CommandBack:
		return s.handleCatalog(ctx, cmd)
	case CommandLocation:
		return s.handleLocation(ctx, cmd)
	case CommandBuy:
		return s.handleBuy(ctx, cmd)
	case CommandMyOrders:
		return s.handleMyOrders(ctx, cmd)
	case CommandSupport:
		return s.reply(ctx, cmd, supportText(s.pricing.SupportContact))
	case CommandPromo:
		return s.handlePromo(ctx, cmd)
	case CommandClearPromo:
		return s.handleClearPromo(ctx, cmd)
	default:
		return s.reply(ctx, cmd, "I did not get that. Try /help.")
	}
}

func (s *Service) handleStart(ctx context.Context, cmd Command) error {
	if _, err := s.identity.Upsert(ctx, cmd.Username, cmd.TelegramID); err != nil {
		return fmt.Errorf("resolve account: %w", err)
	}
	locations, err := s.catalog.Locations(ctx)
	if err != nil {
		return fmt.Errorf("list locations: %w", err)
	}
	err = s.sender.SendMessage(ctx, telegram.SendMessageRequest{
		ChatID:      cmd.ChatID,
		Text:        greetingText,
		ReplyMarkup: locationsKeyboard(locations),
	})
	if err != nil {
		return err
	}
	return s.saveState(ctx, cmd)
}

func (s *Service) handleCatalog(ctx context.Context, cmd Command) error {
	locations, err := s.catalog.Locations(ctx)
	if err != nil {
		return fmt.Errorf("list locations: %w", err)
	}

	// Back navigation edits the message in place; a fresh /catalog sends one.
	if cmd.Kind == CommandBack && cmd.MessageID != 0 {
		err = s.sender.EditMessageText(ctx, telegram.EditMessageTextRequest{
			ChatID:      cmd.ChatID,
			MessageID:   cmd.MessageID,
			Text:        catalogText,
			ReplyMarkup: locationsKeyboard(locations),
		})
	} else {
		err = s.sender.SendMessage(ctx, telegram.SendMessageRequest{
			ChatID:      cmd.ChatID,
			Text:        catalogText,
			ReplyMarkup: locationsKeyboard(locations),
		})
	}
	if err != nil {
		return err
	}
	return s.saveState(ctx, cmd)
}

func (s *Service) handleLocation(ctx context.Context, cmd Command) error {
	tariffs, err := s.catalog.ByLocation(ctx, cmd.Location)
	if err != nil {
		return fmt.Errorf("list tariffs: %w", err)
	}
	if len(tariffs) == 0 {
		return s.reply(ctx, cmd, fmt.Sprintf("No plans available in %s right now.", cmd.Location))
	}

	markup := tariffsKeyboard(tariffs, func(t models.Tariff) decimal.Decimal {
		return s.markedUp(t.Price)
	})
	if cmd.MessageID != 0 {
		err = s.sender.EditMessageText(ctx, telegram.EditMessageTextRequest{
			ChatID:      cmd.ChatID,
			MessageID:   cmd.MessageID,
			Text:        tariffListText(cmd.Location),
			ReplyMarkup: markup,
		})
	} else {
		err = s.sender.SendMessage(ctx, telegram.SendMessageRequest{
			ChatID:      cmd.ChatID,
			Text:        tariffListText(cmd.Location),
			ReplyMarkup: markup,
		})
	}
	if err != nil {
		return err
	}
	return s.saveState(ctx, cmd)
}

func (s *Service) handleBuy(ctx context.Context, cmd Command) error {
	account, err := s.identity.Upsert(ctx, cmd.Username, cmd.TelegramID)
	if err != nil {
		return fmt.Errorf("resolve account: %w", err)
	}
	ctx = s.withAccount(ctx, account.ID)

	tariff, err := s.catalog.ByID(ctx, cmd.TariffID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return s.reply(ctx, cmd, "That plan is no longer available. Try /catalog.")
		}
		return fmt.Errorf("load tariff: %w", err)
	}

	priceRUB := s.markedUp(tariff.Price)
	var activePromo *models.PromoCode
	if s.promo != nil {
		activePromo, err = s.promo.ActiveFor(ctx, account.ID)
		if err != nil {
			return fmt.Errorf("load promo: %w", err)
		}
	}
	discounted := promo.Apply(priceRUB, activePromo)

	amountUSDT, err := s.invoices.RubToUSDT(ctx, discounted)
	if err != nil {
		return fmt.Errorf("convert price: %w", err)
	}

	description := fmt.Sprintf("VPS %s / %s", tariff.Location, tariff.Specs)
	invoice, err := s.invoices.CreateInvoice(ctx, s.asset, amountUSDT, description, map[string]any{
		"tariff_id": tariff.ID,
		"chat_id":   cmd.ChatID,
	})
	if err != nil {
		return fmt.Errorf("create invoice: %w", err)
	}

	order, err := s.ledger.Create(ctx, account.ID, tariff.ID, invoice.InvoiceID)
	if err != nil {
		return fmt.Errorf("open order: %w", err)
	}

	if activePromo != nil && discounted.LessThan(priceRUB) {
		if err := s.promo.Consume(ctx, account.ID); err != nil && s.logg != nil {
			s.logg.Error(ctx, "consume promo code", err)
		}
	}

	err = s.sender.SendMessage(ctx, telegram.SendMessageRequest{
		ChatID:      cmd.ChatID,
		Text:        invoiceText(order, amountUSDT, s.asset),
		ReplyMarkup: payKeyboard(invoice.PayURL),
	})
	if err != nil {
		return err
	}

	state := Transition(State{}, cmd)
	state.PayURL = invoice.PayURL
	if err := s.states.Save(ctx, cmd.ChatID, state); err != nil && s.logg != nil {
		s.logg.Error(ctx, "save conversation state", err)
	}
	return nil
}

func (s *Service) handleMyOrders(ctx context.Context, cmd Command) error {
	account, err := s.identity.Upsert(ctx, cmd.Username, cmd.TelegramID)
	if err != nil {
		return fmt.Errorf("resolve account: %w", err)
	}
	rows, err := s.ledger.ByAccount(ctx, account.ID)
	if err != nil {
		return fmt.Errorf("list orders: %w", err)
	}
	return s.reply(ctx, cmd, ordersText(rows))
}

func (s *Service) handlePromo(ctx context.Context, cmd Command) error {
	if s.promo == nil {
		return s.reply(ctx, cmd, "Promo codes are not available right now.")
	}
	if cmd.PromoCode == "" {
		return s.reply(ctx, cmd, "Send the code as /promo CODE.")
	}

	account, err := s.identity.Upsert(ctx, cmd.Username, cmd.TelegramID)
	if err != nil {
		return fmt.Errorf("resolve account: %w", err)
	}

	applied, err := s.promo.Redeem(ctx, account.ID, cmd.PromoCode)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return s.reply(ctx, cmd, "Unknown promo code.")
		}
		return fmt.Errorf("redeem promo: %w", err)
	}
	return s.reply(ctx, cmd, fmt.Sprintf(
		"Code %s applied: %d%% off your next order.", applied.Code, applied.DiscountPercent))
}

func (s *Service) handleClearPromo(ctx context.Context, cmd Command) error {
	if s.promo == nil {
		return s.reply(ctx, cmd, "Promo codes are not available right now.")
	}
	account, err := s.identity.Upsert(ctx, cmd.Username, cmd.TelegramID)
	if err != nil {
		return fmt.Errorf("resolve account: %w", err)
	}
	if err := s.promo.Clear(ctx, account.ID); err != nil {
		return fmt.Errorf("clear promo: %w", err)
	}
	return s.reply(ctx, cmd, "Promo code cleared.")
}

func (s *Service) handleAdmin(ctx context.Context, cmd Command) error {
	if !s.admin.Allows(cmd.TelegramID) {
		return s.reply(ctx, cmd, "This command is for administrators.")
	}

	switch cmd.Kind {
	case CommandAdminPanel:
		return s.reply(ctx, cmd, adminPanelText)
	case CommandAdminStats:
		stats, err := s.ledger.Stats(ctx)
		if err != nil {
			return fmt.Errorf("load stats: %w", err)
		}
		return s.reply(ctx, cmd, statsText(stats))
	case CommandAdminPaid:
		orders, err := s.ledger.PaidOrders(ctx)
		if err != nil {
			return fmt.Errorf("list paid orders: %w", err)
		}
		return s.reply(ctx, cmd, orderListText("Paid orders awaiting delivery:", orders))
	case CommandAdminAll:
		orders, err := s.ledger.AllOrders(ctx)
		if err != nil {
			return fmt.Errorf("list orders: %w", err)
		}
		return s.reply(ctx, cmd, orderListText("All orders:", orders))
	case CommandAdminDeliver:
		order, changed, err := s.ledger.SetStatus(ctx, cmd.OrderID, enums.OrderStatusDelivered)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				return s.reply(ctx, cmd, fmt.Sprintf("No order #%d.", cmd.OrderID))
			}
			return fmt.Errorf("deliver order: %w", err)
		}
		if !changed {
			return s.reply(ctx, cmd, fmt.Sprintf("Order #%d is %s, nothing to deliver.", order.ID, order.Status))
		}
		return s.reply(ctx, cmd, fmt.Sprintf("Order #%d marked delivered.", order.ID))
	case CommandAdminSetPaid:
		order, changed, err := s.ledger.SetStatus(ctx, cmd.OrderID, enums.OrderStatusPaid)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				return s.reply(ctx, cmd, fmt.Sprintf("No order #%d.", cmd.OrderID))
			}
			return fmt.Errorf("mark order paid: %w", err)
		}
		if !changed {
			return s.reply(ctx, cmd, fmt.Sprintf("Order #%d is %s, cannot mark paid.", order.ID, order.Status))
		}
		return s.reply(ctx, cmd, fmt.Sprintf("Order #%d marked paid.", order.ID))
	case CommandAdminAddPromo:
		if s.promo == nil {
			return s.reply(ctx, cmd, "Promo codes are not available right now.")
		}
		def := promo.Definition{
			Code:            cmd.PromoCode,
			DiscountPercent: cmd.PromoPercent,
			MinAmount:       cmd.PromoMin,
		}
		if err := s.promo.AddDefinition(def); err != nil {
			if appErr := pkgerrors.As(err); appErr != nil && appErr.Code() == pkgerrors.CodeValidation {
				return s.reply(ctx, cmd, "Cannot register that code: "+appErr.Message()+".")
			}
			return fmt.Errorf("add promo definition: %w", err)
		}
		return s.reply(ctx, cmd, fmt.Sprintf(
			"Code %s registered: %d%% off orders from %s RUB.",
			strings.ToUpper(cmd.PromoCode), cmd.PromoPercent, cmd.PromoMin.StringFixed(2)))
	case CommandAdminDelPromo:
		if s.promo == nil {
			return s.reply(ctx, cmd, "Promo codes are not available right now.")
		}
		if !s.promo.RemoveDefinition(cmd.PromoCode) {
			return s.reply(ctx, cmd, "No such promo code.")
		}
		return s.reply(ctx, cmd, fmt.Sprintf("Code %s removed.", strings.ToUpper(cmd.PromoCode)))
	case CommandAdminSeed:
		inserted, err := s.catalog.SeedIfEmpty(ctx, catalog.PresetTariffs)
		if err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		if inserted == 0 {
			return s.reply(ctx, cmd, "Catalog already has tariffs, nothing seeded.")
		}
		return s.reply(ctx, cmd, fmt.Sprintf("Seeded %d tariffs.", inserted))
	default:
		return nil
	}
}

func (s *Service) reply(ctx context.Context, cmd Command, text string) error {
	return s.sender.SendMessage(ctx, telegram.SendMessageRequest{ChatID: cmd.ChatID, Text: text})
}

// saveState persists the pure transition result; a storage failure only
// degrades navigation, so it is logged, not returned.
func (s *Service) saveState(ctx context.Context, cmd Command) error {
	state, err := s.states.Load(ctx, cmd.ChatID)
	if err != nil {
		state = State{Phase: PhaseIdle}
	}
	if err := s.states.Save(ctx, cmd.ChatID, Transition(state, cmd)); err != nil && s.logg != nil {
		s.logg.Error(ctx, "save conversation state", err)
	}
	return nil
}

func (s *Service) markedUp(price decimal.Decimal) decimal.Decimal {
	if s.pricing.MarkupPercent <= 0 {
		return price.Round(2)
	}
	factor := decimal.NewFromFloat(s.pricing.MarkupPercent).
		Div(decimal.NewFromInt(100)).
		Add(decimal.NewFromInt(1))
	return price.Mul(factor).Round(2)
}

func (s *Service) withAccount(ctx context.Context, accountID int64) context.Context {
	if s.logg == nil {
		return ctx
	}
	return s.logg.WithAccountID(ctx, accountID)
}
