package promo

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/okotelnikov/vpsshop-backend/pkg/db/models"
	pkgerrors "github.com/okotelnikov/vpsshop-backend/pkg/errors"
)

// Definition is a redeemable promo code.
type Definition struct {
	Code            string
	DiscountPercent int
	MinAmount       decimal.Decimal
}

// DefaultDefinitions are the built-in codes. Redeeming replaces whatever code
// the account previously held.
var DefaultDefinitions = []Definition{
	{Code: "WELCOME10", DiscountPercent: 10, MinAmount: decimal.Zero},
	{Code: "VPS20", DiscountPercent: 20, MinAmount: decimal.RequireFromString("500")},
}

// ServiceParams groups dependencies for the promo service.
type ServiceParams struct {
	Repo        Repository
	Definitions []Definition
}

// Service manages the single active promo code per account. Definitions can
// be added and removed at runtime by admin commands.
type Service struct {
	repo Repository

	mu          sync.RWMutex
	definitions map[string]Definition
}

// NewService builds a promo service. Codes match case-insensitively.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	defs := params.Definitions
	if len(defs) == 0 {
		defs = DefaultDefinitions
	}
	byCode := make(map[string]Definition, len(defs))
	for _, def := range defs {
		byCode[strings.ToUpper(def.Code)] = def
	}
	return &Service{repo: params.Repo, definitions: byCode}, nil
}

// AddDefinition registers a redeemable code, replacing a definition with the
// same code. Accounts already holding the old code keep their stored discount.
func (s *Service) AddDefinition(def Definition) error {
	code := strings.ToUpper(strings.TrimSpace(def.Code))
	if code == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "promo code is required")
	}
	if def.DiscountPercent < 1 || def.DiscountPercent > 99 {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount percent must be between 1 and 99")
	}
	if def.MinAmount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "minimum amount cannot be negative")
	}
	def.Code = code
	s.mu.Lock()
	s.definitions[code] = def
	s.mu.Unlock()
	return nil
}

// RemoveDefinition unregisters the code. It reports whether the code existed.
func (s *Service) RemoveDefinition(code string) bool {
	key := strings.ToUpper(strings.TrimSpace(code))
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.definitions[key]; !ok {
		return false
	}
	delete(s.definitions, key)
	return true
}

// Redeem attaches the code to the account, replacing any previous code.
func (s *Service) Redeem(ctx context.Context, accountID int64, code string) (*models.PromoCode, error) {
	s.mu.RLock()
	def, ok := s.definitions[strings.ToUpper(strings.TrimSpace(code))]
	s.mu.RUnlock()
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unknown promo code")
	}

	promo := &models.PromoCode{
		AccountID:       accountID,
		Code:            def.Code,
		DiscountPercent: def.DiscountPercent,
		MinAmount:       def.MinAmount,
	}
	if err := s.repo.Upsert(ctx, promo); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to store promo code")
	}
	return s.repo.ByAccount(ctx, accountID)
}

// ActiveFor returns the account's active code, or nil when none is held.
func (s *Service) ActiveFor(ctx context.Context, accountID int64) (*models.PromoCode, error) {
	return s.repo.ByAccount(ctx, accountID)
}

// Consume removes the account's active code after it was spent on an invoice.
func (s *Service) Consume(ctx context.Context, accountID int64) error {
	return s.repo.DeleteByAccount(ctx, accountID)
}

// Clear drops the account's active code without spending it.
func (s *Service) Clear(ctx context.Context, accountID int64) error {
	return s.repo.DeleteByAccount(ctx, accountID)
}

// Apply discounts the price with the promo when the price clears the
// code's minimum. A nil promo or an unmet minimum leaves the price as is.
func Apply(price decimal.Decimal, promo *models.PromoCode) decimal.Decimal {
	if promo == nil || promo.DiscountPercent <= 0 {
		return price
	}
	if price.LessThan(promo.MinAmount) {
		return price
	}
	factor := decimal.NewFromInt(int64(100 - promo.DiscountPercent)).
		Div(decimal.NewFromInt(100))
	return price.Mul(factor).Round(2)
}
