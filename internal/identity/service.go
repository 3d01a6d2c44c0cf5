package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/okotelnikov/vpsshop-backend/pkg/db/models"
	pkgerrors "github.com/okotelnikov/vpsshop-backend/pkg/errors"
)

// Service owns the idempotent account upsert.
type Service interface {
	Upsert(ctx context.Context, username string, telegramID int64) (*models.Account, error)
}

type service struct {
	repo Repository
}

// NewService builds the identity resolver.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("identity repository required")
	}
	return &service{repo: repo}, nil
}

// Upsert resolves the external identity to an account, creating one on first
// contact. Concurrent first contacts converge on a single row: the insert
// ignores the unique-index conflict and the follow-up fetch returns whichever
// insert won. There is no check-then-insert window.
func (s *service) Upsert(ctx context.Context, username string, telegramID int64) (*models.Account, error) {
	trimmed := strings.TrimSpace(username)

	if telegramID == 0 {
		if trimmed == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "external identity required")
		}
		account, err := s.repo.FindByUsername(ctx, trimmed)
		if err != nil {
			return nil, err
		}
		if account == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return account, nil
	}

	if account, err := s.repo.FindByTelegramID(ctx, telegramID); err != nil {
		return nil, err
	} else if account != nil {
		return account, nil
	}

	fresh := &models.Account{TelegramID: telegramID}
	if trimmed != "" {
		fresh.Username = &trimmed
	}
	if err := s.repo.InsertIgnoringConflict(ctx, fresh); err != nil {
		return nil, err
	}

	account, err := s.repo.FindByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "account upsert did not converge")
	}
	return account, nil
}
