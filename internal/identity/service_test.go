package identity

import (
	"context"
	"fmt"
	"testing"

	"github.com/okotelnikov/vpsshop-backend/pkg/db/models"
	pkgerrors "github.com/okotelnikov/vpsshop-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupIdentityTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	accounts := `
CREATE TABLE IF NOT EXISTS accounts (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  username TEXT,
  telegram_id INTEGER NOT NULL,
  role TEXT NOT NULL DEFAULT 'user',
  created_at DATETIME
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_telegram_id ON accounts (telegram_id);`
	require.NoError(t, db.Exec(accounts).Error)
	return db
}

func newIdentityService(t *testing.T) Service {
	t.Helper()

	db := setupIdentityTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	return svc
}

func TestServiceUpsert_createsOnFirstContact(t *testing.T) {
	svc := newIdentityService(t)

	account, err := svc.Upsert(context.Background(), "alice", 910001)
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.NotZero(t, account.ID)
	assert.Equal(t, int64(910001), account.TelegramID)
	require.NotNil(t, account.Username)
	assert.Equal(t, "alice", *account.Username)
}

func TestServiceUpsert_sameIdentityConverges(t *testing.T) {
	svc := newIdentityService(t)

	first, err := svc.Upsert(context.Background(), "bob", 910002)
	require.NoError(t, err)

	second, err := svc.Upsert(context.Background(), "bob_renamed", 910002)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.TelegramID, second.TelegramID)
}

func TestServiceUpsert_insertRaceConverges(t *testing.T) {
	db := setupIdentityTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo)
	require.NoError(t, err)

	// Simulate a concurrent winner landing between the lookup and the
	// insert. The conflict is swallowed and the fetch returns the winner.
	username := "carol"
	winner := &models.Account{TelegramID: 910003, Username: &username}
	require.NoError(t, repo.InsertIgnoringConflict(context.Background(), winner))

	account, err := svc.Upsert(context.Background(), "carol_late", 910003)
	require.NoError(t, err)
	assert.Equal(t, int64(910003), account.TelegramID)
	require.NotNil(t, account.Username)
	assert.Equal(t, "carol", *account.Username)
}

func TestServiceUpsert_usernameOnlyLookup(t *testing.T) {
	svc := newIdentityService(t)

	_, err := svc.Upsert(context.Background(), "dave", 910004)
	require.NoError(t, err)

	found, err := svc.Upsert(context.Background(), "dave", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(910004), found.TelegramID)

	_, err = svc.Upsert(context.Background(), "nobody", 0)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestServiceUpsert_rejectsEmptyIdentity(t *testing.T) {
	svc := newIdentityService(t)

	_, err := svc.Upsert(context.Background(), "", 0)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
