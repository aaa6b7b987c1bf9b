package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Dosada05/rift-arena/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoreService(e *env) StoreService {
	return NewStoreService(
		e.storeRepo,
		e.userRepo,
		e.transactionRepo,
		e.txManager,
		e.ledger,
		e.notifier,
		testLogger(),
	)
}

func TestSeedDefaultItems(t *testing.T) {
	e := newEnv()
	svc := newStoreService(e)
	ctx := context.Background()

	created, err := svc.SeedDefaultItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, created)

	items, err := svc.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	costs := make(map[string]int)
	for _, item := range items {
		costs[item.Name] = item.SPCost
		assert.Equal(t, "rp_card", item.ItemType)
	}
	assert.Equal(t, map[string]int{"650 RP": 5, "1380 RP": 10, "2800 RP": 20}, costs)

	// Повторный вызов каталог не дублирует.
	created, err = svc.SeedDefaultItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
	items, _ = svc.ListItems(ctx)
	assert.Len(t, items, 3)
}

func TestBuySP(t *testing.T) {
	e := newEnv()
	svc := newStoreService(e)
	user := e.addUser(1, models.RoleUser)
	ctx := context.Background()

	tx, err := svc.BuySP(ctx, user.ID, 20)
	require.NoError(t, err)
	assert.Equal(t, 20, tx.Amount)
	assert.Equal(t, models.TransactionDeposit, tx.Type)
	assert.Equal(t, 21, e.store.users[user.ID].SPPoints)
	assert.True(t, e.ledgerBalanced(user.ID))

	_, err = svc.BuySP(ctx, user.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestRedeem(t *testing.T) {
	e := newEnv()
	svc := newStoreService(e)
	user := e.addUser(10, models.RoleUser)
	ctx := context.Background()

	_, err := svc.SeedDefaultItems(ctx)
	require.NoError(t, err)
	item := findItem(t, e, "1380 RP")

	redemption, err := svc.Redeem(ctx, user.ID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, redemption.ItemID)
	assert.False(t, redemption.Fulfilled)
	// Письмо ушло, флаг поднят.
	assert.True(t, redemption.EmailSent)
	require.Len(t, e.notifier.sent, 1)
	assert.Equal(t, user.Email, e.notifier.sent[0])

	assert.Equal(t, 0, e.store.users[user.ID].SPPoints)
	assert.True(t, e.ledgerBalanced(user.ID))
}

func TestRedeemInsufficientFunds(t *testing.T) {
	e := newEnv()
	svc := newStoreService(e)
	user := e.addUser(3, models.RoleUser)
	ctx := context.Background()

	_, err := svc.SeedDefaultItems(ctx)
	require.NoError(t, err)
	item := findItem(t, e, "650 RP")

	_, err = svc.Redeem(ctx, user.ID, item.ID)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// Заявка не создана, баланс не тронут.
	assert.Empty(t, e.store.redemptions)
	assert.Equal(t, 3, e.store.users[user.ID].SPPoints)
	assert.True(t, e.ledgerBalanced(user.ID))
	assert.Empty(t, e.notifier.sent)
}

func TestRedeemUnknownItem(t *testing.T) {
	e := newEnv()
	svc := newStoreService(e)
	user := e.addUser(10, models.RoleUser)

	_, err := svc.Redeem(context.Background(), user.ID, uuid.New())
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestRedeemEmailFailureKeepsRedemption(t *testing.T) {
	e := newEnv()
	e.notifier.err = errors.New("smtp down")
	svc := newStoreService(e)
	user := e.addUser(10, models.RoleUser)
	ctx := context.Background()

	_, err := svc.SeedDefaultItems(ctx)
	require.NoError(t, err)
	item := findItem(t, e, "650 RP")

	redemption, err := svc.Redeem(ctx, user.ID, item.ID)
	require.NoError(t, err)

	// Сбой почты не откатывает покупку: заявка ждёт в очереди админа.
	assert.False(t, redemption.EmailSent)
	assert.Len(t, e.store.redemptions, 1)
	assert.Equal(t, 5, e.store.users[user.ID].SPPoints)
	assert.True(t, e.ledgerBalanced(user.ID))
}

func TestListTransactions(t *testing.T) {
	e := newEnv()
	svc := newStoreService(e)
	user := e.addUser(1, models.RoleUser)
	ctx := context.Background()

	_, err := svc.BuySP(ctx, user.ID, 5)
	require.NoError(t, err)

	transactions, err := svc.ListTransactions(ctx, user.ID)
	require.NoError(t, err)
	// Стартовый депозит + покупка.
	assert.Len(t, transactions, 2)
}

func findItem(t *testing.T, e *env, name string) *models.StoreItem {
	t.Helper()
	for _, item := range e.store.items {
		if item.Name == name {
			return item
		}
	}
	t.Fatalf("store item %q not found", name)
	return nil
}
