package services

import (
	"context"
	"testing"

	"github.com/Dosada05/rift-arena/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerCreditAndDebit(t *testing.T) {
	e := newEnv()
	user := e.addUser(10, models.RoleUser)
	ctx := context.Background()

	tx, err := e.ledger.Credit(ctx, nil, user.ID, 5, models.TransactionDeposit, "top up")
	require.NoError(t, err)
	assert.Equal(t, 5, tx.Amount)
	assert.Equal(t, 15, e.store.users[user.ID].SPPoints)

	tx, err = e.ledger.Debit(ctx, nil, user.ID, 7, models.TransactionPurchase, "spend")
	require.NoError(t, err)
	assert.Equal(t, -7, tx.Amount)
	assert.Equal(t, 8, e.store.users[user.ID].SPPoints)

	assert.True(t, e.ledgerBalanced(user.ID))
}

func TestLedgerRejectsNonPositiveAmounts(t *testing.T) {
	e := newEnv()
	user := e.addUser(10, models.RoleUser)
	ctx := context.Background()

	_, err := e.ledger.Credit(ctx, nil, user.ID, 0, models.TransactionDeposit, "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = e.ledger.Credit(ctx, nil, user.ID, -3, models.TransactionDeposit, "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = e.ledger.Debit(ctx, nil, user.ID, -3, models.TransactionPurchase, "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	assert.Equal(t, 10, e.store.users[user.ID].SPPoints)
	assert.True(t, e.ledgerBalanced(user.ID))
}

func TestLedgerDebitInsufficientFunds(t *testing.T) {
	e := newEnv()
	user := e.addUser(4, models.RoleUser)

	_, err := e.ledger.Debit(context.Background(), nil, user.ID, 5, models.TransactionPurchase, "")
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// Баланс не срезается до нуля, а остаётся нетронутым.
	assert.Equal(t, 4, e.store.users[user.ID].SPPoints)
	assert.True(t, e.ledgerBalanced(user.ID))
}

func TestLedgerDebitExactBalance(t *testing.T) {
	e := newEnv()
	user := e.addUser(5, models.RoleUser)

	_, err := e.ledger.Debit(context.Background(), nil, user.ID, 5, models.TransactionWagerLoss, "")
	require.NoError(t, err)
	assert.Equal(t, 0, e.store.users[user.ID].SPPoints)
	assert.True(t, e.ledgerBalanced(user.ID))
}

func TestLedgerUnknownUser(t *testing.T) {
	e := newEnv()

	_, err := e.ledger.Credit(context.Background(), nil, uuid.New(), 5, models.TransactionDeposit, "")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
