package services

import (
	"context"
	"testing"

	"github.com/Dosada05/rift-arena/models"
	"github.com/Dosada05/rift-arena/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdminService(e *env) AdminService {
	return NewAdminService(e.userRepo, e.gameRepo, e.storeRepo, e.txManager, e.ledger, testLogger())
}

func TestAdminRoleGate(t *testing.T) {
	e := newEnv()
	svc := newAdminService(e)
	ctx := context.Background()

	for _, role := range []models.UserRole{models.RoleUser, models.RoleModerator} {
		_, err := svc.ListUsers(ctx, role)
		assert.ErrorIs(t, err, ErrForbiddenOperation)
		_, err = svc.Stats(ctx, role)
		assert.ErrorIs(t, err, ErrForbiddenOperation)
		err = svc.DeleteUser(ctx, role, uuid.New())
		assert.ErrorIs(t, err, ErrForbiddenOperation)
	}
}

func TestAdminListUsersStripsPasswordHash(t *testing.T) {
	e := newEnv()
	svc := newAdminService(e)
	user := e.addUser(1, models.RoleUser)
	e.store.users[user.ID].PasswordHash = "secret"

	users, err := svc.ListUsers(context.Background(), models.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Empty(t, users[0].PasswordHash)
}

func TestAdminUpdateUserBalance(t *testing.T) {
	e := newEnv()
	svc := newAdminService(e)
	user := e.addUser(10, models.RoleUser)
	ctx := context.Background()

	target := 25
	updated, err := svc.UpdateUser(ctx, models.RoleAdmin, user.ID, AdminUpdateUserInput{SPPoints: &target})
	require.NoError(t, err)
	assert.Equal(t, 25, updated.SPPoints)
	assert.Equal(t, 25, e.store.users[user.ID].SPPoints)
	// Правка прошла дельтой через журнал.
	assert.True(t, e.ledgerBalanced(user.ID))

	target = 4
	_, err = svc.UpdateUser(ctx, models.RoleAdmin, user.ID, AdminUpdateUserInput{SPPoints: &target})
	require.NoError(t, err)
	assert.Equal(t, 4, e.store.users[user.ID].SPPoints)
	assert.True(t, e.ledgerBalanced(user.ID))

	negative := -1
	_, err = svc.UpdateUser(ctx, models.RoleAdmin, user.ID, AdminUpdateUserInput{SPPoints: &negative})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

// staleReadUserRepo имитирует ставку, проскочившую между чтением профиля и
// транзакцией правки баланса: внешний GetByID отдаёт устаревший баланс.
type staleReadUserRepo struct {
	repositories.UserRepository
	staleSP int
}

func (r *staleReadUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := r.UserRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.SPPoints = r.staleSP
	return user, nil
}

func TestAdminUpdateUserBalanceIgnoresStaleRead(t *testing.T) {
	e := newEnv()
	stale := &staleReadUserRepo{UserRepository: e.userRepo, staleSP: 3}
	svc := NewAdminService(stale, e.gameRepo, e.storeRepo, e.txManager, e.ledger, testLogger())
	user := e.addUser(10, models.RoleUser)

	// Дельта должна считаться от баланса под блокировкой, а не от
	// устаревшего чтения, иначе итог уедет с запрошенного значения.
	target := 25
	updated, err := svc.UpdateUser(context.Background(), models.RoleAdmin, user.ID, AdminUpdateUserInput{SPPoints: &target})
	require.NoError(t, err)
	assert.Equal(t, 25, updated.SPPoints)
	assert.Equal(t, 25, e.store.users[user.ID].SPPoints)
	assert.True(t, e.ledgerBalanced(user.ID))
}

func TestAdminUpdateUserProfile(t *testing.T) {
	e := newEnv()
	svc := newAdminService(e)
	user := e.addUser(1, models.RoleUser)
	ctx := context.Background()

	name := "Rift Captain"
	role := models.RoleModerator
	verified := true
	updated, err := svc.UpdateUser(ctx, models.RoleAdmin, user.ID, AdminUpdateUserInput{
		DisplayName: &name,
		Role:        &role,
		IsVerified:  &verified,
	})
	require.NoError(t, err)
	assert.Equal(t, "Rift Captain", updated.DisplayName)
	assert.Equal(t, models.RoleModerator, updated.Role)
	assert.True(t, updated.IsVerified)

	empty := "  "
	_, err = svc.UpdateUser(ctx, models.RoleAdmin, user.ID, AdminUpdateUserInput{DisplayName: &empty})
	assert.ErrorIs(t, err, ErrValidationFailed)

	bad := models.UserRole("superuser")
	_, err = svc.UpdateUser(ctx, models.RoleAdmin, user.ID, AdminUpdateUserInput{Role: &bad})
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = svc.UpdateUser(ctx, models.RoleAdmin, uuid.New(), AdminUpdateUserInput{})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAdminDeleteGame(t *testing.T) {
	e := newEnv()
	svc := newAdminService(e)
	game := e.addGame(models.GameTypeOneVsOne, 10)
	player := e.addUser(10, models.RoleUser)
	e.store.players[game.ID] = []models.GamePlayer{{ID: uuid.New(), GameID: game.ID, UserID: player.ID, Team: 1}}
	ctx := context.Background()

	err := svc.DeleteGame(ctx, models.RoleAdmin, game.ID)
	require.NoError(t, err)
	assert.NotContains(t, e.store.games, game.ID)
	assert.Empty(t, e.store.players[game.ID])

	err = svc.DeleteGame(ctx, models.RoleAdmin, game.ID)
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestAdminRedemptionQueue(t *testing.T) {
	e := newEnv()
	svc := newAdminService(e)
	user := e.addUser(1, models.RoleUser)
	ctx := context.Background()

	pending := &models.Redemption{ID: uuid.New(), UserID: user.ID, ItemID: uuid.New()}
	done := &models.Redemption{ID: uuid.New(), UserID: user.ID, ItemID: uuid.New(), Fulfilled: true}
	e.store.redemptions[pending.ID] = pending
	e.store.redemptions[done.ID] = done

	all, err := svc.ListRedemptions(ctx, models.RoleAdmin, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	open, err := svc.ListRedemptions(ctx, models.RoleAdmin, true)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, pending.ID, open[0].ID)

	require.NoError(t, svc.MarkRedemptionEmailSent(ctx, models.RoleAdmin, pending.ID))
	assert.True(t, e.store.redemptions[pending.ID].EmailSent)

	require.NoError(t, svc.FulfillRedemption(ctx, models.RoleAdmin, pending.ID))
	assert.True(t, e.store.redemptions[pending.ID].Fulfilled)

	assert.ErrorIs(t, svc.FulfillRedemption(ctx, models.RoleAdmin, uuid.New()), ErrRedemptionNotFound)
	assert.ErrorIs(t, svc.MarkRedemptionEmailSent(ctx, models.RoleAdmin, uuid.New()), ErrRedemptionNotFound)
}

func TestAdminStats(t *testing.T) {
	e := newEnv()
	svc := newAdminService(e)

	e.addUser(10, models.RoleUser)
	e.addUser(5, models.RoleUser)
	e.addGame(models.GameTypeOneVsOne, 10) // создатель — третий пользователь
	red := &models.Redemption{ID: uuid.New(), UserID: uuid.New(), ItemID: uuid.New()}
	e.store.redemptions[red.ID] = red

	stats, err := svc.Stats(context.Background(), models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalUsers)
	assert.Equal(t, 1, stats.TotalGames)
	assert.Equal(t, 1, stats.PendingRedemptions)
	assert.Equal(t, 15, stats.TotalSPPoints)
}
