package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/rift-arena/models"
	"github.com/Dosada05/rift-arena/repositories"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type AdminService interface {
	ListUsers(ctx context.Context, callerRole models.UserRole) ([]models.User, error)
	// UpdateUser меняет профиль и баланс. Правка SP идёт через Ledger как
	// дельта-транзакция, чтобы сумма журнала оставалась равна балансу.
	UpdateUser(ctx context.Context, callerRole models.UserRole, id uuid.UUID, input AdminUpdateUserInput) (*models.User, error)
	DeleteUser(ctx context.Context, callerRole models.UserRole, id uuid.UUID) error
	DeleteGame(ctx context.Context, callerRole models.UserRole, id uuid.UUID) error
	ListRedemptions(ctx context.Context, callerRole models.UserRole, pendingOnly bool) ([]models.Redemption, error)
	MarkRedemptionEmailSent(ctx context.Context, callerRole models.UserRole, id uuid.UUID) error
	FulfillRedemption(ctx context.Context, callerRole models.UserRole, id uuid.UUID) error
	Stats(ctx context.Context, callerRole models.UserRole) (*AdminStats, error)
}

type AdminUpdateUserInput struct {
	DisplayName *string          `json:"display_name,omitempty"`
	Role        *models.UserRole `json:"role,omitempty"`
	SPPoints    *int             `json:"sp_points,omitempty"`
	IsVerified  *bool            `json:"is_verified,omitempty"`
}

type AdminStats struct {
	TotalUsers         int `json:"total_users"`
	TotalGames         int `json:"total_games"`
	PendingRedemptions int `json:"pending_redemptions"`
	TotalSPPoints      int `json:"total_sp_points"`
}

type adminService struct {
	userRepo  repositories.UserRepository
	gameRepo  repositories.GameRepository
	storeRepo repositories.StoreRepository
	txManager repositories.TxManager
	ledger    Ledger
	logger    *slog.Logger
}

func NewAdminService(
	userRepo repositories.UserRepository,
	gameRepo repositories.GameRepository,
	storeRepo repositories.StoreRepository,
	txManager repositories.TxManager,
	ledger Ledger,
	logger *slog.Logger,
) AdminService {
	return &adminService{
		userRepo:  userRepo,
		gameRepo:  gameRepo,
		storeRepo: storeRepo,
		txManager: txManager,
		ledger:    ledger,
		logger:    logger,
	}
}

func requireAdmin(callerRole models.UserRole) error {
	if !callerRole.HasAtLeast(models.RoleAdmin) {
		return ErrForbiddenOperation
	}
	return nil
}

func (s *adminService) ListUsers(ctx context.Context, callerRole models.UserRole) ([]models.User, error) {
	if err := requireAdmin(callerRole); err != nil {
		return nil, err
	}
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

func (s *adminService) UpdateUser(ctx context.Context, callerRole models.UserRole, id uuid.UUID, input AdminUpdateUserInput) (*models.User, error) {
	if err := requireAdmin(callerRole); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if input.DisplayName != nil {
		name := strings.TrimSpace(*input.DisplayName)
		if name == "" {
			return nil, fmt.Errorf("%w: display name cannot be empty", ErrValidationFailed)
		}
		user.DisplayName = name
	}
	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, ErrInvalidRole
		}
		user.Role = *input.Role
	}
	if input.IsVerified != nil {
		user.IsVerified = *input.IsVerified
	}

	if input.SPPoints != nil {
		if *input.SPPoints < 0 {
			return nil, ErrInvalidAmount
		}
		target := *input.SPPoints
		err = s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
			// Дельта считается от баланса, прочитанного под блокировкой:
			// ставка, проскочившая после внешнего чтения профиля, не сдвинет
			// итог с запрошенного значения.
			current, txErr := s.userRepo.GetByIDForUpdate(ctx, exec, id)
			if txErr != nil {
				if errors.Is(txErr, repositories.ErrUserNotFound) {
					return ErrUserNotFound
				}
				return txErr
			}
			delta := target - current.SPPoints
			if delta == 0 {
				return nil
			}
			if delta > 0 {
				_, txErr = s.ledger.Credit(ctx, exec, id, delta, models.TransactionDeposit, "Admin balance adjustment")
			} else {
				_, txErr = s.ledger.Debit(ctx, exec, id, -delta, models.TransactionWithdrawal, "Admin balance adjustment")
			}
			return txErr
		})
		if err != nil {
			return nil, err
		}
		user.SPPoints = target
		s.logger.Info("admin adjusted user balance",
			slog.String("user_id", id.String()),
			slog.Int("sp_points", target),
		)
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *adminService) DeleteUser(ctx context.Context, callerRole models.UserRole, id uuid.UUID) error {
	if err := requireAdmin(callerRole); err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

func (s *adminService) DeleteGame(ctx context.Context, callerRole models.UserRole, id uuid.UUID) error {
	if err := requireAdmin(callerRole); err != nil {
		return err
	}
	// Сначала участники, затем игра — одной транзакцией.
	return s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if txErr := s.gameRepo.DeletePlayersByGame(ctx, exec, id); txErr != nil {
			return txErr
		}
		if txErr := s.gameRepo.Delete(ctx, exec, id); txErr != nil {
			if errors.Is(txErr, repositories.ErrGameNotFound) {
				return ErrGameNotFound
			}
			return txErr
		}
		return nil
	})
}

func (s *adminService) ListRedemptions(ctx context.Context, callerRole models.UserRole, pendingOnly bool) ([]models.Redemption, error) {
	if err := requireAdmin(callerRole); err != nil {
		return nil, err
	}
	return s.storeRepo.ListRedemptions(ctx, pendingOnly)
}

func (s *adminService) MarkRedemptionEmailSent(ctx context.Context, callerRole models.UserRole, id uuid.UUID) error {
	if err := requireAdmin(callerRole); err != nil {
		return err
	}
	if err := s.storeRepo.MarkEmailSent(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrRedemptionNotFound) {
			return ErrRedemptionNotFound
		}
		return err
	}
	return nil
}

func (s *adminService) FulfillRedemption(ctx context.Context, callerRole models.UserRole, id uuid.UUID) error {
	if err := requireAdmin(callerRole); err != nil {
		return err
	}
	if err := s.storeRepo.MarkFulfilled(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrRedemptionNotFound) {
			return ErrRedemptionNotFound
		}
		return err
	}
	return nil
}

func (s *adminService) Stats(ctx context.Context, callerRole models.UserRole) (*AdminStats, error) {
	if err := requireAdmin(callerRole); err != nil {
		return nil, err
	}

	stats := &AdminStats{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		count, err := s.userRepo.Count(gctx)
		if err != nil {
			return fmt.Errorf("failed to count users: %w", err)
		}
		stats.TotalUsers = count
		return nil
	})
	g.Go(func() error {
		count, err := s.gameRepo.Count(gctx)
		if err != nil {
			return fmt.Errorf("failed to count games: %w", err)
		}
		stats.TotalGames = count
		return nil
	})
	g.Go(func() error {
		count, err := s.storeRepo.CountPendingRedemptions(gctx)
		if err != nil {
			return fmt.Errorf("failed to count pending redemptions: %w", err)
		}
		stats.PendingRedemptions = count
		return nil
	})
	g.Go(func() error {
		total, err := s.userRepo.TotalSPPoints(gctx)
		if err != nil {
			return fmt.Errorf("failed to sum sp points: %w", err)
		}
		stats.TotalSPPoints = total
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}
