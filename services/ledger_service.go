package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/rift-arena/models"
	"github.com/Dosada05/rift-arena/repositories"
	"github.com/google/uuid"
)

// Ledger — единственная точка движения SP. Обе операции меняют баланс и
// добавляют ровно одну запись Transaction с подписанной суммой, внутри
// переданного exec: вызывающий сервис отвечает за то, чтобы изменение
// баланса закоммитилось атомарно с изменением состояния сущности.
type Ledger interface {
	Credit(ctx context.Context, exec repositories.SQLExecutor, userID uuid.UUID, amount int, txType models.TransactionType, description string) (*models.Transaction, error)
	Debit(ctx context.Context, exec repositories.SQLExecutor, userID uuid.UUID, amount int, txType models.TransactionType, description string) (*models.Transaction, error)
}

type ledgerService struct {
	userRepo        repositories.UserRepository
	transactionRepo repositories.TransactionRepository
}

func NewLedgerService(
	userRepo repositories.UserRepository,
	transactionRepo repositories.TransactionRepository,
) Ledger {
	return &ledgerService{
		userRepo:        userRepo,
		transactionRepo: transactionRepo,
	}
}

func (s *ledgerService) Credit(ctx context.Context, exec repositories.SQLExecutor, userID uuid.UUID, amount int, txType models.TransactionType, description string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return s.apply(ctx, exec, userID, amount, txType, description)
}

func (s *ledgerService) Debit(ctx context.Context, exec repositories.SQLExecutor, userID uuid.UUID, amount int, txType models.TransactionType, description string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return s.apply(ctx, exec, userID, -amount, txType, description)
}

// apply изменяет баланс на signed delta и пишет запись аудита той же суммой.
func (s *ledgerService) apply(ctx context.Context, exec repositories.SQLExecutor, userID uuid.UUID, delta int, txType models.TransactionType, description string) (*models.Transaction, error) {
	if delta == 0 {
		return nil, ErrInvalidAmount
	}

	if err := s.userRepo.AdjustSPPoints(ctx, exec, userID, delta); err != nil {
		switch {
		case errors.Is(err, repositories.ErrUserNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, repositories.ErrUserInsufficientFunds):
			// Никогда не срезаем до нуля: недостаток средств — всегда отказ.
			return nil, ErrInsufficientFunds
		default:
			return nil, fmt.Errorf("failed to adjust balance for user %s: %w", userID, err)
		}
	}

	transaction := &models.Transaction{
		UserID:      userID,
		Amount:      delta,
		Type:        txType,
		Description: description,
	}
	if err := s.transactionRepo.Create(ctx, exec, transaction); err != nil {
		return nil, fmt.Errorf("failed to record transaction for user %s: %w", userID, err)
	}
	return transaction, nil
}
