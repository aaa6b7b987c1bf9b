package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/rift-arena/models"
	"github.com/Dosada05/rift-arena/repositories"
	"golang.org/x/crypto/bcrypt"
)

// Новые аккаунты получают стартовый баланс в 1 SP.
const startingSPPoints = 1

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Login(ctx context.Context, input LoginInput) (*models.User, error)
}

type RegisterInput struct {
	Email            string  `json:"email"`
	DisplayName      string  `json:"display_name"`
	Password         string  `json:"password"`
	RiotSummonerName *string `json:"riot_summoner_name,omitempty"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authService struct {
	userRepo        repositories.UserRepository
	transactionRepo repositories.TransactionRepository
	txManager       repositories.TxManager
}

func NewAuthService(
	userRepo repositories.UserRepository,
	transactionRepo repositories.TransactionRepository,
	txManager repositories.TxManager,
) AuthService {
	return &authService{
		userRepo:        userRepo,
		transactionRepo: transactionRepo,
		txManager:       txManager,
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	input.DisplayName = strings.TrimSpace(input.DisplayName)
	if input.Email == "" || input.DisplayName == "" || len(input.Password) < 8 {
		return nil, fmt.Errorf("%w: email, display name and a password of at least 8 characters are required", ErrValidationFailed)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:            input.Email,
		DisplayName:      input.DisplayName,
		PasswordHash:     string(hashedPassword),
		SPPoints:         startingSPPoints,
		Role:             models.RoleUser,
		RiotSummonerName: input.RiotSummonerName,
		IsVerified:       false,
	}

	// Пользователь и приветственный депозит создаются одной транзакцией:
	// сумма транзакций пользователя равна его балансу с первой же строки,
	// частично созданных аккаунтов не бывает.
	err = s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if txErr := s.userRepo.Create(ctx, exec, user); txErr != nil {
			if errors.Is(txErr, repositories.ErrUserEmailConflict) {
				return ErrAuthEmailTaken
			}
			return fmt.Errorf("failed to create user: %w", txErr)
		}
		if txErr := s.transactionRepo.Create(ctx, exec, &models.Transaction{
			UserID:      user.ID,
			Amount:      startingSPPoints,
			Type:        models.TransactionDeposit,
			Description: "Welcome bonus",
		}); txErr != nil {
			return fmt.Errorf("failed to record welcome bonus: %w", txErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrAuthInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrAuthInvalidCredentials
		}
		return nil, fmt.Errorf("failed to compare password hash: %w", err)
	}

	user.PasswordHash = ""
	return user, nil
}
