package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/rift-arena/models"
	"github.com/Dosada05/rift-arena/repositories"
	"github.com/google/uuid"
)

type StoreService interface {
	ListItems(ctx context.Context) ([]models.StoreItem, error)
	// SeedDefaultItems наполняет пустой каталог стартовыми RP-картами.
	// Повторный вызов ничего не делает.
	SeedDefaultItems(ctx context.Context) (int, error)
	// BuySP — мок платёжного шлюза: зачисляет SP без реального платежа.
	BuySP(ctx context.Context, userID uuid.UUID, amount int) (*models.Transaction, error)
	// Redeem списывает стоимость товара и создаёт заявку на выдачу одной
	// транзакцией: при нехватке SP заявка не появляется.
	Redeem(ctx context.Context, userID, itemID uuid.UUID) (*models.Redemption, error)
	ListTransactions(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error)
}

type storeService struct {
	storeRepo       repositories.StoreRepository
	userRepo        repositories.UserRepository
	transactionRepo repositories.TransactionRepository
	txManager       repositories.TxManager
	ledger          Ledger
	notifier        Notifier
	logger          *slog.Logger
}

func NewStoreService(
	storeRepo repositories.StoreRepository,
	userRepo repositories.UserRepository,
	transactionRepo repositories.TransactionRepository,
	txManager repositories.TxManager,
	ledger Ledger,
	notifier Notifier,
	logger *slog.Logger,
) StoreService {
	return &storeService{
		storeRepo:       storeRepo,
		userRepo:        userRepo,
		transactionRepo: transactionRepo,
		txManager:       txManager,
		ledger:          ledger,
		notifier:        notifier,
		logger:          logger,
	}
}

func (s *storeService) ListItems(ctx context.Context) ([]models.StoreItem, error) {
	return s.storeRepo.ListItems(ctx)
}

func (s *storeService) SeedDefaultItems(ctx context.Context) (int, error) {
	count, err := s.storeRepo.CountItems(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	items := []models.StoreItem{
		{Name: "650 RP", Description: "League of Legends 650 RP Card", SPCost: 5, ItemType: "rp_card"},
		{Name: "1380 RP", Description: "League of Legends 1380 RP Card", SPCost: 10, ItemType: "rp_card"},
		{Name: "2800 RP", Description: "League of Legends 2800 RP Card", SPCost: 20, ItemType: "rp_card"},
	}
	for i := range items {
		if err := s.storeRepo.CreateItem(ctx, &items[i]); err != nil {
			return 0, fmt.Errorf("failed to seed store item %q: %w", items[i].Name, err)
		}
	}
	return len(items), nil
}

func (s *storeService) BuySP(ctx context.Context, userID uuid.UUID, amount int) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var transaction *models.Transaction
	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		t, txErr := s.ledger.Credit(ctx, exec, userID, amount, models.TransactionDeposit, "SP purchase")
		if txErr != nil {
			return txErr
		}
		transaction = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

func (s *storeService) Redeem(ctx context.Context, userID, itemID uuid.UUID) (*models.Redemption, error) {
	item, err := s.storeRepo.GetItemByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrStoreItemNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}

	redemption := &models.Redemption{
		UserID: userID,
		ItemID: itemID,
	}
	err = s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		description := fmt.Sprintf("Redeemed %s", item.Name)
		if _, txErr := s.ledger.Debit(ctx, exec, userID, item.SPCost, models.TransactionPurchase, description); txErr != nil {
			return txErr
		}
		return s.storeRepo.CreateRedemption(ctx, exec, redemption)
	})
	if err != nil {
		return nil, err
	}
	redemption.Item = item

	s.sendRedemptionEmail(ctx, redemption, item)
	return redemption, nil
}

func (s *storeService) ListTransactions(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error) {
	return s.transactionRepo.ListByUser(ctx, userID)
}

// sendRedemptionEmail — best-effort подтверждение после коммита; при успехе
// поднимает флаг email_sent, при сбое заявка остаётся в очереди админа.
func (s *storeService) sendRedemptionEmail(ctx context.Context, redemption *models.Redemption, item *models.StoreItem) {
	user, err := s.userRepo.GetByID(ctx, redemption.UserID)
	if err != nil {
		s.logger.Warn("failed to load user for redemption email",
			slog.String("redemption_id", redemption.ID.String()),
			slog.Any("error", err),
		)
		return
	}

	subject := fmt.Sprintf("Заявка на %s принята", item.Name)
	body := fmt.Sprintf("<p>%s, заявка на «%s» принята. Код придёт после обработки.</p>", user.DisplayName, item.Name)
	if err := s.notifier.Send(ctx, user.Email, subject, body); err != nil {
		s.logger.Warn("failed to send redemption email",
			slog.String("redemption_id", redemption.ID.String()),
			slog.Any("error", err),
		)
		return
	}

	if err := s.storeRepo.MarkEmailSent(ctx, redemption.ID); err != nil {
		s.logger.Warn("failed to mark redemption email as sent",
			slog.String("redemption_id", redemption.ID.String()),
			slog.Any("error", err),
		)
		return
	}
	redemption.EmailSent = true
}
