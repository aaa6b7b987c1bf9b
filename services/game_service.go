package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/rift-arena/live"
	"github.com/Dosada05/rift-arena/models"
	"github.com/Dosada05/rift-arena/repositories"
	"github.com/google/uuid"
)

type GameService interface {
	Create(ctx context.Context, callerID uuid.UUID, callerRole models.UserRole, input CreateGameInput) (*models.CustomGame, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.CustomGame, error)
	List(ctx context.Context, status *models.GameStatus) ([]models.CustomGame, error)
	// Join добавляет игрока в команду и списывает ставку одной транзакцией:
	// при нехватке средств строка участия не остаётся.
	Join(ctx context.Context, gameID, callerID uuid.UUID, team int) (*models.CustomGame, error)
	// Verify фиксирует команду-победителя и раздаёт банк поровну между
	// победителями; остаток от целочисленного деления не начисляется никому.
	Verify(ctx context.Context, gameID, callerID uuid.UUID, callerRole models.UserRole, winnerTeam int) (*models.CustomGame, error)
}

type CreateGameInput struct {
	Type        models.GameType `json:"type"`
	WagerAmount int             `json:"wager_amount"`
}

type gameService struct {
	gameRepo    repositories.GameRepository
	txManager   repositories.TxManager
	ledger      Ledger
	broadcaster Broadcaster
	logger      *slog.Logger
}

func NewGameService(
	gameRepo repositories.GameRepository,
	txManager repositories.TxManager,
	ledger Ledger,
	broadcaster Broadcaster,
	logger *slog.Logger,
) GameService {
	return &gameService{
		gameRepo:    gameRepo,
		txManager:   txManager,
		ledger:      ledger,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

func (s *gameService) Create(ctx context.Context, callerID uuid.UUID, callerRole models.UserRole, input CreateGameInput) (*models.CustomGame, error) {
	if !callerRole.HasAtLeast(models.RoleModerator) {
		return nil, ErrForbiddenOperation
	}
	if !input.Type.Valid() {
		return nil, ErrInvalidGameType
	}
	if input.WagerAmount <= 0 {
		return nil, ErrInvalidAmount
	}

	game := &models.CustomGame{
		Type:        input.Type,
		WagerAmount: input.WagerAmount,
		Status:      models.GameStatusOpen,
		CreatorID:   callerID,
	}
	if err := s.gameRepo.Create(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}
	return game, nil
}

func (s *gameService) GetByID(ctx context.Context, id uuid.UUID) (*models.CustomGame, error) {
	var game *models.CustomGame
	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		g, txErr := s.gameRepo.GetByIDForUpdate(ctx, exec, id)
		if txErr != nil {
			if errors.Is(txErr, repositories.ErrGameNotFound) {
				return ErrGameNotFound
			}
			return txErr
		}
		players, txErr := s.gameRepo.ListPlayers(ctx, exec, id)
		if txErr != nil {
			return txErr
		}
		g.Players = players
		game = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return game, nil
}

func (s *gameService) List(ctx context.Context, status *models.GameStatus) ([]models.CustomGame, error) {
	return s.gameRepo.List(ctx, status)
}

func (s *gameService) Join(ctx context.Context, gameID, callerID uuid.UUID, team int) (*models.CustomGame, error) {
	var game *models.CustomGame
	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		// Блокировка строки игры сериализует конкурентные join/verify.
		g, txErr := s.gameRepo.GetByIDForUpdate(ctx, exec, gameID)
		if txErr != nil {
			if errors.Is(txErr, repositories.ErrGameNotFound) {
				return ErrGameNotFound
			}
			return txErr
		}
		if g.Status != models.GameStatusOpen {
			return ErrGameNotOpen
		}
		if team != 1 && team != 2 {
			return ErrInvalidTeam
		}

		players, txErr := s.gameRepo.ListPlayers(ctx, exec, gameID)
		if txErr != nil {
			return txErr
		}
		teamSize := 0
		for _, p := range players {
			if p.UserID == callerID {
				return ErrAlreadyJoined
			}
			if p.Team == team {
				teamSize++
			}
		}
		if teamSize >= g.Type.PlayersPerTeam() {
			return ErrTeamFull
		}

		player := &models.GamePlayer{
			GameID: gameID,
			UserID: callerID,
			Team:   team,
		}
		if txErr = s.gameRepo.AddPlayer(ctx, exec, player); txErr != nil {
			if errors.Is(txErr, repositories.ErrGamePlayerConflict) {
				return ErrAlreadyJoined
			}
			return txErr
		}

		// Списание ставки в той же транзакции: ErrInsufficientFunds
		// откатывает и вставку игрока.
		description := fmt.Sprintf("Wager for %s game %s", g.Type, gameID)
		if _, txErr = s.ledger.Debit(ctx, exec, callerID, g.WagerAmount, models.TransactionWagerLoss, description); txErr != nil {
			return txErr
		}

		if len(players)+1 == g.Type.RequiredPlayers() {
			if txErr = s.gameRepo.UpdateStatus(ctx, exec, gameID, models.GameStatusInProgress); txErr != nil {
				return txErr
			}
			g.Status = models.GameStatusInProgress
		}

		updatedPlayers, txErr := s.gameRepo.ListPlayers(ctx, exec, gameID)
		if txErr != nil {
			return txErr
		}
		g.Players = updatedPlayers
		game = g
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcaster.BroadcastToRoom(gameID.String(), live.EventGameUpdated, game)
	return game, nil
}

func (s *gameService) Verify(ctx context.Context, gameID, callerID uuid.UUID, callerRole models.UserRole, winnerTeam int) (*models.CustomGame, error) {
	if !callerRole.HasAtLeast(models.RoleModerator) {
		return nil, ErrForbiddenOperation
	}
	if winnerTeam != 1 && winnerTeam != 2 {
		return nil, ErrInvalidTeam
	}

	var game *models.CustomGame
	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		g, txErr := s.gameRepo.GetByIDForUpdate(ctx, exec, gameID)
		if txErr != nil {
			if errors.Is(txErr, repositories.ErrGameNotFound) {
				return ErrGameNotFound
			}
			return txErr
		}
		if g.Status == models.GameStatusCompleted {
			return ErrGameAlreadyCompleted
		}

		players, txErr := s.gameRepo.ListPlayers(ctx, exec, gameID)
		if txErr != nil {
			return txErr
		}
		winners := make([]models.GamePlayer, 0, len(players))
		for _, p := range players {
			if p.Team == winnerTeam {
				winners = append(winners, p)
			}
		}
		if len(winners) == 0 {
			return ErrNoWinners
		}

		// Банк = ставка × все участники; делится поровну между победителями.
		// Для неполных команд это сохраняет SP: раздаётся не больше, чем
		// собрано, остаток просто сгорает.
		pot := g.WagerAmount * len(players)
		share := pot / len(winners)
		description := fmt.Sprintf("Wager win in %s game %s", g.Type, gameID)
		for _, winner := range winners {
			if _, txErr = s.ledger.Credit(ctx, exec, winner.UserID, share, models.TransactionWagerWin, description); txErr != nil {
				return txErr
			}
		}

		if txErr = s.gameRepo.Complete(ctx, exec, gameID, winnerTeam); txErr != nil {
			if errors.Is(txErr, repositories.ErrGameAlreadyCompleted) {
				return ErrGameAlreadyCompleted
			}
			return txErr
		}

		g.Status = models.GameStatusCompleted
		g.WinnerTeam = &winnerTeam
		g.Players = players
		game = g
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("custom game settled",
		slog.String("game_id", gameID.String()),
		slog.Int("winner_team", winnerTeam),
		slog.String("verified_by", callerID.String()),
	)
	s.broadcaster.BroadcastToRoom(gameID.String(), live.EventGameCompleted, game)
	return game, nil
}
