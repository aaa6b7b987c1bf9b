package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/Dosada05/rift-arena/live"
	"github.com/Dosada05/rift-arena/models"
	"github.com/Dosada05/rift-arena/repositories"
	"github.com/Dosada05/rift-arena/riot"
	"github.com/Dosada05/rift-arena/storage"
	"github.com/google/uuid"
)

type MatchService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]models.Match, error)
	// SubmitResult проводит результат через оракула и фиксирует его ровно
	// один раз; при конкурентных сабмитах выигрывает одна транзакция.
	SubmitResult(ctx context.Context, matchID, callerID uuid.UUID, riotMatchID string) (*models.Match, error)
	// AttachProof сохраняет скриншот результата в объектное хранилище
	// и привязывает его к матчу.
	AttachProof(ctx context.Context, matchID, callerID uuid.UUID, filename, contentType string, reader io.Reader) (*models.Match, error)
}

type matchService struct {
	matchRepo   repositories.MatchRepository
	txManager   repositories.TxManager
	oracle      riot.Oracle
	uploader    storage.FileUploader
	notifier    Notifier
	broadcaster Broadcaster
	logger      *slog.Logger
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	txManager repositories.TxManager,
	oracle riot.Oracle,
	uploader storage.FileUploader,
	notifier Notifier,
	broadcaster Broadcaster,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		matchRepo:   matchRepo,
		txManager:   txManager,
		oracle:      oracle,
		uploader:    uploader,
		notifier:    notifier,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

func (s *matchService) GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	s.decorateProofURL(match)
	return match, nil
}

func (s *matchService) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]models.Match, error) {
	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	for i := range matches {
		s.decorateProofURL(&matches[i])
	}
	return matches, nil
}

func (s *matchService) SubmitResult(ctx context.Context, matchID, callerID uuid.UUID, riotMatchID string) (*models.Match, error) {
	riotMatchID = strings.TrimSpace(riotMatchID)
	if riotMatchID == "" {
		return nil, fmt.Errorf("%w: riot match id is required", ErrValidationFailed)
	}

	match, err := s.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Verified {
		return nil, ErrMatchAlreadyVerified
	}
	if match.Player1 == nil || match.Player2 == nil {
		// Bye-матчи подтверждены при создании; сюда попадает только
		// повреждённая сетка.
		return nil, ErrForbiddenOperation
	}

	caller := callerRegistration(match, callerID)
	if caller == nil {
		return nil, ErrForbiddenOperation
	}

	// Оба вызова оракула идут вне транзакции: его латентность не должна
	// держать блокировки БД.
	verified, err := s.oracle.Verify(ctx, riotMatchID, caller.Champion)
	if err != nil {
		return nil, fmt.Errorf("%w: oracle verify: %v", ErrExternalService, err)
	}
	if !verified {
		return nil, ErrVerificationFailed
	}

	winner, err := s.oracle.DecideWinner(ctx, riotMatchID, match.Player1.Champion, match.Player2.Champion)
	if err != nil {
		return nil, fmt.Errorf("%w: oracle decide winner: %v", ErrExternalService, err)
	}

	winnerRegistrationID := *match.Player1RegistrationID
	if winner == riot.WinnerPlayer2 {
		winnerRegistrationID = *match.Player2RegistrationID
	}

	err = s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		txErr := s.matchRepo.SetResult(ctx, exec, matchID, riotMatchID, winnerRegistrationID)
		switch {
		case errors.Is(txErr, repositories.ErrMatchNotFound):
			return ErrMatchNotFound
		case errors.Is(txErr, repositories.ErrMatchAlreadyVerified):
			return ErrMatchAlreadyVerified
		case txErr != nil:
			return txErr
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}

	s.notifyWinner(ctx, updated)
	s.broadcaster.BroadcastToRoom(updated.TournamentID.String(), live.EventMatchVerified, updated)

	return updated, nil
}

func (s *matchService) AttachProof(ctx context.Context, matchID, callerID uuid.UUID, filename, contentType string, reader io.Reader) (*models.Match, error) {
	match, err := s.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if callerRegistration(match, callerID) == nil {
		return nil, ErrForbiddenOperation
	}

	key := fmt.Sprintf("proofs/%s/%s%s", matchID, uuid.New(), path.Ext(filename))
	if _, err := s.uploader.Upload(ctx, key, contentType, reader); err != nil {
		return nil, fmt.Errorf("%w: proof upload: %v", ErrExternalService, err)
	}

	oldKey := match.ProofKey
	if err := s.matchRepo.SetProofKey(ctx, matchID, key); err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}

	if oldKey != nil && *oldKey != "" {
		if delErr := s.uploader.Delete(ctx, *oldKey); delErr != nil {
			s.logger.Warn("failed to delete replaced proof",
				slog.String("match_id", matchID.String()),
				slog.String("key", *oldKey),
				slog.Any("error", delErr),
			)
		}
	}

	match.ProofKey = &key
	s.decorateProofURL(match)
	return match, nil
}

func (s *matchService) decorateProofURL(match *models.Match) {
	if match.ProofKey == nil || *match.ProofKey == "" || s.uploader == nil {
		return
	}
	url := s.uploader.GetPublicURL(*match.ProofKey)
	if url == "" {
		return
	}
	match.ProofURL = &url
}

// notifyWinner — best-effort письмо победителю; сбой только логируется.
func (s *matchService) notifyWinner(ctx context.Context, match *models.Match) {
	if match.Winner == nil || match.Winner.User == nil || match.Winner.User.Email == "" {
		return
	}
	subject := "Победа в матче засчитана"
	body := fmt.Sprintf(
		"<p>%s, твоя победа в матче подтверждена. Сетка обновлена.</p>",
		match.Winner.User.DisplayName,
	)
	if err := s.notifier.Send(ctx, match.Winner.User.Email, subject, body); err != nil {
		s.logger.Warn("failed to notify match winner",
			slog.String("match_id", match.ID.String()),
			slog.Any("error", err),
		)
	}
}

func callerRegistration(match *models.Match, callerID uuid.UUID) *models.Registration {
	if match.Player1 != nil && match.Player1.UserID == callerID {
		return match.Player1
	}
	if match.Player2 != nil && match.Player2.UserID == callerID {
		return match.Player2
	}
	return nil
}
