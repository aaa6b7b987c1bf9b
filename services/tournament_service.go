package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/rift-arena/live"
	"github.com/Dosada05/rift-arena/models"
	"github.com/Dosada05/rift-arena/pairing"
	"github.com/Dosada05/rift-arena/repositories"
	"github.com/google/uuid"
)

type TournamentService interface {
	Create(ctx context.Context, callerID uuid.UUID, input CreateTournamentInput) (*models.Tournament, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error)
	List(ctx context.Context) ([]models.Tournament, error)
	Register(ctx context.Context, tournamentID, callerID uuid.UUID, champion string) (*models.Registration, error)
	ListRegistrations(ctx context.Context, tournamentID uuid.UUID) ([]models.Registration, error)
	// GenerateBracket строит первый раунд сетки и закрывает регистрацию.
	// Вся сетка создаётся в одной транзакции: либо целиком, либо никак.
	GenerateBracket(ctx context.Context, tournamentID, callerID uuid.UUID) ([]models.Match, error)
}

type CreateTournamentInput struct {
	Name       string      `json:"name"`
	Lane       models.Lane `json:"lane"`
	MaxPlayers int         `json:"max_players"`
}

type tournamentService struct {
	tournamentRepo   repositories.TournamentRepository
	registrationRepo repositories.RegistrationRepository
	matchRepo        repositories.MatchRepository
	txManager        repositories.TxManager
	pairer           pairing.Pairer
	broadcaster      Broadcaster
	logger           *slog.Logger
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	registrationRepo repositories.RegistrationRepository,
	matchRepo repositories.MatchRepository,
	txManager repositories.TxManager,
	pairer pairing.Pairer,
	broadcaster Broadcaster,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		tournamentRepo:   tournamentRepo,
		registrationRepo: registrationRepo,
		matchRepo:        matchRepo,
		txManager:        txManager,
		pairer:           pairer,
		broadcaster:      broadcaster,
		logger:           logger,
	}
}

func (s *tournamentService) Create(ctx context.Context, callerID uuid.UUID, input CreateTournamentInput) (*models.Tournament, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, fmt.Errorf("%w: tournament name is required", ErrValidationFailed)
	}
	if !input.Lane.Valid() {
		return nil, ErrInvalidLane
	}
	if input.MaxPlayers < 2 {
		return nil, fmt.Errorf("%w: max_players must be at least 2", ErrValidationFailed)
	}

	tournament := &models.Tournament{
		Name:             input.Name,
		Lane:             input.Lane,
		MaxPlayers:       input.MaxPlayers,
		RegistrationOpen: true,
		CreatedBy:        callerID,
	}
	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	return tournament, nil
}

func (s *tournamentService) GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return tournament, nil
}

func (s *tournamentService) List(ctx context.Context) ([]models.Tournament, error) {
	return s.tournamentRepo.List(ctx)
}

func (s *tournamentService) Register(ctx context.Context, tournamentID, callerID uuid.UUID, champion string) (*models.Registration, error) {
	champion = strings.TrimSpace(champion)
	if champion == "" {
		return nil, fmt.Errorf("%w: champion is required", ErrValidationFailed)
	}

	registration := &models.Registration{
		TournamentID: tournamentID,
		UserID:       callerID,
		Champion:     champion,
	}
	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		// Блокировка строки турнира сериализует конкурентные регистрации:
		// без неё две одновременные заявки проходят проверку вместимости
		// и переполняют max_players.
		tournament, txErr := s.tournamentRepo.GetByIDForUpdate(ctx, exec, tournamentID)
		if txErr != nil {
			if errors.Is(txErr, repositories.ErrTournamentNotFound) {
				return ErrTournamentNotFound
			}
			return txErr
		}
		if !tournament.RegistrationOpen {
			return ErrRegistrationClosed
		}

		count, txErr := s.registrationRepo.CountByTournament(ctx, exec, tournamentID)
		if txErr != nil {
			return fmt.Errorf("failed to count registrations: %w", txErr)
		}
		if count >= tournament.MaxPlayers {
			return ErrTournamentFull
		}

		if txErr := s.registrationRepo.Create(ctx, exec, registration); txErr != nil {
			if errors.Is(txErr, repositories.ErrRegistrationConflict) {
				return ErrRegistrationConflict
			}
			return fmt.Errorf("failed to create registration: %w", txErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return registration, nil
}

func (s *tournamentService) ListRegistrations(ctx context.Context, tournamentID uuid.UUID) ([]models.Registration, error) {
	if _, err := s.GetByID(ctx, tournamentID); err != nil {
		return nil, err
	}
	return s.registrationRepo.ListByTournament(ctx, tournamentID)
}

func (s *tournamentService) GenerateBracket(ctx context.Context, tournamentID, callerID uuid.UUID) ([]models.Match, error) {
	tournament, err := s.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if !tournament.RegistrationOpen {
		return nil, ErrRegistrationClosed
	}

	registrations, err := s.registrationRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	if len(registrations) < 2 {
		return nil, ErrInsufficientPlayers
	}

	players := make([]pairing.Player, 0, len(registrations))
	for _, reg := range registrations {
		name := reg.UserID.String()
		if reg.User != nil {
			name = reg.User.DisplayName
		}
		players = append(players, pairing.Player{
			ID:       reg.ID,
			Name:     name,
			Champion: reg.Champion,
		})
	}

	// Пейрер — внешний вызов, держать транзакцию открытой на нём нельзя.
	result, err := s.pairer.Pair(ctx, players)
	if err != nil {
		return nil, fmt.Errorf("%w: pairer %s: %v", ErrExternalService, s.pairer.GetName(), err)
	}
	if err := validatePairing(result, registrations); err != nil {
		return nil, err
	}

	matches := make([]models.Match, 0, len(result.Pairs)+1)
	err = s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		for _, pair := range result.Pairs {
			p1, p2 := pair.Player1, pair.Player2
			match := models.Match{
				TournamentID:          tournamentID,
				Round:                 1,
				Player1RegistrationID: &p1,
				Player2RegistrationID: &p2,
			}
			if txErr := s.matchRepo.Create(ctx, exec, &match); txErr != nil {
				return fmt.Errorf("failed to create match: %w", txErr)
			}
			matches = append(matches, match)
		}

		if result.Bye != nil {
			// Bye-матч создаётся сразу подтверждённым с победителем player1.
			bye := *result.Bye
			match := models.Match{
				TournamentID:          tournamentID,
				Round:                 1,
				Player1RegistrationID: &bye,
				WinnerRegistrationID:  &bye,
				Verified:              true,
			}
			if txErr := s.matchRepo.Create(ctx, exec, &match); txErr != nil {
				return fmt.Errorf("failed to create bye match: %w", txErr)
			}
			matches = append(matches, match)
		}

		if txErr := s.tournamentRepo.CloseRegistration(ctx, exec, tournamentID); txErr != nil {
			if errors.Is(txErr, repositories.ErrTournamentRegistrationClosed) {
				return ErrRegistrationClosed
			}
			return txErr
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("bracket generated",
		slog.String("tournament_id", tournamentID.String()),
		slog.String("pairer", s.pairer.GetName()),
		slog.Int("matches", len(matches)),
		slog.String("caller_id", callerID.String()),
	)
	s.broadcaster.BroadcastToRoom(tournamentID.String(), live.EventBracketGenerated, matches)

	return matches, nil
}

// validatePairing проверяет ответ пейрера структурно: каждый id из ответа
// принадлежит множеству заявок, используется не более одного раза, и вместе
// пары с bye покрывают все заявки.
func validatePairing(result *pairing.Result, registrations []models.Registration) error {
	if result == nil {
		return fmt.Errorf("%w: empty result", ErrInvalidPairingResponse)
	}

	known := make(map[uuid.UUID]bool, len(registrations))
	for _, reg := range registrations {
		known[reg.ID] = true
	}

	used := make(map[uuid.UUID]bool, len(registrations))
	take := func(id uuid.UUID) error {
		if !known[id] {
			return fmt.Errorf("%w: unknown registration %s", ErrInvalidPairingResponse, id)
		}
		if used[id] {
			return fmt.Errorf("%w: registration %s used twice", ErrInvalidPairingResponse, id)
		}
		used[id] = true
		return nil
	}

	for _, pair := range result.Pairs {
		if err := take(pair.Player1); err != nil {
			return err
		}
		if err := take(pair.Player2); err != nil {
			return err
		}
	}
	if result.Bye != nil {
		if err := take(*result.Bye); err != nil {
			return err
		}
	}

	if len(used) != len(registrations) {
		return fmt.Errorf("%w: %d of %d registrations covered", ErrInvalidPairingResponse, len(used), len(registrations))
	}
	return nil
}
