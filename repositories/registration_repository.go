package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/rift-arena/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrRegistrationNotFound = errors.New("registration not found")
	// Пользователь уже зарегистрирован на этот турнир.
	ErrRegistrationConflict      = errors.New("user is already registered for this tournament")
	ErrRegistrationTargetInvalid = errors.New("registration tournament or user conflict or invalid")
)

type RegistrationRepository interface {
	// Create выполняется внутри exec: вставка и проверка вместимости турнира
	// идут одной транзакцией под блокировкой строки турнира.
	Create(ctx context.Context, exec SQLExecutor, registration *models.Registration) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error)
	// ListByTournament возвращает заявки вместе с данными пользователей.
	ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]models.Registration, error)
	CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) (int, error)
}

type postgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

func (r *postgresRegistrationRepository) Create(ctx context.Context, exec SQLExecutor, registration *models.Registration) error {
	query := `
		INSERT INTO registrations (tournament_id, user_id, champion)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		registration.TournamentID,
		registration.UserID,
		registration.Champion,
	).Scan(&registration.ID, &registration.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "registrations_tournament_id_user_id_key" {
					return ErrRegistrationConflict
				}
			case "23503": // foreign_key_violation
				return ErrRegistrationTargetInvalid
			}
		}
		return err
	}
	return nil
}

func (r *postgresRegistrationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	query := `
		SELECT reg.id, reg.tournament_id, reg.user_id, reg.champion, reg.created_at,
		       u.id, u.email, u.display_name, u.sp_points, u.role, u.riot_summoner_name, u.is_verified, u.created_at
		FROM registrations reg
		JOIN users u ON u.id = reg.user_id
		WHERE reg.id = $1`

	row := r.db.QueryRowContext(ctx, query, id)
	reg, err := scanRegistrationWithUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to scan registration %s: %w", id, err)
	}
	return reg, nil
}

func (r *postgresRegistrationRepository) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]models.Registration, error) {
	query := `
		SELECT reg.id, reg.tournament_id, reg.user_id, reg.champion, reg.created_at,
		       u.id, u.email, u.display_name, u.sp_points, u.role, u.riot_summoner_name, u.is_verified, u.created_at
		FROM registrations reg
		JOIN users u ON u.id = reg.user_id
		WHERE reg.tournament_id = $1
		ORDER BY reg.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query registrations for tournament %s: %w", tournamentID, err)
	}
	defer rows.Close()

	registrations := make([]models.Registration, 0)
	for rows.Next() {
		reg, scanErr := scanRegistrationWithUser(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan registration row: %w", scanErr)
		}
		registrations = append(registrations, *reg)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return registrations, nil
}

func (r *postgresRegistrationRepository) CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) (int, error) {
	var count int
	err := exec.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM registrations WHERE tournament_id = $1`, tournamentID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count registrations: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRegistrationWithUser(row rowScanner) (*models.Registration, error) {
	var reg models.Registration
	var user models.User
	err := row.Scan(
		&reg.ID,
		&reg.TournamentID,
		&reg.UserID,
		&reg.Champion,
		&reg.CreatedAt,
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.SPPoints,
		&user.Role,
		&user.RiotSummonerName,
		&user.IsVerified,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	reg.User = &user
	return &reg, nil
}
