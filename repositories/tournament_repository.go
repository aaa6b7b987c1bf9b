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
	ErrTournamentNotFound       = errors.New("tournament not found")
	ErrTournamentCreatorInvalid = errors.New("tournament creator conflict or invalid")
	// Регистрация уже закрыта — сетка была сгенерирована ранее.
	ErrTournamentRegistrationClosed = errors.New("tournament registration already closed")
)

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error)
	// GetByIDForUpdate берёт строку турнира под блокировку FOR UPDATE внутри exec.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Tournament, error)
	// List возвращает турниры вместе со счётчиком регистраций.
	List(ctx context.Context) ([]models.Tournament, error)
	// CloseRegistration закрывает регистрацию ровно один раз: если флаг уже
	// снят, возвращает ErrTournamentRegistrationClosed.
	CloseRegistration(ctx context.Context, exec SQLExecutor, id uuid.UUID) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) Create(ctx context.Context, tournament *models.Tournament) error {
	query := `
		INSERT INTO tournaments (name, lane, max_players, registration_open, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		tournament.Name,
		tournament.Lane,
		tournament.MaxPlayers,
		tournament.RegistrationOpen,
		tournament.CreatedBy,
	).Scan(&tournament.ID, &tournament.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			if pqErr.Constraint == "tournaments_created_by_fkey" {
				return ErrTournamentCreatorInvalid
			}
		}
		return err
	}
	return nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	query := `
		SELECT id, name, lane, max_players, registration_open, created_by, created_at
		FROM tournaments
		WHERE id = $1`

	t := &models.Tournament{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID,
		&t.Name,
		&t.Lane,
		&t.MaxPlayers,
		&t.RegistrationOpen,
		&t.CreatedBy,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament %s: %w", id, err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Tournament, error) {
	query := `
		SELECT id, name, lane, max_players, registration_open, created_by, created_at
		FROM tournaments
		WHERE id = $1
		FOR UPDATE`

	t := &models.Tournament{}
	err := exec.QueryRowContext(ctx, query, id).Scan(
		&t.ID,
		&t.Name,
		&t.Lane,
		&t.MaxPlayers,
		&t.RegistrationOpen,
		&t.CreatedBy,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament %s: %w", id, err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context) ([]models.Tournament, error) {
	query := `
		SELECT t.id, t.name, t.lane, t.max_players, t.registration_open, t.created_by, t.created_at,
		       COUNT(reg.id)
		FROM tournaments t
		LEFT JOIN registrations reg ON reg.tournament_id = t.id
		GROUP BY t.id
		ORDER BY t.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if scanErr := rows.Scan(
			&t.ID,
			&t.Name,
			&t.Lane,
			&t.MaxPlayers,
			&t.RegistrationOpen,
			&t.CreatedBy,
			&t.CreatedAt,
			&t.RegistrationCount,
		); scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) CloseRegistration(ctx context.Context, exec SQLExecutor, id uuid.UUID) error {
	query := `
		UPDATE tournaments
		SET registration_open = FALSE
		WHERE id = $1 AND registration_open = TRUE`

	result, err := exec.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to close registration for tournament %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		var exists bool
		if scanErr := exec.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM tournaments WHERE id = $1)`, id).Scan(&exists); scanErr != nil {
			return scanErr
		}
		if !exists {
			return ErrTournamentNotFound
		}
		return ErrTournamentRegistrationClosed
	}
	return nil
}
