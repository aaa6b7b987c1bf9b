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
	ErrUserNotFound          = errors.New("user not found")
	ErrUserEmailConflict     = errors.New("user email conflict")
	ErrUserInsufficientFunds = errors.New("user has insufficient sp points")
)

type UserRepository interface {
	// Create выполняется внутри exec: вставка пользователя и запись
	// стартового депозита идут одной транзакцией.
	Create(ctx context.Context, exec SQLExecutor, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// GetByIDForUpdate читает пользователя под блокировкой FOR UPDATE внутри exec.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Count(ctx context.Context) (int, error)
	TotalSPPoints(ctx context.Context) (int, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	// AdjustSPPoints атомарно изменяет баланс на delta внутри exec.
	// Отрицательная delta с недостаточным балансом возвращает
	// ErrUserInsufficientFunds, баланс при этом не меняется.
	AdjustSPPoints(ctx context.Context, exec SQLExecutor, id uuid.UUID, delta int) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

const userColumns = `id, email, display_name, password_hash, sp_points, role, riot_summoner_name, is_verified, created_at`

func (r *postgresUserRepository) Create(ctx context.Context, exec SQLExecutor, user *models.User) error {
	query := `
		INSERT INTO users (email, display_name, password_hash, sp_points, role, riot_summoner_name, is_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		user.Email,
		user.DisplayName,
		user.PasswordHash,
		user.SPPoints,
		user.Role,
		user.RiotSummonerName,
		user.IsVerified,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "users_email_key" {
				return ErrUserEmailConflict
			}
		}
		return err
	}
	return nil
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(ctx, query, id)
}

func (r *postgresUserRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`

	user := &models.User{}
	err := exec.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.PasswordHash,
		&user.SPPoints,
		&user.Role,
		&user.RiotSummonerName,
		&user.IsVerified,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *postgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(ctx, query, email)
}

func (r *postgresUserRepository) List(ctx context.Context) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		var user models.User
		if scanErr := rows.Scan(
			&user.ID,
			&user.Email,
			&user.DisplayName,
			&user.PasswordHash,
			&user.SPPoints,
			&user.Role,
			&user.RiotSummonerName,
			&user.IsVerified,
			&user.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		users = append(users, user)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *postgresUserRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

func (r *postgresUserRepository) TotalSPPoints(ctx context.Context) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(sp_points), 0) FROM users`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum sp points: %w", err)
	}
	return total, nil
}

func (r *postgresUserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users SET
			display_name = $1,
			role = $2,
			riot_summoner_name = $3,
			is_verified = $4
		WHERE id = $5`

	result, err := r.db.ExecContext(ctx, query,
		user.DisplayName,
		user.Role,
		user.RiotSummonerName,
		user.IsVerified,
		user.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) AdjustSPPoints(ctx context.Context, exec SQLExecutor, id uuid.UUID, delta int) error {
	// Условие sp_points + delta >= 0 держит инвариант неотрицательного баланса
	// прямо в БД: проигравший гонку конкурентный дебет не пройдёт.
	query := `
		UPDATE users
		SET sp_points = sp_points + $1
		WHERE id = $2 AND sp_points + $1 >= 0`

	result, err := exec.ExecContext(ctx, query, delta, id)
	if err != nil {
		return fmt.Errorf("failed to adjust sp points for user %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		// Либо пользователя нет, либо не хватило баланса — различаем отдельным запросом.
		var exists bool
		if scanErr := exec.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); scanErr != nil {
			return fmt.Errorf("failed to resolve sp adjustment failure for user %s: %w", id, scanErr)
		}
		if !exists {
			return ErrUserNotFound
		}
		return ErrUserInsufficientFunds
	}
	return nil
}

func (r *postgresUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) scanUser(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.PasswordHash,
		&user.SPPoints,
		&user.Role,
		&user.RiotSummonerName,
		&user.IsVerified,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
