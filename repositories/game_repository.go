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
	ErrGameNotFound         = errors.New("custom game not found")
	ErrGamePlayerConflict   = errors.New("user already joined this game")
	ErrGameReferenceInvalid = errors.New("game user conflict or invalid")
	ErrGameAlreadyCompleted = errors.New("custom game already completed")
)

type GameRepository interface {
	Create(ctx context.Context, game *models.CustomGame) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.CustomGame, error)
	// GetByIDForUpdate берёт строку игры под блокировку FOR UPDATE внутри exec.
	// Конкурентные join/verify на одну игру сериализуются на этой блокировке.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.CustomGame, error)
	List(ctx context.Context, status *models.GameStatus) ([]models.CustomGame, error)
	Count(ctx context.Context) (int, error)
	AddPlayer(ctx context.Context, exec SQLExecutor, player *models.GamePlayer) error
	ListPlayers(ctx context.Context, exec SQLExecutor, gameID uuid.UUID) ([]models.GamePlayer, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id uuid.UUID, status models.GameStatus) error
	// Complete помечает игру завершённой и фиксирует команду-победителя;
	// уже завершённую игру повторно завершить нельзя.
	Complete(ctx context.Context, exec SQLExecutor, id uuid.UUID, winnerTeam int) error
	Delete(ctx context.Context, exec SQLExecutor, id uuid.UUID) error
	DeletePlayersByGame(ctx context.Context, exec SQLExecutor, gameID uuid.UUID) error
}

type postgresGameRepository struct {
	db *sql.DB
}

func NewPostgresGameRepository(db *sql.DB) GameRepository {
	return &postgresGameRepository{db: db}
}

const gameColumns = `id, type, wager_amount, status, creator_id, winner_team, created_at`

func (r *postgresGameRepository) Create(ctx context.Context, game *models.CustomGame) error {
	query := `
		INSERT INTO custom_games (type, wager_amount, status, creator_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		game.Type,
		game.WagerAmount,
		game.Status,
		game.CreatorID,
	).Scan(&game.ID, &game.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrGameReferenceInvalid
		}
		return err
	}
	return nil
}

func (r *postgresGameRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CustomGame, error) {
	query := `SELECT ` + gameColumns + ` FROM custom_games WHERE id = $1`
	return scanGame(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresGameRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.CustomGame, error) {
	query := `SELECT ` + gameColumns + ` FROM custom_games WHERE id = $1 FOR UPDATE`
	return scanGame(exec.QueryRowContext(ctx, query, id))
}

func (r *postgresGameRepository) List(ctx context.Context, status *models.GameStatus) ([]models.CustomGame, error) {
	query := `SELECT ` + gameColumns + ` FROM custom_games`
	args := []interface{}{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query custom games: %w", err)
	}
	defer rows.Close()

	games := make([]models.CustomGame, 0)
	for rows.Next() {
		game, scanErr := scanGame(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan custom game row: %w", scanErr)
		}
		games = append(games, *game)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return games, nil
}

func (r *postgresGameRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM custom_games`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count custom games: %w", err)
	}
	return count, nil
}

func (r *postgresGameRepository) AddPlayer(ctx context.Context, exec SQLExecutor, player *models.GamePlayer) error {
	query := `
		INSERT INTO game_players (game_id, user_id, team)
		VALUES ($1, $2, $3)
		RETURNING id, joined_at`

	err := exec.QueryRowContext(ctx, query,
		player.GameID,
		player.UserID,
		player.Team,
	).Scan(&player.ID, &player.JoinedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "game_players_game_id_user_id_key" {
					return ErrGamePlayerConflict
				}
			case "23503":
				return ErrGameReferenceInvalid
			}
		}
		return err
	}
	return nil
}

func (r *postgresGameRepository) ListPlayers(ctx context.Context, exec SQLExecutor, gameID uuid.UUID) ([]models.GamePlayer, error) {
	query := `
		SELECT gp.id, gp.game_id, gp.user_id, gp.team, gp.joined_at,
		       u.id, u.email, u.display_name, u.sp_points, u.role, u.riot_summoner_name, u.is_verified, u.created_at
		FROM game_players gp
		JOIN users u ON u.id = gp.user_id
		WHERE gp.game_id = $1
		ORDER BY gp.joined_at ASC`

	rows, err := exec.QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to query players for game %s: %w", gameID, err)
	}
	defer rows.Close()

	players := make([]models.GamePlayer, 0)
	for rows.Next() {
		var p models.GamePlayer
		var u models.User
		if scanErr := rows.Scan(
			&p.ID, &p.GameID, &p.UserID, &p.Team, &p.JoinedAt,
			&u.ID, &u.Email, &u.DisplayName, &u.SPPoints, &u.Role, &u.RiotSummonerName, &u.IsVerified, &u.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan game player row: %w", scanErr)
		}
		p.User = &u
		players = append(players, p)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return players, nil
}

func (r *postgresGameRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id uuid.UUID, status models.GameStatus) error {
	result, err := exec.ExecContext(ctx, `UPDATE custom_games SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update status for game %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) Complete(ctx context.Context, exec SQLExecutor, id uuid.UUID, winnerTeam int) error {
	query := `
		UPDATE custom_games
		SET status = $1, winner_team = $2
		WHERE id = $3 AND status <> $1`

	result, err := exec.ExecContext(ctx, query, models.GameStatusCompleted, winnerTeam, id)
	if err != nil {
		return fmt.Errorf("failed to complete game %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		var exists bool
		if scanErr := exec.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM custom_games WHERE id = $1)`, id).Scan(&exists); scanErr != nil {
			return scanErr
		}
		if !exists {
			return ErrGameNotFound
		}
		return ErrGameAlreadyCompleted
	}
	return nil
}

func (r *postgresGameRepository) Delete(ctx context.Context, exec SQLExecutor, id uuid.UUID) error {
	result, err := exec.ExecContext(ctx, `DELETE FROM custom_games WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) DeletePlayersByGame(ctx context.Context, exec SQLExecutor, gameID uuid.UUID) error {
	_, err := exec.ExecContext(ctx, `DELETE FROM game_players WHERE game_id = $1`, gameID)
	if err != nil {
		return fmt.Errorf("failed to delete players for game %s: %w", gameID, err)
	}
	return nil
}

func scanGame(row rowScanner) (*models.CustomGame, error) {
	game := &models.CustomGame{}
	err := row.Scan(
		&game.ID,
		&game.Type,
		&game.WagerAmount,
		&game.Status,
		&game.CreatorID,
		&game.WinnerTeam,
		&game.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	return game, nil
}
