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
	ErrStoreItemNotFound  = errors.New("store item not found")
	ErrRedemptionNotFound = errors.New("redemption not found")
)

type StoreRepository interface {
	CreateItem(ctx context.Context, item *models.StoreItem) error
	GetItemByID(ctx context.Context, id uuid.UUID) (*models.StoreItem, error)
	ListItems(ctx context.Context) ([]models.StoreItem, error)
	CountItems(ctx context.Context) (int, error)

	CreateRedemption(ctx context.Context, exec SQLExecutor, redemption *models.Redemption) error
	// ListRedemptions подгружает пользователя и товар по каждой заявке.
	ListRedemptions(ctx context.Context, pendingOnly bool) ([]models.Redemption, error)
	CountPendingRedemptions(ctx context.Context) (int, error)
	MarkEmailSent(ctx context.Context, id uuid.UUID) error
	MarkFulfilled(ctx context.Context, id uuid.UUID) error
}

type postgresStoreRepository struct {
	db *sql.DB
}

func NewPostgresStoreRepository(db *sql.DB) StoreRepository {
	return &postgresStoreRepository{db: db}
}

func (r *postgresStoreRepository) CreateItem(ctx context.Context, item *models.StoreItem) error {
	query := `
		INSERT INTO store_items (name, description, sp_cost, item_type)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		item.Name,
		item.Description,
		item.SPCost,
		item.ItemType,
	).Scan(&item.ID, &item.CreatedAt)
}

func (r *postgresStoreRepository) GetItemByID(ctx context.Context, id uuid.UUID) (*models.StoreItem, error) {
	query := `
		SELECT id, name, description, sp_cost, item_type, created_at
		FROM store_items
		WHERE id = $1`

	item := &models.StoreItem{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID,
		&item.Name,
		&item.Description,
		&item.SPCost,
		&item.ItemType,
		&item.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStoreItemNotFound
		}
		return nil, fmt.Errorf("failed to scan store item %s: %w", id, err)
	}
	return item, nil
}

func (r *postgresStoreRepository) ListItems(ctx context.Context) ([]models.StoreItem, error) {
	query := `
		SELECT id, name, description, sp_cost, item_type, created_at
		FROM store_items
		ORDER BY sp_cost ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query store items: %w", err)
	}
	defer rows.Close()

	items := make([]models.StoreItem, 0)
	for rows.Next() {
		var item models.StoreItem
		if scanErr := rows.Scan(
			&item.ID,
			&item.Name,
			&item.Description,
			&item.SPCost,
			&item.ItemType,
			&item.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *postgresStoreRepository) CountItems(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM store_items`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count store items: %w", err)
	}
	return count, nil
}

func (r *postgresStoreRepository) CreateRedemption(ctx context.Context, exec SQLExecutor, redemption *models.Redemption) error {
	query := `
		INSERT INTO redemptions (user_id, item_id, email_sent, fulfilled)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		redemption.UserID,
		redemption.ItemID,
		redemption.EmailSent,
		redemption.Fulfilled,
	).Scan(&redemption.ID, &redemption.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			if pqErr.Constraint == "redemptions_item_id_fkey" {
				return ErrStoreItemNotFound
			}
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

func (r *postgresStoreRepository) ListRedemptions(ctx context.Context, pendingOnly bool) ([]models.Redemption, error) {
	query := `
		SELECT red.id, red.user_id, red.item_id, red.email_sent, red.fulfilled, red.created_at,
		       u.id, u.email, u.display_name, u.sp_points, u.role, u.riot_summoner_name, u.is_verified, u.created_at,
		       i.id, i.name, i.description, i.sp_cost, i.item_type, i.created_at
		FROM redemptions red
		JOIN users u ON u.id = red.user_id
		JOIN store_items i ON i.id = red.item_id`
	if pendingOnly {
		query += ` WHERE red.fulfilled = FALSE`
	}
	query += ` ORDER BY red.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query redemptions: %w", err)
	}
	defer rows.Close()

	redemptions := make([]models.Redemption, 0)
	for rows.Next() {
		var red models.Redemption
		var user models.User
		var item models.StoreItem
		if scanErr := rows.Scan(
			&red.ID, &red.UserID, &red.ItemID, &red.EmailSent, &red.Fulfilled, &red.CreatedAt,
			&user.ID, &user.Email, &user.DisplayName, &user.SPPoints, &user.Role, &user.RiotSummonerName, &user.IsVerified, &user.CreatedAt,
			&item.ID, &item.Name, &item.Description, &item.SPCost, &item.ItemType, &item.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan redemption row: %w", scanErr)
		}
		red.User = &user
		red.Item = &item
		redemptions = append(redemptions, red)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return redemptions, nil
}

func (r *postgresStoreRepository) CountPendingRedemptions(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM redemptions WHERE fulfilled = FALSE`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending redemptions: %w", err)
	}
	return count, nil
}

func (r *postgresStoreRepository) MarkEmailSent(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `UPDATE redemptions SET email_sent = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRedemptionNotFound)
}

func (r *postgresStoreRepository) MarkFulfilled(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `UPDATE redemptions SET fulfilled = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRedemptionNotFound)
}
