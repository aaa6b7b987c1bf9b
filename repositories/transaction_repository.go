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

var ErrTransactionUserInvalid = errors.New("transaction user conflict or invalid")

// TransactionRepository — журнал движения SP. Только вставка и чтение:
// записи аудита никогда не обновляются и не удаляются.
type TransactionRepository interface {
	Create(ctx context.Context, exec SQLExecutor, transaction *models.Transaction) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error)
	SumByUser(ctx context.Context, userID uuid.UUID) (int, error)
}

type postgresTransactionRepository struct {
	db *sql.DB
}

func NewPostgresTransactionRepository(db *sql.DB) TransactionRepository {
	return &postgresTransactionRepository{db: db}
}

func (r *postgresTransactionRepository) Create(ctx context.Context, exec SQLExecutor, transaction *models.Transaction) error {
	query := `
		INSERT INTO transactions (user_id, amount, type, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		transaction.UserID,
		transaction.Amount,
		transaction.Type,
		transaction.Description,
	).Scan(&transaction.ID, &transaction.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrTransactionUserInvalid
		}
		return err
	}
	return nil
}

func (r *postgresTransactionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error) {
	query := `
		SELECT id, user_id, amount, type, description, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions for user %s: %w", userID, err)
	}
	defer rows.Close()

	transactions := make([]models.Transaction, 0)
	for rows.Next() {
		var t models.Transaction
		if scanErr := rows.Scan(
			&t.ID,
			&t.UserID,
			&t.Amount,
			&t.Type,
			&t.Description,
			&t.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		transactions = append(transactions, t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return transactions, nil
}

func (r *postgresTransactionRepository) SumByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var sum int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE user_id = $1`, userID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum transactions for user %s: %w", userID, err)
	}
	return sum, nil
}
