package models

import (
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionDeposit    TransactionType = "DEPOSIT"
	TransactionWithdrawal TransactionType = "WITHDRAWAL"
	TransactionWagerWin   TransactionType = "WAGER_WIN"
	TransactionWagerLoss  TransactionType = "WAGER_LOSS"
	TransactionPurchase   TransactionType = "PURCHASE"
)

// Transaction — неизменяемая запись аудита движения SP. Записи только
// добавляются; сумма Amount по пользователю всегда равна его sp_points.
type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	Amount      int             `json:"amount"`
	Type        TransactionType `json:"type"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
