package models

import (
	"time"

	"github.com/google/uuid"
)

type StoreItem struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	SPCost      int       `json:"sp_cost"`
	ItemType    string    `json:"item_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// Redemption — заявка на выдачу купленного товара, отслеживается админами.
type Redemption struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ItemID    uuid.UUID `json:"item_id"`
	EmailSent bool      `json:"email_sent"`
	Fulfilled bool      `json:"fulfilled"`
	CreatedAt time.Time `json:"created_at"`

	User *User      `json:"user,omitempty"`
	Item *StoreItem `json:"item,omitempty"`
}
