package models

import (
	"time"

	"github.com/google/uuid"
)

type GameType string

const (
	GameTypeOneVsOne   GameType = "1v1"
	GameTypeFiveVsFive GameType = "5v5"
)

func (t GameType) Valid() bool {
	return t == GameTypeOneVsOne || t == GameTypeFiveVsFive
}

// PlayersPerTeam — вместимость одной команды.
func (t GameType) PlayersPerTeam() int {
	if t == GameTypeFiveVsFive {
		return 5
	}
	return 1
}

// RequiredPlayers — сколько игроков нужно, чтобы игра стартовала.
func (t GameType) RequiredPlayers() int {
	return t.PlayersPerTeam() * 2
}

// GameStatus — состояние кастомной игры.
// OPEN -> IN_PROGRESS -> COMPLETED. DISPUTED зарезервирован под будущий
// механизм споров и из кода недостижим.
type GameStatus string

const (
	GameStatusOpen       GameStatus = "OPEN"
	GameStatusInProgress GameStatus = "IN_PROGRESS"
	GameStatusCompleted  GameStatus = "COMPLETED"
	GameStatusDisputed   GameStatus = "DISPUTED"
)

type CustomGame struct {
	ID          uuid.UUID  `json:"id"`
	Type        GameType   `json:"type"`
	WagerAmount int        `json:"wager_amount"`
	Status      GameStatus `json:"status"`
	CreatorID   uuid.UUID  `json:"creator_id"`
	WinnerTeam  *int       `json:"winner_team,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`

	Players []GamePlayer `json:"players,omitempty"`
}

// GamePlayer — участие пользователя в игре. Уникален по паре (game_id, user_id).
type GamePlayer struct {
	ID       uuid.UUID `json:"id"`
	GameID   uuid.UUID `json:"game_id"`
	UserID   uuid.UUID `json:"user_id"`
	Team     int       `json:"team"`
	JoinedAt time.Time `json:"joined_at"`

	User *User `json:"user,omitempty"`
}
