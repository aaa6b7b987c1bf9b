package models

import (
	"time"

	"github.com/google/uuid"
)

// Lane — позиция, под которую проводится турнир.
type Lane string

const (
	LaneTop     Lane = "top"
	LaneJungle  Lane = "jungle"
	LaneMid     Lane = "mid"
	LaneADC     Lane = "adc"
	LaneSupport Lane = "support"
)

func (l Lane) Valid() bool {
	switch l {
	case LaneTop, LaneJungle, LaneMid, LaneADC, LaneSupport:
		return true
	}
	return false
}

// Tournament представляет турнир. RegistrationOpen переводится в false
// ровно один раз — при генерации сетки.
type Tournament struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Lane             Lane      `json:"lane"`
	MaxPlayers       int       `json:"max_players"`
	RegistrationOpen bool      `json:"registration_open"`
	CreatedBy        uuid.UUID `json:"created_by"`
	CreatedAt        time.Time `json:"created_at"`

	// Заполняется только при явном запросе со счётчиком.
	RegistrationCount int `json:"registration_count,omitempty"`
}

// Registration — заявка пользователя на турнир с выбранным чемпионом.
// Уникальна по паре (tournament_id, user_id).
type Registration struct {
	ID           uuid.UUID `json:"id"`
	TournamentID uuid.UUID `json:"tournament_id"`
	UserID       uuid.UUID `json:"user_id"`
	Champion     string    `json:"champion"`
	CreatedAt    time.Time `json:"created_at"`

	User *User `json:"user,omitempty"`
}
