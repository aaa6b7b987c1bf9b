package models

import (
	"time"

	"github.com/google/uuid"
)

// UserRole представляет уровень доступа пользователя, соответствует ENUM в БД.
type UserRole string

const (
	RoleUser      UserRole = "user"
	RoleModerator UserRole = "moderator"
	RoleAdmin     UserRole = "admin"
)

// roleRank задаёт порядок ролей: user < moderator < admin.
var roleRank = map[UserRole]int{
	RoleUser:      1,
	RoleModerator: 2,
	RoleAdmin:     3,
}

// Valid сообщает, является ли значение одной из известных ролей.
func (r UserRole) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// HasAtLeast возвращает true, если роль r не ниже минимально требуемой.
// Неизвестные роли ранга не имеют и никогда не проходят проверку.
func (r UserRole) HasAtLeast(min UserRole) bool {
	rr, ok := roleRank[r]
	if !ok {
		return false
	}
	mr, ok := roleRank[min]
	if !ok {
		return false
	}
	return rr >= mr
}

type User struct {
	ID               uuid.UUID `json:"id"`
	Email            string    `json:"email"`
	DisplayName      string    `json:"display_name"`
	PasswordHash     string    `json:"-"`
	SPPoints         int       `json:"sp_points"`
	Role             UserRole  `json:"role"`
	RiotSummonerName *string   `json:"riot_summoner_name,omitempty"`
	IsVerified       bool      `json:"is_verified"`
	CreatedAt        time.Time `json:"created_at"`
}
