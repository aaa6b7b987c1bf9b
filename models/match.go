package models

import (
	"time"

	"github.com/google/uuid"
)

// Match — матч первого (и пока единственного) раунда сетки.
// Player2RegistrationID равен nil для bye-матча: такой матч создаётся сразу
// подтверждённым, с победителем player1, и повторной верификации не требует.
type Match struct {
	ID                    uuid.UUID  `json:"id"`
	TournamentID          uuid.UUID  `json:"tournament_id"`
	Round                 int        `json:"round"`
	Player1RegistrationID *uuid.UUID `json:"player1_registration_id,omitempty"`
	Player2RegistrationID *uuid.UUID `json:"player2_registration_id,omitempty"`
	WinnerRegistrationID  *uuid.UUID `json:"winner_registration_id,omitempty"`
	RiotMatchID           *string    `json:"riot_match_id,omitempty"`
	ProofKey              *string    `json:"-"`
	ProofURL              *string    `json:"proof_url,omitempty"`
	Verified              bool       `json:"verified"`
	CreatedAt             time.Time  `json:"created_at"`

	Player1 *Registration `json:"player1,omitempty"`
	Player2 *Registration `json:"player2,omitempty"`
	Winner  *Registration `json:"winner,omitempty"`
}

// IsBye сообщает, что матч был создан без второго участника.
func (m *Match) IsBye() bool {
	return m.Player1RegistrationID != nil && m.Player2RegistrationID == nil
}
