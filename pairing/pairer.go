package pairing

import (
	"context"

	"github.com/google/uuid"
)

// Player — участник, передаваемый пейреру: заявка, отображаемое имя
// и выбранный чемпион (по нему пейрер оценивает контр-пики).
type Player struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Champion string    `json:"champion"`
}

type Pair struct {
	Player1 uuid.UUID `json:"player1"`
	Player2 uuid.UUID `json:"player2"`
}

// Result — структура первого раунда: пары плюс не более одного bye.
type Result struct {
	Pairs []Pair     `json:"pairs"`
	Bye   *uuid.UUID `json:"bye,omitempty"`
}

// Pairer формирует пары первого раунда. Реализация внешняя и ей не
// доверяют структурно: движок сетки сам проверяет, что все id из ответа
// принадлежат входному списку.
type Pairer interface {
	Pair(ctx context.Context, players []Player) (*Result, error)

	GetName() string
}
