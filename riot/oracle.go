// Package riot абстрагирует проверку результатов матчей через Riot API.
// Реальный клиент Match-V5 сюда ещё не подключён; сервисный слой зависит
// только от интерфейса Oracle.
package riot

import "context"

// Winner — исход матча в терминах слотов матча, не конкретных игроков.
type Winner string

const (
	WinnerPlayer1 Winner = "player1"
	WinnerPlayer2 Winner = "player2"
)

// Oracle authoritative-источник результата: подтверждает, что матч состоялся
// и заявитель играл заявленным чемпионом, и решает, кто победил.
type Oracle interface {
	// Verify возвращает false, когда матч не проходит проверку — это
	// бизнес-исход; ошибка означает сбой самого оракула.
	Verify(ctx context.Context, riotMatchID, champion string) (bool, error)
	DecideWinner(ctx context.Context, riotMatchID, champion1, champion2 string) (Winner, error)
}
