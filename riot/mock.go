package riot

import (
	"context"
	"strings"
	"time"
)

// MockOracle имитирует Riot API для разработки и демо:
//   - id матча с префиксом "WIN" проходит верификацию, остальные — нет;
//   - суффикс "P1"/"P2" определяет победителя, по умолчанию player1.
type MockOracle struct {
	// Latency позволяет прогнать таймауты вызывающего кода; ноль — без задержки.
	Latency time.Duration
}

func NewMockOracle() *MockOracle {
	return &MockOracle{}
}

func (o *MockOracle) Verify(ctx context.Context, riotMatchID, champion string) (bool, error) {
	if err := o.sleep(ctx); err != nil {
		return false, err
	}
	return strings.HasPrefix(strings.ToUpper(riotMatchID), "WIN"), nil
}

func (o *MockOracle) DecideWinner(ctx context.Context, riotMatchID, champion1, champion2 string) (Winner, error) {
	if err := o.sleep(ctx); err != nil {
		return "", err
	}
	upper := strings.ToUpper(riotMatchID)
	switch {
	case strings.HasSuffix(upper, "P2"):
		return WinnerPlayer2, nil
	default:
		return WinnerPlayer1, nil
	}
}

func (o *MockOracle) sleep(ctx context.Context) error {
	if o.Latency <= 0 {
		return nil
	}
	timer := time.NewTimer(o.Latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
