package pairing

import (
	"context"
	"math/rand"
)

// RandomPairer — детерминированно-простой пейрер: перемешивает игроков и
// режет список на пары; при нечётном числе последний получает bye.
// Используется, когда LLM не сконфигурирован, и в тестах.
type RandomPairer struct {
	rng *rand.Rand
}

func NewRandomPairer(seed int64) *RandomPairer {
	return &RandomPairer{rng: rand.New(rand.NewSource(seed))}
}

func (p *RandomPairer) GetName() string {
	return "random"
}

func (p *RandomPairer) Pair(_ context.Context, players []Player) (*Result, error) {
	shuffled := make([]Player, len(players))
	copy(shuffled, players)
	p.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	result := &Result{Pairs: make([]Pair, 0, len(shuffled)/2)}

	if len(shuffled)%2 != 0 {
		bye := shuffled[len(shuffled)-1].ID
		result.Bye = &bye
		shuffled = shuffled[:len(shuffled)-1]
	}

	for i := 0; i < len(shuffled); i += 2 {
		result.Pairs = append(result.Pairs, Pair{
			Player1: shuffled[i].ID,
			Player2: shuffled[i+1].ID,
		})
	}
	return result, nil
}
