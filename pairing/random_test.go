package pairing

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makePlayers(n int) []Player {
	players := make([]Player, 0, n)
	for i := 0; i < n; i++ {
		players = append(players, Player{
			ID:       uuid.New(),
			Name:     fmt.Sprintf("player-%d", i),
			Champion: "Ahri",
		})
	}
	return players
}

func TestRandomPairerCoversEveryPlayerOnce(t *testing.T) {
	ctx := context.Background()

	for _, n := range []int{2, 3, 4, 7, 16} {
		t.Run(fmt.Sprintf("%d players", n), func(t *testing.T) {
			players := makePlayers(n)
			result, err := NewRandomPairer(1).Pair(ctx, players)
			require.NoError(t, err)

			seen := make(map[uuid.UUID]int)
			for _, pair := range result.Pairs {
				seen[pair.Player1]++
				seen[pair.Player2]++
			}
			if result.Bye != nil {
				seen[*result.Bye]++
			}

			assert.Len(t, seen, n)
			for _, p := range players {
				assert.Equal(t, 1, seen[p.ID])
			}

			// Bye только при нечётном числе участников.
			if n%2 == 0 {
				assert.Nil(t, result.Bye)
				assert.Len(t, result.Pairs, n/2)
			} else {
				assert.NotNil(t, result.Bye)
				assert.Len(t, result.Pairs, n/2)
			}
		})
	}
}

func TestRandomPairerDeterministicBySeed(t *testing.T) {
	ctx := context.Background()
	players := makePlayers(8)

	first, err := NewRandomPairer(42).Pair(ctx, players)
	require.NoError(t, err)
	second, err := NewRandomPairer(42).Pair(ctx, players)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRandomPairerDoesNotMutateInput(t *testing.T) {
	players := makePlayers(5)
	original := make([]Player, len(players))
	copy(original, players)

	_, err := NewRandomPairer(7).Pair(context.Background(), players)
	require.NoError(t, err)
	assert.Equal(t, original, players)
}
