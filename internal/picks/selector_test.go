package picks

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/signal-picks-service/internal/models"
)

func TestSelectWinners_RanksByScoreDescending(t *testing.T) {
	scored := []models.ScoredCandidate{
		{Symbol: "AAPL", Score: 62.5},
		{Symbol: "MSFT", Score: 91.0},
		{Symbol: "GOOG", Score: 74.2},
		{Symbol: "NVDA", Score: 88.1},
		{Symbol: "TSLA", Score: 55.0},
		{Symbol: "AMZN", Score: 80.3},
		{Symbol: "SOFI", Score: 41.7},
	}

	winners := SelectWinners(scored, 5)

	assert.Equal(t, []string{"MSFT", "NVDA", "AMZN", "GOOG", "AAPL"}, winners)
}

func TestSelectWinners_TiesBrokenBySymbolAscending(t *testing.T) {
	scored := []models.ScoredCandidate{
		{Symbol: "ZZZ", Score: 50},
		{Symbol: "AAA", Score: 50},
		{Symbol: "MMM", Score: 50},
	}

	winners := SelectWinners(scored, 2)

	assert.Equal(t, []string{"AAA", "MMM"}, winners)
}

func TestSelectWinners_IndependentOfInputOrder(t *testing.T) {
	scored := []models.ScoredCandidate{
		{Symbol: "AAPL", Score: 62.5},
		{Symbol: "MSFT", Score: 91.0},
		{Symbol: "GOOG", Score: 91.0},
		{Symbol: "NVDA", Score: 88.1},
		{Symbol: "TSLA", Score: 55.0},
		{Symbol: "AMZN", Score: 88.1},
	}

	expected := SelectWinners(scored, 5)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := make([]models.ScoredCandidate, len(scored))
		copy(shuffled, scored)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		assert.Equal(t, expected, SelectWinners(shuffled, 5))
	}
}

func TestSelectWinners_ShortfallReturnsAll(t *testing.T) {
	scored := []models.ScoredCandidate{
		{Symbol: "AAPL", Score: 62.5},
		{Symbol: "MSFT", Score: 91.0},
		{Symbol: "GOOG", Score: 74.2},
	}

	winners := SelectWinners(scored, 5)

	require.Len(t, winners, 3)
	assert.Equal(t, []string{"MSFT", "GOOG", "AAPL"}, winners)
}

func TestSelectWinners_EmptyInput(t *testing.T) {
	winners := SelectWinners(nil, 5)
	assert.Empty(t, winners)
}

func TestSelectWinners_DoesNotMutateInput(t *testing.T) {
	scored := []models.ScoredCandidate{
		{Symbol: "AAPL", Score: 10},
		{Symbol: "MSFT", Score: 90},
	}

	SelectWinners(scored, 1)

	assert.Equal(t, "AAPL", scored[0].Symbol)
	assert.Equal(t, "MSFT", scored[1].Symbol)
}
