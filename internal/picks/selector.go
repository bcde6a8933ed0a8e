package picks

import (
	"sort"

	"github.com/trogers1052/signal-picks-service/internal/models"
)

// SelectWinners ranks scored candidates by score descending, ties broken by
// symbol ascending, and returns the symbols of the top k. The result depends
// only on the (symbol, score) set, never on input ordering. If fewer than k
// candidates were scored, all of them win.
func SelectWinners(scored []models.ScoredCandidate, k int) []string {
	ranked := make([]models.ScoredCandidate, len(scored))
	copy(ranked, scored)

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Symbol < ranked[j].Symbol
	})

	if k > len(ranked) {
		k = len(ranked)
	}

	winners := make([]string, 0, k)
	for _, sc := range ranked[:k] {
		winners = append(winners, sc.Symbol)
	}
	return winners
}
