// Package ranking assigns dense ranks to weekly score results.
package ranking

import (
	"sort"

	"github.com/blessedfam/weeklyrank/internal/domain/model"
)

// Assign orders results by total score descending and assigns dense ranks:
// ties share a rank and the next distinct score gets the previous rank + 1.
// Equal scores are ordered by user ID ascending so rank assignment is
// deterministic across runs. The input slice is sorted in place and returned.
func Assign(results []model.ScoreResult) []model.ScoreResult {
	sort.Slice(results, func(i, j int) bool {
		if results[i].TotalScore != results[j].TotalScore {
			return results[i].TotalScore > results[j].TotalScore
		}
		return results[i].UserID < results[j].UserID
	})

	rank := 0
	prevScore := 0.0
	for i := range results {
		if i == 0 || results[i].TotalScore != prevScore {
			rank++
			prevScore = results[i].TotalScore
		}
		results[i].Rank = rank
	}
	return results
}
