package stats

import (
	"sort"

	"github.com/verte-zerg/radialkb/internal/model"
)

// SelectRareChars picks the least committed characters of alphabet. Characters
// never committed count as zero and come first.
func SelectRareChars(aggs []model.KeyAggregate, alphabet []rune, top int) map[rune]struct{} {
	rare := map[rune]struct{}{}
	if len(alphabet) == 0 {
		return rare
	}
	counts := make(map[rune]int, len(aggs))
	for _, agg := range aggs {
		runes := []rune(agg.Value)
		if len(runes) == 1 {
			counts[runes[0]] += agg.Total()
		}
	}
	candidates := make([]rune, len(alphabet))
	copy(candidates, alphabet)
	sort.SliceStable(candidates, func(i, j int) bool {
		ci, cj := counts[candidates[i]], counts[candidates[j]]
		if ci == cj {
			return candidates[i] < candidates[j]
		}
		return ci < cj
	})
	if top <= 0 || top > len(candidates) {
		top = len(candidates)
	}
	for _, r := range candidates[:top] {
		rare[r] = struct{}{}
	}
	return rare
}
