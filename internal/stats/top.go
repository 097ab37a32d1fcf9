package stats

import (
	"sort"

	"github.com/verte-zerg/radialkb/internal/model"
)

// SortByTotal orders aggregates by descending total, ties by value.
func SortByTotal(aggs []model.KeyAggregate) []model.KeyAggregate {
	out := make([]model.KeyAggregate, len(aggs))
	copy(out, aggs)
	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := out[i].Total(), out[j].Total()
		if ti == tj {
			return out[i].Value < out[j].Value
		}
		return ti > tj
	})
	return out
}

// TopKeys returns the n most committed values.
func TopKeys(aggs []model.KeyAggregate, n int) []string {
	if n <= 0 || len(aggs) == 0 {
		return nil
	}
	sorted := SortByTotal(aggs)
	if n > len(sorted) {
		n = len(sorted)
	}
	out := make([]string, 0, n)
	for _, agg := range sorted[:n] {
		out = append(out, agg.Value)
	}
	return out
}
