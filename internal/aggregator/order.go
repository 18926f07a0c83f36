package aggregator

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/guarzo/crosslist/internal/model"
)

// applyQuery drops results outside the query's price and condition filters
// and orders the rest by the query's sort key. The merged set is never
// truncated; Limit caps each connector's own list in run. The input is not
// modified.
func applyQuery(query model.SearchQuery, results []model.SearchResult) []model.SearchResult {
	out := make([]model.SearchResult, 0, len(results))
	for _, r := range results {
		if !query.InPriceRange(r.TotalPrice()) || !query.MatchesCondition(r.Condition) {
			continue
		}
		out = append(out, r)
	}

	orderResults(query.SortBy, out)
	return out
}

// orderResults sorts in place. The sort is stable so each connector's own
// ordering survives among equal keys.
func orderResults(by model.SortBy, results []model.SearchResult) {
	switch by {
	case model.SortLowestPrice:
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].TotalPrice().LessThan(results[j].TotalPrice())
		})

	case model.SortBestValue:
		type scored struct {
			r     model.SearchResult
			score decimal.Decimal
			ok    bool
		}
		tmp := make([]scored, len(results))
		for i, r := range results {
			tmp[i] = scored{r: r, ok: r.HasCondition()}
			if tmp[i].ok {
				tmp[i].score = r.TotalPrice().Div(decimal.NewFromInt(int64(model.ConditionRank(r.Condition))))
			}
		}
		sort.SliceStable(tmp, func(i, j int) bool {
			if tmp[i].ok != tmp[j].ok {
				return tmp[i].ok
			}
			return tmp[i].ok && tmp[i].score.LessThan(tmp[j].score)
		})
		for i := range tmp {
			results[i] = tmp[i].r
		}

	case model.SortMostListings:
		counts := make(map[string]int)
		for _, r := range results {
			counts[r.Platform]++
		}
		sort.SliceStable(results, func(i, j int) bool {
			return counts[results[i].Platform] > counts[results[j].Platform]
		})

	default: // newest
		sort.SliceStable(results, func(i, j int) bool {
			ti, tj := results[i].PostedAt, results[j].PostedAt
			if ti == nil || tj == nil {
				return ti != nil && tj == nil
			}
			return ti.After(*tj)
		})
	}
}
