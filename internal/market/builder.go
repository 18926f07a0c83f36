// Package market derives descriptive statistics from a merged result set.
package market

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/guarzo/crosslist/internal/model"
)

// Volume thresholds: below rareBelow is rare, below saturatedAt is moderate.
const (
	rareBelow   = 10
	saturatedAt = 50
)

// Baseline is the intelligence for a search with no results.
func Baseline(query model.SearchQuery) model.MarketIntelligence {
	return model.MarketIntelligence{
		Query:              query,
		AveragePrice:       decimal.Zero,
		MedianPrice:        decimal.Zero,
		PriceRange:         model.PriceRange{Min: decimal.Zero, Max: decimal.Zero},
		VolumeIndicator:    model.VolumeNone,
		PlatformsFound:     []string{},
		ConditionBreakdown: map[string]int{},
		NoResults:          true,
	}
}

// Build summarizes results. It is pure; results are not modified.
func Build(query model.SearchQuery, results []model.SearchResult) model.MarketIntelligence {
	if len(results) == 0 {
		return Baseline(query)
	}

	totals := make([]decimal.Decimal, len(results))
	sum := decimal.Zero
	for i, r := range results {
		totals[i] = r.TotalPrice()
		sum = sum.Add(totals[i])
	}

	sorted := make([]decimal.Decimal, len(totals))
	copy(sorted, totals)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })

	n := len(results)
	return model.MarketIntelligence{
		Query:              query,
		TotalResults:       n,
		AveragePrice:       sum.Div(decimal.NewFromInt(int64(n))),
		MedianPrice:        sorted[(n-1)/2],
		PriceRange:         model.PriceRange{Min: sorted[0], Max: sorted[n-1]},
		VolumeIndicator:    Volume(n),
		PlatformsFound:     platformsFound(results),
		BestValue:          bestValue(results, totals),
		ConditionBreakdown: conditionBreakdown(results),
	}
}

// Volume classifies a result count.
func Volume(count int) model.VolumeIndicator {
	switch {
	case count <= 0:
		return model.VolumeNone
	case count < rareBelow:
		return model.VolumeRare
	case count < saturatedAt:
		return model.VolumeModerate
	default:
		return model.VolumeSaturated
	}
}

func platformsFound(results []model.SearchResult) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, r := range results {
		if !seen[r.Platform] {
			seen[r.Platform] = true
			out = append(out, r.Platform)
		}
	}
	sort.Strings(out)
	return out
}

// bestValue minimizes total/rank over results that state a condition.
// The first of equal scores wins.
func bestValue(results []model.SearchResult, totals []decimal.Decimal) *model.SearchResult {
	best := -1
	var bestScore decimal.Decimal
	for i, r := range results {
		if !r.HasCondition() {
			continue
		}
		score := totals[i].Div(decimal.NewFromInt(int64(model.ConditionRank(r.Condition))))
		if best < 0 || score.LessThan(bestScore) {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return nil
	}
	r := results[best]
	return &r
}

func conditionBreakdown(results []model.SearchResult) map[string]int {
	out := make(map[string]int)
	for _, r := range results {
		if r.HasCondition() {
			out[r.Condition]++
		}
	}
	return out
}

// Summary renders a one-line description for logs and the CLI.
func Summary(mi model.MarketIntelligence) string {
	q := strings.TrimSpace(mi.Query.Keywords)
	if mi.NoResults || mi.TotalResults == 0 {
		return fmt.Sprintf("%q: no results", q)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%q: %d results (%s) on %s; avg $%s, median $%s, range $%s-$%s",
		q, mi.TotalResults, mi.VolumeIndicator, strings.Join(mi.PlatformsFound, ", "),
		mi.AveragePrice.StringFixed(2), mi.MedianPrice.StringFixed(2),
		mi.PriceRange.Min.StringFixed(2), mi.PriceRange.Max.StringFixed(2))
	if mi.BestValue != nil {
		fmt.Fprintf(&b, "; best value %s %s at $%s",
			mi.BestValue.Platform, mi.BestValue.ListingID, mi.BestValue.TotalPrice().StringFixed(2))
	}
	return b.String()
}
