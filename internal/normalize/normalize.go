// Package normalize turns merged search results into comparable rows:
// fee-adjusted prices, same-platform outlier flags, near-duplicate clusters
// and human-readable comparison notes.
package normalize

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/guarzo/crosslist/internal/model"
)

const (
	defaultMaxSimilar = 5

	// Similar titles share at least 3/5 of their combined words.
	similarNum = 3
	similarDen = 5
)

var (
	outlierLow  = decimal.RequireFromString("0.5")
	outlierHigh = decimal.RequireFromString("2.0")

	defaultNoteThreshold = decimal.NewFromInt(5)
)

// Normalizer is immutable after construction and safe for concurrent use.
type Normalizer struct {
	fees          FeeTable
	maxSimilar    int
	noteThreshold decimal.Decimal
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithMaxSimilar caps the similar listings kept per result.
func WithMaxSimilar(limit int) Option {
	return func(n *Normalizer) {
		if limit > 0 {
			n.maxSimilar = limit
		}
	}
}

// WithNoteThreshold sets the price gap that triggers cheaper/more expensive notes.
func WithNoteThreshold(d decimal.Decimal) Option {
	return func(n *Normalizer) {
		if !d.IsNegative() {
			n.noteThreshold = d
		}
	}
}

// New builds a normalizer. Rates in feeRates override DefaultFeeRates.
func New(feeRates map[string]decimal.Decimal, opts ...Option) *Normalizer {
	n := &Normalizer{
		fees:          FeeTable(DefaultFeeRates()).Merge(feeRates),
		maxSimilar:    defaultMaxSimilar,
		noteThreshold: defaultNoteThreshold,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

var defaultNormalizer = New(nil)

// Results normalizes with the default fee table.
func Results(results []model.SearchResult) ([]model.NormalizedResult, error) {
	return defaultNormalizer.Results(results)
}

// FeeRate returns the rate applied to platform.
func (n *Normalizer) FeeRate(platform string) decimal.Decimal {
	return n.fees.Rate(platform)
}

// Results computes one NormalizedResult per input, in input order. It is
// deterministic and does not modify its input.
func (n *Normalizer) Results(results []model.SearchResult) ([]model.NormalizedResult, error) {
	for _, r := range results {
		if err := checkInvariants(r); err != nil {
			return nil, err
		}
	}

	totals := make([]decimal.Decimal, len(results))
	words := make([]map[string]struct{}, len(results))
	for i, r := range results {
		totals[i] = r.TotalPrice()
		words[i] = wordSet(r.Title)
	}

	outliers := flagOutliers(results, totals)

	out := make([]model.NormalizedResult, len(results))
	for i, r := range results {
		similar := n.similarTo(i, results, totals, words)

		listings := make([]model.SearchResult, len(similar))
		for j, idx := range similar {
			listings[j] = results[idx]
		}

		out[i] = model.NormalizedResult{
			Listing:          r,
			TotalPrice:       totals[i],
			FeeAdjustedPrice: totals[i].Mul(decimal.NewFromInt(1).Add(n.fees.Rate(r.Platform))),
			IsOutlier:        outliers[i],
			SimilarListings:  listings,
			ComparisonNotes:  n.notes(i, similar, results, totals),
		}
	}
	return out, nil
}

func checkInvariants(r model.SearchResult) error {
	id := r.Platform + "/" + r.ListingID
	switch {
	case strings.TrimSpace(r.Platform) == "":
		return fmt.Errorf("%w: listing %q has no platform", model.ErrInvariantViolation, r.ListingID)
	case strings.TrimSpace(r.ListingID) == "":
		return fmt.Errorf("%w: %s listing has no id", model.ErrInvariantViolation, r.Platform)
	case r.Price.IsNegative():
		return fmt.Errorf("%w: %s has negative price %s", model.ErrInvariantViolation, id, r.Price)
	case r.ShippingCost.Valid && r.ShippingCost.Decimal.IsNegative():
		return fmt.Errorf("%w: %s has negative shipping %s", model.ErrInvariantViolation, id, r.ShippingCost.Decimal)
	}
	return nil
}

// flagOutliers compares each total against the mean of its own platform.
func flagOutliers(results []model.SearchResult, totals []decimal.Decimal) []bool {
	type group struct {
		sum   decimal.Decimal
		count int64
	}
	groups := make(map[string]*group)
	for i, r := range results {
		g, ok := groups[r.Platform]
		if !ok {
			g = &group{}
			groups[r.Platform] = g
		}
		g.sum = g.sum.Add(totals[i])
		g.count++
	}

	flags := make([]bool, len(results))
	for i, r := range results {
		g := groups[r.Platform]
		if g.count < 2 {
			continue
		}
		mean := g.sum.Div(decimal.NewFromInt(g.count))
		flags[i] = totals[i].LessThan(mean.Mul(outlierLow)) || totals[i].GreaterThan(mean.Mul(outlierHigh))
	}
	return flags
}

// similarTo returns indexes of the most similar other listings, best first.
func (n *Normalizer) similarTo(target int, results []model.SearchResult, totals []decimal.Decimal, words []map[string]struct{}) []int {
	type candidate struct {
		idx int
		sim jaccard
	}

	self := results[target].Key()
	var candidates []candidate
	for i := range results {
		if i == target || results[i].Key() == self {
			continue
		}
		sim := similarity(words[target], words[i])
		if sim.atLeast(similarNum, similarDen) {
			candidates = append(candidates, candidate{idx: i, sim: sim})
		}
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		ca, cb := candidates[a], candidates[b]
		if !ca.sim.equal(cb.sim) {
			return ca.sim.greater(cb.sim)
		}
		return totals[ca.idx].LessThan(totals[cb.idx])
	})

	if len(candidates) > n.maxSimilar {
		candidates = candidates[:n.maxSimilar]
	}
	out := make([]int, len(candidates))
	for i, c := range candidates {
		out[i] = c.idx
	}
	return out
}

func (n *Normalizer) notes(target int, similar []int, results []model.SearchResult, totals []decimal.Decimal) []string {
	notes := []string{}
	if len(similar) == 0 {
		return notes
	}

	sum := decimal.Zero
	for _, idx := range similar {
		sum = sum.Add(totals[idx])
	}
	mean := sum.Div(decimal.NewFromInt(int64(len(similar))))

	own := totals[target]
	switch {
	case mean.Sub(own).GreaterThan(n.noteThreshold):
		notes = append(notes, fmt.Sprintf("$%s cheaper than similar listings", mean.Sub(own).StringFixed(2)))
	case own.Sub(mean).GreaterThan(n.noteThreshold):
		notes = append(notes, fmt.Sprintf("$%s more expensive than similar listings", own.Sub(mean).StringFixed(2)))
	}

	ownRank := model.ConditionRank(results[target].Condition)
	for _, idx := range similar {
		if model.ConditionRank(results[idx].Condition) > ownRank {
			notes = append(notes, "Similar items available in better condition")
			break
		}
	}

	var others []string
	seen := map[string]bool{results[target].Platform: true}
	for _, idx := range similar {
		p := results[idx].Platform
		if !seen[p] {
			seen[p] = true
			others = append(others, p)
		}
	}
	if len(others) > 0 {
		notes = append(notes, "Also found on: "+strings.Join(others, ", "))
	}

	return notes
}
