package model

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSearchQuery_Defaults(t *testing.T) {
	q, err := NewSearchQuery("  vintage hoodie ")
	require.NoError(t, err)

	assert.Equal(t, "vintage hoodie", q.Keywords)
	assert.Equal(t, SortNewest, q.SortBy)
	assert.Equal(t, DefaultLimit, q.Limit)
	assert.False(t, q.MinPrice.Valid)
	assert.False(t, q.MaxPrice.Valid)
}

func TestNewSearchQuery_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		keywords string
		opts     []QueryOption
		field    string
	}{
		{name: "empty keywords", keywords: "", field: "keywords"},
		{name: "blank keywords", keywords: "   ", field: "keywords"},
		{name: "limit zero", keywords: "x", opts: []QueryOption{WithLimit(0)}, field: "limit"},
		{name: "limit too large", keywords: "x", opts: []QueryOption{WithLimit(MaxLimit + 1)}, field: "limit"},
		{name: "unknown sort", keywords: "x", opts: []QueryOption{WithSort("random")}, field: "sort_by"},
		{name: "negative min", keywords: "x", opts: []QueryOption{WithMinPrice(decimal.NewFromInt(-1))}, field: "min_price"},
		{name: "negative max", keywords: "x", opts: []QueryOption{WithMaxPrice(decimal.NewFromInt(-1))}, field: "max_price"},
		{
			name:     "min above max",
			keywords: "x",
			opts:     []QueryOption{WithMinPrice(decimal.NewFromInt(50)), WithMaxPrice(decimal.NewFromInt(10))},
			field:    "min_price",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSearchQuery(tt.keywords, tt.opts...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidQuery))

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			fields := make([]string, 0, len(verr.Fields))
			for _, f := range verr.Fields {
				fields = append(fields, f.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestSearchQuery_Filters(t *testing.T) {
	q, err := NewSearchQuery("boots",
		WithConditions("Good", "good", " New "),
		WithMinPrice(decimal.NewFromInt(10)),
		WithMaxPrice(decimal.NewFromInt(100)),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"Good", "New"}, q.Conditions())
	assert.True(t, q.MatchesCondition("NEW"))
	assert.False(t, q.MatchesCondition("fair"))

	assert.True(t, q.InPriceRange(decimal.NewFromInt(10)))
	assert.True(t, q.InPriceRange(decimal.NewFromInt(100)))
	assert.False(t, q.InPriceRange(decimal.RequireFromString("9.99")))
	assert.False(t, q.InPriceRange(decimal.RequireFromString("100.01")))

	// Conditions returns a copy.
	c := q.Conditions()
	c[0] = "changed"
	assert.Equal(t, "Good", q.ConditionFilter[0])
}

func TestConditionRank(t *testing.T) {
	tests := map[string]int{
		"New":        RankNew,
		"mint":       RankNew,
		"NWT":        RankNew,
		"Like New":   RankExcellent,
		"like-new":   RankExcellent,
		"Excellent":  RankExcellent,
		" good ":     RankGood,
		"Fair":       RankFair,
		"acceptable": RankFair,
		"used":       RankOther,
		"":           RankOther,
	}
	for in, want := range tests {
		assert.Equal(t, want, ConditionRank(in), "condition %q", in)
	}
}

func TestSearchResult_TotalPrice(t *testing.T) {
	r := SearchResult{Price: decimal.RequireFromString("19.99")}
	assert.True(t, r.TotalPrice().Equal(decimal.RequireFromString("19.99")))

	r.ShippingCost = decimal.NewNullDecimal(decimal.RequireFromString("5.01"))
	assert.True(t, r.TotalPrice().Equal(decimal.NewFromInt(25)))
	assert.Equal(t, 1, r.Quantity())
}
