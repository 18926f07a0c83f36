package market

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guarzo/crosslist/internal/model"
	"github.com/guarzo/crosslist/internal/testutil"
)

func TestBuild_NoResults(t *testing.T) {
	q := testutil.Query(t, "hoodie")
	mi := Build(q, nil)

	assert.True(t, mi.NoResults)
	assert.Equal(t, 0, mi.TotalResults)
	assert.Equal(t, model.VolumeNone, mi.VolumeIndicator)
	assert.True(t, mi.AveragePrice.IsZero())
	assert.True(t, mi.MedianPrice.IsZero())
	assert.True(t, mi.PriceRange.Min.IsZero())
	assert.True(t, mi.PriceRange.Max.IsZero())
	assert.Nil(t, mi.BestValue)
	assert.Empty(t, mi.PlatformsFound)
	assert.Equal(t, "hoodie", mi.Query.Keywords)
}

func TestBuild_LowerMedian(t *testing.T) {
	mi := Build(testutil.Query(t, "x"), testutil.Prices("ebay", "40", "10", "30", "20"))
	assert.Equal(t, "20", mi.MedianPrice.String())
	assert.Equal(t, "25", mi.AveragePrice.String())
	assert.Equal(t, "10", mi.PriceRange.Min.String())
	assert.Equal(t, "40", mi.PriceRange.Max.String())

	mi = Build(testutil.Query(t, "x"), testutil.Prices("ebay", "5", "1", "3"))
	assert.Equal(t, "3", mi.MedianPrice.String())
}

func TestBuild_UsesTotalPrice(t *testing.T) {
	in := []model.SearchResult{
		testutil.Result("ebay", "1", "a", "10", testutil.WithShipping("5")),
		testutil.Result("etsy", "2", "b", "20"),
	}
	mi := Build(testutil.Query(t, "x"), in)
	assert.Equal(t, "15", mi.PriceRange.Min.String())
	assert.Equal(t, "17.5", mi.AveragePrice.String())
}

func TestVolume(t *testing.T) {
	tests := []struct {
		count int
		want  model.VolumeIndicator
	}{
		{0, model.VolumeNone},
		{1, model.VolumeRare},
		{9, model.VolumeRare},
		{10, model.VolumeModerate},
		{49, model.VolumeModerate},
		{50, model.VolumeSaturated},
		{500, model.VolumeSaturated},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.count), func(t *testing.T) {
			assert.Equal(t, tt.want, Volume(tt.count))
			if tt.count > 0 {
				results := testutil.NewTestDataFactory(1).GenerateTestResults("ebay", tt.count)
				assert.Equal(t, tt.want, Build(testutil.Query(t, "x"), results).VolumeIndicator)
			}
		})
	}
}

func TestBuild_PlatformsFound(t *testing.T) {
	in := []model.SearchResult{
		testutil.Result("etsy", "1", "a", "1"),
		testutil.Result("depop", "2", "a", "1"),
		testutil.Result("etsy", "3", "a", "1"),
		testutil.Result("ebay", "4", "a", "1"),
	}
	mi := Build(testutil.Query(t, "x"), in)
	assert.Equal(t, []string{"depop", "ebay", "etsy"}, mi.PlatformsFound)
	assert.True(t, mi.HasPlatform("depop"))
	assert.False(t, mi.HasPlatform("facebook"))
}

func TestBuild_BestValue(t *testing.T) {
	in := []model.SearchResult{
		testutil.Result("ebay", "no-condition", "a", "1"),
		testutil.Result("ebay", "good", "a", "30", testutil.WithCondition("Good")),        // 10
		testutil.Result("etsy", "new", "a", "50", testutil.WithCondition("New")),          // 10, later
		testutil.Result("depop", "fair", "a", "24", testutil.WithCondition("fair")),       // 12
		testutil.Result("depop", "other", "a", "11", testutil.WithCondition("well worn")), // 11
	}
	mi := Build(testutil.Query(t, "x"), in)
	require.NotNil(t, mi.BestValue)
	assert.Equal(t, "good", mi.BestValue.ListingID)

	mi = Build(testutil.Query(t, "x"), in[:1])
	assert.Nil(t, mi.BestValue, "results without a condition are never best value")
}

func TestBuild_ConditionBreakdown(t *testing.T) {
	in := []model.SearchResult{
		testutil.Result("ebay", "1", "a", "1", testutil.WithCondition("Good")),
		testutil.Result("ebay", "2", "a", "1", testutil.WithCondition("Good")),
		testutil.Result("ebay", "3", "a", "1", testutil.WithCondition("good")),
		testutil.Result("ebay", "4", "a", "1"),
	}
	mi := Build(testutil.Query(t, "x"), in)
	assert.Equal(t, map[string]int{"Good": 2, "good": 1}, mi.ConditionBreakdown)
}

func TestBuild_AverageWithinRange(t *testing.T) {
	factory := testutil.NewTestDataFactory(11)
	for i := 1; i < 40; i++ {
		mi := Build(testutil.Query(t, "x"), factory.GenerateTestResults("ebay", i))
		assert.False(t, mi.AveragePrice.LessThan(mi.PriceRange.Min))
		assert.False(t, mi.AveragePrice.GreaterThan(mi.PriceRange.Max))
		assert.False(t, mi.MedianPrice.LessThan(mi.PriceRange.Min))
		assert.False(t, mi.MedianPrice.GreaterThan(mi.PriceRange.Max))
	}
}

func TestSummary(t *testing.T) {
	assert.Equal(t, `"hoodie": no results`, Summary(Build(testutil.Query(t, "hoodie"), nil)))

	in := []model.SearchResult{
		testutil.Result("ebay", "1", "a", "10", testutil.WithCondition("new")),
		testutil.Result("etsy", "2", "a", "20"),
	}
	got := Summary(Build(testutil.Query(t, "hoodie"), in))
	assert.Equal(t, `"hoodie": 2 results (rare) on ebay, etsy; avg $15.00, median $10.00, range $10.00-$20.00; best value ebay 1 at $10.00`, got)
}
