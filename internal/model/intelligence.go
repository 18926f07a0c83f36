package model

import "github.com/shopspring/decimal"

// VolumeIndicator is a coarse classification of how many listings matched.
type VolumeIndicator string

const (
	VolumeNone      VolumeIndicator = "none"
	VolumeRare      VolumeIndicator = "rare"
	VolumeModerate  VolumeIndicator = "moderate"
	VolumeSaturated VolumeIndicator = "saturated"
)

// PriceRange holds the min and max total price.
type PriceRange struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// MarketIntelligence is the statistical summary of one merged result set.
type MarketIntelligence struct {
	Query              SearchQuery     `json:"query"`
	TotalResults       int             `json:"total_results"`
	AveragePrice       decimal.Decimal `json:"average_price"`
	MedianPrice        decimal.Decimal `json:"median_price"`
	PriceRange         PriceRange      `json:"price_range"`
	VolumeIndicator    VolumeIndicator `json:"volume_indicator"`
	PlatformsFound     []string        `json:"platforms_found"`
	BestValue          *SearchResult   `json:"best_value_result,omitempty"`
	ConditionBreakdown map[string]int  `json:"condition_breakdown"`
	NoResults          bool            `json:"no_results"`
}

// HasPlatform reports whether any result came from platform.
func (m MarketIntelligence) HasPlatform(platform string) bool {
	for _, p := range m.PlatformsFound {
		if p == platform {
			return true
		}
	}
	return false
}
