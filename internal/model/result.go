package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ListingKey identifies a listing across platforms.
type ListingKey struct {
	Platform  string
	ListingID string
}

// SearchResult is one listing returned by one connector.
type SearchResult struct {
	Platform          string              `json:"platform"`
	ListingID         string              `json:"listing_id"`
	URL               string              `json:"url"`
	Title             string              `json:"title"`
	Price             decimal.Decimal     `json:"price"`
	ShippingCost      decimal.NullDecimal `json:"shipping_cost"`
	Condition         string              `json:"condition,omitempty"`
	ThumbnailURL      string              `json:"thumbnail_url,omitempty"`
	SellerName        string              `json:"seller_name,omitempty"`
	SellerRating      *float64            `json:"seller_rating,omitempty"`
	PostedAt          *time.Time          `json:"posted_at,omitempty"`
	QuantityAvailable int                 `json:"quantity_available"`
	AcceptsOffers     bool                `json:"accepts_offers"`
	Extras            map[string]any      `json:"extras,omitempty"`
}

// Key returns the (platform, listing id) identity.
func (r SearchResult) Key() ListingKey {
	return ListingKey{Platform: r.Platform, ListingID: r.ListingID}
}

// TotalPrice is price plus shipping; missing shipping counts as zero.
func (r SearchResult) TotalPrice() decimal.Decimal {
	if r.ShippingCost.Valid {
		return r.Price.Add(r.ShippingCost.Decimal)
	}
	return r.Price
}

// HasCondition reports whether the connector supplied a condition.
func (r SearchResult) HasCondition() bool {
	return r.Condition != ""
}

// Quantity returns QuantityAvailable with the default of 1 applied.
func (r SearchResult) Quantity() int {
	if r.QuantityAvailable < 1 {
		return 1
	}
	return r.QuantityAvailable
}

// NormalizedResult wraps a SearchResult with comparison data.
type NormalizedResult struct {
	Listing          SearchResult    `json:"listing"`
	TotalPrice       decimal.Decimal `json:"total_price"`
	FeeAdjustedPrice decimal.Decimal `json:"fee_adjusted_price"`
	IsOutlier        bool            `json:"is_outlier"`
	SimilarListings  []SearchResult  `json:"similar_listings"`
	ComparisonNotes  []string        `json:"comparison_notes"`
}
