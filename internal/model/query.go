package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// SortBy selects the ordering applied to merged results.
type SortBy string

const (
	SortLowestPrice  SortBy = "lowest_price"
	SortNewest       SortBy = "newest"
	SortBestValue    SortBy = "best_value"
	SortMostListings SortBy = "most_listings"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// ErrInvalidQuery is wrapped by every query validation failure.
var ErrInvalidQuery = errors.New("invalid search query")

var validate = validator.New()

// SearchQuery describes one search request. Build it with NewSearchQuery and
// treat it as read-only afterwards; connectors receive it by value.
type SearchQuery struct {
	Keywords        string              `json:"keywords" validate:"required"`
	ItemType        string              `json:"item_type,omitempty"`
	ConditionFilter []string            `json:"condition_filter,omitempty" validate:"omitempty,dive,required"`
	MinPrice        decimal.NullDecimal `json:"min_price"`
	MaxPrice        decimal.NullDecimal `json:"max_price"`
	SortBy          SortBy              `json:"sort_by" validate:"oneof=lowest_price newest best_value most_listings"`
	Limit           int                 `json:"limit" validate:"min=1,max=200"`
}

// QueryOption customizes a SearchQuery during construction.
type QueryOption func(*SearchQuery)

// WithItemType sets the optional item type hint.
func WithItemType(itemType string) QueryOption {
	return func(q *SearchQuery) {
		q.ItemType = strings.TrimSpace(itemType)
	}
}

// WithConditions restricts results to the given raw condition strings.
func WithConditions(conditions ...string) QueryOption {
	return func(q *SearchQuery) {
		q.ConditionFilter = nil
		seen := make(map[string]bool, len(conditions))
		for _, c := range conditions {
			c = strings.TrimSpace(c)
			key := strings.ToLower(c)
			if seen[key] {
				continue
			}
			seen[key] = true
			q.ConditionFilter = append(q.ConditionFilter, c)
		}
	}
}

// WithMinPrice sets the lower bound on total price.
func WithMinPrice(min decimal.Decimal) QueryOption {
	return func(q *SearchQuery) {
		q.MinPrice = decimal.NewNullDecimal(min)
	}
}

// WithMaxPrice sets the upper bound on total price.
func WithMaxPrice(max decimal.Decimal) QueryOption {
	return func(q *SearchQuery) {
		q.MaxPrice = decimal.NewNullDecimal(max)
	}
}

// WithSort sets the result ordering.
func WithSort(sortBy SortBy) QueryOption {
	return func(q *SearchQuery) {
		q.SortBy = sortBy
	}
}

// WithLimit sets the maximum number of results taken from each platform.
func WithLimit(limit int) QueryOption {
	return func(q *SearchQuery) {
		q.Limit = limit
	}
}

// NewSearchQuery builds a validated query with defaults applied
// (sort newest, limit 50).
func NewSearchQuery(keywords string, opts ...QueryOption) (SearchQuery, error) {
	q := SearchQuery{
		Keywords: strings.TrimSpace(keywords),
		SortBy:   SortNewest,
		Limit:    DefaultLimit,
	}
	for _, opt := range opts {
		opt(&q)
	}
	if err := q.Validate(); err != nil {
		return SearchQuery{}, err
	}
	return q, nil
}

// Validate reports whether the query can be fanned out.
func (q SearchQuery) Validate() error {
	var fields []FieldError

	if strings.TrimSpace(q.Keywords) == "" {
		fields = append(fields, FieldError{Field: "keywords", Reason: "must not be empty"})
	}

	if err := validate.Struct(q); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return &ValidationError{Fields: []FieldError{{Field: "query", Reason: err.Error()}}}
		}
		for _, fe := range verrs {
			if fe.Field() == "Keywords" {
				continue // reported above
			}
			fields = append(fields, FieldError{
				Field:  jsonFieldName(fe.Field()),
				Reason: fmt.Sprintf("failed %q (value %v)", fe.Tag(), fe.Value()),
			})
		}
	}

	if q.MinPrice.Valid && q.MinPrice.Decimal.IsNegative() {
		fields = append(fields, FieldError{Field: "min_price", Reason: "must be non-negative"})
	}
	if q.MaxPrice.Valid && q.MaxPrice.Decimal.IsNegative() {
		fields = append(fields, FieldError{Field: "max_price", Reason: "must be non-negative"})
	}
	if q.MinPrice.Valid && q.MaxPrice.Valid && q.MinPrice.Decimal.GreaterThan(q.MaxPrice.Decimal) {
		fields = append(fields, FieldError{Field: "min_price", Reason: "must not exceed max_price"})
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Conditions returns a copy of the condition filter.
func (q SearchQuery) Conditions() []string {
	if len(q.ConditionFilter) == 0 {
		return nil
	}
	out := make([]string, len(q.ConditionFilter))
	copy(out, q.ConditionFilter)
	return out
}

// MatchesCondition reports whether a raw condition passes the filter.
// An empty filter accepts everything.
func (q SearchQuery) MatchesCondition(condition string) bool {
	if len(q.ConditionFilter) == 0 {
		return true
	}
	for _, c := range q.ConditionFilter {
		if strings.EqualFold(strings.TrimSpace(condition), c) {
			return true
		}
	}
	return false
}

// InPriceRange reports whether a total price satisfies the min/max bounds.
func (q SearchQuery) InPriceRange(total decimal.Decimal) bool {
	if q.MinPrice.Valid && total.LessThan(q.MinPrice.Decimal) {
		return false
	}
	if q.MaxPrice.Valid && total.GreaterThan(q.MaxPrice.Decimal) {
		return false
	}
	return true
}

func jsonFieldName(goField string) string {
	switch goField {
	case "ConditionFilter":
		return "condition_filter"
	case "SortBy":
		return "sort_by"
	case "Limit":
		return "limit"
	default:
		return strings.ToLower(goField)
	}
}
