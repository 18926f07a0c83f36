package testutil

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/guarzo/crosslist/internal/model"
)

// TestDataFactory provides methods for generating dynamic test data
type TestDataFactory struct {
	rand *rand.Rand
	seq  int
}

// NewTestDataFactory creates a new test data factory with a seeded random generator
func NewTestDataFactory(seed int64) *TestDataFactory {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &TestDataFactory{
		rand: rand.New(rand.NewSource(seed)),
	}
}

// GenerateTestToken generates a random test token
func (f *TestDataFactory) GenerateTestToken() string {
	return fmt.Sprintf("test-token-%d", f.rand.Int63())
}

// GenerateTestURL generates a test URL for the given platform and listing
func (f *TestDataFactory) GenerateTestURL(platform, listingID string) string {
	return fmt.Sprintf("https://%s.test.local/listing/%s", platform, listingID)
}

// GenerateTestListingID returns a unique listing id
func (f *TestDataFactory) GenerateTestListingID() string {
	f.seq++
	return fmt.Sprintf("L%04d-%d", f.seq, f.rand.Intn(10000))
}

// GenerateTestTitle generates a random apparel title
func (f *TestDataFactory) GenerateTestTitle() string {
	adjectives := []string{"Vintage", "Retro", "Classic", "Oversized", "Cropped"}
	colours := []string{"Blue", "Black", "Grey", "Green", "Red"}
	items := []string{"Hoodie", "Denim Jacket", "Sweater", "Tee", "Cargo Pants"}
	return fmt.Sprintf("%s %s %s",
		adjectives[f.rand.Intn(len(adjectives))],
		colours[f.rand.Intn(len(colours))],
		items[f.rand.Intn(len(items))])
}

// GenerateTestPrice generates a random price between $5 and $500
func (f *TestDataFactory) GenerateTestPrice() decimal.Decimal {
	cents := f.rand.Intn(49500) + 500
	return decimal.New(int64(cents), -2)
}

// GenerateTestDate generates a random date within the last month
func (f *TestDataFactory) GenerateTestDate() time.Time {
	hours := f.rand.Intn(30 * 24)
	return time.Now().Add(-time.Duration(hours) * time.Hour)
}

// GenerateTestCondition generates a random condition, sometimes blank
func (f *TestDataFactory) GenerateTestCondition() string {
	conditions := []string{"New", "Like New", "Good", "Fair", "Used", ""}
	return conditions[f.rand.Intn(len(conditions))]
}

// GenerateTestResult builds a complete listing for platform
func (f *TestDataFactory) GenerateTestResult(platform string) model.SearchResult {
	id := f.GenerateTestListingID()
	posted := f.GenerateTestDate()
	return model.SearchResult{
		Platform:          platform,
		ListingID:         id,
		URL:               f.GenerateTestURL(platform, id),
		Title:             f.GenerateTestTitle(),
		Price:             f.GenerateTestPrice(),
		Condition:         f.GenerateTestCondition(),
		PostedAt:          &posted,
		QuantityAvailable: 1,
	}
}

// GenerateTestResults builds n listings for platform
func (f *TestDataFactory) GenerateTestResults(platform string, n int) []model.SearchResult {
	out := make([]model.SearchResult, n)
	for i := range out {
		out[i] = f.GenerateTestResult(platform)
	}
	return out
}

// ResultOption tweaks a listing built by Result
type ResultOption func(*model.SearchResult)

// WithShipping sets the shipping cost
func WithShipping(amount string) ResultOption {
	return func(r *model.SearchResult) {
		r.ShippingCost = decimal.NewNullDecimal(decimal.RequireFromString(amount))
	}
}

// WithCondition sets the condition text
func WithCondition(condition string) ResultOption {
	return func(r *model.SearchResult) {
		r.Condition = condition
	}
}

// WithPostedAt sets the listing date
func WithPostedAt(t time.Time) ResultOption {
	return func(r *model.SearchResult) {
		r.PostedAt = &t
	}
}

// Result builds a deterministic listing. Price is a decimal string.
func Result(platform, listingID, title, price string, opts ...ResultOption) model.SearchResult {
	r := model.SearchResult{
		Platform:          platform,
		ListingID:         listingID,
		URL:               fmt.Sprintf("https://%s.test.local/listing/%s", platform, listingID),
		Title:             title,
		Price:             decimal.RequireFromString(price),
		QuantityAvailable: 1,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// Prices builds one listing per price on a single platform
func Prices(platform string, prices ...string) []model.SearchResult {
	out := make([]model.SearchResult, len(prices))
	for i, p := range prices {
		out[i] = Result(platform, fmt.Sprintf("%s-%d", platform, i), fmt.Sprintf("item %d", i), p)
	}
	return out
}
