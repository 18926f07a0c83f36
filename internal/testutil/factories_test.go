package testutil

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewTestDataFactory(t *testing.T) {
	// Same seed, same values
	factory1 := NewTestDataFactory(12345)
	factory2 := NewTestDataFactory(12345)
	assert.Equal(t, factory1.GenerateTestToken(), factory2.GenerateTestToken())

	factory3 := NewTestDataFactory(54321)
	assert.NotEqual(t, NewTestDataFactory(12345).GenerateTestToken(), factory3.GenerateTestToken())
}

func TestGenerateTestToken(t *testing.T) {
	token := NewTestDataFactory(0).GenerateTestToken()
	assert.True(t, strings.HasPrefix(token, "test-token-"))
	assert.Greater(t, len(token), 15)
}

func TestGenerateTestPrice(t *testing.T) {
	factory := NewTestDataFactory(7)
	for i := 0; i < 100; i++ {
		p := factory.GenerateTestPrice()
		assert.False(t, p.LessThan(mustDecimal("5")), "price %s below $5", p)
		assert.False(t, p.GreaterThan(mustDecimal("500")), "price %s above $500", p)
	}
}

func TestGenerateTestDate(t *testing.T) {
	factory := NewTestDataFactory(0)
	now := time.Now()
	for i := 0; i < 50; i++ {
		d := factory.GenerateTestDate()
		assert.False(t, d.After(now))
		assert.True(t, d.After(now.AddDate(0, -1, -2)))
	}
}

func TestGenerateTestResults(t *testing.T) {
	results := NewTestDataFactory(42).GenerateTestResults("etsy", 20)
	assert.Len(t, results, 20)

	seen := make(map[string]bool)
	for _, r := range results {
		assert.Equal(t, "etsy", r.Platform)
		assert.False(t, seen[r.ListingID], "duplicate id %s", r.ListingID)
		seen[r.ListingID] = true
		assert.Contains(t, r.URL, r.ListingID)
		assert.NotEmpty(t, r.Title)
	}
}

func TestResult(t *testing.T) {
	r := Result("ebay", "1", "Blue Hoodie", "20.00", WithShipping("4.50"), WithCondition("Good"))
	assert.Equal(t, "24.5", r.TotalPrice().String())
	assert.Equal(t, "Good", r.Condition)
	assert.Equal(t, 1, r.QuantityAvailable)

	rs := Prices("depop", "10", "20")
	assert.Len(t, rs, 2)
	assert.NotEqual(t, rs[0].Key(), rs[1].Key())
}
