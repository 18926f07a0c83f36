package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/guarzo/crosslist/internal/model"
)

// Query builds a query and fails the test if it is invalid.
func Query(t testing.TB, keywords string, opts ...model.QueryOption) model.SearchQuery {
	t.Helper()
	q, err := model.NewSearchQuery(keywords, opts...)
	require.NoError(t, err)
	return q
}
