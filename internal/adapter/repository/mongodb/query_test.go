package mongodb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/lephu2k6/agri-flow-platform-sub001/internal/catalog/domain"
)

func TestTranslateQuery_DefaultCatalogQuery(t *testing.T) {
	match, sort, err := translateQuery(domain.BuildCatalogQuery(domain.NewFilter()))

	require.NoError(t, err)
	assert.Equal(t, bson.M{"status": string(domain.StatusAvailable)}, match)
	assert.Equal(t, bson.D{{Key: "created_at", Value: -1}}, sort)
}

func TestTranslateQuery_EqualityPredicates(t *testing.T) {
	match, sort, err := translateQuery(domain.BuildCatalogQuery(domain.Filter{
		CategoryID: "veg-1",
		Province:   "Lam Dong",
		SortBy:     domain.SortPriceLow,
	}))

	require.NoError(t, err)
	assert.Equal(t, bson.M{
		"status":      string(domain.StatusAvailable),
		"category_id": "veg-1",
		"province":    "Lam Dong",
	}, match)
	assert.Equal(t, bson.D{{Key: "price_per_unit", Value: 1}}, sort)
}

func TestTranslateQuery_SubstringIsCaseInsensitiveAndEscaped(t *testing.T) {
	match, _, err := translateQuery(domain.BuildCatalogQuery(domain.Filter{
		Search: "a.b(c",
		SortBy: domain.SortNewest,
	}))

	require.NoError(t, err)
	title, ok := match["title"].(bson.M)
	require.True(t, ok, "title predicate must be a regex document")
	assert.Equal(t, "i", title["$options"], "substring match must be case-insensitive")
	assert.Equal(t, `a\.b\(c`, title["$regex"], "regex metacharacters in search input must be escaped")
}

func TestTranslateQuery_RejectsUnknownField(t *testing.T) {
	_, _, err := translateQuery(domain.Query{
		Predicates: []domain.Predicate{{Kind: domain.PredicateEquals, Field: "rating", Value: "5"}},
		OrderBy:    domain.Ordering{Field: domain.FieldCreatedAt, Descending: true},
	})
	assert.Error(t, err)
}

func TestTranslateQuery_RejectsUnknownPredicateKind(t *testing.T) {
	_, _, err := translateQuery(domain.Query{
		Predicates: []domain.Predicate{{Kind: "between", Field: domain.FieldPrice, Value: "1"}},
		OrderBy:    domain.Ordering{Field: domain.FieldCreatedAt, Descending: true},
	})
	assert.Error(t, err)
}
