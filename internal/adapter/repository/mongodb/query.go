package mongodb

import (
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/lephu2k6/agri-flow-platform-sub001/internal/catalog/domain"
)

// fieldColumns maps the query builder's logical field names to document keys.
// This is the only place where the two vocabularies meet.
var fieldColumns = map[string]string{
	domain.FieldStatus:     "status",
	domain.FieldCategoryID: "category_id",
	domain.FieldProvince:   "province",
	domain.FieldTitle:      "title",
	domain.FieldCreatedAt:  "created_at",
	domain.FieldPrice:      "price_per_unit",
}

// translateQuery converts a typed catalog query into a bson match document
// and a sort document.
func translateQuery(q domain.Query) (bson.M, bson.D, error) {
	match := bson.M{}
	for _, p := range q.Predicates {
		column, ok := fieldColumns[p.Field]
		if !ok {
			return nil, nil, fmt.Errorf("unknown query field %q", p.Field)
		}
		switch p.Kind {
		case domain.PredicateEquals:
			match[column] = p.Value
		case domain.PredicateContainsFold:
			match[column] = bson.M{"$regex": regexp.QuoteMeta(p.Value), "$options": "i"}
		default:
			return nil, nil, fmt.Errorf("unknown predicate kind %q", p.Kind)
		}
	}

	column, ok := fieldColumns[q.OrderBy.Field]
	if !ok {
		return nil, nil, fmt.Errorf("unknown ordering field %q", q.OrderBy.Field)
	}
	direction := 1
	if q.OrderBy.Descending {
		direction = -1
	}
	sort := bson.D{{Key: column, Value: direction}}

	return match, sort, nil
}
