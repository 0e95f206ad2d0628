package domain

// Logical field names used by catalog queries. Storage adapters map these to
// their own column or document keys; nothing here is storage vocabulary.
const (
	FieldStatus     = "status"
	FieldCategoryID = "categoryId"
	FieldProvince   = "province"
	FieldTitle      = "title"
	FieldCreatedAt  = "createdAt"
	FieldPrice      = "pricePerUnit"
)

type PredicateKind string

const (
	// PredicateEquals restricts a field to an exact value.
	PredicateEquals PredicateKind = "equals"
	// PredicateContainsFold restricts a field to values containing the given
	// substring, compared case-insensitively.
	PredicateContainsFold PredicateKind = "contains_fold"
)

type Predicate struct {
	Kind  PredicateKind
	Field string
	Value string
}

type Ordering struct {
	Field      string
	Descending bool
}

// Query is the declarative description handed to the storage adapter: a
// conjunction of predicates plus a single ordering directive.
type Query struct {
	Predicates []Predicate
	OrderBy    Ordering
}

// BuildCatalogQuery maps a filter to a catalog query. Pure and deterministic.
//
// Archived listings are never returned by catalog queries: the status
// restriction is always present, which is how soft delete stays invisible to
// buyers. An unrecognized sort mode falls back to newest rather than erroring.
func BuildCatalogQuery(f Filter) Query {
	preds := []Predicate{
		{Kind: PredicateEquals, Field: FieldStatus, Value: string(StatusAvailable)},
	}
	if f.CategoryID != "" {
		preds = append(preds, Predicate{Kind: PredicateEquals, Field: FieldCategoryID, Value: f.CategoryID})
	}
	if f.Province != "" {
		preds = append(preds, Predicate{Kind: PredicateEquals, Field: FieldProvince, Value: f.Province})
	}
	if f.Search != "" {
		preds = append(preds, Predicate{Kind: PredicateContainsFold, Field: FieldTitle, Value: f.Search})
	}

	var order Ordering
	switch f.SortBy {
	case SortPriceLow:
		order = Ordering{Field: FieldPrice, Descending: false}
	case SortPriceHigh:
		order = Ordering{Field: FieldPrice, Descending: true}
	default:
		order = Ordering{Field: FieldCreatedAt, Descending: true}
	}

	return Query{Predicates: preds, OrderBy: order}
}
