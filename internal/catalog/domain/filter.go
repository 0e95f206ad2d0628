package domain

type SortMode string

const (
	SortNewest    SortMode = "newest"
	SortPriceLow  SortMode = "price_low"
	SortPriceHigh SortMode = "price_high"
)

// Filter holds the current catalog query parameters. Empty CategoryID,
// Province or Search means no restriction on that field.
type Filter struct {
	CategoryID string
	Province   string
	Search     string
	SortBy     SortMode
}

// NewFilter returns the default filter: no restrictions, newest first.
func NewFilter() Filter {
	return Filter{SortBy: SortNewest}
}
