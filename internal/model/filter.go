package model

// Sort order constants for result lists.
const (
	SortRating    = "rating"
	SortPriceLow  = "price_low"
	SortPriceHigh = "price_high"
	SortDistance  = "distance"
)

// FilterState holds the client-transient result facets. Facets compose by
// logical AND; sorting is applied after filtering, never before.
type FilterState struct {
	SelectedCategories []string    `json:"selected_categories,omitempty" form:"categories"`
	SearchQuery        string      `json:"search_query,omitempty" form:"q"`
	RadiusKm           float64     `json:"radius_km,omitempty" form:"radius_km"`
	PriceRange         *PriceRange `json:"price_range,omitempty"`
	SortBy             string      `json:"sort_by,omitempty" form:"sort_by"`
}

// PriceRange bounds the price facet. A nil bound is open-ended.
type PriceRange struct {
	Min *float64 `json:"min,omitempty" form:"price_min"`
	Max *float64 `json:"max,omitempty" form:"price_max"`
}

// HasCategory reports whether the category is selected. An empty selection
// means no category restriction at all.
func (f *FilterState) HasCategory(category string) bool {
	if len(f.SelectedCategories) == 0 {
		return true
	}
	for _, c := range f.SelectedCategories {
		if c == category {
			return true
		}
	}
	return false
}
