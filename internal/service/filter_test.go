package service

import (
	"math"
	"testing"

	"carappx/internal/model"
)

func TestFilterListingsDropsInvalidCoordinates(t *testing.T) {
	nan := math.NaN()
	inf := math.Inf(1)
	lat := 41.7151
	lng := 44.8271

	all := []model.ServiceListing{
		{ID: "ok", Latitude: &lat, Longitude: &lng},
		{ID: "missing-both"},
		{ID: "missing-lng", Latitude: &lat},
		{ID: "nan-lat", Latitude: &nan, Longitude: &lng},
		{ID: "inf-lng", Latitude: &lat, Longitude: &inf},
	}

	got := FilterListings(all, model.FilterState{})
	if len(got) != 1 || got[0].ID != "ok" {
		t.Fatalf("expected only the valid listing, got %+v", got)
	}
}

func TestFilterListingsCategoryFacet(t *testing.T) {
	tests := []struct {
		name       string
		categories []string
		wantIDs    []string
	}{
		{"empty selection keeps everything", nil, []string{"wash", "typed-wash", "garage"}},
		{"category member kept", []string{"carwash"}, []string{"wash", "typed-wash"}},
		{"type is the category fallback", []string{"mechanic"}, []string{"garage"}},
	}

	all := []model.ServiceListing{
		geoListing("wash", 41.71, 44.82),
		geoListing("garage", 41.72, 44.83),
		geoListing("typed-wash", 41.73, 44.84),
	}
	all[0].Category = "carwash"
	all[1].Category = "" // falls back to type
	all[1].Type = "mechanic"
	all[2].Category = ""
	all[2].Type = "carwash"

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterListings(all, model.FilterState{SelectedCategories: tt.categories})
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("got %d listings, want %d", len(got), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Errorf("listing %d = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}
}

// The map path deliberately ignores search, price and radius: the map shows
// everything nearby regardless of those facets, but respects category.
func TestFilterListingsIgnoresListOnlyFacets(t *testing.T) {
	expensive := geoListing("expensive", 41.71, 44.82)
	expensive.Price = model.NewFlexPrice(500)

	max := 10.0
	state := model.FilterState{
		SearchQuery: "nothing matches this",
		PriceRange:  &model.PriceRange{Max: &max},
		RadiusKm:    0.001,
	}

	got := FilterListings([]model.ServiceListing{expensive}, state)
	if len(got) != 1 {
		t.Fatalf("map filter must not apply list-only facets, got %d listings", len(got))
	}
}

func TestApplyListFacetsComposesWithAnd(t *testing.T) {
	cheapNear := geoListing("cheap-near", 41.7155, 44.8275)
	cheapNear.Price = model.NewFlexPrice(10)
	cheapNear.Name = "Quick Wash"

	cheapFar := geoListing("cheap-far", 42.5, 44.0)
	cheapFar.Price = model.NewFlexPrice(12)
	cheapFar.Name = "Quick Wash Kazbegi"

	pricey := geoListing("pricey", 41.7160, 44.8280)
	pricey.Price = model.NewFlexPrice(200)
	pricey.Name = "Quick Wash Premium"

	offQuery := geoListing("off-query", 41.7156, 44.8276)
	offQuery.Price = model.NewFlexPrice(11)
	offQuery.Name = "Detailing Studio"

	max := 50.0
	state := model.FilterState{
		SearchQuery: "quick wash",
		PriceRange:  &model.PriceRange{Max: &max},
		RadiusKm:    5,
	}
	originLat, originLng := 41.7151, 44.8271

	got := ApplyListFacets(
		[]model.ServiceListing{cheapNear, cheapFar, pricey, offQuery},
		state, &originLat, &originLng)

	if len(got) != 1 || got[0].ID != "cheap-near" {
		t.Fatalf("AND-composed facets should leave only cheap-near, got %+v", got)
	}
}

func TestNearbyWithin(t *testing.T) {
	nan := math.NaN()
	originLat, originLng := 41.7151, 44.8271

	block := geoListing("block", 41.7155, 44.8275)       // tens of meters away
	district := geoListing("district", 41.7201, 44.8301) // ~0.6 km away
	outskirts := geoListing("outskirts", 41.79, 44.92)   // ~11 km away
	broken := geoListing("broken", 0, 0)
	broken.Latitude = &nan

	got := NearbyWithin(
		[]model.ServiceListing{outskirts, district, broken, block},
		originLat, originLng, 3)

	if len(got) != 2 {
		t.Fatalf("got %d listings within 3 km, want 2", len(got))
	}
	if got[0].ID != "block" || got[1].ID != "district" {
		t.Errorf("order = %s,%s, want nearest first", got[0].ID, got[1].ID)
	}
}

func TestApplyListFacetsSortAfterFilter(t *testing.T) {
	a := geoListing("a", 41.71, 44.82)
	a.Price = model.ParseFlexPrice("30 GEL")
	a.Rating = 4.1

	b := geoListing("b", 41.72, 44.83)
	b.Price = model.NewFlexPrice(10)
	b.Rating = 4.9

	c := geoListing("c", 41.73, 44.84)
	c.Price = model.FlexPrice{Raw: "negotiable"} // unparsable sorts last
	c.Rating = 4.5

	listings := []model.ServiceListing{a, b, c}

	byPrice := ApplyListFacets(listings, model.FilterState{SortBy: model.SortPriceLow}, nil, nil)
	if byPrice[0].ID != "b" || byPrice[1].ID != "a" || byPrice[2].ID != "c" {
		t.Errorf("price_low order = %s,%s,%s", byPrice[0].ID, byPrice[1].ID, byPrice[2].ID)
	}

	byRating := ApplyListFacets(listings, model.FilterState{SortBy: model.SortRating}, nil, nil)
	if byRating[0].ID != "b" || byRating[1].ID != "c" || byRating[2].ID != "a" {
		t.Errorf("rating order = %s,%s,%s", byRating[0].ID, byRating[1].ID, byRating[2].ID)
	}

	originLat, originLng := 41.705, 44.81
	byDistance := ApplyListFacets(listings, model.FilterState{SortBy: model.SortDistance}, &originLat, &originLng)
	if byDistance[0].ID != "a" || byDistance[2].ID != "c" {
		t.Errorf("distance order starts with %s, ends with %s", byDistance[0].ID, byDistance[2].ID)
	}
}
