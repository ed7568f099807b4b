package service

import (
	"sort"
	"strings"

	"carappx/internal/model"
)

// FilterListings applies the map-screen facet subset: listings without valid
// coordinates are dropped, and the category facet (with type fallback) is
// honored when non-empty. Search, price and radius facets are intentionally
// not applied on the map path; the map shows everything nearby regardless of
// price or radius but respects category. ApplyListFacets is the list-screen
// variant that applies the full set.
func FilterListings(all []model.ServiceListing, state model.FilterState) []model.ServiceListing {
	filtered := make([]model.ServiceListing, 0, len(all))
	for i := range all {
		l := all[i]
		if !l.HasValidCoordinates() {
			continue
		}
		if !state.HasCategory(l.EffectiveCategory()) {
			continue
		}
		filtered = append(filtered, l)
	}
	return filtered
}

// ApplyListFacets applies every facet for the list-only screen: category,
// search query, price range and radius, AND-composed, then the requested
// sort. The origin coordinate anchors radius and distance ordering; with a
// nil origin those two are skipped.
func ApplyListFacets(all []model.ServiceListing, state model.FilterState, originLat, originLng *float64) []model.ServiceListing {
	query := strings.ToLower(strings.TrimSpace(state.SearchQuery))

	filtered := make([]model.ServiceListing, 0, len(all))
	for i := range all {
		l := all[i]
		if !state.HasCategory(l.EffectiveCategory()) {
			continue
		}
		if query != "" && !matchesQuery(&l, query) {
			continue
		}
		if state.PriceRange != nil && !priceInRange(l.Price, state.PriceRange) {
			continue
		}
		if state.RadiusKm > 0 && originLat != nil && originLng != nil {
			if !l.HasValidCoordinates() {
				continue
			}
			if DistanceKm(*originLat, *originLng, *l.Latitude, *l.Longitude) > state.RadiusKm {
				continue
			}
		}
		filtered = append(filtered, l)
	}

	sortListings(filtered, state.SortBy, originLat, originLng)
	return filtered
}

// NearbyWithin keeps listings within radiusKm of the origin, nearest first.
// Callers prefilter candidates by geohash cell; the cell is coarse, so this
// refines the match with the exact haversine distance.
func NearbyWithin(candidates []model.ServiceListing, lat, lng, radiusKm float64) []model.ServiceListing {
	filtered := make([]model.ServiceListing, 0, len(candidates))
	for i := range candidates {
		l := candidates[i]
		if !l.HasValidCoordinates() {
			continue
		}
		if DistanceKm(lat, lng, *l.Latitude, *l.Longitude) > radiusKm {
			continue
		}
		filtered = append(filtered, l)
	}
	sortListings(filtered, model.SortDistance, &lat, &lng)
	return filtered
}

func matchesQuery(l *model.ServiceListing, query string) bool {
	return strings.Contains(strings.ToLower(l.Name), query) ||
		strings.Contains(strings.ToLower(l.Description), query) ||
		strings.Contains(strings.ToLower(l.Address), query)
}

func priceInRange(p model.FlexPrice, r *model.PriceRange) bool {
	if !p.Valid {
		// un-priced listings survive the facet rather than vanishing
		return true
	}
	if r.Min != nil && p.Amount < *r.Min {
		return false
	}
	if r.Max != nil && p.Amount > *r.Max {
		return false
	}
	return true
}

// sortListings orders an already-filtered result set. Sort never runs before
// filtering.
func sortListings(listings []model.ServiceListing, sortBy string, originLat, originLng *float64) {
	switch sortBy {
	case model.SortRating:
		sort.SliceStable(listings, func(i, j int) bool {
			return listings[i].Rating > listings[j].Rating
		})
	case model.SortPriceLow:
		sort.SliceStable(listings, func(i, j int) bool {
			return priceSortValue(listings[i].Price) < priceSortValue(listings[j].Price)
		})
	case model.SortPriceHigh:
		sort.SliceStable(listings, func(i, j int) bool {
			return priceSortValue(listings[j].Price) < priceSortValue(listings[i].Price)
		})
	case model.SortDistance:
		if originLat == nil || originLng == nil {
			return
		}
		sort.SliceStable(listings, func(i, j int) bool {
			return distanceSortValue(listings[i], *originLat, *originLng) <
				distanceSortValue(listings[j], *originLat, *originLng)
		})
	}
}

func priceSortValue(p model.FlexPrice) float64 {
	if !p.Valid {
		// unparsable prices sort last in ascending order
		return 1e18
	}
	return p.Amount
}

func distanceSortValue(l model.ServiceListing, lat, lng float64) float64 {
	if !l.HasValidCoordinates() {
		return 1e18
	}
	return DistanceKm(lat, lng, *l.Latitude, *l.Longitude)
}
