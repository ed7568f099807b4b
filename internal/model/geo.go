package model

// Viewport is the map's visible area: center coordinate plus latitude and
// longitude deltas, matching the region the maps SDK reports on settle.
type Viewport struct {
	Latitude       float64 `json:"latitude" form:"lat"`
	Longitude      float64 `json:"longitude" form:"lng"`
	LatitudeDelta  float64 `json:"latitude_delta" form:"lat_delta"`
	LongitudeDelta float64 `json:"longitude_delta" form:"lng_delta"`
}

// BoundingBox returns the viewport's bounds as [minLng, minLat, maxLng, maxLat].
func (v Viewport) BoundingBox() (minLng, minLat, maxLng, maxLat float64) {
	return v.Longitude - v.LongitudeDelta/2,
		v.Latitude - v.LatitudeDelta/2,
		v.Longitude + v.LongitudeDelta/2,
		v.Latitude + v.LatitudeDelta/2
}

// ClusterPoint is one render-ready map marker: either an aggregate Cluster of
// two or more listings too close together at the current zoom, or a Leaf
// wrapping exactly one listing. Recomputed per render pass, never persisted.
type ClusterPoint struct {
	Latitude   float64         `json:"latitude"`
	Longitude  float64         `json:"longitude"`
	PointCount int             `json:"point_count"`
	ListingIDs []string        `json:"listing_ids,omitempty"`
	Listing    *ServiceListing `json:"listing,omitempty"`
}

// IsCluster reports whether the point aggregates multiple listings. A Leaf
// carries the wrapped listing instead.
func (p ClusterPoint) IsCluster() bool {
	return p.Listing == nil
}
