package service

import "math"

const earthRadiusKm = 6371.0 // Radius of Earth in km

// DistanceKm computes the haversine great-circle distance between two points
// in kilometers.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * (math.Pi / 180.0)
	dLon := (lon2 - lon1) * (math.Pi / 180.0)

	lat1 = lat1 * (math.Pi / 180.0)
	lat2 = lat2 * (math.Pi / 180.0)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1)*math.Cos(lat2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// zoom bounds of the map tiling scheme
const (
	minZoom = 0
	maxZoom = 20
)

// cluster-tap zoom-in is bounded so an expanded cluster never overshoots
// into an empty-looking close-up
const (
	clusterTapZoomStep = 6
	clusterTapMaxZoom  = 14
)

// ZoomForLatDelta derives the integer zoom level from a viewport's latitude
// delta: round(log2(360/latDelta)) clamped to [0, 20].
func ZoomForLatDelta(latDelta float64) int {
	if latDelta <= 0 {
		return maxZoom
	}
	zoom := int(math.Round(math.Log2(360 / latDelta)))
	if zoom < minZoom {
		return minZoom
	}
	if zoom > maxZoom {
		return maxZoom
	}
	return zoom
}

// LatDeltaForZoom is the inverse mapping: 360 / 2^zoom.
func LatDeltaForZoom(zoom int) float64 {
	return 360 / math.Pow(2, float64(zoom))
}

// ZoomInOnCluster returns the zoom level to animate to when a cluster is
// tapped: min(currentZoom+6, 14).
func ZoomInOnCluster(currentZoom int) int {
	target := currentZoom + clusterTapZoomStep
	if target > clusterTapMaxZoom {
		return clusterTapMaxZoom
	}
	return target
}

// FocusIndexForOffset resolves which result card the horizontal strip settled
// on: integer division of the scroll offset by the card pitch, clamped to the
// valid index range.
func FocusIndexForOffset(offset, cardWidth, spacing float64, count int) int {
	if count <= 0 {
		return 0
	}
	pitch := cardWidth + spacing
	if pitch <= 0 {
		return 0
	}
	idx := int(offset / pitch)
	if idx < 0 {
		return 0
	}
	if idx >= count {
		return count - 1
	}
	return idx
}
