package service

import (
	"math"
	"testing"

	"go.uber.org/zap"

	"carappx/internal/model"
)

func geoListing(id string, lat, lng float64) model.ServiceListing {
	return model.ServiceListing{ID: id, Name: id, Type: "carwash", Latitude: &lat, Longitude: &lng}
}

// viewport at zoom 10 (latDelta = 360/2^10) centered on Tbilisi
func zoom10Viewport() model.Viewport {
	return model.Viewport{
		Latitude:       41.715,
		Longitude:      44.827,
		LatitudeDelta:  360.0 / 1024.0,
		LongitudeDelta: 360.0 / 1024.0,
	}
}

func TestClusterGroupsNearbyPoints(t *testing.T) {
	engine := NewClusterEngine(zap.NewNop())

	// two points ~600m apart, one several km away
	listings := []model.ServiceListing{
		geoListing("a", 41.7151, 44.8271),
		geoListing("b", 41.7201, 44.8301),
		geoListing("c", 41.7900, 44.9200),
	}

	points := engine.Cluster(listings, zoom10Viewport())
	if len(points) != 2 {
		t.Fatalf("expected 2 markers, got %d: %+v", len(points), points)
	}

	var cluster, leaf *model.ClusterPoint
	for i := range points {
		if points[i].IsCluster() {
			cluster = &points[i]
		} else {
			leaf = &points[i]
		}
	}

	if cluster == nil {
		t.Fatal("expected one cluster marker")
	}
	if cluster.PointCount != 2 {
		t.Errorf("cluster point count = %d, want 2", cluster.PointCount)
	}
	wantLat := (41.7151 + 41.7201) / 2
	wantLng := (44.8271 + 44.8301) / 2
	if math.Abs(cluster.Latitude-wantLat) > 1e-9 || math.Abs(cluster.Longitude-wantLng) > 1e-9 {
		t.Errorf("cluster centroid = (%v, %v), want (%v, %v)",
			cluster.Latitude, cluster.Longitude, wantLat, wantLng)
	}

	if leaf == nil {
		t.Fatal("expected one leaf marker")
	}
	if leaf.Listing == nil || leaf.Listing.ID != "c" {
		t.Errorf("leaf should wrap listing c, got %+v", leaf.Listing)
	}
}

func TestClusterSkipsOutOfViewportPoints(t *testing.T) {
	engine := NewClusterEngine(zap.NewNop())

	listings := []model.ServiceListing{
		geoListing("in", 41.7151, 44.8271),
		geoListing("far-away", 48.8566, 2.3522), // Paris is not on a Tbilisi screen
	}

	points := engine.Cluster(listings, zoom10Viewport())
	if len(points) != 1 {
		t.Fatalf("expected 1 marker, got %d", len(points))
	}
	if points[0].Listing == nil || points[0].Listing.ID != "in" {
		t.Errorf("expected the in-viewport leaf, got %+v", points[0])
	}
}

func TestClusterExcludesInvalidCoordinates(t *testing.T) {
	engine := NewClusterEngine(zap.NewNop())

	nan := math.NaN()
	listings := []model.ServiceListing{
		geoListing("valid", 41.7151, 44.8271),
		{ID: "no-coords", Name: "no-coords"},
		{ID: "nan-lat", Latitude: &nan, Longitude: floatPtr(44.83)},
	}

	points := engine.Cluster(listings, zoom10Viewport())
	if len(points) != 1 {
		t.Fatalf("expected only the valid listing, got %d markers", len(points))
	}
}

func TestClusterDegradesToLeavesOnBadViewport(t *testing.T) {
	engine := NewClusterEngine(zap.NewNop())

	listings := []model.ServiceListing{
		geoListing("a", 41.7151, 44.8271),
		geoListing("b", 41.7201, 44.8301),
	}

	bad := model.Viewport{Latitude: math.NaN(), Longitude: 44.827, LatitudeDelta: 0.35, LongitudeDelta: 0.35}
	points := engine.Cluster(listings, bad)

	if len(points) != len(listings) {
		t.Fatalf("fallback should produce one leaf per listing, got %d", len(points))
	}
	for _, p := range points {
		if p.IsCluster() {
			t.Errorf("fallback must not produce clusters: %+v", p)
		}
	}
}

func TestExpandClusterBoundsZoom(t *testing.T) {
	engine := NewClusterEngine(zap.NewNop())
	p := model.ClusterPoint{Latitude: 41.72, Longitude: 44.83, PointCount: 3}

	for zoom := 0; zoom <= 20; zoom++ {
		current := model.Viewport{
			Latitude:       41.715,
			Longitude:      44.827,
			LatitudeDelta:  LatDeltaForZoom(zoom),
			LongitudeDelta: LatDeltaForZoom(zoom),
		}
		next := engine.ExpandCluster(p, current)

		gotZoom := ZoomForLatDelta(next.LatitudeDelta)
		if gotZoom > 14 {
			t.Errorf("zoom after expand from %d = %d, exceeds cap 14", zoom, gotZoom)
		}
		if gotZoom > zoom+6 {
			t.Errorf("zoom after expand from %d = %d, exceeds step bound", zoom, gotZoom)
		}
		if next.Latitude != p.Latitude || next.Longitude != p.Longitude {
			t.Errorf("expand must recenter on the cluster")
		}
	}
}
