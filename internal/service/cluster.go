package service

import (
	"fmt"
	"math"
	"sort"

	"github.com/tidwall/rtree"
	"go.uber.org/zap"

	"carappx/internal/model"
)

// gridDivisions is the number of cluster cells per viewport axis. Listings
// landing in the same cell are aggregated into one marker.
const gridDivisions = 8

// ClusterEngine turns a filtered listing set plus a map viewport into a
// render-ready set of cluster/leaf markers. It is stateless; callers invoke
// Cluster on every viewport settle.
type ClusterEngine struct {
	log *zap.Logger
}

// NewClusterEngine creates a cluster engine.
func NewClusterEngine(log *zap.Logger) *ClusterEngine {
	return &ClusterEngine{log: log}
}

// Cluster computes the marker set for the viewport. Listings are spatially
// indexed by [lng, lat], queried against the viewport's bounding box at the
// zoom level derived from the latitude delta, and grouped per grid cell.
// Any indexing or query failure degrades to one Leaf per listing so the map
// view never goes blank.
func (e *ClusterEngine) Cluster(listings []model.ServiceListing, vp model.Viewport) []model.ClusterPoint {
	if !viewportValid(vp) {
		e.log.Warn("invalid viewport, degrading to ungrouped markers",
			zap.Float64("lat_delta", vp.LatitudeDelta),
			zap.Float64("lng_delta", vp.LongitudeDelta))
		return leavesFor(listings)
	}

	points, err := e.clusterIndexed(listings, vp)
	if err != nil {
		e.log.Warn("spatial index failed, degrading to ungrouped markers", zap.Error(err))
		return leavesFor(listings)
	}
	return points
}

func (e *ClusterEngine) clusterIndexed(listings []model.ServiceListing, vp model.Viewport) (points []model.ClusterPoint, err error) {
	// The index is third-party territory; a panic there must not take the
	// screen down with it.
	defer func() {
		if r := recover(); r != nil {
			points = nil
			err = recoveredError(r)
		}
	}()

	var index rtree.RTreeG[model.ServiceListing]
	for _, l := range listings {
		if !l.HasValidCoordinates() {
			continue
		}
		pt := [2]float64{*l.Longitude, *l.Latitude}
		index.Insert(pt, pt, l)
	}

	minLng, minLat, maxLng, maxLat := vp.BoundingBox()

	var visible []model.ServiceListing
	index.Search([2]float64{minLng, minLat}, [2]float64{maxLng, maxLat},
		func(_, _ [2]float64, l model.ServiceListing) bool {
			visible = append(visible, l)
			return true
		})

	// Stable input order keeps centroids and member lists deterministic
	// across passes over the same data.
	sort.Slice(visible, func(i, j int) bool { return visible[i].ID < visible[j].ID })

	cellLat := vp.LatitudeDelta / gridDivisions
	cellLng := vp.LongitudeDelta / gridDivisions

	type cell struct {
		sumLat, sumLng float64
		members        []model.ServiceListing
	}
	cells := make(map[[2]int]*cell)
	order := make([][2]int, 0, len(visible))

	for i := range visible {
		l := visible[i]
		key := [2]int{
			int(math.Floor((*l.Latitude - minLat) / cellLat)),
			int(math.Floor((*l.Longitude - minLng) / cellLng)),
		}
		c, ok := cells[key]
		if !ok {
			c = &cell{}
			cells[key] = c
			order = append(order, key)
		}
		c.sumLat += *l.Latitude
		c.sumLng += *l.Longitude
		c.members = append(c.members, l)
	}

	points = make([]model.ClusterPoint, 0, len(order))
	for _, key := range order {
		c := cells[key]
		n := len(c.members)
		if n == 1 {
			leaf := c.members[0]
			points = append(points, model.ClusterPoint{
				Latitude:   *leaf.Latitude,
				Longitude:  *leaf.Longitude,
				PointCount: 1,
				Listing:    &leaf,
			})
			continue
		}
		ids := make([]string, n)
		for i, m := range c.members {
			ids[i] = m.ID
		}
		points = append(points, model.ClusterPoint{
			Latitude:   c.sumLat / float64(n),
			Longitude:  c.sumLng / float64(n),
			PointCount: n,
			ListingIDs: ids,
		})
	}
	return points, nil
}

// ExpandCluster returns the viewport to animate to when a cluster marker is
// tapped: centered on the cluster, zoomed in by the bounded step.
func (e *ClusterEngine) ExpandCluster(p model.ClusterPoint, current model.Viewport) model.Viewport {
	currentZoom := ZoomForLatDelta(current.LatitudeDelta)
	targetDelta := LatDeltaForZoom(ZoomInOnCluster(currentZoom))
	return model.Viewport{
		Latitude:       p.Latitude,
		Longitude:      p.Longitude,
		LatitudeDelta:  targetDelta,
		LongitudeDelta: targetDelta,
	}
}

func recoveredError(r interface{}) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", r)
}

func viewportValid(vp model.Viewport) bool {
	for _, v := range []float64{vp.Latitude, vp.Longitude, vp.LatitudeDelta, vp.LongitudeDelta} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return vp.LatitudeDelta > 0 && vp.LongitudeDelta > 0
}

func leavesFor(listings []model.ServiceListing) []model.ClusterPoint {
	points := make([]model.ClusterPoint, 0, len(listings))
	for i := range listings {
		l := listings[i]
		if !l.HasValidCoordinates() {
			continue
		}
		points = append(points, model.ClusterPoint{
			Latitude:   *l.Latitude,
			Longitude:  *l.Longitude,
			PointCount: 1,
			Listing:    &l,
		})
	}
	return points
}
