package service

import (
	"context"

	"go.uber.org/zap"

	"carappx/internal/model"
)

// ListingSource provides the denormalized listing set the map screen is
// built from.
type ListingSource interface {
	MapListings(ctx context.Context) ([]model.ServiceListing, error)
}

// MapView is the reconciled output for one viewport: the marker set plus the
// horizontally-ordered result list backing the card strip.
type MapView struct {
	Points   []model.ClusterPoint   `json:"points"`
	Listings []model.ServiceListing `json:"listings"`
	Zoom     int                    `json:"zoom"`
	Fallback bool                   `json:"fallback,omitempty"`
}

// MapViewService fetches listings, filters them and clusters them for a
// viewport. A fetch failure falls back to a built-in sample set so the
// screen is never empty.
type MapViewService struct {
	source ListingSource
	engine *ClusterEngine
	log    *zap.Logger
}

// NewMapViewService creates a map view service.
func NewMapViewService(source ListingSource, engine *ClusterEngine, log *zap.Logger) *MapViewService {
	return &MapViewService{source: source, engine: engine, log: log}
}

// View builds the map view for a viewport and filter state.
func (s *MapViewService) View(ctx context.Context, vp model.Viewport, state model.FilterState) *MapView {
	fallback := false
	all, err := s.source.MapListings(ctx)
	if err != nil {
		s.log.Error("map listings fetch failed, serving sample set", zap.Error(err))
		all = SampleListings()
		fallback = true
	}

	filtered := FilterListings(all, state)
	return &MapView{
		Points:   s.engine.Cluster(filtered, vp),
		Listings: filtered,
		Zoom:     ZoomForLatDelta(vp.LatitudeDelta),
		Fallback: fallback,
	}
}

// FocusByOffset resolves the listing the card strip settled on. The sync is
// one-way: the resolved listing becomes the map's focus target, map panning
// never reorders the list.
func (s *MapViewService) FocusByOffset(view *MapView, offset, cardWidth, spacing float64) *model.ServiceListing {
	if len(view.Listings) == 0 {
		return nil
	}
	idx := FocusIndexForOffset(offset, cardWidth, spacing, len(view.Listings))
	return &view.Listings[idx]
}

func floatPtr(v float64) *float64 { return &v }

// SampleListings is the built-in static set served when the listings
// endpoint is unreachable.
func SampleListings() []model.ServiceListing {
	return []model.ServiceListing{
		{
			ID:        "sample-1",
			Name:      "Auto Spa Saburtalo",
			Address:   "Vazha-Pshavela Ave 71, Tbilisi",
			Category:  "carwash",
			Type:      "carwash",
			Price:     model.ParseFlexPrice("15 GEL"),
			Rating:    4.8,
			Reviews:   214,
			IsOpen:    true,
			WaitTime:  "10 min",
			Latitude:  floatPtr(41.7249),
			Longitude: floatPtr(44.7454),
		},
		{
			ID:        "sample-2",
			Name:      "GT Motors Service",
			Address:   "Kakheti Hwy 12, Tbilisi",
			Category:  "mechanic",
			Type:      "mechanic",
			Price:     model.ParseFlexPrice("50 GEL"),
			Rating:    4.5,
			Reviews:   96,
			IsOpen:    true,
			Latitude:  floatPtr(41.6934),
			Longitude: floatPtr(44.8851),
		},
		{
			ID:        "sample-3",
			Name:      "Gldani Dismantlers",
			Address:   "Omar Khizanishvili St 5, Tbilisi",
			Category:  "dismantler",
			Type:      "dismantler",
			Rating:    4.2,
			Reviews:   41,
			IsOpen:    false,
			Latitude:  floatPtr(41.7785),
			Longitude: floatPtr(44.8042),
		},
	}
}
