package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"carappx/internal/middleware"
	"carappx/internal/model"
	"carappx/internal/repository"
	"carappx/internal/service"
	"carappx/internal/utils"
)

// ListingsHandler serves the map view and the listing queries.
type ListingsHandler struct {
	mapView      *service.MapViewService
	repo         *repository.PostgresRepository
	defaultLimit int
	maxLimit     int
}

// NewListingsHandler creates a listings handler.
func NewListingsHandler(mapView *service.MapViewService, repo *repository.PostgresRepository, defaultLimit, maxLimit int) *ListingsHandler {
	return &ListingsHandler{
		mapView:      mapView,
		repo:         repo,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// MapServices handles GET /api/v1/services/map
func (h *ListingsHandler) MapServices(c *gin.Context) {
	vp := model.Viewport{
		Latitude:       parseFloatQuery(c, "lat", 41.7151),
		Longitude:      parseFloatQuery(c, "lng", 44.8271),
		LatitudeDelta:  parseFloatQuery(c, "lat_delta", 0.05),
		LongitudeDelta: parseFloatQuery(c, "lng_delta", 0.05),
	}

	state := model.FilterState{}
	if raw := c.Query("categories"); raw != "" {
		state.SelectedCategories = strings.Split(raw, ",")
	}

	view := h.mapView.View(c.Request.Context(), vp, state)
	c.JSON(http.StatusOK, view)
}

// List handles GET /api/v1/listings?type=
func (h *ListingsHandler) List(c *gin.Context) {
	serviceType := c.Query("type")
	if serviceType == "" {
		c.Error(utils.NewCustomError(http.StatusBadRequest, "Missing type parameter"))
		return
	}
	if _, err := model.ParseItemType(serviceType); err != nil {
		c.Error(utils.NewCustomError(http.StatusBadRequest, "Invalid type: "+err.Error()))
		return
	}

	limit := parseIntQuery(c, "limit", h.defaultLimit)
	if limit > h.maxLimit {
		limit = h.maxLimit
	}
	offset := parseIntQuery(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	listings, total, err := h.repo.ListingsByType(c.Request.Context(), serviceType, limit, offset)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results": listings,
		"total":   total,
	})
}

// Nearby handles GET /api/v1/services/nearby. The geohash-prefix query
// narrows the candidate set to the coordinate's cell; exact haversine
// distance then enforces the radius and orders the result.
func (h *ListingsHandler) Nearby(c *gin.Context) {
	lat := c.Query("lat")
	lng := c.Query("lng")
	if lat == "" || lng == "" {
		c.Error(utils.NewCustomError(http.StatusBadRequest, "Missing lat/lng parameters"))
		return
	}

	originLat := parseFloatQuery(c, "lat", 0)
	originLng := parseFloatQuery(c, "lng", 0)
	radiusKm := parseFloatQuery(c, "radius_km", 3)

	candidates, err := h.repo.ListingsNear(c.Request.Context(), originLat, originLng)
	if err != nil {
		c.Error(err)
		return
	}

	listings := service.NearbyWithin(candidates, originLat, originLng, radiusKm)
	c.JSON(http.StatusOK, gin.H{
		"results":   listings,
		"radius_km": radiusKm,
	})
}

// Get handles GET /api/v1/listings/:id
func (h *ListingsHandler) Get(c *gin.Context) {
	listing, err := h.repo.ListingByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	if listing == nil {
		c.Error(utils.NewCustomError(http.StatusNotFound, "Listing not found"))
		return
	}
	c.JSON(http.StatusOK, listing)
}

// Mine handles GET /api/v1/my/listings (authenticated)
func (h *ListingsHandler) Mine(c *gin.Context) {
	listings, err := h.repo.ListingsByOwner(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": listings})
}

func parseFloatQuery(c *gin.Context, key string, fallback float64) float64 {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
