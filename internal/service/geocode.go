package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"carappx/internal/config"
)

// Geocoder resolves coordinates to a human address. Failures degrade to a
// raw coordinate string rather than propagating: an ugly address beats a
// broken location field.
type Geocoder struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     *zap.Logger
}

// NewGeocoder creates a reverse-geocoding client.
func NewGeocoder(cfg config.GeocodeConfig, log *zap.Logger) *Geocoder {
	return &Geocoder{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		log:     log,
	}
}

type reverseGeocodeResponse struct {
	DisplayName string `json:"display_name"`
}

// ReverseGeocode looks up the address for a coordinate. It always returns a
// usable string.
func (g *Geocoder) ReverseGeocode(ctx context.Context, lat, lng float64) string {
	fallback := fmt.Sprintf("%.5f, %.5f", lat, lng)

	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%f", lat))
	params.Set("lon", fmt.Sprintf("%f", lng))
	params.Set("format", "json")
	if g.apiKey != "" {
		params.Set("key", g.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fallback
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.log.Warn("reverse geocode failed, using raw coordinates", zap.Error(err))
		return fallback
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.log.Warn("reverse geocode failed, using raw coordinates", zap.Int("status", resp.StatusCode))
		return fallback
	}

	var parsed reverseGeocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil || parsed.DisplayName == "" {
		return fallback
	}
	return parsed.DisplayName
}
