package model

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
)

// ServiceListing represents one place/service shown on the map and in result
// lists: a car wash, a mechanic, a parts dismantler and so on. Records come
// from the map-services endpoint denormalized, so most display fields are
// optional and coordinates may be absent or garbage.
type ServiceListing struct {
	ID           string         `json:"id" db:"id"`
	Name         string         `json:"name" db:"name"`
	Address      string         `json:"address,omitempty" db:"address"`
	Category     string         `json:"category,omitempty" db:"category"`
	Description  string         `json:"description,omitempty" db:"description"`
	Images       pq.StringArray `json:"images,omitempty" db:"images"`
	Price        FlexPrice      `json:"price,omitempty" db:"price"`
	Rating       float64        `json:"rating" db:"rating"`
	Reviews      int            `json:"reviews" db:"reviews"`
	Latitude     *float64       `json:"latitude,omitempty" db:"latitude"`
	Longitude    *float64       `json:"longitude,omitempty" db:"longitude"`
	IsOpen       bool           `json:"is_open" db:"is_open"`
	WaitTime     string         `json:"wait_time,omitempty" db:"wait_time"`
	WorkingHours string         `json:"working_hours,omitempty" db:"working_hours"`
	Phone        string         `json:"phone,omitempty" db:"phone"`
	Type         string         `json:"type,omitempty" db:"type"`
	OwnerID      string         `json:"owner_id,omitempty" db:"owner_id"`
	Geohash      string         `json:"-" db:"geohash"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

// HasValidCoordinates reports whether the listing carries finite numeric
// coordinates. Listings failing this never participate in clustering,
// distance filtering or map rendering.
func (l *ServiceListing) HasValidCoordinates() bool {
	if l.Latitude == nil || l.Longitude == nil {
		return false
	}
	if math.IsNaN(*l.Latitude) || math.IsInf(*l.Latitude, 0) {
		return false
	}
	if math.IsNaN(*l.Longitude) || math.IsInf(*l.Longitude, 0) {
		return false
	}
	return true
}

// EffectiveCategory returns the category facet value, falling back to the
// type discriminator when no explicit category is set.
func (l *ServiceListing) EffectiveCategory() string {
	if l.Category != "" {
		return l.Category
	}
	return l.Type
}

// FlexPrice tolerates the backend's mixed price encoding: a JSON number, a
// plain numeric string, or a unit-suffixed string like "50 GEL". The raw
// form is preserved for display; Amount holds the parsed value.
type FlexPrice struct {
	Raw   string
	Amount float64
	Valid bool
}

// NewFlexPrice builds a FlexPrice from a numeric amount.
func NewFlexPrice(v float64) FlexPrice {
	return FlexPrice{Raw: strconv.FormatFloat(v, 'f', -1, 64), Amount: v, Valid: true}
}

// ParseFlexPrice parses a tolerant price string. The leading numeric run is
// taken as the amount; anything after it (currency, per-unit text) is kept
// only in Raw.
func ParseFlexPrice(s string) FlexPrice {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return FlexPrice{}
	}
	end := 0
	for end < len(trimmed) {
		c := trimmed[end]
		if (c >= '0' && c <= '9') || c == '.' {
			end++
			continue
		}
		break
	}
	if end == 0 {
		return FlexPrice{Raw: trimmed}
	}
	v, err := strconv.ParseFloat(trimmed[:end], 64)
	if err != nil {
		return FlexPrice{Raw: trimmed}
	}
	return FlexPrice{Raw: trimmed, Amount: v, Valid: true}
}

// UnmarshalJSON accepts numbers, numeric strings and unit-suffixed strings.
func (p *FlexPrice) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*p = FlexPrice{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = ParseFlexPrice(s)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid price: %w", err)
	}
	*p = NewFlexPrice(v)
	return nil
}

// MarshalJSON writes the raw form back out so unit suffixes survive a
// round-trip.
func (p FlexPrice) MarshalJSON() ([]byte, error) {
	if p.Raw == "" {
		return []byte("null"), nil
	}
	return json.Marshal(p.Raw)
}

// Value implements driver.Valuer interface
func (p FlexPrice) Value() (driver.Value, error) {
	if p.Raw == "" {
		return nil, nil
	}
	return p.Raw, nil
}

// Scan implements sql.Scanner interface
func (p *FlexPrice) Scan(value interface{}) error {
	if value == nil {
		*p = FlexPrice{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*p = ParseFlexPrice(string(v))
	case string:
		*p = ParseFlexPrice(v)
	case float64:
		*p = NewFlexPrice(v)
	case int64:
		*p = NewFlexPrice(float64(v))
	default:
		return fmt.Errorf("cannot scan %T into FlexPrice", value)
	}
	return nil
}
