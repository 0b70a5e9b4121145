// Package model defines core domain types shared across the service.
package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// GeoCoordinate is a WGS84 position in decimal degrees. Projected systems
// reuse it as an (x,y) carrier: Longitude holds easting and Latitude northing.
type GeoCoordinate struct {
	Latitude  float64
	Longitude float64
}

func NewGeoCoordinate(lat, lon float64) GeoCoordinate {
	return GeoCoordinate{Latitude: lat, Longitude: lon}
}

func (c GeoCoordinate) IsValid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

func (c GeoCoordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Latitude, c.Longitude)
}

// BoundingBox is an axis-aligned box. The constructor takes latitude first;
// the WFS wire form is minLon,minLat,maxLon,maxLat.
type BoundingBox struct {
	MinLat float64
	MinLon float64
	MaxLat float64
	MaxLon float64
}

func NewBoundingBox(minLat, minLon, maxLat, maxLon float64) BoundingBox {
	return BoundingBox{MinLat: minLat, MinLon: minLon, MaxLat: maxLat, MaxLon: maxLon}
}

func (b BoundingBox) SouthWest() GeoCoordinate { return NewGeoCoordinate(b.MinLat, b.MinLon) }
func (b BoundingBox) NorthEast() GeoCoordinate { return NewGeoCoordinate(b.MaxLat, b.MaxLon) }
func (b BoundingBox) Width() float64           { return b.MaxLon - b.MinLon }
func (b BoundingBox) Height() float64          { return b.MaxLat - b.MinLat }

// IsValid reports whether both corners are WGS84-valid and ordered.
// Equal bounds are accepted.
func (b BoundingBox) IsValid() bool {
	return b.SouthWest().IsValid() && b.NorthEast().IsValid() &&
		b.MinLat <= b.MaxLat && b.MinLon <= b.MaxLon
}

// Contains is inclusive on every edge.
func (b BoundingBox) Contains(c GeoCoordinate) bool {
	return c.Latitude >= b.MinLat && c.Latitude <= b.MaxLat &&
		c.Longitude >= b.MinLon && c.Longitude <= b.MaxLon
}

// String renders the WFS bbox form minLon,minLat,maxLon,maxLat.
func (b BoundingBox) String() string {
	return strings.Join([]string{
		formatFloat(b.MinLon), formatFloat(b.MinLat),
		formatFloat(b.MaxLon), formatFloat(b.MaxLat),
	}, ",")
}

// ParseWFSBBox reads exactly four comma-separated numbers in
// minLon,minLat,maxLon,maxLat order. The result is not range checked.
func ParseWFSBBox(s string) (BoundingBox, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 4 {
		return BoundingBox{}, errors.New("expected 4 comma-separated values: minLon,minLat,maxLon,maxLat")
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return BoundingBox{}, fmt.Errorf("bbox value %d: %w", i+1, err)
		}
		v[i] = f
	}
	return NewBoundingBox(v[1], v[0], v[3], v[2]), nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
