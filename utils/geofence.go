package utils

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Coordinate represents a geographic coordinate with latitude and longitude
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ParseGeofence decodes a geofence polygon stored as a JSON array of
// coordinates. An empty input yields a nil polygon (no geofence set).
func ParseGeofence(geofenceJSON []byte) ([]Coordinate, error) {
	if len(geofenceJSON) == 0 {
		return nil, nil
	}

	var coords []Coordinate
	if err := json.Unmarshal(geofenceJSON, &coords); err != nil {
		return nil, fmt.Errorf("invalid geofence JSON format: %w", err)
	}

	// A valid polygon needs at least 3 points (triangle)
	if len(coords) < 3 {
		return nil, errors.New("geofence must have at least 3 coordinates to form a polygon")
	}

	for i, coord := range coords {
		if err := validateCoordinate(coord); err != nil {
			return nil, fmt.Errorf("invalid coordinate at index %d: %w", i, err)
		}
	}

	return coords, nil
}

// validateCoordinate validates a single coordinate
func validateCoordinate(coord Coordinate) error {
	// Latitude must be between -90 and 90
	if coord.Lat < -90 || coord.Lat > 90 {
		return fmt.Errorf("latitude %.6f is out of valid range [-90, 90]", coord.Lat)
	}

	// Longitude must be between -180 and 180
	if coord.Lng < -180 || coord.Lng > 180 {
		return fmt.Errorf("longitude %.6f is out of valid range [-180, 180]", coord.Lng)
	}

	return nil
}

// PointInPolygon checks if a point falls inside a polygon. The ring is
// closed automatically if the first and last vertices differ.
func PointInPolygon(point Coordinate, polygon []Coordinate) bool {
	if len(polygon) < 3 {
		return false
	}

	ring := make(orb.Ring, 0, len(polygon)+1)
	for _, c := range polygon {
		ring = append(ring, orb.Point{c.Lng, c.Lat})
	}
	if ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}

	return planar.PolygonContains(orb.Polygon{ring}, orb.Point{point.Lng, point.Lat})
}
