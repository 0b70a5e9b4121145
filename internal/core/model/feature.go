package model

import "strconv"

// ThreeWordLocation is what the geocoding API knows about a 3m square.
type ThreeWordLocation struct {
	Words        string
	Center       GeoCoordinate
	CountryCode  string
	Square       BoundingBox
	NearestPlace string
	Language     string
	MapURL       string
}

type Feature struct {
	ID         string
	Coordinate GeoCoordinate
	Location   ThreeWordLocation
}

// FeatureID returns the id of the n-th (1-based) resolved feature.
func FeatureID(n int) string {
	return "location." + strconv.Itoa(n)
}

type FeatureCollection struct {
	Features    []Feature
	TotalCount  int
	BoundingBox *BoundingBox
}

func NewFeatureCollection(features []Feature, bbox *BoundingBox) FeatureCollection {
	return FeatureCollection{Features: features, TotalCount: len(features), BoundingBox: bbox}
}
