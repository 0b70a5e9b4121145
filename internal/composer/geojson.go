package composer

import (
	"encoding/json"
	"fmt"

	"github.com/mohammed-shakir/w3w-wfs/internal/core/model"
	"github.com/mohammed-shakir/w3w-wfs/internal/crs"
)

type geoJSONCollection struct {
	Type           string           `json:"type"`
	NumberMatched  int              `json:"numberMatched"`
	NumberReturned int              `json:"numberReturned"`
	TimeStamp      string           `json:"timeStamp,omitempty"`
	CRS            *geoJSONCRS      `json:"crs,omitempty"`
	BBox           []float64        `json:"bbox,omitempty"`
	Features       []geoJSONFeature `json:"features"`
}

type geoJSONCRS struct {
	Type       string `json:"type"`
	Properties struct {
		Name string `json:"name"`
	} `json:"properties"`
}

type geoJSONFeature struct {
	Type       string            `json:"type"`
	ID         string            `json:"id"`
	Geometry   geoJSONPoint      `json:"geometry"`
	Properties geoJSONProperties `json:"properties"`
}

type geoJSONPoint struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

type geoJSONProperties struct {
	Words        string         `json:"words"`
	Country      string         `json:"country,omitempty"`
	NearestPlace string         `json:"nearestPlace,omitempty"`
	Language     string         `json:"language,omitempty"`
	Square       *geoJSONSquare `json:"square,omitempty"`
	Map          string         `json:"map,omitempty"`
}

type geoJSONSquare struct {
	Southwest latLng `json:"southwest"`
	Northeast latLng `json:"northeast"`
}

type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// GeoJSON writes fc as a FeatureCollection in targetCrs (WGS84 when empty).
// A crs member is written only for non-WGS84 targets.
func (c *Composer) GeoJSON(fc model.FeatureCollection, targetCrs string) ([]byte, error) {
	sys, err := c.target(targetCrs)
	if err != nil {
		return nil, err
	}

	out := geoJSONCollection{
		Type:           "FeatureCollection",
		NumberMatched:  fc.TotalCount,
		NumberReturned: len(fc.Features),
		Features:       make([]geoJSONFeature, 0, len(fc.Features)),
	}
	if sys.Code != crs.WGS84 {
		out.CRS = &geoJSONCRS{Type: "name"}
		out.CRS.Properties.Name = crs.URN(sys.Code)
	}
	if fc.BoundingBox != nil {
		minX, minY, err := c.project(fc.BoundingBox.SouthWest(), sys)
		if err != nil {
			return nil, err
		}
		maxX, maxY, err := c.project(fc.BoundingBox.NorthEast(), sys)
		if err != nil {
			return nil, err
		}
		out.BBox = []float64{minX, minY, maxX, maxY}
	}

	for _, f := range fc.Features {
		x, y, err := c.project(f.Coordinate, sys)
		if err != nil {
			return nil, err
		}
		props := geoJSONProperties{
			Words:        f.Location.Words,
			Country:      f.Location.CountryCode,
			NearestPlace: f.Location.NearestPlace,
			Language:     f.Location.Language,
			Map:          f.Location.MapURL,
		}
		if props.Square, err = c.square(f.Location.Square, sys); err != nil {
			return nil, err
		}
		out.Features = append(out.Features, geoJSONFeature{
			Type:       "Feature",
			ID:         f.ID,
			Geometry:   geoJSONPoint{Type: "Point", Coordinates: [2]float64{x, y}},
			Properties: props,
		})
	}

	b, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshal geojson: %w", err)
	}
	return b, nil
}

// square is nil when the upstream sent no square.
func (c *Composer) square(b model.BoundingBox, sys crs.System) (*geoJSONSquare, error) {
	if b == (model.BoundingBox{}) {
		return nil, nil
	}
	swX, swY, err := c.project(b.SouthWest(), sys)
	if err != nil {
		return nil, err
	}
	neX, neY, err := c.project(b.NorthEast(), sys)
	if err != nil {
		return nil, err
	}
	return &geoJSONSquare{
		Southwest: latLng{Lat: swY, Lng: swX},
		Northeast: latLng{Lat: neY, Lng: neX},
	}, nil
}
