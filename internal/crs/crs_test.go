package crs

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammed-shakir/w3w-wfs/internal/core/apperr"
	"github.com/mohammed-shakir/w3w-wfs/internal/core/model"
)

func TestNormalizeCode(t *testing.T) {
	cases := map[string]string{
		"":                              WGS84,
		"EPSG:4326":                     "EPSG:4326",
		"epsg:27700":                    "EPSG:27700",
		"urn:ogc:def:crs:EPSG::3857":    "EPSG:3857",
		"urn:ogc:def:crs:EPSG:6.6:4326": "EPSG:4326",
		"http://www.opengis.net/def/crs/EPSG/0/2154":   "EPSG:2154",
		"http://www.opengis.net/gml/srs/epsg.xml#4258": "EPSG:4258",
		"CRS:84":                        WGS84,
		"urn:ogc:def:crs:OGC:1.3:CRS84": WGS84,
		"EPSG:04326":                    "EPSG:4326",
		"foo":                           "FOO",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeCode(in), "input %q", in)
	}
}

func TestURN(t *testing.T) {
	assert.Equal(t, "urn:ogc:def:crs:EPSG::4326", URN("EPSG:4326"))
	assert.Equal(t, "urn:ogc:def:crs:EPSG::27700", URN("epsg:27700"))
}

func TestSupportedCodes_WGS84First(t *testing.T) {
	codes := NewEngine().SupportedCodes()
	require.NotEmpty(t, codes)
	assert.Equal(t, WGS84, codes[0])
	assert.Contains(t, codes, "EPSG:3857")
	assert.Contains(t, codes, "EPSG:27700")
	for i := 2; i < len(codes); i++ {
		assert.Less(t, epsgNumber(codes[i-1]), epsgNumber(codes[i]))
	}
}

func TestTransform_WGS84Identity(t *testing.T) {
	e := NewEngine()
	c := model.NewGeoCoordinate(51.5, -0.12)
	got, err := e.Transform(c, "EPSG:4326")
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestTransform_WebMercator(t *testing.T) {
	e := NewEngine()
	got, err := e.Transform(model.NewGeoCoordinate(0, 180), "EPSG:3857")
	require.NoError(t, err)
	assert.InDelta(t, 20037508.34, got.Longitude, 0.01)
	assert.InDelta(t, 0, got.Latitude, 1e-6)

	// beyond the Mercator limit the northing is clamped rather than infinite
	polar, err := e.Transform(model.NewGeoCoordinate(90, 0), "EPSG:3857")
	require.NoError(t, err)
	assert.InDelta(t, 20037508.34, polar.Latitude, 1)
}

func TestTransform_BritishNationalGrid(t *testing.T) {
	e := NewEngine()
	// Trafalgar Square
	got, err := e.Transform(model.NewGeoCoordinate(51.50809, -0.12806), "EPSG:27700")
	require.NoError(t, err)
	assert.InDelta(t, 530034, got.Longitude, 100)
	assert.InDelta(t, 180381, got.Latitude, 100)
}

func TestTransform_UTM(t *testing.T) {
	e := NewEngine()
	// on the central meridian of zone 31 at the equator
	got, err := e.Transform(model.NewGeoCoordinate(0, 3), "EPSG:32631")
	require.NoError(t, err)
	assert.InDelta(t, 500000, got.Longitude, 1e-3)
	assert.InDelta(t, 0, got.Latitude, 1e-3)
}

func TestTransform_Lambert93Origin(t *testing.T) {
	e := NewEngine()
	got, err := e.Transform(model.NewGeoCoordinate(46.5, 3), "EPSG:2154")
	require.NoError(t, err)
	assert.InDelta(t, 700000, got.Longitude, 1e-3)
	assert.InDelta(t, 6600000, got.Latitude, 1e-3)
}

func TestRoundTrip_AllSystems(t *testing.T) {
	e := NewEngine()
	points := map[string]model.GeoCoordinate{
		"EPSG:4326":  model.NewGeoCoordinate(51.5, -0.12),
		"EPSG:4258":  model.NewGeoCoordinate(48.85, 2.35),
		"EPSG:3857":  model.NewGeoCoordinate(-33.86, 151.2),
		"EPSG:27700": model.NewGeoCoordinate(55.95, -3.19),
		"EPSG:32630": model.NewGeoCoordinate(40.41, -3.7),
		"EPSG:32631": model.NewGeoCoordinate(41.38, 2.17),
		"EPSG:25832": model.NewGeoCoordinate(50.11, 8.68),
		"EPSG:2154":  model.NewGeoCoordinate(43.6, 1.44),
	}
	require.Len(t, points, len(e.SupportedCodes()))
	for code, c := range points {
		p, err := e.Transform(c, code)
		require.NoError(t, err, code)
		back, err := e.ToWGS84(p, code)
		require.NoError(t, err, code)
		assert.InDelta(t, c.Latitude, back.Latitude, 1e-6, code)
		assert.InDelta(t, c.Longitude, back.Longitude, 1e-6, code)
	}
}

// areaOfUse bounds each system's round-trip sweep, in whole degrees.
// Outside these boxes the projections are valid but no longer invertible to
// 1e-6°: Web Mercator clamps latitude at ±85.0511°, and the Krüger series
// loses accuracy once a point is more than roughly 30° of longitude from
// the zone's central meridian.
var areaOfUse = map[string]struct {
	minLat, maxLat, minLon, maxLon, step int
}{
	"EPSG:4326":  {-89, 89, -180, 180, 5},
	"EPSG:4258":  {34, 72, -25, 45, 1},
	"EPSG:3857":  {-85, 85, -175, 175, 5},
	"EPSG:27700": {49, 61, -9, 2, 1},
	"EPSG:32630": {0, 84, -12, 6, 1},
	"EPSG:32631": {0, 84, -6, 12, 1},
	"EPSG:25832": {0, 84, 0, 18, 1},
	"EPSG:2154":  {41, 52, -6, 11, 1},
}

func TestRoundTrip_SweepAreaOfUse(t *testing.T) {
	e := NewEngine()
	require.Len(t, areaOfUse, len(e.SupportedCodes()))
	for code, a := range areaOfUse {
		t.Run(code, func(t *testing.T) {
			for lat := a.minLat; lat <= a.maxLat; lat += a.step {
				for lon := a.minLon; lon <= a.maxLon; lon += a.step {
					c := model.NewGeoCoordinate(float64(lat), float64(lon))
					p, err := e.Transform(c, code)
					require.NoError(t, err)
					back, err := e.ToWGS84(p, code)
					require.NoError(t, err)
					if math.Abs(back.Latitude-c.Latitude) > 1e-6 || math.Abs(back.Longitude-c.Longitude) > 1e-6 {
						t.Fatalf("%v -> %v -> %v", c, p, back)
					}
				}
			}
		})
	}
}

func TestWebMercator_ClampsPolarLatitude(t *testing.T) {
	e := NewEngine()
	for _, lat := range []float64{86, 89.9, 90} {
		p, err := e.Transform(model.NewGeoCoordinate(lat, 10), "EPSG:3857")
		require.NoError(t, err)
		back, err := e.ToWGS84(p, "EPSG:3857")
		require.NoError(t, err)
		assert.InDelta(t, webMercatorMaxLat, back.Latitude, 1e-9)
		assert.InDelta(t, 10, back.Longitude, 1e-9)
	}
}

func TestConvert_BetweenProjected(t *testing.T) {
	e := NewEngine()
	c := model.NewGeoCoordinate(51.5, -0.12)
	bng, err := e.Transform(c, "EPSG:27700")
	require.NoError(t, err)
	merc, err := e.Convert(bng, "EPSG:27700", "EPSG:3857")
	require.NoError(t, err)
	want, err := e.Transform(c, "EPSG:3857")
	require.NoError(t, err)
	assert.InDelta(t, want.Longitude, merc.Longitude, 0.5)
	assert.InDelta(t, want.Latitude, merc.Latitude, 0.5)
}

func TestTransform_Errors(t *testing.T) {
	e := NewEngine()
	_, err := e.Transform(model.NewGeoCoordinate(51, 0), "EPSG:9999")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.UnsupportedCrs))
	assert.Contains(t, err.Error(), "EPSG:4326")

	_, err = e.Transform(model.NewGeoCoordinate(91, 0), "EPSG:3857")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.InvalidCoordinate))
}

func TestTransformBBox_OrdersCorners(t *testing.T) {
	e := NewEngine()
	b := model.NewBoundingBox(51, -1, 52, 0)
	got, err := e.TransformBBox(b, "EPSG:3857")
	require.NoError(t, err)
	assert.Less(t, got.MinLon, got.MaxLon)
	assert.Less(t, got.MinLat, got.MaxLat)

	back, err := e.BBoxToWGS84(got, "EPSG:3857")
	require.NoError(t, err)
	assert.InDelta(t, 51, back.MinLat, 1e-6)
	assert.InDelta(t, 0, back.MaxLon, 1e-6)
}
