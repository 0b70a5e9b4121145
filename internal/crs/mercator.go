package crs

import "math"

const (
	webMercatorRadius = 6378137.0
	// latitude at which the square Web Mercator world ends
	webMercatorMaxLat = 85.05112877980659
)

// webMercator is the spherical Pseudo-Mercator used by web maps (EPSG:3857).
type webMercator struct{}

func (webMercator) FromWGS84(lon, lat float64) (x, y float64) {
	lat = math.Max(-webMercatorMaxLat, math.Min(webMercatorMaxLat, lat))
	x = webMercatorRadius * lon * deg2rad
	y = webMercatorRadius * math.Log(math.Tan(math.Pi/4+lat*deg2rad/2))
	return x, y
}

func (webMercator) ToWGS84(x, y float64) (lon, lat float64) {
	lon = x / webMercatorRadius * rad2deg
	lat = (2*math.Atan(math.Exp(y/webMercatorRadius)) - math.Pi/2) * rad2deg
	return lon, lat
}
