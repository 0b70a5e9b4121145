package crs

import "math"

const (
	deg2rad = math.Pi / 180
	rad2deg = 180 / math.Pi
	// arc-seconds to radians
	sec2rad = deg2rad / 3600
)

type ellipsoid struct {
	a float64 // semi-major axis, metres
	f float64 // flattening
}

func (e ellipsoid) e2() float64 { return e.f * (2 - e.f) }

var (
	wgs84Ellipsoid = ellipsoid{a: 6378137, f: 1 / 298.257223563}
	grs80          = ellipsoid{a: 6378137, f: 1 / 298.257222101}
	airy1830       = ellipsoid{a: 6377563.396, f: 1 - 6356256.909/6377563.396}
)

type vec3 struct{ x, y, z float64 }

func toCartesian(ell ellipsoid, lon, lat, h float64) vec3 {
	phi, lam := lat*deg2rad, lon*deg2rad
	sinPhi, cosPhi := math.Sincos(phi)
	e2 := ell.e2()
	nu := ell.a / math.Sqrt(1-e2*sinPhi*sinPhi)
	return vec3{
		x: (nu + h) * cosPhi * math.Cos(lam),
		y: (nu + h) * cosPhi * math.Sin(lam),
		z: ((1-e2)*nu + h) * sinPhi,
	}
}

func toGeodetic(ell ellipsoid, v vec3) (lon, lat float64) {
	e2 := ell.e2()
	p := math.Hypot(v.x, v.y)
	phi := math.Atan2(v.z, p*(1-e2))
	for range 10 {
		sinPhi := math.Sin(phi)
		nu := ell.a / math.Sqrt(1-e2*sinPhi*sinPhi)
		next := math.Atan2(v.z+e2*nu*sinPhi, p)
		if math.Abs(next-phi) < 1e-13 {
			phi = next
			break
		}
		phi = next
	}
	return math.Atan2(v.y, v.x) * rad2deg, phi * rad2deg
}

// helmert is a 7-parameter position-vector transformation. Translations are
// metres, scale is ppm, rotations are arc-seconds.
type helmert struct {
	tx, ty, tz float64
	s          float64
	rx, ry, rz float64
}

// OS guidance parameters, good to a few metres across Great Britain.
var wgs84ToOSGB36 = helmert{
	tx: -446.448, ty: 125.157, tz: -542.060,
	s:  20.4894,
	rx: -0.1502, ry: -0.2470, rz: -0.8421,
}

func (h helmert) apply(v vec3) vec3 {
	s1 := 1 + h.s*1e-6
	rx, ry, rz := h.rx*sec2rad, h.ry*sec2rad, h.rz*sec2rad
	return vec3{
		x: h.tx + s1*v.x - rz*v.y + ry*v.z,
		y: h.ty + rz*v.x + s1*v.y - rx*v.z,
		z: h.tz - ry*v.x + rx*v.y + s1*v.z,
	}
}

func (h helmert) inverse() helmert {
	return helmert{tx: -h.tx, ty: -h.ty, tz: -h.tz, s: -h.s, rx: -h.rx, ry: -h.ry, rz: -h.rz}
}

// shifted moves WGS84 positions onto another datum before handing them to
// inner, which works in geodetic coordinates of that datum.
type shifted struct {
	to    ellipsoid
	shift helmert
	inner projection
}

func (s shifted) FromWGS84(lon, lat float64) (x, y float64) {
	v := s.shift.apply(toCartesian(wgs84Ellipsoid, lon, lat, 0))
	lon2, lat2 := toGeodetic(s.to, v)
	return s.inner.FromWGS84(lon2, lat2)
}

func (s shifted) ToWGS84(x, y float64) (lon, lat float64) {
	lon2, lat2 := s.inner.ToWGS84(x, y)
	v := s.shift.inverse().apply(toCartesian(s.to, lon2, lat2, 0))
	return toGeodetic(wgs84Ellipsoid, v)
}

type identity struct{}

func (identity) FromWGS84(lon, lat float64) (x, y float64) { return lon, lat }
func (identity) ToWGS84(x, y float64) (lon, lat float64)   { return x, y }

// wrapLon folds a longitude into [-180, 180].
func wrapLon(lon float64) float64 {
	if lon >= -180 && lon <= 180 {
		return lon
	}
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}
