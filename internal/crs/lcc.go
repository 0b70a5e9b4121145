package crs

import "math"

// lambertConformal is the Lambert Conformal Conic with two standard
// parallels (EPSG method 9802).
type lambertConformal struct {
	a      float64
	e      float64
	n      float64
	bigF   float64
	rF     float64 // radius at the latitude of false origin
	lon0   float64 // radians
	falseE float64
	falseN float64
}

func newLambertConformal(ell ellipsoid, lat1, lat2, lat0, lon0, falseE, falseN float64) lambertConformal {
	lc := lambertConformal{
		a:      ell.a,
		e:      math.Sqrt(ell.e2()),
		lon0:   lon0 * deg2rad,
		falseE: falseE,
		falseN: falseN,
	}
	phi1, phi2, phi0 := lat1*deg2rad, lat2*deg2rad, lat0*deg2rad
	m1, m2 := lc.m(phi1), lc.m(phi2)
	t1, t2, t0 := lc.t(phi1), lc.t(phi2), lc.t(phi0)
	lc.n = (math.Log(m1) - math.Log(m2)) / (math.Log(t1) - math.Log(t2))
	lc.bigF = m1 / (lc.n * math.Pow(t1, lc.n))
	lc.rF = lc.a * lc.bigF * math.Pow(t0, lc.n)
	return lc
}

func (lc lambertConformal) m(phi float64) float64 {
	s := math.Sin(phi)
	return math.Cos(phi) / math.Sqrt(1-lc.e*lc.e*s*s)
}

func (lc lambertConformal) t(phi float64) float64 {
	s := math.Sin(phi)
	return math.Tan(math.Pi/4-phi/2) / math.Pow((1-lc.e*s)/(1+lc.e*s), lc.e/2)
}

func (lc lambertConformal) FromWGS84(lon, lat float64) (x, y float64) {
	r := lc.a * lc.bigF * math.Pow(lc.t(lat*deg2rad), lc.n)
	theta := lc.n * (lon*deg2rad - lc.lon0)
	x = lc.falseE + r*math.Sin(theta)
	y = lc.falseN + lc.rF - r*math.Cos(theta)
	return x, y
}

func (lc lambertConformal) ToWGS84(x, y float64) (lon, lat float64) {
	dx := x - lc.falseE
	dy := lc.rF - (y - lc.falseN)
	r := math.Copysign(math.Hypot(dx, dy), lc.n)
	theta := math.Atan2(dx, dy)
	if lc.n < 0 {
		theta = math.Atan2(-dx, -dy)
	}
	t := math.Pow(r/(lc.a*lc.bigF), 1/lc.n)

	phi := math.Pi/2 - 2*math.Atan(t)
	for range 15 {
		s := math.Sin(phi)
		next := math.Pi/2 - 2*math.Atan(t*math.Pow((1-lc.e*s)/(1+lc.e*s), lc.e/2))
		if math.Abs(next-phi) < 1e-13 {
			phi = next
			break
		}
		phi = next
	}
	return wrapLon((theta/lc.n + lc.lon0) * rad2deg), phi * rad2deg
}
