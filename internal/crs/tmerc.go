package crs

import "math"

// transverseMercator uses the 6th-order Krüger series, which stays at
// sub-millimetre accuracy within several thousand km of the central meridian.
type transverseMercator struct {
	e      float64
	lon0   float64 // radians
	k0     float64
	falseE float64
	falseN float64
	bigA   float64 // rectifying radius
	alpha  [6]float64
	beta   [6]float64
	y0     float64 // scaled meridian distance of the latitude of origin
}

func newTransverseMercator(ell ellipsoid, lat0, lon0, k0, falseE, falseN float64) transverseMercator {
	n := ell.f / (2 - ell.f)
	n2 := n * n
	n3 := n2 * n
	n4 := n3 * n
	n5 := n4 * n
	n6 := n5 * n

	tm := transverseMercator{
		e:      math.Sqrt(ell.e2()),
		lon0:   lon0 * deg2rad,
		k0:     k0,
		falseE: falseE,
		falseN: falseN,
		bigA:   ell.a / (1 + n) * (1 + n2/4 + n4/64 + n6/256),
		alpha: [6]float64{
			n/2 - 2*n2/3 + 5*n3/16 + 41*n4/180 - 127*n5/288 + 7891*n6/37800,
			13*n2/48 - 3*n3/5 + 557*n4/1440 + 281*n5/630 - 1983433*n6/1935360,
			61*n3/240 - 103*n4/140 + 15061*n5/26880 + 167603*n6/181440,
			49561*n4/161280 - 179*n5/168 + 6601661*n6/7257600,
			34729*n5/80640 - 3418889*n6/1995840,
			212378941 * n6 / 319334400,
		},
		beta: [6]float64{
			n/2 - 2*n2/3 + 37*n3/96 - n4/360 - 81*n5/512 + 96199*n6/604800,
			n2/48 + n3/15 - 437*n4/1440 + 46*n5/105 - 1118711*n6/3870720,
			17*n3/480 - 37*n4/840 - 209*n5/4480 + 5569*n6/90720,
			4397*n4/161280 - 11*n5/504 - 830251*n6/7257600,
			4583*n5/161280 - 108847*n6/3991680,
			20648693 * n6 / 638668800,
		},
	}
	xi, _ := tm.series(lat0*deg2rad, 0)
	tm.y0 = tm.k0 * tm.bigA * xi
	return tm
}

// utm builds the northern-hemisphere UTM projection for zone on ell.
func utm(ell ellipsoid, zone int) transverseMercator {
	return newTransverseMercator(ell, 0, float64(zone)*6-183, 0.9996, 500000, 0)
}

// conformal latitude tangent for geodetic tan(phi)
func (tm transverseMercator) conformalTau(tau float64) float64 {
	sigma := math.Sinh(tm.e * math.Atanh(tm.e*tau/math.Sqrt(1+tau*tau)))
	return tau*math.Sqrt(1+sigma*sigma) - sigma*math.Sqrt(1+tau*tau)
}

// series returns the Gauss-Krüger xi, eta for latitude phi and longitude
// offset lam from the central meridian (radians).
func (tm transverseMercator) series(phi, lam float64) (xi, eta float64) {
	tauP := tm.conformalTau(math.Tan(phi))
	cosLam := math.Cos(lam)
	xiP := math.Atan2(tauP, cosLam)
	etaP := math.Asinh(math.Sin(lam) / math.Sqrt(tauP*tauP+cosLam*cosLam))

	xi, eta = xiP, etaP
	for j, a := range tm.alpha {
		k := 2 * float64(j+1)
		xi += a * math.Sin(k*xiP) * math.Cosh(k*etaP)
		eta += a * math.Cos(k*xiP) * math.Sinh(k*etaP)
	}
	return xi, eta
}

func (tm transverseMercator) FromWGS84(lon, lat float64) (x, y float64) {
	xi, eta := tm.series(lat*deg2rad, lon*deg2rad-tm.lon0)
	x = tm.falseE + tm.k0*tm.bigA*eta
	y = tm.falseN + tm.k0*tm.bigA*xi - tm.y0
	return x, y
}

func (tm transverseMercator) ToWGS84(x, y float64) (lon, lat float64) {
	eta := (x - tm.falseE) / (tm.k0 * tm.bigA)
	xi := (y - tm.falseN + tm.y0) / (tm.k0 * tm.bigA)

	xiP, etaP := xi, eta
	for j, b := range tm.beta {
		k := 2 * float64(j+1)
		xiP -= b * math.Sin(k*xi) * math.Cosh(k*eta)
		etaP -= b * math.Cos(k*xi) * math.Sinh(k*eta)
	}

	sinhEtaP := math.Sinh(etaP)
	sinXiP, cosXiP := math.Sincos(xiP)
	tauP := sinXiP / math.Sqrt(sinhEtaP*sinhEtaP+cosXiP*cosXiP)

	e2 := tm.e * tm.e
	tau := tauP
	for range 10 {
		tauI := tm.conformalTau(tau)
		delta := (tauP - tauI) / math.Sqrt(1+tauI*tauI) *
			(1 + (1-e2)*tau*tau) / ((1 - e2) * math.Sqrt(1+tau*tau))
		tau += delta
		if math.Abs(delta) < 1e-12 {
			break
		}
	}

	lat = math.Atan(tau) * rad2deg
	lon = wrapLon((math.Atan2(sinhEtaP, cosXiP) + tm.lon0) * rad2deg)
	return lon, lat
}
