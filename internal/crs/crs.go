// Package crs holds the supported coordinate reference systems and converts
// positions between WGS84 and each of them. WGS84 is always the pivot.
package crs

import (
	"slices"
	"strconv"
	"strings"

	"github.com/mohammed-shakir/w3w-wfs/internal/core/apperr"
	"github.com/mohammed-shakir/w3w-wfs/internal/core/model"
)

const WGS84 = "EPSG:4326"

// projection converts between WGS84 lon/lat degrees and the system's own
// coordinates (degrees for geographic systems, metres for projected ones).
type projection interface {
	FromWGS84(lon, lat float64) (x, y float64)
	ToWGS84(x, y float64) (lon, lat float64)
}

type System struct {
	Code       string
	Name       string
	Geographic bool
	proj       projection
}

var registry = map[string]System{
	"EPSG:4326": {
		Code: "EPSG:4326", Name: "WGS 84", Geographic: true,
		proj: identity{},
	},
	"EPSG:4258": {
		Code: "EPSG:4258", Name: "ETRS89", Geographic: true,
		proj: identity{},
	},
	"EPSG:3857": {
		Code: "EPSG:3857", Name: "WGS 84 / Pseudo-Mercator",
		proj: webMercator{},
	},
	"EPSG:27700": {
		Code: "EPSG:27700", Name: "OSGB 1936 / British National Grid",
		proj: shifted{
			to:    airy1830,
			shift: wgs84ToOSGB36,
			inner: newTransverseMercator(airy1830, 49, -2, 0.9996012717, 400000, -100000),
		},
	},
	"EPSG:32630": {
		Code: "EPSG:32630", Name: "WGS 84 / UTM zone 30N",
		proj: utm(wgs84Ellipsoid, 30),
	},
	"EPSG:32631": {
		Code: "EPSG:32631", Name: "WGS 84 / UTM zone 31N",
		proj: utm(wgs84Ellipsoid, 31),
	},
	"EPSG:25832": {
		Code: "EPSG:25832", Name: "ETRS89 / UTM zone 32N",
		proj: utm(grs80, 32),
	},
	"EPSG:2154": {
		Code: "EPSG:2154", Name: "RGF93 v1 / Lambert-93",
		proj: newLambertConformal(grs80, 44, 49, 46.5, 3, 700000, 6600000),
	},
}

var urnPrefixes = []string{
	"URN:OGC:DEF:CRS:EPSG::",
	"URN:OGC:DEF:CRS:EPSG:",
	"HTTP://WWW.OPENGIS.NET/DEF/CRS/EPSG/0/",
	"HTTPS://WWW.OPENGIS.NET/DEF/CRS/EPSG/0/",
	"HTTP://WWW.OPENGIS.NET/GML/SRS/EPSG.XML#",
	"EPSG:",
}

// NormalizeCode maps the textual forms a client may send to "EPSG:<n>".
// Empty input means WGS84. Text that is not an EPSG reference is returned
// upper-cased so it can still be named in an error.
func NormalizeCode(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return WGS84
	}
	u := strings.ToUpper(s)
	switch u {
	case "CRS:84", "CRS84", "URN:OGC:DEF:CRS:OGC:1.3:CRS84", "HTTP://WWW.OPENGIS.NET/DEF/CRS/OGC/1.3/CRS84":
		return WGS84
	}
	code := u
	for _, p := range urnPrefixes {
		if rest, ok := strings.CutPrefix(u, p); ok {
			code = rest
			break
		}
	}
	// versioned URNs: urn:ogc:def:crs:EPSG:6.6:4326
	if i := strings.LastIndex(code, ":"); i >= 0 {
		code = code[i+1:]
	}
	n, err := strconv.Atoi(code)
	if err != nil || n <= 0 {
		return u
	}
	return "EPSG:" + strconv.Itoa(n)
}

// URN renders a normalized code in the OGC URN form used by GML 3.2.
func URN(code string) string {
	code = NormalizeCode(code)
	if n, ok := strings.CutPrefix(code, "EPSG:"); ok {
		return "urn:ogc:def:crs:EPSG::" + n
	}
	return code
}

func IsWGS84(code string) bool {
	return NormalizeCode(code) == WGS84
}

// Engine is the entry point used by the formatters and the executor. The
// zero value is ready to use; the registry it reads is never mutated.
type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

func (*Engine) NormalizeCode(s string) string { return NormalizeCode(s) }

func (*Engine) IsSupported(s string) bool {
	_, ok := registry[NormalizeCode(s)]
	return ok
}

func (*Engine) Lookup(s string) (System, bool) {
	sys, ok := registry[NormalizeCode(s)]
	return sys, ok
}

// SupportedCodes lists every registered code, WGS84 first, then by number.
func (*Engine) SupportedCodes() []string {
	codes := make([]string, 0, len(registry))
	for c := range registry {
		codes = append(codes, c)
	}
	slices.SortFunc(codes, func(a, b string) int {
		if a == WGS84 {
			return -1
		}
		if b == WGS84 {
			return 1
		}
		return epsgNumber(a) - epsgNumber(b)
	})
	return codes
}

// Transform converts a WGS84 coordinate into target. For projected targets
// the result carries easting in Longitude and northing in Latitude.
func (e *Engine) Transform(c model.GeoCoordinate, target string) (model.GeoCoordinate, error) {
	if !c.IsValid() {
		return model.GeoCoordinate{}, apperr.Errorf(apperr.InvalidCoordinate,
			"coordinate (%g, %g) is outside the WGS84 range", c.Latitude, c.Longitude)
	}
	sys, err := e.Resolve(target)
	if err != nil {
		return model.GeoCoordinate{}, err
	}
	x, y := sys.proj.FromWGS84(c.Longitude, c.Latitude)
	return model.NewGeoCoordinate(y, x), nil
}

// ToWGS84 is the inverse of Transform for a position expressed in source.
func (e *Engine) ToWGS84(p model.GeoCoordinate, source string) (model.GeoCoordinate, error) {
	sys, err := e.Resolve(source)
	if err != nil {
		return model.GeoCoordinate{}, err
	}
	lon, lat := sys.proj.ToWGS84(p.Longitude, p.Latitude)
	out := model.NewGeoCoordinate(lat, lon)
	if !out.IsValid() {
		return model.GeoCoordinate{}, apperr.Errorf(apperr.InvalidCoordinate,
			"position (%g, %g) in %s falls outside the WGS84 range", p.Longitude, p.Latitude, sys.Code)
	}
	return out, nil
}

// Convert moves a position between any two supported systems via WGS84.
func (e *Engine) Convert(p model.GeoCoordinate, source, target string) (model.GeoCoordinate, error) {
	if NormalizeCode(source) == NormalizeCode(target) {
		if _, err := e.Resolve(source); err != nil {
			return model.GeoCoordinate{}, err
		}
		return p, nil
	}
	w, err := e.ToWGS84(p, source)
	if err != nil {
		return model.GeoCoordinate{}, err
	}
	return e.Transform(w, target)
}

// TransformBBox projects both corners of a WGS84 box into target.
func (e *Engine) TransformBBox(b model.BoundingBox, target string) (model.BoundingBox, error) {
	sw, err := e.Transform(b.SouthWest(), target)
	if err != nil {
		return model.BoundingBox{}, err
	}
	ne, err := e.Transform(b.NorthEast(), target)
	if err != nil {
		return model.BoundingBox{}, err
	}
	return orderedBox(sw, ne), nil
}

// BBoxToWGS84 brings a box expressed in source back to WGS84.
func (e *Engine) BBoxToWGS84(b model.BoundingBox, source string) (model.BoundingBox, error) {
	sw, err := e.ToWGS84(b.SouthWest(), source)
	if err != nil {
		return model.BoundingBox{}, err
	}
	ne, err := e.ToWGS84(b.NorthEast(), source)
	if err != nil {
		return model.BoundingBox{}, err
	}
	return orderedBox(sw, ne), nil
}

// Resolve returns the system for any accepted spelling of code, or an
// UnsupportedCrs error listing what is supported.
func (e *Engine) Resolve(code string) (System, error) {
	norm := NormalizeCode(code)
	sys, ok := registry[norm]
	if !ok {
		return System{}, apperr.Errorf(apperr.UnsupportedCrs,
			"CRS %q is not supported; supported: %s", norm, strings.Join(e.SupportedCodes(), ", "))
	}
	return sys, nil
}

func orderedBox(a, b model.GeoCoordinate) model.BoundingBox {
	return model.NewBoundingBox(
		min(a.Latitude, b.Latitude), min(a.Longitude, b.Longitude),
		max(a.Latitude, b.Latitude), max(a.Longitude, b.Longitude),
	)
}

func epsgNumber(code string) int {
	n, _ := strconv.Atoi(strings.TrimPrefix(code, "EPSG:"))
	return n
}
