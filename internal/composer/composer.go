// Package composer writes WFS responses: capabilities documents, feature
// collections as GML 2, GML 3.2 or GeoJSON, and the feature type schema.
package composer

import (
	"strconv"
	"strings"

	"github.com/jonboulle/clockwork"

	"github.com/mohammed-shakir/w3w-wfs/internal/core/config"
	"github.com/mohammed-shakir/w3w-wfs/internal/crs"
)

const (
	// Namespace of the w3w feature type.
	Namespace = "http://what3words.com/wfs"
	// FeatureTypeName is the single feature type, unprefixed in WFS 1.0.0.
	FeatureTypeName  = "location"
	FeatureTypeTitle = "What3Words Location"

	ContentTypeXML     = "application/xml"
	ContentTypeGML     = "application/gml+xml"
	ContentTypeGeoJSON = "application/geo+json"
)

const (
	nsWFS1   = "http://www.opengis.net/wfs"
	nsWFS2   = "http://www.opengis.net/wfs/2.0"
	nsGML2   = "http://www.opengis.net/gml"
	nsGML32  = "http://www.opengis.net/gml/3.2"
	nsOGC    = "http://www.opengis.net/ogc"
	nsFES    = "http://www.opengis.net/fes/2.0"
	nsOWS    = "http://www.opengis.net/ows/1.1"
	nsXLink  = "http://www.w3.org/1999/xlink"
	nsXSI    = "http://www.w3.org/2001/XMLSchema-instance"
	nsXSD    = "http://www.w3.org/2001/XMLSchema"
	xsdWFS1  = "http://schemas.opengis.net/wfs/1.0.0/WFS-capabilities.xsd"
	xsdWFS2  = "http://schemas.opengis.net/wfs/2.0/wfs.xsd"
	xsdGML2  = "http://schemas.opengis.net/gml/2.1.2/feature.xsd"
	xsdWFSB1 = "http://schemas.opengis.net/wfs/1.0.0/WFS-basic.xsd"
)

// Composer is safe for concurrent use; it holds only read-only collaborators.
type Composer struct {
	crs   *crs.Engine
	info  config.ServiceInfo
	clock clockwork.Clock
}

func New(engine *crs.Engine, info config.ServiceInfo, clock clockwork.Clock) *Composer {
	if engine == nil {
		engine = crs.NewEngine()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Composer{crs: engine, info: info, clock: clock}
}

type Format int

const (
	FormatGML Format = iota
	FormatGeoJSON
)

func (f Format) String() string {
	if f == FormatGeoJSON {
		return "geojson"
	}
	return "gml"
}

type NegotiationInput struct {
	AcceptHeader  string
	OutputFormat  string
	DefaultFormat Format
}

type Negotiation struct {
	Format      Format
	ContentType string
}

var (
	negGML     = Negotiation{Format: FormatGML, ContentType: ContentTypeGML}
	negGeoJSON = Negotiation{Format: FormatGeoJSON, ContentType: ContentTypeGeoJSON}
)

func negotiationFor(f Format) Negotiation {
	if f == FormatGeoJSON {
		return negGeoJSON
	}
	return negGML
}

// NegotiateFormat picks the GetFeature encoding. A non-empty outputFormat
// decides on its own: anything mentioning json is GeoJSON, everything else
// GML. Without one the Accept header is weighed by q-value, and the default
// applies when nothing in it matches.
func NegotiateFormat(in NegotiationInput) Negotiation {
	if of := strings.ToLower(strings.TrimSpace(in.OutputFormat)); of != "" {
		if strings.Contains(of, "json") {
			return negGeoJSON
		}
		return negGML
	}

	bestQ := -1.0
	best := Negotiation{}
	for part := range strings.SplitSeq(strings.ToLower(in.AcceptHeader), ",") {
		token := strings.TrimSpace(part)
		if token == "" {
			continue
		}
		mt, params, _ := strings.Cut(token, ";")
		mt = strings.TrimSpace(mt)
		q := 1.0
		for p := range strings.SplitSeq(params, ";") {
			if after, ok := strings.CutPrefix(strings.TrimSpace(p), "q="); ok {
				if v, err := strconv.ParseFloat(after, 64); err == nil {
					q = v
				}
			}
		}
		var cand *Negotiation
		switch {
		case mt == "*/*":
			n := negotiationFor(in.DefaultFormat)
			cand = &n
		case strings.Contains(mt, "json"):
			cand = &negGeoJSON
		case strings.Contains(mt, "gml"):
			cand = &negGML
		}
		if cand != nil && q > bestQ {
			bestQ = q
			best = *cand
		}
	}
	if bestQ >= 0 {
		return best
	}
	return negotiationFor(in.DefaultFormat)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
