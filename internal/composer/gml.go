package composer

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"time"

	"github.com/mohammed-shakir/w3w-wfs/internal/core/model"
	"github.com/mohammed-shakir/w3w-wfs/internal/core/ogc"
	"github.com/mohammed-shakir/w3w-wfs/internal/crs"
)

// properties shared by both GML dialects
type properties struct {
	Words        string `xml:"w3w:words"`
	Country      string `xml:"w3w:country"`
	NearestPlace string `xml:"w3w:nearestPlace,omitempty"`
	Language     string `xml:"w3w:language"`
}

func propertiesOf(f model.Feature) properties {
	return properties{
		Words:        f.Location.Words,
		Country:      f.Location.CountryCode,
		NearestPlace: f.Location.NearestPlace,
		Language:     f.Location.Language,
	}
}

// GML 2 / WFS 1.0.0

type featureCollectionV1 struct {
	XMLName        xml.Name    `xml:"wfs:FeatureCollection"`
	XmlnsWFS       string      `xml:"xmlns:wfs,attr"`
	XmlnsGML       string      `xml:"xmlns:gml,attr"`
	XmlnsW3W       string      `xml:"xmlns:w3w,attr"`
	XmlnsXSI       string      `xml:"xmlns:xsi,attr"`
	SchemaLocation string      `xml:"xsi:schemaLocation,attr"`
	BoundedBy      boundedByV1 `xml:"gml:boundedBy"`
	Members        []memberV1  `xml:"gml:featureMember"`
}

type boundedByV1 struct {
	Box  *boxV1 `xml:"gml:Box,omitempty"`
	Null string `xml:"gml:null,omitempty"`
}

type boxV1 struct {
	SrsName     string `xml:"srsName,attr"`
	Coordinates string `xml:"gml:coordinates"`
}

type memberV1 struct {
	Location locationV1 `xml:"w3w:location"`
}

type locationV1 struct {
	FID string `xml:"fid,attr"`
	properties
	Geometry struct {
		Point boxV1 `xml:"gml:Point"`
	} `xml:"w3w:geometry"`
}

// GML 3.2 / WFS 2.0.0

type featureCollectionV2 struct {
	XMLName        xml.Name     `xml:"wfs:FeatureCollection"`
	XmlnsWFS       string       `xml:"xmlns:wfs,attr"`
	XmlnsGML       string       `xml:"xmlns:gml,attr"`
	XmlnsW3W       string       `xml:"xmlns:w3w,attr"`
	XmlnsXSI       string       `xml:"xmlns:xsi,attr"`
	SchemaLocation string       `xml:"xsi:schemaLocation,attr"`
	NumberMatched  string       `xml:"numberMatched,attr"`
	NumberReturned string       `xml:"numberReturned,attr"`
	TimeStamp      string       `xml:"timeStamp,attr"`
	BoundedBy      *boundedByV2 `xml:"wfs:boundedBy,omitempty"`
	Members        []memberV2   `xml:"wfs:member"`
}

type boundedByV2 struct {
	Envelope struct {
		SrsName     string `xml:"srsName,attr"`
		LowerCorner string `xml:"gml:lowerCorner"`
		UpperCorner string `xml:"gml:upperCorner"`
	} `xml:"gml:Envelope"`
}

type memberV2 struct {
	Location locationV2 `xml:"w3w:location"`
}

type locationV2 struct {
	ID string `xml:"gml:id,attr"`
	properties
	Geometry struct {
		Point struct {
			ID      string `xml:"gml:id,attr"`
			SrsName string `xml:"srsName,attr"`
			Pos     string `xml:"gml:pos"`
		} `xml:"gml:Point"`
	} `xml:"w3w:geometry"`
}

// GML writes fc in the dialect's GML flavour with every coordinate moved
// into targetCrs (WGS84 when empty).
func (c *Composer) GML(fc model.FeatureCollection, d ogc.Dialect, targetCrs string) ([]byte, error) {
	sys, err := c.target(targetCrs)
	if err != nil {
		return nil, err
	}
	var doc any
	if d == ogc.DialectV2 {
		doc, err = c.gmlV2(fc, sys)
	} else {
		doc, err = c.gmlV1(fc, sys)
	}
	if err != nil {
		return nil, err
	}
	b, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal feature collection %s: %w", d, err)
	}
	return append([]byte(xml.Header), b...), nil
}

func (c *Composer) target(code string) (crs.System, error) {
	return c.crs.Resolve(code)
}

// project returns x,y in the target system.
func (c *Composer) project(p model.GeoCoordinate, sys crs.System) (x, y float64, err error) {
	t, err := c.crs.Transform(p, sys.Code)
	if err != nil {
		return 0, 0, fmt.Errorf("project %s to %s: %w", p, sys.Code, err)
	}
	return t.Longitude, t.Latitude, nil
}

func (c *Composer) gmlV1(fc model.FeatureCollection, sys crs.System) (featureCollectionV1, error) {
	doc := featureCollectionV1{
		XmlnsWFS:       nsWFS1,
		XmlnsGML:       nsGML2,
		XmlnsW3W:       Namespace,
		XmlnsXSI:       nsXSI,
		SchemaLocation: nsWFS1 + " " + xsdWFSB1,
		Members:        make([]memberV1, 0, len(fc.Features)),
	}
	if fc.BoundingBox != nil {
		minX, minY, err := c.project(fc.BoundingBox.SouthWest(), sys)
		if err != nil {
			return doc, err
		}
		maxX, maxY, err := c.project(fc.BoundingBox.NorthEast(), sys)
		if err != nil {
			return doc, err
		}
		doc.BoundedBy.Box = &boxV1{
			SrsName:     sys.Code,
			Coordinates: coordPair(minX, minY) + " " + coordPair(maxX, maxY),
		}
	} else {
		doc.BoundedBy.Null = "missing"
	}

	for _, f := range fc.Features {
		x, y, err := c.project(f.Coordinate, sys)
		if err != nil {
			return doc, err
		}
		loc := locationV1{FID: f.ID, properties: propertiesOf(f)}
		loc.Geometry.Point = boxV1{SrsName: sys.Code, Coordinates: coordPair(x, y)}
		doc.Members = append(doc.Members, memberV1{Location: loc})
	}
	return doc, nil
}

func (c *Composer) gmlV2(fc model.FeatureCollection, sys crs.System) (featureCollectionV2, error) {
	doc := featureCollectionV2{
		XmlnsWFS:       nsWFS2,
		XmlnsGML:       nsGML32,
		XmlnsW3W:       Namespace,
		XmlnsXSI:       nsXSI,
		SchemaLocation: nsWFS2 + " " + xsdWFS2,
		NumberMatched:  strconv.Itoa(fc.TotalCount),
		NumberReturned: strconv.Itoa(len(fc.Features)),
		TimeStamp:      c.clock.Now().UTC().Format(time.RFC3339),
		Members:        make([]memberV2, 0, len(fc.Features)),
	}
	srs := crs.URN(sys.Code)

	if fc.BoundingBox != nil {
		minX, minY, err := c.project(fc.BoundingBox.SouthWest(), sys)
		if err != nil {
			return doc, err
		}
		maxX, maxY, err := c.project(fc.BoundingBox.NorthEast(), sys)
		if err != nil {
			return doc, err
		}
		bb := &boundedByV2{}
		bb.Envelope.SrsName = srs
		bb.Envelope.LowerCorner = pos(minX, minY, sys.Geographic)
		bb.Envelope.UpperCorner = pos(maxX, maxY, sys.Geographic)
		doc.BoundedBy = bb
	}

	for _, f := range fc.Features {
		x, y, err := c.project(f.Coordinate, sys)
		if err != nil {
			return doc, err
		}
		loc := locationV2{ID: f.ID, properties: propertiesOf(f)}
		loc.Geometry.Point.ID = f.ID + ".geom"
		loc.Geometry.Point.SrsName = srs
		loc.Geometry.Point.Pos = pos(x, y, sys.Geographic)
		doc.Members = append(doc.Members, memberV2{Location: loc})
	}
	return doc, nil
}

// GML 2 coordinates are always "x,y".
func coordPair(x, y float64) string {
	return formatFloat(x) + "," + formatFloat(y)
}

// GML 3.2 positions follow the EPSG axis order: latitude first for
// geographic systems, easting first for projected ones.
func pos(x, y float64, geographic bool) string {
	if geographic {
		return formatFloat(y) + " " + formatFloat(x)
	}
	return formatFloat(x) + " " + formatFloat(y)
}
