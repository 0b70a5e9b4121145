package ogc

import (
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/mohammed-shakir/w3w-wfs/internal/core/apperr"
	"github.com/mohammed-shakir/w3w-wfs/internal/core/model"
)

// FilterBBox is the envelope of a BBOX predicate. SrsName is empty when the
// Box/Envelope carried no srsName attribute.
type FilterBBox struct {
	BBox    model.BoundingBox
	SrsName string
}

// ExtractFilterBBox finds the first BBOX predicate in an OGC Filter document.
// GML 2 (gml:Box/gml:coordinates) and GML 3 (gml:Envelope with lowerCorner
// and upperCorner) are understood. X is longitude and Y latitude; corners
// given in reverse order are swapped. Every failure is a FilterParseFailure.
func ExtractFilterBBox(filter string) (FilterBBox, error) {
	dec := xml.NewDecoder(strings.NewReader(filter))

	var (
		inBBox   bool
		envelope bool
		srsName  string
		text     string
		coords   string
		lower    string
		upper    string
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return FilterBBox{}, apperr.Wrap(apperr.FilterParseFailure, err, "filter is not well-formed XML")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			text = ""
			switch t.Name.Local {
			case "BBOX":
				inBBox = true
			case "Box", "Envelope":
				if inBBox {
					envelope = true
					srsName = attr(t, "srsName")
				}
			}
		case xml.CharData:
			text += string(t)
		case xml.EndElement:
			if !envelope {
				if t.Name.Local == "BBOX" {
					inBBox = false
				}
				continue
			}
			switch t.Name.Local {
			case "coordinates":
				coords = text
			case "lowerCorner":
				lower = text
			case "upperCorner":
				upper = text
			case "Box", "Envelope":
				return buildFilterBBox(coords, lower, upper, srsName)
			}
		}
	}
	if !envelope {
		return FilterBBox{}, apperr.E(apperr.FilterParseFailure, "filter has no BBOX envelope")
	}
	return FilterBBox{}, apperr.E(apperr.FilterParseFailure, "BBOX envelope is not closed")
}

func attr(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return strings.TrimSpace(a.Value)
		}
	}
	return ""
}

func buildFilterBBox(coords, lower, upper, srsName string) (FilterBBox, error) {
	var v []float64
	var err error
	switch {
	case strings.TrimSpace(coords) != "":
		v, err = numbers(coords, 4)
	case strings.TrimSpace(lower) != "" && strings.TrimSpace(upper) != "":
		var lo, hi []float64
		if lo, err = numbers(lower, 2); err == nil {
			if hi, err = numbers(upper, 2); err == nil {
				v = append(lo, hi...)
			}
		}
	default:
		return FilterBBox{}, apperr.E(apperr.FilterParseFailure, "BBOX envelope has no coordinates")
	}
	if err != nil {
		return FilterBBox{}, err
	}

	minX, maxX := min(v[0], v[2]), max(v[0], v[2])
	minY, maxY := min(v[1], v[3]), max(v[1], v[3])
	return FilterBBox{
		BBox:    model.NewBoundingBox(minY, minX, maxY, maxX),
		SrsName: srsName,
	}, nil
}

// numbers reads exactly want values separated by commas and/or whitespace.
func numbers(s string, want int) ([]float64, error) {
	fields := strings.Fields(strings.ReplaceAll(s, ",", " "))
	if len(fields) != want {
		return nil, apperr.Errorf(apperr.FilterParseFailure,
			"expected %d coordinate values, got %d in %q", want, len(fields), strings.TrimSpace(s))
	}
	out := make([]float64, want)
	for i, f := range fields {
		n, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, apperr.Wrap(apperr.FilterParseFailure, err, "coordinate value "+strconv.Quote(f))
		}
		out[i] = n
	}
	return out, nil
}
