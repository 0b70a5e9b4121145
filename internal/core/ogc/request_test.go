package ogc

import (
	"net/url"
	"testing"

	"github.com/mohammed-shakir/w3w-wfs/internal/core/apperr"
	"github.com/mohammed-shakir/w3w-wfs/internal/core/model"
)

func TestParse_CaseInsensitiveKeys(t *testing.T) {
	r := Parse(map[string]string{
		"SERVICE":      "WFS",
		"Request":      "GetFeature",
		"vErSiOn":      "2.0.0",
		"TYPENAME":     "w3w:location",
		"OutputFormat": "application/json",
		"LANGUAGE":     "de",
	})
	if r.Service != "WFS" || r.Operation != "GetFeature" || r.Version != "2.0.0" {
		t.Fatalf("unexpected core fields: %+v", r)
	}
	if r.TypeName != "w3w:location" || r.OutputFormat != "application/json" || r.Language != "de" {
		t.Fatalf("unexpected optional fields: %+v", r)
	}
}

func TestParse_Fallbacks(t *testing.T) {
	r := Parse(map[string]string{"typeNames": "location", "count": "7", "srs": "EPSG:3857"})
	if r.TypeName != "location" {
		t.Fatalf("typeName=%q want location", r.TypeName)
	}
	if r.MaxFeatures == nil || *r.MaxFeatures != 7 {
		t.Fatalf("maxFeatures=%v want 7", r.MaxFeatures)
	}
	if r.SrsName != "EPSG:3857" {
		t.Fatalf("srsName=%q want EPSG:3857", r.SrsName)
	}

	r = Parse(map[string]string{"maxFeatures": "3", "count": "9"})
	if r.MaxFeatures == nil || *r.MaxFeatures != 3 {
		t.Fatalf("maxFeatures should win over count, got %v", r.MaxFeatures)
	}
}

func TestParse_UnparseableMaxFeaturesIsAbsent(t *testing.T) {
	for _, v := range []string{"abc", "1.5", "0", "-4"} {
		if r := Parse(map[string]string{"maxFeatures": v}); r.MaxFeatures != nil {
			t.Fatalf("maxFeatures=%q should be absent, got %d", v, *r.MaxFeatures)
		}
	}
}

func TestParse_DirectBBox(t *testing.T) {
	r := Parse(map[string]string{"bbox": "-1,51,0,52"})
	if r.BBox == nil {
		t.Fatal("bbox not parsed")
	}
	want := model.NewBoundingBox(51, -1, 52, 0)
	if *r.BBox != want {
		t.Fatalf("bbox=%+v want %+v", *r.BBox, want)
	}
}

func TestParse_InvalidDirectBBoxIsAbsent(t *testing.T) {
	for _, v := range []string{"1,2,3", "a,b,c,d", "-1,51,0,95", "1,2,3,4,5"} {
		if r := Parse(map[string]string{"bbox": v}); r.BBox != nil {
			t.Fatalf("bbox=%q should be absent, got %+v", v, *r.BBox)
		}
	}
}

const gml2Filter = `<ogc:Filter xmlns:ogc="http://www.opengis.net/ogc" xmlns:gml="http://www.opengis.net/gml">
  <ogc:BBOX>
    <ogc:PropertyName>geometry</ogc:PropertyName>
    <gml:Box srsName="EPSG:27700"><gml:coordinates>530000,180000 531000,181000</gml:coordinates></gml:Box>
  </ogc:BBOX>
</ogc:Filter>`

func TestParse_DirectBBoxWinsOverFilter(t *testing.T) {
	r := Parse(map[string]string{"bbox": "-1,51,0,52", "filter": gml2Filter})
	if r.BBox == nil || r.BBox.MinLon != -1 {
		t.Fatalf("direct bbox should win, got %+v", r.BBox)
	}
	if r.SrsName != "" {
		t.Fatalf("filter srsName must not leak when bbox wins, got %q", r.SrsName)
	}
}

func TestParse_FilterBBoxAndSrs(t *testing.T) {
	r := Parse(map[string]string{"filter": gml2Filter})
	if r.BBox == nil {
		t.Fatalf("filter bbox not extracted: %v", r.FilterErr)
	}
	if *r.BBox != model.NewBoundingBox(180000, 530000, 181000, 531000) {
		t.Fatalf("bbox=%+v", *r.BBox)
	}
	if r.SrsName != "EPSG:27700" {
		t.Fatalf("srsName=%q want EPSG:27700", r.SrsName)
	}

	r = Parse(map[string]string{"filter": gml2Filter, "srsName": "EPSG:4326"})
	if r.SrsName != "EPSG:4326" {
		t.Fatalf("explicit srsName should win, got %q", r.SrsName)
	}
}

func TestParse_BadFilterIsAbsorbed(t *testing.T) {
	r := Parse(map[string]string{"filter": "<ogc:Filter><ogc:BBOX>"})
	if r.BBox != nil {
		t.Fatalf("bbox should be absent, got %+v", *r.BBox)
	}
	if !apperr.IsKind(r.FilterErr, apperr.FilterParseFailure) {
		t.Fatalf("FilterErr=%v want FilterParseFailure", r.FilterErr)
	}
	if r.SrsName != "" {
		t.Fatalf("srsName=%q want empty", r.SrsName)
	}
}

func TestParseValues_FirstValueWins(t *testing.T) {
	q := url.Values{"request": {"GetCapabilities", "GetFeature"}, "empty": {}}
	if r := ParseValues(q); r.Operation != "GetCapabilities" {
		t.Fatalf("operation=%q want GetCapabilities", r.Operation)
	}
}

func TestDialectFor(t *testing.T) {
	cases := []struct {
		version string
		def     Dialect
		want    Dialect
	}{
		{"2.0.0", DialectV1, DialectV2},
		{"2.0.2", DialectV1, DialectV2},
		{"1.0.0", DialectV2, DialectV1},
		{"1.1.0", DialectV2, DialectV1},
		{"", DialectV2, DialectV2},
		{"", DialectV1, DialectV1},
		{"", 0, DialectV1},
	}
	for _, tc := range cases {
		if got := DialectFor(tc.version, tc.def); got != tc.want {
			t.Fatalf("DialectFor(%q,%v)=%v want %v", tc.version, tc.def, got, tc.want)
		}
	}
	if DialectV2.Version() != "2.0.0" || DialectV1.Version() != "1.0.0" {
		t.Fatal("unexpected dialect versions")
	}
}

func TestCanonicalOperation(t *testing.T) {
	if op, ok := CanonicalOperation("getfeature"); !ok || op != OpGetFeature {
		t.Fatalf("got %q %v", op, ok)
	}
	if _, ok := CanonicalOperation("Transaction"); ok {
		t.Fatal("Transaction must not be supported")
	}
}
