package ogc

import (
	"testing"

	"github.com/mohammed-shakir/w3w-wfs/internal/core/apperr"
	"github.com/mohammed-shakir/w3w-wfs/internal/core/model"
)

func TestExtractFilterBBox_GML2(t *testing.T) {
	cases := map[string]string{
		"space between corners": "-1,51 0,52",
		"all commas":            "-1,51,0,52",
		"all spaces":            "-1 51 0 52",
		"reversed corners":      "0,52 -1,51",
	}
	want := model.NewBoundingBox(51, -1, 52, 0)
	for name, coords := range cases {
		t.Run(name, func(t *testing.T) {
			f := `<Filter><BBOX><PropertyName>geometry</PropertyName><gml:Box xmlns:gml="http://www.opengis.net/gml">` +
				`<gml:coordinates>` + coords + `</gml:coordinates></gml:Box></BBOX></Filter>`
			got, err := ExtractFilterBBox(f)
			if err != nil {
				t.Fatalf("extract: %v", err)
			}
			if got.BBox != want {
				t.Fatalf("bbox=%+v want %+v", got.BBox, want)
			}
			if got.SrsName != "" {
				t.Fatalf("srsName=%q want empty", got.SrsName)
			}
		})
	}
}

func TestExtractFilterBBox_GML3Envelope(t *testing.T) {
	f := `<fes:Filter xmlns:fes="http://www.opengis.net/fes/2.0" xmlns:gml="http://www.opengis.net/gml/3.2">
  <fes:BBOX>
    <fes:ValueReference>geometry</fes:ValueReference>
    <gml:Envelope srsName="urn:ogc:def:crs:EPSG::3857">
      <gml:lowerCorner>-20000 6700000</gml:lowerCorner>
      <gml:upperCorner>-10000 6710000</gml:upperCorner>
    </gml:Envelope>
  </fes:BBOX>
</fes:Filter>`
	got, err := ExtractFilterBBox(f)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got.BBox != model.NewBoundingBox(6700000, -20000, 6710000, -10000) {
		t.Fatalf("bbox=%+v", got.BBox)
	}
	if got.SrsName != "urn:ogc:def:crs:EPSG::3857" {
		t.Fatalf("srsName=%q", got.SrsName)
	}
}

func TestExtractFilterBBox_Failures(t *testing.T) {
	cases := map[string]string{
		"malformed":        `<Filter><BBOX>`,
		"no bbox":          `<Filter><PropertyIsEqualTo/></Filter>`,
		"box outside bbox": `<Filter><gml:Box><gml:coordinates>1,2 3,4</gml:coordinates></gml:Box></Filter>`,
		"no coordinates":   `<Filter><BBOX><Box srsName="EPSG:4326"></Box></BBOX></Filter>`,
		"only lower":       `<Filter><BBOX><Envelope><lowerCorner>1 2</lowerCorner></Envelope></BBOX></Filter>`,
		"three values":     `<Filter><BBOX><Box><coordinates>1,2 3</coordinates></Box></BBOX></Filter>`,
		"not numbers":      `<Filter><BBOX><Box><coordinates>a,b c,d</coordinates></Box></BBOX></Filter>`,
		"empty":            ``,
	}
	for name, f := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ExtractFilterBBox(f)
			if err == nil {
				t.Fatal("expected error")
			}
			if !apperr.IsKind(err, apperr.FilterParseFailure) {
				t.Fatalf("kind=%v want FilterParseFailure (%v)", apperr.KindOf(err), err)
			}
		})
	}
}
