package model

import "testing"

func TestGeoCoordinate_IsValid(t *testing.T) {
	cases := []struct {
		c    GeoCoordinate
		want bool
	}{
		{NewGeoCoordinate(0, 0), true},
		{NewGeoCoordinate(90, 180), true},
		{NewGeoCoordinate(-90, -180), true},
		{NewGeoCoordinate(90.0001, 0), false},
		{NewGeoCoordinate(0, -180.5), false},
	}
	for _, tc := range cases {
		if got := tc.c.IsValid(); got != tc.want {
			t.Fatalf("%v.IsValid()=%v want %v", tc.c, got, tc.want)
		}
	}
}

func TestBoundingBox_Accessors(t *testing.T) {
	b := NewBoundingBox(51, -1, 52, 0.5)
	if b.Width() != 1.5 || b.Height() != 1 {
		t.Fatalf("width/height got %v/%v", b.Width(), b.Height())
	}
	if b.SouthWest() != NewGeoCoordinate(51, -1) || b.NorthEast() != NewGeoCoordinate(52, 0.5) {
		t.Fatalf("corners got %v %v", b.SouthWest(), b.NorthEast())
	}
	if !b.Contains(NewGeoCoordinate(52, -1)) {
		t.Fatal("edges must be inclusive")
	}
	if b.Contains(NewGeoCoordinate(52.1, 0)) {
		t.Fatal("point outside reported as contained")
	}
}

func TestBoundingBox_IsValid(t *testing.T) {
	if !NewBoundingBox(10, 10, 10, 10).IsValid() {
		t.Fatal("point-like box must be valid")
	}
	if NewBoundingBox(11, 10, 10, 12).IsValid() {
		t.Fatal("reversed latitude must be invalid")
	}
	if NewBoundingBox(385205.17, 313713.85, 483863.37, 469814.49).IsValid() {
		t.Fatal("projected values must not be WGS84-valid")
	}
}

func TestParseWFSBBox_AxisOrder(t *testing.T) {
	b, err := ParseWFSBBox("-1,51,0,52")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	want := BoundingBox{MinLat: 51, MinLon: -1, MaxLat: 52, MaxLon: 0}
	if b != want {
		t.Fatalf("got %+v want %+v", b, want)
	}
	if got := b.String(); got != "-1,51,0,52" {
		t.Fatalf("String()=%q", got)
	}
}

func TestParseWFSBBox_Invalid(t *testing.T) {
	for _, s := range []string{"", "1,2,3", "1,2,3,4,5", "a,2,3,4"} {
		if _, err := ParseWFSBBox(s); err == nil {
			t.Fatalf("expected error for %q", s)
		}
	}
}

func TestNewFeatureCollection_TotalCount(t *testing.T) {
	fc := NewFeatureCollection([]Feature{{ID: FeatureID(1)}, {ID: FeatureID(2)}}, nil)
	if fc.TotalCount != 2 {
		t.Fatalf("TotalCount=%d want 2", fc.TotalCount)
	}
	if fc.Features[1].ID != "location.2" {
		t.Fatalf("id=%q", fc.Features[1].ID)
	}
}
