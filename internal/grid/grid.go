// Package grid lays a regular lattice of sample points over a bounding box.
package grid

import (
	"iter"
	"math"

	"github.com/mohammed-shakir/w3w-wfs/internal/core/apperr"
	"github.com/mohammed-shakir/w3w-wfs/internal/core/model"
)

const (
	// absorbs float drift so the max row/column is never lost
	tolerance = 1e-9
	// per-axis ceiling; a huge density must not overflow int
	maxSteps = math.MaxInt32
)

// Points yields the lattice row by row: ascending latitude, then ascending
// longitude, one point every 1/density degrees. Both max bounds are included
// when they fall on the lattice. A zero-area box yields its single corner.
// The caller is expected to have validated its arguments.
func Points(bbox model.BoundingBox, density float64) iter.Seq[model.GeoCoordinate] {
	step := 1 / density
	rows := steps(bbox.Height(), step)
	cols := steps(bbox.Width(), step)
	return func(yield func(model.GeoCoordinate) bool) {
		for i := 0; i <= rows; i++ {
			lat := math.Min(bbox.MinLat+float64(i)*step, bbox.MaxLat)
			for j := 0; j <= cols; j++ {
				lon := math.Min(bbox.MinLon+float64(j)*step, bbox.MaxLon)
				if !yield(model.NewGeoCoordinate(lat, lon)) {
					return
				}
			}
		}
	}
}

// number of whole steps that fit in span
func steps(span, step float64) int {
	if span <= 0 {
		return 0
	}
	n := math.Floor(span/step + tolerance)
	if !(n < maxSteps) {
		return maxSteps
	}
	return int(n)
}

// Count is the lattice size before any cap, saturated at math.MaxInt.
func Count(bbox model.BoundingBox, density float64) int {
	step := 1 / density
	n := float64(steps(bbox.Height(), step)+1) * float64(steps(bbox.Width(), step)+1)
	if n >= math.MaxInt {
		return math.MaxInt
	}
	return int(n)
}

// Generate validates its inputs and returns at most maxPoints lattice points
// in row-major order. Excess points are dropped, not resampled.
func Generate(bbox model.BoundingBox, density float64, maxPoints int) ([]model.GeoCoordinate, error) {
	if !bbox.IsValid() {
		return nil, apperr.Errorf(apperr.InvalidArgument, "bbox %s is not a valid WGS84 box", bbox)
	}
	if !(density > 0) || math.IsInf(density, 0) {
		return nil, apperr.Errorf(apperr.InvalidArgument, "density must be positive, got %g", density)
	}
	if maxPoints <= 0 {
		return nil, apperr.Errorf(apperr.InvalidArgument, "maxPoints must be positive, got %d", maxPoints)
	}

	out := make([]model.GeoCoordinate, 0, min(maxPoints, Count(bbox, density)))
	for p := range Points(bbox, density) {
		out = append(out, p)
		if len(out) == maxPoints {
			break
		}
	}
	return out, nil
}
