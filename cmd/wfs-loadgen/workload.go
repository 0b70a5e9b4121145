package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mohammed-shakir/w3w-wfs/internal/core/model"
)

// hot spots the synthetic workload clusters around, lon/lat
var centers = [][2]float64{
	{-0.1276, 51.5072}, // London
	{-2.2426, 53.4808}, // Manchester
	{-3.1883, 55.9533}, // Edinburgh
	{-2.5879, 51.4545}, // Bristol
}

// makeBBoxes builds a pool where roughly a quarter of the boxes sit close to
// a hot spot and the rest are spread over Great Britain. Box sides are a few
// hundredths of a degree so every request stays within a small grid.
func makeBBoxes(count int, r *rand.Rand) []model.BoundingBox {
	if count <= 0 {
		return nil
	}
	boxes := make([]model.BoundingBox, 0, count)
	hot := min(count, max(4, count/4))

	for i := range hot {
		c := centers[i%len(centers)]
		lon := c[0] + (r.Float64()-0.5)*0.05
		lat := c[1] + (r.Float64()-0.5)*0.05
		w, h := 0.005+r.Float64()*0.01, 0.005+r.Float64()*0.01
		boxes = append(boxes, model.NewBoundingBox(lat-h/2, lon-w/2, lat+h/2, lon+w/2))
	}
	for len(boxes) < count {
		lon := -5.5 + r.Float64()*7
		lat := 50.5 + r.Float64()*7
		w, h := 0.005+r.Float64()*0.02, 0.005+r.Float64()*0.02
		boxes = append(boxes, model.NewBoundingBox(lat-h/2, lon-w/2, lat+h/2, lon+w/2))
	}
	return boxes
}

type centroid struct {
	ID       string
	Lon, Lat float64
}

// loadCentroidsCSV reads an id,lon,lat file (header required, any column order).
func loadCentroidsCSV(path string) ([]centroid, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open centroids: %w", err)
	}
	defer func() { _ = f.Close() }()
	return readCentroids(f)
}

func readCentroids(in io.Reader) ([]centroid, error) {
	r := csv.NewReader(in)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	idIdx, okID := col["id"]
	lonIdx, okLon := col["lon"]
	latIdx, okLat := col["lat"]
	if !okID || !okLon || !okLat {
		return nil, fmt.Errorf("centroid csv: expected columns id,lon,lat; got %v", header)
	}

	var out []centroid
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		id := strings.TrimSpace(rec[idIdx])
		lonStr, latStr := strings.TrimSpace(rec[lonIdx]), strings.TrimSpace(rec[latIdx])
		if id == "" || lonStr == "" || latStr == "" {
			continue
		}
		lon, err := strconv.ParseFloat(lonStr, 64)
		if err != nil {
			return nil, fmt.Errorf("parse lon %q: %w", lonStr, err)
		}
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return nil, fmt.Errorf("parse lat %q: %w", latStr, err)
		}
		out = append(out, centroid{ID: id, Lon: lon, Lat: lat})
	}
	return out, nil
}

// boxesAround centres a square of side 2*half degrees on each centroid.
func boxesAround(cs []centroid, count int, half float64) []model.BoundingBox {
	count = min(count, len(cs))
	boxes := make([]model.BoundingBox, 0, count)
	for _, c := range cs[:count] {
		b := model.NewBoundingBox(c.Lat-half, c.Lon-half, c.Lat+half, c.Lon+half)
		if b.IsValid() {
			boxes = append(boxes, b)
		}
	}
	return boxes
}

// percentile interpolates linearly between closest ranks of sorted values.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	k := (p / 100.0) * float64(len(sorted)-1)
	f := math.Floor(k)
	i := int(f)
	if i >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	d := k - f
	return sorted[i]*(1-d) + sorted[i+1]*d
}
