// Package executor dispatches parsed WFS requests and runs the GetFeature
// pipeline: grid generation, concurrent geocoding and formatting.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mohammed-shakir/w3w-wfs/internal/composer"
	"github.com/mohammed-shakir/w3w-wfs/internal/core/apperr"
	"github.com/mohammed-shakir/w3w-wfs/internal/core/config"
	"github.com/mohammed-shakir/w3w-wfs/internal/core/model"
	"github.com/mohammed-shakir/w3w-wfs/internal/core/observability"
	"github.com/mohammed-shakir/w3w-wfs/internal/core/ogc"
	"github.com/mohammed-shakir/w3w-wfs/internal/crs"
	"github.com/mohammed-shakir/w3w-wfs/internal/geocoder"
	"github.com/mohammed-shakir/w3w-wfs/internal/grid"
	"github.com/mohammed-shakir/w3w-wfs/internal/logger"
)

// Response is a fully rendered WFS answer.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

type Executor struct {
	logger   *slog.Logger
	geocoder geocoder.Client
	composer *composer.Composer
	crs      *crs.Engine

	density        float64
	defaultMax     int
	maxLimit       int
	workers        int
	timeout        time.Duration
	language       string
	defaultDialect ogc.Dialect
}

func New(cfg config.Config, gc geocoder.Client, comp *composer.Composer, engine *crs.Engine, log *slog.Logger) *Executor {
	if engine == nil {
		engine = crs.NewEngine()
	}
	if log == nil {
		log = slog.Default()
	}
	workers := cfg.GeocodeWorkers
	if workers <= 0 {
		workers = 8
	}
	return &Executor{
		logger:         log,
		geocoder:       gc,
		composer:       comp,
		crs:            engine,
		density:        cfg.GridDensity,
		defaultMax:     cfg.DefaultMaxFeatures,
		maxLimit:       cfg.MaxFeaturesLimit,
		workers:        workers,
		timeout:        cfg.GeocodeTimeout,
		language:       cfg.DefaultLanguage,
		defaultDialect: ogc.DialectFor(cfg.DefaultWFSVersion, ogc.DialectV2),
	}
}

// Execute answers one WFS request. Errors carry an apperr.Kind when the
// request itself is at fault; anything else is an internal failure.
func (e *Executor) Execute(ctx context.Context, req ogc.Request, serviceURL string) (Response, error) {
	if strings.TrimSpace(req.Operation) == "" {
		return Response{}, apperr.E(apperr.MissingParameter, "missing required parameter: request")
	}
	op, ok := ogc.CanonicalOperation(req.Operation)
	if !ok {
		return Response{}, apperr.Errorf(apperr.InvalidParameterValue,
			"unsupported request %q; supported: %s", req.Operation, strings.Join(ogc.Operations(), ", "))
	}

	d := req.Dialect(e.defaultDialect)
	ctx = logger.WithOperation(ctx, op)
	ctx = logger.WithWFSVersion(ctx, d.Version())
	observability.IncWFSRequest(op, d.Version())

	switch op {
	case ogc.OpGetCapabilities:
		return e.getCapabilities(d, serviceURL)
	case ogc.OpDescribeFeatureType:
		return e.describeFeatureType(req, d)
	default:
		return e.getFeature(ctx, req, d)
	}
}

func (e *Executor) getCapabilities(d ogc.Dialect, serviceURL string) (Response, error) {
	body, err := e.composer.Capabilities(d, serviceURL)
	if err != nil {
		return Response{}, fmt.Errorf("get capabilities: %w", err)
	}
	return Response{StatusCode: http.StatusOK, ContentType: composer.ContentTypeXML, Body: body}, nil
}

func (e *Executor) describeFeatureType(req ogc.Request, d ogc.Dialect) (Response, error) {
	if !schemaFormat(req.OutputFormat) {
		return Response{}, apperr.Errorf(apperr.InvalidParameterValue,
			"outputFormat %q is not supported for DescribeFeatureType; use XMLSCHEMA", req.OutputFormat)
	}
	return Response{
		StatusCode:  http.StatusOK,
		ContentType: composer.ContentTypeXML,
		Body:        e.composer.DescribeFeatureType(d),
	}, nil
}

func schemaFormat(of string) bool {
	of = strings.ToLower(strings.TrimSpace(of))
	return of == "" || of == "xmlschema" ||
		strings.Contains(of, "text/xml") || strings.Contains(of, "application/xml")
}

// pointResult is the outcome for the grid point at idx.
type pointResult struct {
	idx int
	loc model.ThreeWordLocation
	err error
}

func (e *Executor) getFeature(ctx context.Context, req ogc.Request, d ogc.Dialect) (Response, error) {
	if req.BBox == nil {
		if req.FilterErr != nil {
			e.logger.DebugContext(ctx, "filter ignored", "err", req.FilterErr)
		}
		return Response{}, apperr.E(apperr.MissingParameter, "missing required parameter: bbox")
	}
	bbox := *req.BBox
	if !(bbox.MinLat < bbox.MaxLat) || !(bbox.MinLon < bbox.MaxLon) {
		return Response{}, apperr.Errorf(apperr.InvalidBoundingBox,
			"bbox %s must have min < max on both axes", bbox)
	}

	srs := e.crs.NormalizeCode(req.SrsName)
	if srs != crs.WGS84 {
		wgs, err := e.crs.BBoxToWGS84(bbox, srs)
		if err != nil {
			if apperr.IsKind(err, apperr.InvalidCoordinate) {
				return Response{}, apperr.Wrap(apperr.InvalidBoundingBox, err, "bbox does not map into WGS84")
			}
			return Response{}, err
		}
		bbox = wgs
	}
	if !bbox.IsValid() {
		return Response{}, apperr.Errorf(apperr.InvalidBoundingBox, "bbox %s is outside the WGS84 range", bbox)
	}

	limit := e.defaultMax
	if req.MaxFeatures != nil {
		limit = *req.MaxFeatures
	}
	if e.maxLimit > 0 && limit > e.maxLimit {
		limit = e.maxLimit
	}

	points, err := grid.Generate(bbox, e.density, limit)
	if err != nil {
		return Response{}, err
	}

	language := req.Language
	if language == "" {
		language = e.language
	}

	start := time.Now()
	results, err := e.resolve(ctx, points, language)
	if err != nil {
		return Response{}, err
	}
	features := fold(results, points)

	observability.ObserveGetFeature(len(points), len(features))
	e.logger.InfoContext(ctx, "get feature",
		"bbox", bbox.String(),
		"srs", srs,
		"points", len(points),
		"features", len(features),
		"failed", len(points)-len(features),
		"dur", time.Since(start).String())

	fc := model.NewFeatureCollection(features, &bbox)
	neg := composer.NegotiateFormat(composer.NegotiationInput{
		AcceptHeader:  req.AcceptHeader,
		OutputFormat:  req.OutputFormat,
		DefaultFormat: composer.FormatGML,
	})

	var body []byte
	if neg.Format == composer.FormatGeoJSON {
		body, err = e.composer.GeoJSON(fc, crs.WGS84)
	} else {
		body, err = e.composer.GML(fc, d, crs.WGS84)
	}
	if err != nil {
		return Response{}, fmt.Errorf("format feature collection: %w", err)
	}
	return Response{StatusCode: http.StatusOK, ContentType: neg.ContentType, Body: body}, nil
}

// resolve geocodes every point on a bounded pool of workers. Per-point
// failures are returned in the results; only cancellation of ctx fails the
// whole call.
func (e *Executor) resolve(ctx context.Context, points []model.GeoCoordinate, language string) ([]pointResult, error) {
	jobs := make(chan int)
	results := make(chan pointResult, len(points))

	workerN := min(e.workers, len(points))
	var wg sync.WaitGroup
	wg.Add(workerN)

	for range workerN {
		go func() {
			defer wg.Done()
			for idx := range jobs {
				loc, err := e.geocodeOne(ctx, points[idx], language)
				results <- pointResult{idx: idx, loc: loc, err: err}
			}
		}()
	}

dispatch:
	for i := range points {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()
	close(results)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("get feature: %w", err)
	}

	out := make([]pointResult, 0, len(points))
	for r := range results {
		if r.err != nil {
			e.logger.WarnContext(ctx, "geocode failed",
				"lat", points[r.idx].Latitude,
				"lon", points[r.idx].Longitude,
				"err", r.err)
		}
		out = append(out, r)
	}
	return out, nil
}

func (e *Executor) geocodeOne(ctx context.Context, p model.GeoCoordinate, language string) (model.ThreeWordLocation, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	return e.geocoder.ConvertToWords(ctx, p, language)
}

// fold puts successful results back into grid order and numbers them.
func fold(results []pointResult, points []model.GeoCoordinate) []model.Feature {
	byIdx := make([]*pointResult, len(points))
	for i := range results {
		if results[i].err == nil {
			byIdx[results[i].idx] = &results[i]
		}
	}
	features := make([]model.Feature, 0, len(results))
	for idx, r := range byIdx {
		if r == nil {
			continue
		}
		features = append(features, model.Feature{
			ID:         model.FeatureID(len(features) + 1),
			Coordinate: points[idx],
			Location:   r.loc,
		})
	}
	return features
}
