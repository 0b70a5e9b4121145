package router

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/w3w-wfs/internal/composer"
	"github.com/mohammed-shakir/w3w-wfs/internal/core/apperr"
	"github.com/mohammed-shakir/w3w-wfs/internal/core/config"
	"github.com/mohammed-shakir/w3w-wfs/internal/core/model"
	"github.com/mohammed-shakir/w3w-wfs/internal/core/observability"
	"github.com/mohammed-shakir/w3w-wfs/internal/core/ogc"
	"github.com/mohammed-shakir/w3w-wfs/internal/crs"
)

const crs84 = "http://www.opengis.net/def/crs/OGC/1.3/CRS84"

type link struct {
	Href  string `json:"href"`
	Rel   string `json:"rel"`
	Type  string `json:"type,omitempty"`
	Title string `json:"title,omitempty"`
}

type landing struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Links       []link `json:"links"`
}

type collection struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Extent      extent   `json:"extent"`
	ItemType    string   `json:"itemType"`
	CRS         []string `json:"crs"`
	Links       []link   `json:"links"`
}

type extent struct {
	Spatial struct {
		BBox [][4]float64 `json:"bbox"`
		CRS  string       `json:"crs"`
	} `json:"spatial"`
}

type collections struct {
	Collections []collection `json:"collections"`
	Links       []link       `json:"links"`
}

// OGCAPI is a minimal OGC API - Features surface over the same executor.
// Items are always GeoJSON in WGS84.
func OGCAPI(logger *slog.Logger, cfg config.Config, ex Executor, engine *crs.Engine) http.Handler {
	if engine == nil {
		engine = crs.NewEngine()
	}
	a := &ogcAPI{logger: logger, cfg: cfg, ex: ex, crs: engine}

	r := chi.NewRouter()
	r.Get("/", a.observe("/ogcapi", a.landing))
	r.Get("/collections", a.observe("/ogcapi/collections", a.collections))
	r.Get("/collections/{collectionId}", a.observe("/ogcapi/collections/{collectionId}", a.collection))
	r.Get("/collections/{collectionId}/items", a.observe("/ogcapi/collections/{collectionId}/items", a.items))
	return r
}

type ogcAPI struct {
	logger *slog.Logger
	cfg    config.Config
	ex     Executor
	crs    *crs.Engine
}

func (a *ogcAPI) observe(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		h(sw, r)
		observability.ObserveHTTP(r.Method, route, sw.code, time.Since(start).Seconds())
	}
}

// base is the absolute /ogcapi root as the client sees it.
func (a *ogcAPI) base(r *http.Request) string {
	if a.cfg.PublicURL != "" {
		if u, err := url.Parse(a.cfg.PublicURL); err == nil && u.Host != "" {
			return u.Scheme + "://" + u.Host + "/ogcapi"
		}
	}
	return origin(r) + "/ogcapi"
}

func (a *ogcAPI) landing(w http.ResponseWriter, r *http.Request) {
	base := a.base(r)
	writeJSON(w, http.StatusOK, landing{
		Title:       a.cfg.Service.Title,
		Description: a.cfg.Service.Abstract,
		Links: []link{
			{Href: base, Rel: "self", Type: "application/json", Title: "this document"},
			{Href: base + "/collections", Rel: "data", Type: "application/json", Title: "feature collections"},
		},
	})
}

func (a *ogcAPI) describe(base string) collection {
	c := collection{
		ID:          composer.FeatureTypeName,
		Title:       composer.FeatureTypeTitle,
		Description: "Three-word addresses on a regular grid over the requested bbox",
		ItemType:    "feature",
		CRS:         []string{crs84},
	}
	c.Extent.Spatial.BBox = [][4]float64{{-180, -90, 180, 90}}
	c.Extent.Spatial.CRS = crs84
	for _, code := range a.crs.SupportedCodes() {
		c.CRS = append(c.CRS, "http://www.opengis.net/def/crs/EPSG/0/"+strings.TrimPrefix(code, "EPSG:"))
	}
	self := base + "/collections/" + c.ID
	c.Links = []link{
		{Href: self, Rel: "self", Type: "application/json"},
		{Href: self + "/items", Rel: "items", Type: composer.ContentTypeGeoJSON},
	}
	return c
}

func (a *ogcAPI) collections(w http.ResponseWriter, r *http.Request) {
	base := a.base(r)
	writeJSON(w, http.StatusOK, collections{
		Collections: []collection{a.describe(base)},
		Links:       []link{{Href: base + "/collections", Rel: "self", Type: "application/json"}},
	})
}

func (a *ogcAPI) collection(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "collectionId") != composer.FeatureTypeName {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "collection not found"})
		return
	}
	writeJSON(w, http.StatusOK, a.describe(a.base(r)))
}

// items maps the Features query onto a WFS 2.0.0 GetFeature. bbox-crs (or
// crs) names the system the bbox is expressed in.
func (a *ogcAPI) items(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "collectionId") != composer.FeatureTypeName {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "collection not found"})
		return
	}
	q := r.URL.Query()
	req := ogc.Request{
		Service:      "WFS",
		Version:      ogc.DialectV2.Version(),
		Operation:    ogc.OpGetFeature,
		TypeName:     composer.FeatureTypeName,
		OutputFormat: composer.ContentTypeGeoJSON,
		Language:     q.Get("language"),
	}

	if raw := strings.TrimSpace(q.Get("bbox")); raw != "" {
		b, err := model.ParseWFSBBox(raw)
		if err != nil {
			writeError(r.Context(), w, a.logger, apperr.Wrap(apperr.InvalidParameterValue, err, "invalid bbox"))
			return
		}
		req.BBox = &b
	}
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		n, ok := positive(raw)
		if !ok {
			writeError(r.Context(), w, a.logger, apperr.Errorf(apperr.InvalidParameterValue,
				"limit must be a positive integer, got %q", raw))
			return
		}
		req.MaxFeatures = &n
	}
	srs := q.Get("bbox-crs")
	if srs == "" {
		srs = q.Get("crs")
	}
	if !strings.HasSuffix(strings.ToUpper(strings.TrimSpace(srs)), "CRS84") {
		req.SrsName = srs
	}

	wfsURL := a.cfg.PublicURL
	if wfsURL == "" {
		wfsURL = origin(r) + "/wfs"
	}
	resp, err := a.ex.Execute(r.Context(), req, wfsURL)
	if err != nil {
		writeError(r.Context(), w, a.logger, err)
		return
	}
	writeResponse(w, r, resp, false)
}

func positive(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	return n, err == nil && n > 0
}
