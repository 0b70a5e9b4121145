package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammed-shakir/w3w-wfs/internal/core/apperr"
	"github.com/mohammed-shakir/w3w-wfs/internal/core/config"
	"github.com/mohammed-shakir/w3w-wfs/internal/core/executor"
	"github.com/mohammed-shakir/w3w-wfs/internal/core/ogc"
)

type fakeExecutor struct {
	req        ogc.Request
	serviceURL string
	resp       executor.Response
	err        error
}

func (f *fakeExecutor) Execute(_ context.Context, req ogc.Request, serviceURL string) (executor.Response, error) {
	f.req = req
	f.serviceURL = serviceURL
	return f.resp, f.err
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func xmlResp(body string) executor.Response {
	return executor.Response{StatusCode: http.StatusOK, ContentType: "application/xml", Body: []byte(body)}
}

func TestHandleWFS_PassesParsedRequest(t *testing.T) {
	ex := &fakeExecutor{resp: executor.Response{StatusCode: 200, ContentType: "application/gml+xml", Body: []byte("<x/>")}}
	h := HandleWFS(discard(), config.Config{}, ex)

	req := httptest.NewRequest(http.MethodGet,
		"/wfs?SERVICE=WFS&REQUEST=GetFeature&BBOX=-1,51,0,52&maxFeatures=4&srsName=EPSG:4326", nil)
	req.Header.Set("Accept", "application/geo+json")
	rr := httptest.NewRecorder()
	h(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/gml+xml", rr.Header().Get("Content-Type"))
	assert.Equal(t, "<x/>", rr.Body.String())
	assert.Empty(t, rr.Header().Get("ETag"), "feature responses are not tagged")

	assert.Equal(t, "GetFeature", ex.req.Operation)
	require.NotNil(t, ex.req.BBox)
	assert.Equal(t, "-1,51,0,52", ex.req.BBox.String())
	require.NotNil(t, ex.req.MaxFeatures)
	assert.Equal(t, 4, *ex.req.MaxFeatures)
	assert.Equal(t, "application/geo+json", ex.req.AcceptHeader)
	assert.Equal(t, "http://example.com/wfs", ex.serviceURL)
}

func TestHandleWFS_ServiceURL(t *testing.T) {
	ex := &fakeExecutor{resp: xmlResp("<c/>")}

	req := httptest.NewRequest(http.MethodGet, "/wfs?request=GetCapabilities", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	req.Header.Set("X-Forwarded-Host", "maps.example.org")
	HandleWFS(discard(), config.Config{}, ex)(httptest.NewRecorder(), req)
	assert.Equal(t, "https://maps.example.org/wfs", ex.serviceURL)

	cfg := config.Config{PublicURL: "https://public.example.net/geo/wfs"}
	HandleWFS(discard(), cfg, ex)(httptest.NewRecorder(), req)
	assert.Equal(t, "https://public.example.net/geo/wfs", ex.serviceURL)
}

func TestHandleWFS_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"missing", apperr.E(apperr.MissingParameter, "missing required parameter: request"), 400, "missing required parameter: request"},
		{"bbox", apperr.E(apperr.InvalidBoundingBox, "bad box"), 400, "bad box"},
		{"crs", apperr.E(apperr.UnsupportedCrs, "CRS \"EPSG:1\" is not supported"), 400, "CRS \"EPSG:1\" is not supported"},
		{"upstream", apperr.Upstream(502, errors.New("x"), "convert"), 500, "internal server error"},
		{"plain", errors.New("marshal failed"), 500, "internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ex := &fakeExecutor{err: tc.err}
			rr := httptest.NewRecorder()
			HandleWFS(discard(), config.Config{}, ex)(rr, httptest.NewRequest(http.MethodGet, "/wfs?request=x", nil))

			assert.Equal(t, tc.code, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			var body map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tc.msg, body["error"])
		})
	}
}

func TestHandleWFS_ETagOnCapabilities(t *testing.T) {
	ex := &fakeExecutor{resp: xmlResp("<WFS_Capabilities/>")}
	h := HandleWFS(discard(), config.Config{}, ex)

	rr := httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodGet, "/wfs?request=GetCapabilities", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	tag := rr.Header().Get("ETag")
	require.NotEmpty(t, tag)
	assert.Equal(t, etag([]byte("<WFS_Capabilities/>")), tag)

	req := httptest.NewRequest(http.MethodGet, "/wfs?request=GetCapabilities", nil)
	req.Header.Set("If-None-Match", `"other", `+tag)
	rr = httptest.NewRecorder()
	h(rr, req)
	assert.Equal(t, http.StatusNotModified, rr.Code)
	assert.Empty(t, rr.Body.Bytes())

	req = httptest.NewRequest(http.MethodGet, "/wfs?request=DescribeFeatureType", nil)
	req.Header.Set("If-None-Match", `"stale"`)
	rr = httptest.NewRecorder()
	h(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("ETag"))
}

func TestMatch(t *testing.T) {
	assert.True(t, match("*", `"a"`))
	assert.True(t, match(`W/"a"`, `"a"`))
	assert.False(t, match("", `"a"`))
	assert.False(t, match(`"b"`, `"a"`))
}
