// Package router holds the HTTP handlers in front of the WFS executor.
package router

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/mohammed-shakir/w3w-wfs/internal/core/apperr"
	"github.com/mohammed-shakir/w3w-wfs/internal/core/config"
	"github.com/mohammed-shakir/w3w-wfs/internal/core/executor"
	"github.com/mohammed-shakir/w3w-wfs/internal/core/observability"
	"github.com/mohammed-shakir/w3w-wfs/internal/core/ogc"
)

// Executor answers parsed WFS requests.
type Executor interface {
	Execute(ctx context.Context, req ogc.Request, serviceURL string) (executor.Response, error)
}

// HandleWFS serves the KVP endpoint for every supported WFS operation.
func HandleWFS(logger *slog.Logger, cfg config.Config, ex Executor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}

		req := ogc.ParseValues(r.URL.Query())
		req.AcceptHeader = r.Header.Get("Accept")

		resp, err := ex.Execute(r.Context(), req, serviceURL(cfg, r))
		if err != nil {
			writeError(r.Context(), sw, logger, err)
		} else {
			op, _ := ogc.CanonicalOperation(req.Operation)
			writeResponse(sw, r, resp, op != ogc.OpGetFeature)
		}
		observability.ObserveHTTP(r.Method, "/wfs", sw.code, time.Since(start).Seconds())
	}
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// writeResponse writes resp. Cacheable documents carry an ETag and answer a
// matching If-None-Match with 304.
func writeResponse(w http.ResponseWriter, r *http.Request, resp executor.Response, cacheable bool) {
	h := w.Header()
	h.Set("Content-Type", resp.ContentType)
	if cacheable {
		tag := etag(resp.Body)
		h.Set("ETag", tag)
		if match(r.Header.Get("If-None-Match"), tag) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	h.Set("Content-Length", strconv.Itoa(len(resp.Body)))
	code := resp.StatusCode
	if code == 0 {
		code = http.StatusOK
	}
	w.WriteHeader(code)
	_, _ = w.Write(resp.Body)
}

func etag(body []byte) string {
	return `"` + strconv.FormatUint(xxhash.Sum64(body), 16) + `"`
}

func match(ifNoneMatch, tag string) bool {
	if ifNoneMatch == "" {
		return false
	}
	for cand := range strings.SplitSeq(ifNoneMatch, ",") {
		cand = strings.TrimPrefix(strings.TrimSpace(cand), "W/")
		if cand == "*" || cand == tag {
			return true
		}
	}
	return false
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps client-facing kinds to 400 with their message; everything
// else is logged and reported as a bare 500.
func writeError(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, err error) {
	code := http.StatusBadRequest
	msg := err.Error()
	if kind := apperr.KindOf(err); !kind.ClientFacing() {
		logger.ErrorContext(ctx, "request failed", "kind", kind.String(), "err", err)
		code = http.StatusInternalServerError
		msg = "internal server error"
	}
	writeJSON(w, code, errorBody{Error: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// serviceURL is the endpoint advertised in capabilities: the configured
// public URL, or the one the client used to reach us.
func serviceURL(cfg config.Config, r *http.Request) string {
	if cfg.PublicURL != "" {
		return cfg.PublicURL
	}
	return origin(r) + r.URL.Path
}

// origin is scheme://host as seen by the client, honouring proxy headers.
func origin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		scheme = strings.TrimSpace(strings.Split(p, ",")[0])
	}
	host := r.Host
	if h := r.Header.Get("X-Forwarded-Host"); h != "" {
		host = strings.TrimSpace(strings.Split(h, ",")[0])
	}
	return scheme + "://" + host
}
