package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mohammed-shakir/w3w-wfs/internal/core/model"
)

func TestFire_SendsGetFeature(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		if got.Get("maxFeatures") == "0" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte("<wfs:FeatureCollection/>"))
	}))
	defer srv.Close()

	u, _ := url.Parse(srv.URL + "/wfs")
	cfg := config{Version: "1.0.0", MaxFeatures: 5, OutputFormat: "application/json"}
	box := model.NewBoundingBox(51, -1, 52, 0)

	s := fire(context.Background(), srv.Client(), *u, cfg, box)
	if s.Err != "" || s.Status != http.StatusOK {
		t.Fatalf("sample=%+v", s)
	}
	want := map[string]string{
		"service": "WFS", "version": "1.0.0", "request": "GetFeature",
		"bbox": "-1,51,0,52", "maxFeatures": "5", "outputFormat": "application/json",
	}
	for k, v := range want {
		if got.Get(k) != v {
			t.Fatalf("%s=%q want %q", k, got.Get(k), v)
		}
	}

	cfg.MaxFeatures = 0
	s = fire(context.Background(), srv.Client(), *u, cfg, box)
	if s.Status != http.StatusBadRequest || s.Err != "status=400" {
		t.Fatalf("sample=%+v", s)
	}
}

func TestRun_RejectsZipfOutOfDomain(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	base := config{
		TargetURL:    "http://127.0.0.1:1/wfs",
		Concurrency:  1,
		Duration:     time.Millisecond,
		BBoxCount:    4,
		OutputPrefix: filepath.Join(t.TempDir(), "lg"),
	}
	cases := []struct {
		name string
		s, v float64
	}{
		{"s equals one", 1, 1},
		{"s below one", 0.5, 1},
		{"v below one", 1.3, 0.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			cfg.ZipfS, cfg.ZipfV = tc.s, tc.v
			err := run(cfg, log)
			if err == nil || !strings.Contains(err.Error(), "zipf") {
				t.Fatalf("err=%v want zipf validation error", err)
			}
		})
	}
}
