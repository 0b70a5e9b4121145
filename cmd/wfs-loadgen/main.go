// Command wfs-loadgen drives GetFeature traffic at a running gateway and
// writes per-request samples (CSV) and a latency summary (JSON).
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/mohammed-shakir/w3w-wfs/internal/core/httpclient"
	"github.com/mohammed-shakir/w3w-wfs/internal/core/model"
	"github.com/mohammed-shakir/w3w-wfs/internal/logger"
)

type config struct {
	TargetURL      string
	Concurrency    int
	Duration       time.Duration
	ZipfS, ZipfV   float64
	BBoxCount      int
	MaxFeatures    int
	Version        string
	OutputFormat   string
	OutputPrefix   string
	RequestTimeout time.Duration
	CentroidFile   string
	LogLevel       string
}

func loadConfig() config {
	var cfg config
	flag.StringVar(&cfg.TargetURL, "target", "http://localhost:8090/wfs", "gateway /wfs URL")
	flag.IntVar(&cfg.Concurrency, "concurrency", 8, "concurrent workers")
	flag.DurationVar(&cfg.Duration, "duration", 30*time.Second, "test duration")
	flag.Float64Var(&cfg.ZipfS, "zipf-s", 1.3, "Zipf parameter s (>1)")
	flag.Float64Var(&cfg.ZipfV, "zipf-v", 1.0, "Zipf parameter v (>=1)")
	flag.IntVar(&cfg.BBoxCount, "bboxes", 64, "distinct bboxes in the pool")
	flag.IntVar(&cfg.MaxFeatures, "max-features", 10, "maxFeatures sent with each request")
	flag.StringVar(&cfg.Version, "version", "2.0.0", "WFS version")
	flag.StringVar(&cfg.OutputFormat, "output-format", "", "outputFormat (empty for GML)")
	flag.StringVar(&cfg.OutputPrefix, "out", "results/loadgen", "output file prefix")
	flag.DurationVar(&cfg.RequestTimeout, "timeout", 30*time.Second, "per-request timeout")
	flag.StringVar(&cfg.CentroidFile, "centroids", "", "optional id,lon,lat CSV to drive bboxes")
	flag.StringVar(&cfg.LogLevel, "log-level", "info", "log level")
	flag.Parse()
	return cfg
}

type sample struct {
	Start   time.Time
	Latency time.Duration
	Status  int
	Err     string
	Box     int
}

type summary struct {
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	DurationSec   float64   `json:"duration_sec"`
	Total         int64     `json:"total"`
	Success       int64     `json:"success"`
	Errors        int64     `json:"errors"`
	ThroughputRPS float64   `json:"throughput_rps"`
	P50Ms         float64   `json:"p50_ms"`
	P95Ms         float64   `json:"p95_ms"`
	P99Ms         float64   `json:"p99_ms"`
	Concurrency   int       `json:"concurrency"`
	BBoxes        int       `json:"bboxes"`
	MaxFeatures   int       `json:"max_features"`
	Version       string    `json:"version"`
	Target        string    `json:"target"`
}

func main() {
	cfg := loadConfig()
	zl := logger.Build(logger.Config{Level: cfg.LogLevel, Console: true, Service: "wfs-loadgen"}, os.Stderr)
	log := logger.NewSlog(&zl)

	if err := run(cfg, log); err != nil {
		log.Error("loadgen failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg config, log *slog.Logger) error {
	if cfg.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", cfg.Concurrency)
	}
	// rand.NewZipf returns nil outside s > 1, v >= 1
	if !(cfg.ZipfS > 1) || !(cfg.ZipfV >= 1) {
		return fmt.Errorf("zipf-s must be > 1 and zipf-v >= 1, got s=%g v=%g", cfg.ZipfS, cfg.ZipfV)
	}
	target, err := url.Parse(cfg.TargetURL)
	if err != nil {
		return fmt.Errorf("parse target: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.OutputPrefix), 0o750); err != nil {
		return fmt.Errorf("mkdir results: %w", err)
	}
	prefix := cfg.OutputPrefix + "_" + time.Now().UTC().Format("20060102_150405Z")

	seed := time.Now().UnixNano()
	var boxes []model.BoundingBox
	if cfg.CentroidFile != "" {
		cs, err := loadCentroidsCSV(cfg.CentroidFile)
		if err != nil {
			log.Warn("centroids unusable; falling back to synthetic bboxes", "file", cfg.CentroidFile, "err", err)
		} else {
			boxes = boxesAround(cs, cfg.BBoxCount, 0.005)
		}
	}
	if len(boxes) == 0 {
		boxes = makeBBoxes(cfg.BBoxCount, rand.New(rand.NewSource(seed)))
	}
	if len(boxes) == 0 {
		return fmt.Errorf("no bboxes to request")
	}

	csvPath, jsonPath := prefix+"_samples.csv", prefix+"_summary.json"
	csvFile, err := os.Create(filepath.Clean(csvPath))
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer func() { _ = csvFile.Close() }()

	client := httpclient.NewOutbound(cfg.RequestTimeout)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	samples := make(chan sample, 4096)
	type agg struct {
		total, ok, failed int64
		latMs             []float64
	}
	done := make(chan agg, 1)
	go func() {
		w := csv.NewWriter(csvFile)
		_ = w.Write([]string{"timestamp", "latency_ms", "status", "error", "bbox_idx", "bbox"})
		var a agg
		for s := range samples {
			a.total++
			ms := float64(s.Latency.Microseconds()) / 1000.0
			if s.Err == "" {
				a.ok++
				a.latMs = append(a.latMs, ms)
			} else {
				a.failed++
			}
			_ = w.Write([]string{
				s.Start.UTC().Format(time.RFC3339Nano),
				strconv.FormatFloat(ms, 'f', 3, 64),
				strconv.Itoa(s.Status),
				s.Err,
				strconv.Itoa(s.Box),
				boxes[s.Box].String(),
			})
		}
		w.Flush()
		done <- a
	}()

	start := time.Now()
	log.Info("loadgen start", "target", cfg.TargetURL, "duration", cfg.Duration.String(),
		"concurrency", cfg.Concurrency, "bboxes", len(boxes), "version", cfg.Version)

	var wg sync.WaitGroup
	wg.Add(cfg.Concurrency)
	for id := range cfg.Concurrency {
		go func() {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed + int64(id) + 1))
			zipf := rand.NewZipf(r, cfg.ZipfS, cfg.ZipfV, uint64(len(boxes)-1))
			for ctx.Err() == nil {
				idx := int(zipf.Uint64())
				s := fire(ctx, client, *target, cfg, boxes[idx])
				s.Box = idx
				select {
				case samples <- s:
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	wg.Wait()
	close(samples)

	a := <-done
	end := time.Now()
	elapsed := end.Sub(start).Seconds()
	sort.Float64s(a.latMs)
	sum := summary{
		Start: start.UTC(), End: end.UTC(), DurationSec: elapsed,
		Total: a.total, Success: a.ok, Errors: a.failed,
		ThroughputRPS: float64(a.total) / elapsed,
		P50Ms:         percentile(a.latMs, 50),
		P95Ms:         percentile(a.latMs, 95),
		P99Ms:         percentile(a.latMs, 99),
		Concurrency:   cfg.Concurrency,
		BBoxes:        len(boxes),
		MaxFeatures:   cfg.MaxFeatures,
		Version:       cfg.Version,
		Target:        cfg.TargetURL,
	}
	if err := writeSummary(jsonPath, sum); err != nil {
		return err
	}
	log.Info("loadgen done", "total", a.total, "ok", a.ok, "errors", a.failed,
		"rps", sum.ThroughputRPS, "p50_ms", nanToZero(sum.P50Ms), "p95_ms", nanToZero(sum.P95Ms),
		"p99_ms", nanToZero(sum.P99Ms), "csv", csvPath, "json", jsonPath)
	return nil
}

// fire issues one GetFeature for box.
func fire(ctx context.Context, client *http.Client, u url.URL, cfg config, box model.BoundingBox) sample {
	q := u.Query()
	q.Set("service", "WFS")
	q.Set("version", cfg.Version)
	q.Set("request", "GetFeature")
	q.Set("typeName", "location")
	q.Set("bbox", box.String())
	q.Set("maxFeatures", strconv.Itoa(cfg.MaxFeatures))
	if cfg.OutputFormat != "" {
		q.Set("outputFormat", cfg.OutputFormat)
	}
	u.RawQuery = q.Encode()

	s := sample{Start: time.Now()}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		s.Err = err.Error()
		return s
	}
	resp, err := client.Do(req)
	s.Latency = time.Since(s.Start)
	if err != nil {
		s.Err = err.Error()
		return s
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	s.Status = resp.StatusCode
	if resp.StatusCode != http.StatusOK {
		s.Err = "status=" + strconv.Itoa(resp.StatusCode)
	}
	return s
}

func writeSummary(path string, s summary) error {
	s.P50Ms, s.P95Ms, s.P99Ms = nanToZero(s.P50Ms), nanToZero(s.P95Ms), nanToZero(s.P99Ms)
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("create summary: %w", err)
	}
	defer func() { _ = f.Close() }()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// encoding/json rejects NaN
func nanToZero(f float64) float64 {
	if math.IsNaN(f) {
		return 0
	}
	return f
}
