package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &m); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	return m
}

func TestSlogBridge_CarriesContextFields(t *testing.T) {
	var buf bytes.Buffer
	zl := Build(Config{Level: "debug", Service: "w3w-wfs"}, &buf)
	l := NewSlog(&zl)

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithComponent(ctx, "executor")
	ctx = WithOperation(ctx, "GetFeature")
	ctx = WithWFSVersion(ctx, "2.0.0")
	l.WarnContext(ctx, "geocode failed", "points", 3, "err", errors.New("boom"))

	m := decodeLine(t, &buf)
	want := map[string]any{
		"level":       "warn",
		"msg":         "geocode failed",
		"service":     "w3w-wfs",
		"request_id":  "req-1",
		"component":   "executor",
		"operation":   "GetFeature",
		"wfs_version": "2.0.0",
		"err":         "boom",
	}
	for k, v := range want {
		if m[k] != v {
			t.Fatalf("field %s=%v want %v (line %v)", k, m[k], v, m)
		}
	}
	if m["points"] != float64(3) {
		t.Fatalf("points=%v want 3", m["points"])
	}
	if _, ok := m["timestamp"]; !ok {
		t.Fatalf("missing timestamp in %v", m)
	}
}

func TestSlogBridge_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	zl := Build(Config{Level: "warn"}, &buf)
	l := NewSlog(&zl)

	l.Debug("hidden")
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected nothing below warn, got %q", buf.String())
	}
	if l.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("info should be disabled at warn level")
	}
	l.Error("shown")
	if decodeLine(t, &buf)["level"] != "error" {
		t.Fatalf("unexpected line %q", buf.String())
	}
}

func TestWithRequestID_GeneratesWhenEmpty(t *testing.T) {
	ctx := WithRequestID(context.Background(), "")
	if id := RequestID(ctx); len(id) != 16 {
		t.Fatalf("generated id=%q want 16 hex chars", id)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]string{"DEBUG": "debug", " warn ": "warn", "error": "error", "": "info", "bogus": "info"}
	for in, want := range cases {
		if got := ParseLevel(in).String(); got != want {
			t.Fatalf("ParseLevel(%q)=%s want %s", in, got, want)
		}
	}
}

func TestSlogBridge_SingleComponentField(t *testing.T) {
	var buf bytes.Buffer
	zl := Build(Config{Level: "info", Service: "w3w-wfs"}, &buf)
	l := NewSlog(&zl)

	l.InfoContext(WithComponent(context.Background(), "http"), "request")
	if n := strings.Count(buf.String(), `"component"`); n != 1 {
		t.Fatalf("component appears %d times in %q", n, buf.String())
	}
}

func TestSlogBridge_SiblingLoggersKeepOwnAttrs(t *testing.T) {
	var buf bytes.Buffer
	zl := Build(Config{Level: "info"}, &buf)
	// two levels of With leave spare capacity in the parent's attr slice
	parent := NewSlog(&zl).With("a", 1, "b", 2).With("c", 3)
	left := parent.With("side", "left")
	right := parent.With("side", "right")

	left.Info("x")
	if got := decodeLine(t, &buf)["side"]; got != "left" {
		t.Fatalf("side=%v want left", got)
	}
	buf.Reset()
	right.Info("y")
	if got := decodeLine(t, &buf)["side"]; got != "right" {
		t.Fatalf("side=%v want right", got)
	}
}
