package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestNew_JSONWithService(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: INFO, Format: JSON, Output: &buf, Service: "parking"})

	log.Info("slot reserved", "slot_number", 12)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected JSON record, got %q: %v", buf.String(), err)
	}
	if record[SERVICE] != "parking" {
		t.Errorf("expected service attribute 'parking', got %v", record[SERVICE])
	}
	if record["msg"] != "slot reserved" {
		t.Errorf("expected msg 'slot reserved', got %v", record["msg"])
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: WARN, Output: &buf})

	log.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("expected info record to be filtered at warn level, got %q", buf.String())
	}

	log.Warn("kept")
	if buf.Len() == 0 {
		t.Error("expected warn record to be written")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{DEBUG, slog.LevelDebug},
		{INFO, slog.LevelInfo},
		{WARN, slog.LevelWarn},
		{ERROR, slog.LevelError},
		{"WARN", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"debug+2", slog.LevelDebug + 2},
		{"verbose", slog.LevelInfo},
		{EMPTY, slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseLevel(tt.in); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Output: &buf}).With("request_id", "abc")

	log.Info("hello")

	if !bytes.Contains(buf.Bytes(), []byte(`"request_id":"abc"`)) {
		t.Errorf("expected request_id attribute, got %q", buf.String())
	}
}

func TestContextRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Output: &buf, Service: "parking"})
	ctx := ContextWithRequestID(context.Background(), "req-7")

	log.InfoContext(ctx, "payment confirmed")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected JSON record, got %q: %v", buf.String(), err)
	}
	if record[RequestIDAttr] != "req-7" {
		t.Errorf("expected request_id from context, got %v", record[RequestIDAttr])
	}

	buf.Reset()
	log.InfoContext(ctx, "explicit", RequestIDAttr, "other")
	if bytes.Count(buf.Bytes(), []byte(RequestIDAttr)) != 1 {
		t.Errorf("expected a single request_id attribute, got %q", buf.String())
	}
}

func TestRequestIDFromContext_Missing(t *testing.T) {
	if got := RequestIDFromContext(context.Background()); got != EMPTY {
		t.Errorf("expected empty request id, got %q", got)
	}
}

func TestDiscard(t *testing.T) {
	log := Discard()
	log.Error("ignored")
	if log.Enabled(context.Background(), slog.LevelError) {
		t.Error("expected discard logger to report every level disabled")
	}
}
