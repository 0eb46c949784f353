package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggerErrorIncludesContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf})

	ctx := context.Background()
	ctx = log.WithSKU(ctx, "FER_0018_ORG")
	ctx = log.WithFileName(ctx, "FER_0018_ORG 1.jpg")

	log.Error(ctx, "boom", errors.New("boom"))

	if !bytes.Contains(buf.Bytes(), []byte("\"sku\"")) {
		t.Fatalf("expected sku to be preserved; entry=%s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("\"file_name\"")) {
		t.Fatalf("expected file_name to be preserved; entry=%s", buf.String())
	}
}

func TestLoggerFieldsDoNotLeakAcrossContexts(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf})

	base := context.Background()
	_ = log.WithSKU(base, "FER_0018_ORG")

	log.Info(base, "clean entry")
	if bytes.Contains(buf.Bytes(), []byte("\"sku\"")) {
		t.Fatalf("expected base context to stay clean; entry=%s", buf.String())
	}
}

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("LOG_FORMAT", "console")
	if got := envOrDefault("LOG_FORMAT", "json"); got != "console" {
		t.Fatalf("expected env value to win, got %q", got)
	}

	t.Setenv("LOG_FORMAT", "")
	if got := envOrDefault("LOG_FORMAT", "json"); got != "json" {
		t.Fatalf("expected fallback for empty value, got %q", got)
	}
}

func TestParseLevelDefaults(t *testing.T) {
	if lvl := ParseLevel(""); lvl != zerolog.InfoLevel {
		t.Fatalf("expected default info level, got %v", lvl)
	}
	if lvl := ParseLevel("invalid"); lvl != zerolog.InfoLevel {
		t.Fatalf("invalid level should fallback to info, got %v", lvl)
	}
	if lvl := ParseLevel("warn"); lvl != zerolog.WarnLevel {
		t.Fatalf("expected warn level, got %v", lvl)
	}
}
