package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]log.Level{
		"debug":   log.DebugLevel,
		"INFO":    log.InfoLevel,
		"warning": log.WarnLevel,
		"error":   log.ErrorLevel,
		"bogus":   log.InfoLevel,
		"":        log.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseFormatter(t *testing.T) {
	if ParseFormatter("json") != log.JSONFormatter {
		t.Error("expected json formatter")
	}
	if ParseFormatter("logfmt") != log.LogfmtFormatter {
		t.Error("expected logfmt formatter")
	}
	if ParseFormatter("pretty") != log.TextFormatter {
		t.Error("expected text formatter by default")
	}
}

func TestNew_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.ReportTimestamp = false
	opts.Level = log.WarnLevel
	logger := New(&buf, opts)

	logger.Info("hidden")
	logger.Warn("shown", "intent", "load")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("expected info line filtered, got %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "intent=load") {
		t.Errorf("expected warn line with fields, got %q", out)
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "todoview.log")
	opts := DefaultOptions()
	opts.Formatter = log.JSONFormatter

	logger, closer, err := OpenFile(path, opts)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	logger.Info("hello")
	closer.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"hello"`) {
		t.Errorf("expected JSON log line, got %q", data)
	}
}
