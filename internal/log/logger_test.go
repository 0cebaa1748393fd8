package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{" error ", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLogger_ComponentAttached(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Format: "text", Component: ComponentLedger, Output: &buf})

	logger.InfoContext(context.Background(), "added", FieldTxID, "t1")
	out := buf.String()
	if !strings.Contains(out, "component=ledger") || !strings.Contains(out, "transaction_id=t1") {
		t.Errorf("unexpected log line: %s", out)
	}

	buf.Reset()
	logger.WithComponent(ComponentRecurring).With("k", "v").WarnContext(context.Background(), "skipped")
	out = buf.String()
	if !strings.Contains(out, "component=recurring") || !strings.Contains(out, "k=v") {
		t.Errorf("unexpected log line: %s", out)
	}
}

func TestNewHandler_JSON(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(Config{Level: slog.LevelWarn, Format: "JSON", Output: &buf})
	l := slog.New(h)
	l.Info("dropped")
	l.Warn("kept")
	if strings.Contains(buf.String(), "dropped") {
		t.Error("info record should be filtered at warn level")
	}
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("expected JSON output, got %s", buf.String())
	}
}
