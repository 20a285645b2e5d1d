package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestJSONLogger_MergesFieldsAndFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, Options{Level: Info, Format: FormatJSON, App: "petcare"})

	l.Debug("hidden", nil)
	l.With(map[string]any{"module": "orders"}).Info("order created", map[string]any{"order_id": "o-1"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if entry["app"] != "petcare" || entry["module"] != "orders" || entry["order_id"] != "o-1" {
		t.Fatalf("missing fields: %v", entry)
	}
	if entry["level"] != "info" || entry["msg"] != "order created" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestTextLogger_SortedKeys(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, Options{Level: Debug, Format: FormatText})
	l.Warn("slot taken", map[string]any{"b": 2, "a": 1})

	out := buf.String()
	if !strings.Contains(out, "a=1 b=2 level=warn msg=slot taken") {
		t.Fatalf("unexpected text output: %q", out)
	}
}
