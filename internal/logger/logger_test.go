package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("Failed to decode log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(Config{Level: "warn", Output: &buf})

	l.Info("dropped").Send()
	l.Error("kept").Send()

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d", len(lines))
	}
	if lines[0]["service"] != "editstore" {
		t.Errorf("Expected service editstore, got %v", lines[0]["service"])
	}
}

func TestUnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(Config{Level: "chatty", Output: &buf})

	l.Info("kept").Send()
	l.GetZerolog().Debug().Msg("dropped")

	if got := len(decodeLines(t, &buf)); got != 1 {
		t.Errorf("Expected 1 line, got %d", got)
	}
}

func TestComponentAndRequestLogging(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(Config{Level: "debug", Output: &buf})

	c := l.Component("undo")
	c.Info().Msg("hello")
	l.LogGrpcRequest("/editstore.v1.EditService/Discard", 3*time.Millisecond, errors.New("boom"))
	l.LogUndoOutcome("/items/1/edit", "timeout")

	lines := decodeLines(t, &buf)
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d", len(lines))
	}
	if lines[0]["component"] != "undo" {
		t.Errorf("Expected component undo, got %v", lines[0]["component"])
	}
	if lines[1]["level"] != "error" || lines[1]["error"] != "boom" {
		t.Errorf("Expected failed request at error level, got %v", lines[1])
	}
	if lines[2]["outcome"] != "timeout" {
		t.Errorf("Expected outcome timeout, got %v", lines[2]["outcome"])
	}
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(Config{Level: "info", Output: &buf}).WithFields(map[string]any{"url": "/items/1/edit"})

	l.Info("tagged").Send()

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0]["url"] != "/items/1/edit" {
		t.Errorf("Expected url field, got %v", lines)
	}
}
