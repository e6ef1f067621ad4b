package logging

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func readEvents(t *testing.T, path string) []Event {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer file.Close()

	var events []Event
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var event Event
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			t.Fatalf("unmarshal log line: %v", err)
		}
		events = append(events, event)
	}
	return events
}

func TestLoggerWritesRunLog(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir, "run-1")
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	if err := logger.Info(CategoryVisit, "visit_started", "visit started", map[string]any{"location": "https://example.com"}); err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	events := readEvents(t, filepath.Join(dir, "runs", "run-1.jsonl"))
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Category != CategoryVisit {
		t.Errorf("expected category visit, got %s", events[0].Category)
	}
	if events[0].RunID != "run-1" {
		t.Errorf("expected run id filled in, got %q", events[0].RunID)
	}
	if events[0].Timestamp.IsZero() {
		t.Error("expected timestamp filled in")
	}
}

func TestLoggerErrorsGoToErrorLog(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir, "run-2")
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	defer logger.Close()

	logger.Error(CategoryRequest, "request_failed", "request failed", nil)
	logger.Info(CategoryRequest, "request_finished", "request finished", nil)

	events := readEvents(t, filepath.Join(dir, "errors.jsonl"))
	if len(events) != 1 {
		t.Fatalf("expected 1 error event, got %d", len(events))
	}
	if events[0].EventType != "request_failed" {
		t.Errorf("unexpected event in error log: %s", events[0].EventType)
	}
}

func TestLoggerMinLevelFiltering(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir, "run-3")
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	logger.Debug(CategoryBridge, "callback", "dropped below min level", nil)
	logger.SetMinLevel(LevelDebug)
	logger.Debug(CategoryBridge, "callback", "kept", nil)
	logger.Close()

	events := readEvents(t, filepath.Join(dir, "runs", "run-3.jsonl"))
	if len(events) != 1 {
		t.Fatalf("expected 1 event after filtering, got %d", len(events))
	}
	if events[0].Message != "kept" {
		t.Errorf("wrong event survived filtering: %q", events[0].Message)
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var logger *Logger
	if err := logger.Info(CategoryVisit, "visit_started", "no-op", nil); err != nil {
		t.Errorf("nil logger Info returned error: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("nil logger Close returned error: %v", err)
	}
}
