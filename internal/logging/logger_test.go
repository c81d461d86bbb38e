package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoggerWritesToRotatedFile(t *testing.T) {
	dir := t.TempDir()

	l := &Logger{level: DEBUG, projectDir: dir, maxSize: maxLogSize}
	if err := l.init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	defer l.Close()

	l.Info("hello %s", "world")

	data, err := os.ReadFile(filepath.Join(dir, defaultLogDir, defaultLogFile))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if got := string(data); !strings.Contains(got, "[INFO] hello world") {
		t.Fatalf("expected log line to contain formatted message, got: %q", got)
	}
}

func TestLoggerSetLevelFiltersBelowThreshold(t *testing.T) {
	dir := t.TempDir()

	l := &Logger{level: WARN, projectDir: dir, maxSize: maxLogSize}
	if err := l.init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	defer l.Close()

	l.Debug("should not appear")
	l.Error("should appear")

	data, err := os.ReadFile(filepath.Join(dir, defaultLogDir, defaultLogFile))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	got := string(data)
	if strings.Contains(got, "should not appear") {
		t.Fatal("debug message leaked through a WARN-level logger")
	}
	if !strings.Contains(got, "should appear") {
		t.Fatal("expected error message to be written")
	}
}
