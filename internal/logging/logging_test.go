package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewWithWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelInfo, true)

	logger.Debug("hidden")
	logger.Info("Loaded sheet blob", "version", "1.2", "records", 0, "empty", "")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug line should be filtered at info level")
	}
	if !strings.Contains(out, "Loaded sheet blob") || !strings.Contains(out, "version=1.2") {
		t.Errorf("unexpected output %q", out)
	}
	if !strings.Contains(out, "records=0") {
		t.Error("numeric zero should be kept")
	}
	if strings.Contains(out, "empty=") {
		t.Error("empty strings should be dropped")
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("no color escapes expected")
	}
}

func TestNewWithWriter_LevelVar(t *testing.T) {
	var buf bytes.Buffer
	lv := &slog.LevelVar{}
	lv.Set(slog.LevelWarn)
	logger := NewWithWriter(&buf, lv, true)

	logger.Info("quiet")
	if buf.Len() != 0 {
		t.Errorf("expected nothing at warn level, got %q", buf.String())
	}
	lv.Set(slog.LevelDebug)
	logger.Debug("loud")
	if !strings.Contains(buf.String(), "loud") {
		t.Error("expected debug output after lowering the level")
	}
}
