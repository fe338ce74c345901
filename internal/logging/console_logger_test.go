package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/datatools-io/batchload/pkg/batchload"
)

// Compile-time interface checks.
var (
	_ batchload.Logger = (*ConsoleLogger)(nil)
	_ batchload.Logger = (*NullLogger)(nil)
)

func TestConsoleLogger_Info(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLoggerTo(&buf, false)

	logger.Info("loaded %d rows into %s", 42, "users")

	got := buf.String()
	if got != "loaded 42 rows into users\n" {
		t.Errorf("unexpected output: %q", got)
	}
}

func TestConsoleLogger_VerboseSuppressed(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLoggerTo(&buf, false)

	logger.Verbose("detail that should not appear")

	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestConsoleLogger_VerboseEnabled(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLoggerTo(&buf, true)

	logger.Verbose("handle released")

	got := buf.String()
	if !strings.HasPrefix(got, "[VERBOSE] ") || !strings.Contains(got, "handle released") {
		t.Errorf("unexpected output: %q", got)
	}
}

func TestConsoleLogger_ErrorPrefix(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLoggerTo(&buf, false)

	logger.Error("probe failed: %v", "database unreachable")

	got := buf.String()
	if !strings.HasPrefix(got, "[ERROR] ") {
		t.Errorf("expected [ERROR] prefix, got %q", got)
	}
}

func TestConsoleLogger_LiteralPercent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLoggerTo(&buf, false)

	// Messages without args must not be re-interpreted as format strings.
	logger.Info("progress: 100% done")

	if got := buf.String(); got != "progress: 100% done\n" {
		t.Errorf("unexpected output: %q", got)
	}
}

func TestNullLogger_Discards(t *testing.T) {
	logger := NewNullLogger()
	logger.Verbose("ignored")
	logger.Info("ignored")
	logger.Error("ignored")
}
