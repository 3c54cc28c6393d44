package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestLogger_ConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Out: &buf, NoColor: true})

	l.Info().Str("version", "1.2.3").Msg("Build started")

	out := buf.String()
	if !strings.Contains(out, "Build started") {
		t.Errorf("expected message in output, got %q", out)
	}
	if !strings.Contains(out, "version=1.2.3") {
		t.Errorf("expected field in output, got %q", out)
	}
}

func TestLogger_DebugHiddenAtInfoLevel(t *testing.T) {
	SetGlobalLevel(zerolog.InfoLevel)
	defer SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	l := New(Options{Out: &buf, NoColor: true})

	l.Debug().Msgf("hidden %d", 1)
	if buf.Len() != 0 {
		t.Errorf("debug output should be suppressed, got %q", buf.String())
	}

	SetGlobalLevel(zerolog.DebugLevel)
	l.Debug().Msgf("shown %d", 2)
	if !strings.Contains(buf.String(), "shown 2") {
		t.Errorf("debug output expected after level change, got %q", buf.String())
	}
}

func TestLogger_FileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "msibuild.log")

	var buf bytes.Buffer
	l := New(Options{Out: &buf, LogFile: logFile, NoColor: true})
	l.Warn().Str("package", "Product.msi").Msg("stale package removed")
	if err := l.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), `"level":"warn"`) {
		t.Errorf("expected JSON warn line, got %q", string(data))
	}
	if !strings.Contains(buf.String(), "stale package removed") {
		t.Errorf("console should still receive output, got %q", buf.String())
	}
}

func TestLogger_Output(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Out: &buf, NoColor: true})
	if l.Output() != &buf {
		t.Errorf("Output() should return the console writer")
	}
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	l.Error().Msg("nothing")
	if err := l.Close(); err != nil {
		t.Errorf("Close() on nop logger = %v", err)
	}
}

func TestLogger_FileOnly(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "msibuild.log")

	var buf bytes.Buffer
	l := New(Options{Out: &buf, LogFile: logFile, NoColor: true})
	defer l.Close()

	l.FileOnly().Info().Msg("quiet line")

	if buf.Len() != 0 {
		t.Errorf("console should stay empty, got %q", buf.String())
	}
	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "quiet line") {
		t.Errorf("expected line in log file, got %q", string(data))
	}

	if NewNop().FileOnly().Output() == nil {
		t.Error("FileOnly without a file should still be usable")
	}
}
