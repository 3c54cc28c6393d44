package progress

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rescale/msibuild/internal/events"
)

func TestNew_NonTerminalUsesLines(t *testing.T) {
	var buf bytes.Buffer
	if _, ok := New(&buf).(*LineReporter); !ok {
		t.Error("expected a LineReporter for a non-terminal writer")
	}
	if IsTerminal(&buf) {
		t.Error("a buffer is not a terminal")
	}
}

func TestLineReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewLineReporter(&buf)

	r.Start("Compiling")
	r.SetDescription("Compiling")
	r.SetDescription("Linking")
	r.SetDescription("")
	r.Error(errors.New("boom"))
	r.Finish()

	want := "Compiling\nLinking\nError: boom\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestSpinner_StartFinish(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner(&buf)

	s.Start("Compiling")
	time.Sleep(3 * time.Millisecond)
	s.SetDescription("Linking")
	s.Finish()
	s.Finish()

	s.Error(errors.New("link failed"))
	if !strings.Contains(buf.String(), "Error: link failed") {
		t.Errorf("expected error line, got %q", buf.String())
	}
}

// recorder captures Reporter calls.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
}

func (r *recorder) Start(d string)          { r.add("start:" + d) }
func (r *recorder) SetDescription(d string) { r.add("desc:" + d) }
func (r *recorder) Finish()                 { r.add("finish") }
func (r *recorder) Error(err error)         { r.add("error") }

func TestTrack(t *testing.T) {
	bus := events.NewEventBus(16)
	defer bus.Close()
	ch := bus.SubscribeAll()

	rec := &recorder{}
	done := Track(ch, rec)

	bus.PublishStateChange("run", "idle", "precheck", "")
	bus.PublishStateChange("run", "precheck", "cleaning", "")
	bus.PublishLog("run", events.InfoLevel, "candle ...", "compiling", nil)
	bus.PublishStateChange("run", "cleaning", "compiling", "")
	bus.PublishComplete("run", true, time.Second)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Track did not stop after CompleteEvent")
	}

	want := []string{
		"start:Checking toolchain",
		"desc:Removing stale artifacts",
		"desc:Compiling installer source",
		"finish",
	}
	if strings.Join(rec.calls, "|") != strings.Join(want, "|") {
		t.Errorf("got %v, want %v", rec.calls, want)
	}
}

func TestTrack_ClosedChannel(t *testing.T) {
	ch := make(chan events.Event)
	rec := &recorder{}
	done := Track(ch, rec)
	close(ch)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Track did not stop after channel close")
	}
	if len(rec.calls) != 1 || rec.calls[0] != "finish" {
		t.Errorf("expected a single finish, got %v", rec.calls)
	}
}

func TestDescribe(t *testing.T) {
	if Describe("linking") != "Linking installer package" {
		t.Errorf("unexpected description %q", Describe("linking"))
	}
	if Describe("mystery") != "mystery" {
		t.Error("unknown states should pass through")
	}
}
