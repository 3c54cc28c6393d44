package events

import (
	"testing"
	"time"
)

func TestEventBus_PublishSubscribe(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	ch := bus.Subscribe(EventStateChange)

	bus.Publish(&StateChangeEvent{
		BaseEvent: BaseEvent{
			EventType: EventStateChange,
			Time:      time.Now(),
		},
		RunID:    "run-1",
		OldState: "precheck",
		NewState: "cleaning",
	})

	select {
	case received := <-ch:
		change, ok := received.(*StateChangeEvent)
		if !ok {
			t.Fatal("Expected StateChangeEvent")
		}
		if change.NewState != "cleaning" {
			t.Errorf("Expected new state 'cleaning', got '%s'", change.NewState)
		}
		if change.RunID != "run-1" {
			t.Errorf("Expected run ID 'run-1', got '%s'", change.RunID)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for event")
	}
}

func TestEventBus_MultipleSubscribers(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	ch1 := bus.Subscribe(EventLog)
	ch2 := bus.Subscribe(EventLog)

	bus.PublishLog("run-1", InfoLevel, "Compiling", "compiling", nil)

	received1 := false
	received2 := false

	select {
	case <-ch1:
		received1 = true
	case <-time.After(100 * time.Millisecond):
	}

	select {
	case <-ch2:
		received2 = true
	case <-time.After(100 * time.Millisecond):
	}

	if !received1 || !received2 {
		t.Error("Not all subscribers received the event")
	}
}

func TestEventBus_DifferentEventTypes(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	stateCh := bus.Subscribe(EventStateChange)
	logCh := bus.Subscribe(EventLog)

	bus.PublishStateChange("run-1", "idle", "precheck", "")

	select {
	case <-stateCh:
	case <-time.After(100 * time.Millisecond):
		t.Error("State subscriber didn't receive event")
	}

	select {
	case <-logCh:
		t.Error("Log subscriber received wrong event type")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEventBus_SubscribeAll(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	allCh := bus.SubscribeAll()

	bus.PublishStateChange("run-1", "idle", "precheck", "")
	bus.PublishComplete("run-1", true, time.Second)

	count := 0
	for i := 0; i < 2; i++ {
		select {
		case <-allCh:
			count++
		case <-time.After(100 * time.Millisecond):
		}
	}

	if count != 2 {
		t.Errorf("Expected to receive 2 events, got %d", count)
	}
}

func TestEventBus_NonBlocking(t *testing.T) {
	bus := NewEventBus(2)
	defer bus.Close()

	ch := bus.Subscribe(EventStateChange)

	for i := 0; i < 10; i++ {
		bus.PublishStateChange("run-1", "a", "b", "")
	}

	count := 0
	for {
		select {
		case <-ch:
			count++
		case <-time.After(10 * time.Millisecond):
			goto done
		}
	}
done:

	if count != 2 {
		t.Errorf("Expected buffered count 2, got %d", count)
	}
	if dropped := bus.GetDroppedEventCount(); dropped != 8 {
		t.Errorf("Expected 8 dropped events, got %d", dropped)
	}
}

func TestEventBus_Close(t *testing.T) {
	bus := NewEventBus(10)

	ch := bus.Subscribe(EventComplete)
	all := bus.SubscribeAll()

	bus.Close()
	bus.Close() // second close is a no-op

	if _, ok := <-ch; ok {
		t.Error("Channel should be closed after bus.Close()")
	}
	if _, ok := <-all; ok {
		t.Error("All-events channel should be closed after bus.Close()")
	}

	// Publishing after close should not panic
	bus.PublishComplete("run-1", false, 0)

	// Subscribing after close returns a closed channel
	if _, ok := <-bus.Subscribe(EventLog); ok {
		t.Error("Subscribe after Close should return a closed channel")
	}
}

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{LogLevel(42), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.expected {
			t.Errorf("Level %d: expected %s, got %s", tt.level, tt.expected, got)
		}
	}
}
