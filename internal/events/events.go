// Package events carries build pipeline notifications from the pipeline to
// whoever renders them (CLI spinner, debug log).
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rescale/msibuild/internal/constants"
)

// EventType defines the types of events that can be emitted
type EventType string

const (
	EventStateChange EventType = "state_change"
	EventLog         EventType = "log"
	EventComplete    EventType = "complete"
)

// LogLevel defines log severity levels
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// StateChangeEvent is one pipeline state transition.
type StateChangeEvent struct {
	BaseEvent
	RunID        string
	OldState     string
	NewState     string
	ErrorMessage string
}

// LogEvent is a human-readable note from the pipeline.
type LogEvent struct {
	BaseEvent
	RunID   string
	Level   LogLevel
	Message string
	State   string
	Error   error
}

// CompleteEvent is published once per run, after the terminal state.
type CompleteEvent struct {
	BaseEvent
	RunID     string
	Succeeded bool
	Duration  time.Duration
}

// EventBus manages event subscriptions and publishing
type EventBus struct {
	subscribers   map[EventType][]chan Event
	all           []chan Event // Subscribers to all events
	mu            sync.RWMutex
	bufferSize    int
	closed        bool
	droppedEvents atomic.Int64 // Count of dropped events due to full buffers
}

// NewEventBus creates a new event bus with specified buffer size
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = constants.EventBusDefaultBuffer
	}
	if bufferSize > constants.EventBusMaxBuffer {
		bufferSize = constants.EventBusMaxBuffer
	}
	return &EventBus{
		subscribers: make(map[EventType][]chan Event),
		all:         make([]chan Event, 0),
		bufferSize:  bufferSize,
	}
}

// Subscribe creates a subscription to a specific event type
func (eb *EventBus) Subscribe(eventType EventType) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.subscribers[eventType] = append(eb.subscribers[eventType], ch)
	return ch
}

// SubscribeAll creates a subscription to all events
func (eb *EventBus) SubscribeAll() <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.all = append(eb.all, ch)
	return ch
}

// Publish sends an event to all subscribers without blocking.
// A subscriber with a full buffer misses the event.
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return
	}

	for _, ch := range eb.subscribers[event.Type()] {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}

	for _, ch := range eb.all {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}
}

// Close shuts down the event bus and closes all channels
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	eb.closed = true

	for _, channels := range eb.subscribers {
		for _, ch := range channels {
			close(ch)
		}
	}

	for _, ch := range eb.all {
		close(ch)
	}
}

// PublishStateChange is a convenience method for publishing state change events
func (eb *EventBus) PublishStateChange(runID, oldState, newState, errorMsg string) {
	eb.Publish(&StateChangeEvent{
		BaseEvent: BaseEvent{
			EventType: EventStateChange,
			Time:      time.Now(),
		},
		RunID:        runID,
		OldState:     oldState,
		NewState:     newState,
		ErrorMessage: errorMsg,
	})
}

// PublishLog is a convenience method for publishing log events
func (eb *EventBus) PublishLog(runID string, level LogLevel, message, state string, err error) {
	eb.Publish(&LogEvent{
		BaseEvent: BaseEvent{
			EventType: EventLog,
			Time:      time.Now(),
		},
		RunID:   runID,
		Level:   level,
		Message: message,
		State:   state,
		Error:   err,
	})
}

// PublishComplete is a convenience method for publishing the end of a run
func (eb *EventBus) PublishComplete(runID string, succeeded bool, duration time.Duration) {
	eb.Publish(&CompleteEvent{
		BaseEvent: BaseEvent{
			EventType: EventComplete,
			Time:      time.Now(),
		},
		RunID:     runID,
		Succeeded: succeeded,
		Duration:  duration,
	})
}

// GetDroppedEventCount returns the total number of events dropped due to full buffers
func (eb *EventBus) GetDroppedEventCount() int64 {
	return eb.droppedEvents.Load()
}
