package rentalAuth

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Lifecycle event names.
const (
	EventLoginSuccess  = "login.success"
	EventLoginLocked   = "login.locked"
	EventTokenReissued = "token.reissued"
	EventTokenLogout   = "token.logout"
	EventTokensExpired = "member.tokens_expired"
)

// Event is one token lifecycle notification. Events never carry token values.
type Event struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Timestamp time.Time         `json:"timestamp"`
	MemberUID int64             `json:"memberUid,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func newEvent(name string, uid int64, now time.Time, metadata map[string]string) Event {
	return Event{
		ID:        uuid.NewString(),
		Name:      name,
		Timestamp: now.UTC(),
		MemberUID: uid,
		Metadata:  metadata,
	}
}

// EventSink receives events from the dispatcher goroutine. Emit should not
// block for long; slow sinks back up the dispatcher buffer.
type EventSink interface {
	Emit(ctx context.Context, event Event)
}

type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// ChannelSink forwards events to a buffered channel.
type ChannelSink struct {
	events chan Event
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{events: make(chan Event, buffer)}
}

func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink writes one JSON document per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{writer: w}
}

func (s *JSONWriterSink) Emit(_ context.Context, event Event) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.writer.Write(data)
}
