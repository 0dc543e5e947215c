// Package audit records an append-only trail of booking, payment and room
// events. Sinks only ever receive events; nothing is read back into domain
// state.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Event struct {
	Type      string
	SubjectID string
	Payload   []byte
	CreatedAt time.Time
}

type Sink interface {
	Record(ctx context.Context, ev Event) error
}

// Recorder marshals payloads and forwards them to a sink. Failures are
// logged and swallowed so an audit outage never fails a domain operation.
type Recorder struct {
	sink Sink
	log  zerolog.Logger
	now  func() time.Time
}

func NewRecorder(sink Sink, log zerolog.Logger) *Recorder {
	return &Recorder{sink: sink, log: log, now: time.Now}
}

func (r *Recorder) Record(ctx context.Context, eventType, subjectID string, payload map[string]any) {
	if r == nil || r.sink == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		r.log.Error().Err(err).Str("event_type", eventType).Msg("failed to marshal event payload")
		data = nil
	}

	ev := Event{
		Type:      eventType,
		SubjectID: subjectID,
		Payload:   data,
		CreatedAt: r.now(),
	}
	if err := r.sink.Record(ctx, ev); err != nil {
		r.log.Error().Err(err).
			Str("event_type", eventType).
			Str("subject_id", subjectID).
			Msg("failed to record event")
	}
}

// LogSink writes each event as a structured log line.
type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Record(_ context.Context, ev Event) error {
	s.log.Info().
		Str("event_type", ev.Type).
		Str("subject_id", ev.SubjectID).
		RawJSON("payload", payloadOrEmpty(ev.Payload)).
		Time("at", ev.CreatedAt).
		Msg("event")
	return nil
}

func payloadOrEmpty(p []byte) []byte {
	if len(p) == 0 {
		return []byte("{}")
	}
	return p
}

// Multi fans an event out to every sink and joins their errors.
type Multi []Sink

func (m Multi) Record(ctx context.Context, ev Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MemorySink keeps events in process memory.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

func (s *MemorySink) Record(_ context.Context, ev Event) error {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
	return nil
}

func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Types returns the recorded event types in order.
func (s *MemorySink) Types() []string {
	evs := s.Events()
	out := make([]string, len(evs))
	for i, ev := range evs {
		out[i] = ev.Type
	}
	return out
}
